package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/elonfeng/tweetstash/internal/store"
	"github.com/elonfeng/tweetstash/pkg/capture"
	"github.com/elonfeng/tweetstash/pkg/enrich"
	"github.com/elonfeng/tweetstash/pkg/extract"
	"github.com/elonfeng/tweetstash/pkg/summarize"
	"github.com/elonfeng/tweetstash/pkg/tweet"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAuthSecret    = "test-auth-secret"
	testWebhookSecret = "test-webhook-secret"
)

type testEnv struct {
	store   store.Store
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := store.New("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": `{"tldr":"summarized","keyPoints":["a"],"whyItMatters":"b","suggestedCategory":"learning"}`}},
			},
		})
		w.Write(body)
	}))
	t.Cleanup(provider.Close)

	// Unroutable nitter keeps the background extraction path local and fast.
	extractor := extract.NewExtractor("http://127.0.0.1:0", false, nil)
	summarizer := summarize.New("openai", "", "test-key", provider.URL, nil)
	orchestrator := enrich.New(db, extractor, nil, summarizer, nil, time.Minute)

	srv := New(db, capture.New(db), orchestrator, nil, 0, testAuthSecret, testWebhookSecret)
	return &testEnv{store: db, handler: srv.Handler()}
}

func mintToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/v1/capture", "", map[string]string{"url": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/capture", "garbage-token", map[string]string{"url": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/capture",
		mintToken(t, "wrong-secret", "user-1"), map[string]string{"url": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid signature but no subject claim.
	rec, _ = env.do(t, http.MethodPost, "/api/v1/capture",
		mintToken(t, testAuthSecret, ""), map[string]string{"url": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte(testAuthSecret))
	require.NoError(t, err)
	rec, _ = env.do(t, http.MethodPost, "/api/v1/capture", signed, map[string]string{"url": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCapture(t *testing.T) {
	env := newTestEnv(t)
	token := mintToken(t, testAuthSecret, "user-1")

	rec, body := env.do(t, http.MethodPost, "/api/v1/capture", token,
		map[string]string{"url": "https://x.com/alice/status/1234567890"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Tweet captured and processing", body["message"])
	tweetID, _ := body["tweetId"].(string)
	require.NotEmpty(t, tweetID)

	// Re-capture is idempotent and reports the existing record.
	rec, body = env.do(t, http.MethodPost, "/api/v1/capture", token,
		map[string]string{"url": "https://twitter.com/alice/status/1234567890"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tweet already captured", body["message"])
	assert.Equal(t, tweetID, body["tweetId"])
}

func TestCapture_SharedText(t *testing.T) {
	env := newTestEnv(t)
	token := mintToken(t, testAuthSecret, "user-1")

	rec, body := env.do(t, http.MethodPost, "/api/v1/capture", token,
		map[string]string{"sharedText": "look at this https://x.com/alice/status/55 wow"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestCapture_InvalidURL(t *testing.T) {
	env := newTestEnv(t)
	token := mintToken(t, testAuthSecret, "user-1")

	rec, body := env.do(t, http.MethodPost, "/api/v1/capture", token,
		map[string]string{"url": "https://example.com/not-a-tweet"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid tweet URL", body["error"])
}

func TestCapture_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	token := mintToken(t, testAuthSecret, "user-1")

	rec, _ := env.do(t, http.MethodGet, "/api/v1/capture", token, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhook(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]any{
		"userId":       "user-1",
		"tweetId":      "1234567890",
		"tweetUrl":     "https://x.com/alice/status/1234567890",
		"authorName":   "Alice",
		"authorHandle": "alice",
		"rawText":      "extension captured text",
		"fullContent":  "extension captured text",
	}

	rec, body := env.do(t, http.MethodPost, "/api/v1/webhook", testWebhookSecret, payload)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Tweet captured", body["message"])
	recID, _ := body["tweetId"].(string)
	require.NotEmpty(t, recID)

	// The webhook path enriches synchronously.
	stored, err := env.store.GetTweet(context.Background(), recID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.AuthorName)
	require.NotNil(t, stored.Summary)
	assert.Equal(t, "summarized", stored.Summary.TLDR)
	assert.Equal(t, "cat_learning", stored.CategoryID)

	// Second delivery updates the same record.
	rec, body = env.do(t, http.MethodPost, "/api/v1/webhook", testWebhookSecret, payload)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tweet updated", body["message"])
	assert.Equal(t, recID, body["tweetId"])
}

func TestWebhook_Auth(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]any{
		"userId": "user-1", "tweetId": "1", "tweetUrl": "https://x.com/a/status/1",
	}

	rec, _ := env.do(t, http.MethodPost, "/api/v1/webhook", "", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/v1/webhook", "wrong-secret", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A user JWT is not the webhook secret.
	rec, _ = env.do(t, http.MethodPost, "/api/v1/webhook", mintToken(t, testAuthSecret, "user-1"), payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhook_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/v1/webhook", testWebhookSecret,
		map[string]any{"userId": "user-1", "tweetId": "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing required fields", body["error"])
}

func TestDigestList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i, id := range []string{"101", "102", "103"} {
		require.NoError(t, env.store.CreateTweet(ctx, &tweet.Tweet{
			ID: "rec_" + id, UserID: "user-1", TweetID: id,
			TweetURL:     "https://x.com/alice/status/" + id,
			AuthorHandle: "alice",
			CapturedAt:   time.Date(2026, 8, 1, 12, i, 0, 0, time.UTC),
		}))
	}
	require.NoError(t, env.store.CreateTweet(ctx, &tweet.Tweet{
		ID: "rec_other", UserID: "user-2", TweetID: "900",
		TweetURL: "https://x.com/bob/status/900", AuthorHandle: "bob",
	}))
	yes := true
	_, err := env.store.SetFlags(ctx, "user-1", []string{"rec_101"}, &yes, nil)
	require.NoError(t, err)

	token := mintToken(t, testAuthSecret, "user-1")

	rec, body := env.do(t, http.MethodGet, "/api/v1/digest", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["totalCount"])
	assert.Equal(t, float64(2), body["unreadCount"])
	tweets, ok := body["tweets"].([]any)
	require.True(t, ok)
	require.Len(t, tweets, 3)
	first, _ := tweets[0].(map[string]any)
	assert.Equal(t, "103", first["tweetId"])

	rec, body = env.do(t, http.MethodGet, "/api/v1/digest?unread=true", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["totalCount"])

	rec, body = env.do(t, http.MethodGet, "/api/v1/digest?limit=1&offset=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tweets, _ = body["tweets"].([]any)
	require.Len(t, tweets, 1)

	// Another user sees none of these.
	rec, body = env.do(t, http.MethodGet, "/api/v1/digest", mintToken(t, testAuthSecret, "user-3"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["totalCount"])
	tweets, ok = body["tweets"].([]any)
	require.True(t, ok)
	assert.Empty(t, tweets)
}

func TestDigestUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.CreateTweet(ctx, &tweet.Tweet{
		ID: "rec_101", UserID: "user-1", TweetID: "101",
		TweetURL: "https://x.com/alice/status/101", AuthorHandle: "alice",
	}))

	token := mintToken(t, testAuthSecret, "user-1")

	rec, body := env.do(t, http.MethodPatch, "/api/v1/digest", token,
		map[string]any{"tweetIds": []string{"rec_101"}, "isRead": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["updated"])

	stored, err := env.store.GetTweet(ctx, "rec_101")
	require.NoError(t, err)
	assert.True(t, stored.IsRead)

	rec, _ = env.do(t, http.MethodPatch, "/api/v1/digest", token,
		map[string]any{"tweetIds": []string{}, "isRead": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = env.do(t, http.MethodPatch, "/api/v1/digest", token,
		map[string]any{"tweetIds": []string{"rec_101"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no updates provided", body["error"])

	// Someone else's token cannot flip the flag.
	rec, body = env.do(t, http.MethodPatch, "/api/v1/digest", mintToken(t, testAuthSecret, "user-2"),
		map[string]any{"tweetIds": []string{"rec_101"}, "isStarred": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["updated"])
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)
	token := mintToken(t, testAuthSecret, "user-1")

	rec, body := env.do(t, http.MethodGet, "/api/v1/categories", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	categories, ok := body["categories"].([]any)
	require.True(t, ok)
	assert.Len(t, categories, 4)
}

func TestAuthNotConfigured(t *testing.T) {
	db, err := store.New("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := New(db, capture.New(db), nil, nil, 0, "", "")
	env := &testEnv{store: db, handler: srv.Handler()}

	rec, body := env.do(t, http.MethodGet, "/api/v1/digest", mintToken(t, testAuthSecret, "user-1"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication not configured", body["error"])

	// An empty webhook secret rejects everything, even an empty bearer.
	rec, _ = env.do(t, http.MethodPost, "/api/v1/webhook", "", map[string]any{
		"userId": "u", "tweetId": "1", "tweetUrl": "https://x.com/a/status/1",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
