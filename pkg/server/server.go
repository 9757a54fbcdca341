package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/elonfeng/tweetstash/internal/errors"
	"github.com/elonfeng/tweetstash/internal/store"
	"github.com/elonfeng/tweetstash/pkg/capture"
	"github.com/elonfeng/tweetstash/pkg/enrich"
	"github.com/elonfeng/tweetstash/pkg/tweet"
	"github.com/sirupsen/logrus"
)

// Server provides the HTTP API.
type Server struct {
	store         store.Store
	capture       *capture.Service
	orchestrator  *enrich.Orchestrator
	log           *logrus.Logger
	port          int
	authSecret    string
	webhookSecret string
}

// New creates a new HTTP server.
func New(
	s store.Store,
	intake *capture.Service,
	orchestrator *enrich.Orchestrator,
	log *logrus.Logger,
	port int,
	authSecret, webhookSecret string,
) *Server {
	if port == 0 {
		port = 8080
	}
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		store:         s,
		capture:       intake,
		orchestrator:  orchestrator,
		log:           log,
		port:          port,
		authSecret:    authSecret,
		webhookSecret: webhookSecret,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/capture", s.requireAuth(s.handleCapture))
	mux.HandleFunc("/api/v1/webhook", s.handleWebhook)
	mux.HandleFunc("/api/v1/digest", s.requireAuth(s.handleDigest))
	mux.HandleFunc("/api/v1/categories", s.requireAuth(s.handleCategories))
	return mux
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.WithField("addr", addr).Info("tweetstash server listening")
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// captureRequest is the capture intake body. SharedText carries the raw
// share-target payload when no clean URL is available.
type captureRequest struct {
	URL        string `json:"url"`
	SharedText string `json:"sharedText,omitempty"`
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"success": false, "error": "method not allowed"})
		return
	}

	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}

	input := req.URL
	if input == "" {
		input = req.SharedText
	}

	result, err := s.capture.CaptureOrFind(r.Context(), UserID(r), input)
	if err != nil {
		s.log.WithError(err).Warn("capture failed")
		writeJSON(w, errors.StatusOf(err), map[string]any{"success": false, "error": userMessage(err)})
		return
	}

	message := "Tweet already captured"
	if result.IsNew {
		message = "Tweet captured and processing"
		// Fire-and-forget relative to this request; the handle is dropped.
		s.orchestrator.Enqueue(result.TweetID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"tweetId": result.TweetID,
		"message": message,
	})
}

// webhookPayload is the trusted extension payload, keyed by user and source
// tweet id.
type webhookPayload struct {
	UserID   string `json:"userId"`
	TweetID  string `json:"tweetId"`
	TweetURL string `json:"tweetUrl"`
	tweet.ExtractedData
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"success": false, "error": "method not allowed"})
		return
	}

	if s.webhookSecret == "" || bearerToken(r) != s.webhookSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Unauthorized"})
		return
	}

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}
	if payload.UserID == "" || payload.TweetID == "" || payload.TweetURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "missing required fields"})
		return
	}

	ctx := r.Context()

	rec, err := s.store.FindTweet(ctx, payload.UserID, payload.TweetID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to save tweet"})
		return
	}

	message := "Tweet updated"
	if rec == nil {
		rec = &tweet.Tweet{
			ID:           capture.NewID(),
			UserID:       payload.UserID,
			TweetID:      payload.TweetID,
			TweetURL:     payload.TweetURL,
			AuthorHandle: payload.AuthorHandle,
		}
		if err := s.store.CreateTweet(ctx, rec); err != nil {
			if !store.IsUniqueViolation(err) {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to save tweet"})
				return
			}
			if rec, err = s.store.FindTweet(ctx, payload.UserID, payload.TweetID); err != nil || rec == nil {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to save tweet"})
				return
			}
		} else {
			message = "Tweet captured"
		}
	}

	if err := s.orchestrator.RunWithPayload(ctx, rec.ID, &payload.ExtractedData); err != nil {
		s.log.WithField("tweet_id", rec.ID).WithError(err).Error("webhook enrichment failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to process tweet"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"tweetId": rec.ID,
		"message": message,
	})
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleDigestList(w, r)
	case http.MethodPatch:
		s.handleDigestUpdate(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"success": false, "error": "method not allowed"})
	}
}

func (s *Server) handleDigestList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := store.ListOpts{
		UserID:       UserID(r),
		CategorySlug: q.Get("category"),
		Starred:      q.Get("starred") == "true",
		UnreadOnly:   q.Get("unread") == "true",
		Limit:        50,
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		opts.Offset = v
	}

	tweets, total, err := s.store.ListTweets(r.Context(), opts)
	if err != nil {
		s.log.WithError(err).Error("digest query failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to fetch digest"})
		return
	}

	unread, err := s.store.CountUnread(r.Context(), opts.UserID)
	if err != nil {
		s.log.WithError(err).Error("unread count failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to fetch digest"})
		return
	}

	if tweets == nil {
		tweets = []tweet.Tweet{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"tweets":      tweets,
		"totalCount":  total,
		"unreadCount": unread,
	})
}

// digestUpdate applies read/star flags to a batch of the caller's tweets.
type digestUpdate struct {
	TweetIDs  []string `json:"tweetIds"`
	IsRead    *bool    `json:"isRead,omitempty"`
	IsStarred *bool    `json:"isStarred,omitempty"`
}

func (s *Server) handleDigestUpdate(w http.ResponseWriter, r *http.Request) {
	var req digestUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}
	if len(req.TweetIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid tweet IDs"})
		return
	}
	if req.IsRead == nil && req.IsStarred == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "no updates provided"})
		return
	}

	updated, err := s.store.SetFlags(r.Context(), UserID(r), req.TweetIDs, req.IsRead, req.IsStarred)
	if err != nil {
		s.log.WithError(err).Error("digest update failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to update tweets"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": updated})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"success": false, "error": "method not allowed"})
		return
	}

	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to fetch categories"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"categories": categories,
	})
}

// userMessage maps internal errors to user-facing text; storage details never
// leak out as capture failures.
func userMessage(err error) string {
	if errors.Is(err, errors.ErrInvalidInput) {
		return "Invalid tweet URL"
	}
	if errors.Is(err, errors.ErrUnauthorized) {
		return "Unauthorized"
	}
	return "Failed to save tweet"
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
