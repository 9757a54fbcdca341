package capture

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/elonfeng/tweetstash/internal/errors"
	"github.com/elonfeng/tweetstash/internal/store"
	"github.com/elonfeng/tweetstash/pkg/tweet"
	"github.com/oklog/ulid/v2"
)

// Result is the outcome of an intake call. IsNew is false when the tweet was
// already captured; the existing record is returned unchanged.
type Result struct {
	TweetID string
	IsNew   bool
}

// Service is the capture intake: an idempotent create-or-find over
// (user, source tweet id).
type Service struct {
	store store.Store
}

// New creates a capture service.
func New(s store.Store) *Service {
	return &Service{store: s}
}

// CaptureOrFind validates the URL (or free-form shared text), returns the
// existing record for (userID, tweet id) if one exists, and otherwise inserts
// a minimal placeholder. Re-capturing a known tweet never creates a duplicate
// and never resets its read/star state.
func (s *Service) CaptureOrFind(ctx context.Context, userID, input string) (*Result, error) {
	if userID == "" {
		return nil, errors.NewInvalidInput("user id is required")
	}

	ref := tweet.ParseURL(input)
	if ref == nil {
		return nil, errors.NewInvalidInput("not a tweet URL")
	}

	existing, err := s.store.FindTweet(ctx, userID, ref.TweetID)
	if err != nil {
		return nil, errors.NewStorage(err)
	}
	if existing != nil {
		return &Result{TweetID: existing.ID, IsNew: false}, nil
	}

	t := &tweet.Tweet{
		ID:           NewID(),
		UserID:       userID,
		TweetID:      ref.TweetID,
		TweetURL:     permalink(input, ref),
		AuthorHandle: ref.Username,
		ContentType:  tweet.ContentSingle,
	}

	if err := s.store.CreateTweet(ctx, t); err != nil {
		if store.IsUniqueViolation(err) {
			// Lost a near-simultaneous capture race; the winner's row is ours.
			found, ferr := s.store.FindTweet(ctx, userID, ref.TweetID)
			if ferr == nil && found != nil {
				return &Result{TweetID: found.ID, IsNew: false}, nil
			}
		}
		return nil, errors.NewStorage(err)
	}

	return &Result{TweetID: t.ID, IsNew: true}, nil
}

// NewID generates a sortable record id.
func NewID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// permalink stores the input as given when it is a bare URL, and rebuilds the
// canonical permalink when the input was share-target text.
func permalink(input string, ref *tweet.Ref) string {
	trimmed := strings.TrimSpace(input)
	if !strings.ContainsAny(trimmed, " \t\n") {
		return trimmed
	}
	return fmt.Sprintf("https://x.com/%s/status/%s", ref.Username, ref.TweetID)
}
