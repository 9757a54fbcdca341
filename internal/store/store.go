package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elonfeng/tweetstash/pkg/tweet"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ListOpts controls digest listing. UserID is mandatory; rows are always
// scoped to it.
type ListOpts struct {
	UserID       string
	CategorySlug string
	Starred      bool
	UnreadOnly   bool
	Limit        int
	Offset       int
}

// StaleOpts controls the re-enrichment sweep query.
type StaleOpts struct {
	OlderThan time.Time
	Limit     int
}

// Store is the persistence interface.
type Store interface {
	CreateTweet(ctx context.Context, t *tweet.Tweet) error
	GetTweet(ctx context.Context, id string) (*tweet.Tweet, error)
	FindTweet(ctx context.Context, userID, tweetID string) (*tweet.Tweet, error)
	UpdateExtraction(ctx context.Context, id string, data tweet.ExtractedData) error
	UpdateTranscript(ctx context.Context, id, transcript string, durationSeconds int) error
	UpdateSummary(ctx context.Context, id string, s *tweet.Summary, categoryID string) error
	SetFlags(ctx context.Context, userID string, ids []string, isRead, isStarred *bool) (int, error)
	ListTweets(ctx context.Context, opts ListOpts) ([]tweet.Tweet, int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	ListStale(ctx context.Context, opts StaleOpts) ([]string, error)

	GetCategoryBySlug(ctx context.Context, slug tweet.CategorySlug) (*tweet.Category, error)
	ListCategories(ctx context.Context) ([]tweet.Category, error)

	Close() error
}

// SQLStore implements Store over sqlite or postgres via sqlx.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// New opens the database for the given driver, runs migrations, and seeds
// the system categories. driver is "sqlite" or "postgres"; dsn is the sqlite
// path or the postgres connection string.
func New(driver, dsn string) (*SQLStore, error) {
	var db *sqlx.DB
	var err error

	switch driver {
	case "", "sqlite":
		driver = "sqlite"
		db, err = sqlx.Open("sqlite", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	case "postgres":
		db, err = sqlx.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if _, err := db.Exec(schema(driver)); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.seedCategories(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed categories: %w", err)
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// IsUniqueViolation reports whether err is a uniqueness-constraint failure
// from either supported driver. Capture treats it as "already exists".
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "constraint failed") ||
		strings.Contains(msg, "duplicate key")
}

func (s *SQLStore) CreateTweet(ctx context.Context, t *tweet.Tweet) error {
	now := time.Now().UTC()
	if t.CapturedAt.IsZero() {
		t.CapturedAt = now
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.ContentType == "" {
		t.ContentType = tweet.ContentSingle
	}
	t.SummaryJSON = marshalSummary(t.Summary)

	query := s.db.Rebind(`
		INSERT INTO tweets (id, user_id, tweet_id, tweet_url, author_name, author_handle, author_avatar,
			content_type, raw_text, full_content, has_video, video_url, video_transcript,
			video_duration_seconds, article_url, article_content, summary, category_id,
			is_read, is_starred, captured_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.TweetID, t.TweetURL, t.AuthorName, t.AuthorHandle, t.AuthorAvatar,
		t.ContentType, t.RawText, t.FullContent, t.HasVideo, t.VideoURL, t.VideoTranscript,
		t.VideoDurationSeconds, t.ArticleURL, t.ArticleContent, t.SummaryJSON, t.CategoryID,
		t.IsRead, t.IsStarred, t.CapturedAt, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert tweet %s: %w", t.ID, err)
	}
	return nil
}

func (s *SQLStore) GetTweet(ctx context.Context, id string) (*tweet.Tweet, error) {
	var t tweet.Tweet
	query := s.db.Rebind("SELECT * FROM tweets WHERE id = ?")
	if err := s.db.GetContext(ctx, &t, query, id); err != nil {
		return nil, fmt.Errorf("get tweet %s: %w", id, err)
	}
	t.Summary = unmarshalSummary(t.SummaryJSON)
	return &t, nil
}

// FindTweet looks up a record by its owner and source tweet id. Returns
// (nil, nil) when no record exists.
func (s *SQLStore) FindTweet(ctx context.Context, userID, tweetID string) (*tweet.Tweet, error) {
	var t tweet.Tweet
	query := s.db.Rebind("SELECT * FROM tweets WHERE user_id = ? AND tweet_id = ?")
	err := s.db.GetContext(ctx, &t, query, userID, tweetID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tweet %s/%s: %w", userID, tweetID, err)
	}
	t.Summary = unmarshalSummary(t.SummaryJSON)
	return &t, nil
}

func (s *SQLStore) UpdateExtraction(ctx context.Context, id string, data tweet.ExtractedData) error {
	query := s.db.Rebind(`
		UPDATE tweets SET author_name = ?, author_handle = ?, author_avatar = ?,
			content_type = ?, raw_text = ?, full_content = ?, has_video = ?,
			video_url = ?, video_duration_seconds = ?, article_url = ?, article_content = ?,
			updated_at = ?
		WHERE id = ?
	`)
	_, err := s.db.ExecContext(ctx, query,
		data.AuthorName, data.AuthorHandle, data.AuthorAvatar,
		data.ContentType, data.RawText, data.FullContent, data.HasVideo,
		data.VideoURL, data.VideoDurationSeconds, data.ArticleURL, data.ArticleContent,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update extraction %s: %w", id, err)
	}
	return nil
}

func (s *SQLStore) UpdateTranscript(ctx context.Context, id, transcript string, durationSeconds int) error {
	query := s.db.Rebind(`
		UPDATE tweets SET video_transcript = ?, video_duration_seconds = ?, updated_at = ?
		WHERE id = ?
	`)
	_, err := s.db.ExecContext(ctx, query, transcript, durationSeconds, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update transcript %s: %w", id, err)
	}
	return nil
}

func (s *SQLStore) UpdateSummary(ctx context.Context, id string, sum *tweet.Summary, categoryID string) error {
	query := s.db.Rebind(`
		UPDATE tweets SET summary = ?, category_id = ?, updated_at = ?
		WHERE id = ?
	`)
	_, err := s.db.ExecContext(ctx, query, marshalSummary(sum), categoryID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update summary %s: %w", id, err)
	}
	return nil
}

// SetFlags applies the supplied read/star flags to the user's listed tweets.
// Nil flags are left untouched. Returns the number of rows updated.
func (s *SQLStore) SetFlags(ctx context.Context, userID string, ids []string, isRead, isStarred *bool) (int, error) {
	if len(ids) == 0 || (isRead == nil && isStarred == nil) {
		return 0, nil
	}

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}
	if isRead != nil {
		sets = append(sets, "is_read = ?")
		args = append(args, *isRead)
	}
	if isStarred != nil {
		sets = append(sets, "is_starred = ?")
		args = append(args, *isStarred)
	}

	query := fmt.Sprintf("UPDATE tweets SET %s WHERE user_id = ? AND id IN (?)", strings.Join(sets, ", "))
	args = append(args, userID, ids)

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return 0, fmt.Errorf("build flags query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), inArgs...)
	if err != nil {
		return 0, fmt.Errorf("set flags: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ListTweets returns the user's tweets newest-captured first, with the
// matching total count and category rows attached.
func (s *SQLStore) ListTweets(ctx context.Context, opts ListOpts) ([]tweet.Tweet, int, error) {
	where := "WHERE user_id = ?"
	args := []any{opts.UserID}

	if opts.CategorySlug != "" {
		where += " AND category_id IN (SELECT id FROM categories WHERE slug = ?)"
		args = append(args, opts.CategorySlug)
	}
	if opts.Starred {
		where += " AND is_starred = ?"
		args = append(args, true)
	}
	if opts.UnreadOnly {
		where += " AND is_read = ?"
		args = append(args, false)
	}

	var total int
	countQuery := s.db.Rebind("SELECT COUNT(*) FROM tweets " + where)
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tweets: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := s.db.Rebind("SELECT * FROM tweets " + where + " ORDER BY captured_at DESC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	var tweets []tweet.Tweet
	if err := s.db.SelectContext(ctx, &tweets, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tweets: %w", err)
	}

	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[string]tweet.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	for i := range tweets {
		tweets[i].Summary = unmarshalSummary(tweets[i].SummaryJSON)
		if c, ok := byID[tweets[i].CategoryID]; ok {
			cat := c
			tweets[i].Category = &cat
		}
	}
	return tweets, total, nil
}

func (s *SQLStore) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	query := s.db.Rebind("SELECT COUNT(*) FROM tweets WHERE user_id = ? AND is_read = ?")
	if err := s.db.GetContext(ctx, &n, query, userID, false); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// ListStale returns ids of records that still look like placeholders: no
// summary and no extracted text, older than the cutoff. The sweeper re-drives
// these through enrichment.
func (s *SQLStore) ListStale(ctx context.Context, opts StaleOpts) ([]string, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	query := s.db.Rebind(`
		SELECT id FROM tweets
		WHERE summary = '' AND raw_text = '' AND created_at < ?
		ORDER BY created_at
		LIMIT ?
	`)
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query, opts.OlderThan, limit); err != nil {
		return nil, fmt.Errorf("list stale tweets: %w", err)
	}
	return ids, nil
}

// GetCategoryBySlug resolves a category slug to its row. Returns (nil, nil)
// when the slug has no row.
func (s *SQLStore) GetCategoryBySlug(ctx context.Context, slug tweet.CategorySlug) (*tweet.Category, error) {
	var c tweet.Category
	query := s.db.Rebind("SELECT * FROM categories WHERE slug = ?")
	err := s.db.GetContext(ctx, &c, query, slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category %s: %w", slug, err)
	}
	return &c, nil
}

func (s *SQLStore) ListCategories(ctx context.Context) ([]tweet.Category, error) {
	var categories []tweet.Category
	if err := s.db.SelectContext(ctx, &categories, "SELECT * FROM categories ORDER BY slug"); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// seedCategories inserts the fixed system categories exactly once. Lookups by
// slug must stay deterministic, so the slug column carries a unique index and
// existing rows are never touched.
func (s *SQLStore) seedCategories(ctx context.Context) error {
	for _, slug := range tweet.AllCategorySlugs() {
		existing, err := s.GetCategoryBySlug(ctx, slug)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		query := s.db.Rebind("INSERT INTO categories (id, name, slug, is_system) VALUES (?, ?, ?, ?)")
		if _, err := s.db.ExecContext(ctx, query,
			"cat_"+string(slug), tweet.CategoryName(slug), slug, true); err != nil {
			if IsUniqueViolation(err) {
				continue
			}
			return fmt.Errorf("insert category %s: %w", slug, err)
		}
	}
	return nil
}

func marshalSummary(s *tweet.Summary) string {
	if s == nil {
		return ""
	}
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(data)
}

func unmarshalSummary(raw string) *tweet.Summary {
	if raw == "" {
		return nil
	}
	var s tweet.Summary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil
	}
	return &s
}
