package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS tweets (
    id                     TEXT PRIMARY KEY,
    user_id                TEXT NOT NULL,
    tweet_id               TEXT NOT NULL,
    tweet_url              TEXT NOT NULL,
    author_name            TEXT NOT NULL DEFAULT '',
    author_handle          TEXT NOT NULL DEFAULT '',
    author_avatar          TEXT NOT NULL DEFAULT '',
    content_type           TEXT NOT NULL DEFAULT 'single',
    raw_text               TEXT NOT NULL DEFAULT '',
    full_content           TEXT NOT NULL DEFAULT '',
    has_video              BOOLEAN NOT NULL DEFAULT 0,
    video_url              TEXT NOT NULL DEFAULT '',
    video_transcript       TEXT NOT NULL DEFAULT '',
    video_duration_seconds INTEGER NOT NULL DEFAULT 0,
    article_url            TEXT NOT NULL DEFAULT '',
    article_content        TEXT NOT NULL DEFAULT '',
    summary                TEXT NOT NULL DEFAULT '',
    category_id            TEXT NOT NULL DEFAULT '',
    is_read                BOOLEAN NOT NULL DEFAULT 0,
    is_starred             BOOLEAN NOT NULL DEFAULT 0,
    captured_at            DATETIME NOT NULL,
    created_at             DATETIME NOT NULL,
    updated_at             DATETIME NOT NULL,
    UNIQUE(user_id, tweet_id)
);

CREATE INDEX IF NOT EXISTS idx_tweets_user_captured ON tweets(user_id, captured_at);
CREATE INDEX IF NOT EXISTS idx_tweets_category ON tweets(category_id);

CREATE TABLE IF NOT EXISTS categories (
    id        TEXT PRIMARY KEY,
    name      TEXT NOT NULL,
    slug      TEXT NOT NULL UNIQUE,
    is_system BOOLEAN NOT NULL DEFAULT 0
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS tweets (
    id                     TEXT PRIMARY KEY,
    user_id                TEXT NOT NULL,
    tweet_id               TEXT NOT NULL,
    tweet_url              TEXT NOT NULL,
    author_name            TEXT NOT NULL DEFAULT '',
    author_handle          TEXT NOT NULL DEFAULT '',
    author_avatar          TEXT NOT NULL DEFAULT '',
    content_type           TEXT NOT NULL DEFAULT 'single',
    raw_text               TEXT NOT NULL DEFAULT '',
    full_content           TEXT NOT NULL DEFAULT '',
    has_video              BOOLEAN NOT NULL DEFAULT FALSE,
    video_url              TEXT NOT NULL DEFAULT '',
    video_transcript       TEXT NOT NULL DEFAULT '',
    video_duration_seconds INTEGER NOT NULL DEFAULT 0,
    article_url            TEXT NOT NULL DEFAULT '',
    article_content        TEXT NOT NULL DEFAULT '',
    summary                TEXT NOT NULL DEFAULT '',
    category_id            TEXT NOT NULL DEFAULT '',
    is_read                BOOLEAN NOT NULL DEFAULT FALSE,
    is_starred             BOOLEAN NOT NULL DEFAULT FALSE,
    captured_at            TIMESTAMPTZ NOT NULL,
    created_at             TIMESTAMPTZ NOT NULL,
    updated_at             TIMESTAMPTZ NOT NULL,
    UNIQUE(user_id, tweet_id)
);

CREATE INDEX IF NOT EXISTS idx_tweets_user_captured ON tweets(user_id, captured_at);
CREATE INDEX IF NOT EXISTS idx_tweets_category ON tweets(category_id);

CREATE TABLE IF NOT EXISTS categories (
    id        TEXT PRIMARY KEY,
    name      TEXT NOT NULL,
    slug      TEXT NOT NULL UNIQUE,
    is_system BOOLEAN NOT NULL DEFAULT FALSE
);
`

// schema returns the DDL for the given driver. The two dialects differ only
// in boolean literals and timestamp types.
func schema(driver string) string {
	if driver == "postgres" {
		return schemaPostgres
	}
	return schemaSQLite
}
