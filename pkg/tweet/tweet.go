package tweet

import (
	"time"
)

// ContentType classifies the media shape of a captured tweet.
type ContentType string

const (
	ContentSingle  ContentType = "single"
	ContentThread  ContentType = "thread"
	ContentVideo   ContentType = "video"
	ContentArticle ContentType = "article"
)

// ValidContentType reports whether s is one of the known content types.
func ValidContentType(s string) bool {
	switch ContentType(s) {
	case ContentSingle, ContentThread, ContentVideo, ContentArticle:
		return true
	}
	return false
}

// CategorySlug identifies one of the fixed system categories.
type CategorySlug string

const (
	CategoryVibeCoding  CategorySlug = "vibe-coding-tutorials"
	CategoryLearning    CategorySlug = "learning"
	CategoryInspiration CategorySlug = "inspiration"
	CategoryUntagged    CategorySlug = "untagged"
)

// AllCategorySlugs returns the fixed category set, catch-all last.
func AllCategorySlugs() []CategorySlug {
	return []CategorySlug{
		CategoryVibeCoding,
		CategoryLearning,
		CategoryInspiration,
		CategoryUntagged,
	}
}

// ValidCategorySlug reports whether s is a recognized category slug.
func ValidCategorySlug(s string) bool {
	switch CategorySlug(s) {
	case CategoryVibeCoding, CategoryLearning, CategoryInspiration, CategoryUntagged:
		return true
	}
	return false
}

// CategoryName returns the display name for a slug.
func CategoryName(slug CategorySlug) string {
	switch slug {
	case CategoryVibeCoding:
		return "Vibe Coding Tutorials"
	case CategoryLearning:
		return "Learning"
	case CategoryInspiration:
		return "Inspiration"
	case CategoryUntagged:
		return "Untagged"
	}
	return string(slug)
}

// Category is a system category row.
type Category struct {
	ID       string       `json:"id" db:"id"`
	Name     string       `json:"name" db:"name"`
	Slug     CategorySlug `json:"slug" db:"slug"`
	IsSystem bool         `json:"isSystem" db:"is_system"`
}

// Summary is the structured AI summary attached to a tweet. It has no
// lifecycle of its own; it is embedded in the owning Tweet row.
type Summary struct {
	TLDR              string       `json:"tldr"`
	KeyPoints         []string     `json:"keyPoints"`
	WhyItMatters      string       `json:"whyItMatters"`
	SuggestedCategory CategorySlug `json:"suggestedCategory"`
}

// Tweet is the central entity: one captured tweet per (user, source tweet).
type Tweet struct {
	ID           string `json:"id" db:"id"`
	UserID       string `json:"userId" db:"user_id"`
	TweetID      string `json:"tweetId" db:"tweet_id"`
	TweetURL     string `json:"tweetUrl" db:"tweet_url"`
	AuthorName   string `json:"authorName" db:"author_name"`
	AuthorHandle string `json:"authorHandle" db:"author_handle"`
	AuthorAvatar string `json:"authorAvatar,omitempty" db:"author_avatar"`

	ContentType          ContentType `json:"contentType" db:"content_type"`
	RawText              string      `json:"rawText" db:"raw_text"`
	FullContent          string      `json:"fullContent" db:"full_content"`
	HasVideo             bool        `json:"hasVideo" db:"has_video"`
	VideoURL             string      `json:"videoUrl,omitempty" db:"video_url"`
	VideoTranscript      string      `json:"videoTranscript,omitempty" db:"video_transcript"`
	VideoDurationSeconds int         `json:"videoDurationSeconds,omitempty" db:"video_duration_seconds"`
	ArticleURL           string      `json:"articleUrl,omitempty" db:"article_url"`
	ArticleContent       string      `json:"articleContent,omitempty" db:"article_content"`

	Summary     *Summary  `json:"summary,omitempty" db:"-"`
	SummaryJSON string    `json:"-" db:"summary"`
	CategoryID  string    `json:"categoryId,omitempty" db:"category_id"`
	Category    *Category `json:"category,omitempty" db:"-"`

	IsRead    bool `json:"isRead" db:"is_read"`
	IsStarred bool `json:"isStarred" db:"is_starred"`

	CapturedAt time.Time `json:"capturedAt" db:"captured_at"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// ExtractedData is the payload produced by the browser extension's DOM
// extraction, or by the server-side fallback when no client payload exists.
type ExtractedData struct {
	AuthorName           string      `json:"authorName"`
	AuthorHandle         string      `json:"authorHandle"`
	AuthorAvatar         string      `json:"authorAvatar,omitempty"`
	RawText              string      `json:"rawText"`
	FullContent          string      `json:"fullContent"`
	ContentType          ContentType `json:"contentType"`
	HasVideo             bool        `json:"hasVideo"`
	VideoURL             string      `json:"videoUrl,omitempty"`
	VideoDurationSeconds int         `json:"videoDurationSeconds,omitempty"`
	ArticleURL           string      `json:"articleUrl,omitempty"`
	ArticleContent       string      `json:"articleContent,omitempty"`
}

// ProcessingStep describes pipeline progress for client feedback. Declared
// for the extension contract; not wired to a live channel.
type ProcessingStep string

const (
	StepExtracting      ProcessingStep = "extracting"
	StepFetchingArticle ProcessingStep = "fetching-article"
	StepTranscribing    ProcessingStep = "transcribing"
	StepSummarizing     ProcessingStep = "summarizing"
	StepCategorizing    ProcessingStep = "categorizing"
	StepComplete        ProcessingStep = "complete"
	StepError           ProcessingStep = "error"
)

// ProcessingStatus is a point-in-time progress report for one tweet.
type ProcessingStatus struct {
	TweetID  string         `json:"tweetId"`
	Step     ProcessingStep `json:"step"`
	Progress int            `json:"progress"`
	Message  string         `json:"message"`
}

// Extension-background messaging contract. These are request/response shapes
// exchanged inside the browser extension, not a network protocol.
type ExtensionMessageType string

const (
	MsgCaptureTweet  ExtensionMessageType = "CAPTURE_TWEET"
	MsgGetAuthStatus ExtensionMessageType = "GET_AUTH_STATUS"
	MsgLogin         ExtensionMessageType = "LOGIN"
	MsgLogout        ExtensionMessageType = "LOGOUT"
)

// ExtensionMessage is a request from the extension popup/content script.
type ExtensionMessage struct {
	Type    ExtensionMessageType `json:"type"`
	Payload any                  `json:"payload,omitempty"`
}

// ExtensionResponse is the reply to an ExtensionMessage.
type ExtensionResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
