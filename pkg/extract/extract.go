package extract

import (
	"context"
	"net/http"
	"time"

	"github.com/elonfeng/tweetstash/pkg/tweet"
	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"
)

// Normalize turns a raw extraction payload into stored content fields.
// Classification precedence: video beats article beats single. A thread tag
// from a trusted client payload is kept as-is; this stage never assigns one.
func Normalize(raw *tweet.ExtractedData) tweet.ExtractedData {
	if raw == nil {
		return Stub("")
	}

	data := *raw

	switch {
	case data.HasVideo:
		data.ContentType = tweet.ContentVideo
	case data.ArticleURL != "":
		data.ContentType = tweet.ContentArticle
	case data.ContentType == tweet.ContentThread:
		// keep
	default:
		data.ContentType = tweet.ContentSingle
	}

	if data.FullContent == "" {
		data.FullContent = data.RawText
	}
	return data
}

// Stub is the placeholder payload used when no extraction source produced
// anything. Content fields stay empty so downstream stages see "nothing to
// summarize" rather than an error.
func Stub(handle string) tweet.ExtractedData {
	if handle == "" {
		handle = "unknown"
	}
	return tweet.ExtractedData{
		AuthorName:   "Unknown",
		AuthorHandle: handle,
		ContentType:  tweet.ContentSingle,
	}
}

// Extractor gathers tweet content server-side when no client payload is
// available. It tries the author's nitter feed and degrades to Stub.
type Extractor struct {
	client        *http.Client
	parser        *gofeed.Parser
	nitterURL     string
	fetchArticles bool
	log           *logrus.Logger
}

// NewExtractor creates a server-side extractor.
func NewExtractor(nitterURL string, fetchArticles bool, log *logrus.Logger) *Extractor {
	if nitterURL == "" {
		nitterURL = "https://nitter.net"
	}
	if log == nil {
		log = logrus.New()
	}
	return &Extractor{
		client:        &http.Client{Timeout: 30 * time.Second},
		parser:        gofeed.NewParser(),
		nitterURL:     trimSlash(nitterURL),
		fetchArticles: fetchArticles,
		log:           log,
	}
}

// Extract produces a normalized payload for the referenced tweet. It never
// fails: any upstream problem degrades to the placeholder stub.
func (e *Extractor) Extract(ctx context.Context, ref *tweet.Ref) tweet.ExtractedData {
	if ref == nil {
		return Stub("")
	}

	raw, err := e.fromNitter(ctx, ref)
	if err != nil {
		e.log.WithField("tweet_id", ref.TweetID).WithError(err).Debug("nitter extraction failed")
		return Stub(ref.Username)
	}

	data := Normalize(raw)

	if e.fetchArticles && data.ArticleURL != "" && data.ArticleContent == "" {
		content, err := e.fetchArticle(ctx, data.ArticleURL)
		if err != nil {
			e.log.WithField("article_url", data.ArticleURL).WithError(err).Debug("article fetch failed")
		} else {
			data.ArticleContent = content
		}
	}
	return data
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
