package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/elonfeng/tweetstash/internal/store"
	"github.com/elonfeng/tweetstash/pkg/extract"
	"github.com/elonfeng/tweetstash/pkg/summarize"
	"github.com/elonfeng/tweetstash/pkg/transcribe"
	"github.com/elonfeng/tweetstash/pkg/tweet"
	"github.com/sirupsen/logrus"
)

// Orchestrator sequences the enrichment stages for one captured tweet:
// extraction, optional transcription, summarization. Progress is persisted
// after each stage, so a record is always re-driveable from whatever state a
// partial failure left it in.
type Orchestrator struct {
	store       store.Store
	extractor   *extract.Extractor
	transcriber *transcribe.Transcriber
	summarizer  *summarize.Summarizer
	log         *logrus.Logger
	timeout     time.Duration
}

// New creates an orchestrator. transcriber may be nil to disable the
// transcription stage.
func New(
	s store.Store,
	extractor *extract.Extractor,
	transcriber *transcribe.Transcriber,
	summarizer *summarize.Summarizer,
	log *logrus.Logger,
	timeout time.Duration,
) *Orchestrator {
	if log == nil {
		log = logrus.New()
	}
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &Orchestrator{
		store:       s,
		extractor:   extractor,
		transcriber: transcriber,
		summarizer:  summarizer,
		log:         log,
		timeout:     timeout,
	}
}

// Run enriches the record server-side, starting from its own extraction
// attempt. Safe to invoke on a record in any state: it retries from the top
// and overwrites enrichment fields.
func (o *Orchestrator) Run(ctx context.Context, tweetID string) error {
	rec, err := o.store.GetTweet(ctx, tweetID)
	if err != nil {
		return err
	}

	ref := &tweet.Ref{Username: rec.AuthorHandle, TweetID: rec.TweetID}
	data := o.extractor.Extract(ctx, ref)

	return o.enrich(ctx, rec.ID, data)
}

// RunWithPayload enriches the record from a trusted client-supplied
// extraction payload (the webhook path).
func (o *Orchestrator) RunWithPayload(ctx context.Context, tweetID string, payload *tweet.ExtractedData) error {
	data := extract.Normalize(payload)
	return o.enrich(ctx, tweetID, data)
}

// enrich persists the extraction then walks the optional stages. Extraction
// persistence is the mandatory path: its failure propagates and leaves the
// record re-driveable. Transcription and summarization degrade instead.
func (o *Orchestrator) enrich(ctx context.Context, tweetID string, data tweet.ExtractedData) error {
	log := o.log.WithField("tweet_id", tweetID)

	if err := o.store.UpdateExtraction(ctx, tweetID, data); err != nil {
		return err
	}

	var transcript string
	if data.HasVideo && data.VideoURL != "" && o.transcriber != nil {
		text, err := o.transcriber.Transcribe(ctx, data.VideoURL)
		if err != nil {
			log.WithError(err).Warn("transcription failed, continuing without transcript")
		} else if text != "" {
			transcript = text
			if err := o.store.UpdateTranscript(ctx, tweetID, text, data.VideoDurationSeconds); err != nil {
				log.WithError(err).Warn("failed to persist transcript, continuing")
			}
		}
	}

	content := buildContent(data, transcript)
	if strings.TrimSpace(content) == "" {
		// Nothing to summarize; the record stays captured without a summary.
		log.Debug("no content to summarize")
		return nil
	}

	summary := o.summarizer.Summarize(ctx, content, data.ContentType)

	var categoryID string
	category, err := o.store.GetCategoryBySlug(ctx, summary.SuggestedCategory)
	if err != nil {
		log.WithError(err).Warn("category lookup failed, leaving tweet uncategorized")
	} else if category != nil {
		categoryID = category.ID
	}

	if err := o.store.UpdateSummary(ctx, tweetID, summary, categoryID); err != nil {
		return err
	}

	log.WithField("category", summary.SuggestedCategory).Info("tweet enriched")
	return nil
}

// buildContent concatenates the summarization input with labeled section
// breaks so the model can tell primary text from supplements.
func buildContent(data tweet.ExtractedData, transcript string) string {
	var b strings.Builder
	b.WriteString(data.FullContent)
	if data.ArticleContent != "" {
		b.WriteString("\n\nArticle: ")
		b.WriteString(data.ArticleContent)
	}
	if transcript != "" {
		b.WriteString("\n\nVideo Transcript: ")
		b.WriteString(transcript)
	}
	return b.String()
}
