package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elonfeng/tweetstash/pkg/tweet"
	"github.com/sirupsen/logrus"
)

const systemPrompt = `You are an AI assistant that summarizes Twitter/X content. Your task is to create concise, valuable summaries that help users quickly understand and remember saved tweets.

Output a JSON object with exactly these fields:
- tldr: A single sentence summary, max 100 characters
- keyPoints: Array of 2-4 key takeaways (each max 150 characters)
- whyItMatters: One sentence explaining the relevance or value
- suggestedCategory: One of "vibe-coding-tutorials", "learning", "inspiration", or "untagged"

Category guidelines:
- "vibe-coding-tutorials": Coding content, tech tutorials, programming tips, AI/ML content, developer tools
- "learning": Educational content, knowledge sharing, how-tos, explanations, research
- "inspiration": Motivational content, interesting ideas, creative work, thought-provoking threads
- "untagged": When unsure or content doesn't fit other categories

Be concise and focus on actionable insights. Avoid filler words.`

// Summarizer calls a generative model and validates its response into a
// fixed-shape summary.
type Summarizer struct {
	client   *http.Client
	provider string // "openai" or "anthropic"
	model    string
	apiKey   string
	baseURL  string
	log      *logrus.Logger
}

// New creates a summarizer.
func New(provider, model, apiKey, baseURL string, log *logrus.Logger) *Summarizer {
	if model == "" {
		switch provider {
		case "openai":
			model = "gpt-4o-mini"
		default:
			model = "claude-3-5-haiku-20241022"
		}
	}
	if log == nil {
		log = logrus.New()
	}
	return &Summarizer{
		client:   &http.Client{Timeout: 60 * time.Second},
		provider: provider,
		model:    model,
		apiKey:   apiKey,
		baseURL:  baseURL,
		log:      log,
	}
}

// Summarize produces a summary for the given content. It never fails: any
// upstream or parse error yields the fixed fallback summary, so a record that
// reaches this stage always ends up with a usable value.
func (s *Summarizer) Summarize(ctx context.Context, content string, contentType tweet.ContentType) *tweet.Summary {
	summary, err := s.trySummarize(ctx, content, contentType)
	if err != nil {
		s.log.WithError(err).Warn("summarization failed, using fallback")
		return Fallback()
	}
	return summary
}

func (s *Summarizer) trySummarize(ctx context.Context, content string, contentType tweet.ContentType) (*tweet.Summary, error) {
	prompt := fmt.Sprintf("Summarize this %s:\n\n%s", framing(contentType), content)

	var raw string
	var err error
	switch s.provider {
	case "openai":
		raw, err = s.callOpenAI(ctx, prompt)
	default:
		raw, err = s.callAnthropic(ctx, prompt)
	}
	if err != nil {
		return nil, err
	}

	obj, ok := extractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("no JSON object in model response: %s", truncateStr(raw, 200))
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	return sanitize(parsed), nil
}

// framing returns the content-type-aware instruction fragment.
func framing(contentType tweet.ContentType) string {
	switch contentType {
	case tweet.ContentThread:
		return "a Twitter thread"
	case tweet.ContentVideo:
		return "a video tweet with transcript"
	case tweet.ContentArticle:
		return "a tweet with an article link"
	default:
		return "a single tweet"
	}
}

// Fallback is the fixed degraded summary. It keeps a failed summarization
// distinguishable from "never summarized" without leaving the record in an
// ambiguous half-enriched state.
func Fallback() *tweet.Summary {
	return &tweet.Summary{
		TLDR:              "Summary unavailable",
		KeyPoints:         []string{"Content captured but summarization failed"},
		WhyItMatters:      "Review the original content for details",
		SuggestedCategory: tweet.CategoryUntagged,
	}
}

// sanitize coerces a loosely-typed decoded object into the bounded summary
// shape, regardless of model compliance.
func sanitize(parsed map[string]any) *tweet.Summary {
	summary := &tweet.Summary{
		TLDR:         truncateStr(coerceString(parsed["tldr"]), 100),
		KeyPoints:    []string{},
		WhyItMatters: coerceString(parsed["whyItMatters"]),
	}

	if points, ok := parsed["keyPoints"].([]any); ok {
		for _, p := range points {
			if len(summary.KeyPoints) == 4 {
				break
			}
			summary.KeyPoints = append(summary.KeyPoints, truncateStr(coerceString(p), 150))
		}
	}

	category := coerceString(parsed["suggestedCategory"])
	if tweet.ValidCategorySlug(category) {
		summary.SuggestedCategory = tweet.CategorySlug(category)
	} else {
		summary.SuggestedCategory = tweet.CategoryUntagged
	}

	return summary
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(data)
	}
}

// extractJSONObject finds the first balanced JSON object substring in free
// text. Models wrap responses in prose or markdown fences often enough that a
// strict whole-body decode is not viable.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// truncateStr caps s at n characters (runes, not bytes).
func truncateStr(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
