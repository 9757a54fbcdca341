package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/elonfeng/tweetstash/pkg/tweet"
)

// fromNitter fetches the author's nitter RSS feed and picks the entry for the
// requested tweet id. Nitter mirrors tweet media markup in the entry
// description, which is enough to detect video and linked articles.
func (e *Extractor) fromNitter(ctx context.Context, ref *tweet.Ref) (*tweet.ExtractedData, error) {
	feedURL := fmt.Sprintf("%s/%s/rss", e.nitterURL, ref.Username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create nitter request @%s: %w", ref.Username, err)
	}
	req.Header.Set("User-Agent", "tweetstash/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch nitter @%s: %w", ref.Username, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nitter @%s status %d", ref.Username, resp.StatusCode)
	}

	feed, err := e.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse nitter @%s: %w", ref.Username, err)
	}

	marker := "/status/" + ref.TweetID
	for _, entry := range feed.Items {
		if !strings.Contains(entry.Link, marker) && !strings.Contains(entry.GUID, marker) {
			continue
		}

		authorName := ref.Username
		if feed.Title != "" {
			// Nitter feed titles look like "Alice / @alice".
			if idx := strings.Index(feed.Title, " / "); idx > 0 {
				authorName = feed.Title[:idx]
			}
		}

		text, hasVideo, articleURL := parseEntryHTML(entry.Description)
		if text == "" {
			text = entry.Title
		}

		return &tweet.ExtractedData{
			AuthorName:   authorName,
			AuthorHandle: ref.Username,
			RawText:      truncate(text, 4000),
			FullContent:  text,
			HasVideo:     hasVideo,
			ArticleURL:   articleURL,
		}, nil
	}

	return nil, fmt.Errorf("tweet %s not in @%s feed", ref.TweetID, ref.Username)
}

// parseEntryHTML extracts plain text, a video flag, and the first external
// link from a nitter entry description.
func parseEntryHTML(html string) (text string, hasVideo bool, articleURL string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html), false, ""
	}

	hasVideo = doc.Find("video").Length() > 0

	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return true
		}
		if strings.Contains(href, "twitter.com") || strings.Contains(href, "x.com") ||
			strings.Contains(href, "nitter") || strings.HasPrefix(href, "#") {
			return true
		}
		articleURL = href
		return false
	})

	text = strings.TrimSpace(doc.Text())
	return text, hasVideo, articleURL
}
