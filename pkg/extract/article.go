package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxArticleChars = 4000

// fetchArticle pulls readable content for a linked article: card metadata
// plus the leading paragraphs, capped at maxArticleChars. Best-effort; the
// caller logs and moves on when this fails.
func (e *Extractor) fetchArticle(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", fmt.Errorf("create article request: %w", err)
	}
	req.Header.Set("User-Agent", "tweetstash/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch article %s: %w", articleURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article %s status %d", articleURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse article %s: %w", articleURL, err)
	}

	var parts []string

	title := metaContent(doc, "og:title")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title != "" {
		parts = append(parts, title)
	}

	if desc := metaContent(doc, "og:description"); desc != "" {
		parts = append(parts, desc)
	}

	var body strings.Builder
	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		p := strings.TrimSpace(sel.Text())
		if p == "" {
			return true
		}
		if body.Len() > 0 {
			body.WriteString("\n\n")
		}
		body.WriteString(p)
		return body.Len() < maxArticleChars
	})
	if body.Len() > 0 {
		parts = append(parts, body.String())
	}

	content := strings.Join(parts, "\n\n")
	if content == "" {
		return "", fmt.Errorf("article %s has no readable content", articleURL)
	}
	return truncate(content, maxArticleChars), nil
}

func metaContent(doc *goquery.Document, property string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q]`, property))
	if sel.Length() == 0 {
		sel = doc.Find(fmt.Sprintf(`meta[name=%q]`, property))
	}
	content, _ := sel.First().Attr("content")
	return strings.TrimSpace(content)
}
