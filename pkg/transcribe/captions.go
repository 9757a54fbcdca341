package transcribe

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
)

var captionTextRe = regexp.MustCompile(`<text[^>]*>([^<]+)</text>`)

// FetchCaptions pulls the timedtext caption track for an external video id.
// Returns "" (not an error) when no captions exist — this source is free and
// best-effort.
func (t *Transcriber) FetchCaptions(ctx context.Context, videoID string) (string, error) {
	captionURL := fmt.Sprintf("%s/api/timedtext?lang=en&v=%s", t.captionBaseURL, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, captionURL, nil)
	if err != nil {
		return "", fmt.Errorf("create caption request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch captions %s: %w", videoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read captions %s: %w", videoID, err)
	}

	matches := captionTextRe.FindAllStringSubmatch(string(body), -1)
	if len(matches) == 0 {
		return "", nil
	}

	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		line := strings.TrimSpace(html.UnescapeString(m[1]))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " "), nil
}
