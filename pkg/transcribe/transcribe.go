package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrTranscriptionFailed wraps any failure in this stage. The orchestrator
// catches it and degrades to "no transcript".
var ErrTranscriptionFailed = errors.New("transcription failed")

// ErrNoAudio means no downloadable audio asset could be produced for the
// video. Audio download/extraction is stubbed; see downloadAudio.
var ErrNoAudio = errors.New("no audio asset available")

// Transcriber converts a video reference into transcript text. It tries a
// free caption source first and falls back to model-based transcription.
type Transcriber struct {
	client         *http.Client
	whisperModel   string
	whisperAPIKey  string
	whisperBaseURL string
	captionBaseURL string
}

// New creates a transcriber.
func New(whisperModel, whisperAPIKey, whisperBaseURL, captionBaseURL string) *Transcriber {
	if whisperModel == "" {
		whisperModel = "whisper-1"
	}
	if whisperBaseURL == "" {
		whisperBaseURL = "https://api.openai.com"
	}
	if captionBaseURL == "" {
		captionBaseURL = "https://www.youtube.com"
	}
	return &Transcriber{
		client:         &http.Client{Timeout: 60 * time.Second},
		whisperModel:   whisperModel,
		whisperAPIKey:  whisperAPIKey,
		whisperBaseURL: strings.TrimRight(whisperBaseURL, "/"),
		captionBaseURL: strings.TrimRight(captionBaseURL, "/"),
	}
}

// Transcribe returns transcript text for videoURL. Captions are tried first
// (absence is not an error); the whisper path requires an audio asset.
// Failures come back wrapped in ErrTranscriptionFailed.
func (t *Transcriber) Transcribe(ctx context.Context, videoURL string) (string, error) {
	if id := ExternalVideoID(videoURL); id != "" {
		text, err := t.FetchCaptions(ctx, id)
		if err == nil && text != "" {
			return text, nil
		}
	}

	audio, err := t.downloadAudio(ctx, videoURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	text, err := t.whisperTranscribe(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	return text, nil
}

// ExternalVideoID extracts a caption-source video id from known URL shapes.
// Returns "" when the video has no external id (e.g. native tweet video).
func ExternalVideoID(videoURL string) string {
	u, err := url.Parse(videoURL)
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtube.com", "m.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
			return strings.SplitN(rest, "/", 2)[0]
		}
	case "youtu.be":
		return strings.TrimPrefix(u.Path, "/")
	}
	return ""
}

// downloadAudio would download the video and extract a whisper-compatible
// audio file. Real download/conversion is out of scope; this always reports
// that no asset is available.
func (t *Transcriber) downloadAudio(ctx context.Context, videoURL string) (io.Reader, error) {
	return nil, ErrNoAudio
}

// whisperTranscribe uploads an audio asset for model-based transcription.
func (t *Transcriber) whisperTranscribe(ctx context.Context, audio io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "audio.mp3")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	w.WriteField("model", t.whisperModel)
	w.WriteField("response_format", "text")
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.whisperBaseURL+"/v1/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("create whisper request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.whisperAPIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call whisper: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read whisper response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}
