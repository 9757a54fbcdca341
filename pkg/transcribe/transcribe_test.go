package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"no www", "https://youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"mobile", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts", "https://www.youtube.com/shorts/abc123XYZ", "abc123XYZ"},
		{"shorts with suffix", "https://www.youtube.com/shorts/abc123XYZ/extra", "abc123XYZ"},
		{"native tweet video", "https://video.twimg.com/ext_tw_video/123/pu/vid/720x1280/x.mp4", ""},
		{"unrelated host", "https://vimeo.com/12345", ""},
		{"garbage", "://not a url", ""},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExternalVideoID(tc.url))
		})
	}
}

func TestFetchCaptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/timedtext", r.URL.Path)
		require.Equal(t, "en", r.URL.Query().Get("lang"))

		switch r.URL.Query().Get("v") {
		case "hasCaptions":
			fmt.Fprint(w, `<?xml version="1.0"?><transcript>`+
				`<text start="0" dur="2">Hello there</text>`+
				`<text start="2" dur="3">this is &amp; stays</text>`+
				`<text start="5" dur="1">  the end  </text>`+
				`</transcript>`)
		case "emptyTrack":
			fmt.Fprint(w, `<?xml version="1.0"?><transcript></transcript>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tr := New("", "", "", srv.URL)

	text, err := tr.FetchCaptions(context.Background(), "hasCaptions")
	require.NoError(t, err)
	assert.Equal(t, "Hello there this is & stays the end", text)

	text, err = tr.FetchCaptions(context.Background(), "emptyTrack")
	require.NoError(t, err)
	assert.Empty(t, text)

	text, err = tr.FetchCaptions(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestTranscribe_CaptionPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<transcript><text start="0" dur="2">caption text</text></transcript>`)
	}))
	defer srv.Close()

	tr := New("", "", "", srv.URL)

	text, err := tr.Transcribe(context.Background(), "https://youtu.be/abc123")
	require.NoError(t, err)
	assert.Equal(t, "caption text", text)
}

func TestTranscribe_NoAudioAsset(t *testing.T) {
	tr := New("", "", "", "")

	// Native tweet video: no external id, and audio extraction is stubbed out.
	_, err := tr.Transcribe(context.Background(), "https://video.twimg.com/vid/x.mp4")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTranscriptionFailed))
}

func TestTranscribe_NoCaptionsFallsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	tr := New("", "", "", srv.URL)

	_, err := tr.Transcribe(context.Background(), "https://youtu.be/abc123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTranscriptionFailed))
}

func TestWhisperTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "text", r.FormValue("response_format"))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "audio.mp3", header.Filename)

		fmt.Fprint(w, "transcribed words\n")
	}))
	defer srv.Close()

	tr := New("", "test-key", srv.URL, "")

	text, err := tr.whisperTranscribe(context.Background(), bytes.NewReader([]byte("fake-audio")))
	require.NoError(t, err)
	assert.Equal(t, "transcribed words", text)
}
