package tweet

import "testing"

func TestParseURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		username string
		tweetID  string
	}{
		{
			name:     "x.com status",
			input:    "https://x.com/alice/status/123456",
			username: "alice",
			tweetID:  "123456",
		},
		{
			name:     "twitter.com status",
			input:    "https://twitter.com/bob_dev/status/987654321",
			username: "bob_dev",
			tweetID:  "987654321",
		},
		{
			name:     "x.com statuses",
			input:    "https://x.com/carol/statuses/42",
			username: "carol",
			tweetID:  "42",
		},
		{
			name:     "twitter.com statuses",
			input:    "https://twitter.com/dave/statuses/1000000000000000000",
			username: "dave",
			tweetID:  "1000000000000000000",
		},
		{
			name:     "no scheme",
			input:    "x.com/alice/status/1",
			username: "alice",
			tweetID:  "1",
		},
		{
			name:     "query string suffix",
			input:    "https://x.com/alice/status/123?s=20&t=abc",
			username: "alice",
			tweetID:  "123",
		},
		{
			name:     "shared text around the link",
			input:    "Check this out! https://x.com/alice/status/555 so good",
			username: "alice",
			tweetID:  "555",
		},
		{
			name:     "first match wins in shared text",
			input:    "https://x.com/a/status/1 and https://x.com/b/status/2",
			username: "a",
			tweetID:  "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := ParseURL(tt.input)
			if ref == nil {
				t.Fatalf("ParseURL(%q) = nil, want match", tt.input)
			}
			if ref.Username != tt.username {
				t.Errorf("Username = %q, want %q", ref.Username, tt.username)
			}
			if ref.TweetID != tt.tweetID {
				t.Errorf("TweetID = %q, want %q", ref.TweetID, tt.tweetID)
			}
		})
	}
}

func TestParseURL_NoMatch(t *testing.T) {
	inputs := []string{
		"",
		"not a url",
		"https://example.com/alice/status/123",
		"https://x.com/alice",
		"https://x.com/alice/status/",
		"https://x.com/alice/status/abc",
		"https://youtube.com/watch?v=123",
		"https://x.com/home",
	}

	for _, input := range inputs {
		if ref := ParseURL(input); ref != nil {
			t.Errorf("ParseURL(%q) = %+v, want nil", input, ref)
		}
	}
}

func TestIsValidURL_ConsistentWithParse(t *testing.T) {
	inputs := []string{
		"https://x.com/alice/status/123456",
		"https://twitter.com/bob/statuses/1",
		"junk",
		"",
		"https://example.com/alice/status/123",
	}

	for _, input := range inputs {
		if got, want := IsValidURL(input), ParseURL(input) != nil; got != want {
			t.Errorf("IsValidURL(%q) = %v, parse says %v", input, got, want)
		}
	}
}
