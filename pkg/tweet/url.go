package tweet

import "regexp"

// Ref is a canonical (username, tweet id) pair parsed from a permalink.
type Ref struct {
	Username string
	TweetID  string
}

// Permalinks come in two path shapes on either supported domain.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:twitter\.com|x\.com)/([A-Za-z0-9_]+)/status/(\d+)`),
	regexp.MustCompile(`(?:twitter\.com|x\.com)/([A-Za-z0-9_]+)/statuses/(\d+)`),
}

// ParseURL extracts the username and tweet id from a tweet permalink. The
// input may be free-form shared text; the first matching substring wins.
// Returns nil when no pattern matches — an expected outcome, not an error.
func ParseURL(input string) *Ref {
	for _, pattern := range urlPatterns {
		if m := pattern.FindStringSubmatch(input); m != nil {
			return &Ref{Username: m[1], TweetID: m[2]}
		}
	}
	return nil
}

// IsValidURL reports whether input contains a parseable tweet permalink.
func IsValidURL(input string) bool {
	return ParseURL(input) != nil
}
