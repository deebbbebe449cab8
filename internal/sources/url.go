package sources

import (
	"fmt"
	"net/url"
	"strings"
)

var postHosts = map[string]bool{
	"x.com":              true,
	"www.x.com":          true,
	"mobile.x.com":       true,
	"twitter.com":        true,
	"www.twitter.com":    true,
	"mobile.twitter.com": true,
}

// ParsePostURL extracts the author handle and post id from a status URL such
// as https://x.com/golang/status/1234567890.
func ParsePostURL(raw string) (author, id string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", ErrInvalidPostURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidPostURL, err)
	}
	if !postHosts[strings.ToLower(u.Hostname())] {
		return "", "", fmt.Errorf("%w: unsupported host %q", ErrInvalidPostURL, u.Hostname())
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p != "status" && p != "statuses" {
			continue
		}
		if i == 0 || i+1 >= len(parts) {
			break
		}
		author, id = parts[i-1], parts[i+1]
		if author == "" || !isDigits(id) {
			break
		}
		return author, id, nil
	}
	return "", "", fmt.Errorf("%w: %s", ErrInvalidPostURL, raw)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
