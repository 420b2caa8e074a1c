package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var errInvalidURL = errors.New("invalid url")

// normalizeURL prefixes https:// when no scheme is given and checks that the
// result is an absolute http(s) URL with a host.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", errInvalidURL)
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if strings.Contains(raw, "://") {
			return "", fmt.Errorf("%w: unsupported scheme in %q", errInvalidURL, raw)
		}
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errInvalidURL, err)
	}
	if u.Host == "" || strings.ContainsAny(u.Host, " \t") {
		return "", fmt.Errorf("%w: missing host in %q", errInvalidURL, raw)
	}
	return u.String(), nil
}
