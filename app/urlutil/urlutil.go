package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// HeuristicParse parses raw as a URL, assuming https for scheme-less input
// ("example.com/feed" is treated as "https://example.com/feed").
func HeuristicParse(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty URL")
	}

	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	} else if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("URL %q has no host", raw)
	}

	return u, nil
}

// Host extracts the lowercased host (without port) from raw.
func Host(raw string) (string, error) {
	u, err := HeuristicParse(raw)
	if err != nil {
		return "", err
	}
	return strings.ToLower(u.Hostname()), nil
}

// SameDomain reports whether both URLs resolve to the same host.
// Unparseable input is never the same domain.
func SameDomain(a, b string) bool {
	hostA, err := Host(a)
	if err != nil {
		return false
	}
	hostB, err := Host(b)
	if err != nil {
		return false
	}
	return hostA == hostB
}

// Rebase resolves href against base, turning relative references into
// absolute URLs. If href is already absolute, or base is unusable, href is
// returned unchanged.
func Rebase(href, base string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return href
	}

	baseURL, err := HeuristicParse(base)
	if err != nil {
		return href
	}

	return baseURL.ResolveReference(ref).String()
}
