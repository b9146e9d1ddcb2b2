// Package tweet models the social post payload stored on entries.
package tweet

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/feedworks/refinery/app/urlutil"
)

// Media is a single attached media object.
type Media struct {
	MediaURL string `json:"media_url_https"`
}

// URL is an outbound link from a post body, with the shortener resolved.
type URL struct {
	ExpandedURL string `json:"expanded_url"`
}

// Tweet is a social post, possibly quoting another one.
type Tweet struct {
	ID           int64   `json:"id"`
	Text         string  `json:"full_text"`
	ScreenName   string  `json:"screen_name"`
	Media        []Media `json:"media"`
	URLs         []URL   `json:"urls"`
	QuotedStatus *Tweet  `json:"quoted_status"`
}

// Decode parses a raw tweet payload as stored in an entry's data blob.
func Decode(raw json.RawMessage) (*Tweet, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty tweet payload")
	}
	var t Tweet
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("failed to decode tweet payload: %w", err)
	}
	return &t, nil
}

func (t *Tweet) HasMedia() bool {
	return len(t.Media) > 0
}

// FirstMediaURL returns the URL of the first attached media object.
func (t *Tweet) FirstMediaURL() string {
	if len(t.Media) == 0 {
		return ""
	}
	return t.Media[0].MediaURL
}

// Thread returns the post followed by its quoted post, if any.
func (t *Tweet) Thread() []*Tweet {
	thread := []*Tweet{t}
	if t.QuotedStatus != nil {
		thread = append(thread, t.QuotedStatus)
	}
	return thread
}

// ExpandedURLs returns the expanded outbound links of the post, in order.
func (t *Tweet) ExpandedURLs() []string {
	urls := make([]string, 0, len(t.URLs))
	for _, u := range t.URLs {
		if u.ExpandedURL != "" {
			urls = append(urls, u.ExpandedURL)
		}
	}
	return urls
}

// ScreenNameFromFeedURL extracts the target screen name implied by a home
// timeline feed URL, e.g. "https://twitter.com/alice" yields "alice".
func ScreenNameFromFeedURL(feedURL string) string {
	u, err := urlutil.HeuristicParse(feedURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	return strings.TrimPrefix(segments[0], "@")
}
