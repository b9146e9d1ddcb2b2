// Package feedfinder resolves a source URL into subscribable feed
// candidates.
package feedfinder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/feedworks/refinery/app/database"
	"github.com/feedworks/refinery/app/urlutil"
)

// Candidate is a discovered feed, ordered best-first.
type Candidate struct {
	FeedURL  string
	SiteURL  string
	Title    string
	FeedType database.FeedType
}

// TwitterAuth carries a credential pair used to recognize twitter sources.
type TwitterAuth struct {
	AccessToken  string
	AccessSecret string
}

// Options control discovery behavior. ImportMode relaxes the heuristics:
// well-known feed paths are probed when a page advertises no feed at all.
type Options struct {
	ImportMode  bool
	TwitterAuth *TwitterAuth
}

type Resolver interface {
	Resolve(ctx context.Context, sourceURL string, opts Options) ([]Candidate, error)
}

var _ Resolver = (*Finder)(nil)

type Finder struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	userAgent  string
	timeout    time.Duration
}

func NewFinder(httpClient *http.Client, userAgent string) *Finder {
	return &Finder{
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		userAgent:  userAgent,
		timeout:    20 * time.Second,
	}
}

// wellKnownPaths are probed in import mode when a page advertises no feeds.
var wellKnownPaths = []string{"/feed", "/rss", "/feed.xml", "/rss.xml", "/atom.xml", "/index.xml"}

func (f *Finder) Resolve(ctx context.Context, sourceURL string, opts Options) ([]Candidate, error) {
	base, err := urlutil.HeuristicParse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("unusable source URL: %w", err)
	}

	if candidate, ok := recognizeTwitter(base.String(), opts); ok {
		return []Candidate{candidate}, nil
	}

	data, err := f.fetch(ctx, base.String())
	if err != nil {
		return nil, err
	}

	// The source URL may itself be the feed.
	if candidate, ok := f.parseFeed(base.String(), data); ok {
		return []Candidate{candidate}, nil
	}

	var candidates []Candidate
	for _, href := range alternateLinks(data) {
		feedURL := urlutil.Rebase(href, base.String())
		if candidate, ok := f.fetchFeed(ctx, feedURL); ok {
			candidates = append(candidates, candidate)
		}
	}

	if len(candidates) == 0 && opts.ImportMode {
		for _, path := range wellKnownPaths {
			probe := base.Scheme + "://" + base.Host + path
			if candidate, ok := f.fetchFeed(ctx, probe); ok {
				candidates = append(candidates, candidate)
				break
			}
		}
	}

	return candidates, nil
}

// recognizeTwitter maps twitter profile URLs to twitter-typed candidates.
// Without a credential pair in context the source is not subscribable.
func recognizeTwitter(sourceURL string, opts Options) (Candidate, bool) {
	host, err := urlutil.Host(sourceURL)
	if err != nil {
		return Candidate{}, false
	}
	if host != "twitter.com" && host != "mobile.twitter.com" {
		return Candidate{}, false
	}
	if opts.TwitterAuth == nil {
		return Candidate{}, false
	}

	return Candidate{
		FeedURL:  sourceURL,
		SiteURL:  sourceURL,
		FeedType: database.FeedTypeTwitter,
	}, true
}

func (f *Finder) fetchFeed(ctx context.Context, feedURL string) (Candidate, bool) {
	data, err := f.fetch(ctx, feedURL)
	if err != nil {
		return Candidate{}, false
	}
	return f.parseFeed(feedURL, data)
}

func (f *Finder) parseFeed(feedURL string, data []byte) (Candidate, bool) {
	parsed, err := f.parser.ParseString(string(data))
	if err != nil {
		return Candidate{}, false
	}

	return Candidate{
		FeedURL:  feedURL,
		SiteURL:  parsed.Link,
		Title:    parsed.Title,
		FeedType: database.FeedTypeXML,
	}, true
}

func (f *Finder) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error fetching %s: %d %s", rawURL, resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// alternateLinks returns the hrefs of feed-typed alternate links, in
// document order.
func alternateLinks(data []byte) []string {
	doc, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil
	}

	var hrefs []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "link" {
			var rel, typ, href string
			for _, a := range node.Attr {
				switch a.Key {
				case "rel":
					rel = strings.ToLower(a.Val)
				case "type":
					typ = strings.ToLower(a.Val)
				case "href":
					href = a.Val
				}
			}
			if rel == "alternate" && href != "" &&
				(strings.Contains(typ, "rss") || strings.Contains(typ, "atom") || strings.Contains(typ, "json")) {
				hrefs = append(hrefs, href)
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return hrefs
}
