// Package extract fetches pages and reduces them to a clean article
// representation.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

// Page is the readability-extracted representation of a web page.
type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
	Image   string `json:"lead_image_url"`
}

type PageExtractor interface {
	Extract(ctx context.Context, pageURL string) (*Page, error)
}

var _ PageExtractor = (*Extractor)(nil)

type Extractor struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewExtractor(httpClient *http.Client, userAgent string) *Extractor {
	return &Extractor{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    30 * time.Second,
	}
}

// Extract downloads pageURL and runs readability over the response.
// Fetch and parse failures are returned to the caller, which decides the
// retry policy.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (*Page, error) {
	data, err := e.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page URL: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Content == "" {
		return nil, fmt.Errorf("no content extracted from %s", pageURL)
	}

	return &Page{
		URL:     pageURL,
		Title:   article.Title,
		Author:  article.Byline,
		Content: article.Content,
		Excerpt: article.Excerpt,
		Image:   article.Image,
	}, nil
}

func (e *Extractor) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
