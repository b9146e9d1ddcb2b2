package render

import (
	"strings"
	"testing"

	"github.com/feedworks/refinery/app/database"
)

func tweetEntry(payload map[string]any) *database.Entry {
	return &database.Entry{
		PublicID: "abc123",
		URL:      "https://twitter.com/alice/status/1",
		Data:     database.JSONMap{"tweet": payload},
	}
}

func TestTweetHTMLBasic(t *testing.T) {
	entry := tweetEntry(map[string]any{
		"id":          1,
		"full_text":   "Hello world",
		"screen_name": "alice",
	})

	html, err := NewTemplateRenderer().TweetHTML(entry)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(html, "@alice") {
		t.Error("Expected author handle in output")
	}
	if !strings.Contains(html, "Hello world") {
		t.Error("Expected post text in output")
	}
}

func TestTweetHTMLEscapesMarkup(t *testing.T) {
	entry := tweetEntry(map[string]any{
		"full_text":   "<script>alert(1)</script>",
		"screen_name": "alice",
	})

	html, err := NewTemplateRenderer().TweetHTML(entry)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("Expected post text to be escaped")
	}
}

func TestTweetHTMLMedia(t *testing.T) {
	entry := tweetEntry(map[string]any{
		"full_text":   "With pics",
		"screen_name": "alice",
		"media": []map[string]any{
			{"media_url_https": "https://pbs.example.com/a.jpg"},
			{"media_url_https": "https://pbs.example.com/b.jpg"},
		},
	})

	html, err := NewTemplateRenderer().TweetHTML(entry)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(html, "https://pbs.example.com/a.jpg") ||
		!strings.Contains(html, "https://pbs.example.com/b.jpg") {
		t.Error("Expected all media URLs in output")
	}
}

func TestTweetHTMLQuoted(t *testing.T) {
	entry := tweetEntry(map[string]any{
		"full_text":   "Quoting this",
		"screen_name": "alice",
		"quoted_status": map[string]any{
			"full_text":   "Original post",
			"screen_name": "bob",
		},
	})

	html, err := NewTemplateRenderer().TweetHTML(entry)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(html, "blockquote") {
		t.Error("Expected quoted post in a blockquote")
	}
	if !strings.Contains(html, "@bob") || !strings.Contains(html, "Original post") {
		t.Error("Expected quoted author and text in output")
	}
}

func TestTweetHTMLSavedPages(t *testing.T) {
	entry := tweetEntry(map[string]any{
		"full_text":   "Read this",
		"screen_name": "alice",
	})
	entry.Data["saved_pages"] = map[string]any{
		"https://example.com/article": map[string]any{
			"title":   "An Article",
			"excerpt": "First paragraph.",
		},
	}

	html, err := NewTemplateRenderer().TweetHTML(entry)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(html, `href="https://example.com/article"`) {
		t.Error("Expected saved page link in output")
	}
	if !strings.Contains(html, "An Article") {
		t.Error("Expected saved page title in output")
	}
	if !strings.Contains(html, "First paragraph.") {
		t.Error("Expected saved page excerpt in output")
	}
}

func TestTweetHTMLSavedPagesSortedByURL(t *testing.T) {
	entry := tweetEntry(map[string]any{
		"full_text":   "Two links",
		"screen_name": "alice",
	})
	entry.Data["saved_pages"] = map[string]any{
		"https://example.com/b": map[string]any{"title": "Second"},
		"https://example.com/a": map[string]any{"title": "First"},
	}

	html, err := NewTemplateRenderer().TweetHTML(entry)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if strings.Index(html, "First") > strings.Index(html, "Second") {
		t.Error("Expected saved pages ordered by URL")
	}
}

func TestTweetHTMLNoPayload(t *testing.T) {
	entry := &database.Entry{PublicID: "abc123", Data: database.JSONMap{}}
	if _, err := NewTemplateRenderer().TweetHTML(entry); err == nil {
		t.Error("Expected error for entry without tweet payload")
	}
}
