// Package render produces entry display content from fixed templates.
package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/feedworks/refinery/app/database"
	"github.com/feedworks/refinery/app/extract"
	"github.com/feedworks/refinery/app/tweet"
)

type Renderer interface {
	TweetHTML(entry *database.Entry) (string, error)
}

var _ Renderer = (*TemplateRenderer)(nil)

type TemplateRenderer struct{}

func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{}
}

var tweetTemplate = template.Must(template.New("tweet").Parse(strings.TrimSpace(`
<div class="tweet">
  <div class="tweet-author">@{{.Tweet.ScreenName}}</div>
  <div class="tweet-text">{{.Tweet.Text}}</div>
  {{- range .MediaURLs}}
  <img class="tweet-media" src="{{.}}">
  {{- end}}
  {{- with .Quoted}}
  <blockquote class="tweet-quoted">
    <div class="tweet-author">@{{.ScreenName}}</div>
    <div class="tweet-text">{{.Text}}</div>
  </blockquote>
  {{- end}}
  {{- range .SavedPages}}
  <div class="saved-page">
    <a href="{{.URL}}">{{.Title}}</a>
    {{- with .Excerpt}}
    <p>{{.}}</p>
    {{- end}}
  </div>
  {{- end}}
</div>
`)))

type tweetView struct {
	Tweet      *tweet.Tweet
	Quoted     *tweet.Tweet
	MediaURLs  []string
	SavedPages []extract.Page
}

// TweetHTML renders the entry's display content from its tweet payload and
// any saved pages accumulated in the entry's data.
func (r *TemplateRenderer) TweetHTML(entry *database.Entry) (string, error) {
	t, err := entry.Tweet()
	if err != nil {
		return "", err
	}

	view := tweetView{
		Tweet:      t,
		Quoted:     t.QuotedStatus,
		SavedPages: savedPages(entry.Data),
	}
	for _, media := range t.Media {
		view.MediaURLs = append(view.MediaURLs, media.MediaURL)
	}

	var b strings.Builder
	if err := tweetTemplate.Execute(&b, view); err != nil {
		return "", fmt.Errorf("failed to render tweet entry: %w", err)
	}

	return b.String(), nil
}

func savedPages(data database.JSONMap) []extract.Page {
	raw, ok := data["saved_pages"]
	if !ok {
		return nil
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}

	byURL := make(map[string]extract.Page)
	if err := json.Unmarshal(encoded, &byURL); err != nil {
		return nil
	}

	urls := make([]string, 0, len(byURL))
	for u := range byURL {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	pages := make([]extract.Page, 0, len(byURL))
	for _, u := range urls {
		page := byURL[u]
		if page.URL == "" {
			page.URL = u
		}
		pages = append(pages, page)
	}

	return pages
}
