// Package scanner finds embeddable media references in raw entry markup.
package scanner

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/feedworks/refinery/app/urlutil"
)

// FindMediaURLs scans content for image sources, iframe sources and video
// posters, in document order. Relative URLs are rebased against baseURL.
// Malformed markup yields whatever the tolerant HTML parser recovers.
func FindMediaURLs(content, baseURL string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	root := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	nodes, err := html.ParseFragment(strings.NewReader(content), root)
	if err != nil {
		return nil
	}

	var urls []string
	for _, node := range nodes {
		urls = collectMediaURLs(node, baseURL, urls)
	}
	return urls
}

func collectMediaURLs(node *html.Node, baseURL string, urls []string) []string {
	if node.Type == html.ElementNode {
		var source string
		switch node.Data {
		case "img", "iframe":
			source = attr(node, "src")
		case "video":
			source = attr(node, "poster")
		}
		if strings.TrimSpace(source) != "" {
			urls = append(urls, urlutil.Rebase(source, baseURL))
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		urls = collectMediaURLs(child, baseURL, urls)
	}
	return urls
}

func attr(node *html.Node, key string) string {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
