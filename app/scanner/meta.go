package scanner

import (
	"strings"

	"golang.org/x/net/html"
)

// FindOpenGraphImage returns the page's social preview image, preferring
// og:image over twitter:image.
func FindOpenGraphImage(data []byte) string {
	doc, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return ""
	}

	var ogImage, twitterImage string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "meta" {
			var key, content string
			for _, a := range node.Attr {
				switch a.Key {
				case "property", "name":
					key = strings.ToLower(a.Val)
				case "content":
					content = a.Val
				}
			}
			if content != "" {
				switch key {
				case "og:image", "og:image:url":
					if ogImage == "" {
						ogImage = content
					}
				case "twitter:image", "twitter:image:src":
					if twitterImage == "" {
						twitterImage = content
					}
				}
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if ogImage != "" {
		return ogImage
	}
	return twitterImage
}
