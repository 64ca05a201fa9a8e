// Package richtext extracts plain text from the editor's serialized markup.
// The markup is HTML produced by the rich-text editor; everywhere else in the
// backend it is an opaque blob, only the search indexer looks inside.
package richtext

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// skipped elements contribute no visible text
var skippedElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
}

// ExtractText strips markup from rich-text content and returns the visible
// text with collapsed whitespace. Content that fails to parse as HTML is
// returned verbatim so plain-text documents still index.
func ExtractText(markup string) string {
	if markup == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return strings.TrimSpace(markup)
	}

	var sb strings.Builder
	collectText(doc, &sb)

	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(sb.String(), " "))
}

// collectText walks the node tree appending text content.
func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && skippedElements[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteString(" ")
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
