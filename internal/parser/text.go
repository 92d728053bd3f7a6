package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// nonContentTags are element names whose subtree never contributes text.
var nonContentTags = map[string]struct{}{
	"script":     {},
	"style":      {},
	"header":     {},
	"footer":     {},
	"nav":        {},
	"aside":      {},
	"form":       {},
	"button":     {},
	"input":      {},
	"img":        {},
	"figure":     {},
	"figcaption": {},
	"iframe":     {},
	"svg":        {},
	"path":       {},
}

// MeaningfulText returns the readable text of the selection.
// Descendants that are presentational or interactive are skipped, text nodes
// are trimmed and joined by newlines, and lines of fewer than two characters
// are dropped. The document is not modified.
func MeaningfulText(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}

	var parts []string
	for _, n := range sel.Nodes {
		parts = collectText(n, parts, true)
	}

	var lines []string
	for _, line := range strings.Split(strings.Join(parts, "\n"), "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) > 1 {
			lines = append(lines, line)
		}
	}

	return norm.NFC.String(strings.Join(lines, "\n"))
}

// collectText appends the trimmed text nodes under n to parts. The root
// itself is never filtered, only its descendants.
func collectText(n *html.Node, parts []string, root bool) []string {
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			parts = append(parts, text)
		}
		return parts
	case html.ElementNode:
		if !root {
			if _, skip := nonContentTags[n.Data]; skip {
				return parts
			}
		}
	case html.CommentNode, html.DoctypeNode:
		return parts
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		parts = collectText(c, parts, false)
	}
	return parts
}

// textLen returns the length of s in characters.
func textLen(s string) int {
	return utf8.RuneCountInString(s)
}

// faqTitle builds a record title from a question, truncated to 100 characters.
func faqTitle(question string) string {
	runes := []rune(question)
	if len(runes) <= 100 {
		return "FAQ: " + strings.Trim(question, ".")
	}
	return "FAQ: " + strings.Trim(string(runes[:100]), ".") + "..."
}

// faqText formats a question/answer pair as record content.
func faqText(question, answer string) string {
	return "Question: " + question + "\nAnswer: " + answer
}
