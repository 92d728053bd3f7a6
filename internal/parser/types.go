// Package parser turns rendered page markup into content records and
// in-domain links.
package parser

import (
	"fmt"
)

// Content types emitted by the extractor. Selector-based types carry the
// selector after the prefix.
const (
	ContentTypeSelectorPrefix = "selector:"
	ContentTypeDefinitionFAQ  = "faq_dt_dd"
	ContentTypeFallbackPrefix = "body_fallback:"
	FallbackBodyDirect        = "body_direct"
	NoTitle                   = "No Title Found"
)

// Length thresholds, in characters, for accepting extracted text.
const (
	MinMainContentLen   = 150
	MinDefinitionAnswer = 10
	MinHeadingAnswer    = 20
	MinFallbackLen      = 100
	MaxAnswerSiblings   = 5
	MaxFAQHeadingWords  = 15
)

// DefaultMainContentSelectors is the priority-ordered list of selectors
// tried for main-content detection.
var DefaultMainContentSelectors = []string{
	"div.container-view",
	"div.content-inner",
	"article.article-detail",
	"div.berita-detail-konten",
	"article",
	"main",
	`div[class*="content"]`,
	`div[class*="post"]`,
	`div[class*="konten"]`,
	`div[class*="berita"]`,
	`div[class*="isi"]`,
	`div[class*="detail"]`,
	`div[id*="content"]`,
	`div[id*="main"]`,
	`div[id*="artikel"]`,
}

// DefaultFallbackSelectors are tried inside <body> when no other strategy
// produced a record.
var DefaultFallbackSelectors = []string{
	`div[role="main"]`,
	"div.main-container",
	"div#app",
	"div.page",
}

// HeadingContentType returns the content type for a heading-led FAQ record.
func HeadingContentType(level int) string {
	return fmt.Sprintf("faq_h%d_sibling", level)
}
