package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/atom"

	"github.com/PentesterFlow/OpenHarvest/internal/output"
)

// nonContentSelector matches the same elements as nonContentTags.
var nonContentSelector = "script, style, header, footer, nav, aside, form, button, input, img, figure, figcaption, iframe, svg, path"

// answerTags are the sibling elements that may carry a heading's answer.
var answerTags = map[atom.Atom]bool{
	atom.P:     true,
	atom.Div:   true,
	atom.Ul:    true,
	atom.Ol:    true,
	atom.Span:  true,
	atom.Li:    true,
	atom.Table: true,
}

var headingTags = map[atom.Atom]bool{
	atom.H1: true,
	atom.H2: true,
	atom.H3: true,
	atom.H4: true,
	atom.H5: true,
	atom.H6: true,
}

// Extractor turns rendered markup into content records.
//
// Strategies run in this order: main-content selectors, definition-list
// FAQ, heading-led FAQ. The body fallback runs only when the three of them
// produced nothing.
type Extractor struct {
	mainSelectors     []string
	fallbackSelectors []string
}

// NewExtractor creates an extractor with the default selector lists.
func NewExtractor() *Extractor {
	return &Extractor{
		mainSelectors:     DefaultMainContentSelectors,
		fallbackSelectors: DefaultFallbackSelectors,
	}
}

// Extract parses markup and returns the records found for pageURL.
// An empty result is not an error.
func (e *Extractor) Extract(markup, pageURL string) ([]output.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}

	pageTitle := strings.TrimSpace(doc.Find("title").First().Text())
	if pageTitle == "" {
		pageTitle = NoTitle
	}

	records := e.mainContent(doc, pageURL, pageTitle)
	records = append(records, e.definitionFAQ(doc, pageURL)...)
	records = append(records, e.headingFAQ(doc, pageURL)...)

	if len(records) == 0 {
		records = e.fallback(doc, pageURL, pageTitle)
	}

	return records, nil
}

// mainContent returns one record per element of the first selector that
// has at least one element with enough text.
func (e *Extractor) mainContent(doc *goquery.Document, pageURL, pageTitle string) []output.Record {
	for _, selector := range e.mainSelectors {
		var records []output.Record

		doc.Find(selector).Each(func(_ int, el *goquery.Selection) {
			text := MeaningfulText(el)
			if textLen(text) <= MinMainContentLen {
				return
			}
			records = append(records, output.Record{
				SourceURL:   pageURL,
				Title:       sectionTitle(el, pageTitle),
				ContentType: ContentTypeSelectorPrefix + selector,
				ContentText: text,
			})
		})

		if len(records) > 0 {
			return records
		}
	}
	return nil
}

// sectionTitle returns the text of the first level-1 heading in el, else
// the first level-2 heading, else pageTitle. Headings inside non-content
// elements are ignored.
func sectionTitle(el *goquery.Selection, pageTitle string) string {
	for _, tag := range []string{"h1", "h2"} {
		heading := el.Find(tag).FilterFunction(func(_ int, h *goquery.Selection) bool {
			return h.ParentsUntilSelection(el).Filter(nonContentSelector).Length() == 0
		}).First()

		if title := MeaningfulText(heading); title != "" {
			return title
		}
	}
	return pageTitle
}

// definitionFAQ pairs every <dt> with its next <dd> sibling.
func (e *Extractor) definitionFAQ(doc *goquery.Document, pageURL string) []output.Record {
	var records []output.Record

	doc.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		question := MeaningfulText(dt)
		if question == "" {
			return
		}
		answer := MeaningfulText(dt.NextAllFiltered("dd").First())
		if answer == "" || textLen(answer) <= MinDefinitionAnswer {
			return
		}

		records = append(records, output.Record{
			SourceURL:   pageURL,
			Title:       faqTitle(question),
			ContentType: ContentTypeDefinitionFAQ,
			ContentText: faqText(question, answer),
		})
	})

	return records
}

// headingFAQ treats question-like h2-h4 headings as questions and the
// content siblings that follow them as the answer.
func (e *Extractor) headingFAQ(doc *goquery.Document, pageURL string) []output.Record {
	var records []output.Record

	for level := 2; level <= 4; level++ {
		contentType := HeadingContentType(level)

		doc.Find(fmt.Sprintf("h%d", level)).Each(func(_ int, h *goquery.Selection) {
			question := MeaningfulText(h)
			if question == "" || !IsQuestionHeading(question) {
				return
			}
			answer := siblingAnswer(h)
			if textLen(answer) <= MinHeadingAnswer {
				return
			}

			records = append(records, output.Record{
				SourceURL:   pageURL,
				Title:       faqTitle(question),
				ContentType: contentType,
				ContentText: faqText(question, answer),
			})
		})
	}

	return records
}

// IsQuestionHeading reports whether heading text reads like a question:
// it contains "?", or it has 2 to 14 words and does not end in ".", ":" or "!".
func IsQuestionHeading(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	words := len(strings.Fields(text))
	if words <= 1 || words >= MaxFAQHeadingWords {
		return false
	}
	trimmed := strings.TrimSpace(text)
	return !strings.HasSuffix(trimmed, ".") &&
		!strings.HasSuffix(trimmed, ":") &&
		!strings.HasSuffix(trimmed, "!")
}

// siblingAnswer joins the text of up to MaxAnswerSiblings non-empty content
// siblings after h, stopping at the next heading.
func siblingAnswer(h *goquery.Selection) string {
	var parts []string

	for sib := h.Next(); sib.Length() > 0 && len(parts) < MaxAnswerSiblings; sib = sib.Next() {
		tag := sib.Get(0).DataAtom
		if headingTags[tag] {
			break
		}
		if !answerTags[tag] {
			continue
		}
		if text := MeaningfulText(sib); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n")
}

// fallback extracts the first matching fallback container, or the whole
// body, as a single record.
func (e *Extractor) fallback(doc *goquery.Document, pageURL, pageTitle string) []output.Record {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}

	target, used := body, FallbackBodyDirect
	for _, selector := range e.fallbackSelectors {
		if match := body.Find(selector).First(); match.Length() > 0 {
			target, used = match, selector
			break
		}
	}

	text := MeaningfulText(target)
	if textLen(text) <= MinFallbackLen {
		return nil
	}

	return []output.Record{{
		SourceURL:   pageURL,
		Title:       pageTitle,
		ContentType: ContentTypeFallbackPrefix + used,
		ContentText: text,
	}}
}
