// Package sanitize cleans untrusted rich-text HTML before it is rendered
// into a document. It wraps bluemonday behind a small policy type so the
// allow-list stays configuration, not code, and so tests can run the
// contract against a stub.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Policy is the allow-list pairing of permitted tags and attributes.
// Script-executing vectors (script tags, on* handlers, javascript: URLs)
// are neutralized regardless of what the policy names.
type Policy struct {
	AllowedTags       []string
	AllowedAttributes []string
}

// DefaultPolicy permits the rich-text subset the block editor produces:
// basic formatting, headings, lists, links, tables, and the inline style
// and class attributes the editor writes.
func DefaultPolicy() Policy {
	return Policy{
		AllowedTags: []string{
			"p", "br", "hr",
			"b", "i", "em", "strong", "u", "s", "mark",
			"h1", "h2", "h3", "h4", "h5", "h6",
			"ul", "ol", "li",
			"a", "img",
			"table", "thead", "tbody", "tr", "th", "td",
			"blockquote", "pre", "code",
			"div", "span", "sup", "sub",
		},
		AllowedAttributes: []string{
			"style", "class", "href", "src", "alt", "title",
			"colspan", "rowspan", "width", "height",
		},
	}
}

// Sanitizer cleans a raw HTML string. It never returns an error: malformed
// markup degrades to tolerant parsing, and the zero-value output of a broken
// input is an empty string, not a panic.
type Sanitizer interface {
	Sanitize(raw string) string
}

// HTMLSanitizer is the bluemonday-backed Sanitizer.
type HTMLSanitizer struct {
	policy *bluemonday.Policy
}

// New builds an HTMLSanitizer for the given policy.
func New(p Policy) *HTMLSanitizer {
	bm := bluemonday.NewPolicy()

	for _, tag := range p.AllowedTags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || tag == "script" || tag == "style" || tag == "iframe" ||
			tag == "object" || tag == "embed" || tag == "form" {
			// Executable or embedding tags stay out no matter the policy.
			continue
		}
		bm.AllowElements(tag)
	}

	attrs := make([]string, 0, len(p.AllowedAttributes))
	for _, attr := range p.AllowedAttributes {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr == "" || strings.HasPrefix(attr, "on") {
			// Event handler attributes never survive.
			continue
		}
		attrs = append(attrs, attr)
	}
	if len(attrs) > 0 {
		bm.AllowAttrs(attrs...).Globally()
	}

	// javascript: and friends are rejected at the URL level.
	bm.AllowURLSchemes("http", "https", "mailto", "data")
	bm.RequireParseableURLs(true)

	return &HTMLSanitizer{policy: bm}
}

// Sanitize implements Sanitizer.
func (s *HTMLSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}

// Sanitize is a one-shot convenience for callers without a long-lived
// sanitizer instance.
func Sanitize(raw string, p Policy) string {
	return New(p).Sanitize(raw)
}
