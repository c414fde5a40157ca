// Package styleattr reads and writes the inline `style` attribute of DOM
// elements. The export capture backend only honors inline declarations, so
// every normalization pass funnels its writes through this package.
//
// Declarations keep their original order; setting an existing property
// rewrites it in place instead of appending a duplicate, which is what makes
// repeated normalization runs converge to the same attribute value.
package styleattr

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aymerick/douceur/parser"
)

// Decl is a single CSS declaration from an inline style attribute.
type Decl struct {
	Property  string
	Value     string
	Important bool
}

// Style is an ordered list of inline declarations.
type Style struct {
	decls []Decl
}

// Parse parses a raw style attribute value. Malformed input degrades to a
// best-effort result: declarations douceur cannot parse are dropped, never
// surfaced as an error.
func Parse(attr string) *Style {
	s := &Style{}
	text := strings.TrimSpace(attr)
	if text == "" {
		return s
	}
	// douceur only commits a declaration's value when it reaches a ';' or
	// '}' terminator, so an unterminated final declaration would parse
	// with an empty value.
	if !strings.HasSuffix(text, ";") {
		text += ";"
	}
	decls, err := parser.ParseDeclarations(text)
	if err != nil {
		return s
	}
	for _, d := range decls {
		prop := strings.ToLower(strings.TrimSpace(d.Property))
		if prop == "" {
			continue
		}
		s.decls = append(s.decls, Decl{
			Property:  prop,
			Value:     strings.TrimSpace(d.Value),
			Important: d.Important,
		})
	}
	return s
}

// Get returns the value for prop, or "" if unset.
func (s *Style) Get(prop string) string {
	prop = strings.ToLower(prop)
	for _, d := range s.decls {
		if d.Property == prop {
			return d.Value
		}
	}
	return ""
}

// Has reports whether prop is declared with a non-empty value.
func (s *Style) Has(prop string) bool {
	return s.Get(prop) != ""
}

// Set writes prop: value, replacing an existing declaration in place.
func (s *Style) Set(prop, value string) {
	s.set(prop, value, false)
}

// SetImportant writes prop: value !important, overriding any stylesheet rule
// of any specificity — including ones the capture backend attaches later.
func (s *Style) SetImportant(prop, value string) {
	s.set(prop, value, true)
}

func (s *Style) set(prop, value string, important bool) {
	prop = strings.ToLower(strings.TrimSpace(prop))
	value = strings.TrimSpace(value)
	for i := range s.decls {
		if s.decls[i].Property == prop {
			s.decls[i].Value = value
			s.decls[i].Important = important
			return
		}
	}
	s.decls = append(s.decls, Decl{Property: prop, Value: value, Important: important})
}

// Remove deletes prop if present.
func (s *Style) Remove(prop string) {
	prop = strings.ToLower(prop)
	for i := range s.decls {
		if s.decls[i].Property == prop {
			s.decls = append(s.decls[:i], s.decls[i+1:]...)
			return
		}
	}
}

// Len returns the number of declarations.
func (s *Style) Len() int { return len(s.decls) }

// Decls returns a copy of the declarations in order.
func (s *Style) Decls() []Decl {
	return append([]Decl(nil), s.decls...)
}

// String serializes the declarations back into attribute form.
func (s *Style) String() string {
	var b strings.Builder
	for i, d := range s.decls {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(d.Property)
		b.WriteString(": ")
		b.WriteString(d.Value)
		if d.Important {
			b.WriteString(" !important")
		}
	}
	return b.String()
}

// From reads the inline style of the first node in sel.
func From(sel *goquery.Selection) *Style {
	attr, _ := sel.Attr("style")
	return Parse(attr)
}

// Apply writes s back onto every node in sel.
func Apply(sel *goquery.Selection, s *Style) {
	sel.SetAttr("style", s.String())
}

// Set is a read-modify-write convenience for a single declaration.
func Set(sel *goquery.Selection, prop, value string) {
	s := From(sel)
	s.Set(prop, value)
	Apply(sel, s)
}

// SetImportant is like Set but marks the declaration !important.
func SetImportant(sel *goquery.Selection, prop, value string) {
	s := From(sel)
	s.SetImportant(prop, value)
	Apply(sel, s)
}

// Get returns the inline value of prop on the first node of sel.
func Get(sel *goquery.Selection, prop string) string {
	return From(sel).Get(prop)
}
