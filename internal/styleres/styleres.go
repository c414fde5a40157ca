// Package styleres resolves the effective style of DOM elements.
//
// The export normalizers treat resolved style as a read-only oracle: they
// consult it for values the capture backend cannot resolve itself, then copy
// anything material forward into inline style. Resolution is therefore kept
// behind the Resolver interface — production code uses the stylesheet cascade
// implemented here, tests inject fixed snapshots.
package styleres

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"

	"github.com/kressler/docproof/internal/styleattr"
)

// Computed is a read-only snapshot of resolved style for one element.
// Only declared (cascaded, inline, or inherited) values appear; user-agent
// defaults are deliberately absent so callers can detect "nothing set".
type Computed map[string]string

// Get returns the resolved value for prop, or "" if nothing declared it.
func (c Computed) Get(prop string) string {
	if c == nil {
		return ""
	}
	return c[strings.ToLower(prop)]
}

// Resolver resolves the effective style of an element.
type Resolver interface {
	Resolve(n *html.Node) Computed
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(n *html.Node) Computed

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(n *html.Node) Computed { return f(n) }

// inheritedProps are the properties that flow from parent to child when the
// child does not declare them itself.
var inheritedProps = map[string]bool{
	"color":          true,
	"font-family":    true,
	"font-size":      true,
	"font-weight":    true,
	"font-style":     true,
	"line-height":    true,
	"letter-spacing": true,
	"text-align":     true,
	"visibility":     true,
}

// matchedDecl is one declaration that applies to an element, with enough
// bookkeeping to order it against competing declarations.
type matchedDecl struct {
	prop        string
	value       string
	important   bool
	specificity cascadia.Specificity
	order       int
}

// rule is a compiled stylesheet rule.
type rule struct {
	sel   cascadia.Sel
	decls []declEntry
	order int
}

type declEntry struct {
	prop      string
	value     string
	important bool
}

// Cascade resolves style from the document's embedded <style> elements plus
// each element's inline style attribute. It is the production Resolver.
type Cascade struct {
	rules []rule
	memo  map[*html.Node]Computed
}

// NewCascade collects and compiles every <style> element inside doc.
// Unparseable stylesheets and selectors are skipped, never fatal.
func NewCascade(doc *goquery.Document) *Cascade {
	c := &Cascade{memo: make(map[*html.Node]Computed)}
	order := 0
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		sheet, err := parser.Parse(s.Text())
		if err != nil {
			return
		}
		for _, r := range sheet.Rules {
			if len(r.Declarations) == 0 {
				continue
			}
			decls := make([]declEntry, 0, len(r.Declarations))
			for _, d := range r.Declarations {
				decls = append(decls, declEntry{
					prop:      strings.ToLower(strings.TrimSpace(d.Property)),
					value:     strings.TrimSpace(d.Value),
					important: d.Important,
				})
			}
			for _, selText := range r.Selectors {
				sel, err := cascadia.Parse(strings.TrimSpace(selText))
				if err != nil {
					continue
				}
				c.rules = append(c.rules, rule{sel: sel, decls: decls, order: order})
				order++
			}
		}
	})
	return c
}

// Resolve returns the effective style for n: stylesheet rules in cascade
// order, then inline declarations, then inherited values from ancestors.
func (c *Cascade) Resolve(n *html.Node) Computed {
	if n == nil || n.Type != html.ElementNode {
		return Computed{}
	}
	if memo, ok := c.memo[n]; ok {
		return memo
	}

	var matched []matchedDecl
	for _, r := range c.rules {
		if !r.sel.Match(n) {
			continue
		}
		for _, d := range r.decls {
			matched = append(matched, matchedDecl{
				prop:        d.prop,
				value:       d.value,
				important:   d.important,
				specificity: r.sel.Specificity(),
				order:       r.order,
			})
		}
	}

	// Weakest first so later assignments win.
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.important != b.important {
			return !a.important
		}
		if a.specificity != b.specificity {
			return a.specificity.Less(b.specificity)
		}
		return a.order < b.order
	})

	out := Computed{}
	for _, m := range matched {
		out[m.prop] = m.value
	}

	// Inline style wins over any non-important stylesheet rule; important
	// inline declarations win over everything.
	inline := styleattr.Parse(attrValue(n, "style"))
	overlayInline(out, inline, matched)

	// Inherit whatever is still unset for inherited properties.
	if n.Parent != nil {
		parent := c.Resolve(n.Parent)
		for prop := range inheritedProps {
			if out[prop] == "" && parent[prop] != "" {
				out[prop] = parent[prop]
			}
		}
	}

	c.memo[n] = out
	return out
}

func overlayInline(out Computed, inline *styleattr.Style, matched []matchedDecl) {
	importantFromSheet := map[string]bool{}
	for _, m := range matched {
		if m.important {
			importantFromSheet[m.prop] = true
		}
	}
	for _, d := range inline.Decls() {
		if d.Value == "" {
			continue
		}
		// A !important stylesheet rule beats a plain inline declaration.
		if importantFromSheet[d.Property] && !d.Important {
			continue
		}
		out[d.Property] = d.Value
	}
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
