package styleres

import (
	"strings"

	"golang.org/x/net/html"
)

// Static is a fixture Resolver keyed by element id, class, or tag name.
// Lookup order: #id, .class (first declared class that matches), tag.
// Entries merge in that order, most specific last, mirroring how a real
// cascade would favor the narrower selector.
type Static struct {
	ByID    map[string]Computed
	ByClass map[string]Computed
	ByTag   map[string]Computed
}

// Resolve implements Resolver.
func (s *Static) Resolve(n *html.Node) Computed {
	if n == nil || n.Type != html.ElementNode {
		return Computed{}
	}
	out := Computed{}
	merge := func(c Computed) {
		for k, v := range c {
			out[strings.ToLower(k)] = v
		}
	}
	if s.ByTag != nil {
		merge(s.ByTag[strings.ToLower(n.Data)])
	}
	if s.ByClass != nil {
		for _, class := range strings.Fields(attrValue(n, "class")) {
			merge(s.ByClass[class])
		}
	}
	if s.ByID != nil {
		merge(s.ByID[attrValue(n, "id")])
	}
	return out
}
