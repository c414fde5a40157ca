package exportnorm

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/kressler/docproof/internal/styleattr"
)

// contentSelector locates the node holding the actual rendered text inside a
// text block, as opposed to its styling wrapper.
const contentSelector = ".block-content"

// blockPadding keeps a carried-forward background visibly inset instead of
// edge-to-edge with adjacent content.
const blockPadding = "8px"

// NormalizeTextElements reconciles resolved style with inline style for text
// blocks. The capture renderer honors only inline declarations, so anything
// a block inherits through the cascade — background, text color, fonts —
// must be copied forward, with !important so stylesheets the capture backend
// attaches later cannot override it. Blocks missing the expected structure
// are partially processed, never failed.
func (p *Pipeline) NormalizeTextElements(elements *goquery.Selection) {
	elements.Each(func(_ int, el *goquery.Selection) {
		hasBackground := p.carryForwardBackground(el)

		content := el.Find(contentSelector).First()
		if content.Length() == 0 {
			return
		}

		propagateInlineColor(content)
		reassertFontProperties(content)

		// When the wrapper paints the block background, the content element
		// must not paint its own on top of it.
		if hasBackground {
			styleattr.SetImportant(content, "background-color", "transparent")
		}
	})
}

// carryForwardBackground copies a real resolved background color into inline
// style and reports whether the element now paints one.
func (p *Pipeline) carryForwardBackground(el *goquery.Selection) bool {
	if len(el.Nodes) == 0 {
		return false
	}
	bg := p.resolver.Resolve(el.Nodes[0]).Get("background-color")
	if !isRealColor(bg) {
		return false
	}
	st := styleattr.From(el)
	st.SetImportant("background-color", bg)
	st.Set("padding", blockPadding)
	styleattr.Apply(el, st)
	return true
}

// propagateInlineColor pushes the content element's explicit text color down
// to every descendant that does not declare its own. Descendants relying on
// CSS inheritance would otherwise lose their color in the flattened capture.
func propagateInlineColor(content *goquery.Selection) {
	color := styleattr.Get(content, "color")
	if color == "" {
		return
	}
	content.Find("*").Each(func(_ int, desc *goquery.Selection) {
		if styleattr.Get(desc, "color") != "" {
			return
		}
		styleattr.SetImportant(desc, "color", color)
	})
}

// reassertFontProperties rewrites the content element's inline font
// declarations onto themselves with top precedence, guarding against the
// capture backend's default stylesheet.
func reassertFontProperties(content *goquery.Selection) {
	st := styleattr.From(content)
	changed := false
	for _, prop := range []string{"font-family", "font-size", "font-weight"} {
		if v := st.Get(prop); v != "" {
			st.SetImportant(prop, v)
			changed = true
		}
	}
	if changed {
		styleattr.Apply(content, st)
	}
}
