package exportnorm

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kressler/docproof/internal/styleattr"
)

// interactiveSelectors matches the editor chrome that must never appear in
// an export: resize and drag handles, scroll rails, drawers, overlays,
// menus, and form controls.
var interactiveSelectors = []string{
	"button",
	"input",
	"select",
	"textarea",
	"[role='button']",
	"[class*='resize-handle']",
	"[class*='drag-handle']",
	"[class*='handle']",
	"[class*='control']",
	"[class*='slider']",
	"[class*='scrollbar']",
	".menu",
	".menu-content",
	".nav-drawer",
	".overlay",
	".icon-button",
	".toolbar",
}

// HideInteractiveControls suppresses all interactive-only chrome inside
// scope. Each match gets display:none, visibility:hidden, and opacity:0
// together — capture backends differ on which single property they honor
// for skipping layout and paint. The pass is idempotent and never touches
// elements outside scope.
func (p *Pipeline) HideInteractiveControls(scope *goquery.Selection) {
	scope.Find(strings.Join(interactiveSelectors, ", ")).Each(func(_ int, ctrl *goquery.Selection) {
		st := styleattr.From(ctrl)
		st.Set("display", "none")
		st.Set("visibility", "hidden")
		st.Set("opacity", "0")
		styleattr.Apply(ctrl, st)
	})
}
