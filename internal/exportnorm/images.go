package exportnorm

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/kressler/docproof/internal/styleattr"
)

// DefaultFit is the object-fit emulated when neither inline nor computed
// style declares one.
const DefaultFit = "cover"

// NormalizeImages prepares every image in the collection for capture, in
// collection order. Per image it forces anonymous cross-origin loading,
// makes the element visible, emulates the resolved object-fit with explicit
// positioning (the capture renderer does not interpret object-fit against
// intrinsic sizes), and turns the parent into the containing block the
// emulation needs. Re-running on an already-normalized image is a no-op.
func (p *Pipeline) NormalizeImages(images *goquery.Selection, defaultFit string) {
	if defaultFit == "" {
		defaultFit = DefaultFit
	}

	images.Each(func(_ int, img *goquery.Selection) {
		// Anonymous credentials keep cross-origin pixels readable during
		// capture instead of tainting the canvas.
		img.SetAttr("crossorigin", "anonymous")

		st := styleattr.From(img)
		st.Set("display", "block")
		st.Set("visibility", "visible")

		fit := p.resolveFit(img, st, defaultFit)
		st.Set("object-fit", fit)
		applyFitEmulation(st, fit)
		styleattr.Apply(img, st)

		// The absolute positioning above needs a positioned ancestor, and
		// cover/fill stretching must be clipped to the frame.
		parent := img.Parent()
		if parent.Length() > 0 {
			ps := styleattr.From(parent)
			ps.Set("position", "relative")
			ps.Set("overflow", "hidden")
			ps.Set("box-sizing", "border-box")
			styleattr.Apply(parent, ps)
		}
	})
}

// resolveFit picks the effective object-fit: inline style first, then the
// computed value, then the default.
func (p *Pipeline) resolveFit(img *goquery.Selection, inline *styleattr.Style, defaultFit string) string {
	if v := inline.Get("object-fit"); v != "" {
		return normalizeFit(v, defaultFit)
	}
	if len(img.Nodes) > 0 {
		if v := p.resolver.Resolve(img.Nodes[0]).Get("object-fit"); v != "" {
			return normalizeFit(v, defaultFit)
		}
	}
	return defaultFit
}

func normalizeFit(v, defaultFit string) string {
	switch v {
	case "cover", "contain", "fill", "none", "scale-down":
		return v
	}
	return defaultFit
}

// applyFitEmulation writes the positioning rules for one fit mode. The five
// rules are the authoritative contract for the capture renderer; they are
// deliberately not re-derived from CSS object-fit semantics.
func applyFitEmulation(st *styleattr.Style, fit string) {
	switch fit {
	case "cover":
		// Stretch over the whole frame, anchored top-left.
		st.Set("position", "absolute")
		st.Set("top", "0")
		st.Set("left", "0")
		st.Set("width", "100%")
		st.Set("height", "100%")
	case "contain":
		// Full height, natural width, centered horizontally.
		st.Set("position", "absolute")
		st.Set("height", "100%")
		st.Set("width", "auto")
		st.Set("max-width", "none")
		st.Set("left", "50%")
		st.Set("transform", "translateX(-50%)")
	case "fill":
		st.Set("width", "100%")
		st.Set("height", "100%")
	case "none":
		// Natural size capped at frame height, centered on both axes.
		st.Set("position", "absolute")
		st.Set("max-height", "100%")
		st.Set("width", "auto")
		st.Set("left", "50%")
		st.Set("top", "50%")
		st.Set("transform", "translate(-50%, -50%)")
	case "scale-down":
		// Same centering as none, but the width may exceed the frame.
		st.Set("position", "absolute")
		st.Set("width", "auto")
		st.Set("max-width", "none")
		st.Set("left", "50%")
		st.Set("top", "50%")
		st.Set("transform", "translate(-50%, -50%)")
	}
}
