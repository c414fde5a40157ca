package exportnorm

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/kressler/docproof/internal/styleattr"
)

// SVGNamespace is the xmlns value required for an SVG fragment to render
// when serialized outside the live document's namespace context.
const SVGNamespace = "http://www.w3.org/2000/svg"

// Default paint for vector primitives the editor generated without explicit
// styling. Capture will not resolve inherited or user-agent defaults, so the
// polygon must carry its own.
const (
	defaultPolygonFill        = "#E2E8F0"
	defaultPolygonStroke      = "#CBD5E1"
	defaultPolygonStrokeWidth = "1"
)

// NormalizeSVGElements prepares SVG roots for capture: namespace, inlined
// sizing, forced visibility, and default paint for bare polygons.
func (p *Pipeline) NormalizeSVGElements(svgs *goquery.Selection) {
	svgs.Each(func(_ int, svg *goquery.Selection) {
		if _, ok := svg.Attr("xmlns"); !ok {
			svg.SetAttr("xmlns", SVGNamespace)
		}

		st := styleattr.From(svg)

		// Attribute sizing does not survive capture unless inlined.
		if !st.Has("width") {
			if w, ok := svg.Attr("width"); ok && w != "" {
				st.Set("width", pixelValue(w))
			}
		}
		if !st.Has("height") {
			if h, ok := svg.Attr("height"); ok && h != "" {
				st.Set("height", pixelValue(h))
			}
		}

		st.Set("display", "block")
		st.Set("visibility", "visible")
		styleattr.Apply(svg, st)

		svg.Find("polygon").Each(func(_ int, poly *goquery.Selection) {
			if _, ok := poly.Attr("fill"); !ok {
				poly.SetAttr("fill", defaultPolygonFill)
			}
			if _, ok := poly.Attr("stroke"); !ok {
				poly.SetAttr("stroke", defaultPolygonStroke)
			}
			if _, ok := poly.Attr("stroke-width"); !ok {
				poly.SetAttr("stroke-width", defaultPolygonStrokeWidth)
			}
		})
	})
}

// NormalizeShapeContainers clears the box styling of containers that hold a
// polygon. Triangles are drawn entirely by the polygon's fill and stroke; a
// painted container box would add a wrong rectangle behind the shape.
func (p *Pipeline) NormalizeShapeContainers(shapes *goquery.Selection) {
	shapes.Each(func(_ int, shape *goquery.Selection) {
		if shape.Find("polygon").Length() == 0 {
			return
		}
		st := styleattr.From(shape)
		st.Set("background", "transparent")
		st.Set("border", "none")
		styleattr.Apply(shape, st)
	})
}
