package document

import (
	"fmt"
	"html"
	"strings"

	"github.com/kressler/docproof/internal/sanitize"
)

// Page dimensions in CSS pixels (US Letter at 96dpi).
const (
	pageWidthPx  = 816
	pageHeightPx = 1056
)

// baseStyles is the stylesheet every rendered document carries. Export
// normalization later copies anything the capture backend needs into
// inline style; this is only the on-screen baseline.
const baseStyles = `
body.export { margin: 0; background: #f1f5f9; font-family: Helvetica, Arial, sans-serif; }
.page { position: relative; width: 816px; min-height: 1056px; margin: 16px auto; background: #ffffff; overflow: hidden; }
.block { position: absolute; box-sizing: border-box; }
.block-content { width: 100%; height: 100%; overflow: hidden; font-size: 14px; color: #1a202c; }
.image-block img { width: 100%; height: 100%; }
.signature-block .signature-line { border-top: 1px solid #1a202c; margin-top: 32px; }
`

// Renderer turns a document into a standalone HTML page per section,
// sanitizing every block's rich-text payload on the way through.
type Renderer struct {
	sanitizer sanitize.Sanitizer
}

func NewRenderer() *Renderer {
	return &Renderer{sanitizer: sanitize.New(sanitize.DefaultPolicy())}
}

// Render produces the full export document: one .page element per section
// inside a minimal HTML shell.
func (r *Renderer) Render(doc *Document) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(doc.Title))
	b.WriteString("</title>\n<style>")
	b.WriteString(baseStyles)
	b.WriteString("</style>\n</head>\n<body class=\"export\">\n")
	for _, sec := range doc.Sections {
		r.renderSection(&b, &sec)
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func (r *Renderer) renderSection(b *strings.Builder, sec *Section) {
	fmt.Fprintf(b, "<div class=\"page\" data-section=\"%s\">\n", html.EscapeString(sec.ID))
	for _, blk := range sec.Blocks {
		r.renderBlock(b, &blk)
	}
	b.WriteString("</div>\n")
}

// geometryStyle converts grid placement into absolute positioning.
// Horizontal units are percentages of the page so exports are stable
// across paper sizes; vertical units are fixed-height rows.
func geometryStyle(g Geometry) string {
	left := float64(g.X) * 100 / GridColumns
	width := float64(g.W) * 100 / GridColumns
	return fmt.Sprintf("left: %.4f%%; top: %dpx; width: %.4f%%; height: %dpx;",
		left, g.Y*RowUnitPx, width, g.H*RowUnitPx)
}

func (r *Renderer) renderBlock(b *strings.Builder, blk *Block) {
	style := geometryStyle(blk.Geometry)
	if blk.Style != "" {
		style += " " + blk.Style
	}

	switch blk.Kind {
	case BlockImage:
		fmt.Fprintf(b, "<div class=\"block image-block\" id=\"%s\" style=\"%s\">",
			html.EscapeString(blk.ID), html.EscapeString(style))
		if src := safeImageSrc(blk.Src); src != "" {
			b.WriteString("<img src=\"")
			b.WriteString(html.EscapeString(src))
			b.WriteString("\"")
			if blk.Fit != "" {
				fmt.Fprintf(b, " style=\"object-fit: %s;\"", html.EscapeString(blk.Fit))
			}
			b.WriteString(">")
		}
		b.WriteString("</div>\n")

	case BlockShape:
		points := blk.Points
		if strings.TrimSpace(points) == "" {
			points = "0,0 100,0 100,100 0,100"
		}
		fmt.Fprintf(b, "<div class=\"block shape-block\" id=\"%s\" style=\"%s\">",
			html.EscapeString(blk.ID), html.EscapeString(style))
		fmt.Fprintf(b,
			"<svg viewBox=\"0 0 100 100\" preserveAspectRatio=\"none\" style=\"width: 100%%; height: 100%%;\"><polygon points=\"%s\"></polygon></svg>",
			html.EscapeString(points))
		b.WriteString("</div>\n")

	case BlockSignature:
		fmt.Fprintf(b, "<div class=\"block signature-block text-block\" id=\"%s\" style=\"%s\">",
			html.EscapeString(blk.ID), html.EscapeString(style))
		b.WriteString("<div class=\"block-content\">")
		b.WriteString(r.sanitizer.Sanitize(blk.HTML))
		b.WriteString("<div class=\"signature-line\"></div></div></div>\n")

	default:
		// Text and table blocks share the wrapper/content structure; the
		// payload markup is what differs.
		class := "block text-block"
		if blk.Kind == BlockTable {
			class = "block table-block text-block"
		}
		fmt.Fprintf(b, "<div class=\"%s\" id=\"%s\" style=\"%s\">",
			class, html.EscapeString(blk.ID), html.EscapeString(style))
		b.WriteString("<div class=\"block-content\">")
		b.WriteString(r.sanitizer.Sanitize(blk.HTML))
		b.WriteString("</div></div>\n")
	}
}

// safeImageSrc rejects sources outside the schemes the sanitizer allows
// for rich-text URLs.
func safeImageSrc(src string) string {
	src = strings.TrimSpace(src)
	lower := strings.ToLower(src)
	switch {
	case src == "":
		return ""
	case strings.HasPrefix(lower, "http://"),
		strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "data:image/"):
		return src
	default:
		return ""
	}
}
