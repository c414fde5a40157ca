package capture

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/jung-kurt/gofpdf"

	"github.com/kressler/docproof/internal/logging"
)

// TextPDF is the browserless fallback backend. It flattens the document
// to Markdown and typesets that with gofpdf. Layout geometry and images
// are lost; text content, headings and lists survive. Useful on hosts
// without Chrome and in tests.
type TextPDF struct {
	logger logging.Logger
}

func NewTextPDF(logger logging.Logger) *TextPDF {
	if logger == nil {
		logger = logging.NewStdoutLogger("TextPDF")
	}
	return &TextPDF{logger: logger}
}

func (t *TextPDF) Capture(ctx context.Context, html string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return nil, fmt.Errorf("flattening document to markdown: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	numbered := regexp.MustCompile(`^\d+\.\s`)

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			pdf.Ln(3)
			continue
		}

		if strings.HasPrefix(trimmed, "#") {
			level := 0
			for _, ch := range trimmed {
				if ch != '#' {
					break
				}
				level++
			}
			writeHeading(pdf, strings.TrimSpace(strings.TrimLeft(trimmed, "# ")), level)
			continue
		}

		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, "• "+stripInlineMarkdown(trimmed[2:]), "", "L", false)
			continue
		}

		if numbered.MatchString(trimmed) {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, stripInlineMarkdown(trimmed), "", "L", false)
			continue
		}

		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, stripInlineMarkdown(line), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}

	t.logger.Debug("captured document without browser", logging.Field{Key: "bytes", Value: buf.Len()})
	return buf.Bytes(), nil
}

func (t *TextPDF) Extension() string { return ".pdf" }

// writeHeading sets the font size based on heading level and writes text.
func writeHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, stripInlineMarkdown(text), "", "L", false)
	pdf.Ln(2)
}

var (
	italicRe = regexp.MustCompile(`(?:^|\s)\*([^*]+)\*(?:\s|$)`)
	codeRe   = regexp.MustCompile("`([^`]+)`")
	linkRe   = regexp.MustCompile(`\[([^\]]*)\]\([^)]+\)`)
)

// stripInlineMarkdown drops inline formatting markers that gofpdf would
// otherwise print literally.
func stripInlineMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = italicRe.ReplaceAllString(text, " $1 ")
	text = codeRe.ReplaceAllString(text, "$1")
	text = linkRe.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
