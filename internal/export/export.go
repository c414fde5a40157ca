// Package export orchestrates the document export pipeline: it takes the
// rendered page HTML, runs the normalization passes that reconcile
// cascaded style into inline declarations, waits for every image asset to
// settle, and hands the finished markup to the requested output renderer.
package export

import (
	"context"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/kressler/docproof/internal/assets"
	"github.com/kressler/docproof/internal/capture"
	"github.com/kressler/docproof/internal/exportnorm"
	"github.com/kressler/docproof/internal/logging"
	"github.com/kressler/docproof/internal/styleres"
)

// Format selects the output artifact.
type Format string

const (
	// FormatPDF prints through the configured capture backend.
	FormatPDF Format = "pdf"
	// FormatPDFText uses the browserless text renderer.
	FormatPDFText Format = "pdf-text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatPDFText, FormatMarkdown, FormatHTML:
		return f, nil
	case "":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Result is a finished export artifact.
type Result struct {
	Data      []byte
	Extension string
	MIME      string
}

// Exporter runs the normalization passes and dispatches to an output
// renderer. The capturer handles FormatPDF; the other formats are
// rendered in-process.
type Exporter struct {
	capturer capture.Capturer
	loader   *assets.Loader
	logger   logging.Logger
}

func New(capturer capture.Capturer, loader *assets.Loader, logger logging.Logger) *Exporter {
	if logger == nil {
		logger = logging.NewStdoutLogger("Exporter")
	}
	if loader == nil {
		loader = assets.NewLoader(logger)
	}
	return &Exporter{capturer: capturer, loader: loader, logger: logger}
}

// Normalize parses pageHTML into a fresh tree, applies every export
// normalization pass inside each page scope, waits for image assets to
// settle, and returns the serialized result. The input string is never
// mutated; live editor state stays untouched because the pipeline only
// ever sees this detached copy.
func (e *Exporter) Normalize(ctx context.Context, pageHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return "", fmt.Errorf("parsing page HTML: %w", err)
	}

	resolver := styleres.NewCascade(doc)
	pipe := exportnorm.New(resolver, e.loader, e.logger)

	scopes := doc.Find(".page")
	if scopes.Length() == 0 {
		scopes = doc.Find("body")
	}

	scopes.Each(func(_ int, scope *goquery.Selection) {
		pipe.NormalizeImages(scope.Find("img"), exportnorm.DefaultFit)
		pipe.NormalizeSVGElements(scope.Find("svg"))
		pipe.NormalizeShapeContainers(scope.Find(".shape-block"))
		pipe.NormalizeTextElements(scope.Find(".text-block"))
		pipe.HideInteractiveControls(scope)
	})

	pipe.AwaitImagesSettled(ctx, scopes.Find("img"))

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serializing normalized page: %w", err)
	}
	return out, nil
}

// Export normalizes pageHTML and renders it in the requested format.
func (e *Exporter) Export(ctx context.Context, pageHTML string, format Format) (*Result, error) {
	normalized, err := e.Normalize(ctx, pageHTML)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatHTML:
		return &Result{Data: []byte(normalized), Extension: ".html", MIME: "text/html; charset=utf-8"}, nil

	case FormatMarkdown:
		md, err := htmltomarkdown.ConvertString(normalized)
		if err != nil {
			return nil, fmt.Errorf("converting to markdown: %w", err)
		}
		return &Result{Data: []byte(md), Extension: ".md", MIME: "text/markdown; charset=utf-8"}, nil

	case FormatPDFText:
		data, err := capture.NewTextPDF(e.logger).Capture(ctx, normalized)
		if err != nil {
			return nil, err
		}
		return &Result{Data: data, Extension: ".pdf", MIME: "application/pdf"}, nil

	case FormatPDF:
		if e.capturer == nil {
			return nil, fmt.Errorf("no capture backend configured")
		}
		data, err := e.capturer.Capture(ctx, normalized)
		if err != nil {
			return nil, fmt.Errorf("capturing document: %w", err)
		}
		return &Result{Data: data, Extension: e.capturer.Extension(), MIME: "application/pdf"}, nil

	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}
