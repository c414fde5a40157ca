// Package saferender owns the rendered subtree of rich-text content.
//
// Each Container wraps exactly one DOM element. Every content change
// re-sanitizes the raw string and atomically replaces the container's
// children with the new fragment — there is no incremental patching, so any
// external reference into the previous fragment is invalid after SetContent.
package saferender

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kressler/docproof/internal/logging"
	"github.com/kressler/docproof/internal/sanitize"
)

// Container renders sanitized rich text into a single host element.
type Container struct {
	host      *goquery.Selection
	sanitizer sanitize.Sanitizer
	logger    logging.Logger
	mounted   bool
}

// NewContainer wraps host. The sanitizer is fixed for the container's
// lifetime; the policy for a render context never changes mid-flight.
func NewContainer(host *goquery.Selection, sanitizer sanitize.Sanitizer, logger logging.Logger) *Container {
	return &Container{
		host:      host,
		sanitizer: sanitizer,
		logger:    logger,
		mounted:   true,
	}
}

// SetContent sanitizes raw and replaces the host's entire child content.
// Failures never propagate: if the sanitized fragment cannot be parsed, the
// previous content stays in place rather than corrupting the container.
func (c *Container) SetContent(raw string) {
	if !c.mounted || c.host == nil || c.host.Length() == 0 {
		return
	}

	safe := c.sanitizer.Sanitize(raw)

	// Pre-parse before touching the live children so a parse failure cannot
	// leave the container half-replaced.
	ctxNode := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	if _, err := html.ParseFragment(strings.NewReader(safe), ctxNode); err != nil {
		if c.logger != nil {
			c.logger.Warn("safe render: fragment parse failed, keeping previous content",
				logging.Field{Key: "error", Value: err.Error()})
		}
		return
	}

	c.host.SetHtml(safe)
}

// Unmount empties the container and detaches it from further updates.
func (c *Container) Unmount() {
	if !c.mounted {
		return
	}
	if c.host != nil && c.host.Length() > 0 {
		c.host.SetHtml("")
	}
	c.mounted = false
}

// Mounted reports whether the container still accepts content updates.
func (c *Container) Mounted() bool { return c.mounted }
