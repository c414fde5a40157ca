// Package exportnorm rewrites a rendered page's DOM so a static capture
// backend reproduces what the live editor shows.
//
// The capture renderer disagrees with the interactive renderer on object-fit,
// SVG sizing, background painting, and control visibility, and it only honors
// inline style. Each pass here walks a capture scope and copies forward — or
// overrides — exactly the presentation state the capture step cannot resolve
// itself. Every pass is synchronous, side-effecting, and idempotent; the only
// asynchronous piece is the image readiness barrier in barrier.go.
package exportnorm

import (
	"strconv"
	"strings"

	"github.com/kressler/docproof/internal/assets"
	"github.com/kressler/docproof/internal/logging"
	"github.com/kressler/docproof/internal/styleres"
)

// Pipeline bundles the collaborators the normalization passes share: the
// computed-style oracle and the image loader backing the readiness barrier.
type Pipeline struct {
	resolver styleres.Resolver
	loader   *assets.Loader
	logger   logging.Logger
}

// New creates a Pipeline. resolver and loader may not be nil; logger may be.
func New(resolver styleres.Resolver, loader *assets.Loader, logger logging.Logger) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		loader:   loader,
		logger:   logger,
	}
}

// isRealColor reports whether a resolved color value actually paints
// something: non-empty, not a transparency keyword, not zero-alpha.
func isRealColor(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "", "transparent", "none", "initial", "inherit", "unset":
		return false
	}
	if strings.HasPrefix(v, "rgba(") || strings.HasPrefix(v, "hsla(") {
		inner := strings.TrimSuffix(v[strings.Index(v, "(")+1:], ")")
		parts := strings.Split(inner, ",")
		if len(parts) == 4 {
			alpha := strings.TrimSpace(parts[3])
			if a, err := strconv.ParseFloat(strings.TrimSuffix(alpha, "%"), 64); err == nil && a == 0 {
				return false
			}
		}
	}
	return true
}

// pixelValue converts a bare numeric attribute value ("240") into a px
// length ("240px"); values that already carry a unit pass through.
func pixelValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v + "px"
	}
	return v
}
