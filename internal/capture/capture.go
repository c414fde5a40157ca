// Package capture turns finished page HTML into export artifacts. Backends
// register themselves by name; the factory picks one from config so tests
// and headless deployments can swap the Chrome renderer for the text
// fallback without touching callers.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kressler/docproof/internal/logging"
)

// Capturer renders a complete HTML document into output bytes.
type Capturer interface {
	Capture(ctx context.Context, html string) ([]byte, error)

	// Extension is the file extension for this backend's output,
	// including the dot.
	Extension() string
}

// Config selects and tunes a capture backend.
type Config struct {
	// Backend names a registered backend. Empty selects "chromedp".
	Backend string

	// Paper size in inches. Zero values fall back to US Letter.
	PaperWidth  float64
	PaperHeight float64
	Landscape   bool

	// Timeout bounds a single capture. Zero means no extra deadline.
	Timeout time.Duration
}

// DefaultConfig returns capture defaults: Chrome-backed US Letter portrait.
func DefaultConfig() Config {
	return Config{
		Backend:     "chromedp",
		PaperWidth:  8.5,
		PaperHeight: 11,
		Timeout:     60 * time.Second,
	}
}

// BackendConstructor constructs a Capturer given the config and logger.
type BackendConstructor func(cfg Config, logger logging.Logger) (Capturer, error)

var (
	mu       sync.RWMutex
	registry = map[string]BackendConstructor{}
)

// RegisterBackend registers a named backend constructor. Name is lower-cased
// internally. Calling RegisterBackend with the same name overwrites the
// previous constructor.
func RegisterBackend(name string, ctor BackendConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// NewCapturer constructs the configured capture backend. It returns an error
// if the named backend has not been registered.
func NewCapturer(cfg Config, logger logging.Logger) (Capturer, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = "chromedp"
	}

	mu.RLock()
	ctor, ok := registry[backend]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("capture backend %q not registered: available backends=%v", backend, ListBackends())
	}

	c, err := ctor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to construct capture backend %q: %w", backend, err)
	}
	if c == nil {
		return nil, errors.New("capture constructor returned nil")
	}
	return c, nil
}

// ListBackends returns the list of registered backend names.
func ListBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}
