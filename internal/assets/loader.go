// Package assets prefetches the external resources a capture scope depends
// on. The export pipeline uses it to answer one question per image: has this
// resource finished loading (successfully or not)?
package assets

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	// Decoders for the formats the editor accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/kressler/docproof/internal/logging"
)

const (
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "docproof/1.0"
	maxImageBytes    = 32 << 20 // refuse to buffer more than 32 MiB per image
)

// entry is one resolved resource. err is retained so a failed fetch still
// counts as a settled load.
type entry struct {
	data []byte
	err  error
}

// Loader fetches and caches image resources over HTTP.
type Loader struct {
	client *http.Client
	logger logging.Logger

	mu    sync.Mutex
	cache map[string]*entry
}

// NewLoader creates a Loader with a bounded request timeout.
func NewLoader(logger logging.Logger) *Loader {
	return &Loader{
		client: &http.Client{Timeout: defaultTimeout},
		logger: logger,
		cache:  make(map[string]*entry),
	}
}

// Complete reports whether src needs no further loading: empty sources,
// inline data URIs, and anything already fetched (or already failed) count
// as complete.
func (l *Loader) Complete(src string) bool {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.cache[src]
	return ok
}

// Fetch retrieves src and verifies it decodes as an image. The result —
// success or failure — is cached, so a source only ever loads once. A fetch
// error is reported to the caller but the source still counts as complete
// afterwards.
func (l *Loader) Fetch(ctx context.Context, src string) error {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") {
		return nil
	}

	l.mu.Lock()
	if e, ok := l.cache[src]; ok {
		l.mu.Unlock()
		return e.err
	}
	l.mu.Unlock()

	data, err := l.fetch(ctx, src)

	l.mu.Lock()
	l.cache[src] = &entry{data: data, err: err}
	l.mu.Unlock()

	if err != nil && l.logger != nil {
		l.logger.Warn("image load failed",
			logging.Field{Key: "src", Value: src},
			logging.Field{Key: "error", Value: err.Error()})
	}
	return err
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, src)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", src, err)
	}
	return data, nil
}

// Image returns the cached bytes for src, if a successful fetch happened.
func (l *Loader) Image(src string) ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.cache[src]
	if !ok || e.err != nil {
		return nil, false
	}
	return e.data, true
}
