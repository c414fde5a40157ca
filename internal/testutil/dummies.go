// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"sync"

	"github.com/kressler/docproof/internal/logging"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── Capturer ──────────────────────────────────────────────────────────

// DummyCapturer implements capture.Capturer. It records every HTML
// payload it receives and returns a fixed fake PDF. Set Err to force a
// capture failure.
type DummyCapturer struct {
	Err error

	mu       sync.Mutex
	Captured []string
}

func (c *DummyCapturer) Capture(ctx context.Context, html string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.Captured = append(c.Captured, html)
	c.mu.Unlock()

	if c.Err != nil {
		return nil, c.Err
	}
	return []byte("%PDF-1.4 dummy"), nil
}

func (c *DummyCapturer) Extension() string { return ".pdf" }

// Last returns the most recent captured HTML, or "".
func (c *DummyCapturer) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Captured) == 0 {
		return ""
	}
	return c.Captured[len(c.Captured)-1]
}
