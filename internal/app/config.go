package app

import (
	"path/filepath"

	"github.com/kressler/docproof/internal/capture"
)

// Config contains the runtime configuration shared by the orchestrator
// and the server. Keep this small — add fields as wiring requires them.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string

	// StorageRoot is the base path where the database and export
	// artifacts are kept.
	StorageRoot string

	// Capture backend configuration.
	CaptureCfg capture.Config

	// DefaultFormat is used when an export request names no format.
	DefaultFormat string
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:    ":8080",
		StorageRoot:   "~/.config/docproof",
		CaptureCfg:    capture.DefaultConfig(),
		DefaultFormat: "pdf",
	}
}

// DatabasePath is the SQLite file under the storage root.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.StorageRoot, "docproof.db")
}

// ExportDir is where finished export artifacts land.
func (c *Config) ExportDir() string {
	return filepath.Join(c.StorageRoot, "exports")
}
