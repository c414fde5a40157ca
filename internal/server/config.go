package server

import (
	"github.com/kressler/docproof/internal/app"
	"github.com/kressler/docproof/internal/capture"
	"github.com/kressler/docproof/internal/logging"
)

// Config configures the HTTP server.
type Config struct {
	// ListenAddr is the address passed to http.Server.
	ListenAddr string

	// AppConfig is the shared application configuration. Nil selects
	// defaults.
	AppConfig *app.Config

	// Logger used by the server and everything it constructs. Nil
	// selects the stdout logger.
	Logger logging.Logger

	// Capturer overrides the configured capture backend. Mainly for
	// tests; nil constructs the backend named in AppConfig.
	Capturer capture.Capturer
}
