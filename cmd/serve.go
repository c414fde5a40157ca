package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kressler/docproof/internal/app"
	"github.com/kressler/docproof/internal/logging"
	"github.com/kressler/docproof/internal/server"
)

var (
	flagListenAddr  string
	flagStorageRoot string
	flagBackend     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the docproof HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&flagListenAddr, "addr", "", "Listen address (default :8080)")
	serveCmd.Flags().StringVar(&flagStorageRoot, "storage", "", "Storage root directory")
	serveCmd.Flags().StringVar(&flagBackend, "capture-backend", "", "Capture backend (chromedp|textpdf)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.DefaultConfig()
	if flagListenAddr != "" {
		cfg.ListenAddr = flagListenAddr
	}
	if flagStorageRoot != "" {
		cfg.StorageRoot = flagStorageRoot
	}
	if flagBackend != "" {
		cfg.CaptureCfg.Backend = flagBackend
	}

	logger := logging.NewStdoutLogger("docproof")

	s, err := server.NewServer(server.Config{
		ListenAddr: cfg.ListenAddr,
		AppConfig:  cfg,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	defer s.Close()

	logger.Info("listening", logging.Field{Key: "addr", Value: cfg.ListenAddr})
	return s.HTTPServer().ListenAndServe()
}
