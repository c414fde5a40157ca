package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kressler/docproof/internal/app"
	"github.com/kressler/docproof/internal/assets"
	"github.com/kressler/docproof/internal/capture"
	"github.com/kressler/docproof/internal/cli"
	"github.com/kressler/docproof/internal/document"
	"github.com/kressler/docproof/internal/export"
	"github.com/kressler/docproof/internal/logging"
)

var exportCmd = &cobra.Command{
	Use:   "export -doc <id> [flags]",
	Short: "Export a stored document without running the server",
	Long: `Export renders one document through the normalization pipeline and
writes the artifact to disk.

Examples:
  docproof export -doc 4f1c… -format pdf
  docproof export -doc 4f1c… -format markdown -output proposal.md`,
	// Flags are parsed by the deterministic internal parser so the
	// same validation runs in tests.
	DisableFlagParsing: true,
	RunE:               runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	parsed, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}

	cfg := app.DefaultConfig()
	if parsed.Backend != "" {
		cfg.CaptureCfg.Backend = parsed.Backend
	}

	logger := logging.NewStdoutLogger("docproof")

	store, err := document.Open(cfg.DatabasePath(), logger)
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	defer store.Close()

	capturer, err := capture.NewCapturer(cfg.CaptureCfg, logger)
	if err != nil {
		return err
	}

	exporter := export.New(capturer, assets.NewLoader(logger), logger)
	orch := app.NewOrchestrator(cfg, store, exporter, logger)
	defer orch.Close()

	res, err := orch.ExportDocument(context.Background(), parsed.DocumentID, parsed.Format)
	if err != nil {
		return fmt.Errorf("exporting document: %w", err)
	}

	outPath := parsed.Output
	if outPath == "" {
		if err := os.MkdirAll(cfg.ExportDir(), 0o755); err != nil {
			return err
		}
		outPath = filepath.Join(cfg.ExportDir(), parsed.DocumentID+res.Extension)
	}
	if err := os.WriteFile(outPath, res.Data, 0o644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}

	fmt.Fprintf(os.Stdout, "✓ Written: %s\n", outPath)
	return nil
}
