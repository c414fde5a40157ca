package cli

import (
	"flag"
	"fmt"
	"strings"

	"github.com/kressler/docproof/internal/export"
)

// CLIArgs are the command-line arguments that control a one-shot export run.
type CLIArgs struct {
	// DocumentID identifies the document to export.
	DocumentID string

	// Format is the export format; defaults to pdf.
	Format export.Format

	// Output is the destination file; empty means a generated path under
	// the storage root.
	Output string

	// Backend overrides the configured capture backend; empty means "use
	// config default".
	Backend string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by
// passing arbitrary slices. The function is deterministic and does not read
// os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("docproof-export", flag.ContinueOnError)
	var (
		docID   = fs.String("doc", "", "Document ID to export (required)")
		format  = fs.String("format", "pdf", "Export format: pdf|pdf-text|markdown|html")
		output  = fs.String("output", "", "Destination file (default: generated under storage root)")
		backend = fs.String("backend", "", "Capture backend override (default: use config)")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(nil)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if strings.TrimSpace(*docID) == "" {
		return nil, fmt.Errorf("missing required -doc argument")
	}

	f, err := export.ParseFormat(*format)
	if err != nil {
		return nil, err
	}

	return &CLIArgs{
		DocumentID: *docID,
		Format:     f,
		Output:     *output,
		Backend:    *backend,
		RawArgs:    args,
	}, nil
}
