package main

import (
	"context"
	"fmt"
	"os"

	"github.com/BrainAnnex/neoaccess/internal/schema"
)

// runExport dumps the whole database as JSON to stdout, or to a file when
// one is named.
func runExport(ctx context.Context, e *schema.Engine, args []string) error {
	data, err := e.Access().ExportJSON(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if len(args) > 0 {
		if err := os.WriteFile(args[0], []byte(data+"\n"), 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(os.Stderr, "exported to %s\n", args[0])
		return nil
	}

	_, err = os.Stdout.WriteString(data + "\n")
	return err
}
