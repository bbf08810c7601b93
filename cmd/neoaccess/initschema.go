package main

import (
	"context"
	"fmt"

	"github.com/BrainAnnex/neoaccess/internal/schema"
)

// runInitSchema creates the reserved autoincrement namespaces. Safe to run
// against a database that already has them.
func runInitSchema(ctx context.Context, e *schema.Engine) error {
	if err := e.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	fmt.Printf("Schema initialized: namespaces %q and %q are ready\n",
		schema.ClassNamespace, schema.DataNamespace)
	return nil
}
