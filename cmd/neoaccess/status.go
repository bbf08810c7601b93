package main

import (
	"context"
	"fmt"

	"github.com/BrainAnnex/neoaccess/internal/schema"
)

// runStatus verifies connectivity and prints headline counts for the
// database and its schema layer.
func runStatus(ctx context.Context, e *schema.Engine) error {
	drv := e.Access().Driver()
	if err := drv.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("connectivity check failed: %w", err)
	}
	fmt.Println("Database: reachable")

	rows, err := drv.Query(ctx,
		"MATCH (n) RETURN count(n) AS nodes", nil)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		fmt.Printf("Nodes:    %v\n", rows[0]["nodes"])
	}

	rows, err = drv.Query(ctx, fmt.Sprintf(
		"OPTIONAL MATCH (c :`%s`) RETURN count(c) AS classes", schema.ClassLabel), nil)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		fmt.Printf("Classes:  %v\n", rows[0]["classes"])
	}
	return nil
}
