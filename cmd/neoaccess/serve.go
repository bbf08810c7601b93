package main

import (
	"context"
	"fmt"

	"github.com/BrainAnnex/neoaccess/internal/mcptools"
	"github.com/BrainAnnex/neoaccess/internal/schema"
)

// runServeMCP exposes the graph tools over a streamable-HTTP MCP endpoint
// until the context is cancelled.
func runServeMCP(ctx context.Context, e *schema.Engine, port int) error {
	svc := mcptools.NewGraphService(e)
	addr := fmt.Sprintf(":%d", port)
	fmt.Printf("MCP server listening on %s\n", addr)
	return mcptools.RunMCPServer(ctx, svc, addr)
}
