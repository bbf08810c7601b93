package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewGraphMCPServer creates an MCP server with all 6 graph tools registered.
func NewGraphMCPServer(svc *GraphService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "neoaccess-graph",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_nodes",
		Description: "Fetch nodes matching a label/key/value filter. Optionally sorts, limits, and attaches internal id / element id / label metadata to each record.",
	}, svc.GetNodes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_class",
		Description: "Declare a new schema class, optionally with an ordered list of properties. Strict classes allow only declared properties on their data nodes.",
	}, svc.CreateClass)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_class_properties",
		Description: "List the properties declared on a class, in declaration order. Optionally includes properties inherited from ancestor classes over INSTANCE_OF.",
	}, svc.ListClassProperties)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_data_node",
		Description: "Create a data node of a given class. Properties are validated against the class declarations when the class is strict; a uri can be minted from the class's namespace.",
	}, svc.CreateDataNode)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_data_node",
		Description: "Set fields on an existing data node by internal id. Null values remove the field; blank strings optionally do the same.",
	}, svc.UpdateDataNode)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_nodes",
		Description: "Detach and delete every node matching a label/key/value filter. Refuses an unfiltered delete.",
	}, svc.DeleteNodes)

	return server
}

// RunMCPServer starts an HTTP server exposing the graph MCP tools.
func RunMCPServer(ctx context.Context, svc *GraphService, addr string) error {
	server := NewGraphMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
