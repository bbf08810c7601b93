package mcptools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/BrainAnnex/neoaccess/internal/cypher"
	"github.com/BrainAnnex/neoaccess/internal/graph"
	"github.com/BrainAnnex/neoaccess/internal/schema"
)

// GraphService holds the schema engine used by the MCP tool handlers.
type GraphService struct {
	engine *schema.Engine
}

// NewGraphService creates a GraphService around the given schema engine.
func NewGraphService(engine *schema.Engine) *GraphService {
	return &GraphService{engine: engine}
}

// nodeSpec translates the wire-level label/key/value filter shared by the
// read and delete tools.
func nodeSpec(labels []string, key, value string) (cypher.NodeSpec, error) {
	spec := cypher.NodeSpec{Labels: labels}
	if key != "" {
		spec.Key = key
		spec.Value = value
	} else if value != "" {
		return spec, fmt.Errorf("value requires key")
	}
	return spec, nil
}

// GetNodes returns the nodes matching a label/key/value filter.
func (s *GraphService) GetNodes(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetNodesInput,
) (*mcp.CallToolResult, GetNodesOutput, error) {
	spec, err := nodeSpec(input.Labels, input.Key, input.Value)
	if err != nil {
		return nil, GetNodesOutput{}, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 25
	}

	nodes, err := s.engine.Access().GetNodes(ctx, spec, &graph.QueryOptions{
		OrderBy:         input.OrderBy,
		Limit:           limit,
		IncludeMetadata: input.IncludeMetadata,
	})
	if err != nil {
		return nil, GetNodesOutput{}, fmt.Errorf("get nodes: %w", err)
	}

	return nil, GetNodesOutput{Nodes: nodes, Total: len(nodes)}, nil
}

// CreateClass declares a new class, optionally with properties.
func (s *GraphService) CreateClass(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateClassInput,
) (*mcp.CallToolResult, CreateClassOutput, error) {
	if input.Name == "" {
		return nil, CreateClassOutput{}, fmt.Errorf("name is required")
	}

	opts := schema.ClassOptions{Strict: input.Strict, NoDataNodes: input.NoDataNodes}
	id, uri, err := s.engine.CreateClassWithProperties(ctx, input.Name, input.Properties, opts)
	if err != nil {
		return nil, CreateClassOutput{}, fmt.Errorf("create class: %w", err)
	}

	return nil, CreateClassOutput{InternalID: id, URI: uri}, nil
}

// ListClassProperties lists the properties declared on a class, optionally
// including inherited ones.
func (s *GraphService) ListClassProperties(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListClassPropertiesInput,
) (*mcp.CallToolResult, ListClassPropertiesOutput, error) {
	if input.Class == "" {
		return nil, ListClassPropertiesOutput{}, fmt.Errorf("class is required")
	}

	props, err := s.engine.GetClassProperties(ctx, input.Class, schema.PropertyListOptions{
		IncludeAncestors: input.IncludeAncestors,
	})
	if err != nil {
		return nil, ListClassPropertiesOutput{}, fmt.Errorf("list class properties: %w", err)
	}

	return nil, ListClassPropertiesOutput{Properties: props}, nil
}

// CreateDataNode creates a schema-validated data node.
func (s *GraphService) CreateDataNode(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateDataNodeInput,
) (*mcp.CallToolResult, CreateDataNodeOutput, error) {
	if input.Class == "" {
		return nil, CreateDataNodeOutput{}, fmt.Errorf("class is required")
	}

	id, err := s.engine.CreateDataNode(ctx, input.Class, input.Properties, schema.DataNodeOptions{
		ExtraLabels:  input.ExtraLabels,
		AssignURI:    input.AssignURI,
		SilentlyDrop: input.SilentlyDrop,
	})
	if err != nil {
		return nil, CreateDataNodeOutput{}, fmt.Errorf("create data node: %w", err)
	}

	return nil, CreateDataNodeOutput{InternalID: id}, nil
}

// UpdateDataNode sets fields on an existing data node.
func (s *GraphService) UpdateDataNode(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateDataNodeInput,
) (*mcp.CallToolResult, UpdateDataNodeOutput, error) {
	// Distinguish "omitted" from internal id 0, which is a real node.
	if input.InternalID == nil {
		return nil, UpdateDataNodeOutput{}, fmt.Errorf("internalId is required")
	}
	if len(input.Fields) == 0 {
		return nil, UpdateDataNodeOutput{}, fmt.Errorf("fields is required")
	}

	count, err := s.engine.UpdateDataNode(ctx,
		cypher.MatchID(*input.InternalID), input.Fields, input.DropBlanks)
	if err != nil {
		return nil, UpdateDataNodeOutput{}, fmt.Errorf("update data node: %w", err)
	}

	return nil, UpdateDataNodeOutput{FieldsChanged: count}, nil
}

// DeleteNodes detaches and deletes every node matching the filter.
func (s *GraphService) DeleteNodes(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteNodesInput,
) (*mcp.CallToolResult, DeleteNodesOutput, error) {
	if len(input.Labels) == 0 && input.Key == "" {
		// An unfiltered delete would wipe the whole database.
		return nil, DeleteNodesOutput{}, fmt.Errorf("labels or key is required")
	}

	spec, err := nodeSpec(input.Labels, input.Key, input.Value)
	if err != nil {
		return nil, DeleteNodesOutput{}, err
	}

	count, err := s.engine.Access().DeleteNodes(ctx, spec)
	if err != nil {
		return nil, DeleteNodesOutput{}, fmt.Errorf("delete nodes: %w", err)
	}

	return nil, DeleteNodesOutput{NodesDeleted: count}, nil
}
