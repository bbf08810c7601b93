package mcptools

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// GetNodesInput is the input for the get_nodes MCP tool.
type GetNodesInput struct {
	Labels          []string `json:"labels,omitempty" jsonschema:"node labels to match (all must be present)"`
	Key             string   `json:"key,omitempty" jsonschema:"property name to filter on (requires value)"`
	Value           string   `json:"value,omitempty" jsonschema:"property value the key must equal"`
	OrderBy         []string `json:"orderBy,omitempty" jsonschema:"property names to sort the results by"`
	Limit           int      `json:"limit,omitempty" jsonschema:"maximum number of results (default: 25)"`
	IncludeMetadata bool     `json:"includeMetadata,omitempty" jsonschema:"attach internal id, element id and labels to every record"`
}

// GetNodesOutput is the result of the get_nodes MCP tool.
type GetNodesOutput struct {
	Nodes []map[string]any `json:"nodes"`
	Total int              `json:"total"`
}

// CreateClassInput is the input for the create_class MCP tool.
type CreateClassInput struct {
	Name        string   `json:"name" jsonschema:"name of the new class (must be unique)"`
	Strict      bool     `json:"strict,omitempty" jsonschema:"strict classes allow only declared properties on their data nodes"`
	NoDataNodes bool     `json:"noDataNodes,omitempty" jsonschema:"abstract class no data node may instantiate"`
	Properties  []string `json:"properties,omitempty" jsonschema:"property names to declare on the class, in order"`
}

// CreateClassOutput is the result of the create_class MCP tool.
type CreateClassOutput struct {
	InternalID int64  `json:"internalId"`
	URI        string `json:"uri"`
}

// ListClassPropertiesInput is the input for the list_class_properties MCP tool.
type ListClassPropertiesInput struct {
	Class            string `json:"class" jsonschema:"name of the class to list properties for"`
	IncludeAncestors bool   `json:"includeAncestors,omitempty" jsonschema:"include properties inherited over INSTANCE_OF ancestry"`
}

// ListClassPropertiesOutput is the result of the list_class_properties MCP tool.
type ListClassPropertiesOutput struct {
	Properties []string `json:"properties"`
}

// CreateDataNodeInput is the input for the create_data_node MCP tool.
type CreateDataNodeInput struct {
	Class        string         `json:"class" jsonschema:"name of the class the new data node belongs to"`
	Properties   map[string]any `json:"properties,omitempty" jsonschema:"properties to store on the node"`
	ExtraLabels  []string       `json:"extraLabels,omitempty" jsonschema:"additional labels beyond the class name"`
	AssignURI    bool           `json:"assignUri,omitempty" jsonschema:"mint a uri for the node from the class's namespace"`
	SilentlyDrop bool           `json:"silentlyDrop,omitempty" jsonschema:"drop undeclared properties instead of failing on a strict class"`
}

// CreateDataNodeOutput is the result of the create_data_node MCP tool.
type CreateDataNodeOutput struct {
	InternalID int64 `json:"internalId"`
}

// UpdateDataNodeInput is the input for the update_data_node MCP tool.
type UpdateDataNodeInput struct {
	InternalID *int64         `json:"internalId" jsonschema:"internal id of the data node to update"`
	Fields     map[string]any `json:"fields" jsonschema:"fields to set; null values are removed from the node"`
	DropBlanks bool           `json:"dropBlanks,omitempty" jsonschema:"treat blank strings as removals"`
}

// UpdateDataNodeOutput is the result of the update_data_node MCP tool.
type UpdateDataNodeOutput struct {
	FieldsChanged int `json:"fieldsChanged"`
}

// DeleteNodesInput is the input for the delete_nodes MCP tool.
type DeleteNodesInput struct {
	Labels []string `json:"labels,omitempty" jsonschema:"node labels to match (all must be present)"`
	Key    string   `json:"key,omitempty" jsonschema:"property name to filter on (requires value)"`
	Value  string   `json:"value,omitempty" jsonschema:"property value the key must equal"`
}

// DeleteNodesOutput is the result of the delete_nodes MCP tool.
type DeleteNodesOutput struct {
	NodesDeleted int `json:"nodesDeleted"`
}
