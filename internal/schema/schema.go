// Package schema maintains a meta-graph of Class, Property, and Link
// declarations on top of an otherwise schema-free property graph, and
// enforces it when data nodes are created or updated.
//
// Classes come in two modes, fixed at creation: strict classes reject
// undeclared properties on their data nodes; lenient classes accept any.
// A class inherits declarations from its ancestors over INSTANCE_OF links,
// which form a DAG (multiple parents allowed, cycles rejected at
// declaration time). The one piece of shared mutable state — the namespaced
// URI counters — is advanced with a single atomic read-modify-write
// statement, so concurrent callers can never mint duplicate URIs.
package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BrainAnnex/neoaccess/internal/cypher"
	"github.com/BrainAnnex/neoaccess/internal/graph"
)

// Reserved meta-graph vocabulary.
const (
	// ClassLabel tags schema Class nodes.
	ClassLabel = "CLASS"
	// PropertyLabel tags schema Property nodes.
	PropertyLabel = "PROPERTY"
	// LinkLabel tags intermediate Link nodes for class relationships that
	// carry their own property declarations.
	LinkLabel = "LINK"
	// AutoincrementLabel tags namespace counter nodes.
	AutoincrementLabel = "SCHEMA_AUTOINCREMENT"

	// ClassMarker is the internal data-node property naming its Class.
	ClassMarker = "_CLASS"

	// InstanceOfRel links a Class to a parent Class it inherits from.
	InstanceOfRel = "INSTANCE_OF"
	// HasPropertyRel links a Class (or Link) to a declared Property.
	HasPropertyRel = "HAS_PROPERTY"
	// HasLinkRel and LinkToRel model a property-carrying class
	// relationship: (from)-[:HAS_LINK]->(:LINK)-[:LINK_TO]->(to).
	HasLinkRel = "HAS_LINK"
	LinkToRel  = "LINK_TO"
	// HasURIGeneratorRel links a Class to the namespace counter minting
	// its data-node URIs.
	HasURIGeneratorRel = "HAS_URI_GENERATOR"
)

// Reserved namespaces, created by InitSchema.
const (
	// ClassNamespace mints schema-internal Class URIs ("schema-1", ...).
	ClassNamespace = "schema_node"
	// ClassURIPrefix is the stored prefix of ClassNamespace.
	ClassURIPrefix = "schema-"
	// DataNamespace is the default URI namespace for data nodes of
	// classes without their own generator.
	DataNamespace = "data_node"
)

// Common errors.
var (
	// ErrInvalidArgument covers malformed caller input: blank required
	// strings, bad counts, missing companion values.
	ErrInvalidArgument = errors.New("schema: invalid argument")

	// ErrSchemaViolation covers everything the schema discipline rejects:
	// name collisions, undeclared properties on strict classes,
	// undeclared relationships, unsafe deletions.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrClassNotFound is returned when an operation needs a Class that
	// does not exist.
	ErrClassNotFound = errors.New("class not found")
)

// Engine enforces the schema. It builds on the graph.Access facade and
// holds no state beyond it; the injected driver is the only dependency.
type Engine struct {
	access *graph.Access
}

// NewEngine creates a schema engine over the given access facade.
func NewEngine(access *graph.Access) *Engine {
	return &Engine{access: access}
}

// Access returns the underlying access facade.
func (e *Engine) Access() *graph.Access {
	return e.access
}

// InitSchema creates the reserved namespaces if they do not exist yet.
// Safe to call repeatedly.
func (e *Engine) InitSchema(ctx context.Context) error {
	for _, ns := range []struct{ name, prefix string }{
		{ClassNamespace, ClassURIPrefix},
		{DataNamespace, ""},
	} {
		exists, err := e.NamespaceExists(ctx, ns.name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := e.CreateNamespace(ctx, ns.name, ns.prefix, ""); err != nil {
			return err
		}
	}
	return nil
}

// ClassInfo is the stored shape of one Class declaration.
type ClassInfo struct {
	Name        string
	URI         string
	Strict      bool
	NoDataNodes bool
	Code        string
}

// ClassOptions tunes CreateClass.
type ClassOptions struct {
	// Strict classes allow only declared Properties on their data nodes.
	Strict bool
	// NoDataNodes marks an abstract class no data node may instantiate.
	NoDataNodes bool
	// Code is an optional short tag consumed by pluggable handlers.
	Code string
}

// IsValidClassName reports whether name is usable as a Class name:
// non-blank after trimming. Uniqueness is checked separately at creation.
func IsValidClassName(name string) bool {
	return strings.TrimSpace(name) != ""
}

// CreateClass declares a new Class and returns its internal id and its
// schema URI, minted from the reserved class namespace. The name must be
// non-blank and not already in use.
func (e *Engine) CreateClass(ctx context.Context, name string, opts ClassOptions) (int64, string, error) {
	name = strings.TrimSpace(name)
	if !IsValidClassName(name) {
		return 0, "", fmt.Errorf("%w: class name must not be blank", ErrInvalidArgument)
	}
	exists, err := e.ClassNameExists(ctx, name)
	if err != nil {
		return 0, "", err
	}
	if exists {
		return 0, "", fmt.Errorf("%w: class %q already exists", ErrSchemaViolation, name)
	}

	uri, err := e.ReserveNextURI(ctx, ClassNamespace, "", "")
	if err != nil {
		return 0, "", err
	}

	id, err := e.access.CreateNode(ctx, []string{ClassLabel}, map[string]any{
		"name":          name,
		"uri":           uri,
		"strict":        opts.Strict,
		"no_data_nodes": opts.NoDataNodes,
		"code":          opts.Code,
	})
	if err != nil {
		return 0, "", err
	}
	return id, uri, nil
}

// ClassNameExists reports whether a Class with the given name is declared.
func (e *Engine) ClassNameExists(ctx context.Context, name string) (bool, error) {
	info, err := e.GetClass(ctx, name)
	if err != nil {
		return false, err
	}
	return info != nil, nil
}

// GetClass returns the Class declaration, or nil if none exists.
func (e *Engine) GetClass(ctx context.Context, name string) (*ClassInfo, error) {
	node, err := e.access.GetSingleNode(ctx, cypher.MatchKey(ClassLabel, "name", name))
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	info := &ClassInfo{Name: name}
	info.URI, _ = node["uri"].(string)
	info.Strict, _ = node["strict"].(bool)
	info.NoDataNodes, _ = node["no_data_nodes"].(bool)
	info.Code, _ = node["code"].(string)
	return info, nil
}

// requireClass fetches a Class or fails with ErrClassNotFound.
func (e *Engine) requireClass(ctx context.Context, name string) (*ClassInfo, error) {
	info, err := e.GetClass(ctx, name)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %q", ErrClassNotFound, name)
	}
	return info, nil
}

// DeleteClass removes a Class declaration together with its Property
// nodes. In safe mode (force=false) the deletion is refused while any
// data node still references the Class; forcing leaves those data nodes
// orphaned, which is tolerated and not auto-cleaned.
func (e *Engine) DeleteClass(ctx context.Context, name string, force bool) error {
	if !force {
		rows, err := e.access.Driver().Query(ctx,
			fmt.Sprintf("MATCH (d) WHERE d.`%s` = $class_name RETURN count(d) AS data_count", ClassMarker),
			map[string]any{"class_name": name})
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			if n, ok := asInt(rows[0]["data_count"]); ok && n > 0 {
				return fmt.Errorf("%w: class %q still has %d data nodes; use force to orphan them",
					ErrSchemaViolation, name, n)
			}
		}
	}

	q := fmt.Sprintf(
		"MATCH (c :`%s` {name: $class_name}) "+
			"OPTIONAL MATCH (c)-[:`%s`]->(p :`%s`) "+
			"DETACH DELETE c, p",
		ClassLabel, HasPropertyRel, PropertyLabel)
	stats, err := e.access.Driver().UpdateQuery(ctx, q, map[string]any{"class_name": name})
	if err != nil {
		return err
	}
	if stats.NodesDeleted == 0 {
		return fmt.Errorf("%w: %q", ErrClassNotFound, name)
	}
	return nil
}

// asInt coerces the numeric shapes drivers return for counts.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
