package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrainAnnex/neoaccess/internal/cypher"
	"github.com/BrainAnnex/neoaccess/internal/graph"
)

// DataNodeOptions tunes CreateDataNode.
type DataNodeOptions struct {
	// ExtraLabels are applied after the class-name label. Each is trimmed;
	// duplicates are dropped keeping first-occurrence order.
	ExtraLabels []string
	// URI, when non-blank, is stored verbatim on the new node.
	URI string
	// AssignURI mints a URI from the class's namespace (or the shared data
	// namespace when the class has no generator of its own). Ignored when
	// URI is set explicitly.
	AssignURI bool
	// SilentlyDrop filters undeclared properties out instead of erroring
	// when the class is strict.
	SilentlyDrop bool
	// Links connects the new node to existing nodes at creation time, as a
	// single composite statement.
	Links []graph.Link
}

// CreateDataNode creates a data node of the given Class: the class name
// becomes its first label, the class marker property is stamped, and on a
// strict Class the properties are filtered through the declarations.
func (e *Engine) CreateDataNode(ctx context.Context, className string, props map[string]any, opts DataNodeOptions) (int64, error) {
	info, err := e.requireClass(ctx, className)
	if err != nil {
		return 0, err
	}
	if info.NoDataNodes {
		return 0, fmt.Errorf("%w: class %q does not allow data nodes", ErrSchemaViolation, className)
	}

	allowed, err := e.AllowableProps(ctx, className, props, opts.SilentlyDrop)
	if err != nil {
		return 0, err
	}

	stored := make(map[string]any, len(allowed)+2)
	for k, v := range allowed {
		stored[k] = v
	}
	stored[ClassMarker] = info.Name

	switch {
	case opts.URI != "":
		stored["uri"] = opts.URI
	case opts.AssignURI:
		ns, err := e.classNamespace(ctx, className)
		if err != nil {
			return 0, err
		}
		uri, err := e.ReserveNextURI(ctx, ns, "", "")
		if err != nil {
			return 0, err
		}
		stored["uri"] = uri
	}

	labels := normalizeLabels(info.Name, opts.ExtraLabels)
	if len(opts.Links) > 0 {
		return e.access.CreateNodeWithLinks(ctx, labels, stored, opts.Links, false)
	}
	return e.access.CreateNode(ctx, labels, stored)
}

// UpdateDataNode sets fields on an existing data node. No class
// re-validation happens on update; the class marker itself is not a
// settable field through this path.
func (e *Engine) UpdateDataNode(ctx context.Context, spec cypher.NodeSpec, fields map[string]any, dropBlanks bool) (int, error) {
	for k := range fields {
		if k == ClassMarker {
			return 0, fmt.Errorf("%w: field %q cannot be set directly", ErrInvalidArgument, ClassMarker)
		}
	}
	return e.access.SetFields(ctx, spec, fields, dropBlanks)
}

// AddDataNodeMerge creates a data node of the given Class unless one with
// exactly the given property set already exists, in which case that node
// is reused. Returns the node's internal id and whether it was created by
// this call.
func (e *Engine) AddDataNodeMerge(ctx context.Context, className string, props map[string]any) (int64, bool, error) {
	info, err := e.requireClass(ctx, className)
	if err != nil {
		return 0, false, err
	}
	if info.NoDataNodes {
		return 0, false, fmt.Errorf("%w: class %q does not allow data nodes", ErrSchemaViolation, className)
	}
	if len(props) == 0 {
		return 0, false, fmt.Errorf("%w: merge requires at least one property", ErrInvalidArgument)
	}
	allowed, err := e.AllowableProps(ctx, className, props, false)
	if err != nil {
		return 0, false, err
	}

	merged := make(map[string]any, len(allowed)+1)
	for k, v := range allowed {
		merged[k] = v
	}
	merged[ClassMarker] = info.Name

	pattern, params := cypher.ParameterizedProps(merged, "n_par_")
	q := fmt.Sprintf("MERGE (n :`%s` %s) RETURN id(n) AS internal_id", info.Name, pattern)
	stats, err := e.access.Driver().UpdateQuery(ctx, q, params)
	if err != nil {
		return 0, false, err
	}
	if len(stats.ReturnedData) == 0 {
		return 0, false, fmt.Errorf("schema: merge on class %q returned no node", className)
	}
	id, ok := asInt(stats.ReturnedData[0]["internal_id"])
	if !ok {
		return 0, false, fmt.Errorf("schema: merge on class %q returned non-integer id %v",
			className, stats.ReturnedData[0]["internal_id"])
	}
	return int64(id), stats.NodesCreated > 0, nil
}

// DeleteDataNode detaches and deletes one data node. Missing nodes are an
// error here, unlike the bulk Access.DeleteNodes.
func (e *Engine) DeleteDataNode(ctx context.Context, spec cypher.NodeSpec) error {
	count, err := e.access.DeleteNodes(ctx, spec)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: no data node matched for deletion", ErrInvalidArgument)
	}
	return nil
}

// SetClassNamespace dedicates an autoincrement namespace to a Class, so
// that data nodes of that class mint their URIs from it. The namespace is
// created if it does not exist yet.
func (e *Engine) SetClassNamespace(ctx context.Context, className, namespace, prefix, suffix string) error {
	if _, err := e.requireClass(ctx, className); err != nil {
		return err
	}
	exists, err := e.NamespaceExists(ctx, namespace)
	if err != nil {
		return err
	}
	if !exists {
		if err := e.CreateNamespace(ctx, namespace, prefix, suffix); err != nil {
			return err
		}
	}
	q := fmt.Sprintf(
		"MATCH (c :`%s` {name: $class_name}), (n :`%s` {namespace: $namespace}) "+
			"MERGE (c)-[:`%s`]->(n)",
		ClassLabel, AutoincrementLabel, HasURIGeneratorRel)
	_, err = e.access.Driver().UpdateQuery(ctx, q, map[string]any{
		"class_name": className,
		"namespace":  strings.TrimSpace(namespace),
	})
	return err
}

// classNamespace resolves the namespace a class mints URIs from: its own
// generator when one is attached, otherwise the shared data namespace.
func (e *Engine) classNamespace(ctx context.Context, className string) (string, error) {
	q := fmt.Sprintf(
		"MATCH (c :`%s` {name: $class_name})-[:`%s`]->(n :`%s`) RETURN n.namespace AS namespace",
		ClassLabel, HasURIGeneratorRel, AutoincrementLabel)
	rows, err := e.access.Driver().Query(ctx, q, map[string]any{"class_name": className})
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return DataNamespace, nil
	}
	ns, _ := rows[0]["namespace"].(string)
	return ns, nil
}

// normalizeLabels builds a data node's label set: the class name first,
// then each extra label trimmed, skipping blanks and duplicates while
// keeping first-occurrence order.
func normalizeLabels(className string, extra []string) []string {
	labels := []string{className}
	seen := map[string]bool{className: true}
	for _, l := range extra {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		labels = append(labels, l)
	}
	return labels
}
