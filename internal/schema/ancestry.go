package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Ancestor is one entry of a class's ancestor closure: the ancestor's name
// and its shortest INSTANCE_OF distance from the starting class. Depth 0
// is the class itself.
type Ancestor struct {
	Name  string
	Depth int
}

// AncestorClosure returns the class itself plus every ancestor reachable
// over zero or more INSTANCE_OF hops, ordered by increasing depth. The
// INSTANCE_OF graph is a DAG with multiple parents allowed; every
// consumer of inheritance semantics (property permission checks,
// relationship checks, ancestor-aware listings) goes through this one
// query, so the traversal semantics are defined once.
func (e *Engine) AncestorClosure(ctx context.Context, className string) ([]Ancestor, error) {
	q := fmt.Sprintf(
		"MATCH path = (c :`%s` {name: $class_name})-[:`%s`*0..]->(a :`%s`) "+
			"RETURN a.name AS name, min(length(path)) AS depth "+
			"ORDER BY depth, name",
		ClassLabel, InstanceOfRel, ClassLabel)
	rows, err := e.access.Driver().Query(ctx, q, map[string]any{"class_name": className})
	if err != nil {
		return nil, err
	}
	out := make([]Ancestor, 0, len(rows))
	for _, row := range rows {
		name, _ := row["name"].(string)
		depth, _ := asInt(row["depth"])
		out = append(out, Ancestor{Name: name, Depth: depth})
	}
	return out, nil
}

// ancestorNames flattens an ancestor closure to its names.
func ancestorNames(closure []Ancestor) []string {
	names := make([]string, 0, len(closure))
	for _, a := range closure {
		names = append(names, a.Name)
	}
	return names
}

// RelationshipOptions tunes CreateClassRelationship.
type RelationshipOptions struct {
	// LinkProperties declares properties carried by the relationship
	// itself. A non-empty list forces the Link-node form.
	LinkProperties []string
	// UseLinkNode forces the Link-node form even without properties.
	UseLinkNode bool
}

// CreateClassRelationship declares that data nodes of fromClass may be
// connected to data nodes of toClass via relName.
//
// Declaring the identical (from, to, name) triple twice is a caller
// error, not silent idempotence. INSTANCE_OF declarations are additionally
// cycle-checked: an edge whose reverse reachability would close a cycle in
// the ancestry DAG is rejected.
func (e *Engine) CreateClassRelationship(ctx context.Context, fromClass, toClass, relName string, opts RelationshipOptions) error {
	relName = strings.TrimSpace(relName)
	if relName == "" {
		return fmt.Errorf("%w: relationship name must not be blank", ErrInvalidArgument)
	}
	if _, err := e.requireClass(ctx, fromClass); err != nil {
		return err
	}
	if _, err := e.requireClass(ctx, toClass); err != nil {
		return err
	}

	dup, err := e.directRelationshipExists(ctx, fromClass, toClass, relName)
	if err != nil {
		return err
	}
	if dup {
		return fmt.Errorf("%w: relationship %q from %q to %q is already declared",
			ErrSchemaViolation, relName, fromClass, toClass)
	}

	if relName == InstanceOfRel {
		// Adding fromClass-[:INSTANCE_OF]->toClass closes a cycle iff
		// fromClass is already an ancestor of toClass.
		closure, err := e.AncestorClosure(ctx, toClass)
		if err != nil {
			return err
		}
		for _, a := range closure {
			if a.Name == fromClass {
				return fmt.Errorf("%w: INSTANCE_OF from %q to %q would create an ancestry cycle",
					ErrSchemaViolation, fromClass, toClass)
			}
		}
	}

	if len(opts.LinkProperties) > 0 || opts.UseLinkNode {
		return e.createLinkNode(ctx, fromClass, toClass, relName, opts.LinkProperties)
	}

	q := fmt.Sprintf(
		"MATCH (from :`%s` {name: $from_class}), (to :`%s` {name: $to_class}) "+
			"MERGE (from)-[:`%s`]->(to)",
		ClassLabel, ClassLabel, relName)
	stats, err := e.access.Driver().UpdateQuery(ctx, q, map[string]any{
		"from_class": fromClass,
		"to_class":   toClass,
	})
	if err != nil {
		return err
	}
	if stats.RelationshipsCreated != 1 {
		return fmt.Errorf("%w: expected 1 relationship created, driver reported %d",
			ErrSchemaViolation, stats.RelationshipsCreated)
	}
	return nil
}

// createLinkNode declares a property-carrying class relationship as an
// intermediate LINK entity with its own HAS_PROPERTY declarations.
func (e *Engine) createLinkNode(ctx context.Context, fromClass, toClass, relName string, linkProps []string) error {
	for _, p := range linkProps {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: blank link property name", ErrInvalidArgument)
		}
	}

	props := make([]any, 0, len(linkProps))
	for i, p := range linkProps {
		props = append(props, map[string]any{"name": strings.TrimSpace(p), "index": i + 1})
	}

	q := fmt.Sprintf(
		"MATCH (from :`%s` {name: $from_class}), (to :`%s` {name: $to_class}) "+
			"CREATE (from)-[:`%s`]->(l :`%s` {name: $rel_name})-[:`%s`]->(to) "+
			"WITH l UNWIND $link_props AS prop "+
			"CREATE (l)-[:`%s` {index: prop.index}]->(:`%s` {name: prop.name, system: false})",
		ClassLabel, ClassLabel, HasLinkRel, LinkLabel, LinkToRel, HasPropertyRel, PropertyLabel)
	params := map[string]any{
		"from_class": fromClass,
		"to_class":   toClass,
		"rel_name":   relName,
		"link_props": props,
	}
	if len(props) == 0 {
		// UNWIND over an empty list would erase the whole write.
		q = fmt.Sprintf(
			"MATCH (from :`%s` {name: $from_class}), (to :`%s` {name: $to_class}) "+
				"CREATE (from)-[:`%s`]->(l :`%s` {name: $rel_name})-[:`%s`]->(to)",
			ClassLabel, ClassLabel, HasLinkRel, LinkLabel, LinkToRel)
		delete(params, "link_props")
	}

	stats, err := e.access.Driver().UpdateQuery(ctx, q, params)
	if err != nil {
		return err
	}
	if stats.NodesCreated != 1+len(linkProps) {
		return fmt.Errorf("%w: expected %d nodes created for link declaration, driver reported %d",
			ErrSchemaViolation, 1+len(linkProps), stats.NodesCreated)
	}
	return nil
}

// directRelationshipExists checks one (from, to, name) triple without
// ancestry propagation, in both the plain-edge and Link-node forms.
func (e *Engine) directRelationshipExists(ctx context.Context, fromClass, toClass, relName string) (bool, error) {
	return e.relationshipDeclared(ctx, []string{fromClass}, []string{toClass}, relName)
}

// ClassRelationshipExists reports whether relName is declared between the
// two classes, directly or through INSTANCE_OF ancestry on either
// endpoint: zero or more INSTANCE_OF hops on each side, followed by
// exactly one declared edge.
func (e *Engine) ClassRelationshipExists(ctx context.Context, fromClass, toClass, relName string) (bool, error) {
	fromClosure, err := e.AncestorClosure(ctx, fromClass)
	if err != nil {
		return false, err
	}
	toClosure, err := e.AncestorClosure(ctx, toClass)
	if err != nil {
		return false, err
	}
	if len(fromClosure) == 0 || len(toClosure) == 0 {
		return false, nil
	}
	return e.relationshipDeclared(ctx, ancestorNames(fromClosure), ancestorNames(toClosure), relName)
}

// relationshipDeclared checks for a declared edge between any from-name
// and any to-name, counting both the plain-edge and Link-node forms.
func (e *Engine) relationshipDeclared(ctx context.Context, fromNames, toNames []string, relName string) (bool, error) {
	sort.Strings(fromNames)
	sort.Strings(toNames)
	q := fmt.Sprintf(
		"MATCH (from :`%s`), (to :`%s`) "+
			"WHERE (from.name IN $from_names AND to.name IN $to_names) "+
			"OPTIONAL MATCH (from)-[r]->(to) WHERE type(r) = $rel_name "+
			"OPTIONAL MATCH (from)-[:`%s`]->(l :`%s` {name: $rel_name})-[:`%s`]->(to) "+
			"RETURN count(r) + count(l) AS found",
		ClassLabel, ClassLabel, HasLinkRel, LinkLabel, LinkToRel)
	rows, err := e.access.Driver().Query(ctx, q, map[string]any{
		"from_names": fromNames,
		"to_names":   toNames,
		"rel_name":   relName,
	})
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	n, _ := asInt(rows[0]["found"])
	return n > 0, nil
}
