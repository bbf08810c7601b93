package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// SortOrder controls ancestor-aware property listing: properties declared
// closer to the class first (ascending path length) or furthest first.
// This is presentation ordering only — property names are assumed unique
// across the ancestry chain of any concrete data node, so ordering never
// resolves conflicts.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// PropertyListOptions tunes GetClassProperties.
type PropertyListOptions struct {
	// IncludeAncestors extends the listing over the INSTANCE_OF closure.
	IncludeAncestors bool
	// Sort orders ancestor-aware listings by inheritance-path length.
	// Ignored unless IncludeAncestors is set. Defaults to SortAsc.
	Sort SortOrder
	// IncludeSystem keeps properties flagged system=true, which default
	// listings exclude.
	IncludeSystem bool
}

// AddProperties declares new Properties on an existing Class, appending
// to its declaration order. Returns the number declared.
func (e *Engine) AddProperties(ctx context.Context, className string, propNames []string) (int, error) {
	if len(propNames) == 0 {
		return 0, nil
	}
	cleaned := make([]string, 0, len(propNames))
	seen := map[string]bool{}
	for _, p := range propNames {
		p = strings.TrimSpace(p)
		if p == "" {
			return 0, fmt.Errorf("%w: blank property name", ErrInvalidArgument)
		}
		if seen[p] {
			return 0, fmt.Errorf("%w: duplicate property name %q", ErrInvalidArgument, p)
		}
		seen[p] = true
		cleaned = append(cleaned, p)
	}
	if _, err := e.requireClass(ctx, className); err != nil {
		return 0, err
	}

	declared, err := e.GetClassProperties(ctx, className, PropertyListOptions{IncludeSystem: true})
	if err != nil {
		return 0, err
	}
	for _, existing := range declared {
		if seen[existing] {
			return 0, fmt.Errorf("%w: property %q is already declared on class %q",
				ErrSchemaViolation, existing, className)
		}
	}

	rows := make([]any, 0, len(cleaned))
	for i, p := range cleaned {
		rows = append(rows, map[string]any{"name": p, "index": len(declared) + i + 1})
	}
	q := fmt.Sprintf(
		"MATCH (c :`%s` {name: $class_name}) "+
			"UNWIND $props AS prop "+
			"CREATE (c)-[:`%s` {index: prop.index}]->(:`%s` {name: prop.name, system: false})",
		ClassLabel, HasPropertyRel, PropertyLabel)
	stats, err := e.access.Driver().UpdateQuery(ctx, q, map[string]any{
		"class_name": className,
		"props":      rows,
	})
	if err != nil {
		return 0, err
	}
	if stats.NodesCreated != len(cleaned) {
		return 0, fmt.Errorf("%w: expected %d properties declared, driver reported %d",
			ErrSchemaViolation, len(cleaned), stats.NodesCreated)
	}
	return len(cleaned), nil
}

// CreateClassWithProperties declares a Class and its Properties in one
// call. Used heavily by plugin bootstrap code.
func (e *Engine) CreateClassWithProperties(ctx context.Context, name string, propNames []string, opts ClassOptions) (int64, string, error) {
	id, uri, err := e.CreateClass(ctx, name, opts)
	if err != nil {
		return 0, "", err
	}
	if _, err := e.AddProperties(ctx, name, propNames); err != nil {
		return 0, "", err
	}
	return id, uri, nil
}

// SetPropertyAttribute sets one attribute on a declared Property, e.g. a
// dtype tag or the system flag.
func (e *Engine) SetPropertyAttribute(ctx context.Context, className, propName, attribute string, value any) error {
	if strings.TrimSpace(attribute) == "" {
		return fmt.Errorf("%w: attribute name must not be blank", ErrInvalidArgument)
	}
	q := fmt.Sprintf(
		"MATCH (c :`%s` {name: $class_name})-[:`%s`]->(p :`%s` {name: $prop_name}) "+
			"SET p.`%s` = $value",
		ClassLabel, HasPropertyRel, PropertyLabel, attribute)
	stats, err := e.access.Driver().UpdateQuery(ctx, q, map[string]any{
		"class_name": className,
		"prop_name":  propName,
		"value":      value,
	})
	if err != nil {
		return err
	}
	if stats.PropertiesSet == 0 {
		return fmt.Errorf("%w: property %q is not declared on class %q",
			ErrSchemaViolation, propName, className)
	}
	return nil
}

// GetClassProperties lists the Property names declared on a Class, in
// declaration order. With IncludeAncestors the listing extends over the
// full INSTANCE_OF closure, ordered by inheritance-path length per the
// Sort option (ties by declaration order).
func (e *Engine) GetClassProperties(ctx context.Context, className string, opts PropertyListOptions) ([]string, error) {
	if !opts.IncludeAncestors {
		return e.ownProperties(ctx, []string{className}, opts.IncludeSystem, nil, SortAsc)
	}
	closure, err := e.AncestorClosure(ctx, className)
	if err != nil {
		return nil, err
	}
	depths := make(map[string]int, len(closure))
	for _, a := range closure {
		depths[a.Name] = a.Depth
	}
	sortOrder := opts.Sort
	if sortOrder == "" {
		sortOrder = SortAsc
	}
	return e.ownProperties(ctx, ancestorNames(closure), opts.IncludeSystem, depths, sortOrder)
}

// ownProperties fetches the property declarations of the named classes
// and orders them by (depth, declaration index).
func (e *Engine) ownProperties(ctx context.Context, classNames []string, includeSystem bool, depths map[string]int, sortOrder SortOrder) ([]string, error) {
	systemFilter := ""
	if !includeSystem {
		systemFilter = "AND NOT coalesce(p.system, false) "
	}
	q := fmt.Sprintf(
		"MATCH (c :`%s`)-[r :`%s`]->(p :`%s`) "+
			"WHERE (c.name IN $class_names %s) "+
			"RETURN c.name AS class_name, p.name AS prop_name, r.index AS declaration_index",
		ClassLabel, HasPropertyRel, PropertyLabel, systemFilter)
	rows, err := e.access.Driver().Query(ctx, q, map[string]any{"class_names": classNames})
	if err != nil {
		return nil, err
	}

	type decl struct {
		name  string
		depth int
		index int
	}
	decls := make([]decl, 0, len(rows))
	for _, row := range rows {
		d := decl{}
		d.name, _ = row["prop_name"].(string)
		d.index, _ = asInt(row["declaration_index"])
		if depths != nil {
			owner, _ := row["class_name"].(string)
			d.depth = depths[owner]
		}
		decls = append(decls, d)
	}
	sort.SliceStable(decls, func(i, j int) bool {
		if decls[i].depth != decls[j].depth {
			if sortOrder == SortDesc {
				return decls[i].depth > decls[j].depth
			}
			return decls[i].depth < decls[j].depth
		}
		return decls[i].index < decls[j].index
	})

	names := make([]string, 0, len(decls))
	for _, d := range decls {
		names = append(names, d.name)
	}
	return names, nil
}

// IsPropertyAllowed reports whether a data node of the given Class may
// carry the property: always true on a lenient Class, and true on a
// strict Class when the property is declared on the Class or any of its
// INSTANCE_OF ancestors.
func (e *Engine) IsPropertyAllowed(ctx context.Context, propName, className string) (bool, error) {
	info, err := e.requireClass(ctx, className)
	if err != nil {
		return false, err
	}
	if !info.Strict {
		return true, nil
	}
	declared, err := e.GetClassProperties(ctx, className, PropertyListOptions{
		IncludeAncestors: true,
		IncludeSystem:    true,
	})
	if err != nil {
		return false, err
	}
	for _, p := range declared {
		if p == propName {
			return true, nil
		}
	}
	return false, nil
}

// AllowableProps filters a requested property map against a Class's
// declarations. A lenient Class passes the input through unchanged. A
// strict Class drops every undeclared key — silently when silentlyDrop is
// set, otherwise with an error naming every offender.
func (e *Engine) AllowableProps(ctx context.Context, className string, requested map[string]any, silentlyDrop bool) (map[string]any, error) {
	info, err := e.requireClass(ctx, className)
	if err != nil {
		return nil, err
	}
	if !info.Strict || len(requested) == 0 {
		return requested, nil
	}
	declared, err := e.GetClassProperties(ctx, className, PropertyListOptions{
		IncludeAncestors: true,
		IncludeSystem:    true,
	})
	if err != nil {
		return nil, err
	}
	filtered, offenders := filterProps(requested, declared)
	if len(offenders) > 0 && !silentlyDrop {
		return nil, fmt.Errorf("%w: properties not declared on strict class %q: %s",
			ErrSchemaViolation, className, strings.Join(offenders, ", "))
	}
	return filtered, nil
}

// filterProps splits a requested property map into the allowed subset and
// the sorted list of disallowed keys.
func filterProps(requested map[string]any, declared []string) (map[string]any, []string) {
	allowed := make(map[string]bool, len(declared))
	for _, d := range declared {
		allowed[d] = true
	}
	filtered := make(map[string]any, len(requested))
	var offenders []string
	for k, v := range requested {
		if allowed[k] {
			filtered[k] = v
		} else {
			offenders = append(offenders, k)
		}
	}
	sort.Strings(offenders)
	return filtered, offenders
}
