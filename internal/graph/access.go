package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrainAnnex/neoaccess/internal/cypher"
)

// Access is the CRUD facade over an injected Driver. It compiles match
// specifications into Cypher text, executes them, and post-processes the
// results. Access is stateless apart from the driver handle and is safe for
// concurrent use whenever the driver is.
type Access struct {
	drv Driver
}

// New creates an Access facade around the given driver.
func New(drv Driver) *Access {
	return &Access{drv: drv}
}

// Driver returns the injected driver handle.
func (a *Access) Driver() Driver {
	return a.drv
}

// QueryOptions tunes GetNodes result shaping.
type QueryOptions struct {
	// OrderBy lists property names for the ORDER BY clause, in order.
	OrderBy []string

	// Limit bounds the number of returned rows; zero means no limit.
	Limit int

	// IncludeMetadata switches to the extended query path, attaching
	// internal id, element id, and labels to every returned record.
	IncludeMetadata bool
}

// GetNodes returns the property maps of all nodes satisfying the match
// specification. An empty result is a valid outcome, never an error.
func (a *Access) GetNodes(ctx context.Context, spec cypher.NodeSpec, opts *QueryOptions) ([]map[string]any, error) {
	if opts == nil {
		opts = &QueryOptions{}
	}
	m, err := cypher.Compile(spec)
	if err != nil {
		return nil, err
	}
	q := matchQuery(m, opts)

	if opts.IncludeMetadata {
		records, err := a.drv.QueryExtended(ctx, q, m.Params)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(records))
		for _, r := range records {
			fields := make(map[string]any, len(r.Fields)+3)
			for k, v := range r.Fields {
				fields[k] = v
			}
			fields["internal_id"] = r.InternalID
			fields["element_id"] = r.ElementID
			fields["node_labels"] = r.Labels
			out = append(out, fields)
		}
		return out, nil
	}

	rows, err := a.drv.Query(ctx, q, m.Params)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if fields, ok := row[m.Dummy].(map[string]any); ok {
			out = append(out, fields)
		}
	}
	return out, nil
}

// GetSingleNode returns the property map of the first node satisfying the
// match, or nil if nothing matches. Use GetRecordByKey when the contract
// requires exactly one.
func (a *Access) GetSingleNode(ctx context.Context, spec cypher.NodeSpec) (map[string]any, error) {
	rows, err := a.GetNodes(ctx, spec, &QueryOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// GetSingleField returns one property value from the first matching node.
// A missing node and a node lacking the field are both reported as nil, so
// callers can treat "no data" uniformly.
func (a *Access) GetSingleField(ctx context.Context, spec cypher.NodeSpec, field string) (any, error) {
	node, err := a.GetSingleNode(ctx, spec)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	return node[field], nil
}

// GetRecordByKey returns the unique node with the given label carrying
// key = value. Zero or multiple matches violate the uniqueness contract
// and return ErrNotUnique.
func (a *Access) GetRecordByKey(ctx context.Context, label, key string, value any) (map[string]any, error) {
	rows, err := a.GetNodes(ctx, cypher.NodeSpec{
		Labels: []string{label},
		Key:    key,
		Value:  value,
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("%w: label %q, %s = %v matched %d records",
			ErrNotUnique, label, key, value, len(rows))
	}
	return rows[0], nil
}

// GetNodeInternalID returns the database identity of the unique node
// satisfying the match. Zero or multiple matches return ErrNotUnique.
func (a *Access) GetNodeInternalID(ctx context.Context, spec cypher.NodeSpec) (int64, error) {
	m, err := cypher.Compile(spec)
	if err != nil {
		return 0, err
	}
	q := joinClauses(
		"MATCH "+m.NodePattern,
		cypher.CombineWhere(m.Where),
		fmt.Sprintf("RETURN id(%s) AS internal_id", m.Dummy),
	)
	rows, err := a.drv.Query(ctx, q, m.Params)
	if err != nil {
		return 0, err
	}
	if len(rows) != 1 {
		return 0, fmt.Errorf("%w: match %s resolved %d records", ErrNotUnique, m.NodePattern, len(rows))
	}
	return toInt64(rows[0]["internal_id"])
}

// matchQuery assembles the full read statement for a compiled match.
func matchQuery(m *cypher.CompiledMatch, opts *QueryOptions) string {
	clauses := []string{
		"MATCH " + m.NodePattern,
		cypher.CombineWhere(m.Where),
		"RETURN " + m.Dummy,
	}
	if len(opts.OrderBy) > 0 {
		ordered := make([]string, 0, len(opts.OrderBy))
		for _, f := range opts.OrderBy {
			ordered = append(ordered, fmt.Sprintf("%s.`%s`", m.Dummy, f))
		}
		clauses = append(clauses, "ORDER BY "+strings.Join(ordered, ", "))
	}
	if opts.Limit > 0 {
		clauses = append(clauses, fmt.Sprintf("LIMIT %d", opts.Limit))
	}
	return joinClauses(clauses...)
}

// joinClauses joins non-blank query clauses with single spaces.
func joinClauses(clauses ...string) string {
	kept := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if strings.TrimSpace(c) != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, " ")
}

// toInt64 coerces the numeric shapes drivers return for ids.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("graph: expected a numeric id, got %T", v)
	}
}
