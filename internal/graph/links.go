package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrainAnnex/neoaccess/internal/cypher"
)

// defaultPairDummies fills in the conventional "from"/"to" dummy names for
// a pair of match specs, so the two sides bind distinct node variables.
func defaultPairDummies(from, to cypher.NodeSpec) (cypher.NodeSpec, cypher.NodeSpec) {
	if from.Dummy == "" {
		from.Dummy = "from"
	}
	if to.Dummy == "" {
		to.Dummy = "to"
	}
	return from, to
}

// compilePair compiles a from/to spec pair and verifies the two sides can
// share one query.
func compilePair(from, to cypher.NodeSpec) (*cypher.CompiledMatch, *cypher.CompiledMatch, error) {
	from, to = defaultPairDummies(from, to)
	mf, err := cypher.Compile(from)
	if err != nil {
		return nil, nil, err
	}
	mt, err := cypher.Compile(to)
	if err != nil {
		return nil, nil, err
	}
	if err := cypher.CheckCompatibility(mf, mt); err != nil {
		return nil, nil, err
	}
	return mf, mt, nil
}

// AddLinks merges one relationship of the given name from every node
// matching from to every node matching to, returning the number of
// relationships actually created. Already-existing links are left alone
// and not counted.
func (a *Access) AddLinks(ctx context.Context, from, to cypher.NodeSpec, relName string) (int, error) {
	if strings.TrimSpace(relName) == "" {
		return 0, fmt.Errorf("%w: blank relationship name", cypher.ErrInvalidSpec)
	}
	mf, mt, err := compilePair(from, to)
	if err != nil {
		return 0, err
	}
	q := joinClauses(
		fmt.Sprintf("MATCH %s, %s", mf.NodePattern, mt.NodePattern),
		cypher.CombineWhere(mf.Where, mt.Where),
		fmt.Sprintf("MERGE (%s)-[:`%s`]->(%s)", mf.Dummy, relName, mt.Dummy),
	)
	stats, err := a.drv.UpdateQuery(ctx, q, cypher.CombineParams(mf, mt))
	if err != nil {
		return 0, err
	}
	return stats.RelationshipsCreated, nil
}

// RemoveLinks deletes every relationship of the given name between the
// matched pairs, returning the number deleted. Zero is not an error.
func (a *Access) RemoveLinks(ctx context.Context, from, to cypher.NodeSpec, relName string) (int, error) {
	if strings.TrimSpace(relName) == "" {
		return 0, fmt.Errorf("%w: blank relationship name", cypher.ErrInvalidSpec)
	}
	mf, mt, err := compilePair(from, to)
	if err != nil {
		return 0, err
	}
	q := joinClauses(
		fmt.Sprintf("MATCH (%s)-[r :`%s`]->(%s)", patternInterior(mf), relName, patternInterior(mt)),
		cypher.CombineWhere(mf.Where, mt.Where),
		"DELETE r",
	)
	stats, err := a.drv.UpdateQuery(ctx, q, cypher.CombineParams(mf, mt))
	if err != nil {
		return 0, err
	}
	return stats.RelationshipsDeleted, nil
}

// NumberOfLinks counts the relationships of the given name between the
// matched pairs.
func (a *Access) NumberOfLinks(ctx context.Context, from, to cypher.NodeSpec, relName string) (int, error) {
	if strings.TrimSpace(relName) == "" {
		return 0, fmt.Errorf("%w: blank relationship name", cypher.ErrInvalidSpec)
	}
	mf, mt, err := compilePair(from, to)
	if err != nil {
		return 0, err
	}
	q := joinClauses(
		fmt.Sprintf("MATCH (%s)-[r :`%s`]->(%s)", patternInterior(mf), relName, patternInterior(mt)),
		cypher.CombineWhere(mf.Where, mt.Where),
		"RETURN count(r) AS link_count",
	)
	rows, err := a.drv.Query(ctx, q, cypher.CombineParams(mf, mt))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := toInt64(rows[0]["link_count"])
	return int(n), err
}

// LinksExist reports whether at least one relationship of the given name
// exists between the matched pairs.
func (a *Access) LinksExist(ctx context.Context, from, to cypher.NodeSpec, relName string) (bool, error) {
	n, err := a.NumberOfLinks(ctx, from, to, relName)
	return n > 0, err
}

// FollowLinks returns the property maps of the neighbors reached by one
// hop over the named relationship. An empty result means no neighbors, not
// an error; only a malformed direction is rejected.
func (a *Access) FollowLinks(ctx context.Context, spec cypher.NodeSpec, relName string, dir Direction, neighborLabels []string) ([]map[string]any, error) {
	if err := dir.Validate(); err != nil {
		return nil, err
	}
	m, err := cypher.Compile(spec)
	if err != nil {
		return nil, err
	}
	if m.Dummy == "nb" {
		return nil, fmt.Errorf("%w: dummy name \"nb\" is reserved for the neighbor side", cypher.ErrInvalidSpec)
	}

	neighbor := "nb"
	if lf := cypher.PrepareLabels(neighborLabels...); lf != "" {
		neighbor += " " + lf
	}
	q := joinClauses(
		fmt.Sprintf("MATCH %s%s(%s)", m.NodePattern, arrow(relName, dir, 0), neighbor),
		cypher.CombineWhere(m.Where),
		"RETURN DISTINCT nb",
	)
	rows, err := a.drv.Query(ctx, q, m.Params)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if fields, ok := row["nb"].(map[string]any); ok {
			out = append(out, fields)
		}
	}
	return out, nil
}

// GetSiblings returns the nodes that share a relationship endpoint with
// the matched node: with direction OUT, all other nodes pointing at the
// same target; with IN, all other nodes pointed at by the same source.
func (a *Access) GetSiblings(ctx context.Context, spec cypher.NodeSpec, relName string, dir Direction) ([]map[string]any, error) {
	if dir != DirectionIn && dir != DirectionOut {
		return nil, fmt.Errorf("%w: siblings need IN or OUT, got %q", ErrBadDirection, dir)
	}
	m, err := cypher.Compile(spec)
	if err != nil {
		return nil, err
	}

	var hop string
	if dir == DirectionOut {
		hop = fmt.Sprintf("%s-[:`%s`]->(shared)<-[:`%s`]-(sib)", m.NodePattern, relName, relName)
	} else {
		hop = fmt.Sprintf("%s<-[:`%s`]-(shared)-[:`%s`]->(sib)", m.NodePattern, relName, relName)
	}
	q := joinClauses(
		"MATCH "+hop,
		cypher.CombineWhere(m.Where, fmt.Sprintf("sib <> %s", m.Dummy)),
		"RETURN DISTINCT sib",
	)
	rows, err := a.drv.Query(ctx, q, m.Params)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if fields, ok := row["sib"].(map[string]any); ok {
			out = append(out, fields)
		}
	}
	return out, nil
}

// ExploreNeighborhood returns the distinct nodes reachable from the match
// within maxHops relationship hops of any type, in the given direction.
func (a *Access) ExploreNeighborhood(ctx context.Context, spec cypher.NodeSpec, dir Direction, maxHops int) ([]map[string]any, error) {
	if err := dir.Validate(); err != nil {
		return nil, err
	}
	if maxHops <= 0 {
		maxHops = 1
	}
	m, err := cypher.Compile(spec)
	if err != nil {
		return nil, err
	}
	q := joinClauses(
		fmt.Sprintf("MATCH %s%s(nb)", m.NodePattern, arrow("", dir, maxHops)),
		cypher.CombineWhere(m.Where),
		"RETURN DISTINCT nb",
	)
	rows, err := a.drv.Query(ctx, q, m.Params)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if fields, ok := row["nb"].(map[string]any); ok {
			out = append(out, fields)
		}
	}
	return out, nil
}

// arrow renders the relationship fragment between two node patterns.
// relName may be blank (any type); maxHops > 0 adds a variable-length
// bound.
func arrow(relName string, dir Direction, maxHops int) string {
	interior := ""
	if relName != "" {
		interior = ":`" + relName + "`"
	}
	if maxHops > 1 {
		interior += fmt.Sprintf("*1..%d", maxHops)
	}
	body := "-[" + interior + "]-"
	switch dir {
	case DirectionOut:
		return body + ">"
	case DirectionIn:
		return "<" + body
	default:
		return body
	}
}

// patternInterior strips the surrounding parentheses from a compiled node
// pattern so it can be embedded in a longer path expression.
func patternInterior(m *cypher.CompiledMatch) string {
	return strings.TrimSuffix(strings.TrimPrefix(m.NodePattern, "("), ")")
}
