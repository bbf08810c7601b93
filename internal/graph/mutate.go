package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/BrainAnnex/neoaccess/internal/cypher"
)

// Link declares one relationship to attach while creating a node. The
// target must already exist and is matched by internal id.
type Link struct {
	InternalID int64
	RelName    string
	// Direction is OUT for (new)-[rel]->(target), IN for the reverse.
	Direction Direction
	// Props optionally decorate the relationship itself.
	Props map[string]any
}

// CreateNode creates one node with the given labels and properties and
// returns its internal id.
func (a *Access) CreateNode(ctx context.Context, labels []string, props map[string]any) (int64, error) {
	propsFragment, params := cypher.ParameterizedProps(props, "n_par_")

	pattern := "n"
	if lf := cypher.PrepareLabels(labels...); lf != "" {
		pattern += " " + lf
	}
	if propsFragment != "" {
		pattern += " " + propsFragment
	}
	q := "CREATE (" + pattern + ") RETURN id(n) AS internal_id"

	stats, err := a.drv.UpdateQuery(ctx, q, params)
	if err != nil {
		return 0, err
	}
	if stats.NodesCreated != 1 || len(stats.ReturnedData) == 0 {
		return 0, fmt.Errorf("%w: expected 1 node created, driver reported %d",
			ErrPartialMutation, stats.NodesCreated)
	}
	return toInt64(stats.ReturnedData[0]["internal_id"])
}

// CreateNodeWithLinks creates (or, with merge, creates-or-reuses) a node
// and attaches one relationship per link, all in a single statement. The
// statement fails as a unit: if any link target does not exist, nothing is
// created and ErrPartialMutation is returned.
//
// The expected effect counts are compared post-hoc against the driver's
// update statistics, which catches silent partial success from a database
// that tolerates MERGE ambiguity.
func (a *Access) CreateNodeWithLinks(ctx context.Context, labels []string, props map[string]any, links []Link, merge bool) (int64, error) {
	for i, l := range links {
		if strings.TrimSpace(l.RelName) == "" {
			return 0, fmt.Errorf("%w: link %d has a blank relationship name", cypher.ErrInvalidSpec, i)
		}
		if l.Direction != DirectionIn && l.Direction != DirectionOut {
			return 0, fmt.Errorf("%w: link %d: got %q", ErrBadDirection, i, l.Direction)
		}
	}

	propsFragment, params := cypher.ParameterizedProps(props, "n_par_")

	var matches, predicates, relClauses []string
	expectedProps := len(props)
	for i, l := range links {
		target := fmt.Sprintf("ex%d", i)
		matches = append(matches, "("+target+")")
		predicates = append(predicates, fmt.Sprintf("id(%s) = %d", target, l.InternalID))

		relFragment, relParams := cypher.ParameterizedProps(l.Props, fmt.Sprintf("link%d_par_", i))
		for k, v := range relParams {
			params[k] = v
		}
		expectedProps += len(l.Props)

		rel := "[:`" + l.RelName + "`"
		if relFragment != "" {
			rel += " " + relFragment
		}
		rel += "]"
		if l.Direction == DirectionOut {
			relClauses = append(relClauses, fmt.Sprintf("MERGE (n)-%s->(%s)", rel, target))
		} else {
			relClauses = append(relClauses, fmt.Sprintf("MERGE (%s)-%s->(n)", target, rel))
		}
	}

	createVerb := "CREATE"
	if merge {
		createVerb = "MERGE"
	}
	nodePattern := "n"
	if lf := cypher.PrepareLabels(labels...); lf != "" {
		nodePattern += " " + lf
	}
	if propsFragment != "" {
		nodePattern += " " + propsFragment
	}

	clauses := []string{}
	if len(matches) > 0 {
		clauses = append(clauses,
			"MATCH "+strings.Join(matches, ", "),
			cypher.CombineWhere(strings.Join(predicates, " AND ")),
		)
	}
	clauses = append(clauses, createVerb+" ("+nodePattern+")")
	clauses = append(clauses, relClauses...)
	clauses = append(clauses, "RETURN id(n) AS internal_id")
	q := joinClauses(clauses...)

	stats, err := a.drv.UpdateQuery(ctx, q, params)
	if err != nil {
		return 0, err
	}
	if len(stats.ReturnedData) == 0 {
		return 0, fmt.Errorf("%w: no node returned; a link target probably does not exist", ErrPartialMutation)
	}
	if stats.RelationshipsCreated != len(links) {
		return 0, fmt.Errorf("%w: expected %d relationships created, driver reported %d",
			ErrPartialMutation, len(links), stats.RelationshipsCreated)
	}
	if !merge {
		if stats.NodesCreated != 1 {
			return 0, fmt.Errorf("%w: expected 1 node created, driver reported %d",
				ErrPartialMutation, stats.NodesCreated)
		}
		if stats.LabelsAdded != len(labels) {
			return 0, fmt.Errorf("%w: expected %d labels added, driver reported %d",
				ErrPartialMutation, len(labels), stats.LabelsAdded)
		}
		if stats.PropertiesSet != expectedProps {
			return 0, fmt.Errorf("%w: expected %d properties set, driver reported %d",
				ErrPartialMutation, expectedProps, stats.PropertiesSet)
		}
	}
	return toInt64(stats.ReturnedData[0]["internal_id"])
}

// SetFields adds, overwrites, or drops properties on every node satisfying
// the match, returning the number of property changes the database counted.
//
// Policy per field value:
//   - nil is always turned into a REMOVE
//   - strings are trimmed of surrounding whitespace first
//   - a blank string becomes a REMOVE when dropBlanks is set, otherwise an
//     explicit empty-string SET
//
// Field names may contain blanks or punctuation: they appear only inside
// back-ticked Cypher text, while the bound parameter tokens are synthetic
// numbered names, so no field name can produce an illegal or colliding
// token.
func (a *Access) SetFields(ctx context.Context, spec cypher.NodeSpec, fields map[string]any, dropBlanks bool) (int, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	m, err := cypher.Compile(spec)
	if err != nil {
		return 0, err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sets, removes []string
	params := m.Params
	for _, k := range keys {
		v := fields[k]
		if s, isString := v.(string); isString {
			v = strings.TrimSpace(s)
		}
		switch {
		case v == nil, v == "" && dropBlanks:
			removes = append(removes, fmt.Sprintf("%s.`%s`", m.Dummy, k))
		default:
			token := fmt.Sprintf("%s_set_%d", m.Dummy, len(sets)+1)
			sets = append(sets, fmt.Sprintf("%s.`%s` = $%s", m.Dummy, k, token))
			params[token] = v
		}
	}

	clauses := []string{"MATCH " + m.NodePattern, cypher.CombineWhere(m.Where)}
	if len(sets) > 0 {
		clauses = append(clauses, "SET "+strings.Join(sets, ", "))
	}
	if len(removes) > 0 {
		clauses = append(clauses, "REMOVE "+strings.Join(removes, ", "))
	}

	stats, err := a.drv.UpdateQuery(ctx, joinClauses(clauses...), params)
	if err != nil {
		return 0, err
	}
	return stats.PropertiesSet, nil
}

// DeleteNodes removes every node satisfying the match along with its
// relationships, returning the number of nodes actually deleted. Zero is a
// valid, non-error outcome.
func (a *Access) DeleteNodes(ctx context.Context, spec cypher.NodeSpec) (int, error) {
	m, err := cypher.Compile(spec)
	if err != nil {
		return 0, err
	}
	q := joinClauses("MATCH "+m.NodePattern, cypher.CombineWhere(m.Where), "DETACH DELETE "+m.Dummy)
	stats, err := a.drv.UpdateQuery(ctx, q, m.Params)
	if err != nil {
		return 0, err
	}
	return stats.NodesDeleted, nil
}
