package cypher

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// CompiledMatch is the rendered (pattern, predicate, parameters) triple
// ready for splicing into a larger query. Built only by Compile; treated
// as immutable by every consumer.
type CompiledMatch struct {
	// NodePattern is the node fragment, e.g. "(n :`Car` {`color`: $n_par_1})".
	NodePattern string

	// Where is the predicate text without the WHERE keyword, possibly "".
	Where string

	// Params binds every $token referenced by NodePattern and Where.
	// Tokens are namespaced by the dummy name ("{dummy}_par_{i}") so two
	// compiled matches with distinct dummies never collide when merged.
	Params map[string]any

	// Dummy is the node variable this match binds.
	Dummy string
}

// PrepareLabels renders a label set as a Cypher fragment: "" for no
// labels, otherwise one ":`label`" clause per label in input order.
// Back-ticks make embedded blanks legal. No deduplication is performed.
func PrepareLabels(labels ...string) string {
	var b strings.Builder
	for _, label := range labels {
		b.WriteString(":`")
		b.WriteString(label)
		b.WriteString("`")
	}
	return b.String()
}

// ParameterizedProps renders a property map as a Cypher inline-properties
// fragment plus its parameter bindings.
//
// An empty or nil map yields ("", empty map). Otherwise the fragment has
// the shape "{`k1`: $prefix1, `k2`: $prefix2}" with tokens numbered 1..N.
// Synthetic numbered tokens are used instead of the property names because
// names may contain blanks or punctuation illegal in token syntax. Keys
// are processed in sorted order so the output is deterministic.
func ParameterizedProps(props map[string]any, prefix string) (string, map[string]any) {
	params := map[string]any{}
	if len(props) == 0 {
		return "", params
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for i, k := range keys {
		token := fmt.Sprintf("%s%d", prefix, i+1)
		parts = append(parts, fmt.Sprintf("`%s`: $%s", k, token))
		params[token] = props[k]
	}
	return "{" + strings.Join(parts, ", ") + "}", params
}

// CombineWhere AND-joins predicate fragments into a single WHERE clause.
//
// Blank and whitespace-only entries are dropped; if none survive the
// result is "". Otherwise the whole combination is wrapped in one set of
// parentheses — "WHERE (a AND b)" — so downstream string concatenation
// cannot break precedence or splice in extra clauses.
func CombineWhere(clauses ...string) string {
	var kept []string
	for _, c := range clauses {
		if t := strings.TrimSpace(c); t != "" {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return "WHERE (" + strings.Join(kept, " AND ") + ")"
}

// Compile turns a NodeSpec into its CompiledMatch.
//
// When InternalID is set the match is by identity alone: the pattern is
// the bare dummy, the WHERE clause is an identity equality test, and the
// parameter map is empty. All other criteria are ignored by documented
// convention, not rejected.
func Compile(spec NodeSpec) (*CompiledMatch, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	dummy := spec.dummy()

	if spec.InternalID != nil {
		return &CompiledMatch{
			NodePattern: "(" + dummy + ")",
			Where:       identityPredicate(dummy, spec.InternalID),
			Params:      map[string]any{},
			Dummy:       dummy,
		}, nil
	}

	prefix := dummy + "_par_"
	propsFragment, params := ParameterizedProps(spec.mergedProperties(), prefix)

	if len(spec.ClauseParams) > 0 {
		reserved := regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `\d+$`)
		for token, value := range spec.ClauseParams {
			if reserved.MatchString(token) {
				return nil, fmt.Errorf("%w: clause parameter %q collides with the reserved %q token space",
					ErrInvalidSpec, token, prefix+"{n}")
			}
			params[token] = value
		}
	}

	pattern := dummy
	if labels := PrepareLabels(spec.Labels...); labels != "" {
		pattern += " " + labels
	}
	if propsFragment != "" {
		pattern += " " + propsFragment
	}

	return &CompiledMatch{
		NodePattern: "(" + pattern + ")",
		Where:       strings.TrimSpace(spec.Clause),
		Params:      params,
		Dummy:       dummy,
	}, nil
}

// identityPredicate renders the identity equality test for an internal id.
// Numeric ids use id(); string ids use elementId() with single-quote
// escaping, since element ids are opaque driver-issued strings.
func identityPredicate(dummy string, id any) string {
	switch v := id.(type) {
	case string:
		return fmt.Sprintf("elementId(%s) = '%s'", dummy, strings.ReplaceAll(v, "'", `\'`))
	default:
		return fmt.Sprintf("id(%s) = %d", dummy, v)
	}
}

// CheckCompatibility reports whether two compiled matches may be combined
// into one query. Each match binds a distinct node variable, so sharing a
// dummy name would double-bind it.
func CheckCompatibility(a, b *CompiledMatch) error {
	if a.Dummy == b.Dummy {
		return fmt.Errorf("%w: both matches use the dummy name %q; combined queries need distinct node variables",
			ErrInvalidSpec, a.Dummy)
	}
	return nil
}

// CombineParams shallow-merges the parameter maps of two compiled matches.
// The caller must have already run CheckCompatibility: with distinct dummy
// names the token spaces cannot overlap, so no collision check is done.
func CombineParams(a, b *CompiledMatch) map[string]any {
	merged := make(map[string]any, len(a.Params)+len(b.Params))
	for k, v := range a.Params {
		merged[k] = v
	}
	for k, v := range b.Params {
		merged[k] = v
	}
	return merged
}
