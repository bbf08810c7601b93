// Package cypher compiles high-level node match specifications into
// parameterized Cypher fragments.
//
// The pipeline is NodeSpec (raw caller intent) -> Compile -> CompiledMatch
// (pattern, WHERE clause, parameter map). Everything in this package is a
// pure text transformation: no database access, no state.
package cypher

import (
	"errors"
	"fmt"
)

// ErrInvalidSpec is wrapped by every validation failure raised while
// constructing or compiling a NodeSpec.
var ErrInvalidSpec = errors.New("invalid match spec")

// DefaultDummy is the node variable used in generated Cypher when the
// caller does not supply one.
const DefaultDummy = "n"

// NodeSpec holds unprocessed match criteria for one node variable.
//
// All fields are optional; the zero value matches every node. A NodeSpec is
// validated by Compile and never mutated afterwards.
type NodeSpec struct {
	// InternalID identifies a node by database identity: a non-negative
	// int/int64 (legacy numeric id) or a string (element id). When set,
	// every other criterion is stored but ignored during compilation —
	// lookup is by identity alone.
	InternalID any

	// Labels to match, in order. Blanks inside a label are legal; they
	// get back-tick-quoted during compilation.
	Labels []string

	// Key/Value express a single equality condition. Both must be given
	// or neither. Key must not collide with a Properties key.
	Key   string
	Value any

	// Properties maps property names to required values.
	Properties map[string]any

	// Clause is a free-form Cypher predicate referencing the dummy name,
	// e.g. "n.age > 21". ClauseParams binds any $tokens it uses; token
	// names matching the reserved "{dummy}_par_{int}" pattern are
	// rejected at compile time.
	Clause       string
	ClauseParams map[string]any

	// Dummy is the node variable placeholder. Defaults to "n".
	Dummy string
}

// Validate checks type and pairing rules without touching the database.
// Whether a specific InternalID exists is the driver's concern, not ours.
func (s NodeSpec) Validate() error {
	switch id := s.InternalID.(type) {
	case nil:
		// not set
	case int:
		if id < 0 {
			return fmt.Errorf("%w: internal id must be non-negative, got %d", ErrInvalidSpec, id)
		}
	case int64:
		if id < 0 {
			return fmt.Errorf("%w: internal id must be non-negative, got %d", ErrInvalidSpec, id)
		}
	case string:
		if id == "" {
			return fmt.Errorf("%w: internal id string must not be blank", ErrInvalidSpec)
		}
	default:
		return fmt.Errorf("%w: internal id must be an int or a string, got %T", ErrInvalidSpec, s.InternalID)
	}

	if s.Key == "" && s.Value != nil {
		return fmt.Errorf("%w: value given without a key", ErrInvalidSpec)
	}
	if s.Key != "" && s.Value == nil {
		return fmt.Errorf("%w: key %q given without a value", ErrInvalidSpec, s.Key)
	}
	if s.Key != "" {
		if _, clash := s.Properties[s.Key]; clash {
			return fmt.Errorf("%w: key %q collides with a properties entry", ErrInvalidSpec, s.Key)
		}
	}
	if s.Clause == "" && len(s.ClauseParams) > 0 {
		return fmt.Errorf("%w: clause parameters given without a clause", ErrInvalidSpec)
	}
	return nil
}

// MatchID builds a spec locating one node by database identity: a
// non-negative int/int64 or an element-id string.
func MatchID(id any) NodeSpec {
	return NodeSpec{InternalID: id}
}

// MatchLabels builds a spec matching every node carrying all the given
// labels.
func MatchLabels(labels ...string) NodeSpec {
	return NodeSpec{Labels: labels}
}

// MatchKey builds a spec for the common label + single-equality lookup.
func MatchKey(label, key string, value any) NodeSpec {
	return NodeSpec{Labels: []string{label}, Key: key, Value: value}
}

// dummy returns the effective node variable.
func (s NodeSpec) dummy() string {
	if s.Dummy == "" {
		return DefaultDummy
	}
	return s.Dummy
}

// mergedProperties folds the Key/Value condition into Properties.
// Validate has already rejected collisions.
func (s NodeSpec) mergedProperties() map[string]any {
	if s.Key == "" && len(s.Properties) == 0 {
		return nil
	}
	merged := make(map[string]any, len(s.Properties)+1)
	for k, v := range s.Properties {
		merged[k] = v
	}
	if s.Key != "" {
		merged[s.Key] = s.Value
	}
	return merged
}
