package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareLabels(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   string
	}{
		{"none", nil, ""},
		{"single", []string{"Car"}, ":`Car`"},
		{"multiple in order", []string{"car", "car manufacturer"}, ":`car`:`car manufacturer`"},
		{"no dedup", []string{"x", "x"}, ":`x`:`x`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrepareLabels(tt.labels...))
		})
	}
}

func TestParameterizedProps_Empty(t *testing.T) {
	clause, params := ParameterizedProps(nil, "n_par_")
	assert.Equal(t, "", clause)
	assert.Empty(t, params)

	clause, params = ParameterizedProps(map[string]any{}, "n_par_")
	assert.Equal(t, "", clause)
	assert.Empty(t, params)
}

func TestParameterizedProps_TokenNumbering(t *testing.T) {
	clause, params := ParameterizedProps(map[string]any{
		"color": "white",
		"make":  "Toyota",
	}, "n_par_")

	// Keys are processed in sorted order, tokens numbered from 1.
	assert.Equal(t, "{`color`: $n_par_1, `make`: $n_par_2}", clause)
	assert.Equal(t, map[string]any{
		"n_par_1": "white",
		"n_par_2": "Toyota",
	}, params)
}

func TestParameterizedProps_BlanksInPropertyName(t *testing.T) {
	clause, params := ParameterizedProps(map[string]any{"gross weight": 1200}, "x_par_")
	assert.Equal(t, "{`gross weight`: $x_par_1}", clause)
	assert.Equal(t, map[string]any{"x_par_1": 1200}, params)
}

func TestCombineWhere(t *testing.T) {
	tests := []struct {
		name    string
		clauses []string
		want    string
	}{
		{"empty list", nil, ""},
		{"all blank", []string{"", "   "}, ""},
		{"single", []string{"n.age < 25"}, "WHERE (n.age < 25)"},
		{"blank sub-clause dropped", []string{"n.age<25", ""}, "WHERE (n.age<25)"},
		{"joined with AND", []string{"n.age > 1", "m.color = 'white'"}, "WHERE (n.age > 1 AND m.color = 'white')"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CombineWhere(tt.clauses...))
		})
	}
}

func TestCompile_EmptySpecMatchesEverything(t *testing.T) {
	m, err := Compile(NodeSpec{})
	require.NoError(t, err)
	assert.Equal(t, "(n)", m.NodePattern)
	assert.Equal(t, "", m.Where)
	assert.Empty(t, m.Params)
	assert.Equal(t, "n", m.Dummy)
}

func TestCompile_LabelsAndProperties(t *testing.T) {
	m, err := Compile(NodeSpec{
		Labels:     []string{"Car"},
		Properties: map[string]any{"color": "white"},
	})
	require.NoError(t, err)
	assert.Equal(t, "(n :`Car` {`color`: $n_par_1})", m.NodePattern)
	assert.Equal(t, map[string]any{"n_par_1": "white"}, m.Params)
}

func TestCompile_KeyValueMergedIntoProperties(t *testing.T) {
	m, err := Compile(NodeSpec{
		Key:        "make",
		Value:      "Toyota",
		Properties: map[string]any{"color": "white"},
	})
	require.NoError(t, err)
	assert.Equal(t, "(n {`color`: $n_par_1, `make`: $n_par_2})", m.NodePattern)
	assert.Equal(t, map[string]any{"n_par_1": "white", "n_par_2": "Toyota"}, m.Params)
}

func TestCompile_InternalIDTakesPrecedence(t *testing.T) {
	m, err := Compile(NodeSpec{
		InternalID: 123,
		Labels:     []string{"x"},
		Clause:     "n.age > 1",
	})
	require.NoError(t, err)
	assert.Equal(t, "(n)", m.NodePattern)
	assert.Equal(t, "id(n) = 123", m.Where)
	assert.Empty(t, m.Params)
}

func TestCompile_ElementIDEscaped(t *testing.T) {
	m, err := Compile(NodeSpec{InternalID: "4:ab'cd:7"})
	require.NoError(t, err)
	assert.Equal(t, `elementId(n) = '4:ab\'cd:7'`, m.Where)
}

func TestCompile_FreeClause(t *testing.T) {
	m, err := Compile(NodeSpec{
		Dummy:        "p",
		Clause:       "p.age > $min_age",
		ClauseParams: map[string]any{"min_age": 21},
	})
	require.NoError(t, err)
	assert.Equal(t, "(p)", m.NodePattern)
	assert.Equal(t, "p.age > $min_age", m.Where)
	assert.Equal(t, map[string]any{"min_age": 21}, m.Params)
}

func TestCompile_ReservedClauseParamRejected(t *testing.T) {
	_, err := Compile(NodeSpec{
		Properties:   map[string]any{"color": "white"},
		Clause:       "n.age > $n_par_1",
		ClauseParams: map[string]any{"n_par_1": 30},
	})
	require.ErrorIs(t, err, ErrInvalidSpec)
}

func TestCompile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		spec NodeSpec
	}{
		{"key without value", NodeSpec{Key: "color"}},
		{"value without key", NodeSpec{Value: "white"}},
		{"key collides with properties", NodeSpec{
			Key: "color", Value: "red",
			Properties: map[string]any{"color": "white"},
		}},
		{"negative internal id", NodeSpec{InternalID: -1}},
		{"bad internal id type", NodeSpec{InternalID: 3.14}},
		{"blank string id", NodeSpec{InternalID: ""}},
		{"clause params without clause", NodeSpec{ClauseParams: map[string]any{"x": 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.spec)
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}
}

func TestCheckCompatibility(t *testing.T) {
	from, err := Compile(NodeSpec{Dummy: "from"})
	require.NoError(t, err)
	to, err := Compile(NodeSpec{Dummy: "to"})
	require.NoError(t, err)

	assert.NoError(t, CheckCompatibility(from, to))

	clash, err := Compile(NodeSpec{Dummy: "from"})
	require.NoError(t, err)
	assert.ErrorIs(t, CheckCompatibility(from, clash), ErrInvalidSpec)
}

func TestCombineParams(t *testing.T) {
	from, err := Compile(NodeSpec{Dummy: "from", Properties: map[string]any{"a": 1}})
	require.NoError(t, err)
	to, err := Compile(NodeSpec{Dummy: "to", Properties: map[string]any{"b": 2}})
	require.NoError(t, err)

	merged := CombineParams(from, to)
	assert.Equal(t, map[string]any{"from_par_1": 1, "to_par_1": 2}, merged)
}

// Combining one real predicate with one blank predicate must not leave a
// stray AND behind.
func TestCombinedWhere_BlankSideDropped(t *testing.T) {
	a, err := Compile(NodeSpec{Dummy: "n", Clause: "n.age<25"})
	require.NoError(t, err)
	b, err := Compile(NodeSpec{Dummy: "m"})
	require.NoError(t, err)

	require.NoError(t, CheckCompatibility(a, b))
	assert.Equal(t, "WHERE (n.age<25)", CombineWhere(a.Where, b.Where))
}

func TestMatchConstructors(t *testing.T) {
	m, err := Compile(MatchID(123))
	require.NoError(t, err)
	assert.Equal(t, "id(n) = 123", m.Where)

	m, err = Compile(MatchLabels("Car", "Vehicle"))
	require.NoError(t, err)
	assert.Equal(t, "(n :`Car`:`Vehicle`)", m.NodePattern)

	m, err = Compile(MatchKey("Car", "color", "white"))
	require.NoError(t, err)
	assert.Equal(t, "(n :`Car` {`color`: $n_par_1})", m.NodePattern)
	assert.Equal(t, map[string]any{"n_par_1": "white"}, m.Params)
}
