package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrainAnnex/neoaccess/internal/cypher"
)

func TestGetNodes_QueryShape(t *testing.T) {
	drv := NewStubDriver()
	drv.QueryResults = [][]map[string]any{
		{{"n": map[string]any{"color": "white"}}},
	}
	a := New(drv)

	rows, err := a.GetNodes(context.Background(), cypher.NodeSpec{
		Labels:     []string{"Car"},
		Properties: map[string]any{"color": "white"},
	}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "white", rows[0]["color"])

	call := drv.LastCall()
	assert.Equal(t, "MATCH (n :`Car` {`color`: $n_par_1}) RETURN n", call.Cypher)
	assert.Equal(t, map[string]any{"n_par_1": "white"}, call.Params)
}

func TestGetNodes_OrderAndLimit(t *testing.T) {
	drv := NewStubDriver()
	a := New(drv)

	_, err := a.GetNodes(context.Background(), cypher.NodeSpec{Labels: []string{"Car"}}, &QueryOptions{
		OrderBy: []string{"make", "color"},
		Limit:   3,
	})
	require.NoError(t, err)
	assert.Equal(t,
		"MATCH (n :`Car`) RETURN n ORDER BY n.`make`, n.`color` LIMIT 3",
		drv.LastCall().Cypher)
}

func TestGetNodes_EmptyResultIsNotAnError(t *testing.T) {
	a := New(NewStubDriver())
	rows, err := a.GetNodes(context.Background(), cypher.NodeSpec{Labels: []string{"Car"}}, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGetNodes_WithMetadata(t *testing.T) {
	drv := NewStubDriver()
	drv.ExtendedResults = [][]Record{
		{{
			Fields:     map[string]any{"color": "white"},
			InternalID: 42,
			ElementID:  "4:abc:42",
			Labels:     []string{"Car"},
		}},
	}
	a := New(drv)

	rows, err := a.GetNodes(context.Background(), cypher.NodeSpec{Labels: []string{"Car"}},
		&QueryOptions{IncludeMetadata: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(42), rows[0]["internal_id"])
	assert.Equal(t, []string{"Car"}, rows[0]["node_labels"].([]string))
	assert.Equal(t, "white", rows[0]["color"])
}

func TestGetSingleNode_NilWhenMissing(t *testing.T) {
	a := New(NewStubDriver())
	node, err := a.GetSingleNode(context.Background(), cypher.NodeSpec{Labels: []string{"Car"}})
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestGetRecordByKey_Uniqueness(t *testing.T) {
	tests := []struct {
		name    string
		rows    []map[string]any
		wantErr bool
	}{
		{"zero matches", nil, true},
		{"one match", []map[string]any{{"n": map[string]any{"vin": "x1"}}}, false},
		{"two matches", []map[string]any{
			{"n": map[string]any{"vin": "x1"}},
			{"n": map[string]any{"vin": "x2"}},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := NewStubDriver()
			drv.QueryResults = [][]map[string]any{tt.rows}
			a := New(drv)

			rec, err := a.GetRecordByKey(context.Background(), "Car", "vin", "x1")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotUnique)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "x1", rec["vin"])
		})
	}
}

func TestGetNodeInternalID(t *testing.T) {
	drv := NewStubDriver()
	drv.QueryResults = [][]map[string]any{
		{{"internal_id": int64(77)}},
	}
	a := New(drv)

	id, err := a.GetNodeInternalID(context.Background(), cypher.NodeSpec{
		Labels: []string{"Car"},
		Key:    "vin",
		Value:  "x1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)
	assert.Equal(t,
		"MATCH (n :`Car` {`vin`: $n_par_1}) RETURN id(n) AS internal_id",
		drv.LastCall().Cypher)
}

func TestGetNodeInternalID_ByIdentity(t *testing.T) {
	drv := NewStubDriver()
	drv.QueryResults = [][]map[string]any{
		{{"internal_id": int64(123)}},
	}
	a := New(drv)

	_, err := a.GetNodeInternalID(context.Background(), cypher.NodeSpec{InternalID: 123})
	require.NoError(t, err)
	assert.Equal(t,
		"MATCH (n) WHERE (id(n) = 123) RETURN id(n) AS internal_id",
		drv.LastCall().Cypher)
}

func TestDirectionValidate(t *testing.T) {
	assert.NoError(t, DirectionIn.Validate())
	assert.NoError(t, DirectionOut.Validate())
	assert.NoError(t, DirectionBoth.Validate())
	assert.ErrorIs(t, Direction("SIDEWAYS").Validate(), ErrBadDirection)
}
