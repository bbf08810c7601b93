package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrainAnnex/neoaccess/internal/graph"
)

func newTestEngine() (*Engine, *graph.StubDriver) {
	drv := graph.NewStubDriver()
	return NewEngine(graph.New(drv)), drv
}

// classRow scripts one Class node the way the read path returns it:
// keyed under the node variable "n".
func classRow(name string, strict bool) []map[string]any {
	return []map[string]any{{"n": map[string]any{
		"name":          name,
		"uri":           "schema-1",
		"strict":        strict,
		"no_data_nodes": false,
		"code":          "",
	}}}
}

func TestCreateClass(t *testing.T) {
	e, drv := newTestEngine()
	drv.QueryResults = [][]map[string]any{
		nil, // name lookup: no collision
	}
	drv.UpdateResults = []graph.UpdateStats{
		{ // autoincrement advance
			PropertiesSet: 1,
			ReturnedData: []map[string]any{
				{"start_value": int64(7), "prefix": "schema-", "suffix": ""},
			},
		},
		{ // class node create
			NodesCreated:  1,
			LabelsAdded:   1,
			PropertiesSet: 5,
			ReturnedData:  []map[string]any{{"internal_id": int64(88)}},
		},
	}

	id, uri, err := e.CreateClass(context.Background(), "Car", ClassOptions{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, int64(88), id)
	assert.Equal(t, "schema-7", uri)

	calls := drv.Calls()
	require.Len(t, calls, 3)
	assert.Contains(t, calls[1].Cypher, "SET n.next_count = n.next_count + $advance")
	assert.Contains(t, calls[2].Cypher, "CREATE (n :`CLASS`")
	assert.Equal(t, "Car", calls[2].Params["n_par_2"])
	assert.Equal(t, true, calls[2].Params["n_par_4"])
}

func TestCreateClass_Validation(t *testing.T) {
	t.Run("blank name", func(t *testing.T) {
		e, _ := newTestEngine()
		_, _, err := e.CreateClass(context.Background(), "   ", ClassOptions{})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("name collision", func(t *testing.T) {
		e, drv := newTestEngine()
		drv.QueryResults = [][]map[string]any{classRow("Car", false)}
		_, _, err := e.CreateClass(context.Background(), "Car", ClassOptions{})
		assert.ErrorIs(t, err, ErrSchemaViolation)
	})
}

func TestGetClass_Missing(t *testing.T) {
	e, _ := newTestEngine()

	info, err := e.GetClass(context.Background(), "Ghost")
	require.NoError(t, err)
	assert.Nil(t, info)

	_, err = e.requireClass(context.Background(), "Ghost")
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestInitSchema_Idempotent(t *testing.T) {
	e, drv := newTestEngine()
	// Both reserved namespaces already exist.
	drv.QueryResults = [][]map[string]any{
		{{"n": map[string]any{"namespace": ClassNamespace, "next_count": int64(3)}}},
		{{"n": map[string]any{"namespace": DataNamespace, "next_count": int64(12)}}},
	}

	require.NoError(t, e.InitSchema(context.Background()))
	for _, c := range drv.Calls() {
		assert.NotContains(t, c.Cypher, "CREATE")
	}
}

func TestDeleteClass(t *testing.T) {
	t.Run("safe mode refuses while data nodes remain", func(t *testing.T) {
		e, drv := newTestEngine()
		drv.QueryResults = [][]map[string]any{{{"data_count": int64(4)}}}

		err := e.DeleteClass(context.Background(), "Car", false)
		assert.ErrorIs(t, err, ErrSchemaViolation)
	})

	t.Run("force orphans data nodes", func(t *testing.T) {
		e, drv := newTestEngine()
		drv.UpdateResults = []graph.UpdateStats{{NodesDeleted: 3, RelationshipsDeleted: 2}}

		require.NoError(t, e.DeleteClass(context.Background(), "Car", true))
		require.Len(t, drv.Calls(), 1) // no data-node count check
		assert.Contains(t, drv.LastCall().Cypher, "DETACH DELETE c, p")
	})

	t.Run("unknown class", func(t *testing.T) {
		e, drv := newTestEngine()
		drv.UpdateResults = []graph.UpdateStats{{NodesDeleted: 0}}

		err := e.DeleteClass(context.Background(), "Ghost", true)
		assert.ErrorIs(t, err, ErrClassNotFound)
	})
}

func TestIsValidClassName(t *testing.T) {
	assert.True(t, IsValidClassName("Car"))
	assert.True(t, IsValidClassName("  padded  "))
	assert.False(t, IsValidClassName(""))
	assert.False(t, IsValidClassName("   "))
}
