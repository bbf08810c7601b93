package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrainAnnex/neoaccess/internal/cypher"
	"github.com/BrainAnnex/neoaccess/internal/graph"
)

// scriptStrictCar scripts the lookups CreateDataNode issues for a strict
// "Car" class declaring a single property "color".
func scriptStrictCar(drv *graph.StubDriver) {
	drv.QueryResults = [][]map[string]any{
		classRow("Car", true), // CreateDataNode's class lookup
		classRow("Car", true), // AllowableProps' class lookup
		{{"name": "Car", "depth": int64(0)}},
		{{"class_name": "Car", "prop_name": "color", "declaration_index": int64(1)}},
	}
}

func TestCreateDataNode(t *testing.T) {
	e, drv := newTestEngine()
	scriptStrictCar(drv)
	drv.UpdateResults = []graph.UpdateStats{{
		NodesCreated:  1,
		LabelsAdded:   1,
		PropertiesSet: 2,
		ReturnedData:  []map[string]any{{"internal_id": int64(123)}},
	}}

	id, err := e.CreateDataNode(context.Background(), "Car",
		map[string]any{"color": "white"}, DataNodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(123), id)

	last := drv.LastCall()
	assert.Contains(t, last.Cypher, "CREATE (n :`Car`")
	// Class marker sorts first among the stored properties.
	assert.Equal(t, "Car", last.Params["n_par_1"])
	assert.Equal(t, "white", last.Params["n_par_2"])
}

func TestCreateDataNode_UndeclaredProperty(t *testing.T) {
	// An undeclared property on a strict class errors unless silent
	// dropping is requested, in which case it is simply absent.
	t.Run("raises", func(t *testing.T) {
		e, drv := newTestEngine()
		scriptStrictCar(drv)

		_, err := e.CreateDataNode(context.Background(), "Car",
			map[string]any{"color": "white", "make": "Toyota"}, DataNodeOptions{})
		require.ErrorIs(t, err, ErrSchemaViolation)
		assert.Contains(t, err.Error(), "make")
	})

	t.Run("silently dropped", func(t *testing.T) {
		e, drv := newTestEngine()
		scriptStrictCar(drv)
		drv.UpdateResults = []graph.UpdateStats{{
			NodesCreated:  1,
			LabelsAdded:   1,
			PropertiesSet: 2,
			ReturnedData:  []map[string]any{{"internal_id": int64(124)}},
		}}

		_, err := e.CreateDataNode(context.Background(), "Car",
			map[string]any{"color": "white", "make": "Toyota"},
			DataNodeOptions{SilentlyDrop: true})
		require.NoError(t, err)

		params := drv.LastCall().Params
		assert.Len(t, params, 2) // _CLASS + color, no make
	})
}

func TestCreateDataNode_ExtraLabels(t *testing.T) {
	e, drv := newTestEngine()
	drv.QueryResults = [][]map[string]any{
		classRow("Car", false),
		classRow("Car", false),
	}
	drv.UpdateResults = []graph.UpdateStats{{
		NodesCreated:  1,
		LabelsAdded:   3,
		PropertiesSet: 1,
		ReturnedData:  []map[string]any{{"internal_id": int64(7)}},
	}}

	_, err := e.CreateDataNode(context.Background(), "Car", nil, DataNodeOptions{
		ExtraLabels: []string{"  Vehicle ", "Car", "Asset", "Vehicle"},
	})
	require.NoError(t, err)
	assert.Contains(t, drv.LastCall().Cypher, "CREATE (n :`Car`:`Vehicle`:`Asset`")
}

func TestCreateDataNode_AssignedURI(t *testing.T) {
	e, drv := newTestEngine()
	drv.QueryResults = [][]map[string]any{
		classRow("Car", false),
		classRow("Car", false),
		nil, // no HAS_URI_GENERATOR attached: shared data namespace
	}
	drv.UpdateResults = []graph.UpdateStats{
		{ // autoincrement advance
			PropertiesSet: 1,
			ReturnedData:  []map[string]any{{"start_value": int64(42), "prefix": "", "suffix": ""}},
		},
		{
			NodesCreated:  1,
			LabelsAdded:   1,
			PropertiesSet: 2,
			ReturnedData:  []map[string]any{{"internal_id": int64(8)}},
		},
	}

	_, err := e.CreateDataNode(context.Background(), "Car", nil, DataNodeOptions{AssignURI: true})
	require.NoError(t, err)

	calls := drv.Calls()
	assert.Equal(t, DataNamespace, calls[3].Params["namespace"])
	assert.Equal(t, "42", drv.LastCall().Params["n_par_2"]) // uri sorts after _CLASS
}

func TestCreateDataNode_NoDataNodesClass(t *testing.T) {
	e, drv := newTestEngine()
	drv.QueryResults = [][]map[string]any{{{"n": map[string]any{
		"name":          "AbstractBase",
		"strict":        false,
		"no_data_nodes": true,
	}}}}

	_, err := e.CreateDataNode(context.Background(), "AbstractBase", nil, DataNodeOptions{})
	assert.ErrorIs(t, err, ErrSchemaViolation)
}

func TestUpdateDataNode(t *testing.T) {
	e, drv := newTestEngine()
	drv.UpdateResults = []graph.UpdateStats{{PropertiesSet: 2}}

	count, err := e.UpdateDataNode(context.Background(),
		cypher.NodeSpec{InternalID: 123},
		map[string]any{"color": "red", "year": 2021}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpdateDataNode_ClassMarkerNotSettable(t *testing.T) {
	e, _ := newTestEngine()

	_, err := e.UpdateDataNode(context.Background(),
		cypher.NodeSpec{InternalID: 123},
		map[string]any{ClassMarker: "Truck"}, false)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAddDataNodeMerge(t *testing.T) {
	script := func(drv *graph.StubDriver, nodesCreated int) {
		drv.QueryResults = [][]map[string]any{
			classRow("Car", false),
			classRow("Car", false),
		}
		drv.UpdateResults = []graph.UpdateStats{{
			NodesCreated: nodesCreated,
			ReturnedData: []map[string]any{{"internal_id": int64(200)}},
		}}
	}

	e, drv := newTestEngine()
	script(drv, 1)
	id, created, err := e.AddDataNodeMerge(context.Background(), "Car", map[string]any{"color": "white"})
	require.NoError(t, err)
	assert.Equal(t, int64(200), id)
	assert.True(t, created)
	assert.Equal(t,
		"MERGE (n :`Car` {`_CLASS`: $n_par_1, `color`: $n_par_2}) RETURN id(n) AS internal_id",
		drv.LastCall().Cypher)

	// The identical property set reuses the node.
	e2, drv2 := newTestEngine()
	script(drv2, 0)
	id2, created2, err := e2.AddDataNodeMerge(context.Background(), "Car", map[string]any{"color": "white"})
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.False(t, created2)
}

func TestAddDataNodeMerge_NoProperties(t *testing.T) {
	e, drv := newTestEngine()
	drv.QueryResults = [][]map[string]any{classRow("Car", false)}

	_, _, err := e.AddDataNodeMerge(context.Background(), "Car", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDeleteDataNode(t *testing.T) {
	e, drv := newTestEngine()
	drv.UpdateResults = []graph.UpdateStats{{NodesDeleted: 1, RelationshipsDeleted: 2}}

	require.NoError(t, e.DeleteDataNode(context.Background(), cypher.NodeSpec{InternalID: 123}))

	drv.UpdateResults = []graph.UpdateStats{{NodesDeleted: 0}}
	err := e.DeleteDataNode(context.Background(), cypher.NodeSpec{InternalID: 999})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSetClassNamespace(t *testing.T) {
	e, drv := newTestEngine()
	drv.QueryResults = [][]map[string]any{
		classRow("Image", false),
		nil, // namespace not declared yet
	}
	drv.UpdateResults = []graph.UpdateStats{
		{ // namespace node create
			NodesCreated:  1,
			LabelsAdded:   1,
			PropertiesSet: 4,
			ReturnedData:  []map[string]any{{"internal_id": int64(3)}},
		},
		{RelationshipsCreated: 1},
	}

	require.NoError(t, e.SetClassNamespace(context.Background(), "Image", "image", "im-", ""))
	assert.Contains(t, drv.LastCall().Cypher, "MERGE (c)-[:`HAS_URI_GENERATOR`]->(n)")
}

func TestNormalizeLabels(t *testing.T) {
	assert.Equal(t, []string{"Car"}, normalizeLabels("Car", nil))
	assert.Equal(t,
		[]string{"Car", "Vehicle", "Asset"},
		normalizeLabels("Car", []string{" Vehicle ", "", "Car", "Asset", "Vehicle"}))
}
