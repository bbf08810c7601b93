// Package graph implements node and relationship CRUD, traversal, and bulk
// import/export over a property-graph database.
//
// All database access goes through the Driver interface. Implementations:
// Neo4jDriver (production), StubDriver (testing). The Access facade compiles
// match specifications from internal/cypher into query text and hands it to
// the injected driver; it holds no connection state of its own.
package graph

import (
	"context"
	"errors"
)

// Common errors.
var (
	// ErrNotUnique is returned by operations that promise exactly one
	// matching record but found zero or more than one.
	ErrNotUnique = errors.New("expected exactly one matching record")

	// ErrPartialMutation is returned when a composite write completed
	// asymmetrically: the driver-reported statistics show fewer entities,
	// relationships, or properties than the statement requested.
	ErrPartialMutation = errors.New("database reported a partial mutation")

	// ErrNoBulkExport is returned when the injected driver does not
	// implement BulkExporter.
	ErrNoBulkExport = errors.New("driver has no bulk-export capability")

	// ErrBadDirection is returned for a direction argument that is not
	// one of IN, OUT, or BOTH.
	ErrBadDirection = errors.New("direction must be IN, OUT, or BOTH")
)

// Record is a query result row with node metadata attached.
type Record struct {
	Fields     map[string]any `json:"fields"`
	InternalID int64          `json:"internalId"`
	ElementID  string         `json:"elementId"`
	Labels     []string       `json:"labels"`
}

// UpdateStats reports the side effects of a write statement, as counted by
// the database itself. Composite writes compare these counts against their
// expected effects to detect silent partial success.
type UpdateStats struct {
	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
	PropertiesSet        int
	LabelsAdded          int

	// ReturnedData holds any rows returned by the write statement.
	ReturnedData []map[string]any
}

// Driver is the transport contract consumed by Access. It executes Cypher
// text with parameters and returns rows or update statistics. Transaction
// management, pooling, timeouts, and retries are the driver's concern, not
// this package's.
type Driver interface {
	// Query runs a read (or mixed) statement and returns one field map
	// per result row. Node and relationship values are flattened to
	// their property maps.
	Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)

	// QueryExtended is the Query variant that returns internal-id and
	// label metadata alongside the fields, one Record per node value.
	QueryExtended(ctx context.Context, cypher string, params map[string]any) ([]Record, error)

	// UpdateQuery runs a write statement and returns the database's own
	// counts of what changed.
	UpdateQuery(ctx context.Context, cypher string, params map[string]any) (UpdateStats, error)

	// VerifyConnectivity checks that the database is reachable.
	VerifyConnectivity(ctx context.Context) error

	// Close releases the underlying connection resources.
	Close(ctx context.Context) error
}

// BulkExporter is the optional whole-database export capability
// (APOC-equivalent). Drivers that cannot stream an export simply do not
// implement it.
type BulkExporter interface {
	// ExportJSONLines returns the full database as line-delimited JSON,
	// one entity per line.
	ExportJSONLines(ctx context.Context) (string, error)
}

// Direction constrains relationship traversal.
type Direction string

const (
	DirectionIn   Direction = "IN"
	DirectionOut  Direction = "OUT"
	DirectionBoth Direction = "BOTH"
)

// Validate rejects anything that is not one of the three direction values.
func (d Direction) Validate() error {
	switch d {
	case DirectionIn, DirectionOut, DirectionBoth:
		return nil
	}
	return ErrBadDirection
}
