package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Neo4jConfig holds the connection settings for a Neo4j-family database.
type Neo4jConfig struct {
	URI      string // e.g. "bolt://localhost:7687" or "neo4j+s://host"
	Username string
	Password string
	Database string // optional; the server default when blank
}

// Validate checks the minimum viable configuration.
func (c Neo4jConfig) Validate() error {
	if strings.TrimSpace(c.URI) == "" {
		return fmt.Errorf("neo4j: connection URI is required")
	}
	return nil
}

// Neo4jDriver implements the Driver contract (and BulkExporter, via APOC)
// using the official Bolt driver. Sessions are opened per call; pooling,
// routing, and retries are the Bolt driver's concern.
type Neo4jDriver struct {
	drv      neo4j.DriverWithContext
	database string
}

// Compile-time checks.
var (
	_ Driver       = (*Neo4jDriver)(nil)
	_ BulkExporter = (*Neo4jDriver)(nil)
)

// NewNeo4jDriver connects to the database and verifies connectivity before
// returning.
func NewNeo4jDriver(ctx context.Context, cfg Neo4jConfig) (*Neo4jDriver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	drv, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j: create driver: %w", err)
	}
	if err := drv.VerifyConnectivity(ctx); err != nil {
		drv.Close(ctx)
		return nil, fmt.Errorf("neo4j: verify connectivity: %w", err)
	}
	return &Neo4jDriver{drv: drv, database: cfg.Database}, nil
}

// Close releases the underlying Bolt driver.
func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.drv.Close(ctx)
}

// VerifyConnectivity checks that the database is reachable.
func (d *Neo4jDriver) VerifyConnectivity(ctx context.Context) error {
	return d.drv.VerifyConnectivity(ctx)
}

func (d *Neo4jDriver) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return d.drv.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: d.database,
		AccessMode:   mode,
	})
}

// Query runs a read (or mixed) statement, returning one field map per row
// with node/relationship values flattened to their property maps.
func (d *Neo4jDriver) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	session := d.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		var rows []map[string]any
		for result.Next(ctx) {
			rec := result.Record()
			row := make(map[string]any, len(rec.Keys))
			for i, key := range rec.Keys {
				row[key] = flattenValue(rec.Values[i])
			}
			rows = append(rows, row)
		}
		return rows, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: query: %w", err)
	}
	return rows.([]map[string]any), nil
}

// QueryExtended is the Query variant that surfaces node metadata: one
// Record per node value in the result, with internal id, element id, and
// labels alongside the flattened properties.
func (d *Neo4jDriver) QueryExtended(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	session := d.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		var records []Record
		for result.Next(ctx) {
			for _, value := range result.Record().Values {
				node, ok := value.(dbtype.Node)
				if !ok {
					continue
				}
				records = append(records, Record{
					Fields:     flattenProps(node.Props),
					InternalID: node.Id,
					ElementID:  node.ElementId,
					Labels:     node.Labels,
				})
			}
		}
		return records, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: extended query: %w", err)
	}
	return records.([]Record), nil
}

// UpdateQuery runs a write statement and returns the server's own counts
// of what changed, plus any returned rows.
func (d *Neo4jDriver) UpdateQuery(ctx context.Context, cypher string, params map[string]any) (UpdateStats, error) {
	session := d.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	stats, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		var stats UpdateStats
		for result.Next(ctx) {
			rec := result.Record()
			row := make(map[string]any, len(rec.Keys))
			for i, key := range rec.Keys {
				row[key] = flattenValue(rec.Values[i])
			}
			stats.ReturnedData = append(stats.ReturnedData, row)
		}
		if err := result.Err(); err != nil {
			return nil, err
		}
		summary, err := result.Consume(ctx)
		if err != nil {
			return nil, err
		}
		counters := summary.Counters()
		stats.NodesCreated = counters.NodesCreated()
		stats.NodesDeleted = counters.NodesDeleted()
		stats.RelationshipsCreated = counters.RelationshipsCreated()
		stats.RelationshipsDeleted = counters.RelationshipsDeleted()
		stats.PropertiesSet = counters.PropertiesSet()
		stats.LabelsAdded = counters.LabelsAdded()
		return stats, nil
	})
	if err != nil {
		return UpdateStats{}, fmt.Errorf("neo4j: update query: %w", err)
	}
	return stats.(UpdateStats), nil
}

// ExportJSONLines streams the whole database through APOC's JSON export.
// Servers without the APOC plugin return the underlying procedure error.
func (d *Neo4jDriver) ExportJSONLines(ctx context.Context) (string, error) {
	session := d.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	payload, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx,
			"CALL apoc.export.json.all(null, {stream: true}) YIELD data RETURN data", nil)
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		for result.Next(ctx) {
			if data, ok := result.Record().Values[0].(string); ok {
				b.WriteString(data)
				b.WriteString("\n")
			}
		}
		return b.String(), result.Err()
	})
	if err != nil {
		return "", fmt.Errorf("neo4j: apoc export: %w", err)
	}
	return payload.(string), nil
}

// flattenValue reduces driver-specific result values to plain Go shapes:
// nodes and relationships become property maps, temporal values become
// ISO-formatted strings, containers are flattened recursively.
func flattenValue(value any) any {
	switch v := value.(type) {
	case dbtype.Node:
		return flattenProps(v.Props)
	case dbtype.Relationship:
		return flattenProps(v.Props)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = flattenValue(item)
		}
		return out
	case map[string]any:
		return flattenProps(v)
	default:
		return normalizeTemporal(value)
	}
}

func flattenProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = flattenValue(v)
	}
	return out
}

// normalizeTemporal renders the driver's date/time types as ISO-like
// strings so results are JSON-friendly and stable across drivers.
func normalizeTemporal(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339)
	case dbtype.Date:
		return v.Time().Format("2006-01-02")
	case dbtype.LocalDateTime:
		return v.Time().Format("2006-01-02T15:04:05")
	case dbtype.LocalTime:
		return v.Time().Format("15:04:05")
	case dbtype.Time:
		return v.Time().Format("15:04:05Z07:00")
	case dbtype.Duration:
		return v.String()
	default:
		return value
	}
}
