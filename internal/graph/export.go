package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ExportJSON dumps the whole database as a pretty-printed JSON array, one
// element per exported entity.
//
// The heavy lifting is delegated to the driver's bulk-export capability;
// a driver without one gets ErrNoBulkExport. This method only reformats
// the driver's line-delimited payload.
func (a *Access) ExportJSON(ctx context.Context) (string, error) {
	exporter, ok := a.drv.(BulkExporter)
	if !ok {
		return "", fmt.Errorf("%w (%T)", ErrNoBulkExport, a.drv)
	}
	payload, err := exporter.ExportJSONLines(ctx)
	if err != nil {
		return "", fmt.Errorf("graph: bulk export: %w", err)
	}

	var entities []json.RawMessage
	for i, line := range strings.Split(payload, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !json.Valid([]byte(line)) {
			return "", fmt.Errorf("graph: bulk export line %d is not valid JSON", i+1)
		}
		entities = append(entities, json.RawMessage(line))
	}

	out, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return "", fmt.Errorf("graph: format export: %w", err)
	}
	return string(out), nil
}
