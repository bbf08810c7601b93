package graph

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/BrainAnnex/neoaccess/internal/cypher"
)

// Import batch tuning defaults.
const (
	defaultBatchSize   = 500
	defaultMaxParallel = 4
)

// ImportNode is one node in an import stream. TempID is the
// source-supplied identifier other stream entries use to reference it; it
// is never stored on the node.
type ImportNode struct {
	TempID     string         `json:"tempId"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// ImportRel is one relationship in an import stream, referencing its
// endpoints by source-supplied temp ids.
type ImportRel struct {
	FromTempID string         `json:"fromTempId"`
	ToTempID   string         `json:"toTempId"`
	RelName    string         `json:"relName"`
	Properties map[string]any `json:"properties"`
}

// ImportReport summarizes one completed import run.
type ImportReport struct {
	BatchID              string `json:"batchId"`
	NodesCreated         int    `json:"nodesCreated"`
	RelationshipsCreated int    `json:"relationshipsCreated"`
}

// Importer bulk-loads nodes and relationships through an Access facade.
//
// The load is strictly two-phase: every node is created before any
// relationship, because relationship endpoints are referenced by source id
// before those nodes are guaranteed to exist in the target database. Node
// batches within phase one are independent and run with bounded
// concurrency; the remap table from temp ids to internal ids is the only
// shared state.
type Importer struct {
	access *Access

	// BatchSize bounds how many rows go into a single statement, keeping
	// query payloads bounded. Zero means the default.
	BatchSize int

	// MaxParallel bounds concurrent node batches. Zero means the default.
	MaxParallel int
}

// NewImporter creates an Importer with default batch tuning.
func NewImporter(access *Access) *Importer {
	return &Importer{access: access}
}

// Load runs a two-phase bulk import and returns per-phase counts. Every
// created node is stamped with an `_import_batch` property carrying the
// returned batch id, so a failed run can be located and cleaned up.
func (imp *Importer) Load(ctx context.Context, nodes []ImportNode, rels []ImportRel) (*ImportReport, error) {
	batchSize := imp.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	maxParallel := imp.MaxParallel
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}

	seen := make(map[string]bool, len(nodes))
	for i, n := range nodes {
		if n.TempID == "" {
			return nil, fmt.Errorf("%w: import node %d has no temp id", cypher.ErrInvalidSpec, i)
		}
		if seen[n.TempID] {
			return nil, fmt.Errorf("%w: duplicate temp id %q in import stream", cypher.ErrInvalidSpec, n.TempID)
		}
		seen[n.TempID] = true
	}
	for i, r := range rels {
		if !seen[r.FromTempID] || !seen[r.ToTempID] {
			return nil, fmt.Errorf("%w: import relationship %d references an unknown temp id", cypher.ErrInvalidSpec, i)
		}
		if strings.TrimSpace(r.RelName) == "" {
			return nil, fmt.Errorf("%w: import relationship %d has a blank name", cypher.ErrInvalidSpec, i)
		}
	}

	report := &ImportReport{BatchID: uuid.New().String()}

	// Phase one: all nodes, grouped by label signature so each batch
	// shares one CREATE pattern.
	remap := make(map[string]int64, len(nodes))
	var remapMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	var created int64
	var createdMu sync.Mutex

	for _, group := range groupByLabels(nodes) {
		for start := 0; start < len(group.nodes); start += batchSize {
			end := min(start+batchSize, len(group.nodes))
			batch := group.nodes[start:end]
			labels := group.labels
			g.Go(func() error {
				n, err := imp.loadNodeBatch(gctx, labels, batch, report.BatchID, remap, &remapMu)
				if err != nil {
					return err
				}
				createdMu.Lock()
				created += n
				createdMu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.NodesCreated = int(created)

	// Phase two: all relationships, grouped by type, sequential.
	for _, group := range groupByRelName(rels) {
		for start := 0; start < len(group.rels); start += batchSize {
			end := min(start+batchSize, len(group.rels))
			n, err := imp.loadRelBatch(ctx, group.relName, group.rels[start:end], remap)
			if err != nil {
				return nil, err
			}
			report.RelationshipsCreated += n
		}
	}

	if report.RelationshipsCreated != len(rels) {
		log.Printf("WARNING: import batch %s: expected %d relationships, created %d",
			report.BatchID, len(rels), report.RelationshipsCreated)
	}
	return report, nil
}

// loadNodeBatch creates one UNWIND batch of same-labeled nodes and records
// their internal ids in the remap table.
func (imp *Importer) loadNodeBatch(ctx context.Context, labels []string, batch []ImportNode, batchID string, remap map[string]int64, mu *sync.Mutex) (int64, error) {
	rows := make([]any, 0, len(batch))
	for _, n := range batch {
		props := make(map[string]any, len(n.Properties)+1)
		for k, v := range n.Properties {
			props[k] = v
		}
		props["_import_batch"] = batchID
		rows = append(rows, map[string]any{"tmp": n.TempID, "props": props})
	}

	pattern := "n"
	if lf := cypher.PrepareLabels(labels...); lf != "" {
		pattern += " " + lf
	}
	q := joinClauses(
		"UNWIND $rows AS row",
		fmt.Sprintf("CREATE (%s)", pattern),
		"SET n = row.props",
		"RETURN row.tmp AS tmp, id(n) AS internal_id",
	)
	stats, err := imp.access.drv.UpdateQuery(ctx, q, map[string]any{"rows": rows})
	if err != nil {
		return 0, fmt.Errorf("graph: import node batch: %w", err)
	}
	if stats.NodesCreated != len(batch) {
		return 0, fmt.Errorf("%w: node batch expected %d created, driver reported %d",
			ErrPartialMutation, len(batch), stats.NodesCreated)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, row := range stats.ReturnedData {
		tmp, _ := row["tmp"].(string)
		id, err := toInt64(row["internal_id"])
		if err != nil {
			return 0, err
		}
		remap[tmp] = id
	}
	return int64(stats.NodesCreated), nil
}

// loadRelBatch wires one UNWIND batch of same-typed relationships using
// the remap table built in phase one.
func (imp *Importer) loadRelBatch(ctx context.Context, relName string, batch []ImportRel, remap map[string]int64) (int, error) {
	rows := make([]any, 0, len(batch))
	for _, r := range batch {
		props := r.Properties
		if props == nil {
			props = map[string]any{}
		}
		rows = append(rows, map[string]any{
			"from":  remap[r.FromTempID],
			"to":    remap[r.ToTempID],
			"props": props,
		})
	}

	q := joinClauses(
		"UNWIND $rows AS row",
		"MATCH (a), (b)",
		"WHERE (id(a) = row.from AND id(b) = row.to)",
		fmt.Sprintf("MERGE (a)-[r :`%s`]->(b)", relName),
		"SET r += row.props",
	)
	stats, err := imp.access.drv.UpdateQuery(ctx, q, map[string]any{"rows": rows})
	if err != nil {
		return 0, fmt.Errorf("graph: import relationship batch: %w", err)
	}
	return stats.RelationshipsCreated, nil
}

// labelGroup collects import nodes sharing one label signature.
type labelGroup struct {
	labels []string
	nodes  []ImportNode
}

func groupByLabels(nodes []ImportNode) []labelGroup {
	byKey := map[string]*labelGroup{}
	for _, n := range nodes {
		key := strings.Join(n.Labels, "\x00")
		g, ok := byKey[key]
		if !ok {
			g = &labelGroup{labels: n.Labels}
			byKey[key] = g
		}
		g.nodes = append(g.nodes, n)
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]labelGroup, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byKey[k])
	}
	return out
}

// relGroup collects import relationships sharing one type.
type relGroup struct {
	relName string
	rels    []ImportRel
}

func groupByRelName(rels []ImportRel) []relGroup {
	byName := map[string]*relGroup{}
	for _, r := range rels {
		g, ok := byName[r.RelName]
		if !ok {
			g = &relGroup{relName: r.RelName}
			byName[r.RelName] = g
		}
		g.rels = append(g.rels, r)
	}
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]relGroup, 0, len(names))
	for _, n := range names {
		out = append(out, *byName[n])
	}
	return out
}
