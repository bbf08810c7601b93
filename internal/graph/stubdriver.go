package graph

import (
	"context"
	"sync"
)

// Compile-time assertions: *StubDriver satisfies both driver contracts.
var (
	_ Driver       = (*StubDriver)(nil)
	_ BulkExporter = (*StubDriver)(nil)
)

// StubCall records one statement handed to the StubDriver.
type StubCall struct {
	Cypher string
	Params map[string]any
}

// StubDriver is a scripted in-process Driver for tests. Callers queue the
// results each successive call should return; the driver records every
// statement it receives so tests can assert on the generated Cypher.
// Exhausted queues yield empty results, which matches the "no rows" shape
// of a real driver. Thread-safe via sync.Mutex (import batches run
// concurrently).
type StubDriver struct {
	mu    sync.Mutex
	calls []StubCall

	// Queued responses, consumed front to back by the matching method.
	QueryResults    [][]map[string]any
	ExtendedResults [][]Record
	UpdateResults   []UpdateStats

	// Err, when set, is returned by every call.
	Err error

	// JSONLines is returned by ExportJSONLines.
	JSONLines string
}

// NewStubDriver returns an empty scripted driver.
func NewStubDriver() *StubDriver {
	return &StubDriver{}
}

// Calls returns a copy of every recorded statement, in call order.
func (s *StubDriver) Calls() []StubCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StubCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// LastCall returns the most recent recorded statement, or a zero value if
// nothing ran.
func (s *StubDriver) LastCall() StubCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return StubCall{}
	}
	return s.calls[len(s.calls)-1]
}

func (s *StubDriver) record(cypher string, params map[string]any) {
	s.calls = append(s.calls, StubCall{Cypher: cypher, Params: params})
}

// Query pops and returns the next queued query result.
func (s *StubDriver) Query(_ context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(cypher, params)
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.QueryResults) == 0 {
		return nil, nil
	}
	rows := s.QueryResults[0]
	s.QueryResults = s.QueryResults[1:]
	return rows, nil
}

// QueryExtended pops and returns the next queued extended result.
func (s *StubDriver) QueryExtended(_ context.Context, cypher string, params map[string]any) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(cypher, params)
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.ExtendedResults) == 0 {
		return nil, nil
	}
	records := s.ExtendedResults[0]
	s.ExtendedResults = s.ExtendedResults[1:]
	return records, nil
}

// UpdateQuery pops and returns the next queued update statistics.
func (s *StubDriver) UpdateQuery(_ context.Context, cypher string, params map[string]any) (UpdateStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(cypher, params)
	if s.Err != nil {
		return UpdateStats{}, s.Err
	}
	if len(s.UpdateResults) == 0 {
		return UpdateStats{}, nil
	}
	stats := s.UpdateResults[0]
	s.UpdateResults = s.UpdateResults[1:]
	return stats, nil
}

// VerifyConnectivity always succeeds unless Err is set.
func (s *StubDriver) VerifyConnectivity(context.Context) error {
	return s.Err
}

// Close is a no-op.
func (s *StubDriver) Close(context.Context) error {
	return nil
}

// ExportJSONLines returns the scripted JSONLines payload.
func (s *StubDriver) ExportJSONLines(context.Context) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.JSONLines, nil
}
