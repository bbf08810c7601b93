package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrainAnnex/neoaccess/internal/cypher"
)

// CreateNamespace declares a new autoincrement namespace with a counter
// starting at 1 and optional default prefix/suffix for minted URIs. The
// name must be non-blank and not already in use.
func (e *Engine) CreateNamespace(ctx context.Context, name, prefix, suffix string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: namespace name must not be blank", ErrInvalidArgument)
	}
	exists, err := e.NamespaceExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: namespace %q already exists", ErrSchemaViolation, name)
	}
	_, err = e.access.CreateNode(ctx, []string{AutoincrementLabel}, map[string]any{
		"namespace":  name,
		"next_count": 1,
		"prefix":     prefix,
		"suffix":     suffix,
	})
	return err
}

// NamespaceExists reports whether an autoincrement namespace is declared.
func (e *Engine) NamespaceExists(ctx context.Context, name string) (bool, error) {
	node, err := e.access.GetSingleNode(ctx,
		cypher.MatchKey(AutoincrementLabel, "namespace", strings.TrimSpace(name)))
	if err != nil {
		return false, err
	}
	return node != nil, nil
}

// AdvanceAutoincrement reserves a block of `advance` consecutive counter
// values in the named namespace and returns the first of them, plus the
// namespace's stored prefix and suffix. The reservation is a single
// read-modify-write statement, so concurrent callers never receive
// overlapping blocks. Reserved values are never reissued, even when the
// caller discards them.
func (e *Engine) AdvanceAutoincrement(ctx context.Context, namespace string, advance int) (int64, string, string, error) {
	if advance < 1 {
		return 0, "", "", fmt.Errorf("%w: advance must be at least 1, got %d", ErrInvalidArgument, advance)
	}
	namespace = strings.TrimSpace(namespace)
	q := fmt.Sprintf(
		"MATCH (n :`%s` {namespace: $namespace}) "+
			"SET n.next_count = n.next_count + $advance "+
			"RETURN n.next_count - $advance AS start_value, n.prefix AS prefix, n.suffix AS suffix",
		AutoincrementLabel)
	stats, err := e.access.Driver().UpdateQuery(ctx, q, map[string]any{
		"namespace": namespace,
		"advance":   advance,
	})
	if err != nil {
		return 0, "", "", err
	}
	if len(stats.ReturnedData) == 0 {
		return 0, "", "", fmt.Errorf("%w: namespace %q does not exist", ErrSchemaViolation, namespace)
	}
	row := stats.ReturnedData[0]
	start, ok := asInt(row["start_value"])
	if !ok {
		return 0, "", "", fmt.Errorf("schema: namespace %q returned non-integer counter %v",
			namespace, row["start_value"])
	}
	prefix, _ := row["prefix"].(string)
	suffix, _ := row["suffix"].(string)
	return int64(start), prefix, suffix, nil
}

// ReserveNextURI mints the next URI in the named namespace. Non-blank
// prefix/suffix arguments override the namespace's stored defaults and
// are persisted as the new defaults.
func (e *Engine) ReserveNextURI(ctx context.Context, namespace, prefix, suffix string) (string, error) {
	if prefix != "" || suffix != "" {
		if err := e.setNamespaceAffixes(ctx, namespace, prefix, suffix); err != nil {
			return "", err
		}
	}
	n, storedPrefix, storedSuffix, err := e.AdvanceAutoincrement(ctx, namespace, 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d%s", storedPrefix, n, storedSuffix), nil
}

// setNamespaceAffixes persists non-blank prefix/suffix overrides.
func (e *Engine) setNamespaceAffixes(ctx context.Context, namespace, prefix, suffix string) error {
	assignments := []string{}
	params := map[string]any{"namespace": strings.TrimSpace(namespace)}
	if prefix != "" {
		assignments = append(assignments, "n.prefix = $prefix")
		params["prefix"] = prefix
	}
	if suffix != "" {
		assignments = append(assignments, "n.suffix = $suffix")
		params["suffix"] = suffix
	}
	q := fmt.Sprintf("MATCH (n :`%s` {namespace: $namespace}) SET %s",
		AutoincrementLabel, strings.Join(assignments, ", "))
	stats, err := e.access.Driver().UpdateQuery(ctx, q, params)
	if err != nil {
		return err
	}
	if stats.PropertiesSet == 0 {
		return fmt.Errorf("%w: namespace %q does not exist", ErrSchemaViolation, namespace)
	}
	return nil
}
