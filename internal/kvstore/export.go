package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Record is one exported (namespace, key) row.
type Record struct {
	Namespace string          `json:"namespace"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt float64         `json:"updated_at"`
}

// ExportAll returns every record, optionally limited to one namespace.
func (s *Store) ExportAll(ctx context.Context, ns string) ([]Record, error) {
	query := `SELECT namespace, key, value, updated_at FROM kv ORDER BY namespace, key`
	args := []any{}
	if ns != "" {
		query = `SELECT namespace, key, value, updated_at FROM kv WHERE namespace = ? ORDER BY key`
		args = append(args, ns)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var value string
		if err := rows.Scan(&r.Namespace, &r.Key, &value, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Value = json.RawMessage(value)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Import writes the given records, replacing existing values. Returns the
// number of records written.
func (s *Store) Import(ctx context.Context, records []Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n := 0
	for _, r := range records {
		if r.Namespace == "" || r.Key == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`REPLACE INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)`,
			r.Namespace, r.Key, string(r.Value), r.UpdatedAt); err != nil {
			return 0, fmt.Errorf("import %s/%s: %w", r.Namespace, r.Key, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// Stats summarizes the store contents.
type Stats struct {
	Records    int            `json:"records"`
	Namespaces map[string]int `json:"namespaces"`
}

// GetStats counts records per namespace.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT namespace, COUNT(*) FROM kv GROUP BY namespace`)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{Namespaces: map[string]int{}}
	for rows.Next() {
		var ns string
		var count int
		if err := rows.Scan(&ns, &count); err != nil {
			return Stats{}, err
		}
		stats.Namespaces[ns] = count
		stats.Records += count
	}
	return stats, rows.Err()
}
