// Package kvstore provides the namespaced, JSON-valued persistent store
// shared by the router, planner, and tools.
package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"sidekick/internal/audit"
	"sidekick/internal/logging"
	"sidekick/internal/trace"
)

// Namespaces in use across the system.
const (
	NamespaceTasks       = "tasks"
	NamespaceEvents      = "events"
	NamespaceMentor      = "mentor"
	NamespaceSessions    = "sessions"
	NamespacePlannerRuns = "planner_runs"
	NamespaceRAG         = "rag"
	NamespaceMemory      = "memory"
)

// Store is a SQLite-backed (namespace, key) -> JSON value map. Writes are
// whole-value replacement, last writer wins. A single mutex serializes all
// mutating operations per store instance.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	audit  *audit.Log
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithAudit records every write and delete to the given audit log.
func WithAudit(log *audit.Log) Option {
	return func(s *Store) { s.audit = log }
}

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open opens or creates the store database at dbPath.
func Open(dbPath string, opts ...Option) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger)

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		namespace  TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT,
		updated_at REAL,
		PRIMARY KEY (namespace, key)
	);
	CREATE INDEX IF NOT EXISTS idx_kv_namespace ON kv(namespace);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Set stores value under (ns, key), replacing any previous value whole.
func (s *Store) Set(ctx context.Context, ns, key string, value any) error {
	if ns == "" || key == "" {
		return fmt.Errorf("namespace and key are required")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	now := float64(time.Now().UnixNano()) / 1e9

	s.mu.Lock()
	_, err = s.db.ExecContext(ctx,
		`REPLACE INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)`,
		ns, key, string(raw), now)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", ns, key, err)
	}

	traceID := trace.From(ctx)
	s.logger.Debug("kv_set",
		zap.String("namespace", ns),
		zap.String("key", key),
		zap.String("trace_id", traceID))
	if s.audit != nil {
		s.audit.Record("memory_write", traceID, audit.SeverityInfo, map[string]any{
			"namespace":     ns,
			"key":           key,
			"value_preview": preview(string(raw), 120),
		})
	}
	return nil
}

// Get reads the value stored under (ns, key) into dest. It reports whether a
// value was found; absence is not an error, so callers keep their typed
// zero value as the default.
func (s *Store) Get(ctx context.Context, ns, key string, dest any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE namespace = ? AND key = ?`, ns, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s/%s: %w", ns, key, err)
	}
	if dest != nil {
		if err := json.Unmarshal([]byte(raw), dest); err != nil {
			return true, fmt.Errorf("decode %s/%s: %w", ns, key, err)
		}
	}
	s.logger.Debug("kv_get",
		zap.String("namespace", ns),
		zap.String("key", key),
		zap.String("trace_id", trace.From(ctx)))
	return true, nil
}

// Delete removes (ns, key). Reports whether a record was removed.
func (s *Store) Delete(ctx context.Context, ns, key string) (bool, error) {
	s.mu.Lock()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE namespace = ? AND key = ?`, ns, key)
	s.mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", ns, key, err)
	}
	n, _ := res.RowsAffected()
	deleted := n > 0

	traceID := trace.From(ctx)
	s.logger.Debug("kv_delete",
		zap.String("namespace", ns),
		zap.String("key", key),
		zap.Bool("deleted", deleted),
		zap.String("trace_id", traceID))
	if s.audit != nil {
		s.audit.Record("memory_delete", traceID, audit.SeverityInfo, map[string]any{
			"namespace": ns,
			"key":       key,
			"deleted":   deleted,
		})
	}
	return deleted, nil
}

// Keys lists all keys in a namespace.
func (s *Store) Keys(ctx context.Context, ns string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE namespace = ? ORDER BY key`, ns)
	if err != nil {
		return nil, fmt.Errorf("keys %s: %w", ns, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Namespace returns every (key, value) pair in a namespace as raw JSON.
func (s *Store) Namespace(ctx context.Context, ns string) (map[string]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM kv WHERE namespace = ?`, ns)
	if err != nil {
		return nil, fmt.Errorf("namespace %s: %w", ns, err)
	}
	defer rows.Close()

	out := map[string]json.RawMessage{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = json.RawMessage(v)
	}
	return out, rows.Err()
}

// AppendToList appends item to the list stored under (ns, key). A missing or
// non-list value becomes a single-element list first.
func (s *Store) AppendToList(ctx context.Context, ns, key string, item any) error {
	var list []json.RawMessage
	found, err := s.Get(ctx, ns, key, &list)
	if err != nil {
		// Existing scalar value: wrap it.
		var scalar json.RawMessage
		if _, gerr := s.Get(ctx, ns, key, &scalar); gerr != nil {
			return err
		}
		list = []json.RawMessage{scalar}
	} else if !found {
		list = nil
	}

	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	list = append(list, json.RawMessage(raw))
	return s.Set(ctx, ns, key, list)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	err := s.db.Close()
	if err != nil {
		s.logger.Error("db_close_failed", zap.Error(err))
		return err
	}
	s.logger.Info("db_closed")
	return nil
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
