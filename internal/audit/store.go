// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package audit persists the hash-chained, append-only audit trail backing
// every state transition in the categorization pipeline. The trail is a
// first-class persisted log, independent of any telemetry service; entries
// are never updated or deleted. Implements: prd005-audit-trail (R1-R4).
package audit

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/gamp-engine/pkg/types"
)

const dbFile = "audit.db"

// Store manages the audit SQLite database. A single writer mutex plus one
// transaction per append guarantees the hash chain stays intact under
// concurrent document pipelines (R2.2).
type Store struct {
	db  *sql.DB
	dir string

	mu sync.Mutex
}

// NewStore opens or creates the audit database at dir/audit.db, creating
// the schema if it does not exist (R2.1).
func NewStore(cfg types.AuditConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	s := &Store{db: db, dir: cfg.Dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating audit schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS audit_entries (
			seq INTEGER PRIMARY KEY,
			correlation_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			prev_hash TEXT NOT NULL,
			hash TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_correlation ON audit_entries(correlation_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Append records one event. The payload is marshaled to canonical JSON
// (structs marshal in field order, maps in sorted key order) so the hash is
// reproducible. The entry hash chains from the previous entry: altering any
// stored entry invalidates every later hash (R1.3, R1.4).
func (s *Store) Append(ctx context.Context, correlationID string, eventType types.AuditEventType, payload any) (*types.AuditEntry, error) {
	if correlationID == "" {
		return nil, fmt.Errorf("audit append: empty correlation id")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling audit payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning audit transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		lastSeq  sql.NullInt64
		lastHash sql.NullString
	)
	err = tx.QueryRowContext(ctx,
		`SELECT seq, hash FROM audit_entries ORDER BY seq DESC LIMIT 1`,
	).Scan(&lastSeq, &lastHash)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("reading chain head: %w", err)
	}

	entry := types.AuditEntry{
		Seq:           lastSeq.Int64 + 1,
		CorrelationID: correlationID,
		EventType:     eventType,
		Payload:       string(data),
		Timestamp:     time.Now().UTC(),
		PrevHash:      lastHash.String,
	}
	entry.Hash = entryHash(entry)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO audit_entries (seq, correlation_id, event_type, payload, timestamp, prev_hash, hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Seq, entry.CorrelationID, string(entry.EventType), entry.Payload,
		entry.Timestamp.Format(time.RFC3339Nano), entry.PrevHash, entry.Hash,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting audit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing audit entry: %w", err)
	}
	return &entry, nil
}

// Entries returns the full ordered sequence for a correlation id, or
// AuditNotFoundError when the id is unknown. It never returns a silently
// empty sequence for a known id (R3.1, R3.2).
func (s *Store) Entries(ctx context.Context, correlationID string) ([]types.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, correlation_id, event_type, payload, timestamp, prev_hash, hash
		 FROM audit_entries WHERE correlation_id = ? ORDER BY seq`, correlationID)
	if err != nil {
		return nil, fmt.Errorf("querying audit trail: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, &types.AuditNotFoundError{CorrelationID: correlationID}
	}
	return entries, nil
}

// All returns every entry in chain order.
func (s *Store) All(ctx context.Context) ([]types.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, correlation_id, event_type, payload, timestamp, prev_hash, hash
		 FROM audit_entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying audit trail: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]types.AuditEntry, error) {
	var entries []types.AuditEntry
	for rows.Next() {
		var (
			e         types.AuditEntry
			eventType string
			timestamp string
		)
		if err := rows.Scan(&e.Seq, &e.CorrelationID, &eventType, &e.Payload,
			&timestamp, &e.PrevHash, &e.Hash); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.EventType = types.AuditEventType(eventType)

		ts, err := time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("parsing audit timestamp %q: %w", timestamp, err)
		}
		e.Timestamp = ts

		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// entryHash computes the chained SHA-256 over the entry's immutable fields.
func entryHash(e types.AuditEntry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n%d\n%s\n%s\n%s\n%s",
		e.PrevHash, e.Seq, e.CorrelationID, e.EventType, e.Payload,
		e.Timestamp.Format(time.RFC3339Nano))
	return fmt.Sprintf("%x", h.Sum(nil))
}
