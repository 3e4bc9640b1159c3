// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package history persists evaluation and comparison verdicts to SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Kind distinguishes stored verdict types.
type Kind string

const (
	KindEvaluation Kind = "evaluation"
	KindComparison Kind = "comparison"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("history record not found")

// Record is one persisted verdict. Payload is the verdict serialized as
// JSON.
type Record struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Provider  string    `json:"provider"`
	Mode      string    `json:"mode"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a SQLite-backed verdict store. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS verdicts (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	provider   TEXT NOT NULL DEFAULT '',
	mode       TEXT NOT NULL DEFAULT '',
	payload    BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_verdicts_kind_created ON verdicts(kind, created_at DESC);
`

// Open opens (or creates) the store at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	// WAL keeps writers from blocking the status readers.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Save inserts a record. An existing id is overwritten.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO verdicts (id, kind, provider, mode, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Kind), rec.Provider, rec.Mode, rec.Payload, rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save verdict %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, provider, mode, payload, created_at FROM verdicts WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get verdict %s: %w", id, err)
	}
	return rec, nil
}

// List returns the most recent records, optionally filtered by kind.
func (s *Store) List(ctx context.Context, kind Kind, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	var err error
	if kind == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, kind, provider, mode, payload, created_at FROM verdicts ORDER BY created_at DESC LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, kind, provider, mode, payload, created_at FROM verdicts WHERE kind = ? ORDER BY created_at DESC LIMIT ?`,
			string(kind), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list verdicts: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune deletes records created before cutoff and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM verdicts WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune verdicts: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Info("pruned history", zap.Int64("removed", n))
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scannable) (*Record, error) {
	var rec Record
	var kind string
	var createdAt int64
	if err := row.Scan(&rec.ID, &kind, &rec.Provider, &rec.Mode, &rec.Payload, &createdAt); err != nil {
		return nil, err
	}
	rec.Kind = Kind(kind)
	rec.CreatedAt = time.Unix(0, createdAt)
	return &rec, nil
}
