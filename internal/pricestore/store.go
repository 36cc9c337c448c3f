// Package pricestore persists the last known good price quotes in SQLite so
// a restarted process can serve prices before its first successful fetch.
package pricestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iwvelando/zakatease/internal/prices"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrEmptyPath is returned by Open for a blank database path.
var ErrEmptyPath = errors.New("price store path is empty")

const schema = `
CREATE TABLE IF NOT EXISTS price_snapshots (
	metal      TEXT PRIMARY KEY,
	as_of      TEXT NOT NULL,
	per_tola   TEXT NOT NULL,
	fetched_at TEXT NOT NULL
)`

// Store is a SQLite backed prices.SnapshotStore.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer is all SQLite supports.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot replaces the stored snapshot of the quote's metal.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot prices.Snapshot) error {
	if snapshot.Quote.Metal.Code() == "" {
		return fmt.Errorf("cannot store snapshot for unknown metal %q", snapshot.Quote.Metal)
	}

	perTola, err := json.Marshal(snapshot.Quote.PerTola)
	if err != nil {
		return fmt.Errorf("failed to encode prices: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO price_snapshots (metal, as_of, per_tola, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(metal) DO UPDATE SET
			as_of      = excluded.as_of,
			per_tola   = excluded.per_tola,
			fetched_at = excluded.fetched_at
	`, string(snapshot.Quote.Metal), snapshot.Quote.AsOf, string(perTola),
		snapshot.FetchedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save %s snapshot: %w", snapshot.Quote.Metal, err)
	}
	return nil
}

// LoadSnapshots returns every stored snapshot ordered by metal.
func (s *Store) LoadSnapshots(ctx context.Context) ([]prices.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT metal, as_of, per_tola, fetched_at
		FROM price_snapshots
		ORDER BY metal
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []prices.Snapshot
	for rows.Next() {
		var metal, asOf, perTolaJSON, fetchedAt string
		if err := rows.Scan(&metal, &asOf, &perTolaJSON, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		parsedMetal, err := prices.ParseMetal(metal)
		if err != nil {
			return nil, err
		}

		var perTola map[string]int64
		if err := json.Unmarshal([]byte(perTolaJSON), &perTola); err != nil {
			return nil, fmt.Errorf("failed to decode %s prices: %w", metal, err)
		}

		fetched, err := time.Parse(time.RFC3339Nano, fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s fetch time: %w", metal, err)
		}

		snapshots = append(snapshots, prices.Snapshot{
			Quote:     prices.Quote{Metal: parsedMetal, PerTola: perTola, AsOf: asOf},
			FetchedAt: fetched,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return snapshots, nil
}
