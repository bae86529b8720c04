// Package sqlite keeps the event journal in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"flash-alliance/internal/model"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fxamacker/cbor"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS events (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	source      TEXT NOT NULL,
	kind        TEXT NOT NULL,
	actor       TEXT NOT NULL,
	attributes  BLOB,
	occurred_at INTEGER NOT NULL,
	digest      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS events_source ON events (source, seq);`

// Store persists events in SQLite, ordered by insertion.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the database at path and creates the events table.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// the driver serializes writers anyway, one handle avoids busy errors
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) InsertEvent(ctx context.Context, event model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(event.ID) == "" {
		return fmt.Errorf("event id is required")
	}

	var attributes []byte
	if len(event.Attributes) > 0 {
		encoded, err := cbor.Marshal(event.Attributes, cbor.CanonicalEncOptions())
		if err != nil {
			return fmt.Errorf("encode attributes: %w", err)
		}
		attributes = encoded
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO events (id, source, kind, actor, attributes, occurred_at, digest)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Source.String(),
		string(event.Kind),
		event.Actor.String(),
		attributes,
		event.OccurredAt.UTC().UnixNano(),
		event.Digest,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Events returns the events of source, or every event when source is empty.
func (s *Store) Events(ctx context.Context, source model.Address) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := `SELECT id, source, kind, actor, attributes, occurred_at, digest FROM events`
	var args []any
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source.String())
	}
	query += ` ORDER BY seq`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			event      model.Event
			src, actor string
			kind       string
			attributes []byte
			occurredAt int64
		)
		if err := rows.Scan(&event.ID, &src, &kind, &actor, &attributes, &occurredAt, &event.Digest); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Source = model.Address(src)
		event.Kind = model.EventKind(kind)
		event.Actor = model.Address(actor)
		event.OccurredAt = time.Unix(0, occurredAt).UTC()
		if len(attributes) > 0 {
			if err := cbor.Unmarshal(attributes, &event.Attributes); err != nil {
				return nil, fmt.Errorf("decode attributes: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
