// Package history keeps versioned snapshots of configurations in SQLite.
package history

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/vk/reconfgrid/internal/ctxlog"
	"github.com/vk/reconfgrid/internal/topology"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNoSnapshot is returned by Latest when a namespace has no record.
var ErrNoSnapshot = errors.New("no snapshot recorded")

// Entry is one recorded snapshot.
type Entry struct {
	Namespace   string
	Version     int
	Label       string
	Deployments int
	RecordedAt  time.Time
	Graph       *topology.Graph
}

// Store records configuration snapshots.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the SQLite database at dsn and applies pending migrations.
// Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database lives in a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, sub)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("History database ready.", "dsn", dsn, "migrations_applied", len(results))

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores g as the next version of its namespace and returns that
// version, starting at 1.
func (s *Store) Record(ctx context.Context, label string, g *topology.Graph) (int, error) {
	var body bytes.Buffer
	if err := topology.EncodeJSON(&body, g); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var version int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM snapshots WHERE namespace = ?`,
		g.Namespace(),
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("next version of %q: %w", g.Namespace(), err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (namespace, version, label, deployments, body, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.Namespace(), version, label, g.Len(), body.String(), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot: %w", err)
	}

	ctxlog.FromContext(ctx).Debug("Snapshot recorded.", "configuration", g.Namespace(), "version", version, "label", label)
	return version, nil
}

// Latest returns the most recent snapshot of a namespace.
func (s *Store) Latest(ctx context.Context, namespace string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT namespace, version, label, deployments, body, recorded_at
		 FROM snapshots WHERE namespace = ? ORDER BY version DESC LIMIT 1`,
		namespace,
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%q: %w", namespace, ErrNoSnapshot)
	}
	return e, err
}

// List returns every snapshot of a namespace, oldest first.
func (s *Store) List(ctx context.Context, namespace string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT namespace, version, label, deployments, body, recorded_at
		 FROM snapshots WHERE namespace = ? ORDER BY version`,
		namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e          Entry
		body       string
		recordedAt string
	)
	if err := s.Scan(&e.Namespace, &e.Version, &e.Label, &e.Deployments, &body, &recordedAt); err != nil {
		return Entry{}, err
	}
	g, err := topology.DecodeJSON(bytes.NewBufferString(body))
	if err != nil {
		return Entry{}, fmt.Errorf("snapshot %q v%d: %w", e.Namespace, e.Version, err)
	}
	e.Graph = g
	e.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("snapshot %q v%d: parse time: %w", e.Namespace, e.Version, err)
	}
	return e, nil
}
