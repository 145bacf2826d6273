// Package manifest persists a run's plan and progress inside the staging
// area, making recovery exact instead of inferred from directory existence.
package manifest

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"crates/internal/batch"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes shape. A mismatched
// manifest belongs to an incompatible crates version; the run aborts rather
// than guessing.
const schemaVersion = 1

// ErrSchemaMismatch indicates the manifest was written by an incompatible version.
var ErrSchemaMismatch = errors.New("manifest schema version mismatch")

// FileName is the manifest database name inside the staging area.
const FileName = "manifest.db"

// Session describes the run recorded in a manifest.
type Session struct {
	RunID     string
	Mode      string
	SourceDir string
	DestDir   string
	CreatedAt string
}

// Store manages manifest persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the manifest database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open manifest db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the manifest database location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create manifest schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read manifest schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: manifest has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// BeginSession appends a session row for the current run.
func (s *Store) BeginSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO session (run_id, mode, source_dir, dest_dir) VALUES (?, ?, ?, ?)",
		sess.RunID, sess.Mode, sess.SourceDir, sess.DestDir,
	)
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}

// LatestSession returns the most recent session row, or ok=false when the
// manifest has never hosted a run.
func (s *Store) LatestSession(ctx context.Context) (Session, bool, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx,
		"SELECT run_id, mode, source_dir, dest_dir, created_at FROM session ORDER BY id DESC LIMIT 1",
	).Scan(&sess.RunID, &sess.Mode, &sess.SourceDir, &sess.DestDir, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("read session: %w", err)
	}
	return sess, true, nil
}

// RecordPlan replaces the stored plan with the given one. Applied entries
// survive so a recovery run can re-plan against updated source content
// without forgetting what earlier runs already placed.
func (s *Store) RecordPlan(ctx context.Context, plan batch.Plan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin plan tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM plan_entry"); err != nil {
		return fmt.Errorf("clear plan: %w", err)
	}

	ordinal := 0
	for _, b := range plan.Batches {
		for _, artist := range b.Artists {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO plan_entry (artist, batch_name, ordinal) VALUES (?, ?, ?)",
				artist, b.Name, ordinal,
			); err != nil {
				return fmt.Errorf("record plan entry %q: %w", artist, err)
			}
			ordinal++
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO batch_folder (name) VALUES (?)", b.Name,
		); err != nil {
			return fmt.Errorf("record batch folder %q: %w", b.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit plan: %w", err)
	}
	return nil
}

// MarkApplied records that artist has been placed into batchName.
func (s *Store) MarkApplied(ctx context.Context, artist, batchName string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO applied (artist, batch_name) VALUES (?, ?)",
		artist, batchName,
	)
	if err != nil {
		return fmt.Errorf("mark applied %q: %w", artist, err)
	}
	return nil
}

// Applied returns the set of artists already placed by this or a prior
// interrupted run.
func (s *Store) Applied(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT artist, batch_name FROM applied")
	if err != nil {
		return nil, fmt.Errorf("read applied: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]string)
	for rows.Next() {
		var artist, batchName string
		if err := rows.Scan(&artist, &batchName); err != nil {
			return nil, fmt.Errorf("scan applied: %w", err)
		}
		applied[artist] = batchName
	}
	return applied, rows.Err()
}

// BatchFolders returns the batch folder names this staging area's runs have
// created at the destination.
func (s *Store) BatchFolders(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM batch_folder ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("read batch folders: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan batch folder: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Counts reports how many entries are planned and applied.
func (s *Store) Counts(ctx context.Context) (planned, applied int, err error) {
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM plan_entry").Scan(&planned); err != nil {
		return 0, 0, fmt.Errorf("count plan entries: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM applied").Scan(&applied); err != nil {
		return 0, 0, fmt.Errorf("count applied entries: %w", err)
	}
	return planned, applied, nil
}
