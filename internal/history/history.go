// Package history persists completed verification jobs and sent appeals in a
// SQLite database so operators can review what the agent has done.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"numcheck/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; an old database must be deleted after a bump.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// schema version.
var ErrSchemaMismatch = errors.New("history: schema version mismatch")

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Job is one recorded verification job.
type Job struct {
	ID           string
	Kind         string
	RequestedBy  string
	Total        int
	Registered   int
	Unregistered int
	Failed       int
	ReportPath   string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Appeal is one recorded appeal mail.
type Appeal struct {
	ID         int64
	Identifier string
	Subject    string
	Persona    string
	SentAt     time.Time
}

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DatabaseDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
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

	store := &Store{db: db, path: dbPath}
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

// Path returns the database file location.
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
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// RecordJob stores one completed job.
func (s *Store) RecordJob(ctx context.Context, job Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (
            id, kind, requested_by, total, registered, unregistered, failed,
            report_path, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.Kind,
		job.RequestedBy,
		job.Total,
		job.Registered,
		job.Unregistered,
		job.Failed,
		job.ReportPath,
		job.StartedAt.UTC().Format(time.RFC3339Nano),
		job.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record job: %w", err)
	}
	return nil
}

// RecentJobs returns the most recently finished jobs, newest first.
func (s *Store) RecentJobs(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, requested_by, total, registered, unregistered, failed,
                report_path, started_at, finished_at
         FROM jobs ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var job Job
		var started, finished string
		if err := rows.Scan(
			&job.ID, &job.Kind, &job.RequestedBy, &job.Total, &job.Registered,
			&job.Unregistered, &job.Failed, &job.ReportPath, &started, &finished,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if job.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse job start time: %w", err)
		}
		if job.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parse job finish time: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// RecordAppeal stores one sent appeal and returns its row id.
func (s *Store) RecordAppeal(ctx context.Context, a Appeal) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO appeals (identifier, subject, persona, sent_at) VALUES (?, ?, ?, ?)`,
		a.Identifier,
		a.Subject,
		a.Persona,
		a.SentAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("record appeal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("appeal row id: %w", err)
	}
	return id, nil
}

// RecentAppeals returns the most recently sent appeals, newest first.
func (s *Store) RecentAppeals(ctx context.Context, limit int) ([]Appeal, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, identifier, subject, persona, sent_at
         FROM appeals ORDER BY sent_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query appeals: %w", err)
	}
	defer rows.Close()

	var appeals []Appeal
	for rows.Next() {
		var a Appeal
		var sent string
		if err := rows.Scan(&a.ID, &a.Identifier, &a.Subject, &a.Persona, &sent); err != nil {
			return nil, fmt.Errorf("scan appeal: %w", err)
		}
		if a.SentAt, err = time.Parse(time.RFC3339Nano, sent); err != nil {
			return nil, fmt.Errorf("parse appeal time: %w", err)
		}
		appeals = append(appeals, a)
	}
	return appeals, rows.Err()
}
