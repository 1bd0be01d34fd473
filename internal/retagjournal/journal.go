package retagjournal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

const table = "retag_entries"

// ErrSchemaMismatch indicates the database was written by an incompatible version.
var ErrSchemaMismatch = errors.New("retag journal schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Journal is a SQLite-backed set of (digest, artifact path) pairs.
type Journal struct {
	db   *sql.DB
	path string
	sb   sq.StatementBuilderType
}

// Open creates or opens the journal database at path.
func Open(ctx context.Context, path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("retag journal path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Retag jobs record concurrently; one connection serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	j := &Journal{
		db:   db,
		path: path,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
	if err := j.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Path returns the database location.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) initSchema(ctx context.Context) error {
	var tableExists int
	err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return j.createSchema(ctx)
	}

	var version int
	if err := j.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)", ErrSchemaMismatch, version, schemaVersion, j.path)
	}
	return nil
}

func (j *Journal) createSchema(ctx context.Context) error {
	tx, err := j.db.BeginTx(ctx, nil)
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
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Record marks path as updated for digest. Recording twice is a no-op.
func (j *Journal) Record(ctx context.Context, digest, path string) error {
	query, args, err := j.sb.Insert(table).
		Columns("digest", "path", "updated_at").
		Values(digest, path, time.Now().UTC().Format(time.RFC3339)).
		Suffix("ON CONFLICT (digest, path) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build record query: %w", err)
	}
	if err := j.exec(ctx, query, args...); err != nil {
		return fmt.Errorf("record retag %s: %w", path, err)
	}
	return nil
}

// Completed returns every path recorded for digest.
func (j *Journal) Completed(ctx context.Context, digest string) (map[string]struct{}, error) {
	query, args, err := j.sb.Select("path").
		From(table).
		Where(sq.Eq{"digest": digest}).
		OrderBy("path").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build completed query: %w", err)
	}
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query completed retags: %w", err)
	}
	defer rows.Close()

	done := make(map[string]struct{})
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan completed retag: %w", err)
		}
		done[path] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed retags: %w", err)
	}
	return done, nil
}

// Count returns how many paths are recorded for digest.
func (j *Journal) Count(ctx context.Context, digest string) (int, error) {
	query, args, err := j.sb.Select("COUNT(1)").From(table).Where(sq.Eq{"digest": digest}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int
	if err := j.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count retags: %w", err)
	}
	return n, nil
}

// Prune removes entries belonging to any digest other than keep.
func (j *Journal) Prune(ctx context.Context, keep string) error {
	query, args, err := j.sb.Delete(table).Where(sq.NotEq{"digest": keep}).ToSql()
	if err != nil {
		return fmt.Errorf("build prune query: %w", err)
	}
	return j.exec(ctx, query, args...)
}

// Reset removes every entry.
func (j *Journal) Reset(ctx context.Context) error {
	query, args, err := j.sb.Delete(table).ToSql()
	if err != nil {
		return fmt.Errorf("build reset query: %w", err)
	}
	return j.exec(ctx, query, args...)
}

func (j *Journal) exec(ctx context.Context, query string, args ...any) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = j.db.ExecContext(ctx, query, args...)
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
