package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tidy-go/internal/database/migrations"
	"tidy-go/internal/tidy"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the Database interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every new connection to ":memory:" is a separate empty database.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Migrate applies any pending schema migrations.
func (s *SQLiteDatabase) Migrate() error {
	if err := migrations.MigrateUp(s.db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// CheckMigrations verifies the schema is at the latest version.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Operation tracking

func (s *SQLiteDatabase) CreateOperation(operation, parameters string, startedAt time.Time) (*tidy.OperationRecord, error) {
	res, err := s.db.Exec(
		`INSERT INTO operations (operation, parameters, status, started_at) VALUES (?, ?, 'running', ?)`,
		operation, parameters, startedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading operation id: %w", err)
	}
	return &tidy.OperationRecord{
		ID:         id,
		Operation:  operation,
		Parameters: parameters,
		Status:     "running",
		StartedAt:  startedAt,
	}, nil
}

func (s *SQLiteDatabase) FinishOperation(id int64, status string, finishedAt time.Time) error {
	res, err := s.db.Exec(
		`UPDATE operations SET status = ?, finished_at = ? WHERE id = ?`,
		status, finishedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("operation not found: %d", id)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(limit int) ([]*tidy.OperationRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, operation, parameters, status, started_at, finished_at
		 FROM operations ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*tidy.OperationRecord
	for rows.Next() {
		var op tidy.OperationRecord
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.Status, &op.StartedAt, &op.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// Rule runs

func (s *SQLiteDatabase) CreateRuleRun(run *tidy.RuleRun) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO rule_runs (id, directory, operation, extension, modifier, pattern, destination,
		                        summary, selected, succeeded, failed, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Directory, string(run.Operation), run.Extension, run.Modifier, run.Pattern, run.Destination,
		run.Summary, run.Selected, run.Succeeded, run.Failed, run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting rule run: %w", err)
	}

	for _, f := range run.Failures {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO file_failures (rule_run_id, file_name, error) VALUES (?, ?, ?)`,
			run.ID, f.FileName, f.Error,
		)
		if err != nil {
			return fmt.Errorf("inserting file failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

const ruleRunColumns = `id, directory, operation, extension, modifier, pattern, destination,
	summary, selected, succeeded, failed, started_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRuleRun(row scanner) (*tidy.RuleRun, error) {
	var (
		run tidy.RuleRun
		op  string
	)
	err := row.Scan(&run.ID, &run.Directory, &op, &run.Extension, &run.Modifier, &run.Pattern, &run.Destination,
		&run.Summary, &run.Selected, &run.Succeeded, &run.Failed, &run.StartedAt, &run.FinishedAt)
	if err != nil {
		return nil, err
	}
	run.Operation = tidy.Operation(op)
	return &run, nil
}

func (s *SQLiteDatabase) ListRuleRuns(limit int) ([]*tidy.RuleRun, error) {
	rows, err := s.db.Query(
		`SELECT `+ruleRunColumns+` FROM rule_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing rule runs: %w", err)
	}
	defer rows.Close()

	var runs []*tidy.RuleRun
	for rows.Next() {
		run, err := scanRuleRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rule run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing rule runs: %w", err)
	}
	return runs, nil
}

func (s *SQLiteDatabase) FindRuleRun(id string) (*tidy.RuleRun, error) {
	run, err := scanRuleRun(s.db.QueryRow(`SELECT `+ruleRunColumns+` FROM rule_runs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding rule run: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT file_name, error FROM file_failures WHERE rule_run_id = ? ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("listing file failures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f tidy.FileFailure
		if err := rows.Scan(&f.FileName, &f.Error); err != nil {
			return nil, fmt.Errorf("scanning file failure: %w", err)
		}
		run.Failures = append(run.Failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing file failures: %w", err)
	}
	return run, nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}

// Compile-time check that SQLiteDatabase implements tidy.Database interface
var _ tidy.Database = (*SQLiteDatabase)(nil)
