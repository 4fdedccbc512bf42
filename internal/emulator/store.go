// Package emulator is a local stand-in for the remote data service. It runs
// the SQL carried by tools/call envelopes against a SQLite database and
// answers in the same JSON or event-stream shapes as the real service.
package emulator

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hyperengineering/waypoint/internal/roadmap"
	"github.com/hyperengineering/waypoint/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Store is the SQLite database behind the emulator.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the database at dbPath, applies pragmas and
// runs migrations. Use ":memory:" for a throwaway database.
func OpenStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: pragmas apply to every statement and writes serialize.
	db.SetMaxOpenConns(1)

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// RunMigrations applies all pending migrations from the embedded migrations FS.
func RunMigrations(db *sql.DB) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

var returningClause = regexp.MustCompile(`(?i)\bRETURNING\b`)

// returnsRows reports whether query produces a result set.
func returnsRows(query string) bool {
	head := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"SELECT", "WITH", "PRAGMA", "VALUES", "EXPLAIN"} {
		if strings.HasPrefix(head, prefix) {
			return true
		}
	}
	return returningClause.MatchString(query)
}

// Run executes query with positional params and returns the result rows
// keyed by column name. Statements without a result set return no rows.
func (s *Store) Run(ctx context.Context, query string, params []any) ([]map[string]any, error) {
	if !returnsRows(query) {
		if _, err := s.db.ExecContext(ctx, query, params...); err != nil {
			return nil, err
		}
		return []map[string]any{}, nil
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = jsonValue(vals[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// jsonValue converts a scanned SQLite value to something encoding/json
// renders the way the remote service does.
func jsonValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05")
	default:
		return x
	}
}

// SeedFeatures inserts features when the features table is empty and
// reports how many rows were written.
func (s *Store) SeedFeatures(ctx context.Context, features []roadmap.Feature) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roadmap_features`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count features: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO roadmap_features (title, description, status, upvotes, category, is_priority)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close()

	for _, f := range features {
		status := f.RawStatus
		if status == "" {
			status = string(f.Status)
		}
		var category any
		if f.Category != "" {
			category = f.Category
		}
		if _, err := stmt.ExecContext(ctx, f.Title, f.Description, status, max(f.Upvotes, 0), category, f.IsPriority); err != nil {
			return 0, fmt.Errorf("seed feature %q: %w", f.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return len(features), nil
}
