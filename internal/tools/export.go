package tools

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/cabewaldrop/rowdb/internal/logging"
)

const sqliteDriver = "sqlite"

const createUsersTable = `CREATE TABLE users (
	position INTEGER PRIMARY KEY,
	id       INTEGER NOT NULL,
	username TEXT    NOT NULL,
	email    TEXT    NOT NULL
)`

// ExportSQLite copies every row of the database file at src into a new
// SQLite database at dst. Row i is stored with position i, so ordering by
// position reproduces select output.
func ExportSQLite(ctx context.Context, src, dst string) (int, error) {
	rows, err := ReadRows(src)
	if err != nil {
		return 0, err
	}

	if _, err := os.Stat(dst); err == nil {
		return 0, fmt.Errorf("%s: %w", dst, ErrExists)
	}

	db, err := sql.Open(sqliteDriver, dst)
	if err != nil {
		return 0, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createUsersTable); err != nil {
		return 0, fmt.Errorf("failed to create users table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO users (position, id, username, email) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		if _, err := stmt.ExecContext(ctx, i, rows[i].ID, rows[i].UsernameString(), rows[i].EmailString()); err != nil {
			return 0, fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	logging.Info("sqlite export written", "source", src, "path", dst, "rows", len(rows))
	return len(rows), nil
}
