package sqlrag

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/tools/sqldatabase"
	_ "github.com/tmc/langchaingo/tools/sqldatabase/sqlite3"
)

// ErrDatabaseNotFound is returned by Open when the file does not exist.
var ErrDatabaseNotFound = errors.New("database file not found")

// Database is a SQLite database opened for schema introspection and querying.
type Database struct {
	path string
	db   *sqldatabase.SQLDatabase
}

// Open opens the SQLite file at path. Unlike the sqlite3 driver, it does not
// create a missing file.
func Open(ctx context.Context, path string) (*Database, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat database %s: %w", path, err)
	}

	db, err := sqldatabase.NewSQLDatabaseWithDSN("sqlite3", path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return &Database{path: path, db: db}, nil
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.path
}

// Tables lists the table names.
func (d *Database) Tables() []string {
	return d.db.TableNames()
}

// Schema returns the CREATE TABLE statements and a few sample rows for the
// given tables, or for every table when none are named.
func (d *Database) Schema(ctx context.Context, tables ...string) (string, error) {
	info, err := d.db.TableInfo(ctx, tables)
	if err != nil {
		return "", fmt.Errorf("failed to read schema: %w", err)
	}
	return info, nil
}

// Query runs a raw SQL statement and returns the formatted result.
func (d *Database) Query(ctx context.Context, query string) (string, error) {
	out, err := d.db.Query(ctx, query)
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (d *Database) Close() error {
	return d.db.Close()
}
