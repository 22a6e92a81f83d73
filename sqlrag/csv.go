package sqlrag

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrInvalidTableName is returned for table names that are not plain identifiers.
	ErrInvalidTableName = errors.New("invalid table name")
	// ErrEmptyCSV is returned when the file has no header row.
	ErrEmptyCSV = errors.New("csv file has no header")
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Column types inferred from CSV values.
const (
	TypeInteger = "INTEGER"
	TypeReal    = "REAL"
	TypeText    = "TEXT"
)

// ImportCSV replaces table in the SQLite file at dbPath with the contents of
// csvPath and returns the number of rows inserted. The file is created if
// missing. The delimiter is ',' or ';', whichever the header uses more.
// Column types are inferred from the data and empty cells become NULL.
func ImportCSV(ctx context.Context, dbPath, table, csvPath string) (int, error) {
	if !tableNamePattern.MatchString(table) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read csv %s: %w", csvPath, err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("failed to parse csv %s: %w", csvPath, err)
	}
	if len(records) == 0 {
		return 0, ErrEmptyCSV
	}

	header, rows := records[0], records[1:]
	types := InferColumnTypes(rows, len(header))

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := insertRows(ctx, tx, table, header, types, rows); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return len(rows), nil
}

func insertRows(ctx context.Context, tx *sql.Tx, table string, header, types []string, rows [][]string) error {
	columns := make([]string, len(header))
	placeholders := make([]string, len(header))
	for i, name := range header {
		columns[i] = fmt.Sprintf("%s %s", quoteIdent(name), types[i])
		placeholders[i] = "?"
	}

	stmts := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(table)),
		fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(columns, ", ")),
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}

	insert, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)",
		quoteIdent(table), strings.Join(placeholders, ", ")))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insert.Close()

	args := make([]any, len(header))
	for n, row := range rows {
		for i := range args {
			args[i] = convertValue(cell(row, i), types[i])
		}
		if _, err := insert.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", n+1, err)
		}
	}
	return nil
}

// InferColumnTypes picks INTEGER, REAL or TEXT for each of n columns. A
// column takes the narrowest type every non-empty value parses as. Columns
// with no values are TEXT.
func InferColumnTypes(rows [][]string, n int) []string {
	types := make([]string, n)
	for i := range types {
		seen, isInt, isReal := false, true, true
		for _, row := range rows {
			v := cell(row, i)
			if v == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isReal = false
				break
			}
		}
		switch {
		case !seen:
			types[i] = TypeText
		case isInt:
			types[i] = TypeInteger
		case isReal:
			types[i] = TypeReal
		default:
			types[i] = TypeText
		}
	}
	return types
}

func convertValue(v, typ string) any {
	if v == "" {
		return nil
	}
	switch typ {
	case TypeInteger:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case TypeReal:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return v
	}
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func sniffDelimiter(data []byte) rune {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
