package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Converter exports sqlite tables as a postgres script
type Converter struct {
	db *SQL
}

// NewConverter creates a new converter for the given SQL engine
func NewConverter(db *SQL) *Converter {
	return &Converter{db: db}
}

var reSqliteIndexIfNotExists = regexp.MustCompile(`(?i)\s+IF\s+NOT\s+EXISTS`)

// SqliteToPostgres writes schema, data (as COPY blocks) and indexes of the given sqlite tables
// as a single postgres transaction. Missing tables are skipped.
func (c *Converter) SqliteToPostgres(ctx context.Context, w io.Writer, tables ...string) error {
	if c.db.dbType != Sqlite {
		return fmt.Errorf("source database must be sqlite, got %q", c.db.dbType)
	}
	if len(tables) == 0 {
		return errors.New("no tables to convert")
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = fmt.Fprintf(w, "-- sqlite to postgres export\n-- generated: %s\n-- gid: %s\n\nBEGIN;\n\n",
		time.Now().Format(time.RFC3339), c.db.gid); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, table := range tables {
		var createStmt string
		err := tx.GetContext(ctx, &createStmt, "SELECT sql FROM sqlite_master WHERE type='table' AND name=?", table)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return fmt.Errorf("failed to get schema of %s: %w", table, err)
		}
		if err := c.convertTable(ctx, tx, w, table, createStmt); err != nil {
			return fmt.Errorf("failed to convert %s: %w", table, err)
		}
	}

	if _, err := io.WriteString(w, "COMMIT;\n"); err != nil {
		return fmt.Errorf("failed to write commit: %w", err)
	}
	return nil
}

type sqliteColumn struct {
	Name string `db:"name"`
	Type string `db:"type"`
}

func (c *Converter) convertTable(ctx context.Context, tx *sqlx.Tx, w io.Writer, table, createStmt string) error {
	if _, err := fmt.Fprintf(w, "%s;\n\n", convertTableSchema(createStmt)); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}

	var cols []sqliteColumn
	if err := tx.SelectContext(ctx, &cols, "SELECT name, type FROM pragma_table_info(?)", table); err != nil {
		return fmt.Errorf("failed to get columns: %w", err)
	}
	if err := c.exportRows(ctx, tx, w, table, cols); err != nil {
		return err
	}

	var indexes []string
	err := tx.SelectContext(ctx, &indexes,
		"SELECT sql FROM sqlite_master WHERE type='index' AND tbl_name=? AND sql IS NOT NULL", table)
	if err != nil {
		return fmt.Errorf("failed to get indexes: %w", err)
	}
	for _, idx := range indexes {
		if _, err := fmt.Fprintf(w, "%s;\n", reSqliteIndexIfNotExists.ReplaceAllString(idx, "")); err != nil {
			return fmt.Errorf("failed to write index: %w", err)
		}
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func (c *Converter) exportRows(ctx context.Context, tx *sqlx.Tx, w io.Writer, table string, cols []sqliteColumn) error {
	names := make([]string, 0, len(cols))
	for _, col := range cols {
		names = append(names, col.Name)
	}

	rows, err := tx.QueryxContext(ctx, fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), table))
	if err != nil {
		return fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	header := false
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if !header {
			if _, err := fmt.Fprintf(w, "COPY %s (%s) FROM stdin;\n", table, strings.Join(names, ", ")); err != nil {
				return fmt.Errorf("failed to write copy header: %w", err)
			}
			header = true
		}
		fields := make([]string, len(vals))
		for i, v := range vals {
			fields[i] = formatCopyValue(v, strings.EqualFold(cols[i].Type, "BOOLEAN"))
		}
		if _, err := fmt.Fprintf(w, "%s\n", strings.Join(fields, "\t")); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate rows: %w", err)
	}
	if header {
		if _, err := io.WriteString(w, "\\.\n\n"); err != nil {
			return fmt.Errorf("failed to write copy end: %w", err)
		}
	}
	return nil
}

// convertTableSchema converts sqlite column types and defaults to postgres ones
func convertTableSchema(stmt string) string {
	replacer := strings.NewReplacer(
		"INTEGER PRIMARY KEY AUTOINCREMENT", "SERIAL PRIMARY KEY",
		"DATETIME", "TIMESTAMP",
		"BLOB", "BYTEA",
		"REAL", "DOUBLE PRECISION",
		"BOOLEAN NOT NULL DEFAULT 0", "BOOLEAN NOT NULL DEFAULT false",
		"BOOLEAN NOT NULL DEFAULT 1", "BOOLEAN NOT NULL DEFAULT true",
		"BOOLEAN DEFAULT 0", "BOOLEAN DEFAULT false",
		"BOOLEAN DEFAULT 1", "BOOLEAN DEFAULT true",
	)
	return replacer.Replace(stmt)
}

// formatCopyValue formats a value for postgres COPY text format
func formatCopyValue(v any, boolean bool) string {
	if boolean {
		switch b := v.(type) {
		case int64:
			return map[bool]string{true: "t", false: "f"}[b != 0]
		case bool:
			return map[bool]string{true: "t", false: "f"}[b]
		}
	}
	switch val := v.(type) {
	case nil:
		return `\N`
	case []byte:
		return escapeCopy(string(val))
	case string:
		return escapeCopy(val)
	case time.Time:
		return val.UTC().Format("2006-01-02 15:04:05.999999")
	case bool:
		if val {
			return "t"
		}
		return "f"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func escapeCopy(s string) string {
	return strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`).Replace(s)
}
