package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"reading-effort/internal/common/database"
)

// LoadSQLite reads one table from a SQLite file. An empty table name picks
// the first user table by name.
func LoadSQLite(ctx context.Context, path, table string) (*Table, error) {
	db, err := database.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if table == "" {
		table, err = firstUserTable(ctx, db)
		if err != nil {
			return nil, err
		}
	}
	return QueryTable(ctx, db, table)
}

// LoadPostgres reads a whole table (optionally schema-qualified) from Postgres.
func LoadPostgres(ctx context.Context, db *sql.DB, table string) (*Table, error) {
	if table == "" {
		return nil, fmt.Errorf("postgres dataset requires a table name")
	}
	return QueryTable(ctx, db, table)
}

// QueryTable selects every row of table, keeping the driver's column order.
func QueryTable(ctx context.Context, db *sql.DB, table string) (*Table, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteQualified(table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no columns found for table %q", table)
	}

	var out [][]string
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		rec := make([]string, len(cols))
		for i, v := range values {
			rec[i] = formatValue(v)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return NewTable(cols, out), nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

func firstUserTable(ctx context.Context, db *sql.DB) (string, error) {
	const q = `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name LIMIT 1`
	var name string
	if err := db.QueryRowContext(ctx, q).Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("no user tables found")
		}
		return "", err
	}
	return name, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// quoteQualified quotes each dot-separated part of schema.table.
func quoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quoteIdent(p)
	}
	return strings.Join(parts, ".")
}
