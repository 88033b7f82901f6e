package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Statement is a parameterized SQL statement produced by the synthesizer
// (C7). Args are always passed positionally to pgx, never interpolated, so
// user-controlled values can never change the query's shape (spec §4.3,
// §7 "SQL injection is structurally impossible").
type Statement struct {
	Text string
	Args []any
}

// Row is one result row from Query, keyed by column name in select order.
type Row map[string]any

// QueryResult is the outcome of executing a Statement.
type QueryResult struct {
	Columns   []string
	Rows      []Row
	Truncated bool // true if rowCap was hit
}

// Query executes stmt read-only, enforcing that it is a single SELECT
// statement and capping the number of rows returned. It is the only path by
// which synthesized SQL reaches the database (spec §4.3, §6 rowCap).
func (s *Store) Query(ctx context.Context, stmt Statement, rowCap int, timeout time.Duration) (QueryResult, error) {
	if err := validateSelectOnly(stmt.Text); err != nil {
		return QueryResult{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rows, err := s.pool.Query(cctx, stmt.Text, stmt.Args...)
	if err != nil {
		return QueryResult{}, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = string(f.Name)
	}

	result := QueryResult{Columns: cols}
	for rows.Next() {
		if len(result.Rows) >= rowCap {
			result.Truncated = true
			break
		}
		values, err := rows.Values()
		if err != nil {
			return QueryResult{}, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil && err != pgx.ErrNoRows {
		return QueryResult{}, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// validateSelectOnly rejects anything but a single read-only SELECT
// statement. It is a coarse defense-in-depth check; the real guarantee is
// that the store account these pools connect with has no write grants on
// argo_profiles/argo_measurements for query traffic.
func validateSelectOnly(sql string) error {
	trimmed := strings.TrimSpace(sql)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") {
		return fmt.Errorf("query must be a SELECT statement")
	}
	if strings.Contains(trimmed, ";") && !strings.HasSuffix(strings.TrimSpace(trimmed), ";") {
		return fmt.Errorf("query must not contain multiple statements")
	}
	for _, forbidden := range []string{"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "TRUNCATE", "GRANT", "CREATE"} {
		if strings.Contains(upper, forbidden) {
			return fmt.Errorf("query contains forbidden keyword %q", forbidden)
		}
	}
	return nil
}
