// Package sqlutil holds small database/sql helpers used by the run ledger.
package sqlutil

import (
	"database/sql"
	"strings"
)

// InClause returns "?, ?, ?" placeholders for values plus the matching args.
// Empty values yield "NULL" so `IN (NULL)` matches nothing.
func InClause[S ~string](values []S) (string, []any) {
	if len(values) == 0 {
		return "NULL", nil
	}
	ph := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		ph[i] = "?"
		args[i] = string(v)
	}
	return strings.Join(ph, ", "), args
}

// ScanRows scans and closes rows using scan for each row.
func ScanRows[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
