package sqlite

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// columnKind is the Go type a filter value must have for a column.
type columnKind int

const (
	kindString columnKind = iota
	kindInt
)

// filterColumns maps filter keys to their column kinds for one table.
type filterColumns map[string]columnKind

// where builds an AND-ed equality clause from filter. Unknown keys and
// values of the wrong type return ErrInvalidFilter. Keys are visited in
// sorted order so the generated SQL is stable.
func where(filter types.Filter, cols filterColumns) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conditions []string
	var args []any
	for _, k := range keys {
		kind, ok := cols[k]
		if !ok {
			return "", nil, fmt.Errorf("%w: unknown key %q", types.ErrInvalidFilter, k)
		}
		v := filter[k]
		switch kind {
		case kindString:
			s, ok := v.(string)
			if !ok {
				return "", nil, fmt.Errorf("%w: %s must be a string", types.ErrInvalidFilter, k)
			}
			conditions = append(conditions, k+" = ?")
			args = append(args, s)
		case kindInt:
			switch n := v.(type) {
			case int:
				args = append(args, int64(n))
			case int64:
				args = append(args, n)
			default:
				return "", nil, fmt.Errorf("%w: %s must be an integer", types.ErrInvalidFilter, k)
			}
			conditions = append(conditions, k+" = ?")
		}
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

// exists reports whether a row with the given primary key is present.
func exists(db *sql.DB, table, column, id string) (bool, error) {
	var one int
	err := db.QueryRow("SELECT 1 FROM "+table+" WHERE "+column+" = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s existence: %w", table, err)
	}
	return true, nil
}

// deleteByID removes one row and maps a zero row count to ErrNotFound.
func deleteByID(db *sql.DB, table, column, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	res, err := db.Exec("DELETE FROM "+table+" WHERE "+column+" = ?", id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// formatTime stores timestamps as RFC 3339 with nanoseconds so values
// round-trip exactly.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// collect drains rows through hydrate. It always returns a non-nil slice.
func collect(rows *sql.Rows, hydrate func(rowScanner) (any, error)) ([]any, error) {
	defer rows.Close()
	results := []any{}
	for rows.Next() {
		entity, err := hydrate(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return results, nil
}

// isConstraint reports whether err is a SQLite constraint failure
// (UNIQUE, FOREIGN KEY, NOT NULL).
func isConstraint(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

// isUnique reports whether err is a SQLite UNIQUE constraint failure.
func isUnique(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// mapWriteErr converts constraint failures into the types error taxonomy.
func mapWriteErr(what string, err error) error {
	switch {
	case isUnique(err):
		return fmt.Errorf("%w: %s: %v", types.ErrDuplicate, what, err)
	case isConstraint(err):
		return fmt.Errorf("%w: %s: %v", types.ErrIntegrity, what, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
