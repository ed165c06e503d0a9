package db

import (
	"context"
	"database/sql"
	"errors"
)

// QueryRower is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// HasTable reports whether table exists in the current schema. Any lookup
// error, bad connections included, reads as "no".
func HasTable(ctx context.Context, q QueryRower, table string) bool {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	return err == nil && name.Valid
}

// ColumnType returns the lower-case data type of table.column, or "" when
// the column is missing or the lookup fails.
func ColumnType(ctx context.Context, q QueryRower, table, column string) string {
	var typ sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT LOWER(data_type)
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		  AND column_name = ?
		LIMIT 1
	`, table, column).Scan(&typ)
	if err != nil || !typ.Valid {
		return ""
	}
	return typ.String
}

// IsNoRows reports sql.ErrNoRows through wrapping.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
