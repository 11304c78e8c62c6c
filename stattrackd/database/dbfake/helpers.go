package dbfake

import (
	"database/sql"

	"github.com/lib/pq"
)

var errUniqueConstraint = &pq.Error{
	Code:    "23505",
	Message: "duplicate key value violates unique constraint",
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt64 folds the bulk-insert absent sentinel to NULL, mirroring
// the NULLIF in the real query.
func nullInt64(v int64) sql.NullInt64 {
	if v == -1 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}
