package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// UniqueConstraint names the unique constraints the pipeline relies
// on.
type UniqueConstraint string

const (
	UniqueHeartbeatsUserEntityTime UniqueConstraint = "heartbeats_user_id_entity_time_key"
	UniqueUsersUsername            UniqueConstraint = "users_username_key"
)

// IsUniqueViolation checks if the error is due to a unique violation.
// If one or more specific unique constraints are given as arguments,
// the error must be caused by one of them. If no constraints are
// given, this function returns true for any unique violation.
func IsUniqueViolation(err error, uniqueConstraints ...UniqueConstraint) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Name() == "unique_violation" {
			if len(uniqueConstraints) == 0 {
				return true
			}
			for _, uc := range uniqueConstraints {
				if pqErr.Constraint == string(uc) {
					return true
				}
			}
		}
	}

	return false
}

func IsSerializedError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "serialization_failure"
	}
	return false
}

// IsQueryCanceledError checks if the error is due to a query being canceled.
func IsQueryCanceledError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "57014" // query_canceled
	} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return false
}

// IsTransientError reports whether a write is worth retrying: the
// statement failed for reasons unrelated to its content.
func IsTransientError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08": // connection exceptions
			return true
		case "40": // serialization_failure, deadlock_detected
			return true
		case "53": // insufficient resources
			return true
		}
		return false
	}
	return false
}

func newNullString(s string) sql.NullString {
	return sql.NullString{
		String: s,
		Valid:  s != "",
	}
}
