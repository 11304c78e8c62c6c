package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type User struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Username  string     `db:"username" json:"username"`
	Status    UserStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Heartbeat is a single immutable activity ping from an editor plugin.
// Rows are deduplicated on (user_id, entity, time).
type Heartbeat struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	UserID        uuid.UUID      `db:"user_id" json:"user_id"`
	Entity        string         `db:"entity" json:"entity"`
	Type          sql.NullString `db:"type" json:"type"`
	Project       sql.NullString `db:"project" json:"project"`
	Language      sql.NullString `db:"language" json:"language"`
	Branch        sql.NullString `db:"branch" json:"branch"`
	Category      sql.NullString `db:"category" json:"category"`
	IsWrite       bool           `db:"is_write" json:"is_write"`
	Lines         sql.NullInt64  `db:"lines" json:"lines"`
	LineAdditions sql.NullInt64  `db:"line_additions" json:"line_additions"`
	LineDeletions sql.NullInt64  `db:"line_deletions" json:"line_deletions"`
	Dependencies  sql.NullString `db:"dependencies" json:"dependencies"`
	MachineName   sql.NullString `db:"machine_name" json:"machine_name"`
	Time          time.Time      `db:"time" json:"time"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// CodingSession is a derived contiguous block of coding activity.
// Rows are append-only.
type CodingSession struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	UserID          uuid.UUID      `db:"user_id" json:"user_id"`
	Project         string         `db:"project" json:"project"`
	StartTime       time.Time      `db:"start_time" json:"start_time"`
	EndTime         time.Time      `db:"end_time" json:"end_time"`
	DurationSeconds int64          `db:"duration_seconds" json:"duration_seconds"`
	Branch          sql.NullString `db:"branch" json:"branch"`
	Languages       pq.StringArray `db:"languages" json:"languages"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}

// DailySummary is the per-user, per-calendar-day total coding
// duration. The total only ever increases.
type DailySummary struct {
	UserID               uuid.UUID `db:"user_id" json:"user_id"`
	SummaryDate          time.Time `db:"summary_date" json:"summary_date"`
	TotalDurationSeconds int64     `db:"total_duration_seconds" json:"total_duration_seconds"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}
