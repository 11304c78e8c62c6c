package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const insertUser = `
INSERT INTO users (id, username, status, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id, username, status, created_at
`

type InsertUserParams struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Username  string     `db:"username" json:"username"`
	Status    UserStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

func (q *sqlQuerier) InsertUser(ctx context.Context, arg InsertUserParams) (User, error) {
	var user User
	err := q.db.GetContext(ctx, &user, insertUser, arg.ID, arg.Username, arg.Status, arg.CreatedAt)
	return user, err
}

const getUserByID = `
SELECT id, username, status, created_at FROM users WHERE id = $1
`

func (q *sqlQuerier) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var user User
	err := q.db.GetContext(ctx, &user, getUserByID, id)
	return user, err
}

const updateUserStatus = `
UPDATE users SET status = $2 WHERE id = $1
RETURNING id, username, status, created_at
`

type UpdateUserStatusParams struct {
	ID     uuid.UUID  `db:"id" json:"id"`
	Status UserStatus `db:"status" json:"status"`
}

func (q *sqlQuerier) UpdateUserStatus(ctx context.Context, arg UpdateUserStatusParams) (User, error) {
	var user User
	err := q.db.GetContext(ctx, &user, updateUserStatus, arg.ID, arg.Status)
	return user, err
}

// insertHeartbeats expands parallel arrays so an entire chunk commits
// in one statement. Optional text columns use '' as the absent value
// and optional counters use -1; both are folded to NULL on the way in.
// Conflicting rows (same user, entity and time) are skipped and not
// returned.
const insertHeartbeats = `
INSERT INTO heartbeats (
	id, user_id, entity, type, project, language, branch, category,
	is_write, lines, line_additions, line_deletions, dependencies,
	machine_name, time, created_at
)
SELECT
	unnest($1::uuid[]),
	$2::uuid,
	unnest($3::text[]),
	NULLIF(unnest($4::text[]), ''),
	NULLIF(unnest($5::text[]), ''),
	NULLIF(unnest($6::text[]), ''),
	NULLIF(unnest($7::text[]), ''),
	NULLIF(unnest($8::text[]), ''),
	unnest($9::boolean[]),
	NULLIF(unnest($10::bigint[]), -1),
	NULLIF(unnest($11::bigint[]), -1),
	NULLIF(unnest($12::bigint[]), -1),
	NULLIF(unnest($13::text[]), ''),
	NULLIF(unnest($14::text[]), ''),
	unnest($15::timestamptz[]),
	$16::timestamptz
ON CONFLICT (user_id, entity, time) DO NOTHING
RETURNING id, user_id, entity, type, project, language, branch, category,
	is_write, lines, line_additions, line_deletions, dependencies,
	machine_name, time, created_at
`

type InsertHeartbeatsParams struct {
	ID            []uuid.UUID `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	Entity        []string    `json:"entity"`
	Type          []string    `json:"type"`
	Project       []string    `json:"project"`
	Language      []string    `json:"language"`
	Branch        []string    `json:"branch"`
	Category      []string    `json:"category"`
	IsWrite       []bool      `json:"is_write"`
	Lines         []int64     `json:"lines"`
	LineAdditions []int64     `json:"line_additions"`
	LineDeletions []int64     `json:"line_deletions"`
	Dependencies  []string    `json:"dependencies"`
	MachineName   []string    `json:"machine_name"`
	Time          []time.Time `json:"time"`
	CreatedAt     time.Time   `json:"created_at"`
}

func (q *sqlQuerier) InsertHeartbeats(ctx context.Context, arg InsertHeartbeatsParams) ([]Heartbeat, error) {
	var beats []Heartbeat
	err := q.db.SelectContext(ctx, &beats, insertHeartbeats,
		pq.Array(arg.ID),
		arg.UserID,
		pq.Array(arg.Entity),
		pq.Array(arg.Type),
		pq.Array(arg.Project),
		pq.Array(arg.Language),
		pq.Array(arg.Branch),
		pq.Array(arg.Category),
		pq.Array(arg.IsWrite),
		pq.Array(arg.Lines),
		pq.Array(arg.LineAdditions),
		pq.Array(arg.LineDeletions),
		pq.Array(arg.Dependencies),
		pq.Array(arg.MachineName),
		pq.Array(arg.Time),
		arg.CreatedAt,
	)
	return beats, err
}

const getHeartbeatsByUserID = `
SELECT id, user_id, entity, type, project, language, branch, category,
	is_write, lines, line_additions, line_deletions, dependencies,
	machine_name, time, created_at
FROM heartbeats
WHERE user_id = $1
ORDER BY time ASC
`

func (q *sqlQuerier) GetHeartbeatsByUserID(ctx context.Context, userID uuid.UUID) ([]Heartbeat, error) {
	var beats []Heartbeat
	err := q.db.SelectContext(ctx, &beats, getHeartbeatsByUserID, userID)
	return beats, err
}

const insertCodingSession = `
INSERT INTO coding_sessions (
	id, user_id, project, start_time, end_time, duration_seconds,
	branch, languages, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, user_id, project, start_time, end_time, duration_seconds,
	branch, languages, created_at
`

type InsertCodingSessionParams struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	UserID          uuid.UUID      `db:"user_id" json:"user_id"`
	Project         string         `db:"project" json:"project"`
	StartTime       time.Time      `db:"start_time" json:"start_time"`
	EndTime         time.Time      `db:"end_time" json:"end_time"`
	DurationSeconds int64          `db:"duration_seconds" json:"duration_seconds"`
	Branch          string         `db:"branch" json:"branch"`
	Languages       []string       `db:"languages" json:"languages"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}

func (q *sqlQuerier) InsertCodingSession(ctx context.Context, arg InsertCodingSessionParams) (CodingSession, error) {
	var session CodingSession
	err := q.db.GetContext(ctx, &session, insertCodingSession,
		arg.ID,
		arg.UserID,
		arg.Project,
		arg.StartTime,
		arg.EndTime,
		arg.DurationSeconds,
		newNullString(arg.Branch),
		pq.Array(arg.Languages),
		arg.CreatedAt,
	)
	return session, err
}

const getCodingSessionsByUserID = `
SELECT id, user_id, project, start_time, end_time, duration_seconds,
	branch, languages, created_at
FROM coding_sessions
WHERE user_id = $1
ORDER BY start_time ASC
`

func (q *sqlQuerier) GetCodingSessionsByUserID(ctx context.Context, userID uuid.UUID) ([]CodingSession, error) {
	var sessions []CodingSession
	err := q.db.SelectContext(ctx, &sessions, getCodingSessionsByUserID, userID)
	return sessions, err
}

// upsertDailySummary must stay a single statement. Two sessions
// closing concurrently for the same user and day contend on this row,
// and a read-modify-write here loses updates.
const upsertDailySummary = `
INSERT INTO daily_summaries (user_id, summary_date, total_duration_seconds, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, summary_date) DO UPDATE SET
	total_duration_seconds = daily_summaries.total_duration_seconds + EXCLUDED.total_duration_seconds,
	updated_at = EXCLUDED.updated_at
RETURNING user_id, summary_date, total_duration_seconds, updated_at
`

type UpsertDailySummaryParams struct {
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	SummaryDate     time.Time `db:"summary_date" json:"summary_date"`
	DurationSeconds int64     `db:"duration_seconds" json:"duration_seconds"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

func (q *sqlQuerier) UpsertDailySummary(ctx context.Context, arg UpsertDailySummaryParams) (DailySummary, error) {
	var summary DailySummary
	err := q.db.GetContext(ctx, &summary, upsertDailySummary,
		arg.UserID,
		arg.SummaryDate,
		arg.DurationSeconds,
		arg.UpdatedAt,
	)
	return summary, err
}

const getDailySummariesByUserID = `
SELECT user_id, summary_date, total_duration_seconds, updated_at
FROM daily_summaries
WHERE user_id = $1
ORDER BY summary_date ASC
`

func (q *sqlQuerier) GetDailySummariesByUserID(ctx context.Context, userID uuid.UUID) ([]DailySummary, error) {
	var summaries []DailySummary
	err := q.db.SelectContext(ctx, &summaries, getDailySummariesByUserID, userID)
	return summaries, err
}
