// Package dbfake is an in-memory implementation of database.Store for
// tests. It replicates the constraint semantics the pipeline depends
// on: the heartbeat dedup skip and the atomic summary increment.
package dbfake

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database/dbtime"
)

// New returns an in-memory fake of the database.
func New() database.Store {
	return &fakeQuerier{
		mutex: &sync.RWMutex{},
		data: &data{
			users:          make([]database.User, 0),
			heartbeats:     make([]database.Heartbeat, 0),
			codingSessions: make([]database.CodingSession, 0),
			dailySummaries: make([]database.DailySummary, 0),
		},
	}
}

type fakeQuerier struct {
	mutex *sync.RWMutex
	data  *data
}

type data struct {
	users          []database.User
	heartbeats     []database.Heartbeat
	codingSessions []database.CodingSession
	dailySummaries []database.DailySummary
}

func (*fakeQuerier) Ping(_ context.Context) (time.Duration, error) {
	return 0, nil
}

func (q *fakeQuerier) InTx(fn func(database.Store) error, _ *sql.TxOptions) error {
	// The fake does not support rollback; the single mutex already
	// serializes all writes.
	return fn(q)
}

func (q *fakeQuerier) InsertUser(_ context.Context, arg database.InsertUserParams) (database.User, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for _, user := range q.data.users {
		if user.Username == arg.Username {
			return database.User{}, errUniqueConstraint
		}
	}

	user := database.User{
		ID:        arg.ID,
		Username:  arg.Username,
		Status:    arg.Status,
		CreatedAt: arg.CreatedAt,
	}
	q.data.users = append(q.data.users, user)
	return user, nil
}

func (q *fakeQuerier) GetUserByID(_ context.Context, id uuid.UUID) (database.User, error) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	for _, user := range q.data.users {
		if user.ID == id {
			return user, nil
		}
	}
	return database.User{}, sql.ErrNoRows
}

func (q *fakeQuerier) UpdateUserStatus(_ context.Context, arg database.UpdateUserStatusParams) (database.User, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for i, user := range q.data.users {
		if user.ID == arg.ID {
			q.data.users[i].Status = arg.Status
			return q.data.users[i], nil
		}
	}
	return database.User{}, sql.ErrNoRows
}

func (q *fakeQuerier) InsertHeartbeats(_ context.Context, arg database.InsertHeartbeatsParams) ([]database.Heartbeat, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	inserted := make([]database.Heartbeat, 0, len(arg.ID))
	for i := range arg.ID {
		if q.heartbeatExistsLocked(arg.UserID, arg.Entity[i], arg.Time[i]) {
			// ON CONFLICT DO NOTHING
			continue
		}
		beat := database.Heartbeat{
			ID:            arg.ID[i],
			UserID:        arg.UserID,
			Entity:        arg.Entity[i],
			Type:          nullString(arg.Type[i]),
			Project:       nullString(arg.Project[i]),
			Language:      nullString(arg.Language[i]),
			Branch:        nullString(arg.Branch[i]),
			Category:      nullString(arg.Category[i]),
			IsWrite:       arg.IsWrite[i],
			Lines:         nullInt64(arg.Lines[i]),
			LineAdditions: nullInt64(arg.LineAdditions[i]),
			LineDeletions: nullInt64(arg.LineDeletions[i]),
			Dependencies:  nullString(arg.Dependencies[i]),
			MachineName:   nullString(arg.MachineName[i]),
			Time:          arg.Time[i],
			CreatedAt:     arg.CreatedAt,
		}
		q.data.heartbeats = append(q.data.heartbeats, beat)
		inserted = append(inserted, beat)
	}
	return inserted, nil
}

func (q *fakeQuerier) heartbeatExistsLocked(userID uuid.UUID, entity string, t time.Time) bool {
	for _, beat := range q.data.heartbeats {
		if beat.UserID == userID && beat.Entity == entity && beat.Time.Equal(t) {
			return true
		}
	}
	return false
}

func (q *fakeQuerier) GetHeartbeatsByUserID(_ context.Context, userID uuid.UUID) ([]database.Heartbeat, error) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	beats := make([]database.Heartbeat, 0)
	for _, beat := range q.data.heartbeats {
		if beat.UserID == userID {
			beats = append(beats, beat)
		}
	}
	sort.Slice(beats, func(i, j int) bool {
		return beats[i].Time.Before(beats[j].Time)
	})
	return beats, nil
}

func (q *fakeQuerier) InsertCodingSession(_ context.Context, arg database.InsertCodingSessionParams) (database.CodingSession, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	session := database.CodingSession{
		ID:              arg.ID,
		UserID:          arg.UserID,
		Project:         arg.Project,
		StartTime:       arg.StartTime,
		EndTime:         arg.EndTime,
		DurationSeconds: arg.DurationSeconds,
		Branch:          nullString(arg.Branch),
		Languages:       arg.Languages,
		CreatedAt:       arg.CreatedAt,
	}
	q.data.codingSessions = append(q.data.codingSessions, session)
	return session, nil
}

func (q *fakeQuerier) GetCodingSessionsByUserID(_ context.Context, userID uuid.UUID) ([]database.CodingSession, error) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	sessions := make([]database.CodingSession, 0)
	for _, session := range q.data.codingSessions {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
	return sessions, nil
}

func (q *fakeQuerier) UpsertDailySummary(_ context.Context, arg database.UpsertDailySummaryParams) (database.DailySummary, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	date := dbtime.StartOfDay(arg.SummaryDate)
	for i, summary := range q.data.dailySummaries {
		if summary.UserID == arg.UserID && summary.SummaryDate.Equal(date) {
			q.data.dailySummaries[i].TotalDurationSeconds += arg.DurationSeconds
			q.data.dailySummaries[i].UpdatedAt = arg.UpdatedAt
			return q.data.dailySummaries[i], nil
		}
	}

	summary := database.DailySummary{
		UserID:               arg.UserID,
		SummaryDate:          date,
		TotalDurationSeconds: arg.DurationSeconds,
		UpdatedAt:            arg.UpdatedAt,
	}
	q.data.dailySummaries = append(q.data.dailySummaries, summary)
	return summary, nil
}

func (q *fakeQuerier) GetDailySummariesByUserID(_ context.Context, userID uuid.UUID) ([]database.DailySummary, error) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	summaries := make([]database.DailySummary, 0)
	for _, summary := range q.data.dailySummaries {
		if summary.UserID == userID {
			summaries = append(summaries, summary)
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SummaryDate.Before(summaries[j].SummaryDate)
	})
	return summaries, nil
}
