// Package dbgen generates database rows for tests. All methods take
// in a 'seed' object. Any provided fields in the seed will be
// maintained. Any fields omitted will have sensible defaults
// generated.
package dbgen

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database/dbtime"
)

func User(t testing.TB, db database.Store, seed database.User) database.User {
	user, err := db.InsertUser(context.Background(), database.InsertUserParams{
		ID:        takeFirst(seed.ID, uuid.New()),
		Username:  takeFirst(seed.Username, fmt.Sprintf("user-%s", uuid.NewString()[:8])),
		Status:    takeFirst(seed.Status, database.UserStatusActive),
		CreatedAt: takeFirst(seed.CreatedAt, dbtime.Now()),
	})
	require.NoError(t, err, "insert user")
	return user
}

func Heartbeat(t testing.TB, db database.Store, seed database.Heartbeat) database.Heartbeat {
	beats, err := db.InsertHeartbeats(context.Background(), database.InsertHeartbeatsParams{
		ID:            []uuid.UUID{takeFirst(seed.ID, uuid.New())},
		UserID:        takeFirst(seed.UserID, uuid.New()),
		Entity:        []string{takeFirst(seed.Entity, "main.go")},
		Type:          []string{takeFirst(seed.Type.String, "file")},
		Project:       []string{seed.Project.String},
		Language:      []string{seed.Language.String},
		Branch:        []string{seed.Branch.String},
		Category:      []string{takeFirst(seed.Category.String, "coding")},
		IsWrite:       []bool{seed.IsWrite},
		Lines:         []int64{takeFirst(seed.Lines.Int64, -1)},
		LineAdditions: []int64{takeFirst(seed.LineAdditions.Int64, -1)},
		LineDeletions: []int64{takeFirst(seed.LineDeletions.Int64, -1)},
		Dependencies:  []string{seed.Dependencies.String},
		MachineName:   []string{seed.MachineName.String},
		Time:          []time.Time{takeFirst(seed.Time, dbtime.Now())},
		CreatedAt:     takeFirst(seed.CreatedAt, dbtime.Now()),
	})
	require.NoError(t, err, "insert heartbeat")
	require.Len(t, beats, 1, "heartbeat seed collided with an existing row")
	return beats[0]
}

func CodingSession(t testing.TB, db database.Store, seed database.CodingSession) database.CodingSession {
	start := takeFirst(seed.StartTime, dbtime.Now())
	end := takeFirst(seed.EndTime, start.Add(10*time.Minute))
	session, err := db.InsertCodingSession(context.Background(), database.InsertCodingSessionParams{
		ID:              takeFirst(seed.ID, uuid.New()),
		UserID:          takeFirst(seed.UserID, uuid.New()),
		Project:         takeFirst(seed.Project, "unknown"),
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: takeFirst(seed.DurationSeconds, int64(end.Sub(start).Seconds())),
		Branch:          seed.Branch.String,
		Languages:       takeFirstSlice([]string(seed.Languages), []string{"go"}),
		CreatedAt:       takeFirst(seed.CreatedAt, dbtime.Now()),
	})
	require.NoError(t, err, "insert coding session")
	return session
}
