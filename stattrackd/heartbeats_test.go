package stattrackd_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackdtest"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattracksdk"
	"github.com/ymohit1603/StatTrack-Backend-sub000/testutil"
)

func TestPostHeartbeats(t *testing.T) {
	t.Parallel()

	base := float64(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC).Unix())

	t.Run("OK", func(t *testing.T) {
		t.Parallel()

		client, db := stattrackdtest.New(t, nil)
		user := stattrackdtest.CreateUser(t, client, db)

		ctx := testutil.Context(t, testutil.WaitLong)
		count, err := client.PostHeartbeats(ctx, []stattracksdk.Heartbeat{
			{Entity: "main.go", Project: "api", Language: "go", Time: base},
			{Entity: "main.go", Project: "api", Language: "go", Time: base + 30},
			{Entity: "parse.go", Project: "api", Language: "go", Time: base + 100},
			{Entity: "main.go", Project: "api", Language: "go", Time: base + 820},
		})
		require.NoError(t, err)
		require.Equal(t, 4, count)

		beats, err := db.GetHeartbeatsByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, beats, 4)

		sessions, err := db.GetCodingSessionsByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		require.Equal(t, int64(820), sessions[0].DurationSeconds)
	})

	t.Run("FractionalTimestamps", func(t *testing.T) {
		t.Parallel()

		client, db := stattrackdtest.New(t, nil)
		user := stattrackdtest.CreateUser(t, client, db)

		ctx := testutil.Context(t, testutil.WaitLong)
		count, err := client.PostHeartbeats(ctx, []stattracksdk.Heartbeat{
			{Entity: "main.go", Project: "api", Time: base + 0.25},
			{Entity: "main.go", Project: "api", Time: base + 90.5},
		})
		require.NoError(t, err)
		require.Equal(t, 2, count)

		sessions, err := db.GetCodingSessionsByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		// 90.25s of wall time rounds up to a whole second.
		require.Equal(t, int64(91), sessions[0].DurationSeconds)
	})

	t.Run("SplitSessionsSumIntoSummary", func(t *testing.T) {
		t.Parallel()

		client, db := stattrackdtest.New(t, nil)
		user := stattrackdtest.CreateUser(t, client, db)

		// One batch with a long idle gap: two sessions of 70s and
		// 100s, and a single daily total of 170s.
		ctx := testutil.Context(t, testutil.WaitLong)
		count, err := client.PostHeartbeats(ctx, []stattracksdk.Heartbeat{
			{Entity: "main.go", Project: "api", Time: base},
			{Entity: "main.go", Project: "api", Time: base + 50},
			{Entity: "main.go", Project: "api", Time: base + 70},
			{Entity: "main.go", Project: "api", Time: base + 2000},
			{Entity: "main.go", Project: "api", Time: base + 2010},
			{Entity: "main.go", Project: "api", Time: base + 2100},
		})
		require.NoError(t, err)
		require.Equal(t, 6, count)

		sessions, err := db.GetCodingSessionsByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		require.Equal(t, int64(70), sessions[0].DurationSeconds)
		require.Equal(t, int64(100), sessions[1].DurationSeconds)

		summaries, err := db.GetDailySummariesByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		require.Equal(t, int64(170), summaries[0].TotalDurationSeconds)
	})

	t.Run("ReplayDoesNotInflateSummaries", func(t *testing.T) {
		t.Parallel()

		client, db := stattrackdtest.New(t, nil)
		user := stattrackdtest.CreateUser(t, client, db)

		beats := []stattracksdk.Heartbeat{
			{Entity: "main.go", Project: "api", Time: base},
			{Entity: "main.go", Project: "api", Time: base + 90},
		}
		ctx := testutil.Context(t, testutil.WaitLong)
		_, err := client.PostHeartbeats(ctx, beats)
		require.NoError(t, err)
		_, err = client.PostHeartbeats(ctx, beats)
		require.NoError(t, err)

		summaries, err := db.GetDailySummariesByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		require.Equal(t, int64(90), summaries[0].TotalDurationSeconds)
	})

	t.Run("NoToken", func(t *testing.T) {
		t.Parallel()

		client, _ := stattrackdtest.New(t, nil)

		ctx := testutil.Context(t, testutil.WaitLong)
		_, err := client.PostHeartbeats(ctx, []stattracksdk.Heartbeat{
			{Entity: "main.go", Time: base},
		})
		var sdkErr *stattracksdk.Error
		require.ErrorAs(t, err, &sdkErr)
		require.Equal(t, 401, sdkErr.StatusCode())
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		t.Parallel()

		client, db := stattrackdtest.New(t, nil)
		user := stattrackdtest.CreateUser(t, client, db)
		client.SessionToken = stattrackdtest.MintExpiredSessionToken(t, stattrackdtest.DefaultSecret, user.ID)

		ctx := testutil.Context(t, testutil.WaitLong)
		_, err := client.PostHeartbeats(ctx, []stattracksdk.Heartbeat{
			{Entity: "main.go", Time: base},
		})
		var sdkErr *stattracksdk.Error
		require.ErrorAs(t, err, &sdkErr)
		require.Equal(t, 401, sdkErr.StatusCode())
	})

	t.Run("SuspendedUser", func(t *testing.T) {
		t.Parallel()

		client, db := stattrackdtest.New(t, nil)
		user := stattrackdtest.CreateUser(t, client, db)

		ctx := testutil.Context(t, testutil.WaitLong)
		_, err := db.UpdateUserStatus(ctx, database.UpdateUserStatusParams{
			ID:     user.ID,
			Status: database.UserStatusSuspended,
		})
		require.NoError(t, err)

		_, err = client.PostHeartbeats(ctx, []stattracksdk.Heartbeat{
			{Entity: "main.go", Time: base},
		})
		var sdkErr *stattracksdk.Error
		require.ErrorAs(t, err, &sdkErr)
		require.Equal(t, 401, sdkErr.StatusCode())
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		t.Parallel()

		client, db := stattrackdtest.New(t, nil)
		stattrackdtest.CreateUser(t, client, db)

		ctx := testutil.Context(t, testutil.WaitLong)
		_, err := client.PostHeartbeats(ctx, []stattracksdk.Heartbeat{})
		var sdkErr *stattracksdk.Error
		require.ErrorAs(t, err, &sdkErr)
		require.Equal(t, 400, sdkErr.StatusCode())
	})

	t.Run("MissingEntity", func(t *testing.T) {
		t.Parallel()

		client, db := stattrackdtest.New(t, nil)
		stattrackdtest.CreateUser(t, client, db)

		ctx := testutil.Context(t, testutil.WaitLong)
		_, err := client.PostHeartbeats(ctx, []stattracksdk.Heartbeat{
			{Time: base},
		})
		var sdkErr *stattracksdk.Error
		require.ErrorAs(t, err, &sdkErr)
		require.Equal(t, 400, sdkErr.StatusCode())
		require.NotEmpty(t, sdkErr.Validations)
	})

	t.Run("ChunkedBatch", func(t *testing.T) {
		t.Parallel()

		client, db := stattrackdtest.New(t, &stattrackdtest.Options{
			IngestChunkSize: 5,
		})
		user := stattrackdtest.CreateUser(t, client, db)

		beats := make([]stattracksdk.Heartbeat, 0, 17)
		for i := 0; i < 17; i++ {
			beats = append(beats, stattracksdk.Heartbeat{
				Entity:  "main.go",
				Project: "api",
				Time:    base + float64(i*10),
			})
		}
		ctx := testutil.Context(t, testutil.WaitLong)
		count, err := client.PostHeartbeats(ctx, beats)
		require.NoError(t, err)
		require.Equal(t, 17, count)

		stored, err := db.GetHeartbeatsByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, stored, 17)
	})
}

func TestBuildInfo(t *testing.T) {
	t.Parallel()

	client, _ := stattrackdtest.New(t, nil)
	ctx := testutil.Context(t, testutil.WaitLong)
	info, err := client.BuildInfo(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, info.Version)
	require.NotEmpty(t, info.ExternalURL)
}
