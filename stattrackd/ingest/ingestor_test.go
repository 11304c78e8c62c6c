package ingest_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database/dbfake"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database/dbgen"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/ingest"
	"github.com/ymohit1603/StatTrack-Backend-sub000/testutil"
)

// fixedResolver resolves every credential to the same user, or fails.
type fixedResolver struct {
	userID uuid.UUID
	err    error
}

func (r fixedResolver) Resolve(_ context.Context, _ string) (uuid.UUID, error) {
	if r.err != nil {
		return uuid.Nil, r.err
	}
	return r.userID, nil
}

// insertFailStore fails the nth InsertHeartbeats call and records how
// many were attempted.
type insertFailStore struct {
	database.Store
	calls  atomic.Int64
	failOn int64
	err    error
}

func (s *insertFailStore) InsertHeartbeats(ctx context.Context, arg database.InsertHeartbeatsParams) ([]database.Heartbeat, error) {
	if s.calls.Add(1) == s.failOn {
		return nil, s.err
	}
	return s.Store.InsertHeartbeats(ctx, arg)
}

func TestIngest(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("OK", func(t *testing.T) {
		t.Parallel()

		db := dbfake.New()
		user := dbgen.User(t, db, database.User{})
		ingestor, err := ingest.New(db, fixedResolver{userID: user.ID},
			ingest.WithLogger(testutil.Logger(t)),
		)
		require.NoError(t, err)

		ctx := testutil.Context(t, testutil.WaitShort)
		beats := []ingest.Heartbeat{
			{Entity: "main.go", Project: "api", Language: "go", Time: base, Lines: -1, LineAdditions: -1, LineDeletions: -1},
			{Entity: "main.go", Project: "api", Language: "go", Time: base.Add(30 * time.Second), Lines: -1, LineAdditions: -1, LineDeletions: -1},
			{Entity: "parse.go", Project: "api", Language: "go", Time: base.Add(100 * time.Second), Lines: -1, LineAdditions: -1, LineDeletions: -1},
			{Entity: "main.go", Project: "api", Language: "go", Time: base.Add(820 * time.Second), Lines: -1, LineAdditions: -1, LineDeletions: -1},
		}
		accepted, err := ingestor.Ingest(ctx, "token", beats)
		require.NoError(t, err)
		require.Equal(t, 4, accepted)

		stored, err := db.GetHeartbeatsByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, stored, 4)

		sessions, err := db.GetCodingSessionsByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		require.Equal(t, int64(820), sessions[0].DurationSeconds)

		summaries, err := db.GetDailySummariesByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		require.Equal(t, int64(820), summaries[0].TotalDurationSeconds)
		require.True(t, summaries[0].SummaryDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("Chunked", func(t *testing.T) {
		t.Parallel()

		db := dbfake.New()
		user := dbgen.User(t, db, database.User{})
		ingestor, err := ingest.New(db, fixedResolver{userID: user.ID},
			ingest.WithLogger(testutil.Logger(t)),
			ingest.WithChunkSize(10),
		)
		require.NoError(t, err)

		ctx := testutil.Context(t, testutil.WaitShort)
		beats := make([]ingest.Heartbeat, 0, 35)
		for i := 0; i < 35; i++ {
			beats = append(beats, ingest.Heartbeat{
				Entity:        fmt.Sprintf("file-%d.go", i),
				Project:       "api",
				Time:          base.Add(time.Duration(i) * 10 * time.Second),
				Lines:         -1,
				LineAdditions: -1,
				LineDeletions: -1,
			})
		}
		accepted, err := ingestor.Ingest(ctx, "token", beats)
		require.NoError(t, err)
		require.Equal(t, 35, accepted)

		stored, err := db.GetHeartbeatsByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, stored, 35)
	})

	t.Run("ReplayIsIdempotent", func(t *testing.T) {
		t.Parallel()

		db := dbfake.New()
		user := dbgen.User(t, db, database.User{})
		ingestor, err := ingest.New(db, fixedResolver{userID: user.ID},
			ingest.WithLogger(testutil.Logger(t)),
		)
		require.NoError(t, err)

		ctx := testutil.Context(t, testutil.WaitShort)
		beats := []ingest.Heartbeat{
			{Entity: "main.go", Project: "api", Time: base, Lines: -1, LineAdditions: -1, LineDeletions: -1},
			{Entity: "main.go", Project: "api", Time: base.Add(90 * time.Second), Lines: -1, LineAdditions: -1, LineDeletions: -1},
		}
		accepted, err := ingestor.Ingest(ctx, "token", beats)
		require.NoError(t, err)
		require.Equal(t, 2, accepted)

		// A retried delivery of the same batch dedups every row and
		// must not grow sessions or summaries.
		accepted, err = ingestor.Ingest(ctx, "token", beats)
		require.NoError(t, err)
		require.Equal(t, 2, accepted)

		stored, err := db.GetHeartbeatsByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, stored, 2)

		sessions, err := db.GetCodingSessionsByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 1)

		summaries, err := db.GetDailySummariesByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		require.Equal(t, int64(90), summaries[0].TotalDurationSeconds)
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		t.Parallel()

		db := dbfake.New()
		ingestor, err := ingest.New(db, fixedResolver{userID: uuid.New()},
			ingest.WithLogger(testutil.Logger(t)),
		)
		require.NoError(t, err)

		ctx := testutil.Context(t, testutil.WaitShort)
		_, err = ingestor.Ingest(ctx, "token", nil)
		require.ErrorIs(t, err, ingest.ErrEmptyBatch)
	})

	t.Run("CredentialFailureWritesNothing", func(t *testing.T) {
		t.Parallel()

		db := dbfake.New()
		user := dbgen.User(t, db, database.User{})
		resolveErr := xerrors.New("bad credential")
		ingestor, err := ingest.New(db, fixedResolver{err: resolveErr},
			ingest.WithLogger(testutil.Logger(t)),
		)
		require.NoError(t, err)

		ctx := testutil.Context(t, testutil.WaitShort)
		beats := []ingest.Heartbeat{
			{Entity: "main.go", Time: base, Lines: -1, LineAdditions: -1, LineDeletions: -1},
		}
		accepted, err := ingestor.Ingest(ctx, "token", beats)
		require.ErrorIs(t, err, resolveErr)
		require.Zero(t, accepted)

		stored, err := db.GetHeartbeatsByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Empty(t, stored)
	})

	t.Run("ChunkFailureKeepsPriorChunks", func(t *testing.T) {
		t.Parallel()

		inner := dbfake.New()
		user := dbgen.User(t, inner, database.User{})
		insertErr := xerrors.New("insert failed")
		db := &insertFailStore{Store: inner, failOn: 2, err: insertErr}
		ingestor, err := ingest.New(db, fixedResolver{userID: user.ID},
			ingest.WithLogger(testutil.Logger(t)),
			ingest.WithChunkSize(2),
		)
		require.NoError(t, err)

		ctx := testutil.Context(t, testutil.WaitShort)
		beats := make([]ingest.Heartbeat, 0, 6)
		for i := 0; i < 6; i++ {
			beats = append(beats, ingest.Heartbeat{
				Entity:        fmt.Sprintf("file-%d.go", i),
				Project:       "api",
				Time:          base.Add(time.Duration(i) * 10 * time.Second),
				Lines:         -1,
				LineAdditions: -1,
				LineDeletions: -1,
			})
		}
		accepted, err := ingestor.Ingest(ctx, "token", beats)
		require.ErrorIs(t, err, insertErr)

		// The first chunk stays committed, the failing chunk and
		// everything after it never land, and no insert is attempted
		// past the failure.
		require.Equal(t, 2, accepted)
		stored, err := inner.GetHeartbeatsByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, stored, 2)
		require.EqualValues(t, 2, db.calls.Load())
	})

	t.Run("ShortNoiseAcceptedNotWindowed", func(t *testing.T) {
		t.Parallel()

		db := dbfake.New()
		user := dbgen.User(t, db, database.User{})
		ingestor, err := ingest.New(db, fixedResolver{userID: user.ID},
			ingest.WithLogger(testutil.Logger(t)),
		)
		require.NoError(t, err)

		ctx := testutil.Context(t, testutil.WaitShort)
		beats := []ingest.Heartbeat{
			{Entity: "main.go", Project: "api", Time: base, Lines: -1, LineAdditions: -1, LineDeletions: -1},
			{Entity: "main.go", Project: "api", Time: base.Add(1000 * time.Second), Lines: -1, LineAdditions: -1, LineDeletions: -1},
		}
		accepted, err := ingestor.Ingest(ctx, "token", beats)
		require.NoError(t, err)
		require.Equal(t, 2, accepted)

		// Both rows land durably but neither window clears the
		// minimum duration.
		stored, err := db.GetHeartbeatsByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, stored, 2)

		sessions, err := db.GetCodingSessionsByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.Empty(t, sessions)
	})

	t.Run("BadConfig", func(t *testing.T) {
		t.Parallel()

		_, err := ingest.New(nil, fixedResolver{userID: uuid.New()})
		require.Error(t, err)
		_, err = ingest.New(dbfake.New(), nil)
		require.Error(t, err)
		_, err = ingest.New(dbfake.New(), fixedResolver{userID: uuid.New()}, ingest.WithChunkSize(0))
		require.Error(t, err)
	})
}
