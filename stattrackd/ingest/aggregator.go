package ingest

import (
	"context"
	"time"

	"github.com/coder/retry"
	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"cdr.dev/slog/v3"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database/dbtime"
)

// maxCommitAttempts bounds retries of a transiently failing write.
const maxCommitAttempts = 3

// Aggregator persists reconstructed sessions and folds each one into
// the owning day's summary.
type Aggregator struct {
	db  database.Store
	log slog.Logger
}

func NewAggregator(db database.Store, log slog.Logger) *Aggregator {
	return &Aggregator{
		db:  db,
		log: log,
	}
}

// Commit inserts the session row and atomically increments the daily
// summary for the UTC day of the session start. Sessions are
// append-only; the summary row is created lazily on first write.
func (a *Aggregator) Commit(ctx context.Context, session Session) error {
	now := dbtime.Now()

	err := a.withRetry(ctx, "insert coding session", func() error {
		_, err := a.db.InsertCodingSession(ctx, database.InsertCodingSessionParams{
			ID:              uuid.New(),
			UserID:          session.UserID,
			Project:         session.Project,
			StartTime:       dbtime.Time(session.StartTime),
			EndTime:         dbtime.Time(session.EndTime),
			DurationSeconds: session.DurationSeconds,
			Branch:          session.Branch,
			Languages:       session.Languages,
			CreatedAt:       now,
		})
		return err
	})
	if err != nil {
		return xerrors.Errorf("insert coding session: %w", err)
	}

	err = a.withRetry(ctx, "upsert daily summary", func() error {
		_, err := a.db.UpsertDailySummary(ctx, database.UpsertDailySummaryParams{
			UserID:          session.UserID,
			SummaryDate:     dbtime.StartOfDay(session.StartTime),
			DurationSeconds: session.DurationSeconds,
			UpdatedAt:       now,
		})
		return err
	})
	if err != nil {
		return xerrors.Errorf("upsert daily summary: %w", err)
	}

	return nil
}

// withRetry re-runs fn on transient storage errors with capped
// backoff. Non-transient errors surface immediately.
func (a *Aggregator) withRetry(ctx context.Context, what string, fn func() error) error {
	var err error
	retrier := retry.New(100*time.Millisecond, time.Second)
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !database.IsTransientError(err) {
			return err
		}
		if attempt >= maxCommitAttempts {
			return err
		}
		a.log.Warn(ctx, "retrying transient storage error",
			slog.F("operation", what),
			slog.F("attempt", attempt),
			slog.Error(err),
		)
		if !retrier.Wait(ctx) {
			return err
		}
	}
}
