// Package ingest turns raw heartbeat batches into durable rows,
// reconstructed coding sessions and daily summary increments.
package ingest

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"cdr.dev/slog/v3"
	"cdr.dev/slog/v3/sloggers/sloghuman"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database/dbtime"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/sessionkey"
)

const (
	// DefaultChunkSize bounds the size of a single bulk insert and of
	// the slice handed to session reconstruction.
	DefaultChunkSize = 1000
)

// ErrEmptyBatch is returned for a batch with no heartbeats. The
// boundary layer rejects these first; the core checks defensively.
var ErrEmptyBatch = xerrors.New("heartbeat batch is empty")

// Heartbeat is a validated inbound activity ping. Counter fields are
// -1 when the client did not report them.
type Heartbeat struct {
	Entity        string
	Type          string
	Category      string
	Project       string
	Language      string
	Branch        string
	Dependencies  string
	MachineName   string
	IsWrite       bool
	Lines         int64
	LineAdditions int64
	LineDeletions int64
	Time          time.Time
}

// Ingestor drives the batch pipeline: resolve the credential once,
// then persist chunks in order while reconstruction of already
// durable chunks proceeds concurrently.
type Ingestor struct {
	db         database.Store
	resolver   sessionkey.Resolver
	aggregator *Aggregator
	log        slog.Logger
	chunkSize  int
	metrics    *metrics
}

// Option is a functional option for configuring an Ingestor.
type Option func(*Ingestor)

// WithChunkSize sets how many heartbeats commit per bulk insert.
func WithChunkSize(size int) Option {
	return func(i *Ingestor) {
		i.chunkSize = size
	}
}

// WithLogger sets the logger to use for logging.
func WithLogger(log slog.Logger) Option {
	return func(i *Ingestor) {
		i.log = log
	}
}

// WithRegisterer registers the pipeline counters.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(i *Ingestor) {
		i.metrics.register(reg)
	}
}

// New creates a new Ingestor.
func New(db database.Store, resolver sessionkey.Resolver, opts ...Option) (*Ingestor, error) {
	i := &Ingestor{
		db:        db,
		resolver:  resolver,
		log:       slog.Make(sloghuman.Sink(os.Stderr)),
		chunkSize: DefaultChunkSize,
		metrics:   newMetrics(),
	}
	for _, opt := range opts {
		opt(i)
	}

	if i.db == nil {
		return nil, xerrors.Errorf("no store configured for ingestor")
	}
	if i.resolver == nil {
		return nil, xerrors.Errorf("no credential resolver configured for ingestor")
	}
	if i.chunkSize <= 0 {
		return nil, xerrors.Errorf("chunk size must be positive, got %d", i.chunkSize)
	}
	i.aggregator = NewAggregator(i.db, i.log)

	return i, nil
}

// Ingest processes one heartbeat batch presented under one credential
// and returns the number of heartbeats accepted. A credential failure
// aborts before any storage write. A storage failure aborts the
// failing chunk and everything after it; chunks already committed
// stay committed.
func (i *Ingestor) Ingest(ctx context.Context, credential string, beats []Heartbeat) (int, error) {
	if len(beats) == 0 {
		return 0, ErrEmptyBatch
	}

	// One credential maps to one user for the whole request, so a
	// single resolution covers every chunk.
	userID, err := i.resolver.Resolve(ctx, credential)
	if err != nil {
		return 0, err
	}

	var accepted atomic.Int64
	inserted := make(chan []database.Heartbeat)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer close(inserted)
		for start := 0; start < len(beats); start += i.chunkSize {
			end := start + i.chunkSize
			if end > len(beats) {
				end = len(beats)
			}
			chunk := beats[start:end]

			rows, err := i.db.InsertHeartbeats(egCtx, buildInsertParams(userID, chunk))
			if err != nil {
				return xerrors.Errorf("insert heartbeats: %w", err)
			}
			accepted.Add(int64(len(chunk)))
			i.metrics.heartbeatsAccepted.Add(float64(len(chunk)))
			i.metrics.heartbeatsDeduplicated.Add(float64(len(chunk) - len(rows)))

			if len(rows) == 0 {
				// Every row was a duplicate; nothing new to window.
				continue
			}
			select {
			case inserted <- rows:
			case <-egCtx.Done():
				return egCtx.Err()
			}
		}
		return nil
	})
	eg.Go(func() error {
		for rows := range inserted {
			// Only rows the insert actually created are windowed, so
			// replaying a batch cannot double-count summaries.
			for _, session := range ReconstructSessions(rows) {
				if err := i.aggregator.Commit(egCtx, session); err != nil {
					i.log.Error(egCtx, "commit session",
						slog.F("user_id", session.UserID),
						slog.F("project", session.Project),
						slog.Error(err),
					)
					return err
				}
				i.metrics.sessionsCommitted.Inc()
			}
		}
		return nil
	})

	err = eg.Wait()
	return int(accepted.Load()), err
}

func buildInsertParams(userID uuid.UUID, chunk []Heartbeat) database.InsertHeartbeatsParams {
	params := database.InsertHeartbeatsParams{
		ID:            make([]uuid.UUID, 0, len(chunk)),
		UserID:        userID,
		Entity:        make([]string, 0, len(chunk)),
		Type:          make([]string, 0, len(chunk)),
		Project:       make([]string, 0, len(chunk)),
		Language:      make([]string, 0, len(chunk)),
		Branch:        make([]string, 0, len(chunk)),
		Category:      make([]string, 0, len(chunk)),
		IsWrite:       make([]bool, 0, len(chunk)),
		Lines:         make([]int64, 0, len(chunk)),
		LineAdditions: make([]int64, 0, len(chunk)),
		LineDeletions: make([]int64, 0, len(chunk)),
		Dependencies:  make([]string, 0, len(chunk)),
		MachineName:   make([]string, 0, len(chunk)),
		Time:          make([]time.Time, 0, len(chunk)),
		CreatedAt:     dbtime.Now(),
	}
	for _, beat := range chunk {
		params.ID = append(params.ID, uuid.New())
		params.Entity = append(params.Entity, beat.Entity)
		params.Type = append(params.Type, beat.Type)
		params.Project = append(params.Project, beat.Project)
		params.Language = append(params.Language, beat.Language)
		params.Branch = append(params.Branch, beat.Branch)
		params.Category = append(params.Category, beat.Category)
		params.IsWrite = append(params.IsWrite, beat.IsWrite)
		params.Lines = append(params.Lines, beat.Lines)
		params.LineAdditions = append(params.LineAdditions, beat.LineAdditions)
		params.LineDeletions = append(params.LineDeletions, beat.LineDeletions)
		params.Dependencies = append(params.Dependencies, beat.Dependencies)
		params.MachineName = append(params.MachineName, beat.MachineName)
		params.Time = append(params.Time, dbtime.Time(beat.Time))
	}
	return params
}
