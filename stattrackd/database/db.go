// Package database connects to external services for stateful storage.
package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/xerrors"
)

// Store contains all queryable database functions.
type Store interface {
	querier

	Ping(ctx context.Context) (time.Duration, error)
	InTx(func(Store) error, *sql.TxOptions) error
}

// querier lists every query the pipeline and its tests use. Method
// naming follows the Verb-Model-By-Filter convention.
type querier interface {
	InsertUser(ctx context.Context, arg InsertUserParams) (User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	UpdateUserStatus(ctx context.Context, arg UpdateUserStatusParams) (User, error)

	// InsertHeartbeats bulk-inserts raw heartbeats, silently skipping
	// rows that collide on (user_id, entity, time). Only the rows
	// actually inserted are returned.
	InsertHeartbeats(ctx context.Context, arg InsertHeartbeatsParams) ([]Heartbeat, error)
	GetHeartbeatsByUserID(ctx context.Context, userID uuid.UUID) ([]Heartbeat, error)

	InsertCodingSession(ctx context.Context, arg InsertCodingSessionParams) (CodingSession, error)
	GetCodingSessionsByUserID(ctx context.Context, userID uuid.UUID) ([]CodingSession, error)

	// UpsertDailySummary atomically increments the day's total,
	// creating the row when absent. Never a read-modify-write.
	UpsertDailySummary(ctx context.Context, arg UpsertDailySummaryParams) (DailySummary, error)
	GetDailySummariesByUserID(ctx context.Context, userID uuid.UUID) ([]DailySummary, error)
}

// DBTX represents a database connection or transaction.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// New creates a new database store using a SQL database connection.
func New(sdb *sql.DB) Store {
	dbx := sqlx.NewDb(sdb, "postgres")
	return &sqlQuerier{
		db:  dbx,
		sdb: dbx,
	}
}

type sqlQuerier struct {
	sdb *sqlx.DB
	db  DBTX
}

// Ping returns the time it takes to ping the database.
func (q *sqlQuerier) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	err := q.sdb.PingContext(ctx)
	return time.Since(start), err
}

// InTx performs database operations inside a transaction.
func (q *sqlQuerier) InTx(function func(Store) error, txOpts *sql.TxOptions) error {
	if _, ok := q.db.(*sqlx.Tx); ok {
		// Already in a transaction; the outer InTx handles
		// commit/rollback.
		return function(q)
	}
	transaction, err := q.sdb.BeginTxx(context.Background(), txOpts)
	if err != nil {
		return xerrors.Errorf("begin transaction: %w", err)
	}
	defer func() {
		rerr := transaction.Rollback()
		if rerr == nil || xerrors.Is(rerr, sql.ErrTxDone) {
			// no need to do anything, tx committed successfully
			return
		}
		err = xerrors.Errorf("defer (%s): %w", rerr.Error(), err)
	}()
	err = function(&sqlQuerier{db: transaction, sdb: q.sdb})
	if err != nil {
		return xerrors.Errorf("execute transaction: %w", err)
	}
	err = transaction.Commit()
	if err != nil {
		return xerrors.Errorf("commit transaction: %w", err)
	}
	return nil
}
