package repository

import (
	"context"
	"errors"

	"NSEScan/internal/domain/models"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("record not found")

// SignalStore persists snapshots and backtest runs.
type SignalStore interface {
	// SaveSnapshot keeps at most one snapshot per IST date, replacing it only
	// when the incoming quality score is not lower.
	SaveSnapshot(ctx context.Context, s *models.SignalSnapshot) (models.SaveSnapshotResult, error)
	ListSnapshots(ctx context.Context, q models.SnapshotQuery) ([]*models.SignalSnapshot, error)
	GetSnapshot(ctx context.Context, id string) (*models.SignalSnapshot, error)
	// SaveBacktestRun skips runs that duplicate an existing run and reports its ID.
	SaveBacktestRun(ctx context.Context, r *models.BacktestRun) (models.SaveRunResult, error)
	ListBacktestRuns(ctx context.Context, limit int) ([]*models.BacktestRun, error)
	Close() error
}

// EventPublisher announces accepted snapshots and persisted runs.
type EventPublisher interface {
	PublishSnapshot(ctx context.Context, s *models.SignalSnapshot) error
	PublishBacktestRun(ctx context.Context, r *models.BacktestRun) error
	Close() error
}

type Metrics interface {
	RecordScan(horizon string, symbols, failures int)
	RecordVerdict(horizon, sentiment string)
	RecordBacktest(verdict string, trades int)
	RecordError(kind string)
	RecordStoreFallback(op string)
	RecordLatency(op string, seconds float64)
}
