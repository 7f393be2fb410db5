package repository

import (
	"context"
	"errors"
	"fmt"

	"NSEScan/internal/domain/models"
	domrepo "NSEScan/internal/domain/repository"
	applogger "NSEScan/pkg/logger"
)

// FallbackSignalStore serves every operation from the primary store and
// retries it on the secondary when the primary fails. Not-found is an answer,
// not a failure, and is never retried.
type FallbackSignalStore struct {
	primary   domrepo.SignalStore
	secondary domrepo.SignalStore
	metrics   domrepo.Metrics
	l         *applogger.Logger
}

func NewFallbackSignalStore(primary, secondary domrepo.SignalStore, m domrepo.Metrics, l *applogger.Logger) *FallbackSignalStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &FallbackSignalStore{primary: primary, secondary: secondary, metrics: m, l: l}
}

func (s *FallbackSignalStore) SaveSnapshot(ctx context.Context, snap *models.SignalSnapshot) (models.SaveSnapshotResult, error) {
	return withFallback(s, "save_snapshot", func(st domrepo.SignalStore) (models.SaveSnapshotResult, error) {
		return st.SaveSnapshot(ctx, snap)
	})
}

func (s *FallbackSignalStore) ListSnapshots(ctx context.Context, q models.SnapshotQuery) ([]*models.SignalSnapshot, error) {
	return withFallback(s, "list_snapshots", func(st domrepo.SignalStore) ([]*models.SignalSnapshot, error) {
		return st.ListSnapshots(ctx, q)
	})
}

func (s *FallbackSignalStore) GetSnapshot(ctx context.Context, id string) (*models.SignalSnapshot, error) {
	snap, err := s.primary.GetSnapshot(ctx, id)
	if errors.Is(err, domrepo.ErrNotFound) {
		// May have been written to the secondary while the primary was down.
		return s.secondary.GetSnapshot(ctx, id)
	}
	if err == nil {
		return snap, nil
	}
	return onSecondary(s, "get_snapshot", err, func(st domrepo.SignalStore) (*models.SignalSnapshot, error) {
		return st.GetSnapshot(ctx, id)
	})
}

func (s *FallbackSignalStore) SaveBacktestRun(ctx context.Context, r *models.BacktestRun) (models.SaveRunResult, error) {
	return withFallback(s, "save_backtest_run", func(st domrepo.SignalStore) (models.SaveRunResult, error) {
		return st.SaveBacktestRun(ctx, r)
	})
}

func (s *FallbackSignalStore) ListBacktestRuns(ctx context.Context, limit int) ([]*models.BacktestRun, error) {
	return withFallback(s, "list_backtest_runs", func(st domrepo.SignalStore) ([]*models.BacktestRun, error) {
		return st.ListBacktestRuns(ctx, limit)
	})
}

func (s *FallbackSignalStore) Close() error {
	return errors.Join(s.primary.Close(), s.secondary.Close())
}

func withFallback[T any](s *FallbackSignalStore, op string, call func(domrepo.SignalStore) (T, error)) (T, error) {
	out, err := call(s.primary)
	if err == nil || errors.Is(err, domrepo.ErrNotFound) {
		return out, err
	}
	return onSecondary(s, op, err, call)
}

func onSecondary[T any](s *FallbackSignalStore, op string, err error, call func(domrepo.SignalStore) (T, error)) (T, error) {
	s.l.Warn("primary signal store failed, using secondary",
		applogger.String("op", op),
		applogger.Error(err),
	)
	if s.metrics != nil {
		s.metrics.RecordStoreFallback(op)
	}

	out, err2 := call(s.secondary)
	if err2 != nil {
		return out, fmt.Errorf("%s: primary: %v; secondary: %w", op, err, err2)
	}
	return out, nil
}
