package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"NSEScan/internal/domain/models"
	domrepo "NSEScan/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(id, date string, quality float64, created time.Time) *models.SignalSnapshot {
	return &models.SignalSnapshot{
		ID:           id,
		CreatedAt:    created,
		ISTDate:      date,
		ISTTime:      "10:30",
		Horizon:      models.HorizonSwing,
		QualityScore: quality,
		Picks:        []models.SnapshotPick{{Symbol: "TCS", EntryPrice: 100, StopLoss: 98, Target1: 104, Target2: 106}},
	}
}

func run(id, fingerprint string, created time.Time) *models.BacktestRun {
	return &models.BacktestRun{
		ID:             id,
		CreatedAt:      created,
		TradeDate:      "2025-03-05",
		Capital:        100000,
		AllocationMode: models.AllocationSplitEvenly,
		SnapshotID:     "snap-1",
		Fingerprint:    fingerprint,
	}
}

// storeContract runs the behaviour every SignalStore must share.
func storeContract(t *testing.T, newStore func(t *testing.T) domrepo.SignalStore) {
	t.Run("keeps higher quality snapshot per day", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		t0 := time.Date(2025, 3, 5, 4, 0, 0, 0, time.UTC)

		res, err := st.SaveSnapshot(ctx, snapshot("a", "2025-03-05", 60, t0))
		require.NoError(t, err)
		assert.True(t, res.Saved)

		res, err = st.SaveSnapshot(ctx, snapshot("b", "2025-03-05", 55, t0.Add(time.Hour)))
		require.NoError(t, err)
		assert.False(t, res.Saved)
		assert.Equal(t, "a", res.KeptID)

		res, err = st.SaveSnapshot(ctx, snapshot("c", "2025-03-05", 60, t0.Add(2*time.Hour)))
		require.NoError(t, err)
		assert.True(t, res.Saved, "ties go to the newer snapshot")
		assert.Equal(t, "c", res.KeptID)

		list, err := st.ListSnapshots(ctx, models.SnapshotQuery{Date: "2025-03-05"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "c", list[0].ID)

		got, err := st.GetSnapshot(ctx, "a")
		require.NoError(t, err, "superseded snapshots stay addressable")
		assert.Equal(t, 60.0, got.QualityScore)

		_, err = st.GetSnapshot(ctx, "b")
		assert.ErrorIs(t, err, domrepo.ErrNotFound, "rejected snapshots are not stored")
	})

	t.Run("lists newest days first", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		t0 := time.Date(2025, 3, 3, 4, 0, 0, 0, time.UTC)
		for i, d := range []string{"2025-03-03", "2025-03-05", "2025-03-04"} {
			_, err := st.SaveSnapshot(ctx, snapshot("s"+d, d, 50, t0.Add(time.Duration(i)*time.Hour)))
			require.NoError(t, err)
		}

		list, err := st.ListSnapshots(ctx, models.SnapshotQuery{Limit: 2})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "2025-03-05", list[0].ISTDate)
		assert.Equal(t, "2025-03-04", list[1].ISTDate)

		list, err = st.ListSnapshots(ctx, models.SnapshotQuery{Date: "2025-01-01"})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("deduplicates identical backtest runs", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		t0 := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

		res, err := st.SaveBacktestRun(ctx, run("r1", "fp1", t0))
		require.NoError(t, err)
		assert.True(t, res.Saved)

		res, err = st.SaveBacktestRun(ctx, run("r2", "fp1", t0.Add(time.Minute)))
		require.NoError(t, err)
		assert.False(t, res.Saved)
		assert.Equal(t, "r1", res.ExistingRunID)

		res, err = st.SaveBacktestRun(ctx, run("r3", "fp2", t0.Add(2*time.Minute)))
		require.NoError(t, err)
		assert.True(t, res.Saved, "different trades are a new run")

		runs, err := st.ListBacktestRuns(ctx, 10)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "r3", runs[0].ID)
		assert.Equal(t, "r1", runs[1].ID)
	})
}

func TestMemorySignalStore(t *testing.T) {
	storeContract(t, func(t *testing.T) domrepo.SignalStore { return NewMemorySignalStore() })
}

func TestSQLiteSignalStore(t *testing.T) {
	storeContract(t, func(t *testing.T) domrepo.SignalStore {
		st, err := OpenSQLiteSignalStore(filepath.Join(t.TempDir(), "nested", "signals.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		return st
	})
}

// brokenStore fails every call.
type brokenStore struct{ err error }

func (b brokenStore) SaveSnapshot(context.Context, *models.SignalSnapshot) (models.SaveSnapshotResult, error) {
	return models.SaveSnapshotResult{}, b.err
}
func (b brokenStore) ListSnapshots(context.Context, models.SnapshotQuery) ([]*models.SignalSnapshot, error) {
	return nil, b.err
}
func (b brokenStore) GetSnapshot(context.Context, string) (*models.SignalSnapshot, error) {
	return nil, b.err
}
func (b brokenStore) SaveBacktestRun(context.Context, *models.BacktestRun) (models.SaveRunResult, error) {
	return models.SaveRunResult{}, b.err
}
func (b brokenStore) ListBacktestRuns(context.Context, int) ([]*models.BacktestRun, error) {
	return nil, b.err
}
func (b brokenStore) Close() error { return nil }

type fallbackCounter struct {
	ops []string
}

func (f *fallbackCounter) RecordScan(string, int, int)   {}
func (f *fallbackCounter) RecordVerdict(string, string)  {}
func (f *fallbackCounter) RecordBacktest(string, int)    {}
func (f *fallbackCounter) RecordError(string)            {}
func (f *fallbackCounter) RecordLatency(string, float64) {}
func (f *fallbackCounter) RecordStoreFallback(op string) { f.ops = append(f.ops, op) }

func TestFallbackSignalStoreContract(t *testing.T) {
	storeContract(t, func(t *testing.T) domrepo.SignalStore {
		return NewFallbackSignalStore(brokenStore{err: errors.New("redis down")}, NewMemorySignalStore(), nil, nil)
	})
}

func TestFallbackSignalStoreRecordsFallbacks(t *testing.T) {
	m := &fallbackCounter{}
	secondary := NewMemorySignalStore()
	st := NewFallbackSignalStore(brokenStore{err: errors.New("redis down")}, secondary, m, nil)
	ctx := context.Background()

	res, err := st.SaveSnapshot(ctx, snapshot("a", "2025-03-05", 50, time.Now()))
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.Equal(t, []string{"save_snapshot"}, m.ops)

	got, err := secondary.GetSnapshot(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
}

func TestFallbackSignalStoreUsesPrimaryWhenHealthy(t *testing.T) {
	m := &fallbackCounter{}
	primary, secondary := NewMemorySignalStore(), NewMemorySignalStore()
	st := NewFallbackSignalStore(primary, secondary, m, nil)
	ctx := context.Background()

	_, err := st.SaveSnapshot(ctx, snapshot("a", "2025-03-05", 50, time.Now()))
	require.NoError(t, err)
	assert.Empty(t, m.ops)

	_, err = secondary.GetSnapshot(ctx, "a")
	assert.ErrorIs(t, err, domrepo.ErrNotFound)
}

func TestFallbackSignalStoreGetChecksSecondaryOnNotFound(t *testing.T) {
	primary, secondary := NewMemorySignalStore(), NewMemorySignalStore()
	st := NewFallbackSignalStore(primary, secondary, nil, nil)
	ctx := context.Background()

	_, err := secondary.SaveSnapshot(ctx, snapshot("offline", "2025-03-04", 50, time.Now()))
	require.NoError(t, err)

	got, err := st.GetSnapshot(ctx, "offline")
	require.NoError(t, err)
	assert.Equal(t, "offline", got.ID)
}

func TestFallbackSignalStoreBothFail(t *testing.T) {
	boom := errors.New("disk full")
	st := NewFallbackSignalStore(brokenStore{err: errors.New("redis down")}, brokenStore{err: boom}, nil, nil)

	_, err := st.ListBacktestRuns(context.Background(), 5)
	assert.ErrorIs(t, err, boom)
}

func TestDateScore(t *testing.T) {
	v, err := dateScore("2025-03-05")
	require.NoError(t, err)
	assert.Equal(t, 20250305.0, v)

	_, err = dateScore("March 5")
	assert.Error(t, err)
}
