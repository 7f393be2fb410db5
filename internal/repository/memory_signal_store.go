package repository

import (
	"context"
	"sort"
	"sync"

	"NSEScan/internal/domain/models"
	domrepo "NSEScan/internal/domain/repository"
)

const defaultListLimit = 20

// MemorySignalStore keeps snapshots and runs in process memory.
// It backs tests and deployments without Redis or a writable disk.
type MemorySignalStore struct {
	mu        sync.RWMutex
	byDate    map[string]*models.SignalSnapshot
	snapshots map[string]*models.SignalSnapshot
	latestRun map[string]*models.BacktestRun
	runs      []*models.BacktestRun
}

func NewMemorySignalStore() *MemorySignalStore {
	return &MemorySignalStore{
		byDate:    make(map[string]*models.SignalSnapshot),
		snapshots: make(map[string]*models.SignalSnapshot),
		latestRun: make(map[string]*models.BacktestRun),
	}
}

func (s *MemorySignalStore) SaveSnapshot(_ context.Context, snap *models.SignalSnapshot) (models.SaveSnapshotResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.byDate[snap.ISTDate]
	if !models.ShouldReplace(existing, snap) {
		return models.SaveSnapshotResult{Saved: false, KeptID: existing.ID}, nil
	}

	cp := *snap
	s.byDate[snap.ISTDate] = &cp
	s.snapshots[snap.ID] = &cp
	return models.SaveSnapshotResult{Saved: true, KeptID: snap.ID}, nil
}

// ListSnapshots returns canonical snapshots, newest first.
func (s *MemorySignalStore) ListSnapshots(_ context.Context, q models.SnapshotQuery) ([]*models.SignalSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if q.Date != "" {
		snap, ok := s.byDate[q.Date]
		if !ok {
			return []*models.SignalSnapshot{}, nil
		}
		cp := *snap
		return []*models.SignalSnapshot{&cp}, nil
	}

	out := make([]*models.SignalSnapshot, 0, len(s.byDate))
	for _, snap := range s.byDate {
		cp := *snap
		out = append(out, &cp)
	}
	sortSnapshots(out)
	return truncate(out, q.Limit), nil
}

// GetSnapshot also finds superseded snapshots, which remain addressable by ID.
func (s *MemorySignalStore) GetSnapshot(_ context.Context, id string) (*models.SignalSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return nil, domrepo.ErrNotFound
	}
	cp := *snap
	return &cp, nil
}

func (s *MemorySignalStore) SaveBacktestRun(_ context.Context, r *models.BacktestRun) (models.SaveRunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := r.DedupKey()
	if prev, ok := s.latestRun[key]; ok && r.IsDuplicateOf(prev) {
		return models.SaveRunResult{Saved: false, ExistingRunID: prev.ID}, nil
	}

	cp := *r
	s.latestRun[key] = &cp
	s.runs = append(s.runs, &cp)
	return models.SaveRunResult{Saved: true}, nil
}

// ListBacktestRuns returns runs newest first.
func (s *MemorySignalStore) ListBacktestRuns(_ context.Context, limit int) ([]*models.BacktestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.BacktestRun, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		cp := *s.runs[i]
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, limit), nil
}

func (s *MemorySignalStore) Close() error { return nil }

func sortSnapshots(out []*models.SignalSnapshot) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ISTDate != out[j].ISTDate {
			return out[i].ISTDate > out[j].ISTDate
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}

func truncate[T any](in []T, limit int) []T {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(in) > limit {
		return in[:limit]
	}
	return in
}
