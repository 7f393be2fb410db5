package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"NSEScan/internal/domain/models"
	domrepo "NSEScan/internal/domain/repository"
	applogger "NSEScan/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const maxWatchRetries = 3

// RedisSignalStore keeps snapshots and runs as JSON documents with sorted-set indexes.
//
// Keys (under prefix):
//
//	snapshot:{date}          canonical snapshot of an IST day
//	snapshot:id:{id}         every saved snapshot, superseded ones included
//	snapshots                zset of dates scored by yyyymmdd
//	backtest:latest:{dedup}  most recent run for a dedup key
//	backtest:run:{id}        run document
//	backtests                zset of run IDs scored by creation time
type RedisSignalStore struct {
	client *redis.Client
	prefix string
	l      *applogger.Logger
}

func NewRedisSignalStore(client *redis.Client, prefix string, l *applogger.Logger) *RedisSignalStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &RedisSignalStore{client: client, prefix: prefix, l: l}
}

func (s *RedisSignalStore) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

func (s *RedisSignalStore) SaveSnapshot(ctx context.Context, snap *models.SignalSnapshot) (models.SaveSnapshotResult, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return models.SaveSnapshotResult{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	dayKey := s.key("snapshot", snap.ISTDate)
	score, err := dateScore(snap.ISTDate)
	if err != nil {
		return models.SaveSnapshotResult{}, err
	}

	var result models.SaveSnapshotResult
	txf := func(tx *redis.Tx) error {
		existing, err := getJSON[models.SignalSnapshot](ctx, tx, dayKey)
		if err != nil && !errors.Is(err, domrepo.ErrNotFound) {
			return err
		}
		if !models.ShouldReplace(existing, snap) {
			result = models.SaveSnapshotResult{Saved: false, KeptID: existing.ID}
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, dayKey, payload, 0)
			pipe.Set(ctx, s.key("snapshot", "id", snap.ID), payload, 0)
			pipe.ZAdd(ctx, s.key("snapshots"), redis.Z{Score: score, Member: snap.ISTDate})
			return nil
		})
		if err == nil {
			result = models.SaveSnapshotResult{Saved: true, KeptID: snap.ID}
		}
		return err
	}

	if err := s.watch(ctx, txf, dayKey); err != nil {
		return models.SaveSnapshotResult{}, fmt.Errorf("save snapshot %s: %w", snap.ISTDate, err)
	}
	s.l.Debug("redis snapshot save",
		applogger.String("date", snap.ISTDate),
		applogger.Bool("saved", result.Saved),
		applogger.String("kept_id", result.KeptID),
	)
	return result, nil
}

func (s *RedisSignalStore) ListSnapshots(ctx context.Context, q models.SnapshotQuery) ([]*models.SignalSnapshot, error) {
	if q.Date != "" {
		snap, err := getJSON[models.SignalSnapshot](ctx, s.client, s.key("snapshot", q.Date))
		if errors.Is(err, domrepo.ErrNotFound) {
			return []*models.SignalSnapshot{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get snapshot %s: %w", q.Date, err)
		}
		return []*models.SignalSnapshot{snap}, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	dates, err := s.client.ZRevRange(ctx, s.key("snapshots"), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list snapshot dates: %w", err)
	}
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = s.key("snapshot", d)
	}
	out, err := mgetJSON[models.SignalSnapshot](ctx, s.client, keys)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

func (s *RedisSignalStore) GetSnapshot(ctx context.Context, id string) (*models.SignalSnapshot, error) {
	snap, err := getJSON[models.SignalSnapshot](ctx, s.client, s.key("snapshot", "id", id))
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *RedisSignalStore) SaveBacktestRun(ctx context.Context, r *models.BacktestRun) (models.SaveRunResult, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return models.SaveRunResult{}, fmt.Errorf("marshal run: %w", err)
	}
	latestKey := s.key("backtest", "latest", r.DedupKey())

	var result models.SaveRunResult
	txf := func(tx *redis.Tx) error {
		prev, err := getJSON[models.BacktestRun](ctx, tx, latestKey)
		if err != nil && !errors.Is(err, domrepo.ErrNotFound) {
			return err
		}
		if r.IsDuplicateOf(prev) {
			result = models.SaveRunResult{Saved: false, ExistingRunID: prev.ID}
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, latestKey, payload, 0)
			pipe.Set(ctx, s.key("backtest", "run", r.ID), payload, 0)
			pipe.ZAdd(ctx, s.key("backtests"), redis.Z{Score: float64(r.CreatedAt.UnixMilli()), Member: r.ID})
			return nil
		})
		if err == nil {
			result = models.SaveRunResult{Saved: true}
		}
		return err
	}

	if err := s.watch(ctx, txf, latestKey); err != nil {
		return models.SaveRunResult{}, fmt.Errorf("save backtest run: %w", err)
	}
	return result, nil
}

func (s *RedisSignalStore) ListBacktestRuns(ctx context.Context, limit int) ([]*models.BacktestRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	ids, err := s.client.ZRevRange(ctx, s.key("backtests"), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list backtest ids: %w", err)
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key("backtest", "run", id)
	}
	out, err := mgetJSON[models.BacktestRun](ctx, s.client, keys)
	if err != nil {
		return nil, fmt.Errorf("list backtest runs: %w", err)
	}
	return out, nil
}

// Close is a no-op; the client is shared with the cache and closed there.
func (s *RedisSignalStore) Close() error { return nil }

// watch runs txf under WATCH, retrying when a concurrent writer touched the keys.
func (s *RedisSignalStore) watch(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	var err error
	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err = s.client.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.l.Warn("redis optimistic lock conflict, retrying",
			applogger.Strings("keys", keys),
			applogger.Int("attempt", attempt+1),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 10 * time.Millisecond):
		}
	}
	return err
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getJSON[T any](ctx context.Context, c stringGetter, key string) (*T, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domrepo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &v, nil
}

func mgetJSON[T any](ctx context.Context, c *redis.Client, keys []string) ([]*T, error) {
	out := make([]*T, 0, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, raw := range vals {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(str), &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, &v)
	}
	return out, nil
}

// dateScore turns YYYY-MM-DD into a sortable yyyymmdd number.
func dateScore(date string) (float64, error) {
	n, err := strconv.Atoi(strings.ReplaceAll(date, "-", ""))
	if err != nil || len(date) != 10 {
		return 0, fmt.Errorf("invalid snapshot date %q", date)
	}
	return float64(n), nil
}
