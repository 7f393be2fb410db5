package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"NSEScan/internal/domain/models"
	domrepo "NSEScan/internal/domain/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// snapshotRecord stores a snapshot document. Exactly one record per IST date is canonical.
type snapshotRecord struct {
	Seq          uint      `gorm:"primaryKey;autoIncrement"`
	ID           string    `gorm:"uniqueIndex;size:36"`
	ISTDate      string    `gorm:"index;size:10"`
	Canonical    bool      `gorm:"index"`
	QualityScore float64
	CreatedAt    time.Time `gorm:"index"`
	Payload      string
}

func (snapshotRecord) TableName() string { return "signal_snapshots" }

type backtestRunRecord struct {
	Seq         uint      `gorm:"primaryKey;autoIncrement"`
	ID          string    `gorm:"uniqueIndex;size:36"`
	DedupKey    string    `gorm:"index"`
	Fingerprint string    `gorm:"size:64"`
	CreatedAt   time.Time `gorm:"index"`
	Payload     string
}

func (backtestRunRecord) TableName() string { return "backtest_runs" }

// SQLiteSignalStore is the file-based SignalStore used when Redis is absent or failing.
type SQLiteSignalStore struct {
	db *gorm.DB
}

// OpenSQLiteSignalStore opens (creating if needed) the database file at path.
func OpenSQLiteSignalStore(path string) (*SQLiteSignalStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	// A single writer connection avoids SQLITE_BUSY under concurrent saves.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := db.AutoMigrate(&snapshotRecord{}, &backtestRunRecord{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &SQLiteSignalStore{db: db}, nil
}

func (s *SQLiteSignalStore) SaveSnapshot(ctx context.Context, snap *models.SignalSnapshot) (models.SaveSnapshotResult, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return models.SaveSnapshotResult{}, fmt.Errorf("marshal snapshot: %w", err)
	}

	var result models.SaveSnapshotResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current snapshotRecord
		err := tx.Where("ist_date = ? AND canonical = ?", snap.ISTDate, true).First(&current).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return err
		default:
			existing, err := decodeSnapshot(current.Payload)
			if err != nil {
				return err
			}
			if !models.ShouldReplace(existing, snap) {
				result = models.SaveSnapshotResult{Saved: false, KeptID: current.ID}
				return nil
			}
			if err := tx.Model(&snapshotRecord{}).Where("seq = ?", current.Seq).Update("canonical", false).Error; err != nil {
				return err
			}
		}

		rec := snapshotRecord{
			ID:           snap.ID,
			ISTDate:      snap.ISTDate,
			Canonical:    true,
			QualityScore: snap.QualityScore,
			CreatedAt:    snap.CreatedAt,
			Payload:      string(payload),
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		result = models.SaveSnapshotResult{Saved: true, KeptID: snap.ID}
		return nil
	})
	if err != nil {
		return models.SaveSnapshotResult{}, fmt.Errorf("save snapshot %s: %w", snap.ISTDate, err)
	}
	return result, nil
}

func (s *SQLiteSignalStore) ListSnapshots(ctx context.Context, q models.SnapshotQuery) ([]*models.SignalSnapshot, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := s.db.WithContext(ctx).Where("canonical = ?", true)
	if q.Date != "" {
		query = query.Where("ist_date = ?", q.Date)
	}

	var recs []snapshotRecord
	if err := query.Order("ist_date DESC").Order("created_at DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	out := make([]*models.SignalSnapshot, 0, len(recs))
	for _, rec := range recs {
		snap, err := decodeSnapshot(rec.Payload)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *SQLiteSignalStore) GetSnapshot(ctx context.Context, id string) (*models.SignalSnapshot, error) {
	var rec snapshotRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domrepo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return decodeSnapshot(rec.Payload)
}

func (s *SQLiteSignalStore) SaveBacktestRun(ctx context.Context, r *models.BacktestRun) (models.SaveRunResult, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return models.SaveRunResult{}, fmt.Errorf("marshal run: %w", err)
	}
	key := r.DedupKey()

	var result models.SaveRunResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prev backtestRunRecord
		err := tx.Where("dedup_key = ?", key).Order("seq DESC").First(&prev).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && prev.Fingerprint == r.Fingerprint {
			result = models.SaveRunResult{Saved: false, ExistingRunID: prev.ID}
			return nil
		}

		rec := backtestRunRecord{
			ID:          r.ID,
			DedupKey:    key,
			Fingerprint: r.Fingerprint,
			CreatedAt:   r.CreatedAt,
			Payload:     string(payload),
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		result = models.SaveRunResult{Saved: true}
		return nil
	})
	if err != nil {
		return models.SaveRunResult{}, fmt.Errorf("save backtest run: %w", err)
	}
	return result, nil
}

func (s *SQLiteSignalStore) ListBacktestRuns(ctx context.Context, limit int) ([]*models.BacktestRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var recs []backtestRunRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("seq DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list backtest runs: %w", err)
	}

	out := make([]*models.BacktestRun, 0, len(recs))
	for _, rec := range recs {
		var run models.BacktestRun
		if err := json.Unmarshal([]byte(rec.Payload), &run); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", rec.ID, err)
		}
		out = append(out, &run)
	}
	return out, nil
}

func (s *SQLiteSignalStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func decodeSnapshot(payload string) (*models.SignalSnapshot, error) {
	var snap models.SignalSnapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
