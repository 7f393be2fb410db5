package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"NSEScan/internal/domain/models"
	domrepo "NSEScan/internal/domain/repository"
	applogger "NSEScan/pkg/logger"
)

const candleInsertChunk = 2000

// CandleArchiveSchema returns the DDL for the intraday candle table.
func CandleArchiveSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.intraday_candles (
            symbol LowCardinality(String),
            interval LowCardinality(String),
            ts DateTime64(3, 'UTC'),
            open Float64,
            high Float64,
            low Float64,
            close Float64,
            volume Float64,
            inserted_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(inserted_at)
        PARTITION BY toYYYYMM(ts)
        ORDER BY (symbol, interval, ts)`, database),
	}
}

// CHCandleArchive implements CandleArchive backed by ClickHouse.
type CHCandleArchive struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHCandleArchive(db *sql.DB, database string, l *applogger.Logger) *CHCandleArchive {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHCandleArchive{db: db, table: database + ".intraday_candles", l: l}
}

// LoadCandles returns archived candles in [from, to], oldest first.
func (s *CHCandleArchive) LoadCandles(ctx context.Context, symbol string, iv domrepo.Interval, from, to time.Time) ([]models.Candle, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT ts, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ? AND interval = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `, s.table)

	rows, err := s.db.QueryContext(ctx, q, symbol, string(iv), from.UTC(), to.UTC())
	if err != nil {
		s.l.Error("clickhouse load_candles query error",
			applogger.String("symbol", symbol),
			applogger.String("interval", string(iv)),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("load candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 400)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("clickhouse load_candles ok",
		applogger.String("symbol", symbol),
		applogger.String("interval", string(iv)),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

// SaveCandles appends candles; ReplacingMergeTree collapses re-archived bars.
func (s *CHCandleArchive) SaveCandles(ctx context.Context, symbol string, iv domrepo.Interval, candles []models.Candle) error {
	for startIdx := 0; startIdx < len(candles); startIdx += candleInsertChunk {
		end := startIdx + candleInsertChunk
		if end > len(candles) {
			end = len(candles)
		}
		q, args := buildCandleInsert(s.table, symbol, iv, candles[startIdx:end])
		if len(args) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse save_candles error",
				applogger.String("symbol", symbol),
				applogger.String("interval", string(iv)),
				applogger.Int("rows", end-startIdx),
				applogger.Error(err),
			)
			return fmt.Errorf("save candles: %w", err)
		}
	}
	return nil
}

// buildCandleInsert renders one multi-row INSERT, skipping inconsistent bars.
func buildCandleInsert(table, symbol string, iv domrepo.Interval, candles []models.Candle) (string, []interface{}) {
	values := make([]string, 0, len(candles))
	args := make([]interface{}, 0, len(candles)*8)
	for _, c := range candles {
		if c.Timestamp.IsZero() || !c.IsConsistent() {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, symbol, string(iv), c.Timestamp.UTC(), c.Open, c.High, c.Low, c.Close, c.Volume)
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, interval, ts, open, high, low, close, volume) VALUES %s",
		table, strings.Join(values, ","))
	return q, args
}
