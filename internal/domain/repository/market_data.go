package repository

import (
	"context"
	"time"

	"NSEScan/internal/domain/models"
)

// CandleQuery selects candles from a market-data source. From/To take precedence over Range when set.
type CandleQuery struct {
	Interval Interval
	// Range is a provider lookback such as "5d" or "6mo".
	Range string
	From  time.Time
	To    time.Time
}

// MarketData fetches candles and quotes for NSE symbols.
type MarketData interface {
	// FetchCandles fails when fewer than minPeriods candles are available.
	FetchCandles(ctx context.Context, symbol string, minPeriods int, q CandleQuery) ([]models.Candle, error)
	FetchPriceContext(ctx context.Context, symbol string) (models.PriceContext, error)
	FetchFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error)
}

// CandleArchive keeps intraday candles used for replay.
type CandleArchive interface {
	LoadCandles(ctx context.Context, symbol string, iv Interval, from, to time.Time) ([]models.Candle, error)
	SaveCandles(ctx context.Context, symbol string, iv Interval, candles []models.Candle) error
}
