package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"NSEScan/internal/domain/models"
	drepo "NSEScan/internal/domain/repository"

	"github.com/stretchr/testify/mock"
)

var errUpstream = errors.New("upstream unavailable")

// fakeMarket serves canned candles keyed by symbol and interval.
type fakeMarket struct {
	mu        sync.Mutex
	candles   map[string][]models.Candle
	quotes    map[string]models.PriceContext
	failing   map[string]bool
	candleHit map[string]int
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		candles:   map[string][]models.Candle{},
		quotes:    map[string]models.PriceContext{},
		failing:   map[string]bool{},
		candleHit: map[string]int{},
	}
}

func candleKey(symbol string, iv drepo.Interval) string {
	return fmt.Sprintf("%s|%s", symbol, iv)
}

func (f *fakeMarket) FetchCandles(_ context.Context, symbol string, minPeriods int, q drepo.CandleQuery) ([]models.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := candleKey(symbol, q.Interval)
	f.candleHit[key]++
	if f.failing[symbol] || f.failing[key] {
		return nil, errUpstream
	}
	cs := f.candles[key]
	if len(cs) < minPeriods {
		return nil, fmt.Errorf("%s: got %d candles, need %d", symbol, len(cs), minPeriods)
	}
	return append([]models.Candle(nil), cs...), nil
}

func (f *fakeMarket) FetchPriceContext(_ context.Context, symbol string) (models.PriceContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[symbol] {
		return models.PriceContext{}, errUpstream
	}
	q, ok := f.quotes[symbol]
	if !ok {
		return models.PriceContext{}, errUpstream
	}
	return q, nil
}

func (f *fakeMarket) FetchFundamentals(context.Context, string) (*models.Fundamentals, error) {
	return &models.Fundamentals{
		RevenueGrowthPct: models.Float(18),
		ProfitGrowthPct:  models.Float(20),
		ROEPct:           models.Float(22),
		MarketPosition:   "leader",
	}, nil
}

func (f *fakeMarket) hits(symbol string, iv drepo.Interval) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.candleHit[candleKey(symbol, iv)]
}

// fakeArchive is an in-memory CandleArchive.
type fakeArchive struct {
	mu    sync.Mutex
	data  map[string][]models.Candle
	saves int
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{data: map[string][]models.Candle{}}
}

func (a *fakeArchive) LoadCandles(_ context.Context, symbol string, iv drepo.Interval, from, to time.Time) ([]models.Candle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.Candle
	for _, c := range a.data[candleKey(symbol, iv)] {
		if !c.Timestamp.Before(from) && !c.Timestamp.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (a *fakeArchive) SaveCandles(_ context.Context, symbol string, iv drepo.Interval, candles []models.Candle) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saves++
	a.data[candleKey(symbol, iv)] = append(a.data[candleKey(symbol, iv)], candles...)
	return nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishSnapshot(ctx context.Context, s *models.SignalSnapshot) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockPublisher) PublishBacktestRun(ctx context.Context, r *models.BacktestRun) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockPublisher) Close() error { return nil }

// countingMetrics records calls of interest.
type countingMetrics struct {
	mu        sync.Mutex
	scans     int
	failures  int
	backtests int
	errors    map[string]int
}

func (m *countingMetrics) RecordScan(_ string, _ int, failures int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
	m.failures += failures
}

func (m *countingMetrics) RecordVerdict(string, string) {}

func (m *countingMetrics) RecordBacktest(string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backtests++
}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = map[string]int{}
	}
	m.errors[kind]++
}

func (m *countingMetrics) RecordStoreFallback(string)    {}
func (m *countingMetrics) RecordLatency(string, float64) {}

func dailySeries(n int, price float64, end time.Time) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		p := price + float64(i%3) - 1
		out[i] = models.Candle{
			Timestamp: end.AddDate(0, 0, i-n+1),
			Open:      p,
			High:      p + 1,
			Low:       p - 1,
			Close:     p + 0.5,
			Volume:    1000,
		}
	}
	return out
}
