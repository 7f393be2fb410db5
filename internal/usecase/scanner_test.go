package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"NSEScan/internal/domain/models"
	drepo "NSEScan/internal/domain/repository"
	"NSEScan/internal/repository"
	"NSEScan/internal/services/signals"
	"NSEScan/pkg/cache"
	"NSEScan/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var scanNow = time.Date(2025, 3, 5, 11, 0, 0, 0, util.IST)

func seedSymbol(md *fakeMarket, symbol string, price float64) {
	md.candles[candleKey(symbol, drepo.Interval1d)] = dailySeries(40, price, scanNow)
	md.candles[candleKey(symbol, drepo.Interval5m)] = dailySeries(10, price, scanNow)
	md.quotes[symbol] = models.PriceContext{
		Symbol:    symbol,
		Price:     price + 0.5,
		PrevClose: price,
		DayOpen:   price,
		MarketCap: 5e11,
	}
}

func newTestScanner(md *fakeMarket, store drepo.SignalStore, pub drepo.EventPublisher, c cache.Service, m drepo.Metrics, universe ...string) *Scanner {
	s := NewScanner(md, store, pub, c, m, nil, ScannerConfig{
		Workers:    2,
		Universe:   universe,
		CacheTTL:   time.Minute,
		MinPeriods: 30,
	})
	s.now = func() time.Time { return scanNow }
	return s
}

func TestScanIsolatesSymbolFailures(t *testing.T) {
	md := newFakeMarket()
	seedSymbol(md, "GOOD", 100)
	md.failing["BAD"] = true
	m := &countingMetrics{}

	s := newTestScanner(md, repository.NewMemorySignalStore(), nil, nil, m)
	res, err := s.Scan(context.Background(), models.HorizonIntraday, []string{"good", "bad", "GOOD"})
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	assert.Equal(t, 2, res.TotalScanned)
	assert.Equal(t, "GOOD", res.Results[0].Symbol)
	assert.Empty(t, res.Results[0].Error)
	require.NotNil(t, res.Results[0].Verdict)
	require.NotNil(t, res.Results[0].Indicators)

	assert.Equal(t, "BAD", res.Results[1].Symbol)
	assert.NotEmpty(t, res.Results[1].Error)
	assert.Nil(t, res.Results[1].Verdict)
	assert.Contains(t, res.Errors, "BAD")

	assert.Equal(t, 1, m.scans)
	assert.Equal(t, 1, m.failures)
	assert.Equal(t, 1, m.errors["scan_symbol"])
	assert.Nil(t, res.Threshold, "only swing scans are ranked")
}

func TestScanRejectsUnknownHorizon(t *testing.T) {
	s := newTestScanner(newFakeMarket(), repository.NewMemorySignalStore(), nil, nil, nil)
	_, err := s.Scan(context.Background(), models.Horizon("weekly"), []string{"TCS"})
	var rej *models.RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, models.RejectInvalidHorizon, rej.Code)
}

func TestScanRequiresSymbols(t *testing.T) {
	s := newTestScanner(newFakeMarket(), repository.NewMemorySignalStore(), nil, nil, nil)
	_, err := s.Scan(context.Background(), models.HorizonSwing, []string{" ", ""})
	var rej *models.RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, models.RejectNoSymbols, rej.Code)
}

func TestScanStreamUsesUniverse(t *testing.T) {
	md := newFakeMarket()
	seedSymbol(md, "A", 100)
	seedSymbol(md, "B", 250)
	pub := &mockPublisher{}
	pub.On("PublishSnapshot", mock.Anything, mock.Anything).Return(nil).Maybe()

	s := newTestScanner(md, repository.NewMemorySignalStore(), pub, nil, nil, "A", "B")

	var streamed int32
	res, err := s.ScanStream(context.Background(), models.HorizonSwing, nil, func(r models.SymbolResult) {
		atomic.AddInt32(&streamed, 1)
	})
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&streamed))
	assert.Equal(t, 2, res.TotalScanned)
	require.NotNil(t, res.Threshold)
	assert.GreaterOrEqual(t, *res.Threshold, 34)
	assert.LessOrEqual(t, *res.Threshold, 56)
	for _, r := range res.Ranked {
		require.NotNil(t, r.QualityScore)
		assert.GreaterOrEqual(t, *r.QualityScore, *res.Threshold)
	}
}

func TestScanCachesSymbolResults(t *testing.T) {
	md := newFakeMarket()
	seedSymbol(md, "INFY", 1500)
	mem := cache.NewMemoryCache()
	defer mem.Close()

	s := newTestScanner(md, repository.NewMemorySignalStore(), nil, mem, nil)
	first, err := s.Scan(context.Background(), models.HorizonIntraday, []string{"INFY"})
	require.NoError(t, err)
	second, err := s.Scan(context.Background(), models.HorizonIntraday, []string{"INFY"})
	require.NoError(t, err)

	assert.Equal(t, 1, md.hits("INFY", drepo.Interval1d))
	assert.Equal(t, first.Results[0].Verdict.Label, second.Results[0].Verdict.Label)
}

func TestScanRanksCachedSwingResults(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	pub := &mockPublisher{}
	pub.On("PublishSnapshot", mock.Anything, mock.Anything).Return(nil).Once()

	cached := models.SymbolResult{
		Symbol:  "TCS",
		Verdict: &models.Verdict{Label: signals.LabelHighQualitySwing, Sentiment: models.SentimentPositive, Rule: "high_quality_swing"},
		Plan: &models.EntryPlan{
			EntryPrice:           3500,
			StopLoss:             3430,
			Target1:              3660,
			Target2:              3720,
			EntryType:            models.EntryVWAPPullback,
			RiskReward:           "2.10",
			RiskRewardAfterCosts: "2.10",
			RiskRewardGross:      "2.29",
			NetRR:                2.1,
			GrossRR:              2.29,
		},
		Indicators: &models.IndicatorContext{
			Price:         3510,
			RSI:           models.Float(55),
			SwingVWAP:     models.Float(3480),
			VolumeSpike:   true,
			GapNowPct:     models.Float(1),
			VolatilityPct: models.Float(2.5),
		},
	}
	key := cache.GenerateKeyWithParams("scan", string(models.HorizonSwing), "TCS")
	require.NoError(t, mem.Set(context.Background(), key, cached, time.Minute))

	md := newFakeMarket()
	store := repository.NewMemorySignalStore()
	s := newTestScanner(md, store, pub, mem, nil)
	res, err := s.Scan(context.Background(), models.HorizonSwing, []string{"TCS"})
	require.NoError(t, err)

	assert.Equal(t, 0, md.hits("TCS", drepo.Interval1d), "served from cache")
	require.NotNil(t, res.Results[0].Plan)
	assert.Equal(t, 2.1, res.Results[0].Plan.NetRR)
	require.Len(t, res.Ranked, 1)
	assert.Equal(t, "TCS", res.Ranked[0].Symbol)
	require.NotNil(t, res.Snapshot)
	assert.True(t, res.Snapshot.Saved)

	snaps, err := store.ListSnapshots(context.Background(), models.SnapshotQuery{Date: "2025-03-05"})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "TCS", snaps[0].Picks[0].Symbol)
	pub.AssertExpectations(t)
}

func TestScanLongTermEvaluatesFundamentals(t *testing.T) {
	md := newFakeMarket()
	seedSymbol(md, "HDFCBANK", 1600)

	s := newTestScanner(md, repository.NewMemorySignalStore(), nil, nil, nil)
	res, err := s.Scan(context.Background(), models.HorizonLongTerm, []string{"HDFCBANK"})
	require.NoError(t, err)
	require.NotNil(t, res.Results[0].Verdict)
	assert.NotEmpty(t, res.Results[0].Verdict.Label)
	assert.NotEmpty(t, res.Results[0].Verdict.Reasons)
}

func rankedResult(symbol string, score int, price float64) models.SymbolResult {
	return models.SymbolResult{
		Symbol:  symbol,
		Verdict: &models.Verdict{Label: "High-Quality Swing Setup", Sentiment: models.SentimentPositive},
		Plan: &models.EntryPlan{
			EntryPrice: price,
			StopLoss:   price * 0.97,
			Target1:    price * 1.04,
			Target2:    price * 1.07,
			EntryType:  models.EntryVWAPPullback,
			RiskReward: "1.33",
		},
		Indicators:   &models.IndicatorContext{Price: price},
		QualityScore: &score,
	}
}

func TestBuildSnapshot(t *testing.T) {
	threshold := 44
	out := &models.ScanResult{
		Horizon:      models.HorizonSwing,
		Timestamp:    time.Date(2025, 3, 5, 4, 0, 0, 0, time.UTC),
		TotalScanned: 5,
		Results: []models.SymbolResult{
			rankedResult("TCS", 50, 3500),
			rankedResult("INFY", 45, 1500),
			{Symbol: "BAD", Error: "boom"},
			{Symbol: "WEAK", Verdict: &models.Verdict{Sentiment: models.SentimentNegative}},
		},
		Threshold: &threshold,
	}
	out.Ranked = out.Results[:2]

	snap := BuildSnapshot("snap-1", out)
	assert.Equal(t, "snap-1", snap.ID)
	assert.Equal(t, "2025-03-05", snap.ISTDate)
	assert.Equal(t, "09:30", snap.ISTTime)
	assert.Equal(t, 2, snap.PositiveCount)
	assert.Equal(t, 47.5, snap.QualityScore)
	assert.Equal(t, "44", snap.Meta["threshold"])
	require.Len(t, snap.Picks, 2)
	assert.Equal(t, "TCS", snap.Picks[0].Symbol)
	assert.Equal(t, 50, snap.Picks[0].QualityScore)
	assert.Equal(t, 3500.0, snap.Picks[0].Price)
	assert.Equal(t, models.EntryVWAPPullback, snap.Picks[0].EntryType)
}

func TestPersistKeepsHigherQualitySnapshot(t *testing.T) {
	store := repository.NewMemorySignalStore()
	pub := &mockPublisher{}
	pub.On("PublishSnapshot", mock.Anything, mock.Anything).Return(nil)

	s := newTestScanner(newFakeMarket(), store, pub, nil, nil)
	ids := []string{"first", "second"}
	s.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	strong := &models.ScanResult{Horizon: models.HorizonSwing, Timestamp: scanNow, TotalScanned: 1,
		Results: []models.SymbolResult{rankedResult("TCS", 52, 3500)}}
	strong.Ranked = strong.Results
	s.persist(context.Background(), strong)
	require.NotNil(t, strong.Snapshot)
	assert.True(t, strong.Snapshot.Saved)
	assert.Equal(t, "first", strong.Snapshot.KeptID)

	weak := &models.ScanResult{Horizon: models.HorizonSwing, Timestamp: scanNow.Add(time.Hour), TotalScanned: 1,
		Results: []models.SymbolResult{rankedResult("INFY", 40, 1500)}}
	weak.Ranked = weak.Results
	s.persist(context.Background(), weak)
	require.NotNil(t, weak.Snapshot)
	assert.False(t, weak.Snapshot.Saved)
	assert.Equal(t, "first", weak.Snapshot.KeptID)

	pub.AssertNumberOfCalls(t, "PublishSnapshot", 1)

	snaps, err := store.ListSnapshots(context.Background(), models.SnapshotQuery{Date: "2025-03-05"})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "first", snaps[0].ID)
}

func TestPersistToleratesPublishFailure(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishSnapshot", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	m := &countingMetrics{}

	s := newTestScanner(newFakeMarket(), repository.NewMemorySignalStore(), pub, nil, m)
	out := &models.ScanResult{Horizon: models.HorizonSwing, Timestamp: scanNow, TotalScanned: 1,
		Results: []models.SymbolResult{rankedResult("TCS", 52, 3500)}}
	out.Ranked = out.Results
	s.persist(context.Background(), out)

	require.NotNil(t, out.Snapshot)
	assert.True(t, out.Snapshot.Saved)
	assert.Equal(t, 1, m.errors["publish_snapshot"])
}
