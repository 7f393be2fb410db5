package indicators

import (
	"testing"
	"time"

	"NSEScan/internal/domain/models"
	"NSEScan/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatCandles(n int, price, volume float64, start time.Time, step time.Duration) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Timestamp: start.Add(time.Duration(i) * step),
			Open:      price, High: price, Low: price, Close: price,
			Volume: volume,
		}
	}
	return out
}

func TestRSIInsufficientData(t *testing.T) {
	_, ok := RSI([]float64{1, 2, 3}, 14)
	assert.False(t, ok)

	closes := make([]float64, 14)
	_, ok = RSI(closes, 14)
	assert.False(t, ok, "exactly period closes is not enough")
}

func TestRSIMonotonicSeries(t *testing.T) {
	up := make([]float64, 30)
	down := make([]float64, 30)
	for i := range up {
		up[i] = 100 + float64(i)
		down[i] = 200 - float64(i)
	}

	v, ok := RSI(up, 14)
	require.True(t, ok)
	assert.Equal(t, 100.0, v)

	v, ok = RSI(down, 14)
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestRSIBoundedAndRounded(t *testing.T) {
	closes := []float64{
		44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84, 46.08,
		45.89, 46.03, 45.61, 46.28, 46.28, 46.00, 46.03, 46.41, 46.22, 45.64,
	}
	v, ok := RSI(closes, 14)
	require.True(t, ok)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.LessOrEqual(t, v, 100.0)
	assert.Equal(t, v, float64(int(v*10+0.5))/10)
}

func TestRSIConstantSeries(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 50
	}
	v, ok := RSI(closes, 14)
	require.True(t, ok)
	assert.Equal(t, 100.0, v)
}

func TestDetectVolumeSpike(t *testing.T) {
	base := flatCandles(21, 100, 100, time.Now(), time.Minute)

	base[20].Volume = 200
	assert.True(t, DetectVolumeSpike(base, 20, 1.5))

	base[20].Volume = 150
	assert.False(t, DetectVolumeSpike(base, 20, 1.5), "equal to threshold is not a spike")

	assert.False(t, DetectVolumeSpike(base[:20], 20, 1.5), "insufficient history")

	zero := flatCandles(21, 100, 0, time.Now(), time.Minute)
	zero[20].Volume = 1000
	assert.False(t, DetectVolumeSpike(zero, 20, 1.5), "zero mean volume")
}

func TestVWAP(t *testing.T) {
	candles := []models.Candle{
		{High: 12, Low: 8, Close: 10, Open: 10, Volume: 100},  // tp 10
		{High: 22, Low: 18, Close: 20, Open: 20, Volume: 300}, // tp 20
	}
	v, ok := VWAP(candles)
	require.True(t, ok)
	assert.InDelta(t, 17.5, v, 1e-9)

	candles[0].Volume, candles[1].Volume = 0, 0
	_, ok = VWAP(candles)
	assert.False(t, ok)
}

func TestIntradayVWAPUsesCurrentISTDay(t *testing.T) {
	yesterday := time.Date(2025, 3, 4, 10, 0, 0, 0, util.IST)
	today := time.Date(2025, 3, 5, 10, 0, 0, 0, util.IST)

	candles := append(
		flatCandles(3, 50, 1000, yesterday, time.Minute),
		flatCandles(3, 100, 10, today, time.Minute)...,
	)

	v, ok := IntradayVWAP(candles, today.Add(time.Hour))
	require.True(t, ok)
	assert.InDelta(t, 100, v, 1e-9)
}

func TestIntradayVWAPFallsBackToLastFive(t *testing.T) {
	old := time.Date(2025, 3, 3, 10, 0, 0, 0, util.IST)
	candles := append(
		flatCandles(5, 10, 100, old, time.Minute),
		flatCandles(5, 20, 100, old.Add(time.Hour), time.Minute)...,
	)
	v, ok := IntradayVWAP(candles, time.Date(2025, 3, 5, 10, 0, 0, 0, util.IST))
	require.True(t, ok)
	assert.InDelta(t, 20, v, 1e-9)
}

func TestSwingVWAPZeroVolume(t *testing.T) {
	_, ok := SwingVWAP(flatCandles(10, 100, 0, time.Now(), time.Hour), 5)
	assert.False(t, ok)
}

func TestSupportResistance(t *testing.T) {
	candles := flatCandles(30, 100, 10, time.Now(), time.Hour)
	candles[2].Low = 50 // outside the trailing 20
	candles[15].Low = 90
	candles[25].High = 120

	lv, ok := SupportResistance(candles, 20)
	require.True(t, ok)
	assert.Equal(t, 90.0, lv.Support)
	assert.Equal(t, 120.0, lv.Resistance)

	_, ok = SupportResistance(nil, 20)
	assert.False(t, ok)
}

func TestIsBreakoutConfirmed(t *testing.T) {
	assert.True(t, IsBreakoutConfirmed(100.3, 100, true))
	assert.False(t, IsBreakoutConfirmed(100.1, 100, true), "inside buffer")
	assert.False(t, IsBreakoutConfirmed(105, 100, false), "needs volume")
	assert.False(t, IsBreakoutConfirmed(105, 0, true), "needs resistance")
}

func TestVolatilityPct(t *testing.T) {
	candles := make([]models.Candle, 30)
	for i := range candles {
		candles[i] = models.Candle{Open: 100, High: 101, Low: 99, Close: 100, Volume: 10}
	}
	v, ok := VolatilityPct(candles, 14)
	require.True(t, ok)
	assert.InDelta(t, 2.0, v, 1e-6)

	_, ok = VolatilityPct(candles[:14], 14)
	assert.False(t, ok)
}

func TestClampVolatility(t *testing.T) {
	assert.Equal(t, IntradayVolMin, ClampVolatility(0.1, IntradayVolMin, IntradayVolMax))
	assert.Equal(t, IntradayVolMax, ClampVolatility(9, IntradayVolMin, IntradayVolMax))
	assert.Equal(t, 2.5, ClampVolatility(2.5, SwingVolMin, SwingVolMax))
}

func TestSelectTradable(t *testing.T) {
	candles := flatCandles(25, 100, 10, time.Now(), time.Hour)
	for i := 0; i < 5; i++ {
		candles[i].Volume = 0
	}
	assert.Len(t, SelectTradable(candles, 20), 20)

	short := flatCandles(15, 100, 10, time.Now(), time.Hour)
	short[0].Volume = 0
	short[1].High = 90 // high below low
	got := SelectTradable(short, 20)
	assert.Len(t, got, 14, "zero-volume bars kept, inconsistent bars dropped")
}

func TestBuildContextConstantSeries(t *testing.T) {
	now := time.Date(2025, 3, 5, 11, 0, 0, 0, util.IST)
	daily := flatCandles(30, 100, 1000, now.AddDate(0, 0, -29), 24*time.Hour)
	ctx := BuildContext(ContextInput{
		Daily: daily,
		Quote: models.PriceContext{Price: 100, PrevClose: 100, DayOpen: 100, MarketCap: 2e11},
		Now:   now,
	})

	require.NotNil(t, ctx.RSI)
	assert.Equal(t, 100.0, *ctx.RSI)
	require.NotNil(t, ctx.VWAP)
	assert.InDelta(t, 100, *ctx.VWAP, 1e-9)
	assert.False(t, ctx.VolumeSpike)
	assert.False(t, ctx.Breakout)
	require.NotNil(t, ctx.GapNowPct)
	assert.Equal(t, 0.0, *ctx.GapNowPct)
	assert.Equal(t, 0.0, ctx.EffectiveGap())
	assert.Equal(t, models.CandleDoji, ctx.CandleColor)
	assert.False(t, ctx.TrendUp)
}

func TestBuildContextBreakoutAbovePriorStructure(t *testing.T) {
	now := time.Date(2025, 3, 5, 11, 0, 0, 0, util.IST)
	daily := flatCandles(30, 100, 1000, now.AddDate(0, 0, -29), 24*time.Hour)
	for i := range daily {
		daily[i].High = 101
		daily[i].Low = 99
	}
	last := &daily[len(daily)-1]
	last.Open, last.High, last.Low, last.Close, last.Volume = 101, 104, 100.5, 103, 5000

	ctx := BuildContext(ContextInput{
		Daily: daily,
		Quote: models.PriceContext{Price: 103, PrevClose: 100, DayOpen: 101, MarketCap: 5e11},
		Now:   now,
	})

	require.NotNil(t, ctx.Resistance)
	assert.Equal(t, 101.0, *ctx.Resistance)
	assert.True(t, ctx.VolumeSpike)
	assert.True(t, ctx.Breakout)
	assert.Equal(t, models.CandleGreen, ctx.CandleColor)
	assert.Equal(t, 3.0, ctx.EffectiveGap())
	assert.Equal(t, 1.0, *ctx.GapOpenPct)
	assert.True(t, ctx.TrendUp)
}
