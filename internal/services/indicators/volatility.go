package indicators

import (
	"math"

	"NSEScan/internal/domain/models"

	"github.com/markcheno/go-talib"
)

const DefaultATRPeriod = 14

// Volatility clamp bands in percent of price.
const (
	IntradayVolMin = 0.45
	IntradayVolMax = 3.8
	SwingVolMin    = 1.0
	SwingVolMax    = 7.5
)

// VolatilityPct is the Wilder ATR of candles expressed as a percentage of the last close.
// It returns false when there are not more than period candles or the result is not finite.
func VolatilityPct(candles []models.Candle, period int) (float64, bool) {
	if period <= 0 {
		period = DefaultATRPeriod
	}
	n := len(candles)
	if n <= period {
		return 0, false
	}
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, c := range candles {
		highs[i], lows[i], closes[i] = c.High, c.Low, c.Close
	}
	atr := talib.Atr(highs, lows, closes, period)
	if len(atr) == 0 {
		return 0, false
	}
	last := atr[len(atr)-1]
	lastClose := closes[n-1]
	if lastClose <= 0 || math.IsNaN(last) || math.IsInf(last, 0) {
		return 0, false
	}
	return last / lastClose * 100, true
}

// ClampVolatility bounds v to [lo, hi].
func ClampVolatility(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
