package indicators

import "NSEScan/internal/domain/models"

const (
	DefaultSpikeLookback   = 20
	DefaultSpikeMultiplier = 1.5
)

// DetectVolumeSpike reports whether the latest volume exceeds multiplier times the
// mean volume of the preceding lookback candles. The latest candle is excluded from
// the mean. It returns false when there are not more than lookback candles.
func DetectVolumeSpike(candles []models.Candle, lookback int, multiplier float64) bool {
	if lookback <= 0 || len(candles) <= lookback {
		return false
	}
	last := len(candles) - 1
	var sum float64
	for _, c := range candles[last-lookback : last] {
		sum += c.Volume
	}
	mean := sum / float64(lookback)
	if mean <= 0 {
		return false
	}
	return candles[last].Volume > mean*multiplier
}
