package indicators

import "NSEScan/internal/domain/models"

// DefaultMinTradable is the number of tradable bars needed before zero-volume bars are dropped.
const DefaultMinTradable = 20

// SelectTradable returns the OHLC-consistent candles with positive volume when at least
// minTradable of them exist, otherwise every OHLC-consistent candle.
func SelectTradable(candles []models.Candle, minTradable int) []models.Candle {
	consistent := make([]models.Candle, 0, len(candles))
	tradable := make([]models.Candle, 0, len(candles))
	for _, c := range candles {
		if !c.IsConsistent() {
			continue
		}
		consistent = append(consistent, c)
		if c.Volume > 0 {
			tradable = append(tradable, c)
		}
	}
	if len(tradable) >= minTradable {
		return tradable
	}
	return consistent
}

// Closes extracts the close series.
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
