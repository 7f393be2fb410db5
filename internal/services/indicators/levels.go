package indicators

import "NSEScan/internal/domain/models"

const (
	DefaultLevelsLookback = 20
	// BreakoutBufferPct is how far above resistance price must be for a breakout.
	BreakoutBufferPct = 0.2
)

// Levels are the structural support and resistance of a window.
type Levels struct {
	Support    float64
	Resistance float64
}

// SupportResistance returns the lowest low and highest high of the trailing lookback candles.
// It returns false for an empty slice.
func SupportResistance(candles []models.Candle, lookback int) (Levels, bool) {
	if len(candles) == 0 {
		return Levels{}, false
	}
	if lookback <= 0 {
		lookback = DefaultLevelsLookback
	}
	window := tail(candles, lookback)
	lv := Levels{Support: window[0].Low, Resistance: window[0].High}
	for _, c := range window[1:] {
		if c.Low < lv.Support {
			lv.Support = c.Low
		}
		if c.High > lv.Resistance {
			lv.Resistance = c.High
		}
	}
	return lv, true
}

// IsBreakoutConfirmed requires price at least 0.2% above resistance on a volume spike.
func IsBreakoutConfirmed(price, resistance float64, volumeSpike bool) bool {
	if resistance <= 0 || !volumeSpike {
		return false
	}
	return price >= resistance*(1+BreakoutBufferPct/100)
}
