package indicators

import (
	"time"

	"NSEScan/internal/domain/models"
	"NSEScan/pkg/util"
)

// DefaultVWAPFallbackBars is used when no candle of the current session exists,
// and as the swing VWAP window.
const DefaultVWAPFallbackBars = 5

// VWAP is the volume-weighted typical price of candles.
// It returns false when the volume sum is zero.
func VWAP(candles []models.Candle) (float64, bool) {
	var pv, vol float64
	for _, c := range candles {
		pv += c.TypicalPrice() * c.Volume
		vol += c.Volume
	}
	if vol <= 0 {
		return 0, false
	}
	return pv / vol, true
}

// IntradayVWAP computes VWAP over the candles of now's IST calendar day,
// falling back to the last five candles when that day has none.
func IntradayVWAP(candles []models.Candle, now time.Time) (float64, bool) {
	today := util.ISTDate(now)
	session := make([]models.Candle, 0, len(candles))
	for _, c := range candles {
		if util.ISTDate(c.Timestamp) == today {
			session = append(session, c)
		}
	}
	if len(session) == 0 {
		return VWAP(tail(candles, DefaultVWAPFallbackBars))
	}
	return VWAP(session)
}

// SwingVWAP computes VWAP over the last n candles.
func SwingVWAP(candles []models.Candle, n int) (float64, bool) {
	if n <= 0 {
		n = DefaultVWAPFallbackBars
	}
	return VWAP(tail(candles, n))
}

func tail(candles []models.Candle, n int) []models.Candle {
	if len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}
