// Package indicators holds pure indicator functions over candle and close slices.
package indicators

import "NSEScan/pkg/money"

// DefaultRSIPeriod is the Wilder lookback used by the scanner.
const DefaultRSIPeriod = 14

// RSI computes Wilder's relative strength index of closes, rounded to 1 decimal.
// It returns false when there are not more than period closes.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) <= period {
		return 0, false
	}

	var gain, loss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	p := float64(period)
	avgGain := gain / p
	avgLoss := loss / p

	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		var g, l float64
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgGain = (avgGain*(p-1) + g) / p
		avgLoss = (avgLoss*(p-1) + l) / p
	}

	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return money.RoundN(100-100/(1+rs), 1), true
}
