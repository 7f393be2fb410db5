// Package money rounds prices, amounts and ratios using decimal arithmetic so that
// values persisted in snapshots and backtest runs are reproducible across runs.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds v half away from zero to 2 decimals.
func Round2(v float64) float64 {
	return RoundN(v, 2)
}

// RoundN rounds v half away from zero to n decimals. Non-finite values pass through.
func RoundN(v float64, n int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(n).Float64()
	return f
}

// Floor2 rounds v down to 2 decimals.
func Floor2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	d := decimal.NewFromFloat(v)
	f, _ := d.Mul(decimal.NewFromInt(100)).Floor().Div(decimal.NewFromInt(100)).Float64()
	return f
}

// Ceil2 rounds v up to 2 decimals.
func Ceil2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	d := decimal.NewFromFloat(v)
	f, _ := d.Mul(decimal.NewFromInt(100)).Ceil().Div(decimal.NewFromInt(100)).Float64()
	return f
}

// Fixed2 formats v as a fixed 2-decimal string.
func Fixed2(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Notional returns price × qty rounded to 2 decimals.
func Notional(price float64, qty int64) float64 {
	f, _ := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(qty)).Round(2).Float64()
	return f
}

// BpsOf returns amount × bps / 10000 rounded to 2 decimals.
func BpsOf(amount, bps float64) float64 {
	f, _ := decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(bps)).
		Div(decimal.NewFromInt(10000)).
		Round(2).
		Float64()
	return f
}

// Quantity returns floor(alloc / price) shares, 0 when price is not positive.
func Quantity(alloc, price float64) int64 {
	if price <= 0 || alloc <= 0 {
		return 0
	}
	return decimal.NewFromFloat(alloc).Div(decimal.NewFromFloat(price)).Floor().IntPart()
}

// Pct returns part / whole × 100 rounded to 2 decimals, 0 when whole is 0.
func Pct(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return Round2(part / whole * 100)
}
