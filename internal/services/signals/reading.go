package signals

import (
	"fmt"
	"math"

	"NSEScan/internal/domain/models"
)

// reading is an IndicatorContext resolved against one horizon's VWAP.
type reading struct {
	ctx        models.IndicatorContext
	price      float64
	rsi        float64
	hasRSI     bool
	vwap       float64
	hasVWAP    bool
	gap        float64
	support    float64
	resistance float64
}

func newReading(ctx models.IndicatorContext, vwap *float64) reading {
	r := reading{
		ctx:   ctx,
		price: ctx.Price,
		gap:   ctx.EffectiveGap(),
	}
	if ctx.RSI != nil && isFinite(*ctx.RSI) {
		r.rsi, r.hasRSI = *ctx.RSI, true
	}
	if vwap != nil && isFinite(*vwap) && *vwap > 0 {
		r.vwap, r.hasVWAP = *vwap, true
	}
	if ctx.Support != nil && isFinite(*ctx.Support) && *ctx.Support > 0 {
		r.support = *ctx.Support
	}
	if ctx.Resistance != nil && isFinite(*ctx.Resistance) && *ctx.Resistance > 0 {
		r.resistance = *ctx.Resistance
	}
	return r
}

func (r reading) valid() bool {
	return r.hasRSI && r.hasVWAP && r.price > 0 && isFinite(r.price)
}

func (r reading) rsiIn(lo, hi float64) bool {
	return r.hasRSI && r.rsi >= lo && r.rsi <= hi
}

func (r reading) aboveVWAP() bool { return r.hasVWAP && r.price > r.vwap }
func (r reading) belowVWAP() bool { return r.hasVWAP && r.price < r.vwap }

// vwapDistPct is the signed distance of price from VWAP in percent.
func (r reading) vwapDistPct() float64 {
	if !r.hasVWAP {
		return math.NaN()
	}
	return (r.price - r.vwap) / r.vwap * 100
}

func (r reading) withinVWAP(pct float64) bool {
	return r.hasVWAP && math.Abs(r.vwapDistPct()) <= pct
}

// nearSupport reports whether price sits within pct above support.
func (r reading) nearSupport(pct float64) bool {
	if r.support <= 0 || r.price <= 0 || r.price < r.support {
		return false
	}
	return (r.price-r.support)/r.price*100 <= pct
}

func (r reading) rsiReason() string {
	if !r.hasRSI {
		return "RSI unavailable"
	}
	return fmt.Sprintf("RSI %.1f", r.rsi)
}

func (r reading) gapReason() string {
	return fmt.Sprintf("gap %.2f%%", r.gap)
}

func (r reading) vwapReason() string {
	if !r.hasVWAP {
		return "VWAP unavailable"
	}
	d := r.vwapDistPct()
	if d >= 0 {
		return fmt.Sprintf("price %.2f%% above VWAP %.2f", d, r.vwap)
	}
	return fmt.Sprintf("price %.2f%% below VWAP %.2f", -d, r.vwap)
}

func (r reading) volumeReason() string {
	if r.ctx.VolumeSpike {
		return "volume spike confirmed"
	}
	return "no volume spike"
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
