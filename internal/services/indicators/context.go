package indicators

import (
	"time"

	"NSEScan/internal/domain/models"
	"NSEScan/pkg/money"
)

const trendLookback = 5

// ContextInput is the raw data one symbol's indicator context is built from.
type ContextInput struct {
	// Daily bars, oldest first. The last bar is the current session.
	Daily []models.Candle
	// Intraday bars of the current session, optional.
	Intraday []models.Candle
	Quote    models.PriceContext
	Now      time.Time
}

// BuildContext derives the indicator context of one symbol. Support and resistance
// come from the bars before the current one so that a move above prior structure
// can register as a breakout.
func BuildContext(in ContextInput) models.IndicatorContext {
	daily := SelectTradable(in.Daily, DefaultMinTradable)
	closes := Closes(daily)

	ctx := models.IndicatorContext{
		Price:     in.Quote.Price,
		MarketCap: in.Quote.MarketCap,
	}
	if ctx.Price <= 0 && len(daily) > 0 {
		ctx.Price = daily[len(daily)-1].Close
	}

	if v, ok := RSI(closes, DefaultRSIPeriod); ok {
		ctx.RSI = models.Float(v)
	}
	ctx.VolumeSpike = DetectVolumeSpike(daily, DefaultSpikeLookback, DefaultSpikeMultiplier)

	vwapSource := in.Intraday
	if len(vwapSource) == 0 {
		vwapSource = daily
	}
	if v, ok := IntradayVWAP(vwapSource, in.Now); ok {
		ctx.VWAP = models.Float(money.Round2(v))
	}
	if v, ok := SwingVWAP(daily, DefaultVWAPFallbackBars); ok {
		ctx.SwingVWAP = models.Float(money.Round2(v))
	}

	if len(daily) > 1 {
		if lv, ok := SupportResistance(daily[:len(daily)-1], DefaultLevelsLookback); ok {
			ctx.Support = models.Float(lv.Support)
			ctx.Resistance = models.Float(lv.Resistance)
			ctx.Breakout = IsBreakoutConfirmed(ctx.Price, lv.Resistance, ctx.VolumeSpike)
		}
	}

	if v, ok := VolatilityPct(daily, DefaultATRPeriod); ok {
		ctx.VolatilityPct = models.Float(money.Round2(v))
	}

	prevClose := in.Quote.PrevClose
	if prevClose <= 0 && len(daily) > 1 {
		prevClose = daily[len(daily)-2].Close
	}
	dayOpen := in.Quote.DayOpen
	if dayOpen <= 0 && len(daily) > 0 {
		dayOpen = daily[len(daily)-1].Open
	}
	if prevClose > 0 && dayOpen > 0 {
		ctx.GapOpenPct = models.Float(money.Round2((dayOpen - prevClose) / prevClose * 100))
	}
	if prevClose > 0 && ctx.Price > 0 {
		ctx.GapNowPct = models.Float(money.Round2((ctx.Price - prevClose) / prevClose * 100))
	}

	if dayOpen > 0 && ctx.Price > 0 {
		ctx.CandleColor = models.ColorOf(models.Candle{Open: dayOpen, Close: ctx.Price})
	} else if len(daily) > 0 {
		ctx.CandleColor = models.ColorOf(daily[len(daily)-1])
	}

	if n := len(closes); n > trendLookback {
		ctx.TrendUp = closes[n-1] > closes[n-1-trendLookback]
	}
	return ctx
}
