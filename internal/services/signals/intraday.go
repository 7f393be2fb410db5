package signals

import (
	"fmt"
	"math"

	"NSEScan/internal/domain/models"
)

// Intraday verdict labels.
const (
	LabelInsufficientData     = "Insufficient Data"
	LabelLowLiquidity         = "Low Liquidity - Avoid"
	LabelChoppy               = "Choppy Market – Avoid"
	LabelStrongIntradayBuy    = "Strong Intraday Buy"
	LabelMomentumContinuation = "Momentum Continuation"
	LabelStretchZone          = "Stretch Zone - Scalp Only"
	LabelBreakoutCandidate    = "Breakout Candidate"
	LabelModerateMomentum     = "Moderate Momentum - Watch"
	LabelConsolidationWatch   = "Consolidation Watch"
	LabelOverbought           = "Overbought - Avoid Fresh Entry"
	LabelBearishMomentum      = "Bearish Momentum - Avoid"
	LabelNoClearIntraday      = "No Clear Intraday Signal"
)

// MinLiquidMarketCap is ₹1000 Cr in rupees.
const MinLiquidMarketCap = 1e10

var intradayCascade = NewCascade(
	Rule[reading]{
		Name:      "no_clear_signal",
		Label:     LabelNoClearIntraday,
		Sentiment: models.SentimentNeutral,
		Reasons: func(r reading) []string {
			return []string{r.rsiReason(), r.vwapReason(), r.gapReason()}
		},
	},
	Rule[reading]{
		Name:      "low_liquidity",
		Label:     LabelLowLiquidity,
		Sentiment: models.SentimentNegative,
		When: func(r reading) bool {
			return r.ctx.MarketCap > 0 && r.ctx.MarketCap < MinLiquidMarketCap
		},
		Reasons: func(r reading) []string {
			return []string{fmt.Sprintf("market cap ₹%.0f Cr below ₹1000 Cr", r.ctx.MarketCap/1e7)}
		},
	},
	Rule[reading]{
		Name:      "insufficient_data",
		Label:     LabelInsufficientData,
		Sentiment: models.SentimentNeutral,
		When:      func(r reading) bool { return !r.valid() },
		Reasons: func(r reading) []string {
			return []string{"price, RSI or VWAP unavailable", r.rsiReason(), r.vwapReason()}
		},
	},
	Rule[reading]{
		Name:      "choppy",
		Label:     LabelChoppy,
		Sentiment: models.SentimentNeutral,
		When: func(r reading) bool {
			return math.Abs(r.gap) < 0.2 && !r.ctx.VolumeSpike && r.withinVWAP(0.2)
		},
		Reasons: func(r reading) []string {
			return []string{"flat open", r.volumeReason(), r.vwapReason()}
		},
	},
	Rule[reading]{
		Name:      "strong_intraday_buy",
		Label:     LabelStrongIntradayBuy,
		Sentiment: models.SentimentPositive,
		When: func(r reading) bool {
			return r.rsiIn(40, 65) && r.gap > 0.2 && r.gap < 3.5 &&
				r.ctx.VolumeSpike && r.aboveVWAP() && !r.ctx.Breakout
		},
		Reasons: func(r reading) []string {
			return []string{r.rsiReason() + " in 40-65", r.gapReason(), r.volumeReason(), r.vwapReason()}
		},
	},
	Rule[reading]{
		Name:      "momentum_continuation",
		Label:     LabelMomentumContinuation,
		Sentiment: models.SentimentPositive,
		When: func(r reading) bool {
			return r.rsiIn(45, 65) && r.aboveVWAP() && r.gap > -1.0
		},
		Reasons: func(r reading) []string {
			return []string{r.rsiReason() + " in 45-65", r.vwapReason(), r.gapReason()}
		},
	},
	Rule[reading]{
		Name:      "stretch_zone",
		Label:     LabelStretchZone,
		Sentiment: models.SentimentPositive,
		When: func(r reading) bool {
			return r.hasRSI && r.rsi > 65 && r.rsi <= 70 && r.ctx.VolumeSpike && r.aboveVWAP()
		},
		Reasons: func(r reading) []string {
			return []string{r.rsiReason() + " stretched", r.volumeReason(), "scalp sizing only"}
		},
	},
	Rule[reading]{
		Name:      "breakout_candidate",
		Label:     LabelBreakoutCandidate,
		Sentiment: models.SentimentPositive,
		When: func(r reading) bool {
			return r.ctx.Breakout && r.rsiIn(50, 70)
		},
		Reasons: func(r reading) []string {
			return []string{fmt.Sprintf("price above resistance %.2f", r.resistance), r.volumeReason(), r.rsiReason()}
		},
	},
	Rule[reading]{
		Name:      "moderate_momentum",
		Label:     LabelModerateMomentum,
		Sentiment: models.SentimentPositive,
		When: func(r reading) bool {
			return r.rsiIn(40, 65) && r.hasVWAP && r.price >= r.vwap*0.998 && r.gap > -1.0
		},
		Reasons: func(r reading) []string {
			return []string{r.rsiReason(), r.vwapReason(), "wait for confirmation"}
		},
	},
	Rule[reading]{
		Name:      "consolidation_watch",
		Label:     LabelConsolidationWatch,
		Sentiment: models.SentimentPositive,
		When: func(r reading) bool {
			return r.rsiIn(35, 55) && r.withinVWAP(1.0) && math.Abs(r.gap) < 1.0
		},
		Reasons: func(r reading) []string {
			return []string{r.rsiReason(), r.vwapReason(), "range-bound near VWAP"}
		},
	},
	Rule[reading]{
		Name:      "overbought",
		Label:     LabelOverbought,
		Sentiment: models.SentimentNegative,
		When:      func(r reading) bool { return r.hasRSI && r.rsi > 70 },
		Reasons: func(r reading) []string {
			return []string{r.rsiReason() + " above 70"}
		},
	},
	Rule[reading]{
		Name:      "bearish_momentum",
		Label:     LabelBearishMomentum,
		Sentiment: models.SentimentNegative,
		When: func(r reading) bool {
			return r.belowVWAP() && r.ctx.CandleColor == models.CandleRed && r.gap < -0.5
		},
		Reasons: func(r reading) []string {
			return []string{r.vwapReason(), "red candle", r.gapReason()}
		},
	},
)

// EvaluateIntraday classifies ctx for same-day trading against the session VWAP.
func EvaluateIntraday(ctx models.IndicatorContext) models.Verdict {
	return intradayCascade.Evaluate(newReading(ctx, ctx.VWAP))
}

// IntradayRuleNames lists the intraday rules in evaluation order.
func IntradayRuleNames() []string { return intradayCascade.Names() }
