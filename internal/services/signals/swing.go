package signals

import (
	"fmt"

	"NSEScan/internal/domain/models"
)

// Swing verdict labels.
const (
	LabelInsufficientStructure = "Insufficient Structure Data"
	LabelCapitulationGap       = "Capitulation Gap Risk – Avoid Swing"
	LabelSharpGapDown          = "Sharp Gap Down – Avoid Swing"
	LabelWeakStructure         = "Weak Structure – Avoid Swing"
	LabelHighQualitySwing      = "High-Quality Swing Setup"
	LabelPotentialSwing        = "Potential Swing – Needs Confirmation"
	LabelSupportSwing          = "Support-Based Swing Attempt"
	LabelBreakoutSwing         = "Breakout Swing Setup"
	LabelLateMove              = "Late Move – Avoid Fresh Entry"
	LabelHighGapRisk           = "High Gap Risk – Avoid Swing Trade"
	LabelNoSwing               = "No Swing Opportunity"
)

// SupportProximityPct is how close above support price must be to count as "near support".
const SupportProximityPct = 1.5

var swingCascade = NewCascade(
	Rule[reading]{
		Name:      "no_swing_opportunity",
		Label:     LabelNoSwing,
		Sentiment: models.SentimentNegative,
		Reasons: func(r reading) []string {
			return []string{r.rsiReason(), r.vwapReason(), r.gapReason()}
		},
	},
	Rule[reading]{
		Name:      "invalid_swing_vwap",
		Label:     LabelInsufficientStructure,
		Sentiment: models.SentimentNeutral,
		When:      func(r reading) bool { return !r.hasVWAP },
		Reasons: func(r reading) []string {
			return []string{"swing VWAP unavailable"}
		},
	},
	Rule[reading]{
		Name:      "insufficient_momentum",
		Label:     LabelInsufficientStructure,
		Sentiment: models.SentimentNeutral,
		When:      func(r reading) bool { return !r.valid() },
		Reasons: func(r reading) []string {
			return []string{"price or RSI unavailable", r.rsiReason()}
		},
	},
	Rule[reading]{
		Name:      "capitulation_gap",
		Label:     LabelCapitulationGap,
		Sentiment: models.SentimentNegative,
		When:      func(r reading) bool { return r.gap <= -4.0 },
		Reasons: func(r reading) []string {
			return []string{r.gapReason() + " at or below -4%"}
		},
	},
	Rule[reading]{
		Name:      "sharp_gap_down",
		Label:     LabelSharpGapDown,
		Sentiment: models.SentimentNegative,
		When: func(r reading) bool {
			return r.gap <= -2.8 && !r.nearSupport(SupportProximityPct)
		},
		Reasons: func(r reading) []string {
			return []string{r.gapReason(), "no nearby support"}
		},
	},
	Rule[reading]{
		Name:      "weak_structure",
		Label:     LabelWeakStructure,
		Sentiment: models.SentimentNegative,
		When: func(r reading) bool {
			return r.belowVWAP() && r.rsi < 40 && r.gap <= -1.5
		},
		Reasons: func(r reading) []string {
			return []string{r.vwapReason(), r.rsiReason() + " below 40", r.gapReason()}
		},
	},
	Rule[reading]{
		Name:      "high_quality_swing",
		Label:     LabelHighQualitySwing,
		Sentiment: models.SentimentPositive,
		When: func(r reading) bool {
			return r.rsiIn(45, 65) && r.gap >= -1.0 && r.gap <= 5.5 &&
				(r.ctx.VolumeSpike || r.ctx.TrendUp) && r.aboveVWAP() && !r.ctx.Breakout
		},
		Reasons: func(r reading) []string {
			return []string{r.rsiReason() + " in 45-65", r.gapReason(), confirmation(r), r.vwapReason()}
		},
	},
	Rule[reading]{
		Name:      "potential_swing",
		Label:     LabelPotentialSwing,
		Sentiment: models.SentimentPositive,
		When: func(r reading) bool {
			return r.rsiIn(40, 65) && r.price >= r.vwap && r.gap >= -1.5 && r.gap <= 5.5 && !r.ctx.Breakout
		},
		Reasons: func(r reading) []string {
			return []string{r.rsiReason(), r.vwapReason(), confirmation(r)}
		},
	},
	Rule[reading]{
		Name:      "support_swing",
		Label:     LabelSupportSwing,
		Sentiment: models.SentimentPositive,
		When: func(r reading) bool {
			return r.nearSupport(SupportProximityPct) && r.rsiIn(35, 50) && r.gap > -2.8
		},
		Reasons: func(r reading) []string {
			return []string{fmt.Sprintf("price within %.1f%% of support %.2f", SupportProximityPct, r.support), r.rsiReason()}
		},
	},
	Rule[reading]{
		Name:      "breakout_swing",
		Label:     LabelBreakoutSwing,
		Sentiment: models.SentimentPositive,
		When: func(r reading) bool {
			return r.ctx.Breakout && r.rsiIn(50, 68) && r.gap <= 5.0
		},
		Reasons: func(r reading) []string {
			return []string{fmt.Sprintf("price above resistance %.2f", r.resistance), r.volumeReason(), r.rsiReason()}
		},
	},
	Rule[reading]{
		Name:      "consolidation_watch",
		Label:     LabelConsolidationWatch,
		Sentiment: models.SentimentNeutral,
		When: func(r reading) bool {
			return r.rsiIn(40, 60) && r.withinVWAP(1.0)
		},
		Reasons: func(r reading) []string {
			return []string{r.rsiReason(), r.vwapReason(), "await range expansion"}
		},
	},
	Rule[reading]{
		Name:      "late_move",
		Label:     LabelLateMove,
		Sentiment: models.SentimentNegative,
		When:      func(r reading) bool { return r.rsi > 75 },
		Reasons: func(r reading) []string {
			return []string{r.rsiReason() + " above 75"}
		},
	},
	Rule[reading]{
		Name:      "high_gap_risk",
		Label:     LabelHighGapRisk,
		Sentiment: models.SentimentNegative,
		When:      func(r reading) bool { return r.gap < -2.0 },
		Reasons: func(r reading) []string {
			return []string{r.gapReason() + " below -2%"}
		},
	},
)

func confirmation(r reading) string {
	switch {
	case r.ctx.VolumeSpike && r.ctx.TrendUp:
		return "volume and trend confirmed"
	case r.ctx.VolumeSpike:
		return "volume confirmed"
	case r.ctx.TrendUp:
		return "trend confirmed"
	default:
		return "awaiting volume or trend confirmation"
	}
}

// EvaluateSwing classifies ctx for multi-day holding against the swing VWAP.
func EvaluateSwing(ctx models.IndicatorContext) models.Verdict {
	return swingCascade.Evaluate(newReading(ctx, ctx.SwingVWAP))
}

// SwingRuleNames lists the swing rules in evaluation order.
func SwingRuleNames() []string { return swingCascade.Names() }
