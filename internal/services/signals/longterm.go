package signals

import (
	"fmt"
	"math"
	"strings"

	"NSEScan/internal/domain/models"
)

// Long-term verdict labels.
const (
	LabelHighConviction    = "High-Conviction Long-Term Accumulation"
	LabelCapitulationZone  = "High-Quality Business – Capitulation Zone"
	LabelOverheatedZone    = "Strong Business, Overheated Zone"
	LabelAccumulateOnDips  = "Quality Business – Accumulate on Dips"
	LabelTimingRisky       = "Fundamentals Good, Timing Risky"
	LabelWeakLongTermSetup = "Weak Long-Term Setup"
)

// MaxFundamentalScore caps ScoreFundamentals.
const MaxFundamentalScore = 8

const (
	strongFundamentalScore  = 6
	qualityFundamentalScore = 4
)

// Market-cap bands in rupees.
const (
	LargeCapMin = 2e11
	SmallCapMax = 5e10
)

type longTermReading struct {
	reading
	fundamentals *models.Fundamentals
	score        int
}

var longTermCascade = NewCascade(
	Rule[longTermReading]{
		Name:      "weak_long_term",
		Label:     LabelWeakLongTermSetup,
		Sentiment: models.SentimentNegative,
		Reasons: func(r longTermReading) []string {
			return []string{r.scoreReason(), r.rsiReason()}
		},
	},
	Rule[longTermReading]{
		Name:      "insufficient_data",
		Label:     LabelInsufficientData,
		Sentiment: models.SentimentNeutral,
		When: func(r longTermReading) bool {
			return r.fundamentals == nil || r.ctx.MarketCap <= 0 || !r.hasRSI
		},
		Reasons: func(r longTermReading) []string {
			return []string{"fundamentals, market cap or RSI unavailable"}
		},
	},
	Rule[longTermReading]{
		Name:      "high_conviction",
		Label:     LabelHighConviction,
		Sentiment: models.SentimentPositive,
		When: func(r longTermReading) bool {
			return r.score >= strongFundamentalScore && r.rsiIn(38, 45)
		},
		Reasons: func(r longTermReading) []string {
			return []string{r.scoreReason(), r.rsiReason() + " in accumulation band"}
		},
	},
	Rule[longTermReading]{
		Name:      "capitulation_zone",
		Label:     LabelCapitulationZone,
		Sentiment: models.SentimentNeutral,
		When: func(r longTermReading) bool {
			return r.score >= strongFundamentalScore && r.rsi < 38
		},
		Reasons: func(r longTermReading) []string {
			return []string{r.scoreReason(), r.rsiReason() + " below 38", "wait for stabilisation"}
		},
	},
	Rule[longTermReading]{
		Name:      "overheated_zone",
		Label:     LabelOverheatedZone,
		Sentiment: models.SentimentNeutral,
		When: func(r longTermReading) bool {
			return r.score >= strongFundamentalScore && r.rsi > 70
		},
		Reasons: func(r longTermReading) []string {
			return []string{r.scoreReason(), r.rsiReason() + " above 70"}
		},
	},
	Rule[longTermReading]{
		Name:      "accumulate_on_dips",
		Label:     LabelAccumulateOnDips,
		Sentiment: models.SentimentNeutral,
		When: func(r longTermReading) bool {
			return r.score >= qualityFundamentalScore && r.rsiIn(38, 60)
		},
		Reasons: func(r longTermReading) []string {
			return []string{r.scoreReason(), r.rsiReason()}
		},
	},
	Rule[longTermReading]{
		Name:      "timing_risky",
		Label:     LabelTimingRisky,
		Sentiment: models.SentimentNeutral,
		When: func(r longTermReading) bool {
			return r.score >= qualityFundamentalScore
		},
		Reasons: func(r longTermReading) []string {
			return []string{r.scoreReason(), r.rsiReason() + " outside accumulation band"}
		},
	},
)

func (r longTermReading) scoreReason() string {
	return fmt.Sprintf("fundamental score %d/%d", r.score, MaxFundamentalScore)
}

// EvaluateLongTerm classifies ctx by business quality first and RSI timing second.
func EvaluateLongTerm(ctx models.IndicatorContext, f *models.Fundamentals) models.Verdict {
	r := longTermReading{
		reading:      newReading(ctx, ctx.SwingVWAP),
		fundamentals: f,
		score:        ScoreFundamentals(f, ctx.MarketCap),
	}
	return longTermCascade.Evaluate(r)
}

// LongTermRuleNames lists the long-term rules in evaluation order.
func LongTermRuleNames() []string { return longTermCascade.Names() }

// ScoreFundamentals rates f on a 0..MaxFundamentalScore scale. A nil f scores 0.
func ScoreFundamentals(f *models.Fundamentals, marketCap float64) int {
	if f == nil {
		return 0
	}
	score := growthPoints(f.RevenueGrowthPct) + growthPoints(f.ProfitGrowthPct)

	if f.DebtToEquity != nil && isFinite(*f.DebtToEquity) {
		switch de := *f.DebtToEquity; {
		case de < 0.5:
			score++
		case de > 1.5:
			score--
		}
	}
	if f.ROEPct != nil && isFinite(*f.ROEPct) {
		switch roe := *f.ROEPct; {
		case roe >= 18:
			score += 2
		case roe >= 12:
			score++
		case roe < 5:
			score--
		}
	}
	if strings.EqualFold(f.MarketPosition, "leader") {
		score++
	}
	switch strings.ToLower(f.AnalystTone) {
	case "positive":
		score++
	case "negative":
		score--
	}
	switch {
	case marketCap >= LargeCapMin:
		score++
	case marketCap > 0 && marketCap < SmallCapMax:
		score--
	}
	return int(math.Max(0, math.Min(MaxFundamentalScore, float64(score))))
}

func growthPoints(p *float64) int {
	if p == nil || !isFinite(*p) {
		return 0
	}
	switch g := *p; {
	case g >= 15:
		return 2
	case g >= 8:
		return 1
	case g < 0:
		return -1
	default:
		return 0
	}
}
