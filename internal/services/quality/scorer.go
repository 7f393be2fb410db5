// Package quality ranks swing candidates by an integer setup score against a per-batch threshold.
package quality

import (
	"math"
	"sort"

	"NSEScan/internal/domain/models"
	"NSEScan/internal/services/entry"
	"NSEScan/internal/services/signals"
)

// Candidate is one evaluated symbol offered to the scorer.
type Candidate struct {
	Symbol  string
	Verdict models.Verdict
	Plan    models.EntryPlan
	Context models.IndicatorContext
}

// Scored is a candidate that passed the hard filter, with its score.
type Scored struct {
	Candidate
	Score int
}

var labelPoints = map[string]int{
	signals.LabelHighQualitySwing: 20,
	signals.LabelBreakoutSwing:    16,
	signals.LabelPotentialSwing:   12,
	signals.LabelSupportSwing:     10,
}

var entryTypePoints = map[models.EntryType]int{
	models.EntryBreakout:          10,
	models.EntryVWAPPullback:      10,
	models.EntrySupportAccumulate: 10,
	models.EntryVolumeMomentum:    8,
	models.EntryTrendContinuation: 8,
	models.EntryConsolidation:     6,
	models.EntryMarket:            3,
}

type Scorer struct {
	minNetRR  float64
	threshold ThresholdConfig
}

type Option func(*Scorer)

// WithMinNetRR sets the net risk-reward hard filter.
func WithMinNetRR(v float64) Option {
	return func(s *Scorer) {
		if v > 0 {
			s.minNetRR = v
		}
	}
}

// WithThreshold replaces the adaptive threshold parameters.
func WithThreshold(cfg ThresholdConfig) Option {
	return func(s *Scorer) { s.threshold = cfg }
}

func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{minNetRR: entry.DefaultMinNetRR, threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Eligible is the hard filter applied before scoring.
func (s *Scorer) Eligible(c Candidate) bool {
	return c.Verdict.IsPositive() && !c.Plan.IsRejected() && c.Plan.NetRR >= s.minNetRR
}

// Score rates a candidate. Net risk-reward carries the largest weight.
func (s *Scorer) Score(c Candidate) int {
	score, ok := labelPoints[c.Verdict.Label]
	if !ok {
		score = 4
	}
	score += entryTypePoints[c.Plan.EntryType]

	switch rr := c.Plan.NetRR; {
	case rr >= 2.0:
		score += 24
	case rr >= 1.6:
		score += 16
	case rr >= 1.3:
		score += 10
	case rr >= 1.0:
		score += 4
	default:
		score -= 20
	}

	ctx := c.Context
	if ctx.VolumeSpike {
		score += 6
	}
	if ctx.SwingVWAP != nil && ctx.Price > *ctx.SwingVWAP {
		score += 5
	}
	if ctx.RSI != nil {
		switch rsi := *ctx.RSI; {
		case rsi >= 48 && rsi <= 62:
			score += 6
		case rsi >= 40 && rsi < 48:
			score += 3
		case rsi > 68:
			score -= 6
		case rsi < 38:
			score -= 4
		}
	}
	switch gap := ctx.EffectiveGap(); {
	case gap >= 0 && gap <= 3:
		score += 4
	case gap < -1:
		score -= 4
	case gap > 5.5:
		score -= 6
	}
	if ctx.VolatilityPct != nil {
		switch vol := *ctx.VolatilityPct; {
		case vol >= 1.5 && vol <= 4.5:
			score += 4
		case vol > 6:
			score -= 5
		case vol < 1.2:
			score -= 2
		}
	}
	return score
}

// Rank filters, scores and orders candidates. It returns the kept list and
// the threshold computed over every eligible score.
func (s *Scorer) Rank(cands []Candidate) ([]Scored, int) {
	eligible := make([]Scored, 0, len(cands))
	scores := make([]int, 0, len(cands))
	for _, c := range cands {
		if !s.Eligible(c) {
			continue
		}
		sc := Scored{Candidate: c, Score: s.Score(c)}
		eligible = append(eligible, sc)
		scores = append(scores, sc.Score)
	}

	threshold := s.threshold.Compute(scores)
	kept := eligible[:0]
	for _, sc := range eligible {
		if sc.Score >= threshold {
			kept = append(kept, sc)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Plan.NetRR != b.Plan.NetRR {
			return a.Plan.NetRR > b.Plan.NetRR
		}
		return a.Symbol < b.Symbol
	})
	return kept, threshold
}

// ThresholdConfig blends two percentiles of the batch and clamps the result.
type ThresholdConfig struct {
	UpperPercentile float64 `yaml:"upper_percentile" default:"60"`
	LowerPercentile float64 `yaml:"lower_percentile" default:"50"`
	UpperWeight     float64 `yaml:"upper_weight" default:"0.6"`
	Min             int     `yaml:"min" default:"34"`
	Max             int     `yaml:"max" default:"56"`
	Empty           int     `yaml:"empty" default:"40"`
}

var DefaultThreshold = ThresholdConfig{
	UpperPercentile: 60,
	LowerPercentile: 50,
	UpperWeight:     0.6,
	Min:             34,
	Max:             56,
	Empty:           40,
}

// Compute returns the adaptive threshold for a batch of scores.
func (t ThresholdConfig) Compute(scores []int) int {
	if len(scores) == 0 {
		return t.Empty
	}
	sorted := append([]int(nil), scores...)
	sort.Ints(sorted)

	blend := t.UpperWeight*Percentile(sorted, t.UpperPercentile) +
		(1-t.UpperWeight)*Percentile(sorted, t.LowerPercentile)
	v := int(math.Round(blend))
	if v < t.Min {
		return t.Min
	}
	if v > t.Max {
		return t.Max
	}
	return v
}

// Percentile linearly interpolates the p-th percentile of ascending sorted values.
func Percentile(sorted []int, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return float64(sorted[0])
	}
	rank := math.Max(0, math.Min(100, p)) / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[hi]-sorted[lo])
}
