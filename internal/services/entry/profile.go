// Package entry turns an indicator context and verdict into a long-only entry plan.
package entry

import "NSEScan/internal/domain/models"

// Profile holds the horizon-specific constants of the entry algorithm.
// Percentages are in percent of price; *VolMult fields scale the clamped volatility percent.
type Profile struct {
	Horizon models.Horizon

	VolMin     float64
	VolMax     float64
	DefaultVol float64

	CostBps float64

	MaxPullbackPct  float64
	PullbackVolMult float64

	StopFloorPct   float64
	StopVolMult    float64
	MaxStopVolMult float64
	StopSpreadPct  float64
	StopCeilPct    float64
	ATRStopMult    float64

	StructureBufferPct  float64
	ResistanceBufferPct float64
	BreakoutExtVolMult  float64
	RunnerVolMult       float64

	MinStepFloorPct float64
	MinStepVolMult  float64
	MaxExtVolMult   float64
	MaxExtFloorPct  float64
	MaxExtCeilPct   float64

	NearVWAPVolMult      float64
	NearSupportVolMult   float64
	ConsolidationVolMult float64

	RRMultiples map[models.EntryType]float64

	// ScalpGuard forces the fixed scalp plan on stretched or overextended setups.
	ScalpGuard bool
}

// IntradayProfile is tuned for same-day exits against the session VWAP.
var IntradayProfile = Profile{
	Horizon:    models.HorizonIntraday,
	VolMin:     0.45,
	VolMax:     3.8,
	DefaultVol: 1.2,
	CostBps:    18,

	MaxPullbackPct:  0.25,
	PullbackVolMult: 0.15,

	StopFloorPct:   0.35,
	StopVolMult:    0.45,
	MaxStopVolMult: 1.1,
	StopSpreadPct:  0.3,
	StopCeilPct:    3.0,
	ATRStopMult:    0.75,

	StructureBufferPct:  0.15,
	ResistanceBufferPct: 0.1,
	BreakoutExtVolMult:  0.6,
	RunnerVolMult:       0.8,

	MinStepFloorPct: 0.2,
	MinStepVolMult:  0.25,
	MaxExtVolMult:   1.6,
	MaxExtFloorPct:  1.2,
	MaxExtCeilPct:   6,

	NearVWAPVolMult:      0.6,
	NearSupportVolMult:   0.8,
	ConsolidationVolMult: 0.3,

	RRMultiples: map[models.EntryType]float64{
		models.EntryBreakout:          2.0,
		models.EntryVWAPPullback:      1.8,
		models.EntrySupportAccumulate: 2.0,
		models.EntryConsolidation:     1.6,
		models.EntryVolumeMomentum:    1.8,
		models.EntryTrendContinuation: 1.6,
		models.EntryMarket:            1.5,
	},
	ScalpGuard: true,
}

// SwingProfile is tuned for multi-day holds against the swing VWAP.
var SwingProfile = Profile{
	Horizon:    models.HorizonSwing,
	VolMin:     1.0,
	VolMax:     7.5,
	DefaultVol: 2.5,
	CostBps:    30,

	MaxPullbackPct:  1.0,
	PullbackVolMult: 0.25,

	StopFloorPct:   1.2,
	StopVolMult:    0.6,
	MaxStopVolMult: 1.5,
	StopSpreadPct:  1.0,
	StopCeilPct:    9,
	ATRStopMult:    1.0,

	StructureBufferPct:  0.3,
	ResistanceBufferPct: 0.4,
	BreakoutExtVolMult:  1.0,
	RunnerVolMult:       1.2,

	MinStepFloorPct: 0.8,
	MinStepVolMult:  0.4,
	MaxExtVolMult:   2.5,
	MaxExtFloorPct:  4,
	MaxExtCeilPct:   18,

	NearVWAPVolMult:      0.8,
	NearSupportVolMult:   1.0,
	ConsolidationVolMult: 0.8,

	RRMultiples: map[models.EntryType]float64{
		models.EntryBreakout:          2.2,
		models.EntryVWAPPullback:      2.0,
		models.EntrySupportAccumulate: 2.2,
		models.EntryConsolidation:     1.8,
		models.EntryVolumeMomentum:    2.0,
		models.EntryTrendContinuation: 1.8,
		models.EntryMarket:            1.6,
	},
}

// ProfileFor returns the profile used for h. Long-term plans reuse the swing profile.
func ProfileFor(h models.Horizon) Profile {
	if h == models.HorizonIntraday {
		return IntradayProfile
	}
	return SwingProfile
}

// vwapFor picks the VWAP the profile measures distance against.
func (p Profile) vwapFor(ctx models.IndicatorContext) float64 {
	v := ctx.SwingVWAP
	if p.Horizon == models.HorizonIntraday {
		v = ctx.VWAP
	}
	return positive(v)
}

// capFactor widens the runner extension for smaller companies.
func capFactor(marketCap float64) float64 {
	switch {
	case marketCap >= 2e11:
		return 1.4
	case marketCap >= 5e10:
		return 1.7
	case marketCap > 0:
		return 2.0
	default:
		return 1.7
	}
}
