package entry

import (
	"errors"
	"fmt"
	"math"

	"NSEScan/internal/domain/models"
	"NSEScan/internal/services/signals"
	"NSEScan/pkg/money"
)

// DefaultMinNetRR is the net risk-reward below which a plan is rejected.
const DefaultMinNetRR = 1.0

// Fixed scalp plan, in percent of entry.
const (
	scalpStopPct    = 0.6
	scalpTarget1Pct = 0.4
	scalpTarget2Pct = 0.6
)

var ErrInvalidPrice = errors.New("entry: price must be positive and finite")

// Calculator prices entries for one horizon profile. It is safe for concurrent use.
type Calculator struct {
	profile  Profile
	costBps  float64
	minNetRR float64
}

type Option func(*Calculator)

// WithCostBps overrides the profile's round-trip cost in basis points.
func WithCostBps(bps float64) Option {
	return func(c *Calculator) {
		if bps >= 0 {
			c.costBps = bps
		}
	}
}

// WithMinNetRR overrides the net risk-reward rejection floor.
func WithMinNetRR(v float64) Option {
	return func(c *Calculator) {
		if v > 0 {
			c.minNetRR = v
		}
	}
}

func NewCalculator(p Profile, opts ...Option) *Calculator {
	c := &Calculator{profile: p, costBps: p.CostBps, minNetRR: DefaultMinNetRR}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Calculator) Profile() Profile { return c.profile }

// strategy is the selected entry before stop and targets are derived.
type strategy struct {
	kind   models.EntryType
	entry  float64
	ref    float64
	reason string
}

// Plan derives entry, stop and targets for ctx. The returned plan is rejected
// (rr_weak or scalp_only) when the setup cannot satisfy the risk-reward floor
// or is too stretched for a full plan.
func (c *Calculator) Plan(ctx models.IndicatorContext, v models.Verdict) (models.EntryPlan, error) {
	price := ctx.Price
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return models.EntryPlan{}, ErrInvalidPrice
	}
	p := c.profile
	vol := clamp(models.Value(ctx.VolatilityPct, p.DefaultVol), p.VolMin, p.VolMax)
	if math.IsNaN(vol) {
		vol = p.DefaultVol
	}
	vwap := p.vwapFor(ctx)

	if p.ScalpGuard && c.overextended(ctx, v, vwap, vol) {
		return c.scalpPlan(price, vwap, vol, v), nil
	}

	s := c.selectStrategy(ctx, vwap, vol)
	entry := money.Floor2(math.Min(s.entry, price))

	stop := c.stopFor(s, entry, vol)
	risk := entry - stop
	if risk <= 0 {
		plan := models.EntryPlan{EntryPrice: entry, StopLoss: stop, EntryType: models.EntryRRWeak}
		plan.EntryReason = fmt.Sprintf("no room for a stop below entry (%s)", s.kind)
		c.applyCosts(&plan)
		return plan, nil
	}

	rr := c.rrMultiple(s.kind, ctx)
	resistance := positive(ctx.Resistance)
	t1 := c.target1(s.kind, entry, risk, rr, resistance, vol)
	t2 := c.target2(s.kind, entry, t1, risk, rr, resistance, vol, ctx.MarketCap)

	plan := models.EntryPlan{
		EntryPrice:  entry,
		StopLoss:    stop,
		Target1:     t1,
		Target2:     t2,
		EntryType:   s.kind,
		EntryReason: s.reason,
	}
	c.applyCosts(&plan)

	switch {
	case plan.NetRR < c.minNetRR:
		plan.EntryType = models.EntryRRWeak
		plan.EntryReason = fmt.Sprintf("net RR %s below %.1f after costs (%s)", plan.RiskReward, c.minNetRR, s.kind)
	case t1 <= price:
		plan.EntryType = models.EntryRRWeak
		plan.EntryReason = fmt.Sprintf("target1 %.2f not above market %.2f (%s)", t1, price, s.kind)
	}
	return plan, nil
}

func (c *Calculator) overextended(ctx models.IndicatorContext, v models.Verdict, vwap, vol float64) bool {
	if v.Label == signals.LabelStretchZone {
		return true
	}
	if vwap <= 0 || ctx.VolumeSpike {
		return false
	}
	dist := (ctx.Price - vwap) / vwap * 100
	return dist > math.Max(0.9, 0.8*vol)
}

func (c *Calculator) scalpPlan(price, vwap, vol float64, v models.Verdict) models.EntryPlan {
	entry := money.Floor2(price)
	plan := models.EntryPlan{
		EntryPrice: entry,
		StopLoss:   money.Floor2(entry * (1 - scalpStopPct/100)),
		Target1:    money.Round2(entry * (1 + scalpTarget1Pct/100)),
		Target2:    money.Round2(entry * (1 + scalpTarget2Pct/100)),
		EntryType:  models.EntryScalpOnly,
	}
	if v.Label == signals.LabelStretchZone {
		plan.EntryReason = "stretched momentum, scalp sizing only"
	} else {
		plan.EntryReason = fmt.Sprintf("price %.2f%% above VWAP without volume, scalp sizing only", (price-vwap)/vwap*100)
	}
	if plan.Target2 <= plan.Target1 {
		plan.Target2 = money.Round2(plan.Target1 + 0.01)
	}
	c.applyCosts(&plan)
	return plan
}

func (c *Calculator) selectStrategy(ctx models.IndicatorContext, vwap, vol float64) strategy {
	p := c.profile
	price := ctx.Price
	pull := math.Min(p.MaxPullbackPct, vol*p.PullbackVolMult)
	support := positive(ctx.Support)
	resistance := positive(ctx.Resistance)
	gap := ctx.EffectiveGap()

	var distVWAP float64
	if vwap > 0 {
		distVWAP = (price - vwap) / vwap * 100
	}

	switch {
	case ctx.Breakout && resistance > 0 && price >= resistance:
		return strategy{
			kind:   models.EntryBreakout,
			entry:  price,
			ref:    resistance,
			reason: fmt.Sprintf("breakout above %.2f with volume", resistance),
		}
	case vwap > 0 && price > vwap && distVWAP <= vol*p.NearVWAPVolMult:
		return strategy{
			kind:   models.EntryVWAPPullback,
			entry:  math.Max(vwap*1.001, price*(1-pull/100)),
			ref:    vwap,
			reason: fmt.Sprintf("pullback toward VWAP %.2f", vwap),
		}
	case support > 0 && price >= support && (price-support)/price*100 <= vol*p.NearSupportVolMult:
		return strategy{
			kind:   models.EntrySupportAccumulate,
			entry:  math.Max(support*(1+p.StructureBufferPct/100), price*(1-pull/100)),
			ref:    support,
			reason: fmt.Sprintf("accumulate above support %.2f", support),
		}
	case vwap > 0 && math.Abs(gap) < 0.5 && math.Abs(distVWAP) <= vol*p.ConsolidationVolMult:
		return strategy{
			kind:   models.EntryConsolidation,
			entry:  price * (1 - pull/200),
			ref:    structureBelow(price, vwap, support),
			reason: "range entry inside consolidation",
		}
	case ctx.VolumeSpike:
		return strategy{
			kind:   models.EntryVolumeMomentum,
			entry:  price * (1 - pull/200),
			ref:    structureBelow(price, vwap, support),
			reason: "volume-confirmed momentum",
		}
	case ctx.TrendUp:
		return strategy{
			kind:   models.EntryTrendContinuation,
			entry:  price * (1 - pull/100),
			ref:    structureBelow(price, vwap, support),
			reason: "trend continuation on a shallow pullback",
		}
	default:
		return strategy{
			kind:   models.EntryMarket,
			entry:  price,
			ref:    structureBelow(price, vwap, support),
			reason: "no structural level nearby, market entry",
		}
	}
}

// stopFor takes the tighter of the ATR stop and the structure stop, clamped to the profile band.
func (c *Calculator) stopFor(s strategy, entry, vol float64) float64 {
	p := c.profile
	minStop := math.Max(p.StopFloorPct, vol*p.StopVolMult)
	maxStop := math.Min(math.Max(minStop+p.StopSpreadPct, vol*p.MaxStopVolMult), p.StopCeilPct)
	if maxStop < minStop {
		maxStop = minStop
	}
	if s.kind == models.EntryBreakout {
		maxStop *= 1.15
	}

	stop := entry * (1 - vol*p.ATRStopMult/100)
	if s.ref > 0 && s.ref < entry {
		structural := s.ref * (1 - p.StructureBufferPct/100)
		if (entry-structural)/entry*100 <= maxStop {
			stop = math.Max(stop, structural)
		}
	}
	stopPct := clamp((entry-stop)/entry*100, minStop, maxStop)
	return money.Floor2(entry * (1 - stopPct/100))
}

func (c *Calculator) rrMultiple(kind models.EntryType, ctx models.IndicatorContext) float64 {
	rr, ok := c.profile.RRMultiples[kind]
	if !ok {
		rr = 1.5
	}
	if ctx.RSI != nil && *ctx.RSI > 62 {
		rr -= 0.3
	}
	if math.Abs(ctx.EffectiveGap()) > 2.5 {
		rr -= 0.2
	}
	if ctx.VolumeSpike {
		rr += 0.2
	}
	return math.Max(rr, 1.2)
}

func (c *Calculator) target1(kind models.EntryType, entry, risk, rr, resistance, vol float64) float64 {
	p := c.profile
	t1 := entry + risk*rr
	switch {
	case kind == models.EntryBreakout:
		t1 = math.Min(t1, math.Max(resistance, entry)*(1+vol*p.BreakoutExtVolMult/100))
	case resistance > entry:
		t1 = math.Min(t1, resistance*(1-p.ResistanceBufferPct/100))
	}
	if t1 <= entry {
		t1 = entry + 0.05
	}
	return money.Round2(t1)
}

func (c *Calculator) target2(kind models.EntryType, entry, t1, risk, rr, resistance, vol, marketCap float64) float64 {
	p := c.profile
	minStep := entry * math.Max(p.MinStepFloorPct, vol*p.MinStepVolMult) / 100
	maxExt := clamp(vol*p.MaxExtVolMult*capFactor(marketCap), p.MaxExtFloorPct, p.MaxExtCeilPct)

	t2 := math.Max(t1+minStep, entry+risk*(rr+1))
	t2 = math.Min(t2, entry*(1+maxExt/100))
	if kind != models.EntryBreakout && resistance > 0 {
		t2 = math.Min(t2, math.Max(resistance, entry)*(1+vol*p.RunnerVolMult/100))
	}
	t2 = money.Round2(math.Max(t2, t1+minStep))
	if t2 <= t1 {
		t2 = money.Round2(t1 + 0.01)
	}
	return t2
}

// applyCosts fills the cost and risk-reward fields from the plan's prices.
func (c *Calculator) applyCosts(plan *models.EntryPlan) {
	entry := plan.EntryPrice
	cost := entry * c.costBps / 10000
	plan.EstimatedRoundTripCostPerShare = money.RoundN(cost, 4)
	plan.EstimatedRoundTripCostPct = money.RoundN(c.costBps/100, 4)

	risk := entry - plan.StopLoss
	reward := plan.Target1 - entry
	if risk > 0 {
		plan.GrossRR = reward / risk
		plan.NetRR = (reward - cost) / (risk + cost)
	}
	plan.RiskReward = money.Fixed2(plan.NetRR)
	plan.RiskRewardAfterCosts = plan.RiskReward
	plan.RiskRewardGross = money.Fixed2(plan.GrossRR)
}

// structureBelow returns the highest of vwap and support below price, or 0.
func structureBelow(price float64, levels ...float64) float64 {
	best := 0.0
	for _, l := range levels {
		if l > 0 && l < price && l > best {
			best = l
		}
	}
	return best
}

func positive(p *float64) float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) || *p <= 0 {
		return 0
	}
	return *p
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
