package models

// IndicatorContext bundles the indicator readings consumed by the rule cascades
// and the entry calculator. Optional readings are pointers so that an absent
// value is distinguishable from zero.
type IndicatorContext struct {
	Price         float64     `json:"price"`
	RSI           *float64    `json:"rsi,omitempty"`
	VWAP          *float64    `json:"vwap,omitempty"`
	SwingVWAP     *float64    `json:"swingVwap,omitempty"`
	Support       *float64    `json:"support,omitempty"`
	Resistance    *float64    `json:"resistance,omitempty"`
	VolumeSpike   bool        `json:"volumeSpike"`
	Breakout      bool        `json:"breakout"`
	VolatilityPct *float64    `json:"volatilityPct,omitempty"`
	CandleColor   CandleColor `json:"candleColor,omitempty"`
	GapOpenPct    *float64    `json:"gapOpenPct,omitempty"`
	GapNowPct     *float64    `json:"gapNowPct,omitempty"`
	MarketCap     float64     `json:"marketCap"`
	// TrendUp is true when the last close is above the close five bars earlier.
	TrendUp bool `json:"trendUp"`
}

// EffectiveGap is GapNowPct when present (zero included), else GapOpenPct, else 0.
func (c IndicatorContext) EffectiveGap() float64 {
	if c.GapNowPct != nil {
		return *c.GapNowPct
	}
	if c.GapOpenPct != nil {
		return *c.GapOpenPct
	}
	return 0
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Value returns *p or def when p is nil.
func Value(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
