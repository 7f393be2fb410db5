package models

// EntryType names the strategy the entry calculator picked, or why the plan was rejected.
type EntryType string

const (
	EntryBreakout          EntryType = "breakout"
	EntryVWAPPullback      EntryType = "vwap_pullback"
	EntrySupportAccumulate EntryType = "support_accumulation"
	EntryConsolidation     EntryType = "consolidation"
	EntryVolumeMomentum    EntryType = "volume_momentum"
	EntryTrendContinuation EntryType = "trend_continuation"
	EntryMarket            EntryType = "market"
	EntryScalpOnly         EntryType = "scalp_only"
	EntryRRWeak            EntryType = "rr_weak"
)

// EntryPlan is a long-only trade plan. Non-rejected plans satisfy
// StopLoss < EntryPrice <= market price < Target1 < Target2.
type EntryPlan struct {
	EntryPrice  float64   `json:"entryPrice"`
	StopLoss    float64   `json:"stopLoss"`
	Target1     float64   `json:"target1"`
	Target2     float64   `json:"target2"`
	EntryReason string    `json:"entryReason"`
	EntryType   EntryType `json:"entryType"`

	RiskReward           string `json:"riskReward"`
	RiskRewardAfterCosts string `json:"riskRewardAfterCosts"`
	RiskRewardGross      string `json:"riskRewardGross"`

	EstimatedRoundTripCostPerShare float64 `json:"estimatedRoundTripCostPerShare"`
	EstimatedRoundTripCostPct      float64 `json:"estimatedRoundTripCostPct"`

	// NetRR and GrossRR are the unrounded ratios behind the string fields.
	NetRR   float64 `json:"netRR"`
	GrossRR float64 `json:"grossRR"`
}

// IsRejected reports whether the plan failed the risk-reward or scalp checks.
func (p EntryPlan) IsRejected() bool {
	return p.EntryType == EntryRRWeak || p.EntryType == EntryScalpOnly
}
