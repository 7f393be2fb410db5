package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// AllocationMode decides how capital is spread across picks.
type AllocationMode string

const (
	AllocationFullPerPick AllocationMode = "full_per_pick"
	AllocationSplitEvenly AllocationMode = "split_evenly"
)

func (m AllocationMode) Valid() bool {
	return m == AllocationFullPerPick || m == AllocationSplitEvenly
}

// TradeStatus is the terminal state of one simulated pick.
type TradeStatus string

const (
	StatusNoData  TradeStatus = "no_data"
	StatusNoTrade TradeStatus = "no_trade"
	StatusClosed  TradeStatus = "closed"
	StatusError   TradeStatus = "error"
)

// Outcome is the recommendation result of one pick.
type Outcome string

const (
	OutcomeWin     Outcome = "win"
	OutcomeLoss    Outcome = "loss"
	OutcomeNoTrade Outcome = "no_trade"
)

// ExitType names the level that closed a position.
type ExitType string

const (
	ExitStopLoss ExitType = "stop_loss"
	ExitTarget1  ExitType = "target1"
	ExitTarget2  ExitType = "target2"
)

// No-trade and loss reason codes.
const (
	ReasonNoCandlesForDate     = "no_intraday_candles_for_date"
	ReasonNoCandlesAfterSignal = "no_candles_after_signal_time"
	ReasonCapitalTooLow        = "capital_too_low_for_one_share"
	ReasonEntryNotTriggered    = "entry_not_triggered"
	ReasonNoExitByClose        = "no_exit_level_hit_by_close"
	ReasonFetchFailed          = "candle_fetch_failed"

	ReasonStopOnEntryCandle = "stop_on_entry_candle"
	ReasonAmbiguousCandle   = "stop_and_target_same_candle"
	ReasonStopLossHit       = "stop_loss_hit"
)

// TradeOutcome is the replay result of one snapshot pick.
type TradeOutcome struct {
	Symbol           string      `json:"symbol"`
	EntryType        EntryType   `json:"entryType"`
	EntryPrice       float64     `json:"entryPrice"`
	StopLoss         float64     `json:"stopLoss"`
	Target1          float64     `json:"target1"`
	Target2          float64     `json:"target2"`
	Status           TradeStatus `json:"status"`
	Outcome          Outcome     `json:"outcome"`
	Reason           string      `json:"reason,omitempty"`
	Interval         string      `json:"interval,omitempty"`
	Quantity         int64       `json:"quantity"`
	InvestedAmount   float64     `json:"investedAmount"`
	GrossPnl         float64     `json:"grossPnl"`
	NetPnl           float64     `json:"netPnl"`
	RoundTripCost    float64     `json:"roundTripCost"`
	ExitType         ExitType    `json:"exitType,omitempty"`
	ExitPrice        float64     `json:"exitPrice,omitempty"`
	EntryTriggeredAt *time.Time  `json:"entryTriggeredAt,omitempty"`
	ExitTriggeredAt  *time.Time  `json:"exitTriggeredAt,omitempty"`
}

// Decisive reports whether the pick reached a win or a loss.
func (t TradeOutcome) Decisive() bool {
	return t.Outcome == OutcomeWin || t.Outcome == OutcomeLoss
}

// SnapshotValidation summarizes which picks of a snapshot were replayable.
type SnapshotValidation struct {
	TotalPicks     int      `json:"totalPicks"`
	ValidPicks     int      `json:"validPicks"`
	InvalidSymbols []string `json:"invalidSymbols,omitempty"`
}

// EntryTypeStats aggregates outcomes for one entry type.
type EntryTypeStats struct {
	Trades   int     `json:"trades"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	NoTrades int     `json:"noTrades"`
	NetPnl   float64 `json:"netPnl"`
}

// Recommendation verdicts of a backtest summary.
const (
	VerdictWorking          = "working"
	VerdictMixedRefine      = "mixed_refine"
	VerdictNeedsRefinement  = "needs_refinement"
	VerdictInsufficientData = "insufficient_data"
)

// BacktestSummary aggregates the trades of one run.
type BacktestSummary struct {
	TotalPicks  int `json:"totalPicks"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	NoTrades    int `json:"noTrades"`
	Target1Hits int `json:"target1Hits"`
	Target2Hits int `json:"target2Hits"`
	StopHits    int `json:"stopLossHits"`

	GrossPnl           float64 `json:"grossPnl"`
	NetPnl             float64 `json:"netPnl"`
	TotalCost          float64 `json:"totalCost"`
	CapitalDeployed    float64 `json:"capitalDeployed"`
	CapitalConfigured  float64 `json:"capitalConfigured"`
	ROIOnDeployedPct   float64 `json:"roiOnDeployedPct"`
	ROIOnConfiguredPct float64 `json:"roiOnConfiguredPct"`
	WinRatePct         float64 `json:"winRatePct"`
	AccuracyPct        float64 `json:"accuracyPct"`
	Verdict            string  `json:"verdict"`

	ByEntryType    map[string]EntryTypeStats `json:"byEntryType"`
	ByLossReason   map[string]int            `json:"byLossReason"`
	NoTradeReasons map[string]int            `json:"noTradeReasons"`
}

// BacktestRun is the persisted record of one replay.
type BacktestRun struct {
	ID                 string             `json:"id"`
	CreatedAt          time.Time          `json:"createdAt"`
	TradeDate          string             `json:"tradeDate"`
	Capital            float64            `json:"capital"`
	AllocationMode     AllocationMode     `json:"allocationMode"`
	SnapshotID         string             `json:"snapshotId"`
	CostBps            float64            `json:"costBps"`
	SnapshotValidation SnapshotValidation `json:"snapshotValidation"`
	Summary            BacktestSummary    `json:"summary"`
	Trades             []TradeOutcome     `json:"trades"`
	// Fingerprint hashes Trades. Runs with the same key and fingerprint are duplicates.
	Fingerprint string `json:"fingerprint"`
}

// DedupKey identifies runs that replay the same inputs.
func (r *BacktestRun) DedupKey() string {
	return fmt.Sprintf("%s|%.2f|%s|%s", r.TradeDate, r.Capital, r.AllocationMode, r.SnapshotID)
}

// TradesFingerprint returns a stable hash of trades.
func TradesFingerprint(trades []TradeOutcome) (string, error) {
	b, err := json.Marshal(trades)
	if err != nil {
		return "", fmt.Errorf("marshal trades: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// IsDuplicateOf reports whether r replays the same inputs as other with identical trades.
func (r *BacktestRun) IsDuplicateOf(other *BacktestRun) bool {
	if other == nil {
		return false
	}
	return r.DedupKey() == other.DedupKey() && r.Fingerprint == other.Fingerprint
}

// SaveRunResult reports whether a run was persisted or matched an existing one.
type SaveRunResult struct {
	Saved         bool   `json:"saved"`
	ExistingRunID string `json:"existingRunId,omitempty"`
}
