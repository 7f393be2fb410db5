package models

import "time"

// SymbolResult is the evaluation of one symbol in a scan. A symbol whose data
// could not be fetched carries Error and nothing else.
type SymbolResult struct {
	Symbol       string            `json:"symbol"`
	CompanyName  string            `json:"companyName,omitempty"`
	Verdict      *Verdict          `json:"verdict,omitempty"`
	Plan         *EntryPlan        `json:"plan,omitempty"`
	Indicators   *IndicatorContext `json:"indicators,omitempty"`
	QualityScore *int              `json:"qualityScore,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// ScanResult is the consolidated output of one scan.
type ScanResult struct {
	Horizon      Horizon        `json:"horizon"`
	Timestamp    time.Time      `json:"timestamp"`
	TotalScanned int            `json:"totalScanned"`
	Results      []SymbolResult `json:"results"`
	// Ranked holds the quality-filtered swing picks, best first.
	Ranked    []SymbolResult      `json:"ranked,omitempty"`
	Threshold *int                `json:"threshold,omitempty"`
	Snapshot  *SaveSnapshotResult `json:"snapshot,omitempty"`
	Errors    map[string]string   `json:"errors,omitempty"`
}
