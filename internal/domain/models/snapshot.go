package models

import "time"

// SnapshotPick is the persisted, sanitized form of a ranked swing candidate.
type SnapshotPick struct {
	Symbol       string    `json:"symbol"`
	CompanyName  string    `json:"companyName,omitempty"`
	Label        string    `json:"label"`
	Price        float64   `json:"price"`
	EntryPrice   float64   `json:"entryPrice"`
	StopLoss     float64   `json:"stopLoss"`
	Target1      float64   `json:"target1"`
	Target2      float64   `json:"target2"`
	EntryType    EntryType `json:"entryType"`
	RiskReward   string    `json:"riskReward"`
	QualityScore int       `json:"qualityScore"`
}

// SignalSnapshot records the accepted picks of one swing scan.
// There is at most one canonical snapshot per ISTDate.
type SignalSnapshot struct {
	ID            string            `json:"id"`
	CreatedAt     time.Time         `json:"createdAt"`
	ISTDate       string            `json:"istDate"`
	ISTTime       string            `json:"istTime"`
	Horizon       Horizon           `json:"horizon"`
	TotalScanned  int               `json:"totalScanned"`
	PositiveCount int               `json:"positiveCount"`
	QualityScore  float64           `json:"qualityScore"`
	Picks         []SnapshotPick    `json:"picks"`
	Meta          map[string]string `json:"meta,omitempty"`
}

// ShouldReplace reports whether incoming may replace existing as the canonical
// snapshot of the same day. Ties go to the newer snapshot.
func ShouldReplace(existing, incoming *SignalSnapshot) bool {
	if existing == nil {
		return true
	}
	return incoming.QualityScore >= existing.QualityScore
}

// SnapshotQuery filters ListSnapshots. An empty Date lists the most recent snapshots.
type SnapshotQuery struct {
	Date  string
	Limit int
}

// SaveSnapshotResult reports whether a snapshot became canonical for its day.
type SaveSnapshotResult struct {
	Saved bool `json:"saved"`
	// KeptID is the canonical snapshot ID after the save.
	KeptID string `json:"keptId"`
}
