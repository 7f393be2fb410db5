package models

// Requests for the screener HTTP endpoints.

type ScanRequest struct {
	Horizon string   `query:"horizon" json:"horizon" default:"swing" validate:"oneof=intraday swing longterm"`
	Symbols []string `query:"symbols" json:"symbols" validate:"omitempty,max=500,dive,required"`
}

type SnapshotsRequest struct {
	Date  string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
	Limit int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=200"`
}

type BacktestRequest struct {
	TradeDate      string  `json:"trade_date" validate:"required,datetime=2006-01-02"`
	Capital        float64 `json:"capital" validate:"gt=0"`
	AllocationMode string  `json:"allocation_mode" default:"split_evenly" validate:"oneof=full_per_pick split_evenly"`
	SnapshotID     string  `json:"snapshot_id" validate:"omitempty,uuid"`
}

type BacktestListRequest struct {
	Limit int `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=200"`
}
