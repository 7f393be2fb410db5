package http

// APIResponse is the envelope of every JSON response; Status mirrors the HTTP status code.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"trade_date"`
	Message string                 `json:"message,omitempty" example:"trade_date is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// ListDataResponse wraps snapshot and backtest listings.
type ListDataResponse struct {
	Rows  interface{} `json:"rows"`
	Total int64       `json:"total"`
}
