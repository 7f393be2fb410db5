package models

import "fmt"

// RejectedError is a business precondition failure, reported to clients as a bad request.
type RejectedError struct {
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Reject builds a RejectedError.
func Reject(code, format string, a ...interface{}) *RejectedError {
	return &RejectedError{Code: code, Message: fmt.Sprintf(format, a...)}
}

// Rejection codes.
const (
	RejectInvalidDate       = "invalid_trade_date"
	RejectInvalidCapital    = "invalid_capital"
	RejectInvalidAllocation = "invalid_allocation_mode"
	RejectSnapshotNotFound  = "snapshot_not_found"
	RejectNoValidPicks      = "no_valid_picks"
	RejectInvalidHorizon    = "invalid_horizon"
	RejectNoSymbols         = "no_symbols"
)
