// Package backtest replays snapshot picks against intraday candles and summarizes the result.
package backtest

import (
	"time"

	"NSEScan/internal/domain/models"
	"NSEScan/pkg/money"
)

// SimInput is everything needed to replay one pick.
type SimInput struct {
	Pick models.SnapshotPick
	// Candles are the session candles of the trade date in ascending time order.
	Candles    []models.Candle
	SignalTime time.Time
	Allocated  float64
	CostBps    float64
	Interval   string
}

// Simulate walks the candles through awaiting-entry, open and closed states.
// A candle that reaches both the stop and a target counts as a stop.
func Simulate(in SimInput) models.TradeOutcome {
	pick := in.Pick
	out := models.TradeOutcome{
		Symbol:     pick.Symbol,
		EntryType:  pick.EntryType,
		EntryPrice: pick.EntryPrice,
		StopLoss:   pick.StopLoss,
		Target1:    pick.Target1,
		Target2:    pick.Target2,
		Interval:   in.Interval,
	}

	qty := money.Quantity(in.Allocated, pick.EntryPrice)
	if qty == 0 {
		return noTrade(out, models.StatusNoTrade, models.ReasonCapitalTooLow)
	}
	out.Quantity = qty

	if len(in.Candles) == 0 {
		return noTrade(out, models.StatusNoData, models.ReasonNoCandlesForDate)
	}

	start := -1
	for i, c := range in.Candles {
		if !c.Timestamp.Before(in.SignalTime) {
			start = i
			break
		}
	}
	if start < 0 {
		return noTrade(out, models.StatusNoTrade, models.ReasonNoCandlesAfterSignal)
	}

	entryIdx := -1
	for i := start; i < len(in.Candles); i++ {
		if in.Candles[i].Contains(pick.EntryPrice) {
			entryIdx = i
			break
		}
	}
	if entryIdx < 0 {
		return noTrade(out, models.StatusNoTrade, models.ReasonEntryNotTriggered)
	}

	entryAt := in.Candles[entryIdx].Timestamp
	out.EntryTriggeredAt = &entryAt
	out.InvestedAmount = money.Notional(pick.EntryPrice, qty)

	for i := entryIdx; i < len(in.Candles); i++ {
		c := in.Candles[i]
		hitT1 := c.High >= pick.Target1
		switch {
		case c.Low <= pick.StopLoss:
			reason := models.ReasonStopLossHit
			switch {
			case i == entryIdx:
				reason = models.ReasonStopOnEntryCandle
			case hitT1:
				reason = models.ReasonAmbiguousCandle
			}
			return closeAt(out, in.CostBps, models.ExitStopLoss, pick.StopLoss, c.Timestamp, reason)
		case pick.Target2 > 0 && c.High >= pick.Target2:
			return closeAt(out, in.CostBps, models.ExitTarget2, pick.Target2, c.Timestamp, "")
		case hitT1:
			return closeAt(out, in.CostBps, models.ExitTarget1, pick.Target1, c.Timestamp, "")
		}
	}
	return noTrade(out, models.StatusNoTrade, models.ReasonNoExitByClose)
}

func noTrade(out models.TradeOutcome, status models.TradeStatus, reason string) models.TradeOutcome {
	out.Status = status
	out.Outcome = models.OutcomeNoTrade
	out.Reason = reason
	return out
}

func closeAt(out models.TradeOutcome, costBps float64, exit models.ExitType, price float64, at time.Time, reason string) models.TradeOutcome {
	out.Status = models.StatusClosed
	out.ExitType = exit
	out.ExitPrice = price
	out.ExitTriggeredAt = &at
	out.Reason = reason
	if exit == models.ExitStopLoss {
		out.Outcome = models.OutcomeLoss
	} else {
		out.Outcome = models.OutcomeWin
	}

	out.GrossPnl = money.Round2((price - out.EntryPrice) * float64(out.Quantity))
	out.RoundTripCost = money.BpsOf(out.InvestedAmount, costBps)
	out.NetPnl = money.Round2(out.GrossPnl - out.RoundTripCost)
	return out
}

// FailedFetch is the outcome of a pick whose candles could not be fetched at any granularity.
func FailedFetch(pick models.SnapshotPick) models.TradeOutcome {
	return models.TradeOutcome{
		Symbol:     pick.Symbol,
		EntryType:  pick.EntryType,
		EntryPrice: pick.EntryPrice,
		StopLoss:   pick.StopLoss,
		Target1:    pick.Target1,
		Target2:    pick.Target2,
		Status:     models.StatusError,
		Outcome:    models.OutcomeNoTrade,
		Reason:     models.ReasonFetchFailed,
	}
}
