package backtest

import (
	"testing"
	"time"

	"NSEScan/internal/domain/models"
	"NSEScan/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var open = time.Date(2025, 3, 5, 9, 15, 0, 0, util.IST)

func bar(min int, lo, hi float64) models.Candle {
	return models.Candle{
		Timestamp: open.Add(time.Duration(min) * time.Minute),
		Open:      lo, High: hi, Low: lo, Close: hi,
		Volume: 1000,
	}
}

func pick() models.SnapshotPick {
	return models.SnapshotPick{
		Symbol:     "RELIANCE",
		EntryPrice: 100,
		StopLoss:   98,
		Target1:    103,
		Target2:    105,
		EntryType:  models.EntryVWAPPullback,
	}
}

func sim(candles ...models.Candle) models.TradeOutcome {
	return Simulate(SimInput{
		Pick:       pick(),
		Candles:    candles,
		SignalTime: open,
		Allocated:  10000,
		CostBps:    30,
		Interval:   "1m",
	})
}

func TestSimulateTarget1(t *testing.T) {
	out := sim(bar(0, 100.5, 101), bar(1, 99.5, 100.5), bar(2, 100, 102), bar(3, 102, 103.5))

	assert.Equal(t, models.StatusClosed, out.Status)
	assert.Equal(t, models.OutcomeWin, out.Outcome)
	assert.Equal(t, models.ExitTarget1, out.ExitType)
	assert.Equal(t, 103.0, out.ExitPrice)
	assert.Equal(t, int64(100), out.Quantity)
	assert.Equal(t, 10000.0, out.InvestedAmount)
	assert.Equal(t, 300.0, out.GrossPnl)
	assert.Equal(t, 30.0, out.RoundTripCost)
	assert.Equal(t, 270.0, out.NetPnl)
	require.NotNil(t, out.EntryTriggeredAt)
	assert.Equal(t, open.Add(time.Minute), *out.EntryTriggeredAt)
	require.NotNil(t, out.ExitTriggeredAt)
	assert.Equal(t, open.Add(3*time.Minute), *out.ExitTriggeredAt)
}

func TestSimulateTarget2BeatsTarget1(t *testing.T) {
	out := sim(bar(0, 99.5, 100.5), bar(1, 101, 106))
	assert.Equal(t, models.ExitTarget2, out.ExitType)
	assert.Equal(t, 500.0, out.GrossPnl)
}

func TestSimulateStopWinsAmbiguousCandle(t *testing.T) {
	out := sim(bar(0, 99.5, 100.5), bar(1, 97, 104))
	assert.Equal(t, models.OutcomeLoss, out.Outcome)
	assert.Equal(t, models.ExitStopLoss, out.ExitType)
	assert.Equal(t, models.ReasonAmbiguousCandle, out.Reason)
	assert.Equal(t, -200.0, out.GrossPnl)
	assert.Equal(t, -230.0, out.NetPnl)
}

func TestSimulateStopOnEntryCandle(t *testing.T) {
	out := sim(bar(0, 97.5, 100.5))
	assert.Equal(t, models.OutcomeLoss, out.Outcome)
	assert.Equal(t, models.ReasonStopOnEntryCandle, out.Reason)
}

func TestSimulatePlainStop(t *testing.T) {
	out := sim(bar(0, 99.5, 100.5), bar(1, 97.9, 99))
	assert.Equal(t, models.ReasonStopLossHit, out.Reason)
}

func TestSimulateCapitalTooLow(t *testing.T) {
	p := pick()
	p.EntryPrice = 2000
	out := Simulate(SimInput{Pick: p, Allocated: 1000, Candles: []models.Candle{bar(0, 1990, 2010)}, SignalTime: open})
	assert.Equal(t, models.StatusNoTrade, out.Status)
	assert.Equal(t, models.OutcomeNoTrade, out.Outcome)
	assert.Equal(t, models.ReasonCapitalTooLow, out.Reason)
	assert.Equal(t, int64(0), out.Quantity)
}

func TestSimulateNoTradePaths(t *testing.T) {
	out := sim()
	assert.Equal(t, models.StatusNoData, out.Status)
	assert.Equal(t, models.ReasonNoCandlesForDate, out.Reason)

	late := Simulate(SimInput{Pick: pick(), Allocated: 10000, Candles: []models.Candle{bar(0, 99, 101)}, SignalTime: open.Add(time.Hour)})
	assert.Equal(t, models.ReasonNoCandlesAfterSignal, late.Reason)

	out = sim(bar(0, 101, 102), bar(1, 100.5, 102.5))
	assert.Equal(t, models.ReasonEntryNotTriggered, out.Reason)
	assert.Nil(t, out.EntryTriggeredAt)
	assert.Zero(t, out.InvestedAmount)

	out = sim(bar(0, 99.5, 100.5), bar(1, 100, 102))
	assert.Equal(t, models.StatusNoTrade, out.Status)
	assert.Equal(t, models.ReasonNoExitByClose, out.Reason)
	assert.Equal(t, 10000.0, out.InvestedAmount)
	assert.NotNil(t, out.EntryTriggeredAt)
}

func TestSimulateIgnoresCandlesBeforeSignal(t *testing.T) {
	out := Simulate(SimInput{
		Pick:       pick(),
		Allocated:  10000,
		SignalTime: open.Add(2 * time.Minute),
		Candles:    []models.Candle{bar(0, 99, 101), bar(1, 97, 99), bar(2, 99.8, 100.2), bar(3, 101, 103)},
	})
	assert.Equal(t, models.ExitTarget1, out.ExitType)
	assert.Equal(t, open.Add(2*time.Minute), *out.EntryTriggeredAt)
}

func TestSimulateIsDeterministic(t *testing.T) {
	candles := []models.Candle{bar(0, 99.5, 100.5), bar(1, 101, 103.2)}
	assert.Equal(t, sim(candles...), sim(candles...))
}

func TestSignalTime(t *testing.T) {
	session, err := util.SessionFor("2025-03-05", DefaultSessionOpen, DefaultSessionClose)
	require.NoError(t, err)

	midday := time.Date(2025, 3, 5, 12, 0, 0, 0, util.IST)
	assert.Equal(t, midday, SignalTime(midday, session))

	previousDay := time.Date(2025, 3, 4, 20, 0, 0, 0, util.IST)
	assert.Equal(t, session.Open, SignalTime(previousDay, session))

	early := time.Date(2025, 3, 5, 8, 0, 0, 0, util.IST)
	assert.Equal(t, session.Open, SignalTime(early, session))
	assert.Equal(t, session.Open, SignalTime(time.Time{}, session))
}

func TestFilterSession(t *testing.T) {
	session, err := util.SessionFor("2025-03-05", DefaultSessionOpen, DefaultSessionClose)
	require.NoError(t, err)

	preOpen := bar(-10, 99, 100)
	afterClose := bar(400, 99, 100)
	got := FilterSession([]models.Candle{bar(5, 1, 2), preOpen, bar(1, 1, 2), afterClose}, session)
	require.Len(t, got, 2)
	assert.True(t, got[0].Timestamp.Before(got[1].Timestamp))
}

func TestValidatePicks(t *testing.T) {
	bad := pick()
	bad.Symbol = "BAD"
	bad.StopLoss = 101
	empty := pick()
	empty.Symbol = ""

	valid, v := ValidatePicks([]models.SnapshotPick{pick(), bad, empty})
	assert.Len(t, valid, 1)
	assert.Equal(t, 3, v.TotalPicks)
	assert.Equal(t, 1, v.ValidPicks)
	assert.Equal(t, []string{"BAD", ""}, v.InvalidSymbols)
}

func TestAllocate(t *testing.T) {
	per, configured := Allocate(10000, models.AllocationSplitEvenly, 3)
	assert.Equal(t, 3333.33, per)
	assert.Equal(t, 10000.0, configured)

	per, configured = Allocate(10000, models.AllocationFullPerPick, 3)
	assert.Equal(t, 10000.0, per)
	assert.Equal(t, 30000.0, configured)

	per, configured = Allocate(10000, models.AllocationSplitEvenly, 0)
	assert.Zero(t, per)
	assert.Zero(t, configured)
}

func TestSummarize(t *testing.T) {
	win := sim(bar(0, 99.5, 100.5), bar(1, 101, 103.5))
	win2 := sim(bar(0, 99.5, 100.5), bar(1, 101, 106))
	loss := sim(bar(0, 99.5, 100.5), bar(1, 97, 99))
	none := sim(bar(0, 101, 102))

	s := Summarize([]models.TradeOutcome{win, win2, loss, none}, 51000)

	assert.Equal(t, 4, s.TotalPicks)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.Equal(t, 1, s.NoTrades)
	assert.Equal(t, 1, s.Target1Hits)
	assert.Equal(t, 1, s.Target2Hits)
	assert.Equal(t, 1, s.StopHits)
	assert.Equal(t, 600.0, s.GrossPnl)
	assert.Equal(t, 90.0, s.TotalCost)
	assert.Equal(t, 510.0, s.NetPnl)
	assert.Equal(t, 30000.0, s.CapitalDeployed)
	assert.Equal(t, 1.7, s.ROIOnDeployedPct)
	assert.Equal(t, 1.0, s.ROIOnConfiguredPct)
	assert.Equal(t, 50.0, s.WinRatePct)
	assert.Equal(t, 66.67, s.AccuracyPct)
	assert.Equal(t, models.VerdictWorking, s.Verdict)
	assert.Equal(t, 1, s.ByLossReason[models.ReasonStopLossHit])
	assert.Equal(t, 1, s.NoTradeReasons[models.ReasonEntryNotTriggered])

	stats := s.ByEntryType[string(models.EntryVWAPPullback)]
	assert.Equal(t, 4, stats.Trades)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 510.0, stats.NetPnl)
}

func TestSummarizeVerdicts(t *testing.T) {
	win := models.TradeOutcome{Outcome: models.OutcomeWin}
	loss := models.TradeOutcome{Outcome: models.OutcomeLoss}

	assert.Equal(t, models.VerdictInsufficientData, Summarize([]models.TradeOutcome{win, loss}, 0).Verdict)
	assert.Equal(t, models.VerdictMixedRefine, Summarize([]models.TradeOutcome{win, loss, win, loss}, 0).Verdict)
	assert.Equal(t, models.VerdictNeedsRefinement, Summarize([]models.TradeOutcome{win, loss, loss}, 0).Verdict)

	empty := Summarize(nil, 0)
	assert.Equal(t, models.VerdictInsufficientData, empty.Verdict)
	assert.Zero(t, empty.WinRatePct)
	assert.NotNil(t, empty.ByEntryType)
}
