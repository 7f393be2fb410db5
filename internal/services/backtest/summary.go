package backtest

import (
	"NSEScan/internal/domain/models"
	"NSEScan/pkg/money"
)

// Accuracy verdict bands.
const (
	MinDecisiveTrades  = 3
	WorkingAccuracy    = 60.0
	MixedAccuracy      = 45.0
	unknownEntryBucket = "unknown"
)

// Summarize aggregates trades. capitalConfigured is the capital the run was asked to deploy.
func Summarize(trades []models.TradeOutcome, capitalConfigured float64) models.BacktestSummary {
	s := models.BacktestSummary{
		TotalPicks:        len(trades),
		CapitalConfigured: money.Round2(capitalConfigured),
		ByEntryType:       map[string]models.EntryTypeStats{},
		ByLossReason:      map[string]int{},
		NoTradeReasons:    map[string]int{},
	}

	var gross, net, cost, deployed float64
	for _, t := range trades {
		key := string(t.EntryType)
		if key == "" {
			key = unknownEntryBucket
		}
		stats := s.ByEntryType[key]
		stats.Trades++

		switch t.Outcome {
		case models.OutcomeWin:
			s.Wins++
			stats.Wins++
		case models.OutcomeLoss:
			s.Losses++
			stats.Losses++
			s.ByLossReason[t.Reason]++
		default:
			s.NoTrades++
			stats.NoTrades++
			s.NoTradeReasons[t.Reason]++
		}
		switch t.ExitType {
		case models.ExitTarget1:
			s.Target1Hits++
		case models.ExitTarget2:
			s.Target2Hits++
		case models.ExitStopLoss:
			s.StopHits++
		}

		if t.EntryTriggeredAt != nil {
			deployed += t.InvestedAmount
		}
		gross += t.GrossPnl
		net += t.NetPnl
		cost += t.RoundTripCost
		stats.NetPnl = money.Round2(stats.NetPnl + t.NetPnl)
		s.ByEntryType[key] = stats
	}

	s.GrossPnl = money.Round2(gross)
	s.NetPnl = money.Round2(net)
	s.TotalCost = money.Round2(cost)
	s.CapitalDeployed = money.Round2(deployed)
	s.ROIOnDeployedPct = money.Pct(s.NetPnl, s.CapitalDeployed)
	s.ROIOnConfiguredPct = money.Pct(s.NetPnl, s.CapitalConfigured)
	s.WinRatePct = money.Pct(float64(s.Wins), float64(s.TotalPicks))

	decisive := s.Wins + s.Losses
	s.AccuracyPct = money.Pct(float64(s.Wins), float64(decisive))
	s.Verdict = accuracyVerdict(decisive, s.AccuracyPct)
	return s
}

func accuracyVerdict(decisive int, accuracy float64) string {
	switch {
	case decisive < MinDecisiveTrades:
		return models.VerdictInsufficientData
	case accuracy >= WorkingAccuracy:
		return models.VerdictWorking
	case accuracy >= MixedAccuracy:
		return models.VerdictMixedRefine
	default:
		return models.VerdictNeedsRefinement
	}
}
