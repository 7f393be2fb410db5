package backtest

import (
	"sort"
	"strings"
	"time"

	"NSEScan/internal/domain/models"
	"NSEScan/pkg/money"
	"NSEScan/pkg/util"
)

// NSE cash session bounds in IST.
const (
	DefaultSessionOpen  = "09:15"
	DefaultSessionClose = "15:30"
)

// SignalTime is the snapshot creation time when it falls inside the trade date's
// session, the session open otherwise.
func SignalTime(createdAt time.Time, session util.Session) time.Time {
	if createdAt.IsZero() || !util.SameISTDay(createdAt, session.Open) || createdAt.Before(session.Open) {
		return session.Open
	}
	return createdAt
}

// FilterSession returns the candles inside session in ascending time order.
func FilterSession(candles []models.Candle, session util.Session) []models.Candle {
	out := make([]models.Candle, 0, len(candles))
	for _, c := range candles {
		if session.Contains(c.Timestamp) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// ValidatePicks keeps picks with a usable long plan: stop < entry < target1.
func ValidatePicks(picks []models.SnapshotPick) ([]models.SnapshotPick, models.SnapshotValidation) {
	v := models.SnapshotValidation{TotalPicks: len(picks)}
	valid := make([]models.SnapshotPick, 0, len(picks))
	for _, p := range picks {
		if strings.TrimSpace(p.Symbol) == "" || p.EntryPrice <= 0 || p.StopLoss <= 0 ||
			p.StopLoss >= p.EntryPrice || p.Target1 <= p.EntryPrice {
			v.InvalidSymbols = append(v.InvalidSymbols, p.Symbol)
			continue
		}
		valid = append(valid, p)
	}
	v.ValidPicks = len(valid)
	return valid, v
}

// Allocate returns the capital given to each pick and the capital the run is measured against.
func Allocate(capital float64, mode models.AllocationMode, validPicks int) (perPick, configured float64) {
	if validPicks <= 0 || capital <= 0 {
		return 0, 0
	}
	if mode == models.AllocationFullPerPick {
		return capital, capital * float64(validPicks)
	}
	return money.Floor2(capital / float64(validPicks)), capital
}
