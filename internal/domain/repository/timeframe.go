package repository

// Interval is a candle resolution understood by the market-data provider.
type Interval string

const (
	Interval1m Interval = "1m"
	Interval2m Interval = "2m"
	Interval5m Interval = "5m"
	Interval1d Interval = "1d"
)

// IsValidInterval returns true if iv is a supported interval.
func IsValidInterval(iv Interval) bool {
	switch iv {
	case Interval1m, Interval2m, Interval5m, Interval1d:
		return true
	default:
		return false
	}
}

// DefaultReplayIntervals is the granularity fallback order for intraday replay.
func DefaultReplayIntervals() []Interval {
	return []Interval{Interval1m, Interval2m, Interval5m}
}

// NormalizeIntervals keeps the valid intraday intervals of raw in order, or returns the default order.
func NormalizeIntervals(raw []string) []Interval {
	out := make([]Interval, 0, len(raw))
	for _, s := range raw {
		iv := Interval(s)
		if IsValidInterval(iv) && iv != Interval1d {
			out = append(out, iv)
		}
	}
	if len(out) == 0 {
		return DefaultReplayIntervals()
	}
	return out
}
