package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	scansTotal     *prometheus.CounterVec
	scanSymbols    *prometheus.CounterVec
	scanFailures   *prometheus.CounterVec
	verdictsTotal  *prometheus.CounterVec
	backtestsTotal *prometheus.CounterVec
	backtestTrades *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	storeFallbacks *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder registered on reg.
// A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		scansTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nsescan_scans_total",
				Help: "Total number of universe scans",
			},
			[]string{"horizon"},
		),
		scanSymbols: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nsescan_scan_symbols_total",
				Help: "Total number of symbols evaluated by scans",
			},
			[]string{"horizon"},
		),
		scanFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nsescan_scan_symbol_failures_total",
				Help: "Total number of symbols whose data could not be fetched",
			},
			[]string{"horizon"},
		),
		verdictsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nsescan_verdicts_total",
				Help: "Verdicts produced by the rule cascades",
			},
			[]string{"horizon", "sentiment"},
		),
		backtestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nsescan_backtests_total",
				Help: "Backtest runs by recommendation verdict",
			},
			[]string{"verdict"},
		),
		backtestTrades: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nsescan_backtest_trades",
				Help:    "Number of picks replayed per backtest",
				Buckets: []float64{1, 2, 5, 10, 20, 50},
			},
			[]string{"verdict"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nsescan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		storeFallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nsescan_store_fallbacks_total",
				Help: "Signal store operations served by the secondary store",
			},
			[]string{"op"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nsescan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordScan records one finished scan.
func (r *Recorder) RecordScan(horizon string, symbols, failures int) {
	r.scansTotal.WithLabelValues(horizon).Inc()
	r.scanSymbols.WithLabelValues(horizon).Add(float64(symbols))
	r.scanFailures.WithLabelValues(horizon).Add(float64(failures))
}

// RecordVerdict counts a verdict by horizon and sentiment.
func (r *Recorder) RecordVerdict(horizon, sentiment string) {
	r.verdictsTotal.WithLabelValues(horizon, sentiment).Inc()
}

// RecordBacktest records one backtest run.
func (r *Recorder) RecordBacktest(verdict string, trades int) {
	r.backtestsTotal.WithLabelValues(verdict).Inc()
	r.backtestTrades.WithLabelValues(verdict).Observe(float64(trades))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordStoreFallback records an operation the primary store could not serve.
func (r *Recorder) RecordStoreFallback(op string) {
	r.storeFallbacks.WithLabelValues(op).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordScan(string, int, int)   {}
func (Nop) RecordVerdict(string, string)  {}
func (Nop) RecordBacktest(string, int)    {}
func (Nop) RecordError(string)            {}
func (Nop) RecordStoreFallback(string)    {}
func (Nop) RecordLatency(string, float64) {}
