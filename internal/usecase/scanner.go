package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"NSEScan/internal/domain/models"
	drepo "NSEScan/internal/domain/repository"
	"NSEScan/internal/services/entry"
	"NSEScan/internal/services/indicators"
	"NSEScan/internal/services/quality"
	"NSEScan/internal/services/signals"
	"NSEScan/pkg/cache"
	applogger "NSEScan/pkg/logger"
	"NSEScan/pkg/money"
	"NSEScan/pkg/util"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ScannerConfig tunes the scan workflow.
type ScannerConfig struct {
	Workers     int
	Universe    []string
	CacheTTL    time.Duration
	CandleRange string
	MinPeriods  int

	IntradayCostBps float64
	SwingCostBps    float64
	MinNetRR        float64
	Threshold       quality.ThresholdConfig
}

// ResultFunc receives each symbol result as soon as it is ready. Calls are serialized.
type ResultFunc func(models.SymbolResult)

// Scanner evaluates a symbol universe for one horizon and persists swing snapshots.
type Scanner struct {
	md      drepo.MarketData
	store   drepo.SignalStore
	pub     drepo.EventPublisher
	cache   cache.Service
	metrics drepo.Metrics
	l       *applogger.Logger
	cfg     ScannerConfig

	calcs  map[models.Horizon]*entry.Calculator
	scorer *quality.Scorer

	now   func() time.Time
	newID func() string
}

// NewScanner creates a Scanner. cache and pub may be nil.
func NewScanner(
	md drepo.MarketData,
	store drepo.SignalStore,
	pub drepo.EventPublisher,
	c cache.Service,
	metrics drepo.Metrics,
	l *applogger.Logger,
	cfg ScannerConfig,
) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.CandleRange == "" {
		cfg.CandleRange = "6mo"
	}
	if cfg.MinPeriods <= 0 {
		cfg.MinPeriods = indicators.DefaultMinTradable
	}
	if l == nil {
		l = applogger.Nop()
	}

	swingOpts := []entry.Option{entry.WithMinNetRR(cfg.MinNetRR)}
	if cfg.SwingCostBps > 0 {
		swingOpts = append(swingOpts, entry.WithCostBps(cfg.SwingCostBps))
	}
	intradayOpts := []entry.Option{entry.WithMinNetRR(cfg.MinNetRR)}
	if cfg.IntradayCostBps > 0 {
		intradayOpts = append(intradayOpts, entry.WithCostBps(cfg.IntradayCostBps))
	}
	threshold := cfg.Threshold
	if threshold == (quality.ThresholdConfig{}) {
		threshold = quality.DefaultThreshold
	}

	return &Scanner{
		md:      md,
		store:   store,
		pub:     pub,
		cache:   c,
		metrics: metrics,
		l:       l,
		cfg:     cfg,
		calcs: map[models.Horizon]*entry.Calculator{
			models.HorizonIntraday: entry.NewCalculator(entry.ProfileFor(models.HorizonIntraday), intradayOpts...),
			models.HorizonSwing:    entry.NewCalculator(entry.ProfileFor(models.HorizonSwing), swingOpts...),
			models.HorizonLongTerm: entry.NewCalculator(entry.ProfileFor(models.HorizonLongTerm), swingOpts...),
		},
		scorer: quality.NewScorer(quality.WithMinNetRR(cfg.MinNetRR), quality.WithThreshold(threshold)),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// Scan evaluates symbols, or the configured universe when symbols is empty.
func (s *Scanner) Scan(ctx context.Context, horizon models.Horizon, symbols []string) (*models.ScanResult, error) {
	return s.ScanStream(ctx, horizon, symbols, nil)
}

// ScanStream is Scan with a per-symbol callback.
func (s *Scanner) ScanStream(ctx context.Context, horizon models.Horizon, symbols []string, onResult ResultFunc) (*models.ScanResult, error) {
	if !horizon.Valid() {
		return nil, models.Reject(models.RejectInvalidHorizon, "unknown horizon %q", horizon)
	}
	symbols = util.NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		symbols = util.NormalizeSymbols(s.cfg.Universe)
	}
	if len(symbols) == 0 {
		return nil, models.Reject(models.RejectNoSymbols, "no symbols to scan")
	}

	start := s.now()
	results := make([]models.SymbolResult, len(symbols))
	var emitMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, sym := range symbols {
		g.Go(func() error {
			res := s.evaluate(gctx, horizon, sym, start)
			results[i] = res
			if onResult != nil {
				emitMu.Lock()
				onResult(res)
				emitMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan cancelled: %w", err)
	}

	out := &models.ScanResult{
		Horizon:      horizon,
		Timestamp:    start,
		TotalScanned: len(symbols),
		Results:      results,
	}
	failures := 0
	for _, r := range results {
		if r.Error != "" {
			failures++
			if out.Errors == nil {
				out.Errors = make(map[string]string)
			}
			out.Errors[r.Symbol] = r.Error
			continue
		}
		if s.metrics != nil && r.Verdict != nil {
			s.metrics.RecordVerdict(string(horizon), string(r.Verdict.Sentiment))
		}
	}

	if horizon == models.HorizonSwing {
		s.rank(out)
		if len(out.Ranked) > 0 {
			s.persist(ctx, out)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordScan(string(horizon), len(symbols), failures)
		s.metrics.RecordLatency("scan", time.Since(start).Seconds())
	}
	s.l.Info("scan completed",
		applogger.String("horizon", string(horizon)),
		applogger.Int("symbols", len(symbols)),
		applogger.Int("failures", failures),
		applogger.Int("ranked", len(out.Ranked)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

// evaluate never fails: fetch errors end up in the result's Error field.
func (s *Scanner) evaluate(ctx context.Context, horizon models.Horizon, symbol string, now time.Time) models.SymbolResult {
	key := cache.GenerateKeyWithParams("scan", string(horizon), symbol)
	if s.cache != nil {
		var cached models.SymbolResult
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.l.Warn("scan cache read failed", applogger.String("key", key), applogger.Error(err))
		}
	}

	res, err := s.evaluateFresh(ctx, horizon, symbol, now)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordError("scan_symbol")
		}
		s.l.Warn("symbol evaluation failed",
			applogger.String("symbol", symbol),
			applogger.String("horizon", string(horizon)),
			applogger.Error(err),
		)
		return models.SymbolResult{Symbol: symbol, Error: err.Error()}
	}

	if s.cache != nil && s.cfg.CacheTTL > 0 {
		if err := s.cache.Set(ctx, key, res, s.cfg.CacheTTL); err != nil {
			s.l.Warn("scan cache write failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return res
}

func (s *Scanner) evaluateFresh(ctx context.Context, horizon models.Horizon, symbol string, now time.Time) (models.SymbolResult, error) {
	daily, err := s.md.FetchCandles(ctx, symbol, s.cfg.MinPeriods, drepo.CandleQuery{
		Interval: drepo.Interval1d,
		Range:    s.cfg.CandleRange,
	})
	if err != nil {
		return models.SymbolResult{}, fmt.Errorf("daily candles: %w", err)
	}
	quote, err := s.md.FetchPriceContext(ctx, symbol)
	if err != nil {
		return models.SymbolResult{}, fmt.Errorf("quote: %w", err)
	}

	in := indicators.ContextInput{Daily: daily, Quote: quote, Now: now}
	if horizon == models.HorizonIntraday {
		intraday, err := s.md.FetchCandles(ctx, symbol, 1, drepo.CandleQuery{Interval: drepo.Interval5m, Range: "1d"})
		if err != nil {
			s.l.Debug("intraday candles unavailable", applogger.String("symbol", symbol), applogger.Error(err))
		} else {
			in.Intraday = intraday
		}
	}
	ictx := indicators.BuildContext(in)

	var verdict models.Verdict
	switch horizon {
	case models.HorizonIntraday:
		verdict = signals.EvaluateIntraday(ictx)
	case models.HorizonSwing:
		verdict = signals.EvaluateSwing(ictx)
	case models.HorizonLongTerm:
		f, err := s.md.FetchFundamentals(ctx, symbol)
		if err != nil {
			s.l.Debug("fundamentals unavailable", applogger.String("symbol", symbol), applogger.Error(err))
			f = nil
		}
		verdict = signals.EvaluateLongTerm(ictx, f)
	}

	res := models.SymbolResult{
		Symbol:      symbol,
		CompanyName: quote.CompanyName,
		Verdict:     &verdict,
		Indicators:  &ictx,
	}
	if verdict.IsPositive() {
		plan, err := s.calcs[horizon].Plan(ictx, verdict)
		if err == nil {
			res.Plan = &plan
		}
	}
	return res, nil
}

// rank fills Ranked and Threshold from the positive swing results.
func (s *Scanner) rank(out *models.ScanResult) {
	cands := make([]quality.Candidate, 0, len(out.Results))
	byName := make(map[string]models.SymbolResult, len(out.Results))
	for _, r := range out.Results {
		if r.Error != "" || r.Verdict == nil || r.Plan == nil || r.Indicators == nil {
			continue
		}
		cands = append(cands, quality.Candidate{Symbol: r.Symbol, Verdict: *r.Verdict, Plan: *r.Plan, Context: *r.Indicators})
		byName[r.Symbol] = r
	}

	kept, threshold := s.scorer.Rank(cands)
	out.Threshold = &threshold
	out.Ranked = make([]models.SymbolResult, 0, len(kept))
	for _, sc := range kept {
		r := byName[sc.Symbol]
		score := sc.Score
		r.QualityScore = &score
		out.Ranked = append(out.Ranked, r)
	}
}

// BuildSnapshot turns ranked swing results into a snapshot.
func BuildSnapshot(id string, out *models.ScanResult) *models.SignalSnapshot {
	snap := &models.SignalSnapshot{
		ID:           id,
		CreatedAt:    out.Timestamp,
		ISTDate:      util.ISTDate(out.Timestamp),
		ISTTime:      util.ISTClock(out.Timestamp),
		Horizon:      out.Horizon,
		TotalScanned: out.TotalScanned,
		Picks:        make([]models.SnapshotPick, 0, len(out.Ranked)),
	}
	for _, r := range out.Results {
		if r.Verdict != nil && r.Verdict.IsPositive() {
			snap.PositiveCount++
		}
	}

	total := 0
	for _, r := range out.Ranked {
		p := models.SnapshotPick{
			Symbol:      r.Symbol,
			CompanyName: r.CompanyName,
			Label:       r.Verdict.Label,
			Price:       r.Indicators.Price,
			EntryPrice:  r.Plan.EntryPrice,
			StopLoss:    r.Plan.StopLoss,
			Target1:     r.Plan.Target1,
			Target2:     r.Plan.Target2,
			EntryType:   r.Plan.EntryType,
			RiskReward:  r.Plan.RiskReward,
		}
		if r.QualityScore != nil {
			p.QualityScore = *r.QualityScore
		}
		total += p.QualityScore
		snap.Picks = append(snap.Picks, p)
	}
	if len(snap.Picks) > 0 {
		snap.QualityScore = money.Round2(float64(total) / float64(len(snap.Picks)))
	}
	if out.Threshold != nil {
		snap.Meta = map[string]string{"threshold": fmt.Sprintf("%d", *out.Threshold)}
	}
	return snap
}

// persist saves and announces the snapshot. Failures are logged, the scan result stands.
func (s *Scanner) persist(ctx context.Context, out *models.ScanResult) {
	snap := BuildSnapshot(s.newID(), out)
	res, err := s.store.SaveSnapshot(ctx, snap)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordError("save_snapshot")
		}
		s.l.Error("save snapshot failed", applogger.String("id", snap.ID), applogger.Error(err))
		return
	}
	out.Snapshot = &res
	s.l.Info("snapshot processed",
		applogger.String("id", snap.ID),
		applogger.String("date", snap.ISTDate),
		applogger.Bool("saved", res.Saved),
		applogger.String("kept_id", res.KeptID),
		applogger.Float64("quality", snap.QualityScore),
	)

	if !res.Saved || s.pub == nil {
		return
	}
	if err := s.pub.PublishSnapshot(ctx, snap); err != nil {
		if s.metrics != nil {
			s.metrics.RecordError("publish_snapshot")
		}
		s.l.Warn("publish snapshot failed", applogger.String("id", snap.ID), applogger.Error(err))
	}
}
