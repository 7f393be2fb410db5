package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"NSEScan/internal/domain/models"
	drepo "NSEScan/internal/domain/repository"
	"NSEScan/internal/services/backtest"
	applogger "NSEScan/pkg/logger"
	"NSEScan/pkg/util"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BacktestConfig tunes the replay workflow.
type BacktestConfig struct {
	CostBps      float64
	Workers      int
	Intervals    []drepo.Interval
	SessionStart string
	SessionEnd   string
}

// BacktestOutcome is a run together with its persistence result.
type BacktestOutcome struct {
	Run  *models.BacktestRun  `json:"run"`
	Save models.SaveRunResult `json:"save"`
}

// BacktestRunner replays a stored snapshot against the trade date's intraday candles.
type BacktestRunner struct {
	md      drepo.MarketData
	archive drepo.CandleArchive
	store   drepo.SignalStore
	pub     drepo.EventPublisher
	metrics drepo.Metrics
	l       *applogger.Logger
	cfg     BacktestConfig

	now   func() time.Time
	newID func() string
}

// NewBacktestRunner creates a BacktestRunner. archive and pub may be nil.
func NewBacktestRunner(
	md drepo.MarketData,
	archive drepo.CandleArchive,
	store drepo.SignalStore,
	pub drepo.EventPublisher,
	metrics drepo.Metrics,
	l *applogger.Logger,
	cfg BacktestConfig,
) *BacktestRunner {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if len(cfg.Intervals) == 0 {
		cfg.Intervals = drepo.DefaultReplayIntervals()
	}
	if cfg.SessionStart == "" {
		cfg.SessionStart = backtest.DefaultSessionOpen
	}
	if cfg.SessionEnd == "" {
		cfg.SessionEnd = backtest.DefaultSessionClose
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &BacktestRunner{
		md:      md,
		archive: archive,
		store:   store,
		pub:     pub,
		metrics: metrics,
		l:       l,
		cfg:     cfg,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Run validates the request, replays every valid pick and persists the run.
// Precondition failures are returned as *models.RejectedError.
func (r *BacktestRunner) Run(ctx context.Context, req models.BacktestRequest) (*BacktestOutcome, error) {
	start := r.now()

	session, err := util.SessionFor(req.TradeDate, r.cfg.SessionStart, r.cfg.SessionEnd)
	if err != nil {
		return nil, models.Reject(models.RejectInvalidDate, "trade date %q is not a valid YYYY-MM-DD date", req.TradeDate)
	}
	if util.ISTDate(session.Open) > util.ISTDate(start) {
		return nil, models.Reject(models.RejectInvalidDate, "trade date %s is in the future", req.TradeDate)
	}
	if req.Capital <= 0 || math.IsNaN(req.Capital) || math.IsInf(req.Capital, 0) {
		return nil, models.Reject(models.RejectInvalidCapital, "capital must be a positive amount")
	}
	mode := models.AllocationMode(req.AllocationMode)
	if mode == "" {
		mode = models.AllocationSplitEvenly
	}
	if !mode.Valid() {
		return nil, models.Reject(models.RejectInvalidAllocation, "allocation mode %q is not supported", req.AllocationMode)
	}

	snap, err := r.snapshotFor(ctx, req)
	if err != nil {
		return nil, err
	}
	picks, validation := backtest.ValidatePicks(snap.Picks)
	if len(picks) == 0 {
		return nil, models.Reject(models.RejectNoValidPicks, "snapshot %s has no picks with a usable plan", snap.ID)
	}

	perPick, configured := backtest.Allocate(req.Capital, mode, len(picks))
	signalAt := backtest.SignalTime(snap.CreatedAt, session)
	// Only a finished session is archived or served from the archive.
	settled := !start.Before(session.Close)

	trades := make([]models.TradeOutcome, len(picks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, pick := range picks {
		g.Go(func() error {
			candles, iv, err := r.loadCandles(gctx, pick.Symbol, session, settled)
			if err != nil {
				r.l.Warn("replay candles unavailable",
					applogger.String("symbol", pick.Symbol),
					applogger.String("date", req.TradeDate),
					applogger.Error(err),
				)
				trades[i] = backtest.FailedFetch(pick)
				return nil
			}
			trades[i] = backtest.Simulate(backtest.SimInput{
				Pick:       pick,
				Candles:    candles,
				SignalTime: signalAt,
				Allocated:  perPick,
				CostBps:    r.cfg.CostBps,
				Interval:   string(iv),
			})
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("backtest cancelled: %w", err)
	}

	run := &models.BacktestRun{
		ID:                 r.newID(),
		CreatedAt:          start.UTC(),
		TradeDate:          req.TradeDate,
		Capital:            req.Capital,
		AllocationMode:     mode,
		SnapshotID:         snap.ID,
		CostBps:            r.cfg.CostBps,
		SnapshotValidation: validation,
		Summary:            backtest.Summarize(trades, configured),
		Trades:             trades,
	}
	if run.Fingerprint, err = models.TradesFingerprint(trades); err != nil {
		return nil, err
	}

	save, err := r.store.SaveBacktestRun(ctx, run)
	if err != nil {
		r.recordError("save_backtest")
		return nil, fmt.Errorf("save backtest run: %w", err)
	}
	if save.Saved && r.pub != nil {
		if err := r.pub.PublishBacktestRun(ctx, run); err != nil {
			r.recordError("publish_backtest")
			r.l.Warn("publish backtest failed", applogger.String("id", run.ID), applogger.Error(err))
		}
	}

	if r.metrics != nil {
		r.metrics.RecordBacktest(run.Summary.Verdict, len(trades))
		r.metrics.RecordLatency("backtest", time.Since(start).Seconds())
	}
	r.l.Info("backtest completed",
		applogger.String("trade_date", run.TradeDate),
		applogger.String("snapshot_id", run.SnapshotID),
		applogger.Int("picks", len(trades)),
		applogger.String("verdict", run.Summary.Verdict),
		applogger.Float64("net_pnl", run.Summary.NetPnl),
		applogger.Bool("saved", save.Saved),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return &BacktestOutcome{Run: run, Save: save}, nil
}

// snapshotFor resolves the requested snapshot, or the canonical one of the trade date.
func (r *BacktestRunner) snapshotFor(ctx context.Context, req models.BacktestRequest) (*models.SignalSnapshot, error) {
	if req.SnapshotID != "" {
		snap, err := r.store.GetSnapshot(ctx, req.SnapshotID)
		if errors.Is(err, drepo.ErrNotFound) {
			return nil, models.Reject(models.RejectSnapshotNotFound, "snapshot %s not found", req.SnapshotID)
		}
		if err != nil {
			return nil, fmt.Errorf("get snapshot: %w", err)
		}
		return snap, nil
	}

	snaps, err := r.store.ListSnapshots(ctx, models.SnapshotQuery{Date: req.TradeDate, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if len(snaps) == 0 {
		return nil, models.Reject(models.RejectSnapshotNotFound, "no snapshot stored for %s", req.TradeDate)
	}
	return snaps[0], nil
}

// loadCandles walks the interval fallback order. For a settled session it reads the
// archive first and archives what the provider returns. An empty day is not an
// error; it fails only when no interval could be fetched at all.
func (r *BacktestRunner) loadCandles(ctx context.Context, symbol string, session util.Session, settled bool) ([]models.Candle, drepo.Interval, error) {
	archive := r.archive
	if !settled {
		archive = nil
	}
	var (
		lastErr error
		lastIv  drepo.Interval
		fetched bool
	)
	for _, iv := range r.cfg.Intervals {
		lastIv = iv
		if archive != nil {
			archived, err := archive.LoadCandles(ctx, symbol, iv, session.Open, session.Close)
			if err != nil {
				r.l.Warn("candle archive read failed",
					applogger.String("symbol", symbol),
					applogger.String("interval", string(iv)),
					applogger.Error(err),
				)
			} else if inSession := backtest.FilterSession(archived, session); len(inSession) > 0 {
				return inSession, iv, nil
			}
		}

		candles, err := r.md.FetchCandles(ctx, symbol, 0, drepo.CandleQuery{
			Interval: iv,
			From:     session.Open,
			To:       session.Close.Add(time.Minute),
		})
		if err != nil {
			lastErr = err
			continue
		}
		fetched = true
		inSession := backtest.FilterSession(candles, session)
		if len(inSession) == 0 {
			continue
		}
		if archive != nil {
			if err := archive.SaveCandles(ctx, symbol, iv, inSession); err != nil {
				r.l.Warn("candle archive write failed",
					applogger.String("symbol", symbol),
					applogger.String("interval", string(iv)),
					applogger.Error(err),
				)
			}
		}
		return inSession, iv, nil
	}
	if !fetched && lastErr != nil {
		return nil, "", fmt.Errorf("fetch %s candles: %w", symbol, lastErr)
	}
	return nil, lastIv, nil
}

func (r *BacktestRunner) recordError(kind string) {
	if r.metrics != nil {
		r.metrics.RecordError(kind)
	}
}
