package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"NSEScan/internal/domain/models"
	domrepo "NSEScan/internal/domain/repository"
	"NSEScan/internal/usecase"
	xhttp "NSEScan/pkg/http"
	"NSEScan/pkg/http/middleware"
	xlogger "NSEScan/pkg/logger"
	"NSEScan/pkg/util"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Scanner runs universe scans.
type Scanner interface {
	ScanStream(ctx context.Context, horizon models.Horizon, symbols []string, onResult usecase.ResultFunc) (*models.ScanResult, error)
}

// BacktestRunner replays snapshots.
type BacktestRunner interface {
	Run(ctx context.Context, req models.BacktestRequest) (*usecase.BacktestOutcome, error)
}

// ScreenerHandler serves scans, snapshots and backtests over HTTP and websocket.
type ScreenerHandler struct {
	logger   *xlogger.Logger
	scanner  Scanner
	runner   BacktestRunner
	store    domrepo.SignalStore
	limiter  middleware.Allower
	limits   middleware.RateLimitConfig
	upgrader websocket.Upgrader
}

func NewScreenerHandler(
	logger *xlogger.Logger,
	scanner Scanner,
	runner BacktestRunner,
	store domrepo.SignalStore,
	limiter middleware.Allower,
	limits middleware.RateLimitConfig,
) *ScreenerHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ScreenerHandler{
		logger:  logger,
		scanner: scanner,
		runner:  runner,
		store:   store,
		limiter: limiter,
		limits:  limits,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *ScreenerHandler) RegisterRoutes(e *echo.Echo) {
	var limited []echo.MiddlewareFunc
	if h.limiter != nil {
		limits := h.limits
		if limits.OnLimited == nil {
			limits.OnLimited = rateLimited
		}
		limited = append(limited, middleware.RateLimit(h.limiter, limits))
	}

	e.GET("/healthz", h.Health)
	e.GET("/ws/scan", h.StreamScan, limited...)

	g := e.Group("/api")
	g.POST("/scan", h.Scan, limited...)
	g.GET("/snapshots", h.ListSnapshots)
	g.GET("/snapshots/:id", h.GetSnapshot)
	g.POST("/backtests", h.RunBacktest, limited...)
	g.GET("/backtests", h.ListBacktests)
}

func (h *ScreenerHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *ScreenerHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.scanner.ScanStream(c.Request().Context(), models.Horizon(req.Horizon), scanSymbols(req.Symbols), nil)
	if err != nil {
		return h.fail(c, "scan", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScreenerHandler) ListSnapshots(c echo.Context) error {
	req := &models.SnapshotsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snaps, err := h.store.ListSnapshots(c.Request().Context(), models.SnapshotQuery{Date: req.Date, Limit: req.Limit})
	if err != nil {
		return h.fail(c, "list snapshots", err)
	}
	return xhttp.ListResponse(c, snaps, int64(len(snaps)))
}

func (h *ScreenerHandler) GetSnapshot(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	snap, err := h.store.GetSnapshot(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "get snapshot", err)
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *ScreenerHandler) RunBacktest(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	out, err := h.runner.Run(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "backtest", err)
	}
	if out.Save.Saved {
		return xhttp.CreatedResponse(c, out)
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *ScreenerHandler) ListBacktests(c echo.Context) error {
	req := &models.BacktestListRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	runs, err := h.store.ListBacktestRuns(c.Request().Context(), req.Limit)
	if err != nil {
		return h.fail(c, "list backtests", err)
	}
	return xhttp.ListResponse(c, runs, int64(len(runs)))
}

// fail maps use-case errors to responses: rejections are 400, missing records 404.
func (h *ScreenerHandler) fail(c echo.Context, op string, err error) error {
	var rej *models.RejectedError
	switch {
	case errors.As(err, &rej):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError(rej.Code, "", rej.Message, http.StatusBadRequest).WithError(err))
	case errors.Is(err, domrepo.ErrNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("record not found").WithError(err))
	default:
		h.logger.Error(op+" failed", xlogger.String("path", c.Path()), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
}

func rateLimited(c echo.Context) error {
	return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded, retry later"))
}

// scanSymbols accepts both repeated and comma separated symbol parameters.
func scanSymbols(raw []string) []string {
	return util.SplitSymbols(strings.Join(raw, ","))
}
