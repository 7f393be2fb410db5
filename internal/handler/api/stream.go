package api

import (
	"errors"
	"time"

	"NSEScan/internal/domain/models"
	xhttp "NSEScan/pkg/http"
	xlogger "NSEScan/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const streamWriteWait = 10 * time.Second

// Stream frame types.
const (
	FrameResult  = "result"
	FrameSummary = "summary"
	FrameError   = "error"
)

// StreamFrame is one websocket message of a streamed scan.
type StreamFrame struct {
	Type    string      `json:"type"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// StreamScan validates the query, upgrades the connection and pushes each
// symbol result as it completes, then a summary without the per-symbol list.
func (h *ScreenerHandler) StreamScan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	write := func(f StreamFrame) error {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		return conn.WriteJSON(f)
	}

	var writeErr error
	res, err := h.scanner.ScanStream(c.Request().Context(), models.Horizon(req.Horizon), scanSymbols(req.Symbols), func(r models.SymbolResult) {
		if writeErr != nil {
			return
		}
		writeErr = write(StreamFrame{Type: FrameResult, Data: r})
	})
	if writeErr != nil {
		h.logger.Warn("websocket write failed", xlogger.Error(writeErr))
		return nil
	}
	if err != nil {
		msg := "scan failed"
		var rej *models.RejectedError
		if errors.As(err, &rej) {
			msg = rej.Message
		} else {
			h.logger.Error("stream scan failed", xlogger.Error(err))
		}
		_ = write(StreamFrame{Type: FrameError, Message: msg})
		return nil
	}

	summary := *res
	summary.Results = nil
	if err := write(StreamFrame{Type: FrameSummary, Data: summary}); err != nil {
		h.logger.Warn("websocket write failed", xlogger.Error(err))
		return nil
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "scan complete"),
		time.Now().Add(streamWriteWait))
	return nil
}
