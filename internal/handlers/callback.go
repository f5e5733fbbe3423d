// Package handlers provides the HTTP endpoints: the LINE webhook callback and
// liveness checks.
package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/torigami/kokoro/internal/line"
)

// EventSink consumes a parsed webhook batch.
type EventSink interface {
	HandleEvents(ctx context.Context, events []line.Event)
}

// CallbackHandler serves the webhook route. POST bodies must carry a valid
// X-Line-Signature; GET is the platform's verification probe.
type CallbackHandler struct {
	channelSecret string
	sink          EventSink
	logger        *slog.Logger
}

// NewCallbackHandler creates the webhook handler.
func NewCallbackHandler(log *slog.Logger, channelSecret string, sink EventSink) *CallbackHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CallbackHandler{
		channelSecret: channelSecret,
		sink:          sink,
		logger:        log.With(slog.String("handler", "callback")),
	}
}

// Register mounts the webhook routes on the Echo instance.
func (h *CallbackHandler) Register(e *echo.Echo) {
	e.GET("/callback", h.Verify)
	e.POST("/callback", h.Callback)
}

// Verify answers the platform's GET verification probe.
func (h *CallbackHandler) Verify(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Callback validates, parses, and dispatches a webhook batch. It acknowledges
// with 200 regardless of per-event outcomes; only transport-level problems
// (bad signature, malformed body) are rejected.
func (h *CallbackHandler) Callback(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		h.logger.Warn("read webhook body failed", slog.Any("error", err))
		return c.String(http.StatusBadRequest, "bad request")
	}

	signature := req.Header.Get("X-Line-Signature")
	if !line.ValidateSignature(h.channelSecret, body, signature) {
		h.logger.Warn("invalid webhook signature", slog.String("remote_ip", c.RealIP()))
		return c.String(http.StatusBadRequest, "invalid signature")
	}

	payload, err := line.ParsePayload(body)
	if err != nil {
		h.logger.Warn("malformed webhook payload", slog.Any("error", err))
		return c.String(http.StatusBadRequest, "bad request")
	}

	h.sink.HandleEvents(req.Context(), payload.Events)
	return c.String(http.StatusOK, "OK")
}
