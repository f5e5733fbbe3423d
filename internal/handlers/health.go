package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/torigami/kokoro/internal/version"
)

// HealthHandler serves liveness probes.
type HealthHandler struct {
	logger *slog.Logger
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(log *slog.Logger) *HealthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &HealthHandler{logger: log.With(slog.String("handler", "health"))}
}

// Register mounts GET / and GET /ping on the Echo instance.
func (h *HealthHandler) Register(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/ping", h.Ping)
}

// Root returns a static liveness line.
func (h *HealthHandler) Root(c echo.Context) error {
	return c.String(http.StatusOK, "kokoro LINE counseling bot "+version.GetInfo())
}

// Ping returns 200 JSON {"status":"ok"}.
func (h *HealthHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
