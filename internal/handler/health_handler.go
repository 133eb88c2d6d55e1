package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger は疎通確認できる依存先
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Pinger
}

// nil の Pinger は登録しない
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	m := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			m[name] = p
		}
	}
	return &HealthHandler{checks: m}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.health)
}

func (h *HealthHandler) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	res := healthResponse{Status: "ok", Checks: map[string]string{}}
	code := http.StatusOK
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			res.Checks[name] = err.Error()
			res.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		res.Checks[name] = "ok"
	}
	return c.JSON(code, res)
}
