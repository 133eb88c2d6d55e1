package handler

import (
	"net/http"
	"strconv"
	"time"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 管理者向けの監査ログ閲覧
type AuditHandler struct {
	uc *usecase.AuditLogUsecase
}

func NewAuditHandler(uc *usecase.AuditLogUsecase) *AuditHandler {
	return &AuditHandler{uc: uc}
}

func (h *AuditHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	g := e.Group("/admin")
	g.Use(auth, adminOnly)
	g.GET("/audit-logs", h.list)
}

func (h *AuditHandler) list(c echo.Context) error {
	in := usecase.ListAuditLogsInput{
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resourceType"),
	}

	if v := c.QueryParam("resourceId"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid resourceId")
		}
		in.ResourceID = &x
	}
	// RFC3339
	if v := c.QueryParam("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "invalid since")
		}
		in.Since = &t
	}
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		in.Limit = l
	}

	out, err := h.uc.List(c.Request().Context(), middleware.IdentityFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
