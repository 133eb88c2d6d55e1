package middleware

import (
	"time"

	"marketplace/internal/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-Id"
	// handler が 500 を返すときに原因を入れておく
	CtxErrorKey = "handler_error"
)

// RequestID はリクエストIDをレスポンスヘッダとログのcontextに入れる
func RequestID(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Response().Header().Set(requestIDHeader, reqID)

			ctx := log.WithRequestID(c.Request().Context(), reqID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequestLogger は1リクエスト1行
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			level := zerolog.InfoLevel
			switch {
			case status >= 500:
				level = zerolog.ErrorLevel
			case status >= 400:
				level = zerolog.WarnLevel
			}

			ev := log.Event(c.Request().Context(), level).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Int("status", status).
				Int64("duration_ms", time.Since(start).Milliseconds())
			if herr, ok := c.Get(CtxErrorKey).(error); ok && herr != nil {
				ev = ev.Err(herr)
			}
			ev.Msg("request.complete")
			return nil
		}
	}
}
