package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"marketplace/internal/domain/model"
	"marketplace/internal/handler"
	"marketplace/internal/logger"
	"marketplace/internal/middleware"
	"marketplace/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers はルート登録に必要なハンドラ一式
type Handlers struct {
	Auth    *handler.AuthHandler
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
	Audit   *handler.AuditHandler
	Health  *handler.HealthHandler
}

type Options struct {
	JWTSecret       string
	VerifyPerSecond float64
	VerifyBurst     int
	// nil なら /metrics を出さない
	Gatherer prometheus.Gatherer
}

// New はミドルウェアとルートを組んだ echo を返す
func New(log *logger.Logger, h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(middleware.RequestID(log))
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("1M"))

	auth := middleware.AuthJWT(opts.JWTSecret, log)
	verifyLimit := middleware.NewRateLimiter(opts.VerifyPerSecond, opts.VerifyBurst).Middleware()

	if h.Health != nil {
		h.Health.RegisterRoutes(e)
	}
	if h.Auth != nil {
		h.Auth.RegisterRoutes(e)
	}
	if h.Product != nil {
		h.Product.RegisterRoutes(e, auth, middleware.RoleGuard(model.RoleSeller, model.RoleAdmin))
	}
	if h.Order != nil {
		h.Order.RegisterRoutes(e, auth, verifyLimit)
	}
	if h.Audit != nil {
		h.Audit.RegisterRoutes(e, auth, middleware.RoleGuard(model.RoleAdmin))
	}
	if opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	return e
}

// Run は ctx が終わるまで待ち受け、終わったら graceful shutdown する
func Run(ctx context.Context, e *echo.Echo, addr string, log *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "http server listening on "+addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info(shutdownCtx, "shutting down http server")
	return e.Shutdown(shutdownCtx)
}
