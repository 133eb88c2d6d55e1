package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"marketplace/internal/config"
	"marketplace/internal/handler"
	"marketplace/internal/infra/cache"
	"marketplace/internal/infra/db"
	"marketplace/internal/infra/payment"
	infraRepo "marketplace/internal/infra/repository"
	"marketplace/internal/infra/token"
	"marketplace/internal/logger"
	"marketplace/internal/metrics"
	"marketplace/internal/server"
	"marketplace/internal/usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type uuidGenerator struct{}

func (uuidGenerator) NewID() string {
	return uuid.NewString()
}

func main() {
	os.Exit(run())
}

func run() int {
	// .env は無くてもよい
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: "marketplace-api"}).Error(ctx, "config load failed", err)
		return 1
	}

	log := logger.New(logger.Options{
		ServiceName: "marketplace-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	//DB接続
	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		log.Error(ctx, "db connect failed", err)
		return 1
	}
	if err := db.Ping(ctx, gormDB); err != nil {
		log.Error(ctx, "db ping failed", err)
		return 1
	}
	if cfg.DB.AutoMigrate {
		if err := db.Migrate(ctx, gormDB); err != nil {
			log.Error(ctx, "migration failed", err)
			return 1
		}
	}

	//Redis（任意）。無ければDBの状態チェックだけで二重決済を防ぐ
	guard := usecase.NopReplayGuard()
	var redisPing handler.Pinger
	if cfg.Redis.URL != "" {
		rc, err := cache.New(ctx, cfg.Redis.URL)
		if err != nil {
			log.Error(ctx, "redis connect failed", err)
			return 1
		}
		defer rc.Close()

		rg, err := cache.NewReplayGuard(rc, cfg.Redis.ReplayTTL)
		if err != nil {
			log.Error(ctx, "replay guard init failed", err)
			return 1
		}
		guard = rg
		redisPing = rc.Ping
	} else {
		log.Warn(ctx, "REDIS_URL not set; payment replay guard disabled")
	}

	//metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	//Repository（GORM実装）
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	issuer, err := token.NewJWTIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		log.Error(ctx, "jwt issuer init failed", err)
		return 1
	}

	gateway := payment.NewRazorpayGateway(payment.RazorpayConfig{
		KeyID:     cfg.Payment.KeyID,
		KeySecret: cfg.Payment.KeySecret,
		BaseURL:   cfg.Payment.BaseURL,
		Timeout:   cfg.Payment.Timeout,
	}, log)

	clock := usecase.SystemClock()

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, usecase.NewBcryptPasswordHasher(cfg.App.BcryptCost), issuer, clock)
	productUC := usecase.NewProductUsecase(productRepo, txm, clock)
	checkoutUC := usecase.NewCheckoutUsecase(usecase.CheckoutParams{
		Pricer:         usecase.NewPricer(productRepo, cfg.Pricing.CommissionRate),
		Tx:             txm,
		Gateway:        gateway,
		IDs:            uuidGenerator{},
		Logger:         log,
		Metrics:        m,
		Currency:       cfg.Payment.Currency,
		Multiplier:     cfg.Payment.Multiplier,
		GatewayTimeout: cfg.Payment.Timeout,
	})
	paymentUC := usecase.NewPaymentUsecase(usecase.PaymentParams{
		Orders:  orderRepo,
		Tx:      txm,
		Gateway: gateway,
		Guard:   guard,
		Clock:   clock,
		Logger:  log,
		Metrics: m,
	})
	queryUC := usecase.NewOrderQueryUsecase(orderRepo)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)

	//Handler生成
	e := server.New(log, server.Handlers{
		Auth:    handler.NewAuthHandler(authUC),
		Product: handler.NewProductHandler(productUC),
		Order:   handler.NewOrderHandler(checkoutUC, paymentUC, queryUC),
		Audit:   handler.NewAuditHandler(auditUC),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"db":    func(ctx context.Context) error { return db.Ping(ctx, gormDB) },
			"redis": redisPing,
		}),
	}, server.Options{
		JWTSecret:       cfg.JWT.Secret,
		VerifyPerSecond: cfg.RateLimit.VerifyPerSecond,
		VerifyBurst:     cfg.RateLimit.VerifyBurst,
		Gatherer:        reg,
	})

	//Server起動
	if err := server.Run(ctx, e, cfg.App.Addr(), log); err != nil {
		log.Error(ctx, "http server stopped", err)
		return 1
	}
	return 0
}
