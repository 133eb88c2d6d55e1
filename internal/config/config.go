package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Configはアプリ全体の設定
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Payment   PaymentConfig
	Pricing   PricingConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Env        string `envconfig:"APP_ENV" default:"dev"`
	Port       string `envconfig:"PORT" default:"8080"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat  string `envconfig:"LOG_FORMAT" default:"json"`
	BcryptCost int    `envconfig:"BCRYPT_COST" default:"12"`
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// ":8080" 形式のアドレス
func (a AppConfig) Addr() string {
	if strings.HasPrefix(a.Port, ":") {
		return a.Port
	}
	return ":" + a.Port
}

// DATABASE_URL があれば最優先で使う
type DBConfig struct {
	URL         string `envconfig:"DATABASE_URL"`
	Host        string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port        int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User        string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password    string `envconfig:"POSTGRES_PASSWORD" default:"postgres"`
	Name        string `envconfig:"POSTGRES_DB" default:"app"`
	SSLMode     string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"false"`
}

func (d DBConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret string        `envconfig:"JWT_SECRET" required:"true"`
	TTL    time.Duration `envconfig:"JWT_TTL" default:"15m"`
}

// URLが空ならRedisは使わない
type RedisConfig struct {
	URL       string        `envconfig:"REDIS_URL"`
	ReplayTTL time.Duration `envconfig:"PAYMENT_REPLAY_TTL" default:"24h"`
}

type PaymentConfig struct {
	KeyID      string        `envconfig:"RAZORPAY_KEY_ID" required:"true"`
	KeySecret  string        `envconfig:"RAZORPAY_KEY_SECRET" required:"true"`
	BaseURL    string        `envconfig:"RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	Currency   string        `envconfig:"PAYMENT_CURRENCY" default:"INR"`
	Multiplier int64         `envconfig:"PAYMENT_AMOUNT_MULTIPLIER" default:"100"`
	Timeout    time.Duration `envconfig:"PAYMENT_GATEWAY_TIMEOUT" default:"10s"`
}

// 手数料率（0.05 = 5%）
type PricingConfig struct {
	CommissionRate decimal.Decimal `envconfig:"COMMISSION_RATE" default:"0.05"`
}

type RateLimitConfig struct {
	VerifyPerSecond float64 `envconfig:"VERIFY_RATE_LIMIT" default:"2"`
	VerifyBurst     int     `envconfig:"VERIFY_RATE_BURST" default:"5"`
}

// Loadは環境変数
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDB はDB設定だけ読む（マイグレーション用）
func LoadDB() (DBConfig, error) {
	var db DBConfig
	if err := envconfig.Process("", &db); err != nil {
		return DBConfig{}, fmt.Errorf("parsing db config: %w", err)
	}
	return db, nil
}

func (c Config) validate() error {
	//必須チェック（空文字も不可）
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Payment.KeyID == "" || c.Payment.KeySecret == "" {
		return fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required")
	}
	rate := c.Pricing.CommissionRate
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("COMMISSION_RATE must be in [0,1): %s", rate.String())
	}
	if c.Payment.Multiplier <= 0 {
		return fmt.Errorf("PAYMENT_AMOUNT_MULTIPLIER must be > 0")
	}
	if len(c.Payment.Currency) != 3 {
		return fmt.Errorf("PAYMENT_CURRENCY must be a 3-letter code")
	}
	if c.Payment.Timeout <= 0 {
		return fmt.Errorf("PAYMENT_GATEWAY_TIMEOUT must be > 0")
	}
	if c.RateLimit.VerifyPerSecond <= 0 || c.RateLimit.VerifyBurst <= 0 {
		return fmt.Errorf("VERIFY_RATE_LIMIT and VERIFY_RATE_BURST must be > 0")
	}
	return nil
}
