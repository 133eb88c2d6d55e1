package usecase

import (
	"context"
	"time"
)

// ゲートウェイ側で作った決済トランザクション
type GatewayTransaction struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// 決済ゲートウェイ（Razorpay など）
type PaymentGateway interface {
	// amountMinor は最小単位（paise）
	CreateTransaction(ctx context.Context, amountMinor int64, currency, receipt string) (GatewayTransaction, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

// 同じ決済IDの再送を弾く。
// CheckAndMark は既に処理済みなら true を返す
type PaymentReplayGuard interface {
	CheckAndMark(ctx context.Context, paymentID string) (bool, error)
	Release(ctx context.Context, paymentID string) error
}

// Prometheus 等へ出す
type Metrics interface {
	ObserveGatewayCall(outcome string, d time.Duration)
	IncOrdersCreated()
	IncVerification(result string)
}

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock は UTC の現在時刻
func SystemClock() Clock { return systemClock{} }

type nopMetrics struct{}

func (nopMetrics) ObserveGatewayCall(string, time.Duration) {}
func (nopMetrics) IncOrdersCreated()                        {}
func (nopMetrics) IncVerification(string)                   {}

type nopGuard struct{}

func (nopGuard) CheckAndMark(context.Context, string) (bool, error) { return false, nil }
func (nopGuard) Release(context.Context, string) error              { return nil }

// NopReplayGuard は何もしない（DBの状態チェックだけに任せる）
func NopReplayGuard() PaymentReplayGuard { return nopGuard{} }
