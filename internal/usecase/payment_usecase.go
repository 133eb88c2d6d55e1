package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"marketplace/internal/domain/model"
	"marketplace/internal/logger"
	repo "marketplace/internal/repository"

	"github.com/rs/zerolog"
)

// IncVerification の result ラベル
const (
	verifyResultPaid             = "paid"
	verifyResultAlreadyPaid      = "already_paid"
	verifyResultInvalidSignature = "invalid_signature"
	verifyResultRejected         = "rejected"
	verifyResultSettlementFailed = "settlement_failed"
	verifyResultError            = "error"
)

type PaymentParams struct {
	Orders  repo.OrderRepository
	Tx      repo.TransactionManager
	Gateway PaymentGateway
	Guard   PaymentReplayGuard
	Clock   Clock
	Logger  *logger.Logger
	Metrics Metrics
}

// 決済確認（pending -> paid と在庫減算を1トランザクションで行う）
type PaymentUsecase struct {
	orders  repo.OrderRepository
	tx      repo.TransactionManager
	gateway PaymentGateway
	guard   PaymentReplayGuard
	clock   Clock
	log     *logger.Logger
	metrics Metrics
}

func NewPaymentUsecase(p PaymentParams) *PaymentUsecase {
	uc := &PaymentUsecase{
		orders:  p.Orders,
		tx:      p.Tx,
		gateway: p.Gateway,
		guard:   p.Guard,
		clock:   p.Clock,
		log:     p.Logger,
		metrics: p.Metrics,
	}
	if uc.guard == nil {
		uc.guard = NopReplayGuard()
	}
	if uc.clock == nil {
		uc.clock = SystemClock()
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	if uc.metrics == nil {
		uc.metrics = nopMetrics{}
	}
	return uc
}

type VerifyPaymentInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	OrderID          int64
}

type VerifyPaymentOutput struct {
	Message     string            `json:"message"`
	Success     bool              `json:"success"`
	AlreadyPaid bool              `json:"alreadyPaid"`
	OrderID     int64             `json:"orderId"`
	Status      model.OrderStatus `json:"status"`
}

func (u *PaymentUsecase) Verify(ctx context.Context, in VerifyPaymentInput) (VerifyPaymentOutput, error) {
	in.GatewayOrderID = strings.TrimSpace(in.GatewayOrderID)
	in.GatewayPaymentID = strings.TrimSpace(in.GatewayPaymentID)
	if in.GatewayOrderID == "" || in.GatewayPaymentID == "" || strings.TrimSpace(in.Signature) == "" {
		return VerifyPaymentOutput{}, NewHTTPError(KindValidation, "gateway order id, payment id and signature are required")
	}
	if in.OrderID <= 0 {
		return VerifyPaymentOutput{}, NewHTTPError(KindValidation, "invalid orderId")
	}

	ctx = u.log.WithField(ctx, "order_id", in.OrderID)
	ctx = u.log.WithField(ctx, "gateway_payment_id", in.GatewayPaymentID)

	//署名が合わなければ何も変えない
	if !u.gateway.VerifySignature(in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
		u.metrics.IncVerification(verifyResultInvalidSignature)
		u.log.Warn(ctx, "payment signature mismatch")
		return VerifyPaymentOutput{}, NewHTTPError(KindInvalidSignature, "Invalid signature")
	}

	seen, err := u.guard.CheckAndMark(ctx, in.GatewayPaymentID)
	if err != nil {
		//Redisが落ちていてもDB側の状態チェックで守れる
		u.log.Error(ctx, "payment replay guard unavailable", err)
		seen = false
	}
	//キーを立てたのがこのリクエストのときだけ消す
	marked := err == nil && !seen
	if seen {
		if out, ok := u.replayed(ctx, in); ok {
			u.metrics.IncVerification(verifyResultAlreadyPaid)
			return out, nil
		}
	}

	out, err := u.settle(ctx, in)
	if err != nil {
		if marked {
			if relErr := u.guard.Release(ctx, in.GatewayPaymentID); relErr != nil {
				u.log.Error(ctx, "release payment replay guard", relErr)
			}
		}
		u.recordFailure(ctx, err)
		return VerifyPaymentOutput{}, err
	}

	if out.AlreadyPaid {
		u.metrics.IncVerification(verifyResultAlreadyPaid)
		u.log.Info(ctx, "payment already settled")
	} else {
		u.metrics.IncVerification(verifyResultPaid)
		u.log.Info(ctx, "payment settled")
	}
	return out, nil
}

// 再送：この決済IDで支払済みになっていることを確認できたときだけ成功を返す
func (u *PaymentUsecase) replayed(ctx context.Context, in VerifyPaymentInput) (VerifyPaymentOutput, bool) {
	o, err := u.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		return VerifyPaymentOutput{}, false
	}
	if o.Status != model.OrderStatusPaid || o.GatewayOrderID != in.GatewayOrderID ||
		o.GatewayPaymentID == nil || *o.GatewayPaymentID != in.GatewayPaymentID {
		return VerifyPaymentOutput{}, false
	}
	return alreadyPaid(o.ID), true
}

func (u *PaymentUsecase) settle(ctx context.Context, in VerifyPaymentInput) (VerifyPaymentOutput, error) {
	var out VerifyPaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, in.OrderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(KindOrderNotFound, "Order not found")
		}
		if err != nil {
			return dbError(err)
		}

		//別のゲートウェイ注文の署名では決済できない
		if o.GatewayOrderID != in.GatewayOrderID {
			return NewHTTPError(KindInvalidSignature, "payment does not belong to this order")
		}

		switch o.Status {
		case model.OrderStatusPending:
		case model.OrderStatusPaid:
			if o.GatewayPaymentID != nil && *o.GatewayPaymentID != in.GatewayPaymentID {
				return NewHTTPError(KindStateConflict, "order already paid with another payment")
			}
			out = alreadyPaid(o.ID)
			return nil
		default:
			return NewHTTPError(KindStateConflict, "order is "+string(o.Status))
		}

		now := u.clock.Now()
		ok, err := r.Orders().MarkPaidIfPending(ctx, o.ID, in.GatewayPaymentID, now)
		if errors.Is(err, repo.ErrPaymentIDTaken) {
			return NewHTTPError(KindConflict, "payment already used for another order")
		}
		if err != nil {
			return dbError(err)
		}
		if !ok {
			//同時に別リクエストが確定させた
			out = alreadyPaid(o.ID)
			return nil
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return dbError(err)
		}
		for _, it := range items {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return dbError(err)
			}
			if !ok {
				return WithDetails(
					NewHTTPError(KindSettlementFailed, "insufficient stock to settle order"),
					map[string]int64{"productId": it.ProductID, "quantity": it.Quantity},
				)
			}
		}

		before, _ := json.Marshal(map[string]any{"status": model.OrderStatusPending})
		after, _ := json.Marshal(map[string]any{
			"status":           model.OrderStatusPaid,
			"gatewayPaymentId": in.GatewayPaymentID,
		})
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  nil,
			Action:       model.AuditActionSettlePayment,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			BeforeJSON:   string(before),
			AfterJSON:    string(after),
			CreatedAt:    now,
		}); err != nil {
			return dbError(err)
		}

		out = VerifyPaymentOutput{
			Message: "Payment verified",
			Success: true,
			OrderID: o.ID,
			Status:  model.OrderStatusPaid,
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return VerifyPaymentOutput{}, err
		}
		return VerifyPaymentOutput{}, dbError(err)
	}
	return out, nil
}

func (u *PaymentUsecase) recordFailure(ctx context.Context, err error) {
	he, _ := AsHTTPError(err)
	switch {
	case he != nil && he.Kind == KindSettlementFailed:
		u.metrics.IncVerification(verifyResultSettlementFailed)
		//支払いは受けたが在庫が足りない。手動で返金・調整する
		u.log.Event(ctx, zerolog.ErrorLevel).
			Bool("oversold", true).
			Interface("details", he.Details).
			Msg("payment captured but settlement rolled back")
	case he != nil && he.Kind == KindInvalidSignature:
		u.metrics.IncVerification(verifyResultInvalidSignature)
		u.log.Warn(ctx, he.Message)
	case he != nil && he.Kind != KindInternal:
		u.metrics.IncVerification(verifyResultRejected)
		u.log.Warn(ctx, he.Message)
	default:
		u.metrics.IncVerification(verifyResultError)
		u.log.Error(ctx, "payment verification failed", err)
	}
}

func alreadyPaid(orderID int64) VerifyPaymentOutput {
	return VerifyPaymentOutput{
		Message:     "Payment already verified",
		Success:     true,
		AlreadyPaid: true,
		OrderID:     orderID,
		Status:      model.OrderStatusPaid,
	}
}
