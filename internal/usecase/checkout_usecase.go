package usecase

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"marketplace/internal/domain/model"
	"marketplace/internal/logger"
	repo "marketplace/internal/repository"

	"github.com/rs/zerolog"
)

const (
	maxCartLines      = 50
	maxAddressLength  = 500
	receiptPrefix     = "receipt_"
	defaultGatewayTTL = 10 * time.Second
)

type CheckoutParams struct {
	Pricer         *Pricer
	Tx             repo.TransactionManager
	Gateway        PaymentGateway
	IDs            IDGenerator
	Logger         *logger.Logger
	Metrics        Metrics
	Currency       string
	Multiplier     int64
	GatewayTimeout time.Duration
}

// 注文作成（在庫はここでは減らさない。決済確認時に減らす）
type CheckoutUsecase struct {
	pricer     *Pricer
	tx         repo.TransactionManager
	gateway    PaymentGateway
	ids        IDGenerator
	log        *logger.Logger
	metrics    Metrics
	currency   string
	multiplier int64
	timeout    time.Duration
}

func NewCheckoutUsecase(p CheckoutParams) *CheckoutUsecase {
	uc := &CheckoutUsecase{
		pricer:     p.Pricer,
		tx:         p.Tx,
		gateway:    p.Gateway,
		ids:        p.IDs,
		log:        p.Logger,
		metrics:    p.Metrics,
		currency:   p.Currency,
		multiplier: p.Multiplier,
		timeout:    p.GatewayTimeout,
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	if uc.metrics == nil {
		uc.metrics = nopMetrics{}
	}
	if uc.multiplier <= 0 {
		uc.multiplier = 100
	}
	if uc.timeout <= 0 {
		uc.timeout = defaultGatewayTTL
	}
	return uc
}

type PlaceOrderInput struct {
	CartItems       []CartLine
	ShippingAddress string
}

type PlaceOrderOutput struct {
	OrderID   string `json:"orderId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	DBOrderID int64  `json:"dbOrderId"`
	Totals    Quote  `json:"totals"`
}

func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, identity model.Identity, in PlaceOrderInput) (PlaceOrderOutput, error) {
	if !identity.Authenticated() {
		return PlaceOrderOutput{}, NewHTTPError(KindUnauthorized, "unauthorized")
	}
	if len(in.CartItems) == 0 {
		return PlaceOrderOutput{}, NewHTTPError(KindValidation, "cart is empty")
	}
	if len(in.CartItems) > maxCartLines {
		return PlaceOrderOutput{}, NewHTTPError(KindValidation, "too many cart items")
	}
	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" {
		return PlaceOrderOutput{}, NewHTTPError(KindValidation, "shipping address required")
	}
	if utf8.RuneCountInString(address) > maxAddressLength {
		return PlaceOrderOutput{}, NewHTTPError(KindValidation, "shipping address too long")
	}

	quote, err := u.pricer.Quote(ctx, in.CartItems)
	if err != nil {
		return PlaceOrderOutput{}, err
	}
	//0円の決済はゲートウェイが受け付けない
	if quote.TotalAmount <= 0 {
		return PlaceOrderOutput{}, NewHTTPError(KindValidation, "order total must be positive")
	}

	//ゲートウェイ側の決済を先に作る
	receipt := receiptPrefix + u.ids.NewID()
	txn, err := u.createTransaction(ctx, quote.TotalAmount*u.multiplier, receipt)
	if err != nil {
		u.log.Event(ctx, zerolog.WarnLevel).
			Err(err).
			Str("receipt", receipt).
			Int64("amount", quote.TotalAmount).
			Msg("payment gateway unavailable")
		return PlaceOrderOutput{}, WrapHTTPError(KindGatewayUnavailable, err, "payment gateway unavailable")
	}

	currency := txn.Currency
	if currency == "" {
		currency = u.currency
	}

	order := model.Order{
		BuyerID:          identity.UserID,
		TotalAmount:      quote.TotalAmount,
		CommissionAmount: quote.CommissionAmount,
		SellerEarnings:   quote.SellerEarnings,
		Currency:         currency,
		Status:           model.OrderStatusPending,
		GatewayOrderID:   txn.ID,
		ShippingAddress:  address,
	}

	//注文と明細は1トランザクション
	var orderID int64
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		id, err := r.Orders().Create(ctx, order)
		if err != nil {
			return err
		}
		if err := r.OrderItems().CreateBulk(ctx, id, quote.Items); err != nil {
			return err
		}
		orderID = id
		return nil
	})
	if err != nil {
		//ゲートウェイ側だけ残る（未払いのまま期限切れになる）
		u.log.Event(ctx, zerolog.ErrorLevel).
			Err(err).
			Str("gateway_order_id", txn.ID).
			Str("receipt", receipt).
			Bool("orphaned_gateway_txn", true).
			Msg("order write failed after gateway transaction")
		return PlaceOrderOutput{}, dbError(err)
	}

	u.metrics.IncOrdersCreated()
	u.log.Event(ctx, zerolog.InfoLevel).
		Int64("order_id", orderID).
		Str("gateway_order_id", txn.ID).
		Int64("total", quote.TotalAmount).
		Int64("commission", quote.CommissionAmount).
		Int("lines", len(quote.Items)).
		Msg("order created")

	amount := txn.Amount
	if amount == 0 {
		amount = quote.TotalAmount * u.multiplier
	}
	return PlaceOrderOutput{
		OrderID:   txn.ID,
		Amount:    amount,
		Currency:  currency,
		DBOrderID: orderID,
		Totals:    quote,
	}, nil
}

func (u *CheckoutUsecase) createTransaction(ctx context.Context, amountMinor int64, receipt string) (GatewayTransaction, error) {
	cctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	start := time.Now()
	txn, err := u.gateway.CreateTransaction(cctx, amountMinor, u.currency, receipt)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	u.metrics.ObserveGatewayCall(outcome, time.Since(start))
	return txn, err
}
