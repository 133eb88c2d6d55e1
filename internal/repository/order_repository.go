package repository

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/domain/model"
)

// 別の注文で既に使われた決済ID
var ErrPaymentIDTaken = errors.New("gateway payment id already used")

// 注文一覧の絞り込み。nilの条件は無視する
type OrderScope struct {
	BuyerID  *int64
	SellerID *int64
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	// pending のときだけ paid にする。更新できなければ false
	// 決済IDの重複は ErrPaymentIDTaken
	MarkPaidIfPending(ctx context.Context, orderID int64, paymentID string, paidAt time.Time) (bool, error)

	// 明細・商品・購入者をまとめて読む（新しい順）
	ListScoped(ctx context.Context, scope OrderScope) ([]model.Order, error)
	FindScoped(ctx context.Context, orderID int64, scope OrderScope) (model.Order, error)
}
