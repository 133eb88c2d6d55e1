package usecase

import (
	"context"
	"errors"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// ロールごとに見える注文の範囲
type scopeFunc func(id model.Identity) repo.OrderScope

var orderScopes = map[model.Role]scopeFunc{
	model.RoleBuyer: func(id model.Identity) repo.OrderScope {
		uid := id.UserID
		return repo.OrderScope{BuyerID: &uid}
	},
	model.RoleSeller: func(id model.Identity) repo.OrderScope {
		uid := id.UserID
		return repo.OrderScope{SellerID: &uid}
	},
	model.RoleAdmin: func(model.Identity) repo.OrderScope {
		return repo.OrderScope{}
	},
}

type OrderQueryUsecase struct {
	orders repo.OrderRepository
}

func NewOrderQueryUsecase(orders repo.OrderRepository) *OrderQueryUsecase {
	return &OrderQueryUsecase{orders: orders}
}

// List は新しい順。知らないロールは空
func (u *OrderQueryUsecase) List(ctx context.Context, identity model.Identity) ([]model.Order, error) {
	if !identity.Authenticated() {
		return nil, NewHTTPError(KindUnauthorized, "unauthorized")
	}
	scope, ok := orderScopes[identity.Role]
	if !ok {
		return []model.Order{}, nil
	}

	orders, err := u.orders.ListScoped(ctx, scope(identity))
	if err != nil {
		return nil, dbError(err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// Get は範囲外の注文も OrderNotFound にする（存在を漏らさない）
func (u *OrderQueryUsecase) Get(ctx context.Context, identity model.Identity, orderID int64) (model.Order, error) {
	if !identity.Authenticated() {
		return model.Order{}, NewHTTPError(KindUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(KindValidation, "invalid order id")
	}
	scope, ok := orderScopes[identity.Role]
	if !ok {
		return model.Order{}, NewHTTPError(KindOrderNotFound, "Order not found")
	}

	o, err := u.orders.FindScoped(ctx, orderID, scope(identity))
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(KindOrderNotFound, "Order not found")
	}
	if err != nil {
		return model.Order{}, dbError(err)
	}
	return o, nil
}
