package repository

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// 明細は OrderItemRepository.CreateBulk で別に作る
func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	order.Items = nil
	order.Buyer = nil
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) MarkPaidIfPending(ctx context.Context, orderID int64, paymentID string, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":             model.OrderStatusPaid,
			"gateway_payment_id": paymentID,
			"paid_at":            paidAt,
			"updated_at":         paidAt,
		})

	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return false, repo.ErrPaymentIDTaken
	}
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderGormRepository) ListScoped(ctx context.Context, scope repo.OrderScope) ([]model.Order, error) {
	var orders []model.Order
	err := r.scoped(ctx, scope).
		Order("orders.created_at desc").
		Order("orders.id desc").
		Find(&orders).Error
	if err != nil {
		return []model.Order{}, err
	}
	return orders, nil
}

func (r *OrderGormRepository) FindScoped(ctx context.Context, orderID int64, scope repo.OrderScope) (model.Order, error) {
	var o model.Order
	err := r.scoped(ctx, scope).Where("orders.id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) scoped(ctx context.Context, scope repo.OrderScope) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Order{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id asc") }).
		Preload("Items.Product").
		Preload("Buyer")

	if scope.BuyerID != nil {
		q = q.Where("orders.buyer_id = ?", *scope.BuyerID)
	}
	//出品者は自分の商品を含む注文（明細は絞らない）
	if scope.SellerID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.seller_id = ?)", *scope.SellerID)
	}
	return q
}
