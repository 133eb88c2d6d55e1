package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// 金額はすべて作成時に確定する。
// CommissionAmount + SellerEarnings == TotalAmount
type Order struct {
	ID               int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	BuyerID          int64       `gorm:"not null;index" json:"buyerId"`
	TotalAmount      int64       `gorm:"not null" json:"totalAmount"`
	CommissionAmount int64       `gorm:"not null" json:"commissionAmount"`
	SellerEarnings   int64       `gorm:"not null" json:"sellerEarnings"`
	Currency         string      `gorm:"type:varchar(3);not null" json:"currency"`
	Status           OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//ゲートウェイ側の注文ID / 決済ID（決済IDは検証後のみ）
	GatewayOrderID   string  `gorm:"type:varchar(64);not null;uniqueIndex" json:"gatewayOrderId"`
	GatewayPaymentID *string `gorm:"type:varchar(64);uniqueIndex" json:"gatewayPaymentId,omitempty"`

	ShippingAddress string     `gorm:"type:text;not null" json:"shippingAddress"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;autoCreateTime;index" json:"createdAt"`
	UpdatedAt       time.Time  `gorm:"not null;autoUpdateTime" json:"updatedAt"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Buyer *User       `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
}
