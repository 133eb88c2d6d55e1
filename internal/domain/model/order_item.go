package model

import "time"

// 注文明細。SellerID と価格は注文時点のスナップショット
type OrderItem struct {
	ID                   int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID              int64     `gorm:"not null;index" json:"orderId"`
	ProductID            int64     `gorm:"not null;index" json:"productId"`
	SellerID             int64     `gorm:"not null;index" json:"sellerId"`
	ProductTitleSnapshot string    `gorm:"type:varchar(100);not null" json:"title"`
	Quantity             int64     `gorm:"not null" json:"quantity"`
	PriceAtPurchase      int64     `gorm:"not null" json:"priceAtPurchase"`
	CreatedAt            time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (it OrderItem) LineTotal() int64 {
	return it.Quantity * it.PriceAtPurchase
}
