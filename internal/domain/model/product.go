package model

import (
	"time"

	"gorm.io/gorm"
)

type Category string

const (
	CategoryRooster Category = "Rooster"
	CategoryHen     Category = "Hen"
	CategoryEgg     Category = "Egg"
	CategoryChick   Category = "Chick"
	CategoryOther   Category = "Other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryRooster, CategoryHen, CategoryEgg, CategoryChick, CategoryOther:
		return true
	}
	return false
}

// 価格は通貨の整数単位（ルピー）。注文時は OrderItem にコピーして固定する
type Product struct {
	ID          int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string   `gorm:"type:varchar(100);not null" json:"title"`
	Description string   `gorm:"type:varchar(1000);not null" json:"description"`
	Price       int64    `gorm:"not null" json:"price"`
	Category    Category `gorm:"type:varchar(20);not null;index" json:"category"`
	Images      []string `gorm:"serializer:json;type:text;not null" json:"images"`
	Breed       string   `gorm:"type:varchar(100);not null;default:'Native'" json:"breed"`
	Weight      string   `gorm:"type:varchar(50)" json:"weight,omitempty"`
	Age         string   `gorm:"type:varchar(50)" json:"age,omitempty"`
	SellerID    int64    `gorm:"not null;index" json:"sellerId"`

	//在庫は負にならない（減算は DecreaseStockIfEnough のみ）
	Stock    int64 `gorm:"not null" json:"stock"`
	IsActive bool  `gorm:"column:active;not null;default:true" json:"active"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
