package model

import "time"

// 手動の在庫調整履歴（決済による減算はここに残さない）
type InventoryAdjustment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64     `gorm:"not null;index" json:"productId"`
	ActorUserID int64     `gorm:"not null;index" json:"actorUserId"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}
