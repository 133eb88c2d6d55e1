package model

import "time"

type AuditAction string

const (
	//在庫を手動で設定した
	AuditActionUpdateStock AuditAction = "UPDATE_STOCK"
	//決済確認で pending -> paid にした
	AuditActionSettlePayment AuditAction = "SETTLE_PAYMENT"
)

type AuditResourceType string

const (
	AuditResourceProduct AuditResourceType = "product"
	AuditResourceOrder   AuditResourceType = "order"
)

// 監査ログ。
// ActorUserID が nil のときはゲートウェイのコールバックによる操作。
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  *int64            `gorm:"index" json:"actorUserId,omitempty"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resourceType"`
	ResourceID   int64             `gorm:"not null;index" json:"resourceId"`

	BeforeJSON string `gorm:"type:text" json:"before"`
	AfterJSON  string `gorm:"type:text" json:"after"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}
