package model

import "time"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// 定義済みのロールか
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"type:varchar(60);not null" json:"name"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'buyer'" json:"role"`
	Phone        string `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Address      string `gorm:"type:text" json:"address,omitempty"`

	//出品者の受取口座（ゲートウェイ側のID）
	PayoutAccountID string `gorm:"type:varchar(255)" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

// 認証済みリクエストの「誰が・どのロールで」
type Identity struct {
	UserID int64
	Role   Role
}

func (i Identity) Authenticated() bool {
	return i.UserID > 0
}
