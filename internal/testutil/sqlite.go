// Package testutil はテスト用のDBを用意する
package testutil

import (
	"testing"

	"marketplace/internal/domain/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLite はインメモリのsqliteにスキーマを作って返す。
// 接続は1本に固定する（:memory: は接続ごとに別DBになるため）
func NewSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.AuditLog{},
		&model.InventoryAdjustment{},
	))
	return gdb
}

// SeedUser はユーザーを1件作る
func SeedUser(t *testing.T, gdb *gorm.DB, email string, role model.Role) model.User {
	t.Helper()
	u := model.User{Name: "user", Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}

// SeedProduct は公開中の商品を1件作る
func SeedProduct(t *testing.T, gdb *gorm.DB, sellerID, price, stock int64) model.Product {
	t.Helper()
	p := model.Product{
		Title:       "Aseel Rooster",
		Description: "healthy bird",
		Price:       price,
		Category:    model.CategoryRooster,
		Images:      []string{"https://img.example/1.jpg"},
		Breed:       "Aseel",
		SellerID:    sellerID,
		Stock:       stock,
		IsActive:    true,
	}
	require.NoError(t, gdb.Create(&p).Error)
	return p
}
