package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOrder(t *testing.T, gdb *gorm.DB, buyerID int64, gatewayOrderID string, items ...model.OrderItem) int64 {
	t.Helper()
	ctx := context.Background()

	var total int64
	for _, it := range items {
		total += it.LineTotal()
	}
	id, err := NewOrderGormRepository(gdb).Create(ctx, model.Order{
		BuyerID:          buyerID,
		TotalAmount:      total,
		CommissionAmount: 0,
		SellerEarnings:   total,
		Currency:         "INR",
		Status:           model.OrderStatusPending,
		GatewayOrderID:   gatewayOrderID,
		ShippingAddress:  "12 MG Road, Pune",
	})
	require.NoError(t, err)
	require.NoError(t, NewOrderItemGormRepository(gdb).CreateBulk(ctx, id, items))
	return id
}

// =====================
// Inventory
// =====================

func TestInventory_DecreaseStockIfEnough(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	s := testutil.SeedUser(t, gdb, "s@test.com", model.RoleSeller)
	p := testutil.SeedProduct(t, gdb, s.ID, 500, 3)
	inv := NewInventoryGormRepository(gdb)
	ctx := context.Background()

	ok, err := inv.DecreaseStockIfEnough(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	//残り1に対して2は減らせない
	ok, err = inv.DecreaseStockIfEnough(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := NewProductGormRepository(gdb).FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Stock)
}

func TestInventory_SetStockAndAdjustment(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	s := testutil.SeedUser(t, gdb, "s@test.com", model.RoleSeller)
	p := testutil.SeedProduct(t, gdb, s.ID, 500, 3)
	inv := NewInventoryGormRepository(gdb)
	ctx := context.Background()

	require.NoError(t, inv.SetStock(ctx, p.ID, 0))
	assert.ErrorIs(t, inv.SetStock(ctx, 9999, 1), repo.ErrNotFound)

	require.NoError(t, inv.CreateAdjustment(ctx, model.InventoryAdjustment{
		ProductID: p.ID, ActorUserID: s.ID, Delta: -3, Reason: "stocktake",
	}))
	var n int64
	require.NoError(t, gdb.Model(&model.InventoryAdjustment{}).Where("product_id = ?", p.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	got, err := NewProductGormRepository(gdb).FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Stock)
}

// =====================
// Product
// =====================

func TestProduct_ListPublicFilters(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	s1 := testutil.SeedUser(t, gdb, "s1@test.com", model.RoleSeller)
	s2 := testutil.SeedUser(t, gdb, "s2@test.com", model.RoleSeller)
	a := testutil.SeedProduct(t, gdb, s1.ID, 100, 1)
	b := testutil.SeedProduct(t, gdb, s2.ID, 200, 1)
	hidden := testutil.SeedProduct(t, gdb, s1.ID, 300, 1)
	require.NoError(t, gdb.Model(&model.Product{}).Where("id = ?", hidden.ID).Update("active", false).Error)

	egg := model.CategoryEgg
	require.NoError(t, gdb.Model(&model.Product{}).Where("id = ?", b.ID).Update("category", egg).Error)

	r := NewProductGormRepository(gdb)
	ctx := context.Background()

	all, err := r.ListPublic(ctx, repo.ProductListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bySeller, err := r.ListPublic(ctx, repo.ProductListQuery{SellerID: &s1.ID})
	require.NoError(t, err)
	require.Len(t, bySeller, 1)
	assert.Equal(t, a.ID, bySeller[0].ID)

	byCat, err := r.ListPublic(ctx, repo.ProductListQuery{Category: &egg})
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, b.ID, byCat[0].ID)
	assert.Equal(t, []string{"https://img.example/1.jpg"}, byCat[0].Images)
}

func TestProduct_FindByIDSoftDeleted(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	s := testutil.SeedUser(t, gdb, "s@test.com", model.RoleSeller)
	p := testutil.SeedProduct(t, gdb, s.ID, 100, 1)
	require.NoError(t, gdb.Delete(&model.Product{}, p.ID).Error)

	_, err := NewProductGormRepository(gdb).FindByID(context.Background(), p.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

// =====================
// Order
// =====================

func TestOrder_MarkPaidIfPending(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	b := testutil.SeedUser(t, gdb, "b@test.com", model.RoleBuyer)
	orders := NewOrderGormRepository(gdb)
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	id1 := seedOrder(t, gdb, b.ID, "order_A")
	id2 := seedOrder(t, gdb, b.ID, "order_B")

	ok, err := orders.MarkPaidIfPending(ctx, id1, "pay_1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	//2回目は pending ではないので false
	ok, err = orders.MarkPaidIfPending(ctx, id1, "pay_1", now)
	require.NoError(t, err)
	assert.False(t, ok)

	//同じ決済IDを別注文に使うと一意制約
	_, err = orders.MarkPaidIfPending(ctx, id2, "pay_1", now)
	assert.True(t, errors.Is(err, repo.ErrPaymentIDTaken), err)

	o, err := orders.FindByID(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, o.Status)
	require.NotNil(t, o.GatewayPaymentID)
	assert.Equal(t, "pay_1", *o.GatewayPaymentID)
	require.NotNil(t, o.PaidAt)

	_, err = orders.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestOrder_Scoped(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	b1 := testutil.SeedUser(t, gdb, "b1@test.com", model.RoleBuyer)
	b2 := testutil.SeedUser(t, gdb, "b2@test.com", model.RoleBuyer)
	s1 := testutil.SeedUser(t, gdb, "s1@test.com", model.RoleSeller)
	s2 := testutil.SeedUser(t, gdb, "s2@test.com", model.RoleSeller)
	p1 := testutil.SeedProduct(t, gdb, s1.ID, 100, 5)
	p2 := testutil.SeedProduct(t, gdb, s2.ID, 200, 5)

	item := func(p model.Product, qty int64) model.OrderItem {
		return model.OrderItem{ProductID: p.ID, SellerID: p.SellerID, ProductTitleSnapshot: p.Title, Quantity: qty, PriceAtPurchase: p.Price}
	}
	mixed := seedOrder(t, gdb, b1.ID, "order_1", item(p1, 1), item(p2, 2))
	onlyS2 := seedOrder(t, gdb, b2.ID, "order_2", item(p2, 1))

	orders := NewOrderGormRepository(gdb)
	ctx := context.Background()

	all, err := orders.ListScoped(ctx, repo.OrderScope{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := orders.ListScoped(ctx, repo.OrderScope{BuyerID: &b1.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, mixed, mine[0].ID)
	//明細と商品も読み込まれる
	require.Len(t, mine[0].Items, 2)
	require.NotNil(t, mine[0].Items[0].Product)
	require.NotNil(t, mine[0].Buyer)
	assert.Equal(t, b1.Email, mine[0].Buyer.Email)

	forS1, err := orders.ListScoped(ctx, repo.OrderScope{SellerID: &s1.ID})
	require.NoError(t, err)
	require.Len(t, forS1, 1)
	assert.Equal(t, mixed, forS1[0].ID)
	//出品者にも注文全体の明細を見せる
	assert.Len(t, forS1[0].Items, 2)

	forS2, err := orders.ListScoped(ctx, repo.OrderScope{SellerID: &s2.ID})
	require.NoError(t, err)
	assert.Len(t, forS2, 2)

	_, err = orders.FindScoped(ctx, onlyS2, repo.OrderScope{SellerID: &s1.ID})
	assert.ErrorIs(t, err, repo.ErrNotFound)

	got, err := orders.FindScoped(ctx, onlyS2, repo.OrderScope{BuyerID: &b2.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(200), got.TotalAmount)
}

// =====================
// Tx
// =====================

func TestTxManager_RollbackOnError(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	s := testutil.SeedUser(t, gdb, "s@test.com", model.RoleSeller)
	p := testutil.SeedProduct(t, gdb, s.ID, 100, 5)
	boom := errors.New("boom")

	err := NewTxManagerGorm(gdb).WithinTx(context.Background(), func(r repo.TxRepos) error {
		ok, err := r.Inventory().DecreaseStockIfEnough(context.Background(), p.ID, 5)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := NewProductGormRepository(gdb).FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Stock)
}

// =====================
// Audit / User
// =====================

func TestAuditLog_ListFilters(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	r := NewAuditLogGormRepository(gdb)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	actor := int64(9)
	require.NoError(t, r.Create(ctx, model.AuditLog{ActorUserID: &actor, Action: model.AuditActionUpdateStock, ResourceType: model.AuditResourceProduct, ResourceID: 1, CreatedAt: base}))
	require.NoError(t, r.Create(ctx, model.AuditLog{Action: model.AuditActionSettlePayment, ResourceType: model.AuditResourceOrder, ResourceID: 7, CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, r.Create(ctx, model.AuditLog{Action: model.AuditActionSettlePayment, ResourceType: model.AuditResourceOrder, ResourceID: 8, CreatedAt: base.Add(2 * time.Hour)}))

	settle := model.AuditActionSettlePayment
	logs, err := r.List(ctx, repo.AuditLogFilter{Action: &settle})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	//新しい順
	assert.Equal(t, int64(8), logs[0].ResourceID)
	assert.Nil(t, logs[0].ActorUserID)

	rid := int64(1)
	logs, err = r.List(ctx, repo.AuditLogFilter{ResourceID: &rid})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].ActorUserID)
	assert.Equal(t, actor, *logs[0].ActorUserID)

	logs, err = r.List(ctx, repo.AuditLogFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestUser_CreateAndFind(t *testing.T) {
	gdb := testutil.NewSQLite(t)
	r := NewUserGormRepository(gdb)
	ctx := context.Background()

	u := &model.User{Name: "Ravi", Email: "ravi@test.com", PasswordHash: "h", Role: model.RoleSeller}
	require.NoError(t, r.Create(ctx, u))
	assert.NotZero(t, u.ID)

	dup := &model.User{Name: "Ravi2", Email: "ravi@test.com", PasswordHash: "h", Role: model.RoleBuyer}
	assert.ErrorIs(t, r.Create(ctx, dup), repo.ErrEmailTaken)

	got, err := r.FindByEmail(ctx, "ravi@test.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = r.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
