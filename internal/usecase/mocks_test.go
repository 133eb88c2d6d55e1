package usecase_test

import (
	"context"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/stretchr/testify/mock"
)

// =====================
// Repository mocks
// =====================

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) MarkPaidIfPending(ctx context.Context, orderID int64, paymentID string, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, orderID, paymentID, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) ListScoped(ctx context.Context, scope repo.OrderScope) ([]model.Order, error) {
	args := m.Called(ctx, scope)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) FindScoped(ctx context.Context, orderID int64, scope repo.OrderScope) (model.Order, error) {
	args := m.Called(ctx, orderID, scope)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) SetStock(ctx context.Context, productID int64, newStock int64) error {
	args := m.Called(ctx, productID, newStock)
	return args.Error(0)
}

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	args := m.Called(ctx, adj)
	return args.Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

// =====================
// Tx
// =====================

type fakeTxRepos struct {
	orders     *OrderRepoMock
	orderItems *OrderItemRepoMock
	inventory  *InventoryRepoMock
	products   *ProductRepoMock
	audit      *AuditRepoMock
}

func newFakeTxRepos() *fakeTxRepos {
	return &fakeTxRepos{
		orders:     new(OrderRepoMock),
		orderItems: new(OrderItemRepoMock),
		inventory:  new(InventoryRepoMock),
		products:   new(ProductRepoMock),
		audit:      new(AuditRepoMock),
	}
}

func (r *fakeTxRepos) Orders() repo.OrderRepository         { return r.orders }
func (r *fakeTxRepos) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *fakeTxRepos) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *fakeTxRepos) Products() repo.ProductRepository     { return r.products }
func (r *fakeTxRepos) AuditLogs() repo.AuditLogRepository   { return r.audit }

// fn をそのまま呼ぶ（ロールバックはDBテスト側で見る）
type fakeTxManager struct {
	repos *fakeTxRepos
	calls int
}

func (tm *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	tm.calls++
	return fn(tm.repos)
}

// =====================
// Ports
// =====================

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateTransaction(ctx context.Context, amountMinor int64, currency, receipt string) (usecase.GatewayTransaction, error) {
	args := m.Called(ctx, amountMinor, currency, receipt)
	txn, _ := args.Get(0).(usecase.GatewayTransaction)
	return txn, args.Error(1)
}

func (m *GatewayMock) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	args := m.Called(gatewayOrderID, gatewayPaymentID, signature)
	return args.Bool(0)
}

type GuardMock struct{ mock.Mock }

func (m *GuardMock) CheckAndMark(ctx context.Context, paymentID string) (bool, error) {
	args := m.Called(ctx, paymentID)
	return args.Bool(0), args.Error(1)
}

func (m *GuardMock) Release(ctx context.Context, paymentID string) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}

type fixedIDs struct{ id string }

func (f fixedIDs) NewID() string { return f.id }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func buyer(id int64) model.Identity  { return model.Identity{UserID: id, Role: model.RoleBuyer} }
func seller(id int64) model.Identity { return model.Identity{UserID: id, Role: model.RoleSeller} }
func admin(id int64) model.Identity  { return model.Identity{UserID: id, Role: model.RoleAdmin} }

func ptr[T any](v T) *T { return &v }
