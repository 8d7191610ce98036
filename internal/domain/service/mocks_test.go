package service_test

import (
	"context"
	"time"

	"cartservice/internal/domain/model"
	"cartservice/internal/domain/service"
	repo "cartservice/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =====================
// Repository mocks
// =====================

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) FindByID(ctx context.Context, cartID int64) (model.Cart, error) {
	args := m.Called(ctx, cartID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) List(ctx context.Context) ([]model.Cart, error) {
	args := m.Called(ctx)
	cs, _ := args.Get(0).([]model.Cart)
	return cs, args.Error(1)
}

func (m *CartRepoMock) ListUpdatedBefore(ctx context.Context, threshold time.Time) ([]model.Cart, error) {
	args := m.Called(ctx, threshold)
	cs, _ := args.Get(0).([]model.Cart)
	return cs, args.Error(1)
}

func (m *CartRepoMock) Create(ctx context.Context, cart model.Cart) (model.Cart, error) {
	args := m.Called(ctx, cart)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) Save(ctx context.Context, cart model.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

type CartLineRepoMock struct{ mock.Mock }

func (m *CartLineRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartLine, error) {
	args := m.Called(ctx, cartID)
	ls, _ := args.Get(0).([]model.CartLine)
	return ls, args.Error(1)
}

func (m *CartLineRepoMock) ListByCartIDs(ctx context.Context, cartIDs []int64) ([]model.CartLine, error) {
	args := m.Called(ctx, cartIDs)
	ls, _ := args.Get(0).([]model.CartLine)
	return ls, args.Error(1)
}

func (m *CartLineRepoMock) FindByID(ctx context.Context, lineID int64) (model.CartLine, error) {
	args := m.Called(ctx, lineID)
	l, _ := args.Get(0).(model.CartLine)
	return l, args.Error(1)
}

func (m *CartLineRepoMock) FindByCartAndProduct(ctx context.Context, cartID int64, productID int64) (model.CartLine, error) {
	args := m.Called(ctx, cartID, productID)
	l, _ := args.Get(0).(model.CartLine)
	return l, args.Error(1)
}

func (m *CartLineRepoMock) Create(ctx context.Context, line model.CartLine) (model.CartLine, error) {
	args := m.Called(ctx, line)
	l, _ := args.Get(0).(model.CartLine)
	return l, args.Error(1)
}

func (m *CartLineRepoMock) Save(ctx context.Context, line model.CartLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *CartLineRepoMock) SaveAll(ctx context.Context, lines []model.CartLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *CartLineRepoMock) UpdateQuantity(ctx context.Context, lineID int64, qty int) error {
	args := m.Called(ctx, lineID, qty)
	return args.Error(0)
}

func (m *CartLineRepoMock) DeleteByID(ctx context.Context, lineID int64) error {
	args := m.Called(ctx, lineID)
	return args.Error(0)
}

func (m *CartLineRepoMock) DeleteByCartID(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

var (
	_ repo.CartRepository     = (*CartRepoMock)(nil)
	_ repo.CartLineRepository = (*CartLineRepoMock)(nil)
)

// =====================
// TxManager mock
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	carts repo.CartRepository
	lines repo.CartLineRepository
}

func (r *TxReposMock) Carts() repo.CartRepository         { return r.carts }
func (r *TxReposMock) CartLines() repo.CartLineRepository { return r.lines }

// =====================
// 外部サービス mocks
// =====================

type CatalogMock struct{ mock.Mock }

func (m *CatalogMock) GetProduct(ctx context.Context, productID int64) (model.ProductSnapshot, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(model.ProductSnapshot)
	return p, args.Error(1)
}

func (m *CatalogMock) GetProductsByIDs(ctx context.Context, ids []int64) ([]model.ProductSnapshot, error) {
	args := m.Called(ctx, ids)
	ps, _ := args.Get(0).([]model.ProductSnapshot)
	return ps, args.Error(1)
}

func (m *CatalogMock) GetDiscountedPrice(ctx context.Context, productID int64, quantity int) (decimal.Decimal, error) {
	args := m.Called(ctx, productID, quantity)
	d, _ := args.Get(0).(decimal.Decimal)
	return d, args.Error(1)
}

func (m *CatalogMock) GetVolumePricedProducts(ctx context.Context, lines []model.CartLine) ([]model.ProductSnapshot, error) {
	args := m.Called(ctx, lines)
	ps, _ := args.Get(0).([]model.ProductSnapshot)
	return ps, args.Error(1)
}

type UserClientMock struct{ mock.Mock }

func (m *UserClientMock) GetUser(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

type ReporterMock struct{ mock.Mock }

func (m *ReporterMock) ReportAbandoned(ctx context.Context, threshold time.Time, carts []model.Cart) error {
	args := m.Called(ctx, threshold, carts)
	return args.Error(0)
}

// ctx が切れるまで返らない通知先
type stallingReporter struct {
	started chan struct{}
	done    chan error
}

func (r *stallingReporter) ReportAbandoned(ctx context.Context, threshold time.Time, carts []model.Cart) error {
	close(r.started)
	<-ctx.Done()
	r.done <- ctx.Err()
	return ctx.Err()
}

var (
	_ service.CatalogClient     = (*CatalogMock)(nil)
	_ service.UserClient        = (*UserClientMock)(nil)
	_ service.AbandonedReporter = (*ReporterMock)(nil)
)

// =====================
// helper
// =====================

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
