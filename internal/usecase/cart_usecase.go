package usecase

import (
	"context"
	"fmt"
	"time"

	"cartservice/internal/domain/model"
	"cartservice/internal/domain/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartUsecase は /carts の業務ロジックです。
// 外から呼ばれる追加・取得・空にする・作成の前に、必ず放置カート検出を走らせます。
type CartUsecase struct {
	manager *service.CartManager
	stock   *service.StockChecker
	pricer  *service.PriceAggregator
	log     *zap.Logger
}

func NewCartUsecase(
	manager *service.CartManager,
	stock *service.StockChecker,
	pricer *service.PriceAggregator,
	log *zap.Logger,
) *CartUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartUsecase{
		manager: manager,
		stock:   stock,
		pricer:  pricer,
		log:     log,
	}
}

// POST /carts/products
type AddProductInput struct {
	CartID             int64
	ProductID          int64
	ProductName        string
	ProductDescription string
	Quantity           int
	Price              decimal.Decimal
}

// AddProduct は在庫を確認してからカートに追加する（同一商品は数量加算）。
func (u *CartUsecase) AddProduct(ctx context.Context, in AddProductInput) (CartLineView, error) {
	if err := u.sweep(ctx); err != nil {
		return CartLineView{}, err
	}
	if in.Quantity < 1 {
		return CartLineView{}, model.ErrInvalidQuantity
	}

	// 在庫チェックは書き込みより前
	if err := u.stock.ValidateSingleAdd(ctx, in.CartID, in.ProductID, in.Quantity); err != nil {
		return CartLineView{}, err
	}

	line, err := u.manager.AddOrMergeLine(ctx, model.CartLine{
		CartID:             in.CartID,
		ProductID:          in.ProductID,
		ProductName:        in.ProductName,
		ProductDescription: in.ProductDescription,
		Quantity:           in.Quantity,
		Price:              in.Price,
	})
	if err != nil {
		return CartLineView{}, err
	}
	return ToCartLineView(line), nil
}

// FetchCart は在庫を再検証し、スナップショットを更新して合計付きで返す。
func (u *CartUsecase) FetchCart(ctx context.Context, cartID int64) (CartView, error) {
	if err := u.sweep(ctx); err != nil {
		return CartView{}, err
	}

	cart, err := u.manager.LoadCart(ctx, cartID)
	if err != nil {
		return CartView{}, err
	}

	if err := u.stock.ValidateWholeCart(ctx, cart); err != nil {
		return CartView{}, err
	}
	if err := u.manager.RefreshLineSnapshots(ctx, &cart); err != nil {
		return CartView{}, err
	}

	total, err := u.pricer.CartTotal(ctx, cart.ID, cart.UserID)
	if err != nil {
		return CartView{}, err
	}
	return ToPricedCartView(cart, total), nil
}

// EmptyCart は明細を全部消す。2回呼んでもエラーにならない。
func (u *CartUsecase) EmptyCart(ctx context.Context, cartID int64) error {
	if err := u.sweep(ctx); err != nil {
		return err
	}
	_, err := u.manager.EmptyCart(ctx, cartID)
	return err
}

// CreateCart はユーザーのカートを作る（1ユーザー1カート）。
func (u *CartUsecase) CreateCart(ctx context.Context, userID int64) (CartView, error) {
	if err := u.sweep(ctx); err != nil {
		return CartView{}, err
	}

	cart, err := u.manager.CreateCart(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	return ToCartView(cart), nil
}

// IdentifyAbandonedCarts は threshold より前に更新されたカートを明細付きで返す。
func (u *CartUsecase) IdentifyAbandonedCarts(ctx context.Context, threshold time.Time) ([]CartView, error) {
	carts, err := u.manager.ListAbandoned(ctx, threshold)
	if err != nil {
		return nil, err
	}
	return ToCartViews(carts), nil
}

func (u *CartUsecase) ListCarts(ctx context.Context) ([]CartView, error) {
	carts, err := u.manager.ListCarts(ctx)
	if err != nil {
		return nil, err
	}
	return ToCartViews(carts), nil
}

// UpdateLineQuantity は数量を置き換える（在庫チェックあり）。
func (u *CartUsecase) UpdateLineQuantity(ctx context.Context, lineID int64, qty int) (CartLineView, error) {
	if qty <= 0 {
		return CartLineView{}, model.ErrInvalidQuantity
	}

	line, err := u.manager.FindLine(ctx, lineID)
	if err != nil {
		return CartLineView{}, err
	}
	if err := u.stock.ValidateQuantity(ctx, line.ProductID, qty); err != nil {
		return CartLineView{}, err
	}

	updated, err := u.manager.UpdateLineQuantity(ctx, line, qty)
	if err != nil {
		return CartLineView{}, err
	}
	return ToCartLineView(updated), nil
}

// RemoveLine は明細を削除して、削除した明細を返す。
func (u *CartUsecase) RemoveLine(ctx context.Context, lineID int64) (CartLineView, error) {
	line, err := u.manager.RemoveLine(ctx, lineID)
	if err != nil {
		return CartLineView{}, err
	}
	return ToCartLineView(line), nil
}

func (u *CartUsecase) sweep(ctx context.Context) error {
	if err := u.manager.SweepAbandoned(ctx); err != nil {
		return fmt.Errorf("abandoned cart sweep: %w", err)
	}
	return nil
}
