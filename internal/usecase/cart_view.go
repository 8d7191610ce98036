package usecase

import (
	"time"

	"cartservice/internal/domain/model"

	"github.com/shopspring/decimal"
)

// CartLineView はレスポンス用の明細。
type CartLineView struct {
	ID                 int64           `json:"id"`
	CartID             int64           `json:"cartId"`
	ProductID          int64           `json:"productId"`
	ProductName        string          `json:"productName"`
	ProductDescription string          `json:"productDescription"`
	Quantity           int             `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
}

// CartView はレスポンス用のカート。TotalPriceは取得時のみ入る。
type CartView struct {
	ID           int64            `json:"id"`
	UserID       int64            `json:"userId"`
	UpdatedAt    string           `json:"updatedAt"`
	CartProducts []CartLineView   `json:"cartProducts"`
	TotalPrice   *decimal.Decimal `json:"totalPrice,omitempty"`
}

func ToCartLineView(l model.CartLine) CartLineView {
	return CartLineView{
		ID:                 l.ID,
		CartID:             l.CartID,
		ProductID:          l.ProductID,
		ProductName:        l.ProductName,
		ProductDescription: l.ProductDescription,
		Quantity:           l.Quantity,
		Price:              l.Price,
	}
}

func ToCartView(c model.Cart) CartView {
	lines := make([]CartLineView, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, ToCartLineView(l))
	}
	return CartView{
		ID:           c.ID,
		UserID:       c.UserID,
		UpdatedAt:    c.UpdatedAt.Format(time.DateOnly),
		CartProducts: lines,
	}
}

func ToPricedCartView(c model.Cart, total decimal.Decimal) CartView {
	v := ToCartView(c)
	v.TotalPrice = &total
	return v
}

func ToCartViews(carts []model.Cart) []CartView {
	out := make([]CartView, 0, len(carts))
	for _, c := range carts {
		out = append(out, ToCartView(c))
	}
	return out
}
