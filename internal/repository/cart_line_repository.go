package repository

import (
	"context"

	"cartservice/internal/domain/model"
)

type CartLineRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartLine, error)
	ListByCartIDs(ctx context.Context, cartIDs []int64) ([]model.CartLine, error)
	FindByID(ctx context.Context, lineID int64) (model.CartLine, error)
	// (cart_id, product_id) の明細。無ければ ErrNotFound
	FindByCartAndProduct(ctx context.Context, cartID int64, productID int64) (model.CartLine, error)

	Create(ctx context.Context, line model.CartLine) (model.CartLine, error)
	Save(ctx context.Context, line model.CartLine) error
	SaveAll(ctx context.Context, lines []model.CartLine) error
	UpdateQuantity(ctx context.Context, lineID int64, qty int) error
	DeleteByID(ctx context.Context, lineID int64) error
	DeleteByCartID(ctx context.Context, cartID int64) error
}
