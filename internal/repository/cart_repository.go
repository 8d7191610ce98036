package repository

import (
	"context"
	"time"

	"cartservice/internal/domain/model"
)

// カート本体の永続化。明細（Lines）は CartLineRepository が扱う。
type CartRepository interface {
	FindByID(ctx context.Context, cartID int64) (model.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
	List(ctx context.Context) ([]model.Cart, error)

	// updated_at < threshold のカート（当日分は含まない）
	ListUpdatedBefore(ctx context.Context, threshold time.Time) ([]model.Cart, error)

	// user_id重複は model.ErrDuplicateCart
	Create(ctx context.Context, cart model.Cart) (model.Cart, error)
	Save(ctx context.Context, cart model.Cart) error
}
