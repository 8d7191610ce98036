package service

import (
	"context"
	"time"

	"cartservice/internal/domain/model"

	"github.com/shopspring/decimal"
)

// カタログサービス（外部）
// 失敗は model.ErrProductNotFound / model.ErrExternalService でラップして返す約束。
type CatalogClient interface {
	GetProduct(ctx context.Context, productID int64) (model.ProductSnapshot, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]model.ProductSnapshot, error)
	GetDiscountedPrice(ctx context.Context, productID int64, quantity int) (decimal.Decimal, error)
	// ボリュームプロモーション適用後の価格で返す（合計計算専用）
	GetVolumePricedProducts(ctx context.Context, lines []model.CartLine) ([]model.ProductSnapshot, error)
}

// ユーザーサービス（外部）
type UserClient interface {
	GetUser(ctx context.Context, userID int64) (model.User, error)
}

// 放置カートの通知先
type AbandonedReporter interface {
	ReportAbandoned(ctx context.Context, threshold time.Time, carts []model.Cart) error
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
