package model

import (
	"errors"
	"fmt"
)

var (
	ErrCartNotFound      = errors.New("cart not found")
	ErrCartLineNotFound  = errors.New("cart product not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientStock = errors.New("not enough stock")
	ErrDuplicateCart     = errors.New("user already has a cart")
	ErrInvalidWeight     = errors.New("invalid weight")
	ErrInvalidQuantity   = errors.New("the quantity must be higher than 0")

	// カタログ・ユーザーサービスの失敗（タイムアウト含む）
	ErrExternalService = errors.New("external service failure")
)

// 在庫不足。Desiredはカート内既存分を含めた数量。
type InsufficientStockError struct {
	ProductID int64
	Desired   int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock to add product %d to cart. desired amount: %d. actual stock: %d",
		e.ProductID, e.Desired, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
