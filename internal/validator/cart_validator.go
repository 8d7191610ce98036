package validator

import (
	"errors"
	"fmt"
	"strings"

	"cartservice/internal/domain/model"

	"github.com/shopspring/decimal"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")
)

// POST /carts/products の入力
type AddProductRequest struct {
	CartID             int64
	ProductID          int64
	ProductName        string
	ProductDescription string
	Quantity           *int
	Price              *decimal.Decimal
}

// PATCH /carts/products の入力
type UpdateQuantityRequest struct {
	ID       int64
	Quantity *int
}

var tooLarge = fmt.Sprintf("Quantity must be at most %d", model.MaxLineQuantity)

// カート明細追加の入力を検証
func ValidateAddProduct(r AddProductRequest) error {
	var problems []string

	// 必須チェック
	if r.CartID <= 0 {
		problems = append(problems, "Cart ID cannot be null")
	}
	if r.ProductID <= 0 {
		problems = append(problems, "Product ID cannot be null")
	}
	if strings.TrimSpace(r.ProductName) == "" {
		problems = append(problems, "Product name cannot be blank")
	}
	if strings.TrimSpace(r.ProductDescription) == "" {
		problems = append(problems, "Product description cannot be blank")
	}

	// 数量は1以上、INTEGERに収まる範囲
	if r.Quantity == nil {
		problems = append(problems, "Quantity cannot be null")
	} else if *r.Quantity < 1 {
		problems = append(problems, "Quantity must be at least 1")
	} else if *r.Quantity > model.MaxLineQuantity {
		problems = append(problems, tooLarge)
	}

	// 価格は0以上
	if r.Price == nil {
		problems = append(problems, "Price cannot be null")
	} else if r.Price.IsNegative() {
		problems = append(problems, "Price cannot be negative")
	}

	return joinProblems(problems)
}

// 数量変更の入力を検証（数量の正負はusecaseでも見る）
func ValidateUpdateQuantity(r UpdateQuantityRequest) error {
	var problems []string
	if r.ID <= 0 {
		problems = append(problems, "ID cannot be null")
	}
	if r.Quantity == nil {
		problems = append(problems, "Quantity cannot be null")
	} else if *r.Quantity > model.MaxLineQuantity {
		problems = append(problems, tooLarge)
	}
	return joinProblems(problems)
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &Error{Problems: problems}
}

// Error は検証エラーの一覧。errors.Is(err, ErrInvalidInput) が真になる。
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return "Validation failed: " + strings.Join(e.Problems, "; ")
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalidInput
}
