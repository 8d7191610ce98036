package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"cartservice/internal/domain/model"
	repo "cartservice/internal/repository"
)

// StockChecker はカタログの在庫数とカート数量を突き合わせる。
type StockChecker struct {
	lines   repo.CartLineRepository
	catalog CatalogClient

	onMissing   MissingProductPolicy
	onViolation ViolationPolicy
}

type StockCheckerOption func(*StockChecker)

func WithMissingProductPolicy(p MissingProductPolicy) StockCheckerOption {
	return func(s *StockChecker) { s.onMissing = p }
}

func WithViolationPolicy(p ViolationPolicy) StockCheckerOption {
	return func(s *StockChecker) { s.onViolation = p }
}

func NewStockChecker(lines repo.CartLineRepository, catalog CatalogClient, opts ...StockCheckerOption) *StockChecker {
	s := &StockChecker{
		lines:       lines,
		catalog:     catalog,
		onMissing:   MissingProductFail,
		onViolation: StopAtFirstViolation,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateSingleAdd は「既存数量＋追加数量」が在庫を超えないか確認する。
func (s *StockChecker) ValidateSingleAdd(ctx context.Context, cartID int64, productID int64, requested int) error {
	current, err := s.currentQuantity(ctx, cartID, productID)
	if err != nil {
		return err
	}

	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	// current+requested は桁あふれし得るので引き算で比べる
	if requested > p.CurrentStock-current {
		return &model.InsufficientStockError{
			ProductID: productID,
			Desired:   addCapped(current, requested),
			Available: p.CurrentStock,
		}
	}
	return nil
}

// ValidateQuantity は数量そのものを在庫と比べる（数量変更用）。
func (s *StockChecker) ValidateQuantity(ctx context.Context, productID int64, desired int) error {
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if desired > p.CurrentStock {
		return &model.InsufficientStockError{ProductID: productID, Desired: desired, Available: p.CurrentStock}
	}
	return nil
}

// ValidateWholeCart はカートの全明細を一括取得した在庫で再検証する。
func (s *StockChecker) ValidateWholeCart(ctx context.Context, cart model.Cart) error {
	if len(cart.Lines) == 0 {
		return nil
	}

	products, err := s.catalog.GetProductsByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return err
	}
	byID := model.IndexProducts(products)

	var violations []error
	for _, l := range cart.Lines {
		p, ok := byID[l.ProductID]
		if !ok {
			if s.onMissing == MissingProductSkip {
				continue
			}
			return fmt.Errorf("%w: product %d in cart %d", model.ErrProductNotFound, l.ProductID, cart.ID)
		}

		if l.Quantity > p.CurrentStock {
			v := &model.InsufficientStockError{ProductID: l.ProductID, Desired: l.Quantity, Available: p.CurrentStock}
			if s.onViolation == StopAtFirstViolation {
				return v
			}
			violations = append(violations, v)
		}
	}

	return errors.Join(violations...)
}

func addCapped(a, b int) int {
	if b > math.MaxInt-a {
		return math.MaxInt
	}
	return a + b
}

// 既にカートにある数量（無ければ0）
func (s *StockChecker) currentQuantity(ctx context.Context, cartID int64, productID int64) (int, error) {
	line, err := s.lines.FindByCartAndProduct(ctx, cartID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find cart line: %w", err)
	}
	return line.Quantity, nil
}
