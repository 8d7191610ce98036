package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"cartservice/internal/domain/model"
	repo "cartservice/internal/repository"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PriceAggregator はカート合計（商品小計＋税＋送料）を計算する。
type PriceAggregator struct {
	carts   repo.CartRepository
	lines   repo.CartLineRepository
	catalog CatalogClient
	users   UserClient
	tiers   []model.ShippingTier
}

func NewPriceAggregator(
	carts repo.CartRepository,
	lines repo.CartLineRepository,
	catalog CatalogClient,
	users UserClient,
) *PriceAggregator {
	return &PriceAggregator{
		carts:   carts,
		lines:   lines,
		catalog: catalog,
		users:   users,
		tiers:   model.ShippingTiers,
	}
}

// CartTotal はユーザーの税率とプロモーション価格で合計を出す。小数2桁に四捨五入。
func (a *PriceAggregator) CartTotal(ctx context.Context, cartID int64, userID int64) (decimal.Decimal, error) {
	user, err := a.users.GetUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	if _, err := a.carts.FindByID(ctx, cartID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("%w: id %d", model.ErrCartNotFound, cartID)
		}
		return decimal.Zero, fmt.Errorf("find cart: %w", err)
	}

	lines, err := a.lines.ListByCartID(ctx, cartID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list cart lines: %w", err)
	}

	var products []model.ProductSnapshot
	if len(lines) > 0 {
		products, err = a.catalog.GetVolumePricedProducts(ctx, lines)
		if err != nil {
			return decimal.Zero, err
		}
	}

	return a.Total(products, user.TaxRatePercent())
}

// Total は解決済みの商品リストから合計を出す（丸めはここだけ）。
func (a *PriceAggregator) Total(products []model.ProductSnapshot, taxRatePercent decimal.Decimal) (decimal.Decimal, error) {
	subtotal := Subtotal(products)
	shipping, err := a.ShippingCost(TotalWeight(products))
	if err != nil {
		return decimal.Zero, err
	}
	total := subtotal.Add(Tax(subtotal, taxRatePercent)).Add(shipping)
	return total.Round(2), nil
}

// ShippingCost は重量に対する最初の段の送料。
func (a *PriceAggregator) ShippingCost(totalWeight float64) (decimal.Decimal, error) {
	return ShippingCostFor(totalWeight, a.tiers)
}

// Subtotal は解決済み価格の合計。数量は掛けない（プロモーション側で解決済みの価格）。
func Subtotal(products []model.ProductSnapshot) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range products {
		sum = sum.Add(p.Price)
	}
	return sum
}

// Tax は subtotal * rate / 100。途中で丸めない。
func Tax(subtotal decimal.Decimal, taxRatePercent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(taxRatePercent).Div(hundred)
}

// TotalWeight は商品ごとの重量の合計（数量は掛けない）。
func TotalWeight(products []model.ProductSnapshot) float64 {
	var w float64
	for _, p := range products {
		w += p.Weight
	}
	return w
}

func ShippingCostFor(totalWeight float64, tiers []model.ShippingTier) (decimal.Decimal, error) {
	if math.IsNaN(totalWeight) || totalWeight < 0 {
		return decimal.Zero, fmt.Errorf("%w: %v", model.ErrInvalidWeight, totalWeight)
	}
	for _, t := range tiers {
		if totalWeight <= t.MaxWeight {
			return t.Cost, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %v", model.ErrInvalidWeight, totalWeight)
}
