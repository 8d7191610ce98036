package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// 重量の上限（含む）と送料
type ShippingTier struct {
	MaxWeight float64
	Cost      decimal.Decimal
}

// 昇順で評価し、最初に当たった段の送料を使う
var ShippingTiers = []ShippingTier{
	{MaxWeight: 5, Cost: decimal.NewFromInt(5)},
	{MaxWeight: 10, Cost: decimal.NewFromInt(10)},
	{MaxWeight: 20, Cost: decimal.NewFromInt(20)},
	{MaxWeight: math.Inf(1), Cost: decimal.NewFromInt(50)},
}
