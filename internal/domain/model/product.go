package model

import "github.com/shopspring/decimal"

// カタログサービスが返す商品（読み取り専用）
type ProductSnapshot struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	CurrentStock int             `json:"currentStock"`
	Weight       float64         `json:"weight"`
}

// IDで引けるようにまとめる
func IndexProducts(products []ProductSnapshot) map[int64]ProductSnapshot {
	m := make(map[int64]ProductSnapshot, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}
