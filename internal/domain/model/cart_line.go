package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// 明細数量の上限（quantity列はINTEGER）
const MaxLineQuantity = math.MaxInt32

// カートの明細
// 商品名・説明・価格はカタログのスナップショット。取得時に更新される。
type CartLine struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID             int64           `gorm:"not null;index:idx_cart_lines_cart_product" json:"cartId"`
	ProductID          int64           `gorm:"not null;index:idx_cart_lines_cart_product" json:"productId"`
	ProductName        string          `gorm:"type:varchar(255);not null" json:"productName"`
	ProductDescription string          `gorm:"type:text;not null" json:"productDescription"`
	Quantity           int             `gorm:"not null" json:"quantity"`
	Price              decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
}

func (CartLine) TableName() string { return "cart_lines" }

// スナップショットを商品の最新値で上書き
func (l *CartLine) ApplySnapshot(p ProductSnapshot) {
	l.Price = p.Price
	l.ProductName = p.Name
	l.ProductDescription = p.Description
}
