package model

import "github.com/shopspring/decimal"

// ユーザーサービスが返すユーザー
type User struct {
	ID      int64   `json:"id"`
	Country Country `json:"country"`
}

// Taxはパーセント（20.0 = 20%）
type Country struct {
	ID  int64   `json:"id"`
	Tax float64 `json:"tax"`
}

func (u User) TaxRatePercent() decimal.Decimal {
	return decimal.NewFromFloat(u.Country.Tax)
}
