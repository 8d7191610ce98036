package model

import "time"

// 1ユーザーにつきカートは1つ
// UpdatedAtは日付単位（放置カート判定に使う）
type Cart struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64      `gorm:"not null;uniqueIndex" json:"userId"`
	UpdatedAt time.Time  `gorm:"type:date;not null;autoUpdateTime:false" json:"updatedAt"`
	Lines     []CartLine `gorm:"-" json:"cartProducts"`
}

func (Cart) TableName() string { return "carts" }

// Touchは更新日を今日の日付にする
func (c *Cart) Touch(now time.Time) {
	c.UpdatedAt = DateOf(now)
}

// 時刻を切り捨てて日付だけにする
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// カート内の商品IDを重複なしで返す（出現順）
func (c Cart) ProductIDs() []int64 {
	seen := make(map[int64]struct{}, len(c.Lines))
	ids := make([]int64, 0, len(c.Lines))
	for _, l := range c.Lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}
