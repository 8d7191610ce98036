package service

// カタログに無い商品を在庫チェックでどう扱うか
type MissingProductPolicy int

const (
	MissingProductFail MissingProductPolicy = iota
	MissingProductSkip
)

// 在庫不足が複数あるとき
type ViolationPolicy int

const (
	StopAtFirstViolation ViolationPolicy = iota
	CollectViolations
)

// スナップショット更新時にカタログに無い商品をどう扱うか
type RefreshPolicy int

const (
	RefreshSkipMissing RefreshPolicy = iota
	RefreshFailMissing
)
