package market

import "time"

// ViewState 对比视图的最后一次选择（两个交易所共用 symbol / interval）
type ViewState struct {
	Name      string
	Left      Exchange
	Right     Exchange
	Symbol    string
	Interval  string
	UpdatedAt time.Time
}
