package exchange

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Number 交易所数值字段：可能是 JSON 数字、数字字符串或 null
// 字符串按十进制精确解析后再转 float64
type Number struct {
	Value decimal.Decimal
	Valid bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = BytesTrimSpace(b)
	s := string(b)
	if s == "" || s == "null" {
		*n = Number{}
		return nil
	}
	if s[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("number: %w", err)
		}
		s = strings.TrimSpace(unq)
		if s == "" {
			*n = Number{}
			return nil
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("number %q: %w", s, err)
	}
	*n = Number{Value: d, Valid: true}
	return nil
}

// Float returns the value as float64 (0 when absent).
func (n Number) Float() float64 {
	if !n.Valid {
		return 0
	}
	f, _ := n.Value.Float64()
	return f
}

// Ptr returns nil when the field was absent, for nullable canonical fields.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float()
	return &f
}

// Percent 比例 -> 百分比 (0.0123 -> 1.23)，nil 保持 nil
func (n Number) Percent() *float64 {
	if !n.Valid {
		return nil
	}
	f, _ := n.Value.Mul(decimal.NewFromInt(100)).Float64()
	return &f
}

// Int64 truncates the value to an integer.
func (n Number) Int64() int64 {
	if !n.Valid {
		return 0
	}
	return n.Value.IntPart()
}

// EpochMillis 统一时间戳为 UTC 毫秒：小于 1e12 视为秒
func EpochMillis(ts int64) int64 {
	if ts > 0 && ts < 1_000_000_000_000 {
		return ts * 1000
	}
	return ts
}

// zoneless layouts used by exchanges that send UTC wall-clock strings without a marker
var zonelessLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
}

// ParseUTCMillis 解析时间字符串为 UTC 毫秒
// 没有时区标记的字符串强制按 UTC 解释（而不是本地时区）
func ParseUTCMillis(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UnixMilli(), nil
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized time %q", s)
}
