package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// 合法的年份范围
const (
	MinYear = 2020
	MaxYear = 2100
)

var hundred = decimal.NewFromInt(100)

func init() {
	// 金额在 JSON 中以数字输出，而不是字符串
	decimal.MarshalJSONWithoutQuotes = true
}

// ValidPeriod 校验月份 [1,12] 与年份 [2020,2100]
func ValidPeriod(month, year int) bool {
	return month >= 1 && month <= 12 && year >= MinYear && year <= MaxYear
}

// MonthRange 返回该月的 [第一天 00:00:00, 最后一天 23:59:59]
func MonthRange(month, year int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}

// CurrentPeriod 当前月份与年份
func CurrentPeriod() (int, int) {
	now := time.Now()
	return int(now.Month()), now.Year()
}

// PercentOf 返回 part/whole*100，保留两位小数；whole <= 0 时为 0
func PercentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

// ShareOf 返回 base 的 percentage%，保留两位小数
func ShareOf(base, percentage decimal.Decimal) decimal.Decimal {
	return base.Mul(percentage).Div(hundred).Round(2)
}
