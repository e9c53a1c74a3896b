package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IncomeRule 收入分配规则：当月 base_income 的 percentage% 分配给该规则
// base_income 属于 (user_id, month, year) 维度，同月所有规则保持一致
type IncomeRule struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	UserID     uint            `json:"userId" gorm:"not null;index:idx_income_rule_period"`
	Name       string          `json:"name" gorm:"size:100;not null"`
	Percentage decimal.Decimal `json:"percentage" gorm:"type:decimal(5,2);not null"`
	Color      string          `json:"color" gorm:"size:20"`
	Icon       string          `json:"icon" gorm:"size:50"`
	Month      int             `json:"month" gorm:"not null;index:idx_income_rule_period"`
	Year       int             `json:"year" gorm:"not null;index:idx_income_rule_period"`
	BaseIncome decimal.Decimal `json:"baseIncome" gorm:"type:decimal(12,2);not null;default:0"`
	Items      []RuleItem      `json:"items" gorm:"foreignKey:RuleID"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (IncomeRule) TableName() string {
	return "income_rules"
}

// RuleItem 规则内的固定金额子项（例如“水费 R$80”）
type RuleItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	RuleID    uint            `json:"ruleId" gorm:"not null;index"`
	Name      string          `json:"name" gorm:"size:100;not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (RuleItem) TableName() string {
	return "rule_items"
}

// DefaultIncomeRules 默认六项分配模板，合计 100%
func DefaultIncomeRules(userID uint, month, year int, baseIncome decimal.Decimal) []IncomeRule {
	defaults := []struct {
		Name       string
		Percentage int64
		Color      string
		Icon       string
	}{
		{"Metas", 10, "#3b82f6", "target"},
		{"Conforto", 15, "#a855f7", "sofa"},
		{"Prazeres", 10, "#ec4899", "party-popper"},
		{"Custo Fixo", 35, "#ef4444", "receipt"},
		{"Liberdade Financeira", 25, "#10b981", "piggy-bank"},
		{"Conhecimento", 5, "#f59e0b", "graduation-cap"},
	}
	rules := make([]IncomeRule, 0, len(defaults))
	for _, d := range defaults {
		rules = append(rules, IncomeRule{
			UserID:     userID,
			Name:       d.Name,
			Percentage: decimal.NewFromInt(d.Percentage),
			Color:      d.Color,
			Icon:       d.Icon,
			Month:      month,
			Year:       year,
			BaseIncome: baseIncome,
		})
	}
	return rules
}
