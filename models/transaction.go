package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// 交易类型
const (
	TransactionTypeIncome  = "INCOME"
	TransactionTypeExpense = "EXPENSE"
)

// Transaction 收支记录
// CategoryID / IncomeRuleID / RuleItemID 是相互独立的标签，可以同时存在
type Transaction struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	UserID       uint            `json:"userId" gorm:"index;not null"`
	Description  string          `json:"description" gorm:"size:255"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Type         string          `json:"type" gorm:"size:10;not null;index"`
	Date         time.Time       `json:"date" gorm:"not null;index"`
	CategoryID   *uint           `json:"categoryId" gorm:"index"`
	IncomeRuleID *uint           `json:"incomeRuleId" gorm:"index"`
	RuleItemID   *uint           `json:"ruleItemId" gorm:"index"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}
