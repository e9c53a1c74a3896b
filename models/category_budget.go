package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryBudget 分类的月度预算上限，(user_id, category_id, month, year) 唯一
type CategoryBudget struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	UserID     uint            `json:"userId" gorm:"not null;uniqueIndex:idx_category_budget_period"`
	CategoryID uint            `json:"categoryId" gorm:"not null;uniqueIndex:idx_category_budget_period"`
	Month      int             `json:"month" gorm:"not null;uniqueIndex:idx_category_budget_period"`
	Year       int             `json:"year" gorm:"not null;uniqueIndex:idx_category_budget_period"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Category   Category        `json:"category" gorm:"foreignKey:CategoryID"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (CategoryBudget) TableName() string {
	return "category_budgets"
}
