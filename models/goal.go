package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal 储蓄目标
type Goal struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	UserID        uint            `json:"userId" gorm:"index;not null"`
	Name          string          `json:"name" gorm:"size:100;not null"`
	TargetAmount  decimal.Decimal `json:"targetAmount" gorm:"type:decimal(12,2);not null"`
	CurrentAmount decimal.Decimal `json:"currentAmount" gorm:"type:decimal(12,2);not null;default:0"`
	Deadline      *time.Time      `json:"deadline"`
	Color         string          `json:"color" gorm:"size:20"`
	Icon          string          `json:"icon" gorm:"size:50"`
	IsCompleted   bool            `json:"isCompleted" gorm:"default:false"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (Goal) TableName() string {
	return "goals"
}

// Reached 当前金额是否达到目标
func (g *Goal) Reached() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// GoalDeposit 目标存入记录，与 Goal.CurrentAmount 在同一事务内维护
type GoalDeposit struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	GoalID    uint            `json:"goalId" gorm:"index;not null"`
	UserID    uint            `json:"userId" gorm:"index;not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Note      string          `json:"note" gorm:"size:255"`
	Date      time.Time       `json:"date" gorm:"not null"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (GoalDeposit) TableName() string {
	return "goal_deposits"
}
