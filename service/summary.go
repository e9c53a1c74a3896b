package service

import (
	"finplan/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CategoryTotal 当月某分类的支出
type CategoryTotal struct {
	CategoryID *uint           `json:"categoryId"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Total      decimal.Decimal `json:"total"`
	Count      int64           `json:"count"`
	Percentage decimal.Decimal `json:"percentage"`
}

// MonthSummary 当月收支概览
type MonthSummary struct {
	Month             int             `json:"month"`
	Year              int             `json:"year"`
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	TotalExpense      decimal.Decimal `json:"totalExpense"`
	Balance           decimal.Decimal `json:"balance"`
	TransactionCount  int64           `json:"transactionCount"`
	ExpenseByCategory []CategoryTotal `json:"expenseByCategory"`
}

type typeTotalRow struct {
	Type  string
	Total decimal.Decimal
	Count int64
}

type categoryTotalRow struct {
	CategoryID *uint
	Name       *string
	Color      *string
	Total      decimal.Decimal
	Count      int64
}

// uncategorized 未分类支出的显示名
const uncategorized = "Sem categoria"

// MonthlySummary 统计当月收入、支出与按分类的支出
func MonthlySummary(db *gorm.DB, userID uint, month, year int) (*MonthSummary, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if !models.ValidPeriod(month, year) {
		return nil, FieldError("month", "Mês ou ano inválido")
	}
	start, end := models.MonthRange(month, year)

	var typeRows []typeTotalRow
	err := db.Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Group("type").
		Scan(&typeRows).Error
	if err != nil {
		return nil, err
	}

	summary := &MonthSummary{
		Month:             month,
		Year:              year,
		TotalIncome:       decimal.Zero,
		TotalExpense:      decimal.Zero,
		ExpenseByCategory: []CategoryTotal{},
	}
	for _, r := range typeRows {
		switch r.Type {
		case models.TransactionTypeIncome:
			summary.TotalIncome = r.Total.Round(2)
		case models.TransactionTypeExpense:
			summary.TotalExpense = r.Total.Round(2)
		}
		summary.TransactionCount += r.Count
	}
	summary.Balance = summary.TotalIncome.Sub(summary.TotalExpense)

	var catRows []categoryTotalRow
	err = db.Model(&models.Transaction{}).
		Select("transactions.category_id AS category_id, categories.name AS name, categories.color AS color, COALESCE(SUM(transactions.amount), 0) AS total, COUNT(*) AS count").
		Joins("LEFT JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ? AND transactions.type = ? AND transactions.date >= ? AND transactions.date <= ?",
			userID, models.TransactionTypeExpense, start, end).
		Group("transactions.category_id, categories.name, categories.color").
		Order("total DESC").
		Scan(&catRows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range catRows {
		ct := CategoryTotal{
			CategoryID: r.CategoryID,
			Name:       uncategorized,
			Color:      models.DefaultCategoryColor,
			Total:      r.Total.Round(2),
			Count:      r.Count,
		}
		if r.Name != nil {
			ct.Name = *r.Name
		}
		if r.Color != nil && *r.Color != "" {
			ct.Color = *r.Color
		}
		ct.Percentage = models.PercentOf(ct.Total, summary.TotalExpense)
		summary.ExpenseByCategory = append(summary.ExpenseByCategory, ct)
	}
	return summary, nil
}
