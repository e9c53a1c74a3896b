package service

import (
	"errors"
	"strings"

	"finplan/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CategoryBudgetView 带分类展示信息与已支出金额的预算
type CategoryBudgetView struct {
	ID            uint            `json:"id"`
	CategoryID    uint            `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	CategoryIcon  string          `json:"categoryIcon"`
	CategoryColor string          `json:"categoryColor"`
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	Budget        decimal.Decimal `json:"budget"`
	Spent         decimal.Decimal `json:"spent"`
	Remaining     decimal.Decimal `json:"remaining"`
	Percentage    decimal.Decimal `json:"percentage"`
}

// BudgetTotals 当月预算汇总
type BudgetTotals struct {
	TotalBudget decimal.Decimal `json:"totalBudget"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	Percentage  decimal.Decimal `json:"percentage"`
	Savings     decimal.Decimal `json:"savings"`
}

// CategoryBudgetSummary GET /category-budgets 的响应体
type CategoryBudgetSummary struct {
	Month   int                  `json:"month"`
	Year    int                  `json:"year"`
	Budgets []CategoryBudgetView `json:"budgets"`
	Totals  BudgetTotals         `json:"totals"`
}

// BuildCategoryBudgetSummary 将预算与按分类汇总的支出合并
// 没有支出的分类 spent 为 0；不在 budgets 中的分类支出不计入汇总
func BuildCategoryBudgetSummary(month, year int, budgets []models.CategoryBudget, spent map[uint]decimal.Decimal) *CategoryBudgetSummary {
	summary := &CategoryBudgetSummary{
		Month:   month,
		Year:    year,
		Budgets: make([]CategoryBudgetView, 0, len(budgets)),
	}

	totalBudget := decimal.Zero
	totalSpent := decimal.Zero
	for _, b := range budgets {
		s := spent[b.CategoryID].Round(2)
		summary.Budgets = append(summary.Budgets, CategoryBudgetView{
			ID:            b.ID,
			CategoryID:    b.CategoryID,
			CategoryName:  b.Category.Name,
			CategoryIcon:  b.Category.Icon,
			CategoryColor: b.Category.Color,
			Month:         b.Month,
			Year:          b.Year,
			Budget:        b.Amount,
			Spent:         s,
			Remaining:     b.Amount.Sub(s),
			Percentage:    models.PercentOf(s, b.Amount),
		})
		totalBudget = totalBudget.Add(b.Amount)
		totalSpent = totalSpent.Add(s)
	}

	summary.Totals = BudgetTotals{
		TotalBudget: totalBudget,
		TotalSpent:  totalSpent,
		Percentage:  models.PercentOf(totalSpent, totalBudget),
		Savings:     totalBudget.Sub(totalSpent),
	}
	return summary
}

// BudgetService 分类预算
type BudgetService struct {
	db *gorm.DB
}

// NewBudgetService 创建分类预算服务
func NewBudgetService(db *gorm.DB) *BudgetService {
	return &BudgetService{db: db}
}

type categorySpentRow struct {
	CategoryID uint
	Total      decimal.Decimal
}

// SpentByCategory 统计当月每个分类的支出合计，忽略未分类的交易
func SpentByCategory(db *gorm.DB, userID uint, month, year int) (map[uint]decimal.Decimal, error) {
	start, end := models.MonthRange(month, year)
	var rows []categorySpentRow
	err := db.Model(&models.Transaction{}).
		Select("category_id, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND type = ? AND category_id IS NOT NULL AND date >= ? AND date <= ?",
			userID, models.TransactionTypeExpense, start, end).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	spent := make(map[uint]decimal.Decimal, len(rows))
	for _, r := range rows {
		spent[r.CategoryID] = r.Total.Round(2)
	}
	return spent, nil
}

// Summary 当月预算与支出对比，只读
func (s *BudgetService) Summary(userID uint, month, year int) (*CategoryBudgetSummary, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if !models.ValidPeriod(month, year) {
		return nil, FieldError("month", "Mês ou ano inválido")
	}

	var budgets []models.CategoryBudget
	err := s.db.Preload("Category").
		Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		Order("id ASC").
		Find(&budgets).Error
	if err != nil {
		return nil, err
	}

	spent, err := SpentByCategory(s.db, userID, month, year)
	if err != nil {
		return nil, err
	}
	return BuildCategoryBudgetSummary(month, year, budgets, spent), nil
}

// BudgetInput 新增或覆盖分类预算
type BudgetInput struct {
	CategoryID uint
	Month      int
	Year       int
	Amount     decimal.Decimal
}

// Upsert 按 (category, month, year) 新增或更新预算金额
func (s *BudgetService) Upsert(userID uint, in BudgetInput) (*models.CategoryBudget, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if !models.ValidPeriod(in.Month, in.Year) {
		return nil, FieldError("month", "Mês ou ano inválido")
	}
	if in.Amount.IsNegative() {
		return nil, FieldError("amount", "O valor do orçamento não pode ser negativo")
	}

	var budget models.CategoryBudget
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Where("id = ? AND user_id = ?", in.CategoryID, userID).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("Categoria não encontrada")
			}
			return err
		}

		err := tx.Where("user_id = ? AND category_id = ? AND month = ? AND year = ?",
			userID, in.CategoryID, in.Month, in.Year).First(&budget).Error
		switch {
		case err == nil:
			if err := tx.Model(&budget).Update("amount", in.Amount.Round(2)).Error; err != nil {
				return err
			}
			budget.Amount = in.Amount.Round(2)
		case errors.Is(err, gorm.ErrRecordNotFound):
			budget = models.CategoryBudget{
				UserID:     userID,
				CategoryID: in.CategoryID,
				Month:      in.Month,
				Year:       in.Year,
				Amount:     in.Amount.Round(2),
			}
			if err := tx.Create(&budget).Error; err != nil {
				return err
			}
		default:
			return err
		}
		budget.Category = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// Delete 删除指定月份的分类预算
func (s *BudgetService) Delete(userID, categoryID uint, month, year int) error {
	if userID == 0 {
		return ErrUnauthorized
	}
	if !models.ValidPeriod(month, year) {
		return FieldError("month", "Mês ou ano inválido")
	}
	res := s.db.Where("user_id = ? AND category_id = ? AND month = ? AND year = ?", userID, categoryID, month, year).
		Delete(&models.CategoryBudget{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return NewNotFoundError("Orçamento não encontrado")
	}
	return nil
}

func trimmedName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", FieldError("name", "O nome é obrigatório")
	}
	return name, nil
}
