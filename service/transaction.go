package service

import (
	"errors"

	"finplan/models"

	"gorm.io/gorm"
)

// TransactionRefs 交易上可选的分类、规则、子项引用
type TransactionRefs struct {
	CategoryID   *uint
	IncomeRuleID *uint
	RuleItemID   *uint
}

// ValidateTransactionRefs 校验引用均属于当前用户
func ValidateTransactionRefs(db *gorm.DB, userID uint, refs TransactionRefs) error {
	if refs.CategoryID != nil {
		if err := exists(db.Model(&models.Category{}).Where("id = ? AND user_id = ?", *refs.CategoryID, userID)); err != nil {
			return asFieldNotFound(err, "categoryId", "Categoria não encontrada")
		}
	}
	if refs.IncomeRuleID != nil {
		if err := exists(db.Model(&models.IncomeRule{}).Where("id = ? AND user_id = ?", *refs.IncomeRuleID, userID)); err != nil {
			return asFieldNotFound(err, "incomeRuleId", "Regra não encontrada")
		}
	}
	if refs.RuleItemID != nil {
		q := db.Model(&models.RuleItem{}).
			Joins("JOIN income_rules ON income_rules.id = rule_items.rule_id").
			Where("rule_items.id = ? AND income_rules.user_id = ?", *refs.RuleItemID, userID)
		if err := exists(q); err != nil {
			return asFieldNotFound(err, "ruleItemId", "Item não encontrado")
		}
	}
	return nil
}

func exists(q *gorm.DB) error {
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func asFieldNotFound(err error, field, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return FieldError(field, message)
	}
	return err
}
