package service

import (
	"errors"
	"fmt"

	"finplan/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// RuleItemView 子项及其当月支出
type RuleItemView struct {
	ID             uint            `json:"id"`
	RuleID         uint            `json:"ruleId"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	Spent          decimal.Decimal `json:"spent"`
	Remaining      decimal.Decimal `json:"remaining"`
	PercentageUsed decimal.Decimal `json:"percentageUsed"`
	IsOverBudget   bool            `json:"isOverBudget"`
}

// IncomeRuleView 规则及其预算、支出
type IncomeRuleView struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name"`
	Percentage     decimal.Decimal `json:"percentage"`
	Color          string          `json:"color"`
	Icon           string          `json:"icon"`
	Month          int             `json:"month"`
	Year           int             `json:"year"`
	BaseIncome     decimal.Decimal `json:"baseIncome"`
	BudgetAmount   decimal.Decimal `json:"budgetAmount"`
	Spent          decimal.Decimal `json:"spent"`
	Remaining      decimal.Decimal `json:"remaining"`
	PercentageUsed decimal.Decimal `json:"percentageUsed"`
	IsOverBudget   bool            `json:"isOverBudget"`
	Items          []RuleItemView  `json:"items"`
}

// IncomeRuleSummary GET /income-rules 的响应体
// Month/Year 为实际使用的月份，RequestedMonth/RequestedYear 为请求的月份
type IncomeRuleSummary struct {
	Rules           []IncomeRuleView `json:"rules"`
	BaseIncome      decimal.Decimal  `json:"baseIncome"`
	TotalPercentage decimal.Decimal  `json:"totalPercentage"`
	TotalBudget     decimal.Decimal  `json:"totalBudget"`
	TotalSpent      decimal.Decimal  `json:"totalSpent"`
	UsingFallback   bool             `json:"usingFallback"`
	Month           int              `json:"month"`
	Year            int              `json:"year"`
	RequestedMonth  int              `json:"requestedMonth"`
	RequestedYear   int              `json:"requestedYear"`
}

// RuleSpending 按规则与子项归集的支出
type RuleSpending struct {
	ByRule map[uint]decimal.Decimal
	ByItem map[uint]decimal.Decimal
}

// AttributeRuleSpending 归集支出
// 带 incomeRuleId 的交易计入该规则；带 ruleItemId 的交易计入子项，
// 且仅在没有 incomeRuleId 时上卷到子项所属规则，避免重复计算
func AttributeRuleSpending(rules []models.IncomeRule, txs []models.Transaction) RuleSpending {
	parent := make(map[uint]uint)
	for _, r := range rules {
		for _, it := range r.Items {
			parent[it.ID] = r.ID
		}
	}

	out := RuleSpending{
		ByRule: make(map[uint]decimal.Decimal),
		ByItem: make(map[uint]decimal.Decimal),
	}
	for _, tx := range txs {
		if tx.Type != models.TransactionTypeExpense {
			continue
		}
		if tx.IncomeRuleID != nil {
			out.ByRule[*tx.IncomeRuleID] = out.ByRule[*tx.IncomeRuleID].Add(tx.Amount)
		}
		if tx.RuleItemID != nil {
			out.ByItem[*tx.RuleItemID] = out.ByItem[*tx.RuleItemID].Add(tx.Amount)
			if tx.IncomeRuleID == nil {
				if ruleID, ok := parent[*tx.RuleItemID]; ok {
					out.ByRule[ruleID] = out.ByRule[ruleID].Add(tx.Amount)
				}
			}
		}
	}
	return out
}

// BuildIncomeRuleSummary 计算每条规则与子项的预算、剩余与使用率
func BuildIncomeRuleSummary(rules []models.IncomeRule, spending RuleSpending) *IncomeRuleSummary {
	summary := &IncomeRuleSummary{
		Rules:           make([]IncomeRuleView, 0, len(rules)),
		BaseIncome:      decimal.Zero,
		TotalPercentage: decimal.Zero,
		TotalBudget:     decimal.Zero,
		TotalSpent:      decimal.Zero,
	}
	if len(rules) > 0 {
		summary.BaseIncome = rules[0].BaseIncome
	}

	for _, r := range rules {
		budget := models.ShareOf(r.BaseIncome, r.Percentage)
		spent := spending.ByRule[r.ID].Round(2)
		view := IncomeRuleView{
			ID:             r.ID,
			Name:           r.Name,
			Percentage:     r.Percentage,
			Color:          r.Color,
			Icon:           r.Icon,
			Month:          r.Month,
			Year:           r.Year,
			BaseIncome:     r.BaseIncome,
			BudgetAmount:   budget,
			Spent:          spent,
			Remaining:      budget.Sub(spent),
			PercentageUsed: models.PercentOf(spent, budget),
			IsOverBudget:   spent.GreaterThan(budget),
			Items:          make([]RuleItemView, 0, len(r.Items)),
		}
		for _, it := range r.Items {
			itemSpent := spending.ByItem[it.ID].Round(2)
			view.Items = append(view.Items, RuleItemView{
				ID:             it.ID,
				RuleID:         it.RuleID,
				Name:           it.Name,
				Amount:         it.Amount,
				Spent:          itemSpent,
				Remaining:      it.Amount.Sub(itemSpent),
				PercentageUsed: models.PercentOf(itemSpent, it.Amount),
				IsOverBudget:   itemSpent.GreaterThan(it.Amount),
			})
		}
		summary.Rules = append(summary.Rules, view)
		summary.TotalPercentage = summary.TotalPercentage.Add(r.Percentage)
		summary.TotalBudget = summary.TotalBudget.Add(budget)
		summary.TotalSpent = summary.TotalSpent.Add(spent)
	}
	return summary
}

// IncomeRuleService 收入分配规则
type IncomeRuleService struct {
	db *gorm.DB
}

// NewIncomeRuleService 创建收入分配规则服务
func NewIncomeRuleService(db *gorm.DB) *IncomeRuleService {
	return &IncomeRuleService{db: db}
}

func rulesFor(db *gorm.DB, userID uint, month, year int) ([]models.IncomeRule, error) {
	var rules []models.IncomeRule
	err := db.Preload("Items", func(q *gorm.DB) *gorm.DB {
		return q.Order("rule_items.id ASC")
	}).
		Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		Order("id ASC").
		Find(&rules).Error
	return rules, err
}

// Summary 返回当月规则汇总；当月没有规则时回退到最近的更早月份
func (s *IncomeRuleService) Summary(userID uint, month, year int) (*IncomeRuleSummary, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if !models.ValidPeriod(month, year) {
		return nil, FieldError("month", "Mês ou ano inválido")
	}

	resolvedMonth, resolvedYear := month, year
	usingFallback := false

	rules, err := rulesFor(s.db, userID, month, year)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		var latest models.IncomeRule
		err := s.db.Select("month", "year").
			Where("user_id = ? AND (year < ? OR (year = ? AND month < ?))", userID, year, year, month).
			Order("year DESC, month DESC").
			Take(&latest).Error
		switch {
		case err == nil:
			rules, err = rulesFor(s.db, userID, latest.Month, latest.Year)
			if err != nil {
				return nil, err
			}
			resolvedMonth, resolvedYear = latest.Month, latest.Year
			usingFallback = len(rules) > 0
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}

	txs, err := s.ruleTransactions(userID, resolvedMonth, resolvedYear, rules)
	if err != nil {
		return nil, err
	}

	summary := BuildIncomeRuleSummary(rules, AttributeRuleSpending(rules, txs))
	summary.UsingFallback = usingFallback
	summary.Month = resolvedMonth
	summary.Year = resolvedYear
	summary.RequestedMonth = month
	summary.RequestedYear = year
	return summary, nil
}

// ruleTransactions 当月与这些规则或子项关联的支出
func (s *IncomeRuleService) ruleTransactions(userID uint, month, year int, rules []models.IncomeRule) ([]models.Transaction, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	ruleIDs := make([]uint, 0, len(rules))
	var itemIDs []uint
	for _, r := range rules {
		ruleIDs = append(ruleIDs, r.ID)
		for _, it := range r.Items {
			itemIDs = append(itemIDs, it.ID)
		}
	}

	start, end := models.MonthRange(month, year)
	q := s.db.Where("user_id = ? AND type = ? AND date >= ? AND date <= ?",
		userID, models.TransactionTypeExpense, start, end)
	if len(itemIDs) > 0 {
		q = q.Where("(income_rule_id IN ? OR rule_item_id IN ?)", ruleIDs, itemIDs)
	} else {
		q = q.Where("income_rule_id IN ?", ruleIDs)
	}

	var txs []models.Transaction
	if err := q.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// SetMonthBaseIncome 设置 (user, month, year) 下所有规则的 base_income
// 这是修改 base_income 的唯一入口
func SetMonthBaseIncome(tx *gorm.DB, userID uint, month, year int, amount decimal.Decimal) error {
	return tx.Model(&models.IncomeRule{}).
		Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		Update("base_income", amount.Round(2)).Error
}

// monthBaseIncome 当月已有规则的 base_income，没有规则时为 0
func monthBaseIncome(tx *gorm.DB, userID uint, month, year int) (decimal.Decimal, error) {
	var rule models.IncomeRule
	err := tx.Select("base_income").
		Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		Order("id ASC").
		Take(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return rule.BaseIncome, nil
}

func validatePercentage(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return FieldError("percentage", "A porcentagem deve estar entre 0 e 100")
	}
	return nil
}

// checkHeadroom 同月其它规则（排除 excludeID）加上 p 不得超过 100
func checkHeadroom(tx *gorm.DB, userID uint, month, year int, excludeID uint, p decimal.Decimal) error {
	var others []models.IncomeRule
	err := tx.Select("id", "percentage").
		Where("user_id = ? AND month = ? AND year = ? AND id <> ?", userID, month, year, excludeID).
		Find(&others).Error
	if err != nil {
		return err
	}
	current := decimal.Zero
	for _, r := range others {
		current = current.Add(r.Percentage)
	}
	if current.Add(p).GreaterThan(hundred) {
		return FieldError("percentage", fmt.Sprintf(
			"A soma das porcentagens não pode exceder 100%%. Disponível: %s%%", hundred.Sub(current).StringFixed(2)))
	}
	return nil
}

func validateBaseIncome(b *decimal.Decimal) error {
	if b != nil && b.IsNegative() {
		return FieldError("baseIncome", "A renda base não pode ser negativa")
	}
	return nil
}

// RuleInput 新建规则
// BaseIncome 为空时沿用当月已有的 base_income
type RuleInput struct {
	Name       string
	Percentage decimal.Decimal
	Color      string
	Icon       string
	Month      int
	Year       int
	BaseIncome *decimal.Decimal
}

// Create 新建规则，同月百分比合计不超过 100
func (s *IncomeRuleService) Create(userID uint, in RuleInput) (*models.IncomeRule, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	name, err := trimmedName(in.Name)
	if err != nil {
		return nil, err
	}
	if !models.ValidPeriod(in.Month, in.Year) {
		return nil, FieldError("month", "Mês ou ano inválido")
	}
	if err := validatePercentage(in.Percentage); err != nil {
		return nil, err
	}
	if err := validateBaseIncome(in.BaseIncome); err != nil {
		return nil, err
	}

	unlock := periodLocks.Lock(periodKey(userID, in.Month, in.Year))
	defer unlock()

	var rule models.IncomeRule
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkHeadroom(tx, userID, in.Month, in.Year, 0, in.Percentage); err != nil {
			return err
		}

		base, err := monthBaseIncome(tx, userID, in.Month, in.Year)
		if err != nil {
			return err
		}
		if in.BaseIncome != nil {
			base = in.BaseIncome.Round(2)
		}

		rule = models.IncomeRule{
			UserID:     userID,
			Name:       name,
			Percentage: in.Percentage.Round(2),
			Color:      in.Color,
			Icon:       in.Icon,
			Month:      in.Month,
			Year:       in.Year,
			BaseIncome: base,
		}
		if err := tx.Create(&rule).Error; err != nil {
			return err
		}
		if in.BaseIncome != nil {
			return SetMonthBaseIncome(tx, userID, in.Month, in.Year, base)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	rule.Items = []models.RuleItem{}
	return &rule, nil
}

// RuleUpdate 规则的部分更新，nil 表示不修改
type RuleUpdate struct {
	Name       *string
	Percentage *decimal.Decimal
	Color      *string
	Icon       *string
	BaseIncome *decimal.Decimal
}

func (s *IncomeRuleService) ownedRule(db *gorm.DB, userID, ruleID uint) (*models.IncomeRule, error) {
	var rule models.IncomeRule
	if err := db.Where("id = ? AND user_id = ?", ruleID, userID).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Regra não encontrada")
		}
		return nil, err
	}
	return &rule, nil
}

// Update 更新规则；修改 baseIncome 会同步到同月所有规则
func (s *IncomeRuleService) Update(userID, ruleID uint, upd RuleUpdate) (*models.IncomeRule, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	updates := map[string]interface{}{}
	if upd.Name != nil {
		name, err := trimmedName(*upd.Name)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if upd.Percentage != nil {
		if err := validatePercentage(*upd.Percentage); err != nil {
			return nil, err
		}
		updates["percentage"] = upd.Percentage.Round(2)
	}
	if upd.Color != nil {
		updates["color"] = *upd.Color
	}
	if upd.Icon != nil {
		updates["icon"] = *upd.Icon
	}
	if err := validateBaseIncome(upd.BaseIncome); err != nil {
		return nil, err
	}

	rule, err := s.ownedRule(s.db, userID, ruleID)
	if err != nil {
		return nil, err
	}

	unlock := periodLocks.Lock(periodKey(userID, rule.Month, rule.Year))
	defer unlock()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if upd.Percentage != nil {
			if err := checkHeadroom(tx, userID, rule.Month, rule.Year, rule.ID, *upd.Percentage); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(rule).Updates(updates).Error; err != nil {
				return err
			}
		}
		if upd.BaseIncome != nil {
			return SetMonthBaseIncome(tx, userID, rule.Month, rule.Year, *upd.BaseIncome)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var updated models.IncomeRule
	err = s.db.Preload("Items", func(q *gorm.DB) *gorm.DB {
		return q.Order("rule_items.id ASC")
	}).First(&updated, rule.ID).Error
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// deleteRulesCascadingItems 删除规则及其子项，并清空交易上的引用
func deleteRulesCascadingItems(tx *gorm.DB, userID uint, ruleIDs []uint) error {
	if len(ruleIDs) == 0 {
		return nil
	}
	var itemIDs []uint
	if err := tx.Model(&models.RuleItem{}).Where("rule_id IN ?", ruleIDs).Pluck("id", &itemIDs).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Transaction{}).
		Where("user_id = ? AND income_rule_id IN ?", userID, ruleIDs).
		Update("income_rule_id", nil).Error; err != nil {
		return err
	}
	if len(itemIDs) > 0 {
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND rule_item_id IN ?", userID, itemIDs).
			Update("rule_item_id", nil).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("rule_id IN ?", ruleIDs).Delete(&models.RuleItem{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ? AND user_id = ?", ruleIDs, userID).Delete(&models.IncomeRule{}).Error
}

// Delete 删除规则及其子项
func (s *IncomeRuleService) Delete(userID, ruleID uint) error {
	if userID == 0 {
		return ErrUnauthorized
	}
	rule, err := s.ownedRule(s.db, userID, ruleID)
	if err != nil {
		return err
	}

	unlock := periodLocks.Lock(periodKey(userID, rule.Month, rule.Year))
	defer unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		return deleteRulesCascadingItems(tx, userID, []uint{rule.ID})
	})
}

// ItemInput 新建子项
type ItemInput struct {
	Name   string
	Amount decimal.Decimal
}

// ItemUpdate 子项的部分更新
type ItemUpdate struct {
	Name   *string
	Amount *decimal.Decimal
}

func validateItemAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return FieldError("amount", "O valor deve ser maior que zero")
	}
	return nil
}

// CreateItem 在规则下新建子项
func (s *IncomeRuleService) CreateItem(userID, ruleID uint, in ItemInput) (*models.RuleItem, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	name, err := trimmedName(in.Name)
	if err != nil {
		return nil, err
	}
	if err := validateItemAmount(in.Amount); err != nil {
		return nil, err
	}
	rule, err := s.ownedRule(s.db, userID, ruleID)
	if err != nil {
		return nil, err
	}

	item := models.RuleItem{RuleID: rule.ID, Name: name, Amount: in.Amount.Round(2)}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *IncomeRuleService) ownedItem(userID, ruleID, itemID uint) (*models.RuleItem, error) {
	if _, err := s.ownedRule(s.db, userID, ruleID); err != nil {
		return nil, err
	}
	var item models.RuleItem
	if err := s.db.Where("id = ? AND rule_id = ?", itemID, ruleID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Item não encontrado")
		}
		return nil, err
	}
	return &item, nil
}

// UpdateItem 更新子项
func (s *IncomeRuleService) UpdateItem(userID, ruleID, itemID uint, upd ItemUpdate) (*models.RuleItem, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	updates := map[string]interface{}{}
	if upd.Name != nil {
		name, err := trimmedName(*upd.Name)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if upd.Amount != nil {
		if err := validateItemAmount(*upd.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = upd.Amount.Round(2)
	}

	item, err := s.ownedItem(userID, ruleID, itemID)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.Model(item).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	if err := s.db.First(item, item.ID).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem 删除子项并清空交易上的 ruleItemId
func (s *IncomeRuleService) DeleteItem(userID, ruleID, itemID uint) error {
	if userID == 0 {
		return ErrUnauthorized
	}
	item, err := s.ownedItem(userID, ruleID, itemID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND rule_item_id = ?", userID, item.ID).
			Update("rule_item_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(item).Error
	})
}

// CopyInput 从源月份复制规则到目标月份
type CopyInput struct {
	FromMonth  int
	FromYear   int
	ToMonth    int
	ToYear     int
	BaseIncome *decimal.Decimal
}

// CopyFromMonth 复制规则与子项；目标月份已有规则时拒绝，不做任何修改
func (s *IncomeRuleService) CopyFromMonth(userID uint, in CopyInput) ([]models.IncomeRule, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if !models.ValidPeriod(in.FromMonth, in.FromYear) {
		return nil, FieldError("fromMonth", "Mês ou ano de origem inválido")
	}
	if !models.ValidPeriod(in.ToMonth, in.ToYear) {
		return nil, FieldError("toMonth", "Mês ou ano de destino inválido")
	}
	if in.FromMonth == in.ToMonth && in.FromYear == in.ToYear {
		return nil, NewValidationError("Os meses de origem e destino devem ser diferentes")
	}
	if err := validateBaseIncome(in.BaseIncome); err != nil {
		return nil, err
	}

	unlock := periodLocks.Lock(periodKey(userID, in.ToMonth, in.ToYear))
	defer unlock()

	var copied []models.IncomeRule
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.IncomeRule{}).
			Where("user_id = ? AND month = ? AND year = ?", userID, in.ToMonth, in.ToYear).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return NewValidationError("O mês de destino já possui regras. Remova-as antes de copiar.")
		}

		source, err := rulesFor(tx, userID, in.FromMonth, in.FromYear)
		if err != nil {
			return err
		}
		if len(source) == 0 {
			return NewNotFoundError("Nenhuma regra encontrada no mês de origem")
		}

		for _, src := range source {
			base := src.BaseIncome
			if in.BaseIncome != nil {
				base = in.BaseIncome.Round(2)
			}
			rule := models.IncomeRule{
				UserID:     userID,
				Name:       src.Name,
				Percentage: src.Percentage,
				Color:      src.Color,
				Icon:       src.Icon,
				Month:      in.ToMonth,
				Year:       in.ToYear,
				BaseIncome: base,
			}
			if err := tx.Create(&rule).Error; err != nil {
				return err
			}
			if len(src.Items) == 0 {
				continue
			}
			items := make([]models.RuleItem, 0, len(src.Items))
			for _, it := range src.Items {
				items = append(items, models.RuleItem{RuleID: rule.ID, Name: it.Name, Amount: it.Amount})
			}
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}

		copied, err = rulesFor(tx, userID, in.ToMonth, in.ToYear)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("user_id", userID).
		Str("from", periodKey(userID, in.FromMonth, in.FromYear)).
		Str("to", periodKey(userID, in.ToMonth, in.ToYear)).
		Int("rules", len(copied)).
		Msg("income rules copied")
	return copied, nil
}

// ResetToDefaults 删除当月规则并写入默认六项模板
// baseIncome 为空时沿用当月原有的 base_income
func (s *IncomeRuleService) ResetToDefaults(userID uint, month, year int, baseIncome *decimal.Decimal) ([]models.IncomeRule, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if !models.ValidPeriod(month, year) {
		return nil, FieldError("month", "Mês ou ano inválido")
	}
	if err := validateBaseIncome(baseIncome); err != nil {
		return nil, err
	}

	unlock := periodLocks.Lock(periodKey(userID, month, year))
	defer unlock()

	var rules []models.IncomeRule
	err := s.db.Transaction(func(tx *gorm.DB) error {
		base, err := monthBaseIncome(tx, userID, month, year)
		if err != nil {
			return err
		}
		if baseIncome != nil {
			base = baseIncome.Round(2)
		}

		var ids []uint
		if err := tx.Model(&models.IncomeRule{}).
			Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if err := deleteRulesCascadingItems(tx, userID, ids); err != nil {
			return err
		}

		defaults := models.DefaultIncomeRules(userID, month, year, base)
		if err := tx.Create(&defaults).Error; err != nil {
			return err
		}
		rules, err = rulesFor(tx, userID, month, year)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}
