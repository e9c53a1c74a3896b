package service

import (
	"sync"
	"testing"

	"finplan/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

func TestAttributeRuleSpending(t *testing.T) {
	rules := []models.IncomeRule{
		{ID: 1, Items: []models.RuleItem{{ID: 11, RuleID: 1}, {ID: 12, RuleID: 1}}},
		{ID: 2},
	}
	txs := []models.Transaction{
		// 同时带规则与子项：规则只计一次
		{Type: models.TransactionTypeExpense, Amount: dec("100"), IncomeRuleID: uintPtr(1), RuleItemID: uintPtr(11)},
		// 只带子项：上卷到所属规则
		{Type: models.TransactionTypeExpense, Amount: dec("40"), RuleItemID: uintPtr(12)},
		// 子项属于规则 1，但显式指定规则 2
		{Type: models.TransactionTypeExpense, Amount: dec("25"), IncomeRuleID: uintPtr(2), RuleItemID: uintPtr(11)},
		// 收入不计入
		{Type: models.TransactionTypeIncome, Amount: dec("999"), IncomeRuleID: uintPtr(1)},
	}

	out := AttributeRuleSpending(rules, txs)

	assert.Equal(t, "140.00", out.ByRule[1].StringFixed(2))
	assert.Equal(t, "25.00", out.ByRule[2].StringFixed(2))
	assert.Equal(t, "125.00", out.ByItem[11].StringFixed(2))
	assert.Equal(t, "40.00", out.ByItem[12].StringFixed(2))
}

func TestBuildIncomeRuleSummary(t *testing.T) {
	rules := []models.IncomeRule{
		{ID: 1, Name: "Custo Fixo", Percentage: dec("35"), BaseIncome: dec("5000"),
			Items: []models.RuleItem{{ID: 11, RuleID: 1, Name: "Aluguel", Amount: dec("1200")}}},
		{ID: 2, Name: "Prazeres", Percentage: dec("0"), BaseIncome: dec("5000")},
	}
	spending := RuleSpending{
		ByRule: map[uint]decimal.Decimal{1: dec("1800"), 2: dec("10")},
		ByItem: map[uint]decimal.Decimal{11: dec("1200")},
	}

	s := BuildIncomeRuleSummary(rules, spending)
	require.Len(t, s.Rules, 2)

	fixed := s.Rules[0]
	assert.Equal(t, "1750.00", fixed.BudgetAmount.StringFixed(2))
	assert.Equal(t, "-50.00", fixed.Remaining.StringFixed(2))
	assert.Equal(t, "102.86", fixed.PercentageUsed.StringFixed(2))
	assert.True(t, fixed.IsOverBudget)
	require.Len(t, fixed.Items, 1)
	assert.Equal(t, "0.00", fixed.Items[0].Remaining.StringFixed(2))
	assert.Equal(t, "100.00", fixed.Items[0].PercentageUsed.StringFixed(2))
	assert.False(t, fixed.Items[0].IsOverBudget)

	zero := s.Rules[1]
	assert.Equal(t, "0.00", zero.BudgetAmount.StringFixed(2))
	assert.Equal(t, "0.00", zero.PercentageUsed.StringFixed(2))
	assert.True(t, zero.IsOverBudget)
	assert.NotNil(t, zero.Items)

	assert.Equal(t, "35.00", s.TotalPercentage.StringFixed(2))
	assert.Equal(t, "5000.00", s.BaseIncome.StringFixed(2))
	assert.Equal(t, "1810.00", s.TotalSpent.StringFixed(2))
}

type IncomeRuleServiceSuite struct {
	suite.Suite
	db   *gorm.DB
	svc  *IncomeRuleService
	user models.User
}

func (s *IncomeRuleServiceSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.svc = NewIncomeRuleService(s.db)
	s.user = mustUser(s.T(), s.db, "ana@example.com")
}

func (s *IncomeRuleServiceSuite) ruleCount(month, year int) int64 {
	var n int64
	s.db.Model(&models.IncomeRule{}).Where("user_id = ? AND month = ? AND year = ?", s.user.ID, month, year).Count(&n)
	return n
}

func (s *IncomeRuleServiceSuite) TestSummary_ExactMonth() {
	r := mustRule(s.T(), s.db, s.user.ID, "Custo Fixo", "35", "5000", 3, 2024)
	mustTx(s.T(), s.db, models.Transaction{UserID: s.user.ID, Amount: dec("500"), Date: day(2024, 3, 5), IncomeRuleID: uintPtr(r.ID)})

	sum, err := s.svc.Summary(s.user.ID, 3, 2024)
	s.Require().NoError(err)
	s.False(sum.UsingFallback)
	s.Equal(3, sum.Month)
	s.Equal(3, sum.RequestedMonth)
	s.Require().Len(sum.Rules, 1)
	s.Equal("1750.00", sum.Rules[0].BudgetAmount.StringFixed(2))
	s.Equal("500.00", sum.Rules[0].Spent.StringFixed(2))
}

func (s *IncomeRuleServiceSuite) TestSummary_FallsBackToMostRecentPriorMonth() {
	mustRule(s.T(), s.db, s.user.ID, "Antiga", "50", "3000", 11, 2023)
	jan := mustRule(s.T(), s.db, s.user.ID, "Metas", "10", "4000", 1, 2024)
	mustRule(s.T(), s.db, s.user.ID, "Futura", "20", "4000", 6, 2024)
	mustTx(s.T(), s.db, models.Transaction{UserID: s.user.ID, Amount: dec("80"), Date: day(2024, 1, 20), IncomeRuleID: uintPtr(jan.ID)})
	mustTx(s.T(), s.db, models.Transaction{UserID: s.user.ID, Amount: dec("30"), Date: day(2024, 3, 2), IncomeRuleID: uintPtr(jan.ID)})

	sum, err := s.svc.Summary(s.user.ID, 3, 2024)
	s.Require().NoError(err)
	s.True(sum.UsingFallback)
	s.Equal(1, sum.Month)
	s.Equal(2024, sum.Year)
	s.Equal(3, sum.RequestedMonth)
	s.Equal(2024, sum.RequestedYear)
	s.Require().Len(sum.Rules, 1)
	s.Equal("Metas", sum.Rules[0].Name)
	s.Equal("80.00", sum.Rules[0].Spent.StringFixed(2))
}

func (s *IncomeRuleServiceSuite) TestSummary_FallbackAcrossYear() {
	mustRule(s.T(), s.db, s.user.ID, "Metas", "10", "4000", 12, 2023)

	sum, err := s.svc.Summary(s.user.ID, 2, 2024)
	s.Require().NoError(err)
	s.True(sum.UsingFallback)
	s.Equal(12, sum.Month)
	s.Equal(2023, sum.Year)
}

func (s *IncomeRuleServiceSuite) TestSummary_NoRulesAnywhere() {
	mustRule(s.T(), s.db, s.user.ID, "Futura", "10", "4000", 5, 2024)

	sum, err := s.svc.Summary(s.user.ID, 3, 2024)
	s.Require().NoError(err)
	s.False(sum.UsingFallback)
	s.Empty(sum.Rules)
	s.NotNil(sum.Rules)
	s.Equal(3, sum.Month)
	s.Equal(2024, sum.Year)
}

func (s *IncomeRuleServiceSuite) TestSummary_ItemRollUpWithoutDoubleCount() {
	r := mustRule(s.T(), s.db, s.user.ID, "Custo Fixo", "35", "5000", 3, 2024)
	water := mustItem(s.T(), s.db, r.ID, "Água", "80")
	mustTx(s.T(), s.db, models.Transaction{UserID: s.user.ID, Amount: dec("60"), Date: day(2024, 3, 5), RuleItemID: uintPtr(water.ID)})
	mustTx(s.T(), s.db, models.Transaction{UserID: s.user.ID, Amount: dec("30"), Date: day(2024, 3, 6), RuleItemID: uintPtr(water.ID), IncomeRuleID: uintPtr(r.ID)})

	sum, err := s.svc.Summary(s.user.ID, 3, 2024)
	s.Require().NoError(err)
	s.Require().Len(sum.Rules, 1)
	s.Equal("90.00", sum.Rules[0].Spent.StringFixed(2))
	s.Require().Len(sum.Rules[0].Items, 1)
	s.Equal("90.00", sum.Rules[0].Items[0].Spent.StringFixed(2))
	s.True(sum.Rules[0].Items[0].IsOverBudget)
}

func (s *IncomeRuleServiceSuite) TestCreate_PercentageHeadroom() {
	mustRule(s.T(), s.db, s.user.ID, "A", "50", "1000", 3, 2024)
	mustRule(s.T(), s.db, s.user.ID, "B", "35", "1000", 3, 2024)

	_, err := s.svc.Create(s.user.ID, RuleInput{Name: "C", Percentage: dec("20"), Month: 3, Year: 2024})
	s.Require().Error(err)
	var vErr *ValidationError
	s.Require().ErrorAs(err, &vErr)
	s.Contains(vErr.Message, "Disponível: 15.00%")
	s.Contains(vErr.Fields, "percentage")
	s.Equal(int64(2), s.ruleCount(3, 2024))

	rule, err := s.svc.Create(s.user.ID, RuleInput{Name: "C", Percentage: dec("15"), Month: 3, Year: 2024})
	s.Require().NoError(err)
	s.Equal("1000.00", rule.BaseIncome.StringFixed(2), "inherits the month base income")
	s.NotNil(rule.Items)
}

func (s *IncomeRuleServiceSuite) TestCreate_Validation() {
	_, err := s.svc.Create(s.user.ID, RuleInput{Name: "X", Percentage: dec("101"), Month: 3, Year: 2024})
	s.True(isValidation(err))
	_, err = s.svc.Create(s.user.ID, RuleInput{Name: "X", Percentage: dec("-1"), Month: 3, Year: 2024})
	s.True(isValidation(err))
	_, err = s.svc.Create(s.user.ID, RuleInput{Name: "  ", Percentage: dec("10"), Month: 3, Year: 2024})
	s.True(isValidation(err))
	_, err = s.svc.Create(s.user.ID, RuleInput{Name: "X", Percentage: dec("10"), Month: 3, Year: 2019})
	s.True(isValidation(err))
	_, err = s.svc.Create(0, RuleInput{Name: "X", Percentage: dec("10"), Month: 3, Year: 2024})
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *IncomeRuleServiceSuite) TestCreate_ConcurrentWritesNeverExceedHundred() {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.svc.Create(s.user.ID, RuleInput{Name: "R", Percentage: dec("20"), Month: 3, Year: 2024})
		}()
	}
	wg.Wait()

	s.Equal(int64(5), s.ruleCount(3, 2024))
}

func (s *IncomeRuleServiceSuite) TestUpdate_ExcludesSelfFromHeadroom() {
	a := mustRule(s.T(), s.db, s.user.ID, "A", "60", "1000", 3, 2024)
	b := mustRule(s.T(), s.db, s.user.ID, "B", "40", "1000", 3, 2024)

	updated, err := s.svc.Update(s.user.ID, b.ID, RuleUpdate{Percentage: decPtr("40")})
	s.Require().NoError(err)
	s.Equal("40.00", updated.Percentage.StringFixed(2))

	_, err = s.svc.Update(s.user.ID, b.ID, RuleUpdate{Percentage: decPtr("41")})
	var vErr *ValidationError
	s.Require().ErrorAs(err, &vErr)
	s.Contains(vErr.Message, "Disponível: 40.00%")

	_, err = s.svc.Update(s.user.ID, a.ID, RuleUpdate{Percentage: decPtr("55")})
	s.Require().NoError(err)
}

func (s *IncomeRuleServiceSuite) TestUpdate_BaseIncomeFansOut() {
	a := mustRule(s.T(), s.db, s.user.ID, "A", "50", "1000", 3, 2024)
	mustRule(s.T(), s.db, s.user.ID, "B", "30", "1000", 3, 2024)
	other := mustRule(s.T(), s.db, s.user.ID, "C", "30", "1000", 4, 2024)

	name := "A2"
	updated, err := s.svc.Update(s.user.ID, a.ID, RuleUpdate{Name: &name, BaseIncome: decPtr("6000")})
	s.Require().NoError(err)
	s.Equal("A2", updated.Name)
	s.Equal("6000.00", updated.BaseIncome.StringFixed(2))

	var rules []models.IncomeRule
	s.db.Where("user_id = ? AND month = ? AND year = ?", s.user.ID, 3, 2024).Find(&rules)
	s.Require().Len(rules, 2)
	for _, r := range rules {
		s.Equal("6000.00", r.BaseIncome.StringFixed(2))
	}

	var untouched models.IncomeRule
	s.db.First(&untouched, other.ID)
	s.Equal("1000.00", untouched.BaseIncome.StringFixed(2))
}

func (s *IncomeRuleServiceSuite) TestUpdate_NotFoundForOtherUser() {
	other := mustUser(s.T(), s.db, "bia@example.com")
	r := mustRule(s.T(), s.db, other.ID, "A", "50", "1000", 3, 2024)

	_, err := s.svc.Update(s.user.ID, r.ID, RuleUpdate{Percentage: decPtr("10")})
	s.True(isNotFound(err))
	s.True(isNotFound(s.svc.Delete(s.user.ID, r.ID)))
}

func (s *IncomeRuleServiceSuite) TestDelete_CascadesItemsAndClearsTransactions() {
	r := mustRule(s.T(), s.db, s.user.ID, "A", "50", "1000", 3, 2024)
	it := mustItem(s.T(), s.db, r.ID, "Luz", "120")
	tx := mustTx(s.T(), s.db, models.Transaction{UserID: s.user.ID, Amount: dec("90"), Date: day(2024, 3, 5),
		IncomeRuleID: uintPtr(r.ID), RuleItemID: uintPtr(it.ID)})

	s.Require().NoError(s.svc.Delete(s.user.ID, r.ID))

	var items int64
	s.db.Model(&models.RuleItem{}).Where("rule_id = ?", r.ID).Count(&items)
	s.Zero(items)

	var reloaded models.Transaction
	s.Require().NoError(s.db.First(&reloaded, tx.ID).Error)
	s.Nil(reloaded.IncomeRuleID)
	s.Nil(reloaded.RuleItemID)
}

func (s *IncomeRuleServiceSuite) TestItems_CRUD() {
	r := mustRule(s.T(), s.db, s.user.ID, "A", "50", "1000", 3, 2024)

	item, err := s.svc.CreateItem(s.user.ID, r.ID, ItemInput{Name: "Internet", Amount: dec("99.9")})
	s.Require().NoError(err)
	s.Equal("99.90", item.Amount.StringFixed(2))

	_, err = s.svc.CreateItem(s.user.ID, r.ID, ItemInput{Name: "Zero", Amount: dec("0")})
	s.True(isValidation(err))

	updated, err := s.svc.UpdateItem(s.user.ID, r.ID, item.ID, ItemUpdate{Amount: decPtr("120")})
	s.Require().NoError(err)
	s.Equal("120.00", updated.Amount.StringFixed(2))
	s.Equal("Internet", updated.Name)

	tx := mustTx(s.T(), s.db, models.Transaction{UserID: s.user.ID, Amount: dec("120"), Date: day(2024, 3, 5), RuleItemID: uintPtr(item.ID)})
	s.Require().NoError(s.svc.DeleteItem(s.user.ID, r.ID, item.ID))

	var reloaded models.Transaction
	s.Require().NoError(s.db.First(&reloaded, tx.ID).Error)
	s.Nil(reloaded.RuleItemID)

	s.True(isNotFound(s.svc.DeleteItem(s.user.ID, r.ID, item.ID)))
}

func (s *IncomeRuleServiceSuite) TestCopyFromMonth() {
	r := mustRule(s.T(), s.db, s.user.ID, "Custo Fixo", "35", "5000", 1, 2024)
	mustItem(s.T(), s.db, r.ID, "Aluguel", "1500")
	mustRule(s.T(), s.db, s.user.ID, "Metas", "10", "5000", 1, 2024)

	copied, err := s.svc.CopyFromMonth(s.user.ID, CopyInput{FromMonth: 1, FromYear: 2024, ToMonth: 2, ToYear: 2024, BaseIncome: decPtr("5500")})
	s.Require().NoError(err)
	s.Require().Len(copied, 2)
	s.Equal("Custo Fixo", copied[0].Name)
	s.Equal(2, copied[0].Month)
	s.Equal("5500.00", copied[0].BaseIncome.StringFixed(2))
	s.Require().Len(copied[0].Items, 1)
	s.Equal("Aluguel", copied[0].Items[0].Name)
	s.NotEqual(r.ID, copied[0].ID)

	var source models.IncomeRule
	s.db.First(&source, r.ID)
	s.Equal("5000.00", source.BaseIncome.StringFixed(2))
}

func (s *IncomeRuleServiceSuite) TestCopyFromMonth_RejectsNonEmptyTarget() {
	mustRule(s.T(), s.db, s.user.ID, "Metas", "10", "5000", 1, 2024)
	existing := mustRule(s.T(), s.db, s.user.ID, "Prazeres", "10", "3000", 2, 2024)

	_, err := s.svc.CopyFromMonth(s.user.ID, CopyInput{FromMonth: 1, FromYear: 2024, ToMonth: 2, ToYear: 2024})
	s.True(isValidation(err))

	s.Equal(int64(1), s.ruleCount(2, 2024))
	var kept models.IncomeRule
	s.Require().NoError(s.db.First(&kept, existing.ID).Error)
	s.Equal("Prazeres", kept.Name)
	s.Equal("3000.00", kept.BaseIncome.StringFixed(2))
}

func (s *IncomeRuleServiceSuite) TestCopyFromMonth_EmptySourceAndSameMonth() {
	_, err := s.svc.CopyFromMonth(s.user.ID, CopyInput{FromMonth: 1, FromYear: 2024, ToMonth: 2, ToYear: 2024})
	s.True(isNotFound(err))

	_, err = s.svc.CopyFromMonth(s.user.ID, CopyInput{FromMonth: 2, FromYear: 2024, ToMonth: 2, ToYear: 2024})
	s.True(isValidation(err))
}

func (s *IncomeRuleServiceSuite) TestResetToDefaults() {
	old := mustRule(s.T(), s.db, s.user.ID, "Velha", "70", "4200", 3, 2024)
	mustItem(s.T(), s.db, old.ID, "Item", "10")

	rules, err := s.svc.ResetToDefaults(s.user.ID, 3, 2024, nil)
	s.Require().NoError(err)
	s.Require().Len(rules, 6)

	total := dec("0")
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		total = total.Add(r.Percentage)
		names = append(names, r.Name)
		s.Equal("4200.00", r.BaseIncome.StringFixed(2))
		s.Empty(r.Items)
	}
	s.Equal("100.00", total.StringFixed(2))
	s.Equal([]string{"Metas", "Conforto", "Prazeres", "Custo Fixo", "Liberdade Financeira", "Conhecimento"}, names)

	var items int64
	s.db.Model(&models.RuleItem{}).Count(&items)
	s.Zero(items)
}

func (s *IncomeRuleServiceSuite) TestResetToDefaults_WithBaseIncome() {
	rules, err := s.svc.ResetToDefaults(s.user.ID, 3, 2024, decPtr("5000"))
	s.Require().NoError(err)
	s.Require().Len(rules, 6)

	sum, err := s.svc.Summary(s.user.ID, 3, 2024)
	s.Require().NoError(err)
	s.Equal("5000.00", sum.TotalBudget.StringFixed(2))
	s.Equal("100.00", sum.TotalPercentage.StringFixed(2))
}

func TestIncomeRuleServiceSuite(t *testing.T) {
	suite.Run(t, new(IncomeRuleServiceSuite))
}
