package service

import (
	"testing"
	"time"

	"finplan/config"
	"finplan/database"
	"finplan/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func uintPtr(v uint) *uint {
	return &v
}

func isValidation(err error) bool {
	_, ok := AsValidationError(err)
	return ok
}

func isNotFound(err error) bool {
	_, ok := AsNotFoundError(err)
	return ok
}

func day(year, month, d int) time.Time {
	return time.Date(year, time.Month(month), d, 12, 0, 0, 0, time.Local)
}

func mustUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	u := models.User{Name: "Teste", Email: email, Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func mustCategory(t *testing.T, db *gorm.DB, userID uint, name string) models.Category {
	t.Helper()
	c := models.Category{UserID: userID, Name: name, Color: "#ef4444"}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func mustRule(t *testing.T, db *gorm.DB, userID uint, name, pct, base string, month, year int) models.IncomeRule {
	t.Helper()
	r := models.IncomeRule{
		UserID: userID, Name: name, Percentage: dec(pct), BaseIncome: dec(base),
		Month: month, Year: year,
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func mustItem(t *testing.T, db *gorm.DB, ruleID uint, name, amount string) models.RuleItem {
	t.Helper()
	it := models.RuleItem{RuleID: ruleID, Name: name, Amount: dec(amount)}
	require.NoError(t, db.Create(&it).Error)
	return it
}

func mustTx(t *testing.T, db *gorm.DB, tx models.Transaction) models.Transaction {
	t.Helper()
	if tx.Type == "" {
		tx.Type = models.TransactionTypeExpense
	}
	require.NoError(t, db.Create(&tx).Error)
	return tx
}
