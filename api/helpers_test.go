package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"finplan/config"
	"finplan/database"
	"finplan/middleware"
	"finplan/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupMockDB 用 sqlmock 替换全局 DB，适合校验具体 SQL
func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = gormDB
	return mock, func() {
		database.DB = oldDB
		sqlDB.Close()
	}
}

// setupTestDB 用内存 sqlite 替换全局 DB，适合完整流程
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	oldDB := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = oldDB
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func setUserIDMiddleware(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	}
}

func newUserRouter(userID uint) *gin.Engine {
	router := gin.New()
	router.Use(setUserIDMiddleware(userID))
	return router
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	data, ok := decode(t, w)["data"].(map[string]interface{})
	require.True(t, ok, w.Body.String())
	return data
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
		UserID: userID, Name: name,
		Percentage: decimal.RequireFromString(pct), BaseIncome: decimal.RequireFromString(base),
		Month: month, Year: year,
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func mustTx(t *testing.T, db *gorm.DB, tx models.Transaction) models.Transaction {
	t.Helper()
	if tx.Type == "" {
		tx.Type = models.TransactionTypeExpense
	}
	require.NoError(t, db.Create(&tx).Error)
	return tx
}

func day(year, month, d int) time.Time {
	return time.Date(year, time.Month(month), d, 12, 0, 0, 0, time.Local)
}
