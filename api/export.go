package api

import (
	"bytes"
	"fmt"
	"net/http"

	"finplan/database"
	"finplan/middleware"
	"finplan/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// ExportExcel 导出月度工作簿
// @Summary 导出月度 Excel
// @Description 工作簿包含交易、分类预算、收入规则三个工作表
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param month query int false "月份，默认当前月"
// @Param year query int false "年份，默认当前年"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "月份无效"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	month, year, ok := bindPeriod(c)
	if !ok {
		return
	}

	txs, err := service.MonthTransactions(database.DB, userID, month, year)
	if err != nil {
		handleError(c, err)
		return
	}
	budgets, err := service.NewBudgetService(database.DB).Summary(userID, month, year)
	if err != nil {
		handleError(c, err)
		return
	}
	rules, err := service.NewIncomeRuleService(database.DB).Summary(userID, month, year)
	if err != nil {
		handleError(c, err)
		return
	}

	f, err := service.BuildMonthlyWorkbook(month, year, txs, budgets, rules)
	if err != nil {
		handleError(c, err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msg("close workbook")
		}
	}()

	filename := fmt.Sprintf("finplan_%04d-%02d.xlsx", year, month)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("write workbook")
	}
}

// ExportCSV 导出当月交易为 CSV
// @Summary 导出月度 CSV
// @Description UTF-8 带 BOM，Excel 可直接打开
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param month query int false "月份，默认当前月"
// @Param year query int false "年份，默认当前年"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "月份无效"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	month, year, ok := bindPeriod(c)
	if !ok {
		return
	}

	txs, err := service.MonthTransactions(database.DB, userID, month, year)
	if err != nil {
		handleError(c, err)
		return
	}

	buf := new(bytes.Buffer)
	if err := service.WriteTransactionsCSV(buf, txs); err != nil {
		handleError(c, err)
		return
	}

	filename := fmt.Sprintf("transacoes_%04d-%02d.csv", year, month)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
