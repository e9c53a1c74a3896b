package api

import (
	"finplan/database"
	"finplan/middleware"
	"finplan/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CategoryBudgetHandler 分类预算处理器
type CategoryBudgetHandler struct{}

// NewCategoryBudgetHandler 创建分类预算处理器
func NewCategoryBudgetHandler() *CategoryBudgetHandler {
	return &CategoryBudgetHandler{}
}

// UpsertBudgetRequest 新增或覆盖分类预算
type UpsertBudgetRequest struct {
	CategoryID uint    `json:"categoryId" binding:"required" example:"1"`
	Month      int     `json:"month" binding:"required,min=1,max=12" example:"3"`
	Year       int     `json:"year" binding:"required,min=2020,max=2100" example:"2024"`
	Amount     float64 `json:"amount" binding:"gte=0" example:"800"`
}

// Summary 月度分类预算汇总
// @Summary 分类预算汇总
// @Description 返回当月每个分类的预算、已支出、使用率，以及合计
// @Tags 分类预算
// @Produce json
// @Security BearerAuth
// @Param month query int false "月份，默认当前月"
// @Param year query int false "年份，默认当前年"
// @Success 200 {object} Response{data=service.CategoryBudgetSummary} "获取成功"
// @Failure 400 {object} Response "月份无效"
// @Router /api/v1/category-budgets [get]
func (h *CategoryBudgetHandler) Summary(c *gin.Context) {
	month, year, ok := bindPeriod(c)
	if !ok {
		return
	}
	summary, err := service.NewBudgetService(database.DB).Summary(middleware.GetCurrentUserID(c), month, year)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, summary)
}

// Upsert 设置分类预算
// @Summary 设置分类预算
// @Description 同一分类同一月份只保留一条预算，重复提交覆盖金额
// @Tags 分类预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpsertBudgetRequest true "预算信息"
// @Success 200 {object} Response{data=models.CategoryBudget} "保存成功"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/v1/category-budgets [post]
func (h *CategoryBudgetHandler) Upsert(c *gin.Context) {
	var req UpsertBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	budget, err := service.NewBudgetService(database.DB).Upsert(middleware.GetCurrentUserID(c), service.BudgetInput{
		CategoryID: req.CategoryID,
		Month:      req.Month,
		Year:       req.Year,
		Amount:     decimal.NewFromFloat(req.Amount),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, budget)
}

// Delete 删除分类预算
// @Summary 删除分类预算
// @Tags 分类预算
// @Produce json
// @Security BearerAuth
// @Param categoryId path int true "分类ID"
// @Param month query int false "月份，默认当前月"
// @Param year query int false "年份，默认当前年"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/category-budgets/{categoryId} [delete]
func (h *CategoryBudgetHandler) Delete(c *gin.Context) {
	categoryID, ok := parseID(c, "categoryId")
	if !ok {
		return
	}
	month, year, ok := bindPeriod(c)
	if !ok {
		return
	}
	if err := service.NewBudgetService(database.DB).Delete(middleware.GetCurrentUserID(c), categoryID, month, year); err != nil {
		handleError(c, err)
		return
	}
	SuccessWithMessage(c, "Orçamento removido", nil)
}
