package api

import (
	"finplan/database"
	"finplan/middleware"
	"finplan/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// IncomeRuleHandler 收入分配规则处理器
type IncomeRuleHandler struct{}

// NewIncomeRuleHandler 创建规则处理器
func NewIncomeRuleHandler() *IncomeRuleHandler {
	return &IncomeRuleHandler{}
}

// CreateRuleRequest 新建规则
type CreateRuleRequest struct {
	Name       string   `json:"name" binding:"required,max=100" example:"Custo Fixo"`
	Percentage *float64 `json:"percentage" binding:"required,gte=0,lte=100" example:"35"`
	Color      string   `json:"color" binding:"max=20" example:"#ef4444"`
	Icon       string   `json:"icon" binding:"max=50" example:"home"`
	Month      int      `json:"month" binding:"required,min=1,max=12" example:"3"`
	Year       int      `json:"year" binding:"required,min=2020,max=2100" example:"2024"`
	BaseIncome *float64 `json:"baseIncome" binding:"omitempty,gte=0" example:"5000"`
}

// UpdateRuleRequest 规则部分更新
type UpdateRuleRequest struct {
	Name       *string  `json:"name" binding:"omitempty,max=100"`
	Percentage *float64 `json:"percentage" binding:"omitempty,gte=0,lte=100"`
	Color      *string  `json:"color" binding:"omitempty,max=20"`
	Icon       *string  `json:"icon" binding:"omitempty,max=50"`
	BaseIncome *float64 `json:"baseIncome" binding:"omitempty,gte=0"`
}

// CreateItemRequest 新建子项
type CreateItemRequest struct {
	Name   string  `json:"name" binding:"required,max=100" example:"Aluguel"`
	Amount float64 `json:"amount" binding:"required,gt=0" example:"1200"`
}

// UpdateItemRequest 子项部分更新
type UpdateItemRequest struct {
	Name   *string  `json:"name" binding:"omitempty,max=100"`
	Amount *float64 `json:"amount" binding:"omitempty,gt=0"`
}

// CopyRulesRequest 复制规则
type CopyRulesRequest struct {
	FromMonth  int      `json:"fromMonth" binding:"required,min=1,max=12" example:"2"`
	FromYear   int      `json:"fromYear" binding:"required,min=2020,max=2100" example:"2024"`
	ToMonth    int      `json:"toMonth" binding:"required,min=1,max=12" example:"3"`
	ToYear     int      `json:"toYear" binding:"required,min=2020,max=2100" example:"2024"`
	BaseIncome *float64 `json:"baseIncome" binding:"omitempty,gte=0" example:"5000"`
}

// ResetRulesRequest 恢复默认规则
type ResetRulesRequest struct {
	Month      int      `json:"month" binding:"required,min=1,max=12" example:"3"`
	Year       int      `json:"year" binding:"required,min=2020,max=2100" example:"2024"`
	BaseIncome *float64 `json:"baseIncome" binding:"omitempty,gte=0" example:"5000"`
}

func decimalPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}

// Summary 规则汇总
// @Summary 收入分配规则汇总
// @Description 当月没有规则时回退到最近一个有规则的月份，usingFallback 标记回退
// @Tags 收入规则
// @Produce json
// @Security BearerAuth
// @Param month query int false "月份，默认当前月"
// @Param year query int false "年份，默认当前年"
// @Success 200 {object} Response{data=service.IncomeRuleSummary} "获取成功"
// @Router /api/v1/income-rules [get]
func (h *IncomeRuleHandler) Summary(c *gin.Context) {
	month, year, ok := bindPeriod(c)
	if !ok {
		return
	}
	summary, err := service.NewIncomeRuleService(database.DB).Summary(middleware.GetCurrentUserID(c), month, year)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, summary)
}

// Create 新建规则
// @Summary 新建规则
// @Description 同月百分比合计不能超过 100；传 baseIncome 时同步到当月所有规则
// @Tags 收入规则
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRuleRequest true "规则信息"
// @Success 201 {object} Response{data=models.IncomeRule} "创建成功"
// @Failure 400 {object} Response "百分比超出"
// @Router /api/v1/income-rules [post]
func (h *IncomeRuleHandler) Create(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	rule, err := service.NewIncomeRuleService(database.DB).Create(middleware.GetCurrentUserID(c), service.RuleInput{
		Name:       req.Name,
		Percentage: decimal.NewFromFloat(*req.Percentage),
		Color:      req.Color,
		Icon:       req.Icon,
		Month:      req.Month,
		Year:       req.Year,
		BaseIncome: decimalPtr(req.BaseIncome),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, rule)
}

// Update 更新规则
// @Summary 更新规则
// @Tags 收入规则
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "规则ID"
// @Param request body UpdateRuleRequest true "规则信息"
// @Success 200 {object} Response{data=models.IncomeRule} "更新成功"
// @Failure 404 {object} Response "规则不存在"
// @Router /api/v1/income-rules/{id} [put]
func (h *IncomeRuleHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	rule, err := service.NewIncomeRuleService(database.DB).Update(middleware.GetCurrentUserID(c), id, service.RuleUpdate{
		Name:       req.Name,
		Percentage: decimalPtr(req.Percentage),
		Color:      req.Color,
		Icon:       req.Icon,
		BaseIncome: decimalPtr(req.BaseIncome),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, rule)
}

// Delete 删除规则
// @Summary 删除规则
// @Description 子项一并删除，交易上的规则引用置空
// @Tags 收入规则
// @Produce json
// @Security BearerAuth
// @Param id path int true "规则ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "规则不存在"
// @Router /api/v1/income-rules/{id} [delete]
func (h *IncomeRuleHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := service.NewIncomeRuleService(database.DB).Delete(middleware.GetCurrentUserID(c), id); err != nil {
		handleError(c, err)
		return
	}
	SuccessWithMessage(c, "Regra removida", nil)
}

// CreateItem 新建子项
// @Summary 新建规则子项
// @Tags 收入规则
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "规则ID"
// @Param request body CreateItemRequest true "子项信息"
// @Success 201 {object} Response{data=models.RuleItem} "创建成功"
// @Failure 404 {object} Response "规则不存在"
// @Router /api/v1/income-rules/{id}/items [post]
func (h *IncomeRuleHandler) CreateItem(c *gin.Context) {
	ruleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	item, err := service.NewIncomeRuleService(database.DB).CreateItem(middleware.GetCurrentUserID(c), ruleID, service.ItemInput{
		Name:   req.Name,
		Amount: decimal.NewFromFloat(req.Amount),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, item)
}

// UpdateItem 更新子项
// @Summary 更新规则子项
// @Tags 收入规则
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "规则ID"
// @Param itemId path int true "子项ID"
// @Param request body UpdateItemRequest true "子项信息"
// @Success 200 {object} Response{data=models.RuleItem} "更新成功"
// @Failure 404 {object} Response "子项不存在"
// @Router /api/v1/income-rules/{id}/items/{itemId} [put]
func (h *IncomeRuleHandler) UpdateItem(c *gin.Context) {
	ruleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	item, err := service.NewIncomeRuleService(database.DB).UpdateItem(middleware.GetCurrentUserID(c), ruleID, itemID, service.ItemUpdate{
		Name:   req.Name,
		Amount: decimalPtr(req.Amount),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, item)
}

// DeleteItem 删除子项
// @Summary 删除规则子项
// @Tags 收入规则
// @Produce json
// @Security BearerAuth
// @Param id path int true "规则ID"
// @Param itemId path int true "子项ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "子项不存在"
// @Router /api/v1/income-rules/{id}/items/{itemId} [delete]
func (h *IncomeRuleHandler) DeleteItem(c *gin.Context) {
	ruleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}
	if err := service.NewIncomeRuleService(database.DB).DeleteItem(middleware.GetCurrentUserID(c), ruleID, itemID); err != nil {
		handleError(c, err)
		return
	}
	SuccessWithMessage(c, "Item removido", nil)
}

// Copy 从其他月份复制规则
// @Summary 复制规则
// @Description 目标月份必须没有规则
// @Tags 收入规则
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CopyRulesRequest true "源月份与目标月份"
// @Success 201 {object} Response{data=[]models.IncomeRule} "复制成功"
// @Failure 400 {object} Response "目标月份已有规则"
// @Failure 404 {object} Response "源月份没有规则"
// @Router /api/v1/income-rules/copy [post]
func (h *IncomeRuleHandler) Copy(c *gin.Context) {
	var req CopyRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	rules, err := service.NewIncomeRuleService(database.DB).CopyFromMonth(middleware.GetCurrentUserID(c), service.CopyInput{
		FromMonth:  req.FromMonth,
		FromYear:   req.FromYear,
		ToMonth:    req.ToMonth,
		ToYear:     req.ToYear,
		BaseIncome: decimalPtr(req.BaseIncome),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, rules)
}

// Reset 恢复默认规则
// @Summary 恢复默认规则
// @Description 删除当月规则与子项，写入六个默认规则（合计 100%）
// @Tags 收入规则
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ResetRulesRequest true "月份与收入"
// @Success 200 {object} Response{data=[]models.IncomeRule} "重置成功"
// @Router /api/v1/income-rules/reset [post]
func (h *IncomeRuleHandler) Reset(c *gin.Context) {
	var req ResetRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	rules, err := service.NewIncomeRuleService(database.DB).ResetToDefaults(middleware.GetCurrentUserID(c), req.Month, req.Year, decimalPtr(req.BaseIncome))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, rules)
}
