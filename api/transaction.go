package api

import (
	"errors"
	"strings"

	"finplan/database"
	"finplan/middleware"
	"finplan/models"
	"finplan/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionHandler 交易处理器
type TransactionHandler struct{}

// NewTransactionHandler 创建交易处理器
func NewTransactionHandler() *TransactionHandler {
	return &TransactionHandler{}
}

// CreateTransactionRequest 创建交易请求
type CreateTransactionRequest struct {
	Description  string  `json:"description" binding:"max=255" example:"Mercado"`
	Amount       float64 `json:"amount" binding:"required,gt=0" example:"250.40"`
	Type         string  `json:"type" binding:"required,oneof=INCOME EXPENSE" example:"EXPENSE"`
	Date         string  `json:"date" binding:"required" example:"2024-03-05"`
	CategoryID   *uint   `json:"categoryId" example:"1"`
	IncomeRuleID *uint   `json:"incomeRuleId" example:"2"`
	RuleItemID   *uint   `json:"ruleItemId" example:"3"`
}

// UpdateTransactionRequest 更新交易请求
// JSON 中的 null 与缺省无法区分，清空引用使用 clear* 标志
type UpdateTransactionRequest struct {
	Description     *string  `json:"description" binding:"omitempty,max=255"`
	Amount          *float64 `json:"amount" binding:"omitempty,gt=0"`
	Type            *string  `json:"type" binding:"omitempty,oneof=INCOME EXPENSE"`
	Date            *string  `json:"date"`
	CategoryID      *uint    `json:"categoryId"`
	IncomeRuleID    *uint    `json:"incomeRuleId"`
	RuleItemID      *uint    `json:"ruleItemId"`
	ClearCategory   bool     `json:"clearCategory"`
	ClearIncomeRule bool     `json:"clearIncomeRule"`
	ClearRuleItem   bool     `json:"clearRuleItem"`
}

// TransactionListRequest 交易列表请求
type TransactionListRequest struct {
	Page         int    `form:"page" example:"1"`
	PageSize     int    `form:"pageSize" example:"20"`
	Month        int    `form:"month" binding:"omitempty,min=1,max=12" example:"3"`
	Year         int    `form:"year" binding:"omitempty,min=2020,max=2100" example:"2024"`
	Type         string `form:"type" binding:"omitempty,oneof=INCOME EXPENSE"`
	CategoryID   uint   `form:"categoryId"`
	IncomeRuleID uint   `form:"incomeRuleId"`
}

func invalidDate(c *gin.Context) {
	ValidationFailed(c, "Data inválida", map[string]string{"date": "Use o formato 2006-01-02"})
}

// Create 创建交易
// @Summary 创建交易
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTransactionRequest true "交易信息"
// @Success 201 {object} Response{data=models.Transaction} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		invalidDate(c)
		return
	}

	refs := service.TransactionRefs{CategoryID: req.CategoryID, IncomeRuleID: req.IncomeRuleID, RuleItemID: req.RuleItemID}
	if err := service.ValidateTransactionRefs(database.DB, userID, refs); err != nil {
		handleError(c, err)
		return
	}

	tx := models.Transaction{
		UserID:       userID,
		Description:  strings.TrimSpace(req.Description),
		Amount:       decimal.NewFromFloat(req.Amount).Round(2),
		Type:         req.Type,
		Date:         date,
		CategoryID:   req.CategoryID,
		IncomeRuleID: req.IncomeRuleID,
		RuleItemID:   req.RuleItemID,
	}
	if err := database.DB.Create(&tx).Error; err != nil {
		handleError(c, err)
		return
	}
	Created(c, tx)
}

// List 交易列表
// @Summary 交易列表
// @Description 分页，支持按月份、类型、分类、规则筛选
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param pageSize query int false "每页数量" default(20)
// @Param month query int false "月份"
// @Param year query int false "年份"
// @Param type query string false "INCOME 或 EXPENSE"
// @Param categoryId query int false "分类ID"
// @Param incomeRuleId query int false "规则ID"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Transaction}} "获取成功"
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req TransactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	query := database.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if req.Month != 0 || req.Year != 0 {
		month, year := models.CurrentPeriod()
		if req.Month != 0 {
			month = req.Month
		}
		if req.Year != 0 {
			year = req.Year
		}
		start, end := models.MonthRange(month, year)
		query = query.Where("date >= ? AND date <= ?", start, end)
	}
	if req.Type != "" {
		query = query.Where("type = ?", req.Type)
	}
	if req.CategoryID != 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}
	if req.IncomeRuleID != 0 {
		query = query.Where("income_rule_id = ?", req.IncomeRuleID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		handleError(c, err)
		return
	}

	transactions := []models.Transaction{}
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("date DESC, id DESC").Offset(offset).Limit(req.PageSize).Find(&transactions).Error; err != nil {
		handleError(c, err)
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     transactions,
	})
}

func ownedTransaction(userID, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.NewNotFoundError("Transação não encontrada")
		}
		return nil, err
	}
	return &tx, nil
}

// Get 单条交易
// @Summary 获取交易
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Success 200 {object} Response{data=models.Transaction} "获取成功"
// @Failure 404 {object} Response "交易不存在"
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	tx, err := ownedTransaction(middleware.GetCurrentUserID(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, tx)
}

// Update 更新交易
// @Summary 更新交易
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Param request body UpdateTransactionRequest true "交易信息"
// @Success 200 {object} Response{data=models.Transaction} "更新成功"
// @Failure 404 {object} Response "交易不存在"
// @Router /api/v1/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	tx, err := ownedTransaction(userID, id)
	if err != nil {
		handleError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Amount != nil {
		updates["amount"] = decimal.NewFromFloat(*req.Amount).Round(2)
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			invalidDate(c)
			return
		}
		updates["date"] = date
	}

	var refs service.TransactionRefs
	if req.ClearCategory {
		updates["category_id"] = nil
	} else if req.CategoryID != nil {
		refs.CategoryID = req.CategoryID
		updates["category_id"] = *req.CategoryID
	}
	if req.ClearIncomeRule {
		updates["income_rule_id"] = nil
	} else if req.IncomeRuleID != nil {
		refs.IncomeRuleID = req.IncomeRuleID
		updates["income_rule_id"] = *req.IncomeRuleID
	}
	if req.ClearRuleItem {
		updates["rule_item_id"] = nil
	} else if req.RuleItemID != nil {
		refs.RuleItemID = req.RuleItemID
		updates["rule_item_id"] = *req.RuleItemID
	}
	if err := service.ValidateTransactionRefs(database.DB, userID, refs); err != nil {
		handleError(c, err)
		return
	}

	if len(updates) > 0 {
		if err := database.DB.Model(tx).Updates(updates).Error; err != nil {
			handleError(c, err)
			return
		}
	}
	updated, err := ownedTransaction(userID, id)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, updated)
}

// Delete 删除交易
// @Summary 删除交易
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "交易不存在"
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res := database.DB.Where("id = ? AND user_id = ?", id, middleware.GetCurrentUserID(c)).Delete(&models.Transaction{})
	if res.Error != nil {
		handleError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		NotFound(c, "Transação não encontrada")
		return
	}
	SuccessWithMessage(c, "Transação removida", nil)
}
