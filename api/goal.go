package api

import (
	"time"

	"finplan/database"
	"finplan/middleware"
	"finplan/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GoalHandler 储蓄目标处理器
type GoalHandler struct{}

// NewGoalHandler 创建目标处理器
func NewGoalHandler() *GoalHandler {
	return &GoalHandler{}
}

// CreateGoalRequest 新建目标
type CreateGoalRequest struct {
	Name          string  `json:"name" binding:"required,max=100" example:"Reserva de emergência"`
	TargetAmount  float64 `json:"targetAmount" binding:"required,gt=0" example:"10000"`
	CurrentAmount float64 `json:"currentAmount" binding:"gte=0" example:"0"`
	Deadline      string  `json:"deadline" example:"2024-12-31"`
	Color         string  `json:"color" binding:"max=20" example:"#22c55e"`
	Icon          string  `json:"icon" binding:"max=50" example:"piggy-bank"`
}

// UpdateGoalRequest 目标部分更新
type UpdateGoalRequest struct {
	Name          *string  `json:"name" binding:"omitempty,max=100"`
	TargetAmount  *float64 `json:"targetAmount" binding:"omitempty,gt=0"`
	Deadline      *string  `json:"deadline"`
	ClearDeadline bool     `json:"clearDeadline"`
	Color         *string  `json:"color" binding:"omitempty,max=20"`
	Icon          *string  `json:"icon" binding:"omitempty,max=50"`
}

// DepositRequest 存入
type DepositRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0" example:"500"`
	Note   string  `json:"note" binding:"max=255" example:"13º salário"`
	Date   string  `json:"date" example:"2024-03-05"`
}

// optionalDate 空字符串表示未填写
func optionalDate(c *gin.Context, field, value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := parseDate(value)
	if err != nil {
		ValidationFailed(c, "Data inválida", map[string]string{field: "Use o formato 2006-01-02"})
		return nil, false
	}
	return &t, true
}

// List 目标列表
// @Summary 目标列表
// @Tags 目标
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Goal} "获取成功"
// @Router /api/v1/goals [get]
func (h *GoalHandler) List(c *gin.Context) {
	goals, err := service.NewGoalService(database.DB).List(middleware.GetCurrentUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, goals)
}

// Get 单个目标
// @Summary 获取目标
// @Tags 目标
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Success 200 {object} Response{data=models.Goal} "获取成功"
// @Failure 404 {object} Response "目标不存在"
// @Router /api/v1/goals/{id} [get]
func (h *GoalHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	goal, err := service.NewGoalService(database.DB).Get(middleware.GetCurrentUserID(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, goal)
}

// Create 新建目标
// @Summary 新建目标
// @Tags 目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateGoalRequest true "目标信息"
// @Success 201 {object} Response{data=models.Goal} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	deadline, ok := optionalDate(c, "deadline", req.Deadline)
	if !ok {
		return
	}
	goal, err := service.NewGoalService(database.DB).Create(middleware.GetCurrentUserID(c), service.GoalInput{
		Name:          req.Name,
		TargetAmount:  decimal.NewFromFloat(req.TargetAmount),
		CurrentAmount: decimal.NewFromFloat(req.CurrentAmount),
		Deadline:      deadline,
		Color:         req.Color,
		Icon:          req.Icon,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, goal)
}

// Update 更新目标
// @Summary 更新目标
// @Tags 目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Param request body UpdateGoalRequest true "目标信息"
// @Success 200 {object} Response{data=models.Goal} "更新成功"
// @Failure 404 {object} Response "目标不存在"
// @Router /api/v1/goals/{id} [put]
func (h *GoalHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	upd := service.GoalUpdate{
		Name:          req.Name,
		TargetAmount:  decimalPtr(req.TargetAmount),
		ClearDeadline: req.ClearDeadline,
		Color:         req.Color,
		Icon:          req.Icon,
	}
	if req.Deadline != nil {
		deadline, ok := optionalDate(c, "deadline", *req.Deadline)
		if !ok {
			return
		}
		upd.Deadline = deadline
	}

	goal, err := service.NewGoalService(database.DB).Update(middleware.GetCurrentUserID(c), id, upd)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, goal)
}

// Delete 删除目标
// @Summary 删除目标
// @Description 存入记录一并删除
// @Tags 目标
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "目标不存在"
// @Router /api/v1/goals/{id} [delete]
func (h *GoalHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := service.NewGoalService(database.DB).Delete(middleware.GetCurrentUserID(c), id); err != nil {
		handleError(c, err)
		return
	}
	SuccessWithMessage(c, "Meta removida", nil)
}

// Deposit 存入
// @Summary 目标存入
// @Description 记录存入并累加目标金额，达到目标后 isCompleted=true
// @Tags 目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Param request body DepositRequest true "存入信息"
// @Success 201 {object} Response{data=service.DepositResult} "存入成功"
// @Failure 404 {object} Response "目标不存在"
// @Router /api/v1/goals/{id}/deposits [post]
func (h *GoalHandler) Deposit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	date, ok := optionalDate(c, "date", req.Date)
	if !ok {
		return
	}
	result, err := service.NewGoalService(database.DB).Deposit(middleware.GetCurrentUserID(c), id, service.DepositInput{
		Amount: decimal.NewFromFloat(req.Amount),
		Note:   req.Note,
		Date:   date,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, result)
}

// ListDeposits 存入记录
// @Summary 目标存入记录
// @Tags 目标
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Success 200 {object} Response{data=[]models.GoalDeposit} "获取成功"
// @Failure 404 {object} Response "目标不存在"
// @Router /api/v1/goals/{id}/deposits [get]
func (h *GoalHandler) ListDeposits(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	deposits, err := service.NewGoalService(database.DB).ListDeposits(middleware.GetCurrentUserID(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, deposits)
}

// DeleteDeposit 删除存入记录
// @Summary 删除存入记录
// @Description 回退目标金额并重新计算完成状态
// @Tags 目标
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Param depositId path int true "存入记录ID"
// @Success 200 {object} Response{data=models.Goal} "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/goals/{id}/deposits/{depositId} [delete]
func (h *GoalHandler) DeleteDeposit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	depositID, ok := parseID(c, "depositId")
	if !ok {
		return
	}
	goal, err := service.NewGoalService(database.DB).DeleteDeposit(middleware.GetCurrentUserID(c), id, depositID)
	if err != nil {
		handleError(c, err)
		return
	}
	SuccessWithMessage(c, "Depósito removido", goal)
}
