package api

import (
	"context"
	"errors"
	"net/http"

	"finplan/config"
	"finplan/database"
	"finplan/middleware"
	"finplan/models"
	"finplan/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Summarizer 根据提示词生成总结
type Summarizer interface {
	Model() string
	Summarize(ctx context.Context, prompt string) (string, error)
}

// SummaryHandler 仪表盘与 AI 总结处理器
type SummaryHandler struct {
	newSummarizer func() (Summarizer, error)
}

// NewSummaryHandler 创建总结处理器，AI 配置在每次请求时读取
func NewSummaryHandler(cfg *config.Config) *SummaryHandler {
	return &SummaryHandler{
		newSummarizer: func() (Summarizer, error) {
			svc, err := service.NewAIService(cfg.AI)
			if err != nil {
				return nil, err
			}
			return svc, nil
		},
	}
}

// AISummaryRequest 生成 AI 总结
type AISummaryRequest struct {
	Month int `json:"month" binding:"required,min=1,max=12" example:"3"`
	Year  int `json:"year" binding:"required,min=2020,max=2100" example:"2024"`
}

// Dashboard 当月收支概览
// @Summary 当月收支概览
// @Description 收入、支出、结余与按分类的支出
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param month query int false "月份，默认当前月"
// @Param year query int false "年份，默认当前年"
// @Success 200 {object} Response{data=service.MonthSummary} "获取成功"
// @Router /api/v1/summary [get]
func (h *SummaryHandler) Dashboard(c *gin.Context) {
	month, year, ok := bindPeriod(c)
	if !ok {
		return
	}
	summary, err := service.MonthlySummary(database.DB, middleware.GetCurrentUserID(c), month, year)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, summary)
}

// GenerateAISummary 生成 AI 月度总结
// @Summary 生成 AI 月度总结
// @Description 汇总当月收支、分类预算与收入规则后调用模型，结果保存并返回
// @Tags 统计
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AISummaryRequest true "月份"
// @Success 201 {object} Response{data=models.AISummary} "生成成功"
// @Failure 400 {object} Response "AI 未启用"
// @Router /api/v1/ai-summary [post]
func (h *SummaryHandler) GenerateAISummary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req AISummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	ai, err := h.newSummarizer()
	if err != nil {
		handleError(c, err)
		return
	}

	month, err := service.MonthlySummary(database.DB, userID, req.Month, req.Year)
	if err != nil {
		handleError(c, err)
		return
	}
	budgets, err := service.NewBudgetService(database.DB).Summary(userID, req.Month, req.Year)
	if err != nil {
		handleError(c, err)
		return
	}
	rules, err := service.NewIncomeRuleService(database.DB).Summary(userID, req.Month, req.Year)
	if err != nil {
		handleError(c, err)
		return
	}

	content, err := ai.Summarize(c.Request.Context(), service.BuildSummaryPrompt(month, budgets, rules))
	if err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Str("model", ai.Model()).Msg("ai summary failed")
		Error(c, http.StatusBadGateway, "Não foi possível gerar o resumo agora. Tente novamente mais tarde.")
		return
	}

	summary := models.AISummary{
		UserID:  userID,
		Month:   req.Month,
		Year:    req.Year,
		Model:   ai.Model(),
		Content: content,
	}
	if err := database.DB.Create(&summary).Error; err != nil {
		handleError(c, err)
		return
	}
	Created(c, summary)
}

// LatestAISummary 最近一次 AI 总结
// @Summary 获取 AI 月度总结
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param month query int false "月份，默认当前月"
// @Param year query int false "年份，默认当前年"
// @Success 200 {object} Response{data=models.AISummary} "获取成功"
// @Failure 404 {object} Response "尚未生成"
// @Router /api/v1/ai-summary [get]
func (h *SummaryHandler) LatestAISummary(c *gin.Context) {
	month, year, ok := bindPeriod(c)
	if !ok {
		return
	}
	var summary models.AISummary
	err := database.DB.Where("user_id = ? AND month = ? AND year = ?", middleware.GetCurrentUserID(c), month, year).
		Order("id DESC").
		First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "Nenhum resumo gerado para este mês")
			return
		}
		handleError(c, err)
		return
	}
	Success(c, summary)
}
