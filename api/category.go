package api

import (
	"strings"

	"finplan/database"
	"finplan/middleware"
	"finplan/models"
	"finplan/service"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 分类处理器
type CategoryHandler struct{}

// NewCategoryHandler 创建分类处理器
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// CreateCategoryRequest 创建分类请求
type CreateCategoryRequest struct {
	Name     string `json:"name" binding:"required,max=50" example:"Alimentação"`
	Icon     string `json:"icon" binding:"max=50" example:"utensils"`
	Color    string `json:"color" binding:"max=20" example:"#ef4444"`
	ParentID *uint  `json:"parentId" example:"1"`
}

// UpdateCategoryRequest 更新分类请求
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=50"`
	Icon        *string `json:"icon" binding:"omitempty,max=50"`
	Color       *string `json:"color" binding:"omitempty,max=20"`
	ParentID    *uint   `json:"parentId"`
	ClearParent bool    `json:"clearParent"`
}

// List 分类列表
// @Summary 分类列表
// @Description 默认返回父子结构；flat=true 时返回平铺列表
// @Tags 分类
// @Produce json
// @Security BearerAuth
// @Param flat query bool false "平铺"
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var categories []models.Category
	if err := database.DB.Where("user_id = ?", userID).Order("name ASC").Find(&categories).Error; err != nil {
		handleError(c, err)
		return
	}
	if c.Query("flat") == "true" {
		Success(c, categories)
		return
	}
	tree := models.BuildCategoryTree(categories)
	if tree == nil {
		tree = []models.Category{}
	}
	Success(c, tree)
}

// Get 单个分类
// @Summary 获取分类
// @Tags 分类
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类ID"
// @Success 200 {object} Response{data=models.Category} "获取成功"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/v1/categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	category, err := service.NewCategoryService(database.DB).Get(middleware.GetCurrentUserID(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, category)
}

// Create 创建分类
// @Summary 创建分类
// @Tags 分类
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCategoryRequest true "分类信息"
// @Success 201 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		ValidationFailed(c, "O nome é obrigatório", map[string]string{"name": "Campo obrigatório"})
		return
	}
	if err := service.NewCategoryService(database.DB).ValidateParent(userID, req.ParentID, 0); err != nil {
		handleError(c, err)
		return
	}

	color := req.Color
	if color == "" {
		color = models.DefaultCategoryColor
	}
	category := models.Category{
		UserID:   userID,
		Name:     name,
		Icon:     req.Icon,
		Color:    color,
		ParentID: req.ParentID,
	}
	if err := database.DB.Create(&category).Error; err != nil {
		handleError(c, err)
		return
	}
	Created(c, category)
}

// Update 更新分类
// @Summary 更新分类
// @Tags 分类
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类ID"
// @Param request body UpdateCategoryRequest true "分类信息"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	svc := service.NewCategoryService(database.DB)
	category, err := svc.Get(userID, id)
	if err != nil {
		handleError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			ValidationFailed(c, "O nome é obrigatório", map[string]string{"name": "Campo obrigatório"})
			return
		}
		updates["name"] = name
	}
	if req.Icon != nil {
		updates["icon"] = *req.Icon
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.ClearParent {
		updates["parent_id"] = nil
	} else if req.ParentID != nil {
		if err := svc.ValidateParent(userID, req.ParentID, category.ID); err != nil {
			handleError(c, err)
			return
		}
		updates["parent_id"] = *req.ParentID
	}

	if len(updates) > 0 {
		if err := database.DB.Model(category).Updates(updates).Error; err != nil {
			handleError(c, err)
			return
		}
	}
	updated, err := svc.Get(userID, id)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, updated)
}

// Delete 删除分类
// @Summary 删除分类
// @Description 子分类提升为顶级分类，相关交易取消分类，删除该分类的预算
// @Tags 分类
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := service.NewCategoryService(database.DB).Delete(middleware.GetCurrentUserID(c), id); err != nil {
		handleError(c, err)
		return
	}
	SuccessWithMessage(c, "Categoria removida", nil)
}
