package api

import (
	"errors"
	"strings"
	"time"

	"finplan/config"
	"finplan/database"
	"finplan/middleware"
	"finplan/models"
	"finplan/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CodeMailer 发送 6 位验证码邮件
type CodeMailer interface {
	SendLoginCode(toEmail, name, code string) error
	SendPasswordResetCode(toEmail, name, code string) error
}

// AuthHandler 认证处理器
type AuthHandler struct {
	cfg    *config.Config
	mailer CodeMailer
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		cfg:    cfg,
		mailer: service.NewEmailService(&cfg.Email, cfg.Auth.CodeTTL()),
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100" example:"Ana"`
	Email    string `json:"email" binding:"required,max=255" example:"ana@example.com"`
	Password string `json:"password" binding:"required,min=6,max=72" example:"senha123"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=255" example:"ana@example.com"`
	Password string `json:"password" binding:"required" example:"senha123"`
}

// VerifyCodeRequest 登录验证码
type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required,max=255" example:"ana@example.com"`
	Code  string `json:"code" binding:"required,len=6" example:"123456"`
}

// RequestResetRequest 申请重置密码
type RequestResetRequest struct {
	Email string `json:"email" binding:"required,max=255" example:"ana@example.com"`
}

// ResetPasswordRequest 使用验证码重置密码
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,max=255" example:"ana@example.com"`
	Code        string `json:"code" binding:"required,len=6" example:"123456"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=72" example:"novaSenha123"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token        string       `json:"token,omitempty"`
	User         *models.User `json:"user,omitempty"`
	RequiresCode bool         `json:"requiresCode"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// bindEmail 先去空格转小写，再校验格式
func bindEmail(c *gin.Context, raw string) (string, bool) {
	email := normalizeEmail(raw)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.Var(email, "email"); err != nil {
			ValidationFailed(c, "Dados inválidos", map[string]string{"email": "E-mail inválido"})
			return "", false
		}
	}
	return email, true
}

func (h *AuthHandler) tokenFor(user *models.User) (*LoginResponse, error) {
	token, err := middleware.GenerateToken(user.ID, user.Email, h.cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, User: user}, nil
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建账号并写入默认分类，返回 token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 201 {object} Response{data=LoginResponse} "注册成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	email, ok := bindEmail(c, req.Email)
	if !ok {
		return
	}

	var count int64
	if err := database.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		handleError(c, err)
		return
	}
	if count > 0 {
		ValidationFailed(c, "E-mail já cadastrado", map[string]string{"email": "E-mail já cadastrado"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		handleError(c, err)
		return
	}

	user := models.User{Name: strings.TrimSpace(req.Name), Email: email, Password: string(hashed)}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return service.SeedDefaults(tx, user.ID)
	})
	if err != nil {
		handleError(c, err)
		return
	}

	resp, err := h.tokenFor(&user)
	if err != nil {
		handleError(c, err)
		return
	}
	log.Info().Uint("user_id", user.ID).Msg("user registered")
	Created(c, resp)
}

// Login 用户登录
// @Summary 用户登录
// @Description 开启 auth.login_code 时发送邮箱验证码并返回 requiresCode=true，否则直接返回 token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} Response{data=LoginResponse} "登录成功"
// @Failure 401 {object} Response "邮箱或密码错误"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	email, ok := bindEmail(c, req.Email)
	if !ok {
		return
	}

	var user models.User
	if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Unauthorized(c, "E-mail ou senha inválidos")
			return
		}
		handleError(c, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		Unauthorized(c, "E-mail ou senha inválidos")
		return
	}

	if h.cfg.Auth.LoginCode {
		if err := h.issueCode(&user, models.VerificationTypeLogin); err != nil {
			handleError(c, err)
			return
		}
		SuccessWithMessage(c, "Código enviado para o seu e-mail", LoginResponse{RequiresCode: true})
		return
	}

	resp, err := h.tokenFor(&user)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, resp)
}

// issueCode 作废旧验证码，生成新验证码并发送邮件
func (h *AuthHandler) issueCode(user *models.User, kind string) error {
	code, err := models.GenerateVerificationCode()
	if err != nil {
		return err
	}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.EmailVerification{}).
			Where("email = ? AND type = ? AND used = ?", user.Email, kind, false).
			Update("used", true).Error; err != nil {
			return err
		}
		return tx.Create(&models.EmailVerification{
			Email:     user.Email,
			Code:      code,
			Type:      kind,
			ExpiresAt: time.Now().Add(h.cfg.Auth.CodeTTL()),
		}).Error
	})
	if err != nil {
		return err
	}

	if kind == models.VerificationTypeReset {
		return h.mailer.SendPasswordResetCode(user.Email, user.Name, code)
	}
	return h.mailer.SendLoginCode(user.Email, user.Name, code)
}

// consumeCode 校验并作废验证码，一个验证码只能使用一次
func consumeCode(tx *gorm.DB, email, code, kind string) error {
	invalid := service.FieldError("code", "Código inválido ou expirado")

	var v models.EmailVerification
	err := tx.Where("email = ? AND code = ? AND type = ? AND used = ?", email, code, kind, false).
		Order("id DESC").
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalid
	}
	if err != nil {
		return err
	}
	if !v.IsValid() {
		return invalid
	}

	res := tx.Model(&models.EmailVerification{}).
		Where("id = ? AND used = ?", v.ID, false).
		Update("used", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return invalid
	}
	return nil
}

// VerifyCode 校验登录验证码并返回 token
// @Summary 校验登录验证码
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body VerifyCodeRequest true "邮箱与验证码"
// @Success 200 {object} Response{data=LoginResponse} "登录成功"
// @Failure 400 {object} Response "验证码无效"
// @Router /api/v1/auth/verify-code [post]
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	email, ok := bindEmail(c, req.Email)
	if !ok {
		return
	}

	var user models.User
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := consumeCode(tx, email, req.Code, models.VerificationTypeLogin); err != nil {
			return err
		}
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return service.NewNotFoundError("Usuário não encontrado")
			}
			return err
		}
		return nil
	})
	if err != nil {
		handleError(c, err)
		return
	}

	resp, err := h.tokenFor(&user)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, resp)
}

// RequestPasswordReset 申请重置密码
// @Summary 申请重置密码
// @Description 邮箱已注册时发送 6 位验证码；无论是否注册都返回成功
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RequestResetRequest true "邮箱"
// @Success 200 {object} Response "已处理"
// @Router /api/v1/auth/password/request-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req RequestResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	email, ok := bindEmail(c, req.Email)
	if !ok {
		return
	}

	var user models.User
	err := database.DB.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		if err := h.issueCode(&user, models.VerificationTypeReset); err != nil {
			handleError(c, err)
			return
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		handleError(c, err)
		return
	}
	SuccessWithMessage(c, "Se o e-mail estiver cadastrado, você receberá um código", nil)
}

// ResetPassword 使用验证码重置密码
// @Summary 重置密码
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "邮箱、验证码与新密码"
// @Success 200 {object} Response "重置成功"
// @Failure 400 {object} Response "验证码无效"
// @Router /api/v1/auth/password/reset [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	email, ok := bindEmail(c, req.Email)
	if !ok {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		handleError(c, err)
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := consumeCode(tx, email, req.Code, models.VerificationTypeReset); err != nil {
			return err
		}
		res := tx.Model(&models.User{}).Where("email = ?", email).Update("password", string(hashed))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return service.NewNotFoundError("Usuário não encontrado")
		}
		return nil
	})
	if err != nil {
		handleError(c, err)
		return
	}
	SuccessWithMessage(c, "Senha redefinida com sucesso", nil)
}

// GetProfile 获取用户信息
// @Summary 获取当前用户信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "Usuário não encontrado")
			return
		}
		handleError(c, err)
		return
	}
	Success(c, user)
}
