package router

import (
	"net/http"
	"time"

	"finplan/api"
	"finplan/config"
	"finplan/docs"
	"finplan/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/logger"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// 登录、验证码、重置密码接口每个 IP 的限流
const (
	authMaxAttempts = 10
	authWindow      = time.Minute
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	// 不打印路由表
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, numHandlers int) {}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	_ = r.SetTrustedProxies(nil)

	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(logger.SetLogger(
		logger.WithWriter(gin.DefaultWriter),
		logger.WithDefaultLevel(zerolog.InfoLevel),
		logger.WithClientErrorLevel(zerolog.InfoLevel),
		logger.WithServerErrorLevel(zerolog.ErrorLevel),
		logger.WithSkipPath([]string{"/health", "/metrics"}),
		logger.WithLogger(func(c *gin.Context, l zerolog.Logger) zerolog.Logger {
			return l.With().
				Str("request_id", requestid.Get(c)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", c.Writer.Status()).
				Str("client_ip", c.ClientIP()).
				Logger()
		})))
	r.Use(CORSMiddleware(cfg.Server.CORSOrigins))
	r.Use(middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	docs.SwaggerInfo.BasePath = "/"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authLimit := middleware.RateLimit(authMaxAttempts, authWindow)

	v1 := r.Group("/api/v1")
	{
		authHandler := api.NewAuthHandler(cfg)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authLimit, authHandler.Login)
			auth.POST("/verify-code", authLimit, authHandler.VerifyCode)
			auth.POST("/password/request-reset", authLimit, authHandler.RequestPasswordReset)
			auth.POST("/password/reset", authLimit, authHandler.ResetPassword)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			authorized.GET("/auth/profile", authHandler.GetProfile)

			categoryHandler := api.NewCategoryHandler()
			categories := authorized.Group("/categories")
			{
				categories.GET("", categoryHandler.List)
				categories.POST("", categoryHandler.Create)
				categories.GET("/:id", categoryHandler.Get)
				categories.PUT("/:id", categoryHandler.Update)
				categories.DELETE("/:id", categoryHandler.Delete)
			}

			transactionHandler := api.NewTransactionHandler()
			transactions := authorized.Group("/transactions")
			{
				transactions.GET("", transactionHandler.List)
				transactions.POST("", transactionHandler.Create)
				transactions.GET("/:id", transactionHandler.Get)
				transactions.PUT("/:id", transactionHandler.Update)
				transactions.DELETE("/:id", transactionHandler.Delete)
			}

			budgetHandler := api.NewCategoryBudgetHandler()
			budgets := authorized.Group("/category-budgets")
			{
				budgets.GET("", budgetHandler.Summary)
				budgets.POST("", budgetHandler.Upsert)
				budgets.DELETE("/:categoryId", budgetHandler.Delete)
			}

			// 子项路由沿用 :id 作为规则 ID，gin 要求同一层级的通配符同名
			ruleHandler := api.NewIncomeRuleHandler()
			rules := authorized.Group("/income-rules")
			{
				rules.GET("", ruleHandler.Summary)
				rules.POST("", ruleHandler.Create)
				rules.POST("/copy", ruleHandler.Copy)
				rules.POST("/reset", ruleHandler.Reset)
				rules.PUT("/:id", ruleHandler.Update)
				rules.DELETE("/:id", ruleHandler.Delete)
				rules.POST("/:id/items", ruleHandler.CreateItem)
				rules.PUT("/:id/items/:itemId", ruleHandler.UpdateItem)
				rules.DELETE("/:id/items/:itemId", ruleHandler.DeleteItem)
			}

			goalHandler := api.NewGoalHandler()
			goals := authorized.Group("/goals")
			{
				goals.GET("", goalHandler.List)
				goals.POST("", goalHandler.Create)
				goals.GET("/:id", goalHandler.Get)
				goals.PUT("/:id", goalHandler.Update)
				goals.DELETE("/:id", goalHandler.Delete)
				goals.GET("/:id/deposits", goalHandler.ListDeposits)
				goals.POST("/:id/deposits", goalHandler.Deposit)
				goals.DELETE("/:id/deposits/:depositId", goalHandler.DeleteDeposit)
			}

			summaryHandler := api.NewSummaryHandler(cfg)
			authorized.GET("/summary", summaryHandler.Dashboard)
			authorized.GET("/ai-summary", summaryHandler.LatestAISummary)
			authorized.POST("/ai-summary", summaryHandler.GenerateAISummary)

			exportHandler := api.NewExportHandler()
			export := authorized.Group("/export")
			{
				export.GET("/excel", exportHandler.ExportExcel)
				export.GET("/csv", exportHandler.ExportCSV)
			}
		}
	}

	return r
}

// CORSMiddleware 跨域配置；未配置来源时允许所有来源
func CORSMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
