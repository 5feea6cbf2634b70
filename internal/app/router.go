package app

import (
	"coding_quiz_backend/docs"
	"coding_quiz_backend/internal/config"
	"coding_quiz_backend/internal/middleware"
	"coding_quiz_backend/internal/model"
	"coding_quiz_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.Health)

	router.GET("/rss", c.feed.RSS)
	router.GET("/sitemap.xml", c.feed.Sitemap)

	// 1. 公共路由（无需登录）
	a.registerPublicRoutes(router, c, repos, cfg)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerUserRoutes(authGroup, c)
	}

	// 3. 管理员接口
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	public := router.Group("/api")
	{
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.POST("/logout", c.auth.Logout)
		public.GET("/auth/check", middleware.TryAuthMiddleware(cfg), c.auth.Check)

		public.POST("/auth/forgot-password", c.auth.ForgotPassword)
		public.POST("/auth/reset-password", c.auth.ResetPassword)
		public.GET("/email-verification/verify", c.auth.VerifyEmail)

		// 答题相关：游客可用，登录用户附带个人进度
		problems := public.Group("/problems")
		problems.Use(middleware.TryAuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
		{
			problems.GET("/stats", c.problem.Stats)
			problems.GET("/subjects", c.problem.ListSubjects)
			problems.POST("/save-progress", c.problem.SaveProgress)
			problems.GET("/:subject", c.problem.Resolve)
			problems.POST("/:subject/submit", c.problem.Submit)
			problems.POST("/:subject/wrong-submit", c.problem.WrongSubmit)
			problems.GET("/:subject/progress", c.problem.Progress)
		}
	}
}

func (a *App) registerUserRoutes(group *gin.RouterGroup, c *controllers) {
	group.GET("/auth/me", c.auth.Profile)
	group.POST("/auth/change-password", c.auth.ChangePassword)
	group.DELETE("/auth/delete-account", c.auth.DeleteAccount)
	group.POST("/email-verification/request", c.auth.ResendVerification)
	group.POST("/email-verification/resend", c.auth.ResendVerification)

	group.GET("/dashboard", c.dashboard.Overview)
	group.GET("/dashboard/stats", c.dashboard.Stats)
	group.GET("/dashboard/wrong-problems/:subject", c.dashboard.WrongProblems)
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/stats", c.admin.Stats)

		admin.GET("/problems", c.admin.ListProblems)
		admin.POST("/problems", c.admin.CreateProblem)
		admin.PUT("/problems/:id", c.admin.UpdateProblem)
		admin.DELETE("/problems/:id", c.admin.DeleteProblem)

		admin.GET("/subjects", c.admin.ListSubjects)
		admin.POST("/subjects", c.admin.CreateSubject)
		admin.PUT("/subjects/order", c.admin.ReorderSubjects)
		admin.PUT("/subjects/:id", c.admin.UpdateSubject)
		admin.DELETE("/subjects/:id", c.admin.DeleteSubject)
		admin.PUT("/subjects/:id/public-status", c.admin.SetSubjectPublic)

		admin.POST("/export", c.admin.Export)
	}
}
