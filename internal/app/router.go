package app

import (
	"health_track_backend/docs"
	"health_track_backend/internal/middleware"
	"health_track_backend/internal/model"
	"health_track_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(a.services.auth))
	{
		a.registerPatientRoutes(authGroup, c)

		// 3. 管理员相关接口
		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.Admin))
		{
			admin.POST("/programs/:programId/glossary", c.program.CreateGlossaryTerm)
			admin.POST("/programs/:programId/videos", c.program.UploadVideo)
		}
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/programs", c.program.ListPrograms)
		public.GET("/programs/:programId", c.program.GetProgram)
	}
}

func (a *App) registerPatientRoutes(group *gin.RouterGroup, c *controllers) {
	auth := group.Group("/auth")
	{
		auth.POST("/refresh", c.auth.Refresh)
		auth.POST("/logout", c.auth.Logout)
		auth.GET("/profile", c.auth.Profile)
	}

	group.GET("/enrollments", c.program.ListEnrollments)

	programs := group.Group("/programs/:programId")
	{
		programs.POST("/enroll", c.program.Enroll)
		programs.GET("/enrollment", c.program.GetEnrollment)
		programs.GET("/assessments/:kind/questions", c.program.AssessmentQuestions)
		programs.POST("/assessments/:kind", c.program.SubmitAssessment)
		programs.POST("/video/complete", c.program.CompleteIntroVideo)
		programs.POST("/steps/:step/complete", c.program.CompleteStep)
		programs.GET("/glossary", c.program.Glossary)
		programs.GET("/videos", c.program.Videos)
	}

	visits := group.Group("/visits")
	{
		visits.POST("", c.visit.Create)
		visits.GET("", c.visit.List)
		visits.GET("/:id", c.visit.Get)
		visits.PUT("/:id/steps/:step", c.visit.SubmitStep)
		visits.DELETE("/:id", c.visit.Delete)
		visits.GET("/:id/report", c.visit.Report)
	}

	medications := group.Group("/medications")
	{
		medications.GET("", c.medication.List)
		medications.POST("", c.medication.Add)
		medications.GET("/report", c.medication.Report)
		medications.PUT("/:id", c.medication.Update)
		medications.DELETE("/:id", c.medication.Delete)
		medications.POST("/:id/stop", c.medication.Stop)
		medications.POST("/:id/notes", c.medication.AddNote)
		medications.GET("/:id/history", c.medication.History)
	}

	records := group.Group("/records")
	{
		records.POST("", c.medicalRecord.Upload)
		records.GET("", c.medicalRecord.List)
		records.GET("/:id/download", c.medicalRecord.Download)
		records.DELETE("/:id", c.medicalRecord.Delete)
	}
}
