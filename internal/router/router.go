package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/colegio-altavista/portal-api/internal/handler"
	"github.com/colegio-altavista/portal-api/internal/middleware"
	"github.com/colegio-altavista/portal-api/internal/models"
	"github.com/colegio-altavista/portal-api/internal/repository"
	"github.com/colegio-altavista/portal-api/internal/service"
	"github.com/colegio-altavista/portal-api/pkg/config"
	"github.com/colegio-altavista/portal-api/pkg/logger"
	corsmiddleware "github.com/colegio-altavista/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/colegio-altavista/portal-api/pkg/middleware/requestid"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Dashboard    *handler.DashboardHandler
	User         *handler.UserHandler
	Catalog      *handler.CatalogHandler
	Assignment   *handler.AssignmentHandler
	Attendance   *handler.AttendanceHandler
	News         *handler.NewsHandler
	Notification *handler.NotificationHandler
	File         *handler.FileHandler
	Export       *handler.ExportHandler
	Metrics      *handler.MetricsHandler
}

// New builds the gin engine with middleware and the full route table.
func New(cfg *config.Config, logr *zap.Logger, authService *service.AuthService, metricsService *service.MetricsService, auditRepo *repository.UserRepository, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))
	{
		protected.POST("/auth/logout", h.Auth.Logout)
		protected.POST("/auth/change-password", h.Auth.ChangePassword)

		protected.GET("/dashboard/student", middleware.RequireRoles(models.RoleStudent), h.Dashboard.Student)
		protected.GET("/dashboard/teacher", middleware.RequireRoles(models.RoleTeacher), h.Dashboard.Teacher)
		protected.GET("/dashboard/admin", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), h.Dashboard.Admin)

		admin := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

		students := protected.Group("/students")
		{
			students.POST("", admin, h.User.CreateStudent)
			students.GET("", admin, h.User.ListStudents)
			students.GET("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin), string(models.RoleTeacher), "SELF"), h.User.GetStudent)
			students.PUT("/:id", admin, h.User.UpdateStudent)
		}

		teachers := protected.Group("/teachers")
		{
			teachers.POST("", admin, h.User.CreateTeacher)
			teachers.GET("", admin, h.User.ListTeachers)
			teachers.GET("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin), "SELF"), h.User.GetTeacher)
			teachers.PUT("/:id", admin, h.User.UpdateTeacher)
		}

		protected.DELETE("/users/:id", admin, h.User.Delete)

		periods := protected.Group("/periods")
		{
			periods.GET("/current", h.Catalog.CurrentPeriod)
			periods.GET("", h.Catalog.ListPeriods)
			periods.POST("", admin, h.Catalog.CreatePeriod)
		}

		courses := protected.Group("/courses")
		{
			courses.GET("", h.Catalog.ListCourses)
			courses.POST("", admin, h.Catalog.CreateCourse)
		}

		classes := protected.Group("/classes")
		{
			classes.POST("", admin, h.Catalog.CreateClass)
			classes.GET("/:id", h.Catalog.GetClass)
			classes.GET("/:id/roster", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin, models.RoleSuperAdmin), h.Catalog.Roster)
			classes.POST("/:id/enrollments", admin, h.Catalog.Enroll)
			classes.DELETE("/:id/enrollments/:studentId", admin, h.Catalog.Unenroll)

			classes.GET("/:id/assignments", middleware.RequireRoles(models.RoleTeacher), h.Assignment.ListByClass)

			classes.GET("/:id/attendance", middleware.RequireRoles(models.RoleTeacher), h.Attendance.Sheet)
			classes.POST("/:id/attendance", middleware.RequireRoles(models.RoleTeacher), h.Attendance.Save)
			classes.GET("/:id/attendance/export", middleware.RequireRoles(models.RoleTeacher), middleware.Audit(auditRepo, "EXPORT", "attendance_register"), h.Export.AttendanceRegister)
		}

		assignments := protected.Group("/assignments")
		{
			assignments.POST("", middleware.RequireRoles(models.RoleTeacher), h.Assignment.Create)
			assignments.GET("/:id", h.Assignment.Get)
			assignments.PUT("/:id", middleware.RequireRoles(models.RoleTeacher), h.Assignment.Update)
			assignments.DELETE("/:id", middleware.RequireRoles(models.RoleTeacher), h.Assignment.Delete)
			assignments.POST("/:id/submission", middleware.RequireRoles(models.RoleStudent), h.Assignment.Submit)
			assignments.GET("/:id/submission", middleware.RequireRoles(models.RoleStudent), h.Assignment.MySubmission)
			assignments.GET("/:id/submissions", middleware.RequireRoles(models.RoleTeacher), h.Assignment.ListSubmissions)
		}

		protected.PUT("/submissions/:id/grade", middleware.RequireRoles(models.RoleTeacher), h.Assignment.Grade)

		news := protected.Group("/news")
		{
			news.GET("", h.News.List)
			news.GET("/:id", h.News.Get)
			news.POST("", admin, h.News.Create)
			news.PUT("/:id", admin, h.News.Update)
			news.DELETE("/:id", admin, h.News.Delete)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", h.Notification.List)
			notifications.POST("", admin, h.Notification.Send)
		}

		files := protected.Group("/files")
		{
			files.POST("", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin, models.RoleSuperAdmin), middleware.Audit(auditRepo, "FILE_UPLOAD", "file"), h.File.Upload)
			files.GET("/download", h.File.Download)
		}
	}

	return r
}
