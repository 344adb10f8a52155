package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/classroom-backend/internal/http/handlers"
	httpMW "github.com/yungbote/classroom-backend/internal/http/middleware"
	"github.com/yungbote/classroom-backend/internal/observability"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/services"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	Emitter     services.Emitter
	CORSOrigins []string
	// ServiceName enables otelgin spans when set.
	ServiceName string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	CourseHandler     *httpH.CourseHandler
	ModuleHandler     *httpH.ModuleHandler
	EnrollmentHandler *httpH.EnrollmentHandler
	RealtimeHandler   *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.AttachRequestContext(cfg.Log, cfg.Emitter))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Courses
	if cfg.CourseHandler != nil {
		protected.POST("/courses", cfg.CourseHandler.CreateCourse)
		protected.GET("/courses/:id", cfg.CourseHandler.GetCourse)
		protected.POST("/courses/:id/publish", cfg.CourseHandler.SetPublished)
		protected.DELETE("/courses/:id", cfg.CourseHandler.DeleteCourse)
		protected.GET("/courses/:id/ordering", cfg.CourseHandler.VerifyOrdering)
		protected.GET("/courses/:id/modules", cfg.CourseHandler.ListModules)
		protected.POST("/courses/:id/modules", cfg.CourseHandler.CreateModule)
	}

	// Modules
	if cfg.ModuleHandler != nil {
		protected.PATCH("/modules/:id", cfg.ModuleHandler.UpdateModule)
		protected.POST("/modules/:id/move", cfg.ModuleHandler.MoveModule)
		protected.POST("/modules/:id/publish", cfg.ModuleHandler.SetPublished)
		protected.DELETE("/modules/:id", cfg.ModuleHandler.DeleteModule)
		protected.POST("/modules/:id/complete", cfg.ModuleHandler.MarkComplete)
		protected.POST("/modules/:id/access", cfg.ModuleHandler.TouchModule)
	}

	// Enrollment + progress
	if cfg.EnrollmentHandler != nil {
		protected.POST("/courses/:id/enroll", cfg.EnrollmentHandler.Enroll)
		protected.PATCH("/enrollments/:id", cfg.EnrollmentHandler.SetStatus)
		protected.GET("/courses/:id/progress", cfg.EnrollmentHandler.GetCourseProgress)
	}

	// Realtime (SSE)
	if cfg.RealtimeHandler != nil {
		protected.GET("/courses/:id/events", cfg.RealtimeHandler.CourseEvents)
	}

	return r
}
