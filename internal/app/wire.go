package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/aggregates"
	"github.com/yungbote/classroom-backend/internal/data/repos"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	apihttp "github.com/yungbote/classroom-backend/internal/http"
	httpH "github.com/yungbote/classroom-backend/internal/http/handlers"
	httpMW "github.com/yungbote/classroom-backend/internal/http/middleware"
	"github.com/yungbote/classroom-backend/internal/observability"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/realtime"
	"github.com/yungbote/classroom-backend/internal/services"
)

type Aggregates struct {
	Structure  domainagg.CourseStructureAggregate
	Progress   domainagg.CourseProgressAggregate
	Enrollment domainagg.EnrollmentAggregate
}

type Services struct {
	Auth        services.AuthService
	Structure   services.StructureService
	Progress    services.ProgressService
	Enrollments services.EnrollmentService
}

func wireAggregates(db *gorm.DB, log *logger.Logger, cfg TxConfig, metrics *observability.Metrics, set repos.Set) (Aggregates, error) {
	log.Info("Wiring aggregates...")
	base := aggregates.BaseDeps{
		DB:       db,
		Log:      log,
		Runner:   aggregates.NewRetryingTxRunner(aggregates.NewGormTxRunner(db), cfg.Attempts, cfg.Backoff),
		Hooks:    aggregates.NewObservabilityHooks(metrics),
		CASGuard: aggregates.NewCASGuard(db),
	}
	aggs := Aggregates{
		Structure: aggregates.NewCourseStructureAggregate(aggregates.CourseStructureAggregateDeps{
			Base:           base,
			Users:          set.Users,
			Courses:        set.Courses,
			Prerequisites:  set.Prerequisites,
			Modules:        set.Modules,
			Enrollments:    set.Enrollments,
			ModuleProgress: set.ModuleProgress,
			CourseProgress: set.CourseProgress,
		}),
		Progress: aggregates.NewCourseProgressAggregate(aggregates.CourseProgressAggregateDeps{
			Base:           base,
			Users:          set.Users,
			Courses:        set.Courses,
			Modules:        set.Modules,
			Enrollments:    set.Enrollments,
			ModuleProgress: set.ModuleProgress,
			CourseProgress: set.CourseProgress,
		}),
		Enrollment: aggregates.NewEnrollmentAggregate(aggregates.EnrollmentAggregateDeps{
			Base:           base,
			Users:          set.Users,
			Courses:        set.Courses,
			Prerequisites:  set.Prerequisites,
			Modules:        set.Modules,
			Enrollments:    set.Enrollments,
			ModuleProgress: set.ModuleProgress,
			CourseProgress: set.CourseProgress,
		}),
	}
	if err := domainagg.ValidateContracts(aggs.Structure, aggs.Progress, aggs.Enrollment); err != nil {
		return Aggregates{}, err
	}
	return aggs, nil
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, set repos.Set, aggs Aggregates, notify services.CourseNotifier) (Services, error) {
	log.Info("Wiring services...")
	auth, err := services.NewAuthService(log, set.Users, cfg.Auth)
	if err != nil {
		return Services{}, err
	}
	return Services{
		Auth:        auth,
		Structure:   services.NewStructureService(db, log, set, aggs.Structure, notify),
		Progress:    services.NewProgressService(db, log, set, aggs.Progress, notify),
		Enrollments: services.NewEnrollmentService(db, log, set, aggs.Enrollment, notify),
	}, nil
}

func wireRouter(db *gorm.DB, log *logger.Logger, cfg Config, metrics *observability.Metrics, svcs Services, hub *realtime.Hub, emit services.Emitter) apihttp.RouterConfig {
	log.Info("Wiring router...")
	rc := apihttp.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		Emitter:           emit,
		CORSOrigins:       cfg.CORSOrigins,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, svcs.Auth),
		HealthHandler:     httpH.NewHealthHandler(db),
		CourseHandler:     httpH.NewCourseHandler(svcs.Structure),
		ModuleHandler:     httpH.NewModuleHandler(svcs.Structure, svcs.Progress),
		EnrollmentHandler: httpH.NewEnrollmentHandler(svcs.Enrollments, svcs.Progress),
		RealtimeHandler:   httpH.NewRealtimeHandler(log, hub, svcs.Structure),
	}
	if cfg.Otel.Enabled {
		rc.ServiceName = cfg.Otel.ServiceName
	}
	return rc
}
