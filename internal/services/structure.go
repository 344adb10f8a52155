package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/repos"
	types "github.com/yungbote/classroom-backend/internal/domain"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

// StructureService is the entry point for course and module structure. Every
// mutation is a single aggregate transaction; events go out after commit.
type StructureService interface {
	CreateCourse(ctx context.Context, in CreateCourseRequest) (*CourseView, error)
	GetCourse(ctx context.Context, courseID uuid.UUID) (*CourseView, error)
	SetCoursePublished(ctx context.Context, courseID uuid.UUID, published bool) (*types.Course, error)
	DeleteCourse(ctx context.Context, courseID uuid.UUID) (domainagg.DeleteCourseResult, error)
	VerifyCourseOrdering(ctx context.Context, courseID uuid.UUID) (domainagg.OrderingReport, error)

	ListModules(ctx context.Context, courseID uuid.UUID) ([]*types.Module, error)
	CreateModule(ctx context.Context, courseID uuid.UUID, in CreateModuleRequest) (*types.Module, error)
	UpdateModule(ctx context.Context, moduleID uuid.UUID, in UpdateModuleRequest) (*types.Module, error)
	MoveModule(ctx context.Context, moduleID uuid.UUID, in MoveModuleRequest) (domainagg.MoveModuleResult, error)
	DeleteModule(ctx context.Context, moduleID uuid.UUID) (domainagg.DeleteModuleResult, error)
	SetModulePublished(ctx context.Context, moduleID uuid.UUID, published bool) (*types.Module, error)
}

type CreateCourseRequest struct {
	Title            string         `json:"title" binding:"required"`
	Description      string         `json:"description"`
	Published        bool           `json:"published"`
	Capacity         *int           `json:"capacity"`
	RequiresApproval bool           `json:"requires_approval"`
	PrerequisiteIDs  []uuid.UUID    `json:"prerequisite_ids"`
	Metadata         map[string]any `json:"metadata"`
}

type CourseView struct {
	Course          *types.Course `json:"course"`
	PrerequisiteIDs []uuid.UUID   `json:"prerequisite_ids"`
	ModuleCount     int           `json:"module_count"`
}

type CreateModuleRequest struct {
	Title       string         `json:"title" binding:"required"`
	Description string         `json:"description"`
	Position    *int           `json:"position"`
	Published   bool           `json:"published"`
	Metadata    map[string]any `json:"metadata"`
}

type UpdateModuleRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Metadata    map[string]any `json:"metadata"`
}

type MoveModuleRequest struct {
	TargetCourseID *uuid.UUID `json:"target_course_id"`
	Position       int        `json:"position"`
}

type structureService struct {
	db     *gorm.DB
	log    *logger.Logger
	repos  repos.Set
	agg    domainagg.CourseStructureAggregate
	notify CourseNotifier
}

func NewStructureService(
	db *gorm.DB,
	baseLog *logger.Logger,
	set repos.Set,
	agg domainagg.CourseStructureAggregate,
	notify CourseNotifier,
) StructureService {
	return &structureService{
		db:     db,
		log:    baseLog.With("service", "StructureService"),
		repos:  set,
		agg:    agg,
		notify: notify,
	}
}
