package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/aggregates"
	"github.com/yungbote/classroom-backend/internal/data/repos"
	types "github.com/yungbote/classroom-backend/internal/domain"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/domain/learning/progress"
	"github.com/yungbote/classroom-backend/internal/platform/apierr"
	"github.com/yungbote/classroom-backend/internal/platform/dbctx"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

type ProgressService interface {
	MarkModuleComplete(ctx context.Context, moduleID uuid.UUID, completed bool) (domainagg.RecordModuleCompletionResult, error)
	TouchModule(ctx context.Context, moduleID uuid.UUID) (domainagg.TouchModuleResult, error)
	// GetCourseProgress reads a learner's progress; userID == uuid.Nil means the caller.
	GetCourseProgress(ctx context.Context, courseID, userID uuid.UUID) (*CourseProgressView, error)
}

type CourseProgressView struct {
	UserID      uuid.UUID               `json:"user_id"`
	CourseID    uuid.UUID               `json:"course_id"`
	Status      string                  `json:"enrollment_status"`
	Percentage  int                     `json:"percentage"`
	Done        int                     `json:"done"`
	Total       int                     `json:"total"`
	Completed   bool                    `json:"completed"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
	Modules     []*types.ModuleProgress `json:"modules"`
}

type progressService struct {
	db     *gorm.DB
	log    *logger.Logger
	repos  repos.Set
	agg    domainagg.CourseProgressAggregate
	notify CourseNotifier
}

func NewProgressService(
	db *gorm.DB,
	baseLog *logger.Logger,
	set repos.Set,
	agg domainagg.CourseProgressAggregate,
	notify CourseNotifier,
) ProgressService {
	return &progressService{
		db:     db,
		log:    baseLog.With("service", "ProgressService"),
		repos:  set,
		agg:    agg,
		notify: notify,
	}
}

// MarkModuleComplete records the caller's own completion flag for a module.
func (s *progressService) MarkModuleComplete(ctx context.Context, moduleID uuid.UUID, completed bool) (domainagg.RecordModuleCompletionResult, error) {
	rd, err := caller(ctx)
	if err != nil {
		return domainagg.RecordModuleCompletionResult{}, err
	}
	res, err := s.agg.RecordModuleCompletion(ctx, domainagg.RecordModuleCompletionInput{
		UserID:    rd.UserID,
		ModuleID:  moduleID,
		Completed: completed,
	})
	if err != nil {
		return res, err
	}
	s.notify.ProgressUpdated(ctx, rd.UserID, res)
	return res, nil
}

func (s *progressService) TouchModule(ctx context.Context, moduleID uuid.UUID) (domainagg.TouchModuleResult, error) {
	rd, err := caller(ctx)
	if err != nil {
		return domainagg.TouchModuleResult{}, err
	}
	return s.agg.TouchModule(ctx, domainagg.TouchModuleInput{UserID: rd.UserID, ModuleID: moduleID})
}

func (s *progressService) GetCourseProgress(ctx context.Context, courseID, userID uuid.UUID) (*CourseProgressView, error) {
	const op = "ProgressService.GetCourseProgress"
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if courseID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing course_id", nil)
	}
	if userID == uuid.Nil {
		userID = rd.UserID
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: s.db}
	course, err := s.repos.Courses.GetByID(dbc, courseID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if course == nil {
		return nil, courseNotFound(op, courseID)
	}
	if userID != rd.UserID && !canManage(rd, course) {
		return nil, apierr.Forbidden("not allowed to view this learner's progress")
	}

	enrollment, err := s.repos.Enrollments.GetByUserAndCourse(dbc, userID, courseID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if enrollment == nil {
		return nil, domainagg.NewError(domainagg.CodeNotEnrolled, op, "user is not enrolled in course", nil)
	}
	total, err := s.repos.Modules.CountPublishedByCourseID(dbc, courseID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	done, err := s.repos.ModuleProgress.CountCompletedPublished(dbc, userID, courseID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	rows, err := s.repos.ModuleProgress.ListByUserAndCourse(dbc, userID, courseID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if rows == nil {
		rows = []*types.ModuleProgress{}
	}
	summary := progress.Summarize(done, total)
	view := &CourseProgressView{
		UserID:     userID,
		CourseID:   courseID,
		Status:     enrollment.Status,
		Percentage: summary.Percentage,
		Done:       summary.Done,
		Total:      summary.Total,
		Completed:  summary.Completed,
		Modules:    rows,
	}
	cp, err := s.repos.CourseProgress.GetByUserAndCourse(dbc, userID, courseID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if cp != nil && cp.Completed {
		view.CompletedAt = cp.CompletedAt
	}
	return view, nil
}
