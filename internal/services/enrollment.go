package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/aggregates"
	"github.com/yungbote/classroom-backend/internal/data/repos"
	types "github.com/yungbote/classroom-backend/internal/domain"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/platform/apierr"
	"github.com/yungbote/classroom-backend/internal/platform/dbctx"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, courseID uuid.UUID) (domainagg.EnrollResult, error)
	SetEnrollmentStatus(ctx context.Context, enrollmentID uuid.UUID, status string) (*types.Enrollment, error)
}

type enrollmentService struct {
	db     *gorm.DB
	log    *logger.Logger
	repos  repos.Set
	agg    domainagg.EnrollmentAggregate
	notify CourseNotifier
}

func NewEnrollmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	set repos.Set,
	agg domainagg.EnrollmentAggregate,
	notify CourseNotifier,
) EnrollmentService {
	return &enrollmentService{
		db:     db,
		log:    baseLog.With("service", "EnrollmentService"),
		repos:  set,
		agg:    agg,
		notify: notify,
	}
}

// Enroll enrolls the caller.
func (s *enrollmentService) Enroll(ctx context.Context, courseID uuid.UUID) (domainagg.EnrollResult, error) {
	rd, err := caller(ctx)
	if err != nil {
		return domainagg.EnrollResult{}, err
	}
	res, err := s.agg.Enroll(ctx, domainagg.EnrollInput{UserID: rd.UserID, CourseID: courseID})
	if err != nil {
		return res, err
	}
	s.notify.EnrollmentUpdated(ctx, res.Enrollment)
	return res, nil
}

// SetEnrollmentStatus lets learners drop themselves; approving or
// reinstating an enrollment needs a course manager.
func (s *enrollmentService) SetEnrollmentStatus(ctx context.Context, enrollmentID uuid.UUID, status string) (*types.Enrollment, error) {
	const op = "EnrollmentService.SetEnrollmentStatus"
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if enrollmentID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing enrollment_id", nil)
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: s.db}
	e, err := s.repos.Enrollments.GetByID(dbc, enrollmentID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if e == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "enrollment not found", nil)
	}
	course, err := s.repos.Courses.GetByID(dbc, e.CourseID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	manager := canManage(rd, course)
	selfDrop := e.UserID == rd.UserID && types.NormalizeEnrollmentStatus(status) == types.EnrollmentDropped
	if !manager && !selfDrop {
		return nil, apierr.Forbidden("not allowed to change this enrollment")
	}

	res, err := s.agg.SetEnrollmentStatus(ctx, domainagg.SetEnrollmentStatusInput{EnrollmentID: enrollmentID, Status: status})
	if err != nil {
		return nil, err
	}
	if res.PreviousStatus != types.NormalizeEnrollmentStatus(res.Enrollment.Status) {
		s.log.Info("enrollment status changed", "enrollment_id", enrollmentID, "from", res.PreviousStatus, "to", res.Enrollment.Status)
		s.notify.EnrollmentUpdated(ctx, res.Enrollment)
	}
	return res.Enrollment, nil
}
