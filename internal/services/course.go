package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/data/aggregates"
	types "github.com/yungbote/classroom-backend/internal/domain"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/platform/apierr"
	"github.com/yungbote/classroom-backend/internal/platform/ctxutil"
	"github.com/yungbote/classroom-backend/internal/platform/dbctx"
)

func (s *structureService) CreateCourse(ctx context.Context, in CreateCourseRequest) (*CourseView, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !isStaff(rd) {
		return nil, apierr.Forbidden("only teachers can create courses")
	}
	res, err := s.agg.CreateCourse(ctx, domainagg.CreateCourseInput{
		CreatorID:        rd.UserID,
		Title:            in.Title,
		Description:      in.Description,
		Published:        in.Published,
		Capacity:         in.Capacity,
		RequiresApproval: in.RequiresApproval,
		PrerequisiteIDs:  in.PrerequisiteIDs,
		Metadata:         in.Metadata,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("course created", "course_id", res.Course.ID, "creator_id", rd.UserID)
	return &CourseView{Course: res.Course, PrerequisiteIDs: nonNilIDs(res.PrerequisiteIDs)}, nil
}

// GetCourse hides unpublished courses from everyone but their managers.
func (s *structureService) GetCourse(ctx context.Context, courseID uuid.UUID) (*CourseView, error) {
	const op = "StructureService.GetCourse"
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	course, err := s.visibleCourse(ctx, op, rd, courseID)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: s.db}
	prereqs, err := s.repos.Prerequisites.ListPrerequisiteIDs(dbc, courseID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	count := 0
	if canManage(rd, course) {
		count, err = s.repos.Modules.CountByCourseID(dbc, courseID)
	} else {
		count, err = s.repos.Modules.CountPublishedByCourseID(dbc, courseID)
	}
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return &CourseView{Course: course, PrerequisiteIDs: nonNilIDs(prereqs), ModuleCount: count}, nil
}

func (s *structureService) SetCoursePublished(ctx context.Context, courseID uuid.UUID, published bool) (*types.Course, error) {
	if err := s.requireCourseManager(ctx, "StructureService.SetCoursePublished", courseID); err != nil {
		return nil, err
	}
	res, err := s.agg.SetCoursePublished(ctx, domainagg.SetCoursePublishedInput{CourseID: courseID, Published: published})
	if err != nil {
		return nil, err
	}
	if res.Changed {
		s.notify.CourseUpdated(ctx, res.Course)
	}
	return res.Course, nil
}

func (s *structureService) DeleteCourse(ctx context.Context, courseID uuid.UUID) (domainagg.DeleteCourseResult, error) {
	if err := s.requireCourseManager(ctx, "StructureService.DeleteCourse", courseID); err != nil {
		return domainagg.DeleteCourseResult{}, err
	}
	res, err := s.agg.DeleteCourse(ctx, domainagg.DeleteCourseInput{CourseID: courseID})
	if err != nil {
		return res, err
	}
	s.log.Info("course deleted", "course_id", courseID, "modules", res.DeletedModules)
	s.notify.CourseDeleted(ctx, courseID)
	return res, nil
}

func (s *structureService) VerifyCourseOrdering(ctx context.Context, courseID uuid.UUID) (domainagg.OrderingReport, error) {
	if err := s.requireCourseManager(ctx, "StructureService.VerifyCourseOrdering", courseID); err != nil {
		return domainagg.OrderingReport{CourseID: courseID}, err
	}
	return s.agg.VerifyOrdering(ctx, courseID)
}

func (s *structureService) loadCourse(ctx context.Context, op string, courseID uuid.UUID) (*types.Course, error) {
	if courseID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing course_id", nil)
	}
	course, err := s.repos.Courses.GetByID(dbctx.Context{Ctx: ctx, Tx: s.db}, courseID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if course == nil {
		return nil, courseNotFound(op, courseID)
	}
	return course, nil
}

// visibleCourse returns not_found for unpublished courses the caller cannot
// manage, so drafts are not discoverable by id.
func (s *structureService) visibleCourse(ctx context.Context, op string, rd *ctxutil.RequestData, courseID uuid.UUID) (*types.Course, error) {
	course, err := s.loadCourse(ctx, op, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Published && !canManage(rd, course) {
		return nil, courseNotFound(op, courseID)
	}
	return course, nil
}

func (s *structureService) requireCourseManager(ctx context.Context, op string, courseID uuid.UUID) error {
	rd, err := caller(ctx)
	if err != nil {
		return err
	}
	course, err := s.loadCourse(ctx, op, courseID)
	if err != nil {
		return err
	}
	return requireManage(rd, course)
}

func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
