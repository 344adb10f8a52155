package aggregates

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yungbote/classroom-backend/internal/data/repos"
	types "github.com/yungbote/classroom-backend/internal/domain"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/platform/dbctx"
)

type EnrollmentAggregateDeps struct {
	Base BaseDeps

	Users          repos.UserRepo
	Courses        repos.CourseRepo
	Prerequisites  repos.CoursePrerequisiteRepo
	Modules        repos.ModuleRepo
	Enrollments    repos.EnrollmentRepo
	ModuleProgress repos.ModuleProgressRepo
	CourseProgress repos.CourseProgressRepo
}

type enrollmentAggregate struct {
	deps EnrollmentAggregateDeps
}

func NewEnrollmentAggregate(deps EnrollmentAggregateDeps) domainagg.EnrollmentAggregate {
	deps.Base = deps.Base.withDefaults()
	return &enrollmentAggregate{deps: deps}
}

func (a *enrollmentAggregate) Contract() domainagg.Contract {
	return domainagg.EnrollmentAggregateContract
}

func (a *enrollmentAggregate) configured() bool {
	d := a.deps
	return d.Users != nil && d.Courses != nil && d.Prerequisites != nil && d.Modules != nil &&
		d.Enrollments != nil && d.ModuleProgress != nil && d.CourseProgress != nil
}

func (a *enrollmentAggregate) progressRepos() progressRepos {
	return progressRepos{
		Modules:        a.deps.Modules,
		Enrollments:    a.deps.Enrollments,
		ModuleProgress: a.deps.ModuleProgress,
		CourseProgress: a.deps.CourseProgress,
	}
}

func (a *enrollmentAggregate) Enroll(ctx context.Context, in domainagg.EnrollInput) (domainagg.EnrollResult, error) {
	const op = "Learning.Enrollment.Enroll"
	var out domainagg.EnrollResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.CourseID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing course_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "enrollment aggregate repos not configured", nil)
	}
	at := eventTime(in.At)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		u, err := a.deps.Users.GetByID(dbc, in.UserID)
		if err != nil {
			return err
		}
		if u == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("user not found: %s", in.UserID), nil)
		}
		course, err := a.deps.Courses.LockByID(dbc, in.CourseID)
		if err != nil {
			return err
		}
		if course == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("course not found: %s", in.CourseID), nil)
		}
		if !course.Published {
			return PreconditionError("course is not published")
		}

		existing, err := a.deps.Enrollments.GetByUserAndCourse(dbc, in.UserID, course.ID)
		if err != nil {
			return err
		}
		if existing != nil && types.NormalizeEnrollmentStatus(existing.Status) != types.EnrollmentDropped {
			return ConflictError("user is already enrolled in course")
		}
		if err := a.requirePrerequisites(dbc, in.UserID, course.ID); err != nil {
			return err
		}
		if err := a.requireSeat(dbc, course); err != nil {
			return err
		}

		status := types.EnrollmentActive
		if course.RequiresApproval {
			status = types.EnrollmentPending
		}
		if existing != nil {
			ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, "enrollment", existing.ID, []string{types.EnrollmentDropped}, map[string]any{
				"status":     status,
				"updated_at": at,
			})
			if err != nil {
				return err
			}
			if err := RequireCASSuccess(ok, "enrollment changed while re-enrolling"); err != nil {
				return err
			}
			out.Reactivated = true
		} else {
			row := &types.Enrollment{UserID: in.UserID, CourseID: course.ID, Status: status}
			if _, err := a.deps.Enrollments.Create(dbc, []*types.Enrollment{row}); err != nil {
				return err
			}
		}

		if status == types.EnrollmentActive {
			if _, err := recalculateCourseCompletion(dbc, a.progressRepos(), in.UserID, course.ID, at); err != nil {
				return err
			}
		}
		enrollment, err := a.deps.Enrollments.GetByUserAndCourse(dbc, in.UserID, course.ID)
		if err != nil {
			return err
		}
		out.Enrollment = enrollment
		return nil
	})
	return out, err
}

func (a *enrollmentAggregate) SetEnrollmentStatus(ctx context.Context, in domainagg.SetEnrollmentStatusInput) (domainagg.SetEnrollmentStatusResult, error) {
	const op = "Learning.Enrollment.SetEnrollmentStatus"
	var out domainagg.SetEnrollmentStatusResult
	if in.EnrollmentID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing enrollment_id", nil)
	}
	status := types.NormalizeEnrollmentStatus(in.Status)
	if status != types.EnrollmentActive && status != types.EnrollmentDropped {
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("status must be %s or %s", types.EnrollmentActive, types.EnrollmentDropped), nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "enrollment aggregate repos not configured", nil)
	}
	at := eventTime(in.At)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Enrollments.GetByID(dbc, in.EnrollmentID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("enrollment not found: %s", in.EnrollmentID), nil)
		}
		// course before enrollment, the same order Enroll uses
		course, err := a.deps.Courses.LockByID(dbc, current.CourseID)
		if err != nil {
			return err
		}
		if course == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("course not found: %s", current.CourseID), nil)
		}
		e, err := a.deps.Enrollments.LockByID(dbc, in.EnrollmentID)
		if err != nil {
			return err
		}
		if e == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("enrollment not found: %s", in.EnrollmentID), nil)
		}

		prev := types.NormalizeEnrollmentStatus(e.Status)
		out.PreviousStatus = prev
		out.Enrollment = e
		if prev == status {
			return nil
		}

		switch status {
		case types.EnrollmentActive:
			if err := RequireStatusAllowed(prev, types.EnrollmentPending, types.EnrollmentDropped); err != nil {
				return err
			}
			if prev == types.EnrollmentDropped {
				if !course.Published {
					return PreconditionError("course is not published")
				}
				if err := a.requireSeat(dbc, course); err != nil {
					return err
				}
			}
		case types.EnrollmentDropped:
			if err := RequireStatusAllowed(prev, types.EnrollmentPending, types.EnrollmentActive, types.EnrollmentCompleted); err != nil {
				return err
			}
		}

		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, "enrollment", e.ID, []string{e.Status}, map[string]any{
			"status":     status,
			"updated_at": at,
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "enrollment changed concurrently"); err != nil {
			return err
		}
		if status == types.EnrollmentActive {
			if _, err := recalculateCourseCompletion(dbc, a.progressRepos(), e.UserID, e.CourseID, at); err != nil {
				return err
			}
		}
		updated, err := a.deps.Enrollments.GetByID(dbc, e.ID)
		if err != nil {
			return err
		}
		out.Enrollment = updated
		return nil
	})
	return out, err
}

func (a *enrollmentAggregate) requirePrerequisites(dbc dbctx.Context, userID, courseID uuid.UUID) error {
	required, err := a.deps.Prerequisites.ListPrerequisiteIDs(dbc, courseID)
	if err != nil || len(required) == 0 {
		return err
	}
	done, err := a.deps.CourseProgress.CompletedCourseIDs(dbc, userID, required)
	if err != nil {
		return err
	}
	if len(done) < len(required) {
		return PreconditionError(fmt.Sprintf("%d of %d prerequisite courses completed", len(done), len(required)))
	}
	return nil
}

func (a *enrollmentAggregate) requireSeat(dbc dbctx.Context, course *types.Course) error {
	if course.Capacity == nil {
		return nil
	}
	taken, err := a.deps.Enrollments.CountByCourseAndStatuses(dbc, course.ID, types.SeatHoldingStatuses())
	if err != nil {
		return err
	}
	if taken >= *course.Capacity {
		return ConflictError("course is full")
	}
	return nil
}
