package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/classroom-backend/internal/data/repos"
	types "github.com/yungbote/classroom-backend/internal/domain"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/platform/dbctx"
)

type CourseProgressAggregateDeps struct {
	Base BaseDeps

	Users          repos.UserRepo
	Courses        repos.CourseRepo
	Modules        repos.ModuleRepo
	Enrollments    repos.EnrollmentRepo
	ModuleProgress repos.ModuleProgressRepo
	CourseProgress repos.CourseProgressRepo
}

type courseProgressAggregate struct {
	deps CourseProgressAggregateDeps
}

func NewCourseProgressAggregate(deps CourseProgressAggregateDeps) domainagg.CourseProgressAggregate {
	deps.Base = deps.Base.withDefaults()
	return &courseProgressAggregate{deps: deps}
}

func (a *courseProgressAggregate) Contract() domainagg.Contract {
	return domainagg.CourseProgressAggregateContract
}

func (a *courseProgressAggregate) configured() bool {
	d := a.deps
	return d.Users != nil && d.Courses != nil && d.Modules != nil &&
		d.Enrollments != nil && d.ModuleProgress != nil && d.CourseProgress != nil
}

func (a *courseProgressAggregate) RecordModuleCompletion(ctx context.Context, in domainagg.RecordModuleCompletionInput) (domainagg.RecordModuleCompletionResult, error) {
	const op = "Learning.CourseProgress.RecordModuleCompletion"
	var out domainagg.RecordModuleCompletionResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.ModuleID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing module_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "course progress aggregate repos not configured", nil)
	}
	at := eventTime(in.At)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		m, err := a.admit(dbc, op, in.UserID, in.ModuleID)
		if err != nil {
			return err
		}
		if in.Completed && !m.Published {
			return domainagg.NewError(domainagg.CodeModuleNotPublished, op, fmt.Sprintf("module is not published: %s", m.ID), nil)
		}

		completed := in.Completed
		row, _, err := a.upsertProgress(dbc, in.UserID, m.ID, &completed, at)
		if err != nil {
			return err
		}
		completion, err := recalculateCourseCompletion(dbc, progressRepos{
			Modules:        a.deps.Modules,
			Enrollments:    a.deps.Enrollments,
			ModuleProgress: a.deps.ModuleProgress,
			CourseProgress: a.deps.CourseProgress,
		}, in.UserID, m.CourseID, at)
		if err != nil {
			return err
		}
		out = domainagg.RecordModuleCompletionResult{Progress: row, CourseID: m.CourseID, Course: completion}
		return nil
	})
	return out, err
}

func (a *courseProgressAggregate) TouchModule(ctx context.Context, in domainagg.TouchModuleInput) (domainagg.TouchModuleResult, error) {
	const op = "Learning.CourseProgress.TouchModule"
	var out domainagg.TouchModuleResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.ModuleID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing module_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "course progress aggregate repos not configured", nil)
	}
	at := eventTime(in.At)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		m, err := a.admit(dbc, op, in.UserID, in.ModuleID)
		if err != nil {
			return err
		}
		if !m.Published {
			return domainagg.NewError(domainagg.CodeModuleNotPublished, op, fmt.Sprintf("module is not published: %s", m.ID), nil)
		}
		row, created, err := a.upsertProgress(dbc, in.UserID, m.ID, nil, at)
		if err != nil {
			return err
		}
		out = domainagg.TouchModuleResult{Progress: row, CourseID: m.CourseID, Created: created}
		return nil
	})
	return out, err
}

// admit loads the module and checks the learner may write progress for it.
// The course row is share-locked so structure edits of the course wait for
// this write (and vice versa); progress writes do not block each other.
func (a *courseProgressAggregate) admit(dbc dbctx.Context, op string, userID, moduleID uuid.UUID) (*types.Module, error) {
	m, err := a.deps.Modules.GetByID(dbc, moduleID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("module not found: %s", moduleID), nil)
	}
	u, err := a.deps.Users.GetByID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("user not found: %s", userID), nil)
	}
	course, err := a.deps.Courses.ShareLockByID(dbc, m.CourseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("course not found: %s", m.CourseID), nil)
	}
	locked, err := a.deps.Modules.GetByID(dbc, moduleID)
	if err != nil {
		return nil, err
	}
	if locked == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("module not found: %s", moduleID), nil)
	}
	if locked.CourseID != course.ID {
		return nil, ConflictError("module changed course concurrently")
	}

	enrollment, err := a.deps.Enrollments.GetByUserAndCourse(dbc, userID, course.ID)
	if err != nil {
		return nil, err
	}
	if !enrollment.GrantsProgress() {
		return nil, domainagg.NewError(domainagg.CodeNotEnrolled, op, fmt.Sprintf("user is not enrolled in course %s", course.ID), nil)
	}
	return locked, nil
}

// upsertProgress reads the (user, module) row and either inserts it or
// updates it. completed == nil only records the access.
func (a *courseProgressAggregate) upsertProgress(dbc dbctx.Context, userID, moduleID uuid.UUID, completed *bool, at time.Time) (*types.ModuleProgress, bool, error) {
	row, err := a.deps.ModuleProgress.GetByUserAndModule(dbc, userID, moduleID)
	if err != nil {
		return nil, false, err
	}
	if row == nil {
		fresh := &types.ModuleProgress{UserID: userID, ModuleID: moduleID, LastAccessedAt: &at}
		if completed != nil && *completed {
			fresh.Completed = true
			fresh.CompletedAt = &at
		}
		created, err := a.deps.ModuleProgress.Insert(dbc, fresh)
		if err != nil {
			return nil, false, err
		}
		if created {
			return fresh, true, nil
		}
		// lost an insert race; fall through to the update branch
		if row, err = a.deps.ModuleProgress.GetByUserAndModule(dbc, userID, moduleID); err != nil {
			return nil, false, err
		}
		if row == nil {
			return nil, false, ConflictError("module progress changed concurrently")
		}
	}

	updates := map[string]interface{}{"last_accessed_at": at}
	row.LastAccessedAt = &at
	if completed != nil {
		switch {
		case *completed && !row.Completed:
			updates["completed"] = true
			updates["completed_at"] = at
			row.Completed = true
			row.CompletedAt = &at
		case !*completed && row.Completed:
			updates["completed"] = false
			updates["completed_at"] = nil
			row.Completed = false
			row.CompletedAt = nil
		}
	}
	if err := a.deps.ModuleProgress.UpdateFields(dbc, row.ID, updates); err != nil {
		return nil, false, err
	}
	row.UpdatedAt = time.Now().UTC()
	return row, false, nil
}
