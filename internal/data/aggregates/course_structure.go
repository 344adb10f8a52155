package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/classroom-backend/internal/data/repos"
	types "github.com/yungbote/classroom-backend/internal/domain"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/domain/learning/ordering"
	"github.com/yungbote/classroom-backend/internal/platform/dbctx"
)

type CourseStructureAggregateDeps struct {
	Base BaseDeps

	Users          repos.UserRepo
	Courses        repos.CourseRepo
	Prerequisites  repos.CoursePrerequisiteRepo
	Modules        repos.ModuleRepo
	Enrollments    repos.EnrollmentRepo
	ModuleProgress repos.ModuleProgressRepo
	CourseProgress repos.CourseProgressRepo
}

type courseStructureAggregate struct {
	deps CourseStructureAggregateDeps
}

func NewCourseStructureAggregate(deps CourseStructureAggregateDeps) domainagg.CourseStructureAggregate {
	deps.Base = deps.Base.withDefaults()
	return &courseStructureAggregate{deps: deps}
}

func (a *courseStructureAggregate) Contract() domainagg.Contract {
	return domainagg.CourseStructureAggregateContract
}

func (a *courseStructureAggregate) configured() bool {
	d := a.deps
	return d.Courses != nil && d.Modules != nil && d.Enrollments != nil &&
		d.ModuleProgress != nil && d.CourseProgress != nil
}

func (a *courseStructureAggregate) progressRepos() progressRepos {
	return progressRepos{
		Modules:        a.deps.Modules,
		Enrollments:    a.deps.Enrollments,
		ModuleProgress: a.deps.ModuleProgress,
		CourseProgress: a.deps.CourseProgress,
	}
}

func (a *courseStructureAggregate) CreateCourse(ctx context.Context, in domainagg.CreateCourseInput) (domainagg.CreateCourseResult, error) {
	const op = "Learning.CourseStructure.CreateCourse"
	var out domainagg.CreateCourseResult
	if in.CreatorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing creator_id", nil)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing title", nil)
	}
	if in.Capacity != nil && *in.Capacity < 1 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "capacity must be at least 1", nil)
	}
	if !a.configured() || a.deps.Users == nil || a.deps.Prerequisites == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "course structure aggregate repos not configured", nil)
	}
	meta, err := metadataJSON(in.Metadata)
	if err != nil {
		return out, MapError(op, err)
	}
	prereqIDs := uniqueIDs(in.PrerequisiteIDs)

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		creator, err := a.deps.Users.GetByID(dbc, in.CreatorID)
		if err != nil {
			return err
		}
		if creator == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("user not found: %s", in.CreatorID), nil)
		}
		if len(prereqIDs) > 0 {
			found, err := a.deps.Courses.GetByIDs(dbc, prereqIDs)
			if err != nil {
				return err
			}
			if len(found) != len(prereqIDs) {
				return domainagg.NewError(domainagg.CodeNotFound, op, "prerequisite course not found", nil)
			}
		}

		course := &types.Course{
			CreatorID:        in.CreatorID,
			Title:            title,
			Description:      strings.TrimSpace(in.Description),
			Published:        in.Published,
			Capacity:         in.Capacity,
			RequiresApproval: in.RequiresApproval,
			Metadata:         meta,
		}
		if _, err := a.deps.Courses.Create(dbc, []*types.Course{course}); err != nil {
			return err
		}
		edges := make([]*types.CoursePrerequisite, 0, len(prereqIDs))
		for _, id := range prereqIDs {
			edges = append(edges, &types.CoursePrerequisite{CourseID: course.ID, PrerequisiteID: id})
		}
		if _, err := a.deps.Prerequisites.Create(dbc, edges); err != nil {
			return err
		}
		out = domainagg.CreateCourseResult{Course: course, PrerequisiteIDs: prereqIDs}
		return nil
	})
	return out, err
}

func (a *courseStructureAggregate) SetCoursePublished(ctx context.Context, in domainagg.SetCoursePublishedInput) (domainagg.SetCoursePublishedResult, error) {
	const op = "Learning.CourseStructure.SetCoursePublished"
	var out domainagg.SetCoursePublishedResult
	if in.CourseID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing course_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "course structure aggregate repos not configured", nil)
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		course, err := a.deps.Courses.LockByID(dbc, in.CourseID)
		if err != nil {
			return err
		}
		if course == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("course not found: %s", in.CourseID), nil)
		}
		if course.Published != in.Published {
			if err := a.deps.Courses.UpdateFields(dbc, course.ID, map[string]interface{}{"published": in.Published}); err != nil {
				return err
			}
			course.Published = in.Published
			out.Changed = true
		}
		out.Course = course
		return nil
	})
	return out, err
}

func (a *courseStructureAggregate) DeleteCourse(ctx context.Context, in domainagg.DeleteCourseInput) (domainagg.DeleteCourseResult, error) {
	const op = "Learning.CourseStructure.DeleteCourse"
	var out domainagg.DeleteCourseResult
	if in.CourseID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing course_id", nil)
	}
	if !a.configured() || a.deps.Prerequisites == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "course structure aggregate repos not configured", nil)
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := lockCourses(dbc, a.deps.Courses, a.deps.Modules, op, in.CourseID); err != nil {
			return err
		}
		courseIDs := []uuid.UUID{in.CourseID}
		moduleIDs, err := a.deps.Modules.ListIDsByCourseIDs(dbc, courseIDs)
		if err != nil {
			return err
		}
		if err := a.deps.ModuleProgress.DeleteByModuleIDs(dbc, moduleIDs); err != nil {
			return err
		}
		if err := a.deps.CourseProgress.DeleteByCourseIDs(dbc, courseIDs); err != nil {
			return err
		}
		if err := a.deps.Enrollments.DeleteByCourseIDs(dbc, courseIDs); err != nil {
			return err
		}
		if err := a.deps.Prerequisites.DeleteByCourseIDs(dbc, courseIDs); err != nil {
			return err
		}
		n, err := a.deps.Modules.DeleteByCourseIDs(dbc, courseIDs)
		if err != nil {
			return err
		}
		if err := a.deps.Courses.DeleteByIDs(dbc, courseIDs); err != nil {
			return err
		}
		out = domainagg.DeleteCourseResult{CourseID: in.CourseID, DeletedModules: int(n)}
		return nil
	})
	return out, err
}

func (a *courseStructureAggregate) CreateModule(ctx context.Context, in domainagg.CreateModuleInput) (domainagg.CreateModuleResult, error) {
	const op = "Learning.CourseStructure.CreateModule"
	var out domainagg.CreateModuleResult
	if in.CourseID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing course_id", nil)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing title", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "course structure aggregate repos not configured", nil)
	}
	meta, err := metadataJSON(in.Metadata)
	if err != nil {
		return out, MapError(op, err)
	}
	at := time.Now().UTC()

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := lockCourses(dbc, a.deps.Courses, a.deps.Modules, op, in.CourseID); err != nil {
			return err
		}
		count, err := a.deps.Modules.CountByCourseID(dbc, in.CourseID)
		if err != nil {
			return err
		}
		maxPos, err := a.deps.Modules.MaxPosition(dbc, in.CourseID)
		if err != nil {
			return err
		}
		plan := ordering.PlanInsert(in.CourseID, count, maxPos, in.Position)
		if err := applyPlan(dbc, a.deps.Modules, plan); err != nil {
			return err
		}

		m := &types.Module{
			CourseID:    in.CourseID,
			Title:       title,
			Description: strings.TrimSpace(in.Description),
			Position:    plan.Placement.Position,
			Published:   in.Published,
			Metadata:    meta,
		}
		if _, err := a.deps.Modules.Create(dbc, []*types.Module{m}); err != nil {
			return err
		}
		if _, err := verifyContiguous(dbc, a.deps.Modules, in.CourseID); err != nil {
			return err
		}
		out.Module = m
		if m.Published {
			changes, err := refreshCourseProgress(dbc, a.progressRepos(), in.CourseID, at)
			if err != nil {
				return err
			}
			out.Recalculated = changes
		}
		return nil
	})
	return out, err
}

func (a *courseStructureAggregate) MoveModule(ctx context.Context, in domainagg.MoveModuleInput) (domainagg.MoveModuleResult, error) {
	const op = "Learning.CourseStructure.MoveModule"
	var out domainagg.MoveModuleResult
	if in.ModuleID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing module_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "course structure aggregate repos not configured", nil)
	}
	at := time.Now().UTC()

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Modules.GetByID(dbc, in.ModuleID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("module not found: %s", in.ModuleID), nil)
		}
		source := current.CourseID
		target := source
		if in.TargetCourseID != nil && *in.TargetCourseID != uuid.Nil {
			target = *in.TargetCourseID
		}
		if _, err := lockCourses(dbc, a.deps.Courses, a.deps.Modules, op, source, target); err != nil {
			return err
		}

		m, err := a.deps.Modules.LockByID(dbc, in.ModuleID)
		if err != nil {
			return err
		}
		if m == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("module not found: %s", in.ModuleID), nil)
		}
		if m.CourseID != source {
			return ConflictError("module changed course while moving")
		}

		sourceCount, err := a.deps.Modules.CountByCourseID(dbc, source)
		if err != nil {
			return err
		}
		targetCount := 0
		if target != source {
			if targetCount, err = a.deps.Modules.CountByCourseID(dbc, target); err != nil {
				return err
			}
		}
		plan := ordering.PlanMove(ordering.Move{
			SourceCourseID:  source,
			CurrentPosition: m.Position,
			SourceCount:     sourceCount,
			TargetCourseID:  target,
			TargetPosition:  in.TargetPosition,
			TargetCount:     targetCount,
		})

		out.SourceCourseID = source
		out.FromPosition = m.Position
		if plan.Placement.CourseID == source && plan.Placement.Position == m.Position {
			out.Module = m
			return nil
		}

		if err := applyPlan(dbc, a.deps.Modules, plan); err != nil {
			return err
		}
		if err := a.deps.Modules.UpdateFields(dbc, m.ID, map[string]interface{}{
			"course_id": plan.Placement.CourseID,
			"position":  plan.Placement.Position,
		}); err != nil {
			return err
		}
		if _, err := verifyContiguous(dbc, a.deps.Modules, uniqueIDs([]uuid.UUID{source, target})...); err != nil {
			return err
		}

		if target != source && m.Published {
			for _, courseID := range []uuid.UUID{source, target} {
				changes, err := refreshCourseProgress(dbc, a.progressRepos(), courseID, at)
				if err != nil {
					return err
				}
				out.Recalculated = append(out.Recalculated, changes...)
			}
		}

		moved, err := a.deps.Modules.GetByID(dbc, m.ID)
		if err != nil {
			return err
		}
		out.Module = moved
		out.Moved = true
		return nil
	})
	return out, err
}

func (a *courseStructureAggregate) DeleteModule(ctx context.Context, in domainagg.DeleteModuleInput) (domainagg.DeleteModuleResult, error) {
	const op = "Learning.CourseStructure.DeleteModule"
	var out domainagg.DeleteModuleResult
	if in.ModuleID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing module_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "course structure aggregate repos not configured", nil)
	}
	at := time.Now().UTC()

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		m, err := a.lockModule(dbc, op, in.ModuleID)
		if err != nil {
			return err
		}
		count, err := a.deps.Modules.CountByCourseID(dbc, m.CourseID)
		if err != nil {
			return err
		}
		plan := ordering.PlanRemove(m.CourseID, m.Position, count)
		if err := applyPlan(dbc, a.deps.Modules, plan); err != nil {
			return err
		}
		if err := a.deps.ModuleProgress.DeleteByModuleIDs(dbc, []uuid.UUID{m.ID}); err != nil {
			return err
		}
		if err := a.deps.Modules.DeleteByIDs(dbc, []uuid.UUID{m.ID}); err != nil {
			return err
		}
		if _, err := verifyContiguous(dbc, a.deps.Modules, m.CourseID); err != nil {
			return err
		}

		out = domainagg.DeleteModuleResult{ModuleID: m.ID, CourseID: m.CourseID, Position: m.Position}
		if m.Published {
			changes, err := refreshCourseProgress(dbc, a.progressRepos(), m.CourseID, at)
			if err != nil {
				return err
			}
			out.Recalculated = changes
		}
		return nil
	})
	return out, err
}

func (a *courseStructureAggregate) SetModulePublished(ctx context.Context, in domainagg.SetModulePublishedInput) (domainagg.SetModulePublishedResult, error) {
	const op = "Learning.CourseStructure.SetModulePublished"
	var out domainagg.SetModulePublishedResult
	if in.ModuleID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing module_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "course structure aggregate repos not configured", nil)
	}
	at := time.Now().UTC()

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		m, err := a.lockModule(dbc, op, in.ModuleID)
		if err != nil {
			return err
		}
		out.Module = m
		if m.Published == in.Published {
			return nil
		}
		if err := a.deps.Modules.UpdateFields(dbc, m.ID, map[string]interface{}{"published": in.Published}); err != nil {
			return err
		}
		m.Published = in.Published
		out.Changed = true

		changes, err := refreshCourseProgress(dbc, a.progressRepos(), m.CourseID, at)
		if err != nil {
			return err
		}
		out.Recalculated = changes
		return nil
	})
	return out, err
}

func (a *courseStructureAggregate) VerifyOrdering(ctx context.Context, courseID uuid.UUID) (domainagg.OrderingReport, error) {
	const op = "Learning.CourseStructure.VerifyOrdering"
	out := domainagg.OrderingReport{CourseID: courseID}
	if courseID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing course_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "course structure aggregate repos not configured", nil)
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		course, err := a.deps.Courses.GetByID(dbc, courseID)
		if err != nil {
			return err
		}
		if course == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("course not found: %s", courseID), nil)
		}
		n, err := verifyContiguous(dbc, a.deps.Modules, courseID)
		if err != nil {
			return err
		}
		out.Count = n
		return nil
	})
	return out, err
}

// lockModule resolves the module's course, locks it with its modules, then
// re-reads the module under lock.
func (a *courseStructureAggregate) lockModule(dbc dbctx.Context, op string, moduleID uuid.UUID) (*types.Module, error) {
	current, err := a.deps.Modules.GetByID(dbc, moduleID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("module not found: %s", moduleID), nil)
	}
	if _, err := lockCourses(dbc, a.deps.Courses, a.deps.Modules, op, current.CourseID); err != nil {
		return nil, err
	}
	m, err := a.deps.Modules.LockByID(dbc, moduleID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("module not found: %s", moduleID), nil)
	}
	if m.CourseID != current.CourseID {
		return nil, ConflictError("module changed course concurrently")
	}
	return m, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
