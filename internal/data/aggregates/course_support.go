package aggregates

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/classroom-backend/internal/data/repos"
	types "github.com/yungbote/classroom-backend/internal/domain"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/domain/learning/ordering"
	"github.com/yungbote/classroom-backend/internal/domain/learning/progress"
	"github.com/yungbote/classroom-backend/internal/platform/dbctx"
	"gorm.io/datatypes"
)

// lockCourses locks the course rows in ascending id-string order, then every
// module row of those courses. Two writers touching the same pair of courses
// always acquire locks in the same order.
func lockCourses(dbc dbctx.Context, courses repos.CourseRepo, modules repos.ModuleRepo, op string, ids ...uuid.UUID) (map[uuid.UUID]*types.Course, error) {
	seen := map[uuid.UUID]bool{}
	ordered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].String() < ordered[j].String() })

	out := make(map[uuid.UUID]*types.Course, len(ordered))
	for _, id := range ordered {
		c, err := courses.LockByID(dbc, id)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("course not found: %s", id), nil)
		}
		out[id] = c
	}
	if _, err := modules.LockByCourseIDs(dbc, ordered); err != nil {
		return nil, err
	}
	return out, nil
}

func applyPlan(dbc dbctx.Context, modules repos.ModuleRepo, plan ordering.Plan) error {
	for _, s := range plan.Shifts {
		if _, err := modules.ShiftPositions(dbc, s.CourseID, s.Range.From, s.Range.To, s.Delta); err != nil {
			return err
		}
	}
	return nil
}

func verifyContiguous(dbc dbctx.Context, modules repos.ModuleRepo, courseIDs ...uuid.UUID) (int, error) {
	total := 0
	for _, id := range courseIDs {
		positions, err := modules.ListPositions(dbc, id)
		if err != nil {
			return 0, err
		}
		if err := ordering.Verify(positions); err != nil {
			return 0, InvariantError(fmt.Sprintf("course %s: %v", id, err))
		}
		total += len(positions)
	}
	return total, nil
}

type progressRepos struct {
	Modules        repos.ModuleRepo
	Enrollments    repos.EnrollmentRepo
	ModuleProgress repos.ModuleProgressRepo
	CourseProgress repos.CourseProgressRepo
}

// recalculateCourseCompletion derives the learner's CourseProgress from the
// published modules of the course and keeps the enrollment status in step.
func recalculateCourseCompletion(dbc dbctx.Context, r progressRepos, userID, courseID uuid.UUID, at time.Time) (domainagg.CourseCompletion, error) {
	var out domainagg.CourseCompletion
	total, err := r.Modules.CountPublishedByCourseID(dbc, courseID)
	if err != nil {
		return out, err
	}
	done, err := r.ModuleProgress.CountCompletedPublished(dbc, userID, courseID)
	if err != nil {
		return out, err
	}
	out.Summary = progress.Summarize(done, total)

	row, err := r.CourseProgress.GetByUserAndCourse(dbc, userID, courseID)
	if err != nil {
		return out, err
	}
	if row == nil {
		fresh := &types.CourseProgress{UserID: userID, CourseID: courseID, Completed: out.Summary.Completed}
		if fresh.Completed {
			fresh.CompletedAt = &at
		}
		created, err := r.CourseProgress.Insert(dbc, fresh)
		if err != nil {
			return out, err
		}
		if created {
			out.Changed = fresh.Completed
			out.CompletedAt = fresh.CompletedAt
			return out, syncEnrollmentStatus(dbc, r, userID, courseID, out.Summary.Completed)
		}
		if row, err = r.CourseProgress.GetByUserAndCourse(dbc, userID, courseID); err != nil {
			return out, err
		}
		if row == nil {
			return out, ConflictError("course progress changed concurrently")
		}
	}

	out.CompletedAt = row.CompletedAt
	if row.Completed != out.Summary.Completed {
		updates := map[string]interface{}{"completed": out.Summary.Completed, "completed_at": nil}
		out.CompletedAt = nil
		if out.Summary.Completed {
			updates["completed_at"] = at
			out.CompletedAt = &at
		}
		if err := r.CourseProgress.UpdateFields(dbc, row.ID, updates); err != nil {
			return out, err
		}
		out.Changed = true
	}
	return out, syncEnrollmentStatus(dbc, r, userID, courseID, out.Summary.Completed)
}

func syncEnrollmentStatus(dbc dbctx.Context, r progressRepos, userID, courseID uuid.UUID, completed bool) error {
	if r.Enrollments == nil {
		return nil
	}
	e, err := r.Enrollments.GetByUserAndCourse(dbc, userID, courseID)
	if err != nil || e == nil {
		return err
	}
	status := types.NormalizeEnrollmentStatus(e.Status)
	switch {
	case completed && status == types.EnrollmentActive:
		return r.Enrollments.UpdateFields(dbc, e.ID, map[string]interface{}{"status": types.EnrollmentCompleted})
	case !completed && status == types.EnrollmentCompleted:
		return r.Enrollments.UpdateFields(dbc, e.ID, map[string]interface{}{"status": types.EnrollmentActive})
	}
	return nil
}

// refreshCourseProgress recalculates completion for every learner holding an
// ACTIVE or COMPLETED enrollment in the course, and for every learner who
// already has a CourseProgress row there (dropped or pending ones included)
// so no stored completion outlives a change to the published module set.
func refreshCourseProgress(dbc dbctx.Context, r progressRepos, courseID uuid.UUID, at time.Time) ([]domainagg.CompletionChange, error) {
	enrolled, err := r.Enrollments.ListUserIDsByCourseAndStatuses(dbc, courseID, types.ProgressStatuses())
	if err != nil {
		return nil, err
	}
	tracked, err := r.CourseProgress.ListUserIDsByCourseID(dbc, courseID)
	if err != nil {
		return nil, err
	}
	userIDs := unionUserIDs(enrolled, tracked)
	var changes []domainagg.CompletionChange
	for _, userID := range userIDs {
		res, err := recalculateCourseCompletion(dbc, r, userID, courseID, at)
		if err != nil {
			return nil, err
		}
		if res.Changed {
			changes = append(changes, domainagg.CompletionChange{
				UserID:    userID,
				CourseID:  courseID,
				Completed: res.Summary.Completed,
			})
		}
	}
	return changes, nil
}

func unionUserIDs(lists ...[]uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	out := []uuid.UUID{}
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func metadataJSON(meta map[string]any) (datatypes.JSON, error) {
	if len(meta) == 0 {
		return datatypes.JSON([]byte("{}")), nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, ValidationError(fmt.Sprintf("invalid metadata: %v", err))
	}
	return datatypes.JSON(raw), nil
}
