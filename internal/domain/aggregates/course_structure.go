package aggregates

import (
	"context"

	"github.com/google/uuid"
	"github.com/yungbote/classroom-backend/internal/domain/learning"
)

var CourseStructureAggregateContract = Contract{
	Name:             "Learning.CourseStructureAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns course/module lifecycle and the contiguous 1..N module ordering of every course.",
}

// CourseStructureAggregate owns course and module structure writes.
//
// Every write locks the affected course rows (ascending id order) and their
// module rows before planning position shifts.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeInvariantViolation, CodePersistence, CodeInternal.
type CourseStructureAggregate interface {
	Aggregate

	CreateCourse(ctx context.Context, in CreateCourseInput) (CreateCourseResult, error)
	SetCoursePublished(ctx context.Context, in SetCoursePublishedInput) (SetCoursePublishedResult, error)
	// DeleteCourse removes the course with its modules, enrollments and progress rows.
	DeleteCourse(ctx context.Context, in DeleteCourseInput) (DeleteCourseResult, error)

	CreateModule(ctx context.Context, in CreateModuleInput) (CreateModuleResult, error)
	MoveModule(ctx context.Context, in MoveModuleInput) (MoveModuleResult, error)
	DeleteModule(ctx context.Context, in DeleteModuleInput) (DeleteModuleResult, error)
	SetModulePublished(ctx context.Context, in SetModulePublishedInput) (SetModulePublishedResult, error)

	// VerifyOrdering fails with CodeInvariantViolation when positions are not exactly 1..N.
	VerifyOrdering(ctx context.Context, courseID uuid.UUID) (OrderingReport, error)
}

type CreateCourseInput struct {
	CreatorID        uuid.UUID
	Title            string
	Description      string
	Published        bool
	Capacity         *int
	RequiresApproval bool
	PrerequisiteIDs  []uuid.UUID
	Metadata         map[string]any
}

type CreateCourseResult struct {
	Course          *learning.Course
	PrerequisiteIDs []uuid.UUID
}

type SetCoursePublishedInput struct {
	CourseID  uuid.UUID
	Published bool
}

type SetCoursePublishedResult struct {
	Course  *learning.Course
	Changed bool
}

type DeleteCourseInput struct {
	CourseID uuid.UUID
}

type DeleteCourseResult struct {
	CourseID       uuid.UUID
	DeletedModules int
}

type CreateModuleInput struct {
	CourseID    uuid.UUID
	Title       string
	Description string
	// Position is clamped to [1, count+1]; nil appends after the current maximum.
	Position  *int
	Published bool
	Metadata  map[string]any
}

type CreateModuleResult struct {
	Module       *learning.Module
	Recalculated []CompletionChange
}

type MoveModuleInput struct {
	ModuleID uuid.UUID
	// TargetCourseID nil (or equal to the current course) moves within the course.
	TargetCourseID *uuid.UUID
	TargetPosition int
}

type MoveModuleResult struct {
	Module         *learning.Module
	SourceCourseID uuid.UUID
	FromPosition   int
	Moved          bool
	Recalculated   []CompletionChange
}

type DeleteModuleInput struct {
	ModuleID uuid.UUID
}

type DeleteModuleResult struct {
	ModuleID     uuid.UUID
	CourseID     uuid.UUID
	Position     int
	Recalculated []CompletionChange
}

type SetModulePublishedInput struct {
	ModuleID  uuid.UUID
	Published bool
}

type SetModulePublishedResult struct {
	Module       *learning.Module
	Changed      bool
	Recalculated []CompletionChange
}

type OrderingReport struct {
	CourseID uuid.UUID
	Count    int
}
