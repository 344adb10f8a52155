package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/classroom-backend/internal/domain/learning"
	"github.com/yungbote/classroom-backend/internal/domain/learning/progress"
)

var CourseProgressAggregateContract = Contract{
	Name:             "Learning.CourseProgressAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns module progress upserts and the derived per-user course completion.",
}

// CourseProgressAggregate owns learner progress writes.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeNotEnrolled, CodeModuleNotPublished, CodePersistence, CodeInternal.
type CourseProgressAggregate interface {
	Aggregate

	// RecordModuleCompletion upserts the (user, module) progress row and
	// recalculates course completion in the same transaction.
	RecordModuleCompletion(ctx context.Context, in RecordModuleCompletionInput) (RecordModuleCompletionResult, error)

	// TouchModule records an access, creating the progress row on first visit.
	TouchModule(ctx context.Context, in TouchModuleInput) (TouchModuleResult, error)
}

type RecordModuleCompletionInput struct {
	UserID    uuid.UUID
	ModuleID  uuid.UUID
	Completed bool
	At        time.Time
}

type RecordModuleCompletionResult struct {
	Progress *learning.ModuleProgress
	CourseID uuid.UUID
	Course   CourseCompletion
}

// CourseCompletion is the recalculated course standing of one learner.
type CourseCompletion struct {
	Summary     progress.Summary
	CompletedAt *time.Time
	// Changed is true when this write flipped the completed flag.
	Changed bool
}

// CompletionChange reports a learner whose course completion flipped as a
// side effect of a structure edit (the set of published modules changed).
type CompletionChange struct {
	UserID    uuid.UUID
	CourseID  uuid.UUID
	Completed bool
}

type TouchModuleInput struct {
	UserID   uuid.UUID
	ModuleID uuid.UUID
	At       time.Time
}

type TouchModuleResult struct {
	Progress *learning.ModuleProgress
	CourseID uuid.UUID
	Created  bool
}
