package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/classroom-backend/internal/domain/learning"
)

var EnrollmentAggregateContract = Contract{
	Name:             "Learning.EnrollmentAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns enrollment admission (publication, capacity, prerequisites) and status transitions.",
}

// EnrollmentAggregate owns enrollment writes.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodePreconditionFailed, CodeInvariantViolation, CodePersistence, CodeInternal.
type EnrollmentAggregate interface {
	Aggregate

	Enroll(ctx context.Context, in EnrollInput) (EnrollResult, error)
	SetEnrollmentStatus(ctx context.Context, in SetEnrollmentStatusInput) (SetEnrollmentStatusResult, error)
}

type EnrollInput struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
	At       time.Time
}

type EnrollResult struct {
	Enrollment  *learning.Enrollment
	Reactivated bool
}

type SetEnrollmentStatusInput struct {
	EnrollmentID uuid.UUID
	Status       string
	At           time.Time
}

type SetEnrollmentStatusResult struct {
	Enrollment     *learning.Enrollment
	PreviousStatus string
}
