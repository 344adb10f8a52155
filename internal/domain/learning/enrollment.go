package learning

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EnrollmentPending   = "PENDING"
	EnrollmentActive    = "ACTIVE"
	EnrollmentCompleted = "COMPLETED"
	EnrollmentDropped   = "DROPPED"
)

type Enrollment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;column:user_id;not null;uniqueIndex:idx_enrollment_user_course,priority:1" json:"user_id"`
	CourseID uuid.UUID `gorm:"type:uuid;column:course_id;not null;uniqueIndex:idx_enrollment_user_course,priority:2;index" json:"course_id"`
	Status   string    `gorm:"column:status;not null;default:'ACTIVE';index" json:"status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// GrantsProgress reports whether the enrollment allows progress writes.
// COMPLETED keeps access so learners can revisit a finished course.
func (e *Enrollment) GrantsProgress() bool {
	if e == nil {
		return false
	}
	switch NormalizeEnrollmentStatus(e.Status) {
	case EnrollmentActive, EnrollmentCompleted:
		return true
	default:
		return false
	}
}

func NormalizeEnrollmentStatus(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// SeatHoldingStatuses count against course capacity.
func SeatHoldingStatuses() []string {
	return []string{EnrollmentPending, EnrollmentActive, EnrollmentCompleted}
}

// ProgressStatuses are the enrollment statuses whose holders have a CourseProgress.
func ProgressStatuses() []string {
	return []string{EnrollmentActive, EnrollmentCompleted}
}
