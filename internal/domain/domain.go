package domain

import (
	"github.com/yungbote/classroom-backend/internal/domain/learning"
	"github.com/yungbote/classroom-backend/internal/domain/user"
)

const (
	RoleAdmin   = user.RoleAdmin
	RoleTeacher = user.RoleTeacher
	RoleStudent = user.RoleStudent

	EnrollmentPending   = learning.EnrollmentPending
	EnrollmentActive    = learning.EnrollmentActive
	EnrollmentCompleted = learning.EnrollmentCompleted
	EnrollmentDropped   = learning.EnrollmentDropped
)

type User = user.User

type Course = learning.Course
type CoursePrerequisite = learning.CoursePrerequisite
type Module = learning.Module
type Enrollment = learning.Enrollment
type ModuleProgress = learning.ModuleProgress
type CourseProgress = learning.CourseProgress

var (
	SeatHoldingStatuses = learning.SeatHoldingStatuses
	ProgressStatuses    = learning.ProgressStatuses

	NormalizeEnrollmentStatus = learning.NormalizeEnrollmentStatus
	NormalizeRole             = user.NormalizeRole
)

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&CoursePrerequisite{},
		&Module{},
		&Enrollment{},
		&ModuleProgress{},
		&CourseProgress{},
	}
}
