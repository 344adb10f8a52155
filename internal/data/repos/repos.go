package repos

import (
	"github.com/yungbote/classroom-backend/internal/data/repos/learning"
	"github.com/yungbote/classroom-backend/internal/data/repos/user"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo

type CourseRepo = learning.CourseRepo
type CoursePrerequisiteRepo = learning.CoursePrerequisiteRepo
type ModuleRepo = learning.ModuleRepo
type EnrollmentRepo = learning.EnrollmentRepo
type ModuleProgressRepo = learning.ModuleProgressRepo
type CourseProgressRepo = learning.CourseProgressRepo

// Set bundles every table repo built over one database handle.
type Set struct {
	Users          UserRepo
	Courses        CourseRepo
	Prerequisites  CoursePrerequisiteRepo
	Modules        ModuleRepo
	Enrollments    EnrollmentRepo
	ModuleProgress ModuleProgressRepo
	CourseProgress CourseProgressRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Users:          user.NewUserRepo(db, log),
		Courses:        learning.NewCourseRepo(db, log),
		Prerequisites:  learning.NewCoursePrerequisiteRepo(db, log),
		Modules:        learning.NewModuleRepo(db, log),
		Enrollments:    learning.NewEnrollmentRepo(db, log),
		ModuleProgress: learning.NewModuleProgressRepo(db, log),
		CourseProgress: learning.NewCourseProgressRepo(db, log),
	}
}
