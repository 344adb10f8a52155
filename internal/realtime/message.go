package realtime

import (
	"github.com/google/uuid"
)

type Event string

const (
	EventModuleCreated   Event = "module_created"
	EventModuleMoved     Event = "module_moved"
	EventModuleDeleted   Event = "module_deleted"
	EventModuleUpdated   Event = "module_updated"
	EventCourseUpdated   Event = "course_updated"
	EventCourseDeleted   Event = "course_deleted"
	EventProgressUpdated Event = "progress_updated"
	EventCourseCompleted Event = "course_completed"
	EventCourseReopened  Event = "course_reopened"
	EventEnrollment      Event = "enrollment_updated"
)

type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}

// CourseChannel carries structure events visible to everyone in the course.
func CourseChannel(courseID uuid.UUID) string {
	return "course:" + courseID.String()
}

// UserChannel carries a learner's own progress events.
func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}
