package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/classroom-backend/internal/domain"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/observability"
	"github.com/yungbote/classroom-backend/internal/realtime"
)

// CourseNotifier turns committed writes into realtime messages. Structure
// events go to the course channel, progress events to the learner's channel.
type CourseNotifier interface {
	CourseUpdated(ctx context.Context, course *types.Course)
	CourseDeleted(ctx context.Context, courseID uuid.UUID)
	ModuleCreated(ctx context.Context, module *types.Module)
	ModuleUpdated(ctx context.Context, module *types.Module)
	ModuleMoved(ctx context.Context, res domainagg.MoveModuleResult)
	ModuleDeleted(ctx context.Context, res domainagg.DeleteModuleResult)
	ProgressUpdated(ctx context.Context, userID uuid.UUID, res domainagg.RecordModuleCompletionResult)
	CompletionChanged(ctx context.Context, changes []domainagg.CompletionChange)
	EnrollmentUpdated(ctx context.Context, enrollment *types.Enrollment)
}

type courseNotifier struct {
	emit    Emitter
	metrics *observability.Metrics
}

func NewCourseNotifier(emit Emitter, metrics *observability.Metrics) CourseNotifier {
	return &courseNotifier{emit: emit, metrics: metrics}
}

func (n *courseNotifier) send(ctx context.Context, channel string, event realtime.Event, data any) {
	if n == nil || n.emit == nil {
		return
	}
	n.emit.Emit(ctx, realtime.Message{Channel: channel, Event: event, Data: data})
}

func (n *courseNotifier) CourseUpdated(ctx context.Context, course *types.Course) {
	if course == nil {
		return
	}
	n.send(ctx, realtime.CourseChannel(course.ID), realtime.EventCourseUpdated, map[string]any{"course": course})
}

func (n *courseNotifier) CourseDeleted(ctx context.Context, courseID uuid.UUID) {
	n.send(ctx, realtime.CourseChannel(courseID), realtime.EventCourseDeleted, map[string]any{"course_id": courseID})
}

func (n *courseNotifier) ModuleCreated(ctx context.Context, module *types.Module) {
	if module == nil {
		return
	}
	n.send(ctx, realtime.CourseChannel(module.CourseID), realtime.EventModuleCreated, map[string]any{"module": module})
}

func (n *courseNotifier) ModuleUpdated(ctx context.Context, module *types.Module) {
	if module == nil {
		return
	}
	n.send(ctx, realtime.CourseChannel(module.CourseID), realtime.EventModuleUpdated, map[string]any{"module": module})
}

func (n *courseNotifier) ModuleMoved(ctx context.Context, res domainagg.MoveModuleResult) {
	if !res.Moved || res.Module == nil {
		return
	}
	data := map[string]any{
		"module_id":      res.Module.ID,
		"from_course_id": res.SourceCourseID,
		"from_position":  res.FromPosition,
		"to_course_id":   res.Module.CourseID,
		"to_position":    res.Module.Position,
	}
	n.send(ctx, realtime.CourseChannel(res.SourceCourseID), realtime.EventModuleMoved, data)
	if res.Module.CourseID != res.SourceCourseID {
		n.send(ctx, realtime.CourseChannel(res.Module.CourseID), realtime.EventModuleMoved, data)
	}
}

func (n *courseNotifier) ModuleDeleted(ctx context.Context, res domainagg.DeleteModuleResult) {
	n.send(ctx, realtime.CourseChannel(res.CourseID), realtime.EventModuleDeleted, map[string]any{
		"module_id": res.ModuleID,
		"position":  res.Position,
	})
}

func (n *courseNotifier) ProgressUpdated(ctx context.Context, userID uuid.UUID, res domainagg.RecordModuleCompletionResult) {
	if res.Progress == nil {
		return
	}
	n.send(ctx, realtime.UserChannel(userID), realtime.EventProgressUpdated, map[string]any{
		"course_id":  res.CourseID,
		"module_id":  res.Progress.ModuleID,
		"completed":  res.Progress.Completed,
		"percentage": res.Course.Summary.Percentage,
		"done":       res.Course.Summary.Done,
		"total":      res.Course.Summary.Total,
	})
	if res.Course.Changed {
		n.CompletionChanged(ctx, []domainagg.CompletionChange{{
			UserID:    userID,
			CourseID:  res.CourseID,
			Completed: res.Course.Summary.Completed,
		}})
	}
}

func (n *courseNotifier) CompletionChanged(ctx context.Context, changes []domainagg.CompletionChange) {
	for _, ch := range changes {
		n.metrics.IncCompletion("course", ch.Completed)
		event := realtime.EventCourseReopened
		if ch.Completed {
			event = realtime.EventCourseCompleted
		}
		n.send(ctx, realtime.UserChannel(ch.UserID), event, map[string]any{"course_id": ch.CourseID})
	}
}

func (n *courseNotifier) EnrollmentUpdated(ctx context.Context, enrollment *types.Enrollment) {
	if enrollment == nil {
		return
	}
	n.send(ctx, realtime.UserChannel(enrollment.UserID), realtime.EventEnrollment, map[string]any{"enrollment": enrollment})
}
