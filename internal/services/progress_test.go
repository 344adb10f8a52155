package services_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	types "github.com/yungbote/classroom-backend/internal/domain"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/realtime"
)

func TestProgressService_CompletionFlow(t *testing.T) {
	f := newSvcFixture(t)
	courseID := f.course(t, true)
	a := f.module(t, courseID, "a", true)
	b := f.module(t, courseID, "b", true)

	_, err := f.enrollments.Enroll(as(f.student), courseID)
	require.NoError(t, err)

	f.emitter.reset()
	res, err := f.progress.MarkModuleComplete(as(f.student), a, true)
	require.NoError(t, err)
	assert.Equal(t, 50, res.Course.Summary.Percentage)
	assert.False(t, res.Course.Summary.Completed)
	assert.Equal(t, []realtime.Event{realtime.EventProgressUpdated}, f.emitter.events())

	f.emitter.reset()
	res, err = f.progress.MarkModuleComplete(as(f.student), b, true)
	require.NoError(t, err)
	assert.True(t, res.Course.Summary.Completed)
	assert.Equal(t, []realtime.Event{realtime.EventProgressUpdated, realtime.EventCourseCompleted}, f.emitter.events())
	for _, m := range f.emitter.msgs {
		assert.Equal(t, realtime.UserChannel(f.student.ID), m.Channel)
	}

	view, err := f.progress.GetCourseProgress(as(f.student), courseID, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 100, view.Percentage)
	assert.Equal(t, 2, view.Done)
	assert.Equal(t, 2, view.Total)
	assert.True(t, view.Completed)
	assert.NotNil(t, view.CompletedAt)
	assert.Equal(t, types.EnrollmentCompleted, view.Status)
	assert.Len(t, view.Modules, 2)

	f.emitter.reset()
	_, err = f.progress.MarkModuleComplete(as(f.student), b, false)
	require.NoError(t, err)
	assert.Equal(t, []realtime.Event{realtime.EventProgressUpdated, realtime.EventCourseReopened}, f.emitter.events())
}

func TestProgressService_NotEnrolled(t *testing.T) {
	f := newSvcFixture(t)
	courseID := f.course(t, true)
	a := f.module(t, courseID, "a", true)

	f.emitter.reset()
	_, err := f.progress.MarkModuleComplete(as(f.student), a, true)
	requireCode(t, err, domainagg.CodeNotEnrolled)
	assert.Empty(t, f.emitter.events())

	_, err = f.progress.GetCourseProgress(as(f.student), courseID, uuid.Nil)
	requireCode(t, err, domainagg.CodeNotEnrolled)
}

func TestProgressService_ViewingOthersNeedsManager(t *testing.T) {
	f := newSvcFixture(t)
	courseID := f.course(t, true)
	a := f.module(t, courseID, "a", true)
	f.module(t, courseID, "b", true)
	_, err := f.enrollments.Enroll(as(f.student), courseID)
	require.NoError(t, err)
	_, err = f.progress.MarkModuleComplete(as(f.student), a, true)
	require.NoError(t, err)

	_, err = f.progress.GetCourseProgress(as(f.student2), courseID, f.student.ID)
	requireAPIStatus(t, err, http.StatusForbidden)
	_, err = f.progress.GetCourseProgress(as(f.other), courseID, f.student.ID)
	requireAPIStatus(t, err, http.StatusForbidden)

	view, err := f.progress.GetCourseProgress(as(f.teacher), courseID, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, f.student.ID, view.UserID)
	assert.Equal(t, 50, view.Percentage)
	assert.False(t, view.Completed)
	assert.Nil(t, view.CompletedAt)
}

func TestProgressService_TouchModule(t *testing.T) {
	f := newSvcFixture(t)
	courseID := f.course(t, true)
	a := f.module(t, courseID, "a", true)
	_, err := f.enrollments.Enroll(as(f.student), courseID)
	require.NoError(t, err)

	first, err := f.progress.TouchModule(as(f.student), a)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := f.progress.TouchModule(as(f.student), a)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Progress.ID, second.Progress.ID)
}

func TestProgressService_GetCourseProgressMissingCourse(t *testing.T) {
	f := newSvcFixture(t)
	_, err := f.progress.GetCourseProgress(as(f.student), uuid.New(), uuid.Nil)
	requireCode(t, err, domainagg.CodeNotFound)
	_, err = f.progress.GetCourseProgress(as(f.student), uuid.Nil, uuid.Nil)
	requireCode(t, err, domainagg.CodeValidation)
}
