package services_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/platform/apierr"
	"github.com/yungbote/classroom-backend/internal/platform/pointers"
	"github.com/yungbote/classroom-backend/internal/realtime"
	"github.com/yungbote/classroom-backend/internal/services"
)

func requireAPIStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	ae, ok := apierr.As(err)
	require.Truef(t, ok, "expected api error, got %v", err)
	require.Equal(t, status, ae.Status)
}

func requireCode(t *testing.T, err error, code domainagg.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equalf(t, code, domainagg.CodeOf(err), "unexpected error: %v", err)
}


func (f *svcFixture) course(t *testing.T, published bool) uuid.UUID {
	t.Helper()
	view, err := f.structure.CreateCourse(as(f.teacher), services.CreateCourseRequest{Title: "Course", Published: published})
	require.NoError(t, err)
	return view.Course.ID
}

func (f *svcFixture) module(t *testing.T, courseID uuid.UUID, title string, published bool) uuid.UUID {
	t.Helper()
	m, err := f.structure.CreateModule(as(f.teacher), courseID, services.CreateModuleRequest{Title: title, Published: published})
	require.NoError(t, err)
	return m.ID
}

func TestStructureService_RequiresCaller(t *testing.T) {
	f := newSvcFixture(t)
	_, err := f.structure.CreateCourse(context.Background(), services.CreateCourseRequest{Title: "x"})
	requireAPIStatus(t, err, http.StatusUnauthorized)
}

func TestStructureService_OnlyStaffCreatesCourses(t *testing.T) {
	f := newSvcFixture(t)
	_, err := f.structure.CreateCourse(as(f.student), services.CreateCourseRequest{Title: "x"})
	requireAPIStatus(t, err, http.StatusForbidden)

	view, err := f.structure.CreateCourse(as(f.teacher), services.CreateCourseRequest{Title: "Algebra"})
	require.NoError(t, err)
	assert.Equal(t, f.teacher.ID, view.Course.CreatorID)
	assert.Empty(t, view.PrerequisiteIDs)
}

func TestStructureService_TeachersManageOnlyTheirCourses(t *testing.T) {
	f := newSvcFixture(t)
	courseID := f.course(t, true)

	_, err := f.structure.CreateModule(as(f.other), courseID, services.CreateModuleRequest{Title: "m"})
	requireAPIStatus(t, err, http.StatusForbidden)
	_, err = f.structure.CreateModule(as(f.student), courseID, services.CreateModuleRequest{Title: "m"})
	requireAPIStatus(t, err, http.StatusForbidden)

	m, err := f.structure.CreateModule(as(f.admin), courseID, services.CreateModuleRequest{Title: "m"})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Position)
}

func TestStructureService_DraftCoursesAreHidden(t *testing.T) {
	f := newSvcFixture(t)
	courseID := f.course(t, false)

	_, err := f.structure.GetCourse(as(f.student), courseID)
	requireCode(t, err, domainagg.CodeNotFound)
	_, err = f.structure.ListModules(as(f.student), courseID)
	requireCode(t, err, domainagg.CodeNotFound)

	view, err := f.structure.GetCourse(as(f.teacher), courseID)
	require.NoError(t, err)
	assert.False(t, view.Course.Published)
}

func TestStructureService_LearnersSeePublishedModulesOnly(t *testing.T) {
	f := newSvcFixture(t)
	courseID := f.course(t, true)
	f.module(t, courseID, "intro", true)
	f.module(t, courseID, "draft", false)
	f.module(t, courseID, "outro", true)

	mods, err := f.structure.ListModules(as(f.student), courseID)
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, "intro", mods[0].Title)
	assert.Equal(t, "outro", mods[1].Title)

	mods, err = f.structure.ListModules(as(f.teacher), courseID)
	require.NoError(t, err)
	require.Len(t, mods, 3)
	for i, m := range mods {
		assert.Equal(t, i+1, m.Position)
	}

	view, err := f.structure.GetCourse(as(f.student), courseID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.ModuleCount)
}

func TestStructureService_EmitsStructureEvents(t *testing.T) {
	f := newSvcFixture(t)
	courseID := f.course(t, true)
	a := f.module(t, courseID, "a", true)
	f.module(t, courseID, "b", true)

	f.emitter.mu.Lock()
	last := f.emitter.msgs[len(f.emitter.msgs)-1]
	f.emitter.mu.Unlock()
	assert.Equal(t, realtime.EventModuleCreated, last.Event)
	assert.Equal(t, realtime.CourseChannel(courseID), last.Channel)

	f.emitter.reset()
	res, err := f.structure.MoveModule(as(f.teacher), a, services.MoveModuleRequest{Position: 2})
	require.NoError(t, err)
	assert.True(t, res.Moved)
	assert.Equal(t, []realtime.Event{realtime.EventModuleMoved}, f.emitter.events())

	f.emitter.reset()
	_, err = f.structure.MoveModule(as(f.teacher), a, services.MoveModuleRequest{Position: 2})
	require.NoError(t, err)
	assert.Empty(t, f.emitter.events(), "a no-op move publishes nothing")

	_, err = f.structure.DeleteModule(as(f.teacher), a)
	require.NoError(t, err)
	assert.Equal(t, []realtime.Event{realtime.EventModuleDeleted}, f.emitter.events())
}

func TestStructureService_CrossCourseMoveNeedsBothCourses(t *testing.T) {
	f := newSvcFixture(t)
	src := f.course(t, true)
	mod := f.module(t, src, "a", true)

	foreign, err := f.structure.CreateCourse(as(f.other), services.CreateCourseRequest{Title: "Other", Published: true})
	require.NoError(t, err)

	_, err = f.structure.MoveModule(as(f.teacher), mod, services.MoveModuleRequest{
		TargetCourseID: &foreign.Course.ID,
		Position:       1,
	})
	requireAPIStatus(t, err, http.StatusForbidden)

	dst := f.course(t, true)
	f.emitter.reset()
	res, err := f.structure.MoveModule(as(f.teacher), mod, services.MoveModuleRequest{TargetCourseID: &dst, Position: 1})
	require.NoError(t, err)
	assert.Equal(t, dst, res.Module.CourseID)
	assert.Equal(t, 1, res.Module.Position)

	channels := []string{}
	for _, m := range f.emitter.msgs {
		channels = append(channels, m.Channel)
	}
	assert.ElementsMatch(t, []string{realtime.CourseChannel(src), realtime.CourseChannel(dst)}, channels)
}

func TestStructureService_UpdateModule(t *testing.T) {
	f := newSvcFixture(t)
	courseID := f.course(t, true)
	mod := f.module(t, courseID, "old", true)

	_, err := f.structure.UpdateModule(as(f.teacher), mod, services.UpdateModuleRequest{Title: pointers.String("   ")})
	requireCode(t, err, domainagg.CodeValidation)

	f.emitter.reset()
	updated, err := f.structure.UpdateModule(as(f.teacher), mod, services.UpdateModuleRequest{
		Title:       pointers.String("new"),
		Description: pointers.String("desc"),
		Metadata:    map[string]any{"duration_minutes": 30},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, "desc", updated.Description)
	assert.Equal(t, 1, updated.Position)
	assert.JSONEq(t, `{"duration_minutes":30}`, string(updated.Metadata))
	assert.Equal(t, []realtime.Event{realtime.EventModuleUpdated}, f.emitter.events())

	_, err = f.structure.UpdateModule(as(f.teacher), uuid.New(), services.UpdateModuleRequest{Title: pointers.String("x")})
	requireCode(t, err, domainagg.CodeNotFound)
}

func TestStructureService_VerifyOrderingIsStaffOnly(t *testing.T) {
	f := newSvcFixture(t)
	courseID := f.course(t, true)
	f.module(t, courseID, "a", true)
	f.module(t, courseID, "b", true)

	_, err := f.structure.VerifyCourseOrdering(as(f.student), courseID)
	requireAPIStatus(t, err, http.StatusForbidden)

	report, err := f.structure.VerifyCourseOrdering(as(f.admin), courseID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count)
}

func TestStructureService_DeleteCourse(t *testing.T) {
	f := newSvcFixture(t)
	courseID := f.course(t, true)
	f.module(t, courseID, "a", true)

	_, err := f.structure.DeleteCourse(as(f.other), courseID)
	requireAPIStatus(t, err, http.StatusForbidden)

	res, err := f.structure.DeleteCourse(as(f.teacher), courseID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DeletedModules)

	_, err = f.structure.GetCourse(as(f.teacher), courseID)
	requireCode(t, err, domainagg.CodeNotFound)
}

func svcCourse(title string, published, requiresApproval bool) services.CreateCourseRequest {
	return services.CreateCourseRequest{Title: title, Published: published, RequiresApproval: requiresApproval}
}
