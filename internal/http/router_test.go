package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/classroom-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/classroom-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/classroom-backend/internal/data/repos"
	repotest "github.com/yungbote/classroom-backend/internal/data/repos/testutil"
	types "github.com/yungbote/classroom-backend/internal/domain"
	apihttp "github.com/yungbote/classroom-backend/internal/http"
	httpH "github.com/yungbote/classroom-backend/internal/http/handlers"
	httpMW "github.com/yungbote/classroom-backend/internal/http/middleware"
	"github.com/yungbote/classroom-backend/internal/platform/pointers"
	"github.com/yungbote/classroom-backend/internal/realtime"
	"github.com/yungbote/classroom-backend/internal/services"
)

type sink struct {
	mu   sync.Mutex
	msgs []realtime.Message
}

func (s *sink) Emit(_ context.Context, msg realtime.Message) {
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
}

func (s *sink) drain() []realtime.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.msgs
	s.msgs = nil
	return out
}

type api struct {
	t       *testing.T
	engine  *gin.Engine
	auth    services.AuthService
	sink    *sink
	teacher *types.User
	student *types.User
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	log := repotest.Logger(t)
	set := repos.NewSet(tx, log)
	base := aggregates.BaseDeps{
		DB:       tx,
		Log:      log,
		Runner:   aggregates.NewGormTxRunner(tx),
		Hooks:    &aggtest.HooksRecorder{},
		CASGuard: aggregates.NewCASGuard(tx),
	}

	out := &sink{}
	notify := services.NewCourseNotifier(services.Deferred(out), nil)
	structure := services.NewStructureService(tx, log, set, aggregates.NewCourseStructureAggregate(aggregates.CourseStructureAggregateDeps{
		Base: base, Users: set.Users, Courses: set.Courses, Prerequisites: set.Prerequisites, Modules: set.Modules,
		Enrollments: set.Enrollments, ModuleProgress: set.ModuleProgress, CourseProgress: set.CourseProgress,
	}), notify)
	progress := services.NewProgressService(tx, log, set, aggregates.NewCourseProgressAggregate(aggregates.CourseProgressAggregateDeps{
		Base: base, Users: set.Users, Courses: set.Courses, Modules: set.Modules,
		Enrollments: set.Enrollments, ModuleProgress: set.ModuleProgress, CourseProgress: set.CourseProgress,
	}), notify)
	enrollments := services.NewEnrollmentService(tx, log, set, aggregates.NewEnrollmentAggregate(aggregates.EnrollmentAggregateDeps{
		Base: base, Users: set.Users, Courses: set.Courses, Prerequisites: set.Prerequisites, Modules: set.Modules,
		Enrollments: set.Enrollments, ModuleProgress: set.ModuleProgress, CourseProgress: set.CourseProgress,
	}), notify)
	auth, err := services.NewAuthService(log, set.Users, services.AuthConfig{JWTSecret: "test-secret"})
	require.NoError(t, err)

	engine := apihttp.NewRouter(apihttp.RouterConfig{
		Log:               log,
		Emitter:           out,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, auth),
		HealthHandler:     httpH.NewHealthHandler(nil),
		CourseHandler:     httpH.NewCourseHandler(structure),
		ModuleHandler:     httpH.NewModuleHandler(structure, progress),
		EnrollmentHandler: httpH.NewEnrollmentHandler(enrollments, progress),
		RealtimeHandler:   httpH.NewRealtimeHandler(log, realtime.NewHub(log), structure),
	})

	ctx := context.Background()
	return &api{
		t:       t,
		engine:  engine,
		auth:    auth,
		sink:    out,
		teacher: repotest.SeedUser(t, ctx, tx, types.RoleTeacher),
		student: repotest.SeedUser(t, ctx, tx, types.RoleStudent),
	}
}

func (a *api) do(user *types.User, method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		token, err := a.auth.IssueAccessToken(user)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoErrorf(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

type moduleJSON struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Position int       `json:"position"`
}

type errorJSON struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (a *api) createCourse(published bool) uuid.UUID {
	a.t.Helper()
	rec := a.do(a.teacher, http.MethodPost, "/api/courses", map[string]any{"title": "Course", "published": published})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode[struct {
		Course struct {
			ID uuid.UUID `json:"id"`
		} `json:"course"`
	}](a.t, rec)
	return out.Course.ID
}

func (a *api) createModule(courseID uuid.UUID, title string, position *int) moduleJSON {
	a.t.Helper()
	body := map[string]any{"title": title, "published": true}
	if position != nil {
		body["position"] = *position
	}
	rec := a.do(a.teacher, http.MethodPost, "/api/courses/"+courseID.String()+"/modules", body)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[struct {
		Module moduleJSON `json:"module"`
	}](a.t, rec).Module
}

func (a *api) titles(user *types.User, courseID uuid.UUID) []string {
	a.t.Helper()
	rec := a.do(user, http.MethodGet, "/api/courses/"+courseID.String()+"/modules", nil)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	mods := decode[struct {
		Modules []moduleJSON `json:"modules"`
	}](a.t, rec).Modules
	out := make([]string, 0, len(mods))
	for i, m := range mods {
		require.Equal(a.t, i+1, m.Position)
		out = append(out, m.Title)
	}
	return out
}

func TestHealthcheckIsPublic(t *testing.T) {
	a := newAPI(t)
	rec := a.do(nil, http.MethodGet, "/healthcheck", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestAPIRequiresBearerToken(t *testing.T) {
	a := newAPI(t)
	rec := a.do(nil, http.MethodPost, "/api/courses", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[errorJSON](t, rec).Error.Code)
}

func TestModuleOrderingOverHTTP(t *testing.T) {
	a := newAPI(t)
	courseID := a.createCourse(true)
	m1 := a.createModule(courseID, "A", nil)
	a.createModule(courseID, "B", nil)
	a.createModule(courseID, "C", nil)

	clamped := a.createModule(courseID, "D", pointers.Int(9999))
	assert.Equal(t, 4, clamped.Position)
	assert.Equal(t, []string{"A", "B", "C", "D"}, a.titles(a.teacher, courseID))

	rec := a.do(a.teacher, http.MethodPost, "/api/modules/"+m1.ID.String()+"/move", map[string]any{"position": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"B", "C", "A", "D"}, a.titles(a.teacher, courseID))

	rec = a.do(a.teacher, http.MethodPost, "/api/modules/"+m1.ID.String()+"/move", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "position is required")

	rec = a.do(a.teacher, http.MethodDelete, "/api/modules/"+clamped.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"B", "C", "A"}, a.titles(a.teacher, courseID))

	rec = a.do(a.teacher, http.MethodGet, "/api/courses/"+courseID.String()+"/ordering", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, decode[struct {
		Count int `json:"count"`
	}](t, rec).Count)
}

func TestStudentCannotChangeStructure(t *testing.T) {
	a := newAPI(t)
	courseID := a.createCourse(true)
	rec := a.do(a.student, http.MethodPost, "/api/courses/"+courseID.String()+"/modules", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decode[errorJSON](t, rec).Error.Code)
}

func TestInvalidIDIsBadRequest(t *testing.T) {
	a := newAPI(t)
	rec := a.do(a.teacher, http.MethodGet, "/api/courses/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode[errorJSON](t, rec).Error.Code)

	rec = a.do(a.teacher, http.MethodGet, "/api/courses/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProgressOverHTTP(t *testing.T) {
	a := newAPI(t)
	courseID := a.createCourse(true)
	m := a.createModule(courseID, "only", nil)

	rec := a.do(a.student, http.MethodPost, "/api/modules/"+m.ID.String()+"/complete", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not_enrolled", decode[errorJSON](t, rec).Error.Code)

	rec = a.do(a.student, http.MethodPost, "/api/courses/"+courseID.String()+"/enroll", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(a.student, http.MethodPost, "/api/courses/"+courseID.String()+"/enroll", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(a.student, http.MethodPost, "/api/modules/"+m.ID.String()+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	completion := decode[struct {
		CourseCompletion struct {
			Percentage int  `json:"percentage"`
			Completed  bool `json:"completed"`
		} `json:"course_completion"`
	}](t, rec).CourseCompletion
	assert.Equal(t, 100, completion.Percentage)
	assert.True(t, completion.Completed)

	rec = a.do(a.student, http.MethodGet, "/api/courses/"+courseID.String()+"/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[services.CourseProgressView](t, rec)
	assert.Equal(t, 100, view.Percentage)
	assert.Equal(t, types.EnrollmentCompleted, view.Status)

	rec = a.do(a.student, http.MethodPost, "/api/modules/"+m.ID.String()+"/complete", map[string]any{"completed": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = a.do(a.teacher, http.MethodGet, "/api/courses/"+courseID.String()+"/progress?user_id="+a.student.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0, decode[services.CourseProgressView](t, rec).Percentage)
}

func TestEventsPublishOnlyForSuccessfulRequests(t *testing.T) {
	a := newAPI(t)
	courseID := a.createCourse(true)
	a.sink.drain()

	a.createModule(courseID, "A", nil)
	msgs := a.sink.drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, realtime.EventModuleCreated, msgs[0].Event)
	assert.Equal(t, realtime.CourseChannel(courseID), msgs[0].Channel)

	rec := a.do(a.student, http.MethodPost, "/api/courses/"+courseID.String()+"/modules", map[string]any{"title": "x"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, a.sink.drain())
}

func TestEnrollmentStatusOverHTTP(t *testing.T) {
	a := newAPI(t)
	courseID := a.createCourse(true)
	rec := a.do(a.student, http.MethodPost, "/api/courses/"+courseID.String()+"/enroll", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	enrollment := decode[struct {
		Enrollment struct {
			ID uuid.UUID `json:"id"`
		} `json:"enrollment"`
	}](t, rec).Enrollment

	path := "/api/enrollments/" + enrollment.ID.String()
	rec = a.do(a.student, http.MethodPatch, path, map[string]any{"status": "dropped"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(a.student, http.MethodPatch, path, map[string]any{"status": "active"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(a.student, http.MethodPatch, path, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(a.student, http.MethodPost, "/api/courses/"+courseID.String()+"/enroll", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "re-enrolling after a drop reactivates")
}
