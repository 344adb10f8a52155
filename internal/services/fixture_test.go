package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/yungbote/classroom-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/classroom-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/classroom-backend/internal/data/repos"
	repotest "github.com/yungbote/classroom-backend/internal/data/repos/testutil"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/platform/ctxutil"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/realtime"
	"github.com/yungbote/classroom-backend/internal/services"
	"gorm.io/gorm"
)

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.Message
}

func (e *recordingEmitter) Emit(_ context.Context, msg realtime.Message) {
	e.mu.Lock()
	e.msgs = append(e.msgs, msg)
	e.mu.Unlock()
}

func (e *recordingEmitter) events() []realtime.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]realtime.Event, 0, len(e.msgs))
	for _, m := range e.msgs {
		out = append(out, m.Event)
	}
	return out
}

func (e *recordingEmitter) reset() {
	e.mu.Lock()
	e.msgs = nil
	e.mu.Unlock()
}

type svcFixture struct {
	tx      *gorm.DB
	repos   repos.Set
	emitter *recordingEmitter

	structure   services.StructureService
	progress    services.ProgressService
	enrollments services.EnrollmentService

	admin    *types.User
	teacher  *types.User
	other    *types.User
	student  *types.User
	student2 *types.User
}

func newSvcFixture(t *testing.T) *svcFixture {
	t.Helper()
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
	structureAgg := aggregates.NewCourseStructureAggregate(aggregates.CourseStructureAggregateDeps{
		Base:           base,
		Users:          set.Users,
		Courses:        set.Courses,
		Prerequisites:  set.Prerequisites,
		Modules:        set.Modules,
		Enrollments:    set.Enrollments,
		ModuleProgress: set.ModuleProgress,
		CourseProgress: set.CourseProgress,
	})
	progressAgg := aggregates.NewCourseProgressAggregate(aggregates.CourseProgressAggregateDeps{
		Base:           base,
		Users:          set.Users,
		Courses:        set.Courses,
		Modules:        set.Modules,
		Enrollments:    set.Enrollments,
		ModuleProgress: set.ModuleProgress,
		CourseProgress: set.CourseProgress,
	})
	enrollmentAgg := aggregates.NewEnrollmentAggregate(aggregates.EnrollmentAggregateDeps{
		Base:           base,
		Users:          set.Users,
		Courses:        set.Courses,
		Prerequisites:  set.Prerequisites,
		Modules:        set.Modules,
		Enrollments:    set.Enrollments,
		ModuleProgress: set.ModuleProgress,
		CourseProgress: set.CourseProgress,
	})

	em := &recordingEmitter{}
	notify := services.NewCourseNotifier(em, nil)
	ctx := context.Background()
	return &svcFixture{
		tx:          tx,
		repos:       set,
		emitter:     em,
		structure:   services.NewStructureService(tx, log, set, structureAgg, notify),
		progress:    services.NewProgressService(tx, log, set, progressAgg, notify),
		enrollments: services.NewEnrollmentService(tx, log, set, enrollmentAgg, notify),
		admin:       repotest.SeedUser(t, ctx, tx, types.RoleAdmin),
		teacher:     repotest.SeedUser(t, ctx, tx, types.RoleTeacher),
		other:       repotest.SeedUser(t, ctx, tx, types.RoleTeacher),
		student:     repotest.SeedUser(t, ctx, tx, types.RoleStudent),
		student2:    repotest.SeedUser(t, ctx, tx, types.RoleStudent),
	}
}

func as(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: u.ID, Role: u.Role})
}

func testLogger(t *testing.T) *logger.Logger {
	return repotest.Logger(t)
}
