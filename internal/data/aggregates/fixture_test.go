package aggregates_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/yungbote/classroom-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/classroom-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/classroom-backend/internal/data/repos"
	repotest "github.com/yungbote/classroom-backend/internal/data/repos/testutil"
	types "github.com/yungbote/classroom-backend/internal/domain"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/platform/dbctx"
	"gorm.io/gorm"
)

type fixture struct {
	ctx   context.Context
	tx    *gorm.DB
	repos repos.Set
	hooks *aggtest.HooksRecorder

	structure  domainagg.CourseStructureAggregate
	progress   domainagg.CourseProgressAggregate
	enrollment domainagg.EnrollmentAggregate

	teacher *types.User
	student *types.User
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithRunner(t, nil)
}

// newFixtureWithRunner builds the aggregates over one rolled-back test
// transaction. A nil runner uses gorm savepoints inside that transaction.
func newFixtureWithRunner(t *testing.T, wrap func(aggregates.TxRunner) aggregates.TxRunner) *fixture {
	t.Helper()
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	log := repotest.Logger(t)
	set := repos.NewSet(tx, log)
	hooks := &aggtest.HooksRecorder{}

	var runner aggregates.TxRunner = aggregates.NewGormTxRunner(tx)
	if wrap != nil {
		runner = wrap(runner)
	}
	base := aggregates.BaseDeps{
		DB:       tx,
		Log:      log,
		Runner:   runner,
		Hooks:    hooks,
		CASGuard: aggregates.NewCASGuard(tx),
	}

	ctx := context.Background()
	f := &fixture{
		ctx:   ctx,
		tx:    tx,
		repos: set,
		hooks: hooks,
		structure: aggregates.NewCourseStructureAggregate(aggregates.CourseStructureAggregateDeps{
			Base:           base,
			Users:          set.Users,
			Courses:        set.Courses,
			Prerequisites:  set.Prerequisites,
			Modules:        set.Modules,
			Enrollments:    set.Enrollments,
			ModuleProgress: set.ModuleProgress,
			CourseProgress: set.CourseProgress,
		}),
		progress: aggregates.NewCourseProgressAggregate(aggregates.CourseProgressAggregateDeps{
			Base:           base,
			Users:          set.Users,
			Courses:        set.Courses,
			Modules:        set.Modules,
			Enrollments:    set.Enrollments,
			ModuleProgress: set.ModuleProgress,
			CourseProgress: set.CourseProgress,
		}),
		enrollment: aggregates.NewEnrollmentAggregate(aggregates.EnrollmentAggregateDeps{
			Base:           base,
			Users:          set.Users,
			Courses:        set.Courses,
			Prerequisites:  set.Prerequisites,
			Modules:        set.Modules,
			Enrollments:    set.Enrollments,
			ModuleProgress: set.ModuleProgress,
			CourseProgress: set.CourseProgress,
		}),
	}
	f.teacher = repotest.SeedUser(t, ctx, tx, types.RoleTeacher)
	f.student = repotest.SeedUser(t, ctx, tx, types.RoleStudent)
	return f
}

func (f *fixture) dbc() dbctx.Context {
	return dbctx.Context{Ctx: f.ctx, Tx: f.tx}
}

func (f *fixture) titles(t *testing.T, courseID uuid.UUID) []string {
	t.Helper()
	return repotest.ModuleTitles(t, f.ctx, f.tx, courseID)
}

func (f *fixture) positions(t *testing.T, courseID uuid.UUID) []int {
	t.Helper()
	got, err := f.repos.Modules.ListPositions(f.dbc(), courseID)
	require.NoError(t, err)
	return got
}

func (f *fixture) enrollmentStatus(t *testing.T, userID, courseID uuid.UUID) string {
	t.Helper()
	e, err := f.repos.Enrollments.GetByUserAndCourse(f.dbc(), userID, courseID)
	require.NoError(t, err)
	require.NotNil(t, e)
	return e.Status
}

func requireCode(t *testing.T, err error, code domainagg.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, domainagg.IsCode(err, code), "want code %s, got %s (%v)", code, domainagg.CodeOf(err), err)
}
