package learning

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/classroom-backend/internal/data/repos/testutil"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/platform/dbctx"
)

func TestModuleProgressRepoCountCompletedPublished(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)
	repo := NewModuleProgressRepo(tx, log)
	modules := NewModuleRepo(tx, log)

	teacher := testutil.SeedUser(t, ctx, tx, types.RoleTeacher)
	student := testutil.SeedUser(t, ctx, tx, types.RoleStudent)
	course := testutil.SeedCourse(t, ctx, tx, teacher.ID, true)
	other := testutil.SeedCourse(t, ctx, tx, teacher.ID, true)
	mods := testutil.SeedModules(t, ctx, tx, course.ID, "m", 4, true)
	otherMods := testutil.SeedModules(t, ctx, tx, other.ID, "o", 1, true)

	testutil.SeedModuleProgress(t, ctx, tx, student.ID, mods[0].ID, true)
	testutil.SeedModuleProgress(t, ctx, tx, student.ID, mods[1].ID, true)
	testutil.SeedModuleProgress(t, ctx, tx, student.ID, mods[2].ID, false)
	testutil.SeedModuleProgress(t, ctx, tx, student.ID, otherMods[0].ID, true)

	if n, err := repo.CountCompletedPublished(dbc, student.ID, course.ID); err != nil || n != 2 {
		t.Fatalf("CountCompletedPublished: n=%d err=%v", n, err)
	}

	if err := modules.UpdateFields(dbc, mods[1].ID, map[string]interface{}{"published": false}); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if n, err := repo.CountCompletedPublished(dbc, student.ID, course.ID); err != nil || n != 1 {
		t.Fatalf("CountCompletedPublished after unpublish: n=%d err=%v", n, err)
	}

	rows, err := repo.ListByUserAndCourse(dbc, student.ID, course.ID)
	if err != nil || len(rows) != 3 {
		t.Fatalf("ListByUserAndCourse: err=%v len=%d", err, len(rows))
	}

	if err := repo.DeleteByModuleIDs(dbc, []uuid.UUID{mods[0].ID}); err != nil {
		t.Fatalf("DeleteByModuleIDs: %v", err)
	}
	if p, err := repo.GetByUserAndModule(dbc, student.ID, mods[0].ID); err != nil || p != nil {
		t.Fatalf("GetByUserAndModule after delete: p=%v err=%v", p, err)
	}
}

func TestCourseProgressRepoCompletedCourseIDs(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCourseProgressRepo(tx, testutil.Logger(t))

	teacher := testutil.SeedUser(t, ctx, tx, types.RoleTeacher)
	student := testutil.SeedUser(t, ctx, tx, types.RoleStudent)
	done := testutil.SeedCourse(t, ctx, tx, teacher.ID, true)
	open := testutil.SeedCourse(t, ctx, tx, teacher.ID, true)

	if _, err := repo.Create(dbc, []*types.CourseProgress{
		{UserID: student.ID, CourseID: done.ID, Completed: true},
		{UserID: student.ID, CourseID: open.ID, Completed: false},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ids, err := repo.CompletedCourseIDs(dbc, student.ID, []uuid.UUID{done.ID, open.ID})
	if err != nil {
		t.Fatalf("CompletedCourseIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != done.ID {
		t.Fatalf("CompletedCourseIDs: want=[%s] got=%v", done.ID, ids)
	}

	cp, err := repo.GetByUserAndCourse(dbc, student.ID, open.ID)
	if err != nil || cp == nil {
		t.Fatalf("GetByUserAndCourse: cp=%v err=%v", cp, err)
	}
	if err := repo.UpdateFields(dbc, cp.ID, map[string]interface{}{"completed": true}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	ids, _ = repo.CompletedCourseIDs(dbc, student.ID, []uuid.UUID{done.ID, open.ID})
	if len(ids) != 2 {
		t.Fatalf("CompletedCourseIDs after update: got=%v", ids)
	}
}

func TestCourseProgressRepoListUserIDsByCourseID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCourseProgressRepo(tx, testutil.Logger(t))

	teacher := testutil.SeedUser(t, ctx, tx, types.RoleTeacher)
	a := testutil.SeedUser(t, ctx, tx, types.RoleStudent)
	b := testutil.SeedUser(t, ctx, tx, types.RoleStudent)
	course := testutil.SeedCourse(t, ctx, tx, teacher.ID, true)
	other := testutil.SeedCourse(t, ctx, tx, teacher.ID, true)

	if _, err := repo.Create(dbc, []*types.CourseProgress{
		{UserID: a.ID, CourseID: course.ID, Completed: true},
		{UserID: b.ID, CourseID: course.ID},
		{UserID: a.ID, CourseID: other.ID},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ids, err := repo.ListUserIDsByCourseID(dbc, course.ID)
	if err != nil {
		t.Fatalf("ListUserIDsByCourseID: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ListUserIDsByCourseID: want 2 users got=%v", ids)
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[a.ID] || !seen[b.ID] {
		t.Fatalf("ListUserIDsByCourseID: missing user, got=%v", ids)
	}

	empty, err := repo.ListUserIDsByCourseID(dbc, uuid.Nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("ListUserIDsByCourseID(nil): ids=%v err=%v", empty, err)
	}
}

func TestProgressInsertLeavesExistingRowsAlone(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)
	moduleProgress := NewModuleProgressRepo(tx, log)
	courseProgress := NewCourseProgressRepo(tx, log)

	teacher := testutil.SeedUser(t, ctx, tx, types.RoleTeacher)
	student := testutil.SeedUser(t, ctx, tx, types.RoleStudent)
	course := testutil.SeedCourse(t, ctx, tx, teacher.ID, true)
	mods := testutil.SeedModules(t, ctx, tx, course.ID, "m", 1, true)

	created, err := moduleProgress.Insert(dbc, &types.ModuleProgress{UserID: student.ID, ModuleID: mods[0].ID, Completed: true})
	if err != nil || !created {
		t.Fatalf("first Insert: created=%v err=%v", created, err)
	}
	created, err = moduleProgress.Insert(dbc, &types.ModuleProgress{UserID: student.ID, ModuleID: mods[0].ID, Completed: false})
	if err != nil || created {
		t.Fatalf("duplicate Insert: created=%v err=%v", created, err)
	}
	p, err := moduleProgress.GetByUserAndModule(dbc, student.ID, mods[0].ID)
	if err != nil || p == nil || !p.Completed {
		t.Fatalf("existing row must be untouched: p=%+v err=%v", p, err)
	}

	created, err = courseProgress.Insert(dbc, &types.CourseProgress{UserID: student.ID, CourseID: course.ID, Completed: true})
	if err != nil || !created {
		t.Fatalf("first course Insert: created=%v err=%v", created, err)
	}
	created, err = courseProgress.Insert(dbc, &types.CourseProgress{UserID: student.ID, CourseID: course.ID})
	if err != nil || created {
		t.Fatalf("duplicate course Insert: created=%v err=%v", created, err)
	}
	cp, err := courseProgress.GetByUserAndCourse(dbc, student.ID, course.ID)
	if err != nil || cp == nil || !cp.Completed {
		t.Fatalf("existing course row must be untouched: cp=%+v err=%v", cp, err)
	}
}
