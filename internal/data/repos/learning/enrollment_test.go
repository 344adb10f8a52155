package learning

import (
	"context"
	"testing"

	"github.com/yungbote/classroom-backend/internal/data/repos/testutil"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/platform/dbctx"
)

func TestEnrollmentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewEnrollmentRepo(tx, testutil.Logger(t))

	teacher := testutil.SeedUser(t, ctx, tx, types.RoleTeacher)
	course := testutil.SeedCourse(t, ctx, tx, teacher.ID, true)
	a := testutil.SeedUser(t, ctx, tx, types.RoleStudent)
	b := testutil.SeedUser(t, ctx, tx, types.RoleStudent)
	c := testutil.SeedUser(t, ctx, tx, types.RoleStudent)

	testutil.SeedEnrollment(t, ctx, tx, a.ID, course.ID, types.EnrollmentActive)
	testutil.SeedEnrollment(t, ctx, tx, b.ID, course.ID, types.EnrollmentCompleted)
	dropped := testutil.SeedEnrollment(t, ctx, tx, c.ID, course.ID, types.EnrollmentDropped)

	if n, err := repo.CountByCourseAndStatuses(dbc, course.ID, types.SeatHoldingStatuses()); err != nil || n != 2 {
		t.Fatalf("CountByCourseAndStatuses: n=%d err=%v", n, err)
	}
	ids, err := repo.ListUserIDsByCourseAndStatuses(dbc, course.ID, []string{types.EnrollmentActive})
	if err != nil || len(ids) != 1 || ids[0] != a.ID {
		t.Fatalf("ListUserIDsByCourseAndStatuses: ids=%v err=%v", ids, err)
	}

	got, err := repo.GetByUserAndCourse(dbc, c.ID, course.ID)
	if err != nil || got == nil || got.ID != dropped.ID {
		t.Fatalf("GetByUserAndCourse: got=%v err=%v", got, err)
	}
	if err := repo.UpdateFields(dbc, dropped.ID, map[string]interface{}{"status": types.EnrollmentActive}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	locked, err := repo.LockByID(dbc, dropped.ID)
	if err != nil || locked == nil || locked.Status != types.EnrollmentActive {
		t.Fatalf("LockByID: got=%v err=%v", locked, err)
	}
}
