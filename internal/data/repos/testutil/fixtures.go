package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, role string) *types.User {
	tb.Helper()
	id := uuid.New()
	u := &types.User{
		ID:          id,
		Email:       fmt.Sprintf("%s@example.com", id.String()[:8]),
		DisplayName: "user",
		Role:        role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, creatorID uuid.UUID, published bool) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:        uuid.New(),
		CreatorID: creatorID,
		Title:     "course",
		Published: published,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

// SeedModules appends n modules at positions 1..n, titled by prefix and position.
func SeedModules(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, prefix string, n int, published bool) []*types.Module {
	tb.Helper()
	out := make([]*types.Module, 0, n)
	for i := 1; i <= n; i++ {
		m := &types.Module{
			ID:        uuid.New(),
			CourseID:  courseID,
			Title:     fmt.Sprintf("%s%d", prefix, i),
			Position:  i,
			Published: published,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := tx.WithContext(ctx).Create(m).Error; err != nil {
			tb.Fatalf("seed module: %v", err)
		}
		out = append(out, m)
	}
	return out
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID, status string) *types.Enrollment {
	tb.Helper()
	e := &types.Enrollment{
		ID:       uuid.New(),
		UserID:   userID,
		CourseID: courseID,
		Status:   status,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func SeedModuleProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID, completed bool) *types.ModuleProgress {
	tb.Helper()
	p := &types.ModuleProgress{
		ID:        uuid.New(),
		UserID:    userID,
		ModuleID:  moduleID,
		Completed: completed,
	}
	if completed {
		p.CompletedAt = PtrTime(time.Now().UTC())
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed module progress: %v", err)
	}
	return p
}

// ModuleTitles returns the course's module titles ordered by position.
func ModuleTitles(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID) []string {
	tb.Helper()
	var titles []string
	if err := tx.WithContext(ctx).
		Model(&types.Module{}).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Pluck("title", &titles).Error; err != nil {
		tb.Fatalf("load module titles: %v", err)
	}
	return titles
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

func PtrInt(v int) *int { return &v }
