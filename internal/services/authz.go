package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	types "github.com/yungbote/classroom-backend/internal/domain"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/platform/apierr"
	"github.com/yungbote/classroom-backend/internal/platform/ctxutil"
)

func caller(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthenticated("not authenticated")
	}
	return rd, nil
}

func isStaff(rd *ctxutil.RequestData) bool {
	role := types.NormalizeRole(rd.Role)
	return role == types.RoleAdmin || role == types.RoleTeacher
}

// canManage reports whether the caller may change the course's structure:
// admins always, teachers only for courses they created.
func canManage(rd *ctxutil.RequestData, course *types.Course) bool {
	if rd == nil || course == nil {
		return false
	}
	switch types.NormalizeRole(rd.Role) {
	case types.RoleAdmin:
		return true
	case types.RoleTeacher:
		return course.CreatorID == rd.UserID
	}
	return false
}

func requireManage(rd *ctxutil.RequestData, course *types.Course) error {
	if !canManage(rd, course) {
		return apierr.Forbidden("not allowed to manage this course")
	}
	return nil
}

func courseNotFound(op string, id uuid.UUID) error {
	return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("course not found: %s", id), nil)
}

func moduleNotFound(op string, id uuid.UUID) error {
	return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("module not found: %s", id), nil)
}
