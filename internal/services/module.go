package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/classroom-backend/internal/data/aggregates"
	types "github.com/yungbote/classroom-backend/internal/domain"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/platform/dbctx"
)

// ListModules returns the course's modules in position order. Learners only
// see published modules.
func (s *structureService) ListModules(ctx context.Context, courseID uuid.UUID) ([]*types.Module, error) {
	const op = "StructureService.ListModules"
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	course, err := s.visibleCourse(ctx, op, rd, courseID)
	if err != nil {
		return nil, err
	}
	modules, err := s.repos.Modules.ListByCourseID(dbctx.Context{Ctx: ctx, Tx: s.db}, courseID, !canManage(rd, course))
	if err != nil {
		s.log.Warn("ListModules: load modules failed", "error", err, "course_id", courseID)
		return nil, aggregates.MapError(op, err)
	}
	if modules == nil {
		modules = []*types.Module{}
	}
	return modules, nil
}

func (s *structureService) CreateModule(ctx context.Context, courseID uuid.UUID, in CreateModuleRequest) (*types.Module, error) {
	if err := s.requireCourseManager(ctx, "StructureService.CreateModule", courseID); err != nil {
		return nil, err
	}
	res, err := s.agg.CreateModule(ctx, domainagg.CreateModuleInput{
		CourseID:    courseID,
		Title:       in.Title,
		Description: in.Description,
		Position:    in.Position,
		Published:   in.Published,
		Metadata:    in.Metadata,
	})
	if err != nil {
		return nil, err
	}
	s.notify.ModuleCreated(ctx, res.Module)
	s.notify.CompletionChanged(ctx, res.Recalculated)
	return res.Module, nil
}

// UpdateModule edits descriptive fields only; position and course changes go
// through MoveModule, publication through SetModulePublished.
func (s *structureService) UpdateModule(ctx context.Context, moduleID uuid.UUID, in UpdateModuleRequest) (*types.Module, error) {
	const op = "StructureService.UpdateModule"
	m, err := s.requireModuleManager(ctx, op, moduleID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, "title cannot be empty", nil)
		}
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Metadata != nil {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, "invalid metadata", err)
		}
		updates["metadata"] = datatypes.JSON(raw)
	}
	if len(updates) == 0 {
		return m, nil
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: s.db}
	if err := s.repos.Modules.UpdateFields(dbc, moduleID, updates); err != nil {
		return nil, aggregates.MapError(op, err)
	}
	updated, err := s.repos.Modules.GetByID(dbc, moduleID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if updated == nil {
		return nil, moduleNotFound(op, moduleID)
	}
	s.notify.ModuleUpdated(ctx, updated)
	return updated, nil
}

func (s *structureService) MoveModule(ctx context.Context, moduleID uuid.UUID, in MoveModuleRequest) (domainagg.MoveModuleResult, error) {
	const op = "StructureService.MoveModule"
	m, err := s.requireModuleManager(ctx, op, moduleID)
	if err != nil {
		return domainagg.MoveModuleResult{}, err
	}
	if in.TargetCourseID != nil && *in.TargetCourseID != uuid.Nil && *in.TargetCourseID != m.CourseID {
		if err := s.requireCourseManager(ctx, op, *in.TargetCourseID); err != nil {
			return domainagg.MoveModuleResult{}, err
		}
	}
	res, err := s.agg.MoveModule(ctx, domainagg.MoveModuleInput{
		ModuleID:       moduleID,
		TargetCourseID: in.TargetCourseID,
		TargetPosition: in.Position,
	})
	if err != nil {
		return res, err
	}
	s.notify.ModuleMoved(ctx, res)
	s.notify.CompletionChanged(ctx, res.Recalculated)
	return res, nil
}

func (s *structureService) DeleteModule(ctx context.Context, moduleID uuid.UUID) (domainagg.DeleteModuleResult, error) {
	if _, err := s.requireModuleManager(ctx, "StructureService.DeleteModule", moduleID); err != nil {
		return domainagg.DeleteModuleResult{}, err
	}
	res, err := s.agg.DeleteModule(ctx, domainagg.DeleteModuleInput{ModuleID: moduleID})
	if err != nil {
		return res, err
	}
	s.notify.ModuleDeleted(ctx, res)
	s.notify.CompletionChanged(ctx, res.Recalculated)
	return res, nil
}

func (s *structureService) SetModulePublished(ctx context.Context, moduleID uuid.UUID, published bool) (*types.Module, error) {
	if _, err := s.requireModuleManager(ctx, "StructureService.SetModulePublished", moduleID); err != nil {
		return nil, err
	}
	res, err := s.agg.SetModulePublished(ctx, domainagg.SetModulePublishedInput{ModuleID: moduleID, Published: published})
	if err != nil {
		return nil, err
	}
	if res.Changed {
		s.notify.ModuleUpdated(ctx, res.Module)
		s.notify.CompletionChanged(ctx, res.Recalculated)
	}
	return res.Module, nil
}

func (s *structureService) requireModuleManager(ctx context.Context, op string, moduleID uuid.UUID) (*types.Module, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if moduleID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing module_id", nil)
	}
	m, err := s.repos.Modules.GetByID(dbctx.Context{Ctx: ctx, Tx: s.db}, moduleID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if m == nil {
		return nil, moduleNotFound(op, moduleID)
	}
	course, err := s.loadCourse(ctx, op, m.CourseID)
	if err != nil {
		return nil, err
	}
	if err := requireManage(rd, course); err != nil {
		return nil, err
	}
	return m, nil
}
