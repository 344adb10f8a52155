package learning

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/platform/dbctx"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type ModuleRepo interface {
	Create(dbc dbctx.Context, rows []*types.Module) ([]*types.Module, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Module, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Module, error)
	// ListByCourseID returns the modules of a course ordered by position.
	ListByCourseID(dbc dbctx.Context, courseID uuid.UUID, publishedOnly bool) ([]*types.Module, error)
	ListIDsByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]uuid.UUID, error)
	// LockByID returns nil when the module does not exist.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Module, error)
	// LockByCourseIDs row-locks every module of the given courses in (course_id, position) order.
	LockByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Module, error)

	CountByCourseID(dbc dbctx.Context, courseID uuid.UUID) (int, error)
	CountPublishedByCourseID(dbc dbctx.Context, courseID uuid.UUID) (int, error)
	MaxPosition(dbc dbctx.Context, courseID uuid.UUID) (int, error)
	ListPositions(dbc dbctx.Context, courseID uuid.UUID) ([]int, error)

	// ShiftPositions adds delta to every position of the course in [from, to];
	// to <= 0 leaves the range open above. It returns the number of rows moved.
	ShiftPositions(dbc dbctx.Context, courseID uuid.UUID, from, to, delta int) (int64, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	DeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) (int64, error)
}

type moduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	return &moduleRepo{db: db, log: baseLog.With("repo", "ModuleRepo")}
}

func (r *moduleRepo) Create(dbc dbctx.Context, rows []*types.Module) ([]*types.Module, error) {
	if len(rows) == 0 {
		return []*types.Module{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *moduleRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Module, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Module
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *moduleRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Module, error) {
	if len(ids) == 0 {
		return []*types.Module{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Module
	if err := txx.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *moduleRepo) ListByCourseID(dbc dbctx.Context, courseID uuid.UUID, publishedOnly bool) ([]*types.Module, error) {
	if courseID == uuid.Nil {
		return []*types.Module{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).Where("course_id = ?", courseID)
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var out []*types.Module
	if err := q.Order("position ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *moduleRepo) ListIDsByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if len(courseIDs) == 0 {
		return out, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Module{}).
		Where("course_id IN ?", courseIDs).
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *moduleRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Module, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID required dbc.Tx")
	}
	var out types.Module
	err := withLock(dbc.Tx.WithContext(dbc.Ctx), lockUpdate).
		Where("id = ?", id).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *moduleRepo) LockByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Module, error) {
	if len(courseIDs) == 0 {
		return []*types.Module{}, nil
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByCourseIDs required dbc.Tx")
	}
	var out []*types.Module
	if err := withLock(dbc.Tx.WithContext(dbc.Ctx), lockUpdate).
		Where("course_id IN ?", courseIDs).
		Order("course_id ASC, position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *moduleRepo) CountByCourseID(dbc dbctx.Context, courseID uuid.UUID) (int, error) {
	return r.count(dbc, courseID, false)
}

func (r *moduleRepo) CountPublishedByCourseID(dbc dbctx.Context, courseID uuid.UUID) (int, error) {
	return r.count(dbc, courseID, true)
}

func (r *moduleRepo) count(dbc dbctx.Context, courseID uuid.UUID, publishedOnly bool) (int, error) {
	if courseID == uuid.Nil {
		return 0, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).Model(&types.Module{}).Where("course_id = ?", courseID)
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *moduleRepo) MaxPosition(dbc dbctx.Context, courseID uuid.UUID) (int, error) {
	if courseID == uuid.Nil {
		return 0, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var maxPos int
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Module{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxPos).Error; err != nil {
		return 0, err
	}
	return maxPos, nil
}

func (r *moduleRepo) ListPositions(dbc dbctx.Context, courseID uuid.UUID) ([]int, error) {
	out := []int{}
	if courseID == uuid.Nil {
		return out, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Module{}).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Pluck("position", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *moduleRepo) ShiftPositions(dbc dbctx.Context, courseID uuid.UUID, from, to, delta int) (int64, error) {
	if courseID == uuid.Nil {
		return 0, fmt.Errorf("missing course_id")
	}
	if delta == 0 {
		return 0, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).
		Model(&types.Module{}).
		Where("course_id = ? AND position >= ?", courseID, from)
	if to > 0 {
		q = q.Where("position <= ?", to)
	}
	res := q.Updates(map[string]interface{}{
		"position":   gorm.Expr("position + ?", delta),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *moduleRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Module{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *moduleRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.Module{}).Error
}

func (r *moduleRepo) DeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) (int64, error) {
	if len(courseIDs) == 0 {
		return 0, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Where("course_id IN ?", courseIDs).
		Delete(&types.Module{})
	return res.RowsAffected, res.Error
}
