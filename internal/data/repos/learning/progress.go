package learning

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/platform/dbctx"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ModuleProgressRepo interface {
	// Insert creates the row unless (user_id, module_id) already exists; created reports which.
	Insert(dbc dbctx.Context, row *types.ModuleProgress) (created bool, err error)
	GetByUserAndModule(dbc dbctx.Context, userID, moduleID uuid.UUID) (*types.ModuleProgress, error)
	ListByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) ([]*types.ModuleProgress, error)
	// CountCompletedPublished counts the user's completed rows that point at published modules of the course.
	CountCompletedPublished(dbc dbctx.Context, userID, courseID uuid.UUID) (int, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByModuleIDs(dbc dbctx.Context, moduleIDs []uuid.UUID) error
}

type moduleProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleProgressRepo(db *gorm.DB, baseLog *logger.Logger) ModuleProgressRepo {
	return &moduleProgressRepo{db: db, log: baseLog.With("repo", "ModuleProgressRepo")}
}

func (r *moduleProgressRepo) Insert(dbc dbctx.Context, row *types.ModuleProgress) (bool, error) {
	if row == nil {
		return false, fmt.Errorf("missing row")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	// callers read by key first and update explicitly; DoNothing only absorbs
	// a concurrent insert of the same key, reported as created=false
	res := txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *moduleProgressRepo) GetByUserAndModule(dbc dbctx.Context, userID, moduleID uuid.UUID) (*types.ModuleProgress, error) {
	if userID == uuid.Nil || moduleID == uuid.Nil {
		return nil, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ModuleProgress
	if err := txx.WithContext(dbc.Ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *moduleProgressRepo) ListByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) ([]*types.ModuleProgress, error) {
	if userID == uuid.Nil || courseID == uuid.Nil {
		return []*types.ModuleProgress{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ModuleProgress
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ModuleProgress{}).
		Joins("JOIN module ON module.id = module_progress.module_id").
		Where("module_progress.user_id = ? AND module.course_id = ?", userID, courseID).
		Order("module.position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *moduleProgressRepo) CountCompletedPublished(dbc dbctx.Context, userID, courseID uuid.UUID) (int, error) {
	if userID == uuid.Nil || courseID == uuid.Nil {
		return 0, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ModuleProgress{}).
		Joins("JOIN module ON module.id = module_progress.module_id").
		Where("module_progress.user_id = ? AND module_progress.completed = ?", userID, true).
		Where("module.course_id = ? AND module.published = ?", courseID, true).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *moduleProgressRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.ModuleProgress{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *moduleProgressRepo) DeleteByModuleIDs(dbc dbctx.Context, moduleIDs []uuid.UUID) error {
	if len(moduleIDs) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("module_id IN ?", moduleIDs).
		Delete(&types.ModuleProgress{}).Error
}

type CourseProgressRepo interface {
	Create(dbc dbctx.Context, rows []*types.CourseProgress) ([]*types.CourseProgress, error)
	// Insert creates the row unless (user_id, course_id) already exists; created reports which.
	Insert(dbc dbctx.Context, row *types.CourseProgress) (created bool, err error)
	GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.CourseProgress, error)
	// ListUserIDsByCourseID returns every user holding a CourseProgress row for the course.
	ListUserIDsByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error)
	// CompletedCourseIDs returns which of courseIDs the user has completed.
	CompletedCourseIDs(dbc dbctx.Context, userID uuid.UUID, courseIDs []uuid.UUID) ([]uuid.UUID, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error
}

type courseProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseProgressRepo(db *gorm.DB, baseLog *logger.Logger) CourseProgressRepo {
	return &courseProgressRepo{db: db, log: baseLog.With("repo", "CourseProgressRepo")}
}

func (r *courseProgressRepo) Create(dbc dbctx.Context, rows []*types.CourseProgress) ([]*types.CourseProgress, error) {
	if len(rows) == 0 {
		return []*types.CourseProgress{}, nil
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

func (r *courseProgressRepo) Insert(dbc dbctx.Context, row *types.CourseProgress) (bool, error) {
	if row == nil {
		return false, fmt.Errorf("missing row")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	// insert-race guard only, see moduleProgressRepo.Insert
	res := txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *courseProgressRepo) GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.CourseProgress, error) {
	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.CourseProgress
	if err := txx.WithContext(dbc.Ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *courseProgressRepo) ListUserIDsByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if courseID == uuid.Nil {
		return out, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.CourseProgress{}).
		Where("course_id = ?", courseID).
		Order("user_id ASC").
		Pluck("user_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseProgressRepo) CompletedCourseIDs(dbc dbctx.Context, userID uuid.UUID, courseIDs []uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if userID == uuid.Nil || len(courseIDs) == 0 {
		return out, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.CourseProgress{}).
		Where("user_id = ? AND course_id IN ? AND completed = ?", userID, courseIDs, true).
		Pluck("course_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseProgressRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.CourseProgress{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *courseProgressRepo) DeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error {
	if len(courseIDs) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("course_id IN ?", courseIDs).
		Delete(&types.CourseProgress{}).Error
}
