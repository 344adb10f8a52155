package learning

import (
	"github.com/google/uuid"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/platform/dbctx"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CoursePrerequisiteRepo interface {
	Create(dbc dbctx.Context, rows []*types.CoursePrerequisite) ([]*types.CoursePrerequisite, error)
	ListPrerequisiteIDs(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error)
	// DeleteByCourseIDs removes edges on either side of the given courses.
	DeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error
}

type coursePrerequisiteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCoursePrerequisiteRepo(db *gorm.DB, baseLog *logger.Logger) CoursePrerequisiteRepo {
	return &coursePrerequisiteRepo{db: db, log: baseLog.With("repo", "CoursePrerequisiteRepo")}
}

func (r *coursePrerequisiteRepo) Create(dbc dbctx.Context, rows []*types.CoursePrerequisite) ([]*types.CoursePrerequisite, error) {
	if len(rows) == 0 {
		return []*types.CoursePrerequisite{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *coursePrerequisiteRepo) ListPrerequisiteIDs(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if courseID == uuid.Nil {
		return out, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var rows []*types.CoursePrerequisite
	if err := txx.WithContext(dbc.Ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out = append(out, row.PrerequisiteID)
	}
	return out, nil
}

func (r *coursePrerequisiteRepo) DeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error {
	if len(courseIDs) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("course_id IN ? OR prerequisite_id IN ?", courseIDs, courseIDs).
		Delete(&types.CoursePrerequisite{}).Error
}
