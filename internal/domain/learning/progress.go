package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ModuleProgress is created lazily on first access or completion.
type ModuleProgress struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;column:user_id;not null;uniqueIndex:idx_module_progress_user_module,priority:1" json:"user_id"`
	ModuleID       uuid.UUID  `gorm:"type:uuid;column:module_id;not null;uniqueIndex:idx_module_progress_user_module,priority:2;index" json:"module_id"`
	Completed      bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt    *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	LastAccessedAt *time.Time `gorm:"column:last_accessed_at" json:"last_accessed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ModuleProgress) TableName() string { return "module_progress" }

func (p *ModuleProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CourseProgress is derived from ModuleProgress rows of the course's published modules.
type CourseProgress struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;column:user_id;not null;uniqueIndex:idx_course_progress_user_course,priority:1" json:"user_id"`
	CourseID    uuid.UUID  `gorm:"type:uuid;column:course_id;not null;uniqueIndex:idx_course_progress_user_course,priority:2;index" json:"course_id"`
	Completed   bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CourseProgress) TableName() string { return "course_progress" }

func (p *CourseProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
