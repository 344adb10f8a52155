package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID   uuid.UUID `gorm:"type:uuid;column:creator_id;not null;index" json:"creator_id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`
	Published   bool      `gorm:"column:published;not null;default:false;index" json:"published"`

	// Capacity caps PENDING+ACTIVE+COMPLETED enrollments; nil means unlimited.
	Capacity         *int           `gorm:"column:capacity" json:"capacity,omitempty"`
	RequiresApproval bool           `gorm:"column:requires_approval;not null;default:false" json:"requires_approval"`
	Metadata         datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CoursePrerequisite says CourseID can only be joined once PrerequisiteID is completed.
type CoursePrerequisite struct {
	CourseID       uuid.UUID `gorm:"type:uuid;column:course_id;primaryKey" json:"course_id"`
	PrerequisiteID uuid.UUID `gorm:"type:uuid;column:prerequisite_id;primaryKey;index" json:"prerequisite_id"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (CoursePrerequisite) TableName() string { return "course_prerequisite" }
