package db

import (
	"fmt"

	types "github.com/yungbote/classroom-backend/internal/domain"
	"gorm.io/gorm"
)

type foreignKey struct {
	table, name, column, refTable, onDelete string
}

var postgresForeignKeys = []foreignKey{
	{"course", "fk_course_creator", "creator_id", "user", "CASCADE"},
	{"course_prerequisite", "fk_course_prerequisite_course", "course_id", "course", "CASCADE"},
	{"course_prerequisite", "fk_course_prerequisite_prerequisite", "prerequisite_id", "course", "CASCADE"},
	{"module", "fk_module_course", "course_id", "course", "CASCADE"},
	{"enrollment", "fk_enrollment_user", "user_id", "user", "CASCADE"},
	{"enrollment", "fk_enrollment_course", "course_id", "course", "CASCADE"},
	{"module_progress", "fk_module_progress_user", "user_id", "user", "CASCADE"},
	{"module_progress", "fk_module_progress_module", "module_id", "module", "CASCADE"},
	{"course_progress", "fk_course_progress_user", "user_id", "user", "CASCADE"},
	{"course_progress", "fk_course_progress_course", "course_id", "course", "CASCADE"},
}

// AutoMigrateAll creates or updates every table. On Postgres it also adds the
// cascading foreign keys; aggregates still delete children explicitly so the
// same cascade holds on SQLite.
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return err
	}
	if db.Dialector.Name() != DriverPostgres {
		return nil
	}
	for _, fk := range postgresForeignKeys {
		var exists int64
		if err := db.Raw(`SELECT COUNT(*) FROM pg_constraint WHERE conname = ?`, fk.name).Scan(&exists).Error; err != nil {
			return fmt.Errorf("check %s: %w", fk.name, err)
		}
		if exists > 0 {
			continue
		}
		stmt := fmt.Sprintf(
			`ALTER TABLE %q ADD CONSTRAINT %q FOREIGN KEY (%q) REFERENCES %q("id") ON DELETE %s`,
			fk.table, fk.name, fk.column, fk.refTable, fk.onDelete,
		)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", fk.name, err)
		}
	}
	return nil
}
