package learning

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	lockUpdate = "UPDATE"
	lockShare  = "SHARE"
)

// withLock adds a row lock clause. SQLite has no row locks (writers are
// serialized per database), so the clause is skipped there.
func withLock(q *gorm.DB, strength string) *gorm.DB {
	if q.Dialector != nil && q.Dialector.Name() == "sqlite" {
		return q
	}
	return q.Clauses(clause.Locking{Strength: strength})
}
