// Package models holds the GORM persistence models.
package models

// All returns every model managed by AutoMigrate, parents before children.
func All() []interface{} {
	return []interface{}{
		&Student{},
		&Course{},
		&Enrollment{},
		&NIMSequence{},
		&ActivityLog{},
	}
}
