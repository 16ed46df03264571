package models

import "gorm.io/gorm"

// MigrateTable creates the local store schema. Safe to run on every start.
func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&QueuedMutation{},
		&LocalSequence{},
		&Product{},
		&Bin{},
		&LocalCredential{},
	)
}
