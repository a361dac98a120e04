package database

import "jobboard/internal/models"

// PersistentModels lists every model managed by AutoMigrate, parents first.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Job{},
	}
}
