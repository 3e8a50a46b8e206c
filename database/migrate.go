package database

import (
	"identity-service/domain"

	"gorm.io/gorm"
)

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Module{},
		&domain.Role{},
		&domain.Permission{},
		&domain.Identity{},
	)
}
