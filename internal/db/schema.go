package db

import (
	"fmt"

	"github.com/iamfafakkk/minimalFreeRadius/internal/models"
	"gorm.io/gorm"
)

// EnsureSchema creates the nas, radcheck and radreply tables when they are missing.
// Existing tables are left untouched; production schemas come from FreeRADIUS itself.
func EnsureSchema(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	migrator := conn.Migrator()
	for _, table := range []any{&models.Nas{}, &models.RadCheck{}, &models.RadReply{}} {
		if migrator.HasTable(table) {
			continue
		}
		if errCreate := migrator.CreateTable(table); errCreate != nil {
			return fmt.Errorf("db: create table: %w", errCreate)
		}
	}
	return nil
}
