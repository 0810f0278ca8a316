package database

import (
	"fmt"

	"alcance-reducido-backend/internal/model"

	"gorm.io/gorm"
)

// Migrate crea o actualiza las tablas del catálogo.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Marca{},
		&model.Distribuidor{},
		&model.DistribuidorDispositivo{},
		&model.Dispositivo{},
		&model.DispositivoDistribuidor{},
		&model.User{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// "Galaxy S23" y "galaxy s23" son modelos distintos.
	if db.Dialector.Name() == "mysql" {
		err = db.Exec("ALTER TABLE dispositivos MODIFY modelo VARCHAR(191) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL").Error
		if err != nil {
			return fmt.Errorf("collation de modelo: %w", err)
		}
	}
	return nil
}
