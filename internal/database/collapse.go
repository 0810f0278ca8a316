package database

import (
	"context"

	"alcance-reducido-backend/internal/logger"
	"alcance-reducido-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CollapseReport struct {
	// Migrados cuenta todos los dispositivos pendientes, incluidos los que quedan sin distribuidor.
	Migrados        int
	SinDistribuidor int
	ConMultiples    int
}

// CollapseToSingle pasa cada dispositivo de la lista de distribuidores a una sola
// referencia, conservando el primero. Los distribuidores descartados pierden el
// dispositivo de su lista inversa. Con dryRun solo calcula el reporte.
//
// Un dispositivo está pendiente si tiene filas en dispositivo_distribuidores o si
// todavía no tiene referencia única. Los que solo tienen la referencia única ya
// fueron migrados y no se tocan.
func CollapseToSingle(ctx context.Context, db *gorm.DB, dryRun bool, log logger.Logger) (CollapseReport, error) {
	var report CollapseReport

	var dispositivos []model.Dispositivo
	err := db.WithContext(ctx).Preload("Vinculos").
		Select("id", "modelo", "distribuidor_id").
		Order("id").Find(&dispositivos).Error
	if err != nil {
		return report, err
	}

	for i := range dispositivos {
		d := &dispositivos[i]
		d.ResolveDistribuidores(model.OwnershipMulti)
		ids := d.DistribuidorIDs
		anterior := ""
		if d.DistribuidorID != nil {
			anterior = *d.DistribuidorID
		}
		if len(ids) == 0 && anterior != "" {
			continue
		}

		var conservado *string
		var descartados []string
		switch {
		case len(ids) == 0:
			report.SinDistribuidor++
		case len(ids) > 1:
			report.ConMultiples++
			log.Warn().Str("dispositivo", d.ID).Str("modelo", d.Modelo).Int("distribuidores", len(ids)).
				Str("conservado", ids[0]).Msg("dispositivo con múltiples distribuidores; se conserva el primero")
			fallthrough
		default:
			conservado = &ids[0]
			descartados = append(descartados, ids[1:]...)
		}
		if anterior != "" && (conservado == nil || anterior != *conservado) && !containsString(descartados, anterior) {
			descartados = append(descartados, anterior)
		}
		report.Migrados++
		if dryRun {
			continue
		}

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&model.Dispositivo{}).Where("id = ?", d.ID).
				Update("distribuidor_id", conservado).Error; err != nil {
				return err
			}
			if err := tx.Where("dispositivo_id = ?", d.ID).Delete(&model.DispositivoDistribuidor{}).Error; err != nil {
				return err
			}
			if len(descartados) > 0 {
				if err := tx.Where("dispositivo_id = ? AND distribuidor_id IN ?", d.ID, descartados).
					Delete(&model.DistribuidorDispositivo{}).Error; err != nil {
					return err
				}
			}
			if conservado == nil {
				return nil
			}
			ref := model.DistribuidorDispositivo{DistribuidorID: *conservado, DispositivoID: d.ID}
			return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ref).Error
		})
		if err != nil {
			return report, err
		}
	}

	log.Info().Bool("dry_run", dryRun).Int("migrados", report.Migrados).
		Int("sin_distribuidor", report.SinDistribuidor).Int("con_multiples", report.ConMultiples).
		Msg("migración distribuidores → distribuidor completada")
	return report, nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
