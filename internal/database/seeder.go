package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"alcance-reducido-backend/config"
	"alcance-reducido-backend/internal/logger"
	"alcance-reducido-backend/internal/model"
	"alcance-reducido-backend/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureDefaultAdmin crea la cuenta administradora si todavía no hay ningún admin.
func EnsureDefaultAdmin(ctx context.Context, users repository.UserRepository, admin config.Admin, log logger.Logger) error {
	exists, err := users.ExistsAdmin(ctx)
	if err != nil {
		return err
	}
	if exists {
		log.Debug().Msg("ya existe un usuario administrador")
		return nil
	}
	if admin.Email == "" || admin.Password == "" {
		log.Warn().Msg("no hay administrador y ADMIN_EMAIL/ADMIN_PASSWORD no están definidos")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash de contraseña: %w", err)
	}

	user := &model.User{
		Nombre:   admin.Nombre,
		Email:    strings.ToLower(strings.TrimSpace(admin.Email)),
		Password: string(hashed),
		Rol:      model.RolAdmin,
	}
	if err := users.Create(ctx, user); err != nil {
		return fmt.Errorf("creando administrador: %w", err)
	}

	log.Info().Str("email", user.Email).Msg("usuario administrador creado")
	return nil
}

// SeedAll carga un catálogo de ejemplo. Es idempotente.
func SeedAll(db *gorm.DB, log logger.Logger) error {
	return db.Transaction(func(tx *gorm.DB) error {
		// 1. Marcas
		marcas := []model.Marca{
			{Fabricante: "Samsung Electronics", Nombre: "Samsung"},
			{Fabricante: "Xiaomi Communications", Nombre: "Xiaomi"},
			{Fabricante: "Motorola Mobility", Nombre: "Motorola"},
		}
		for i := range marcas {
			if err := tx.Where("fabricante = ? AND marca = ?", marcas[i].Fabricante, marcas[i].Nombre).
				FirstOrCreate(&marcas[i]).Error; err != nil {
				return err
			}
		}

		// 2. Distribuidores
		distribuidores := []model.Distribuidor{
			{Representante: "Entel", NombreRepresentante: "Entel PCS Telecomunicaciones S.A.", SitioWeb: "https://www.entel.cl"},
			{Representante: "Movistar", NombreRepresentante: "Telefónica Móviles Chile S.A.", SitioWeb: "https://www.movistar.cl"},
		}
		for i := range distribuidores {
			if err := tx.Omit(clause.Associations).Where("representante = ?", distribuidores[i].Representante).
				FirstOrCreate(&distribuidores[i]).Error; err != nil {
				return err
			}
		}

		// 3. Dispositivos, un distribuidor cada uno para que ambas generaciones coincidan
		dispositivos := []struct {
			modelo       string
			marca        int
			distribuidor int
			tecnologia   []string
		}{
			{"SM-A546E", 0, 0, []string{"GSM", "LTE", "NR"}},
			{"SM-S911B", 0, 1, []string{"LTE", "NR"}},
			{"23021RAA2Y", 1, 0, []string{"GSM", "LTE"}},
			{"XT2235-2", 2, 1, []string{"LTE"}},
		}
		for _, seed := range dispositivos {
			distribuidorID := distribuidores[seed.distribuidor].ID
			d := model.Dispositivo{
				Modelo:            seed.modelo,
				Tipo:              "Celular",
				FechaPublicacion:  time.Now(),
				Tecnologia:        datatypes.JSONSlice[string](seed.tecnologia),
				ResolutionVersion: model.ResolucionVersion2017,
				MarcaID:           marcas[seed.marca].ID,
				DistribuidorID:    &distribuidorID,
			}
			if err := tx.Omit(clause.Associations).Where("modelo = ?", seed.modelo).FirstOrCreate(&d).Error; err != nil {
				return err
			}
			if d.DistribuidorID == nil || *d.DistribuidorID != distribuidorID {
				continue
			}
			vinculo := model.DispositivoDistribuidor{DispositivoID: d.ID, DistribuidorID: distribuidorID}
			ref := model.DistribuidorDispositivo{DistribuidorID: distribuidorID, DispositivoID: d.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vinculo).Error; err != nil {
				return err
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ref).Error; err != nil {
				return err
			}
		}

		log.Info().Int("marcas", len(marcas)).Int("distribuidores", len(distribuidores)).
			Int("dispositivos", len(dispositivos)).Msg("catálogo de ejemplo cargado")
		return nil
	})
}
