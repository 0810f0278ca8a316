package main

import (
	"context"

	"alcance-reducido-backend/config"
	"alcance-reducido-backend/internal/database"
	"alcance-reducido-backend/internal/logger"
	"alcance-reducido-backend/internal/repository"

	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatalLog := logger.New(logger.LevelError, "")
		fatalLog.Fatal().Err(err).Msg("configuración inválida")
	}
	log := logger.New(cfg.App.LogLevel, cfg.App.LogFormat).Named("seeder")
	if envErr != nil {
		log.Debug().Msg("archivo .env no encontrado, usando variables del sistema")
	}
	ctx := context.Background()

	vaultRepo, err := config.NewSecretsRepository(cfg.Vault)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo crear el cliente de Vault")
	}
	secrets, err := config.LoadSecrets(ctx, vaultRepo, cfg.Vault.SecretPath)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudieron cargar los secretos")
	}

	db, err := config.ConnectDB(ctx, cfg.Database, secrets, log)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo conectar a la base de datos")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("falló la migración")
	}

	log.Info().Msg("ejecutando seeders")
	if err := database.EnsureDefaultAdmin(ctx, repository.NewUserRepository(db), cfg.Admin, log); err != nil {
		log.Fatal().Err(err).Msg("no se pudo crear el administrador")
	}
	if err := database.SeedAll(db, log); err != nil {
		log.Fatal().Err(err).Msg("falló la carga de datos de ejemplo")
	}
	log.Info().Msg("seeding terminado")
}
