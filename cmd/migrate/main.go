package main

import (
	"context"
	"flag"

	"alcance-reducido-backend/config"
	"alcance-reducido-backend/internal/database"
	"alcance-reducido-backend/internal/logger"

	"github.com/joho/godotenv"
)

// Pasa los dispositivos de la relación con varios distribuidores a la de uno solo.
// Después de correrlo, el servicio debe arrancar con DEVICE_OWNERSHIP_MODE=single.
func main() {
	dryRun := flag.Bool("dry-run", false, "solo informa lo que cambiaría")
	flag.Parse()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatalLog := logger.New(logger.LevelError, "")
		fatalLog.Fatal().Err(err).Msg("configuración inválida")
	}
	log := logger.New(cfg.App.LogLevel, cfg.App.LogFormat).Named("migrate")
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
		log.Fatal().Err(err).Msg("falló la migración de esquema")
	}

	report, err := database.CollapseToSingle(ctx, db, *dryRun, log)
	if err != nil {
		log.Fatal().Err(err).Msg("falló la migración de distribuidores")
	}
	log.Info().
		Bool("dry_run", *dryRun).
		Int("migrados", report.Migrados).
		Int("sin_distribuidor", report.SinDistribuidor).
		Int("con_multiples", report.ConMultiples).
		Msg("migración terminada")
}
