package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"alcance-reducido-backend/config"
	"alcance-reducido-backend/internal/database"
	"alcance-reducido-backend/internal/logger"
	"alcance-reducido-backend/internal/metrics"
	"alcance-reducido-backend/internal/model"
	"alcance-reducido-backend/internal/qr"
	"alcance-reducido-backend/internal/ratelimit"
	"alcance-reducido-backend/internal/repository"
	"alcance-reducido-backend/internal/routes"
	"alcance-reducido-backend/internal/storage"
	"alcance-reducido-backend/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Variables de entorno (.env es opcional)
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatalLog := logger.New(logger.LevelError, "")
		fatalLog.Fatal().Err(err).Msg("configuración inválida")
	}
	log := logger.New(cfg.App.LogLevel, cfg.App.LogFormat)
	if envErr != nil {
		log.Debug().Msg("archivo .env no encontrado, usando variables del sistema")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Secretos: Vault → entorno → valores por defecto
	vaultRepo, err := config.NewSecretsRepository(cfg.Vault)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo crear el cliente de Vault")
	}
	secrets, err := config.LoadSecrets(ctx, vaultRepo, cfg.Vault.SecretPath)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudieron cargar los secretos")
	}

	mode, err := model.ParseOwnershipMode(cfg.Relationship.OwnershipMode)
	if err != nil {
		log.Fatal().Err(err).Msg("DEVICE_OWNERSHIP_MODE inválido")
	}

	// 3. Base de datos
	db, err := config.ConnectDB(ctx, cfg.Database, secrets, log)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo conectar a la base de datos")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("falló la migración")
	}
	if err := database.EnsureDefaultAdmin(ctx, repository.NewUserRepository(db), cfg.Admin, log.Named("seeder")); err != nil {
		log.Error().Err(err).Msg("no se pudo crear el administrador por defecto")
	}

	// 4. Almacenamiento, rate limit y métricas
	store, err := storage.New(ctx, cfg.Storage, secrets.BaseURL())
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo inicializar el almacenamiento")
	}
	limitStore, closeLimitStore, err := ratelimit.NewStore(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo conectar a Redis")
	}
	defer closeLimitStore()
	limiter, err := ratelimit.New(cfg.RateLimit, limitStore, log.Named("ratelimit"))
	if err != nil {
		log.Fatal().Err(err).Msg("configuración de rate limit inválida")
	}
	metrics.Init()

	// 5. HTTP
	staticDir := ""
	if strings.EqualFold(cfg.Storage.Driver, "local") {
		staticDir = cfg.Storage.UploadDir
	}
	app := routes.NewApp(routes.AppOptions{
		Name:      cfg.App.Name,
		BodyLimit: cfg.MaxUploadBytes(),
		StaticDir: staticDir,
	}, &routes.Deps{
		DB:          db,
		Log:         log,
		Mode:        mode,
		Tokens:      usecase.NewTokenService(secrets),
		BaseURL:     secrets,
		QR:          qr.NewPNGEncoder(),
		Store:       store,
		Upload:      cfg.Upload,
		PublicLimit: limiter,
	})

	// SIGHUP relee los secretos sin reiniciar.
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			if err := secrets.Reload(context.Background()); err != nil {
				log.Error().Err(err).Msg("no se pudieron recargar los secretos")
				continue
			}
			log.Info().Msg("secretos recargados")
		}
	}()

	go func() {
		<-ctx.Done()
		log.Info().Msg("apagando servidor")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Info().Str("port", cfg.App.Port).Str("ownership", string(mode)).Msg("servidor listo")
	if err := app.Listen(":" + cfg.App.Port); err != nil {
		log.Fatal().Err(err).Msg("el servidor se detuvo")
	}
}
