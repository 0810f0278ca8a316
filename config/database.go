package config

import (
	"context"
	"fmt"
	"strings"

	"alcance-reducido-backend/internal/logger"

	"github.com/cenkalti/backoff/v5"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	// Format: user:password@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local
	defaultMySQLDSN  = "root:@tcp(127.0.0.1:3306)/alcance_reducido?charset=utf8mb4&parseTime=True&loc=Local"
	defaultSQLiteDSN = "alcance_reducido.db"
)

// GormConfig es la configuración común a la app, los comandos y los tests.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
	}
}

// Dialector elige el driver de GORM según DB_DRIVER.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(driver) {
	case DriverMySQL, "":
		if dsn == "" {
			dsn = defaultMySQLDSN
		}
		return mysql.Open(dsn), nil
	case DriverSQLite:
		if dsn == "" {
			dsn = defaultSQLiteDSN
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("DB_DRIVER desconocido: %q", driver)
	}
}

// ConnectDB abre la base y la verifica con ping, reintentando con backoff exponencial.
func ConnectDB(ctx context.Context, cfg Database, secrets *Secrets, log logger.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.Driver, secrets.DatabaseDSN())
	if err != nil {
		return nil, err
	}

	expBackoff := backoff.NewExponentialBackOff()
	if cfg.ConnectBackoff > 0 {
		expBackoff.InitialInterval = cfg.ConnectBackoff
	}

	attempt := 0
	operation := func() (*gorm.DB, error) {
		attempt++
		db, err := gorm.Open(dialector, GormConfig())
		if err == nil {
			err = ping(ctx, db)
		}
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Str("driver", cfg.Driver).Msg("conexión a la base de datos falló")
			return nil, err
		}
		return db, nil
	}

	db, err := backoff.Retry(ctx, operation,
		backoff.WithMaxTries(cfg.ConnectRetries+1),
		backoff.WithBackOff(expBackoff),
	)
	if err != nil {
		return nil, fmt.Errorf("no se pudo conectar a la base de datos: %w", err)
	}

	log.Info().Str("driver", cfg.Driver).Int("attempts", attempt).Msg("conexión a la base de datos establecida")
	return db, nil
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
