package testutil

import (
	"fmt"
	"testing"

	"alcance-reducido-backend/config"
	"alcance-reducido-backend/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB abre una base SQLite en memoria, aislada por test y ya migrada.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := config.GormConfig()
	cfg.Logger = gormlogger.Discard

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}
