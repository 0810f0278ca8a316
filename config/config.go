package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Settings struct {
	App          App
	Database     Database
	Vault        Vault
	Storage      Storage
	Upload       Upload
	Redis        Redis
	RateLimit    RateLimit
	Relationship Relationship
	Admin        Admin
}

type App struct {
	Name      string `envconfig:"APP_NAME" default:"alcance-reducido-backend"`
	Env       string `envconfig:"APP_ENV" default:"development"`
	Port      string `envconfig:"PORT" default:"3000"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

type Database struct {
	Driver         string        `envconfig:"DB_DRIVER" default:"mysql"`
	ConnectRetries uint          `envconfig:"DB_CONNECT_RETRIES" default:"5"`
	ConnectBackoff time.Duration `envconfig:"DB_CONNECT_BACKOFF" default:"1s"`
}

type Vault struct {
	Enabled    bool          `envconfig:"VAULT_ENABLED" default:"false"`
	Address    string        `envconfig:"VAULT_ADDRESS" default:"http://127.0.0.1:8200"`
	Token      string        `envconfig:"VAULT_TOKEN"`
	SecretPath string        `envconfig:"VAULT_SECRET_PATH" default:"secret/data/alcance-reducido"`
	Namespace  string        `envconfig:"VAULT_NAMESPACE"`
	Timeout    time.Duration `envconfig:"VAULT_TIMEOUT" default:"5s"`
}

type Storage struct {
	Driver          string `envconfig:"STORAGE_DRIVER" default:"s3"`
	Region          string `envconfig:"AWS_REGION" default:"us-east-1"`
	Bucket          string `envconfig:"S3_BUCKET_NAME"`
	AccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	UploadDir       string `envconfig:"UPLOAD_DIR" default:"./uploads"`
}

type Upload struct {
	MaxImageMB   int64 `envconfig:"UPLOAD_MAX_IMAGE_MB" default:"10"`
	MaxArchiveMB int64 `envconfig:"UPLOAD_MAX_ARCHIVE_MB" default:"30"`
	MaxFiles     int   `envconfig:"UPLOAD_MAX_FILES" default:"10"`
}

type Redis struct {
	Address  string `envconfig:"REDIS_ADDRESS"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type RateLimit struct {
	Enabled   bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	PerMinute int  `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	Burst     int  `envconfig:"RATE_LIMIT_BURST" default:"30"`
}

type Relationship struct {
	OwnershipMode string `envconfig:"DEVICE_OWNERSHIP_MODE" default:"multi"`
}

type Admin struct {
	Nombre   string `envconfig:"ADMIN_NOMBRE" default:"Usuario Administrador"`
	Email    string `envconfig:"ADMIN_EMAIL"`
	Password string `envconfig:"ADMIN_PASSWORD"`
}

// Load lee la configuración no secreta desde el entorno.
func Load() (*Settings, error) {
	cfg := &Settings{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("no se pudo leer la configuración: %w", err)
	}
	return cfg, nil
}

// MaxUploadBytes es el mayor cuerpo que puede llegar en una carga múltiple.
func (s *Settings) MaxUploadBytes() int {
	largest := s.Upload.MaxArchiveMB
	if s.Upload.MaxImageMB > largest {
		largest = s.Upload.MaxImageMB
	}
	files := int64(s.Upload.MaxFiles)
	if files < 1 {
		files = 1
	}
	return int(largest*files+1) << 20
}

// GetEnv devuelve la variable de entorno o el valor por defecto.
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
