package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/vault/api"
)

const (
	KeyJWTSecret    = "JWT_SECRET"
	KeyJWTExpiresIn = "JWT_EXPIRES_IN"
	KeyBaseURL      = "BASE_URL"
	KeyDatabaseDSN  = "DB_DSN"
)

var secretDefaults = map[string]string{
	KeyJWTSecret:    "secret_key_default_cambiar_en_produccion",
	KeyJWTExpiresIn: "24h",
	KeyBaseURL:      "http://localhost:3000",
	KeyDatabaseDSN:  "",
}

// SecretsRepository es el almacén externo de secretos.
type SecretsRepository interface {
	SetToken(v string)
	GetSecrets(ctx context.Context, path string) (*api.Secret, error)
	WriteWithContext(ctx context.Context, path string, data map[string]any) (*api.Secret, error)
}

// Secrets guarda los valores sensibles resueltos en orden Vault → entorno → defecto.
// Se construye una vez al arrancar; solo Reload los modifica.
type Secrets struct {
	repo SecretsRepository
	path string

	mu        sync.RWMutex
	values    map[string]string
	expiresIn time.Duration
}

// NewSecrets crea el contenedor; repo puede ser nil si Vault está deshabilitado.
func NewSecrets(repo SecretsRepository, path string) *Secrets {
	return &Secrets{repo: repo, path: path}
}

// LoadSecrets crea el contenedor y hace la primera resolución.
func LoadSecrets(ctx context.Context, repo SecretsRepository, path string) (*Secrets, error) {
	s := NewSecrets(repo, path)
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Secrets) Reload(ctx context.Context) error {
	fromVault := map[string]string{}
	if s.repo != nil {
		secret, err := s.repo.GetSecrets(ctx, s.path)
		if err != nil {
			return fmt.Errorf("leyendo secretos de %s: %w", s.path, err)
		}
		fromVault = secretData(secret)
	}

	values := make(map[string]string, len(secretDefaults))
	for key, def := range secretDefaults {
		switch {
		case fromVault[key] != "":
			values[key] = fromVault[key]
		case GetEnv(key, "") != "":
			values[key] = GetEnv(key, "")
		default:
			values[key] = def
		}
	}

	expiresIn, err := ParseExpiresIn(values[KeyJWTExpiresIn])
	if err != nil {
		return err
	}
	values[KeyBaseURL] = strings.TrimRight(values[KeyBaseURL], "/")

	s.mu.Lock()
	s.values = values
	s.expiresIn = expiresIn
	s.mu.Unlock()
	return nil
}

func (s *Secrets) get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.values == nil {
		return secretDefaults[key]
	}
	return s.values[key]
}

func (s *Secrets) JWTSecret() []byte {
	return []byte(s.get(KeyJWTSecret))
}

func (s *Secrets) JWTExpiresIn() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expiresIn == 0 {
		return 24 * time.Hour
	}
	return s.expiresIn
}

func (s *Secrets) BaseURL() string {
	return s.get(KeyBaseURL)
}

func (s *Secrets) DatabaseDSN() string {
	return s.get(KeyDatabaseDSN)
}

// ParseExpiresIn acepta una duración de Go ("24h", "90m") o días ("7d").
func ParseExpiresIn(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("JWT_EXPIRES_IN inválido: %q", v)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("JWT_EXPIRES_IN inválido: %q", v)
	}
	return d, nil
}

// secretData soporta rutas KV v2 (valores bajo "data") y KV v1.
func secretData(secret *api.Secret) map[string]string {
	out := map[string]string{}
	if secret == nil || secret.Data == nil {
		return out
	}
	data := secret.Data
	if nested, ok := data["data"].(map[string]any); ok {
		data = nested
	}
	for key, value := range data {
		if str, ok := value.(string); ok {
			out[key] = str
		}
	}
	return out
}
