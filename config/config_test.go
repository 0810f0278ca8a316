package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcance-reducido-backend/config"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type fakeVault struct {
	data map[string]any
	err  error
	path string
}

func (f *fakeVault) SetToken(string) {}

func (f *fakeVault) GetSecrets(_ context.Context, path string) (*api.Secret, error) {
	f.path = path
	if f.err != nil {
		return nil, f.err
	}
	return &api.Secret{Data: map[string]any{"data": f.data}}, nil
}

func (f *fakeVault) WriteWithContext(context.Context, string, map[string]any) (*api.Secret, error) {
	return nil, nil
}

type SecretsTestSuite struct {
	suite.Suite
}

func TestSecretsTestSuite(t *testing.T) {
	suite.Run(t, new(SecretsTestSuite))
}

func (s *SecretsTestSuite) SetupTest() {
	for _, key := range []string{config.KeyJWTSecret, config.KeyJWTExpiresIn, config.KeyBaseURL, config.KeyDatabaseDSN} {
		s.T().Setenv(key, "")
	}
}

func (s *SecretsTestSuite) TestDefaultsWithoutVaultOrEnv() {
	secrets, err := config.LoadSecrets(context.Background(), nil, "")
	s.Require().NoError(err)

	s.Equal("secret_key_default_cambiar_en_produccion", string(secrets.JWTSecret()))
	s.Equal(24*time.Hour, secrets.JWTExpiresIn())
	s.Equal("http://localhost:3000", secrets.BaseURL())
	s.Empty(secrets.DatabaseDSN())
}

func (s *SecretsTestSuite) TestEnvironmentOverridesDefault() {
	s.T().Setenv(config.KeyJWTSecret, "desde-env")
	s.T().Setenv(config.KeyBaseURL, "https://catalogo.example.cl/")

	secrets, err := config.LoadSecrets(context.Background(), nil, "")
	s.Require().NoError(err)

	s.Equal("desde-env", string(secrets.JWTSecret()))
	s.Equal("https://catalogo.example.cl", secrets.BaseURL())
}

func (s *SecretsTestSuite) TestVaultOverridesEnvironment() {
	s.T().Setenv(config.KeyJWTSecret, "desde-env")
	vault := &fakeVault{data: map[string]any{config.KeyJWTSecret: "desde-vault", config.KeyJWTExpiresIn: "7d"}}

	secrets, err := config.LoadSecrets(context.Background(), vault, "secret/data/app")
	s.Require().NoError(err)

	s.Equal("secret/data/app", vault.path)
	s.Equal("desde-vault", string(secrets.JWTSecret()))
	s.Equal(7*24*time.Hour, secrets.JWTExpiresIn())
}

func (s *SecretsTestSuite) TestReloadPicksUpRotatedValue() {
	vault := &fakeVault{data: map[string]any{config.KeyJWTSecret: "v1"}}
	secrets, err := config.LoadSecrets(context.Background(), vault, "p")
	s.Require().NoError(err)
	s.Equal("v1", string(secrets.JWTSecret()))

	vault.data = map[string]any{config.KeyJWTSecret: "v2"}
	s.Require().NoError(secrets.Reload(context.Background()))
	s.Equal("v2", string(secrets.JWTSecret()))
}

func (s *SecretsTestSuite) TestReloadFailureKeepsPreviousValues() {
	vault := &fakeVault{data: map[string]any{config.KeyJWTSecret: "v1"}}
	secrets, err := config.LoadSecrets(context.Background(), vault, "p")
	s.Require().NoError(err)

	vault.err = errors.New("vault caído")
	s.Require().Error(secrets.Reload(context.Background()))
	s.Equal("v1", string(secrets.JWTSecret()))
}

func (s *SecretsTestSuite) TestInvalidExpiryIsRejected() {
	s.T().Setenv(config.KeyJWTExpiresIn, "mañana")
	_, err := config.LoadSecrets(context.Background(), nil, "")
	s.Require().Error(err)
}

func TestParseExpiresIn(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"24h", 24 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"0d", 0, true},
		{"-1h", 0, true},
		{"x", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := config.ParseExpiresIn(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("DEVICE_OWNERSHIP_MODE", "single")
	t.Setenv("UPLOAD_MAX_IMAGE_MB", "5")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "single", cfg.Relationship.OwnershipMode)
	assert.Equal(t, int64(5), cfg.Upload.MaxImageMB)
	assert.Equal(t, int64(30), cfg.Upload.MaxArchiveMB)
	assert.Equal(t, 10, cfg.Upload.MaxFiles)
	assert.Equal(t, (30*10+1)<<20, cfg.MaxUploadBytes())
}

func TestDialectorRejectsUnknownDriver(t *testing.T) {
	_, err := config.Dialector("oracle", "")
	require.Error(t, err)

	d, err := config.Dialector("sqlite", "file::memory:")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())
}
