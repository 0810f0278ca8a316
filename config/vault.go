package config

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
)

type VaultRepository struct {
	client *api.Client
}

func NewVaultRepository(client *api.Client) *VaultRepository {
	return &VaultRepository{client: client}
}

func (r *VaultRepository) SetToken(v string) {
	r.client.SetToken(v)
}

func (r *VaultRepository) GetSecrets(ctx context.Context, path string) (*api.Secret, error) {
	return r.client.Logical().ReadWithContext(ctx, path)
}

func (r *VaultRepository) WriteWithContext(ctx context.Context, path string, data map[string]any) (*api.Secret, error) {
	return r.client.Logical().WriteWithContext(ctx, path, data)
}

// NewSecretsRepository devuelve nil cuando Vault está deshabilitado.
func NewSecretsRepository(cfg Vault) (SecretsRepository, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address
	vaultConfig.Timeout = cfg.Timeout

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("creando cliente de Vault: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	repo := NewVaultRepository(client)
	if cfg.Token == "" {
		return nil, fmt.Errorf("VAULT_TOKEN es requerido cuando VAULT_ENABLED=true")
	}
	repo.SetToken(cfg.Token)
	return repo, nil
}
