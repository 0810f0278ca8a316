package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore escribe bajo UPLOAD_DIR; la app sirve ese directorio en /uploads.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creando %s: %w", root, err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put escribe en un temporal y lo renombra, así nunca queda visible un archivo parcial.
func (s *LocalStore) Put(ctx context.Context, key string, body io.Reader, _ int64, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := filepath.Join(s.root, filepath.FromSlash(key))
	if !strings.HasPrefix(target, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return fmt.Errorf("clave inválida: %q", key)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), target)
}

func (s *LocalStore) URL(key string) string {
	return s.baseURL + "/uploads/" + key
}
