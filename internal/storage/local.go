package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("criar diretório de storage: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Save(ctx context.Context, dir string, file File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := objectKey(dir, file)
	if err != nil {
		return "", err
	}
	full, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	out, err := os.Create(full)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, file.Body); err != nil {
		out.Close()
		os.Remove(full)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return key, nil
}

func (s *LocalStore) Delete(ctx context.Context, assetPath string) error {
	if assetPath == "" {
		return nil
	}
	full, err := s.resolve(assetPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) URL(assetPath string) string {
	if assetPath == "" {
		return ""
	}
	return s.baseURL + "/" + strings.TrimLeft(assetPath, "/")
}

// resolve impede que um caminho salvo no banco aponte para fora da raiz.
func (s *LocalStore) resolve(assetPath string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(assetPath))
	full := filepath.Join(s.root, clean)
	if !strings.HasPrefix(full, filepath.Clean(s.root)+string(filepath.Separator)) {
		return "", fmt.Errorf("caminho inválido: %s", assetPath)
	}
	return full, nil
}
