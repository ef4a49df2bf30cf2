package sections

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	pkgerrors "github.com/yungbote/dossier-backend/internal/pkg/errors"
)

// localStore keeps section files in a flat local directory. Used for
// development runs and tests; production uses the bucket-backed store.
type localStore struct {
	dir string
}

func NewLocalStore(dir string) (Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("section directory required: %w", pkgerrors.ErrInvalidArgument)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create section directory %q: %w", dir, err)
	}
	return &localStore{dir: dir}, nil
}

func (s *localStore) Save(_ context.Context, key string, content string) error {
	if err := validKey(key); err != nil {
		return err
	}
	path := filepath.Join(s.dir, key)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write section %q: %w", key, err)
	}
	return nil
}

func (s *localStore) Get(_ context.Context, key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, key))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("section %q: %w", key, pkgerrors.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read section %q: %w", key, err)
	}
	return string(raw), nil
}

func (s *localStore) List(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), prefix) {
			keys = append(keys, e.Name())
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// validKey rejects anything that would escape the flat directory.
func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, "/\\") || key != filepath.Base(key) {
		return fmt.Errorf("section key %q: %w", key, pkgerrors.ErrInvalidArgument)
	}
	return nil
}
