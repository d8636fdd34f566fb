package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactStore persists rendered files and knows their public URL.
type ArtifactStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	URL(key string) string
}

// LocalStore writes artifacts under Dir. The directory is served statically
// under BaseURL.
type LocalStore struct {
	Dir     string
	BaseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to ensure artifact dir: %w", err)
	}
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	destPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(destPath, body, 0o644)
}

func (s *LocalStore) URL(key string) string {
	return fmt.Sprintf("%s/%s", s.BaseURL, strings.TrimLeft(key, "/"))
}

// path keeps keys inside Dir.
func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("empty artifact key")
	}
	return filepath.Join(s.Dir, clean), nil
}
