// Package storage persists user uploads and generated media.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store saves media blobs and resolves them to public URLs.
type Store interface {
	// Put writes data under dir with a generated name and returns the
	// relative path.
	Put(ctx context.Context, dir, ext string, data []byte) (string, error)
	Get(ctx context.Context, path string) ([]byte, error)
	PublicURL(path string) string
}

// DiskStore keeps media on the local filesystem under a root directory.
type DiskStore struct {
	root    string
	baseURL string
}

func NewDiskStore(root, baseURL string) *DiskStore {
	return &DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *DiskStore) Put(ctx context.Context, dir, ext string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext = strings.TrimPrefix(ext, ".")
	name := fmt.Sprintf("%d_%s.%s", time.Now().Unix(), uuid.New().String()[:8], ext)
	rel := filepath.Join(dir, name)
	full := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

func (s *DiskStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(s.root, filepath.FromSlash(path)))
}

func (s *DiskStore) PublicURL(path string) string {
	return s.baseURL + "/media/" + strings.TrimLeft(filepath.ToSlash(path), "/")
}
