package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON file per key under a directory. The directory is
// created on the first write.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the root directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file used for key
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, SanitizeKey(key)+".json")
}

// Get implements Store
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	return data, nil
}

// Set implements Store. The file is written to a temp name and renamed so
// readers never observe a partial entry.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// Delete implements Store
func (s *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.Path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

// Name implements Store
func (s *FileStore) Name() string {
	return "file"
}

var _ Store = (*FileStore)(nil)
