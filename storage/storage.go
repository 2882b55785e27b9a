// Package storage persists uploaded file bytes on local disk.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/serisow/metaminds/document"
)

// FileStore saves uploads under a single directory. Filename collisions
// are resolved with a uuid suffix so every upload keeps its own blob.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create upload directory: %v", document.ErrStorageIO, err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes data to a new file named after filename and returns the
// full path. An existing file with the same name is never overwritten.
func (s *FileStore) Save(filename string, data []byte) (string, error) {
	name := filepath.Base(filename)
	path := filepath.Join(s.dir, name)

	if _, err := os.Stat(path); err == nil {
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		path = filepath.Join(s.dir, fmt.Sprintf("%s-%s%s", base, uuid.NewString(), ext))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("%w: failed to save %s: %v", document.ErrStorageIO, name, err)
	}
	return path, nil
}

func (s *FileStore) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", document.ErrStorageIO, path, err)
	}
	return data, nil
}

// Remove deletes a saved blob. Used to roll back a failed upload.
func (s *FileStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: failed to remove %s: %v", document.ErrStorageIO, path, err)
	}
	return nil
}
