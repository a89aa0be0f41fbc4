package pkg

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore persists uploaded documents (credential files, templates,
// verification documents) and hands back an opaque path to store on the
// owning record.
type FileStore interface {
	Save(category, filename string, r io.Reader) (string, error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
}

// LocalFileStore keeps files on local disk under a base directory,
// partitioned by category.
type LocalFileStore struct {
	baseDir string
}

func NewLocalFileStore(baseDir string) (*LocalFileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalFileStore{baseDir: baseDir}, nil
}

// Save stores the file under a generated name, keeping only the original
// extension. The returned path is relative to the base directory.
func (s *LocalFileStore) Save(category, filename string, r io.Reader) (string, error) {
	dir := filepath.Join(s.baseDir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create category dir: %w", err)
	}

	name := uuid.New().String() + filepath.Ext(filename)
	fullPath := filepath.Join(dir, name)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filepath.Join(category, name), nil
}

func (s *LocalFileStore) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.baseDir, path))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

func (s *LocalFileStore) Remove(path string) error {
	if err := os.Remove(filepath.Join(s.baseDir, path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}
