package visualization

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImageStore persists rendered charts and serves them back by filename.
type ImageStore interface {
	Save(prefix string, png []byte) (string, error)
	Open(filename string) (io.ReadCloser, error)
	Sweep(olderThan time.Duration) (int, error)
}

// DiskImageStore keeps rendered charts as flat files in one directory.
type DiskImageStore struct {
	dir string
}

// NewDiskImageStore creates the image directory when missing.
func NewDiskImageStore(dir string) (*DiskImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &DiskImageStore{dir: dir}, nil
}

// Save writes the PNG under a random, unguessable filename.
func (s *DiskImageStore) Save(prefix string, png []byte) (string, error) {
	filename := fmt.Sprintf("%s_%s.png", prefix, uuid.NewString()[:8])
	if err := os.WriteFile(filepath.Join(s.dir, filename), png, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return filename, nil
}

// Open returns the stored image. Filenames carrying path separators or a
// foreign extension are treated as absent so the store never reads outside
// its directory.
func (s *DiskImageStore) Open(filename string) (io.ReadCloser, error) {
	if filename != filepath.Base(filename) || !strings.HasSuffix(filename, ".png") {
		return nil, ErrImageNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, filename))
	if os.IsNotExist(err) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return f, nil
}

// Sweep deletes images older than the given age and reports how many went.
func (s *DiskImageStore) Sweep(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read image dir: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}
