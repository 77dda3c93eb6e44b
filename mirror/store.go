package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arloliu/runetek/errs"
)

// Store persists mirror frames by key. Keys use '/' as separator.
type Store interface {
	// Get returns the frame stored under key, or errs.ErrMirrorMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores frame under key, replacing any previous value.
	Put(ctx context.Context, key string, frame []byte) error
}

// DirStore stores frames as files below a root directory.
type DirStore struct {
	root string
}

var _ Store = (*DirStore)(nil)

// NewDirStore creates a DirStore rooted at root. The directory is created on first Put.
func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

func (s *DirStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Get reads the frame stored under key.
func (s *DirStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", errs.ErrMirrorMiss, key)
	}

	return data, err
}

// Put writes frame to a temporary file and renames it into place, so readers never
// observe a partial frame.
func (s *DirStore) Put(_ context.Context, key string, frame []byte) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".mirror-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint: errcheck

	if _, err := tmp.Write(frame); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
