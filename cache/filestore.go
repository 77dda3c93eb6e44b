package cache

import (
	"github.com/sirupsen/logrus"

	"github.com/arloliu/runetek/cachefile"
	"github.com/arloliu/runetek/errs"
	"github.com/arloliu/runetek/format"
	"github.com/arloliu/runetek/internal/options"
	"github.com/arloliu/runetek/store"
)

// FileStoreCache serves files from a local sector cache.
type FileStoreCache struct {
	store  *store.FileStore
	tables *Tables
	logger logrus.FieldLogger
}

var _ Cache = (*FileStoreCache)(nil)

// NewFileStoreCache wraps s. The cache takes ownership of s and closes it on Close.
func NewFileStoreCache(s *store.FileStore, opts ...Option) (*FileStoreCache, error) {
	cfg := &config{logger: logrus.StandardLogger()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	c := &FileStoreCache{
		store:  s,
		logger: cfg.logger.WithField("backend", "filestore"),
	}
	c.tables = NewTables(c.readRaw)

	return c, nil
}

// Store returns the underlying FileStore.
func (c *FileStoreCache) Store() *store.FileStore {
	return c.store
}

// Tables returns the reference table resolver of the cache.
func (c *FileStoreCache) Tables() *Tables {
	return c.tables
}

// Indexes returns the indexes with an open index file.
func (c *FileStoreCache) Indexes() ([]format.Index, error) {
	return c.store.Indexes(), nil
}

// FileIDs returns the files listed by the index's reference table. For the reference
// tables index it returns every file with an index record.
func (c *FileStoreCache) FileIDs(index format.Index) ([]int, error) {
	if index.IsReferenceTables() {
		return c.store.FileIDs(index)
	}

	return c.tables.FileIDs(index)
}

// FileInfo returns the metadata of one file.
func (c *FileStoreCache) FileInfo(index format.Index, fileID int) (*cachefile.Info, error) {
	return c.tables.FileInfo(index, fileID)
}

// FetchRaw reads a file's container bytes from the store.
func (c *FileStoreCache) FetchRaw(index format.Index, fileID int) (*cachefile.BinaryFile, error) {
	info, err := c.FileInfo(index, fileID)
	if err != nil {
		return nil, err
	}

	data, err := c.store.ReadFile(index, fileID)
	if err != nil {
		return nil, err
	}

	return cachefile.NewBinaryFile(data, info), nil
}

// PutFile is not supported: the store is read-only.
func (c *FileStoreCache) PutFile(file *cachefile.BinaryFile) error {
	return errs.ErrUnsupportedOperation
}

// Close closes the underlying store.
func (c *FileStoreCache) Close() error {
	return c.store.Close()
}

func (c *FileStoreCache) readRaw(index format.Index, fileID int) (*cachefile.BinaryFile, error) {
	data, err := c.store.ReadFile(index, fileID)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{"index": index, "file": fileID}).Debug("loaded reference data")

	return cachefile.NewBinaryFile(data, cachefile.NewInfo(index, fileID)), nil
}
