package downloader

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/arloliu/runetek/cache"
	"github.com/arloliu/runetek/cachefile"
	"github.com/arloliu/runetek/errs"
	"github.com/arloliu/runetek/format"
	"github.com/arloliu/runetek/internal/options"
	"github.com/arloliu/runetek/mirror"
)

// Cache serves files downloaded from the update servers.
type Cache struct {
	http        Downloader
	tcp         Downloader
	httpIndexes []format.Index
	mirror      *mirror.Mirror
	tables      *cache.Tables
	logger      logrus.FieldLogger
}

var _ cache.Cache = (*Cache)(nil)

// New creates a Cache. At least one transport must be configured; requests for an
// index whose transport is missing fail with errs.ErrNoTransport.
func New(opts ...Option) (*Cache, error) {
	cfg := &config{
		httpIndexes: []format.Index{format.IndexMusic},
		logger:      logrus.StandardLogger(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.http == nil && cfg.tcp == nil {
		return nil, errs.ErrNoTransport
	}

	c := &Cache{
		http:        cfg.http,
		tcp:         cfg.tcp,
		httpIndexes: cfg.httpIndexes,
		mirror:      cfg.mirror,
		logger:      cfg.logger.WithField("backend", "downloader"),
	}
	c.tables = cache.NewTables(c.FetchRaw)

	return c, nil
}

// Tables returns the reference table resolver of the cache.
func (c *Cache) Tables() *cache.Tables {
	return c.tables
}

// Indexes returns the indexes listed by the master reference table.
func (c *Cache) Indexes() ([]format.Index, error) {
	master, err := c.tables.Master()
	if err != nil {
		return nil, err
	}

	return master.Indexes(), nil
}

// FileIDs returns the files listed by the index's reference table. For the reference
// tables index it returns the indexes listed by the master reference table.
func (c *Cache) FileIDs(index format.Index) ([]int, error) {
	if !index.IsReferenceTables() {
		return c.tables.FileIDs(index)
	}

	indexes, err := c.Indexes()
	if err != nil {
		return nil, err
	}

	ids := make([]int, len(indexes))
	for i, idx := range indexes {
		ids[i] = int(idx)
	}

	return ids, nil
}

// FileInfo returns the metadata of one file.
func (c *Cache) FileInfo(index format.Index, fileID int) (*cachefile.Info, error) {
	return c.tables.FileInfo(index, fileID)
}

// FetchRaw downloads a file's container bytes, waiting for the transfer to finish.
func (c *Cache) FetchRaw(index format.Index, fileID int) (*cachefile.BinaryFile, error) {
	info, err := c.FileInfo(index, fileID)
	if err != nil {
		return nil, err
	}

	// Reference tables change between sessions without a version to key them by.
	mirrored := c.mirror != nil && !index.IsReferenceTables()
	if mirrored {
		file, err := c.mirror.Load(context.Background(), info)
		if err == nil {
			return file, nil
		}
		if !errors.Is(err, errs.ErrMirrorMiss) {
			c.logger.WithError(err).WithFields(logrus.Fields{"index": index, "file": fileID}).Warn("mirror load failed")
		}
	}

	d, err := c.transport(index)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{"index": index, "file": fileID}).Debug("download dispatched")

	res := <-d.DownloadAsync(info)
	if res.Err != nil {
		return nil, res.Err
	}

	if mirrored {
		if err := c.mirror.Save(context.Background(), res.File); err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{"index": index, "file": fileID}).Warn("mirror save failed")
		}
	}

	return res.File, nil
}

// PutFile is not supported: the update servers are read-only.
func (c *Cache) PutFile(file *cachefile.BinaryFile) error {
	return errs.ErrUnsupportedOperation
}

// Close closes both transports.
func (c *Cache) Close() error {
	var errList []error
	for _, d := range []Downloader{c.http, c.tcp} {
		if d == nil {
			continue
		}
		if err := d.Close(); err != nil {
			errList = append(errList, err)
		}
	}

	return errors.Join(errList...)
}

func (c *Cache) transport(index format.Index) (Downloader, error) {
	d := c.tcp
	name := "tcp"
	if slices.Contains(c.httpIndexes, index) {
		d = c.http
		name = "http"
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s transport for index %d", errs.ErrNoTransport, name, index)
	}

	return d, nil
}
