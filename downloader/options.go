package downloader

import (
	"github.com/sirupsen/logrus"

	"github.com/arloliu/runetek/format"
	"github.com/arloliu/runetek/internal/options"
	"github.com/arloliu/runetek/mirror"
)

type config struct {
	http        Downloader
	tcp         Downloader
	httpIndexes []format.Index
	mirror      *mirror.Mirror
	logger      logrus.FieldLogger
}

// Option configures a Cache.
type Option = options.Option[*config]

// WithHTTPDownloader sets the transport used for the HTTP indexes.
func WithHTTPDownloader(d Downloader) Option {
	return options.NoError(func(c *config) {
		c.http = d
	})
}

// WithTCPDownloader sets the transport used for every index not served over HTTP.
func WithTCPDownloader(d Downloader) Option {
	return options.NoError(func(c *config) {
		c.tcp = d
	})
}

// WithHTTPIndexes sets the indexes fetched over HTTP. The default is the music index.
func WithHTTPIndexes(indexes ...format.Index) Option {
	return options.NoError(func(c *config) {
		c.httpIndexes = append([]format.Index(nil), indexes...)
	})
}

// WithMirror checks m before each download and saves every downloaded file to it.
func WithMirror(m *mirror.Mirror) Option {
	return options.NoError(func(c *config) {
		c.mirror = m
	})
}

// WithLogger sets the logger. The default is logrus.StandardLogger().
func WithLogger(logger logrus.FieldLogger) Option {
	return options.NoError(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}
