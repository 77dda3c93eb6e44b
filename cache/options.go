package cache

import (
	"github.com/sirupsen/logrus"

	"github.com/arloliu/runetek/internal/options"
)

type config struct {
	logger logrus.FieldLogger
}

// Option configures a FileStoreCache.
type Option = options.Option[*config]

// WithLogger sets the logger. The default is logrus.StandardLogger().
func WithLogger(logger logrus.FieldLogger) Option {
	return options.NoError(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}
