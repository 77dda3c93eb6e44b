package mirror

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/arloliu/runetek/format"
	"github.com/arloliu/runetek/internal/options"
)

type config struct {
	codec  format.CompressionType
	logger logrus.FieldLogger
}

// Option configures a Mirror.
type Option = options.Option[*config]

// WithCodec selects the codec frames are compressed with. Only codecs that can encode
// are accepted. The default is format.CompressionZstd.
func WithCodec(codec format.CompressionType) Option {
	return options.New(func(c *config) error {
		switch codec {
		case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
		default:
			return fmt.Errorf("mirror codec %s: %w", codec, errUnsupportedCodec)
		}
		c.codec = codec

		return nil
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
