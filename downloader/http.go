package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/arloliu/runetek/cachefile"
	"github.com/arloliu/runetek/errs"
	"github.com/arloliu/runetek/internal/options"
)

// DefaultHTTPBaseURL is the content server queried when no base URL is configured.
const DefaultHTTPBaseURL = "http://content.runescape.com"

type httpConfig struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  logrus.FieldLogger
}

// HTTPOption configures an HTTPDownloader.
type HTTPOption = options.Option[*httpConfig]

// WithBaseURL sets the content server URL.
func WithBaseURL(baseURL string) HTTPOption {
	return options.New(func(c *httpConfig) error {
		if baseURL == "" {
			return fmt.Errorf("%w: empty base URL", errs.ErrSetup)
		}
		c.baseURL = strings.TrimRight(baseURL, "/")

		return nil
	})
}

// WithHTTPClient sets the client used for requests. The default is http.DefaultClient.
func WithHTTPClient(client *http.Client) HTTPOption {
	return options.NoError(func(c *httpConfig) {
		if client != nil {
			c.client = client
		}
	})
}

// WithRateLimit limits requests to perSecond, allowing bursts of burst requests.
// A non-positive perSecond disables limiting, which is the default.
func WithRateLimit(perSecond float64, burst int) HTTPOption {
	return options.NoError(func(c *httpConfig) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	})
}

// WithHTTPLogger sets the logger. The default is logrus.StandardLogger().
func WithHTTPLogger(logger logrus.FieldLogger) HTTPOption {
	return options.NoError(func(c *httpConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// HTTPDownloader fetches files from the HTTP content endpoint:
//
//	GET {base}/ms?m=0&a={index}&g={file}&c={crc}&v={version}
//
// The response body is the file's container.
type HTTPDownloader struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
}

var _ Downloader = (*HTTPDownloader)(nil)

// NewHTTPDownloader creates an HTTPDownloader.
func NewHTTPDownloader(opts ...HTTPOption) (*HTTPDownloader, error) {
	cfg := &httpConfig{
		baseURL: DefaultHTTPBaseURL,
		client:  http.DefaultClient,
		logger:  logrus.StandardLogger(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &HTTPDownloader{
		baseURL: cfg.baseURL,
		client:  cfg.client,
		limiter: cfg.limiter,
		logger:  cfg.logger.WithField("transport", "http"),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// URL returns the request URL for the file info describes.
func (d *HTTPDownloader) URL(info *cachefile.Info) string {
	return fmt.Sprintf("%s/ms?m=0&a=%d&g=%d&c=%d&v=%d",
		d.baseURL, info.Index, info.FileID, int32(info.CRC), info.Version) //nolint: gosec
}

// DownloadAsync starts the request in its own goroutine.
func (d *HTTPDownloader) DownloadAsync(info *cachefile.Info) <-chan Result {
	info = info.Clone()

	return startAsync(func() (*cachefile.BinaryFile, error) {
		return d.download(info)
	})
}

// Close aborts outstanding requests and closes idle connections.
func (d *HTTPDownloader) Close() error {
	d.cancel()
	d.client.CloseIdleConnections()

	return nil
}

func (d *HTTPDownloader) download(info *cachefile.Info) (*cachefile.BinaryFile, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(d.ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(d.ctx, http.MethodGet, d.URL(info), nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download index %d file %d: %w", info.Index, info.FileID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: index %d file %d", errs.ErrFileNotFound, info.Index, info.FileID)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: index %d file %d: HTTP %s",
			errs.ErrUnexpectedResponse, info.Index, info.FileID, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download index %d file %d: %w", info.Index, info.FileID, err)
	}

	d.logger.WithFields(logrus.Fields{
		"index": info.Index,
		"file":  info.FileID,
		"size":  len(data),
	}).Debug("downloaded file")

	return cachefile.NewBinaryFile(data, info), nil
}
