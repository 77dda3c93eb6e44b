package downloader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/arloliu/runetek/cachefile"
	"github.com/arloliu/runetek/endian"
	"github.com/arloliu/runetek/errs"
	"github.com/arloliu/runetek/format"
	"github.com/arloliu/runetek/internal/options"
)

// DefaultTCPAddr is the update server dialed when no address is given.
const DefaultTCPAddr = "content.runescape.com:43594"

// DefaultMaxInFlight is the default number of requests outstanding on one connection.
const DefaultMaxInFlight = 20

// Protocol constants.
const (
	handshakeOpcode   = 15
	handshakeOK       = 0
	requestOpcode     = 1
	requestSize       = 10
	responseBlockSize = 102400
	blockMarker       = 0xff
	urgentFileFlag    = 0x80000000
	// maxContainerSize bounds the allocation a single response header can request.
	maxContainerSize = 1 << 28
)

var errClosed = errors.New("downloader closed")

// Dialer opens connections. *net.Dialer implements it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type tcpConfig struct {
	major       uint32
	minor       uint32
	key         string
	language    uint8
	dialer      Dialer
	maxInFlight int64
	logger      logrus.FieldLogger
}

// TCPOption configures a TCPDownloader.
type TCPOption = options.Option[*tcpConfig]

// WithBuild sets the client build announced in the handshake. The major build is also
// sent with every request.
func WithBuild(major, minor int) TCPOption {
	return options.New(func(c *tcpConfig) error {
		if major < 0 || major > math.MaxUint16 || minor < 0 {
			return fmt.Errorf("%w: build %d.%d", errs.ErrValueOutOfRange, major, minor)
		}
		c.major = uint32(major) //nolint: gosec
		c.minor = uint32(minor) //nolint: gosec

		return nil
	})
}

// WithKey sets the session key sent in the handshake.
func WithKey(key string) TCPOption {
	return options.NoError(func(c *tcpConfig) {
		c.key = key
	})
}

// WithLanguage sets the language id sent in the handshake.
func WithLanguage(language uint8) TCPOption {
	return options.NoError(func(c *tcpConfig) {
		c.language = language
	})
}

// WithDialer sets the dialer used to connect. The default is a net.Dialer with a
// 10 second timeout.
func WithDialer(dialer Dialer) TCPOption {
	return options.NoError(func(c *tcpConfig) {
		if dialer != nil {
			c.dialer = dialer
		}
	})
}

// WithMaxInFlight limits the number of outstanding requests.
func WithMaxInFlight(n int) TCPOption {
	return options.New(func(c *tcpConfig) error {
		if n < 1 {
			return fmt.Errorf("%w: max in flight %d", errs.ErrValueOutOfRange, n)
		}
		c.maxInFlight = int64(n)

		return nil
	})
}

// WithTCPLogger sets the logger. The default is logrus.StandardLogger().
func WithTCPLogger(logger logrus.FieldLogger) TCPOption {
	return options.NoError(func(c *tcpConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

type fileKey struct {
	index  format.Index
	fileID int
}

type response struct {
	data []byte
	err  error
}

// TCPDownloader fetches files over the legacy update protocol.
//
// Handshake:
//
//	[u8 15][u8 length][u32 major][u32 minor][key][u8 0][u8 language]  -> [u8 status]
//
// Request:
//
//	[u8 1][u8 index][u32 file][u16 major][u16 0]
//
// Response:
//
//	[u8 index][u32 file][container without version trailer]
//
// Responses are split into blocks of 102400 bytes; every block after the first is
// preceded by a 0xff marker. Requests are pipelined over one connection and responses
// are matched to requests by index and file id. A connection that fails is dropped and
// the next download dials a new one.
type TCPDownloader struct {
	addr   string
	cfg    *tcpConfig
	sem    *semaphore.Weighted
	logger logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	conn   *tcpConn
	closed bool
}

var _ Downloader = (*TCPDownloader)(nil)

// NewTCPDownloader creates a TCPDownloader for addr. No connection is made until the
// first download.
func NewTCPDownloader(addr string, opts ...TCPOption) (*TCPDownloader, error) {
	cfg := &tcpConfig{
		dialer:      &net.Dialer{Timeout: 10 * time.Second},
		maxInFlight: DefaultMaxInFlight,
		logger:      logrus.StandardLogger(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if addr == "" {
		addr = DefaultTCPAddr
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TCPDownloader{
		addr:   addr,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.maxInFlight),
		logger: cfg.logger.WithFields(logrus.Fields{"transport": "tcp", "addr": addr}),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// DownloadAsync queues a request for the file info describes.
func (d *TCPDownloader) DownloadAsync(info *cachefile.Info) <-chan Result {
	info = info.Clone()

	return startAsync(func() (*cachefile.BinaryFile, error) {
		return d.download(info)
	})
}

// Close aborts outstanding requests and closes the connection.
func (d *TCPDownloader) Close() error {
	d.cancel()

	d.mu.Lock()
	d.closed = true
	conn := d.conn
	d.conn = nil
	d.mu.Unlock()

	if conn != nil {
		conn.fail(errClosed)
	}

	return nil
}

func (d *TCPDownloader) download(info *cachefile.Info) (*cachefile.BinaryFile, error) {
	if err := d.sem.Acquire(d.ctx, 1); err != nil {
		return nil, err
	}
	defer d.sem.Release(1)

	conn, err := d.connection()
	if err != nil {
		return nil, err
	}

	wait, err := conn.request(info, d.cfg.major)
	if err != nil {
		return nil, err
	}

	select {
	case resp := <-wait:
		if resp.err != nil {
			return nil, fmt.Errorf("download index %d file %d: %w", info.Index, info.FileID, resp.err)
		}

		d.logger.WithFields(logrus.Fields{
			"index": info.Index,
			"file":  info.FileID,
			"size":  len(resp.data),
		}).Debug("downloaded file")

		return cachefile.NewBinaryFile(resp.data, info), nil
	case <-d.ctx.Done():
		return nil, d.ctx.Err()
	}
}

// connection returns the live connection, dialing a new one if needed.
func (d *TCPDownloader) connection() (*tcpConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, errClosed
	}
	if d.conn != nil && !d.conn.failed() {
		return d.conn, nil
	}

	netConn, err := d.cfg.dialer.DialContext(d.ctx, "tcp", d.addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.addr, err)
	}

	if err := handshake(netConn, d.cfg); err != nil {
		_ = netConn.Close()
		return nil, err
	}

	d.conn = newTCPConn(netConn)
	go d.conn.readLoop(d.logger)

	d.logger.Info("connected to update server")

	return d.conn, nil
}

func handshake(conn net.Conn, cfg *tcpConfig) error {
	engine := endian.GetBigEndianEngine()

	body := make([]byte, 0, 10+len(cfg.key))
	body = engine.AppendUint32(body, cfg.major)
	body = engine.AppendUint32(body, cfg.minor)
	body = append(body, cfg.key...)
	body = append(body, 0, cfg.language)
	if len(body) > math.MaxUint8 {
		return fmt.Errorf("%w: handshake key too long", errs.ErrValueOutOfRange)
	}

	packet := append([]byte{handshakeOpcode, byte(len(body))}, body...)
	if _, err := conn.Write(packet); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}

	var status [1]byte
	if _, err := io.ReadFull(conn, status[:]); err != nil {
		return fmt.Errorf("read handshake status: %w", err)
	}
	if status[0] != handshakeOK {
		return fmt.Errorf("%w: status %d", errs.ErrHandshakeRejected, status[0])
	}

	return nil
}

// tcpConn is one handshaken connection with its outstanding requests.
type tcpConn struct {
	conn    net.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[fileKey][]chan response
	err     error
	done    chan struct{}
}

func newTCPConn(conn net.Conn) *tcpConn {
	return &tcpConn{
		conn:    conn,
		pending: make(map[fileKey][]chan response),
		done:    make(chan struct{}),
	}
}

func (c *tcpConn) failed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// request registers a waiter for info's file and sends the request.
func (c *tcpConn) request(info *cachefile.Info, major uint32) (<-chan response, error) {
	if info.FileID < 0 || int64(info.FileID) >= urgentFileFlag {
		return nil, fmt.Errorf("%w: file id %d", errs.ErrValueOutOfRange, info.FileID)
	}

	key := fileKey{index: info.Index, fileID: info.FileID}
	wait := make(chan response, 1)

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	c.pending[key] = append(c.pending[key], wait)
	c.mu.Unlock()

	engine := endian.GetBigEndianEngine()

	packet := make([]byte, 0, requestSize)
	packet = append(packet, requestOpcode, byte(info.Index))
	packet = engine.AppendUint32(packet, uint32(info.FileID)) //nolint: gosec
	packet = engine.AppendUint16(packet, uint16(major))       //nolint: gosec
	packet = engine.AppendUint16(packet, 0)

	c.writeMu.Lock()
	_, err := c.conn.Write(packet)
	c.writeMu.Unlock()

	if err != nil {
		c.fail(fmt.Errorf("send request: %w", err))
	}

	return wait, nil
}

func (c *tcpConn) readLoop(logger logrus.FieldLogger) {
	r := bufio.NewReader(c.conn)

	for {
		key, data, err := readResponse(r)
		if err != nil {
			c.fail(err)
			logger.WithError(err).Debug("connection closed")

			return
		}

		c.mu.Lock()
		waiters := c.pending[key]
		if len(waiters) == 0 {
			c.mu.Unlock()
			c.fail(fmt.Errorf("%w: unsolicited index %d file %d", errs.ErrUnexpectedResponse, key.index, key.fileID))

			return
		}
		if len(waiters) == 1 {
			delete(c.pending, key)
		} else {
			c.pending[key] = waiters[1:]
		}
		c.mu.Unlock()

		waiters[0] <- response{data: data}
	}
}

// fail records err, fails every outstanding request and closes the connection.
func (c *tcpConn) fail(err error) {
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return
	}
	c.err = err
	close(c.done)
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, waiters := range pending {
		for _, w := range waiters {
			w <- response{err: err}
		}
	}

	_ = c.conn.Close()
}

// blockReader strips the block markers of one response.
type blockReader struct {
	r          *bufio.Reader
	pos        int
	needMarker bool
}

func (b *blockReader) readFull(p []byte) error {
	for len(p) > 0 {
		if b.needMarker {
			marker, err := b.r.ReadByte()
			if err != nil {
				return err
			}
			if marker != blockMarker {
				return fmt.Errorf("%w: block marker 0x%02x", errs.ErrUnexpectedResponse, marker)
			}
			b.needMarker = false
		}

		n := min(len(p), responseBlockSize-b.pos%responseBlockSize)
		if _, err := io.ReadFull(b.r, p[:n]); err != nil {
			return err
		}

		b.pos += n
		p = p[n:]
		if b.pos%responseBlockSize == 0 {
			b.needMarker = true
		}
	}

	return nil
}

func readResponse(r *bufio.Reader) (fileKey, []byte, error) {
	br := &blockReader{r: r}

	var header [10]byte
	if err := br.readFull(header[:]); err != nil {
		return fileKey{}, nil, err
	}

	engine := endian.GetBigEndianEngine()
	key := fileKey{
		index:  format.Index(header[0]),
		fileID: int(engine.Uint32(header[1:5]) &^ urgentFileFlag),
	}

	compression := format.CompressionType(header[5])
	size := int(engine.Uint32(header[6:10]))
	if compression != format.CompressionNone {
		size += 4
	}
	if size > maxContainerSize {
		return fileKey{}, nil, fmt.Errorf("%w: container of %d bytes", errs.ErrUnexpectedResponse, size)
	}

	data := make([]byte, 5+size)
	copy(data, header[5:])
	if err := br.readFull(data[5:]); err != nil {
		return fileKey{}, nil, err
	}

	return key, data, nil
}
