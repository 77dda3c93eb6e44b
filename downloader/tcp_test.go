package downloader

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/runetek/cachefile"
	"github.com/arloliu/runetek/errs"
	"github.com/arloliu/runetek/format"
	"github.com/arloliu/runetek/internal/cachetest"
)

type handshakeRecord struct {
	major, minor uint32
	key          string
	language     byte
}

// fakeUpdateServer speaks the server side of the TCP update protocol on a loopback
// listener. Requests for unknown files drop the connection.
type fakeUpdateServer struct {
	ln     net.Listener
	files  map[cachetest.Key][]byte
	status byte
	// batch makes the server collect that many requests and answer them in reverse.
	batch int

	handshakes atomic.Int32
	mu         sync.Mutex
	last       handshakeRecord
}

func startUpdateServer(t *testing.T, files map[cachetest.Key][]byte, configure ...func(*fakeUpdateServer)) *fakeUpdateServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeUpdateServer{ln: ln, files: files, batch: 1}
	for _, fn := range configure {
		fn(s)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go s.serve()

	return s
}

func (s *fakeUpdateServer) addr() string {
	return s.ln.Addr().String()
}

func (s *fakeUpdateServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeUpdateServer) handle(conn net.Conn) {
	defer conn.Close()

	var head [2]byte
	if _, err := io.ReadFull(conn, head[:]); err != nil || head[0] != handshakeOpcode {
		return
	}
	body := make([]byte, head[1])
	if _, err := io.ReadFull(conn, body); err != nil {
		return
	}

	s.handshakes.Add(1)
	s.mu.Lock()
	s.last = handshakeRecord{
		major:    binary.BigEndian.Uint32(body[0:4]),
		minor:    binary.BigEndian.Uint32(body[4:8]),
		key:      string(body[8 : len(body)-2]),
		language: body[len(body)-1],
	}
	s.mu.Unlock()

	if _, err := conn.Write([]byte{s.status}); err != nil || s.status != handshakeOK {
		return
	}

	for {
		responses := make([][]byte, 0, s.batch)
		for range s.batch {
			var req [requestSize]byte
			if _, err := io.ReadFull(conn, req[:]); err != nil || req[0] != requestOpcode {
				return
			}

			index := req[1]
			fileID := binary.BigEndian.Uint32(req[2:6])
			data, ok := s.files[cachetest.Key{Index: format.Index(index), FileID: int(fileID)}]
			if !ok {
				return
			}
			responses = append(responses, encodeResponse(index, fileID, data))
		}

		for i := len(responses) - 1; i >= 0; i-- {
			if _, err := conn.Write(responses[i]); err != nil {
				return
			}
		}
	}
}

func (s *fakeUpdateServer) lastHandshake() handshakeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.last
}

// encodeResponse frames container (minus any version trailer) the way the update server
// does, marking the file as urgent.
func encodeResponse(index byte, fileID uint32, container []byte) []byte {
	size := 5 + int(binary.BigEndian.Uint32(container[1:5]))
	if container[0] != 0 {
		size += 4
	}

	payload := []byte{index}
	payload = binary.BigEndian.AppendUint32(payload, fileID|urgentFileFlag)
	payload = append(payload, container[:size]...)

	out := make([]byte, 0, len(payload)+len(payload)/responseBlockSize)
	for i, b := range payload {
		if i > 0 && i%responseBlockSize == 0 {
			out = append(out, blockMarker)
		}
		out = append(out, b)
	}

	return out
}

func sampleFiles(t *testing.T) map[cachetest.Key][]byte {
	t.Helper()

	sample, err := cachetest.NewSample()
	require.NoError(t, err)

	return sample.Files
}

func newTCPDownloader(t *testing.T, addr string, opts ...TCPOption) *TCPDownloader {
	t.Helper()

	opts = append([]TCPOption{WithTCPLogger(quietLogger())}, opts...)
	d, err := NewTCPDownloader(addr, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	return d
}

func TestTCPDownloader_Download(t *testing.T) {
	files := sampleFiles(t)
	srv := startUpdateServer(t, files)
	d := newTCPDownloader(t, srv.addr(), WithBuild(910, 1), WithKey("k3y"), WithLanguage(2))

	info := cachefile.NewInfo(cachetest.SampleIndex, cachetest.SampleBinaryFile)
	res := <-d.DownloadAsync(info)
	require.NoError(t, res.Err)
	require.Equal(t, info, res.File.Info())

	// The server omits the version trailer.
	raw := files[cachetest.Key{Index: cachetest.SampleIndex, FileID: cachetest.SampleBinaryFile}]
	require.Equal(t, raw[:len(raw)-2], res.File.Data)

	container, err := cachefile.DecodeContainer(res.File.Data)
	require.NoError(t, err)
	require.Equal(t, cachetest.SampleBinaryText, string(container.Data))
	require.Equal(t, cachefile.NoVersion, container.Version)

	require.Equal(t, handshakeRecord{major: 910, minor: 1, key: "k3y", language: 2}, srv.lastHandshake())
}

func TestTCPDownloader_MultiBlock(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), 16000)
	container, err := (&cachefile.Container{Compression: format.CompressionNone, Version: cachefile.NoVersion, Data: data}).Encode()
	require.NoError(t, err)

	files := map[cachetest.Key][]byte{{Index: 3, FileID: 70000}: container}
	srv := startUpdateServer(t, files)
	d := newTCPDownloader(t, srv.addr())

	res := <-d.DownloadAsync(cachefile.NewInfo(3, 70000))
	require.NoError(t, res.Err)
	require.Equal(t, container, res.File.Data)
}

func TestTCPDownloader_Pipelined(t *testing.T) {
	files := sampleFiles(t)
	srv := startUpdateServer(t, files, func(s *fakeUpdateServer) { s.batch = 2 })
	d := newTCPDownloader(t, srv.addr())

	first := d.DownloadAsync(cachefile.NewInfo(cachetest.SampleIndex, cachetest.SampleArchiveFile))
	second := d.DownloadAsync(cachefile.NewInfo(cachetest.SampleIndex, cachetest.SampleBinaryFile))

	for _, tc := range []struct {
		ch     <-chan Result
		fileID int
	}{{first, cachetest.SampleArchiveFile}, {second, cachetest.SampleBinaryFile}} {
		res := <-tc.ch
		require.NoError(t, res.Err)
		require.Equal(t, tc.fileID, res.File.Info().FileID)

		raw := files[cachetest.Key{Index: cachetest.SampleIndex, FileID: tc.fileID}]
		require.Equal(t, raw[:len(raw)-2], res.File.Data)
	}

	require.Equal(t, int32(1), srv.handshakes.Load())
}

func TestTCPDownloader_Concurrent(t *testing.T) {
	files := sampleFiles(t)
	srv := startUpdateServer(t, files)
	d := newTCPDownloader(t, srv.addr(), WithMaxInFlight(2))

	var wg sync.WaitGroup
	for i := range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			fileID := cachetest.SampleArchiveFile
			if i%2 == 1 {
				fileID = cachetest.SampleBinaryFile
			}
			res := <-d.DownloadAsync(cachefile.NewInfo(cachetest.SampleIndex, fileID))
			if res.Err != nil {
				t.Error(res.Err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), srv.handshakes.Load())
}

func TestTCPDownloader_HandshakeRejected(t *testing.T) {
	srv := startUpdateServer(t, sampleFiles(t), func(s *fakeUpdateServer) { s.status = 6 })
	d := newTCPDownloader(t, srv.addr())

	res := <-d.DownloadAsync(cachefile.NewInfo(cachetest.SampleIndex, cachetest.SampleBinaryFile))
	require.ErrorIs(t, res.Err, errs.ErrHandshakeRejected)
}

func TestTCPDownloader_Reconnect(t *testing.T) {
	srv := startUpdateServer(t, sampleFiles(t))
	d := newTCPDownloader(t, srv.addr())

	res := <-d.DownloadAsync(cachefile.NewInfo(cachetest.SampleIndex, 99))
	require.Error(t, res.Err)

	res = <-d.DownloadAsync(cachefile.NewInfo(cachetest.SampleIndex, cachetest.SampleBinaryFile))
	require.NoError(t, res.Err)
	require.Equal(t, int32(2), srv.handshakes.Load())
}

func TestTCPDownloader_Close(t *testing.T) {
	srv := startUpdateServer(t, sampleFiles(t))
	d := newTCPDownloader(t, srv.addr())

	res := <-d.DownloadAsync(cachefile.NewInfo(cachetest.SampleIndex, cachetest.SampleBinaryFile))
	require.NoError(t, res.Err)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	res = <-d.DownloadAsync(cachefile.NewInfo(cachetest.SampleIndex, cachetest.SampleBinaryFile))
	require.Error(t, res.Err)
}

func TestTCPOptions(t *testing.T) {
	_, err := NewTCPDownloader("", WithBuild(-1, 0))
	require.ErrorIs(t, err, errs.ErrValueOutOfRange)

	_, err = NewTCPDownloader("", WithMaxInFlight(0))
	require.ErrorIs(t, err, errs.ErrValueOutOfRange)

	d, err := NewTCPDownloader("", WithTCPLogger(quietLogger()))
	require.NoError(t, err)
	require.Equal(t, DefaultTCPAddr, d.addr)
	require.NoError(t, d.Close())
}
