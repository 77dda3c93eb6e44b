package mirror

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/arloliu/runetek/cachefile"
	"github.com/arloliu/runetek/compress"
	"github.com/arloliu/runetek/endian"
	"github.com/arloliu/runetek/errs"
	"github.com/arloliu/runetek/format"
	"github.com/arloliu/runetek/internal/hash"
	"github.com/arloliu/runetek/internal/options"
	"github.com/arloliu/runetek/internal/pool"
)

const (
	frameMagic      = 0x5254
	frameHeaderSize = 2 + 1 + 8
)

var errUnsupportedCodec = fmt.Errorf("%w: mirror frames use none, zstd, s2 or lz4", errs.ErrUnsupportedCompression)

// Mirror stores and loads framed container bytes through a Store.
type Mirror struct {
	store  Store
	codec  format.CompressionType
	logger logrus.FieldLogger
}

// New creates a Mirror backed by store.
func New(store Store, opts ...Option) (*Mirror, error) {
	cfg := &config{codec: format.CompressionZstd, logger: logrus.StandardLogger()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Mirror{store: store, codec: cfg.codec, logger: cfg.logger.WithField("component", "mirror")}, nil
}

// Key returns the store key of the file info describes.
func Key(info *cachefile.Info) string {
	return fmt.Sprintf("%d/%d-%d-%08x", info.Index, info.FileID, info.Version, info.CRC)
}

// Load returns the mirrored container bytes of the file info describes.
//
// Returns errs.ErrMirrorMiss if the file is not mirrored, or a corruption error if the
// stored frame is damaged.
func (m *Mirror) Load(ctx context.Context, info *cachefile.Info) (*cachefile.BinaryFile, error) {
	key := Key(info)

	frame, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	data, err := decodeFrame(frame)
	if err != nil {
		return nil, fmt.Errorf("mirror %s: %w", key, err)
	}

	m.logger.WithFields(logrus.Fields{"index": info.Index, "file": info.FileID}).Debug("mirror hit")

	return cachefile.NewBinaryFile(data, info.Clone()), nil
}

// Save mirrors file's container bytes. file must carry an Info.
func (m *Mirror) Save(ctx context.Context, file *cachefile.BinaryFile) error {
	if file.Info() == nil {
		return errs.ErrMissingFileInfo
	}

	frame, err := encodeFrame(m.codec, file.Data)
	if err != nil {
		return err
	}

	return m.store.Put(ctx, Key(file.Info()), frame)
}

func encodeFrame(codecType format.CompressionType, data []byte) ([]byte, error) {
	codec, err := compress.GetCodec(codecType)
	if err != nil {
		return nil, err
	}

	payload, err := codec.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("compress mirror frame: %w", err)
	}

	engine := endian.GetBigEndianEngine()

	buf := pool.GetFrameBuffer()
	defer pool.PutFrameBuffer(buf)
	buf.Grow(frameHeaderSize + len(payload))

	buf.B = engine.AppendUint16(buf.B, frameMagic)
	buf.B = append(buf.B, byte(codecType))
	buf.B = engine.AppendUint64(buf.B, hash.Checksum(data))
	buf.B = append(buf.B, payload...)

	return buf.Clone(), nil
}

func decodeFrame(frame []byte) ([]byte, error) {
	if len(frame) < frameHeaderSize {
		return nil, errs.ErrInvalidMirrorFrame
	}

	engine := endian.GetBigEndianEngine()
	if engine.Uint16(frame[0:2]) != frameMagic {
		return nil, fmt.Errorf("%w: bad magic", errs.ErrInvalidMirrorFrame)
	}

	codec, err := compress.GetCodec(format.CompressionType(frame[2]))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidMirrorFrame, err)
	}

	data, err := codec.Decompress(frame[frameHeaderSize:])
	if err != nil {
		return nil, err
	}

	if hash.Checksum(data) != engine.Uint64(frame[3:11]) {
		return nil, errs.ErrChecksumMismatch
	}

	return data, nil
}
