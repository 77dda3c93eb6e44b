package cachefile

import (
	"fmt"
	"math"

	"github.com/arloliu/runetek/compress"
	"github.com/arloliu/runetek/endian"
	"github.com/arloliu/runetek/errs"
	"github.com/arloliu/runetek/format"
	"github.com/arloliu/runetek/internal/pool"
)

// NoVersion marks a container without a version trailer.
const NoVersion = -1

// Container is the envelope every raw cache file is stored in.
//
// Layout:
//
//	Bytes | Field            | Notes
//	------|------------------|-------------------------------------
//	1     | Compression      | 0 none, 1 bzip2, 2 gzip, 3 lzma
//	4     | CompressedSize   | length of the payload
//	4     | UncompressedSize | omitted when Compression is none
//	N     | Payload          |
//	2     | Version          | optional trailer
type Container struct {
	Compression format.CompressionType
	Version     int

	// Data is the decompressed payload.
	Data []byte
}

// containerHeaderSize returns the header length for compression.
func containerHeaderSize(compression format.CompressionType) int {
	if compression == format.CompressionNone {
		return 5
	}

	return 9
}

// DecodeContainer parses and decompresses a raw cache file.
//
// Returns:
//   - *Container: Decoded container
//   - error: ErrInvalidCompression for unknown types, ErrTruncated for short input,
//     or a codec error
func DecodeContainer(raw []byte) (*Container, error) {
	r := newReader(raw)

	compression := format.CompressionType(r.u8())
	compressedSize := int(r.u32())
	if r.err != nil {
		return nil, r.err
	}
	if !compression.IsContainerType() {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidCompression, compression)
	}

	uncompressedSize := compressedSize
	if compression != format.CompressionNone {
		uncompressedSize = int(r.u32())
	}

	payload := r.take(compressedSize)
	if r.err != nil {
		return nil, fmt.Errorf("container payload of %d bytes: %w", compressedSize, r.err)
	}

	c := &Container{Compression: compression, Version: NoVersion}
	if r.remaining() >= 2 {
		c.Version = int(r.u16())
	}

	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}

	c.Data, err = compress.DecompressSize(codec, payload, uncompressedSize)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Encode compresses the payload and serializes the container.
func (c *Container) Encode() ([]byte, error) {
	if !c.Compression.IsContainerType() {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, c.Compression)
	}
	if c.Version < NoVersion || c.Version > math.MaxUint16 {
		return nil, fmt.Errorf("%w: container version %d", errs.ErrValueOutOfRange, c.Version)
	}
	if int64(len(c.Data)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: container payload", errs.ErrValueOutOfRange)
	}

	codec, err := compress.GetCodec(c.Compression)
	if err != nil {
		return nil, err
	}

	payload, err := codec.Compress(c.Data)
	if err != nil {
		return nil, fmt.Errorf("compress container: %w", err)
	}

	engine := endian.GetBigEndianEngine()

	buf := pool.GetArchiveBuffer()
	defer pool.PutArchiveBuffer(buf)
	buf.Grow(containerHeaderSize(c.Compression) + len(payload) + 2)

	buf.B = append(buf.B, byte(c.Compression))
	buf.B = engine.AppendUint32(buf.B, uint32(len(payload))) //nolint: gosec
	if c.Compression != format.CompressionNone {
		buf.B = engine.AppendUint32(buf.B, uint32(len(c.Data))) //nolint: gosec
	}
	buf.B = append(buf.B, payload...)
	if c.Version != NoVersion {
		buf.B = engine.AppendUint16(buf.B, uint16(c.Version)) //nolint: gosec
	}

	return buf.Clone(), nil
}
