package compress

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// maxLZ4Output bounds the output buffer when the decoded size is not known.
const maxLZ4Output = 128 * 1024 * 1024

// LZ4Compressor handles raw LZ4 blocks. Blocks do not record their decoded length, so
// callers that know it should use DecompressSize.
type LZ4Compressor struct{}

var (
	_ Codec             = (*LZ4Compressor)(nil)
	_ SizedDecompressor = (*LZ4Compressor)(nil)
)

// NewLZ4Compressor creates a new LZ4 compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses the input data into a single LZ4 block.
//
// Returns:
//   - []byte: Compressed block (nil if input is empty)
//   - error: Compression error if any
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// Decompress decodes an LZ4 block of unknown decoded size.
//
// The output buffer starts at 4x the input and doubles on ErrInvalidSourceShortBuffer
// until it would exceed 128MB.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	for bufSize := len(data) * 4; bufSize <= maxLZ4Output; bufSize *= 2 {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err == nil {
			return buf[:n], nil
		}
		if !errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
			return nil, corrupt("lz4", err)
		}
	}

	return nil, corrupt("lz4", lz4.ErrInvalidSourceShortBuffer)
}

// DecompressSize decodes an LZ4 block into exactly size bytes.
func (c LZ4Compressor) DecompressSize(data []byte, size int) ([]byte, error) {
	if size == 0 && len(data) == 0 {
		return nil, nil
	}

	buf := make([]byte, size)
	n, err := lz4.UncompressBlock(data, buf)
	if err != nil {
		return nil, corrupt("lz4", err)
	}
	if n != size {
		return nil, corrupt("lz4", errors.New("short block"))
	}

	return buf, nil
}
