package compress

import (
	"fmt"

	"github.com/arloliu/runetek/errs"
	"github.com/arloliu/runetek/format"
)

// Compressor compresses a complete payload in one call.
//
// Memory management:
//   - Returned slice is owned by the caller unless the implementation documents otherwise
//   - Input slice is not modified
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor.
//
// Implementations must be safe for concurrent use.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original bytes.
	//
	// Returns an error wrapping errs.ErrCorrupt when the input is not a valid stream
	// for the algorithm.
	Decompress(data []byte) ([]byte, error)
}

// SizedDecompressor is implemented by codecs whose streams do not record their own
// decoded length. The container envelope carries that length, so callers that know it
// should prefer DecompressSize.
type SizedDecompressor interface {
	Decompressor
	DecompressSize(data []byte, size int) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec creates a new Codec for the specified compression type.
//
// Parameters:
//   - compressionType: Container type (None, Bzip2, Gzip, LZMA) or mirror type (Zstd, S2, LZ4)
//   - target: Description of target usage (for error messages)
//
// Returns:
//   - Codec: Codec instance for the specified type
//   - error: ErrUnsupportedCompression for unknown types
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionBzip2:
		return NewBzip2Compressor(), nil
	case format.CompressionGzip:
		return NewGzipCompressor(), nil
	case format.CompressionLZMA:
		return NewLZMACompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("%w: %s compression %s", errs.ErrUnsupportedCompression, target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone:  NewNoOpCompressor(),
	format.CompressionBzip2: NewBzip2Compressor(),
	format.CompressionGzip:  NewGzipCompressor(),
	format.CompressionLZMA:  NewLZMACompressor(),
	format.CompressionZstd:  NewZstdCompressor(),
	format.CompressionS2:    NewS2Compressor(),
	format.CompressionLZ4:   NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
}

// DecompressSize decompresses data with codec, passing the expected decoded size to
// codecs that need it and checking it for the rest.
func DecompressSize(codec Decompressor, data []byte, size int) ([]byte, error) {
	if sized, ok := codec.(SizedDecompressor); ok {
		return sized.DecompressSize(data, size)
	}

	out, err := codec.Decompress(data)
	if err != nil {
		return nil, err
	}
	if len(out) != size {
		return nil, fmt.Errorf("%w: decompressed %d bytes, want %d", errs.ErrInvalidCompression, len(out), size)
	}

	return out, nil
}

func corrupt(algorithm string, err error) error {
	return fmt.Errorf("%w: %s: %w", errs.ErrInvalidCompression, algorithm, err)
}
