package compress

// ZstdCompressor provides Zstandard compression for mirrored files.
//
// The default build uses the pure Go klauspost/compress implementation. Building with
// the gozstd tag switches to the cgo-backed valyala/gozstd library.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
