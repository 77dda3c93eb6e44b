// Package compress provides the compression codecs used by cache containers and by the
// file mirror.
//
// # Container Codecs
//
// Cache containers name their codec with a one-byte type:
//
//	Type | Codec | Notes
//	-----|-------|------------------------------------------------------
//	0    | None  | payload stored as-is
//	1    | Bzip2 | stream stored without its "BZh1" magic; decode only
//	2    | Gzip  | a single gzip member
//	3    | LZMA  | 5-byte properties header, no size field
//
// LZMA streams do not carry their decoded length, so the container passes it through
// DecompressSize.
//
// # Mirror Codecs
//
// The mirror can recompress files with a modern codec before storing them:
//
//   - Zstd: best ratio; pure Go by default, cgo-backed with the gozstd build tag
//   - S2: balanced speed and ratio
//   - LZ4: fastest decode
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionGzip)
//	if err != nil {
//	    return err
//	}
//	data, err := compress.DecompressSize(codec, payload, uncompressedLen)
//
// All codecs are stateless values and safe for concurrent use. Decoding failures wrap
// errs.ErrInvalidCompression.
package compress
