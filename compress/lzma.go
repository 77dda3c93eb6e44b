package compress

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/ulikunitz/xz/lzma"

	"github.com/arloliu/runetek/errs"
)

const (
	// lzmaPropsLen is the properties byte plus the u32 dictionary capacity.
	lzmaPropsLen = 5
	// lzmaSizeLen is the u64 decoded size the classic header carries after the properties.
	lzmaSizeLen = 8
	// lzmaUnknownSize marks a stream terminated by an end marker.
	lzmaUnknownSize = -1
)

// LZMACompressor handles LZMA streams stored with their 5-byte properties header but
// without the 8-byte size field of the classic .lzma format.
type LZMACompressor struct{}

var (
	_ Codec             = (*LZMACompressor)(nil)
	_ SizedDecompressor = (*LZMACompressor)(nil)
)

// NewLZMACompressor creates a new LZMA codec.
func NewLZMACompressor() LZMACompressor {
	return LZMACompressor{}
}

// Compress encodes data and drops the size field from the header.
func (c LZMACompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	cfg := lzma.WriterConfig{
		SizeInHeader: true,
		Size:         int64(len(data)),
	}
	w, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	raw := buf.Bytes()
	if len(raw) < lzma.HeaderLen {
		return nil, errs.ErrInvalidCompression
	}

	out := make([]byte, 0, len(raw)-lzmaSizeLen)
	out = append(out, raw[:lzmaPropsLen]...)
	out = append(out, raw[lzma.HeaderLen:]...)

	return out, nil
}

// Decompress decodes a stream that ends with an end-of-stream marker.
func (c LZMACompressor) Decompress(data []byte) ([]byte, error) {
	return c.decode(data, lzmaUnknownSize)
}

// DecompressSize decodes a stream of exactly size decoded bytes.
func (c LZMACompressor) DecompressSize(data []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, errs.ErrInvalidCompression
	}

	return c.decode(data, int64(size))
}

func (c LZMACompressor) decode(data []byte, size int64) ([]byte, error) {
	if len(data) < lzmaPropsLen {
		return nil, corrupt("lzma", io.ErrUnexpectedEOF)
	}

	header := make([]byte, lzma.HeaderLen)
	copy(header, data[:lzmaPropsLen])
	binary.LittleEndian.PutUint64(header[lzmaPropsLen:], uint64(size)) //nolint: gosec

	r, err := lzma.NewReader(io.MultiReader(bytes.NewReader(header), bytes.NewReader(data[lzmaPropsLen:])))
	if err != nil {
		return nil, corrupt("lzma", err)
	}

	var out []byte
	if size >= 0 {
		out = make([]byte, 0, size)
	}
	w := bytes.NewBuffer(out)
	if _, err := io.Copy(w, r); err != nil {
		return nil, corrupt("lzma", err)
	}

	return w.Bytes(), nil
}
