package compress

import (
	"bytes"
	"compress/bzip2"
	"io"

	"github.com/arloliu/runetek/errs"
)

// bzip2Magic is the stream header cache payloads are stored without. The trailing '1'
// selects a 100k block size, which is what every known cache encoder used.
var bzip2Magic = []byte("BZh1")

// Bzip2Compressor decodes headerless bzip2 streams. Encoding is not provided.
type Bzip2Compressor struct{}

var _ Codec = (*Bzip2Compressor)(nil)

// NewBzip2Compressor creates a new bzip2 codec.
func NewBzip2Compressor() Bzip2Compressor {
	return Bzip2Compressor{}
}

// Compress always fails with ErrUnsupportedCompression.
func (c Bzip2Compressor) Compress(data []byte) ([]byte, error) {
	return nil, errs.ErrUnsupportedCompression
}

// Decompress restores the stream magic and decodes the payload.
func (c Bzip2Compressor) Decompress(data []byte) ([]byte, error) {
	r := bzip2.NewReader(io.MultiReader(bytes.NewReader(bzip2Magic), bytes.NewReader(data)))

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, corrupt("bzip2", err)
	}

	return out, nil
}
