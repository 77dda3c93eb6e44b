package cachefile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/runetek/errs"
	"github.com/arloliu/runetek/format"
)

func TestContainer_RoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("container payload "), 200)

	for _, compression := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionGzip,
		format.CompressionLZMA,
	} {
		for _, version := range []int{NoVersion, 0, 513} {
			t.Run(compression.String(), func(t *testing.T) {
				src := &Container{Compression: compression, Version: version, Data: payload}

				raw, err := src.Encode()
				require.NoError(t, err)
				require.Equal(t, byte(compression), raw[0])

				got, err := DecodeContainer(raw)
				require.NoError(t, err)
				require.Equal(t, src, got)
			})
		}
	}
}

func TestContainer_Layout(t *testing.T) {
	raw, err := (&Container{Compression: format.CompressionNone, Version: 7, Data: []byte("hi")}).Encode()
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0, 2, 'h', 'i', 0, 7}, raw)

	c, err := DecodeContainer([]byte{0, 0, 0, 0, 3, 'a', 'b', 'c'})
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), c.Data)
	require.Equal(t, NoVersion, c.Version)
}

func TestContainer_Bzip2(t *testing.T) {
	// bzip2 -1 of "hello hello hello\n" without its "BZh1" magic.
	stream := []byte{
		0x31, 0x41, 0x59, 0x26, 0x53, 0x59, 0xe5, 0xb5,
		0xf3, 0x09, 0x00, 0x00, 0x04, 0x51, 0x00, 0x00, 0x10, 0x40, 0x00, 0x02,
		0x44, 0xa0, 0x00, 0x21, 0xb5, 0x18, 0x0c, 0x02, 0x90, 0x69, 0xc2, 0xa3,
		0x0b, 0xb9, 0x22, 0x9c, 0x28, 0x48, 0x72, 0xda, 0xf9, 0x84, 0x80,
	}

	raw := []byte{1, 0, 0, 0, byte(len(stream)), 0, 0, 0, 18}
	raw = append(raw, stream...)

	c, err := DecodeContainer(raw)
	require.NoError(t, err)
	require.Equal(t, format.CompressionBzip2, c.Compression)
	require.Equal(t, []byte("hello hello hello\n"), c.Data)

	_, err = c.Encode()
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
}

func TestContainer_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want error
	}{
		{"Empty", nil, errs.ErrTruncated},
		{"Short header", []byte{0, 0, 0}, errs.ErrTruncated},
		{"Unknown compression", []byte{9, 0, 0, 0, 0}, errs.ErrInvalidCompression},
		{"Payload overruns", []byte{0, 0, 0, 0, 9, 'a'}, errs.ErrTruncated},
		{"Uncompressed size mismatch", []byte{2, 0, 0, 0, 1, 0, 0, 0, 1, 0}, errs.ErrInvalidCompression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeContainer(tt.raw)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, errs.ErrCorrupt)
		})
	}
}

func TestContainer_EncodeErrors(t *testing.T) {
	_, err := (&Container{Compression: format.CompressionZstd, Version: NoVersion}).Encode()
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)

	_, err = (&Container{Compression: format.CompressionNone, Version: 70000}).Encode()
	require.ErrorIs(t, err, errs.ErrValueOutOfRange)
}
