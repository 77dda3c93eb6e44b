package cachefile

import (
	"github.com/arloliu/runetek/endian"
	"github.com/arloliu/runetek/errs"
)

// reader walks a byte slice and records the first out-of-bounds access. Once an error
// is recorded every read returns zero values.
type reader struct {
	data []byte
	pos  int
	err  error
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data)-r.pos < n {
		r.err = errs.ErrTruncated
		return nil
	}

	b := r.data[r.pos : r.pos+n]
	r.pos += n

	return b
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}

	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}

	return endian.GetBigEndianEngine().Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}

	return endian.GetBigEndianEngine().Uint32(b)
}

func (r *reader) i32() int32 {
	return int32(r.u32()) //nolint: gosec
}

// smart reads a smart integer when wide is set and a u16 otherwise.
func (r *reader) smart(wide bool) int {
	if !wide {
		return int(r.u16())
	}
	if r.err != nil {
		return 0
	}

	v, n := endian.SmartInt(r.data[r.pos:])
	if n == 0 {
		r.err = errs.ErrTruncated
		return 0
	}
	r.pos += n

	return v
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

// appendSmart is the writer-side counterpart of reader.smart.
func appendSmart(b []byte, v int, wide bool) []byte {
	if !wide {
		return endian.GetBigEndianEngine().AppendUint16(b, uint16(v)) //nolint: gosec
	}

	return endian.AppendSmartInt(b, v)
}
