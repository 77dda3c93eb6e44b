// Package endian provides byte order utilities for the cache's binary records.
//
// Every multi-byte field in the cache format is big-endian. This package combines
// ByteOrder and AppendByteOrder from encoding/binary into a single EndianEngine and
// adds the two widths the standard library lacks: 24-bit integers (index records and
// sector pointers) and the variable-width "smart" integer used by newer reference tables.
//
// # Basic Usage
//
//	engine := endian.GetBigEndianEngine()
//	size := endian.Uint24(record[0:3])
//	buf = engine.AppendUint32(buf, crc)
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"math"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// MaxUint24 is the largest value representable by a 24-bit field.
const MaxUint24 = 1<<24 - 1

// MaxSmallSmartInt is the largest value a smart integer stores in its 2-byte form.
const MaxSmallSmartInt = math.MaxInt16

// GetBigEndianEngine returns the big-endian engine used by every cache record.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// Uint24 decodes a big-endian 24-bit unsigned integer from b[0:3].
//
// Panics if len(b) < 3, matching the behaviour of binary.ByteOrder methods.
func Uint24(b []byte) uint32 {
	_ = b[2] // bounds check hint to compiler
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// PutUint24 encodes v into b[0:3] as a big-endian 24-bit integer.
// Bits above the low 24 are discarded.
func PutUint24(b []byte, v uint32) {
	_ = b[2]
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

// AppendUint24 appends v to b as a big-endian 24-bit integer.
func AppendUint24(b []byte, v uint32) []byte {
	return append(b, byte(v>>16), byte(v>>8), byte(v))
}

// SmartIntSize returns the number of bytes the smart integer starting at b[0] occupies.
//
// A smart integer is stored in 4 bytes when the high bit of its first byte is set
// and in 2 bytes otherwise.
func SmartIntSize(b []byte) int {
	if b[0]&0x80 != 0 {
		return 4
	}

	return 2
}

// SmartInt decodes a smart integer from the start of b.
//
// Returns:
//   - int: Decoded value
//   - int: Number of bytes consumed (2 or 4), or 0 if b is too short
func SmartInt(b []byte) (int, int) {
	if len(b) < 2 {
		return 0, 0
	}

	if b[0]&0x80 == 0 {
		return int(binary.BigEndian.Uint16(b)), 2
	}

	if len(b) < 4 {
		return 0, 0
	}

	return int(binary.BigEndian.Uint32(b) & math.MaxInt32), 4
}

// AppendSmartInt appends v as a smart integer. Values above MaxSmallSmartInt use the
// 4-byte form with the high bit set.
func AppendSmartInt(b []byte, v int) []byte {
	if v >= 0 && v <= MaxSmallSmartInt {
		return binary.BigEndian.AppendUint16(b, uint16(v)) //nolint: gosec
	}

	return binary.BigEndian.AppendUint32(b, uint32(v)|0x80000000) //nolint: gosec
}
