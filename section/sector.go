package section

import (
	"github.com/arloliu/runetek/endian"
	"github.com/arloliu/runetek/errs"
)

// SectorHeader is the fixed-layout prefix of every sector in the data file.
//
// Normal layout (8 bytes, file ids up to 65535):
//
//	Bytes | Field      | Type
//	------|------------|-----
//	0-1   | FileID     | u16
//	2-3   | Chunk      | u16
//	4-6   | NextSector | u24
//	7     | Index      | u8
//
// Extended layout (10 bytes) widens FileID to u32 and shifts the rest by two bytes.
type SectorHeader struct {
	FileID     uint32
	Chunk      uint16
	NextSector uint32
	Index      uint8
	Extended   bool
}

// Size returns the encoded header size.
func (h SectorHeader) Size() int {
	return HeaderSizeFor(h.Extended)
}

// Sector is one physical block of the data file.
type Sector struct {
	SectorHeader

	// Data is the payload region. It aliases the parsed input slice.
	Data []byte
}

// ParseSector parses a sector from a byte slice.
//
// The slice normally holds a full SectorSize bytes, but the final sector of a data file
// may be shorter; any bytes after the header are returned as payload.
//
// Parameters:
//   - data: Raw sector bytes (at least the header size)
//   - extended: Whether to use the wide file id header
//
// Returns:
//   - Sector: Parsed sector whose Data aliases data
//   - error: ErrInvalidSectorSize if data cannot hold a header or exceeds SectorSize
func ParseSector(data []byte, extended bool) (Sector, error) {
	headerSize := HeaderSizeFor(extended)
	if len(data) < headerSize || len(data) > SectorSize {
		return Sector{}, errs.ErrInvalidSectorSize
	}

	engine := endian.GetBigEndianEngine()

	var h SectorHeader
	h.Extended = extended

	off := 0
	if extended {
		h.FileID = engine.Uint32(data[0:4])
		off = 4
	} else {
		h.FileID = uint32(engine.Uint16(data[0:2]))
		off = 2
	}

	h.Chunk = engine.Uint16(data[off : off+2])
	h.NextSector = endian.Uint24(data[off+2 : off+5])
	h.Index = data[off+5]

	return Sector{SectorHeader: h, Data: data[headerSize:]}, nil
}

// Bytes serializes the sector, zero-padding the payload to a full SectorSize.
//
// Returns ErrInvalidSectorSize if the payload exceeds the header variant's capacity,
// or ErrValueOutOfRange if the file id does not fit a normal header.
func (s Sector) Bytes() ([]byte, error) {
	if len(s.Data) > DataSizeFor(s.Extended) {
		return nil, errs.ErrInvalidSectorSize
	}
	if !s.Extended && s.FileID>>maxNormalSectorFileIDBits != 0 {
		return nil, errs.ErrValueOutOfRange
	}

	engine := endian.GetBigEndianEngine()
	b := make([]byte, 0, SectorSize)

	if s.Extended {
		b = engine.AppendUint32(b, s.FileID)
	} else {
		b = engine.AppendUint16(b, uint16(s.FileID)) //nolint: gosec
	}
	b = engine.AppendUint16(b, s.Chunk)
	b = endian.AppendUint24(b, s.NextSector)
	b = append(b, s.Index)
	b = append(b, s.Data...)

	return b[:SectorSize:SectorSize], nil
}
