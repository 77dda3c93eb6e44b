package section

import (
	"github.com/arloliu/runetek/endian"
	"github.com/arloliu/runetek/errs"
)

// IndexRecord locates one logical file inside the data file.
//
// Layout (6 bytes, big-endian):
//
//	Bytes | Field  | Type | Description
//	------|--------|------|-------------------------------------
//	0-2   | Size   | u24  | Total logical length of the file
//	3-5   | Sector | u24  | Number of the first sector in the chain
type IndexRecord struct {
	Size   uint32
	Sector uint32
}

// Exists reports whether the record references a sector chain.
// Records pointing at the reserved sector describe absent files.
func (r IndexRecord) Exists() bool {
	return r.Sector != ReservedSector
}

// Bytes serializes the record into its 6-byte form.
func (r IndexRecord) Bytes() []byte {
	var b [IndexRecordSize]byte
	endian.PutUint24(b[0:3], r.Size)
	endian.PutUint24(b[3:6], r.Sector)

	return b[:]
}

// ParseIndexRecord parses an IndexRecord from a byte slice.
//
// Parameters:
//   - data: Byte slice containing the record (must be at least 6 bytes)
//
// Returns:
//   - IndexRecord: Parsed record
//   - error: ErrInvalidIndexRecordSize if data is too short
func ParseIndexRecord(data []byte) (IndexRecord, error) {
	if len(data) < IndexRecordSize {
		return IndexRecord{}, errs.ErrInvalidIndexRecordSize
	}

	return IndexRecord{
		Size:   endian.Uint24(data[0:3]),
		Sector: endian.Uint24(data[3:6]),
	}, nil
}
