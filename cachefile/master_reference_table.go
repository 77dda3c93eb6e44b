package cachefile

import (
	"fmt"
	"math"

	"github.com/arloliu/runetek/endian"
	"github.com/arloliu/runetek/errs"
	"github.com/arloliu/runetek/format"
	"github.com/arloliu/runetek/internal/pool"
)

// MasterTableFileID is the file id of the master reference table inside the reference
// tables index.
const MasterTableFileID = 255

// masterEntrySize is four u32 fields plus a whirlpool digest.
const masterEntrySize = 16 + WhirlpoolSize

// TableEntry summarizes the reference table of one index.
type TableEntry struct {
	CRC       uint32
	Version   uint32
	FileCount uint32
	Length    uint32
	Whirlpool [WhirlpoolSize]byte
}

// IsZero reports whether the entry describes an index slot that holds no table.
func (e TableEntry) IsZero() bool {
	return e == TableEntry{}
}

// MasterReferenceTable lists a TableEntry per index, in index order.
//
// Layout:
//
//	u8 count
//	count x (u32 crc, u32 version, u32 file count, u32 length, 64-byte whirlpool)
//	[signature]
//
// The trailing signature is ignored on decode and not written on encode.
type MasterReferenceTable struct {
	fileInfo

	tables []TableEntry
}

var _ File = (*MasterReferenceTable)(nil)

// NewMasterReferenceTable creates an empty master table.
func NewMasterReferenceTable() *MasterReferenceTable {
	return &MasterReferenceTable{
		fileInfo: fileInfo{info: NewInfo(format.IndexReferenceTables, MasterTableFileID)},
	}
}

// Kind returns format.KindMasterReferenceTable.
func (t *MasterReferenceTable) Kind() format.FileKind {
	return format.KindMasterReferenceTable
}

// Indexes returns every index whose slot holds a table, in ascending order.
func (t *MasterReferenceTable) Indexes() []format.Index {
	out := make([]format.Index, 0, len(t.tables))
	for i, e := range t.tables {
		if !e.IsZero() {
			out = append(out, format.Index(i)) //nolint: gosec
		}
	}

	return out
}

// Table returns the entry for index.
func (t *MasterReferenceTable) Table(index format.Index) (TableEntry, error) {
	if int(index) >= len(t.tables) || t.tables[index].IsZero() {
		return TableEntry{}, fmt.Errorf("%w: %d", errs.ErrIndexNotFound, index)
	}

	return t.tables[index], nil
}

// SetTable records the entry for index, growing the table as needed.
func (t *MasterReferenceTable) SetTable(index format.Index, entry TableEntry) {
	if int(index) >= len(t.tables) {
		t.tables = append(t.tables, make([]TableEntry, int(index)+1-len(t.tables))...)
	}
	t.tables[index] = entry
}

// Decode parses a master reference table.
func (t *MasterReferenceTable) Decode(data []byte, info *Info) error {
	r := newReader(data)

	count := int(r.u8())
	if r.err != nil {
		return r.err
	}
	if count*masterEntrySize > r.remaining() {
		return fmt.Errorf("%w: %d tables", errs.ErrTruncated, count)
	}

	tables := make([]TableEntry, count)
	for i := range tables {
		tables[i].CRC = r.u32()
		tables[i].Version = r.u32()
		tables[i].FileCount = r.u32()
		tables[i].Length = r.u32()
		copy(tables[i].Whirlpool[:], r.take(WhirlpoolSize))
	}
	if r.err != nil {
		return r.err
	}

	t.info = info
	t.tables = tables

	return nil
}

// Encode serializes the master table without a signature.
func (t *MasterReferenceTable) Encode() ([]byte, error) {
	if len(t.tables) > math.MaxUint8 {
		return nil, fmt.Errorf("%w: %d tables", errs.ErrValueOutOfRange, len(t.tables))
	}

	engine := endian.GetBigEndianEngine()

	buf := pool.GetArchiveBuffer()
	defer pool.PutArchiveBuffer(buf)
	buf.Grow(1 + len(t.tables)*masterEntrySize)

	buf.B = append(buf.B, byte(len(t.tables)))
	for _, e := range t.tables {
		buf.B = engine.AppendUint32(buf.B, e.CRC)
		buf.B = engine.AppendUint32(buf.B, e.Version)
		buf.B = engine.AppendUint32(buf.B, e.FileCount)
		buf.B = engine.AppendUint32(buf.B, e.Length)
		buf.B = append(buf.B, e.Whirlpool[:]...)
	}

	return buf.Clone(), nil
}
