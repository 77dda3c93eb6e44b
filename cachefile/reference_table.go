package cachefile

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/arloliu/runetek/endian"
	"github.com/arloliu/runetek/errs"
	"github.com/arloliu/runetek/format"
	"github.com/arloliu/runetek/internal/pool"
)

// Reference table formats.
const (
	MinTableFormat = 5
	MaxTableFormat = 7

	// versionedTableFormat is the first format carrying a table version.
	versionedTableFormat = 6
	// smartTableFormat is the first format storing counts and ids as smart integers.
	smartTableFormat = 7
)

// TableFlags selects the optional per-file columns of a reference table.
type TableFlags uint8

const (
	FlagIdentifiers TableFlags = 0x01 // FlagIdentifiers stores name hashes for files and entries.
	FlagWhirlpool   TableFlags = 0x02 // FlagWhirlpool stores a whirlpool digest per file.
	FlagSizes       TableFlags = 0x04 // FlagSizes stores compressed and uncompressed sizes.
	FlagHash        TableFlags = 0x08 // FlagHash stores an extra checksum per file.
)

// Has reports whether all bits of flag are set.
func (f TableFlags) Has(flag TableFlags) bool {
	return f&flag == flag
}

// ReferenceTable describes every file of one index. It is stored as file <index> of
// the reference tables index.
//
// Layout (ids are u16 before format 7 and smart integers from format 7):
//
//	u8 format, [u32 version if format >= 6], u8 flags
//	id count, delta-encoded file ids
//	[i32 identifier x count]                 if FlagIdentifiers
//	u32 crc x count
//	[u32 hash x count]                       if FlagHash
//	[64-byte whirlpool x count]              if FlagWhirlpool
//	[u32 compressed, u32 uncompressed x count] if FlagSizes
//	u32 version x count
//	entry count x count
//	delta-encoded entry ids, per file
//	[i32 entry identifier, per entry]         if FlagIdentifiers
type ReferenceTable struct {
	fileInfo

	Format  uint8
	Version uint32
	Flags   TableFlags

	files map[int]*Info
}

var _ File = (*ReferenceTable)(nil)

// NewReferenceTable creates an empty format 7 table describing index.
func NewReferenceTable(index format.Index) *ReferenceTable {
	return &ReferenceTable{
		fileInfo: fileInfo{info: NewInfo(format.IndexReferenceTables, int(index))},
		Format:   MaxTableFormat,
		files:    make(map[int]*Info),
	}
}

// Kind returns format.KindReferenceTable.
func (t *ReferenceTable) Kind() format.FileKind {
	return format.KindReferenceTable
}

// Index returns the index the table describes, taken from its own file id.
func (t *ReferenceTable) Index() format.Index {
	if t.info == nil {
		return 0
	}

	return format.Index(t.info.FileID) //nolint: gosec
}

// FileIDs returns the ids of the described files in ascending order.
func (t *ReferenceTable) FileIDs() []int {
	return slices.Sorted(maps.Keys(t.files))
}

// Len returns the number of described files.
func (t *ReferenceTable) Len() int {
	return len(t.files)
}

// FileInfo returns a copy of the Info recorded for fileID.
func (t *ReferenceTable) FileInfo(fileID int) (*Info, error) {
	info, ok := t.files[fileID]
	if !ok {
		return nil, fmt.Errorf("%w: index %d file %d", errs.ErrFileNotFound, t.Index(), fileID)
	}

	return info.Clone(), nil
}

// SetFileInfo records info for fileID. Entries are kept in ascending id order.
func (t *ReferenceTable) SetFileInfo(fileID int, info *Info) {
	if t.files == nil {
		t.files = make(map[int]*Info)
	}

	c := info.Clone()
	c.Index = t.Index()
	c.FileID = fileID
	c.EntryID = NoEntry
	slices.SortFunc(c.Entries, func(a, b EntryInfo) int { return a.ID - b.ID })

	t.files[fileID] = c
}

// Decode parses a reference table.
func (t *ReferenceTable) Decode(data []byte, info *Info) error {
	r := newReader(data)

	tableFormat := r.u8()
	if r.err == nil && (tableFormat < MinTableFormat || tableFormat > MaxTableFormat) {
		return fmt.Errorf("%w: %d", errs.ErrInvalidTableFormat, tableFormat)
	}

	var version uint32
	if tableFormat >= versionedTableFormat {
		version = r.u32()
	}
	flags := TableFlags(r.u8())
	wide := tableFormat >= smartTableFormat

	count := r.smart(wide)
	if r.err != nil {
		return r.err
	}
	// Every file needs at least a crc, a version and an entry count.
	if count*9 > r.remaining() {
		return fmt.Errorf("%w: %d files", errs.ErrTruncated, count)
	}

	index := format.Index(0)
	if info != nil {
		index = format.Index(info.FileID) //nolint: gosec
	}

	infos := make([]*Info, count)
	fileID := 0
	for i := range infos {
		fileID += r.smart(wide)
		infos[i] = &Info{Index: index, FileID: fileID, EntryID: NoEntry}
	}

	if flags.Has(FlagIdentifiers) {
		for _, fi := range infos {
			fi.Identifier = r.i32()
		}
	}
	for _, fi := range infos {
		fi.CRC = r.u32()
	}
	if flags.Has(FlagHash) {
		for _, fi := range infos {
			fi.Hash = r.u32()
		}
	}
	if flags.Has(FlagWhirlpool) {
		for _, fi := range infos {
			fi.Whirlpool = slices.Clone(r.take(WhirlpoolSize))
		}
	}
	if flags.Has(FlagSizes) {
		for _, fi := range infos {
			fi.CompressedSize = r.u32()
			fi.UncompressedSize = r.u32()
		}
	}
	for _, fi := range infos {
		fi.Version = r.u32()
	}

	entryCounts := make([]int, count)
	for i := range entryCounts {
		entryCounts[i] = r.smart(wide)
	}
	if r.err != nil {
		return r.err
	}

	for i, fi := range infos {
		if entryCounts[i]*2 > r.remaining() {
			return fmt.Errorf("%w: file %d has %d entries", errs.ErrTruncated, fi.FileID, entryCounts[i])
		}

		if entryCounts[i] == 0 {
			continue
		}

		fi.Entries = make([]EntryInfo, entryCounts[i])
		entryID := 0
		for j := range fi.Entries {
			entryID += r.smart(wide)
			fi.Entries[j].ID = entryID
		}
	}

	if flags.Has(FlagIdentifiers) {
		for _, fi := range infos {
			for j := range fi.Entries {
				fi.Entries[j].Identifier = r.i32()
			}
		}
	}

	if r.err != nil {
		return r.err
	}

	t.info = info
	t.Format = tableFormat
	t.Version = version
	t.Flags = flags
	t.files = make(map[int]*Info, count)
	for _, fi := range infos {
		t.files[fi.FileID] = fi
	}

	return nil
}

// Encode serializes the table using its Format and Flags.
func (t *ReferenceTable) Encode() ([]byte, error) {
	if t.Format < MinTableFormat || t.Format > MaxTableFormat {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidTableFormat, t.Format)
	}

	wide := t.Format >= smartTableFormat
	limit := math.MaxUint16
	if wide {
		limit = math.MaxInt32
	}

	engine := endian.GetBigEndianEngine()
	ids := t.FileIDs()
	if len(ids) > limit {
		return nil, fmt.Errorf("%w: %d files", errs.ErrValueOutOfRange, len(ids))
	}

	buf := pool.GetArchiveBuffer()
	defer pool.PutArchiveBuffer(buf)

	buf.B = append(buf.B, t.Format)
	if t.Format >= versionedTableFormat {
		buf.B = engine.AppendUint32(buf.B, t.Version)
	}
	buf.B = append(buf.B, byte(t.Flags))

	buf.B = appendSmart(buf.B, len(ids), wide)
	previous := 0
	for _, id := range ids {
		if id-previous > limit {
			return nil, fmt.Errorf("%w: file id %d", errs.ErrValueOutOfRange, id)
		}
		buf.B = appendSmart(buf.B, id-previous, wide)
		previous = id
	}

	if t.Flags.Has(FlagIdentifiers) {
		for _, id := range ids {
			buf.B = engine.AppendUint32(buf.B, uint32(t.files[id].Identifier)) //nolint: gosec
		}
	}
	for _, id := range ids {
		buf.B = engine.AppendUint32(buf.B, t.files[id].CRC)
	}
	if t.Flags.Has(FlagHash) {
		for _, id := range ids {
			buf.B = engine.AppendUint32(buf.B, t.files[id].Hash)
		}
	}
	if t.Flags.Has(FlagWhirlpool) {
		var digest [WhirlpoolSize]byte
		for _, id := range ids {
			clear(digest[:])
			copy(digest[:], t.files[id].Whirlpool)
			buf.B = append(buf.B, digest[:]...)
		}
	}
	if t.Flags.Has(FlagSizes) {
		for _, id := range ids {
			buf.B = engine.AppendUint32(buf.B, t.files[id].CompressedSize)
			buf.B = engine.AppendUint32(buf.B, t.files[id].UncompressedSize)
		}
	}
	for _, id := range ids {
		buf.B = engine.AppendUint32(buf.B, t.files[id].Version)
	}

	for _, id := range ids {
		n := len(t.files[id].Entries)
		if n > limit {
			return nil, fmt.Errorf("%w: file %d has %d entries", errs.ErrValueOutOfRange, id, n)
		}
		buf.B = appendSmart(buf.B, n, wide)
	}
	for _, id := range ids {
		previous := 0
		for _, e := range t.files[id].Entries {
			buf.B = appendSmart(buf.B, e.ID-previous, wide)
			previous = e.ID
		}
	}

	if t.Flags.Has(FlagIdentifiers) {
		for _, id := range ids {
			for _, e := range t.files[id].Entries {
				buf.B = engine.AppendUint32(buf.B, uint32(e.Identifier)) //nolint: gosec
			}
		}
	}

	return buf.Clone(), nil
}
