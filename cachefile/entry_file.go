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

// entrySizeWidth is the width of one delta-encoded size in the trailing size tables.
const entrySizeWidth = 4

// emptyEntry is the payload an unoccupied slot is encoded as.
var emptyEntry = []byte{0}

// EntryFile is an archive that packs several entries into one cache file.
//
// Layout, for C chunks and N entries:
//
//	[chunk 0: entry 0 .. entry N-1 data]
//	...
//	[chunk C-1: entry 0 .. entry N-1 data]
//	[chunk 0 sizes: N x i32] ... [chunk C-1 sizes: N x i32]
//	[u8 C]
//
// Within a chunk each size is stored as the difference from the previous entry's size in
// the same chunk. An entry's content is its data from every chunk, in chunk order.
//
// An entry whose content is a single zero byte is treated as empty: it is not stored,
// but it still occupies a slot and counts towards Capacity.
type EntryFile struct {
	fileInfo

	entries  map[int]*BinaryFile
	capacity int
}

var _ File = (*EntryFile)(nil)

// NewEntryFile creates an empty archive owned by the file info describes.
func NewEntryFile(info *Info) *EntryFile {
	return &EntryFile{fileInfo: fileInfo{info: info}, entries: make(map[int]*BinaryFile)}
}

// Kind returns format.KindEntry.
func (f *EntryFile) Kind() format.FileKind {
	return format.KindEntry
}

// Capacity returns the number of entry slots the archive encodes.
func (f *EntryFile) Capacity() int {
	return f.capacity
}

// SetCapacity changes the number of entry slots.
//
// Returns ErrCapacityTooLow if n would not leave room for the highest stored entry id.
func (f *EntryFile) SetCapacity(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: capacity %d", errs.ErrCapacityTooLow, n)
	}

	if len(f.entries) > 0 {
		highest := slices.Max(slices.Collect(maps.Keys(f.entries)))
		if n <= highest {
			return fmt.Errorf("%w: capacity %d, entries up to %d", errs.ErrCapacityTooLow, n, highest)
		}
	}

	f.capacity = n

	return nil
}

// Empty reports whether the archive stores no entries.
func (f *EntryFile) Empty() bool {
	return len(f.entries) == 0
}

// Len returns the number of stored entries. Empty slots are not counted.
func (f *EntryFile) Len() int {
	return len(f.entries)
}

// AddEntry stores data as entry id and grows Capacity to cover it.
//
// A single zero byte is not stored but still grows Capacity. Adding an id that is
// already stored returns ErrDuplicateEntry.
func (f *EntryFile) AddEntry(id int, data []byte) error {
	return f.add(id, NewBinaryFile(data, nil))
}

// AddFile encodes file and stores the result as entry id.
func (f *EntryFile) AddFile(id int, file File) error {
	data, err := file.Encode()
	if err != nil {
		return fmt.Errorf("encode entry %d: %w", id, err)
	}

	return f.add(id, NewBinaryFile(data, file.Info().Clone()))
}

func (f *EntryFile) add(id int, entry *BinaryFile) error {
	if id < 0 {
		return fmt.Errorf("%w: %d", errs.ErrInvalidEntryID, id)
	}
	if f.entries == nil {
		f.entries = make(map[int]*BinaryFile)
	}

	if !isEmptyEntry(entry.Data) {
		if _, ok := f.entries[id]; ok {
			return fmt.Errorf("%w: %d", errs.ErrDuplicateEntry, id)
		}

		info := entry.Info()
		if info == nil {
			info = &Info{}
		}
		if f.info != nil {
			info.Index = f.info.Index
			info.FileID = f.info.FileID
		}
		info.EntryID = id
		entry.SetInfo(info)

		f.entries[id] = entry
	}

	if id >= f.capacity {
		f.capacity = id + 1
	}

	return nil
}

// Entry returns the stored entry id.
func (f *EntryFile) Entry(id int) (*BinaryFile, error) {
	entry, ok := f.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", errs.ErrEntryNotFound, id)
	}

	return entry, nil
}

// EntryByTableID returns the entry the reference table lists under id. Reference tables may
// list sparse ids, while Decode keys entries by position, so id is resolved through the
// archive's Info.
func (f *EntryFile) EntryByTableID(id int) (*BinaryFile, error) {
	if f.info != nil {
		for pos, e := range f.info.Entries {
			if e.ID == id {
				return f.Entry(pos)
			}
		}
	}

	return nil, fmt.Errorf("%w: table id %d", errs.ErrEntryNotFound, id)
}

// EntryIDs returns the ids of the stored entries in ascending order.
func (f *EntryFile) EntryIDs() []int {
	return slices.Sorted(maps.Keys(f.entries))
}

// Entries returns the stored entries in ascending id order.
func (f *EntryFile) Entries() []*BinaryFile {
	ids := f.EntryIDs()
	out := make([]*BinaryFile, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.entries[id])
	}

	return out
}

// Decode replaces the archive's entries with those packed in data.
//
// The number of entries is len(info.Entries). Entries are keyed by position: entry i of
// the archive is stored under id i, tagged with the identifier info.Entries[i] carries,
// whatever info.Entries[i].ID says. Use EntryByTableID to look an entry up by the id its
// reference table lists.
//
// Returns:
//   - error: ErrMissingFileInfo without info, ErrNoChunks for a zero chunk count,
//     ErrTruncated or ErrInvalidEntrySize for inconsistent size tables
func (f *EntryFile) Decode(data []byte, info *Info) error {
	if info == nil {
		return errs.ErrMissingFileInfo
	}
	if len(data) == 0 {
		return errs.ErrTruncated
	}

	entryCount := len(info.Entries)
	chunkCount := int(data[len(data)-1])
	if chunkCount == 0 {
		return errs.ErrNoChunks
	}

	tableSize := chunkCount * entryCount * entrySizeWidth
	tableStart := len(data) - 1 - tableSize
	if tableStart < 0 {
		return fmt.Errorf("%w: size tables need %d bytes, have %d", errs.ErrTruncated, tableSize, len(data)-1)
	}

	engine := endian.GetBigEndianEngine()

	sizes := make([]int, chunkCount*entryCount)
	pos := tableStart
	for chunk := range chunkCount {
		running := 0
		for entry := range entryCount {
			running += int(int32(engine.Uint32(data[pos:]))) //nolint: gosec
			pos += entrySizeWidth

			if running < 0 {
				return fmt.Errorf("%w: chunk %d entry %d", errs.ErrInvalidEntrySize, chunk, entry)
			}
			sizes[chunk*entryCount+entry] = running
		}
	}

	contents := make([][]byte, entryCount)
	pos = 0
	for chunk := range chunkCount {
		for entry := range entryCount {
			size := sizes[chunk*entryCount+entry]
			if tableStart-pos < size {
				return fmt.Errorf("%w: chunk %d entry %d needs %d bytes, have %d",
					errs.ErrTruncated, chunk, entry, size, tableStart-pos)
			}

			part := data[pos : pos+size]
			pos += size

			if chunk == 0 {
				contents[entry] = part
			} else {
				contents[entry] = append(slices.Clip(contents[entry]), part...)
			}
		}
	}

	decoded := NewEntryFile(info)
	for id, content := range contents {
		entry := NewBinaryFile(content, &Info{Identifier: info.Entries[id].Identifier})
		if err := decoded.add(id, entry); err != nil {
			return err
		}
	}
	*f = *decoded

	return nil
}

// Encode packs the archive into a single chunk.
//
// Slots without a stored entry are written as a single zero byte.
func (f *EntryFile) Encode() ([]byte, error) {
	engine := endian.GetBigEndianEngine()

	buf := pool.GetArchiveBuffer()
	defer pool.PutArchiveBuffer(buf)

	for id := range f.capacity {
		if entry, ok := f.entries[id]; ok {
			buf.B = append(buf.B, entry.Data...)
		} else {
			buf.B = append(buf.B, emptyEntry...)
		}
	}

	buf.Grow(f.capacity*entrySizeWidth + 1)

	previous := 0
	for id := range f.capacity {
		size := len(emptyEntry)
		if entry, ok := f.entries[id]; ok {
			size = len(entry.Data)
		}
		if size > math.MaxInt32 {
			return nil, fmt.Errorf("%w: entry %d is %d bytes", errs.ErrValueOutOfRange, id, size)
		}

		buf.B = engine.AppendUint32(buf.B, uint32(int32(size-previous))) //nolint: gosec
		previous = size
	}

	buf.B = append(buf.B, 1)

	return buf.Clone(), nil
}

func isEmptyEntry(data []byte) bool {
	return len(data) == 1 && data[0] == 0
}
