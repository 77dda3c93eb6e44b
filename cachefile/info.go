package cachefile

import (
	"slices"

	"github.com/arloliu/runetek/format"
)

// NoEntry is the EntryID of an Info that describes a whole file.
const NoEntry = -1

// WhirlpoolSize is the length of a whirlpool digest.
const WhirlpoolSize = 64

// EntryInfo describes one entry of an archive file.
type EntryInfo struct {
	ID         int
	Identifier int32
}

// Info is the metadata a reference table records for one file.
//
// Only Index, FileID and EntryID are meaningful for files that were not described by a
// reference table.
type Info struct {
	Index   format.Index
	FileID  int
	EntryID int

	Identifier       int32
	CRC              uint32
	Hash             uint32
	Whirlpool        []byte
	CompressedSize   uint32
	UncompressedSize uint32
	Version          uint32

	// Compression is filled in when a container is decoded.
	Compression format.CompressionType

	// Entries lists the archive entries in ascending id order. Its length is the entry
	// count an EntryFile decode honours.
	Entries []EntryInfo
}

// NewInfo creates the minimal Info for a whole file.
func NewInfo(index format.Index, fileID int) *Info {
	return &Info{Index: index, FileID: fileID, EntryID: NoEntry}
}

// Clone returns a deep copy of i. A nil Info clones to nil.
func (i *Info) Clone() *Info {
	if i == nil {
		return nil
	}

	c := *i
	c.Whirlpool = slices.Clone(i.Whirlpool)
	c.Entries = slices.Clone(i.Entries)

	return &c
}

// IsEntry reports whether i describes an archive entry rather than a whole file.
func (i *Info) IsEntry() bool {
	return i != nil && i.EntryID != NoEntry
}
