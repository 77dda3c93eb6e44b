package cache

import (
	"fmt"

	"github.com/arloliu/runetek/cachefile"
	"github.com/arloliu/runetek/format"
	"github.com/arloliu/runetek/internal/memo"
)

// FetchFunc retrieves the raw container bytes of one file.
type FetchFunc func(index format.Index, fileID int) (*cachefile.BinaryFile, error)

// Tables resolves and retains reference tables for a backend.
//
// Tables are loaded lazily on first use and kept for the lifetime of the Tables value.
// Concurrent first requests for the same index may each fetch the table; only one
// result is retained and returned to every caller.
type Tables struct {
	fetch  FetchFunc
	master memo.Value[*cachefile.MasterReferenceTable]
	tables memo.Map[format.Index, *cachefile.ReferenceTable]
}

// NewTables creates a Tables that fetches through fetch.
func NewTables(fetch FetchFunc) *Tables {
	return &Tables{fetch: fetch}
}

// Master returns the master reference table.
func (t *Tables) Master() (*cachefile.MasterReferenceTable, error) {
	return t.master.GetOrLoad(func() (*cachefile.MasterReferenceTable, error) {
		f, err := t.load(format.KindMasterReferenceTable, cachefile.MasterTableFileID)
		if err != nil {
			return nil, fmt.Errorf("master reference table: %w", err)
		}

		return f.(*cachefile.MasterReferenceTable), nil //nolint: forcetypeassert
	})
}

// Table returns the reference table describing index.
func (t *Tables) Table(index format.Index) (*cachefile.ReferenceTable, error) {
	return t.tables.GetOrLoad(index, func(index format.Index) (*cachefile.ReferenceTable, error) {
		f, err := t.load(format.KindReferenceTable, int(index))
		if err != nil {
			return nil, fmt.Errorf("reference table %d: %w", index, err)
		}

		return f.(*cachefile.ReferenceTable), nil //nolint: forcetypeassert
	})
}

// Loaded returns the number of retained reference tables, not counting the master table.
func (t *Tables) Loaded() int {
	return t.tables.Len()
}

// FileIDs returns the file ids the reference table of index lists.
func (t *Tables) FileIDs(index format.Index) ([]int, error) {
	table, err := t.Table(index)
	if err != nil {
		return nil, err
	}

	return table.FileIDs(), nil
}

// FileInfo returns the Info of one file. Files of the reference tables index get a
// synthesized Info, since looking them up would recurse.
func (t *Tables) FileInfo(index format.Index, fileID int) (*cachefile.Info, error) {
	if index.IsReferenceTables() {
		return cachefile.NewInfo(index, fileID), nil
	}

	table, err := t.Table(index)
	if err != nil {
		return nil, err
	}

	return table.FileInfo(fileID)
}

func (t *Tables) load(kind format.FileKind, fileID int) (cachefile.File, error) {
	raw, err := t.fetch(format.IndexReferenceTables, fileID)
	if err != nil {
		return nil, err
	}

	return decodeRaw(kind, raw)
}
