// Package cachetest builds synthetic sector caches on disk for tests.
//
// Files are laid out in insertion order, each as a contiguous run of sectors starting
// at sector 1. Sector 0 is left zeroed because the format reserves it.
package cachetest

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/arloliu/runetek/format"
	"github.com/arloliu/runetek/section"
)

type fileEntry struct {
	index  format.Index
	fileID int
	data   []byte
}

// Builder accumulates files and writes them as a cache directory.
type Builder struct {
	entries []fileEntry
	indexes map[format.Index]struct{}
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{indexes: make(map[format.Index]struct{})}
}

// AddIndex makes sure the index file for index is written, even if it holds no files.
func (b *Builder) AddIndex(index format.Index) *Builder {
	b.indexes[index] = struct{}{}
	return b
}

// Add stores data as file fileID of index.
func (b *Builder) Add(index format.Index, fileID int, data []byte) *Builder {
	b.AddIndex(index)
	b.entries = append(b.entries, fileEntry{index: index, fileID: fileID, data: data})

	return b
}

// Write lays out the data file, every index file, and the meta index file in dir.
func (b *Builder) Write(dir string) error {
	dataFile := make([]byte, section.SectorSize) // reserved sector 0
	records := make(map[format.Index][]byte)
	for index := range b.indexes {
		records[index] = nil
	}

	for _, e := range b.entries {
		extended := section.IsExtended(e.fileID)
		dataSize := section.DataSizeFor(extended)
		first := uint32(len(dataFile) / section.SectorSize) //nolint: gosec

		chunks := (len(e.data) + dataSize - 1) / dataSize
		if chunks == 0 {
			chunks = 1
		}

		for chunk := range chunks {
			start := chunk * dataSize
			end := min(start+dataSize, len(e.data))

			next := uint32(0)
			if chunk < chunks-1 {
				next = first + uint32(chunk) + 1 //nolint: gosec
			}

			sector := section.Sector{
				SectorHeader: section.SectorHeader{
					FileID:     uint32(e.fileID), //nolint: gosec
					Chunk:      uint16(chunk),    //nolint: gosec
					NextSector: next,
					Index:      uint8(e.index),
					Extended:   extended,
				},
				Data: e.data[start:end],
			}

			raw, err := sector.Bytes()
			if err != nil {
				return err
			}
			dataFile = append(dataFile, raw...)
		}

		records[e.index] = putRecord(records[e.index], e.fileID, section.IndexRecord{
			Size:   uint32(len(e.data)), //nolint: gosec
			Sector: first,
		})
	}

	if err := os.WriteFile(filepath.Join(dir, "main_file_cache.dat2"), dataFile, 0o644); err != nil {
		return err
	}

	if _, ok := records[format.IndexReferenceTables]; !ok {
		records[format.IndexReferenceTables] = nil
	}

	for index, raw := range records {
		if err := os.WriteFile(IndexPath(dir, index), raw, 0o644); err != nil {
			return err
		}
	}

	return nil
}

// IndexPath returns the path of the index file for index inside dir.
func IndexPath(dir string, index format.Index) string {
	return filepath.Join(dir, "main_file_cache.idx"+strconv.Itoa(int(index)))
}

// DataPath returns the path of the data file inside dir.
func DataPath(dir string) string {
	return filepath.Join(dir, "main_file_cache.dat2")
}

func putRecord(raw []byte, fileID int, record section.IndexRecord) []byte {
	end := (fileID + 1) * section.IndexRecordSize
	if len(raw) < end {
		grown := make([]byte, end)
		copy(grown, raw)
		raw = grown
	}
	copy(raw[fileID*section.IndexRecordSize:end], record.Bytes())

	return raw
}
