package cachetest

import (
	"github.com/arloliu/runetek/cachefile"
	"github.com/arloliu/runetek/format"
)

// Contents of the sample cache.
const (
	SampleIndex       format.Index = 2
	SampleArchiveFile              = 0
	SampleBinaryFile               = 5
	SampleMusicFile                = 1
	SampleBinaryText               = "a plain gzip-compressed file"
	SampleMusicText                = "music track bytes"
)

// SampleEntries are the entries of the archive file of the sample cache.
var SampleEntries = []string{"alpha", "beta", "", "delta"}

// Key addresses one file of a cache.
type Key struct {
	Index  format.Index
	FileID int
}

// Sample holds the raw container bytes of a small, self-consistent cache:
//
//   - index 2 file 0: an uncompressed archive of SampleEntries (entry 2 is an empty slot)
//   - index 2 file 5: SampleBinaryText, gzip-compressed
//   - index 40 file 1: SampleMusicText
//   - reference tables for indexes 2 and 40, and the master table
type Sample struct {
	Files map[Key][]byte
}

// NewSample builds the sample cache.
func NewSample() (*Sample, error) {
	s := &Sample{Files: make(map[Key][]byte)}

	archive := cachefile.NewEntryFile(nil)
	for id, entry := range SampleEntries {
		data := []byte(entry)
		if len(data) == 0 {
			data = []byte{0}
		}
		if err := archive.AddEntry(id, data); err != nil {
			return nil, err
		}
	}
	archiveData, err := archive.Encode()
	if err != nil {
		return nil, err
	}

	if err := s.put(SampleIndex, SampleArchiveFile, format.CompressionNone, archiveData, 1); err != nil {
		return nil, err
	}
	if err := s.put(SampleIndex, SampleBinaryFile, format.CompressionGzip, []byte(SampleBinaryText), 2); err != nil {
		return nil, err
	}
	if err := s.put(format.IndexMusic, SampleMusicFile, format.CompressionNone, []byte(SampleMusicText), 3); err != nil {
		return nil, err
	}

	table := cachefile.NewReferenceTable(SampleIndex)
	table.Flags = cachefile.FlagIdentifiers
	entries := make([]cachefile.EntryInfo, len(SampleEntries))
	for id := range entries {
		entries[id] = cachefile.EntryInfo{ID: id, Identifier: int32(100 + id)} //nolint: gosec
	}
	table.SetFileInfo(SampleArchiveFile, &cachefile.Info{CRC: 11, Version: 1, Entries: entries})
	table.SetFileInfo(SampleBinaryFile, &cachefile.Info{CRC: 12, Version: 2})

	music := cachefile.NewReferenceTable(format.IndexMusic)
	music.SetFileInfo(SampleMusicFile, &cachefile.Info{CRC: 13, Version: 3})

	master := cachefile.NewMasterReferenceTable()
	for _, t := range []*cachefile.ReferenceTable{table, music} {
		raw, err := t.Encode()
		if err != nil {
			return nil, err
		}
		if err := s.put(format.IndexReferenceTables, int(t.Index()), format.CompressionGzip, raw, cachefile.NoVersion); err != nil {
			return nil, err
		}
		master.SetTable(t.Index(), cachefile.TableEntry{
			CRC:       uint32(t.Index()),
			FileCount: uint32(t.Len()),  //nolint: gosec
			Length:    uint32(len(raw)), //nolint: gosec
		})
	}

	raw, err := master.Encode()
	if err != nil {
		return nil, err
	}
	if err := s.put(format.IndexReferenceTables, cachefile.MasterTableFileID, format.CompressionNone, raw, cachefile.NoVersion); err != nil {
		return nil, err
	}

	return s, nil
}

// Builder returns a Builder holding every sample file.
func (s *Sample) Builder() *Builder {
	b := NewBuilder()
	for key, data := range s.Files {
		b.Add(key.Index, key.FileID, data)
	}

	return b
}

func (s *Sample) put(index format.Index, fileID int, compression format.CompressionType, data []byte, version int) error {
	raw, err := (&cachefile.Container{Compression: compression, Version: version, Data: data}).Encode()
	if err != nil {
		return err
	}
	s.Files[Key{Index: index, FileID: fileID}] = raw

	return nil
}
