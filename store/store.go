// Package store reads logical files out of a sector cache directory.
//
// A FileStore owns the data file and every index file for its lifetime. Reads use
// positional I/O (ReadAt), so concurrent ReadFile calls on one store are safe.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/arloliu/runetek/errs"
	"github.com/arloliu/runetek/format"
	"github.com/arloliu/runetek/internal/options"
	"github.com/arloliu/runetek/section"
)

// File names inside a cache directory.
const (
	DataFileName    = "main_file_cache.dat2"
	IndexFilePrefix = "main_file_cache.idx"
)

// IndexFileName returns the file name of the given index.
func IndexFileName(index format.Index) string {
	return IndexFilePrefix + strconv.Itoa(int(index))
}

// FileStore is a read-only view of the files inside one cache directory.
type FileStore struct {
	dir     string
	data    *os.File
	meta    *os.File
	indexes map[format.Index]*os.File
	logger  logrus.FieldLogger
}

// Open opens the cache in dir.
//
// The data file and the meta index file must exist, as must at least one numbered
// index file. Missing numbered index files are skipped.
//
// Parameters:
//   - dir: Directory holding main_file_cache.* files
//   - opts: Optional configuration
//
// Returns:
//   - *FileStore: Open store; the caller must Close it
//   - error: ErrDataFileNotFound, ErrNoIndexFiles, ErrMetaIndexNotFound, or an I/O error
func Open(dir string, opts ...Option) (*FileStore, error) {
	cfg := &config{logger: logrus.StandardLogger()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	s := &FileStore{
		dir:     dir,
		indexes: make(map[format.Index]*os.File),
		logger:  cfg.logger.WithField("dir", dir),
	}

	data, err := os.Open(filepath.Join(dir, DataFileName))
	if err != nil {
		return nil, wrapMissing(err, errs.ErrDataFileNotFound)
	}
	s.data = data

	for i := range format.MaxIndexFiles {
		index := format.Index(i)

		f, err := os.Open(filepath.Join(dir, IndexFileName(index)))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("open index %d: %w", index, err)
		}

		s.indexes[index] = f
	}

	if len(s.indexes) == 0 {
		_ = s.Close()
		return nil, errs.ErrNoIndexFiles
	}

	meta, err := os.Open(filepath.Join(dir, IndexFileName(format.IndexReferenceTables)))
	if err != nil {
		_ = s.Close()
		return nil, wrapMissing(err, errs.ErrMetaIndexNotFound)
	}
	s.meta = meta

	s.logger.WithField("indexes", len(s.indexes)).Info("opened file store")

	return s, nil
}

// Dir returns the directory the store was opened from.
func (s *FileStore) Dir() string {
	return s.dir
}

// IndexCount returns the number of open index files, not counting the meta index.
func (s *FileStore) IndexCount() int {
	return len(s.indexes)
}

// Indexes returns the open numbered indexes in ascending order.
func (s *FileStore) Indexes() []format.Index {
	out := make([]format.Index, 0, len(s.indexes))
	for index := range s.indexes {
		out = append(out, index)
	}
	slices.Sort(out)

	return out
}

// FileCount returns the number of index records in the given index file.
//
// The meta index is accepted as well. Absent files inside the range are counted.
func (s *FileStore) FileCount(index format.Index) (int, error) {
	f, err := s.indexFile(index)
	if err != nil {
		return 0, err
	}

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat index %d: %w", index, err)
	}

	return int(info.Size() / section.IndexRecordSize), nil
}

// FileIDs returns, in ascending order, the ids of index whose record points at a sector.
func (s *FileStore) FileIDs(index format.Index) ([]int, error) {
	f, err := s.indexFile(index)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat index %d: %w", index, err)
	}

	raw, err := io.ReadAll(io.NewSectionReader(f, 0, info.Size()))
	if err != nil {
		return nil, fmt.Errorf("read index %d: %w", index, err)
	}

	var ids []int
	for id := 0; (id+1)*section.IndexRecordSize <= len(raw); id++ {
		record, err := section.ParseIndexRecord(raw[id*section.IndexRecordSize:][:section.IndexRecordSize])
		if err != nil {
			return nil, err
		}
		if record.Exists() {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// ReadMetadata reads a file of the meta index. It is ReadFile against the reference tables index.
func (s *FileStore) ReadMetadata(fileID int) ([]byte, error) {
	return s.ReadFile(format.IndexReferenceTables, fileID)
}

// ReadFile reconstructs the logical file fileID of index from its sector chain.
//
// The chain is walked from the index record's first sector. Every sector must carry the
// expected index, file id and chunk number; any mismatch fails the read with a corruption
// error and no partial data is returned.
//
// Returns:
//   - []byte: Exactly IndexRecord.Size bytes
//   - error: ErrIndexNotFound, ErrFileNotFound, or a corruption error
func (s *FileStore) ReadFile(index format.Index, fileID int) ([]byte, error) {
	f, err := s.indexFile(index)
	if err != nil {
		return nil, err
	}

	record, err := s.readIndexRecord(f, fileID)
	if err != nil {
		return nil, fmt.Errorf("index %d file %d: %w", index, fileID, err)
	}

	data, err := s.readChain(index, fileID, record)
	if err != nil {
		return nil, fmt.Errorf("index %d file %d: %w", index, fileID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"index": index,
		"file":  fileID,
		"size":  record.Size,
	}).Debug("read file")

	return data, nil
}

// WriteFile is not supported: the store is read-only.
func (s *FileStore) WriteFile(index format.Index, fileID int, data []byte) error {
	return errs.ErrUnsupportedOperation
}

// Close closes every file the store holds. It is safe to call more than once.
func (s *FileStore) Close() error {
	var errList []error

	closeFile := func(f **os.File) {
		if *f == nil {
			return
		}
		if err := (*f).Close(); err != nil {
			errList = append(errList, err)
		}
		*f = nil
	}

	closeFile(&s.data)
	closeFile(&s.meta)
	for index, f := range s.indexes {
		closeFile(&f)
		delete(s.indexes, index)
	}

	return errors.Join(errList...)
}

func (s *FileStore) indexFile(index format.Index) (*os.File, error) {
	if index.IsReferenceTables() {
		if s.meta == nil {
			return nil, errs.ErrIndexNotFound
		}

		return s.meta, nil
	}

	f, ok := s.indexes[index]
	if !ok {
		return nil, fmt.Errorf("%w: %d", errs.ErrIndexNotFound, index)
	}

	return f, nil
}

func (s *FileStore) readIndexRecord(f *os.File, fileID int) (section.IndexRecord, error) {
	if fileID < 0 {
		return section.IndexRecord{}, errs.ErrFileNotFound
	}

	info, err := f.Stat()
	if err != nil {
		return section.IndexRecord{}, err
	}

	pos := int64(fileID) * section.IndexRecordSize
	if pos >= info.Size() {
		return section.IndexRecord{}, errs.ErrFileNotFound
	}

	var buf [section.IndexRecordSize]byte
	if _, err := f.ReadAt(buf[:], pos); err != nil {
		if errors.Is(err, io.EOF) {
			return section.IndexRecord{}, errs.ErrTruncated
		}

		return section.IndexRecord{}, err
	}

	record, err := section.ParseIndexRecord(buf[:])
	if err != nil {
		return section.IndexRecord{}, err
	}
	if !record.Exists() {
		return section.IndexRecord{}, errs.ErrFileNotFound
	}

	return record, nil
}

func (s *FileStore) readChain(index format.Index, fileID int, record section.IndexRecord) ([]byte, error) {
	size := int(record.Size)
	extended := section.IsExtended(fileID)

	data := make([]byte, 0, size)
	buf := make([]byte, section.SectorSize)
	next := record.Sector
	chunk := 0

	for len(data) < size {
		if next == section.ReservedSector {
			return nil, errs.ErrSectorChainBroken
		}

		n, err := s.data.ReadAt(buf, int64(next)*section.SectorSize)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read sector %d: %w", next, err)
		}
		if n <= section.HeaderSizeFor(extended) {
			return nil, fmt.Errorf("%w: sector %d", errs.ErrTruncated, next)
		}

		sector, err := section.ParseSector(buf[:n], extended)
		if err != nil {
			return nil, err
		}

		if format.Index(sector.Index) != index {
			return nil, fmt.Errorf("%w: sector %d has index %d", errs.ErrSectorIndexMismatch, next, sector.Index)
		}
		if int(sector.FileID) != fileID {
			return nil, fmt.Errorf("%w: sector %d has file %d", errs.ErrSectorFileMismatch, next, sector.FileID)
		}
		if sector.Chunk != uint16(chunk) { //nolint: gosec
			return nil, fmt.Errorf("%w: sector %d has chunk %d, want %d", errs.ErrSectorChunkMismatch, next, sector.Chunk, chunk)
		}

		data = append(data, sector.Data...)
		next = sector.NextSector
		chunk++
	}

	return data[:size], nil
}

func wrapMissing(err error, missing error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", missing, err)
	}

	return err
}
