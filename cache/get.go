package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/runetek/cachefile"
	"github.com/arloliu/runetek/format"
)

// DefaultConcurrency is the number of files GetFiles fetches at once when no limit is given.
const DefaultConcurrency = 8

// GetFile fetches a file and decodes it as kind.
//
// The raw bytes are unwrapped from their container first. The file's Info is passed to
// the decoder, which EntryFile needs for its entry count.
func GetFile(c Cache, kind format.FileKind, index format.Index, fileID int) (cachefile.File, error) {
	raw, err := c.FetchRaw(index, fileID)
	if err != nil {
		return nil, err
	}

	f, err := decodeRaw(kind, raw)
	if err != nil {
		return nil, fmt.Errorf("index %d file %d: %w", index, fileID, err)
	}

	return f, nil
}

// GetBinaryFile fetches a file's decompressed payload.
func GetBinaryFile(c Cache, index format.Index, fileID int) (*cachefile.BinaryFile, error) {
	return getAs[*cachefile.BinaryFile](c, format.KindBinary, index, fileID)
}

// GetEntryFile fetches a file and decodes it as an archive.
func GetEntryFile(c Cache, index format.Index, fileID int) (*cachefile.EntryFile, error) {
	return getAs[*cachefile.EntryFile](c, format.KindEntry, index, fileID)
}

// GetReferenceTable fetches the reference table describing index.
func GetReferenceTable(c Cache, index format.Index) (*cachefile.ReferenceTable, error) {
	return getAs[*cachefile.ReferenceTable](c, format.KindReferenceTable, format.IndexReferenceTables, int(index))
}

// GetMasterReferenceTable fetches the master reference table.
func GetMasterReferenceTable(c Cache) (*cachefile.MasterReferenceTable, error) {
	return getAs[*cachefile.MasterReferenceTable](
		c, format.KindMasterReferenceTable, format.IndexReferenceTables, cachefile.MasterTableFileID)
}

// GetFiles fetches and decodes several files of one index, at most concurrency at a time.
// A concurrency below 1 uses DefaultConcurrency.
//
// The result is in the order of fileIDs. The first error cancels the remaining fetches
// that have not started yet.
func GetFiles(c Cache, kind format.FileKind, index format.Index, fileIDs []int, concurrency int) ([]cachefile.File, error) {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	out := make([]cachefile.File, len(fileIDs))

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(concurrency)

	for i, fileID := range fileIDs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			f, err := GetFile(c, kind, index, fileID)
			if err != nil {
				return err
			}
			out[i] = f

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func getAs[T cachefile.File](c Cache, kind format.FileKind, index format.Index, fileID int) (T, error) {
	f, err := GetFile(c, kind, index, fileID)
	if err != nil {
		var zero T
		return zero, err
	}

	return f.(T), nil //nolint: forcetypeassert
}

// decodeRaw unwraps raw's container and decodes the payload as kind.
func decodeRaw(kind format.FileKind, raw *cachefile.BinaryFile) (cachefile.File, error) {
	container, err := cachefile.DecodeContainer(raw.Data)
	if err != nil {
		return nil, err
	}

	info := raw.Info().Clone()
	if info != nil {
		info.Compression = container.Compression
	}

	return cachefile.Decode(kind, cachefile.NewBinaryFile(container.Data, info))
}
