// Package cache defines the Cache contract shared by every backend and the typed file
// access written once against it.
//
// A backend only supplies raw container bytes (FetchRaw) and the metadata describing
// them. GetFile and its typed helpers turn those bytes into cachefile values, so the
// local FileStoreCache and the network-backed downloader.Cache behave identically above
// the transport.
package cache

import (
	"github.com/arloliu/runetek/cachefile"
	"github.com/arloliu/runetek/format"
)

// Cache is a source of cache files.
type Cache interface {
	// Indexes returns the available indexes in ascending order.
	Indexes() ([]format.Index, error)

	// FileIDs returns the ids of the files of index in ascending order.
	FileIDs(index format.Index) ([]int, error)

	// FileInfo returns the metadata of one file.
	//
	// Requests against format.IndexReferenceTables are answered without a table lookup.
	FileInfo(index format.Index, fileID int) (*cachefile.Info, error)

	// FetchRaw returns the raw container bytes of one file with its Info attached.
	// It blocks until the bytes are available.
	FetchRaw(index format.Index, fileID int) (*cachefile.BinaryFile, error)

	// PutFile stores a file. Read-only backends return errs.ErrUnsupportedOperation.
	PutFile(file *cachefile.BinaryFile) error

	// Close releases the backend's resources.
	Close() error
}
