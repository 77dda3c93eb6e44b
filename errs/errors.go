// Package errs defines the sentinel errors returned by runetek packages.
//
// Errors are grouped into five kinds. Every specific error wraps exactly one kind, so
// callers can match either precisely or broadly:
//
//	if errors.Is(err, errs.ErrSectorFileMismatch) { ... } // exact cause
//	if errors.Is(err, errs.ErrCorrupt) { ... }            // any corruption
package errs

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrSetup indicates a required backing file was missing or unusable when opening a store.
	ErrSetup = errors.New("setup failure")
	// ErrNotFound indicates the requested index or file does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCorrupt indicates stored or transferred data is inconsistent with its own metadata.
	ErrCorrupt = errors.New("corrupt data")
	// ErrUnsupported indicates an operation the backend or codec does not provide.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrContractViolation indicates the caller broke an API precondition.
	ErrContractViolation = errors.New("contract violation")
)

// Setup errors.
var (
	ErrDataFileNotFound  = fmt.Errorf("%w: cache data file does not exist", ErrSetup)
	ErrMetaIndexNotFound = fmt.Errorf("%w: meta index file does not exist", ErrSetup)
	ErrNoIndexFiles      = fmt.Errorf("%w: no index files found", ErrSetup)
	ErrNoTransport       = fmt.Errorf("%w: no transport configured for index", ErrSetup)
)

// Not-found errors.
var (
	ErrIndexNotFound = fmt.Errorf("%w: index does not exist", ErrNotFound)
	ErrFileNotFound  = fmt.Errorf("%w: file does not exist", ErrNotFound)
	ErrEntryNotFound = fmt.Errorf("%w: entry does not exist", ErrNotFound)
	ErrMirrorMiss    = fmt.Errorf("%w: file is not mirrored", ErrNotFound)
)

// Corruption errors.
var (
	ErrInvalidIndexRecordSize = fmt.Errorf("%w: invalid index record size", ErrCorrupt)
	ErrInvalidSectorSize      = fmt.Errorf("%w: invalid sector size", ErrCorrupt)
	ErrSectorIndexMismatch    = fmt.Errorf("%w: sector index id mismatch", ErrCorrupt)
	ErrSectorFileMismatch     = fmt.Errorf("%w: sector file id mismatch", ErrCorrupt)
	ErrSectorChunkMismatch    = fmt.Errorf("%w: sector chunk mismatch", ErrCorrupt)
	ErrSectorChainBroken      = fmt.Errorf("%w: sector chain ends before file is complete", ErrCorrupt)
	ErrNoChunks               = fmt.Errorf("%w: entry file contains no chunks", ErrCorrupt)
	ErrTruncated              = fmt.Errorf("%w: unexpected end of data", ErrCorrupt)
	ErrInvalidEntrySize       = fmt.Errorf("%w: negative entry size", ErrCorrupt)
	ErrInvalidCompression     = fmt.Errorf("%w: unknown compression type", ErrCorrupt)
	ErrInvalidTableFormat     = fmt.Errorf("%w: unknown reference table format", ErrCorrupt)
	ErrInvalidMirrorFrame     = fmt.Errorf("%w: invalid mirror frame", ErrCorrupt)
	ErrChecksumMismatch       = fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	ErrUnexpectedResponse     = fmt.Errorf("%w: unexpected transfer response", ErrCorrupt)
)

// Unsupported-operation errors.
var (
	ErrUnsupportedOperation   = fmt.Errorf("%w: cache is read-only", ErrUnsupported)
	ErrUnsupportedCompression = fmt.Errorf("%w: compression not available for encoding", ErrUnsupported)
	ErrUnsupportedKind        = fmt.Errorf("%w: unknown file kind", ErrUnsupported)
)

// Contract violations.
var (
	ErrCapacityTooLow    = fmt.Errorf("%w: capacity below highest entry id", ErrContractViolation)
	ErrInvalidEntryID    = fmt.Errorf("%w: negative entry id", ErrContractViolation)
	ErrDuplicateEntry    = fmt.Errorf("%w: entry already exists", ErrContractViolation)
	ErrMissingFileInfo   = fmt.Errorf("%w: file info is required", ErrContractViolation)
	ErrTooManyChunks     = fmt.Errorf("%w: chunk count exceeds 255", ErrContractViolation)
	ErrValueOutOfRange   = fmt.Errorf("%w: value does not fit its field", ErrContractViolation)
	ErrHandshakeRejected = fmt.Errorf("%w: server rejected handshake", ErrContractViolation)
)
