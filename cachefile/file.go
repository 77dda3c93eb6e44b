package cachefile

import (
	"fmt"

	"github.com/arloliu/runetek/errs"
	"github.com/arloliu/runetek/format"
)

// File is a typed cache file.
type File interface {
	// Kind returns the representation of the file.
	Kind() format.FileKind
	// Info returns the metadata attached to the file. It may be nil.
	Info() *Info
	// SetInfo attaches metadata to the file.
	SetInfo(info *Info)
	// Decode replaces the file's contents with the decoded form of data.
	Decode(data []byte, info *Info) error
	// Encode serializes the file. The result is the payload of a container.
	Encode() ([]byte, error)
}

type fileInfo struct {
	info *Info
}

func (f *fileInfo) Info() *Info {
	return f.info
}

func (f *fileInfo) SetInfo(info *Info) {
	f.info = info
}

// New returns an empty file of the given kind.
func New(kind format.FileKind) (File, error) {
	switch kind {
	case format.KindBinary:
		return &BinaryFile{}, nil
	case format.KindEntry:
		return &EntryFile{}, nil
	case format.KindReferenceTable:
		return &ReferenceTable{}, nil
	case format.KindMasterReferenceTable:
		return &MasterReferenceTable{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedKind, kind)
	}
}

// Decode interprets raw as a file of the given kind, using raw's Info as decode context.
func Decode(kind format.FileKind, raw *BinaryFile) (File, error) {
	if kind == format.KindBinary {
		return raw, nil
	}

	f, err := New(kind)
	if err != nil {
		return nil, err
	}

	if err := f.Decode(raw.Data, raw.Info()); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}

	return f, nil
}

// BinaryFile carries raw bytes between cache backends and typed decoders.
type BinaryFile struct {
	fileInfo

	Data []byte
}

var _ File = (*BinaryFile)(nil)

// NewBinaryFile creates a BinaryFile holding data.
func NewBinaryFile(data []byte, info *Info) *BinaryFile {
	return &BinaryFile{fileInfo: fileInfo{info: info}, Data: data}
}

// Kind returns format.KindBinary.
func (f *BinaryFile) Kind() format.FileKind {
	return format.KindBinary
}

// Decode stores data without copying it.
func (f *BinaryFile) Decode(data []byte, info *Info) error {
	f.Data = data
	f.info = info

	return nil
}

// Encode returns the stored bytes.
func (f *BinaryFile) Encode() ([]byte, error) {
	return f.Data, nil
}
