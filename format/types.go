package format

import "strconv"

type (
	// Index identifies a top-level partition of the cache.
	Index uint8
	// CompressionType identifies the codec applied to a container payload or mirror frame.
	CompressionType uint8
	// FileKind selects the typed representation a raw file is decoded into.
	FileKind uint8
)

const (
	IndexMusic           Index = 40  // IndexMusic holds music tracks, served over HTTP by the update servers.
	IndexReferenceTables Index = 255 // IndexReferenceTables is the meta index describing every other index.

	// MaxIndexFiles is the number of numbered index files a store probes (idx0 through idx253).
	MaxIndexFiles = 254
)

// Container compression types. The numeric values are part of the on-disk format.
const (
	CompressionNone  CompressionType = 0x0 // CompressionNone stores the payload as-is.
	CompressionBzip2 CompressionType = 0x1 // CompressionBzip2 is bzip2 without the stream magic.
	CompressionGzip  CompressionType = 0x2 // CompressionGzip is a gzip member.
	CompressionLZMA  CompressionType = 0x3 // CompressionLZMA is an LZMA stream without the size field.
)

// Mirror-only compression types. They never appear inside a container.
const (
	CompressionZstd CompressionType = 0x10 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x11 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x12 // CompressionLZ4 represents LZ4 block compression.
)

const (
	KindBinary               FileKind = 0x1 // KindBinary is the raw decompressed payload.
	KindEntry                FileKind = 0x2 // KindEntry is a chunked multi-entry archive.
	KindReferenceTable       FileKind = 0x3 // KindReferenceTable describes the files of one index.
	KindMasterReferenceTable FileKind = 0x4 // KindMasterReferenceTable enumerates all reference tables.
)

// IsReferenceTables reports whether i is the meta index.
func (i Index) IsReferenceTables() bool {
	return i == IndexReferenceTables
}

func (i Index) String() string {
	switch i {
	case IndexMusic:
		return "Music"
	case IndexReferenceTables:
		return "ReferenceTables"
	default:
		return "Index" + strconv.Itoa(int(i))
	}
}

// IsContainerType reports whether c may appear in a container header.
func (c CompressionType) IsContainerType() bool {
	return c <= CompressionLZMA
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionBzip2:
		return "Bzip2"
	case CompressionGzip:
		return "Gzip"
	case CompressionLZMA:
		return "LZMA"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

func (k FileKind) String() string {
	switch k {
	case KindBinary:
		return "Binary"
	case KindEntry:
		return "Entry"
	case KindReferenceTable:
		return "ReferenceTable"
	case KindMasterReferenceTable:
		return "MasterReferenceTable"
	default:
		return "Unknown"
	}
}
