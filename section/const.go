package section

// Record and sector sizes in bytes.
const (
	IndexRecordSize = 6 // fixed index record size: u24 size + u24 first sector

	SectorSize               = 520                                   // fixed sector size shared by both header variants
	SectorHeaderSize         = 8                                     // u16 file id, u16 chunk, u24 next sector, u8 index
	ExtendedSectorHeaderSize = 10                                    // u32 file id, u16 chunk, u24 next sector, u8 index
	SectorDataSize           = SectorSize - SectorHeaderSize         // payload bytes per normal sector
	ExtendedSectorDataSize   = SectorSize - ExtendedSectorHeaderSize // payload bytes per extended sector

	MaxNormalFileID = 0xFFFF    // file ids above this use extended sectors
	ReservedSector  = 0         // sector 0 never holds file data
	MaxSectorNumber = 1<<24 - 1 // sector pointers are 24 bits

	maxNormalSectorFileIDBits = 16
)

// IsExtended reports whether fileID requires the extended sector header.
func IsExtended(fileID int) bool {
	return fileID > MaxNormalFileID
}

// HeaderSizeFor returns the sector header size for the given header variant.
func HeaderSizeFor(extended bool) int {
	if extended {
		return ExtendedSectorHeaderSize
	}

	return SectorHeaderSize
}

// DataSizeFor returns the payload capacity of one sector for the given header variant.
func DataSizeFor(extended bool) int {
	return SectorSize - HeaderSizeFor(extended)
}
