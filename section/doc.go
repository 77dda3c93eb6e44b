// Package section defines the fixed-width binary records of the sector cache.
//
// A cache directory holds one data file and one index file per index:
//
//	main_file_cache.dat2       shared data file, a flat array of 520-byte sectors
//	main_file_cache.idx0..253  one IndexRecord per file id
//	main_file_cache.idx255     reference tables (the meta index)
//
// # Index Record Format
//
// IndexRecord (6 bytes):
//
//	Bytes | Field  | Type | Description
//	------|--------|------|----------------------------------
//	0-2   | Size   | u24  | Logical file length in bytes
//	3-5   | Sector | u24  | First sector of the chain (0 = absent)
//
// The record for file id N lives at byte offset N*6 of the index file.
//
// # Sector Format
//
// Sector (520 bytes). File ids up to 65535 use the normal header:
//
//	Bytes | Field      | Type | Description
//	------|------------|------|----------------------------------
//	0-1   | FileID     | u16  | Owning file id
//	2-3   | Chunk      | u16  | Position of this sector in the chain, from 0
//	4-6   | NextSector | u24  | Next sector of the chain
//	7     | Index      | u8   | Owning index id
//	8-519 | Data       | -    | 512 payload bytes
//
// Larger file ids use the extended header, where FileID is a u32 and the payload
// shrinks to 510 bytes. The variant is chosen per file from its id, never per sector.
//
// All multi-byte fields are big-endian.
package section
