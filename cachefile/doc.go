// Package cachefile decodes and encodes the typed files stored inside a cache.
//
// Every raw cache file is first a Container: a small envelope naming its compression
// and lengths. The decompressed payload is then interpreted as one of a closed set of
// kinds (see format.FileKind):
//
//   - BinaryFile: the payload as-is
//   - EntryFile: a chunked archive packing many small entries into one file
//   - ReferenceTable: the per-index table describing every file and its entries
//   - MasterReferenceTable: the table of reference tables
//
// # Typed Decoding
//
// Decode selects the representation from an explicit kind:
//
//	file, err := cachefile.Decode(format.KindEntry, raw)
//	if err != nil {
//	    return err
//	}
//	archive := file.(*cachefile.EntryFile)
//
// Decoding an EntryFile needs the owning file's Info, because the number of entries is
// not recorded in the archive bytes. A ReferenceTable supplies that Info.
//
// # Thread Safety
//
// Decoded files are plain values. They are not safe for concurrent mutation, but may be
// shared for reading once decoded.
package cachefile
