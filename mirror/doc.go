// Package mirror keeps a copy of downloaded cache files so later sessions can skip the
// network.
//
// Files are stored under a key derived from their index, id, version and CRC, so a file
// that changes upstream is fetched again rather than served stale. Each stored object
// is a frame:
//
//	Bytes | Field    | Notes
//	------|----------|------------------------------------------
//	2     | Magic    | 0x5254
//	1     | Codec    | format.CompressionType of the payload
//	8     | Checksum | xxHash64 of the uncompressed container bytes
//	N     | Payload  | container bytes, compressed with Codec
//
// Two Store implementations are provided: DirStore for a local directory and
// MinioStore for S3-compatible object storage.
package mirror
