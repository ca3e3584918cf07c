// Package persistence defines the snapshot format of a flat index.
//
// A snapshot is a fixed header, a manifest and a sequence of sections:
//
//	+--------------------+
//	| FileHeader (20 B)  |  magic, version, compression, manifest length + CRC32C
//	+--------------------+
//	| Manifest           |  codec-encoded (go-json by default)
//	+--------------------+
//	| codes              |  slot arena, SlotCount * CodeSize bytes
//	| free               |  free pool, roaring portable format
//	| labels             |  slot -> label, little-endian int64, -1 for none
//	+--------------------+
//	| CRC32C (4 B)       |  of every byte above
//	+--------------------+
//
// Each section is compressed independently and carries the CRC32C of its
// uncompressed bytes in the manifest. All integers are little-endian.
package persistence
