// Package hash provides the CRC32-Castagnoli checksums of snapshot files:
// one-shot sums for manifest and sections, and pass-through readers and
// writers that checksum a whole file while it streams.
//
// CRC32C detects accidental corruption only. It is not tamper proof.
package hash
