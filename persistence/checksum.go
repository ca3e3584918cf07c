package persistence

import (
	"fmt"

	"github.com/hupe1980/vecflat/internal/hash"
)

// ChecksumMismatchError reports a manifest, section or file whose CRC32C
// does not match the stored value. It matches ErrCorrupt with errors.Is.
type ChecksumMismatchError struct {
	Section  string
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("%s: crc32c 0x%08x, stored 0x%08x", e.Section, e.Actual, e.Expected)
}

func (e *ChecksumMismatchError) Unwrap() error { return ErrCorrupt }

func verify(section string, data []byte, expected uint32) error {
	if actual := hash.CRC32C(data); actual != expected {
		return &ChecksumMismatchError{Section: section, Expected: expected, Actual: actual}
	}
	return nil
}
