package hash

import (
	"hash/crc32"
	"io"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC32C returns the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// Update extends crc with data.
func Update(crc uint32, data []byte) uint32 {
	return crc32.Update(crc, castagnoli, data)
}

// Writer checksums and counts everything written through it.
type Writer struct {
	w   io.Writer
	crc uint32
	n   int64
}

// NewWriter returns a Writer forwarding to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (hw *Writer) Write(p []byte) (int, error) {
	n, err := hw.w.Write(p)
	hw.crc = Update(hw.crc, p[:n])
	hw.n += int64(n)
	return n, err
}

// Sum32 returns the checksum of the bytes written so far.
func (hw *Writer) Sum32() uint32 { return hw.crc }

// Count returns the number of bytes written so far.
func (hw *Writer) Count() int64 { return hw.n }

// Reader checksums and counts everything read through it.
type Reader struct {
	r   io.Reader
	crc uint32
	n   int64
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (hr *Reader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	hr.crc = Update(hr.crc, p[:n])
	hr.n += int64(n)
	return n, err
}

// Sum32 returns the checksum of the bytes read so far.
func (hr *Reader) Sum32() uint32 { return hr.crc }

// Count returns the number of bytes read so far.
func (hr *Reader) Count() int64 { return hr.n }
