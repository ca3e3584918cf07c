package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vecflat/codec"
	"github.com/hupe1980/vecflat/internal/conv"
	"github.com/hupe1980/vecflat/internal/hash"
)

// Snapshot is the in-memory form of a snapshot file.
type Snapshot struct {
	Manifest Manifest
	Codes    []byte
	Free     *roaring.Bitmap
	Labels   []int64
}

// Options configures Encode and Decode.
type Options struct {
	Compression Compression
	Codec       codec.Codec
}

func defaultOptions() Options {
	return Options{
		Compression: CompressionZstd,
		Codec:       codec.Default,
	}
}

// WithCompression selects the section compression used by Encode.
func WithCompression(c Compression) func(*Options) {
	return func(o *Options) { o.Compression = c }
}

// WithCodec selects the manifest codec.
func WithCodec(c codec.Codec) func(*Options) {
	return func(o *Options) {
		if c != nil {
			o.Codec = c
		}
	}
}

// Encode writes snap to w and returns the number of bytes written. The
// Sections of snap.Manifest are filled in.
func Encode(w io.Writer, snap *Snapshot, optFns ...func(*Options)) (int64, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	free := snap.Free
	if free == nil {
		free = roaring.New()
	}
	var freeBuf bytes.Buffer
	if _, err := free.WriteTo(&freeBuf); err != nil {
		return 0, fmt.Errorf("encode free pool: %w", err)
	}

	labels := make([]byte, 0, len(snap.Labels)*8)
	for _, l := range snap.Labels {
		labels = binary.LittleEndian.AppendUint64(labels, uint64(l))
	}

	raw := []struct {
		name string
		data []byte
	}{
		{SectionCodes, snap.Codes},
		{SectionFree, freeBuf.Bytes()},
		{SectionLabels, labels},
	}

	m := snap.Manifest
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.Sections = m.Sections[:0:0]
	stored := make([][]byte, len(raw))
	for i, sec := range raw {
		data, err := compress(opts.Compression, sec.data)
		if err != nil {
			return 0, fmt.Errorf("compress %s: %w", sec.name, err)
		}
		stored[i] = data
		m.Sections = append(m.Sections, Section{
			Name:      sec.name,
			Length:    int64(len(data)),
			RawLength: int64(len(sec.data)),
			CRC32:     hash.CRC32C(sec.data),
		})
	}

	manifest, err := opts.Codec.Marshal(&m)
	if err != nil {
		return 0, fmt.Errorf("encode manifest: %w", err)
	}

	hdr := FileHeader{
		Magic:          MagicNumber,
		Version:        Version,
		Compression:    opts.Compression,
		ManifestLength: uint32(len(manifest)),
		ManifestCRC:    hash.CRC32C(manifest),
	}

	hw := hash.NewWriter(w)
	if err := binary.Write(hw, binary.LittleEndian, &hdr); err != nil {
		return hw.Count(), err
	}
	if _, err := hw.Write(manifest); err != nil {
		return hw.Count(), err
	}
	for _, data := range stored {
		if _, err := hw.Write(data); err != nil {
			return hw.Count(), err
		}
	}

	// The trailer checksums every byte before it.
	trailer := binary.LittleEndian.AppendUint32(nil, hw.Sum32())
	n, err := w.Write(trailer)
	if err != nil {
		return hw.Count() + int64(n), err
	}
	snap.Manifest = m
	return hw.Count() + int64(n), nil
}

// Decode reads a snapshot from r, verifying every checksum.
func Decode(src io.Reader, optFns ...func(*Options)) (*Snapshot, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	r := hash.NewReader(src)

	var hdr FileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if hdr.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, hdr.Magic)
	}
	if hdr.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, hdr.Version)
	}
	if hdr.ManifestLength > maxManifestSize {
		return nil, fmt.Errorf("%w: manifest of %d bytes", ErrCorrupt, hdr.ManifestLength)
	}

	manifest := make([]byte, hdr.ManifestLength)
	if _, err := io.ReadFull(r, manifest); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if err := verify("manifest", manifest, hdr.ManifestCRC); err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	if err := opts.Codec.Unmarshal(manifest, &snap.Manifest); err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", ErrCorrupt, err)
	}
	if err := snap.Manifest.validate(); err != nil {
		return nil, err
	}

	for _, sec := range snap.Manifest.Sections {
		data, err := readSection(r, hdr.Compression, sec)
		if err != nil {
			return nil, err
		}
		switch sec.Name {
		case SectionCodes:
			snap.Codes = data
		case SectionFree:
			snap.Free = roaring.New()
			if _, err := snap.Free.ReadFrom(bytes.NewReader(data)); err != nil {
				return nil, fmt.Errorf("%w: free pool: %w", ErrCorrupt, err)
			}
		case SectionLabels:
			snap.Labels = make([]int64, len(data)/8)
			for i := range snap.Labels {
				snap.Labels[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
			}
		}
	}

	var trailer [trailerSize]byte
	if _, err := io.ReadFull(src, trailer[:]); err != nil {
		return nil, fmt.Errorf("read trailer: %w", err)
	}
	if want, got := binary.LittleEndian.Uint32(trailer[:]), r.Sum32(); want != got {
		return nil, &ChecksumMismatchError{Section: "file", Expected: want, Actual: got}
	}
	return snap, nil
}

func readSection(r io.Reader, c Compression, sec Section) ([]byte, error) {
	// Compressed data can exceed the raw size only by a small framing overhead.
	if sec.Length > sec.RawLength+sec.RawLength/8+1<<16 {
		return nil, fmt.Errorf("%w: section %q stored in %d bytes for %d raw", ErrCorrupt, sec.Name, sec.Length, sec.RawLength)
	}
	n, err := conv.Narrow[int](sec.Length)
	if err != nil {
		return nil, fmt.Errorf("%w: section %q: %w", ErrCorrupt, sec.Name, err)
	}
	stored := make([]byte, n)
	if _, err := io.ReadFull(r, stored); err != nil {
		return nil, fmt.Errorf("read section %q: %w", sec.Name, err)
	}
	data, err := decompress(c, stored, sec.RawLength)
	if err != nil {
		return nil, fmt.Errorf("section %q: %w", sec.Name, err)
	}
	if int64(len(data)) != sec.RawLength {
		return nil, fmt.Errorf("%w: section %q decoded to %d bytes, want %d", ErrCorrupt, sec.Name, len(data), sec.RawLength)
	}
	if err := verify(sec.Name, data, sec.CRC32); err != nil {
		return nil, err
	}
	return data, nil
}
