package persistence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// MagicNumber identifies snapshot files (ASCII: "VFL1").
	MagicNumber = 0x56464c31
	// Version is the current file format version.
	Version = 1

	headerSize  = 20
	trailerSize = 4

	// maxManifestSize bounds the manifest allocation when reading.
	maxManifestSize = 16 << 20
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrCorrupt        = errors.New("corrupt snapshot")
)

// FileHeader is the fixed-size header at the start of every snapshot.
type FileHeader struct {
	Magic          uint32
	Version        uint32
	Compression    Compression
	Flags          uint8
	Reserved       [2]byte
	ManifestLength uint32
	ManifestCRC    uint32
}

// Compression selects the section compression.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "zstd" or "lz4".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	}
	return 0, fmt.Errorf("unknown compression %q", s)
}

// Section names.
const (
	SectionCodes  = "codes"
	SectionFree   = "free"
	SectionLabels = "labels"
)

// Section describes one stored section.
type Section struct {
	Name      string `json:"name"`
	Length    int64  `json:"length"`
	RawLength int64  `json:"raw_length"`
	CRC32     uint32 `json:"crc32"`
}

// Manifest describes the index a snapshot was taken from.
type Manifest struct {
	Dimension int       `json:"dimension"`
	Metric    string    `json:"metric"`
	MetricArg float32   `json:"metric_arg,omitempty"`
	Encoder   string    `json:"encoder"`
	CodeSize  int       `json:"code_size"`
	SlotCount int       `json:"slot_count"`
	LiveCount int       `json:"live_count"`
	NextLabel int64     `json:"next_label"`
	CreatedAt time.Time `json:"created_at"`
	Sections  []Section `json:"sections"`
}

func (m *Manifest) section(name string) (Section, bool) {
	for _, s := range m.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

func (m *Manifest) validate() error {
	if m.Dimension <= 0 || m.CodeSize <= 0 {
		return fmt.Errorf("%w: dimension %d, code size %d", ErrCorrupt, m.Dimension, m.CodeSize)
	}
	if m.SlotCount < 0 || int64(m.SlotCount) > 1<<32-1 {
		return fmt.Errorf("%w: slot count %d", ErrCorrupt, m.SlotCount)
	}
	if m.NextLabel < 0 || m.LiveCount < 0 || m.LiveCount > m.SlotCount {
		return fmt.Errorf("%w: next label %d, live count %d", ErrCorrupt, m.NextLabel, m.LiveCount)
	}
	want := map[string]int64{
		SectionCodes:  int64(m.SlotCount) * int64(m.CodeSize),
		SectionLabels: int64(m.SlotCount) * 8,
		SectionFree:   -1,
	}
	for name, raw := range want {
		s, ok := m.section(name)
		if !ok {
			return fmt.Errorf("%w: missing section %q", ErrCorrupt, name)
		}
		if raw >= 0 && s.RawLength != raw {
			return fmt.Errorf("%w: section %q holds %d bytes, want %d", ErrCorrupt, name, s.RawLength, raw)
		}
		if s.Length < 0 || s.RawLength < 0 {
			return fmt.Errorf("%w: section %q has negative length", ErrCorrupt, name)
		}
	}
	return nil
}
