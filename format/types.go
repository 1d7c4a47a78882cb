package format

import "fmt"

type (
	CompressionType uint8
	RecordType      uint8
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.

	// RecordSnapshot is a buffered measurement snapshot record.
	RecordSnapshot RecordType = 0x1
	// RecordNode is a context tree node definition record.
	RecordNode RecordType = 0x2
)

// Stream container constants shared by the sink writer and reader.
const (
	StreamMagic   uint32 = 0x314C5254 // "TRL1" in little-endian byte order
	StreamVersion uint8  = 1
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionS2:
		return "s2"
	case CompressionLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// ParseCompression maps a compression name from configuration or CLI flags
// to its CompressionType. The empty string selects CompressionNone.
func ParseCompression(name string) (CompressionType, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression type: %q", name)
	}
}

func (r RecordType) String() string {
	switch r {
	case RecordSnapshot:
		return "snapshot"
	case RecordNode:
		return "node"
	default:
		return "unknown"
	}
}
