package sink

import (
	"fmt"
	"io"

	"github.com/tracelens/tracelens/compress"
	"github.com/tracelens/tracelens/endian"
	"github.com/tracelens/tracelens/format"
	"github.com/tracelens/tracelens/internal/hash"
)

// StreamReader decodes a stream produced by StreamWriter: it validates the
// header, then yields records frame by frame, verifying each frame
// checksum before decompression.
type StreamReader struct {
	r           io.Reader
	codec       compress.Codec
	compression format.CompressionType
	engine      endian.EndianEngine
	frame       []byte
	pos         int
}

// NewStreamReader opens a stream on r, consuming and validating the
// stream header.
func NewStreamReader(r io.Reader) (*StreamReader, error) {
	engine := endian.GetLittleEndianEngine()

	var header [streamHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read stream header: %w", err)
	}

	if magic := engine.Uint32(header[0:4]); magic != format.StreamMagic {
		return nil, fmt.Errorf("bad stream magic 0x%08x", magic)
	}
	if version := header[4]; version != format.StreamVersion {
		return nil, fmt.Errorf("unsupported stream version %d", version)
	}

	compression := format.CompressionType(header[5])
	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}

	return &StreamReader{
		r:           r,
		codec:       codec,
		compression: compression,
		engine:      engine,
	}, nil
}

// Compression returns the frame compression type declared in the stream
// header.
func (s *StreamReader) Compression() format.CompressionType { return s.compression }

// Next returns the next record in the stream, or io.EOF after the last
// frame has been consumed.
func (s *StreamReader) Next() (*Record, error) {
	for s.pos >= len(s.frame) {
		if err := s.readFrame(); err != nil {
			return nil, err
		}
	}

	return DecodeRecord(s.frame, &s.pos)
}

func (s *StreamReader) readFrame() error {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(s.r, header[:]); err != nil {
		if err == io.EOF {
			return io.EOF // clean end at a frame boundary
		}

		return fmt.Errorf("read frame header: %w", err)
	}

	compressedLen := int(s.engine.Uint32(header[0:4]))
	rawLen := int(s.engine.Uint32(header[4:8]))
	sum := s.engine.Uint64(header[8:16])

	compressed := make([]byte, compressedLen)
	if _, err := io.ReadFull(s.r, compressed); err != nil {
		return fmt.Errorf("read frame payload: %w", err)
	}

	if got := hash.Sum64(compressed); got != sum {
		return fmt.Errorf("frame checksum mismatch: got %016x, want %016x", got, sum)
	}

	payload := compressed
	if compressedLen != rawLen {
		decompressed, err := s.codec.Decompress(compressed)
		if err != nil {
			return err
		}
		payload = decompressed
	}
	if len(payload) != rawLen {
		return fmt.Errorf("frame length mismatch: got %d bytes, want %d", len(payload), rawLen)
	}

	s.frame = payload
	s.pos = 0

	return nil
}
