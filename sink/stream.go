package sink

import (
	"fmt"
	"io"

	"github.com/tracelens/tracelens/compress"
	"github.com/tracelens/tracelens/endian"
	"github.com/tracelens/tracelens/format"
	"github.com/tracelens/tracelens/internal/hash"
	"github.com/tracelens/tracelens/internal/pool"
)

// Stream container layout:
//
//	header: uint32 magic, uint8 version, uint8 compression type
//	frame:  uint32 compressed length, uint32 raw length,
//	        uint64 xxhash64 of the compressed payload, payload
//
// All fixed-width fields are little-endian. Frames are self-contained:
// each one decompresses to a whole number of records. A frame whose
// compressed length equals its raw length is stored uncompressed; block
// codecs signal incompressible input that way instead of inflating it.
const (
	streamHeaderSize = 6
	frameHeaderSize  = 16

	// frameTargetSize is the payload size at which a pending frame is
	// written out. Matches the default frame buffer pool size so staging
	// normally never reallocates.
	frameTargetSize = pool.FrameBufferDefaultSize
)

// StreamWriter serializes records into a framed, optionally compressed
// binary stream. It implements RecordWriter.
//
// Per the RecordWriter contract the writer absorbs write failures instead
// of propagating them into the flush path: the first failure is retained
// and all subsequent records are dropped. Check Err (or the error from
// Flush/Close) once flushing is done.
//
// A StreamWriter is single-owner, like the trace buffer that feeds it.
type StreamWriter struct {
	w           io.Writer
	codec       compress.Codec
	compression format.CompressionType
	engine      endian.EndianEngine
	buf         *pool.ByteBuffer
	records     uint64
	err         error
}

var _ RecordWriter = (*StreamWriter)(nil)

// NewStreamWriter creates a stream writer on w and writes the stream
// header. Header write failures are reported here, at setup time; once a
// writer is handed to a flush it is treated as always available.
func NewStreamWriter(w io.Writer, compression format.CompressionType) (*StreamWriter, error) {
	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}

	engine := endian.GetLittleEndianEngine()

	var header [streamHeaderSize]byte
	engine.PutUint32(header[0:4], format.StreamMagic)
	header[4] = format.StreamVersion
	header[5] = byte(compression)

	if _, err := w.Write(header[:]); err != nil {
		return nil, fmt.Errorf("write stream header: %w", err)
	}

	return &StreamWriter{
		w:           w,
		codec:       codec,
		compression: compression,
		engine:      engine,
		buf:         pool.GetFrameBuffer(),
	}, nil
}

// WriteRecord stages rec into the pending frame, writing the frame out
// once it reaches the target size.
func (s *StreamWriter) WriteRecord(rec *Record) {
	if s.err != nil || s.buf == nil {
		return
	}

	s.buf.B = AppendRecord(s.buf.B, rec)
	s.records++

	if s.buf.Len() >= frameTargetSize {
		s.flushFrame()
	}
}

// Flush writes any pending frame and returns the sticky error, if one
// occurred.
func (s *StreamWriter) Flush() error {
	if s.buf != nil && s.buf.Len() > 0 && s.err == nil {
		s.flushFrame()
	}

	return s.err
}

// Close flushes pending data and releases the frame buffer. The
// underlying io.Writer is owned by the caller and is not closed.
func (s *StreamWriter) Close() error {
	err := s.Flush()
	if s.buf != nil {
		pool.PutFrameBuffer(s.buf)
		s.buf = nil
	}

	return err
}

// Err returns the first write or compression failure, or nil.
func (s *StreamWriter) Err() error { return s.err }

// Records returns the number of records accepted so far, including any
// still staged in the pending frame.
func (s *StreamWriter) Records() uint64 { return s.records }

// Compression returns the frame compression type in effect.
func (s *StreamWriter) Compression() format.CompressionType { return s.compression }

func (s *StreamWriter) flushFrame() {
	payload := s.buf.Bytes()

	compressed, err := s.codec.Compress(payload)
	if err != nil {
		s.err = fmt.Errorf("compress frame: %w", err)
		return
	}

	// Store the frame raw when compression did not help. Block codecs
	// return empty output for incompressible input.
	if len(compressed) == 0 || len(compressed) >= len(payload) {
		compressed = payload
	}

	var header [frameHeaderSize]byte
	s.engine.PutUint32(header[0:4], uint32(len(compressed))) //nolint:gosec
	s.engine.PutUint32(header[4:8], uint32(len(payload)))    //nolint:gosec
	s.engine.PutUint64(header[8:16], hash.Sum64(compressed))

	if _, err := s.w.Write(header[:]); err != nil {
		s.err = fmt.Errorf("write frame header: %w", err)
		return
	}
	if _, err := s.w.Write(compressed); err != nil {
		s.err = fmt.Errorf("write frame payload: %w", err)
		return
	}

	s.buf.Reset()
}
