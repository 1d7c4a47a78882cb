// Package tracelens provides runtime performance-instrumentation trace
// buffering: measurement snapshots are captured into compact chained
// byte buffers with minimal overhead, then flushed to a persistent or
// streaming sink with context tree nodes deduplicated across the whole
// buffer chain.
//
// # Core Features
//
//   - Compact variable-length binary record encoding (varint ids, packed
//     scalar values)
//   - Fixed-capacity buffer chunks with O(1) allocation-free capacity
//     checks and pooled chain growth
//   - Flush with node-before-reference ordering and once-per-flush node
//     path deduplication
//   - Framed output stream with xxhash64 checksums and optional
//     compression (zstd, s2, lz4)
//   - Text log service with trigger attributes and format templates
//
// # Basic Usage
//
//	rec := tracelens.NewRecorder(64 * 1024)
//	region := rec.Tree().CreateAttribute("region", encoding.TypeStr)
//	node := rec.Tree().CreateNode(nil, region.ID(), encoding.Str("main"))
//
//	snap := trace.NewSnapshot()
//	snap.AddNode(node.ID())
//	rec.Record(snap)
//
//	w, _ := tracelens.NewStreamWriter(out, format.CompressionZstd)
//	rec.Flush(w)
//	w.Close()
//
// This package provides convenient wrappers around the trace, tree and
// sink packages; use those directly for fine-grained control.
package tracelens

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/tracelens/tracelens/config"
	"github.com/tracelens/tracelens/format"
	"github.com/tracelens/tracelens/sink"
	"github.com/tracelens/tracelens/textlog"
	"github.com/tracelens/tracelens/trace"
	"github.com/tracelens/tracelens/tree"
)

// Recorder ties a context tree to a trace buffer: the minimal wiring for
// capturing and flushing snapshots.
//
// Like the underlying Buffer, a Recorder has a single logical owner for
// Record and Flush calls. The tree it exposes is safe for concurrent use.
type Recorder struct {
	tree   *tree.Tree
	buffer *trace.Buffer
}

// NewRecorder creates a recorder with a fresh context tree and a buffer
// of the given chunk size in bytes.
func NewRecorder(chunkSize int, opts ...trace.Option) *Recorder {
	return &Recorder{
		tree:   tree.New(),
		buffer: trace.NewBuffer(chunkSize, opts...),
	}
}

// Tree returns the recorder's context tree.
func (r *Recorder) Tree() *tree.Tree { return r.tree }

// Record buffers one snapshot.
func (r *Recorder) Record(s *trace.Snapshot) {
	r.buffer.SaveSnapshot(s)
}

// Flush writes all buffered records to w, resolving node references
// against the recorder's tree, and returns the number of records flushed.
func (r *Recorder) Flush(w sink.RecordWriter) int {
	return r.buffer.Flush(r.tree, w)
}

// Info reports the buffer's current memory usage.
func (r *Recorder) Info() trace.UsageInfo { return r.buffer.Info() }

// Stats returns the buffer's lifetime counters.
func (r *Recorder) Stats() trace.Stats { return r.buffer.Stats() }

// NewStreamWriter creates a framed binary stream writer on w with the
// given frame compression.
func NewStreamWriter(w io.Writer, compression format.CompressionType) (*sink.StreamWriter, error) {
	return sink.NewStreamWriter(w, compression)
}

// Session assembles a full recording pipeline from configuration: a
// recorder, an optional persistent stream, and the text log service.
type Session struct {
	*Recorder

	textlog *textlog.Service
	stream  *sink.StreamWriter
	file    *os.File
}

// NewSession builds a session from cfg. The configuration is validated
// first; output targets that cannot be opened fail here, at setup time.
func NewSession(cfg config.Config) (*Session, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	if cfg.LogLevel != "" {
		level, _ := logrus.ParseLevel(cfg.LogLevel)
		logrus.SetLevel(level)
	}

	policy, _ := trace.ParsePolicy(cfg.Trace.Policy)
	opts := []trace.Option{trace.WithPolicy(policy)}
	if cfg.Trace.MaxChunks > 0 {
		opts = append(opts, trace.WithMaxChunks(cfg.Trace.MaxChunks))
	}

	s := &Session{
		Recorder: NewRecorder(int(cfg.Trace.BufferSize.Bytes()), opts...), //nolint:gosec
	}
	s.textlog = textlog.New(cfg.TextLog, s.Tree())

	compression, _ := format.ParseCompression(cfg.Stream.Compression)

	var target io.Writer
	switch cfg.Stream.Output {
	case "", "none":
	case "stdout":
		target = os.Stdout
	default:
		f, err := os.Create(cfg.Stream.Output)
		if err != nil {
			return nil, fmt.Errorf("open stream output: %w", err)
		}
		s.file = f
		target = f
	}

	if target != nil {
		stream, err := sink.NewStreamWriter(target, compression)
		if err != nil {
			if s.file != nil {
				s.file.Close()
			}

			return nil, err
		}
		s.stream = stream
	}

	return s, nil
}

// Process buffers the snapshot and feeds the text log service.
func (s *Session) Process(snap *trace.Snapshot) {
	s.Record(snap)
	s.textlog.Process(snap)
}

// Flush writes all buffered records to the configured stream and returns
// the number of records flushed. Without a configured stream the buffer
// is drained and reclaimed, but nothing is written.
func (s *Session) Flush() int {
	if s.stream == nil {
		return s.Recorder.Flush(sink.Discard)
	}

	return s.Recorder.Flush(s.stream)
}

// TextLog returns the session's text log service.
func (s *Session) TextLog() *textlog.Service { return s.textlog }

// Close flushes the stream and releases all output targets.
func (s *Session) Close() error {
	var firstErr error

	if s.stream != nil {
		firstErr = s.stream.Close()
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.textlog.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
