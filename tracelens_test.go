package tracelens

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tracelens/tracelens/config"
	"github.com/tracelens/tracelens/encoding"
	"github.com/tracelens/tracelens/format"
	"github.com/tracelens/tracelens/sink"
	"github.com/tracelens/tracelens/trace"
)

func TestRecorder_EndToEnd(t *testing.T) {
	rec := NewRecorder(64 * 1024)

	region := rec.Tree().CreateAttribute("region", encoding.TypeStr)
	iter := rec.Tree().CreateAttribute("iteration", encoding.TypeInt)

	main := rec.Tree().CreateNode(nil, region.ID(), encoding.Str("main"))
	loop := rec.Tree().CreateNode(main, region.ID(), encoding.Str("loop"))

	snap := trace.NewSnapshot()
	for i := 0; i < 50; i++ {
		snap.Reset()
		snap.AddNode(loop.ID())
		snap.AddImmediate(iter.ID(), encoding.Int(int64(i)))
		rec.Record(snap)
	}

	var buf bytes.Buffer
	w, err := NewStreamWriter(&buf, format.CompressionZstd)
	require.NoError(t, err)

	require.Equal(t, 50, rec.Flush(w))
	require.NoError(t, w.Close())

	require.Equal(t, uint64(50), rec.Stats().Flushed)
	require.Equal(t, 0, rec.Info().Used, "buffer drained after flush")

	// Read the stream back: node records first, then the snapshots.
	r, err := sink.NewStreamReader(&buf)
	require.NoError(t, err)

	var nodes, snaps int
	sawSnapshot := false
	for {
		got, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		switch got.Type {
		case format.RecordNode:
			require.False(t, sawSnapshot, "node paths precede all snapshot records")
			nodes++
		case format.RecordSnapshot:
			sawSnapshot = true
			snaps++
			require.Equal(t, []uint64{loop.ID()}, got.Nodes)
		}
	}
	require.Equal(t, 50, snaps)
	// main+loop paths plus the iteration attribute's metadata path.
	require.Equal(t, 4, nodes)
}

func TestRecorder_FlushToDiscard(t *testing.T) {
	rec := NewRecorder(0) // raised to the minimum chunk size

	snap := trace.NewSnapshot()
	snap.AddImmediate(3, encoding.Uint(1))
	rec.Record(snap)

	require.Equal(t, 1, rec.Flush(sink.Discard))
	require.Equal(t, 0, rec.Flush(sink.Discard))
}

func TestSession_FromConfig(t *testing.T) {
	out := filepath.Join(t.TempDir(), "trace.bin")

	cfg := config.Default()
	cfg.Stream.Output = out
	cfg.Stream.Compression = "lz4"
	cfg.TextLog.Output = "none"

	s, err := NewSession(cfg)
	require.NoError(t, err)

	region := s.Tree().CreateAttribute("region", encoding.TypeStr)
	node := s.Tree().CreateNode(nil, region.ID(), encoding.Str("main"))

	snap := trace.NewSnapshot()
	snap.AddNode(node.ID())
	s.Process(snap)

	require.Equal(t, 1, s.Flush())
	require.NoError(t, s.Close())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	r, err := sink.NewStreamReader(f)
	require.NoError(t, err)
	require.Equal(t, format.CompressionLZ4, r.Compression())

	total := 0
	for {
		if _, err := r.Next(); err == io.EOF {
			break
		} else {
			require.NoError(t, err)
		}
		total++
	}
	require.Equal(t, 2, total, "one node path plus one snapshot")
}

func TestSession_NoStreamDrainsBuffer(t *testing.T) {
	cfg := config.Default()
	cfg.TextLog.Output = "none"

	s, err := NewSession(cfg)
	require.NoError(t, err)
	defer s.Close()

	snap := trace.NewSnapshot()
	snap.AddImmediate(5, encoding.Int(1))
	s.Process(snap)

	require.Equal(t, 1, s.Flush())
	require.Equal(t, 0, s.Info().Used)
}

func TestSession_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Trace.Policy = "spill"

	_, err := NewSession(cfg)
	require.Error(t, err)
}

func TestSession_UnopenableStream(t *testing.T) {
	cfg := config.Default()
	cfg.Stream.Output = filepath.Join(t.TempDir(), "no", "such", "dir", "t.bin")
	cfg.TextLog.Output = "none"

	_, err := NewSession(cfg)
	require.Error(t, err)
}
