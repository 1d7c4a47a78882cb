package sink

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tracelens/tracelens/encoding"
	"github.com/tracelens/tracelens/format"
)

func testRecords(n int) []*Record {
	recs := make([]*Record, 0, n+1)
	recs = append(recs, &Record{
		Type:   format.RecordNode,
		Nodes:  []uint64{3},
		Attrs:  []uint64{0},
		Vals:   []encoding.Variant{encoding.Str("main")},
		Parent: InvalidParent,
	})
	for i := 0; i < n; i++ {
		recs = append(recs, &Record{
			Type:  format.RecordSnapshot,
			Nodes: []uint64{3},
			Attrs: []uint64{5},
			Vals:  []encoding.Variant{encoding.Int(int64(i))},
		})
	}

	return recs
}

func TestStream_RoundTrip(t *testing.T) {
	recs := testRecords(10)

	for _, compression := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(compression.String(), func(t *testing.T) {
			var buf bytes.Buffer

			w, err := NewStreamWriter(&buf, compression)
			require.NoError(t, err)
			require.Equal(t, compression, w.Compression())

			for _, rec := range recs {
				w.WriteRecord(rec)
			}
			require.Equal(t, uint64(len(recs)), w.Records())
			require.NoError(t, w.Close())

			r, err := NewStreamReader(&buf)
			require.NoError(t, err)
			require.Equal(t, compression, r.Compression())

			for _, want := range recs {
				got, err := r.Next()
				require.NoError(t, err)
				require.Equal(t, want.Type, got.Type)
				require.Equal(t, want.Nodes, got.Nodes)
				require.Equal(t, want.Vals, got.Vals)
			}

			_, err = r.Next()
			require.Equal(t, io.EOF, err)
		})
	}
}

func TestStream_MultipleFrames(t *testing.T) {
	// Enough records to roll over the frame target at least once.
	n := 2 * frameTargetSize / 8

	var buf bytes.Buffer
	w, err := NewStreamWriter(&buf, format.CompressionS2)
	require.NoError(t, err)

	rec := &Record{
		Type:  format.RecordSnapshot,
		Nodes: []uint64{1},
		Attrs: []uint64{2},
		Vals:  []encoding.Variant{encoding.Uint(1 << 50)},
	}
	for i := 0; i < n; i++ {
		w.WriteRecord(rec)
	}
	require.NoError(t, w.Close())

	r, err := NewStreamReader(&buf)
	require.NoError(t, err)

	read := 0
	for {
		got, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.Equal(t, rec.Nodes, got.Nodes)
		read++
	}
	require.Equal(t, n, read)
}

func TestStream_IncompressibleFrame(t *testing.T) {
	// Pseudo-random bytes defeat block compression; such frames fall back
	// to raw storage and must still round-trip.
	rnd := rand.New(rand.NewSource(1))
	raw := make([]byte, 256)
	rnd.Read(raw)

	rec := &Record{
		Type:  format.RecordSnapshot,
		Attrs: []uint64{5},
		Vals:  []encoding.Variant{encoding.Str(string(raw))},
	}

	for _, compression := range []format.CompressionType{
		format.CompressionLZ4,
		format.CompressionS2,
		format.CompressionZstd,
	} {
		t.Run(compression.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewStreamWriter(&buf, compression)
			require.NoError(t, err)
			w.WriteRecord(rec)
			require.NoError(t, w.Close())

			r, err := NewStreamReader(&buf)
			require.NoError(t, err)

			got, err := r.Next()
			require.NoError(t, err)
			require.Equal(t, rec.Vals, got.Vals)
		})
	}
}

func TestStream_ChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewStreamWriter(&buf, format.CompressionNone)
	require.NoError(t, err)
	for _, rec := range testRecords(3) {
		w.WriteRecord(rec)
	}
	require.NoError(t, w.Close())

	// Flip one payload byte past the stream and frame headers.
	data := buf.Bytes()
	data[streamHeaderSize+frameHeaderSize] ^= 0xFF

	r, err := NewStreamReader(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = r.Next()
	require.Error(t, err)
	require.Contains(t, err.Error(), "checksum")
}

func TestStream_BadHeader(t *testing.T) {
	_, err := NewStreamReader(bytes.NewReader([]byte("not a stream")))
	require.Error(t, err)

	_, err = NewStreamReader(bytes.NewReader(nil))
	require.Error(t, err)

	// Right magic, wrong version.
	var buf bytes.Buffer
	w, err := NewStreamWriter(&buf, format.CompressionNone)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data := buf.Bytes()
	data[4] = format.StreamVersion + 1

	_, err = NewStreamReader(bytes.NewReader(data))
	require.Error(t, err)
	require.Contains(t, err.Error(), "version")
}

// failWriter accepts the first n bytes, then fails every write.
type failWriter struct {
	n int
}

func (f *failWriter) Write(p []byte) (int, error) {
	if f.n < len(p) {
		return 0, errors.New("disk full")
	}
	f.n -= len(p)

	return len(p), nil
}

func TestStream_SetupFailure(t *testing.T) {
	_, err := NewStreamWriter(&failWriter{}, format.CompressionNone)
	require.Error(t, err)

	_, err = NewStreamWriter(io.Discard, format.CompressionType(0xFF))
	require.Error(t, err)
}

func TestStream_StickyWriteError(t *testing.T) {
	// Header fits, the first frame does not.
	w, err := NewStreamWriter(&failWriter{n: streamHeaderSize}, format.CompressionNone)
	require.NoError(t, err)

	for _, rec := range testRecords(3) {
		w.WriteRecord(rec)
	}
	require.NoError(t, w.Err(), "records only staged so far")

	err = w.Flush()
	require.Error(t, err)
	require.Equal(t, err, w.Err())

	// Later records are absorbed without panicking.
	w.WriteRecord(testRecords(1)[0])
	require.Error(t, w.Close())
}
