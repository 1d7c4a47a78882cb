package sink

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tracelens/tracelens/encoding"
	"github.com/tracelens/tracelens/format"
)

func TestAppendRecord_SnapshotRoundTrip(t *testing.T) {
	rec := &Record{
		Type:  format.RecordSnapshot,
		Nodes: []uint64{3, 11, 1 << 40},
		Attrs: []uint64{5, 9},
		Vals:  []encoding.Variant{encoding.Int(-7), encoding.Str("loop")},
	}

	buf := AppendRecord(nil, rec)

	pos := 0
	got, err := DecodeRecord(buf, &pos)
	require.NoError(t, err)
	require.Equal(t, len(buf), pos)

	require.Equal(t, format.RecordSnapshot, got.Type)
	require.Equal(t, rec.Nodes, got.Nodes)
	require.Equal(t, rec.Attrs, got.Attrs)
	require.Equal(t, rec.Vals, got.Vals)
}

func TestAppendRecord_NodeRoundTrip(t *testing.T) {
	rec := &Record{
		Type:   format.RecordNode,
		Nodes:  []uint64{11},
		Attrs:  []uint64{0},
		Vals:   []encoding.Variant{encoding.Str("main")},
		Parent: 10,
	}

	buf := AppendRecord(nil, rec)

	pos := 0
	got, err := DecodeRecord(buf, &pos)
	require.NoError(t, err)
	require.Equal(t, len(buf), pos)

	require.Equal(t, format.RecordNode, got.Type)
	require.Equal(t, uint64(11), got.Nodes[0])
	require.Equal(t, uint64(0), got.Attrs[0])
	require.Equal(t, encoding.Str("main"), got.Vals[0])
	require.Equal(t, uint64(10), got.Parent)
}

func TestAppendRecord_RootParent(t *testing.T) {
	rec := &Record{
		Type:   format.RecordNode,
		Nodes:  []uint64{2},
		Attrs:  []uint64{1},
		Vals:   []encoding.Variant{encoding.TypeValue(encoding.TypeInt)},
		Parent: InvalidParent,
	}

	buf := AppendRecord(nil, rec)

	pos := 0
	got, err := DecodeRecord(buf, &pos)
	require.NoError(t, err)
	require.Equal(t, InvalidParent, got.Parent)
}

func TestDecodeRecord_Sequential(t *testing.T) {
	var buf []byte
	buf = AppendRecord(buf, &Record{
		Type:   format.RecordNode,
		Nodes:  []uint64{4},
		Attrs:  []uint64{0},
		Vals:   []encoding.Variant{encoding.Str("solve")},
		Parent: InvalidParent,
	})
	buf = AppendRecord(buf, &Record{
		Type:  format.RecordSnapshot,
		Nodes: []uint64{4},
	})

	pos := 0
	first, err := DecodeRecord(buf, &pos)
	require.NoError(t, err)
	require.Equal(t, format.RecordNode, first.Type)

	second, err := DecodeRecord(buf, &pos)
	require.NoError(t, err)
	require.Equal(t, format.RecordSnapshot, second.Type)
	require.Equal(t, []uint64{4}, second.Nodes)
	require.Empty(t, second.Attrs)

	require.Equal(t, len(buf), pos)
}

func TestDecodeRecord_Malformed(t *testing.T) {
	pos := 0
	_, err := DecodeRecord(nil, &pos)
	require.Error(t, err)

	pos = 0
	_, err = DecodeRecord([]byte{0x7F}, &pos)
	require.Error(t, err, "unknown record type")

	// Snapshot counts far beyond the buffer must fail, not allocate.
	buf := []byte{byte(format.RecordSnapshot), 0xFF, 0xFF, 0xFF, 0x7F, 0x00}
	pos = 0
	_, err = DecodeRecord(buf, &pos)
	require.Error(t, err)
}

func TestDecodeRecord_CountSumOverflow(t *testing.T) {
	// Two counts whose int sum wraps negative must still be rejected
	// before any allocation is attempted.
	buf := []byte{byte(format.RecordSnapshot)}
	buf = encoding.AppendUvarint(buf, 1<<62)
	buf = encoding.AppendUvarint(buf, 1<<62)

	pos := 0
	_, err := DecodeRecord(buf, &pos)
	require.Error(t, err)
}
