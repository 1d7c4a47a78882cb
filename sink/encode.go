package sink

import (
	"fmt"

	"github.com/tracelens/tracelens/encoding"
	"github.com/tracelens/tracelens/format"
)

// Stream record layout, after the frame envelope is stripped:
//
//	snapshot: 0x01 varint(n_nodes) varint(n_immediate)
//	          [varint(node_id)]*n_nodes [varint(attr_id)]*n_immediate
//	          [packed_value]*n_immediate
//	node:     0x02 varint(id) varint(attr_id) packed_value varint(parent)
//
// The snapshot body is byte-identical to the in-chunk record format, with
// the record type tag prepended so node and snapshot records can share one
// stream.

// AppendRecord appends the stream encoding of rec to dst and returns the
// extended slice.
func AppendRecord(dst []byte, rec *Record) []byte {
	dst = append(dst, byte(rec.Type))

	switch rec.Type {
	case format.RecordNode:
		var id, attr uint64
		var val encoding.Variant
		if len(rec.Nodes) > 0 {
			id = rec.Nodes[0]
		}
		if len(rec.Attrs) > 0 {
			attr = rec.Attrs[0]
		}
		if len(rec.Vals) > 0 {
			val = rec.Vals[0]
		}
		dst = encoding.AppendUvarint(dst, id)
		dst = encoding.AppendUvarint(dst, attr)
		dst = val.AppendPack(dst)
		dst = encoding.AppendUvarint(dst, rec.Parent)
	default:
		dst = encoding.AppendUvarint(dst, uint64(len(rec.Nodes)))
		dst = encoding.AppendUvarint(dst, uint64(len(rec.Attrs)))
		for _, id := range rec.Nodes {
			dst = encoding.AppendUvarint(dst, id)
		}
		for _, id := range rec.Attrs {
			dst = encoding.AppendUvarint(dst, id)
		}
		for _, v := range rec.Vals {
			dst = v.AppendPack(dst)
		}
	}

	return dst
}

// DecodeRecord decodes one stream record from buf starting at *pos and
// advances *pos past it. The returned record owns freshly allocated
// slices.
//
// Frame checksums are verified before decoding, so malformed input here
// means a framing bug rather than corruption; counts are still validated
// against the remaining buffer to fail cleanly instead of over-allocating.
func DecodeRecord(buf []byte, pos *int) (*Record, error) {
	if *pos >= len(buf) {
		return nil, fmt.Errorf("record truncated at offset %d", *pos)
	}

	typ := format.RecordType(buf[*pos])
	*pos++

	switch typ {
	case format.RecordSnapshot:
		nNodes := int(encoding.Uvarint(buf, pos)) //nolint:gosec
		nImm := int(encoding.Uvarint(buf, pos))   //nolint:gosec

		// Every entry takes at least one byte, so each count is bounded by
		// the remaining buffer on its own. Checking them individually
		// before the sum keeps crafted near-MaxInt counts from wrapping
		// past the guard into a huge allocation.
		remaining := len(buf) - *pos
		if nNodes < 0 || nImm < 0 || nNodes > remaining || nImm > remaining || nNodes+nImm > remaining {
			return nil, fmt.Errorf("snapshot record counts out of range: %d nodes, %d immediates", nNodes, nImm)
		}

		rec := &Record{
			Type:  format.RecordSnapshot,
			Nodes: make([]uint64, nNodes),
			Attrs: make([]uint64, nImm),
			Vals:  make([]encoding.Variant, nImm),
		}
		for i := range rec.Nodes {
			rec.Nodes[i] = encoding.Uvarint(buf, pos)
		}
		for i := range rec.Attrs {
			rec.Attrs[i] = encoding.Uvarint(buf, pos)
		}
		for i := range rec.Vals {
			rec.Vals[i] = encoding.Unpack(buf, pos)
		}

		return rec, nil
	case format.RecordNode:
		rec := &Record{
			Type:  format.RecordNode,
			Nodes: []uint64{encoding.Uvarint(buf, pos)},
			Attrs: []uint64{encoding.Uvarint(buf, pos)},
		}
		rec.Vals = []encoding.Variant{encoding.Unpack(buf, pos)}
		rec.Parent = encoding.Uvarint(buf, pos)

		return rec, nil
	default:
		return nil, fmt.Errorf("unknown record type 0x%02x at offset %d", byte(typ), *pos-1)
	}
}
