package encoding

// MaxVarintLen is the maximum encoded size of a uint64 varint in bytes.
//
// Each varint byte carries 7 payload bits, so a full 64-bit value needs
// ceil(64/7) = 10 bytes.
const MaxVarintLen = 10

// PutUvarint encodes v into dst using base-128 little-endian continuation
// encoding and returns the number of bytes written.
//
// The low 7 bits of each byte carry payload, the high bit marks that more
// bytes follow. The least significant group is written first.
//
// The caller must guarantee that dst has at least UvarintLen(v) bytes of
// space; PutUvarint performs no bounds checking of its own. This mirrors
// the capacity contract of the trace chunk it serves: capacity is checked
// conservatively up front, not per write.
func PutUvarint(dst []byte, v uint64) int {
	n := 0
	for v >= 0x80 {
		dst[n] = byte(v) | 0x80
		v >>= 7
		n++
	}
	dst[n] = byte(v)

	return n + 1
}

// AppendUvarint appends the varint encoding of v to dst and returns the
// extended slice.
func AppendUvarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}

	return append(dst, byte(v))
}

// Uvarint decodes a varint from buf starting at *pos and advances *pos by
// the number of bytes consumed.
//
// Decoding is tolerant rather than strict: a truncated buffer yields the
// bits read so far and leaves *pos at len(buf). Buffered trace data is
// produced by this package and decoded from the same process, so malformed
// input indicates a caller bug, not a recoverable condition.
func Uvarint(buf []byte, pos *int) uint64 {
	var v uint64
	var shift uint

	for *pos < len(buf) {
		b := buf[*pos]
		*pos++
		v |= uint64(b&0x7F) << shift
		if b < 0x80 {
			break
		}
		shift += 7
	}

	return v
}

// UvarintLen returns the encoded size of v in bytes.
func UvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}

	return n
}

// zigzag converts a signed integer to its zigzag-encoded unsigned form so
// that small negative values stay small on the wire: 0, -1, 1, -2 map to
// 0, 1, 2, 3.
func zigzag(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63) //nolint:gosec
}

// unzigzag is the inverse of zigzag.
func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1) //nolint:gosec
}
