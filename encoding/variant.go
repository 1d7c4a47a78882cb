package encoding

import (
	"math"
	"strconv"

	"github.com/tracelens/tracelens/endian"
)

// Type identifies the scalar kind held by a Variant. The numeric values are
// part of the packed wire format and must not be reordered.
type Type uint8

const (
	TypeNone  Type = iota // empty value, no payload
	TypeBool              // 1-byte payload, 0 or 1
	TypeInt               // zigzag varint payload
	TypeUint              // varint payload
	TypeFloat             // 8-byte little-endian IEEE 754 payload
	TypeType              // 1-byte payload holding a Type value
	TypeStr               // varint length prefix + raw bytes
)

const (
	// MaxInlineStr is the longest string payload a chunk-resident packed
	// value may carry. The trace chunk writer truncates immediate string
	// values at this length so that MaxPackedLen stays a hard bound for
	// its capacity estimate. Values packed outside chunks (node records in
	// the output stream) are not subject to this cap.
	MaxInlineStr = 20

	// MaxPackedLen is the worst-case packed size of a chunk-resident
	// value: 1 tag byte + 1 length byte + MaxInlineStr payload bytes.
	// Numeric payloads are smaller (tag + up to 10 varint bytes).
	MaxPackedLen = 22
)

var packEngine = endian.GetLittleEndianEngine()

// Variant is a self-describing typed scalar value. It is the unit of
// attribute data throughout the library: immediate snapshot entries, tree
// node payloads and stream records all carry Variants.
//
// The zero Variant has TypeNone and packs to a single tag byte.
type Variant struct {
	typ Type
	num uint64
	str string
}

func Bool(v bool) Variant {
	var num uint64
	if v {
		num = 1
	}

	return Variant{typ: TypeBool, num: num}
}

func Int(v int64) Variant {
	return Variant{typ: TypeInt, num: uint64(v)} //nolint:gosec
}

func Uint(v uint64) Variant {
	return Variant{typ: TypeUint, num: v}
}

func Float(v float64) Variant {
	return Variant{typ: TypeFloat, num: math.Float64bits(v)}
}

func TypeValue(t Type) Variant {
	return Variant{typ: TypeType, num: uint64(t)}
}

func Str(s string) Variant {
	return Variant{typ: TypeStr, str: s}
}

// Type returns the scalar kind of the value.
func (v Variant) Type() Type { return v.typ }

// IsEmpty reports whether the value is the empty TypeNone variant.
func (v Variant) IsEmpty() bool { return v.typ == TypeNone }

func (v Variant) Bool() bool { return v.num != 0 }

func (v Variant) Int() int64 { return int64(v.num) } //nolint:gosec

func (v Variant) Uint() uint64 { return v.num }

func (v Variant) Float() float64 { return math.Float64frombits(v.num) }

func (v Variant) TypeVal() Type { return Type(v.num) }

func (v Variant) Str() string { return v.str }

// PackedLen returns the exact number of bytes Pack will write for v.
func (v Variant) PackedLen() int {
	switch v.typ {
	case TypeNone:
		return 1
	case TypeBool, TypeType:
		return 2
	case TypeInt:
		return 1 + UvarintLen(zigzag(v.Int()))
	case TypeUint:
		return 1 + UvarintLen(v.num)
	case TypeFloat:
		return 1 + 8
	case TypeStr:
		return 1 + UvarintLen(uint64(len(v.str))) + len(v.str)
	default:
		return 1
	}
}

// Pack writes the self-describing encoding of v into dst and returns the
// number of bytes written: one tag byte followed by the type-specific
// payload. The caller must guarantee PackedLen bytes of space; like
// PutUvarint, Pack performs no bounds checking.
func (v Variant) Pack(dst []byte) int {
	dst[0] = byte(v.typ)
	p := 1

	switch v.typ {
	case TypeBool, TypeType:
		dst[p] = byte(v.num)
		p++
	case TypeInt:
		p += PutUvarint(dst[p:], zigzag(v.Int()))
	case TypeUint:
		p += PutUvarint(dst[p:], v.num)
	case TypeFloat:
		packEngine.PutUint64(dst[p:], v.num)
		p += 8
	case TypeStr:
		p += PutUvarint(dst[p:], uint64(len(v.str)))
		p += copy(dst[p:], v.str)
	}

	return p
}

// AppendPack appends the packed encoding of v to dst and returns the
// extended slice. Unlike Pack it manages capacity itself, which suits
// growable destinations such as stream frame buffers.
func (v Variant) AppendPack(dst []byte) []byte {
	off := len(dst)
	n := v.PackedLen()
	if cap(dst)-off < n {
		dst = append(dst, make([]byte, n)...)
	} else {
		dst = dst[:off+n]
	}
	v.Pack(dst[off:])

	return dst
}

// Unpack decodes a packed value from buf starting at *pos and advances
// *pos past it. No external type hint is needed: the tag byte selects the
// payload decoding.
//
// Like Uvarint, Unpack is tolerant of truncated input and yields the empty
// variant rather than an error when buf ends mid-value.
func Unpack(buf []byte, pos *int) Variant {
	if *pos >= len(buf) {
		return Variant{}
	}

	typ := Type(buf[*pos])
	*pos++

	switch typ {
	case TypeBool, TypeType:
		if *pos >= len(buf) {
			return Variant{}
		}
		num := uint64(buf[*pos])
		*pos++

		return Variant{typ: typ, num: num}
	case TypeInt:
		return Int(unzigzag(Uvarint(buf, pos)))
	case TypeUint:
		return Uint(Uvarint(buf, pos))
	case TypeFloat:
		if *pos+8 > len(buf) {
			*pos = len(buf)
			return Variant{}
		}
		num := packEngine.Uint64(buf[*pos:])
		*pos += 8

		return Variant{typ: TypeFloat, num: num}
	case TypeStr:
		n := int(Uvarint(buf, pos)) //nolint:gosec
		if n < 0 || *pos+n > len(buf) {
			*pos = len(buf)
			return Variant{}
		}
		s := string(buf[*pos : *pos+n])
		*pos += n

		return Str(s)
	default:
		return Variant{}
	}
}

// String renders the value for human-readable output such as the text log.
func (v Variant) String() string {
	switch v.typ {
	case TypeBool:
		return strconv.FormatBool(v.Bool())
	case TypeInt:
		return strconv.FormatInt(v.Int(), 10)
	case TypeUint:
		return strconv.FormatUint(v.num, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case TypeType:
		return v.TypeVal().String()
	case TypeStr:
		return v.str
	default:
		return ""
	}
}

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeUint:
		return "uint"
	case TypeFloat:
		return "float"
	case TypeType:
		return "type"
	case TypeStr:
		return "str"
	default:
		return "unknown"
	}
}
