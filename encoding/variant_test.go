package encoding

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v Variant) Variant {
	t.Helper()

	buf := make([]byte, v.PackedLen())
	n := v.Pack(buf)
	require.Equal(t, v.PackedLen(), n)

	pos := 0
	got := Unpack(buf, &pos)
	require.Equal(t, n, pos, "cursor after unpack")

	return got
}

func TestVariant_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Variant
	}{
		{"none", Variant{}},
		{"bool_true", Bool(true)},
		{"bool_false", Bool(false)},
		{"int_zero", Int(0)},
		{"int_positive", Int(42)},
		{"int_negative", Int(-1234567)},
		{"int_min", Int(math.MinInt64)},
		{"int_max", Int(math.MaxInt64)},
		{"uint_zero", Uint(0)},
		{"uint_max", Uint(math.MaxUint64)},
		{"float", Float(3.14159265358979)},
		{"float_neg_inf", Float(math.Inf(-1))},
		{"type", TypeValue(TypeFloat)},
		{"str_empty", Str("")},
		{"str_short", Str("cpu.usage")},
		{"str_long", Str(strings.Repeat("x", 300))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.v, roundTrip(t, tt.v))
		})
	}
}

func TestVariant_FloatNaN(t *testing.T) {
	got := roundTrip(t, Float(math.NaN()))
	require.Equal(t, TypeFloat, got.Type())
	require.True(t, math.IsNaN(got.Float()))
}

func TestVariant_AppendPack(t *testing.T) {
	var buf []byte
	vals := []Variant{Int(-5), Uint(999), Str("hello"), Bool(true), Float(1.5)}
	for _, v := range vals {
		buf = v.AppendPack(buf)
	}

	pos := 0
	for _, want := range vals {
		require.Equal(t, want, Unpack(buf, &pos))
	}
	require.Equal(t, len(buf), pos)
}

func TestVariant_PackedSizeBounds(t *testing.T) {
	// Every scalar kind and every inline-capped string must fit the
	// worst-case packed size the chunk capacity estimate assumes.
	vals := []Variant{
		Variant{},
		Bool(true),
		Int(math.MinInt64),
		Uint(math.MaxUint64),
		Float(math.MaxFloat64),
		TypeValue(TypeStr),
		Str(strings.Repeat("y", MaxInlineStr)),
	}
	for _, v := range vals {
		require.LessOrEqual(t, v.PackedLen(), MaxPackedLen, "type %s", v.Type())
	}
}

func TestVariant_Accessors(t *testing.T) {
	require.True(t, Variant{}.IsEmpty())
	require.False(t, Int(0).IsEmpty())

	require.Equal(t, int64(-7), Int(-7).Int())
	require.Equal(t, uint64(7), Uint(7).Uint())
	require.Equal(t, 2.5, Float(2.5).Float())
	require.True(t, Bool(true).Bool())
	require.Equal(t, TypeInt, TypeValue(TypeInt).TypeVal())
	require.Equal(t, "abc", Str("abc").Str())
}

func TestVariant_String(t *testing.T) {
	require.Equal(t, "42", Int(42).String())
	require.Equal(t, "-1", Int(-1).String())
	require.Equal(t, "true", Bool(true).String())
	require.Equal(t, "1.5", Float(1.5).String())
	require.Equal(t, "hello", Str("hello").String())
	require.Equal(t, "float", TypeValue(TypeFloat).String())
	require.Equal(t, "", Variant{}.String())
}

func TestVariant_UnpackTruncated(t *testing.T) {
	v := Str("hello world")
	buf := make([]byte, v.PackedLen())
	v.Pack(buf)

	// Cut the payload short; Unpack must absorb it and drain the cursor.
	pos := 0
	got := Unpack(buf[:4], &pos)
	require.True(t, got.IsEmpty())
	require.Equal(t, 4, pos)

	pos = 0
	got = Unpack(nil, &pos)
	require.True(t, got.IsEmpty())
}
