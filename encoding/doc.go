// Package encoding provides the low-level codecs for tracelens trace data.
//
// Two codecs live here:
//
//   - Varint: unsigned integers in base-128 little-endian continuation
//     encoding. All identifiers and counts in the snapshot record format
//     use this encoding.
//   - Variant: a self-describing typed scalar (one tag byte plus a
//     type-specific payload). Attribute values use this encoding.
//
// Both codecs follow the same capacity contract as the trace chunk that
// consumes them: encode calls write into caller-provided space without
// bounds checking, and decode calls advance an explicit cursor and absorb
// truncated input instead of returning errors. Capacity is the caller's
// responsibility, checked conservatively before encoding begins.
//
// Most users never touch this package directly; the trace and sink
// packages drive it. Use it directly only when implementing a custom
// record sink or inspecting raw buffered data.
package encoding
