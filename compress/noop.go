package compress

// NoOpCompressor bypasses data without compression.
//
// This is the default stream codec: trace records are already compact
// (varint ids, packed scalars), so compression is opt-in for cold storage
// or bandwidth-limited targets.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a new no-operation compressor that bypasses data.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns the input slice as-is, without any processing or
// copying. The returned slice shares the same underlying memory as the
// input.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input slice as-is, without any processing or
// copying. The returned slice shares the same underlying memory as the
// input.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
