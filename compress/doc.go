// Package compress provides the frame compression codecs for the trace
// stream container.
//
// The stream writer batches encoded records into frames and runs each
// frame payload through a Codec before writing it out. Four codecs are
// built in: none (default), zstd, s2 and lz4. The codec in effect is
// recorded in the stream header so readers pick it up automatically.
//
// Compression here is strictly a sink-side concern: the in-memory chunk
// record format is never compressed beyond its varint encoding.
package compress
