package hash

import "github.com/cespare/xxhash/v2"

// Sum64 computes the xxHash64 checksum of data. The stream container uses
// it to detect frame corruption before decoding.
func Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}
