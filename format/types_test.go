package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCompression(t *testing.T) {
	tests := []struct {
		name string
		want CompressionType
	}{
		{"", CompressionNone},
		{"none", CompressionNone},
		{"zstd", CompressionZstd},
		{"s2", CompressionS2},
		{"lz4", CompressionLZ4},
	}

	for _, tt := range tests {
		got, err := ParseCompression(tt.name)
		require.NoError(t, err, "name %q", tt.name)
		require.Equal(t, tt.want, got)
		if tt.name != "" {
			require.Equal(t, tt.name, got.String())
		}
	}

	_, err := ParseCompression("gzip")
	require.Error(t, err)
}

func TestTypeStrings(t *testing.T) {
	require.Equal(t, "snapshot", RecordSnapshot.String())
	require.Equal(t, "node", RecordNode.String())
	require.Equal(t, "unknown", RecordType(0x7F).String())
	require.Equal(t, "unknown", CompressionType(0x7F).String())
}
