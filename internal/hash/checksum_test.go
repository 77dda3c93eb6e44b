package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		sum  uint64
	}{
		{"empty", nil, 0xef46db3751d8e999},
		{"short", []byte("test"), 0x4fdcca5ddb678139},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.sum, Checksum(tt.data))
		})
	}
}

func TestChecksumDetectsChange(t *testing.T) {
	require.NotEqual(t, Checksum([]byte("main_file_cache")), Checksum([]byte("main_file_cachf")))
}
