package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexString(t *testing.T) {
	require.Equal(t, "Music", IndexMusic.String())
	require.Equal(t, "ReferenceTables", IndexReferenceTables.String())
	require.Equal(t, "Index12", Index(12).String())
	require.True(t, IndexReferenceTables.IsReferenceTables())
	require.False(t, Index(0).IsReferenceTables())
}

func TestCompressionType(t *testing.T) {
	for _, c := range []CompressionType{CompressionNone, CompressionBzip2, CompressionGzip, CompressionLZMA} {
		require.True(t, c.IsContainerType(), c.String())
	}
	for _, c := range []CompressionType{CompressionZstd, CompressionS2, CompressionLZ4} {
		require.False(t, c.IsContainerType(), c.String())
	}
	require.Equal(t, "Unknown", CompressionType(0x7F).String())
}

func TestFileKindString(t *testing.T) {
	require.Equal(t, "Entry", KindEntry.String())
	require.Equal(t, "Unknown", FileKind(0).String())
}
