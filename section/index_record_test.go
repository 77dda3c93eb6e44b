package section

import (
	"testing"

	"github.com/arloliu/runetek/errs"
	"github.com/stretchr/testify/require"
)

func TestIndexRecord_Bytes(t *testing.T) {
	record := IndexRecord{Size: 0x010203, Sector: 0x0A0B0C}

	data := record.Bytes()
	require.Len(t, data, IndexRecordSize)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x0A, 0x0B, 0x0C}, data)
}

func TestParseIndexRecord(t *testing.T) {
	t.Run("Valid record", func(t *testing.T) {
		original := IndexRecord{Size: 1300, Sector: 42}

		parsed, err := ParseIndexRecord(original.Bytes())
		require.NoError(t, err)
		require.Equal(t, original, parsed)
		require.True(t, parsed.Exists())
	})

	t.Run("Trailing bytes ignored", func(t *testing.T) {
		data := append(IndexRecord{Size: 7, Sector: 3}.Bytes(), 0xFF, 0xFF)

		parsed, err := ParseIndexRecord(data)
		require.NoError(t, err)
		require.Equal(t, uint32(7), parsed.Size)
		require.Equal(t, uint32(3), parsed.Sector)
	})

	t.Run("Invalid size", func(t *testing.T) {
		_, err := ParseIndexRecord([]byte{1, 2, 3})
		require.ErrorIs(t, err, errs.ErrInvalidIndexRecordSize)
		require.ErrorIs(t, err, errs.ErrCorrupt)
	})

	t.Run("Reserved sector means absent", func(t *testing.T) {
		parsed, err := ParseIndexRecord(make([]byte, IndexRecordSize))
		require.NoError(t, err)
		require.False(t, parsed.Exists())
	})
}
