package section

import (
	"bytes"
	"testing"

	"github.com/arloliu/runetek/errs"
	"github.com/stretchr/testify/require"
)

func TestSizes(t *testing.T) {
	require.Equal(t, 512, SectorDataSize)
	require.Equal(t, 510, ExtendedSectorDataSize)
	require.Equal(t, SectorDataSize, DataSizeFor(false))
	require.Equal(t, ExtendedSectorDataSize, DataSizeFor(true))
	require.False(t, IsExtended(MaxNormalFileID))
	require.True(t, IsExtended(MaxNormalFileID+1))
}

func TestSector_RoundTrip(t *testing.T) {
	t.Run("Normal header", func(t *testing.T) {
		payload := bytes.Repeat([]byte{0xAB}, SectorDataSize)
		original := Sector{
			SectorHeader: SectorHeader{FileID: 1234, Chunk: 2, NextSector: 0x010203, Index: 7},
			Data:         payload,
		}

		data, err := original.Bytes()
		require.NoError(t, err)
		require.Len(t, data, SectorSize)
		require.Equal(t, []byte{0x04, 0xD2, 0x00, 0x02, 0x01, 0x02, 0x03, 0x07}, data[:SectorHeaderSize])

		parsed, err := ParseSector(data, false)
		require.NoError(t, err)
		require.Equal(t, original.SectorHeader, parsed.SectorHeader)
		require.Equal(t, payload, parsed.Data)
		require.Equal(t, SectorHeaderSize, parsed.Size())
	})

	t.Run("Extended header", func(t *testing.T) {
		original := Sector{
			SectorHeader: SectorHeader{FileID: 70000, Chunk: 1, NextSector: 9, Index: 3, Extended: true},
			Data:         []byte{1, 2, 3},
		}

		data, err := original.Bytes()
		require.NoError(t, err)
		require.Len(t, data, SectorSize)

		parsed, err := ParseSector(data, true)
		require.NoError(t, err)
		require.Equal(t, original.SectorHeader, parsed.SectorHeader)
		require.Len(t, parsed.Data, ExtendedSectorDataSize)
		require.Equal(t, []byte{1, 2, 3}, parsed.Data[:3])
		require.Equal(t, ExtendedSectorHeaderSize, parsed.Size())
	})

	t.Run("Short final sector", func(t *testing.T) {
		full, err := Sector{SectorHeader: SectorHeader{FileID: 1, Index: 2}, Data: []byte{9, 9}}.Bytes()
		require.NoError(t, err)

		parsed, err := ParseSector(full[:SectorHeaderSize+2], false)
		require.NoError(t, err)
		require.Equal(t, []byte{9, 9}, parsed.Data)
	})
}

func TestSector_Errors(t *testing.T) {
	t.Run("Header too short", func(t *testing.T) {
		_, err := ParseSector(make([]byte, SectorHeaderSize-1), false)
		require.ErrorIs(t, err, errs.ErrInvalidSectorSize)

		_, err = ParseSector(make([]byte, SectorHeaderSize), true)
		require.ErrorIs(t, err, errs.ErrInvalidSectorSize)
	})

	t.Run("Oversized input", func(t *testing.T) {
		_, err := ParseSector(make([]byte, SectorSize+1), false)
		require.ErrorIs(t, err, errs.ErrInvalidSectorSize)
	})

	t.Run("Payload too large", func(t *testing.T) {
		_, err := Sector{SectorHeader: SectorHeader{Extended: true}, Data: make([]byte, SectorDataSize)}.Bytes()
		require.ErrorIs(t, err, errs.ErrInvalidSectorSize)
	})

	t.Run("File id too wide for normal header", func(t *testing.T) {
		_, err := Sector{SectorHeader: SectorHeader{FileID: MaxNormalFileID + 1}}.Bytes()
		require.ErrorIs(t, err, errs.ErrValueOutOfRange)
	})
}
