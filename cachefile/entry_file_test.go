package cachefile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/runetek/errs"
	"github.com/arloliu/runetek/format"
)

func infoWithEntries(n int) *Info {
	info := NewInfo(2, 17)
	info.Entries = make([]EntryInfo, n)
	for i := range info.Entries {
		info.Entries[i] = EntryInfo{ID: i, Identifier: int32(1000 + i)} //nolint: gosec
	}

	return info
}

func deltaTable(deltas ...int32) []byte {
	var b []byte
	for _, d := range deltas {
		b = binary.BigEndian.AppendUint32(b, uint32(d)) //nolint: gosec
	}

	return b
}

func TestEntryFile_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		entries [][]byte
	}{
		{"Single entry", [][]byte{[]byte("only")}},
		{"Growing sizes", [][]byte{[]byte("a"), []byte("bb"), []byte("ccc"), []byte("dddd")}},
		{"Shrinking sizes", [][]byte{bytes.Repeat([]byte{7}, 300), []byte("xy"), {9}}},
		{"Large entries", [][]byte{bytes.Repeat([]byte("ab"), 40000), bytes.Repeat([]byte("c"), 70000)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewEntryFile(NewInfo(2, 17))
			for id, data := range tt.entries {
				require.NoError(t, src.AddEntry(id, data))
			}
			require.Equal(t, len(tt.entries), src.Capacity())

			encoded, err := src.Encode()
			require.NoError(t, err)
			require.Equal(t, byte(1), encoded[len(encoded)-1])

			dst := &EntryFile{}
			require.NoError(t, dst.Decode(encoded, infoWithEntries(len(tt.entries))))

			require.Equal(t, src.EntryIDs(), dst.EntryIDs())
			for id, data := range tt.entries {
				entry, err := dst.Entry(id)
				require.NoError(t, err)
				require.Equal(t, data, entry.Data)
				require.Equal(t, id, entry.Info().EntryID)
				require.Equal(t, format.Index(2), entry.Info().Index)
				require.Equal(t, 17, entry.Info().FileID)
				require.Equal(t, int32(1000+id), entry.Info().Identifier) //nolint: gosec
			}
		})
	}
}

func TestEntryFile_Capacity(t *testing.T) {
	t.Run("Empty file", func(t *testing.T) {
		f := NewEntryFile(nil)
		require.Zero(t, f.Capacity())
		require.True(t, f.Empty())
		require.NoError(t, f.SetCapacity(0))
		require.NoError(t, f.SetCapacity(5))
		require.Equal(t, 5, f.Capacity())
		require.ErrorIs(t, f.SetCapacity(-1), errs.ErrCapacityTooLow)
	})

	t.Run("Bounded by highest id", func(t *testing.T) {
		f := NewEntryFile(nil)
		require.NoError(t, f.AddEntry(0, []byte("a")))
		require.NoError(t, f.AddEntry(4, []byte("e")))
		require.Equal(t, 5, f.Capacity())

		for _, n := range []int{0, 3, 4} {
			err := f.SetCapacity(n)
			require.ErrorIs(t, err, errs.ErrCapacityTooLow, "capacity %d", n)
			require.ErrorIs(t, err, errs.ErrContractViolation)
			require.Equal(t, 5, f.Capacity())
		}

		require.NoError(t, f.SetCapacity(5))
		require.NoError(t, f.SetCapacity(9))
		require.Equal(t, 9, f.Capacity())
	})

	t.Run("Adding below capacity keeps it", func(t *testing.T) {
		f := NewEntryFile(nil)
		require.NoError(t, f.SetCapacity(10))
		require.NoError(t, f.AddEntry(3, []byte("x")))
		require.Equal(t, 10, f.Capacity())
	})

	t.Run("Encode honours raised capacity", func(t *testing.T) {
		f := NewEntryFile(nil)
		require.NoError(t, f.AddEntry(0, []byte("abc")))
		require.NoError(t, f.SetCapacity(3))

		encoded, err := f.Encode()
		require.NoError(t, err)

		want := append([]byte("abc\x00\x00"), deltaTable(3, -2, 0)...)
		want = append(want, 1)
		require.Equal(t, want, encoded)
	})
}

func TestEntryFile_EmptySlot(t *testing.T) {
	f := NewEntryFile(NewInfo(1, 1))
	require.NoError(t, f.AddEntry(0, []byte("first")))
	require.NoError(t, f.AddEntry(2, []byte{0}))

	require.Equal(t, 3, f.Capacity())
	require.Equal(t, []int{0}, f.EntryIDs())
	require.Equal(t, 1, f.Len())

	_, err := f.Entry(2)
	require.ErrorIs(t, err, errs.ErrEntryNotFound)

	encoded, err := f.Encode()
	require.NoError(t, err)

	want := []byte("first\x00\x00")
	want = append(want, deltaTable(5, -4, 0)...)
	want = append(want, 1)
	require.Equal(t, want, encoded)

	decoded := &EntryFile{}
	require.NoError(t, decoded.Decode(encoded, infoWithEntries(3)))
	require.Equal(t, []int{0}, decoded.EntryIDs())
	require.Equal(t, 3, decoded.Capacity())

	_, err = decoded.Entry(1)
	require.ErrorIs(t, err, errs.ErrEntryNotFound)
	_, err = decoded.Entry(2)
	require.ErrorIs(t, err, errs.ErrEntryNotFound)

	t.Run("Only empty slots", func(t *testing.T) {
		f := NewEntryFile(nil)
		require.NoError(t, f.AddEntry(1, []byte{0}))
		require.True(t, f.Empty())
		require.Equal(t, 2, f.Capacity())
	})

	t.Run("Zero-length payload is stored", func(t *testing.T) {
		f := NewEntryFile(nil)
		require.NoError(t, f.AddEntry(0, []byte{}))
		require.False(t, f.Empty())
	})
}

func TestEntryFile_AddEntryErrors(t *testing.T) {
	f := NewEntryFile(nil)
	require.NoError(t, f.AddEntry(1, []byte("a")))

	require.ErrorIs(t, f.AddEntry(1, []byte("b")), errs.ErrDuplicateEntry)
	require.ErrorIs(t, f.AddEntry(-1, []byte("b")), errs.ErrInvalidEntryID)

	entry, err := f.Entry(1)
	require.NoError(t, err)
	require.Equal(t, []byte("a"), entry.Data)
}

func TestEntryFile_AddFile(t *testing.T) {
	table := NewReferenceTable(3)
	table.SetFileInfo(0, &Info{CRC: 1})

	f := NewEntryFile(NewInfo(5, 6))
	require.NoError(t, f.AddFile(0, table))

	entry, err := f.Entry(0)
	require.NoError(t, err)
	require.Equal(t, format.Index(5), entry.Info().Index)
	require.Equal(t, 6, entry.Info().FileID)
	require.Equal(t, 0, entry.Info().EntryID)

	decoded, err := Decode(format.KindReferenceTable, entry)
	require.NoError(t, err)
	require.Equal(t, []int{0}, decoded.(*ReferenceTable).FileIDs())
}

func TestEntryFile_DecodeMultiChunk(t *testing.T) {
	// entry 0 = "ab" + "c", entry 1 = "XYZ" + "W"
	var data []byte
	data = append(data, "abXYZ"...)
	data = append(data, "cW"...)
	data = append(data, deltaTable(2, 1)...)
	data = append(data, deltaTable(1, 0)...)
	data = append(data, 2)

	f := &EntryFile{}
	require.NoError(t, f.Decode(data, infoWithEntries(2)))

	e0, err := f.Entry(0)
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), e0.Data)

	e1, err := f.Entry(1)
	require.NoError(t, err)
	require.Equal(t, []byte("XYZW"), e1.Data)

	t.Run("Decoded entries do not alias each other", func(t *testing.T) {
		e0.Data[0] = 'z'
		require.Equal(t, []byte("XYZW"), e1.Data)
	})
}

func TestEntryFile_DecodeErrors(t *testing.T) {
	valid := append([]byte("abc"), deltaTable(3)...)
	valid = append(valid, 1)

	tests := []struct {
		name string
		data []byte
		info *Info
		want error
	}{
		{"Missing info", valid, nil, errs.ErrMissingFileInfo},
		{"Empty buffer", nil, infoWithEntries(1), errs.ErrTruncated},
		{"Zero chunks", []byte{1, 2, 3, 0}, infoWithEntries(1), errs.ErrNoChunks},
		{"Size table overruns buffer", valid, infoWithEntries(2), errs.ErrTruncated},
		{
			"Entry longer than data",
			append(append([]byte("ab"), deltaTable(3)...), 1),
			infoWithEntries(1),
			errs.ErrTruncated,
		},
		{
			"Negative running size",
			append(append([]byte("ab"), deltaTable(2, -3)...), 1),
			infoWithEntries(2),
			errs.ErrInvalidEntrySize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewEntryFile(nil)
			require.NoError(t, f.AddEntry(0, []byte("kept")))

			err := f.Decode(tt.data, tt.info)
			require.ErrorIs(t, err, tt.want)

			// A failed decode leaves the previous contents untouched.
			require.Equal(t, []int{0}, f.EntryIDs())
		})
	}
}

func TestEntryFile_Entries(t *testing.T) {
	f := NewEntryFile(nil)
	for _, id := range []int{5, 1, 3} {
		require.NoError(t, f.AddEntry(id, []byte(fmt.Sprint(id))))
	}

	var got []string
	for _, e := range f.Entries() {
		got = append(got, string(e.Data))
	}
	require.Equal(t, []string{"1", "3", "5"}, got)
	require.Equal(t, []int{1, 3, 5}, f.EntryIDs())
}

func TestEntryFile_EntryByTableID(t *testing.T) {
	info := NewInfo(2, 17)
	info.Entries = []EntryInfo{{ID: 2, Identifier: 20}, {ID: 4, Identifier: 40}}

	data := []byte("twofour")
	data = append(data, deltaTable(3, 1)...)
	data = append(data, 1)

	f := NewEntryFile(nil)
	require.NoError(t, f.Decode(data, info))
	require.Equal(t, []int{0, 1}, f.EntryIDs())

	entry, err := f.EntryByTableID(4)
	require.NoError(t, err)
	require.Equal(t, "four", string(entry.Data))
	require.Equal(t, int32(40), entry.Info().Identifier)

	entry, err = f.EntryByTableID(2)
	require.NoError(t, err)
	require.Equal(t, "two", string(entry.Data))

	_, err = f.EntryByTableID(0)
	require.ErrorIs(t, err, errs.ErrEntryNotFound)
	_, err = NewEntryFile(nil).EntryByTableID(2)
	require.ErrorIs(t, err, errs.ErrEntryNotFound)
}
