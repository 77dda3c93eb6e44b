package memo

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type table struct{ id int }

func TestMap_GetOrLoad(t *testing.T) {
	t.Run("LoadsOnce", func(t *testing.T) {
		var m Map[int, *table]
		var calls atomic.Int32
		load := func(k int) (*table, error) {
			calls.Add(1)
			return &table{id: k}, nil
		}

		first, err := m.GetOrLoad(3, load)
		require.NoError(t, err)
		second, err := m.GetOrLoad(3, load)
		require.NoError(t, err)

		require.Same(t, first, second)
		require.Equal(t, int32(1), calls.Load())
		require.Equal(t, 1, m.Len())
	})

	t.Run("ErrorsAreNotRetained", func(t *testing.T) {
		var m Map[int, *table]
		boom := errors.New("boom")

		_, err := m.GetOrLoad(1, func(int) (*table, error) { return nil, boom })
		require.ErrorIs(t, err, boom)

		_, ok := m.Get(1)
		require.False(t, ok)

		got, err := m.GetOrLoad(1, func(k int) (*table, error) { return &table{id: k}, nil })
		require.NoError(t, err)
		require.Equal(t, 1, got.id)
	})

	t.Run("ConcurrentMissesRetainOneValue", func(t *testing.T) {
		var m Map[int, *table]
		var calls atomic.Int32
		start := make(chan struct{})

		const workers = 16
		results := make([]*table, workers)

		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				v, err := m.GetOrLoad(7, func(k int) (*table, error) {
					calls.Add(1)
					return &table{id: k}, nil
				})
				require.NoError(t, err)
				results[i] = v
			}()
		}
		close(start)
		wg.Wait()

		retained, ok := m.Get(7)
		require.True(t, ok)
		for _, r := range results {
			require.Same(t, retained, r)
		}
		require.GreaterOrEqual(t, calls.Load(), int32(1))
	})
}

func TestValue_GetOrLoad(t *testing.T) {
	var v Value[*table]
	require.False(t, v.Loaded())

	_, err := v.GetOrLoad(func() (*table, error) { return nil, errors.New("offline") })
	require.Error(t, err)
	require.False(t, v.Loaded())

	first, err := v.GetOrLoad(func() (*table, error) { return &table{id: 1}, nil })
	require.NoError(t, err)
	second, err := v.GetOrLoad(func() (*table, error) { return &table{id: 2}, nil })
	require.NoError(t, err)

	require.Same(t, first, second)
	require.True(t, v.Loaded())
}
