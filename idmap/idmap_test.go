package idmap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddGetRemove(t *testing.T) {
	m := New[string](false)
	require.True(t, m.Add(5, "five"))
	require.True(t, m.Add(-3, "neg-three"))
	require.False(t, m.Add(5, "dup"))

	v, ok := m.Get(5, false)
	require.True(t, ok)
	require.Equal(t, "five", v)
	require.Equal(t, 2, m.Len())

	v, ok = m.Get(5, true)
	require.True(t, ok)
	require.Equal(t, "five", v)
	require.Equal(t, 1, m.Len())

	_, ok = m.Get(5, false)
	require.False(t, ok)
}

func TestIterateOrdersByKeyAscending(t *testing.T) {
	m := New[int](false)
	for _, id := range []int64{10, -5, 3, 0, -100, 42} {
		m.Add(id, int(id))
	}
	var seen []int64
	m.Iterate(func(id int64, v int) {
		seen = append(seen, id)
	})
	require.Equal(t, []int64{-100, -5, 0, 3, 10, 42}, seen)
}

func TestIterateSurvivesCallbackRemovingCurrentEntry(t *testing.T) {
	m := New[int](false)
	for _, id := range []int64{1, 2, 3, 4} {
		m.Add(id, int(id))
	}
	var seen []int64
	m.Iterate(func(id int64, v int) {
		seen = append(seen, id)
		m.Remove(id)
	})
	require.Equal(t, []int64{1, 2, 3, 4}, seen)
	require.Equal(t, 0, m.Len())
}

func TestIterateSkipsEntryRemovedByCallbackBeforeItsTurn(t *testing.T) {
	m := New[int](false)
	for _, id := range []int64{1, 2, 3} {
		m.Add(id, int(id))
	}
	var seen []int64
	m.Iterate(func(id int64, v int) {
		seen = append(seen, id)
		if id == 1 {
			m.Remove(2)
		}
	})
	require.Equal(t, []int64{1, 3}, seen)
}

func TestConcurrentThreadSafeMode(t *testing.T) {
	m := New[int](true)
	var wg sync.WaitGroup
	for i := int64(0); i < 100; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.Add(id, int(id))
		}(i)
	}
	wg.Wait()
	require.Equal(t, 100, m.Len())
}
