package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushReportsWasEmpty(t *testing.T) {
	q := New[int](false)
	require.True(t, q.Push(1))
	require.False(t, q.Push(2))
	require.False(t, q.Push(3))
	require.Equal(t, 3, q.Len())
}

func TestPollFIFOOrder(t *testing.T) {
	q := New[string](false)
	q.Push("a")
	q.Push("b")
	q.Push("c")

	v, ok := q.Poll()
	require.True(t, ok)
	require.Equal(t, "a", v)

	v, ok = q.Poll()
	require.True(t, ok)
	require.Equal(t, "b", v)

	v, ok = q.Poll()
	require.True(t, ok)
	require.Equal(t, "c", v)

	_, ok = q.Poll()
	require.False(t, ok)
	require.Equal(t, 0, q.Len())
}

func TestPushAfterDrainReportsWasEmptyAgain(t *testing.T) {
	q := New[int](false)
	q.Push(1)
	q.Poll()
	require.True(t, q.Push(2))
}

func TestConcurrentThreadSafeMode(t *testing.T) {
	q := New[int](true)
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			q.Push(v)
		}(i)
	}
	wg.Wait()
	require.Equal(t, 200, q.Len())
	count := 0
	for {
		if _, ok := q.Poll(); !ok {
			break
		}
		count++
	}
	require.Equal(t, 200, count)
}
