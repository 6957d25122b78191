package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type move struct {
	Turn  int
	Piece string
}

func TestQueue_New(t *testing.T) {
	q := New[move]()
	require.NotNil(t, q)
	assert.True(t, q.Empty())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_PushPop(t *testing.T) {
	q := New[move]()

	_, ok := q.Pop()
	assert.False(t, ok)

	q.Push(move{Turn: 1, Piece: "A"})
	q.Push(move{Turn: 2, Piece: "B"}, move{Turn: 3, Piece: "C"})
	assert.Equal(t, 3, q.Len())

	got, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, move{Turn: 1, Piece: "A"}, got)
	assert.Equal(t, 2, q.Len())
}

func TestQueue_GetAndEmpty(t *testing.T) {
	q := New[move]()
	q.Push(move{Turn: 1}, move{Turn: 2})

	items := q.GetAndEmpty()
	assert.Len(t, items, 2)
	assert.True(t, q.Empty())

	// the drained slice is not shared with later pushes
	q.Push(move{Turn: 3})
	assert.Equal(t, 1, items[0].Turn)
	assert.Equal(t, 2, items[1].Turn)
}

func TestQueue_Requeue(t *testing.T) {
	q := New[move]()
	q.Push(move{Turn: 1}, move{Turn: 2})
	taken := q.GetAndEmpty()
	q.Push(move{Turn: 3})

	q.Requeue(taken...)
	q.Requeue()

	items := q.GetAndEmpty()
	require.Len(t, items, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{items[0].Turn, items[1].Turn, items[2].Turn})
}

func TestQueue_ConcurrentPush(t *testing.T) {
	q := New[move]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			q.Push(move{Turn: n})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, q.Len())
}
