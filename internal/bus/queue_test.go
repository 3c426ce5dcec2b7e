package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue[int](4)
	for i := 1; i <= 3; i++ {
		require.NoError(t, q.TryEnqueue(i))
	}
	assert.Equal(t, 3, q.Len())

	for i := 1; i <= 3; i++ {
		got, ok, err := q.TryDequeue()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, i, got)
	}
}

func TestQueueEmptyDequeueIsNotAnError(t *testing.T) {
	q := NewQueue[string](2)
	got, ok, err := q.TryDequeue()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestQueueFullEnqueueFails(t *testing.T) {
	q := NewQueue[int](2)
	require.NoError(t, q.TryEnqueue(1))
	require.NoError(t, q.TryEnqueue(2))

	err := q.TryEnqueue(3)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 2, q.Len(), "failed enqueue must not consume capacity")
}

func TestQueueCloseDrainsThenErrors(t *testing.T) {
	q := NewQueue[int](2)
	require.NoError(t, q.TryEnqueue(7))
	q.Close()

	assert.ErrorIs(t, q.TryEnqueue(8), ErrQueueClosed)

	got, ok, err := q.TryDequeue()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, got)

	_, _, err = q.TryDequeue()
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueueMinimumCapacity(t *testing.T) {
	q := NewQueue[int](0)
	require.NoError(t, q.TryEnqueue(1))
	assert.ErrorIs(t, q.TryEnqueue(2), ErrQueueFull)
}
