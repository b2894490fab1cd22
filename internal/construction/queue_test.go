package construction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/vertex/internal/vec"
	"github.com/annel0/vertex/internal/world/material"
)

func TestQueue_Capacity(t *testing.T) {
	q := NewQueue(2, 1, time.Second)

	_, err := q.Enqueue(KindBuild, vec.Vec2{X: 1}, material.Wood)
	require.NoError(t, err)
	_, err = q.Enqueue(KindDig, vec.Vec2{X: 2}, material.Air)
	require.NoError(t, err)

	_, err = q.Enqueue(KindDig, vec.Vec2{X: 3}, material.Air)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 2, q.Len())
}

func TestQueue_AdvanceFIFOWithWorkers(t *testing.T) {
	q := NewQueue(10, 2, time.Second)
	first, _ := q.Enqueue(KindBuild, vec.Vec2{X: 1}, material.Stone)
	second, _ := q.Enqueue(KindDig, vec.Vec2{X: 2}, material.Air)
	third, _ := q.Enqueue(KindBuild, vec.Vec2{X: 3}, material.Wood)

	assert.Empty(t, q.Advance(600*time.Millisecond))
	tasks := q.Tasks()
	assert.InDelta(t, 0.6, tasks[0].Progress(), 1e-9)
	assert.InDelta(t, 0.6, tasks[1].Progress(), 1e-9)
	assert.Equal(t, 0.0, tasks[2].Progress(), "Третья задача ждёт свободного исполнителя")

	done := q.Advance(400 * time.Millisecond)
	require.Len(t, done, 2)
	assert.Equal(t, first.ID, done[0].ID)
	assert.Equal(t, second.ID, done[1].ID)
	assert.Equal(t, 1, q.Len())

	done = q.Advance(time.Second)
	require.Len(t, done, 1)
	assert.Equal(t, third.ID, done[0].ID)
	assert.Equal(t, KindBuild, done[0].Kind)
	assert.Equal(t, material.Wood, done[0].Material)
	assert.Zero(t, q.Len())
}

func TestQueue_AdvanceIgnoresNonPositive(t *testing.T) {
	q := NewQueue(1, 1, time.Second)
	_, _ = q.Enqueue(KindDig, vec.Vec2{}, material.Air)
	assert.Nil(t, q.Advance(0))
	assert.Nil(t, q.Advance(-time.Second))
	assert.Equal(t, time.Second, q.Tasks()[0].Remaining)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("dig")
	require.NoError(t, err)
	assert.Equal(t, KindDig, k)

	_, err = ParseKind("teleport")
	assert.Error(t, err)
}

func TestQueue_FinishedTasksReleased(t *testing.T) {
	q := NewQueue(4, 2, time.Second)
	for x := 0; x < 3; x++ {
		_, err := q.Enqueue(KindBuild, vec.Vec2{X: x}, material.Wood)
		require.NoError(t, err)
	}

	done := q.Advance(time.Second)
	require.Len(t, done, 2)
	require.Equal(t, 1, q.Len())

	backing := q.tasks[:cap(q.tasks)]
	for i := q.Len(); i < len(backing); i++ {
		assert.Nil(t, backing[i], "Завершённая задача не должна оставаться в массиве очереди (индекс %d)", i)
	}
}
