package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsEachClassFIFO(t *testing.T) {
	var order []string
	q := NewQueue(WithPaintHook(func() { order = append(order, "paint") }))

	q.RunTask(func() {
		q.ScheduleAfterTask(func() { order = append(order, "after-1") })
		q.ScheduleBeforePaint(func() { order = append(order, "before-1") })
		q.ScheduleAfterTask(func() { order = append(order, "after-2") })
		q.ScheduleBeforePaint(func() { order = append(order, "before-2") })
		order = append(order, "task")
	})

	require.Equal(t, []string{"task", "before-1", "before-2", "paint"}, order)
	before, after := q.Pending()
	require.Zero(t, before)
	require.Equal(t, 2, after)

	ran := q.Drain()
	assert.Equal(t, 2, ran)
	assert.Equal(t, []string{
		"task", "before-1", "before-2", "paint",
		"after-1", "paint",
		"after-2", "paint",
	}, order)
}

func TestQueueFlushIncludesCallbacksQueuedWhileFlushing(t *testing.T) {
	q := NewQueue()
	var order []int
	q.ScheduleBeforePaint(func() {
		order = append(order, 1)
		q.ScheduleBeforePaint(func() { order = append(order, 3) })
	})
	q.ScheduleBeforePaint(func() { order = append(order, 2) })

	require.Equal(t, 3, q.FlushBeforePaint())
	require.Equal(t, []int{1, 2, 3}, order)
	require.Equal(t, 1, q.Paints())
}

func TestQueueDrainRunsBeforePaintWorkBetweenTasks(t *testing.T) {
	q := NewQueue()
	var order []string
	q.ScheduleAfterTask(func() {
		order = append(order, "after")
		q.ScheduleBeforePaint(func() { order = append(order, "layout") })
		q.ScheduleAfterTask(func() { order = append(order, "after-nested") })
	})
	q.ScheduleBeforePaint(func() { order = append(order, "pending-layout") })

	q.Drain()
	require.Equal(t, []string{"pending-layout", "after", "layout", "after-nested"}, order)
	before, after := q.Pending()
	require.Zero(t, before)
	require.Zero(t, after)
}

func TestQueuePanicHandlerKeepsDraining(t *testing.T) {
	var recovered []any
	q := NewQueue(WithPanicHandler(func(r any) { recovered = append(recovered, r) }))
	ran := false
	q.ScheduleAfterTask(func() { panic("boom") })
	q.ScheduleAfterTask(func() { ran = true })

	q.Drain()
	require.True(t, ran)
	require.Equal(t, []any{"boom"}, recovered)
}

func TestQueueIgnoresNilCallbacks(t *testing.T) {
	q := NewQueue()
	q.ScheduleBeforePaint(nil)
	q.ScheduleAfterTask(nil)
	before, after := q.Pending()
	assert.Zero(t, before)
	assert.Zero(t, after)
}
