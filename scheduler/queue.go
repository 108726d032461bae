package scheduler

import "sync"

// Queue is a manually driven scheduler. Nothing runs until the host calls
// RunTask, FlushBeforePaint or Drain, which makes effect timing deterministic
// in tests and in hosts that own their own task loop.
type Queue struct {
	cfg config

	mu          sync.Mutex
	beforePaint []func()
	afterTask   []func()
	paints      int
}

// NewQueue builds an empty Queue.
func NewQueue(opts ...Option) *Queue {
	return &Queue{cfg: applyOptions(opts)}
}

// ScheduleBeforePaint queues fn on the before-paint class.
func (q *Queue) ScheduleBeforePaint(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.beforePaint = append(q.beforePaint, fn)
	q.mu.Unlock()
}

// ScheduleAfterTask queues fn on the after-task class.
func (q *Queue) ScheduleAfterTask(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.afterTask = append(q.afterTask, fn)
	q.mu.Unlock()
}

// RunTask runs fn as one task, then drains the before-paint queue and paints.
// After-task callbacks queued by fn stay queued until Drain.
func (q *Queue) RunTask(fn func()) {
	q.cfg.call(fn)
	q.FlushBeforePaint()
}

// FlushBeforePaint runs before-paint callbacks FIFO, including ones queued
// while flushing, then calls the paint hook. It returns the number of
// callbacks run.
func (q *Queue) FlushBeforePaint() int {
	ran := 0
	for {
		fn, ok := q.pop(&q.beforePaint)
		if !ok {
			break
		}
		q.cfg.call(fn)
		ran++
	}
	q.mu.Lock()
	q.paints++
	q.mu.Unlock()
	q.cfg.call(q.cfg.onPaint)
	return ran
}

// Drain flushes pending before-paint work, then runs after-task callbacks one
// per task, each followed by a before-paint flush, until both queues are
// empty. It returns the number of callbacks run.
func (q *Queue) Drain() int {
	ran := 0
	if before, _ := q.Pending(); before > 0 {
		ran += q.FlushBeforePaint()
	}
	for {
		fn, ok := q.pop(&q.afterTask)
		if !ok {
			return ran
		}
		q.cfg.call(fn)
		ran++
		ran += q.FlushBeforePaint()
	}
}

// Pending reports the number of queued callbacks per class.
func (q *Queue) Pending() (beforePaint, afterTask int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.beforePaint), len(q.afterTask)
}

// Paints returns how many times the paint hook point has been reached.
func (q *Queue) Paints() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paints
}

func (q *Queue) pop(list *[]func()) (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(*list) == 0 {
		return nil, false
	}
	fn := (*list)[0]
	(*list)[0] = nil
	*list = (*list)[1:]
	return fn, true
}
