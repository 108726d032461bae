package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrLoopAlreadyRunning is returned when Run is called on a running loop.
	ErrLoopAlreadyRunning = errors.New("scheduler: loop is already running")
	// ErrLoopTerminated is returned by Submit and Run once the loop stopped.
	ErrLoopTerminated = errors.New("scheduler: loop has been terminated")
)

const (
	loopAwake int32 = iota
	loopRunning
	loopTerminated
)

// Loop is a goroutine-owned event loop. External goroutines hand work to it
// with Submit; renders, setters and effects then all run on the loop
// goroutine. After every task the loop drains the before-paint queue and
// paints; after-task callbacks are queued as tasks behind the work already
// submitted.
type Loop struct {
	cfg config

	state atomic.Int32
	wake  chan struct{}
	done  chan struct{}

	mu          sync.Mutex
	tasks       []func()
	beforePaint []func()
}

// NewLoop builds a Loop. It does nothing until Run is called.
func NewLoop(opts ...Option) *Loop {
	return &Loop{
		cfg:  applyOptions(opts),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Submit queues fn as an external task. It is safe to call from any goroutine.
func (l *Loop) Submit(fn func()) error {
	if fn == nil {
		return nil
	}
	if l.state.Load() == loopTerminated {
		return ErrLoopTerminated
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
	return nil
}

// ScheduleBeforePaint queues fn to run after the current task, before paint.
func (l *Loop) ScheduleBeforePaint(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.beforePaint = append(l.beforePaint, fn)
	l.mu.Unlock()
	l.signal()
}

// ScheduleAfterTask queues fn as a task of its own.
func (l *Loop) ScheduleAfterTask(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// Run processes tasks until ctx is done or Stop is called. It blocks and
// returns ctx.Err() or nil after Stop.
func (l *Loop) Run(ctx context.Context) error {
	if !l.state.CompareAndSwap(loopAwake, loopRunning) {
		if l.state.Load() == loopTerminated {
			return ErrLoopTerminated
		}
		return ErrLoopAlreadyRunning
	}
	defer func() {
		l.state.Store(loopTerminated)
		close(l.done)
	}()

	for {
		if l.state.Load() == loopTerminated {
			return nil
		}
		if task, ok := l.next(); ok {
			l.cfg.call(task)
			l.flushBeforePaint()
			continue
		}
		if l.hasBeforePaint() {
			l.flushBeforePaint()
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Stop terminates the loop after the task in progress. Queued work is dropped.
func (l *Loop) Stop() {
	previous := l.state.Swap(loopTerminated)
	if previous == loopAwake {
		close(l.done)
		return
	}
	l.signal()
}

// Done is closed once the loop has terminated.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 {
		return nil, false
	}
	fn := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return fn, true
}

func (l *Loop) hasBeforePaint() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.beforePaint) > 0
}

func (l *Loop) flushBeforePaint() {
	for {
		l.mu.Lock()
		if len(l.beforePaint) == 0 {
			l.mu.Unlock()
			break
		}
		fn := l.beforePaint[0]
		l.beforePaint[0] = nil
		l.beforePaint = l.beforePaint[1:]
		l.mu.Unlock()
		l.cfg.call(fn)
	}
	l.cfg.call(l.cfg.onPaint)
}
