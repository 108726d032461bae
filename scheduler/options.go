// Package scheduler provides the two-class effect schedulers used by the hook
// runtime: callbacks that must complete before the next paint and callbacks
// that run once the current task has unwound.
package scheduler

// Option configures a Queue or a Loop.
type Option func(*config)

type config struct {
	onPaint func()
	onPanic func(any)
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithPaintHook registers fn to run each time the before-paint queue has been
// drained after a task, standing in for the host's paint.
func WithPaintHook(fn func()) Option {
	return func(cfg *config) {
		cfg.onPaint = fn
	}
}

// WithPanicHandler recovers panics raised by callbacks and hands them to fn.
// Without a handler a panicking callback unwinds through the caller.
func WithPanicHandler(fn func(any)) Option {
	return func(cfg *config) {
		cfg.onPanic = fn
	}
}

func (cfg config) call(fn func()) {
	if fn == nil {
		return
	}
	if cfg.onPanic != nil {
		defer func() {
			if r := recover(); r != nil {
				cfg.onPanic(r)
			}
		}()
	}
	fn()
}
