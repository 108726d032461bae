package hooks

import "sync"

// Context is an externally owned value that components read with UseContext.
// Providers push values onto a stack; the top of the stack is the current
// value, and the default applies when no provider is active. The runtime never
// writes a Context, and changing it does not trigger renders by itself.
type Context[T any] struct {
	mu           sync.RWMutex
	name         string
	defaultValue T
	providers    []T
}

// NewContext builds a Context with the given default value.
func NewContext[T any](defaultValue T) *Context[T] {
	return &Context[T]{defaultValue: defaultValue}
}

// NewNamedContext builds a labelled Context.
func NewNamedContext[T any](name string, defaultValue T) *Context[T] {
	return &Context[T]{name: name, defaultValue: defaultValue}
}

// Name returns the context label.
func (c *Context[T]) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Current returns the innermost provided value, or the default.
func (c *Context[T]) Current() T {
	if c == nil {
		var zero T
		return zero
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n := len(c.providers); n > 0 {
		return c.providers[n-1]
	}
	return c.defaultValue
}

// Provide pushes value and returns a func that pops it again. Restores must
// run in reverse order of Provide calls.
func (c *Context[T]) Provide(value T) (restore func()) {
	c.mu.Lock()
	c.providers = append(c.providers, value)
	depth := len(c.providers)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if len(c.providers) >= depth {
				c.providers = c.providers[:depth-1]
			}
		})
	}
}

// Set replaces the innermost provided value, or the default when no provider
// is active.
func (c *Context[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.providers); n > 0 {
		c.providers[n-1] = value
		return
	}
	c.defaultValue = value
}

// Depth returns the number of active providers.
func (c *Context[T]) Depth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.providers)
}

// UseContext returns ctx's current value. It consumes no slot.
func UseContext[T any](f *Frame, ctx *Context[T]) T {
	if f != nil && f.done {
		panic(ErrHookOrderViolation)
	}
	return ctx.Current()
}
