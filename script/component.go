// Package script runs JavaScript components on the hook runtime. A script
// evaluates to (or defines a global `render`) function that receives a hook
// object h and returns its output:
//
//	(function Counter(h) {
//	  const [count, setCount] = h.useState(0);
//	  return { count, handlers: { inc: () => setCount(c => c + 1) } };
//	})
//
// Hook calls map one to one onto the Go primitives, so the same ordering
// rules apply.
package script

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
	"github.com/goliatone/go-hooks"
)

var (
	// ErrNoRenderFunction is returned when a script neither evaluates to a
	// function nor defines a global render function.
	ErrNoRenderFunction = errors.New("script: source does not provide a render function")
	// ErrNoHandler is returned by Invoke for names missing from the last
	// committed output's handlers object.
	ErrNoHandler = errors.New("script: handler not found")
	// ErrUnknownContext is thrown into the script by useContext for names that
	// were not registered with WithContext.
	ErrUnknownContext = errors.New("script: unknown context")
)

// Component is a compiled script. It owns a goja VM, which is not safe for
// concurrent use; mount each Component once and drive it from one goroutine.
type Component struct {
	name   string
	cfg    config
	vm     *goja.Runtime
	render goja.Callable

	handlers *goja.Object
	hookErr  error
}

// Compile runs source and resolves its render function.
func Compile(name, source string, opts ...Option) (*Component, error) {
	cfg := applyOptions(opts)
	program, err := goja.Compile(name, source, false)
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}

	vm := goja.New()
	vm.SetFieldNameMapper(cfg.fieldMapper)
	for key, value := range cfg.globals {
		if err := vm.Set(key, value); err != nil {
			return nil, fmt.Errorf("script: global %q: %w", key, err)
		}
	}

	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, fmt.Errorf("script: run %s: %w", name, unwrapException(err))
	}
	render, ok := goja.AssertFunction(value)
	if !ok {
		render, ok = goja.AssertFunction(vm.Get("render"))
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRenderFunction, name)
	}

	return &Component{name: name, cfg: cfg, vm: vm, render: render}, nil
}

// Name returns the name given to Compile.
func (c *Component) Name() string {
	return c.name
}

// Func adapts the component to hooks.Component.
func (c *Component) Func() hooks.Component[any] {
	return c.Render
}

// Render runs the script for one pass. Hook failures raised inside the script
// abort the pass with the original error.
func (c *Component) Render(f *hooks.Frame) any {
	c.hookErr = nil
	value, err := c.render(goja.Undefined(), c.hookObject(f))
	if hookErr := c.hookErr; hookErr != nil {
		c.hookErr = nil
		f.Abort(hookErr)
	}
	if err != nil {
		f.Abort(fmt.Errorf("script %s: %w", c.name, unwrapException(err)))
	}
	out, handlers := c.splitOutput(value)
	f.OnCommit(func() { c.handlers = handlers })
	return out
}

// Handlers lists the handler names of the last committed output.
func (c *Component) Handlers() []string {
	if c.handlers == nil {
		return nil
	}
	var names []string
	for _, key := range c.handlers.Keys() {
		if _, ok := goja.AssertFunction(c.handlers.Get(key)); ok {
			names = append(names, key)
		}
	}
	return names
}

// Invoke calls a function of the last committed output's handlers object.
// Setters the handler calls re-render synchronously; their errors surface here.
func (c *Component) Invoke(handler string, args ...any) (any, error) {
	if c.handlers == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, handler)
	}
	fn, ok := goja.AssertFunction(c.handlers.Get(handler))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, handler)
	}
	values := make([]goja.Value, 0, len(args))
	for _, arg := range args {
		values = append(values, c.vm.ToValue(arg))
	}
	result, err := fn(goja.Undefined(), values...)
	if err != nil {
		return nil, unwrapException(err)
	}
	return exportValue(result), nil
}

// splitOutput separates the handlers object of value from the rest, which is
// returned as plain Go values. Handlers only replace those used by Invoke once
// the output commits.
func (c *Component) splitOutput(value goja.Value) (any, *goja.Object) {
	obj, ok := value.(*goja.Object)
	if !ok || obj.ClassName() != "Object" {
		return exportValue(value), nil
	}
	var handlers *goja.Object
	out := map[string]any{}
	for _, key := range obj.Keys() {
		field := obj.Get(key)
		if key == "handlers" {
			if h, ok := field.(*goja.Object); ok {
				handlers = h
			}
			continue
		}
		if _, ok := goja.AssertFunction(field); ok {
			continue
		}
		out[key] = exportValue(field)
	}
	return out, handlers
}

func (c *Component) toJS(value any) goja.Value {
	if v, ok := value.(goja.Value); ok {
		return v
	}
	if value == nil {
		return goja.Null()
	}
	return c.vm.ToValue(value)
}

// throw aborts the running JS call with err.
func (c *Component) throw(err error) {
	panic(c.vm.NewGoError(err))
}

func exportValue(value goja.Value) any {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil
	}
	return value.Export()
}

// unwrapException returns the Go error carried by a thrown GoError, so that
// errors.Is works across the script boundary.
func unwrapException(err error) error {
	var exc *goja.Exception
	if !errors.As(err, &exc) {
		return err
	}
	obj, ok := exc.Value().(*goja.Object)
	if !ok {
		return err
	}
	if inner := obj.Get("value"); inner != nil {
		if goErr, ok := inner.Export().(error); ok {
			return goErr
		}
	}
	return err
}
