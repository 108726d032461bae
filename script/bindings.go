package script

import (
	"fmt"
	"strconv"

	"github.com/dop251/goja"
	"github.com/goliatone/go-hooks"
)

// hookObject builds the h argument of one render pass.
func (c *Component) hookObject(f *hooks.Frame) *goja.Object {
	h := c.vm.NewObject()
	set := func(name string, fn func(goja.FunctionCall) goja.Value) {
		_ = h.Set(name, fn)
	}

	set("useState", func(call goja.FunctionCall) goja.Value {
		var (
			value  any
			setter hooks.Setter[any]
		)
		c.guard(func() {
			value, setter = hooks.UseState[any](f, call.Argument(0))
		})
		return c.vm.NewArray(c.toJS(value), c.setterFunc(setter))
	})

	set("useReducer", func(call goja.FunctionCall) goja.Value {
		reducerFn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(c.vm.NewTypeError("useReducer expects a reducer function"))
		}
		reducer := func(state any, action goja.Value) (any, error) {
			next, err := reducerFn(goja.Undefined(), c.toJS(state), action)
			if err != nil {
				return nil, unwrapException(err)
			}
			return next, nil
		}
		var (
			value    any
			dispatch hooks.Dispatch[goja.Value]
		)
		c.guard(func() {
			value, dispatch = hooks.UseReducer[any, goja.Value](f, reducer, call.Argument(1))
		})
		dispatchFn := func(inner goja.FunctionCall) goja.Value {
			if err := dispatch.Dispatch(inner.Argument(0)); err != nil {
				c.throw(err)
			}
			return goja.Undefined()
		}
		return c.vm.NewArray(c.toJS(value), dispatchFn)
	})

	set("useRef", func(call goja.FunctionCall) goja.Value {
		var ref *hooks.Ref[*goja.Object]
		c.guard(func() {
			ref = hooks.UseRef[*goja.Object](f, nil)
		})
		if ref.Current == nil {
			ref.Current = c.vm.NewObject()
			_ = ref.Current.Set("current", call.Argument(0))
		}
		return ref.Current
	})

	set("useMemo", func(call goja.FunctionCall) goja.Value {
		factory, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(c.vm.NewTypeError("useMemo expects a factory function"))
		}
		deps := c.deps(call.Argument(1))
		var value goja.Value
		c.guard(func() {
			value = hooks.UseMemo(f, func() goja.Value {
				out, err := factory(goja.Undefined())
				if err != nil {
					panic(exceptionValue(c.vm, err))
				}
				return out
			}, deps)
		})
		return value
	})

	set("useCallback", func(call goja.FunctionCall) goja.Value {
		deps := c.deps(call.Argument(1))
		var value goja.Value
		c.guard(func() {
			value = hooks.UseCallback(f, call.Argument(0), deps)
		})
		return value
	})

	set("useEffect", func(call goja.FunctionCall) goja.Value {
		effect := c.effect(call.Argument(0))
		deps := c.deps(call.Argument(1))
		c.guard(func() {
			hooks.UseEffect(f, effect, deps)
		})
		return goja.Undefined()
	})

	set("useLayoutEffect", func(call goja.FunctionCall) goja.Value {
		effect := c.effect(call.Argument(0))
		deps := c.deps(call.Argument(1))
		c.guard(func() {
			hooks.UseLayoutEffect(f, effect, deps)
		})
		return goja.Undefined()
	})

	set("useContext", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		ctx, ok := c.cfg.contexts[name]
		if !ok {
			c.throw(fmt.Errorf("%w: %q", ErrUnknownContext, name))
		}
		var value any
		c.guard(func() {
			value = hooks.UseContext(f, ctx)
		})
		return c.toJS(value)
	})

	_ = h.Set("pass", f.Pass())
	_ = h.Set("instance", f.InstanceID().String())
	return h
}

// guard runs a hook call. A hook failure is remembered so Render can abort
// with it, and is thrown into the script to unwind the JS stack first.
func (c *Component) guard(fn func()) {
	if err := hooks.Try(fn); err != nil {
		if c.hookErr == nil {
			c.hookErr = err
		}
		c.throw(err)
	}
}

func (c *Component) setterFunc(setter hooks.Setter[any]) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		arg := call.Argument(0)
		var err error
		if update, ok := goja.AssertFunction(arg); ok {
			err = setter.Update(func(current any) any {
				next, callErr := update(goja.Undefined(), c.toJS(current))
				if callErr != nil {
					panic(exceptionValue(c.vm, callErr))
				}
				return next
			})
		} else {
			err = setter.Set(arg)
		}
		if err != nil {
			c.throw(err)
		}
		return goja.Undefined()
	}
}

func (c *Component) effect(value goja.Value) hooks.EffectFunc {
	fn, ok := goja.AssertFunction(value)
	if !ok {
		panic(c.vm.NewTypeError("effect must be a function"))
	}
	return func() hooks.Cleanup {
		result, err := fn(goja.Undefined())
		if err != nil {
			c.cfg.errorHandler(fmt.Errorf("script %s: effect: %w", c.name, unwrapException(err)))
			return nil
		}
		cleanup, ok := goja.AssertFunction(result)
		if !ok {
			return nil
		}
		return func() {
			if _, err := cleanup(goja.Undefined()); err != nil {
				c.cfg.errorHandler(fmt.Errorf("script %s: cleanup: %w", c.name, unwrapException(err)))
			}
		}
	}
}

// deps converts a JS dependency array. undefined and null mean "every
// render"; objects and functions compare by identity, primitives by value.
func (c *Component) deps(value goja.Value) hooks.Deps {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil
	}
	obj := value.ToObject(c.vm)
	n := int(obj.Get("length").ToInteger())
	out := make(hooks.Deps, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, depValue(obj.Get(strconv.Itoa(i))))
	}
	return out
}

func depValue(value goja.Value) any {
	if obj, ok := value.(*goja.Object); ok {
		return obj
	}
	if value == nil {
		return nil
	}
	return value.Export()
}

// exceptionValue rethrows a JS exception raised by a nested call.
func exceptionValue(vm *goja.Runtime, err error) goja.Value {
	if exc, ok := err.(*goja.Exception); ok {
		return exc.Value()
	}
	return vm.NewGoError(err)
}
