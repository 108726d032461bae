package hooks

import "fmt"

// Reducer computes the next state from the current state and an action. An
// error leaves the state unchanged.
type Reducer[S, A any] func(state S, action A) (S, error)

// Pure adapts an infallible reducer.
func Pure[S, A any](fn func(S, A) S) Reducer[S, A] {
	if fn == nil {
		return nil
	}
	return func(state S, action A) (S, error) {
		return fn(state, action), nil
	}
}

// Dispatch applies actions to one state slot. It is bound to the slot index at
// hook-call time, so every dispatcher of a slot mutates that slot no matter
// which render produced it.
type Dispatch[A any] struct {
	core   *core
	index  int
	reduce func(current any, action A) (any, error)
}

// Dispatch stores the reduced state and re-renders the instance.
func (d Dispatch[A]) Dispatch(action A) error {
	if d.core == nil || d.core.unmounted {
		return ErrStaleHandle
	}
	current, ok := d.core.store.at(d.index)
	if !ok {
		return ErrStaleHandle
	}
	next, err := d.reduce(current.value, action)
	if err != nil {
		return err
	}
	d.core.store.write(d.index, &slot{kind: SlotState, value: next, committed: true})
	return d.core.trigger()
}

// UseReducer returns the state held by the slot at the cursor and a dispatcher
// for it. With a nil reducer an action replaces the state directly.
func UseReducer[S, A any](f *Frame, reducer Reducer[S, A], initial S) (S, Dispatch[A]) {
	index := f.cursor()
	sl := f.read(SlotState, func() *slot {
		return &slot{value: hydrated(f.core, index, initial), committed: true}
	})
	value, ok := valueAs[S](sl.value)
	if !ok {
		f.typeMismatch(index, SlotState, sl.value, typeName[S]())
	}
	f.advance()

	reduce := func(current any, action A) (any, error) {
		if reducer == nil {
			next, ok := valueAs[S](any(action))
			if !ok {
				return nil, fmt.Errorf("%w: %T into %s", ErrActionType, action, typeName[S]())
			}
			return next, nil
		}
		state, _ := valueAs[S](current)
		next, err := reducer(state, action)
		if err != nil {
			return nil, err
		}
		return next, nil
	}
	return value, Dispatch[A]{core: f.core, index: index, reduce: reduce}
}

// Setter replaces or updates one state slot and re-renders the instance.
type Setter[T any] struct {
	dispatch Dispatch[T]
}

// Set stores next.
func (s Setter[T]) Set(next T) error {
	return s.dispatch.Dispatch(next)
}

// Update stores fn applied to the value held by the slot at call time. Calls
// fold left to right.
func (s Setter[T]) Update(fn func(T) T) error {
	d := s.dispatch
	if d.core == nil || d.core.unmounted {
		return ErrStaleHandle
	}
	current, ok := d.core.store.at(d.index)
	if !ok {
		return ErrStaleHandle
	}
	value, _ := valueAs[T](current.value)
	return d.Dispatch(fn(value))
}

// UseState is UseReducer with no reducer: the setter's argument becomes the
// new state.
func UseState[T any](f *Frame, initial T) (T, Setter[T]) {
	value, dispatch := UseReducer[T, T](f, nil, initial)
	return value, Setter[T]{dispatch: dispatch}
}
