package hooks

import "fmt"

// Frame is the handle a component receives for one render pass. Hooks read and
// write the instance's slot store through it. A Frame must not be retained or
// used after its pass returns.
type Frame struct {
	core    *core
	pass    uint64
	layout  []effectJob
	passive []effectJob
	commits []func()
	done    bool
}

// InstanceID returns the instance being rendered.
func (f *Frame) InstanceID() InstanceID {
	return f.core.id
}

// Pass returns the 1-based render pass counter of the instance.
func (f *Frame) Pass() uint64 {
	return f.pass
}

// Abort stops the pass with err. The previous committed output stays in place.
func (f *Frame) Abort(err error) {
	if err == nil {
		err = fmt.Errorf("hooks: render aborted")
	}
	panic(renderAbort{err: err})
}

// OnCommit registers fn to run once the output of this pass has been
// committed, before its effects are scheduled. It never runs for a pass that
// fails.
func (f *Frame) OnCommit(fn func()) {
	if f.done {
		panic(fmt.Errorf("%w: OnCommit called outside its render pass", ErrHookOrderViolation))
	}
	if fn != nil {
		f.commits = append(f.commits, fn)
	}
}

// read returns the slot at the cursor for kind, aborting the pass on an order
// violation. The cursor is not advanced.
func (f *Frame) read(kind SlotKind, init func() *slot) *slot {
	if f.done {
		panic(fmt.Errorf("%w: %s hook called outside its render pass", ErrHookOrderViolation, kind))
	}
	sl, err := f.core.store.readOrInit(kind, init)
	if err != nil {
		f.Abort(err)
	}
	return sl
}

func (f *Frame) cursor() int {
	return f.core.store.cursor
}

func (f *Frame) advance() {
	f.core.store.advance()
}

func (f *Frame) typeMismatch(index int, kind SlotKind, stored any, want string) {
	f.Abort(&HookOrderError{
		Index:  index,
		Want:   kind,
		Got:    kind,
		Reason: fmt.Sprintf("slot holds %T, hook expects %s", stored, want),
	})
}

func (f *Frame) checkDeps(index int, prev, next Deps) bool {
	changed, mismatch := depsChanged(prev, next)
	if mismatch {
		f.core.log(LogEvent{
			Kind:    LogDependencyMismatch,
			Pass:    f.pass,
			Slot:    index,
			Message: fmt.Sprintf("dependency length changed from %d to %d", len(prev), len(next)),
			Err:     ErrDependencyMismatch,
		})
	}
	return changed
}

// valueAs asserts a stored slot value to T. A nil value yields the zero T,
// which only happens when T is an interface type.
func valueAs[T any](v any) (T, bool) {
	if v == nil {
		var zero T
		return zero, true
	}
	out, ok := v.(T)
	return out, ok
}

func typeName[T any]() string {
	var zero T
	if t := fmt.Sprintf("%T", zero); t != "<nil>" {
		return t
	}
	return fmt.Sprintf("%T", (*T)(nil))[1:]
}
