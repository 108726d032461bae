package hooks

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrHookOrderViolation reports that a component called hooks in a different
	// order, kind or count than in a previous render of the same instance.
	ErrHookOrderViolation = errors.New("hooks: hook order violation")
	// ErrDependencyMismatch reports dependency sequences of different lengths.
	// It is only logged; the hook is treated as changed.
	ErrDependencyMismatch = errors.New("hooks: dependency length mismatch")
	// ErrStaleHandle is returned by setters, dispatchers and Render once the
	// owning instance has been unmounted.
	ErrStaleHandle = errors.New("hooks: instance is unmounted")
	// ErrActionType is returned when a reducer-less dispatch receives an action
	// that cannot replace the current state.
	ErrActionType = errors.New("hooks: action is not assignable to state")
	// ErrNilComponent is returned when mounting a nil component.
	ErrNilComponent = errors.New("hooks: component must not be nil")
	// ErrNilRenderer is returned when mounting without a renderer.
	ErrNilRenderer = errors.New("hooks: renderer must not be nil")
)

// HookOrderError captures where a render diverged from the recorded slot layout.
type HookOrderError struct {
	Index  int
	Want   SlotKind
	Got    SlotKind
	Reason string
}

func (e *HookOrderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "hooks: hook order violation at slot %d", e.Index)
	if e.Want != 0 || e.Got != 0 {
		fmt.Fprintf(&b, ": recorded %s, called %s", e.Want, e.Got)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Is makes errors.Is(err, ErrHookOrderViolation) hold for every HookOrderError.
func (e *HookOrderError) Is(target error) bool {
	return target == ErrHookOrderViolation
}

// RenderError captures instance metadata alongside the error that aborted a
// render pass.
type RenderError struct {
	InstanceID InstanceID
	Component  string
	Pass       uint64
	Err        error
}

func (e *RenderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("hooks: render %s instance=%s pass=%d: %v", describeComponent(e.Component), e.InstanceID, e.Pass, e.Err)
}

func (e *RenderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeComponent(name string) string {
	if name == "" {
		return "component=<anonymous>"
	}
	return fmt.Sprintf("component=%q", name)
}

func wrapRenderError(id InstanceID, component string, pass uint64, err error) error {
	if err == nil {
		return nil
	}

	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		if renderErr.InstanceID == (InstanceID{}) {
			renderErr.InstanceID = id
		}
		if renderErr.Component == "" {
			renderErr.Component = component
		}
		return renderErr
	}

	return &RenderError{
		InstanceID: id,
		Component:  component,
		Pass:       pass,
		Err:        err,
	}
}

// renderAbort carries a hook error out of a component body. Render recovers it.
type renderAbort struct {
	err error
}

// Try runs fn and converts a hook failure raised inside it into an error.
// Foreign callers that invoke hooks on behalf of a component (for example a
// script binding) use it to keep the failure from unwinding through their own
// stack. Panics that are not hook failures are re-raised.
func Try(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			abort, ok := r.(renderAbort)
			if !ok {
				panic(r)
			}
			err = abort.err
		}
	}()
	fn()
	return nil
}
