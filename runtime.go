package hooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-hooks/pkg/activity"
	"github.com/google/uuid"
)

// Runtime owns the slot stores of every mounted instance, keyed by instance id,
// and the scheduler their effects are queued on.
type Runtime struct {
	cfg     runtimeConfig
	emitter *activity.Emitter

	mu        sync.RWMutex
	instances map[InstanceID]Handle
	order     []InstanceID
}

// Handle is the type-independent view of a mounted instance.
type Handle interface {
	ID() InstanceID
	Name() string
	Render() error
	Snapshot() Snapshot
	Mounted() bool
	Unmount() error
}

// New constructs a Runtime.
func New(opts ...Option) *Runtime {
	cfg := applyOptions(opts)
	return &Runtime{
		cfg: cfg,
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Config{
			Enabled: cfg.activityHooks.Enabled(),
			Channel: cfg.activityChannel,
		}),
		instances: map[InstanceID]Handle{},
	}
}

// Scheduler returns the scheduler effects are queued on.
func (rt *Runtime) Scheduler() Scheduler {
	return rt.cfg.scheduler
}

// Mount creates an instance of component, assigns it a fresh slot store and
// performs the first render. If the first render fails the instance is
// discarded and the error returned.
func Mount[O any](ctx context.Context, rt *Runtime, component Component[O], renderer Renderer[O], target string, opts ...MountOption) (*Instance[O], error) {
	if component == nil {
		return nil, ErrNilComponent
	}
	if renderer == nil {
		return nil, ErrNilRenderer
	}
	if rt == nil {
		rt = New()
	}
	if ctx == nil {
		ctx = rt.cfg.ctx
	}
	cfg := applyMountOptions(opts)

	c := &core{
		id:           uuid.New(),
		name:         cfg.name,
		rt:           rt,
		store:        newSlotStore(),
		hydration:    cfg.hydration,
		fillDefaults: cfg.fillDefaults,
	}
	in := &Instance[O]{
		core:      c,
		component: component,
		renderer:  renderer,
		target:    target,
		ctx:       ctx,
	}
	c.render = in.Render

	rt.register(in)
	if err := in.Render(); err != nil {
		rt.deregister(c.id)
		c.unmounted = true
		return nil, err
	}

	c.emit(ctx, activity.BuildInstanceMountedEvent(c.eventInput(c.passes, 0, nil)))
	return in, nil
}

// Lookup returns the mounted instance registered under id.
func (rt *Runtime) Lookup(id InstanceID) (Handle, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	h, ok := rt.instances[id]
	return h, ok
}

// Instances returns the ids of mounted instances in mount order.
func (rt *Runtime) Instances() []InstanceID {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	out := make([]InstanceID, len(rt.order))
	copy(out, rt.order)
	return out
}

// Unmount runs the instance's effect cleanups, drops its slot store and makes
// every setter bound to it return ErrStaleHandle.
func (rt *Runtime) Unmount(id InstanceID) error {
	h, ok := rt.deregister(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrStaleHandle, id)
	}
	c := coreOf(h)
	if c == nil {
		return nil
	}
	start := time.Now()
	c.teardown()
	duration := time.Since(start)
	c.log(LogEvent{Kind: LogUnmount, Pass: c.passes, Slots: c.store.len(), Duration: duration})
	c.emit(rt.cfg.ctx, activity.BuildInstanceUnmountedEvent(c.eventInput(c.passes, duration, nil)))
	return nil
}

// UnmountAll tears down every mounted instance in reverse mount order.
func (rt *Runtime) UnmountAll() error {
	ids := rt.Instances()
	var firstErr error
	for i := len(ids) - 1; i >= 0; i-- {
		if err := rt.Unmount(ids[i]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (rt *Runtime) register(h Handle) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.instances[h.ID()] = h
	rt.order = append(rt.order, h.ID())
}

func (rt *Runtime) deregister(id InstanceID) (Handle, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	h, ok := rt.instances[id]
	if !ok {
		return nil, false
	}
	delete(rt.instances, id)
	for i, existing := range rt.order {
		if existing == id {
			rt.order = append(rt.order[:i], rt.order[i+1:]...)
			break
		}
	}
	return h, true
}

type coreHolder interface {
	instanceCore() *core
}

func (in *Instance[O]) instanceCore() *core {
	return in.core
}

func coreOf(h Handle) *core {
	if holder, ok := h.(coreHolder); ok {
		return holder.instanceCore()
	}
	return nil
}
