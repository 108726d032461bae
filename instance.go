package hooks

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-hooks/internal/hydrate"
	"github.com/goliatone/go-hooks/pkg/activity"
)

// core is the type-independent part of an instance. Setters and dispatchers
// capture it together with their slot index.
type core struct {
	id        InstanceID
	name      string
	rt        *Runtime
	store     *slotStore
	hydration *Snapshot
	// fillDefaults overlays hydrated values on the hook's initial value.
	fillDefaults bool
	render       func() error

	rendering bool
	dirty     bool
	unmounted bool
	passes    uint64
}

func (c *core) log(event LogEvent) {
	event.InstanceID = c.id
	if event.Component == "" {
		event.Component = c.name
	}
	c.rt.cfg.logger.Log(event)
}

func (c *core) emit(ctx context.Context, event activity.Event) {
	if !c.rt.emitter.Enabled() {
		return
	}
	if err := c.rt.emitter.Emit(ctx, event); err != nil {
		c.log(LogEvent{Kind: LogRender, Message: "activity emit failed", Err: err})
	}
}

func (c *core) eventInput(pass uint64, duration time.Duration, err error) activity.InstanceEventInput {
	return activity.InstanceEventInput{
		InstanceID: c.id.String(),
		Component:  c.name,
		Pass:       pass,
		Slots:      c.store.len(),
		Duration:   duration,
		Err:        err,
	}
}

// trigger re-renders the instance after a slot mutation.
func (c *core) trigger() error {
	if c.unmounted {
		return ErrStaleHandle
	}
	if c.render == nil {
		return nil
	}
	return c.render()
}

// hydrated returns the persisted value for a state slot created on the first
// render, falling back to initial.
func hydrated[T any](c *core, index int, initial T) T {
	if c.hydration == nil {
		return initial
	}
	record, ok := c.hydration.Record(index)
	if !ok || ParseSlotKind(record.Kind) != SlotState {
		return initial
	}
	var opts []hydrate.DecoderOption[T]
	if c.fillDefaults {
		opts = append(opts, hydrate.WithDefaults(initial))
	}
	decoder := hydrate.NewDecoder(opts...)
	value, err := decoder.Decode(hydrate.Context{Instance: c.id.String(), Slot: index}, record.Value)
	if err != nil {
		c.log(LogEvent{Kind: LogRender, Slot: index, Message: "hydration skipped", Err: err})
		return initial
	}
	return value
}

func (c *core) schedule(f *Frame) {
	sched := c.rt.cfg.scheduler
	for _, job := range f.layout {
		job.slot.deps = job.deps
		job.slot.committed = true
		sched.ScheduleBeforePaint(c.effectRunner(job))
	}
	for _, job := range f.passive {
		job.slot.deps = job.deps
		job.slot.committed = true
		sched.ScheduleAfterTask(c.effectRunner(job))
	}
}

func (c *core) effectRunner(job effectJob) func() {
	return func() {
		if c.unmounted {
			return
		}
		start := time.Now()
		if cleanup := job.slot.cleanup; cleanup != nil {
			job.slot.cleanup = nil
			cleanup()
		}
		if job.effect != nil {
			job.slot.cleanup = job.effect()
		}
		c.log(LogEvent{
			Kind:     LogEffect,
			Pass:     job.pass,
			Slot:     job.index,
			Duration: time.Since(start),
			Message:  job.slot.kind.String(),
		})
	}
}

// teardown runs every stored cleanup, layout effects first, each class in slot
// order, and marks the instance stale.
func (c *core) teardown() {
	if c.unmounted {
		return
	}
	c.unmounted = true
	for _, kind := range []SlotKind{SlotLayoutEffect, SlotEffect} {
		for _, sl := range c.store.slots {
			if sl.kind != kind || sl.cleanup == nil {
				continue
			}
			cleanup := sl.cleanup
			sl.cleanup = nil
			cleanup()
		}
	}
}

// Instance is one mounted component with its own slot store. Instances are not
// safe for concurrent use; renders, setters and effects run on one goroutine.
type Instance[O any] struct {
	core      *core
	component Component[O]
	renderer  Renderer[O]
	target    string
	ctx       context.Context

	output    O
	committed bool
}

// ID returns the instance identifier.
func (in *Instance[O]) ID() InstanceID {
	return in.core.id
}

// Name returns the component label given at mount time.
func (in *Instance[O]) Name() string {
	return in.core.name
}

// Output returns the last committed output.
func (in *Instance[O]) Output() (O, bool) {
	return in.output, in.committed
}

// Passes returns the number of render passes attempted so far.
func (in *Instance[O]) Passes() uint64 {
	return in.core.passes
}

// Mounted reports whether the instance is still mounted.
func (in *Instance[O]) Mounted() bool {
	return !in.core.unmounted
}

// Unmount tears the instance down through its runtime.
func (in *Instance[O]) Unmount() error {
	return in.core.rt.Unmount(in.core.id)
}

// Render resets the cursor, re-invokes the component and commits the output.
// When called while the same instance is already rendering, the request is
// folded into the running render, which repeats its pass once it finishes.
func (in *Instance[O]) Render() error {
	c := in.core
	if c.unmounted {
		return ErrStaleHandle
	}
	if c.rendering {
		c.dirty = true
		return nil
	}
	for {
		c.dirty = false
		if err := in.renderPass(); err != nil {
			c.dirty = false
			return err
		}
		if !c.dirty || c.unmounted {
			return nil
		}
	}
}

func (in *Instance[O]) renderPass() (err error) {
	c := in.core
	c.passes++
	pass := c.passes
	frame := &Frame{core: c, pass: pass}

	c.rendering = true
	defer func() {
		c.rendering = false
		frame.done = true
	}()

	start := time.Now()
	c.store.reset()
	output, err := in.invoke(frame)
	if err == nil {
		err = c.store.finish()
	}
	var commitTime time.Duration
	if err == nil {
		commitStart := time.Now()
		if commitErr := in.renderer.RenderInto(in.ctx, output, in.target); commitErr != nil {
			err = fmt.Errorf("commit to %q: %w", in.target, commitErr)
		}
		commitTime = time.Since(commitStart)
	}
	duration := time.Since(start)

	if err != nil {
		err = wrapRenderError(c.id, c.name, pass, err)
		c.log(LogEvent{Kind: LogRender, Pass: pass, Slots: c.store.len(), Duration: duration, Err: err})
		c.emit(in.ctx, activity.BuildRenderFailedEvent(c.eventInput(pass, duration, err)))
		return err
	}

	in.output = output
	in.committed = true
	c.store.seal()
	c.hydration = nil
	for _, fn := range frame.commits {
		fn()
	}
	c.schedule(frame)

	c.log(LogEvent{Kind: LogCommit, Pass: pass, Duration: commitTime, Message: in.target})
	c.log(LogEvent{Kind: LogRender, Pass: pass, Slots: c.store.len(), Duration: duration})
	c.emit(in.ctx, activity.BuildInstanceRenderedEvent(c.eventInput(pass, duration, nil)))
	return nil
}

func (in *Instance[O]) invoke(f *Frame) (output O, err error) {
	defer func() {
		if r := recover(); r != nil {
			abort, ok := r.(renderAbort)
			if !ok {
				panic(r)
			}
			err = abort.err
		}
	}()
	return in.component(f), nil
}

// Snapshot records the instance's state slots and slot layout.
func (in *Instance[O]) Snapshot() Snapshot {
	c := in.core
	snap := Snapshot{
		InstanceID: c.id.String(),
		Component:  c.name,
		Pass:       c.passes,
		TakenAt:    time.Now(),
	}
	for index, sl := range c.store.slots {
		record := SlotRecord{Index: index, Kind: sl.kind.String()}
		if sl.kind == SlotState {
			record.Value = exportValue(sl.value)
		}
		snap.Slots = append(snap.Slots, record)
	}
	return snap
}

// exportValue unwraps values owned by a foreign runtime, such as a script
// engine, that expose their plain Go form through Export.
func exportValue(v any) any {
	if exporter, ok := v.(interface{ Export() any }); ok {
		return exporter.Export()
	}
	return v
}
