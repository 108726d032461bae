package hooks

import (
	"context"
	"testing"

	"github.com/goliatone/go-hooks/scheduler"
)

type harness[O any] struct {
	rt      *Runtime
	queue   *scheduler.Queue
	inst    *Instance[O]
	outputs []O
	events  []LogEvent
}

func mountHarness[O any](t *testing.T, component Component[O], opts ...MountOption) *harness[O] {
	t.Helper()
	h := &harness[O]{queue: scheduler.NewQueue()}
	h.rt = New(
		WithScheduler(h.queue),
		WithLogger(LoggerFunc(func(event LogEvent) { h.events = append(h.events, event) })),
	)
	inst, err := Mount(context.Background(), h.rt, component, h.renderer(), "root", opts...)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	h.inst = inst
	return h
}

func (h *harness[O]) renderer() Renderer[O] {
	return RendererFunc[O](func(_ context.Context, out O, _ string) error {
		h.outputs = append(h.outputs, out)
		return nil
	})
}

func (h *harness[O]) last() O {
	return h.outputs[len(h.outputs)-1]
}

func (h *harness[O]) render(t *testing.T) {
	t.Helper()
	if err := h.inst.Render(); err != nil {
		t.Fatalf("render: %v", err)
	}
}

func (h *harness[O]) eventsOf(kind LogKind) []LogEvent {
	var out []LogEvent
	for _, event := range h.events {
		if event.Kind == kind {
			out = append(out, event)
		}
	}
	return out
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
