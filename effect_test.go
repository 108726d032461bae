package hooks

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/goliatone/go-hooks/scheduler"
)

func TestEffectRunsAfterCommitAndCleansUpBeforeNextRun(t *testing.T) {
	var (
		log   []string
		setX  Setter[int]
		calls int
		clean int
	)
	h := mountHarness(t, func(f *Frame) int {
		x, set := UseState(f, 1)
		setX = set
		UseEffect(f, func() Cleanup {
			calls++
			log = append(log, "run")
			return func() {
				clean++
				log = append(log, "cleanup")
			}
		}, On(x))
		return x
	})

	if calls != 0 {
		t.Fatalf("effect must not run during render")
	}
	h.queue.Drain()
	if calls != 1 || clean != 0 {
		t.Fatalf("after mount expected 1 run 0 cleanups, got %d/%d", calls, clean)
	}

	must(t, setX.Set(1))
	h.queue.Drain()
	if calls != 1 || clean != 0 {
		t.Fatalf("unchanged deps must not rerun, got %d/%d", calls, clean)
	}

	must(t, setX.Set(2))
	h.queue.Drain()
	if calls != 2 || clean != 1 {
		t.Fatalf("changed deps expected 2 runs 1 cleanup, got %d/%d", calls, clean)
	}
	if want := []string{"run", "cleanup", "run"}; !reflect.DeepEqual(log, want) {
		t.Fatalf("expected order %v, got %v", want, log)
	}
}

var effectClasses = []struct {
	name  string
	use   func(*Frame, EffectFunc, Deps)
	flush func(*scheduler.Queue) int
}{
	{name: "effect", use: UseEffect, flush: (*scheduler.Queue).Drain},
	{name: "layout_effect", use: UseLayoutEffect, flush: (*scheduler.Queue).FlushBeforePaint},
}

func TestEffectClassesCleanUpBeforeNextRun(t *testing.T) {
	for _, class := range effectClasses {
		class := class
		t.Run(class.name, func(t *testing.T) {
			var (
				log  []string
				setX Setter[int]
			)
			h := mountHarness(t, func(f *Frame) int {
				x, set := UseState(f, 1)
				setX = set
				class.use(f, func() Cleanup {
					log = append(log, "run:"+strconv.Itoa(x))
					return func() { log = append(log, "cleanup:"+strconv.Itoa(x)) }
				}, On(x))
				return x
			})

			class.flush(h.queue)
			must(t, setX.Set(1))
			class.flush(h.queue)
			if want := []string{"run:1"}; !reflect.DeepEqual(log, want) {
				t.Fatalf("unchanged deps must not clean up or rerun, got %v", log)
			}

			must(t, setX.Set(2))
			if len(log) != 1 {
				t.Fatalf("effect ran before its scheduler flush: %v", log)
			}
			class.flush(h.queue)
			want := []string{"run:1", "cleanup:1", "run:2"}
			if !reflect.DeepEqual(log, want) {
				t.Fatalf("expected %v, got %v", want, log)
			}
			if before, after := h.queue.Pending(); before != 0 || after != 0 {
				t.Fatalf("expected empty queues, got %d/%d", before, after)
			}
		})
	}
}

func TestEffectClassesNilDepsRerunEveryRender(t *testing.T) {
	for _, class := range effectClasses {
		class := class
		t.Run(class.name, func(t *testing.T) {
			var log []string
			h := mountHarness(t, func(f *Frame) int {
				pass := int(f.Pass())
				class.use(f, func() Cleanup {
					log = append(log, "run:"+strconv.Itoa(pass))
					return func() { log = append(log, "cleanup:"+strconv.Itoa(pass)) }
				}, nil)
				return pass
			})
			class.flush(h.queue)
			h.render(t)
			class.flush(h.queue)
			h.render(t)
			class.flush(h.queue)

			want := []string{"run:1", "cleanup:1", "run:2", "cleanup:2", "run:3"}
			if !reflect.DeepEqual(log, want) {
				t.Fatalf("expected %v, got %v", want, log)
			}
		})
	}
}

func TestEffectDepsSemantics(t *testing.T) {
	var always, once int
	h := mountHarness(t, func(f *Frame) int {
		UseEffect(f, func() Cleanup { always++; return nil }, nil)
		UseEffect(f, func() Cleanup { once++; return nil }, On())
		return 0
	})
	for i := 0; i < 3; i++ {
		h.queue.Drain()
		h.render(t)
	}
	h.queue.Drain()
	if always != 4 {
		t.Fatalf("nil deps expected 4 runs, got %d", always)
	}
	if once != 1 {
		t.Fatalf("empty deps expected 1 run, got %d", once)
	}
}

func TestLayoutEffectsRunBeforePassiveEffects(t *testing.T) {
	var order []string
	h := mountHarness(t, func(f *Frame) int {
		UseEffect(f, func() Cleanup { order = append(order, "passive-a"); return nil }, On())
		UseLayoutEffect(f, func() Cleanup { order = append(order, "layout-b"); return nil }, On())
		UseEffect(f, func() Cleanup { order = append(order, "passive-c"); return nil }, On())
		UseLayoutEffect(f, func() Cleanup { order = append(order, "layout-d"); return nil }, On())
		return 0
	})

	before, after := h.queue.Pending()
	if before != 2 || after != 2 {
		t.Fatalf("expected 2 layout and 2 passive callbacks, got %d/%d", before, after)
	}
	h.queue.FlushBeforePaint()
	if want := []string{"layout-b", "layout-d"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("expected layout effects first, got %v", order)
	}
	h.queue.Drain()
	want := []string{"layout-b", "layout-d", "passive-a", "passive-c"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
}

func TestEffectSetterRendersSynchronously(t *testing.T) {
	h := mountHarness(t, func(f *Frame) string {
		v, set := UseState(f, "loading")
		UseEffect(f, func() Cleanup {
			if err := set.Set("ready"); err != nil {
				t.Errorf("set: %v", err)
			}
			return nil
		}, On())
		return v
	})
	h.queue.Drain()
	if got := h.last(); got != "ready" {
		t.Fatalf("expected effect-triggered render, got %q", got)
	}
}

func TestUnmountRunsCleanupsLayoutFirst(t *testing.T) {
	var order []string
	h := mountHarness(t, func(f *Frame) int {
		UseEffect(f, func() Cleanup {
			return func() { order = append(order, "passive-0") }
		}, On())
		UseLayoutEffect(f, func() Cleanup {
			return func() { order = append(order, "layout-1") }
		}, On())
		UseEffect(f, func() Cleanup {
			return func() { order = append(order, "passive-2") }
		}, On())
		return 0
	})
	h.queue.Drain()
	must(t, h.inst.Unmount())

	want := []string{"layout-1", "passive-0", "passive-2"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	if len(h.eventsOf(LogUnmount)) != 1 {
		t.Fatalf("expected one unmount log event")
	}
}

func TestEffectsQueuedBeforeUnmountAreSkipped(t *testing.T) {
	ran := false
	h := mountHarness(t, func(f *Frame) int {
		UseEffect(f, func() Cleanup { ran = true; return nil }, On())
		return 0
	})
	must(t, h.inst.Unmount())
	h.queue.Drain()
	if ran {
		t.Fatalf("effect ran after unmount")
	}
}

func TestFailedRenderDoesNotScheduleEffects(t *testing.T) {
	var (
		runs int
		fail bool
		setN Setter[int]
	)
	h := mountHarness(t, func(f *Frame) int {
		n, set := UseState(f, 0)
		setN = set
		UseEffect(f, func() Cleanup { runs++; return nil }, On(n))
		if fail {
			f.Abort(nil)
		}
		return n
	})
	h.queue.Drain()

	fail = true
	if err := setN.Set(1); err == nil {
		t.Fatalf("expected aborted render to fail")
	}
	if before, after := h.queue.Pending(); before != 0 || after != 0 {
		t.Fatalf("aborted render scheduled work: %d/%d", before, after)
	}

	fail = false
	h.render(t)
	h.queue.Drain()
	if runs != 2 {
		t.Fatalf("expected effect to rerun after recovery, got %d runs", runs)
	}
}

func TestEffectLogEvents(t *testing.T) {
	h := mountHarness(t, func(f *Frame) int {
		UseLayoutEffect(f, func() Cleanup { return nil }, On())
		return 0
	})
	h.queue.Drain()
	events := h.eventsOf(LogEffect)
	if len(events) != 1 || events[0].Message != "layout_effect" || events[0].Slot != 0 {
		t.Fatalf("unexpected effect events: %+v", events)
	}
	if len(h.eventsOf(LogCommit)) != 1 || h.eventsOf(LogCommit)[0].Message != "root" {
		t.Fatalf("expected one commit event for target root")
	}
}
