package hooks

import "testing"

func TestUseMemoRecomputesOnlyWhenDepsChange(t *testing.T) {
	var (
		computed int
		setA     Setter[int]
		setB     Setter[int]
	)
	h := mountHarness(t, func(f *Frame) int {
		a, sa := UseState(f, 2)
		b, sb := UseState(f, 0)
		setA, setB = sa, sb
		_ = b
		return UseMemo(f, func() int {
			computed++
			return a * a
		}, On(a))
	})

	must(t, setB.Set(1))
	must(t, setB.Set(2))
	if computed != 1 {
		t.Fatalf("expected one computation, got %d", computed)
	}
	must(t, setA.Set(3))
	if computed != 2 || h.last() != 9 {
		t.Fatalf("expected recompute to 9, got %d after %d computations", h.last(), computed)
	}
}

func TestUseMemoEmptyDepsComputesOnce(t *testing.T) {
	var computed int
	h := mountHarness(t, func(f *Frame) []int {
		return UseMemo(f, func() []int {
			computed++
			return []int{1, 2, 3}
		}, On())
	})
	first := h.last()
	for i := 0; i < 4; i++ {
		h.render(t)
	}
	if computed != 1 {
		t.Fatalf("expected one computation, got %d", computed)
	}
	if !SameIdentity(first, h.last()) {
		t.Fatalf("expected the same slice on every render")
	}
}

func TestUseMemoNilDepsRecomputesEveryRender(t *testing.T) {
	var computed int
	h := mountHarness(t, func(f *Frame) int {
		return UseMemo(f, func() int {
			computed++
			return computed
		}, nil)
	})
	h.render(t)
	h.render(t)
	if computed != 3 || h.last() != 3 {
		t.Fatalf("expected 3 computations, got %d", computed)
	}
}

func TestUseMemoLogsDependencyLengthMismatch(t *testing.T) {
	var deps Deps = On(1)
	h := mountHarness(t, func(f *Frame) int {
		return UseMemo(f, func() int { return len(deps) }, deps)
	})
	deps = On(1, 2)
	h.render(t)

	events := h.eventsOf(LogDependencyMismatch)
	if len(events) != 1 {
		t.Fatalf("expected one mismatch event, got %d", len(events))
	}
	if events[0].Err != ErrDependencyMismatch || events[0].Slot != 0 {
		t.Fatalf("unexpected mismatch event: %+v", events[0])
	}
	if h.last() != 2 {
		t.Fatalf("length change must count as changed, got %d", h.last())
	}
}

func TestUseCallbackKeepsFirstBindingWhileDepsUnchanged(t *testing.T) {
	var (
		setN    Setter[int]
		setKey  Setter[string]
		results []int
	)
	h := mountHarness(t, func(f *Frame) func() int {
		n, sn := UseState(f, 0)
		key, sk := UseState(f, "a")
		setN, setKey = sn, sk
		return UseCallback(f, func() int { return n }, On(key))
	})
	first := h.last()

	must(t, setN.Set(5))
	results = append(results, h.last()())
	if !SameIdentity(first, h.last()) {
		t.Fatalf("callback identity changed with unchanged deps")
	}

	must(t, setKey.Set("b"))
	results = append(results, h.last()())
	if SameIdentity(first, h.last()) {
		t.Fatalf("callback identity kept after deps changed")
	}
	if results[0] != 0 || results[1] != 5 {
		t.Fatalf("expected bound values [0 5], got %v", results)
	}
}

func TestUseCallbackEmptyDepsKeepsIdentity(t *testing.T) {
	counter := 0
	h := mountHarness(t, func(f *Frame) func() {
		local := counter
		counter++
		return UseCallback(f, func() { _ = local }, On())
	})
	first := h.last()
	h.render(t)
	h.render(t)
	if !SameIdentity(first, h.last()) {
		t.Fatalf("expected identical callback across renders")
	}
}
