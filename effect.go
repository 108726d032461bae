package hooks

// Cleanup undoes an effect. It runs right before the effect's next run and
// when the instance unmounts.
type Cleanup func()

// EffectFunc performs a side effect and optionally returns its cleanup.
type EffectFunc func() Cleanup

type effectJob struct {
	slot   *slot
	index  int
	pass   uint64
	effect EffectFunc
	deps   Deps
}

// UseEffect schedules effect to run after the current task once the render
// commits, on mount and whenever deps changed. The previous cleanup runs
// immediately before each new run.
func UseEffect(f *Frame, effect EffectFunc, deps Deps) {
	f.useEffect(SlotEffect, effect, deps)
}

// UseLayoutEffect is UseEffect with the before-paint scheduling class: the
// effect completes before the committed output becomes visible.
func UseLayoutEffect(f *Frame, effect EffectFunc, deps Deps) {
	f.useEffect(SlotLayoutEffect, effect, deps)
}

func (f *Frame) useEffect(kind SlotKind, effect EffectFunc, deps Deps) {
	index := f.cursor()
	sl := f.read(kind, func() *slot { return &slot{} })
	defer f.advance()
	if sl.committed && !f.checkDeps(index, sl.deps, deps) {
		return
	}
	job := effectJob{
		slot:   sl,
		index:  index,
		pass:   f.pass,
		effect: effect,
		deps:   deps.clone(),
	}
	if kind == SlotLayoutEffect {
		f.layout = append(f.layout, job)
		return
	}
	f.passive = append(f.passive, job)
}
