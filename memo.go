package hooks

// UseMemo returns the value computed by factory, recomputing it only when deps
// changed since the last render. factory must be free of side effects.
func UseMemo[T any](f *Frame, factory func() T, deps Deps) T {
	return useMemoized(f, SlotMemo, factory, deps)
}

// UseCallback returns fn as bound at the last render whose deps changed, so
// the returned function keeps its identity while deps stay the same.
func UseCallback[F any](f *Frame, fn F, deps Deps) F {
	return useMemoized(f, SlotCallback, func() F { return fn }, deps)
}

func useMemoized[T any](f *Frame, kind SlotKind, compute func() T, deps Deps) T {
	index := f.cursor()
	sl := f.read(kind, func() *slot { return &slot{} })
	if sl.committed && !f.checkDeps(index, sl.deps, deps) {
		value, ok := valueAs[T](sl.value)
		if !ok {
			f.typeMismatch(index, kind, sl.value, typeName[T]())
		}
		f.advance()
		return value
	}
	value := compute()
	sl.value = value
	sl.deps = deps.clone()
	sl.committed = true
	f.advance()
	return value
}
