package hooks

// Ref is a mutable box that survives renders. Writing Current never triggers a
// render.
type Ref[T any] struct {
	Current T
}

// UseRef returns the same box on every render of the instance.
func UseRef[T any](f *Frame, initial T) *Ref[T] {
	index := f.cursor()
	sl := f.read(SlotRef, func() *slot {
		return &slot{value: &Ref[T]{Current: initial}, committed: true}
	})
	ref, ok := sl.value.(*Ref[T])
	if !ok {
		f.typeMismatch(index, SlotRef, sl.value, typeName[*Ref[T]]())
	}
	f.advance()
	return ref
}
