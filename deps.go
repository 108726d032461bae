package hooks

import (
	"reflect"
	"unsafe"
)

// Deps is the dependency sequence of a gated hook. A nil Deps re-runs on every
// render; an empty, non-nil Deps runs once.
type Deps []any

// On builds a dependency sequence. On() returns an empty, non-nil Deps.
func On(values ...any) Deps {
	if values == nil {
		return Deps{}
	}
	return Deps(values)
}

// depsChanged reports whether next differs from prev. The bool result flags a
// length mismatch, which counts as changed.
func depsChanged(prev, next Deps) (changed bool, mismatch bool) {
	if next == nil || prev == nil {
		return true, false
	}
	if len(prev) != len(next) {
		return true, true
	}
	for i := range next {
		if !SameIdentity(prev[i], next[i]) {
			return true, false
		}
	}
	return false, false
}

// SameIdentity compares two dependency values by identity.
//
// Reference-like values (pointers, maps, channels, funcs) are equal only when
// they refer to the same object. Slices are equal when they share the same
// backing array and length. Other comparable values use ==. Values that cannot
// be compared are reported as different.
func SameIdentity(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Func:
		return funcPointer(a) == funcPointer(b)
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	case reflect.Slice:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !ta.Comparable() {
		return false
	}
	return safeEqual(a, b)
}

// funcPointer returns the closure object behind a func value. reflect only
// exposes the code pointer, which closures created from the same literal share.
func funcPointer(fn any) unsafe.Pointer {
	type eface struct {
		typ  unsafe.Pointer
		data unsafe.Pointer
	}
	return (*eface)(unsafe.Pointer(&fn)).data
}

// safeEqual guards structs and arrays whose interface fields hold
// non-comparable values.
func safeEqual(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}

func (d Deps) clone() Deps {
	if d == nil {
		return nil
	}
	out := make(Deps, len(d))
	copy(out, d)
	return out
}
