package hydrate

import "reflect"

// WithDefaults fills reference fields the payload left unset (nil pointers,
// maps, slices and interfaces) from defaults after decoding. Scalars always
// keep the decoded value, so a persisted zero is not mistaken for a gap.
func WithDefaults[T any](defaults T) DecoderOption[T] {
	return WithPostHook(func(_ Context, value *T) error {
		*value = Overlay(*value, defaults)
		return nil
	})
}

// Overlay returns a deep copy of value with its gaps filled from defaults.
func Overlay[T any](value, defaults T) T {
	out := overlay(reflect.ValueOf(&value).Elem(), reflect.ValueOf(&defaults).Elem())
	if !out.IsValid() {
		var zero T
		return zero
	}
	result := reflect.New(reflect.TypeOf(&value).Elem()).Elem()
	result.Set(out)
	return result.Interface().(T)
}

func overlay(value, defaults reflect.Value) reflect.Value {
	if !value.IsValid() {
		return deepCopy(defaults)
	}
	if !defaults.IsValid() || defaults.Type() != value.Type() {
		return deepCopy(value)
	}

	switch value.Kind() {
	case reflect.Pointer:
		if value.IsNil() {
			return deepCopy(defaults)
		}
		var inner reflect.Value
		if !defaults.IsNil() {
			inner = defaults.Elem()
		}
		out := reflect.New(value.Type().Elem())
		out.Elem().Set(overlay(value.Elem(), inner))
		return out
	case reflect.Interface:
		if value.IsNil() {
			return deepCopy(defaults)
		}
		var inner reflect.Value
		if !defaults.IsNil() {
			inner = defaults.Elem()
		}
		out := reflect.New(value.Type()).Elem()
		out.Set(overlay(value.Elem(), inner))
		return out
	case reflect.Struct:
		out := reflect.New(value.Type()).Elem()
		for i := 0; i < value.NumField(); i++ {
			if !out.Field(i).CanSet() {
				continue
			}
			out.Field(i).Set(overlay(value.Field(i), defaults.Field(i)))
		}
		return out
	case reflect.Map:
		if value.IsNil() {
			return deepCopy(defaults)
		}
		out := reflect.MakeMapWithSize(value.Type(), value.Len())
		iter := value.MapRange()
		for iter.Next() {
			entry := iter.Value()
			if fallback := defaults.MapIndex(iter.Key()); fallback.IsValid() {
				entry = overlay(entry, fallback)
			} else {
				entry = deepCopy(entry)
			}
			out.SetMapIndex(iter.Key(), entry)
		}
		return out
	case reflect.Slice:
		if value.IsNil() {
			return deepCopy(defaults)
		}
		return deepCopy(value)
	case reflect.Array:
		out := reflect.New(value.Type()).Elem()
		for i := 0; i < value.Len(); i++ {
			out.Index(i).Set(overlay(value.Index(i), defaults.Index(i)))
		}
		return out
	}
	return deepCopy(value)
}

func deepCopy(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopy(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(deepCopy(v.Elem()))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if out.Field(i).CanSet() {
				out.Field(i).Set(deepCopy(v.Field(i)))
			}
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	}
	out := reflect.New(v.Type()).Elem()
	out.Set(v)
	return out
}
