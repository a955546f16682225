package dup

import "reflect"

// Cloner is implemented by types that define their own duplication.
type Cloner[T any] interface {
	Clone() T
}

// Of returns a duplicate of v that shares no map, slice, or array storage
// with it.
func Of[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}

	var out T

	src := reflect.ValueOf(&v).Elem()
	reflect.ValueOf(&out).Elem().Set(newCopier().copy(src))

	return out
}

// Value is the untyped form of [Of]. The result has the same dynamic type
// as v.
func Value(v any) any {
	if v == nil {
		return nil
	}

	return newCopier().copy(reflect.ValueOf(v)).Interface()
}

type visit struct {
	ptr uintptr
	typ reflect.Type
	n   int
}

type copier struct {
	seen map[visit]reflect.Value
}

func newCopier() *copier {
	return &copier{seen: make(map[visit]reflect.Value)}
}

// copy returns a duplicate of v. Maps, slices, and arrays are copied
// element by element, and so are the exported fields of structs. Pointers,
// unexported fields, funcs, and chans are copied as Go assignment copies
// them, so the duplicate refers to the same objects.
func (c *copier) copy(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	if out, ok := c.cloneMethod(v); ok {
		return out
	}

	t := v.Type()

	switch t.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}

		out := reflect.New(t).Elem()
		out.Set(c.copy(v.Elem()))

		return out

	case reflect.Struct:
		out := reflect.New(t).Elem()
		out.Set(v)

		for i := range out.NumField() {
			if f := out.Field(i); f.CanSet() {
				f.Set(c.copy(f))
			}
		}

		return out

	case reflect.Slice:
		if v.IsNil() {
			return v
		}

		key := visit{v.Pointer(), t, v.Len()}
		if out, ok := c.seen[key]; ok {
			return out
		}

		out := reflect.MakeSlice(t, v.Len(), v.Cap())
		c.seen[key] = out

		for i := range v.Len() {
			out.Index(i).Set(c.copy(v.Index(i)))
		}

		return out

	case reflect.Array:
		out := reflect.New(t).Elem()
		for i := range v.Len() {
			out.Index(i).Set(c.copy(v.Index(i)))
		}

		return out

	case reflect.Map:
		if v.IsNil() {
			return v
		}

		key := visit{v.Pointer(), t, 0}
		if out, ok := c.seen[key]; ok {
			return out
		}

		out := reflect.MakeMapWithSize(t, v.Len())
		c.seen[key] = out

		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(c.copy(iter.Key()), c.copy(iter.Value()))
		}

		return out

	default:
		return v
	}
}

// cloneMethod calls v.Clone when v's type has a method Clone() of its own
// type.
func (c *copier) cloneMethod(v reflect.Value) (reflect.Value, bool) {
	t := v.Type()

	if !v.CanInterface() {
		return reflect.Value{}, false
	}

	m, ok := t.MethodByName("Clone")
	if !ok || m.Type.NumIn() != 1 || m.Type.NumOut() != 1 || m.Type.Out(0) != t {
		return reflect.Value{}, false
	}

	if t.Kind() == reflect.Pointer && v.IsNil() {
		return v, true
	}

	return v.Method(m.Index).Call(nil)[0], true
}
