// Package layout decides whether an element type may live in native memory.
//
// Memory handed out by the native allocator is invisible to the garbage
// collector, so an element type must not carry pointers the collector would
// need to follow. Go has no constraint for "pointer free", so the check runs
// once per type at construction and the verdict is cached.
package layout

import (
	"fmt"
	"reflect"
	"sync"
)

var verdicts sync.Map // reflect.Type -> error

// Check returns nil when T is blittable: fixed size with no pointers,
// slices, maps, interfaces, funcs, chans or strings anywhere in its layout.
func Check[T any]() error {
	t := reflect.TypeFor[T]()
	if v, ok := verdicts.Load(t); ok {
		if v == nil {
			return nil
		}
		return v.(error)
	}
	var err error
	if path, bad := forbidden(t, t.String()); bad {
		err = fmt.Errorf("%s holds a reference at %s", t, path)
	} else if t.Size() == 0 {
		err = fmt.Errorf("%s has zero size", t)
	}
	verdicts.Store(t, err)
	return err
}

func forbidden(t reflect.Type, path string) (string, bool) {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Slice, reflect.Map,
		reflect.Interface, reflect.Func, reflect.Chan, reflect.String:
		return path, true
	case reflect.Array:
		return forbidden(t.Elem(), path+"[]")
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if p, bad := forbidden(f.Type, path+"."+f.Name); bad {
				return p, true
			}
		}
	}
	return "", false
}

// Numeric reports whether T is an integer or floating point kind.
func Numeric[T any]() bool {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
