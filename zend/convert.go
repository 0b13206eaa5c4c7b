package zend

import (
	"fmt"
	"math"
	"reflect"
)

// Zvalable is implemented by native types that know how to store themselves
// into a value cell.
type Zvalable interface {
	IntoZval(dst *Zval) error
}

// ZvalScanner is implemented by native types that know how to read
// themselves out of a value cell.
type ZvalScanner interface {
	FromZval(src *Zval) error
}

// ToZval converts a native Go value into dst, releasing whatever dst held.
// Scalars, strings, byte slices, engine handles, maps with string or integer
// keys, and slices/arrays of convertible elements are supported, plus any
// type implementing Zvalable. A failing element aborts the whole conversion
// with that element's error.
func ToZval(dst *Zval, v any) error {
	switch val := v.(type) {
	case nil:
		dst.SetNull()
		return nil
	case Zval:
		dst.Release()
		*dst = val
		return nil
	case *Zval:
		dst.Release()
		*dst = val.ShallowClone()
		return nil
	case bool:
		dst.SetBool(val)
		return nil
	case int:
		dst.SetLong(int64(val))
		return nil
	case int8:
		dst.SetLong(int64(val))
		return nil
	case int16:
		dst.SetLong(int64(val))
		return nil
	case int32:
		dst.SetLong(int64(val))
		return nil
	case int64:
		dst.SetLong(val)
		return nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return ErrIntegerOverflow
		}
		dst.SetLong(int64(val))
		return nil
	case uint8:
		dst.SetLong(int64(val))
		return nil
	case uint16:
		dst.SetLong(int64(val))
		return nil
	case uint32:
		dst.SetLong(int64(val))
		return nil
	case uint64:
		if val > math.MaxInt64 {
			return ErrIntegerOverflow
		}
		dst.SetLong(int64(val))
		return nil
	case float32:
		dst.SetDouble(float64(val))
		return nil
	case float64:
		dst.SetDouble(val)
		return nil
	case string:
		dst.SetString(val)
		return nil
	case []byte:
		dst.SetString(string(val))
		return nil
	case *ZString:
		dst.SetZStr(val)
		return nil
	case *HashTable:
		dst.SetArray(val)
		return nil
	case *Object:
		dst.SetObject(val)
		return nil
	case *Resource:
		dst.SetResource(val)
		return nil
	case *Reference:
		dst.SetReference(val)
		return nil
	case Zvalable:
		return val.IntoZval(dst)
	}
	return toZvalReflect(dst, reflect.ValueOf(v))
}

// ZvalOf is the allocating form of ToZval.
func ZvalOf(v any) (Zval, error) {
	z := NewZval()
	err := ToZval(&z, v)
	return z, err
}

// toZvalReflect handles named scalar types, maps, and slices that the fast
// path's type switch cannot see.
func toZvalReflect(dst *Zval, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Bool:
		dst.SetBool(rv.Bool())
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetLong(rv.Int())
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return ErrIntegerOverflow
		}
		dst.SetLong(int64(rv.Uint()))
		return nil
	case reflect.Float32, reflect.Float64:
		dst.SetDouble(rv.Float())
		return nil
	case reflect.String:
		dst.SetString(rv.String())
		return nil
	case reflect.Map:
		return mapToZval(dst, rv)
	case reflect.Slice, reflect.Array:
		return sliceToZval(dst, rv)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			dst.SetNull()
			return nil
		}
		return ToZval(dst, rv.Elem().Interface())
	}
	return fmt.Errorf("cannot convert Go %s into a value cell", rv.Type())
}

func mapToZval(dst *Zval, rv reflect.Value) error {
	ht := NewHashTableSized(rv.Len())
	keyKind := rv.Type().Key().Kind()
	iter := rv.MapRange()
	for iter.Next() {
		var err error
		switch {
		case keyKind == reflect.String:
			err = ht.Insert(iter.Key().String(), iter.Value().Interface())
		case keyKind >= reflect.Int && keyKind <= reflect.Int64:
			err = ht.InsertAt(iter.Key().Int(), iter.Value().Interface())
		case keyKind >= reflect.Uint && keyKind <= reflect.Uint64:
			k := iter.Key().Uint()
			if k > math.MaxInt64 {
				err = ErrIntegerOverflow
			} else {
				err = ht.InsertAt(int64(k), iter.Value().Interface())
			}
		default:
			err = fmt.Errorf("cannot use Go %s as an array key", rv.Type().Key())
		}
		if err != nil {
			ht.Release()
			return err
		}
	}
	dst.SetArray(ht)
	return nil
}

func sliceToZval(dst *Zval, rv reflect.Value) error {
	ht := NewHashTableSized(rv.Len())
	for i := 0; i < rv.Len(); i++ {
		if err := ht.Push(rv.Index(i).Interface()); err != nil {
			ht.Release()
			return err
		}
	}
	dst.SetArray(ht)
	return nil
}

// FromZval extracts a native Go value out of src into dst, which must be a
// non-nil pointer. A mismatched payload yields a ConversionError naming the
// cell's tag; container conversions propagate the first failing element's
// error.
func FromZval(src *Zval, dst any) error {
	switch out := dst.(type) {
	case *Zval:
		out.Release()
		*out = src.ShallowClone()
		return nil
	case *bool:
		v, ok := src.Bool()
		if !ok {
			return &ConversionError{Type: src.Type()}
		}
		*out = v
		return nil
	case *int64:
		v, ok := src.Long()
		if !ok {
			return &ConversionError{Type: src.Type()}
		}
		*out = v
		return nil
	case *float64:
		v, ok := src.Double()
		if !ok {
			return &ConversionError{Type: src.Type()}
		}
		*out = v
		return nil
	case *string:
		v, ok := src.Str()
		if !ok {
			return &ConversionError{Type: src.Type()}
		}
		*out = v
		return nil
	case *[]byte:
		v, ok := src.Str()
		if !ok {
			return &ConversionError{Type: src.Type()}
		}
		*out = []byte(v)
		return nil
	case **ZString:
		v, ok := src.ZStr()
		if !ok {
			return &ConversionError{Type: src.Type()}
		}
		*out = v
		return nil
	case **HashTable:
		v, ok := src.Array()
		if !ok {
			return &ConversionError{Type: src.Type()}
		}
		*out = v
		return nil
	case **Object:
		v, ok := src.Object()
		if !ok {
			return &ConversionError{Type: src.Type()}
		}
		*out = v
		return nil
	case **Resource:
		v, ok := src.Resource()
		if !ok {
			return &ConversionError{Type: src.Type()}
		}
		*out = v
		return nil
	case **Reference:
		v, ok := src.Reference()
		if !ok {
			return &ConversionError{Type: src.Type()}
		}
		*out = v
		return nil
	case ZvalScanner:
		return out.FromZval(src)
	}

	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("FromZval destination must be a non-nil pointer, got %T", dst)
	}
	return fromZvalReflect(src, rv.Elem())
}

func fromZvalReflect(src *Zval, out reflect.Value) error {
	switch out.Kind() {
	case reflect.Bool:
		v, ok := src.Bool()
		if !ok {
			return &ConversionError{Type: src.Type()}
		}
		out.SetBool(v)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, ok := src.Long()
		if !ok {
			return &ConversionError{Type: src.Type()}
		}
		if out.OverflowInt(v) {
			return ErrIntegerOverflow
		}
		out.SetInt(v)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, ok := src.Long()
		if !ok {
			return &ConversionError{Type: src.Type()}
		}
		if v < 0 || out.OverflowUint(uint64(v)) {
			return ErrIntegerOverflow
		}
		out.SetUint(uint64(v))
		return nil
	case reflect.Float32, reflect.Float64:
		v, ok := src.Double()
		if !ok {
			return &ConversionError{Type: src.Type()}
		}
		out.SetFloat(v)
		return nil
	case reflect.String:
		v, ok := src.Str()
		if !ok {
			return &ConversionError{Type: src.Type()}
		}
		out.SetString(v)
		return nil
	case reflect.Map:
		return zvalToMap(src, out)
	case reflect.Slice:
		return zvalToSlice(src, out)
	case reflect.Pointer:
		if src.IsNull() || src.IsUndef() {
			out.SetZero()
			return nil
		}
		if out.IsNil() {
			out.Set(reflect.New(out.Type().Elem()))
		}
		return fromZvalReflect(src, out.Elem())
	case reflect.Interface:
		if out.NumMethod() == 0 {
			v, err := zvalToAny(src)
			if err != nil {
				return err
			}
			out.Set(reflect.ValueOf(&v).Elem())
			return nil
		}
	}
	return &ConversionError{Type: src.Type()}
}

// zvalToMap fills a Go map from an array cell. String-keyed maps accept both
// key kinds (integer keys print in decimal); integer-keyed maps reject
// string keys.
func zvalToMap(src *Zval, out reflect.Value) error {
	ht, ok := src.Array()
	if !ok {
		return &ConversionError{Type: src.Type()}
	}
	mt := out.Type()
	m := reflect.MakeMapWithSize(mt, ht.Len())
	err := ht.ForEach(func(k ArrayKey, v *Zval) error {
		elem := reflect.New(mt.Elem())
		if err := fromZvalReflect(v, elem.Elem()); err != nil {
			return err
		}
		var key reflect.Value
		switch {
		case mt.Key().Kind() == reflect.String:
			key = reflect.ValueOf(k.String()).Convert(mt.Key())
		case mt.Key().Kind() >= reflect.Int && mt.Key().Kind() <= reflect.Int64:
			idx, isLong := k.Long()
			if !isLong {
				return &ConversionError{Type: TypeString}
			}
			key = reflect.ValueOf(idx).Convert(mt.Key())
		default:
			return fmt.Errorf("cannot use Go %s as an array key", mt.Key())
		}
		m.SetMapIndex(key, elem.Elem())
		return nil
	})
	if err != nil {
		return err
	}
	out.Set(m)
	return nil
}

// zvalToSlice collects the array's values in iteration order.
func zvalToSlice(src *Zval, out reflect.Value) error {
	ht, ok := src.Array()
	if !ok {
		return &ConversionError{Type: src.Type()}
	}
	st := out.Type()
	s := reflect.MakeSlice(st, 0, ht.Len())
	err := ht.ForEach(func(_ ArrayKey, v *Zval) error {
		elem := reflect.New(st.Elem())
		if err := fromZvalReflect(v, elem.Elem()); err != nil {
			return err
		}
		s = reflect.Append(s, elem.Elem())
		return nil
	})
	if err != nil {
		return err
	}
	out.Set(s)
	return nil
}

// zvalToAny maps a cell onto the loosest matching Go value, used when the
// destination is an empty interface.
func zvalToAny(src *Zval) (any, error) {
	switch src.Type() {
	case TypeUndef, TypeNull:
		return nil, nil
	case TypeTrue:
		return true, nil
	case TypeFalse:
		return false, nil
	case TypeLong:
		v, _ := src.Long()
		return v, nil
	case TypeDouble:
		v, _ := src.Double()
		return v, nil
	case TypeString:
		v, _ := src.Str()
		return v, nil
	case TypeArray:
		ht, _ := src.Array()
		if ht.HasSequentialKeys() {
			out := make([]any, 0, ht.Len())
			err := ht.ForEach(func(_ ArrayKey, v *Zval) error {
				av, err := zvalToAny(v)
				if err != nil {
					return err
				}
				out = append(out, av)
				return nil
			})
			return out, err
		}
		out := make(map[string]any, ht.Len())
		err := ht.ForEach(func(k ArrayKey, v *Zval) error {
			av, err := zvalToAny(v)
			if err != nil {
				return err
			}
			out[k.String()] = av
			return nil
		})
		return out, err
	case TypeObject:
		v, _ := src.Object()
		return v, nil
	case TypeResource:
		v, _ := src.Resource()
		return v, nil
	case TypeReference:
		return zvalToAny(src.Dereference())
	}
	return nil, &ConversionError{Type: src.Type()}
}
