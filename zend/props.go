package zend

import "sort"

// Property is a native-backed property accessor: how the engine reads and
// writes one property of a ClassObject's native half. Either side may be
// absent, making the property write-only or read-only.
type Property[T any] struct {
	get func(*T, *Zval) error
	set func(*T, *Zval) error
}

// NewProperty builds an accessor from raw cell functions.
func NewProperty[T any](get func(*T, *Zval) error, set func(*T, *Zval) error) Property[T] {
	return Property[T]{get: get, set: set}
}

// FieldProperty builds an accessor backed by a struct field. The selector
// returns a pointer to the field within the native value.
func FieldProperty[T any, V any](sel func(*T) *V) Property[T] {
	return Property[T]{
		get: func(t *T, rv *Zval) error {
			return ToZval(rv, *sel(t))
		},
		set: func(t *T, v *Zval) error {
			return FromZval(v, sel(t))
		},
	}
}

// MethodProperty builds an accessor backed by getter and setter methods.
// Either may be nil.
func MethodProperty[T any, V any](get func(*T) V, set func(*T, V)) Property[T] {
	var p Property[T]
	if get != nil {
		p.get = func(t *T, rv *Zval) error {
			return ToZval(rv, get(t))
		}
	}
	if set != nil {
		p.set = func(t *T, v *Zval) error {
			var val V
			if err := FromZval(v, &val); err != nil {
				return err
			}
			set(t, val)
			return nil
		}
	}
	return p
}

// Get reads the property into rv. Write-only properties report
// ErrInvalidProperty.
func (p Property[T]) Get(t *T, rv *Zval) error {
	if p.get == nil {
		return ErrInvalidProperty
	}
	return p.get(t, rv)
}

// Set writes the property from v. Read-only properties report
// ErrInvalidProperty.
func (p Property[T]) Set(t *T, v *Zval) error {
	if p.set == nil {
		return ErrInvalidProperty
	}
	return p.set(t, v)
}

// ---------------------------------------------------------------------------
// Overlay handlers

// overlayHandlers builds the handler set for a class whose objects embed a
// native T. Named accessors take priority; everything else falls through to
// the standard storage handlers. The free hook runs the native finalizer.
func overlayHandlers[T any](props map[string]Property[T]) *ObjectHandlers {
	return &ObjectHandlers{
		ReadProperty: func(obj *Object, name string, rv *Zval) (*Zval, error) {
			if p, ok := props[name]; ok {
				co, err := ObjectOf[T](obj)
				if err != nil {
					return nil, err
				}
				if err := p.Get(co.Obj(), rv); err != nil {
					return nil, err
				}
				return rv, nil
			}
			return stdReadProperty(obj, name, rv)
		},
		WriteProperty: func(obj *Object, name string, value Zval) error {
			if p, ok := props[name]; ok {
				co, err := ObjectOf[T](obj)
				if err != nil {
					value.Release()
					return err
				}
				err = p.Set(co.Obj(), &value)
				value.Release()
				return err
			}
			return stdWriteProperty(obj, name, value)
		},
		HasProperty: func(obj *Object, name string, query PropertyQuery) (bool, error) {
			if p, ok := props[name]; ok {
				if query == PropertyQueryExists {
					return true, nil
				}
				co, err := ObjectOf[T](obj)
				if err != nil {
					return false, err
				}
				rv := NewZval()
				if err := p.Get(co.Obj(), &rv); err != nil {
					return false, nil
				}
				defer rv.Release()
				if query == PropertyQueryIsset {
					return !rv.IsNull() && !rv.IsUndef(), nil
				}
				return rv.Truthy(), nil
			}
			return stdHasProperty(obj, name, query)
		},
		GetProperties: func(obj *Object) (*HashTable, error) {
			co, err := ObjectOf[T](obj)
			if err != nil {
				return nil, err
			}
			names := make([]string, 0, len(props))
			for name := range props {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				p := props[name]
				if p.get == nil {
					continue
				}
				rv := NewZval()
				if err := p.Get(co.Obj(), &rv); err != nil {
					// An accessor that cannot produce a value drops out of
					// the enumeration; the rest of the table still lists.
					rv.Release()
					continue
				}
				obj.props.InsertZval(name, rv)
			}
			return obj.props, nil
		},
		Free: classObjectFree[T](),
	}
}
