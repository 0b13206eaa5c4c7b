package zend

import (
	"fmt"
)

// Object is a class instance: a class entry, a unique handle, and property
// storage. Native-backed instances embed an Object inside a ClassObject
// container; the engine only ever sees the embedded part.
type Object struct {
	ce       *ClassEntry
	handle   uint32
	props    *HashTable
	invoke   *Function
	refcount uint32
}

// NewStdClass returns a fresh stdClass instance with empty property storage.
func NewStdClass() *Object {
	return newStdObject(StdClassCE())
}

func newStdObject(ce *ClassEntry) *Object {
	o := &Object{}
	initObject(o, ce)
	return o
}

// initObject wires an object (possibly embedded in a larger allocation) to
// its class: handle assignment and materialized property defaults.
func initObject(o *Object, ce *ClassEntry) {
	o.ce = ce
	o.handle = Executor().nextObjectHandle()
	o.props = NewHashTable()
	o.refcount = 1
	for c := ce; c != nil; c = c.parent {
		for _, name := range c.propOrder {
			if o.props.Has(name) {
				continue
			}
			info := c.propInfos[name]
			o.props.InsertZval(name, info.Default.ShallowClone())
		}
	}
}

// CE returns the object's class entry.
func (o *Object) CE() *ClassEntry { return o.ce }

// Handle returns the engine-wide unique object handle.
func (o *Object) Handle() uint32 { return o.handle }

// ClassName returns the name of the object's class.
func (o *Object) ClassName() string { return o.ce.Name() }

// InstanceOf reports whether the object is an instance of ce, directly or
// through inheritance.
func (o *Object) InstanceOf(ce *ClassEntry) bool { return o.ce.InstanceOf(ce) }

func (o *Object) String() string {
	return fmt.Sprintf("%s#%d", o.ce.Name(), o.handle)
}

// ---------------------------------------------------------------------------
// Property access

// ReadProperty reads a property through the class's read hook. The returned
// cell is borrowed; callers keep it alive with ShallowClone.
func (o *Object) ReadProperty(name string) (*Zval, error) {
	rv := NewZval()
	v, err := o.ce.handlers.ReadProperty(o, name, &rv)
	if err != nil {
		return nil, fmt.Errorf("zend: read property %s::$%s: %w", o.ce.Name(), name, err)
	}
	return v, nil
}

// WriteProperty writes a cell through the class's write hook, taking
// ownership of value.
func (o *Object) WriteProperty(name string, value Zval) error {
	if err := o.ce.handlers.WriteProperty(o, name, value); err != nil {
		return fmt.Errorf("zend: write property %s::$%s: %w", o.ce.Name(), name, err)
	}
	return nil
}

// SetProperty converts a native value and writes it as a property.
func (o *Object) SetProperty(name string, v any) error {
	z, err := ZvalOf(v)
	if err != nil {
		return fmt.Errorf("zend: set property %s::$%s: %w", o.ce.Name(), name, err)
	}
	return o.WriteProperty(name, z)
}

// HasProperty answers the given query through the class's has hook.
func (o *Object) HasProperty(name string, query PropertyQuery) (bool, error) {
	return o.ce.handlers.HasProperty(o, name, query)
}

// Properties returns the enumerable property table through the class's
// enumerate hook. The table is borrowed.
func (o *Object) Properties() (*HashTable, error) {
	return o.ce.handlers.GetProperties(o)
}

// GetProperty reads a property and converts it to a native value.
func GetProperty[T any](o *Object, name string) (T, error) {
	var out T
	v, err := o.ReadProperty(name)
	if err != nil {
		return out, err
	}
	if err := FromZval(v, &out); err != nil {
		return out, fmt.Errorf("zend: property %s::$%s: %w", o.ce.Name(), name, err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Method dispatch

// TryCallMethod resolves and invokes a method on the object. An exception
// raised by the method stays pending on the executor; the caller decides
// when to surface it. Returns ErrNotCallable when no such method exists.
func (o *Object) TryCallMethod(name string, args ...any) (Zval, error) {
	fn, ok := o.ce.Method(name)
	if !ok {
		return NewZval(), fmt.Errorf("zend: call %s::%s: %w", o.ce.Name(), name, ErrNotCallable)
	}
	return callFunction(fn, o, args)
}

// ---------------------------------------------------------------------------
// Lifetime

// AddRef takes an additional reference on the object.
func (o *Object) AddRef() { o.refcount++ }

// Release drops a reference. At zero the class's free hook runs once and the
// property storage is torn down.
func (o *Object) Release() {
	if o.refcount == 0 {
		return
	}
	o.refcount--
	if o.refcount > 0 {
		return
	}
	if free := o.ce.handlers.Free; free != nil {
		free(o)
	}
	if o.props != nil {
		o.props.Release()
		o.props = nil
	}
}

// Refcount returns the current reference count.
func (o *Object) Refcount() uint32 { return o.refcount }
