package zend

import (
	"fmt"
	"reflect"
	"unsafe"
)

// ClassObject couples a native Go value to the engine object embedded after
// it. The engine only ever holds the embedded Object; recovery walks back
// from that pointer using the container offset computed once per type.
type ClassObject[T any] struct {
	hasObj    bool
	finalized bool
	obj       T
	std       Object
}

// Finalizer is implemented by native types that want a teardown call when
// their containing object is freed. Finalize runs at most once.
type Finalizer interface {
	Finalize()
}

// NewClassObject allocates a container for a registered class and
// initializes it with val. The class must have been registered first.
func NewClassObject[T any](val T) *ClassObject[T] {
	co := newClassObjectUninit[T]()
	co.Initialize(val)
	return co
}

// newClassObjectUninit allocates a container whose native half is not yet
// initialized, as the create hook does during instantiation from script.
func newClassObjectUninit[T any]() *ClassObject[T] {
	ce := Metadata[T]().CE()
	co := &ClassObject[T]{}
	initObject(&co.std, ce)
	return co
}

// Std returns the embedded engine object.
func (co *ClassObject[T]) Std() *Object { return &co.std }

// Obj returns the native value. It panics when the container was created by
// the engine and never initialized.
func (co *ClassObject[T]) Obj() *T {
	if !co.hasObj {
		panic("Attempted to access uninitialized class object")
	}
	return &co.obj
}

// TryObj returns the native value, or false when uninitialized.
func (co *ClassObject[T]) TryObj() (*T, bool) {
	if !co.hasObj {
		return nil, false
	}
	return &co.obj, true
}

// IsInitialized reports whether the native half holds a value.
func (co *ClassObject[T]) IsInitialized() bool { return co.hasObj }

// Initialize installs val as the native half and returns the previous value
// when one was present.
func (co *ClassObject[T]) Initialize(val T) (T, bool) {
	var prev T
	had := co.hasObj
	if had {
		prev = co.obj
	}
	co.obj = val
	co.hasObj = true
	co.finalized = false
	return prev, had
}

// ---------------------------------------------------------------------------
// Recovery

// ObjectOf recovers the container from the engine object embedded in it.
// The object must be an instance of T's registered class, otherwise
// ErrInvalidScope is returned.
func ObjectOf[T any](o *Object) (*ClassObject[T], error) {
	if o == nil {
		return nil, ErrInvalidScope
	}
	meta := Metadata[T]()
	ce := meta.CE()
	if !o.CE().InstanceOf(ce) {
		return nil, ErrInvalidScope
	}
	base := unsafe.Add(unsafe.Pointer(o), -int(meta.m.offset))
	return (*ClassObject[T])(base), nil
}

// ObjOf recovers the native value directly from an engine object.
func ObjOf[T any](o *Object) (*T, error) {
	co, err := ObjectOf[T](o)
	if err != nil {
		return nil, err
	}
	return co.Obj(), nil
}

// ReturnObject wraps val in a fresh container and stores it in ret. The
// construction reference moves to the zval, leaving it as the sole owner.
func ReturnObject[T any](ret *Zval, val T) {
	std := NewClassObject[T](val).Std()
	ret.SetObject(std)
	std.Release()
}

// ---------------------------------------------------------------------------
// Per-type metadata

type classMeta struct {
	typeName string
	ce       *ClassEntry
	offset   uintptr
}

// ClassMetadata ties a native type to its registered class entry and the
// byte offset of the embedded engine object within its container.
type ClassMetadata[T any] struct {
	m *classMeta
}

// Metadata returns the metadata slot for T, creating it on first use. The
// container offset is measured once, on a probe allocation, and cached.
func Metadata[T any]() *ClassMetadata[T] {
	t := reflect.TypeOf((*T)(nil)).Elem()
	m := Executor().classMetaFor(t, func() uintptr {
		probe := new(ClassObject[T])
		return uintptr(unsafe.Pointer(&probe.std)) - uintptr(unsafe.Pointer(probe))
	})
	return &ClassMetadata[T]{m: m}
}

// CE returns the registered class entry for T, panicking when the class was
// never registered.
func (cm *ClassMetadata[T]) CE() *ClassEntry {
	ce := Executor().classMetaCE(cm.m)
	if ce == nil {
		panic(fmt.Sprintf("Class %s was not registered.", cm.m.typeName))
	}
	return ce
}

// HasCE reports whether T's class has been registered.
func (cm *ClassMetadata[T]) HasCE() bool {
	return Executor().classMetaCE(cm.m) != nil
}

// SetCE records the class entry for T. Setting it twice panics; a class
// entry binds to exactly one native type for the life of the executor.
func (cm *ClassMetadata[T]) SetCE(ce *ClassEntry) {
	Executor().setClassMetaCE(cm.m, ce)
}

// ---------------------------------------------------------------------------
// Hooks installed by the class builder

// classObjectCreator builds the create hook for T: an uninitialized
// container carrying whatever (sub)class entry the engine instantiates.
func classObjectCreator[T any]() func(*ClassEntry) *Object {
	return func(ce *ClassEntry) *Object {
		co := &ClassObject[T]{}
		initObject(&co.std, ce)
		return &co.std
	}
}

// classObjectFree builds the free hook for T, running the native Finalizer
// at most once.
func classObjectFree[T any]() func(*Object) {
	return func(o *Object) {
		co, err := ObjectOf[T](o)
		if err != nil {
			return
		}
		if !co.hasObj || co.finalized {
			return
		}
		co.finalized = true
		if f, ok := any(&co.obj).(Finalizer); ok {
			f.Finalize()
		}
	}
}
