package zend

import (
	"fmt"
	"reflect"
	"sync"
)

// ExecutorGlobals holds the per-process engine state: the class, function,
// constant and module tables, the pending exception slot, and the handle
// counters. A single RWMutex guards the tables; readers on the hot lookup
// paths take the shared side.
type ExecutorGlobals struct {
	mu sync.RWMutex

	classTable    map[string]*ClassEntry
	functionTable map[string]*Function
	constTable    map[string]*Constant
	moduleTable   map[string]*ModuleEntry
	metaTable     map[reflect.Type]*classMeta

	exception *Object

	objectHandle   uint32
	resourceHandle int64
}

var executor *ExecutorGlobals

// The builtin class bootstrap reaches back through Executor while it
// registers the exception hierarchy, so the globals cannot be built in a
// package-level initializer expression.
func init() {
	executor = newExecutorGlobals()
}

// Executor returns the process-wide executor globals.
func Executor() *ExecutorGlobals {
	return executor
}

// ResetExecutor discards all registered state and rebuilds the builtin class
// table. Tests use it to isolate registrations from one another.
func ResetExecutor() {
	executor = newExecutorGlobals()
}

func newExecutorGlobals() *ExecutorGlobals {
	eg := &ExecutorGlobals{
		classTable:    make(map[string]*ClassEntry),
		functionTable: make(map[string]*Function),
		constTable:    make(map[string]*Constant),
		moduleTable:   make(map[string]*ModuleEntry),
		metaTable:     make(map[reflect.Type]*classMeta),
	}
	registerBuiltinClasses(eg)
	return eg
}

// ---------------------------------------------------------------------------
// Class table

// Class looks up a class entry by name. Class names compare
// case-insensitively, as they do in the language.
func (eg *ExecutorGlobals) Class(name string) (*ClassEntry, bool) {
	eg.mu.RLock()
	defer eg.mu.RUnlock()
	ce, ok := eg.classTable[lowerASCII(name)]
	return ce, ok
}

func (eg *ExecutorGlobals) registerClass(ce *ClassEntry) error {
	eg.mu.Lock()
	defer eg.mu.Unlock()
	key := lowerASCII(ce.Name())
	if _, dup := eg.classTable[key]; dup {
		return fmt.Errorf("class %q already registered", ce.Name())
	}
	eg.classTable[key] = ce
	return nil
}

// ---------------------------------------------------------------------------
// Function table

// Function looks up a registered function by name, case-insensitively.
func (eg *ExecutorGlobals) Function(name string) (*Function, bool) {
	eg.mu.RLock()
	defer eg.mu.RUnlock()
	fn, ok := eg.functionTable[lowerASCII(name)]
	return fn, ok
}

func (eg *ExecutorGlobals) registerFunction(fn *Function) error {
	eg.mu.Lock()
	defer eg.mu.Unlock()
	key := lowerASCII(fn.Name)
	if _, dup := eg.functionTable[key]; dup {
		return fmt.Errorf("function %q already registered", fn.Name)
	}
	eg.functionTable[key] = fn
	return nil
}

// ---------------------------------------------------------------------------
// Constant table

// Constant looks up a registered global constant. Constant names are
// case-sensitive.
func (eg *ExecutorGlobals) Constant(name string) (*Constant, bool) {
	eg.mu.RLock()
	defer eg.mu.RUnlock()
	c, ok := eg.constTable[name]
	return c, ok
}

func (eg *ExecutorGlobals) registerConstant(c *Constant) error {
	eg.mu.Lock()
	defer eg.mu.Unlock()
	if _, dup := eg.constTable[c.Name]; dup {
		return fmt.Errorf("constant %q already registered", c.Name)
	}
	eg.constTable[c.Name] = c
	return nil
}

// ---------------------------------------------------------------------------
// Module table

// Module looks up a registered module by name.
func (eg *ExecutorGlobals) Module(name string) (*ModuleEntry, bool) {
	eg.mu.RLock()
	defer eg.mu.RUnlock()
	m, ok := eg.moduleTable[lowerASCII(name)]
	return m, ok
}

func (eg *ExecutorGlobals) registerModule(entry *ModuleEntry) error {
	eg.mu.Lock()
	defer eg.mu.Unlock()
	key := lowerASCII(entry.Name)
	if _, dup := eg.moduleTable[key]; dup {
		return fmt.Errorf("module %q already registered", entry.Name)
	}
	eg.moduleTable[key] = entry
	return nil
}

// ---------------------------------------------------------------------------
// Class metadata registry

// classMetaFor returns the metadata slot for a native type, creating it on
// first use. The offset function runs once, under the lock, when the slot is
// created.
func (eg *ExecutorGlobals) classMetaFor(t reflect.Type, offsetFn func() uintptr) *classMeta {
	eg.mu.Lock()
	defer eg.mu.Unlock()
	if m, ok := eg.metaTable[t]; ok {
		return m
	}
	m := &classMeta{typeName: t.String(), offset: offsetFn()}
	eg.metaTable[t] = m
	return m
}

func (eg *ExecutorGlobals) classMetaCE(m *classMeta) *ClassEntry {
	eg.mu.RLock()
	defer eg.mu.RUnlock()
	return m.ce
}

func (eg *ExecutorGlobals) setClassMetaCE(m *classMeta, ce *ClassEntry) {
	eg.mu.Lock()
	defer eg.mu.Unlock()
	if m.ce != nil {
		panic("Class entry has already been set.")
	}
	m.ce = ce
}

// ---------------------------------------------------------------------------
// Pending exception

// ThrowObject installs obj as the pending exception, taking ownership of one
// reference. A previously pending exception is released.
func (eg *ExecutorGlobals) ThrowObject(obj *Object) {
	eg.mu.Lock()
	prev := eg.exception
	eg.exception = obj
	eg.mu.Unlock()
	if prev != nil {
		prev.Release()
	}
}

// HasException reports whether an exception is pending.
func (eg *ExecutorGlobals) HasException() bool {
	eg.mu.RLock()
	defer eg.mu.RUnlock()
	return eg.exception != nil
}

// ExceptionName returns the class name of the pending exception.
func (eg *ExecutorGlobals) ExceptionName() (string, bool) {
	eg.mu.RLock()
	defer eg.mu.RUnlock()
	if eg.exception == nil {
		return "", false
	}
	return eg.exception.CE().Name(), true
}

// TakeException clears the pending exception slot and hands the caller the
// owned reference, or nil when nothing is pending.
func (eg *ExecutorGlobals) TakeException() *Object {
	eg.mu.Lock()
	defer eg.mu.Unlock()
	obj := eg.exception
	eg.exception = nil
	return obj
}

// ExceptionError drains the pending exception into a ThrownError, or nil.
func (eg *ExecutorGlobals) ExceptionError() error {
	obj := eg.TakeException()
	if obj == nil {
		return nil
	}
	return &ThrownError{Object: obj}
}

// ---------------------------------------------------------------------------
// Handle counters

func (eg *ExecutorGlobals) nextObjectHandle() uint32 {
	eg.mu.Lock()
	defer eg.mu.Unlock()
	eg.objectHandle++
	return eg.objectHandle
}

func (eg *ExecutorGlobals) nextResourceHandle() int64 {
	eg.mu.Lock()
	defer eg.mu.Unlock()
	eg.resourceHandle++
	return eg.resourceHandle
}

// lowerASCII folds A-Z without touching multibyte sequences, matching the
// engine's ASCII-only case insensitivity for symbol names.
func lowerASCII(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
