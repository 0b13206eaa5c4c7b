package zend

import (
	"fmt"
	"strings"
)

// FunctionHandler is the native implementation behind a registered function
// or method. Arguments arrive through ex; the return value is written to ret,
// which starts out null. Exceptions are raised on the executor rather than
// returned.
type FunctionHandler func(ex *ExecuteData, ret *Zval)

// ArgInfo describes one declared parameter for reflection and stub output.
type ArgInfo struct {
	Name      string
	Type      DataType
	Class     string
	AllowNull bool
	ByRef     bool
	Variadic  bool
	Default   string
}

// ReturnInfo describes a declared return type.
type ReturnInfo struct {
	Type     DataType
	Class    string
	Nullable bool
	ByRef    bool
}

// Function is a callable registered with the engine: a native handler plus
// the declared signature.
type Function struct {
	Name     string
	Handler  FunctionHandler
	Args     []ArgInfo
	Required int
	Ret      *ReturnInfo
	Flags    MethodFlags
	Scope    *ClassEntry
}

// FullName returns Scope::Name for methods and the plain name for functions.
func (fn *Function) FullName() string {
	if fn.Scope != nil {
		return fn.Scope.Name() + "::" + fn.Name
	}
	return fn.Name
}

// ---------------------------------------------------------------------------
// Execution frame

// ExecuteData is the frame passed to a native handler: the resolved
// function, the evaluated argument cells, and the bound object for methods.
type ExecuteData struct {
	fn   *Function
	args []Zval
	this *Object
}

// Function returns the function being executed.
func (ex *ExecuteData) Function() *Function { return ex.fn }

// NumArgs returns the number of arguments passed by the caller.
func (ex *ExecuteData) NumArgs() int { return len(ex.args) }

// Arg returns the i-th argument cell, or nil when out of range. The cell is
// borrowed from the frame.
func (ex *ExecuteData) Arg(i int) *Zval {
	if i < 0 || i >= len(ex.args) {
		return nil
	}
	return &ex.args[i]
}

// This returns the bound object, or nil in a plain function call.
func (ex *ExecuteData) This() *Object { return ex.this }

// Parser starts an argument parser over this frame's arguments.
func (ex *ExecuteData) Parser() *ArgParser {
	input := make([]*Zval, len(ex.args))
	for i := range ex.args {
		input[i] = &ex.args[i]
	}
	return NewArgParser(input)
}

// ---------------------------------------------------------------------------
// Invocation

// callFunction evaluates args into cells, runs the handler, and tears the
// frame down. Exceptions raised by the handler stay pending.
func callFunction(fn *Function, this *Object, args []any) (Zval, error) {
	zargs := make([]Zval, len(args))
	for i, a := range args {
		if err := ToZval(&zargs[i], a); err != nil {
			for j := 0; j < i; j++ {
				zargs[j].Release()
			}
			return NewZval(), fmt.Errorf("zend: call %s: argument %d: %w", fn.FullName(), i+1, err)
		}
	}
	ex := &ExecuteData{fn: fn, args: zargs, this: this}
	// The return cell starts null, matching a handler that never writes it.
	ret := NewZval()
	ret.SetNull()
	fn.Handler(ex, &ret)
	for i := range zargs {
		zargs[i].Release()
	}
	return ret, nil
}

// CallFunction invokes a registered global function by name. Exceptions stay
// pending on the executor.
func CallFunction(name string, args ...any) (Zval, error) {
	fn, ok := Executor().Function(name)
	if !ok {
		return NewZval(), fmt.Errorf("zend: call %s: %w", name, ErrNotCallable)
	}
	return callFunction(fn, nil, args)
}

// ---------------------------------------------------------------------------
// Callable cells

// TryCall treats the cell as a callable and invokes it. Supported shapes are
// a function name, a "Class::method" string, a [target, method] pair, a
// closure, and an object with __invoke. Exceptions raised by the callee stay
// pending; the error reports resolution failures only.
func (z *Zval) TryCall(args ...any) (Zval, error) {
	fn, this, err := resolveCallable(z)
	if err != nil {
		return NewZval(), err
	}
	return callFunction(fn, this, args)
}

// IsCallable reports whether the cell resolves to something invokable.
func (z *Zval) IsCallable() bool {
	_, _, err := resolveCallable(z)
	return err == nil
}

func resolveCallable(z *Zval) (*Function, *Object, error) {
	z = z.Dereference()
	switch z.Type() {
	case TypeString:
		name, _ := z.Str()
		return resolveNamedCallable(name)
	case TypeArray:
		ht, _ := z.Array()
		return resolvePairCallable(ht)
	case TypeObject:
		obj, _ := z.Object()
		if obj.invoke != nil {
			return obj.invoke, obj, nil
		}
		if fn, ok := obj.ce.Method("__invoke"); ok {
			return fn, obj, nil
		}
	}
	return nil, nil, ErrNotCallable
}

func resolveNamedCallable(name string) (*Function, *Object, error) {
	if cls, method, found := strings.Cut(name, "::"); found {
		ce, ok := Executor().Class(cls)
		if !ok {
			return nil, nil, ErrNotCallable
		}
		fn, ok := ce.Method(method)
		if !ok || !fn.Flags.Has(MethodStatic) {
			return nil, nil, ErrNotCallable
		}
		return fn, nil, nil
	}
	fn, ok := Executor().Function(name)
	if !ok {
		return nil, nil, ErrNotCallable
	}
	return fn, nil, nil
}

// resolvePairCallable handles the two-element [target, method] array form,
// where target is an object or a class name.
func resolvePairCallable(ht *HashTable) (*Function, *Object, error) {
	if ht.Len() != 2 {
		return nil, nil, ErrNotCallable
	}
	target := ht.GetIndex(0)
	method := ht.GetIndex(1)
	if target == nil || method == nil {
		return nil, nil, ErrNotCallable
	}
	methodName, ok := method.Str()
	if !ok {
		return nil, nil, ErrNotCallable
	}
	if obj, isObj := target.Object(); isObj {
		fn, found := obj.ce.Method(methodName)
		if !found {
			return nil, nil, ErrNotCallable
		}
		return fn, obj, nil
	}
	if clsName, isStr := target.Str(); isStr {
		return resolveNamedCallable(clsName + "::" + methodName)
	}
	return nil, nil, ErrNotCallable
}
