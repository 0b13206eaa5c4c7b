package zend

import "fmt"

// Arg declares one parameter slot for an argument parser: name, expected
// type, and binding options. After a successful Parse the slot holds a
// borrowed pointer to the caller's cell.
type Arg struct {
	name         string
	typ          DataType
	class        string
	asRef        bool
	allowNull    bool
	variadic     bool
	defaultValue string

	zv         *Zval
	variadicZv []*Zval
}

// NewArg declares a parameter with the given name and expected type.
func NewArg(name string, typ DataType) *Arg {
	return &Arg{name: name, typ: typ}
}

// OfClass narrows an object parameter to a class or interface name.
func (a *Arg) OfClass(name string) *Arg {
	a.class = name
	return a
}

// AllowNull marks the parameter as nullable.
func (a *Arg) AllowNull() *Arg {
	a.allowNull = true
	return a
}

// ByRef binds the caller's reference cell instead of dereferencing it.
func (a *Arg) ByRef() *Arg {
	a.asRef = true
	return a
}

// Variadic marks the parameter as collecting all remaining arguments. It
// must be the last declared slot.
func (a *Arg) Variadic() *Arg {
	a.variadic = true
	return a
}

// WithDefault records the source representation of the default value, used
// for reflection and stub output.
func (a *Arg) WithDefault(repr string) *Arg {
	a.defaultValue = repr
	return a
}

// Name returns the declared parameter name.
func (a *Arg) Name() string { return a.name }

// Val returns the bound cell, or nil when the caller did not supply this
// argument. The cell is borrowed from the call frame.
func (a *Arg) Val() *Zval { return a.zv }

// Variadics returns the cells collected by a variadic slot.
func (a *Arg) Variadics() []*Zval { return a.variadicZv }

// Consume moves the bound cell out of the slot as an owned value. When the
// slot is unbound the error carries the Arg back so callers can rebuild
// their declaration.
func (a *Arg) Consume() (Zval, error) {
	if a.zv == nil {
		return NewZval(), &ConsumeError{Arg: a, Cause: fmt.Errorf("argument not bound")}
	}
	return a.zv.ShallowClone(), nil
}

// TryCall invokes the bound cell as a callable. Unbound slots report
// ErrNotCallable.
func (a *Arg) TryCall(args ...any) (Zval, error) {
	if a.zv == nil {
		return NewZval(), ErrNotCallable
	}
	return a.zv.TryCall(args...)
}

// Info exposes the declaration as reflection metadata.
func (a *Arg) Info() ArgInfo {
	return ArgInfo{
		Name:      a.name,
		Type:      a.typ,
		Class:     a.class,
		AllowNull: a.allowNull,
		ByRef:     a.asRef,
		Variadic:  a.variadic,
		Default:   a.defaultValue,
	}
}

// ArgVal extracts the bound argument as a native value.
func ArgVal[T any](a *Arg) (T, error) {
	var out T
	if a.zv == nil {
		return out, &ConsumeError{Arg: a, Cause: fmt.Errorf("argument not bound")}
	}
	if err := FromZval(a.zv, &out); err != nil {
		return out, &ConsumeError{Arg: a, Cause: err}
	}
	return out, nil
}

// VariadicVals extracts every cell collected by a variadic slot.
func VariadicVals[T any](a *Arg) ([]T, error) {
	out := make([]T, 0, len(a.variadicZv))
	for _, zv := range a.variadicZv {
		var v T
		if err := FromZval(zv, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ArgObj extracts the bound argument as the native value of a registered
// class. The argument must hold an instance of T's class.
func ArgObj[T any](a *Arg) (*T, error) {
	obj, err := ArgVal[*Object](a)
	if err != nil {
		return nil, err
	}
	return ObjOf[T](obj)
}

// VariadicObjs extracts every cell collected by a variadic slot as native
// values of a registered class.
func VariadicObjs[T any](a *Arg) ([]*T, error) {
	out := make([]*T, 0, len(a.variadicZv))
	for _, zv := range a.variadicZv {
		obj, ok := zv.Object()
		if !ok {
			return nil, &ConversionError{Type: zv.Type()}
		}
		v, err := ObjOf[T](obj)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Parser

// ArgParser binds call-frame cells to declared Arg slots. Slots declared
// after NotRequired are optional; a variadic slot never counts toward the
// minimum. Parse enforces arity before binding anything.
type ArgParser struct {
	args  []*Arg
	min   int
	input []*Zval
}

// NewArgParser starts a parser over the given argument cells.
func NewArgParser(input []*Zval) *ArgParser {
	return &ArgParser{min: -1, input: input}
}

// Arg appends a parameter slot.
func (p *ArgParser) Arg(a *Arg) *ArgParser {
	p.args = append(p.args, a)
	return p
}

// NotRequired marks every slot declared so far as required and the rest as
// optional.
func (p *ArgParser) NotRequired() *ArgParser {
	p.min = len(p.args)
	return p
}

// Parse checks arity and binds cells to slots. On an arity mismatch it
// throws ArgumentCountError, binds nothing, and returns the mismatch.
// Non-reference slots bind the dereferenced cell.
func (p *ArgParser) Parse() error {
	n := len(p.input)
	max := len(p.args)
	variadic := false
	for _, a := range p.args {
		if a.variadic {
			variadic = true
			max--
		}
	}
	min := p.min
	if min < 0 || min > max {
		min = max
	}
	if n < min || (!variadic && n > max) {
		err := &IncorrectArgumentsError{N: n, Min: min}
		ThrowClass(ArgumentCountErrorCE(), err.Error())
		return err
	}

	next := 0
	for _, a := range p.args {
		if a.variadic {
			for ; next < n; next++ {
				zv := p.input[next]
				if !a.asRef {
					zv = zv.Dereference()
				}
				a.variadicZv = append(a.variadicZv, zv)
			}
			continue
		}
		if next >= n {
			break
		}
		zv := p.input[next]
		if !a.asRef {
			zv = zv.Dereference()
		}
		a.zv = zv
		next++
	}
	return nil
}
