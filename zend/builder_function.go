package zend

import "fmt"

// FunctionBuilder assembles a Function declaration: handler, parameter
// slots, the required/optional boundary, and the return type.
type FunctionBuilder struct {
	name     string
	handler  FunctionHandler
	args     []*Arg
	required int
	ret      *ReturnInfo
	flags    MethodFlags
	docs     []string
}

// NewFunctionBuilder starts a declaration for a named function.
func NewFunctionBuilder(name string, handler FunctionHandler) *FunctionBuilder {
	return &FunctionBuilder{name: name, handler: handler, required: -1}
}

// Arg appends a parameter slot.
func (b *FunctionBuilder) Arg(a *Arg) *FunctionBuilder {
	b.args = append(b.args, a)
	return b
}

// NotRequired marks the slots declared so far as the required set; the rest
// are optional.
func (b *FunctionBuilder) NotRequired() *FunctionBuilder {
	b.required = len(b.args)
	return b
}

// Returns declares the return type.
func (b *FunctionBuilder) Returns(typ DataType, byRef, nullable bool) *FunctionBuilder {
	b.ret = &ReturnInfo{Type: typ, ByRef: byRef, Nullable: nullable}
	return b
}

// ReturnsObject declares an object return narrowed to a class name.
func (b *FunctionBuilder) ReturnsObject(class string, nullable bool) *FunctionBuilder {
	b.ret = &ReturnInfo{Type: TypeObject, Class: class, Nullable: nullable}
	return b
}

// Flags sets method flags; the class builder uses this for visibility and
// staticness.
func (b *FunctionBuilder) Flags(f MethodFlags) *FunctionBuilder {
	b.flags = f
	return b
}

// Docs attaches docblock lines carried into reflection output.
func (b *FunctionBuilder) Docs(lines ...string) *FunctionBuilder {
	b.docs = append(b.docs, lines...)
	return b
}

// Build finalizes the declaration. A variadic slot must come last, and the
// function needs both a name and a handler.
func (b *FunctionBuilder) Build() (*Function, error) {
	if b.name == "" {
		return nil, fmt.Errorf("zend: build function: missing name")
	}
	if b.handler == nil {
		return nil, fmt.Errorf("zend: build function %s: missing handler", b.name)
	}
	infos := make([]ArgInfo, len(b.args))
	required := 0
	flags := b.flags
	for i, a := range b.args {
		if a.variadic {
			if i != len(b.args)-1 {
				return nil, fmt.Errorf("zend: build function %s: variadic argument %s must be last", b.name, a.name)
			}
			flags |= MethodVariadic
		}
		infos[i] = a.Info()
		if !a.variadic {
			required++
		}
	}
	if b.required >= 0 && b.required < required {
		required = b.required
	}
	if b.ret != nil && b.ret.ByRef {
		flags |= MethodReturnsRef
	}
	return &Function{
		Name:     b.name,
		Handler:  b.handler,
		Args:     infos,
		Required: required,
		Ret:      b.ret,
		Flags:    flags,
	}, nil
}
