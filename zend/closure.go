package zend

import (
	"fmt"
	"reflect"
)

// WrapClosure turns a native handler into an invokable closure object. The
// returned object resolves as a callable and dispatches straight to the
// handler.
func WrapClosure(handler FunctionHandler) *Object {
	obj := newStdObject(ClosureCE())
	obj.invoke = &Function{
		Name:    "{closure}",
		Handler: handler,
		Flags:   MethodPublic,
	}
	return obj
}

// WrapClosureOnce wraps a handler that may run at most once. Further calls
// raise an Exception instead of invoking the handler again.
func WrapClosureOnce(handler FunctionHandler) *Object {
	called := false
	return WrapClosure(func(ex *ExecuteData, ret *Zval) {
		if called {
			ThrowClass(ExceptionCE(), "closure can only be called once")
			return
		}
		called = true
		handler(ex, ret)
	})
}

// WrapFn converts an arbitrary Go function into a closure object. Arguments
// convert positionally; a final error result raises an exception, any other
// results become the return value. Variadic functions collect the remaining
// arguments.
func WrapFn(fn any) (*Object, error) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("zend: wrap closure: %T is not a function", fn)
	}
	obj := newStdObject(ClosureCE())
	obj.invoke = &Function{
		Name:    "{closure}",
		Handler: reflectHandler(rv),
		Flags:   MethodPublic,
	}
	return obj, nil
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// reflectHandler adapts a Go function value to the handler calling
// convention.
func reflectHandler(fn reflect.Value) FunctionHandler {
	ft := fn.Type()
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
	}
	return func(ex *ExecuteData, ret *Zval) {
		if ex.NumArgs() < fixed {
			ThrowFromError(&IncorrectArgumentsError{N: ex.NumArgs(), Min: fixed})
			return
		}
		in := make([]reflect.Value, 0, ex.NumArgs())
		for i := 0; i < fixed; i++ {
			arg := reflect.New(ft.In(i))
			if err := FromZval(ex.Arg(i), arg.Interface()); err != nil {
				ThrowFromError(err)
				return
			}
			in = append(in, arg.Elem())
		}
		if ft.IsVariadic() {
			elem := ft.In(ft.NumIn() - 1).Elem()
			for i := fixed; i < ex.NumArgs(); i++ {
				arg := reflect.New(elem)
				if err := FromZval(ex.Arg(i), arg.Interface()); err != nil {
					ThrowFromError(err)
					return
				}
				in = append(in, arg.Elem())
			}
		}
		out := fn.Call(in)
		if n := len(out); n > 0 && ft.Out(n-1) == errType {
			if errVal := out[n-1]; !errVal.IsNil() {
				ThrowFromError(errVal.Interface().(error))
				return
			}
			out = out[:n-1]
		}
		switch len(out) {
		case 0:
		case 1:
			if err := ToZval(ret, out[0].Interface()); err != nil {
				ThrowFromError(err)
			}
		default:
			vals := make([]any, len(out))
			for i, v := range out {
				vals[i] = v.Interface()
			}
			if err := ToZval(ret, vals); err != nil {
				ThrowFromError(err)
			}
		}
	}
}
