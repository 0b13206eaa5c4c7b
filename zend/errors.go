package zend

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no payload.
var (
	// ErrInvalidScope is returned when a value is treated as an instance of
	// a native class it does not belong to.
	ErrInvalidScope = errors.New("invalid scope")

	// ErrInvalidProperty is returned when a declared property lookup fails.
	ErrInvalidProperty = errors.New("property does not exist on object")

	// ErrInvalidUtf8 is returned when string contents fail UTF-8 validation.
	ErrInvalidUtf8 = errors.New("invalid utf-8 in string contents")

	// ErrIntegerOverflow is returned when an integer conversion between the
	// engine and Go would overflow.
	ErrIntegerOverflow = errors.New("integer conversion overflowed")

	// ErrNotCallable is returned when a value is invoked but is not a
	// recognized callable form.
	ErrNotCallable = errors.New("value is not callable")
)

// IncorrectArgumentsError reports an arity violation: the handler received n
// arguments but the declared formal list requires at least min.
type IncorrectArgumentsError struct {
	N   int
	Min int
}

func (e *IncorrectArgumentsError) Error() string {
	return fmt.Sprintf("expected at least %d arguments, got %d", e.Min, e.N)
}

// ConversionError reports that a value cell's payload did not match the
// requested native type. Type is the tag of the offending cell.
type ConversionError struct {
	Type DataType
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("could not convert value of type %s", e.Type)
}

// InvalidExceptionError reports an attempt to throw on a class entry that can
// never be instantiated (interface or abstract).
type InvalidExceptionError struct {
	Flags ClassFlags
}

func (e *InvalidExceptionError) Error() string {
	kind := "abstract class"
	if e.Flags.Has(ClassInterface) {
		kind = "interface"
	}
	return fmt.Sprintf("cannot throw %s as an exception", kind)
}

// ThrownError carries an exception object raised by script-side code back
// through a Go error channel.
type ThrownError struct {
	Object *Object
}

func (e *ThrownError) Error() string {
	if e.Object != nil && e.Object.CE() != nil {
		return fmt.Sprintf("exception %s was thrown", e.Object.CE().Name())
	}
	return "exception was thrown"
}

// ConsumeError is returned by Arg.Consume so the caller gets the argument
// back and can attempt a different extraction or build a tailored message.
type ConsumeError struct {
	Arg   *Arg
	Cause error
}

func (e *ConsumeError) Error() string {
	return fmt.Sprintf("argument %q: %v", e.Arg.Name(), e.Cause)
}

func (e *ConsumeError) Unwrap() error { return e.Cause }
