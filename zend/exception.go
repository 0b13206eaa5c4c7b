package zend

import (
	"errors"
	"fmt"
)

// PhpException is an exception waiting to be thrown: a message, a code, the
// class to instantiate, and optionally a pre-built object that overrides the
// other fields.
type PhpException struct {
	message string
	code    int64
	class   *ClassEntry
	object  *Object
}

// NewPhpException builds an exception of the given class. A nil class means
// plain Exception.
func NewPhpException(message string, code int64, class *ClassEntry) *PhpException {
	return &PhpException{message: message, code: code, class: class}
}

// NewException builds a plain Exception with the given message.
func NewException(message string) *PhpException {
	return &PhpException{message: message}
}

// SetObject installs a pre-built exception object, taking ownership. Throw
// will use it as-is instead of instantiating the class.
func (e *PhpException) SetObject(obj *Object) { e.object = obj }

// Message returns the exception message.
func (e *PhpException) Message() string { return e.message }

// Code returns the exception code.
func (e *PhpException) Code() int64 { return e.code }

// Error makes PhpException usable as a Go error; glue code turns it back
// into a pending engine exception via ThrowFromError.
func (e *PhpException) Error() string { return e.message }

// Throw instantiates the exception and installs it as the executor's pending
// exception. Interfaces and abstract classes cannot be thrown.
func (e *PhpException) Throw() error {
	class := e.class
	if class == nil {
		class = ExceptionCE()
	}
	if class.Flags().Has(ClassInterface) || class.Flags().Has(ClassAbstract) {
		return &InvalidExceptionError{Flags: class.Flags()}
	}
	obj := e.object
	if obj == nil {
		obj = class.NewObject()
		if err := obj.SetProperty("message", e.message); err != nil {
			obj.Release()
			return fmt.Errorf("zend: throw %s: %w", class.Name(), err)
		}
		if err := obj.SetProperty("code", e.code); err != nil {
			obj.Release()
			return fmt.Errorf("zend: throw %s: %w", class.Name(), err)
		}
	}
	Executor().ThrowObject(obj)
	return nil
}

// Throw raises an exception of the given class with a message.
func Throw(class *ClassEntry, message string) error {
	return ThrowWithCode(class, 0, message)
}

// ThrowWithCode raises an exception of the given class with a message and
// code.
func ThrowWithCode(class *ClassEntry, code int64, message string) error {
	return NewPhpException(message, code, class).Throw()
}

// ThrowClass raises an exception of a builtin class, which is never
// interface or abstract, so the failure path cannot trigger.
func ThrowClass(class *ClassEntry, message string) {
	_ = Throw(class, message)
}

// ThrowObject installs an already built exception object as pending, taking
// ownership of one reference.
func ThrowObject(obj *Object) {
	Executor().ThrowObject(obj)
}

// ThrowFromError maps a native error onto an engine exception and installs
// it as pending. Argument-count failures become ArgumentCountError,
// conversion failures become TypeError, a ThrownError re-installs its
// original object, and everything else becomes a plain Exception.
func ThrowFromError(err error) {
	if err == nil {
		return
	}
	var phpEx *PhpException
	if errors.As(err, &phpEx) {
		if throwErr := phpEx.Throw(); throwErr != nil {
			ThrowClass(ExceptionCE(), phpEx.Message())
		}
		return
	}
	var thrown *ThrownError
	if errors.As(err, &thrown) {
		Executor().ThrowObject(thrown.Object)
		return
	}
	var badArity *IncorrectArgumentsError
	if errors.As(err, &badArity) {
		ThrowClass(ArgumentCountErrorCE(), badArity.Error())
		return
	}
	var conv *ConversionError
	switch {
	case errors.As(err, &conv),
		errors.Is(err, ErrIntegerOverflow),
		errors.Is(err, ErrInvalidUtf8):
		ThrowClass(TypeErrorCE(), err.Error())
	case errors.Is(err, ErrNotCallable):
		ThrowClass(TypeErrorCE(), err.Error())
	default:
		ThrowClass(ExceptionCE(), err.Error())
	}
}
