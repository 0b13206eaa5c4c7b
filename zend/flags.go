package zend

import "fmt"

// DataType is the tag of a value cell. The first block mirrors the engine's
// concrete storage tags; the kinds from TypeVoid onward never appear in a
// live cell and are only used by argument/return metadata and the describe
// tree.
type DataType uint8

const (
	TypeUndef DataType = iota
	TypeNull
	TypeFalse
	TypeTrue
	TypeLong
	TypeDouble
	TypeString
	TypeArray
	TypeObject
	TypeResource
	TypeReference
	TypeConstantExpression
	TypeIndirect
	TypePtr

	// Metadata-only kinds.
	TypeVoid
	TypeMixed
	TypeBool
	TypeCallable
	TypeIterable
)

// Refcounted reports whether cells of this tag point at a shared,
// reference-counted payload.
func (t DataType) Refcounted() bool {
	switch t {
	case TypeString, TypeArray, TypeObject, TypeResource, TypeReference:
		return true
	}
	return false
}

func (t DataType) String() string {
	switch t {
	case TypeUndef:
		return "Undefined"
	case TypeNull:
		return "Null"
	case TypeFalse:
		return "False"
	case TypeTrue:
		return "True"
	case TypeLong:
		return "Long"
	case TypeDouble:
		return "Double"
	case TypeString:
		return "String"
	case TypeArray:
		return "Array"
	case TypeObject:
		return "Object"
	case TypeResource:
		return "Resource"
	case TypeReference:
		return "Reference"
	case TypeConstantExpression:
		return "Constant Expression"
	case TypeIndirect:
		return "Indirect"
	case TypePtr:
		return "Pointer"
	case TypeVoid:
		return "Void"
	case TypeMixed:
		return "Mixed"
	case TypeBool:
		return "Bool"
	case TypeCallable:
		return "Callable"
	case TypeIterable:
		return "Iterable"
	}
	return fmt.Sprintf("DataType(%d)", uint8(t))
}

// ClassFlags describe a class entry.
type ClassFlags uint32

const (
	ClassInterface ClassFlags = 1 << iota
	ClassAbstract
	ClassFinal
	ClassEnum
	ClassNoDynamicProperties
	ClassNotSerializable
)

func (f ClassFlags) Has(flag ClassFlags) bool { return f&flag != 0 }

// MethodFlags describe a function table entry.
type MethodFlags uint32

const (
	MethodPublic MethodFlags = 1 << iota
	MethodProtected
	MethodPrivate
	MethodStatic
	MethodFinal
	MethodAbstract
	MethodVariadic
	MethodReturnsRef
)

func (f MethodFlags) Has(flag MethodFlags) bool { return f&flag != 0 }

// Visibility returns just the visibility bits, defaulting to public when no
// visibility bit is set.
func (f MethodFlags) Visibility() MethodFlags {
	if v := f & (MethodPublic | MethodProtected | MethodPrivate); v != 0 {
		return v
	}
	return MethodPublic
}

// PropertyFlags describe a declared property.
type PropertyFlags uint32

const (
	PropertyPublic PropertyFlags = 1 << iota
	PropertyProtected
	PropertyPrivate
	PropertyStatic
	PropertyReadonly
)

func (f PropertyFlags) Has(flag PropertyFlags) bool { return f&flag != 0 }

// ConstantFlags control global constant registration.
type ConstantFlags uint32

const (
	ConstantCaseSensitive ConstantFlags = 1 << iota
	ConstantPersistent
	ConstantDeprecated
)

// ErrorLevel selects the engine diagnostic channel severity.
type ErrorLevel uint32

const (
	ErrError ErrorLevel = 1 << iota
	ErrWarning
	ErrNotice
	ErrDeprecated
)

func (l ErrorLevel) String() string {
	switch l {
	case ErrError:
		return "Error"
	case ErrWarning:
		return "Warning"
	case ErrNotice:
		return "Notice"
	case ErrDeprecated:
		return "Deprecated"
	}
	return fmt.Sprintf("ErrorLevel(%d)", uint32(l))
}
