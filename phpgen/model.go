// Package phpgen scans Go packages for php: directives and builds the
// extension model the code generator emits glue from. A directive is a
// comment line of the form
//
//	//php:kind key=value flag default:arg=expr
//
// attached to the declaration it exports: functions, methods, struct types,
// enum types, struct fields, and constants.
package phpgen

import "github.com/chazu/zenda/zend"

// Extension is the exported surface of one Go package: everything the glue
// source must register plus everything the stub artifact describes.
type Extension struct {
	// Name is the PHP extension name, normally taken from the manifest.
	Name    string
	Version string

	// ImportPath and PkgName identify the scanned Go package.
	ImportPath string
	PkgName    string

	Functions []FuncModel
	Classes   []ClassModel
	Enums     []EnumModel
	Constants []ConstModel

	// Startup is the Go name of the func() error marked //php:startup.
	Startup string
}

// TypeRef is the engine view of one Go type.
type TypeRef struct {
	// Kind is the engine type an arg-info slot or stub declares.
	Kind zend.DataType
	// Class is the PHP class name when Kind is TypeObject.
	Class string
	// Nullable marks pointer-shaped Go types; null converts to nil.
	Nullable bool
	// GoType is the Go type expression relative to the scanned package,
	// for example "*Vector" or "map[string]int64".
	GoType string
}

// ParamModel is one parameter of an exported function or method.
type ParamModel struct {
	GoName  string
	PhpName string
	Type    TypeRef

	// Optional marks parameters in the optional suffix.
	Optional bool
	// Variadic marks the final ...T parameter.
	Variadic bool

	// DefaultPHP is the default expression as PHP source for stubs and
	// arg info; DefaultGo is the same value as a Go expression for glue.
	// Both are empty when the parameter has no default.
	DefaultPHP string
	DefaultGo  string
}

// RetModel describes a function or method return.
type RetModel struct {
	Type TypeRef
	// Count is the number of Go value results feeding the return; above
	// one the glue packs them into an array.
	Count int
}

// FuncModel is an exported package-level function.
type FuncModel struct {
	GoName  string
	PhpName string
	Docs    []string
	Params  []ParamModel
	Ret     *RetModel
	// ReturnsErr marks a trailing error result, thrown on failure.
	ReturnsErr bool
}

// MethodKind distinguishes how an exported method binds to its class.
type MethodKind uint8

const (
	MethodNormal MethodKind = iota
	MethodConstructor
	MethodGetter
	MethodSetter
)

// MethodModel is an exported method of a class.
type MethodModel struct {
	FuncModel
	Kind   MethodKind
	Static bool
	Vis    zend.MethodFlags
	// PropName is the derived property name for getters and setters.
	PropName string
}

// PropModel is a struct field exported as a property.
type PropModel struct {
	GoField string
	PhpName string
	Type    TypeRef
	Docs    []string
}

// ConstModel is an exported constant, global or attached to a class.
type ConstModel struct {
	GoName  string
	PhpName string
	// Class is the owning PHP class name, empty for global constants.
	Class string
	// Value is the constant as a Go expression; PHPValue is the same
	// value rendered as PHP source for stubs.
	Value    string
	PHPValue string
	Kind     zend.DataType
	Docs     []string
}

// ClassModel is a struct type exported as a class.
type ClassModel struct {
	GoName  string
	PhpName string
	Docs    []string

	Extends    string
	Implements []string
	Flags      []string // ClassFlags constant names, e.g. "ClassFinal"

	// RenameMethods is applied to method names without an explicit name.
	RenameMethods RenameRule

	Props     []PropModel
	Methods   []MethodModel
	Constants []ConstModel
}

// CaseModel is one case of an exported enum.
type CaseModel struct {
	GoName  string
	PhpName string
	Docs    []string
	// Long or Str holds the discriminant, selected by the enum backing.
	Long int64
	Str  string
}

// EnumModel is a named integer or string type exported as an enum.
type EnumModel struct {
	GoName  string
	PhpName string
	Docs    []string

	// Backing is TypeLong or TypeString; TypeNull marks a pure enum.
	Backing zend.DataType
	Cases   []CaseModel
}

// Class returns the class model with the given PHP name, or nil.
func (e *Extension) Class(name string) *ClassModel {
	for i := range e.Classes {
		if e.Classes[i].PhpName == name {
			return &e.Classes[i]
		}
	}
	return nil
}

// Enum returns the enum model with the given PHP name, or nil.
func (e *Extension) Enum(name string) *EnumModel {
	for i := range e.Enums {
		if e.Enums[i].PhpName == name {
			return &e.Enums[i]
		}
	}
	return nil
}
