// Package describe models the exported surface of a bridge extension: its
// functions, classes, and constants. The generation pipeline serializes the
// tree next to the built artifact, and the stub command turns it back into
// PHP declarations for IDEs.
package describe

import "github.com/chazu/zenda/zend"

// FormatVersion is stamped into every serialized description. Readers refuse
// artifacts written under a different version.
const FormatVersion byte = 1

// Description is the root of the tree: one module plus the bridge release
// that produced it.
type Description struct {
	Format  byte   `cbor:"1,keyasint"`
	Module  Module `cbor:"2,keyasint"`
	Version string `cbor:"3,keyasint"`
}

// New wraps a module in a description stamped with the current format and
// bridge version.
func New(module Module) Description {
	return Description{
		Format:  FormatVersion,
		Module:  module,
		Version: zend.Version,
	}
}

// Module is an extension's set of exports.
type Module struct {
	Name      string     `cbor:"1,keyasint"`
	Functions []Function `cbor:"2,keyasint,omitempty"`
	Classes   []Class    `cbor:"3,keyasint,omitempty"`
	Constants []Constant `cbor:"4,keyasint,omitempty"`
	Enums     []Enum     `cbor:"5,keyasint,omitempty"`
}

// DocBlock is the comment lines attached to an export, without comment
// markers.
type DocBlock []string

// TypeHint names an engine type. For object types Class carries the class
// name; empty means a bare object hint.
type TypeHint struct {
	Kind  zend.DataType `cbor:"1,keyasint"`
	Class string        `cbor:"2,keyasint,omitempty"`
}

// Function is an exported global function.
type Function struct {
	Name   string      `cbor:"1,keyasint"`
	Docs   DocBlock    `cbor:"2,keyasint,omitempty"`
	Ret    *Retval     `cbor:"3,keyasint,omitempty"`
	Params []Parameter `cbor:"4,keyasint,omitempty"`
}

// Parameter is one parameter of a function or method. Default holds the
// rendered default expression; empty means the parameter has none.
type Parameter struct {
	Name     string    `cbor:"1,keyasint"`
	Ty       *TypeHint `cbor:"2,keyasint,omitempty"`
	Nullable bool      `cbor:"3,keyasint,omitempty"`
	Default  string    `cbor:"4,keyasint,omitempty"`
}

// Retval is a function or method return declaration.
type Retval struct {
	Ty       TypeHint `cbor:"1,keyasint"`
	Nullable bool     `cbor:"2,keyasint,omitempty"`
}

// Class is an exported class.
type Class struct {
	Name       string     `cbor:"1,keyasint"`
	Docs       DocBlock   `cbor:"2,keyasint,omitempty"`
	Extends    string     `cbor:"3,keyasint,omitempty"`
	Implements []string   `cbor:"4,keyasint,omitempty"`
	Properties []Property `cbor:"5,keyasint,omitempty"`
	Methods    []Method   `cbor:"6,keyasint,omitempty"`
	Constants  []Constant `cbor:"7,keyasint,omitempty"`
}

// Property is a declared property of an exported class.
type Property struct {
	Name     string     `cbor:"1,keyasint"`
	Docs     DocBlock   `cbor:"2,keyasint,omitempty"`
	Ty       *TypeHint  `cbor:"3,keyasint,omitempty"`
	Vis      Visibility `cbor:"4,keyasint"`
	Static   bool       `cbor:"5,keyasint,omitempty"`
	Nullable bool       `cbor:"6,keyasint,omitempty"`
	Default  string     `cbor:"7,keyasint,omitempty"`
}

// MethodType distinguishes how a method participates in its class.
type MethodType uint8

const (
	MethodMember      MethodType = 0
	MethodStatic      MethodType = 1
	MethodConstructor MethodType = 2
)

// Visibility is a method or property visibility.
type Visibility uint8

const (
	VisibilityPrivate   Visibility = 0
	VisibilityProtected Visibility = 1
	VisibilityPublic    Visibility = 2
)

// Method is a method of an exported class.
type Method struct {
	Name       string      `cbor:"1,keyasint"`
	Docs       DocBlock    `cbor:"2,keyasint,omitempty"`
	Ty         MethodType  `cbor:"3,keyasint"`
	Params     []Parameter `cbor:"4,keyasint,omitempty"`
	Retval     *Retval     `cbor:"5,keyasint,omitempty"`
	Visibility Visibility  `cbor:"6,keyasint"`
}

// Constant is an exported constant, global or attached to a class. Value
// holds the rendered constant expression; empty renders as null.
type Constant struct {
	Name  string   `cbor:"1,keyasint"`
	Docs  DocBlock `cbor:"2,keyasint,omitempty"`
	Value string   `cbor:"3,keyasint,omitempty"`
}

// Enum is an exported enum. A nil Backing marks a pure enum; otherwise it
// is the int or string hint the declaration carries.
type Enum struct {
	Name    string     `cbor:"1,keyasint"`
	Docs    DocBlock   `cbor:"2,keyasint,omitempty"`
	Backing *TypeHint  `cbor:"3,keyasint,omitempty"`
	Cases   []EnumCase `cbor:"4,keyasint,omitempty"`
}

// EnumCase is one case of an exported enum. Backed enums carry the
// discriminant in Long or Str, matching the backing type.
type EnumCase struct {
	Name string   `cbor:"1,keyasint"`
	Docs DocBlock `cbor:"2,keyasint,omitempty"`
	Long int64    `cbor:"3,keyasint,omitempty"`
	Str  string   `cbor:"4,keyasint,omitempty"`
}
