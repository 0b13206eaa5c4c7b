package phpgen

import (
	"fmt"
	"go/types"

	"github.com/chazu/zenda/zend"
)

// zendPath is the import path of the engine package; its value types get
// dedicated mappings instead of the struct fallback.
const zendPath = "github.com/chazu/zenda/zend"

// unaliasType stands in for types.Unalias, which needs Go 1.22. Under the
// go 1.21 language version go/types never materializes *types.Alias, so
// resolving an alias is the identity.
func unaliasType(t types.Type) types.Type { return t }

// paramType maps a Go type to its engine view. optionalShaped reports
// whether the type can represent an absent argument: a pointer to anything
// but an exported class, which binds nil when the argument is missing.
func (sc *scanner) paramType(t types.Type) (TypeRef, bool, error) {
	ref := TypeRef{GoType: types.TypeString(t, sc.qualifier)}

	base := unaliasType(t)
	ptr, isPtr := base.(*types.Pointer)
	if isPtr {
		base = unaliasType(ptr.Elem())
	}

	kind, class, err := sc.kindOf(base)
	if err != nil {
		return ref, false, err
	}
	ref.Kind = kind
	ref.Class = class

	// Class objects and engine handles always pass as pointers on the Go
	// side; the pointer does not make them nullable there.
	handleLike := (kind == zend.TypeObject && class != "") || isEngineHandle(base)
	if isPtr && !handleLike {
		ref.Nullable = true
	}
	return ref, ref.Nullable, nil
}

// isEngineHandle reports whether t is one of the engine's payload types,
// which glue passes by pointer without implying nullability.
func isEngineHandle(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok || named.Obj().Pkg() == nil || named.Obj().Pkg().Path() != zendPath {
		return false
	}
	switch named.Obj().Name() {
	case "Zval", "HashTable", "ZString", "Object":
		return true
	}
	return false
}

// kindOf maps a non-pointer Go type to an engine type tag.
func (sc *scanner) kindOf(t types.Type) (zend.DataType, string, error) {
	switch tt := unaliasType(t).(type) {
	case *types.Basic:
		info := tt.Info()
		switch {
		case info&types.IsBoolean != 0:
			return zend.TypeBool, "", nil
		case info&types.IsInteger != 0:
			return zend.TypeLong, "", nil
		case info&types.IsFloat != 0:
			return zend.TypeDouble, "", nil
		case info&types.IsString != 0:
			return zend.TypeString, "", nil
		}

	case *types.Named:
		obj := tt.Obj()
		if obj.Pkg() == nil && obj.Name() == "error" {
			return 0, "", fmt.Errorf("error is only valid as a trailing result")
		}
		if obj.Pkg() != nil && obj.Pkg().Path() == zendPath {
			switch obj.Name() {
			case "Zval":
				return zend.TypeMixed, "", nil
			case "HashTable":
				return zend.TypeArray, "", nil
			case "ZString":
				return zend.TypeString, "", nil
			case "Object":
				return zend.TypeObject, "", nil
			}
		}
		if obj.Pkg() == sc.typesPkg {
			if php, ok := sc.classNames[obj.Name()]; ok {
				return zend.TypeObject, php, nil
			}
			if php, ok := sc.enumNames[obj.Name()]; ok {
				return zend.TypeObject, php, nil
			}
		}
		// Named scalars and collections map through their underlying type.
		return sc.kindOf(tt.Underlying())

	case *types.Slice:
		return zend.TypeArray, "", nil
	case *types.Array:
		return zend.TypeArray, "", nil
	case *types.Map:
		return zend.TypeArray, "", nil

	case *types.Interface:
		if tt.Empty() {
			return zend.TypeMixed, "", nil
		}
	}
	return 0, "", fmt.Errorf("unsupported Go type %s", t)
}

// isErrorType reports whether t is the builtin error interface.
func isErrorType(t types.Type) bool {
	if named, ok := t.(*types.Named); ok {
		return named.Obj().Name() == "error" && named.Obj().Pkg() == nil
	}
	return false
}
