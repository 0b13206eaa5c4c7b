package phpgen

import (
	"go/token"
	"go/types"
	"testing"

	"github.com/chazu/zenda/zend"
)

// typeScanner builds a scanner around a synthetic package with one class and
// one enum registered, enough to exercise the type mapping on its own.
func typeScanner() (*scanner, *types.Package) {
	pkg := types.NewPackage("example.com/demo", "demo")
	sc := &scanner{
		typesPkg:   pkg,
		classNames: map[string]string{"Vector": "Vector"},
		enumNames:  map[string]string{"Status": "Status"},
	}
	sc.qualifier = func(other *types.Package) string {
		if other == pkg {
			return ""
		}
		return other.Name()
	}
	return sc, pkg
}

func namedType(pkg *types.Package, name string, underlying types.Type) *types.Named {
	obj := types.NewTypeName(token.NoPos, pkg, name, nil)
	named := types.NewNamed(obj, underlying, nil)
	pkg.Scope().Insert(obj)
	return named
}

func enginePkg() *types.Package {
	pkg := types.NewPackage(zendPath, "zend")
	for _, name := range []string{"Zval", "HashTable", "ZString", "Object"} {
		namedType(pkg, name, types.NewStruct(nil, nil))
	}
	return pkg
}

func TestKindOf(t *testing.T) {
	sc, pkg := typeScanner()
	vector := namedType(pkg, "Vector", types.NewStruct(nil, nil))
	status := namedType(pkg, "Status", types.Typ[types.Int64])
	size := namedType(pkg, "Size", types.Typ[types.Uint32])

	tests := []struct {
		name     string
		t        types.Type
		expected zend.DataType
		class    string
	}{
		{"bool", types.Typ[types.Bool], zend.TypeBool, ""},
		{"int", types.Typ[types.Int], zend.TypeLong, ""},
		{"int64", types.Typ[types.Int64], zend.TypeLong, ""},
		{"float64", types.Typ[types.Float64], zend.TypeDouble, ""},
		{"string", types.Typ[types.String], zend.TypeString, ""},
		{"slice", types.NewSlice(types.Typ[types.Int64]), zend.TypeArray, ""},
		{"array", types.NewArray(types.Typ[types.Byte], 4), zend.TypeArray, ""},
		{"map", types.NewMap(types.Typ[types.String], types.Typ[types.Int64]), zend.TypeArray, ""},
		{"class", vector, zend.TypeObject, "Vector"},
		{"enum", status, zend.TypeObject, "Status"},
		{"named scalar", size, zend.TypeLong, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, class, err := sc.kindOf(tt.t)
			if err != nil {
				t.Fatalf("kindOf(%s): %v", tt.t, err)
			}
			if kind != tt.expected {
				t.Errorf("kindOf(%s) = %v, want %v", tt.t, kind, tt.expected)
			}
			if class != tt.class {
				t.Errorf("kindOf(%s) class = %q, want %q", tt.t, class, tt.class)
			}
		})
	}
}

func TestKindOf_EngineTypes(t *testing.T) {
	sc, _ := typeScanner()
	engine := enginePkg()

	tests := []struct {
		name     string
		expected zend.DataType
	}{
		{"Zval", zend.TypeMixed},
		{"HashTable", zend.TypeArray},
		{"ZString", zend.TypeString},
		{"Object", zend.TypeObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := engine.Scope().Lookup(tt.name).Type()
			kind, _, err := sc.kindOf(typ)
			if err != nil {
				t.Fatalf("kindOf(zend.%s): %v", tt.name, err)
			}
			if kind != tt.expected {
				t.Errorf("kindOf(zend.%s) = %v, want %v", tt.name, kind, tt.expected)
			}
		})
	}
}

func TestKindOf_Unsupported(t *testing.T) {
	sc, pkg := typeScanner()
	chanType := types.NewChan(types.SendRecv, types.Typ[types.Int])
	if _, _, err := sc.kindOf(chanType); err == nil {
		t.Error("channels should not map to an engine type")
	}

	// Plain structs without a php:class directive have no PHP identity.
	plain := namedType(pkg, "Plain", types.NewStruct(nil, nil))
	if _, _, err := sc.kindOf(plain); err == nil {
		t.Error("an unregistered struct should not map to an engine type")
	}
}

func TestParamType_Nullability(t *testing.T) {
	sc, pkg := typeScanner()
	vector := namedType(pkg, "Vector", types.NewStruct(nil, nil))
	engine := enginePkg()
	hashTable := engine.Scope().Lookup("HashTable").Type()

	tests := []struct {
		name     string
		t        types.Type
		nullable bool
	}{
		{"string", types.Typ[types.String], false},
		{"pointer to string", types.NewPointer(types.Typ[types.String]), true},
		{"pointer to int64", types.NewPointer(types.Typ[types.Int64]), true},
		{"pointer to class", types.NewPointer(vector), false},
		{"pointer to engine handle", types.NewPointer(hashTable), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, optional, err := sc.paramType(tt.t)
			if err != nil {
				t.Fatalf("paramType(%s): %v", tt.t, err)
			}
			if ref.Nullable != tt.nullable {
				t.Errorf("paramType(%s) nullable = %v, want %v", tt.t, ref.Nullable, tt.nullable)
			}
			if optional != tt.nullable {
				t.Errorf("paramType(%s) optional-shaped = %v, want %v", tt.t, optional, tt.nullable)
			}
		})
	}
}

func TestParamType_GoType(t *testing.T) {
	sc, pkg := typeScanner()
	vector := namedType(pkg, "Vector", types.NewStruct(nil, nil))

	ref, _, err := sc.paramType(types.NewPointer(vector))
	if err != nil {
		t.Fatalf("paramType: %v", err)
	}
	if ref.GoType != "*Vector" {
		t.Errorf("local types should print unqualified, got %q", ref.GoType)
	}
	if ref.Kind != zend.TypeObject || ref.Class != "Vector" {
		t.Errorf("expected an object ref to Vector, got %v %q", ref.Kind, ref.Class)
	}
}

func TestIsErrorType(t *testing.T) {
	errType := types.Universe.Lookup("error").Type()
	if !isErrorType(errType) {
		t.Error("the builtin error type should be recognized")
	}
	if isErrorType(types.Typ[types.String]) {
		t.Error("string is not an error type")
	}
}
