package zend

import (
	"errors"
	"strings"
	"testing"
)

func TestStdClassDynamicProperties(t *testing.T) {
	ResetExecutor()
	obj := NewStdClass()
	defer obj.Release()

	if err := obj.SetProperty("answer", int64(42)); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}
	v, err := obj.ReadProperty("answer")
	if err != nil {
		t.Fatalf("ReadProperty: %v", err)
	}
	if n, _ := v.Long(); n != 42 {
		t.Errorf("answer = %d, want 42", n)
	}
	if got, err := GetProperty[int64](obj, "answer"); err != nil || got != 42 {
		t.Errorf("GetProperty = %d, %v", got, err)
	}

	if _, err := obj.ReadProperty("missing"); !errors.Is(err, ErrInvalidProperty) {
		t.Errorf("missing property = %v, want ErrInvalidProperty", err)
	}
}

func TestDeclaredPropertyDefaults(t *testing.T) {
	ResetExecutor()
	ce, err := NewClassBuilder("WithDefaults").
		Property("name", PropertyPublic, "anonymous").
		Property("count", PropertyPublic, int64(0)).
		Register()
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	a := ce.NewObject()
	b := ce.NewObject()
	defer a.Release()
	defer b.Release()

	if v, err := GetProperty[string](a, "name"); err != nil || v != "anonymous" {
		t.Errorf("default = %q, %v, want anonymous", v, err)
	}

	// Instances own separate copies of the defaults.
	if err := a.SetProperty("name", "first"); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}
	if v, _ := GetProperty[string](b, "name"); v != "anonymous" {
		t.Errorf("write to a leaked into b: %q", v)
	}
}

func TestInheritedPropertyDefaults(t *testing.T) {
	ResetExecutor()
	parent, err := NewClassBuilder("ZendaBase").
		Property("kind", PropertyPublic, "base").
		Property("shared", PropertyPublic, int64(1)).
		Register()
	if err != nil {
		t.Fatalf("parent: %v", err)
	}
	child, err := NewClassBuilder("ZendaChild").
		Extends(func() *ClassEntry { return parent }).
		Property("kind", PropertyPublic, "child").
		Register()
	if err != nil {
		t.Fatalf("child: %v", err)
	}

	obj := child.NewObject()
	defer obj.Release()
	if v, _ := GetProperty[string](obj, "kind"); v != "child" {
		t.Errorf("override = %q, want child", v)
	}
	if v, _ := GetProperty[int64](obj, "shared"); v != 1 {
		t.Errorf("inherited default = %d, want 1", v)
	}
	if !obj.InstanceOf(parent) {
		t.Error("child instance should satisfy the parent class")
	}
}

func TestNoDynamicProperties(t *testing.T) {
	ResetExecutor()
	ce, err := NewClassBuilder("Sealed").
		Flags(ClassNoDynamicProperties).
		Property("declared", PropertyPublic, nil).
		Register()
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	obj := ce.NewObject()
	defer obj.Release()

	if err := obj.SetProperty("declared", int64(1)); err != nil {
		t.Errorf("declared write should pass: %v", err)
	}

	inner := NewHashTable()
	zv := NewZval()
	zv.SetArray(inner)
	err = obj.WriteProperty("undeclared", zv)
	if !errors.Is(err, ErrInvalidProperty) {
		t.Fatalf("undeclared write = %v, want ErrInvalidProperty", err)
	}
	if inner.Refcount() != 0 {
		t.Errorf("rejected write must release the value: refcount = %d", inner.Refcount())
	}
}

func TestHasPropertyQueries(t *testing.T) {
	ResetExecutor()
	obj := NewStdClass()
	defer obj.Release()
	obj.SetProperty("nothing", nil)
	obj.SetProperty("zero", int64(0))
	obj.SetProperty("five", int64(5))

	tests := []struct {
		name  string
		query PropertyQuery
		want  bool
	}{
		{"nothing", PropertyQueryExists, true},
		{"nothing", PropertyQueryIsset, false},
		{"nothing", PropertyQueryNotEmpty, false},
		{"zero", PropertyQueryExists, true},
		{"zero", PropertyQueryIsset, true},
		{"zero", PropertyQueryNotEmpty, false},
		{"five", PropertyQueryIsset, true},
		{"five", PropertyQueryNotEmpty, true},
		{"absent", PropertyQueryExists, false},
		{"absent", PropertyQueryIsset, false},
	}
	for _, tt := range tests {
		got, err := obj.HasProperty(tt.name, tt.query)
		if err != nil {
			t.Errorf("HasProperty(%s, %d): %v", tt.name, tt.query, err)
			continue
		}
		if got != tt.want {
			t.Errorf("HasProperty(%s, %d) = %v, want %v", tt.name, tt.query, got, tt.want)
		}
	}
}

func TestPropertiesEnumeration(t *testing.T) {
	ResetExecutor()
	obj := NewStdClass()
	defer obj.Release()
	obj.SetProperty("a", int64(1))
	obj.SetProperty("b", int64(2))

	props, err := obj.Properties()
	if err != nil {
		t.Fatalf("Properties: %v", err)
	}
	if props.Len() != 2 || !props.Has("a") || !props.Has("b") {
		t.Errorf("enumerated %d properties, want a and b", props.Len())
	}
}

func TestTryCallMethod(t *testing.T) {
	ResetExecutor()
	ce := registerCalculator(t)
	obj := ce.NewObject()
	defer obj.Release()

	ret, err := obj.TryCallMethod("add", int64(4), int64(5))
	if err != nil {
		t.Fatalf("TryCallMethod: %v", err)
	}
	if v, _ := ret.Long(); v != 9 {
		t.Errorf("add = %d, want 9", v)
	}

	// Method lookup is case-insensitive.
	if _, err := obj.TryCallMethod("ADD", int64(1), int64(1)); err != nil {
		t.Errorf("uppercase method lookup: %v", err)
	}

	if _, err := obj.TryCallMethod("subtract"); !errors.Is(err, ErrNotCallable) {
		t.Errorf("missing method = %v, want ErrNotCallable", err)
	}
}

func TestObjectHandlesAndString(t *testing.T) {
	ResetExecutor()
	a := NewStdClass()
	b := NewStdClass()
	defer a.Release()
	defer b.Release()

	if a.Handle() == b.Handle() {
		t.Error("object handles should be unique")
	}
	if !strings.HasPrefix(a.String(), "stdClass#") {
		t.Errorf("String() = %q, want stdClass#N", a.String())
	}
}

func TestObjectReleaseIsIdempotentAtZero(t *testing.T) {
	ResetExecutor()
	obj := NewStdClass()
	obj.Release()
	obj.Release()
	if obj.Refcount() != 0 {
		t.Errorf("refcount = %d, want 0", obj.Refcount())
	}
}
