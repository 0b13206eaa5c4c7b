package describe

import (
	"strings"
	"testing"

	"github.com/chazu/zenda/zend"
)

func TestModuleStubGroupsByNamespace(t *testing.T) {
	m := Module{
		Name: "demo",
		Functions: []Function{
			{
				Name:   "demo\\greet",
				Params: []Parameter{{Name: "name", Ty: &TypeHint{Kind: zend.TypeString}}},
				Ret:    &Retval{Ty: TypeHint{Kind: zend.TypeString}},
			},
			{Name: "tick"},
		},
		Constants: []Constant{{Name: "demo\\LIMIT", Value: "32"}},
	}

	want := `<?php

// Stubs for demo

namespace demo {
    const LIMIT = 32;

    function greet(string $name): string {}
}

namespace {
    function tick() {}
}
`
	if got := m.Stub(); got != want {
		t.Errorf("stub output:\n%s\nwant:\n%s", got, want)
	}
}

func TestNamedNamespacesSortGlobalLast(t *testing.T) {
	m := Module{
		Name: "order",
		Functions: []Function{
			{Name: "solo"},
			{Name: "zeta\\z"},
			{Name: "alpha\\a"},
		},
	}
	out := m.Stub()

	alpha := strings.Index(out, "namespace alpha {")
	zeta := strings.Index(out, "namespace zeta {")
	global := strings.Index(out, "namespace {")
	if alpha < 0 || zeta < 0 || global < 0 {
		t.Fatalf("missing namespace blocks:\n%s", out)
	}
	if !(alpha < zeta && zeta < global) {
		t.Errorf("namespace order alpha=%d zeta=%d global=%d, want alpha < zeta < global",
			alpha, zeta, global)
	}
}

func TestClassStub(t *testing.T) {
	c := Class{
		Name:       "Vector",
		Docs:       DocBlock{" A 2D vector."},
		Extends:    "Shape",
		Implements: []string{"Stringable"},
		Constants:  []Constant{{Name: "ZERO", Value: "0"}},
		Properties: []Property{
			{Name: "x", Ty: &TypeHint{Kind: zend.TypeDouble}, Vis: VisibilityPublic, Default: "0.0"},
		},
		Methods: []Method{
			{
				Name:       "__construct",
				Ty:         MethodConstructor,
				Visibility: VisibilityPublic,
				Params:     []Parameter{{Name: "x", Ty: &TypeHint{Kind: zend.TypeDouble}}},
				Retval:     &Retval{Ty: TypeHint{Kind: zend.TypeDouble}},
			},
			{
				Name:       "length",
				Ty:         MethodMember,
				Visibility: VisibilityPublic,
				Retval:     &Retval{Ty: TypeHint{Kind: zend.TypeDouble}},
			},
			{
				Name:       "origin",
				Ty:         MethodStatic,
				Visibility: VisibilityPublic,
				Retval:     &Retval{Ty: TypeHint{Kind: zend.TypeObject, Class: "Vector"}},
			},
		},
	}

	want := `/**
 * A 2D vector.
 */
class Vector extends Shape implements Stringable {
    const ZERO = 0;

    public float $x = 0.0;

    public function __construct(float $x) {}

    public function length(): float {}

    public static function origin(): Vector {}
}
`
	if got := c.stub(); got != want {
		t.Errorf("class stub:\n%s\nwant:\n%s", got, want)
	}
}

func TestConstructorNeverDeclaresReturnType(t *testing.T) {
	m := Method{
		Name:       "__construct",
		Ty:         MethodConstructor,
		Visibility: VisibilityPublic,
		Retval:     &Retval{Ty: TypeHint{Kind: zend.TypeVoid}},
	}
	if got := m.stub(); strings.Contains(got, ":") {
		t.Errorf("constructor stub should not declare a return type: %q", got)
	}
}

func TestNullableAndDefaults(t *testing.T) {
	f := Function{
		Name: "find",
		Params: []Parameter{
			{Name: "id", Ty: &TypeHint{Kind: zend.TypeLong}},
			{Name: "fallback", Ty: &TypeHint{Kind: zend.TypeString}, Nullable: true, Default: "null"},
		},
		Ret: &Retval{Ty: TypeHint{Kind: zend.TypeObject, Class: "Record"}, Nullable: true},
	}
	want := "function find(int $id, ?string $fallback = null): ?Record {}\n"
	if got := f.stub(); got != want {
		t.Errorf("stub = %q, want %q", got, want)
	}
}

func TestUntypedParameterOmitsHint(t *testing.T) {
	f := Function{Name: "dump", Params: []Parameter{{Name: "value"}}}
	want := "function dump($value) {}\n"
	if got := f.stub(); got != want {
		t.Errorf("stub = %q, want %q", got, want)
	}
}

func TestConstantWithoutValueRendersNull(t *testing.T) {
	c := Constant{Name: "UNSET"}
	if got := c.stub(); got != "const UNSET = null;\n" {
		t.Errorf("stub = %q", got)
	}
}

func TestEnumStub(t *testing.T) {
	e := Enum{
		Name:    "Status",
		Docs:    DocBlock{" Status classifies a record."},
		Backing: &TypeHint{Kind: zend.TypeLong},
		Cases: []EnumCase{
			{Name: "Active", Long: 0, Docs: DocBlock{" Live records."}},
			{Name: "Archived", Long: 1},
		},
	}
	want := `/**
 * Status classifies a record.
 */
enum Status: int {
    /**
     * Live records.
     */
    case Active = 0;

    case Archived = 1;
}
`
	if got := e.stub(); got != want {
		t.Errorf("stub:\n%s\nwant:\n%s", got, want)
	}
}

func TestEnumStubStringBacked(t *testing.T) {
	e := Enum{
		Name:    "Suit",
		Backing: &TypeHint{Kind: zend.TypeString},
		Cases:   []EnumCase{{Name: "Hearts", Str: "it's"}},
	}
	out := e.stub()
	if !strings.Contains(out, "enum Suit: string {") {
		t.Errorf("missing backed header:\n%s", out)
	}
	if !strings.Contains(out, `case Hearts = 'it\'s';`) {
		t.Errorf("missing quoted case:\n%s", out)
	}
}

func TestEnumStubPure(t *testing.T) {
	e := Enum{Name: "Direction", Cases: []EnumCase{{Name: "Up"}, {Name: "Down"}}}
	out := e.stub()
	if !strings.Contains(out, "enum Direction {") {
		t.Errorf("pure enum must not declare a backing:\n%s", out)
	}
	if !strings.Contains(out, "case Up;\n") || !strings.Contains(out, "case Down;\n") {
		t.Errorf("missing pure cases:\n%s", out)
	}
}

// ---------------------------------------------------------------------------
// Type names
// ---------------------------------------------------------------------------

func TestPhpTypeNames(t *testing.T) {
	tests := []struct {
		hint TypeHint
		want string
	}{
		{TypeHint{Kind: zend.TypeLong}, "int"},
		{TypeHint{Kind: zend.TypeDouble}, "float"},
		{TypeHint{Kind: zend.TypeString}, "string"},
		{TypeHint{Kind: zend.TypeBool}, "bool"},
		{TypeHint{Kind: zend.TypeTrue}, "bool"},
		{TypeHint{Kind: zend.TypeFalse}, "bool"},
		{TypeHint{Kind: zend.TypeArray}, "array"},
		{TypeHint{Kind: zend.TypeObject}, "object"},
		{TypeHint{Kind: zend.TypeObject, Class: "Foo\\Bar"}, "Foo\\Bar"},
		{TypeHint{Kind: zend.TypeResource}, "resource"},
		{TypeHint{Kind: zend.TypeCallable}, "callable"},
		{TypeHint{Kind: zend.TypeIterable}, "iterable"},
		{TypeHint{Kind: zend.TypeVoid}, "void"},
		{TypeHint{Kind: zend.TypeMixed}, "mixed"},
		{TypeHint{Kind: zend.TypeUndef}, "mixed"},
	}
	for _, tt := range tests {
		if got := tt.hint.phpName(); got != tt.want {
			t.Errorf("phpName(%v) = %q, want %q", tt.hint.Kind, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestSplitNamespace(t *testing.T) {
	tests := []struct {
		in    string
		ns    string
		short string
	}{
		{"a\\b\\c", "a\\b", "c"},
		{"simple\\ns", "simple", "ns"},
		{"solo", "", "solo"},
		{"", "", ""},
	}
	for _, tt := range tests {
		ns, short := splitNamespace(tt.in)
		if ns != tt.ns || short != tt.short {
			t.Errorf("splitNamespace(%q) = (%q, %q), want (%q, %q)",
				tt.in, ns, short, tt.ns, tt.short)
		}
	}
}

func TestIndent(t *testing.T) {
	if got := indent("hello", 4); got != "    hello" {
		t.Errorf("indent = %q", got)
	}
	if got := indent("hello\nworld\n", 4); got != "    hello\n    world\n" {
		t.Errorf("indent = %q", got)
	}
	// Blank lines stay empty rather than gaining trailing spaces.
	if got := indent("a\n\nb", 2); got != "  a\n\n  b" {
		t.Errorf("indent = %q", got)
	}
}
