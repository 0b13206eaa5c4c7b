package phpgen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"github.com/chazu/zenda/zend"
)

// scanSourceOpts type-checks one import-free source file and scans it.
func scanSourceOpts(t *testing.T, src string, opts Options) (*Extension, error) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "demo.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	info := &types.Info{
		Types: map[ast.Expr]types.TypeAndValue{},
		Defs:  map[*ast.Ident]types.Object{},
		Uses:  map[*ast.Ident]types.Object{},
	}
	pkg, err := (&types.Config{}).Check("example.com/demo", fset, []*ast.File{file}, info)
	if err != nil {
		t.Fatalf("type check: %v", err)
	}
	return Scan(fset, []*ast.File{file}, pkg, info, opts)
}

func scanSource(t *testing.T, src string) (*Extension, error) {
	t.Helper()
	return scanSourceOpts(t, src, Options{ModuleName: "demo", Version: "1.2.0"})
}

func mustScan(t *testing.T, src string) *Extension {
	t.Helper()
	ext, err := scanSource(t, src)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return ext
}

func TestScan_Function(t *testing.T) {
	ext := mustScan(t, `package demo

// Greet builds a greeting.
//
//php:function name=greet default:name="World"
func Greet(name string) string { return "Hello, " + name }
`)
	if len(ext.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(ext.Functions))
	}
	fm := ext.Functions[0]
	if fm.GoName != "Greet" || fm.PhpName != "greet" {
		t.Errorf("expected Greet exported as greet, got %q/%q", fm.GoName, fm.PhpName)
	}
	if len(fm.Docs) != 1 || fm.Docs[0] != " Greet builds a greeting." {
		t.Errorf("unexpected docs: %q", fm.Docs)
	}
	if len(fm.Params) != 1 {
		t.Fatalf("expected 1 parameter, got %d", len(fm.Params))
	}
	p := fm.Params[0]
	if p.PhpName != "name" || p.Type.Kind != zend.TypeString {
		t.Errorf("unexpected parameter: %+v", p)
	}
	if !p.Optional {
		t.Error("a defaulted parameter should be optional")
	}
	if p.DefaultPHP != "'World'" || p.DefaultGo != `"World"` {
		t.Errorf("unexpected default rendering: %q / %q", p.DefaultPHP, p.DefaultGo)
	}
	if fm.Ret == nil || fm.Ret.Type.Kind != zend.TypeString || fm.Ret.Count != 1 {
		t.Errorf("unexpected return: %+v", fm.Ret)
	}
	if fm.ReturnsErr {
		t.Error("Greet does not return an error")
	}
}

func TestScan_FunctionKeepsGoName(t *testing.T) {
	ext := mustScan(t, `package demo

//php:function
func Reverse(s string) string { return s }
`)
	if ext.Functions[0].PhpName != "Reverse" {
		t.Errorf("functions keep their Go name without name=, got %q", ext.Functions[0].PhpName)
	}
}

func TestScan_OptionalInferredFromPointer(t *testing.T) {
	ext := mustScan(t, `package demo

//php:function
func Find(id int64, fallback *string) *string { return fallback }
`)
	fm := ext.Functions[0]
	if fm.Params[0].Optional {
		t.Error("id should be required")
	}
	p := fm.Params[1]
	if !p.Optional || !p.Type.Nullable {
		t.Errorf("a pointer parameter should start the optional suffix: %+v", p)
	}
	if !fm.Ret.Type.Nullable {
		t.Error("a pointer result should be nullable")
	}
}

func TestScan_Variadic(t *testing.T) {
	ext := mustScan(t, `package demo

//php:function
func Sum(nums ...int64) int64 {
	var total int64
	for _, n := range nums {
		total += n
	}
	return total
}
`)
	p := ext.Functions[0].Params[0]
	if !p.Variadic {
		t.Error("nums should be variadic")
	}
	if p.Optional {
		t.Error("variadic parameters are not part of the optional suffix")
	}
	if p.Type.Kind != zend.TypeLong {
		t.Errorf("variadic element type should map, got %v", p.Type.Kind)
	}
}

func TestScan_MultipleResults(t *testing.T) {
	ext := mustScan(t, `package demo

//php:function
func MinMax(a int64, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}
`)
	ret := ext.Functions[0].Ret
	if ret == nil || ret.Count != 2 {
		t.Fatalf("expected 2 packed results, got %+v", ret)
	}
	if ret.Type.Kind != zend.TypeArray {
		t.Errorf("packed results should return an array, got %v", ret.Type.Kind)
	}
}

func TestScan_TrailingError(t *testing.T) {
	ext := mustScan(t, `package demo

//php:function
func Parse(s string) (int64, error) { return 0, nil }
`)
	fm := ext.Functions[0]
	if !fm.ReturnsErr {
		t.Error("trailing error result should set ReturnsErr")
	}
	if fm.Ret == nil || fm.Ret.Count != 1 || fm.Ret.Type.Kind != zend.TypeLong {
		t.Errorf("the error should not count as a value result: %+v", fm.Ret)
	}
}

func TestScan_Class(t *testing.T) {
	ext := mustScan(t, `package demo

// Vector is a 2D point.
//
//php:class final implements=Stringable
type Vector struct {
	//php:prop
	X float64
	//php:prop name=why
	Y float64
}

//php:method constructor
func NewVector(x float64, y float64) *Vector {
	return &Vector{X: x, Y: y}
}

//php:method
func (v *Vector) Length() float64 {
	return v.X*v.X + v.Y*v.Y
}

//php:method protected
func (v *Vector) Scale(f float64) {
	v.X *= f
	v.Y *= f
}

//php:method class=Vector
func Origin() *Vector {
	return &Vector{}
}

//php:method
func (v *Vector) Add(o *Vector) *Vector {
	return &Vector{X: v.X + o.X, Y: v.Y + o.Y}
}
`)
	if len(ext.Classes) != 1 {
		t.Fatalf("expected 1 class, got %d", len(ext.Classes))
	}
	cm := ext.Classes[0]
	if cm.PhpName != "Vector" {
		t.Errorf("expected class Vector, got %q", cm.PhpName)
	}
	if len(cm.Flags) != 1 || cm.Flags[0] != "ClassFinal" {
		t.Errorf("expected ClassFinal, got %v", cm.Flags)
	}
	if len(cm.Implements) != 1 || cm.Implements[0] != "Stringable" {
		t.Errorf("unexpected implements: %v", cm.Implements)
	}
	if len(cm.Docs) != 1 || cm.Docs[0] != " Vector is a 2D point." {
		t.Errorf("unexpected docs: %q", cm.Docs)
	}

	if len(cm.Props) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(cm.Props))
	}
	if cm.Props[0].PhpName != "x" || cm.Props[0].Type.Kind != zend.TypeDouble {
		t.Errorf("X should export as float property x, got %+v", cm.Props[0])
	}
	if cm.Props[1].PhpName != "why" {
		t.Errorf("name= should override the property name, got %q", cm.Props[1].PhpName)
	}

	if len(cm.Methods) != 5 {
		t.Fatalf("expected 5 methods, got %d", len(cm.Methods))
	}
	byName := map[string]*MethodModel{}
	for i := range cm.Methods {
		byName[cm.Methods[i].PhpName] = &cm.Methods[i]
	}

	ctor := byName["__construct"]
	if ctor == nil || ctor.Kind != MethodConstructor || ctor.Static {
		t.Fatalf("expected a non-static constructor, got %+v", ctor)
	}
	if len(ctor.Params) != 2 || ctor.Params[0].Type.Kind != zend.TypeDouble {
		t.Errorf("unexpected constructor params: %+v", ctor.Params)
	}

	if m := byName["length"]; m == nil || m.Static || m.Ret == nil || m.Ret.Type.Kind != zend.TypeDouble {
		t.Errorf("Length should export as instance method length, got %+v", m)
	}
	if m := byName["scale"]; m == nil || m.Vis != zend.MethodProtected || m.Ret != nil {
		t.Errorf("Scale should be protected with no return, got %+v", m)
	}
	if m := byName["origin"]; m == nil || !m.Static {
		t.Errorf("a class= method without receiver should be static, got %+v", m)
	}
	if m := byName["add"]; m == nil {
		t.Fatal("expected method add")
	} else {
		p := m.Params[0]
		if p.Type.Kind != zend.TypeObject || p.Type.Class != "Vector" {
			t.Errorf("class parameters should carry the PHP class, got %+v", p.Type)
		}
		if p.Type.Nullable || p.Optional {
			t.Error("a pointer to a class is not nullable")
		}
	}
}

func TestScan_MethodRenameRule(t *testing.T) {
	ext := mustScan(t, `package demo

//php:class rename_methods=snake_case
type Store struct{}

//php:method
func (s *Store) FlushAll() {}
`)
	if got := ext.Classes[0].Methods[0].PhpName; got != "flush_all" {
		t.Errorf("rename_methods=snake_case should apply, got %q", got)
	}
}

func TestScan_GetterSetter(t *testing.T) {
	ext := mustScan(t, `package demo

//php:class
type Counter struct {
	n int64
}

//php:method getter
func (c *Counter) GetValue() int64 { return c.n }

//php:method setter
func (c *Counter) SetValue(n int64) { c.n = n }
`)
	cm := ext.Classes[0]
	if len(cm.Methods) != 2 {
		t.Fatalf("expected 2 accessors, got %d", len(cm.Methods))
	}
	get, set := cm.Methods[0], cm.Methods[1]
	if get.Kind != MethodGetter || get.PropName != "value" {
		t.Errorf("GetValue should read property value, got %+v", get)
	}
	if set.Kind != MethodSetter || set.PropName != "value" {
		t.Errorf("SetValue should write property value, got %+v", set)
	}
}

func TestScan_IntEnum(t *testing.T) {
	ext := mustScan(t, `package demo

// Status classifies a record.
//
//php:enum
type Status int64

const (
	// StatusActive marks live records.
	StatusActive Status = iota
	StatusArchived
	//php:case name=Gone
	StatusDeleted
)
`)
	if len(ext.Enums) != 1 {
		t.Fatalf("expected 1 enum, got %d", len(ext.Enums))
	}
	em := ext.Enums[0]
	if em.PhpName != "Status" || em.Backing != zend.TypeLong {
		t.Fatalf("expected int-backed Status, got %+v", em)
	}
	if len(em.Cases) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(em.Cases))
	}

	tests := []struct {
		php  string
		long int64
	}{
		{"Active", 0},
		{"Archived", 1},
		{"Gone", 2},
	}
	for i, tt := range tests {
		if em.Cases[i].PhpName != tt.php || em.Cases[i].Long != tt.long {
			t.Errorf("case %d = %q/%d, want %q/%d",
				i, em.Cases[i].PhpName, em.Cases[i].Long, tt.php, tt.long)
		}
	}
	if len(em.Cases[0].Docs) != 1 {
		t.Errorf("case docs should survive, got %q", em.Cases[0].Docs)
	}
}

func TestScan_StringEnum(t *testing.T) {
	ext := mustScan(t, `package demo

//php:enum
type Color string

const (
	ColorRed   Color = "red"
	ColorGreen Color = "green"
)
`)
	em := ext.Enums[0]
	if em.Backing != zend.TypeString {
		t.Fatalf("expected string backing, got %v", em.Backing)
	}
	if em.Cases[0].Str != "red" || em.Cases[1].Str != "green" {
		t.Errorf("unexpected discriminants: %+v", em.Cases)
	}
}

func TestScan_PureEnum(t *testing.T) {
	ext := mustScan(t, `package demo

//php:enum pure
type Suit int

const (
	SuitHearts Suit = iota
	SuitSpades
)
`)
	em := ext.Enums[0]
	if em.Backing != zend.TypeNull {
		t.Errorf("pure enums have no backing, got %v", em.Backing)
	}
	if len(em.Cases) != 2 || em.Cases[1].PhpName != "Spades" {
		t.Errorf("unexpected cases: %+v", em.Cases)
	}
}

func TestScan_Constants(t *testing.T) {
	ext := mustScan(t, `package demo

//php:class
type Circle struct{}

// MaxRadius bounds construction.
//
//php:const
const MaxRadius = 100

//php:const class=Circle name=TAU
const tau = 6.283185307179586
`)
	if len(ext.Constants) != 1 {
		t.Fatalf("expected 1 global constant, got %d", len(ext.Constants))
	}
	c := ext.Constants[0]
	if c.PhpName != "MAX_RADIUS" || c.Kind != zend.TypeLong {
		t.Errorf("unexpected constant: %+v", c)
	}
	if c.Value != "int64(100)" || c.PHPValue != "100" {
		t.Errorf("unexpected rendering: %q / %q", c.Value, c.PHPValue)
	}

	cm := ext.Class("Circle")
	if len(cm.Constants) != 1 {
		t.Fatalf("expected 1 class constant, got %d", len(cm.Constants))
	}
	cc := cm.Constants[0]
	if cc.PhpName != "TAU" || cc.Class != "Circle" || cc.Kind != zend.TypeDouble {
		t.Errorf("unexpected class constant: %+v", cc)
	}
}

func TestScan_Startup(t *testing.T) {
	ext := mustScan(t, `package demo

//php:startup
func Boot() error { return nil }
`)
	if ext.Startup != "Boot" {
		t.Errorf("expected startup Boot, got %q", ext.Startup)
	}
}

func TestScan_ModuleIdentity(t *testing.T) {
	src := `package demo

//php:function
func Ping() {}
`
	ext := mustScan(t, src)
	if ext.Name != "demo" || ext.Version != "1.2.0" {
		t.Errorf("options should set identity, got %q %q", ext.Name, ext.Version)
	}

	ext, err := scanSourceOpts(t, src, Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if ext.Name != "demo" {
		t.Errorf("name should default to the package name, got %q", ext.Name)
	}
	if ext.Version != zend.Version {
		t.Errorf("version should default to the bridge version, got %q", ext.Version)
	}
}

// ---------------------------------------------------------------------------
// Rejected shapes
// ---------------------------------------------------------------------------

func TestScan_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"class on non-struct",
			`package demo

//php:class
type Weird int
`,
			"requires a struct type",
		},
		{
			"function directive on method",
			`package demo

//php:class
type Box struct{}

//php:function
func (b *Box) Open() {}
`,
			"use php:method",
		},
		{
			"method without binding",
			`package demo

//php:method
func Loose() {}
`,
			"needs class= or constructor",
		},
		{
			"receiver not a class",
			`package demo

type Plain struct{}

//php:method
func (p *Plain) Touch() {}
`,
			"is not a php:class",
		},
		{
			"constructor result not a class",
			`package demo

type Plain struct{}

//php:method constructor
func NewPlain() *Plain { return &Plain{} }
`,
			"is not a php:class",
		},
		{
			"unknown class option",
			`package demo

//php:method class=Missing
func Orphan() {}
`,
			"class Missing is not a php:class",
		},
		{
			"second startup",
			`package demo

//php:startup
func Boot() error { return nil }

//php:startup
func BootAgain() error { return nil }
`,
			"only one is allowed",
		},
		{
			"startup shape",
			`package demo

//php:startup
func Boot(n int64) error { return nil }
`,
			"requires a func() error",
		},
		{
			"default names no parameter",
			`package demo

//php:function default:missing=1
func Foo(a int64) int64 { return a }
`,
			"default:missing does not name a parameter",
		},
		{
			"optional marker names no parameter",
			`package demo

//php:function optional=missing
func Foo(a int64) int64 { return a }
`,
			"optional=missing does not name a parameter",
		},
		{
			"optional suffix not materializable",
			`package demo

//php:function optional=a
func Gap(a string, b string) string { return a + b }
`,
			"needs a pointer type or a default",
		},
		{
			"enum on struct",
			`package demo

//php:enum
type Bad struct{}
`,
			"requires an integer or string type",
		},
		{
			"const directive on enum constant",
			`package demo

//php:enum
type Status int64

//php:const
const StatusOdd Status = 9
`,
			"cannot apply to an enum constant",
		},
		{
			"case on plain constant",
			`package demo

//php:case
const Loose = 1
`,
			"not an enum case",
		},
		{
			"error parameter",
			`package demo

//php:function
func Check(err error) {}
`,
			"only valid as a trailing result",
		},
		{
			"unsupported parameter type",
			`package demo

//php:function
func Watch(ch chan int64) {}
`,
			"unsupported Go type",
		},
		{
			"colliding function names",
			`package demo

//php:function name=greet
func A() {}

//php:function name=Greet
func B() {}
`,
			"collide",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scanSource(t, tt.src)
			if err == nil {
				t.Fatal("Scan should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}
