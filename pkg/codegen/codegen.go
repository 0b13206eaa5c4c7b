// Package codegen renders the glue source for a scanned package: wrapper
// handlers that parse arguments and convert returns, registration thunks
// for classes and enums, and the module entry the host resolves through
// GetModule. Everything threads through one generator; nothing registers
// globally at emission time.
package codegen

import (
	"bytes"
	"fmt"
	"go/parser"
	"go/token"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/chazu/zenda/phpgen"
	"github.com/chazu/zenda/zend"
)

// zendPath is the import path the emitted glue binds against.
const zendPath = "github.com/chazu/zenda/zend"

// GlueFile is the file name the gen command writes the rendered source to.
const GlueFile = "zenda_glue.go"

// Options controls emission.
type Options struct {
	// SkipValidation disables the parse check on the rendered source.
	SkipValidation bool
}

// Result carries the rendered glue source and any warnings worth showing.
type Result struct {
	Code     string
	Warnings []string
}

// Generate renders the glue source for ext. The model must have passed
// phpgen.Validate; emission trusts its shapes.
func Generate(ext *phpgen.Extension, opts Options) (*Result, error) {
	g := &generator{ext: ext}
	res, err := g.generate()
	if err != nil {
		return nil, err
	}
	if !opts.SkipValidation {
		if err := checkSyntax(GlueFile, res.Code); err != nil {
			return nil, err
		}
	}
	return res, nil
}

type generator struct {
	ext      *phpgen.Extension
	warnings []string
}

func (g *generator) generate() (*Result, error) {
	f := jen.NewFile(g.ext.PkgName)
	f.HeaderComment("Code generated by zenda. DO NOT EDIT.")
	f.ImportName(zendPath, "zend")

	for i := range g.ext.Functions {
		fm := &g.ext.Functions[i]
		g.generateHandler(f, handlerName(fm.GoName), callTarget{fn: fm})
		g.generateFuncDecl(f, fm)
	}
	for i := range g.ext.Classes {
		g.generateClass(f, &g.ext.Classes[i])
	}
	for i := range g.ext.Enums {
		g.generateEnum(f, &g.ext.Enums[i])
	}
	g.generateModule(f)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("codegen: render glue: %w", err)
	}
	return &Result{Code: buf.String(), Warnings: g.warnings}, nil
}

// generateModule emits the module assembly and the GetModule export.
func (g *generator) generateModule(f *jen.File) {
	stmts := []jen.Code{
		jen.Id("b").Op(":=").Qual(zendPath, "NewModuleBuilder").Call(
			jen.Lit(g.ext.Name), jen.Lit(g.ext.Version)),
	}
	for i := range g.ext.Functions {
		stmts = append(stmts, jen.Id("b").Dot("Function").Call(
			jen.Id(funcDeclName(g.ext.Functions[i].GoName)).Call()))
	}
	for i := range g.ext.Constants {
		cm := &g.ext.Constants[i]
		args := []jen.Code{jen.Lit(cm.PhpName), jen.Id(cm.Value)}
		args = append(args, docLits(cm.Docs)...)
		stmts = append(stmts, jen.Id("b").Dot("Constant").Call(args...))
	}
	for i := range g.ext.Classes {
		stmts = append(stmts, jen.Id("b").Dot("Class").Call(
			jen.Id(classThunkName(g.ext.Classes[i].GoName))))
	}
	for i := range g.ext.Enums {
		stmts = append(stmts, jen.Id("b").Dot("Class").Call(
			jen.Id(enumThunkName(g.ext.Enums[i].GoName))))
	}
	if g.ext.Startup != "" {
		stmts = append(stmts, jen.Id("b").Dot("Startup").Call(jen.Id(g.ext.Startup)))
	}
	stmts = append(stmts, jen.Return(jen.Id("b")))

	f.Comment("zendaModule assembles the extension's registrations.")
	f.Func().Id("zendaModule").Params().Op("*").Qual(zendPath, "ModuleBuilder").Block(stmts...)
	f.Line()

	f.Comment("GetModule hands the host the module entry. Assembly failures are")
	f.Comment("bugs in the generated glue, so they panic.")
	f.Func().Id("GetModule").Params().Op("*").Qual(zendPath, "ModuleEntry").Block(
		jen.List(jen.Id("entry"), jen.Id("_"), jen.Id("err")).Op(":=").
			Id("zendaModule").Call().Dot("Build").Call(),
		jen.If(jen.Id("err").Op("!=").Nil()).Block(
			jen.Panic(jen.Lit(g.ext.Name+": ").Op("+").Id("err").Dot("Error").Call()),
		),
		jen.Return(jen.Id("entry")),
	)
}

// checkSyntax parses the rendered source and reports the first defect. A
// failure here is a generator bug surfacing, not a user error.
func checkSyntax(filename, src string) error {
	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, filename, src, parser.AllErrors); err != nil {
		return fmt.Errorf("codegen: generated source does not parse: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Emitted identifiers

func handlerName(goName string) string  { return "zendaHandle" + goName }
func funcDeclName(goName string) string { return "zendaFunc" + goName }

func methodHandlerName(class, method string) string {
	return "zendaHandle" + class + "_" + method
}

func methodDeclName(class, method string) string {
	return "zendaMethod" + class + "_" + method
}

func classThunkName(goName string) string { return "zendaClass" + goName }
func enumThunkName(goName string) string  { return "zendaEnum" + goName }

func enumFromCaseName(goName string) string { return "zenda" + goName + "FromCase" }
func enumToCaseName(goName string) string   { return "zenda" + goName + "ToCase" }

// ---------------------------------------------------------------------------
// Shared expression helpers

// typeExpr renders a Go type expression recorded by the scanner. The text
// is emitted verbatim; engine types rely on the zend import the rest of
// the glue always carries.
func typeExpr(goType string) *jen.Statement {
	return jen.Id(goType)
}

// dataTypeName maps an engine type tag to its constant name.
func dataTypeName(t zend.DataType) string {
	switch t {
	case zend.TypeNull:
		return "TypeNull"
	case zend.TypeBool:
		return "TypeBool"
	case zend.TypeLong:
		return "TypeLong"
	case zend.TypeDouble:
		return "TypeDouble"
	case zend.TypeString:
		return "TypeString"
	case zend.TypeArray:
		return "TypeArray"
	case zend.TypeObject:
		return "TypeObject"
	case zend.TypeResource:
		return "TypeResource"
	case zend.TypeCallable:
		return "TypeCallable"
	case zend.TypeIterable:
		return "TypeIterable"
	case zend.TypeMixed:
		return "TypeMixed"
	case zend.TypeVoid:
		return "TypeVoid"
	}
	return "TypeUndef"
}

func dataTypeExpr(t zend.DataType) *jen.Statement {
	return jen.Qual(zendPath, dataTypeName(t))
}

// docLits renders doc lines as string literal arguments.
func docLits(docs []string) []jen.Code {
	out := make([]jen.Code, len(docs))
	for i, d := range docs {
		out[i] = jen.Lit(d)
	}
	return out
}

// visibilityExpr renders a method's visibility flag, with MethodStatic
// OR-ed in for static methods.
func visibilityExpr(vis zend.MethodFlags, static bool) *jen.Statement {
	name := "MethodPublic"
	switch vis {
	case zend.MethodProtected:
		name = "MethodProtected"
	case zend.MethodPrivate:
		name = "MethodPrivate"
	}
	expr := jen.Qual(zendPath, name)
	if static {
		expr = expr.Op("|").Qual(zendPath, "MethodStatic")
	}
	return expr
}

// isPointerShaped reports whether a Go type expression is a pointer.
func isPointerShaped(goType string) bool {
	return strings.HasPrefix(goType, "*")
}
