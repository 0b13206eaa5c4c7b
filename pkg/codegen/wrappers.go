package codegen

import (
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/chazu/zenda/phpgen"
	"github.com/chazu/zenda/zend"
)

// callTarget is one Go callable the glue wraps: a package function, or a
// method with its owning class.
type callTarget struct {
	fn     *phpgen.FuncModel
	class  *phpgen.ClassModel
	method *phpgen.MethodModel
}

func (t callTarget) isConstructor() bool {
	return t.method != nil && t.method.Kind == phpgen.MethodConstructor
}

// hasReceiver reports whether the wrapped callable is invoked on the
// recovered native value. Constructors recover it last, to initialize it.
func (t callTarget) hasReceiver() bool {
	return t.method != nil && !t.method.Static && !t.isConstructor()
}

func argVar(i int) string { return fmt.Sprintf("arg%d", i) }
func valVar(i int) string { return fmt.Sprintf("v%d", i) }
func outVar(i int) string { return fmt.Sprintf("out%d", i) }
func objVar(i int) string { return fmt.Sprintf("obj%d", i) }
func tmpVar(i int) string { return fmt.Sprintf("x%d", i) }

// throwReturn emits the error branch every fallible step shares: throw the
// Go error as an engine exception and bail out of the handler.
func throwReturn() jen.Code {
	return jen.If(jen.Err().Op("!=").Nil()).Block(
		jen.Qual(zendPath, "ThrowFromError").Call(jen.Err()),
		jen.Return(),
	)
}

// generateHandler emits one wrapper handler: recover the receiver, declare
// and parse argument slots, extract native values, call the Go function,
// and convert the result back into ret.
func (g *generator) generateHandler(f *jen.File, name string, t callTarget) {
	var body []jen.Code

	if t.hasReceiver() {
		body = append(body,
			jen.List(jen.Id("this"), jen.Err()).Op(":=").
				Qual(zendPath, "ObjOf").Index(jen.Id(t.class.GoName)).
				Call(jen.Id("ex").Dot("This").Call()),
			throwReturn(),
		)
	}

	for i := range t.fn.Params {
		body = append(body, argDecl(i, &t.fn.Params[i]))
	}
	body = append(body, parseStmt(t.fn.Params))

	for i := range t.fn.Params {
		body = append(body, g.extractParam(i, &t.fn.Params[i])...)
	}

	body = append(body, g.callAndReturn(t)...)

	f.Func().Id(name).Params(
		jen.Id("ex").Op("*").Qual(zendPath, "ExecuteData"),
		jen.Id("ret").Op("*").Qual(zendPath, "Zval"),
	).Block(body...)
	f.Line()
}

// argDecl declares one parser slot with its binding options.
func argDecl(i int, p *phpgen.ParamModel) jen.Code {
	return jen.Id(argVar(i)).Op(":=").Add(argExpr(p))
}

// parseStmt chains the frame parser over every slot. Parse throws its own
// ArgumentCountError, so the handler only bails.
func parseStmt(params []phpgen.ParamModel) jen.Code {
	chain := jen.Id("ex").Dot("Parser").Call()
	marked := false
	for i := range params {
		if params[i].Optional && !marked {
			chain = chain.Dot("NotRequired").Call()
			marked = true
		}
		chain = chain.Dot("Arg").Call(jen.Id(argVar(i)))
	}
	return jen.If(
		jen.Err().Op(":=").Add(chain.Dot("Parse").Call()),
		jen.Err().Op("!=").Nil(),
	).Block(jen.Return())
}

// ---------------------------------------------------------------------------
// Parameter extraction

func (g *generator) extractParam(i int, p *phpgen.ParamModel) []jen.Code {
	if p.Variadic {
		return g.extractVariadic(i, p)
	}
	if p.Type.GoType == "*zend.Zval" {
		// The raw cell is the value; an absent optional slot stays nil.
		return []jen.Code{jen.Id(valVar(i)).Op(":=").Id(argVar(i)).Dot("Val").Call()}
	}
	if p.Optional {
		return g.extractOptional(i, p)
	}
	return g.extractRequired(i, p)
}

func (g *generator) extractRequired(i int, p *phpgen.ParamModel) []jen.Code {
	gt := p.Type.GoType
	if em := g.enumFor(&p.Type); em != nil {
		stmts := []jen.Code{
			jen.List(jen.Id(objVar(i)), jen.Err()).Op(":=").
				Qual(zendPath, "ArgVal").Index(jen.Op("*").Qual(zendPath, "Object")).
				Call(jen.Id(argVar(i))),
			throwReturn(),
		}
		if isPointerShaped(gt) {
			return append(stmts,
				jen.List(jen.Id(tmpVar(i)), jen.Err()).Op(":=").
					Id(enumFromCaseName(em.GoName)).Call(jen.Id(objVar(i))),
				throwReturn(),
				jen.Id(valVar(i)).Op(":=").Op("&").Id(tmpVar(i)),
			)
		}
		return append(stmts,
			jen.List(jen.Id(valVar(i)), jen.Err()).Op(":=").
				Id(enumFromCaseName(em.GoName)).Call(jen.Id(objVar(i))),
			throwReturn(),
		)
	}
	if cm := g.classFor(&p.Type); cm != nil {
		if isPointerShaped(gt) {
			return []jen.Code{
				jen.List(jen.Id(valVar(i)), jen.Err()).Op(":=").
					Qual(zendPath, "ArgObj").Index(jen.Id(cm.GoName)).Call(jen.Id(argVar(i))),
				throwReturn(),
			}
		}
		return []jen.Code{
			jen.List(jen.Id(tmpVar(i)), jen.Err()).Op(":=").
				Qual(zendPath, "ArgObj").Index(jen.Id(cm.GoName)).Call(jen.Id(argVar(i))),
			throwReturn(),
			jen.Id(valVar(i)).Op(":=").Op("*").Id(tmpVar(i)),
		}
	}
	return []jen.Code{
		jen.List(jen.Id(valVar(i)), jen.Err()).Op(":=").
			Qual(zendPath, "ArgVal").Index(typeExpr(gt)).Call(jen.Id(argVar(i))),
		throwReturn(),
	}
}

// extractOptional declares the value with its default and overwrites it
// when the slot was bound. Explicit nulls reach the conversion for nullable
// Go types, which absorb them; handle-shaped types guard them out instead.
func (g *generator) extractOptional(i int, p *phpgen.ParamModel) []jen.Code {
	gt := p.Type.GoType
	vv := valVar(i)

	var stmts []jen.Code
	switch {
	case p.DefaultGo == "" || p.DefaultGo == "nil":
		stmts = append(stmts, jen.Var().Id(vv).Add(typeExpr(gt)))
	case isPointerShaped(gt):
		elem := strings.TrimPrefix(gt, "*")
		stmts = append(stmts,
			jen.Id(tmpVar(i)).Op(":=").Id(elem).Call(jen.Id(p.DefaultGo)),
			jen.Id(vv).Op(":=").Op("&").Id(tmpVar(i)),
		)
	default:
		stmts = append(stmts, jen.Id(vv).Op(":=").Id(gt).Call(jen.Id(p.DefaultGo)))
	}

	cond := jen.Id(argVar(i)).Dot("Val").Call().Op("!=").Nil()
	if p.DefaultPHP == "null" && !p.Type.Nullable {
		cond = cond.Op("&&").Op("!").Id(argVar(i)).Dot("Val").Call().Dot("IsNull").Call()
	}

	stmts = append(stmts, jen.If(cond).Block(g.extractBound(i, p)...))
	return stmts
}

// extractBound converts a bound optional slot into the declared value.
func (g *generator) extractBound(i int, p *phpgen.ParamModel) []jen.Code {
	gt := p.Type.GoType
	if em := g.enumFor(&p.Type); em != nil {
		return []jen.Code{
			jen.List(jen.Id(objVar(i)), jen.Err()).Op(":=").
				Qual(zendPath, "ArgVal").Index(jen.Op("*").Qual(zendPath, "Object")).
				Call(jen.Id(argVar(i))),
			throwReturn(),
			jen.List(jen.Id("c"+tmpVar(i)), jen.Err()).Op(":=").
				Id(enumFromCaseName(em.GoName)).Call(jen.Id(objVar(i))),
			throwReturn(),
			jen.Id(valVar(i)).Op("=").Op("&").Id("c"+tmpVar(i)),
		}
	}
	if cm := g.classFor(&p.Type); cm != nil {
		return []jen.Code{
			jen.List(jen.Id("c"+tmpVar(i)), jen.Err()).Op(":=").
				Qual(zendPath, "ArgObj").Index(jen.Id(cm.GoName)).Call(jen.Id(argVar(i))),
			throwReturn(),
			jen.Id(valVar(i)).Op("=").Id("c" + tmpVar(i)),
		}
	}
	return []jen.Code{
		jen.List(jen.Id("c"+tmpVar(i)), jen.Err()).Op(":=").
			Qual(zendPath, "ArgVal").Index(typeExpr(gt)).Call(jen.Id(argVar(i))),
		throwReturn(),
		jen.Id(valVar(i)).Op("=").Id("c" + tmpVar(i)),
	}
}

func (g *generator) extractVariadic(i int, p *phpgen.ParamModel) []jen.Code {
	gt := p.Type.GoType
	if gt == "*zend.Zval" {
		return []jen.Code{jen.Id(valVar(i)).Op(":=").Id(argVar(i)).Dot("Variadics").Call()}
	}
	if em := g.enumFor(&p.Type); em != nil {
		elem := jen.Id("e" + tmpVar(i))
		if isPointerShaped(gt) {
			elem = jen.Op("&").Id("e" + tmpVar(i))
		}
		return []jen.Code{
			jen.List(jen.Id(objVar(i)), jen.Err()).Op(":=").
				Qual(zendPath, "VariadicVals").Index(jen.Op("*").Qual(zendPath, "Object")).
				Call(jen.Id(argVar(i))),
			throwReturn(),
			jen.Id(valVar(i)).Op(":=").Make(jen.Index().Add(typeExpr(gt)), jen.Lit(0), jen.Len(jen.Id(objVar(i)))),
			jen.For(jen.List(jen.Id("_"), jen.Id("o")).Op(":=").Range().Id(objVar(i))).Block(
				jen.List(jen.Id("e"+tmpVar(i)), jen.Err()).Op(":=").
					Id(enumFromCaseName(em.GoName)).Call(jen.Id("o")),
				throwReturn(),
				jen.Id(valVar(i)).Op("=").Append(jen.Id(valVar(i)), elem),
			),
		}
	}
	if cm := g.classFor(&p.Type); cm != nil {
		if isPointerShaped(gt) {
			return []jen.Code{
				jen.List(jen.Id(valVar(i)), jen.Err()).Op(":=").
					Qual(zendPath, "VariadicObjs").Index(jen.Id(cm.GoName)).Call(jen.Id(argVar(i))),
				throwReturn(),
			}
		}
		return []jen.Code{
			jen.List(jen.Id(objVar(i)), jen.Err()).Op(":=").
				Qual(zendPath, "VariadicObjs").Index(jen.Id(cm.GoName)).Call(jen.Id(argVar(i))),
			throwReturn(),
			jen.Id(valVar(i)).Op(":=").Make(jen.Index().Add(typeExpr(gt)), jen.Lit(0), jen.Len(jen.Id(objVar(i)))),
			jen.For(jen.List(jen.Id("_"), jen.Id("o")).Op(":=").Range().Id(objVar(i))).Block(
				jen.Id(valVar(i)).Op("=").Append(jen.Id(valVar(i)), jen.Op("*").Id("o")),
			),
		}
	}
	return []jen.Code{
		jen.List(jen.Id(valVar(i)), jen.Err()).Op(":=").
			Qual(zendPath, "VariadicVals").Index(typeExpr(gt)).Call(jen.Id(argVar(i))),
		throwReturn(),
	}
}

// ---------------------------------------------------------------------------
// Call and return conversion

func (g *generator) callAndReturn(t callTarget) []jen.Code {
	fm := t.fn
	args := make([]jen.Code, 0, len(fm.Params))
	for i := range fm.Params {
		a := jen.Id(valVar(i))
		if fm.Params[i].Variadic {
			a = a.Op("...")
		}
		args = append(args, a)
	}
	var call *jen.Statement
	if t.hasReceiver() {
		call = jen.Id("this").Dot(fm.GoName).Call(args...)
	} else {
		call = jen.Id(fm.GoName).Call(args...)
	}

	if t.isConstructor() {
		return g.ctorReturn(t, call)
	}

	var stmts []jen.Code
	switch {
	case fm.Ret == nil && !fm.ReturnsErr:
		stmts = append(stmts, call)
	case fm.Ret == nil:
		stmts = append(stmts, jen.If(
			jen.Err().Op(":=").Add(call),
			jen.Err().Op("!=").Nil(),
		).Block(jen.Qual(zendPath, "ThrowFromError").Call(jen.Err())))
	default:
		lhs := make([]jen.Code, 0, fm.Ret.Count+1)
		for i := 0; i < fm.Ret.Count; i++ {
			lhs = append(lhs, jen.Id(outVar(i)))
		}
		if fm.ReturnsErr {
			lhs = append(lhs, jen.Err())
		}
		stmts = append(stmts, jen.List(lhs...).Op(":=").Add(call))
		if fm.ReturnsErr {
			stmts = append(stmts, throwReturn())
		}
		stmts = append(stmts, g.convertReturn(fm.Ret)...)
	}
	return stmts
}

// ctorReturn installs the constructed value into the engine-created
// container bound to $this.
func (g *generator) ctorReturn(t callTarget, call *jen.Statement) []jen.Code {
	fm := t.fn
	ptr := isPointerShaped(fm.Ret.Type.GoType)

	var stmts []jen.Code
	if fm.ReturnsErr {
		stmts = append(stmts,
			jen.List(jen.Id(outVar(0)), jen.Err()).Op(":=").Add(call),
			throwReturn(),
		)
	} else {
		stmts = append(stmts, jen.Id(outVar(0)).Op(":=").Add(call))
	}
	if ptr {
		stmts = append(stmts, jen.If(jen.Id(outVar(0)).Op("==").Nil()).Block(
			jen.Qual(zendPath, "ThrowClass").Call(
				jen.Qual(zendPath, "ErrorCE").Call(),
				jen.Lit(t.class.PhpName+" constructor returned nothing")),
			jen.Return(),
		))
	}
	val := jen.Id(outVar(0))
	if ptr {
		val = jen.Op("*").Id(outVar(0))
	}
	return append(stmts,
		jen.List(jen.Id("co"), jen.Err()).Op(":=").
			Qual(zendPath, "ObjectOf").Index(jen.Id(t.class.GoName)).
			Call(jen.Id("ex").Dot("This").Call()),
		throwReturn(),
		jen.Id("co").Dot("Initialize").Call(val),
	)
}

func (g *generator) convertReturn(r *phpgen.RetModel) []jen.Code {
	if r.Count > 1 {
		vals := make([]jen.Code, r.Count)
		for i := range vals {
			vals[i] = jen.Id(outVar(i))
		}
		return []jen.Code{toZvalStmt(jen.Index().Any().Values(vals...))}
	}

	ptr := isPointerShaped(r.Type.GoType)
	var stmts []jen.Code
	if ptr {
		stmts = append(stmts, jen.If(jen.Id(outVar(0)).Op("==").Nil()).Block(
			jen.Id("ret").Dot("SetNull").Call(),
			jen.Return(),
		))
	}
	val := func() *jen.Statement {
		if ptr {
			return jen.Op("*").Id(outVar(0))
		}
		return jen.Id(outVar(0))
	}

	if em := g.enumFor(&r.Type); em != nil {
		return append(stmts,
			jen.List(jen.Id("caseObj"), jen.Err()).Op(":=").
				Id(enumToCaseName(em.GoName)).Call(val()),
			throwReturn(),
			jen.Id("ret").Dot("SetObject").Call(jen.Id("caseObj")),
		)
	}
	if cm := g.classFor(&r.Type); cm != nil {
		return append(stmts, jen.Qual(zendPath, "ReturnObject").
			Index(jen.Id(cm.GoName)).Call(jen.Id("ret"), val()))
	}
	return append(stmts, toZvalStmt(jen.Id(outVar(0))))
}

func toZvalStmt(val jen.Code) jen.Code {
	return jen.If(
		jen.Err().Op(":=").Qual(zendPath, "ToZval").Call(jen.Id("ret"), val),
		jen.Err().Op("!=").Nil(),
	).Block(jen.Qual(zendPath, "ThrowFromError").Call(jen.Err()))
}

// ---------------------------------------------------------------------------
// Model lookups

func (g *generator) enumFor(ref *phpgen.TypeRef) *phpgen.EnumModel {
	if ref.Kind != zend.TypeObject || ref.Class == "" {
		return nil
	}
	return g.ext.Enum(ref.Class)
}

func (g *generator) classFor(ref *phpgen.TypeRef) *phpgen.ClassModel {
	if ref.Kind != zend.TypeObject || ref.Class == "" {
		return nil
	}
	return g.ext.Class(ref.Class)
}
