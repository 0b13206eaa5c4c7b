package codegen

import (
	"github.com/dave/jennifer/jen"

	"github.com/chazu/zenda/phpgen"
	"github.com/chazu/zenda/zend"
)

// argExpr renders one zend.NewArg declaration chain for a parameter.
func argExpr(p *phpgen.ParamModel) *jen.Statement {
	expr := jen.Qual(zendPath, "NewArg").Call(jen.Lit(p.PhpName), dataTypeExpr(p.Type.Kind))
	if p.Type.Kind == zend.TypeObject && p.Type.Class != "" {
		expr = expr.Dot("OfClass").Call(jen.Lit(p.Type.Class))
	}
	if p.Type.Nullable || p.DefaultPHP == "null" {
		expr = expr.Dot("AllowNull").Call()
	}
	if p.Variadic {
		expr = expr.Dot("Variadic").Call()
	}
	if p.DefaultPHP != "" {
		expr = expr.Dot("WithDefault").Call(jen.Lit(p.DefaultPHP))
	}
	return expr
}

// builderChain renders a FunctionBuilder chain for a callable: arg slots
// with the optional boundary, the return declaration, and docs.
func builderChain(phpName, handler string, fm *phpgen.FuncModel) *jen.Statement {
	chain := jen.Qual(zendPath, "NewFunctionBuilder").Call(jen.Lit(phpName), jen.Id(handler))
	marked := false
	for i := range fm.Params {
		p := &fm.Params[i]
		if p.Optional && !marked {
			chain = chain.Dot("NotRequired").Call()
			marked = true
		}
		chain = chain.Dot("Arg").Call(argExpr(p))
	}
	if r := fm.Ret; r != nil {
		switch {
		case r.Count > 1:
			chain = chain.Dot("Returns").Call(
				jen.Qual(zendPath, "TypeArray"), jen.False(), jen.False())
		case r.Type.Kind == zend.TypeObject && r.Type.Class != "":
			chain = chain.Dot("ReturnsObject").Call(
				jen.Lit(r.Type.Class), jen.Lit(r.Type.Nullable))
		default:
			chain = chain.Dot("Returns").Call(
				dataTypeExpr(r.Type.Kind), jen.False(), jen.Lit(r.Type.Nullable))
		}
	}
	if len(fm.Docs) > 0 {
		chain = chain.Dot("Docs").Call(docLits(fm.Docs)...)
	}
	return chain
}

// buildPanicBody wraps a builder chain in a declaration func. A Build
// failure here is a generator defect, so the glue panics.
func (g *generator) buildPanicBody(chain *jen.Statement) []jen.Code {
	return []jen.Code{
		jen.List(jen.Id("fn"), jen.Err()).Op(":=").Add(chain.Dot("Build").Call()),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Panic(jen.Lit(g.ext.Name+": ").Op("+").Id("err").Dot("Error").Call()),
		),
		jen.Return(jen.Id("fn")),
	}
}

// generateFuncDecl emits the declaration func for one package function.
func (g *generator) generateFuncDecl(f *jen.File, fm *phpgen.FuncModel) {
	chain := builderChain(fm.PhpName, handlerName(fm.GoName), fm)
	f.Func().Id(funcDeclName(fm.GoName)).Params().
		Op("*").Qual(zendPath, "Function").
		Block(g.buildPanicBody(chain)...)
	f.Line()
}

// generateMethodDecl emits the declaration func for one class method.
func (g *generator) generateMethodDecl(f *jen.File, cm *phpgen.ClassModel, mm *phpgen.MethodModel) {
	chain := builderChain(mm.PhpName, methodHandlerName(cm.GoName, mm.GoName), &mm.FuncModel)
	chain = chain.Dot("Flags").Call(visibilityExpr(mm.Vis.Visibility(), mm.Static))
	f.Func().Id(methodDeclName(cm.GoName, mm.GoName)).Params().
		Op("*").Qual(zendPath, "Function").
		Block(g.buildPanicBody(chain)...)
	f.Line()
}

// ---------------------------------------------------------------------------
// Classes

// generateClass emits everything one exported class needs: a handler and a
// declaration per callable method, and the registration thunk wiring the
// native overlay.
func (g *generator) generateClass(f *jen.File, cm *phpgen.ClassModel) {
	for i := range cm.Methods {
		mm := &cm.Methods[i]
		if mm.Kind == phpgen.MethodGetter || mm.Kind == phpgen.MethodSetter {
			continue
		}
		g.generateHandler(f, methodHandlerName(cm.GoName, mm.GoName),
			callTarget{fn: &mm.FuncModel, class: cm, method: mm})
		g.generateMethodDecl(f, cm, mm)
	}
	g.generateClassThunk(f, cm)
}

// propMapExpr renders the accessor map WithObject installs: one
// FieldProperty per exported field, one MethodProperty per getter/setter
// pair.
func propMapExpr(cm *phpgen.ClassModel) *jen.Statement {
	entries := jen.Dict{}
	for i := range cm.Props {
		pm := &cm.Props[i]
		sel := jen.Func().
			Params(jen.Id("t").Op("*").Id(cm.GoName)).
			Op("*").Add(typeExpr(pm.Type.GoType)).
			Block(jen.Return(jen.Op("&").Id("t").Dot(pm.GoField)))
		entries[jen.Lit(pm.PhpName)] = jen.Qual(zendPath, "FieldProperty").Call(sel)
	}

	type pair struct {
		get, set *phpgen.MethodModel
	}
	pairs := map[string]*pair{}
	var order []string
	for i := range cm.Methods {
		mm := &cm.Methods[i]
		if mm.Kind != phpgen.MethodGetter && mm.Kind != phpgen.MethodSetter {
			continue
		}
		p := pairs[mm.PropName]
		if p == nil {
			p = &pair{}
			pairs[mm.PropName] = p
			order = append(order, mm.PropName)
		}
		if mm.Kind == phpgen.MethodGetter {
			p.get = mm
		} else {
			p.set = mm
		}
	}
	for _, name := range order {
		p := pairs[name]
		var goType string
		if p.get != nil && p.get.Ret != nil {
			goType = p.get.Ret.Type.GoType
		} else if p.set != nil && len(p.set.Params) > 0 {
			goType = p.set.Params[0].Type.GoType
		}
		getExpr := jen.Code(jen.Nil())
		if p.get != nil {
			getExpr = jen.Parens(jen.Op("*").Id(cm.GoName)).Dot(p.get.GoName)
		}
		setExpr := jen.Code(jen.Nil())
		if p.set != nil {
			setExpr = jen.Parens(jen.Op("*").Id(cm.GoName)).Dot(p.set.GoName)
		}
		entries[jen.Lit(name)] = jen.Qual(zendPath, "MethodProperty").
			Index(jen.List(jen.Id(cm.GoName), typeExpr(goType))).
			Call(getExpr, setExpr)
	}

	return jen.Map(jen.String()).Qual(zendPath, "Property").
		Index(jen.Id(cm.GoName)).Values(entries)
}

// generateClassThunk emits the deferred registration func the module
// builder runs at startup.
func (g *generator) generateClassThunk(f *jen.File, cm *phpgen.ClassModel) {
	chain := jen.Qual(zendPath, "NewClassBuilder").Call(jen.Lit(cm.PhpName))
	if len(cm.Docs) > 0 {
		chain = chain.Dot("Docs").Call(docLits(cm.Docs)...)
	}
	for _, name := range cm.Flags {
		chain = chain.Dot("Flags").Call(jen.Qual(zendPath, name))
	}
	if cm.Extends != "" {
		chain = chain.Dot("Extends").Call(
			jen.Qual(zendPath, "ClassRef").Call(jen.Lit(cm.Extends)))
	}
	for _, iface := range cm.Implements {
		chain = chain.Dot("Implements").Call(
			jen.Qual(zendPath, "ClassRef").Call(jen.Lit(iface)))
	}

	body := []jen.Code{
		jen.Id("b").Op(":=").Add(chain),
		jen.Id("b").Op("=").Qual(zendPath, "WithObject").
			Index(jen.Id(cm.GoName)).Call(jen.Id("b"), propMapExpr(cm)),
	}
	for i := range cm.Methods {
		mm := &cm.Methods[i]
		if mm.Kind == phpgen.MethodGetter || mm.Kind == phpgen.MethodSetter {
			continue
		}
		body = append(body, jen.Id("b").Dot("Method").Call(
			jen.Id(methodDeclName(cm.GoName, mm.GoName)).Call()))
	}
	for i := range cm.Constants {
		km := &cm.Constants[i]
		args := []jen.Code{jen.Lit(km.PhpName), jen.Id(km.Value)}
		args = append(args, docLits(km.Docs)...)
		body = append(body, jen.Id("b").Dot("Constant").Call(args...))
	}
	body = append(body, jen.Return(jen.Id("b").Dot("Register").Call()))

	f.Comment(classThunkName(cm.GoName) + " registers " + cm.PhpName + " at module startup.")
	f.Func().Id(classThunkName(cm.GoName)).Params().
		Params(jen.Op("*").Qual(zendPath, "ClassEntry"), jen.Error()).
		Block(body...)
	f.Line()
}

// ---------------------------------------------------------------------------
// Enums

// generateEnum emits the registration thunk plus the case conversion pair
// the wrapper handlers call.
func (g *generator) generateEnum(f *jen.File, em *phpgen.EnumModel) {
	chain := jen.Qual(zendPath, "NewEnumBuilder").Call(jen.Lit(em.PhpName))
	if len(em.Docs) > 0 {
		chain = chain.Dot("Docs").Call(docLits(em.Docs)...)
	}
	for i := range em.Cases {
		km := &em.Cases[i]
		switch em.Backing {
		case zend.TypeLong:
			args := []jen.Code{jen.Lit(km.PhpName), jen.Lit(km.Long)}
			args = append(args, docLits(km.Docs)...)
			chain = chain.Dot("LongCase").Call(args...)
		case zend.TypeString:
			args := []jen.Code{jen.Lit(km.PhpName), jen.Lit(km.Str)}
			args = append(args, docLits(km.Docs)...)
			chain = chain.Dot("StringCase").Call(args...)
		default:
			args := []jen.Code{jen.Lit(km.PhpName)}
			args = append(args, docLits(km.Docs)...)
			chain = chain.Dot("Case").Call(args...)
		}
	}

	f.Comment(enumThunkName(em.GoName) + " registers " + em.PhpName + " at module startup.")
	f.Func().Id(enumThunkName(em.GoName)).Params().
		Params(jen.Op("*").Qual(zendPath, "ClassEntry"), jen.Error()).
		Block(jen.Return(chain.Dot("Register").Call()))
	f.Line()

	g.generateEnumFromCase(f, em)
	g.generateEnumToCase(f, em)
}

// generateEnumFromCase maps an engine case singleton back to the Go value
// through the case name.
func (g *generator) generateEnumFromCase(f *jen.File, em *phpgen.EnumModel) {
	cases := make([]jen.Code, 0, len(em.Cases)+1)
	for i := range em.Cases {
		km := &em.Cases[i]
		cases = append(cases, jen.Case(jen.Lit(km.PhpName)).Block(
			jen.Return(jen.Id(km.GoName), jen.Nil())))
	}

	f.Func().Id(enumFromCaseName(em.GoName)).
		Params(jen.Id("obj").Op("*").Qual(zendPath, "Object")).
		Params(jen.Id(em.GoName), jen.Error()).
		Block(
			jen.Var().Id("zero").Id(em.GoName),
			jen.List(jen.Id("name"), jen.Err()).Op(":=").
				Qual(zendPath, "GetProperty").Index(jen.String()).
				Call(jen.Id("obj"), jen.Lit("name")),
			jen.If(jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Id("zero"), jen.Err()),
			),
			jen.Switch(jen.Id("name")).Block(cases...),
			jen.Return(jen.Id("zero"),
				jen.Qual("fmt", "Errorf").Call(
					jen.Lit(em.PhpName+" has no case %q"), jen.Id("name"))),
		)
	f.Line()
}

// generateEnumToCase maps a Go value to its registered case singleton.
func (g *generator) generateEnumToCase(f *jen.File, em *phpgen.EnumModel) {
	cases := make([]jen.Code, 0, len(em.Cases)+1)
	for i := range em.Cases {
		km := &em.Cases[i]
		cases = append(cases, jen.Case(jen.Id(km.GoName)).Block(
			jen.Id("name").Op("=").Lit(km.PhpName)))
	}
	cases = append(cases, jen.Default().Block(
		jen.Return(jen.Nil(), jen.Qual("fmt", "Errorf").Call(
			jen.Lit(em.PhpName+" has no case for value %v"), jen.Id("v")))))

	f.Func().Id(enumToCaseName(em.GoName)).
		Params(jen.Id("v").Id(em.GoName)).
		Params(jen.Op("*").Qual(zendPath, "Object"), jen.Error()).
		Block(
			jen.List(jen.Id("ce"), jen.Id("ok")).Op(":=").
				Qual(zendPath, "Executor").Call().Dot("Class").Call(jen.Lit(em.PhpName)),
			jen.If(jen.Op("!").Id("ok")).Block(
				jen.Return(jen.Nil(), jen.Qual("fmt", "Errorf").Call(
					jen.Lit("enum "+em.PhpName+" is not registered"))),
			),
			jen.Var().Id("name").String(),
			jen.Switch(jen.Id("v")).Block(cases...),
			jen.List(jen.Id("obj"), jen.Id("_")).Op(":=").Id("ce").Dot("EnumCase").Call(jen.Id("name")),
			jen.Return(jen.Id("obj"), jen.Nil()),
		)
	f.Line()
}
