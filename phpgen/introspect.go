package phpgen

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/chazu/zenda/zend"
)

// Options control a scan. ModuleName and Version normally come from the
// manifest; they default to the package name and the bridge version.
type Options struct {
	ModuleName string
	Version    string
	// Dir is the directory patterns resolve against. Empty means the
	// current directory.
	Dir string
	// Patterns select the packages to load, default ".".
	Patterns []string
}

// Load loads a Go package and scans it for php: directives.
func Load(opts Options) (*Extension, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo,
		Dir: opts.Dir,
	}
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("phpgen: loading %v: %w", patterns, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("phpgen: no packages found for %v", patterns)
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("phpgen: package errors: %v", pkg.Errors)
	}
	if pkg.Types == nil || pkg.TypesInfo == nil {
		return nil, fmt.Errorf("phpgen: type information not available for %s", pkg.PkgPath)
	}
	return Scan(pkg.Fset, pkg.Syntax, pkg.Types, pkg.TypesInfo, opts)
}

// Scan builds the extension model from already-loaded syntax and type
// information. Validate runs on the result before it is returned.
func Scan(fset *token.FileSet, files []*ast.File, typesPkg *types.Package, info *types.Info, opts Options) (*Extension, error) {
	sc := &scanner{
		fset:       fset,
		files:      files,
		typesPkg:   typesPkg,
		info:       info,
		classNames: map[string]string{},
		enumNames:  map[string]string{},
		ext: &Extension{
			Name:       opts.ModuleName,
			Version:    opts.Version,
			ImportPath: typesPkg.Path(),
			PkgName:    typesPkg.Name(),
		},
	}
	if sc.ext.Name == "" {
		sc.ext.Name = typesPkg.Name()
	}
	if sc.ext.Version == "" {
		sc.ext.Version = zend.Version
	}
	sc.qualifier = func(other *types.Package) string {
		if other == typesPkg {
			return ""
		}
		return other.Name()
	}

	if err := sc.registerTypes(); err != nil {
		return nil, err
	}
	if err := sc.buildTypes(); err != nil {
		return nil, err
	}
	if err := sc.buildFuncs(); err != nil {
		return nil, err
	}
	if err := sc.buildConsts(); err != nil {
		return nil, err
	}
	if err := Validate(sc.ext); err != nil {
		return nil, err
	}
	return sc.ext, nil
}

type scanner struct {
	fset      *token.FileSet
	files     []*ast.File
	typesPkg  *types.Package
	info      *types.Info
	qualifier types.Qualifier

	ext *Extension

	// Go type name to PHP name, filled before anything that needs type
	// mapping so declaration order between files does not matter.
	classNames map[string]string
	enumNames  map[string]string

	// Kept between passes: the type specs that carried directives.
	classSpecs []typeSpec
	enumSpecs  []typeSpec
}

type typeSpec struct {
	spec *ast.TypeSpec
	dir  *Directive
	docs []string
}

func (sc *scanner) errorf(node ast.Node, format string, args ...any) error {
	return fmt.Errorf("%s: %s", sc.fset.Position(node.Pos()), fmt.Sprintf(format, args...))
}

// docLines returns a comment group's lines without trailing newlines.
func docLines(doc *ast.CommentGroup) []string {
	if doc == nil {
		return nil
	}
	lines := make([]string, 0, len(doc.List))
	for _, c := range doc.List {
		lines = append(lines, c.Text)
	}
	return lines
}

// typeSpecDoc finds the doc comment for a type spec, looking at the
// enclosing declaration when the spec has none of its own.
func typeSpecDoc(decl *ast.GenDecl, spec *ast.TypeSpec) *ast.CommentGroup {
	if spec.Doc != nil {
		return spec.Doc
	}
	if len(decl.Specs) == 1 {
		return decl.Doc
	}
	return nil
}

// valueSpecDoc is typeSpecDoc for const declarations.
func valueSpecDoc(decl *ast.GenDecl, spec *ast.ValueSpec) *ast.CommentGroup {
	if spec.Doc != nil {
		return spec.Doc
	}
	if len(decl.Specs) == 1 {
		return decl.Doc
	}
	return nil
}

// ---------------------------------------------------------------------------
// Pass 1: register exported type names
// ---------------------------------------------------------------------------

func (sc *scanner) registerTypes() error {
	for _, file := range sc.files {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, s := range gd.Specs {
				spec := s.(*ast.TypeSpec)
				dir, docs, err := splitDoc(docLines(typeSpecDoc(gd, spec)))
				if err != nil {
					return sc.errorf(spec, "%v", err)
				}
				if dir == nil {
					continue
				}
				switch dir.Kind {
				case "class":
					name := dir.Opts["name"]
					if name == "" {
						name = spec.Name.Name
					}
					sc.classNames[spec.Name.Name] = name
					sc.classSpecs = append(sc.classSpecs, typeSpec{spec, dir, docs})
				case "enum":
					name := dir.Opts["name"]
					if name == "" {
						name = spec.Name.Name
					}
					sc.enumNames[spec.Name.Name] = name
					sc.enumSpecs = append(sc.enumSpecs, typeSpec{spec, dir, docs})
				default:
					return sc.errorf(spec, "directive php:%s cannot apply to a type", dir.Kind)
				}
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Pass 2: classes and enums
// ---------------------------------------------------------------------------

func (sc *scanner) buildTypes() error {
	for _, ts := range sc.classSpecs {
		if err := sc.buildClass(ts); err != nil {
			return err
		}
	}
	for _, ts := range sc.enumSpecs {
		if err := sc.buildEnum(ts); err != nil {
			return err
		}
	}
	return nil
}

func (sc *scanner) buildClass(ts typeSpec) error {
	st, ok := ts.spec.Type.(*ast.StructType)
	if !ok {
		return sc.errorf(ts.spec, "php:class requires a struct type")
	}

	cm := ClassModel{
		GoName:        ts.spec.Name.Name,
		PhpName:       sc.classNames[ts.spec.Name.Name],
		Docs:          ts.docs,
		Extends:       ts.dir.Opts["extends"],
		RenameMethods: RenameCamel,
	}
	if impl := ts.dir.Opts["implements"]; impl != "" {
		for _, name := range strings.Split(impl, ",") {
			cm.Implements = append(cm.Implements, strings.TrimSpace(name))
		}
	}
	if rule, ok := ts.dir.Opts["rename_methods"]; ok {
		r, err := ParseRenameRule(rule)
		if err != nil {
			return sc.errorf(ts.spec, "%v", err)
		}
		cm.RenameMethods = r
	}
	if ts.dir.Flags["final"] {
		cm.Flags = append(cm.Flags, "ClassFinal")
	}
	if ts.dir.Flags["abstract"] {
		cm.Flags = append(cm.Flags, "ClassAbstract")
	}

	for _, field := range st.Fields.List {
		dir, docs, err := splitDoc(docLines(field.Doc))
		if err != nil {
			return sc.errorf(field, "%v", err)
		}
		if dir == nil {
			continue
		}
		if dir.Kind != "prop" {
			return sc.errorf(field, "directive php:%s cannot apply to a struct field", dir.Kind)
		}
		if len(field.Names) != 1 {
			return sc.errorf(field, "php:prop requires a single named field")
		}
		name := field.Names[0]
		tv, ok := sc.info.Types[field.Type]
		if !ok {
			return sc.errorf(field, "no type information for field %s", name.Name)
		}
		ref, _, err := sc.paramType(tv.Type)
		if err != nil {
			return sc.errorf(field, "field %s: %v", name.Name, err)
		}
		php := dir.Opts["name"]
		if php == "" {
			php = RenameCamel.Apply(name.Name)
		}
		cm.Props = append(cm.Props, PropModel{
			GoField: name.Name,
			PhpName: php,
			Type:    ref,
			Docs:    docs,
		})
	}

	sc.ext.Classes = append(sc.ext.Classes, cm)
	return nil
}

func (sc *scanner) buildEnum(ts typeSpec) error {
	obj, ok := sc.info.Defs[ts.spec.Name].(*types.TypeName)
	if !ok {
		return sc.errorf(ts.spec, "no type information for %s", ts.spec.Name.Name)
	}
	basic, ok := obj.Type().Underlying().(*types.Basic)
	if !ok {
		return sc.errorf(ts.spec, "php:enum requires an integer or string type")
	}

	em := EnumModel{
		GoName:  ts.spec.Name.Name,
		PhpName: sc.enumNames[ts.spec.Name.Name],
		Docs:    ts.docs,
	}
	switch {
	case ts.dir.Flags["pure"]:
		em.Backing = zend.TypeNull
	case basic.Info()&types.IsInteger != 0:
		em.Backing = zend.TypeLong
	case basic.Info()&types.IsString != 0:
		em.Backing = zend.TypeString
	default:
		return sc.errorf(ts.spec, "php:enum requires an integer or string type")
	}

	// Cases are the package constants of the enum type, in declaration
	// order. A php:case directive renames or documents one.
	for _, file := range sc.files {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.CONST {
				continue
			}
			for _, s := range gd.Specs {
				spec := s.(*ast.ValueSpec)
				for _, name := range spec.Names {
					cobj, ok := sc.info.Defs[name].(*types.Const)
					if !ok || cobj.Type() != obj.Type() {
						continue
					}
					cs, err := sc.buildCase(&em, spec, valueSpecDoc(gd, spec), name, cobj)
					if err != nil {
						return err
					}
					em.Cases = append(em.Cases, cs)
				}
			}
		}
	}

	sc.ext.Enums = append(sc.ext.Enums, em)
	return nil
}

func (sc *scanner) buildCase(em *EnumModel, spec *ast.ValueSpec, doc *ast.CommentGroup, name *ast.Ident, cobj *types.Const) (CaseModel, error) {
	dir, docs, err := splitDoc(docLines(doc))
	if err != nil {
		return CaseModel{}, sc.errorf(spec, "%v", err)
	}
	if dir != nil && dir.Kind != "case" {
		return CaseModel{}, sc.errorf(spec, "directive php:%s cannot apply to an enum constant", dir.Kind)
	}

	cs := CaseModel{GoName: name.Name, Docs: docs}
	if dir != nil {
		cs.PhpName = dir.Opts["name"]
	}
	if cs.PhpName == "" {
		// StatusActive declared on enum Status exports as Active.
		cs.PhpName = strings.TrimPrefix(name.Name, em.GoName)
		if cs.PhpName == "" {
			cs.PhpName = name.Name
		}
	}

	switch em.Backing {
	case zend.TypeLong:
		n, ok := constant.Int64Val(cobj.Val())
		if !ok {
			return CaseModel{}, sc.errorf(spec, "case %s does not fit in int64", name.Name)
		}
		cs.Long = n
	case zend.TypeString:
		cs.Str = constant.StringVal(cobj.Val())
	}
	return cs, nil
}

// ---------------------------------------------------------------------------
// Pass 3: functions, methods, startup
// ---------------------------------------------------------------------------

func (sc *scanner) buildFuncs() error {
	for _, file := range sc.files {
		for _, decl := range file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			dir, docs, err := splitDoc(docLines(fd.Doc))
			if err != nil {
				return sc.errorf(fd, "%v", err)
			}
			if dir == nil {
				continue
			}
			switch dir.Kind {
			case "function":
				if err := sc.buildFunction(fd, dir, docs); err != nil {
					return err
				}
			case "method":
				if err := sc.buildMethod(fd, dir, docs); err != nil {
					return err
				}
			case "startup":
				if err := sc.buildStartup(fd); err != nil {
					return err
				}
			default:
				return sc.errorf(fd, "directive php:%s cannot apply to a function", dir.Kind)
			}
		}
	}
	return nil
}

func (sc *scanner) funcObj(fd *ast.FuncDecl) (*types.Func, error) {
	fn, ok := sc.info.Defs[fd.Name].(*types.Func)
	if !ok {
		return nil, sc.errorf(fd, "no type information for %s", fd.Name.Name)
	}
	return fn, nil
}

func (sc *scanner) buildFunction(fd *ast.FuncDecl, dir *Directive, docs []string) error {
	if fd.Recv != nil {
		return sc.errorf(fd, "php:function cannot apply to a method; use php:method")
	}
	fn, err := sc.funcObj(fd)
	if err != nil {
		return err
	}
	fm, err := sc.funcModel(fd, fn, dir, docs, RenameNone)
	if err != nil {
		return err
	}
	sc.ext.Functions = append(sc.ext.Functions, *fm)
	return nil
}

func (sc *scanner) buildStartup(fd *ast.FuncDecl) error {
	if sc.ext.Startup != "" {
		return sc.errorf(fd, "a second php:startup function; only one is allowed")
	}
	fn, err := sc.funcObj(fd)
	if err != nil {
		return err
	}
	sig := fn.Type().(*types.Signature)
	if fd.Recv != nil || sig.Params().Len() != 0 ||
		sig.Results().Len() != 1 || !isErrorType(sig.Results().At(0).Type()) {
		return sc.errorf(fd, "php:startup requires a func() error")
	}
	sc.ext.Startup = fd.Name.Name
	return nil
}

// receiverClass resolves a method receiver to its class model.
func (sc *scanner) receiverClass(fd *ast.FuncDecl) (*ClassModel, error) {
	expr := fd.Recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	ident, ok := expr.(*ast.Ident)
	if !ok {
		return nil, sc.errorf(fd, "unsupported receiver type")
	}
	php, ok := sc.classNames[ident.Name]
	if !ok {
		return nil, sc.errorf(fd, "receiver type %s is not a php:class", ident.Name)
	}
	return sc.ext.Class(php), nil
}

// resultClass resolves a constructor's first result to its class model.
func (sc *scanner) resultClass(fd *ast.FuncDecl, sig *types.Signature) (*ClassModel, error) {
	if sig.Results().Len() == 0 {
		return nil, sc.errorf(fd, "a constructor must return the class type")
	}
	t := sig.Results().At(0).Type()
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	named, ok := t.(*types.Named)
	if !ok {
		return nil, sc.errorf(fd, "a constructor must return the class type")
	}
	php, ok := sc.classNames[named.Obj().Name()]
	if !ok {
		return nil, sc.errorf(fd, "constructor result %s is not a php:class", named.Obj().Name())
	}
	return sc.ext.Class(php), nil
}

func (sc *scanner) buildMethod(fd *ast.FuncDecl, dir *Directive, docs []string) error {
	fn, err := sc.funcObj(fd)
	if err != nil {
		return err
	}
	sig := fn.Type().(*types.Signature)

	var cm *ClassModel
	switch {
	case fd.Recv != nil:
		cm, err = sc.receiverClass(fd)
	case dir.Opts["class"] != "":
		goName := dir.Opts["class"]
		php, ok := sc.classNames[goName]
		if !ok {
			return sc.errorf(fd, "class %s is not a php:class", goName)
		}
		cm = sc.ext.Class(php)
	case dir.Flags["constructor"]:
		cm, err = sc.resultClass(fd, sig)
	default:
		return sc.errorf(fd, "php:method without a receiver needs class= or constructor")
	}
	if err != nil {
		return err
	}

	mm := MethodModel{Static: fd.Recv == nil, Vis: zend.MethodPublic}
	switch {
	case dir.Flags["constructor"]:
		mm.Kind = MethodConstructor
		mm.Static = false
	case dir.Flags["getter"]:
		mm.Kind = MethodGetter
	case dir.Flags["setter"]:
		mm.Kind = MethodSetter
	}
	switch {
	case dir.Flags["protected"]:
		mm.Vis = zend.MethodProtected
	case dir.Flags["private"]:
		mm.Vis = zend.MethodPrivate
	}

	fm, err := sc.funcModel(fd, fn, dir, docs, cm.RenameMethods)
	if err != nil {
		return err
	}
	mm.FuncModel = *fm

	switch mm.Kind {
	case MethodConstructor:
		mm.PhpName = "__construct"
		if name := dir.Opts["name"]; name != "" {
			mm.PhpName = name
		}
	case MethodGetter, MethodSetter:
		mm.PropName = dir.Opts["name"]
		if mm.PropName == "" {
			mm.PropName = RenameCamel.Apply(stripAccessorPrefix(fd.Name.Name))
		}
	}

	cm.Methods = append(cm.Methods, mm)
	return nil
}

// stripAccessorPrefix removes a leading Get or Set from an accessor name.
func stripAccessorPrefix(name string) string {
	for _, prefix := range []string{"Get", "Set"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok && rest != "" {
			return rest
		}
	}
	return name
}

// funcModel builds the shared function shape: name, parameters with the
// optional suffix, and the return.
func (sc *scanner) funcModel(fd *ast.FuncDecl, fn *types.Func, dir *Directive, docs []string, rename RenameRule) (*FuncModel, error) {
	sig := fn.Type().(*types.Signature)

	fm := &FuncModel{GoName: fn.Name(), Docs: docs}
	fm.PhpName = dir.Opts["name"]
	if fm.PhpName == "" {
		fm.PhpName = rename.Apply(fn.Name())
	}

	params := sig.Params()
	optionalFrom := -1
	if marker := dir.Opts["optional"]; marker != "" {
		found := false
		for i := 0; i < params.Len(); i++ {
			if params.At(i).Name() == marker {
				optionalFrom = i
				found = true
				break
			}
		}
		if !found {
			return nil, sc.errorf(fd, "optional=%s does not name a parameter", marker)
		}
	}

	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		variadic := sig.Variadic() && i == params.Len()-1

		t := p.Type()
		if variadic {
			t = t.(*types.Slice).Elem()
		}
		ref, optionalShaped, err := sc.paramType(t)
		if err != nil {
			return nil, sc.errorf(fd, "parameter %s: %v", p.Name(), err)
		}

		pm := ParamModel{
			GoName:   p.Name(),
			PhpName:  p.Name(),
			Type:     ref,
			Variadic: variadic,
		}
		if expr, ok := dir.Defaults[p.Name()]; ok {
			phpSrc, goSrc, err := renderDefault(expr, ref.Kind)
			if err != nil {
				return nil, sc.errorf(fd, "default for %s: %v", p.Name(), err)
			}
			pm.DefaultPHP, pm.DefaultGo = phpSrc, goSrc
		}

		// The optional suffix starts at the marker or at the first
		// optional-shaped parameter.
		if optionalFrom < 0 && (optionalShaped || pm.DefaultPHP != "") && !variadic {
			optionalFrom = i
		}
		pm.Optional = optionalFrom >= 0 && i >= optionalFrom && !variadic
		fm.Params = append(fm.Params, pm)
	}

	for name := range dir.Defaults {
		found := false
		for i := 0; i < params.Len(); i++ {
			if params.At(i).Name() == name {
				found = true
				break
			}
		}
		if !found {
			return nil, sc.errorf(fd, "default:%s does not name a parameter", name)
		}
	}

	results := sig.Results()
	n := results.Len()
	if n > 0 && isErrorType(results.At(n-1).Type()) {
		fm.ReturnsErr = true
		n--
	}
	switch {
	case n == 1:
		ref, _, err := sc.paramType(results.At(0).Type())
		if err != nil {
			return nil, sc.errorf(fd, "result: %v", err)
		}
		fm.Ret = &RetModel{Type: ref, Count: 1}
	case n > 1:
		// Multiple results pack into an array.
		fm.Ret = &RetModel{Type: TypeRef{Kind: zend.TypeArray}, Count: n}
	}
	return fm, nil
}
