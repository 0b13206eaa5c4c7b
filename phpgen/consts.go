package phpgen

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"github.com/chazu/zenda/zend"
)

// ---------------------------------------------------------------------------
// Pass 4: constants
// ---------------------------------------------------------------------------

func (sc *scanner) buildConsts() error {
	for _, file := range sc.files {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.CONST {
				continue
			}
			for _, s := range gd.Specs {
				spec := s.(*ast.ValueSpec)
				if err := sc.buildConstSpec(gd, spec); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (sc *scanner) buildConstSpec(gd *ast.GenDecl, spec *ast.ValueSpec) error {
	dir, docs, err := splitDoc(docLines(valueSpecDoc(gd, spec)))
	if err != nil {
		return sc.errorf(spec, "%v", err)
	}
	if dir == nil {
		return nil
	}
	switch dir.Kind {
	case "case":
		// Consumed by the owning enum. Verify the type actually is one.
		if len(spec.Names) != 1 {
			return sc.errorf(spec, "php:case requires a single constant")
		}
		cobj, ok := sc.info.Defs[spec.Names[0]].(*types.Const)
		if !ok || !sc.isEnumType(cobj.Type()) {
			return sc.errorf(spec, "php:case on a constant that is not an enum case")
		}
		return nil
	case "const":
	default:
		return sc.errorf(spec, "directive php:%s cannot apply to a constant", dir.Kind)
	}
	if len(spec.Names) != 1 {
		return sc.errorf(spec, "php:const requires a single constant")
	}

	name := spec.Names[0]
	cobj, ok := sc.info.Defs[name].(*types.Const)
	if !ok {
		return sc.errorf(spec, "no type information for %s", name.Name)
	}
	if sc.isEnumType(cobj.Type()) {
		return sc.errorf(spec, "%s is an enum case; use php:case", name.Name)
	}

	cm := ConstModel{GoName: name.Name, Docs: docs}
	cm.PhpName = dir.Opts["name"]
	if cm.PhpName == "" {
		cm.PhpName = RenameScreaming.Apply(name.Name)
	}
	cm.Kind, cm.Value, cm.PHPValue, err = renderConst(cobj.Val())
	if err != nil {
		return sc.errorf(spec, "constant %s: %v", name.Name, err)
	}

	if goClass := dir.Opts["class"]; goClass != "" {
		php, ok := sc.classNames[goClass]
		if !ok {
			return sc.errorf(spec, "class %s is not a php:class", goClass)
		}
		cm.Class = php
		owner := sc.ext.Class(php)
		owner.Constants = append(owner.Constants, cm)
		return nil
	}
	sc.ext.Constants = append(sc.ext.Constants, cm)
	return nil
}

// isEnumType reports whether t is a type registered as a php:enum.
func (sc *scanner) isEnumType(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok || named.Obj().Pkg() != sc.typesPkg {
		return false
	}
	_, ok = sc.enumNames[named.Obj().Name()]
	return ok
}

// renderConst turns a typed constant into Go and PHP source.
func renderConst(val constant.Value) (zend.DataType, string, string, error) {
	switch val.Kind() {
	case constant.Bool:
		src := "false"
		if constant.BoolVal(val) {
			src = "true"
		}
		return zend.TypeBool, src, src, nil
	case constant.Int:
		n, ok := constant.Int64Val(val)
		if !ok {
			return 0, "", "", fmt.Errorf("value %s does not fit in int64", val.ExactString())
		}
		src := strconv.FormatInt(n, 10)
		return zend.TypeLong, "int64(" + src + ")", src, nil
	case constant.Float:
		f, _ := constant.Float64Val(val)
		src := formatFloat(f)
		return zend.TypeDouble, src, src, nil
	case constant.String:
		s := constant.StringVal(val)
		return zend.TypeString, strconv.Quote(s), phpQuote(s), nil
	}
	return 0, "", "", fmt.Errorf("unsupported constant kind %v", val.Kind())
}

// renderDefault parses a default expression written as a PHP literal and
// returns it as PHP source for stubs and Go source for glue.
func renderDefault(expr string, kind zend.DataType) (phpSrc, goSrc string, err error) {
	switch expr {
	case "":
		return "", "", fmt.Errorf("empty default expression")
	case "null":
		return "null", "nil", nil
	case "true":
		return "true", "true", nil
	case "false":
		return "false", "false", nil
	}
	if strings.HasPrefix(expr, "'") || strings.HasPrefix(expr, `"`) {
		if len(expr) < 2 || expr[len(expr)-1] != expr[0] {
			return "", "", fmt.Errorf("unterminated string %s", expr)
		}
		s := expr[1 : len(expr)-1]
		return phpQuote(s), strconv.Quote(s), nil
	}
	// The directive tokenizer strips double quotes, so a string parameter's
	// default arrives bare; the declared type restores its meaning.
	if kind == zend.TypeString {
		return phpQuote(expr), strconv.Quote(expr), nil
	}
	// Double parameters read integer literals as floats, so the glue
	// assigns a value of the right Go type.
	if kind == zend.TypeDouble {
		if f, err := strconv.ParseFloat(expr, 64); err == nil {
			src := formatFloat(f)
			return src, src, nil
		}
	}
	if n, err := strconv.ParseInt(expr, 0, 64); err == nil {
		src := strconv.FormatInt(n, 10)
		return src, "int64(" + src + ")", nil
	}
	if f, err := strconv.ParseFloat(expr, 64); err == nil {
		src := formatFloat(f)
		return src, src, nil
	}
	if expr == "[]" && kind == zend.TypeArray {
		return "[]", "nil", nil
	}
	return "", "", fmt.Errorf("default must be a scalar literal, got %s", expr)
}

// formatFloat renders a float with a decimal point so Go and PHP both read
// it as floating point.
func formatFloat(f float64) string {
	src := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(src, ".eE") {
		src += ".0"
	}
	return src
}

// phpQuote renders a string as single-quoted PHP source, which interpolates
// nothing.
func phpQuote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\'' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('\'')
	return b.String()
}
