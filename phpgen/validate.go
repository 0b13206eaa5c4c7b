package phpgen

import (
	"fmt"
	"strings"

	"github.com/chazu/zenda/zend"
)

// Validate checks the extension model for the shapes the glue emitter and
// the engine require. Scan runs it automatically; it is exported for
// callers that assemble models by hand.
func Validate(ext *Extension) error {
	if ext.Name == "" {
		return fmt.Errorf("phpgen: extension has no name")
	}

	// Function and class tables are case-insensitive in the engine.
	funcNames := map[string]string{}
	for i := range ext.Functions {
		fm := &ext.Functions[i]
		if err := validateFunc(fm, "function "+fm.PhpName); err != nil {
			return err
		}
		key := strings.ToLower(fm.PhpName)
		if prev, dup := funcNames[key]; dup {
			return fmt.Errorf("phpgen: functions %s and %s collide", prev, fm.PhpName)
		}
		funcNames[key] = fm.PhpName
	}

	classNames := map[string]string{}
	claim := func(name string) error {
		key := strings.ToLower(name)
		if prev, dup := classNames[key]; dup {
			return fmt.Errorf("phpgen: classes %s and %s collide", prev, name)
		}
		classNames[key] = name
		return nil
	}

	for i := range ext.Classes {
		if err := claim(ext.Classes[i].PhpName); err != nil {
			return err
		}
		if err := validateClass(&ext.Classes[i]); err != nil {
			return err
		}
	}
	for i := range ext.Enums {
		if err := claim(ext.Enums[i].PhpName); err != nil {
			return err
		}
		if err := validateEnum(&ext.Enums[i]); err != nil {
			return err
		}
	}

	constNames := map[string]bool{}
	for i := range ext.Constants {
		name := ext.Constants[i].PhpName
		if constNames[name] {
			return fmt.Errorf("phpgen: duplicate constant %s", name)
		}
		constNames[name] = true
	}
	return nil
}

// validateFunc checks parameter shapes: names unique, the optional suffix
// contiguous and materializable, variadic last.
func validateFunc(fm *FuncModel, what string) error {
	seen := map[string]bool{}
	inSuffix := false
	for i := range fm.Params {
		p := &fm.Params[i]
		if seen[p.PhpName] {
			return fmt.Errorf("phpgen: %s: duplicate parameter %s", what, p.PhpName)
		}
		seen[p.PhpName] = true

		if p.Variadic {
			if i != len(fm.Params)-1 {
				return fmt.Errorf("phpgen: %s: variadic parameter %s must be last", what, p.PhpName)
			}
			continue
		}
		if err := checkParamDefault(p, what); err != nil {
			return err
		}

		if p.Optional {
			inSuffix = true
			// An absent argument must have something to bind: nil for
			// pointer-shaped parameters, otherwise a default.
			if !p.Type.Nullable && p.DefaultGo == "" {
				return fmt.Errorf("phpgen: %s: optional parameter %s needs a pointer type or a default",
					what, p.PhpName)
			}
		} else if inSuffix {
			return fmt.Errorf("phpgen: %s: required parameter %s follows an optional one",
				what, p.PhpName)
		}
	}
	return nil
}

// checkParamDefault rejects defaults the glue cannot assign to the
// parameter's Go type.
func checkParamDefault(p *ParamModel, what string) error {
	if p.DefaultGo == "" {
		return nil
	}
	gt := p.Type.GoType
	if strings.HasPrefix(gt, "zend.") || strings.HasPrefix(gt, "*zend.") {
		if p.DefaultGo != "nil" {
			return fmt.Errorf("phpgen: %s: parameter %s: engine-typed parameters only take a null default",
				what, p.PhpName)
		}
	}
	if p.DefaultGo == "nil" {
		if strings.HasPrefix(gt, "*") || strings.HasPrefix(gt, "[]") || strings.HasPrefix(gt, "map[") {
			return nil
		}
		return fmt.Errorf("phpgen: %s: parameter %s: a null default cannot initialize %s",
			what, p.PhpName, gt)
	}
	var want zend.DataType
	switch {
	case p.DefaultGo == "true" || p.DefaultGo == "false":
		want = zend.TypeBool
	case strings.HasPrefix(p.DefaultGo, "int64("):
		want = zend.TypeLong
	case strings.HasPrefix(p.DefaultGo, `"`):
		want = zend.TypeString
	default:
		want = zend.TypeDouble
	}
	if p.Type.Kind == want || p.Type.Kind == zend.TypeMixed {
		return nil
	}
	return fmt.Errorf("phpgen: %s: parameter %s: default %s does not match its %s type",
		what, p.PhpName, p.DefaultPHP, p.Type.Kind)
}

func validateClass(cm *ClassModel) error {
	what := "class " + cm.PhpName

	props := map[string]bool{}
	for i := range cm.Props {
		name := cm.Props[i].PhpName
		if props[name] {
			return fmt.Errorf("phpgen: %s: duplicate property %s", what, name)
		}
		props[name] = true
	}

	methods := map[string]bool{}
	accessors := map[string]*accessorPair{}
	constructors := 0
	for i := range cm.Methods {
		mm := &cm.Methods[i]
		if err := validateFunc(&mm.FuncModel, what+"::"+mm.PhpName); err != nil {
			return err
		}

		switch mm.Kind {
		case MethodConstructor:
			constructors++
			if constructors > 1 {
				return fmt.Errorf("phpgen: %s has more than one constructor", what)
			}
		case MethodGetter:
			if mm.Static {
				return fmt.Errorf("phpgen: %s: getter %s cannot be static", what, mm.GoName)
			}
			if len(mm.Params) != 0 || mm.Ret == nil || mm.Ret.Count != 1 {
				return fmt.Errorf("phpgen: %s: getter %s must take nothing and return one value",
					what, mm.GoName)
			}
			if err := claimAccessor(accessors, props, mm, what, 0); err != nil {
				return err
			}
			continue
		case MethodSetter:
			if mm.Static {
				return fmt.Errorf("phpgen: %s: setter %s cannot be static", what, mm.GoName)
			}
			if len(mm.Params) != 1 || mm.Ret != nil {
				return fmt.Errorf("phpgen: %s: setter %s must take one value and return nothing",
					what, mm.GoName)
			}
			if err := claimAccessor(accessors, props, mm, what, 1); err != nil {
				return err
			}
			continue
		}

		key := strings.ToLower(mm.PhpName)
		if methods[key] {
			return fmt.Errorf("phpgen: %s: duplicate method %s", what, mm.PhpName)
		}
		methods[key] = true
	}

	consts := map[string]bool{}
	for i := range cm.Constants {
		name := cm.Constants[i].PhpName
		if consts[name] {
			return fmt.Errorf("phpgen: %s: duplicate constant %s", what, name)
		}
		consts[name] = true
	}
	return nil
}

// accessorPair tracks the getter (side 0) and setter (side 1) seen for one
// property name and the Go type each side exchanges.
type accessorPair struct {
	has [2]bool
	typ [2]string
}

// claimAccessor records one side of an accessor pair, rejecting doubled
// accessors, collisions with field properties, and pairs that disagree on
// the exchanged Go type.
func claimAccessor(accessors map[string]*accessorPair, props map[string]bool, mm *MethodModel, what string, side int) error {
	if props[mm.PropName] {
		return fmt.Errorf("phpgen: %s: accessor %s collides with field property %s",
			what, mm.GoName, mm.PropName)
	}
	var typ string
	if side == 0 {
		typ = mm.Ret.Type.GoType
	} else {
		typ = mm.Params[0].Type.GoType
	}
	pair := accessors[mm.PropName]
	if pair == nil {
		pair = &accessorPair{}
		accessors[mm.PropName] = pair
	}
	if pair.has[side] {
		kind := "getter"
		if side == 1 {
			kind = "setter"
		}
		return fmt.Errorf("phpgen: %s: property %s has two %ss", what, mm.PropName, kind)
	}
	other := 1 - side
	if pair.has[other] && pair.typ[other] != typ {
		return fmt.Errorf("phpgen: %s: getter and setter for %s disagree on type",
			what, mm.PropName)
	}
	pair.has[side] = true
	pair.typ[side] = typ
	return nil
}

func validateEnum(em *EnumModel) error {
	what := "enum " + em.PhpName

	names := map[string]bool{}
	longs := map[int64]string{}
	strs := map[string]string{}
	for i := range em.Cases {
		cs := &em.Cases[i]
		if names[cs.PhpName] {
			return fmt.Errorf("phpgen: %s: duplicate case %s", what, cs.PhpName)
		}
		names[cs.PhpName] = true

		switch em.Backing {
		case zend.TypeLong:
			if prev, dup := longs[cs.Long]; dup {
				return fmt.Errorf("phpgen: %s: cases %s and %s share value %d",
					what, prev, cs.PhpName, cs.Long)
			}
			longs[cs.Long] = cs.PhpName
		case zend.TypeString:
			if prev, dup := strs[cs.Str]; dup {
				return fmt.Errorf("phpgen: %s: cases %s and %s share value %q",
					what, prev, cs.PhpName, cs.Str)
			}
			strs[cs.Str] = cs.PhpName
		}
	}
	return nil
}
