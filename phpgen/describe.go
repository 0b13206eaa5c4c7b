package phpgen

import (
	"github.com/chazu/zenda/describe"
	"github.com/chazu/zenda/zend"
)

// Describe converts a scanned extension into the description tree the stub
// command prints. A non-empty namespace prefixes every top-level export.
func Describe(ext *Extension, namespace string) describe.Description {
	m := describe.Module{Name: ext.Name}

	for i := range ext.Functions {
		m.Functions = append(m.Functions, describeFunc(&ext.Functions[i], namespace))
	}
	for i := range ext.Classes {
		m.Classes = append(m.Classes, describeClass(&ext.Classes[i], namespace))
	}
	for i := range ext.Enums {
		m.Enums = append(m.Enums, describeEnum(&ext.Enums[i], namespace))
	}
	for i := range ext.Constants {
		cm := &ext.Constants[i]
		m.Constants = append(m.Constants, describe.Constant{
			Name:  qualify(namespace, cm.PhpName),
			Docs:  cm.Docs,
			Value: cm.PHPValue,
		})
	}

	d := describe.New(m)
	d.Version = ext.Version
	return d
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + `\` + name
}

func describeHint(t *TypeRef) *describe.TypeHint {
	if t.Kind == zend.TypeUndef || t.Kind == zend.TypeVoid {
		return nil
	}
	return &describe.TypeHint{Kind: t.Kind, Class: t.Class}
}

func describeParams(params []ParamModel) []describe.Parameter {
	var out []describe.Parameter
	for i := range params {
		p := &params[i]
		out = append(out, describe.Parameter{
			Name:     p.PhpName,
			Ty:       describeHint(&p.Type),
			Nullable: p.Type.Nullable,
			Default:  p.DefaultPHP,
		})
	}
	return out
}

func describeRet(r *RetModel) *describe.Retval {
	if r == nil {
		return nil
	}
	return &describe.Retval{
		Ty:       describe.TypeHint{Kind: r.Type.Kind, Class: r.Type.Class},
		Nullable: r.Type.Nullable,
	}
}

func describeFunc(fm *FuncModel, namespace string) describe.Function {
	return describe.Function{
		Name:   qualify(namespace, fm.PhpName),
		Docs:   fm.Docs,
		Ret:    describeRet(fm.Ret),
		Params: describeParams(fm.Params),
	}
}

func describeVisibility(vis zend.MethodFlags) describe.Visibility {
	switch vis.Visibility() {
	case zend.MethodPrivate:
		return describe.VisibilityPrivate
	case zend.MethodProtected:
		return describe.VisibilityProtected
	default:
		return describe.VisibilityPublic
	}
}

func describeClass(cm *ClassModel, namespace string) describe.Class {
	c := describe.Class{
		Name:       qualify(namespace, cm.PhpName),
		Docs:       cm.Docs,
		Extends:    cm.Extends,
		Implements: cm.Implements,
	}

	for i := range cm.Props {
		pm := &cm.Props[i]
		c.Properties = append(c.Properties, describe.Property{
			Name:     pm.PhpName,
			Docs:     pm.Docs,
			Ty:       describeHint(&pm.Type),
			Vis:      describe.VisibilityPublic,
			Nullable: pm.Type.Nullable,
		})
	}

	// Getter and setter pairs surface as virtual properties, not methods.
	virtual := map[string]*describe.Property{}
	for i := range cm.Methods {
		mm := &cm.Methods[i]
		switch mm.Kind {
		case MethodGetter, MethodSetter:
			if virtual[mm.PropName] != nil {
				continue
			}
			p := describe.Property{
				Name: mm.PropName,
				Docs: mm.Docs,
				Vis:  describeVisibility(mm.Vis),
			}
			if mm.Kind == MethodGetter && mm.Ret != nil {
				p.Ty = describeHint(&mm.Ret.Type)
				p.Nullable = mm.Ret.Type.Nullable
			} else if mm.Kind == MethodSetter && len(mm.Params) > 0 {
				p.Ty = describeHint(&mm.Params[0].Type)
				p.Nullable = mm.Params[0].Type.Nullable
			}
			c.Properties = append(c.Properties, p)
			virtual[mm.PropName] = &c.Properties[len(c.Properties)-1]
		default:
			c.Methods = append(c.Methods, describeMethod(mm))
		}
	}

	for i := range cm.Constants {
		km := &cm.Constants[i]
		c.Constants = append(c.Constants, describe.Constant{
			Name:  km.PhpName,
			Docs:  km.Docs,
			Value: km.PHPValue,
		})
	}
	return c
}

func describeMethod(mm *MethodModel) describe.Method {
	ty := describe.MethodMember
	switch {
	case mm.Kind == MethodConstructor:
		ty = describe.MethodConstructor
	case mm.Static:
		ty = describe.MethodStatic
	}
	d := describe.Method{
		Name:       mm.PhpName,
		Docs:       mm.Docs,
		Ty:         ty,
		Params:     describeParams(mm.Params),
		Visibility: describeVisibility(mm.Vis),
	}
	if ty != describe.MethodConstructor {
		d.Retval = describeRet(mm.Ret)
	}
	return d
}

func describeEnum(em *EnumModel, namespace string) describe.Enum {
	e := describe.Enum{
		Name: qualify(namespace, em.PhpName),
		Docs: em.Docs,
	}
	if em.Backing != zend.TypeNull {
		e.Backing = &describe.TypeHint{Kind: em.Backing}
	}
	for i := range em.Cases {
		km := &em.Cases[i]
		c := describe.EnumCase{Name: km.PhpName, Docs: km.Docs}
		switch em.Backing {
		case zend.TypeLong:
			c.Long = km.Long
		case zend.TypeString:
			c.Str = km.Str
		}
		e.Cases = append(e.Cases, c)
	}
	return e
}
