package describe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/zenda/zend"
)

// Stub renders the description as a PHP stub file.
func (d *Description) Stub() string {
	return d.Module.Stub()
}

// Stub renders the module's exports as PHP declarations grouped by
// namespace. Named namespaces print sorted; the global namespace prints
// last. Declarations keep their doc comments and have empty bodies.
func (m *Module) Stub() string {
	groups := make(map[string][]string)
	var order []string
	add := func(ns, entry string) {
		if _, seen := groups[ns]; !seen {
			order = append(order, ns)
		}
		groups[ns] = append(groups[ns], entry)
	}

	for i := range m.Constants {
		ns, _ := splitNamespace(m.Constants[i].Name)
		add(ns, m.Constants[i].stub())
	}
	for i := range m.Functions {
		ns, _ := splitNamespace(m.Functions[i].Name)
		add(ns, m.Functions[i].stub())
	}
	for i := range m.Classes {
		ns, _ := splitNamespace(m.Classes[i].Name)
		add(ns, m.Classes[i].stub())
	}
	for i := range m.Enums {
		ns, _ := splitNamespace(m.Enums[i].Name)
		add(ns, m.Enums[i].stub())
	}

	// Global namespace sorts after every named one.
	sort.Slice(order, func(i, j int) bool {
		if order[i] == "" || order[j] == "" {
			return order[j] == ""
		}
		return order[i] < order[j]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "<?php\n\n// Stubs for %s\n\n", m.Name)

	blocks := make([]string, 0, len(order))
	for _, ns := range order {
		var nb strings.Builder
		if ns == "" {
			nb.WriteString("namespace {\n")
		} else {
			fmt.Fprintf(&nb, "namespace %s {\n", ns)
		}
		indented := make([]string, len(groups[ns]))
		for i, entry := range groups[ns] {
			indented[i] = indent(entry, 4)
		}
		nb.WriteString(strings.Join(indented, "\n"))
		nb.WriteString("}\n")
		blocks = append(blocks, nb.String())
	}
	b.WriteString(strings.Join(blocks, "\n"))
	return b.String()
}

// stubPrinter accumulates one declaration's stub text.
type stubPrinter struct {
	buf strings.Builder
}

func (p *stubPrinter) write(s string)                    { p.buf.WriteString(s) }
func (p *stubPrinter) writef(format string, args ...any) { fmt.Fprintf(&p.buf, format, args...) }

func (p *stubPrinter) docs(d DocBlock) {
	if len(d) == 0 {
		return
	}
	p.write("/**\n")
	for _, line := range d {
		p.writef(" *%s\n", line)
	}
	p.write(" */\n")
}

func (p *stubPrinter) params(params []Parameter) {
	for i := range params {
		if i > 0 {
			p.write(", ")
		}
		p.param(&params[i])
	}
}

func (p *stubPrinter) param(pa *Parameter) {
	if pa.Ty != nil {
		if pa.Nullable {
			p.write("?")
		}
		p.write(pa.Ty.phpName())
		p.write(" ")
	}
	p.writef("$%s", pa.Name)
	if pa.Default != "" {
		p.writef(" = %s", pa.Default)
	}
}

func (p *stubPrinter) retval(r *Retval) {
	if r == nil {
		return
	}
	p.write(": ")
	if r.Nullable {
		p.write("?")
	}
	p.write(r.Ty.phpName())
}

func (f *Function) stub() string {
	var p stubPrinter
	p.docs(f.Docs)
	_, name := splitNamespace(f.Name)
	p.writef("function %s(", name)
	p.params(f.Params)
	p.write(")")
	p.retval(f.Ret)
	p.write(" {}\n")
	return p.buf.String()
}

func (c *Class) stub() string {
	var p stubPrinter
	p.docs(c.Docs)
	_, name := splitNamespace(c.Name)
	p.writef("class %s ", name)
	if c.Extends != "" {
		p.writef("extends %s ", c.Extends)
	}
	if len(c.Implements) > 0 {
		p.writef("implements %s ", strings.Join(c.Implements, ", "))
	}
	p.write("{\n")

	members := make([]string, 0, len(c.Constants)+len(c.Properties)+len(c.Methods))
	for i := range c.Constants {
		members = append(members, indent(c.Constants[i].stub(), 4))
	}
	for i := range c.Properties {
		members = append(members, indent(c.Properties[i].stub(), 4))
	}
	for i := range c.Methods {
		members = append(members, indent(c.Methods[i].stub(), 4))
	}
	p.write(strings.Join(members, "\n"))

	p.write("}\n")
	return p.buf.String()
}

func (pr *Property) stub() string {
	var p stubPrinter
	p.docs(pr.Docs)
	p.write(pr.Vis.String())
	p.write(" ")
	if pr.Static {
		p.write("static ")
	}
	if pr.Ty != nil {
		if pr.Nullable {
			p.write("?")
		}
		p.write(pr.Ty.phpName())
		p.write(" ")
	}
	p.writef("$%s", pr.Name)
	if pr.Default != "" {
		p.writef(" = %s", pr.Default)
	}
	p.write(";\n")
	return p.buf.String()
}

func (m *Method) stub() string {
	var p stubPrinter
	p.docs(m.Docs)
	p.write(m.Visibility.String())
	p.write(" ")
	if m.Ty == MethodStatic {
		p.write("static ")
	}
	p.writef("function %s(", m.Name)
	p.params(m.Params)
	p.write(")")
	// Constructors never declare a return type.
	if m.Ty != MethodConstructor {
		p.retval(m.Retval)
	}
	p.write(" {}\n")
	return p.buf.String()
}

func (c *Constant) stub() string {
	var p stubPrinter
	p.docs(c.Docs)
	_, name := splitNamespace(c.Name)
	value := c.Value
	if value == "" {
		value = "null"
	}
	p.writef("const %s = %s;\n", name, value)
	return p.buf.String()
}

func (e *Enum) stub() string {
	var p stubPrinter
	p.docs(e.Docs)
	_, name := splitNamespace(e.Name)
	p.writef("enum %s", name)
	if e.Backing != nil {
		p.writef(": %s", e.Backing.phpName())
	}
	p.write(" {\n")

	members := make([]string, 0, len(e.Cases))
	for i := range e.Cases {
		members = append(members, indent(e.Cases[i].stub(e.Backing), 4))
	}
	p.write(strings.Join(members, "\n"))

	p.write("}\n")
	return p.buf.String()
}

func (c *EnumCase) stub(backing *TypeHint) string {
	var p stubPrinter
	p.docs(c.Docs)
	switch {
	case backing == nil:
		p.writef("case %s;\n", c.Name)
	case backing.Kind == zend.TypeString:
		p.writef("case %s = %s;\n", c.Name, singleQuote(c.Str))
	default:
		p.writef("case %s = %d;\n", c.Name, c.Long)
	}
	return p.buf.String()
}

// singleQuote renders s as a PHP single-quoted string literal.
func singleQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

func (v Visibility) String() string {
	switch v {
	case VisibilityPrivate:
		return "private"
	case VisibilityProtected:
		return "protected"
	}
	return "public"
}

// phpName maps an engine type to the PHP type name stubs declare.
func (t *TypeHint) phpName() string {
	switch t.Kind {
	case zend.TypeTrue, zend.TypeFalse, zend.TypeBool:
		return "bool"
	case zend.TypeLong:
		return "int"
	case zend.TypeDouble:
		return "float"
	case zend.TypeString:
		return "string"
	case zend.TypeArray:
		return "array"
	case zend.TypeObject:
		if t.Class != "" {
			return t.Class
		}
		return "object"
	case zend.TypeResource:
		return "resource"
	case zend.TypeReference:
		return "reference"
	case zend.TypeCallable:
		return "callable"
	case zend.TypeIterable:
		return "iterable"
	case zend.TypeVoid:
		return "void"
	}
	return "mixed"
}

// splitNamespace splits a qualified name at its last backslash. Names
// without a separator are in the global namespace.
func splitNamespace(name string) (ns, short string) {
	if idx := strings.LastIndexByte(name, '\\'); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return "", name
}

// indent prefixes every non-blank line with depth spaces. Blank lines stay
// empty so stubs carry no trailing whitespace.
func indent(s string, depth int) string {
	pad := strings.Repeat(" ", depth)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = pad + line
		} else {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}
