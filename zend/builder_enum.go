package zend

import "fmt"

// enumInfo is the case table attached to an enum's class entry: declaration
// order, the case singletons, and the discriminant indexes for backed enums.
type enumInfo struct {
	backing   DataType
	caseOrder []string
	byName    map[string]*Object
	byLong    map[int64]*Object
	byStr     map[string]*Object
}

type enumCaseSpec struct {
	name string
	kind DataType
	long int64
	str  string
	docs []string
}

// EnumBuilder assembles an enum class. Cases must agree on their
// discriminant type: all pure, all int-backed, or all string-backed.
type EnumBuilder struct {
	name    string
	decided bool
	backing DataType
	cases   []enumCaseSpec
	methods []*Function
	consts  []constantSpec
	docs    []string
}

// NewEnumBuilder starts a declaration for a named enum.
func NewEnumBuilder(name string) *EnumBuilder {
	return &EnumBuilder{name: name, backing: TypeUndef}
}

func (b *EnumBuilder) addCase(spec enumCaseSpec) {
	if b.decided && spec.kind != b.backing {
		panic(fmt.Sprintf("Cannot add case with data type %s to enum with data type %s",
			spec.kind, b.backing))
	}
	b.backing = spec.kind
	b.decided = true
	b.cases = append(b.cases, spec)
}

// Case adds a pure case with no discriminant.
func (b *EnumBuilder) Case(name string, docs ...string) *EnumBuilder {
	b.addCase(enumCaseSpec{name: name, kind: TypeUndef, docs: docs})
	return b
}

// LongCase adds an int-backed case.
func (b *EnumBuilder) LongCase(name string, disc int64, docs ...string) *EnumBuilder {
	b.addCase(enumCaseSpec{name: name, kind: TypeLong, long: disc, docs: docs})
	return b
}

// StringCase adds a string-backed case.
func (b *EnumBuilder) StringCase(name string, disc string, docs ...string) *EnumBuilder {
	b.addCase(enumCaseSpec{name: name, kind: TypeString, str: disc, docs: docs})
	return b
}

// Method adds a method to the enum.
func (b *EnumBuilder) Method(fn *Function) *EnumBuilder {
	b.methods = append(b.methods, fn)
	return b
}

// Constant declares an enum constant.
func (b *EnumBuilder) Constant(name string, value any, docs ...string) *EnumBuilder {
	b.consts = append(b.consts, constantSpec{name: name, value: value, docs: docs})
	return b
}

// Docs attaches enum docblock lines.
func (b *EnumBuilder) Docs(lines ...string) *EnumBuilder {
	b.docs = append(b.docs, lines...)
	return b
}

// Register builds the enum class, its case singletons, and the cases/from/
// tryFrom methods, then installs the entry in the class table. Duplicate
// discriminants and duplicate case names fail before anything registers.
func (b *EnumBuilder) Register() (*ClassEntry, error) {
	if b.name == "" {
		return nil, fmt.Errorf("zend: build enum: missing name")
	}
	info := &enumInfo{
		backing: b.backing,
		byName:  make(map[string]*Object, len(b.cases)),
		byLong:  make(map[int64]*Object),
		byStr:   make(map[string]*Object),
	}
	seenLong := make(map[int64]bool)
	seenStr := make(map[string]bool)
	for _, c := range b.cases {
		if _, dup := info.byName[c.name]; dup {
			return nil, fmt.Errorf("zend: enum %s: duplicate case %s", b.name, c.name)
		}
		info.byName[c.name] = nil
		switch c.kind {
		case TypeLong:
			if seenLong[c.long] {
				return nil, fmt.Errorf("zend: enum %s: duplicate discriminant %d for case %s", b.name, c.long, c.name)
			}
			seenLong[c.long] = true
		case TypeString:
			if seenStr[c.str] {
				return nil, fmt.Errorf("zend: enum %s: duplicate discriminant %q for case %s", b.name, c.str, c.name)
			}
			seenStr[c.str] = true
		}
	}

	iface := UnitEnumCE
	if b.backing != TypeUndef {
		iface = BackedEnumCE
	}
	ce := &ClassEntry{
		name:       b.name,
		flags:      ClassEnum | ClassFinal | ClassNoDynamicProperties | ClassNotSerializable,
		interfaces: []*ClassEntry{iface()},
		handlers:   stdObjectHandlers(),
		enum:       info,
	}
	ce.addProperty(&PropertyInfo{Name: "name", Flags: PropertyPublic | PropertyReadonly, Default: NewZval()})
	if b.backing != TypeUndef {
		ce.addProperty(&PropertyInfo{Name: "value", Flags: PropertyPublic | PropertyReadonly, Default: NewZval()})
	}
	for _, fn := range b.methods {
		ce.addMethod(fn)
	}
	for _, spec := range b.consts {
		val, err := ZvalOf(spec.value)
		if err != nil {
			return nil, fmt.Errorf("zend: build enum %s: constant %s: %w", b.name, spec.name, err)
		}
		ce.addConstant(&ClassConstant{
			Name:  spec.name,
			Value: val,
			Flags: ConstantCaseSensitive | ConstantPersistent,
			Docs:  spec.docs,
		})
	}
	ce.addMethod(&Function{
		Name:    "cases",
		Flags:   MethodPublic | MethodStatic,
		Ret:     &ReturnInfo{Type: TypeArray},
		Handler: enumCasesHandler(info),
	})
	if b.backing != TypeUndef {
		ce.addMethod(&Function{
			Name:    "from",
			Flags:   MethodPublic | MethodStatic,
			Args:    []ArgInfo{{Name: "value", Type: b.backing}},
			Ret:     &ReturnInfo{Type: TypeObject, Class: b.name},
			Handler: enumFromHandler(b.name, info, false),
		})
		ce.addMethod(&Function{
			Name:    "tryFrom",
			Flags:   MethodPublic | MethodStatic,
			Args:    []ArgInfo{{Name: "value", Type: b.backing}},
			Ret:     &ReturnInfo{Type: TypeObject, Class: b.name, Nullable: true},
			Handler: enumFromHandler(b.name, info, true),
		})
	}

	if err := Executor().registerClass(ce); err != nil {
		return nil, fmt.Errorf("zend: %w", err)
	}
	for _, c := range b.cases {
		obj := newStdObject(ce)
		obj.props.InsertZval("name", mustZval(c.name))
		switch c.kind {
		case TypeLong:
			obj.props.InsertZval("value", mustZval(c.long))
			info.byLong[c.long] = obj
		case TypeString:
			obj.props.InsertZval("value", mustZval(c.str))
			info.byStr[c.str] = obj
		}
		info.byName[c.name] = obj
		info.caseOrder = append(info.caseOrder, c.name)
	}
	return ce, nil
}

func mustZval(v any) Zval {
	z, err := ZvalOf(v)
	if err != nil {
		panic("zend: " + err.Error())
	}
	return z
}

func enumCasesHandler(info *enumInfo) FunctionHandler {
	return func(_ *ExecuteData, ret *Zval) {
		ht := NewHashTableSized(len(info.caseOrder))
		for _, name := range info.caseOrder {
			ht.Push(info.byName[name])
		}
		ret.SetArray(ht)
	}
}

func enumFromHandler(enumName string, info *enumInfo, try bool) FunctionHandler {
	return func(ex *ExecuteData, ret *Zval) {
		value := NewArg("value", info.backing)
		if err := ex.Parser().Arg(value).Parse(); err != nil {
			return
		}
		zv := value.Val()
		var obj *Object
		var repr string
		switch info.backing {
		case TypeLong:
			v, ok := zv.Long()
			if !ok {
				ThrowClass(TypeErrorCE(), fmt.Sprintf("%s::from(): Argument #1 ($value) must be of type int, %s given",
					enumName, phpTypeName(zv.Type())))
				return
			}
			obj = info.byLong[v]
			repr = fmt.Sprintf("%d", v)
		case TypeString:
			if !zv.IsString() {
				ThrowClass(TypeErrorCE(), fmt.Sprintf("%s::from(): Argument #1 ($value) must be of type string, %s given",
					enumName, phpTypeName(zv.Type())))
				return
			}
			v, _ := zv.Str()
			obj = info.byStr[v]
			repr = fmt.Sprintf("%q", v)
		}
		if obj == nil {
			if !try {
				ThrowClass(ValueErrorCE(), fmt.Sprintf("%s is not a valid backing value for enum %s", repr, enumName))
			}
			return
		}
		ret.SetObject(obj)
	}
}

// phpTypeName maps a cell tag onto the type name diagnostics use.
func phpTypeName(t DataType) string {
	switch t {
	case TypeNull, TypeUndef:
		return "null"
	case TypeTrue, TypeFalse, TypeBool:
		return "bool"
	case TypeLong:
		return "int"
	case TypeDouble:
		return "float"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	case TypeResource:
		return "resource"
	}
	return "mixed"
}

// ---------------------------------------------------------------------------
// Enum accessors on class entries

// EnumBacking returns the discriminant type, TypeUndef for pure enums, and
// false when the entry is not an enum.
func (ce *ClassEntry) EnumBacking() (DataType, bool) {
	if ce.enum == nil {
		return TypeUndef, false
	}
	return ce.enum.backing, true
}

// EnumCases returns the case singletons in declaration order.
func (ce *ClassEntry) EnumCases() []*Object {
	if ce.enum == nil {
		return nil
	}
	out := make([]*Object, 0, len(ce.enum.caseOrder))
	for _, name := range ce.enum.caseOrder {
		out = append(out, ce.enum.byName[name])
	}
	return out
}

// EnumCase looks up a case singleton by name.
func (ce *ClassEntry) EnumCase(name string) (*Object, bool) {
	if ce.enum == nil {
		return nil, false
	}
	obj, ok := ce.enum.byName[name]
	return obj, ok && obj != nil
}

// EnumCaseByLong looks up an int-backed case by discriminant.
func (ce *ClassEntry) EnumCaseByLong(disc int64) (*Object, bool) {
	if ce.enum == nil {
		return nil, false
	}
	obj, ok := ce.enum.byLong[disc]
	return obj, ok
}

// EnumCaseByString looks up a string-backed case by discriminant.
func (ce *ClassEntry) EnumCaseByString(disc string) (*Object, bool) {
	if ce.enum == nil {
		return nil, false
	}
	obj, ok := ce.enum.byStr[disc]
	return obj, ok
}
