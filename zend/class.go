package zend

// PropertyInfo describes a property declared on a class: its default value,
// visibility, and docblock lines for stub output.
type PropertyInfo struct {
	Name    string
	Flags   PropertyFlags
	Default Zval
	Docs    []string
}

// ClassConstant is a constant declared on a class. The value is evaluated
// when the class is registered.
type ClassConstant struct {
	Name  string
	Value Zval
	Flags ConstantFlags
	Docs  []string
}

// ClassEntry is the runtime descriptor of a class: identity, hierarchy,
// method and property tables, and the object hooks installed by its builder.
type ClassEntry struct {
	name       string
	flags      ClassFlags
	parent     *ClassEntry
	interfaces []*ClassEntry

	methods   map[string]*Function
	propInfos map[string]*PropertyInfo
	propOrder []string
	constants map[string]*ClassConstant

	handlers     *ObjectHandlers
	createObject func(*ClassEntry) *Object

	enum *enumInfo
}

// Name returns the fully qualified class name as registered.
func (ce *ClassEntry) Name() string { return ce.name }

// Flags returns the class entry flags.
func (ce *ClassEntry) Flags() ClassFlags { return ce.flags }

// Parent returns the parent class entry, or nil for root classes.
func (ce *ClassEntry) Parent() *ClassEntry { return ce.parent }

// Interfaces returns the interfaces this entry directly implements.
func (ce *ClassEntry) Interfaces() []*ClassEntry { return ce.interfaces }

// Handlers returns the object handler set installed for this class.
func (ce *ClassEntry) Handlers() *ObjectHandlers { return ce.handlers }

// IsEnum reports whether the entry was registered as an enum.
func (ce *ClassEntry) IsEnum() bool { return ce.flags.Has(ClassEnum) }

// InstanceOf reports whether ce is other, extends other, or implements it.
func (ce *ClassEntry) InstanceOf(other *ClassEntry) bool {
	if other == nil {
		return false
	}
	for c := ce; c != nil; c = c.parent {
		if c == other {
			return true
		}
		for _, iface := range c.interfaces {
			if iface.InstanceOf(other) {
				return true
			}
		}
	}
	return false
}

// Method resolves a method by name through the parent chain and interface
// declarations. Method names compare case-insensitively.
func (ce *ClassEntry) Method(name string) (*Function, bool) {
	key := lowerASCII(name)
	for c := ce; c != nil; c = c.parent {
		if fn, ok := c.methods[key]; ok {
			return fn, true
		}
		for _, iface := range c.interfaces {
			if fn, ok := iface.Method(name); ok {
				return fn, true
			}
		}
	}
	return nil, false
}

// Property resolves a declared property through the parent chain.
func (ce *ClassEntry) Property(name string) (*PropertyInfo, bool) {
	for c := ce; c != nil; c = c.parent {
		if info, ok := c.propInfos[name]; ok {
			return info, true
		}
	}
	return nil, false
}

// Constant resolves a class constant through the parent chain.
func (ce *ClassEntry) Constant(name string) (*Zval, bool) {
	for c := ce; c != nil; c = c.parent {
		if cc, ok := c.constants[name]; ok {
			return &cc.Value, true
		}
	}
	return nil, false
}

// NewObject instantiates the class through its create hook without invoking
// a constructor. Callers wanting constructor semantics follow up with a
// TryCallMethod on __construct. The hook is inherited: a subclass of a
// native-backed class allocates the ancestor's container.
func (ce *ClassEntry) NewObject() *Object {
	for c := ce; c != nil; c = c.parent {
		if c.createObject != nil {
			return c.createObject(ce)
		}
	}
	return newStdObject(ce)
}

func (ce *ClassEntry) addMethod(fn *Function) {
	if ce.methods == nil {
		ce.methods = make(map[string]*Function)
	}
	fn.Scope = ce
	ce.methods[lowerASCII(fn.Name)] = fn
}

func (ce *ClassEntry) addProperty(info *PropertyInfo) {
	if ce.propInfos == nil {
		ce.propInfos = make(map[string]*PropertyInfo)
	}
	if _, dup := ce.propInfos[info.Name]; !dup {
		ce.propOrder = append(ce.propOrder, info.Name)
	}
	ce.propInfos[info.Name] = info
}

func (ce *ClassEntry) addConstant(cc *ClassConstant) {
	if ce.constants == nil {
		ce.constants = make(map[string]*ClassConstant)
	}
	ce.constants[cc.Name] = cc
}

// ---------------------------------------------------------------------------
// Builtin classes

// Builtin class accessors. These resolve against the executor's class table,
// which always carries the builtin hierarchy.

func StdClassCE() *ClassEntry           { return mustBuiltin("stdClass") }
func TraversableCE() *ClassEntry        { return mustBuiltin("Traversable") }
func IteratorCE() *ClassEntry           { return mustBuiltin("Iterator") }
func CountableCE() *ClassEntry          { return mustBuiltin("Countable") }
func ArrayAccessCE() *ClassEntry        { return mustBuiltin("ArrayAccess") }
func StringableCE() *ClassEntry         { return mustBuiltin("Stringable") }
func ThrowableCE() *ClassEntry          { return mustBuiltin("Throwable") }
func ExceptionCE() *ClassEntry          { return mustBuiltin("Exception") }
func ErrorExceptionCE() *ClassEntry     { return mustBuiltin("ErrorException") }
func ErrorCE() *ClassEntry              { return mustBuiltin("Error") }
func CompileErrorCE() *ClassEntry       { return mustBuiltin("CompileError") }
func ParseErrorCE() *ClassEntry         { return mustBuiltin("ParseError") }
func TypeErrorCE() *ClassEntry          { return mustBuiltin("TypeError") }
func ArgumentCountErrorCE() *ClassEntry { return mustBuiltin("ArgumentCountError") }
func ValueErrorCE() *ClassEntry         { return mustBuiltin("ValueError") }
func ArithmeticErrorCE() *ClassEntry    { return mustBuiltin("ArithmeticError") }
func DivisionByZeroErrorCE() *ClassEntry {
	return mustBuiltin("DivisionByZeroError")
}
func ClosureCE() *ClassEntry    { return mustBuiltin("Closure") }
func UnitEnumCE() *ClassEntry   { return mustBuiltin("UnitEnum") }
func BackedEnumCE() *ClassEntry { return mustBuiltin("BackedEnum") }

func mustBuiltin(name string) *ClassEntry {
	ce, ok := Executor().Class(name)
	if !ok {
		panic("zend: builtin class " + name + " missing from class table")
	}
	return ce
}

func registerBuiltinClasses(eg *ExecutorGlobals) {
	add := func(ce *ClassEntry) *ClassEntry {
		ce.handlers = stdObjectHandlers()
		if err := eg.registerClass(ce); err != nil {
			panic("zend: " + err.Error())
		}
		return ce
	}
	iface := func(name string, extends ...*ClassEntry) *ClassEntry {
		return add(&ClassEntry{name: name, flags: ClassInterface, interfaces: extends})
	}

	add(&ClassEntry{name: "stdClass"})

	traversable := iface("Traversable")
	iface("Iterator", traversable)
	iface("Countable")
	iface("ArrayAccess")
	stringable := iface("Stringable")
	throwable := iface("Throwable", stringable)

	exception := add(&ClassEntry{name: "Exception", interfaces: []*ClassEntry{throwable}})
	installThrowableMembers(exception)
	add(&ClassEntry{name: "ErrorException", parent: exception})

	errClass := add(&ClassEntry{name: "Error", interfaces: []*ClassEntry{throwable}})
	installThrowableMembers(errClass)
	compileError := add(&ClassEntry{name: "CompileError", parent: errClass})
	add(&ClassEntry{name: "ParseError", parent: compileError})
	typeError := add(&ClassEntry{name: "TypeError", parent: errClass})
	add(&ClassEntry{name: "ArgumentCountError", parent: typeError})
	add(&ClassEntry{name: "ValueError", parent: errClass})
	arithmeticError := add(&ClassEntry{name: "ArithmeticError", parent: errClass})
	add(&ClassEntry{name: "DivisionByZeroError", parent: arithmeticError})

	add(&ClassEntry{name: "Closure", flags: ClassFinal | ClassNoDynamicProperties})

	unitEnum := iface("UnitEnum")
	iface("BackedEnum", unitEnum)
}

// installThrowableMembers declares the message/code/previous surface shared
// by Exception and Error.
func installThrowableMembers(ce *ClassEntry) {
	msg := NewZval()
	msg.SetString("")
	ce.addProperty(&PropertyInfo{Name: "message", Flags: PropertyProtected, Default: msg})
	code := NewZval()
	code.SetLong(0)
	ce.addProperty(&PropertyInfo{Name: "code", Flags: PropertyProtected, Default: code})
	prev := NewZval()
	prev.SetNull()
	ce.addProperty(&PropertyInfo{Name: "previous", Flags: PropertyPrivate, Default: prev})

	ce.addMethod(&Function{
		Name:  "__construct",
		Flags: MethodPublic,
		Args: []ArgInfo{
			{Name: "message", Type: TypeString, Default: `""`},
			{Name: "code", Type: TypeLong, Default: "0"},
			{Name: "previous", Type: TypeObject, Class: "Throwable", AllowNull: true, Default: "null"},
		},
		Handler: throwableConstruct,
	})
	ce.addMethod(&Function{
		Name:    "getMessage",
		Flags:   MethodPublic | MethodFinal,
		Ret:     &ReturnInfo{Type: TypeString},
		Handler: throwableGetter("message"),
	})
	ce.addMethod(&Function{
		Name:    "getCode",
		Flags:   MethodPublic | MethodFinal,
		Ret:     &ReturnInfo{Type: TypeLong},
		Handler: throwableGetter("code"),
	})
	ce.addMethod(&Function{
		Name:    "getPrevious",
		Flags:   MethodPublic | MethodFinal,
		Ret:     &ReturnInfo{Type: TypeObject, Class: "Throwable", Nullable: true},
		Handler: throwableGetter("previous"),
	})
	ce.addMethod(&Function{
		Name:    "__toString",
		Flags:   MethodPublic,
		Ret:     &ReturnInfo{Type: TypeString},
		Handler: throwableToString,
	})
}

func throwableConstruct(ex *ExecuteData, _ *Zval) {
	message := NewArg("message", TypeString).WithDefault(`""`)
	code := NewArg("code", TypeLong).WithDefault("0")
	previous := NewArg("previous", TypeObject).AllowNull().WithDefault("null")
	if err := ex.Parser().NotRequired().Arg(message).Arg(code).Arg(previous).Parse(); err != nil {
		return
	}
	this := ex.This()
	if this == nil {
		return
	}
	if v := message.Val(); v != nil && v.IsString() {
		this.WriteProperty("message", v.ShallowClone())
	}
	if v := code.Val(); v != nil && v.IsLong() {
		this.WriteProperty("code", v.ShallowClone())
	}
	if v := previous.Val(); v != nil && v.IsObject() {
		this.WriteProperty("previous", v.ShallowClone())
	}
}

func throwableGetter(prop string) FunctionHandler {
	return func(ex *ExecuteData, ret *Zval) {
		this := ex.This()
		if this == nil {
			return
		}
		if v, err := this.ReadProperty(prop); err == nil {
			*ret = v.ShallowClone()
		}
	}
}

func throwableToString(ex *ExecuteData, ret *Zval) {
	this := ex.This()
	if this == nil {
		return
	}
	msg := ""
	if v, err := this.ReadProperty("message"); err == nil {
		msg, _ = v.Str()
	}
	ret.SetString(this.CE().Name() + ": " + msg)
}
