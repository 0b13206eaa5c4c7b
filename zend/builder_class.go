package zend

import "fmt"

// ClassEntryRef resolves a class entry at registration time. Builders take
// references instead of entries so declarations can point at classes that
// register later in the same module startup.
type ClassEntryRef func() *ClassEntry

// ClassRef resolves a class entry by name when the reference is consulted,
// not when it is declared. Unknown names resolve to nil.
func ClassRef(name string) ClassEntryRef {
	return func() *ClassEntry {
		ce, _ := Executor().Class(name)
		return ce
	}
}

type propertySpec struct {
	name  string
	flags PropertyFlags
	value any
	docs  []string
}

type constantSpec struct {
	name  string
	value any
	docs  []string
}

// ClassBuilder assembles a class entry: hierarchy, methods, declared
// properties and constants, and optionally the native-object hooks installed
// by WithObject.
type ClassBuilder struct {
	name       string
	flags      ClassFlags
	parent     ClassEntryRef
	interfaces []ClassEntryRef
	methods    []*Function
	props      []propertySpec
	consts     []constantSpec

	createObject func(*ClassEntry) *Object
	handlers     *ObjectHandlers
	registration func(*ClassEntry)
	docs         []string
}

// NewClassBuilder starts a declaration for a named class.
func NewClassBuilder(name string) *ClassBuilder {
	return &ClassBuilder{name: name}
}

// Flags adds class entry flags.
func (b *ClassBuilder) Flags(f ClassFlags) *ClassBuilder {
	b.flags |= f
	return b
}

// Extends declares the parent class.
func (b *ClassBuilder) Extends(parent ClassEntryRef) *ClassBuilder {
	b.parent = parent
	return b
}

// Implements adds an implemented interface.
func (b *ClassBuilder) Implements(iface ClassEntryRef) *ClassBuilder {
	b.interfaces = append(b.interfaces, iface)
	return b
}

// Method adds a method built by a FunctionBuilder.
func (b *ClassBuilder) Method(fn *Function) *ClassBuilder {
	b.methods = append(b.methods, fn)
	return b
}

// Property declares a property with a default value.
func (b *ClassBuilder) Property(name string, flags PropertyFlags, def any, docs ...string) *ClassBuilder {
	b.props = append(b.props, propertySpec{name: name, flags: flags, value: def, docs: docs})
	return b
}

// Constant declares a class constant. The value converts when the class
// registers.
func (b *ClassBuilder) Constant(name string, value any, docs ...string) *ClassBuilder {
	b.consts = append(b.consts, constantSpec{name: name, value: value, docs: docs})
	return b
}

// Docs attaches class docblock lines.
func (b *ClassBuilder) Docs(lines ...string) *ClassBuilder {
	b.docs = append(b.docs, lines...)
	return b
}

// Registration adds a hook that runs after the entry lands in the class
// table.
func (b *ClassBuilder) Registration(fn func(*ClassEntry)) *ClassBuilder {
	prev := b.registration
	b.registration = func(ce *ClassEntry) {
		if prev != nil {
			prev(ce)
		}
		fn(ce)
	}
	return b
}

// WithObject installs the native-object machinery for T on the class being
// built: the create and free hooks, the property accessor handlers, and the
// metadata binding. Overridden classes cannot be serialized.
func WithObject[T any](b *ClassBuilder, props map[string]Property[T]) *ClassBuilder {
	b.createObject = classObjectCreator[T]()
	b.handlers = overlayHandlers[T](props)
	b.flags |= ClassNoDynamicProperties | ClassNotSerializable
	return b.Registration(func(ce *ClassEntry) {
		Metadata[T]().SetCE(ce)
	})
}

// Build assembles the class entry without registering it. Constant
// conversion failures abort the build, leaving nothing half-constructed.
func (b *ClassBuilder) Build() (*ClassEntry, error) {
	if b.name == "" {
		return nil, fmt.Errorf("zend: build class: missing name")
	}
	ce := &ClassEntry{
		name:         b.name,
		flags:        b.flags,
		handlers:     b.handlers,
		createObject: b.createObject,
	}
	if b.parent != nil {
		ce.parent = b.parent()
	}
	for _, iface := range b.interfaces {
		ce.interfaces = append(ce.interfaces, iface())
	}
	// Handlers are inherited alongside the create hook, so a subclass of a
	// native-backed class keeps its ancestor's property accessors.
	if ce.handlers == nil {
		if ce.parent != nil {
			ce.handlers = ce.parent.handlers
		}
		if ce.handlers == nil {
			ce.handlers = stdObjectHandlers()
		}
	}

	hasCtor := false
	for _, fn := range b.methods {
		if lowerASCII(fn.Name) == "__construct" {
			hasCtor = true
		}
		ce.addMethod(fn)
	}
	if b.createObject != nil && !hasCtor && !b.flags.Has(ClassInterface) {
		ce.addMethod(&Function{
			Name:  "__construct",
			Flags: MethodPublic,
			Handler: func(*ExecuteData, *Zval) {
				ThrowClass(ErrorCE(), "You cannot instantiate this class from PHP.")
			},
		})
	}

	for _, spec := range b.props {
		def, err := ZvalOf(spec.value)
		if err != nil {
			return nil, fmt.Errorf("zend: build class %s: property %s: %w", b.name, spec.name, err)
		}
		ce.addProperty(&PropertyInfo{Name: spec.name, Flags: spec.flags, Default: def, Docs: spec.docs})
	}
	for _, spec := range b.consts {
		val, err := ZvalOf(spec.value)
		if err != nil {
			return nil, fmt.Errorf("zend: build class %s: constant %s: %w", b.name, spec.name, err)
		}
		ce.addConstant(&ClassConstant{
			Name:  spec.name,
			Value: val,
			Flags: ConstantCaseSensitive | ConstantPersistent,
			Docs:  spec.docs,
		})
	}
	return ce, nil
}

// Register builds the entry and installs it in the executor's class table.
// The registration hook runs only after the table accepts the entry, so a
// duplicate name cannot leave metadata bound to an unregistered class.
func (b *ClassBuilder) Register() (*ClassEntry, error) {
	ce, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := Executor().registerClass(ce); err != nil {
		return nil, fmt.Errorf("zend: %w", err)
	}
	if b.registration != nil {
		b.registration(ce)
	}
	return ce, nil
}
