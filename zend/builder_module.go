package zend

import "fmt"

// ModuleBuilder assembles a module entry: the functions, constants, and
// classes an extension exports, plus its lifecycle hooks. Classes register
// through deferred thunks so declaration order inside the module does not
// matter.
type ModuleBuilder struct {
	name    string
	version string

	functions []*Function
	constants []constantSpec
	classes   []func() (*ClassEntry, error)

	startup         func() error
	shutdown        func() error
	requestStartup  func() error
	requestShutdown func() error
	postDeactivate  func() error
	info            func(*ModuleInfo)
}

// NewModuleBuilder starts a declaration for a named module.
func NewModuleBuilder(name, version string) *ModuleBuilder {
	return &ModuleBuilder{name: name, version: version}
}

// Function exports a function built by a FunctionBuilder.
func (b *ModuleBuilder) Function(fn *Function) *ModuleBuilder {
	b.functions = append(b.functions, fn)
	return b
}

// Constant exports a global constant.
func (b *ModuleBuilder) Constant(name string, value any, docs ...string) *ModuleBuilder {
	b.constants = append(b.constants, constantSpec{name: name, value: value, docs: docs})
	return b
}

// Class exports a class through its registration thunk, typically a
// ClassBuilder or EnumBuilder Register call.
func (b *ModuleBuilder) Class(register func() (*ClassEntry, error)) *ModuleBuilder {
	b.classes = append(b.classes, register)
	return b
}

// Startup sets a hook that runs after the module's own registrations.
func (b *ModuleBuilder) Startup(fn func() error) *ModuleBuilder {
	b.startup = fn
	return b
}

// Shutdown sets the module shutdown hook.
func (b *ModuleBuilder) Shutdown(fn func() error) *ModuleBuilder {
	b.shutdown = fn
	return b
}

// RequestStartup sets the per-request startup hook.
func (b *ModuleBuilder) RequestStartup(fn func() error) *ModuleBuilder {
	b.requestStartup = fn
	return b
}

// RequestShutdown sets the per-request shutdown hook.
func (b *ModuleBuilder) RequestShutdown(fn func() error) *ModuleBuilder {
	b.requestShutdown = fn
	return b
}

// PostDeactivate sets the hook that runs after request shutdown completes.
func (b *ModuleBuilder) PostDeactivate(fn func() error) *ModuleBuilder {
	b.postDeactivate = fn
	return b
}

// Info sets the hook that fills the module's info table.
func (b *ModuleBuilder) Info(fn func(*ModuleInfo)) *ModuleBuilder {
	b.info = fn
	return b
}

// Build assembles the module entry and its startup. Startup registers
// functions, then constants, then classes; a class that fails to register
// aborts startup, since glue code depends on every exported class existing.
func (b *ModuleBuilder) Build() (*ModuleEntry, ModuleStartup, error) {
	if b.name == "" {
		return nil, nil, fmt.Errorf("zend: build module: missing name")
	}
	entry := &ModuleEntry{
		Name:            b.name,
		Version:         b.version,
		BuildID:         CurrentBuildID(),
		Functions:       b.functions,
		Shutdown:        b.shutdown,
		RequestStartup:  b.requestStartup,
		RequestShutdown: b.requestShutdown,
		PostDeactivate:  b.postDeactivate,
		Info:            b.info,
	}
	startup := func() error {
		eg := Executor()
		for _, fn := range b.functions {
			if err := eg.registerFunction(fn); err != nil {
				return fmt.Errorf("register function: %w", err)
			}
		}
		for _, c := range b.constants {
			z, err := ZvalOf(c.value)
			if err != nil {
				return fmt.Errorf("constant %s: %w", c.name, err)
			}
			con := &Constant{
				Name:   c.name,
				Value:  z,
				Flags:  ConstantCaseSensitive | ConstantPersistent,
				Module: b.name,
				Docs:   c.docs,
			}
			if err := eg.registerConstant(con); err != nil {
				z.Release()
				return err
			}
		}
		for _, register := range b.classes {
			if _, err := register(); err != nil {
				return fmt.Errorf("register class: %w", err)
			}
		}
		if b.startup != nil {
			return b.startup()
		}
		return nil
	}
	entry.startup = startup
	return entry, startup, nil
}
