package zend

import "fmt"

// Constant is a global constant registered with the executor.
type Constant struct {
	Name   string
	Value  Zval
	Flags  ConstantFlags
	Module string
	Docs   []string
}

// RegisterConstant converts a native value and registers it as a global
// constant with the default case-sensitive, persistent flags.
func RegisterConstant(name string, value any) error {
	return RegisterConstantFlags(name, value, ConstantCaseSensitive|ConstantPersistent)
}

// RegisterConstantFlags registers a global constant with explicit flags.
func RegisterConstantFlags(name string, value any, flags ConstantFlags) error {
	z, err := ZvalOf(value)
	if err != nil {
		return fmt.Errorf("zend: constant %s: %w", name, err)
	}
	c := &Constant{Name: name, Value: z, Flags: flags}
	if err := Executor().registerConstant(c); err != nil {
		z.Release()
		return fmt.Errorf("zend: %w", err)
	}
	return nil
}

// ConstantValue looks up a registered constant's cell. The cell is borrowed
// from the constant table.
func ConstantValue(name string) (*Zval, bool) {
	c, ok := Executor().Constant(name)
	if !ok {
		return nil, false
	}
	return &c.Value, true
}
