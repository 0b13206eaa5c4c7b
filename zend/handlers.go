package zend

// PropertyQuery selects the predicate a has-property hook answers.
type PropertyQuery uint32

const (
	// PropertyQueryIsset asks whether the property is set to a non-null value.
	PropertyQueryIsset PropertyQuery = iota
	// PropertyQueryNotEmpty asks whether the property holds a truthy value.
	PropertyQueryNotEmpty
	// PropertyQueryExists asks whether the property exists at all.
	PropertyQueryExists
)

// ObjectHandlers is the per-class hook table consulted for property access
// and teardown. Classes without overrides use the standard handlers, which
// operate on the object's property storage. A read hook may either return a
// pointer into storage or fill rv and return it.
type ObjectHandlers struct {
	ReadProperty  func(obj *Object, name string, rv *Zval) (*Zval, error)
	WriteProperty func(obj *Object, name string, value Zval) error
	HasProperty   func(obj *Object, name string, query PropertyQuery) (bool, error)
	GetProperties func(obj *Object) (*HashTable, error)
	Free          func(obj *Object)
}

var stdHandlers = &ObjectHandlers{
	ReadProperty:  stdReadProperty,
	WriteProperty: stdWriteProperty,
	HasProperty:   stdHasProperty,
	GetProperties: stdGetProperties,
}

// stdObjectHandlers returns the shared standard handler set.
func stdObjectHandlers() *ObjectHandlers { return stdHandlers }

func stdReadProperty(obj *Object, name string, _ *Zval) (*Zval, error) {
	if v := obj.props.Get(name); v != nil {
		return v, nil
	}
	return nil, ErrInvalidProperty
}

func stdWriteProperty(obj *Object, name string, value Zval) error {
	if obj.props.Has(name) {
		obj.props.InsertZval(name, value)
		return nil
	}
	if _, declared := obj.ce.Property(name); !declared {
		if obj.ce.Flags().Has(ClassNoDynamicProperties) {
			value.Release()
			return ErrInvalidProperty
		}
	}
	obj.props.InsertZval(name, value)
	return nil
}

func stdHasProperty(obj *Object, name string, query PropertyQuery) (bool, error) {
	v := obj.props.Get(name)
	switch query {
	case PropertyQueryExists:
		return v != nil, nil
	case PropertyQueryIsset:
		return v != nil && !v.IsNull() && !v.IsUndef(), nil
	case PropertyQueryNotEmpty:
		return v != nil && v.Truthy(), nil
	}
	return false, nil
}

func stdGetProperties(obj *Object) (*HashTable, error) {
	return obj.props, nil
}
