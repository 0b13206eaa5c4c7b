package zend

// Reference is the refcounted box behind by-reference values. Multiple cells
// may point at the same Reference; writes through one alias are visible
// through all of them.
type Reference struct {
	Val      Zval
	refcount uint32
}

// NewReference boxes a cell, taking ownership of it.
func NewReference(v Zval) *Reference {
	return &Reference{Val: v, refcount: 1}
}

func (r *Reference) AddRef() { r.refcount++ }

// Release decrements the refcount and releases the boxed cell when it
// reaches zero.
func (r *Reference) Release() {
	if r.refcount == 0 {
		return
	}
	r.refcount--
	if r.refcount == 0 {
		r.Val.Release()
	}
}

func (r *Reference) Refcount() uint32 { return r.refcount }
