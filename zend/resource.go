package zend

// Resource is an opaque engine resource: a numbered handle around some
// embedder-owned state (a file, a connection). The engine only tracks its
// identity and lifetime.
type Resource struct {
	handle   int64
	kind     string
	ptr      any
	closer   func(any)
	refcount uint32
}

// NewResource wraps embedder state as an engine resource. closer, if not
// nil, runs exactly once when the last handle is released.
func NewResource(kind string, ptr any, closer func(any)) *Resource {
	return &Resource{
		handle:   Executor().nextResourceHandle(),
		kind:     kind,
		ptr:      ptr,
		refcount: 1,
		closer:   closer,
	}
}

// Handle returns the resource number.
func (r *Resource) Handle() int64 { return r.handle }

// Kind returns the resource kind name given at creation.
func (r *Resource) Kind() string { return r.kind }

// Value returns the wrapped embedder state.
func (r *Resource) Value() any { return r.ptr }

func (r *Resource) AddRef() { r.refcount++ }

// Release decrements the refcount, running the closer at zero.
func (r *Resource) Release() {
	if r.refcount == 0 {
		return
	}
	r.refcount--
	if r.refcount == 0 {
		if r.closer != nil {
			r.closer(r.ptr)
		}
		r.ptr = nil
	}
}

func (r *Resource) Refcount() uint32 { return r.refcount }
