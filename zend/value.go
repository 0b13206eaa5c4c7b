package zend

import (
	"math"
	"strconv"
)

// Zval is a value cell: a fixed-shape tagged union holding exactly one
// runtime value. Numeric payloads live in num; handle payloads (string,
// array, object, resource, reference, indirect, pointer) live in p. The tag
// and the payload always agree; every setter releases the previous payload
// before installing the new one.
//
// Cells themselves are never reference-counted. The payloads they point at
// (strings, arrays, objects) are.
type Zval struct {
	tag DataType
	num uint64
	p   any
}

// NewZval returns an undefined cell.
func NewZval() Zval { return Zval{tag: TypeUndef} }

// Type returns the cell's tag without following references.
func (z *Zval) Type() DataType { return z.tag }

// ---------------------------------------------------------------------------
// Predicates
// ---------------------------------------------------------------------------

func (z *Zval) IsUndef() bool     { return z.tag == TypeUndef }
func (z *Zval) IsNull() bool      { return z.tag == TypeNull }
func (z *Zval) IsTrue() bool      { return z.tag == TypeTrue }
func (z *Zval) IsFalse() bool     { return z.tag == TypeFalse }
func (z *Zval) IsBool() bool      { return z.tag == TypeTrue || z.tag == TypeFalse }
func (z *Zval) IsLong() bool      { return z.tag == TypeLong }
func (z *Zval) IsDouble() bool    { return z.tag == TypeDouble }
func (z *Zval) IsString() bool    { return z.tag == TypeString }
func (z *Zval) IsArray() bool     { return z.tag == TypeArray }
func (z *Zval) IsObject() bool    { return z.tag == TypeObject }
func (z *Zval) IsResource() bool  { return z.tag == TypeResource }
func (z *Zval) IsReference() bool { return z.tag == TypeReference }
func (z *Zval) IsIndirect() bool  { return z.tag == TypeIndirect }
func (z *Zval) IsPtr() bool       { return z.tag == TypePtr }

// ---------------------------------------------------------------------------
// Typed getters. Each returns ok only when the tag matches, with two
// documented widenings: Double also accepts Long, and Str stringifies
// numeric and boolean cells.
// ---------------------------------------------------------------------------

// Long returns the integer payload.
func (z *Zval) Long() (int64, bool) {
	if z.tag == TypeLong {
		return int64(z.num), true
	}
	return 0, false
}

// Bool returns the boolean payload.
func (z *Zval) Bool() (bool, bool) {
	switch z.tag {
	case TypeTrue:
		return true, true
	case TypeFalse:
		return false, true
	}
	return false, false
}

// Double returns the float payload. A Long cell is widened to a double.
func (z *Zval) Double() (float64, bool) {
	switch z.tag {
	case TypeDouble:
		return math.Float64frombits(z.num), true
	case TypeLong:
		return float64(int64(z.num)), true
	}
	return 0, false
}

// ZStr returns the string handle.
func (z *Zval) ZStr() (*ZString, bool) {
	if z.tag == TypeString {
		return z.p.(*ZString), true
	}
	return nil, false
}

// Str returns the string contents. Numeric and boolean cells are stringified
// the way the engine casts them: longs and doubles print their decimal form,
// true prints "1", false and null print "".
func (z *Zval) Str() (string, bool) {
	switch z.tag {
	case TypeString:
		return z.p.(*ZString).String(), true
	case TypeLong:
		return strconv.FormatInt(int64(z.num), 10), true
	case TypeDouble:
		return strconv.FormatFloat(math.Float64frombits(z.num), 'G', -1, 64), true
	case TypeTrue:
		return "1", true
	case TypeFalse, TypeNull:
		return "", true
	}
	return "", false
}

// Array returns the hashtable handle.
func (z *Zval) Array() (*HashTable, bool) {
	if z.tag == TypeArray {
		return z.p.(*HashTable), true
	}
	return nil, false
}

// Object returns the object handle.
func (z *Zval) Object() (*Object, bool) {
	if z.tag == TypeObject {
		return z.p.(*Object), true
	}
	return nil, false
}

// Resource returns the resource handle.
func (z *Zval) Resource() (*Resource, bool) {
	if z.tag == TypeResource {
		return z.p.(*Resource), true
	}
	return nil, false
}

// Reference returns the reference handle.
func (z *Zval) Reference() (*Reference, bool) {
	if z.tag == TypeReference {
		return z.p.(*Reference), true
	}
	return nil, false
}

// Indirect returns the cell this indirect slot points at.
func (z *Zval) Indirect() (*Zval, bool) {
	if z.tag == TypeIndirect {
		return z.p.(*Zval), true
	}
	return nil, false
}

// Ptr returns an opaque pointer payload.
func (z *Zval) Ptr() (any, bool) {
	if z.tag == TypePtr {
		return z.p, true
	}
	return nil, false
}

// Truthy reports engine truthiness: null, false, zero numbers, the empty
// string, "0", and empty arrays are falsy; everything else is truthy.
func (z *Zval) Truthy() bool {
	switch z.tag {
	case TypeUndef, TypeNull, TypeFalse:
		return false
	case TypeLong:
		return z.num != 0
	case TypeDouble:
		return math.Float64frombits(z.num) != 0
	case TypeString:
		s := z.p.(*ZString).String()
		return s != "" && s != "0"
	case TypeArray:
		return !z.p.(*HashTable).IsEmpty()
	case TypeReference, TypeIndirect:
		return z.Dereference().Truthy()
	}
	return true
}

// Dereference follows a Reference or Indirect cell one level and returns the
// target; any other cell returns itself.
func (z *Zval) Dereference() *Zval {
	switch z.tag {
	case TypeReference:
		return &z.p.(*Reference).Val
	case TypeIndirect:
		return z.p.(*Zval)
	}
	return z
}

// ---------------------------------------------------------------------------
// Typed setters. Handle-taking setters assume ownership of the handle the
// caller supplies; SetObject additionally increments the object's refcount,
// mirroring the engine's own set-object primitive.
// ---------------------------------------------------------------------------

func (z *Zval) SetUndef() {
	z.Release()
	z.tag = TypeUndef
}

func (z *Zval) SetNull() {
	z.Release()
	z.tag = TypeNull
}

func (z *Zval) SetBool(v bool) {
	z.Release()
	if v {
		z.tag = TypeTrue
	} else {
		z.tag = TypeFalse
	}
}

func (z *Zval) SetLong(v int64) {
	z.Release()
	z.tag = TypeLong
	z.num = uint64(v)
}

func (z *Zval) SetDouble(v float64) {
	z.Release()
	z.tag = TypeDouble
	z.num = math.Float64bits(v)
}

// SetString allocates a regular engine string for s.
func (z *Zval) SetString(s string) {
	z.Release()
	z.tag = TypeString
	z.p = NewZString(s)
}

// SetInterned stores the canonical interned string for s.
func (z *Zval) SetInterned(s string) {
	z.Release()
	z.tag = TypeString
	z.p = Intern(s)
}

// SetZStr stores an existing string handle, taking ownership.
func (z *Zval) SetZStr(s *ZString) {
	z.Release()
	z.tag = TypeString
	z.p = s
}

// SetArray stores a hashtable handle, taking ownership.
func (z *Zval) SetArray(ht *HashTable) {
	z.Release()
	z.tag = TypeArray
	z.p = ht
}

// SetObject stores an object handle and increments its refcount.
func (z *Zval) SetObject(o *Object) {
	z.Release()
	o.AddRef()
	z.tag = TypeObject
	z.p = o
}

// SetResource stores a resource handle, taking ownership.
func (z *Zval) SetResource(r *Resource) {
	z.Release()
	z.tag = TypeResource
	z.p = r
}

// SetReference stores a reference handle, taking ownership.
func (z *Zval) SetReference(r *Reference) {
	z.Release()
	z.tag = TypeReference
	z.p = r
}

// SetIndirect points this cell at another cell without owning it.
func (z *Zval) SetIndirect(target *Zval) {
	z.Release()
	z.tag = TypeIndirect
	z.p = target
}

// SetPtr stores an opaque pointer payload.
func (z *Zval) SetPtr(v any) {
	z.Release()
	z.tag = TypePtr
	z.p = v
}

// ---------------------------------------------------------------------------
// Ownership transitions
// ---------------------------------------------------------------------------

// Release decrements the refcount of the current payload if it has one and
// resets the cell to Null. Safe on cells that hold no payload. Every setter
// performs this on the old payload first.
func (z *Zval) Release() {
	switch z.tag {
	case TypeString:
		z.p.(*ZString).Release()
	case TypeArray:
		z.p.(*HashTable).Release()
	case TypeObject:
		z.p.(*Object).Release()
	case TypeResource:
		z.p.(*Resource).Release()
	case TypeReference:
		z.p.(*Reference).Release()
	}
	z.tag = TypeNull
	z.num = 0
	z.p = nil
}

// Detach moves the cell's bit pattern out and leaves the receiver undefined
// without touching any refcount. Ownership of the payload moves to the
// returned cell exactly once; the receiver no longer owns anything.
func (z *Zval) Detach() Zval {
	out := *z
	z.tag = TypeUndef
	z.num = 0
	z.p = nil
	return out
}

// ShallowClone copies the cell and increments the payload refcount when the
// payload is refcounted, so both cells own the shared payload.
func (z *Zval) ShallowClone() Zval {
	out := *z
	switch z.tag {
	case TypeString:
		z.p.(*ZString).AddRef()
	case TypeArray:
		z.p.(*HashTable).AddRef()
	case TypeObject:
		z.p.(*Object).AddRef()
	case TypeResource:
		z.p.(*Resource).AddRef()
	case TypeReference:
		z.p.(*Reference).AddRef()
	}
	return out
}
