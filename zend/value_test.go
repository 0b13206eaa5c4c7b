package zend

import (
	"testing"
	"unsafe"
)

// ---------------------------------------------------------------------------
// Tag round-trips
// ---------------------------------------------------------------------------

func TestLongRoundTrip(t *testing.T) {
	tests := []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40)}

	for _, n := range tests {
		z := NewZval()
		z.SetLong(n)
		if !z.IsLong() {
			t.Errorf("SetLong(%d).IsLong() = false, want true", n)
			continue
		}
		got, ok := z.Long()
		if !ok || got != n {
			t.Errorf("SetLong(%d).Long() = %d, %v, want %d, true", n, got, ok, n)
		}
	}
}

func TestDoubleRoundTrip(t *testing.T) {
	tests := []float64{0.0, 1.5, -1.5, 2.718281828, 1e300, -1e300}

	for _, f := range tests {
		z := NewZval()
		z.SetDouble(f)
		if !z.IsDouble() {
			t.Errorf("SetDouble(%v).IsDouble() = false, want true", f)
			continue
		}
		got, ok := z.Double()
		if !ok || got != f {
			t.Errorf("SetDouble(%v).Double() = %v, %v, want %v, true", f, got, ok, f)
		}
	}
}

func TestBoolRoundTrip(t *testing.T) {
	z := NewZval()
	z.SetBool(true)
	if !z.IsTrue() || z.IsFalse() {
		t.Error("SetBool(true) should set the True tag")
	}
	if v, ok := z.Bool(); !ok || !v {
		t.Errorf("Bool() = %v, %v, want true, true", v, ok)
	}

	z.SetBool(false)
	if !z.IsFalse() {
		t.Error("SetBool(false) should set the False tag")
	}
	if v, ok := z.Bool(); !ok || v {
		t.Errorf("Bool() = %v, %v, want false, true", v, ok)
	}
}

func TestStringRoundTrip(t *testing.T) {
	tests := []string{"", "a", "hello world", "héllo", "\x00binary\xff"}

	for _, s := range tests {
		z := NewZval()
		z.SetString(s)
		if !z.IsString() {
			t.Errorf("SetString(%q).IsString() = false, want true", s)
			continue
		}
		got, ok := z.Str()
		if !ok || got != s {
			t.Errorf("SetString(%q).Str() = %q, %v, want %q, true", s, got, ok, s)
		}
		z.Release()
	}
}

func TestNullAndUndef(t *testing.T) {
	z := NewZval()
	if !z.IsUndef() {
		t.Error("fresh cell should be undef")
	}
	z.SetNull()
	if !z.IsNull() || z.IsUndef() {
		t.Error("SetNull should move the cell from undef to null")
	}
}

// ---------------------------------------------------------------------------
// Getter widenings
// ---------------------------------------------------------------------------

func TestDoubleAcceptsLong(t *testing.T) {
	z := NewZval()
	z.SetLong(7)
	got, ok := z.Double()
	if !ok || got != 7.0 {
		t.Errorf("Double() on long = %v, %v, want 7.0, true", got, ok)
	}
}

func TestLongRejectsDouble(t *testing.T) {
	z := NewZval()
	z.SetDouble(7.0)
	if _, ok := z.Long(); ok {
		t.Error("Long() on double should not widen")
	}
}

func TestStrStringifies(t *testing.T) {
	tests := []struct {
		set  func(*Zval)
		want string
	}{
		{func(z *Zval) { z.SetLong(42) }, "42"},
		{func(z *Zval) { z.SetLong(-1) }, "-1"},
		{func(z *Zval) { z.SetDouble(2.5) }, "2.5"},
		{func(z *Zval) { z.SetBool(true) }, "1"},
		{func(z *Zval) { z.SetBool(false) }, ""},
		{func(z *Zval) { z.SetNull() }, ""},
	}

	for i, tt := range tests {
		z := NewZval()
		tt.set(&z)
		got, ok := z.Str()
		if !ok || got != tt.want {
			t.Errorf("case %d: Str() = %q, %v, want %q, true", i, got, ok, tt.want)
		}
	}
}

func TestStrRejectsArray(t *testing.T) {
	z := NewZval()
	z.SetArray(NewHashTable())
	if _, ok := z.Str(); ok {
		t.Error("Str() on array should fail")
	}
	z.Release()
}

// ---------------------------------------------------------------------------
// Truthiness
// ---------------------------------------------------------------------------

func TestTruthy(t *testing.T) {
	falsy := []func(*Zval){
		func(z *Zval) { z.SetNull() },
		func(z *Zval) { z.SetBool(false) },
		func(z *Zval) { z.SetLong(0) },
		func(z *Zval) { z.SetDouble(0.0) },
		func(z *Zval) { z.SetString("") },
		func(z *Zval) { z.SetString("0") },
		func(z *Zval) { z.SetArray(NewHashTable()) },
	}
	for i, set := range falsy {
		z := NewZval()
		set(&z)
		if z.Truthy() {
			t.Errorf("falsy[%d] should not be truthy", i)
		}
		z.Release()
	}

	truthy := []func(*Zval){
		func(z *Zval) { z.SetBool(true) },
		func(z *Zval) { z.SetLong(-1) },
		func(z *Zval) { z.SetDouble(0.1) },
		func(z *Zval) { z.SetString("0.0") },
		func(z *Zval) {
			ht := NewHashTable()
			ht.Push(int64(1))
			z.SetArray(ht)
		},
	}
	for i, set := range truthy {
		z := NewZval()
		set(&z)
		if !z.Truthy() {
			t.Errorf("truthy[%d] should be truthy", i)
		}
		z.Release()
	}
}

// ---------------------------------------------------------------------------
// Payload ownership
// ---------------------------------------------------------------------------

func TestSetReleasesOldPayload(t *testing.T) {
	ht := NewHashTable()
	ht.AddRef()
	if ht.Refcount() != 2 {
		t.Fatalf("hashtable refcount = %d, want 2", ht.Refcount())
	}

	z := NewZval()
	z.SetArray(ht)
	z.SetLong(1)
	if ht.Refcount() != 1 {
		t.Errorf("overwriting an array cell should release it: refcount = %d, want 1", ht.Refcount())
	}
}

func TestSetObjectAddsReference(t *testing.T) {
	ResetExecutor()
	obj := NewStdClass()
	if obj.Refcount() != 1 {
		t.Fatalf("fresh object refcount = %d, want 1", obj.Refcount())
	}

	z := NewZval()
	z.SetObject(obj)
	if obj.Refcount() != 2 {
		t.Errorf("SetObject should add a reference: refcount = %d, want 2", obj.Refcount())
	}
	z.Release()
	if obj.Refcount() != 1 {
		t.Errorf("Release should drop the cell's reference: refcount = %d, want 1", obj.Refcount())
	}
}

func TestReleaseResetsToNull(t *testing.T) {
	z := NewZval()
	z.SetString("payload")
	z.Release()
	if !z.IsNull() {
		t.Errorf("released cell tag = %v, want Null", z.Type())
	}
}

func TestDetachMovesWithoutRefcount(t *testing.T) {
	ht := NewHashTable()
	z := NewZval()
	z.SetArray(ht)

	moved := z.Detach()
	if !z.IsUndef() {
		t.Error("Detach should leave the source undef")
	}
	got, ok := moved.Array()
	if !ok || got != ht {
		t.Error("Detach should carry the payload over")
	}
	if ht.Refcount() != 1 {
		t.Errorf("Detach must not touch the refcount: got %d, want 1", ht.Refcount())
	}
}

func TestShallowCloneAddsReference(t *testing.T) {
	ht := NewHashTable()
	z := NewZval()
	z.SetArray(ht)

	dup := z.ShallowClone()
	if ht.Refcount() != 2 {
		t.Errorf("ShallowClone should add a reference: got %d, want 2", ht.Refcount())
	}
	dup.Release()
	z.Release()
	if ht.Refcount() != 0 {
		t.Errorf("both cells released: refcount = %d, want 0", ht.Refcount())
	}
}

// ---------------------------------------------------------------------------
// References and indirection
// ---------------------------------------------------------------------------

func TestDereference(t *testing.T) {
	inner := NewZval()
	inner.SetLong(5)
	ref := NewReference(inner)

	z := NewZval()
	z.SetReference(ref)
	got, ok := z.Dereference().Long()
	if !ok || got != 5 {
		t.Errorf("Dereference().Long() = %d, %v, want 5, true", got, ok)
	}

	target := NewZval()
	target.SetLong(9)
	ind := NewZval()
	ind.SetIndirect(&target)
	got, ok = ind.Dereference().Long()
	if !ok || got != 9 {
		t.Errorf("indirect Dereference().Long() = %d, %v, want 9, true", got, ok)
	}

	plain := NewZval()
	plain.SetLong(3)
	if plain.Dereference() != &plain {
		t.Error("Dereference on a plain cell should return itself")
	}
}

func TestZvalSize(t *testing.T) {
	// One word of tag+padding, one payload word, one interface header.
	if size := unsafe.Sizeof(Zval{}); size != 32 {
		t.Errorf("Zval size = %d, want 32", size)
	}
}

// ---------------------------------------------------------------------------
// Benchmarks
// ---------------------------------------------------------------------------

func BenchmarkSetLong(b *testing.B) {
	z := NewZval()
	for i := 0; i < b.N; i++ {
		z.SetLong(int64(i))
	}
}

func BenchmarkShallowCloneString(b *testing.B) {
	z := NewZval()
	z.SetString("benchmark")
	for i := 0; i < b.N; i++ {
		dup := z.ShallowClone()
		dup.Release()
	}
}
