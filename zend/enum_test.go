package zend

import (
	"strings"
	"testing"
)

func registerStatusEnum(t *testing.T) *ClassEntry {
	t.Helper()
	ce, err := NewEnumBuilder("Status").
		LongCase("Active", 1).
		LongCase("Archived", 2).
		Register()
	if err != nil {
		t.Fatalf("register Status: %v", err)
	}
	return ce
}

func TestPureEnum(t *testing.T) {
	ResetExecutor()
	ce, err := NewEnumBuilder("Suit").
		Case("Hearts").
		Case("Spades").
		Register()
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if !ce.IsEnum() {
		t.Error("entry should carry the enum flag")
	}
	if !ce.InstanceOf(UnitEnumCE()) {
		t.Error("pure enums implement UnitEnum")
	}
	if ce.InstanceOf(BackedEnumCE()) {
		t.Error("pure enums do not implement BackedEnum")
	}
	if backing, ok := ce.EnumBacking(); !ok || backing != TypeUndef {
		t.Errorf("backing = %v, %v, want Undefined", backing, ok)
	}

	hearts, ok := ce.EnumCase("Hearts")
	if !ok {
		t.Fatal("Hearts case should exist")
	}
	if name, err := GetProperty[string](hearts, "name"); err != nil || name != "Hearts" {
		t.Errorf("name = %q, %v, want Hearts", name, err)
	}
	// Pure cases carry no value property.
	if has, _ := hearts.HasProperty("value", PropertyQueryExists); has {
		t.Error("pure case should have no value property")
	}

	// A pure enum gets no from/tryFrom methods.
	if _, ok := ce.Method("from"); ok {
		t.Error("pure enums have no from method")
	}
}

func TestBackedEnumFrom(t *testing.T) {
	ResetExecutor()
	ce := registerStatusEnum(t)
	if !ce.InstanceOf(BackedEnumCE()) {
		t.Error("backed enums implement BackedEnum")
	}

	active, _ := ce.EnumCase("Active")
	if v, err := GetProperty[int64](active, "value"); err != nil || v != 1 {
		t.Errorf("value = %d, %v, want 1", v, err)
	}

	cell := NewZval()
	cell.SetString("Status::from")
	ret, err := cell.TryCall(int64(1))
	if err != nil {
		t.Fatalf("from: %v", err)
	}
	obj, ok := ret.Object()
	if !ok || obj != active {
		t.Error("from should return the case singleton")
	}
	ret.Release()

	// A missing discriminant throws ValueError.
	ret, err = cell.TryCall(int64(99))
	if err != nil {
		t.Fatalf("from(99): %v", err)
	}
	if !ret.IsNull() {
		t.Error("failed from should leave the return cell null")
	}
	if name, _ := Executor().ExceptionName(); name != "ValueError" {
		t.Errorf("pending = %q, want ValueError", name)
	}
	thrown := Executor().TakeException()
	msg, _ := GetProperty[string](thrown, "message")
	if msg != "99 is not a valid backing value for enum Status" {
		t.Errorf("message = %q", msg)
	}
	thrown.Release()

	// A mistyped discriminant throws TypeError.
	if _, err := cell.TryCall("one"); err != nil {
		t.Fatalf("from(string): %v", err)
	}
	if name, _ := Executor().ExceptionName(); name != "TypeError" {
		t.Errorf("pending = %q, want TypeError", name)
	}
	thrown = Executor().TakeException()
	msg, _ = GetProperty[string](thrown, "message")
	if msg != "Status::from(): Argument #1 ($value) must be of type int, string given" {
		t.Errorf("message = %q", msg)
	}
	thrown.Release()
	cell.Release()
}

func TestBackedEnumTryFrom(t *testing.T) {
	ResetExecutor()
	ce := registerStatusEnum(t)

	cell := NewZval()
	cell.SetString("Status::tryFrom")
	ret, err := cell.TryCall(int64(2))
	if err != nil {
		t.Fatalf("tryFrom: %v", err)
	}
	archived, _ := ce.EnumCase("Archived")
	if obj, ok := ret.Object(); !ok || obj != archived {
		t.Error("tryFrom should return the case singleton")
	}
	ret.Release()

	// A miss returns null without throwing.
	ret, err = cell.TryCall(int64(99))
	if err != nil {
		t.Fatalf("tryFrom(99): %v", err)
	}
	if !ret.IsNull() {
		t.Errorf("tryFrom miss = %v, want null", ret.Type())
	}
	if Executor().HasException() {
		t.Error("tryFrom must not throw on a miss")
	}
	cell.Release()
}

func TestStringBackedEnum(t *testing.T) {
	ResetExecutor()
	ce, err := NewEnumBuilder("Channel").
		StringCase("Stable", "stable").
		StringCase("Nightly", "nightly").
		Register()
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if backing, _ := ce.EnumBacking(); backing != TypeString {
		t.Errorf("backing = %v, want String", backing)
	}

	byDisc, ok := ce.EnumCaseByString("nightly")
	if !ok {
		t.Fatal("nightly should resolve")
	}
	if name, _ := GetProperty[string](byDisc, "name"); name != "Nightly" {
		t.Errorf("name = %q, want Nightly", name)
	}

	cell := NewZval()
	cell.SetString("Channel::from")
	if _, err := cell.TryCall(int64(1)); err != nil {
		t.Fatalf("from(int): %v", err)
	}
	thrown := Executor().TakeException()
	if thrown == nil {
		t.Fatal("mistyped discriminant should throw")
	}
	msg, _ := GetProperty[string](thrown, "message")
	if msg != "Channel::from(): Argument #1 ($value) must be of type string, int given" {
		t.Errorf("message = %q", msg)
	}
	thrown.Release()
	cell.Release()
}

func TestEnumCasesMethod(t *testing.T) {
	ResetExecutor()
	ce := registerStatusEnum(t)

	cell := NewZval()
	cell.SetString("Status::cases")
	ret, err := cell.TryCall()
	if err != nil {
		t.Fatalf("cases: %v", err)
	}
	ht, ok := ret.Array()
	if !ok || ht.Len() != 2 {
		t.Fatalf("cases should return 2 entries")
	}

	want := ce.EnumCases()
	for i := int64(0); i < 2; i++ {
		obj, _ := ht.GetIndex(i).Object()
		if obj != want[i] {
			t.Errorf("cases[%d] is not the declaration-order singleton", i)
		}
	}
	ret.Release()
	cell.Release()
}

func TestEnumMixedBackingPanics(t *testing.T) {
	ResetExecutor()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("mixing discriminant kinds should panic")
		}
		if r != "Cannot add case with data type String to enum with data type Long" {
			t.Errorf("panic = %v", r)
		}
	}()
	NewEnumBuilder("Broken").LongCase("A", 1).StringCase("B", "b")
}

func TestEnumDuplicateValidation(t *testing.T) {
	ResetExecutor()

	_, err := NewEnumBuilder("DupName").Case("A").Case("A").Register()
	if err == nil || !strings.Contains(err.Error(), "duplicate case") {
		t.Errorf("duplicate case name = %v", err)
	}

	_, err = NewEnumBuilder("DupLong").LongCase("A", 1).LongCase("B", 1).Register()
	if err == nil || !strings.Contains(err.Error(), "duplicate discriminant") {
		t.Errorf("duplicate long discriminant = %v", err)
	}

	_, err = NewEnumBuilder("DupStr").StringCase("A", "x").StringCase("B", "x").Register()
	if err == nil || !strings.Contains(err.Error(), "duplicate discriminant") {
		t.Errorf("duplicate string discriminant = %v", err)
	}

	// Validation failures abort before the class table sees the entry.
	for _, name := range []string{"DupName", "DupLong", "DupStr"} {
		if _, ok := Executor().Class(name); ok {
			t.Errorf("%s should not have registered", name)
		}
	}
}
