package zend

import (
	"errors"
	"math"
	"strings"
	"testing"
)

type trackedRes struct {
	ID    int64
	freed *int
}

func (tr *trackedRes) Finalize() {
	if tr.freed != nil {
		*tr.freed++
	}
}

type vecObj struct {
	X, Y float64
}

func registerTracked(t *testing.T) *ClassEntry {
	t.Helper()
	ce, err := WithObject[trackedRes](NewClassBuilder("TrackedRes"), nil).Register()
	if err != nil {
		t.Fatalf("register TrackedRes: %v", err)
	}
	return ce
}

func registerVec(t *testing.T) *ClassEntry {
	t.Helper()
	props := map[string]Property[vecObj]{
		"x": FieldProperty(func(v *vecObj) *float64 { return &v.X }),
		"y": FieldProperty(func(v *vecObj) *float64 { return &v.Y }),
		"length": MethodProperty(func(v *vecObj) float64 {
			return math.Hypot(v.X, v.Y)
		}, nil),
	}
	ce, err := WithObject(NewClassBuilder("Vec"), props).Register()
	if err != nil {
		t.Fatalf("register Vec: %v", err)
	}
	return ce
}

// ---------------------------------------------------------------------------
// Container recovery
// ---------------------------------------------------------------------------

func TestClassObjectRecovery(t *testing.T) {
	ResetExecutor()
	registerTracked(t)

	co := NewClassObject(trackedRes{ID: 7})
	std := co.Std()
	if std.ClassName() != "TrackedRes" {
		t.Errorf("class = %q, want TrackedRes", std.ClassName())
	}

	native, err := ObjOf[trackedRes](std)
	if err != nil {
		t.Fatalf("ObjOf: %v", err)
	}
	if native != co.Obj() {
		t.Error("recovered pointer should be the container's native half")
	}
	native.ID = 11
	if co.Obj().ID != 11 {
		t.Error("mutation through the recovered pointer should be visible")
	}

	back, err := ObjectOf[trackedRes](std)
	if err != nil {
		t.Fatalf("ObjectOf: %v", err)
	}
	if back != co {
		t.Error("ObjectOf should recover the original container")
	}
}

func TestObjectOfScopeChecks(t *testing.T) {
	ResetExecutor()
	registerTracked(t)
	registerVec(t)

	if _, err := ObjectOf[trackedRes](nil); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("nil object = %v, want ErrInvalidScope", err)
	}

	plain := NewStdClass()
	defer plain.Release()
	if _, err := ObjectOf[trackedRes](plain); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("stdClass = %v, want ErrInvalidScope", err)
	}

	vec := NewClassObject(vecObj{X: 1})
	if _, err := ObjectOf[trackedRes](vec.Std()); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("foreign class = %v, want ErrInvalidScope", err)
	}
}

func TestEngineCreatedObjectIsUninitialized(t *testing.T) {
	ResetExecutor()
	ce := registerTracked(t)

	obj := ce.NewObject()
	co, err := ObjectOf[trackedRes](obj)
	if err != nil {
		t.Fatalf("ObjectOf: %v", err)
	}
	if co.IsInitialized() {
		t.Error("engine-created container should start uninitialized")
	}
	if _, ok := co.TryObj(); ok {
		t.Error("TryObj should report no value")
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Obj on an uninitialized container should panic")
		}
		if r != "Attempted to access uninitialized class object" {
			t.Errorf("panic = %v", r)
		}
	}()
	co.Obj()
}

func TestInitializeReturnsPrevious(t *testing.T) {
	ResetExecutor()
	ce := registerTracked(t)

	co, err := ObjectOf[trackedRes](ce.NewObject())
	if err != nil {
		t.Fatalf("ObjectOf: %v", err)
	}
	prev, had := co.Initialize(trackedRes{ID: 1})
	if had {
		t.Errorf("first Initialize reported a previous value: %+v", prev)
	}
	prev, had = co.Initialize(trackedRes{ID: 2})
	if !had || prev.ID != 1 {
		t.Errorf("second Initialize = %+v, %v, want ID 1, true", prev, had)
	}
	if co.Obj().ID != 2 {
		t.Errorf("current value ID = %d, want 2", co.Obj().ID)
	}
}

// ---------------------------------------------------------------------------
// Finalization
// ---------------------------------------------------------------------------

func TestFinalizeRunsOnce(t *testing.T) {
	ResetExecutor()
	registerTracked(t)

	freed := 0
	co := NewClassObject(trackedRes{ID: 1, freed: &freed})
	std := co.Std()
	std.AddRef()
	std.Release()
	if freed != 0 {
		t.Fatal("finalizer ran while references remain")
	}
	std.Release()
	if freed != 1 {
		t.Errorf("finalize count = %d, want 1", freed)
	}
	std.Release()
	if freed != 1 {
		t.Errorf("finalize count after extra release = %d, want 1", freed)
	}
}

func TestUninitializedContainerSkipsFinalize(t *testing.T) {
	ResetExecutor()
	ce := registerTracked(t)
	obj := ce.NewObject()
	obj.Release()
	// Nothing to assert beyond not panicking: the free hook must tolerate a
	// container whose native half never existed.
}

// ---------------------------------------------------------------------------
// Metadata binding
// ---------------------------------------------------------------------------

func TestMetadataBindsOnce(t *testing.T) {
	ResetExecutor()
	ce := registerTracked(t)

	meta := Metadata[trackedRes]()
	if !meta.HasCE() || meta.CE() != ce {
		t.Fatal("metadata should point at the registered entry")
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("second SetCE should panic")
		}
		if r != "Class entry has already been set." {
			t.Errorf("panic = %v", r)
		}
	}()
	meta.SetCE(ce)
}

type neverBound struct{}

func TestMetadataUnregisteredPanics(t *testing.T) {
	ResetExecutor()
	if Metadata[neverBound]().HasCE() {
		t.Fatal("neverBound should have no class entry")
	}
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("CE on an unregistered type should panic")
		}
		if !strings.Contains(r.(string), "was not registered") {
			t.Errorf("panic = %v", r)
		}
	}()
	Metadata[neverBound]().CE()
}

func TestResetExecutorClearsMetadata(t *testing.T) {
	ResetExecutor()
	registerTracked(t)
	ResetExecutor()
	if Metadata[trackedRes]().HasCE() {
		t.Error("reset should unbind native metadata")
	}
	// Re-registering after a reset must not trip the bind-once panic.
	registerTracked(t)
}

// ---------------------------------------------------------------------------
// Property accessors
// ---------------------------------------------------------------------------

func TestOverlayPropertyAccessors(t *testing.T) {
	ResetExecutor()
	registerVec(t)

	co := NewClassObject(vecObj{X: 3, Y: 4})
	std := co.Std()

	if v, err := GetProperty[float64](std, "x"); err != nil || v != 3 {
		t.Errorf("x = %v, %v, want 3", v, err)
	}
	if v, err := GetProperty[float64](std, "length"); err != nil || v != 5 {
		t.Errorf("length = %v, %v, want 5", v, err)
	}

	if err := std.SetProperty("x", 6.0); err != nil {
		t.Fatalf("write x: %v", err)
	}
	if co.Obj().X != 6 {
		t.Errorf("native X = %v, want 6", co.Obj().X)
	}

	// A getter-only accessor rejects writes.
	if err := std.SetProperty("length", 1.0); !errors.Is(err, ErrInvalidProperty) {
		t.Errorf("write length = %v, want ErrInvalidProperty", err)
	}

	tests := []struct {
		name  string
		query PropertyQuery
		want  bool
	}{
		{"x", PropertyQueryExists, true},
		{"length", PropertyQueryExists, true},
		{"length", PropertyQueryIsset, true},
		{"nope", PropertyQueryExists, false},
	}
	for _, tt := range tests {
		if got, _ := std.HasProperty(tt.name, tt.query); got != tt.want {
			t.Errorf("HasProperty(%s, %d) = %v, want %v", tt.name, tt.query, got, tt.want)
		}
	}

	props, err := std.Properties()
	if err != nil {
		t.Fatalf("Properties: %v", err)
	}
	for _, name := range []string{"x", "y", "length"} {
		if !props.Has(name) {
			t.Errorf("enumeration should include %s", name)
		}
	}
}

func TestEnumerationSkipsErroringAccessor(t *testing.T) {
	ResetExecutor()

	props := map[string]Property[vecObj]{
		"x": FieldProperty(func(v *vecObj) *float64 { return &v.X }),
		"broken": NewProperty[vecObj](func(_ *vecObj, _ *Zval) error {
			return errors.New("accessor failed")
		}, nil),
	}
	if _, err := WithObject(NewClassBuilder("PartialVec"), props).Register(); err != nil {
		t.Fatalf("register PartialVec: %v", err)
	}

	co := NewClassObject(vecObj{X: 9})
	table, err := co.Std().Properties()
	if err != nil {
		t.Fatalf("Properties: %v", err)
	}
	if !table.Has("x") {
		t.Errorf("enumeration should include x")
	}
	if table.Has("broken") {
		t.Errorf("enumeration should skip the erroring accessor")
	}
}

func TestSynthesizedConstructorThrows(t *testing.T) {
	ResetExecutor()
	ce := registerTracked(t)

	obj := ce.NewObject()
	defer obj.Release()
	if _, err := obj.TryCallMethod("__construct"); err != nil {
		t.Fatalf("TryCallMethod: %v", err)
	}
	if !Executor().HasException() {
		t.Fatal("constructing a native-only class should throw")
	}
	thrown := Executor().TakeException()
	defer thrown.Release()
	if thrown.ClassName() != "Error" {
		t.Errorf("thrown class = %q, want Error", thrown.ClassName())
	}
	msg, _ := GetProperty[string](thrown, "message")
	if msg != "You cannot instantiate this class from PHP." {
		t.Errorf("message = %q", msg)
	}
}

func TestNativeSubclassSharesContainer(t *testing.T) {
	ResetExecutor()
	base := registerTracked(t)
	child, err := NewClassBuilder("TrackedChild").
		Extends(func() *ClassEntry { return base }).
		Register()
	if err != nil {
		t.Fatalf("register child: %v", err)
	}

	obj := child.NewObject()
	defer obj.Release()
	co, err := ObjectOf[trackedRes](obj)
	if err != nil {
		t.Fatalf("recovery through subclass: %v", err)
	}
	co.Initialize(trackedRes{ID: 5})
	if got, err := ObjOf[trackedRes](obj); err != nil || got.ID != 5 {
		t.Errorf("subclass native half = %+v, %v", got, err)
	}
	if obj.ClassName() != "TrackedChild" {
		t.Errorf("instantiated class = %q, want TrackedChild", obj.ClassName())
	}
}

func TestWithObjectFlags(t *testing.T) {
	ResetExecutor()
	ce := registerTracked(t)
	if !ce.Flags().Has(ClassNoDynamicProperties) {
		t.Error("native-backed classes should refuse dynamic properties")
	}
	if !ce.Flags().Has(ClassNotSerializable) {
		t.Error("native-backed classes should not be serializable")
	}
}
