package environment

import (
	"strings"
	"testing"

	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
)

// testCtx backs object-environment lookups with plain raw property access;
// no getters or unscopables are involved in these tests.
type testCtx struct{}

func (testCtx) HasProperty(o *object.Object, key object.PropertyKey) (bool, error) {
	_, ok := o.GetOwnPropertyRaw(key)
	return ok, nil
}

func (testCtx) GetProperty(o *object.Object, key object.PropertyKey) (value.Value, error) {
	d, _ := o.GetOwnPropertyRaw(key)
	return d.Value, nil
}

func (testCtx) SetProperty(o *object.Object, key object.PropertyKey, v value.Value) error {
	o.DefineOwnPropertyRaw(key, object.PropertyDescriptor{Value: v, Writable: true, Enumerable: true, Configurable: true})
	return nil
}

func (testCtx) DeleteProperty(o *object.Object, key object.PropertyKey) (bool, error) {
	if d, ok := o.GetOwnPropertyRaw(key); ok && !d.Configurable {
		return false, nil
	}
	o.DeletePropertyRaw(key)
	return true, nil
}

func (testCtx) HasUnscopables(o *object.Object, name string) bool { return false }

func newTestStack() (*Stack, *object.Object) {
	global := object.New(nil)
	return NewStack(global), global
}

func TestDeclarativeBindingReadWrite(t *testing.T) {
	s, _ := newTestStack()
	cte := NewCompileTimeEnvironment(nil)
	idx := cte.Declare("x", true, true, false)
	rec := s.PushDeclarative(cte.SlotCount(), cte)

	loc := BindingLocator{Name: "x", EnvIndex: 0, BindingIndex: idx}
	if _, err := s.GetBinding(testCtx{}, rec, loc); err == nil {
		t.Error("reading a lexical binding before initialization should error (TDZ)")
	}
	if err := s.SetBinding(testCtx{}, rec, loc, value.NewInt32(7)); err != nil {
		t.Fatalf("SetBinding: %v", err)
	}
	got, err := s.GetBinding(testCtx{}, rec, loc)
	if err != nil {
		t.Fatalf("GetBinding: %v", err)
	}
	if got.AsFloat64() != 7 {
		t.Errorf("binding = %v, want 7", got)
	}
}

func TestVarSlotsInitializeToUndefined(t *testing.T) {
	s, _ := newTestStack()
	cte := NewCompileTimeEnvironment(nil)
	idx := cte.Declare("v", true, false, false) // var: non-lexical
	rec := s.PushDeclarative(cte.SlotCount(), cte)

	loc := BindingLocator{Name: "v", EnvIndex: 0, BindingIndex: idx}
	got, err := s.GetBinding(testCtx{}, rec, loc)
	if err != nil {
		t.Fatalf("hoisted var read should not hit the TDZ: %v", err)
	}
	if !got.IsUndefined() {
		t.Errorf("hoisted var = %v, want undefined", got)
	}
}

func TestGlobalBindingFallsBackToGlobalObject(t *testing.T) {
	s, global := newTestStack()
	global.DefineOwnPropertyRaw(object.StringKey("answer"), object.PropertyDescriptor{
		Value: value.NewInt32(42), Writable: true, Enumerable: true, Configurable: true,
	})
	loc := BindingLocator{Name: "answer", Global: true}
	got, err := s.GetBinding(testCtx{}, s.Top(), loc)
	if err != nil {
		t.Fatalf("GetBinding: %v", err)
	}
	if got.AsFloat64() != 42 {
		t.Errorf("global binding = %v, want 42", got)
	}

	missing := BindingLocator{Name: "nope", Global: true}
	if _, err := s.GetBinding(testCtx{}, s.Top(), missing); err == nil {
		t.Error("missing global should be a ReferenceError")
	} else if !strings.Contains(err.Error(), "ReferenceError") {
		t.Errorf("error = %v, want ReferenceError", err)
	}
	silent := BindingLocator{Name: "nope", Global: true, Silent: true}
	if got, err := s.GetBinding(testCtx{}, s.Top(), silent); err != nil || !got.IsUndefined() {
		t.Errorf("silent missing global = (%v, %v), want (undefined, nil)", got, err)
	}
}

func TestDeleteBindingRemovesGlobalProperty(t *testing.T) {
	s, global := newTestStack()
	global.DefineOwnPropertyRaw(object.StringKey("tmp"), object.PropertyDescriptor{
		Value: value.NewInt32(1), Writable: true, Enumerable: true, Configurable: true,
	})
	global.DefineOwnPropertyRaw(object.StringKey("pinned"), object.PropertyDescriptor{
		Value: value.NewInt32(2), Writable: true, Enumerable: true,
	})

	ok, err := s.DeleteBinding(testCtx{}, s.Top(), BindingLocator{Name: "tmp", Global: true})
	if err != nil || !ok {
		t.Fatalf("DeleteBinding(tmp) = (%v, %v), want (true, nil)", ok, err)
	}
	if _, has := global.GetOwnPropertyRaw(object.StringKey("tmp")); has {
		t.Error("deleted global binding must no longer exist as a property")
	}
	if _, err := s.GetBinding(testCtx{}, s.Top(), BindingLocator{Name: "tmp", Global: true}); err == nil {
		t.Error("reading a deleted global should be a ReferenceError, not undefined")
	}

	ok, err = s.DeleteBinding(testCtx{}, s.Top(), BindingLocator{Name: "pinned", Global: true})
	if err != nil || ok {
		t.Fatalf("DeleteBinding(pinned) = (%v, %v), want (false, nil)", ok, err)
	}
	if _, has := global.GetOwnPropertyRaw(object.StringKey("pinned")); !has {
		t.Error("a non-configurable global binding must survive delete")
	}

	// Deleting an unresolvable reference succeeds without creating anything.
	ok, err = s.DeleteBinding(testCtx{}, s.Top(), BindingLocator{Name: "ghost", Global: true})
	if err != nil || !ok {
		t.Errorf("DeleteBinding(ghost) = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestPoisonedFrameReResolvesThroughCompileTimeEnv(t *testing.T) {
	s, _ := newTestStack()
	// Outer function scope with a binding the locator does not yet know
	// about, as if a direct eval had introduced it.
	cte := NewCompileTimeEnvironment(nil)
	idx := cte.Declare("x", true, false, false)
	rec := s.PushDeclarative(cte.SlotCount(), cte)
	s.PutLexicalValue(rec, 0, idx, value.NewInt32(9))

	inner := s.PushDeclarative(0, nil)
	s.Poison(inner)

	loc := BindingLocator{Name: "x", Global: true} // stale: compiled before the binding existed
	if err := s.FindRuntimeBinding(testCtx{}, inner, &loc); err != nil {
		t.Fatalf("FindRuntimeBinding: %v", err)
	}
	if loc.Global {
		t.Fatal("locator should have been rewritten away from the global fallback")
	}
	if loc.EnvIndex != 1 || loc.BindingIndex != idx {
		t.Errorf("locator = env %d slot %d, want env 1 slot %d", loc.EnvIndex, loc.BindingIndex, idx)
	}
	got, err := s.GetBinding(testCtx{}, inner, loc)
	if err != nil {
		t.Fatalf("GetBinding after re-resolve: %v", err)
	}
	if got.AsFloat64() != 9 {
		t.Errorf("re-resolved binding = %v, want 9", got)
	}
}

func TestPoisonStopsAtFunctionBoundary(t *testing.T) {
	s, _ := newTestStack()
	outerFn := s.PushFunction(0, nil, value.Undef, nil, nil, false)
	mid := s.PushDeclarative(0, nil)
	innerFn := s.PushFunction(0, nil, value.Undef, nil, nil, false)
	leaf := s.PushDeclarative(0, nil)

	s.Poison(leaf)
	if !leaf.poisoned || !innerFn.poisoned {
		t.Error("poison should cover the leaf scope up to its function boundary")
	}
	if mid.poisoned || outerFn.poisoned {
		t.Error("poison must not escape past the enclosing function")
	}
}

func TestObjectEnvironmentResolvesProperties(t *testing.T) {
	s, _ := newTestStack()
	withObj := object.New(nil)
	withObj.DefineOwnPropertyRaw(object.StringKey("w"), object.PropertyDescriptor{
		Value: value.NewString("with"), Writable: true, Enumerable: true, Configurable: true,
	})
	rec := s.PushObject(withObj)

	loc := BindingLocator{Name: "w", Global: true}
	if err := s.FindRuntimeBinding(testCtx{}, rec, &loc); err != nil {
		t.Fatalf("FindRuntimeBinding: %v", err)
	}
	if loc.Global || loc.BindingIndex != -1 {
		t.Fatalf("locator should point into the object record, got %+v", loc)
	}
	got, err := s.GetBinding(testCtx{}, rec, loc)
	if err != nil {
		t.Fatalf("GetBinding: %v", err)
	}
	if got.AsString() != "with" {
		t.Errorf("with-bound value = %v, want \"with\"", got)
	}
}

func TestThisBindingDiscipline(t *testing.T) {
	s, global := newTestStack()

	// Global this is the global object.
	got, err := s.GetThisBinding(s.Top())
	if err != nil {
		t.Fatalf("GetThisBinding(global): %v", err)
	}
	if !got.IsObject() || got.AsObject() != global {
		t.Error("global this should be the global object")
	}

	// A function's this; a lexical (arrow) frame pushed over it inherits.
	receiver := object.New(nil)
	fnRec := s.PushFunction(0, nil, value.NewObject(receiver), nil, nil, false)
	arrowRec := s.PushFunction(0, nil, value.Undef, nil, nil, true)
	got, err = s.GetThisBinding(arrowRec)
	if err != nil {
		t.Fatalf("GetThisBinding(arrow): %v", err)
	}
	if !got.IsObject() || got.AsObject() != receiver {
		t.Error("arrow frame should inherit the enclosing function's this")
	}
	_ = fnRec
}

func TestDerivedThisUninitializedUntilBindThis(t *testing.T) {
	s, _ := newTestStack()
	ctor := object.New(nil)
	ctor.SetSlot("ConstructorKind", value.NewString("derived"))
	rec := s.PushFunction(0, nil, value.Undef, ctor, nil, false)

	if _, err := s.GetThisBinding(rec); err == nil {
		t.Fatal("derived-class this should be a ReferenceError before super()")
	}
	instance := object.New(nil)
	if err := s.BindThis(rec, value.NewObject(instance)); err != nil {
		t.Fatalf("BindThis: %v", err)
	}
	got, err := s.GetThisBinding(rec)
	if err != nil {
		t.Fatalf("GetThisBinding after BindThis: %v", err)
	}
	if !got.IsObject() || got.AsObject() != instance {
		t.Error("this should be the super-constructed instance")
	}
	if err := s.BindThis(rec, value.NewObject(instance)); err == nil {
		t.Error("calling super twice should error")
	}
}

func TestPrivateEnvironmentResolution(t *testing.T) {
	s, _ := newTestStack()
	outer := s.private.Push()
	outerName := outer.Declare("secret")
	inner := s.private.Push()
	innerName := inner.Declare("secret")

	got, ok := s.private.ResolvePrivateIdentifier("secret")
	if !ok || got != innerName {
		t.Error("resolution should find the innermost #secret")
	}
	s.private.Pop()
	got, ok = s.private.ResolvePrivateIdentifier("secret")
	if !ok || got != outerName {
		t.Error("after popping, resolution should find the outer #secret")
	}
	if outerName == innerName {
		t.Error("same description in different environments must be distinct private names")
	}
}

func TestPopNeverRemovesGlobal(t *testing.T) {
	s, _ := newTestStack()
	s.Pop()
	s.Pop()
	if s.Top() != s.Global() {
		t.Error("popping an empty stack must leave the global record")
	}
}
