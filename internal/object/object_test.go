package object

import (
	"fmt"
	"testing"

	"github.com/go-jsvm/jsvm/internal/value"
)

// fakeContext is enough Context to exercise property access/definition
// without a real realm; its Call runs a FunctionData's Invoker directly and
// panics for any other kind of callable.
type fakeContext struct{}

func (fakeContext) ThrowTypeError(format string, args ...any) error {
	return fmt.Errorf("TypeError: "+format, args...)
}
func (fakeContext) ThrowRangeError(format string, args ...any) error {
	return fmt.Errorf("RangeError: "+format, args...)
}
func (fakeContext) Call(fn *Object, this value.Value, args []value.Value) (value.Value, error) {
	fd := fn.Data().(*FunctionData)
	return fd.Call(fakeContext{}, this, args, nil)
}

func TestOrdinaryGetWalksPrototypeChain(t *testing.T) {
	ctx := fakeContext{}
	proto := New(nil)
	proto.DefineOwnPropertyRaw(StringKey("greeting"), PropertyDescriptor{
		Value: value.NewString("hi"), Writable: true, Enumerable: true, Configurable: true,
	})
	child := New(proto)

	got, err := child.methods.Get(child, ctx, StringKey("greeting"), value.NewObject(child))
	if err != nil {
		t.Fatalf("Get errored: %v", err)
	}
	if !got.IsString() || got.AsString() != "hi" {
		t.Errorf("Get(greeting) = %v, want \"hi\"", got)
	}
}

func TestOrdinarySetRejectsNonWritableInherited(t *testing.T) {
	ctx := fakeContext{}
	proto := New(nil)
	proto.DefineOwnPropertyRaw(StringKey("frozen"), PropertyDescriptor{
		Value: value.NewInt32(1), Writable: false, Enumerable: true, Configurable: false,
	})
	child := New(proto)

	ok, err := child.methods.Set(child, ctx, StringKey("frozen"), value.NewInt32(2), value.NewObject(child))
	if err != nil {
		t.Fatalf("Set errored: %v", err)
	}
	if ok {
		t.Error("Set should fail against a non-writable inherited data property")
	}
	if _, has := child.GetOwnPropertyRaw(StringKey("frozen")); has {
		t.Error("Set should not have created an own property on failure")
	}
}

func TestOrdinaryDefineOwnPropertyRejectsNarrowingNonConfigurable(t *testing.T) {
	ctx := fakeContext{}
	o := New(nil)
	o.DefineOwnPropertyRaw(StringKey("x"), PropertyDescriptor{
		Value: value.NewInt32(1), Writable: true, Enumerable: true, Configurable: false,
	})
	ok, err := o.methods.DefineOwnProperty(o, ctx, StringKey("x"), PropertyDescriptor{
		Value: value.NewInt32(2), Writable: true, Enumerable: true, Configurable: true,
	})
	if err != nil {
		t.Fatalf("DefineOwnProperty errored: %v", err)
	}
	if ok {
		t.Error("should not be able to flip Configurable from false to true")
	}
}

func TestArrayLengthInvariantGrowsOnIndexWrite(t *testing.T) {
	ctx := fakeContext{}
	arr := NewArray(nil, 0)
	ok, err := arr.methods.DefineOwnProperty(arr, ctx, IndexKey(5), PropertyDescriptor{
		Value: value.NewInt32(9), Writable: true, Enumerable: true, Configurable: true,
	})
	if err != nil || !ok {
		t.Fatalf("DefineOwnProperty(5) failed: ok=%v err=%v", ok, err)
	}
	if got := ArrayLength(arr); got != 6 {
		t.Errorf("array length = %d, want 6", got)
	}
}

func TestArrayLengthInvariantTruncatesDeletesIndices(t *testing.T) {
	ctx := fakeContext{}
	arr := NewArray(nil, 0)
	arr.methods.DefineOwnProperty(arr, ctx, IndexKey(0), PropertyDescriptor{
		Value: value.NewInt32(1), Writable: true, Enumerable: true, Configurable: true,
	})
	arr.methods.DefineOwnProperty(arr, ctx, IndexKey(3), PropertyDescriptor{
		Value: value.NewInt32(2), Writable: true, Enumerable: true, Configurable: true,
	})
	arr.methods.DefineOwnProperty(arr, ctx, StringKey("length"), PropertyDescriptor{
		Value: value.NumberValue(1), Writable: true,
	})
	if _, has := arr.GetOwnPropertyRaw(IndexKey(3)); has {
		t.Error("index 3 should have been deleted when length shrank to 1")
	}
	if _, has := arr.GetOwnPropertyRaw(IndexKey(0)); !has {
		t.Error("index 0 should survive length=1")
	}
}

func TestArrayLengthTruncationStopsAtNonConfigurable(t *testing.T) {
	ctx := fakeContext{}
	arr := NewArray(nil, 0)
	for _, i := range []uint32{0, 1, 3} {
		arr.methods.DefineOwnProperty(arr, ctx, IndexKey(i), PropertyDescriptor{
			Value: value.NewInt32(int32(i)), Writable: true, Enumerable: true, Configurable: true,
		})
	}
	arr.DefineOwnPropertyRaw(IndexKey(2), PropertyDescriptor{
		Value: value.NewInt32(2), Writable: true, Enumerable: true, Configurable: false,
	})
	setArrayLength(arr, 4)

	ok, err := arr.methods.DefineOwnProperty(arr, ctx, StringKey("length"), PropertyDescriptor{
		Value: value.NumberValue(0), Writable: true,
	})
	if err != nil {
		t.Fatalf("DefineOwnProperty(length) errored: %v", err)
	}
	if ok {
		t.Error("truncation through a non-configurable index must report failure")
	}
	// Deletion runs top-down: index 3 goes, the non-configurable index 2
	// stops the walk, and length rolls back to one above it.
	if _, has := arr.GetOwnPropertyRaw(IndexKey(3)); has {
		t.Error("index 3 should have been deleted before the walk stopped")
	}
	for _, i := range []uint32{0, 1, 2} {
		if _, has := arr.GetOwnPropertyRaw(IndexKey(i)); !has {
			t.Errorf("index %d below the stuck index must survive", i)
		}
	}
	if got := ArrayLength(arr); got != 3 {
		t.Errorf("length = %d, want 3 (one above the highest surviving index)", got)
	}
}

func TestMapDataSameValueZeroKeys(t *testing.T) {
	m := NewMapData()
	nan := value.NewFloat64(nanValue())
	m.Set(nan, value.NewInt32(1))
	if _, ok := m.Get(nan); !ok {
		t.Error("Map should find NaN key via SameValueZero")
	}
	if m.Size() != 1 {
		t.Errorf("size = %d, want 1", m.Size())
	}
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestProxyGetTrapIsCalled(t *testing.T) {
	ctx := fakeContext{}
	target := New(nil)
	target.DefineOwnPropertyRaw(StringKey("x"), PropertyDescriptor{
		Value: value.NewInt32(1), Writable: true, Enumerable: true, Configurable: true,
	})
	handler := New(nil)
	trapCalled := false
	getTrap := NewFunction(nil, &FunctionData{
		Name: "get",
		Call: func(ctx Context, this value.Value, args []value.Value, newTarget *Object) (value.Value, error) {
			trapCalled = true
			return value.NewInt32(42), nil
		},
	})
	handler.DefineOwnPropertyRaw(StringKey("get"), PropertyDescriptor{
		Value: value.NewObject(getTrap), Writable: true, Enumerable: true, Configurable: true,
	})
	p := NewProxy(target, handler)

	got, err := p.methods.Get(p, ctx, StringKey("x"), value.NewObject(p))
	if err != nil {
		t.Fatalf("Get errored: %v", err)
	}
	if !trapCalled {
		t.Fatal("get trap was not invoked")
	}
	if got.Kind() != value.Int32 || got.AsFloat64() != 42 {
		t.Errorf("Get via proxy = %v, want 42", got)
	}
}
