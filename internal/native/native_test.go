package native

import (
	"testing"

	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

// newMachine builds a bare machine with just enough intrinsics for the
// bridge: no full realm is needed to exercise conversion and tagging.
func newMachine() *vm.Machine {
	m := vm.New(vm.Options{})
	objProto := object.New(nil)
	fnProto := object.NewFunction(objProto, &object.FunctionData{
		Call: func(_ object.Context, _ value.Value, _ []value.Value, _ *object.Object) (value.Value, error) {
			return value.Undef, nil
		},
	})
	m.SetIntrinsics(&vm.Intrinsics{
		ObjectProto:   objProto,
		FunctionProto: fnProto,
		ArrayProto:    object.NewArray(objProto, 0),
	})
	m.InitGlobal(object.New(objProto))
	return m
}

func TestRegisterWrapsNativeFunction(t *testing.T) {
	m := newMachine()
	target := object.New(nil)
	called := false
	fn := Register(m, target, "probe", 2, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		called = true
		return value.NewInt32(int32(len(args))), nil
	})

	got, err := m.Call(fn, value.Undef, []value.Value{value.True, value.False, value.Nil})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !called {
		t.Fatal("native function body was not invoked")
	}
	if got.AsFloat64() != 3 {
		t.Errorf("result = %v, want 3", got)
	}

	d, ok := target.GetOwnPropertyRaw(object.StringKey("probe"))
	if !ok || !d.Value.IsCallable() {
		t.Error("Register should install the wrapped function on the target")
	}
	nameD, _ := fn.GetOwnPropertyRaw(object.StringKey("name"))
	lenD, _ := fn.GetOwnPropertyRaw(object.StringKey("length"))
	if nameD.Value.AsString() != "probe" || lenD.Value.AsFloat64() != 2 {
		t.Errorf("wrapped function meta = %v/%v, want probe/2", nameD.Value, lenD.Value)
	}
}

func TestNativeDataTagCheckedDowncast(t *testing.T) {
	m := newMachine()
	type widget struct{ id int }
	o := WrapData(m, m.Intrinsics().ObjectProto, "widget", &widget{id: 7})
	v := value.NewObject(o)

	w, ok := UnwrapData[*widget](v, "widget")
	if !ok || w.id != 7 {
		t.Fatalf("UnwrapData = %v %v, want the stored widget", w, ok)
	}
	if _, ok := UnwrapData[*widget](v, "gadget"); ok {
		t.Error("a mismatched tag must not downcast")
	}
	if _, ok := UnwrapData[*widget](value.NewInt32(1), "widget"); ok {
		t.Error("a primitive must not downcast")
	}
}

func TestExtractArgsForwardsRemainder(t *testing.T) {
	m := newMachine()
	var (
		i ArgInt
		s ArgString
	)
	args := []value.Value{value.NewInt32(5), value.NewString("x"), value.True}
	restArgs, err := ExtractArgs(m, args, &i, &s)
	if err != nil {
		t.Fatalf("ExtractArgs: %v", err)
	}
	if i.V != 5 || s.V != "x" {
		t.Errorf("extracted (%d, %q), want (5, \"x\")", i.V, s.V)
	}
	if len(restArgs) != 1 || !restArgs[0].IsBool() {
		t.Errorf("remainder = %v, want the trailing boolean", restArgs)
	}

	if _, err := ExtractArgs(m, nil, &i); err == nil {
		t.Error("extracting from an empty slice should throw")
	}
}

func TestValueRoundTrip(t *testing.T) {
	m := newMachine()
	for _, in := range []any{true, 42, 2.5, "text", nil} {
		v, err := ToValue(m, in)
		if err != nil {
			t.Fatalf("ToValue(%v): %v", in, err)
		}
		out, err := FromValue(m, v)
		if err != nil {
			t.Fatalf("FromValue(%v): %v", v, err)
		}
		if in == nil {
			if out != nil {
				t.Errorf("nil round trip = %v", out)
			}
			continue
		}
		if out != in {
			t.Errorf("round trip of %v = %v", in, out)
		}
	}
}
