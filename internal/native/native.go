// Package native is the native-function bridge: wrapping Go functions as
// callable JS function objects, tag-checked native-data storage on objects,
// and the TryFromJSArgument/TryIntoJSResult conversion protocols between
// host values and engine values.
package native

import (
	"math"
	"math/big"

	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

// Func is the host-facing native-function signature,
// `(this, args, ctx) -> JsResult<Value>`.
type Func = vm.NativeFunc

// Register wraps fn as a function object and installs it on target under
// name, with the given arity.
func Register(m *vm.Machine, target *object.Object, name string, length int, fn Func) *object.Object {
	f := m.NewNativeFunction(name, length, fn)
	target.DefineOwnPropertyRaw(object.StringKey(name), object.PropertyDescriptor{
		Value: value.NewObject(f), Writable: true, Configurable: true,
	})
	return f
}

// WrapData stores a host value on a fresh NativeData object under tag;
// the object's prototype is supplied by the caller (usually a registered
// class prototype).
func WrapData(m *vm.Machine, proto *object.Object, tag string, data any) *object.Object {
	o := object.NewNativeDataObject(proto, tag, data)
	m.Heap().Alloc(o)
	return o
}

// UnwrapData recovers a host value of type T from an object's native-data
// slot, checking the runtime type tag before downcasting.
func UnwrapData[T any](v value.Value, tag string) (T, bool) {
	var zero T
	if !v.IsObject() {
		return zero, false
	}
	o, ok := v.AsObject().(*object.Object)
	if !ok || o.Kind() != object.KindNativeData {
		return zero, false
	}
	nd, ok := o.Data().(*object.NativeDataData)
	if !ok || nd.Tag != tag {
		return zero, false
	}
	data, ok := nd.Value.(T)
	return data, ok
}

// TryFromJSArgument extracts a typed value from the front of an argument
// slice, returning the remainder. Implemented by the Arg* adapters below;
// hosts may add their own.
type TryFromJSArgument interface {
	FromJSArgument(m *vm.Machine, args []value.Value) (rest []value.Value, err error)
}

// TryIntoJSResult converts a native return value into a Value.
type TryIntoJSResult interface {
	IntoJSResult(m *vm.Machine) (value.Value, error)
}

// ArgInt extracts an integer argument.
type ArgInt struct{ V int }

func (a *ArgInt) FromJSArgument(m *vm.Machine, args []value.Value) ([]value.Value, error) {
	if len(args) == 0 {
		return nil, m.ThrowTypeError("missing integer argument")
	}
	n, err := value.ToInt32(m, args[0])
	if err != nil {
		return nil, err
	}
	a.V = int(n)
	return args[1:], nil
}

// ArgFloat extracts a number argument.
type ArgFloat struct{ V float64 }

func (a *ArgFloat) FromJSArgument(m *vm.Machine, args []value.Value) ([]value.Value, error) {
	if len(args) == 0 {
		return nil, m.ThrowTypeError("missing number argument")
	}
	n, err := value.ToNumber(m, args[0])
	if err != nil {
		return nil, err
	}
	a.V = n
	return args[1:], nil
}

// ArgString extracts a string argument.
type ArgString struct{ V string }

func (a *ArgString) FromJSArgument(m *vm.Machine, args []value.Value) ([]value.Value, error) {
	if len(args) == 0 {
		return nil, m.ThrowTypeError("missing string argument")
	}
	s, err := value.ToStringValue(m, args[0])
	if err != nil {
		return nil, err
	}
	a.V = s
	return args[1:], nil
}

// ArgBool extracts a boolean argument (via to_boolean, so it never fails
// once an argument is present).
type ArgBool struct{ V bool }

func (a *ArgBool) FromJSArgument(m *vm.Machine, args []value.Value) ([]value.Value, error) {
	if len(args) == 0 {
		return nil, m.ThrowTypeError("missing boolean argument")
	}
	a.V = value.ToBoolean(args[0])
	return args[1:], nil
}

// ArgObject extracts an engine-object argument.
type ArgObject struct{ V *object.Object }

func (a *ArgObject) FromJSArgument(m *vm.Machine, args []value.Value) ([]value.Value, error) {
	if len(args) == 0 || !args[0].IsObject() {
		return nil, m.ThrowTypeError("missing object argument")
	}
	o, ok := args[0].AsObject().(*object.Object)
	if !ok {
		return nil, m.ThrowTypeError("foreign object argument")
	}
	a.V = o
	return args[1:], nil
}

// ExtractArgs runs a sequence of extractors over an argument slice,
// returning whatever arguments remain.
func ExtractArgs(m *vm.Machine, args []value.Value, extractors ...TryFromJSArgument) ([]value.Value, error) {
	var err error
	for _, e := range extractors {
		args, err = e.FromJSArgument(m, args)
		if err != nil {
			return nil, err
		}
	}
	return args, nil
}

// ToValue converts a plain Go value into a Value (the TryIntoJsResult
// protocol's built-in coverage); unhandled types become opaque NativeData.
func ToValue(m *vm.Machine, v any) (value.Value, error) {
	switch t := v.(type) {
	case nil:
		return value.Nil, nil
	case value.Value:
		return t, nil
	case *object.Object:
		return value.NewObject(t), nil
	case TryIntoJSResult:
		return t.IntoJSResult(m)
	case bool:
		return value.NewBool(t), nil
	case int:
		if t >= math.MinInt32 && t <= math.MaxInt32 {
			return value.NewInt32(int32(t)), nil
		}
		return value.NewFloat64(float64(t)), nil
	case int32:
		return value.NewInt32(t), nil
	case int64:
		return value.NumberValue(float64(t)), nil
	case float64:
		return value.NumberValue(t), nil
	case string:
		return value.NewString(t), nil
	case *big.Int:
		return value.NewBigInt(t), nil
	case []value.Value:
		return value.NewObject(m.NewArrayOf(t...)), nil
	case map[string]value.Value:
		o := m.NewPlainObject()
		for k, pv := range t {
			o.DefineOwnPropertyRaw(object.StringKey(k), object.PropertyDescriptor{
				Value: pv, Writable: true, Enumerable: true, Configurable: true,
			})
		}
		return value.NewObject(o), nil
	default:
		return value.NewObject(WrapData(m, m.Intrinsics().ObjectProto, "native", v)), nil
	}
}

// FromValue converts a Value into a plain Go value for host consumption.
func FromValue(m *vm.Machine, v value.Value) (any, error) {
	switch v.Kind() {
	case value.Undefined, value.Null:
		return nil, nil
	case value.Bool:
		return v.AsBool(), nil
	case value.Int32:
		n, _ := v.AsInt32Fast()
		return int(n), nil
	case value.Float64:
		return v.AsFloat64(), nil
	case value.BigInt:
		return v.AsBigInt(), nil
	case value.String:
		return v.AsString(), nil
	case value.SymbolKind:
		return v.AsSymbol(), nil
	default:
		if o, ok := v.AsObject().(*object.Object); ok {
			if nd, ok := o.Data().(*object.NativeDataData); ok {
				return nd.Value, nil
			}
			return o, nil
		}
		return nil, m.ThrowTypeError("foreign object")
	}
}
