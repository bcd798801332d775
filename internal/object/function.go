package object

import (
	"github.com/go-jsvm/jsvm/internal/gc"
	"github.com/go-jsvm/jsvm/internal/value"
)

// Invoker is supplied by whoever constructs a function object (the VM for
// bytecode functions, internal/native for host functions) so that
// internal/object never has to import internal/vm.
type Invoker func(ctx Context, this value.Value, args []value.Value, newTarget *Object) (value.Value, error)

// FunctionData is the kind-specific payload for KindFunction objects.
type FunctionData struct {
	Name       string
	Call       Invoker
	Construct  Invoker // nil if not usable as `new Fn()`
	IsArrow    bool    // arrow functions have no own `this`/`arguments`/[[Construct]]
	HomeObject *Object // [[HomeObject]], for `super` resolution in methods
	Fields     []PrivateFieldInit

	// Captured is the closure's captured environment chain (a
	// *environment.Record held as a gc.Cell so this package stays below
	// internal/environment); nil for native functions.
	Captured gc.Cell
}

// Trace implements gc.Cell so a closure keeps its captured environment
// chain and home object alive.
func (f *FunctionData) Trace(visit func(gc.Cell)) {
	if f.HomeObject != nil {
		visit(f.HomeObject)
	}
	if f.Captured != nil {
		visit(f.Captured)
	}
}

// PrivateFieldInit records a class instance field initializer to run when
// constructing an instance.
type PrivateFieldInit struct {
	Name PrivateName
	Init Invoker // nil initializer means "initialize to undefined"
}

// NewFunction builds a callable (and optionally constructible) Function
// object. proto is usually the realm's Function.prototype.
func NewFunction(proto *Object, data *FunctionData) *Object {
	o := New(proto)
	o.kind = KindFunction
	o.data = data
	m := *OrdinaryMethods()
	m.Call = func(obj *Object, ctx Context, this value.Value, args []value.Value) (value.Value, error) {
		fd := obj.data.(*FunctionData)
		return fd.Call(ctx, this, args, nil)
	}
	if data.Construct != nil {
		m.Construct = func(obj *Object, ctx Context, args []value.Value, newTarget *Object) (*Object, error) {
			fd := obj.data.(*FunctionData)
			result, err := fd.Construct(ctx, value.Undef, args, newTarget)
			if err != nil {
				return nil, err
			}
			if result.IsObject() {
				if ro, ok := result.AsObject().(*Object); ok {
					return ro, nil
				}
			}
			return nil, ctx.ThrowTypeError("construct trap did not return an object")
		}
	}
	o.methods = &m
	return o
}

// BoundFunctionData is the kind-specific payload for KindBoundFunction
// objects produced by Function.prototype.bind.
type BoundFunctionData struct {
	Target    *Object
	BoundThis value.Value
	BoundArgs []value.Value
}

// NewBoundFunction wraps target with fixed `this` and prefix arguments.
func NewBoundFunction(proto *Object, target *Object, boundThis value.Value, boundArgs []value.Value) *Object {
	o := New(proto)
	o.kind = KindBoundFunction
	data := &BoundFunctionData{Target: target, BoundThis: boundThis, BoundArgs: boundArgs}
	o.data = data
	m := *OrdinaryMethods()
	m.Call = func(obj *Object, ctx Context, this value.Value, args []value.Value) (value.Value, error) {
		bd := obj.data.(*BoundFunctionData)
		full := append(append([]value.Value{}, bd.BoundArgs...), args...)
		return bd.Target.methods.Call(bd.Target, ctx, bd.BoundThis, full)
	}
	if target.methods.Construct != nil {
		m.Construct = func(obj *Object, ctx Context, args []value.Value, newTarget *Object) (*Object, error) {
			bd := obj.data.(*BoundFunctionData)
			full := append(append([]value.Value{}, bd.BoundArgs...), args...)
			if newTarget == obj {
				newTarget = bd.Target
			}
			return bd.Target.methods.Construct(bd.Target, ctx, full, newTarget)
		}
	}
	o.methods = &m
	return o
}
