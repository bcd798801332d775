package object

import "github.com/go-jsvm/jsvm/internal/value"

// ProxyData is the kind-specific payload for KindProxy objects: a target
// plus a handler whose own properties are trap functions.
type ProxyData struct {
	Target  *Object
	Handler *Object
}

// NewProxy builds a Proxy exotic object. [[DefineOwnProperty]], [[HasProperty]],
// [[Get]], [[Set]], [[Delete]] and [[Call]] look up the matching trap on
// handler and forward to target when the trap is absent. The remaining
// internal methods (getPrototypeOf, setPrototypeOf, isExtensible,
// preventExtensions, getOwnPropertyDescriptor, ownKeys, construct) always
// forward to target without consulting handler, and trap results are not
// checked against ECMA-262's proxy invariants.
func NewProxy(target, handler *Object) *Object {
	o := &Object{kind: KindProxy, index: make(map[mapKey]int), slots: make(map[string]value.Value), extensible: true}
	data := &ProxyData{Target: target, Handler: handler}
	o.data = data
	m := Methods{
		// getPrototypeOf has no Context parameter in the vtable (it never
		// needs to throw per ECMA-262), so a user-defined trap can't be
		// invoked here; this forwards straight to the target, matching the
		// no-trap fallback path.
		GetPrototypeOf: func(obj *Object) *Object {
			return target.methods.GetPrototypeOf(target)
		},
		SetPrototypeOf: func(obj *Object, proto *Object) bool {
			return target.methods.SetPrototypeOf(target, proto)
		},
		IsExtensible: func(obj *Object) bool {
			return target.methods.IsExtensible(target)
		},
		PreventExtensions: func(obj *Object) bool {
			return target.methods.PreventExtensions(target)
		},
		GetOwnProperty: func(obj *Object, key PropertyKey) (PropertyDescriptor, bool) {
			return target.methods.GetOwnProperty(target, key)
		},
		DefineOwnProperty: func(obj *Object, ctx Context, key PropertyKey, desc PropertyDescriptor) (bool, error) {
			pd := obj.data.(*ProxyData)
			if trap, ok := proxyTrapFn(pd, ctx, "defineProperty"); ok {
				_, err := ctx.Call(trap, value.NewObject(pd.Handler), []value.Value{value.NewObject(pd.Target), propertyKeyValue(key)})
				return err == nil, err
			}
			return pd.Target.methods.DefineOwnProperty(pd.Target, ctx, key, desc)
		},
		HasProperty: func(obj *Object, ctx Context, key PropertyKey) (bool, error) {
			pd := obj.data.(*ProxyData)
			if trap, ok := proxyTrapFn(pd, ctx, "has"); ok {
				result, err := ctx.Call(trap, value.NewObject(pd.Handler), []value.Value{value.NewObject(pd.Target), propertyKeyValue(key)})
				if err != nil {
					return false, err
				}
				return value.ToBoolean(result), nil
			}
			return pd.Target.methods.HasProperty(pd.Target, ctx, key)
		},
		Get: func(obj *Object, ctx Context, key PropertyKey, receiver value.Value) (value.Value, error) {
			pd := obj.data.(*ProxyData)
			if trap, ok := proxyTrapFn(pd, ctx, "get"); ok {
				return ctx.Call(trap, value.NewObject(pd.Handler), []value.Value{value.NewObject(pd.Target), propertyKeyValue(key), receiver})
			}
			return pd.Target.methods.Get(pd.Target, ctx, key, receiver)
		},
		Set: func(obj *Object, ctx Context, key PropertyKey, v value.Value, receiver value.Value) (bool, error) {
			pd := obj.data.(*ProxyData)
			if trap, ok := proxyTrapFn(pd, ctx, "set"); ok {
				result, err := ctx.Call(trap, value.NewObject(pd.Handler), []value.Value{value.NewObject(pd.Target), propertyKeyValue(key), v, receiver})
				if err != nil {
					return false, err
				}
				return value.ToBoolean(result), nil
			}
			return pd.Target.methods.Set(pd.Target, ctx, key, v, receiver)
		},
		Delete: func(obj *Object, ctx Context, key PropertyKey) (bool, error) {
			pd := obj.data.(*ProxyData)
			if trap, ok := proxyTrapFn(pd, ctx, "deleteProperty"); ok {
				result, err := ctx.Call(trap, value.NewObject(pd.Handler), []value.Value{value.NewObject(pd.Target), propertyKeyValue(key)})
				if err != nil {
					return false, err
				}
				return value.ToBoolean(result), nil
			}
			return pd.Target.methods.Delete(pd.Target, ctx, key)
		},
		OwnPropertyKeys: func(obj *Object) []PropertyKey {
			pd := obj.data.(*ProxyData)
			return pd.Target.methods.OwnPropertyKeys(pd.Target)
		},
	}
	if target.methods.Call != nil {
		m.Call = func(obj *Object, ctx Context, this value.Value, args []value.Value) (value.Value, error) {
			pd := obj.data.(*ProxyData)
			if trap, ok := proxyTrapFn(pd, ctx, "apply"); ok {
				return ctx.Call(trap, value.NewObject(pd.Handler), []value.Value{value.NewObject(pd.Target), this, makeArgsArray(args)})
			}
			return pd.Target.methods.Call(pd.Target, ctx, this, args)
		}
	}
	if target.methods.Construct != nil {
		m.Construct = func(obj *Object, ctx Context, args []value.Value, newTarget *Object) (*Object, error) {
			pd := obj.data.(*ProxyData)
			return pd.Target.methods.Construct(pd.Target, ctx, args, newTarget)
		}
	}
	o.methods = &m
	return o
}

func proxyTrapFn(pd *ProxyData, ctx Context, name string) (*Object, bool) {
	v, err := pd.Handler.methods.Get(pd.Handler, ctx, StringKey(name), value.NewObject(pd.Handler))
	if err != nil || v.IsUndefined() || v.IsNull() {
		return nil, false
	}
	fn, ok := v.AsObject().(*Object)
	if !ok || fn.methods.Call == nil {
		return nil, false
	}
	return fn, true
}

func propertyKeyValue(key PropertyKey) value.Value {
	if key.IsSymbol() {
		return value.WrapSymbol(key.Symbol())
	}
	return value.NewString(key.String())
}

// makeArgsArray is set by internal/realm at startup so proxy apply traps can
// build a real JS array without this package importing realm.
var makeArgsArray = func(args []value.Value) value.Value { return value.Undef }

// SetArgsArrayBuilder installs the realm's array constructor for use by
// proxy "apply" traps.
func SetArgsArrayBuilder(f func([]value.Value) value.Value) { makeArgsArray = f }
