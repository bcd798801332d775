package realm

import (
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

func (r *Realm) installObject() {
	proto := r.intr.ObjectProto

	objectCtor := r.ctor("Object", 1, proto,
		func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
			v := arg(args, 0)
			if v.IsNullOrUndefined() {
				return value.NewObject(m.NewPlainObject()), nil
			}
			return m.ToObject(v)
		},
		func(m *vm.Machine, args []value.Value, _ *object.Object) (*object.Object, error) {
			v := arg(args, 0)
			if v.IsNullOrUndefined() {
				return m.NewPlainObject(), nil
			}
			ov, err := m.ToObject(v)
			if err != nil {
				return nil, err
			}
			return ov.AsObject().(*object.Object), nil
		})

	r.method(objectCtor, "keys", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		return r.collectOwn(m, arg(args, 0), func(k object.PropertyKey, v value.Value) value.Value {
			return value.NewString(k.String())
		})
	})
	r.method(objectCtor, "values", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		return r.collectOwn(m, arg(args, 0), func(_ object.PropertyKey, v value.Value) value.Value {
			return v
		})
	})
	r.method(objectCtor, "entries", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		return r.collectOwn(m, arg(args, 0), func(k object.PropertyKey, v value.Value) value.Value {
			return value.NewObject(m.NewArrayOf(value.NewString(k.String()), v))
		})
	})
	r.method(objectCtor, "assign", 2, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		targetV, err := m.ToObject(arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		target := targetV.AsObject().(*object.Object)
		for _, srcV := range args[1:] {
			if srcV.IsNullOrUndefined() {
				continue
			}
			src, err := m.ToObject(srcV)
			if err != nil {
				return value.Undef, err
			}
			so := src.AsObject().(*object.Object)
			for _, key := range so.Methods().OwnPropertyKeys(so) {
				desc, ok := so.Methods().GetOwnProperty(so, key)
				if !ok || !desc.Enumerable {
					continue
				}
				v, err := so.Methods().Get(so, m, key, src)
				if err != nil {
					return value.Undef, err
				}
				if _, err := target.Methods().Set(target, m, key, v, targetV); err != nil {
					return value.Undef, err
				}
			}
		}
		return targetV, nil
	})
	r.method(objectCtor, "is", 2, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		return value.NewBool(value.SameValue(arg(args, 0), arg(args, 1))), nil
	})
	r.method(objectCtor, "getPrototypeOf", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		ov, err := m.ToObject(arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		o := ov.AsObject().(*object.Object)
		if p := o.Methods().GetPrototypeOf(o); p != nil {
			return value.NewObject(p), nil
		}
		return value.Nil, nil
	})
	r.method(objectCtor, "setPrototypeOf", 2, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		o, err := asObject(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		var proto *object.Object
		if p := arg(args, 1); p.IsObject() {
			proto = p.AsObject().(*object.Object)
		}
		if !o.Methods().SetPrototypeOf(o, proto) {
			return value.Undef, m.ThrowTypeError("cannot set prototype")
		}
		return arg(args, 0), nil
	})
	r.method(objectCtor, "create", 2, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		var proto *object.Object
		switch p := arg(args, 0); {
		case p.IsObject():
			proto = p.AsObject().(*object.Object)
		case p.IsNull():
		default:
			return value.Undef, m.ThrowTypeError("Object prototype may only be an Object or null")
		}
		o := object.New(proto)
		m.Heap().Alloc(o)
		return value.NewObject(o), nil
	})
	r.method(objectCtor, "defineProperty", 3, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		o, err := asObject(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		key, err := m.ToPropertyKeyValue(arg(args, 1))
		if err != nil {
			return value.Undef, err
		}
		desc, err := r.toPropertyDescriptor(m, arg(args, 2))
		if err != nil {
			return value.Undef, err
		}
		ok, err := o.Methods().DefineOwnProperty(o, m, key, desc)
		if err != nil {
			return value.Undef, err
		}
		if !ok {
			return value.Undef, m.ThrowTypeError("cannot define property %s", key.String())
		}
		return arg(args, 0), nil
	})
	r.method(objectCtor, "getOwnPropertyNames", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		ov, err := m.ToObject(arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		o := ov.AsObject().(*object.Object)
		arr := m.NewArrayObject()
		for _, k := range o.Methods().OwnPropertyKeys(o) {
			if k.IsSymbol() {
				continue
			}
			appendToArray(m, arr, value.NewString(k.String()))
		}
		return value.NewObject(arr), nil
	})
	r.method(objectCtor, "freeze", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		if !v.IsObject() {
			return v, nil
		}
		o := v.AsObject().(*object.Object)
		o.Methods().PreventExtensions(o)
		for _, k := range o.Methods().OwnPropertyKeys(o) {
			if d, ok := o.GetOwnPropertyRaw(k); ok {
				d.Configurable = false
				if !d.IsAccessor {
					d.Writable = false
				}
				o.DefineOwnPropertyRaw(k, d)
			}
		}
		return v, nil
	})
	r.method(objectCtor, "preventExtensions", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		if v := arg(args, 0); v.IsObject() {
			o := v.AsObject().(*object.Object)
			o.Methods().PreventExtensions(o)
		}
		return arg(args, 0), nil
	})
	r.method(objectCtor, "isExtensible", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		if v := arg(args, 0); v.IsObject() {
			o := v.AsObject().(*object.Object)
			return value.NewBool(o.Methods().IsExtensible(o)), nil
		}
		return value.False, nil
	})

	r.method(proto, "hasOwnProperty", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		ov, err := m.ToObject(this)
		if err != nil {
			return value.Undef, err
		}
		o := ov.AsObject().(*object.Object)
		key, err := m.ToPropertyKeyValue(arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		_, ok := o.Methods().GetOwnProperty(o, key)
		return value.NewBool(ok), nil
	})
	r.method(proto, "toString", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		switch {
		case this.IsUndefined():
			return value.NewString("[object Undefined]"), nil
		case this.IsNull():
			return value.NewString("[object Null]"), nil
		}
		tag := "Object"
		if this.IsObject() {
			if o, ok := this.AsObject().(*object.Object); ok {
				switch o.Kind() {
				case object.KindArray:
					tag = "Array"
				case object.KindFunction, object.KindBoundFunction:
					tag = "Function"
				case object.KindError:
					tag = "Error"
				}
				if tv, err := o.Methods().Get(o, m, object.SymbolKey(r.intr.SymbolToStringTag), this); err == nil && tv.IsString() {
					tag = tv.AsString()
				}
			}
		}
		return value.NewString("[object " + tag + "]"), nil
	})
	r.method(proto, "valueOf", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		if this.IsObject() {
			if o, ok := this.AsObject().(*object.Object); ok {
				if pv, ok := o.Slot("PrimitiveValue"); ok {
					return pv, nil
				}
			}
		}
		return this, nil
	})
	r.method(proto, "isPrototypeOf", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsObject() || !arg(args, 0).IsObject() {
			return value.False, nil
		}
		target := this.AsObject().(*object.Object)
		cur := arg(args, 0).AsObject().(*object.Object)
		for {
			cur = cur.Methods().GetPrototypeOf(cur)
			if cur == nil {
				return value.False, nil
			}
			if cur == target {
				return value.True, nil
			}
		}
	})
}

// collectOwn maps an object's own enumerable string-keyed properties.
func (r *Realm) collectOwn(m *vm.Machine, v value.Value, f func(object.PropertyKey, value.Value) value.Value) (value.Value, error) {
	ov, err := m.ToObject(v)
	if err != nil {
		return value.Undef, err
	}
	o := ov.AsObject().(*object.Object)
	arr := m.NewArrayObject()
	for _, key := range o.Methods().OwnPropertyKeys(o) {
		if key.IsSymbol() {
			continue
		}
		desc, ok := o.Methods().GetOwnProperty(o, key)
		if !ok || !desc.Enumerable {
			continue
		}
		pv, err := o.Methods().Get(o, m, key, ov)
		if err != nil {
			return value.Undef, err
		}
		appendToArray(m, arr, f(key, pv))
	}
	return value.NewObject(arr), nil
}

func asObject(m *vm.Machine, v value.Value) (*object.Object, error) {
	if !v.IsObject() {
		return nil, m.ThrowTypeError("%s is not an object", v.TypeOf())
	}
	o, ok := v.AsObject().(*object.Object)
	if !ok {
		return nil, m.ThrowTypeError("foreign object")
	}
	return o, nil
}

func appendToArray(m *vm.Machine, arr *object.Object, v value.Value) {
	idx := object.ArrayLength(arr)
	arr.Methods().DefineOwnProperty(arr, m, object.IndexKey(idx), object.PropertyDescriptor{
		Value: v, Writable: true, Enumerable: true, Configurable: true,
	})
}

// toPropertyDescriptor parses a JS descriptor object.
func (r *Realm) toPropertyDescriptor(m *vm.Machine, v value.Value) (object.PropertyDescriptor, error) {
	o, err := asObject(m, v)
	if err != nil {
		return object.PropertyDescriptor{}, err
	}
	var desc object.PropertyDescriptor
	read := func(name string) (value.Value, bool, error) {
		has, err := o.Methods().HasProperty(o, m, object.StringKey(name))
		if err != nil || !has {
			return value.Undef, false, err
		}
		pv, err := o.Methods().Get(o, m, object.StringKey(name), v)
		return pv, err == nil, err
	}
	if pv, ok, err := read("enumerable"); err != nil {
		return desc, err
	} else if ok {
		desc.Enumerable = value.ToBoolean(pv)
	}
	if pv, ok, err := read("configurable"); err != nil {
		return desc, err
	} else if ok {
		desc.Configurable = value.ToBoolean(pv)
	}
	get, hasGet, err := read("get")
	if err != nil {
		return desc, err
	}
	set, hasSet, err := read("set")
	if err != nil {
		return desc, err
	}
	val, hasValue, err := read("value")
	if err != nil {
		return desc, err
	}
	writable, hasWritable, err := read("writable")
	if err != nil {
		return desc, err
	}
	if (hasGet || hasSet) && (hasValue || hasWritable) {
		return desc, m.ThrowTypeError("property descriptors must not specify a value or be writable when a getter or setter has been specified")
	}
	if hasGet || hasSet {
		desc.IsAccessor = true
		desc.Get, desc.Set = get, set
		return desc, nil
	}
	desc.Value = val
	desc.Writable = hasWritable && value.ToBoolean(writable)
	return desc, nil
}
