package object

import "github.com/go-jsvm/jsvm/internal/value"

// OrdinaryMethods returns the internal-methods vtable shared by plain
// objects and reused as the fallback for every exotic kind that does not
// override a given trap.
func OrdinaryMethods() *Methods {
	return &Methods{
		GetPrototypeOf:    OrdinaryGetPrototypeOf,
		SetPrototypeOf:    OrdinarySetPrototypeOf,
		IsExtensible:      OrdinaryIsExtensible,
		PreventExtensions: OrdinaryPreventExtensions,
		GetOwnProperty:    OrdinaryGetOwnProperty,
		DefineOwnProperty: OrdinaryDefineOwnProperty,
		HasProperty:       OrdinaryHasProperty,
		Get:               OrdinaryGet,
		Set:               OrdinarySet,
		Delete:            OrdinaryDelete,
		OwnPropertyKeys:   OrdinaryOwnPropertyKeys,
	}
}

func OrdinaryGetPrototypeOf(o *Object) *Object { return o.proto }

func OrdinarySetPrototypeOf(o *Object, proto *Object) bool {
	if !o.extensible {
		return proto == o.proto
	}
	// Reject a prototype cycle.
	for p := proto; p != nil; p = p.proto {
		if p == o {
			return false
		}
	}
	o.proto = proto
	return true
}

func OrdinaryIsExtensible(o *Object) bool { return o.extensible }

func OrdinaryPreventExtensions(o *Object) bool {
	o.extensible = false
	return true
}

func OrdinaryGetOwnProperty(o *Object, key PropertyKey) (PropertyDescriptor, bool) {
	return o.GetOwnPropertyRaw(key)
}

// OrdinaryDefineOwnProperty validates the incoming descriptor against any
// existing one (non-configurable narrowing rules) before writing it,
// keeping the "never both data and accessor" invariant.
func OrdinaryDefineOwnProperty(o *Object, ctx Context, key PropertyKey, desc PropertyDescriptor) (bool, error) {
	current, exists := o.GetOwnPropertyRaw(key)
	if !exists {
		if !o.extensible {
			return false, nil
		}
		o.DefineOwnPropertyRaw(key, desc)
		return true, nil
	}
	if !current.Configurable {
		if desc.Configurable {
			return false, nil
		}
		if desc.Enumerable != current.Enumerable {
			return false, nil
		}
		if current.IsAccessor != desc.IsAccessor {
			return false, nil
		}
		if current.IsAccessor {
			if !sameAccessor(current.Get, desc.Get) || !sameAccessor(current.Set, desc.Set) {
				return false, nil
			}
		} else if !current.Writable {
			if desc.Writable {
				return false, nil
			}
			if !sameValueTyped(current.Value, desc.Value) {
				return false, nil
			}
		}
	}
	o.DefineOwnPropertyRaw(key, desc)
	return true, nil
}

func sameAccessor(a, b value.Value) bool {
	if a.IsUndefined() && b.IsUndefined() {
		return true
	}
	return a.IsObject() && b.IsObject() && a.AsObject() == b.AsObject()
}

func sameValueTyped(a, b value.Value) bool { return value.SameValue(a, b) }

func OrdinaryHasProperty(o *Object, ctx Context, key PropertyKey) (bool, error) {
	cur := o
	for cur != nil {
		if _, ok := cur.methods.GetOwnProperty(cur, key); ok {
			return true, nil
		}
		cur = cur.methods.GetPrototypeOf(cur)
	}
	return false, nil
}

// OrdinaryGet walks the prototype chain, invoking an accessor's getter when
// found.
func OrdinaryGet(o *Object, ctx Context, key PropertyKey, receiver value.Value) (value.Value, error) {
	cur := o
	for cur != nil {
		desc, ok := cur.methods.GetOwnProperty(cur, key)
		if ok {
			if desc.IsAccessor {
				if desc.Get.IsUndefined() {
					return value.Undef, nil
				}
				getter, _ := desc.Get.AsObject().(*Object)
				return ctx.Call(getter, receiver, nil)
			}
			return desc.Value, nil
		}
		cur = cur.methods.GetPrototypeOf(cur)
	}
	return value.Undef, nil
}

// OrdinarySet walks the prototype chain looking for an existing accessor or
// a non-writable data property to reject the write; otherwise it
// installs/updates an own data property on receiver.
func OrdinarySet(o *Object, ctx Context, key PropertyKey, v value.Value, receiver value.Value) (bool, error) {
	cur := o
	for cur != nil {
		desc, ok := cur.methods.GetOwnProperty(cur, key)
		if ok {
			if desc.IsAccessor {
				if desc.Set.IsUndefined() {
					return false, nil
				}
				setter, _ := desc.Set.AsObject().(*Object)
				_, err := ctx.Call(setter, receiver, []value.Value{v})
				return err == nil, err
			}
			if !desc.Writable {
				return false, nil
			}
			break
		}
		cur = cur.methods.GetPrototypeOf(cur)
	}
	recvObj, ok := receiver.AsObject().(*Object)
	if !receiver.IsObject() || !ok {
		return false, nil
	}
	existing, has := recvObj.GetOwnPropertyRaw(key)
	if has {
		if existing.IsAccessor || !existing.Writable {
			return false, nil
		}
		existing.Value = v
		return recvObj.methods.DefineOwnProperty(recvObj, ctx, key, existing)
	}
	return recvObj.methods.DefineOwnProperty(recvObj, ctx, key, PropertyDescriptor{
		Value: v, Writable: true, Enumerable: true, Configurable: true,
	})
}

func OrdinaryDelete(o *Object, ctx Context, key PropertyKey) (bool, error) {
	desc, ok := o.GetOwnPropertyRaw(key)
	if !ok {
		return true, nil
	}
	if !desc.Configurable {
		return false, nil
	}
	o.DeletePropertyRaw(key)
	return true, nil
}

func OrdinaryOwnPropertyKeys(o *Object) []PropertyKey { return o.OwnKeysRaw() }
