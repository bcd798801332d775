package vm

import (
	"strings"

	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
)

// arrayAppend defines the next index of an array-literal under
// construction (PushValueToArray).
func (m *Machine) arrayAppend(arrV value.Value, v value.Value) error {
	arr := arrV.AsObject().(*object.Object)
	idx := object.ArrayLength(arr)
	_, err := arr.Methods().DefineOwnProperty(arr, m, object.IndexKey(idx), object.PropertyDescriptor{
		Value: v, Writable: true, Enumerable: true, Configurable: true,
	})
	return err
}

// arrayBumpLength implements an array-literal elision: length grows with no
// element defined at the hole.
func (m *Machine) arrayBumpLength(arrV value.Value) error {
	arr := arrV.AsObject().(*object.Object)
	n := object.ArrayLength(arr)
	_, err := arr.Methods().DefineOwnProperty(arr, m, object.StringKey("length"), object.PropertyDescriptor{
		Value: value.NumberValue(float64(n + 1)), Writable: true,
	})
	return err
}

// spreadInto iterates v with the iterator protocol, appending every yielded
// value to the array under construction (PushSpreadToArray).
func (m *Machine) spreadInto(arrV value.Value, v value.Value) error {
	rec, err := m.newIterator(v, false)
	if err != nil {
		return err
	}
	for {
		el, done, err := m.iterStep(rec, nil)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := m.arrayAppend(arrV, el); err != nil {
			return err
		}
	}
}

// defineDataProperty implements DefineOwnPropertyByName, intercepting the
// compiler's class-extends marker to wire the superclass chain instead of
// defining a visible property.
func (m *Machine) defineDataProperty(target value.Value, name string, v value.Value) error {
	if !target.IsObject() {
		return m.ThrowTypeError("cannot define property on %s", target.TypeOf())
	}
	o := target.AsObject().(*object.Object)
	if name == "@@superclass" {
		return m.wireSuperclass(o, v)
	}
	return m.defineKeyedDataProperty(target, stringToKey(name), v)
}

func (m *Machine) defineKeyedDataProperty(target value.Value, key object.PropertyKey, v value.Value) error {
	if !target.IsObject() {
		return m.ThrowTypeError("cannot define property on %s", target.TypeOf())
	}
	o := target.AsObject().(*object.Object)
	_, err := o.Methods().DefineOwnProperty(o, m, key, object.PropertyDescriptor{
		Value: v, Writable: true, Enumerable: true, Configurable: true,
	})
	return err
}

// defineAccessor installs a getter or setter, merging with the other half
// of an existing accessor pair on the same key.
func (m *Machine) defineAccessor(target value.Value, key object.PropertyKey, fn value.Value, isGetter bool) error {
	if !target.IsObject() {
		return m.ThrowTypeError("cannot define accessor on %s", target.TypeOf())
	}
	o := target.AsObject().(*object.Object)
	desc := object.PropertyDescriptor{IsAccessor: true, Enumerable: true, Configurable: true}
	if existing, ok := o.GetOwnPropertyRaw(key); ok && existing.IsAccessor {
		desc.Get, desc.Set = existing.Get, existing.Set
	}
	if isGetter {
		desc.Get = fn
	} else {
		desc.Set = fn
	}
	_, err := o.Methods().DefineOwnProperty(o, m, key, desc)
	return err
}

func (m *Machine) deleteProperty(target value.Value, key object.PropertyKey) (bool, error) {
	if !target.IsObject() {
		return true, nil
	}
	o := target.AsObject().(*object.Object)
	return o.Methods().Delete(o, m, key)
}

// copyDataProperties copies src's own enumerable properties onto the object
// on top of the stack, skipping the comma-separated excluded names.
func (m *Machine) copyDataProperties(target value.Value, src value.Value, excluded string) error {
	if src.IsNullOrUndefined() {
		return nil
	}
	if !target.IsObject() {
		return m.ThrowTypeError("cannot copy properties onto %s", target.TypeOf())
	}
	var skip map[string]bool
	if excluded != "" {
		skip = make(map[string]bool)
		for _, n := range strings.Split(excluded, ",") {
			skip[n] = true
		}
	}
	srcV, err := m.ToObject(src)
	if err != nil {
		return err
	}
	so := srcV.AsObject().(*object.Object)
	to := target.AsObject().(*object.Object)
	for _, key := range so.Methods().OwnPropertyKeys(so) {
		if skip != nil && !key.IsSymbol() && skip[key.String()] {
			continue
		}
		desc, ok := so.Methods().GetOwnProperty(so, key)
		if !ok || !desc.Enumerable {
			continue
		}
		v, err := so.Methods().Get(so, m, key, srcV)
		if err != nil {
			return err
		}
		if _, err := to.Methods().DefineOwnProperty(to, m, key, object.PropertyDescriptor{
			Value: v, Writable: true, Enumerable: true, Configurable: true,
		}); err != nil {
			return err
		}
	}
	return nil
}

// instanceOf implements the instanceof operator: @@hasInstance when the
// right operand defines it, OrdinaryHasInstance otherwise.
func (m *Machine) instanceOf(a, b value.Value) (bool, error) {
	if !b.IsObject() {
		return false, m.ThrowTypeError("Right-hand side of 'instanceof' is not an object")
	}
	bo := b.AsObject().(*object.Object)
	hasInstance, err := bo.Methods().Get(bo, m, object.SymbolKey(m.intr.SymbolHasInstance), b)
	if err != nil {
		return false, err
	}
	if hasInstance.IsCallable() {
		r, err := m.CallValue(hasInstance, b, []value.Value{a})
		if err != nil {
			return false, err
		}
		return value.ToBoolean(r), nil
	}
	if !b.IsCallable() {
		return false, m.ThrowTypeError("Right-hand side of 'instanceof' is not callable")
	}
	protoV, err := m.getValueProperty(b, object.StringKey("prototype"))
	if err != nil {
		return false, err
	}
	if !protoV.IsObject() {
		return false, m.ThrowTypeError("prototype of instanceof target is not an object")
	}
	proto := protoV.AsObject().(*object.Object)
	if !a.IsObject() {
		return false, nil
	}
	cur := a.AsObject().(*object.Object)
	for {
		cur = cur.Methods().GetPrototypeOf(cur)
		if cur == nil {
			return false, nil
		}
		if cur == proto {
			return true, nil
		}
	}
}

// arrayToSlice reads a JS array's indexed elements into a Go slice, used by
// the WithRest call forms and super().
func (m *Machine) arrayToSlice(arrV value.Value) ([]value.Value, error) {
	if !arrV.IsObject() {
		return nil, m.ThrowTypeError("argument list is not an object")
	}
	lenV, err := m.getValueProperty(arrV, object.StringKey("length"))
	if err != nil {
		return nil, err
	}
	n, err := value.ToUint32(m, lenV)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, n)
	for i := uint32(0); i < n; i++ {
		v, err := m.getValueProperty(arrV, object.IndexKey(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// pushConstructed runs [[Construct]] and pushes the instance (New /
// NewWithRest).
func (m *Machine) pushConstructed(fnV value.Value, args []value.Value) error {
	if !fnV.IsObject() {
		return m.ThrowTypeError("%s is not a constructor", fnV.TypeOf())
	}
	fn := fnV.AsObject().(*object.Object)
	if !fn.IsConstructor() {
		return m.ThrowTypeError("value is not a constructor")
	}
	obj, err := fn.Methods().Construct(fn, m, args, fn)
	if err != nil {
		return err
	}
	m.push(value.NewObject(obj))
	return nil
}

// superCall implements SuperCall: construct the parent class with this
// frame's new.target and bind the result as the derived constructor's
// `this`.
func (m *Machine) superCall(f *Frame, argsArr value.Value) error {
	if f.fn == nil {
		return NewError(ErrSyntax, "'super' keyword unexpected here")
	}
	parentV, ok := f.fn.Slot("SuperClass")
	if !ok {
		return NewError(ErrSyntax, "'super' keyword unexpected here")
	}
	args, err := m.arrayToSlice(argsArr)
	if err != nil {
		return err
	}
	parent := parentV.AsObject().(*object.Object)
	newTarget := f.newTarget
	if newTarget == nil {
		newTarget = f.fn
	}
	instance, err := parent.Methods().Construct(parent, m, args, newTarget)
	if err != nil {
		return err
	}
	this := value.NewObject(instance)
	if err := m.envs.BindThis(f.env, this); err != nil {
		return err
	}
	m.push(this)
	return nil
}
