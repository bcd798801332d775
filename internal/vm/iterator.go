package vm

import (
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
)

const iterTag = "jsvm.iterator"

// iterRecord is the VM's handle on an active iteration: the iterator
// object with its cached next method for the JS protocol, or a key
// snapshot for for-in enumeration.
type iterRecord struct {
	obj  *object.Object
	next value.Value
	done bool

	// for-in enumeration state.
	forIn bool
	keys  []string
	idx   int
}

// iterValue boxes an iterRecord as a stack value (a NativeData object, so
// the record survives stack copies during generator suspension).
func (m *Machine) iterValue(rec *iterRecord) value.Value {
	o := object.NewNativeDataObject(m.intr.IteratorProto, iterTag, rec)
	m.track(o)
	return value.NewObject(o)
}

// iterFromValue recovers the iterRecord a stack slot carries.
func (m *Machine) iterFromValue(v value.Value) (*iterRecord, error) {
	if v.IsObject() {
		if o, ok := v.AsObject().(*object.Object); ok && o.Kind() == object.KindNativeData {
			if nd, ok := o.Data().(*object.NativeDataData); ok && nd.Tag == iterTag {
				return nd.Value.(*iterRecord), nil
			}
		}
	}
	return nil, NewError(ErrError, "corrupt iterator slot")
}

// newIterator opens the iterator protocol on v: @@iterator (or
// @@asyncIterator with a sync fallback) must yield an object with a
// callable next.
func (m *Machine) newIterator(v value.Value, async bool) (*iterRecord, error) {
	var method value.Value
	var err error
	if async {
		method, err = m.getValueProperty(v, object.SymbolKey(m.intr.SymbolAsyncIterator))
		if err != nil {
			return nil, err
		}
	}
	if !method.IsCallable() {
		method, err = m.getValueProperty(v, object.SymbolKey(m.intr.SymbolIterator))
		if err != nil {
			return nil, err
		}
	}
	if !method.IsCallable() {
		return nil, m.ThrowTypeError("%s is not iterable", v.TypeOf())
	}
	iterV, err := m.CallValue(method, v, nil)
	if err != nil {
		return nil, err
	}
	if !iterV.IsObject() {
		return nil, m.ThrowTypeError("iterator result is not an object")
	}
	iterObj := iterV.AsObject().(*object.Object)
	next, err := m.getValueProperty(iterV, object.StringKey("next"))
	if err != nil {
		return nil, err
	}
	if !next.IsCallable() {
		return nil, m.ThrowTypeError("iterator's next is not callable")
	}
	return &iterRecord{obj: iterObj, next: next}, nil
}

// iterStep calls next(args...) and unpacks the {value, done} result.
func (m *Machine) iterStep(rec *iterRecord, args []value.Value) (value.Value, bool, error) {
	if rec.forIn {
		if key, ok := rec.nextForInKey(); ok {
			return value.NewString(key), false, nil
		}
		return value.Undef, true, nil
	}
	res, err := m.CallValue(rec.next, value.NewObject(rec.obj), args)
	if err != nil {
		return value.Undef, false, err
	}
	if !res.IsObject() {
		return value.Undef, false, m.ThrowTypeError("iterator result is not an object")
	}
	doneV, err := m.getValueProperty(res, object.StringKey("done"))
	if err != nil {
		return value.Undef, false, err
	}
	v, err := m.getValueProperty(res, object.StringKey("value"))
	if err != nil {
		return value.Undef, false, err
	}
	done := value.ToBoolean(doneV)
	if done {
		rec.done = true
	}
	return v, done, nil
}

// iterClose calls the iterator's return method if it is still live.
func (m *Machine) iterClose(rec *iterRecord) error {
	if rec.forIn || rec.done {
		return nil
	}
	rec.done = true
	ret, err := m.getValueProperty(value.NewObject(rec.obj), object.StringKey("return"))
	if err != nil || !ret.IsCallable() {
		return nil
	}
	_, err = m.CallValue(ret, value.NewObject(rec.obj), nil)
	return err
}

// callIterMethod invokes return/throw on a delegated iterator if present.
func (m *Machine) callIterMethod(rec *iterRecord, name string, arg value.Value) (value.Value, bool, bool, error) {
	fn, err := m.getValueProperty(value.NewObject(rec.obj), object.StringKey(name))
	if err != nil {
		return value.Undef, false, false, err
	}
	if !fn.IsCallable() {
		return value.Undef, false, false, nil
	}
	res, err := m.CallValue(fn, value.NewObject(rec.obj), []value.Value{arg})
	if err != nil {
		return value.Undef, false, true, err
	}
	if !res.IsObject() {
		return value.Undef, false, true, m.ThrowTypeError("iterator result is not an object")
	}
	doneV, err := m.getValueProperty(res, object.StringKey("done"))
	if err != nil {
		return value.Undef, false, true, err
	}
	v, err := m.getValueProperty(res, object.StringKey("value"))
	if err != nil {
		return value.Undef, false, true, err
	}
	return v, value.ToBoolean(doneV), true, nil
}

// newForInIterator snapshots the enumerable string keys of v and its
// prototype chain. for-in over null/undefined iterates zero times.
func (m *Machine) newForInIterator(v value.Value) *iterRecord {
	rec := &iterRecord{forIn: true}
	if v.IsNullOrUndefined() {
		return rec
	}
	objV, err := m.ToObject(v)
	if err != nil || !objV.IsObject() {
		return rec
	}
	seen := make(map[string]bool)
	cur := objV.AsObject().(*object.Object)
	for cur != nil {
		for _, key := range cur.Methods().OwnPropertyKeys(cur) {
			if key.IsSymbol() {
				continue
			}
			name := key.String()
			if seen[name] {
				continue
			}
			seen[name] = true
			if desc, ok := cur.Methods().GetOwnProperty(cur, key); ok && desc.Enumerable {
				rec.keys = append(rec.keys, name)
			}
		}
		cur = cur.Methods().GetPrototypeOf(cur)
	}
	return rec
}

// nextForInKey yields the next enumeration key, if any.
func (r *iterRecord) nextForInKey() (string, bool) {
	if r.idx >= len(r.keys) {
		return "", false
	}
	k := r.keys[r.idx]
	r.idx++
	return k, true
}

// IterateAll drives a full iteration of v, calling fn per element; used by
// realm built-ins (Array.from, new Map(iterable), Promise.all).
func (m *Machine) IterateAll(v value.Value, fn func(value.Value) error) error {
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
		if err := fn(el); err != nil {
			m.iterClose(rec)
			return err
		}
	}
}
