package object

import (
	"github.com/go-jsvm/jsvm/internal/value"
)

const lengthSlot = "length"

// NewArray builds an Array exotic object with the length-invariant
// DefineOwnProperty override ("Array... exotic" kind).
func NewArray(proto *Object, initialLength uint32) *Object {
	o := New(proto)
	o.kind = KindArray
	o.DefineOwnPropertyRaw(StringKey(lengthSlot), PropertyDescriptor{
		Value: value.NumberValue(float64(initialLength)), Writable: true,
	})
	m := *OrdinaryMethods()
	m.DefineOwnProperty = arrayDefineOwnProperty
	o.methods = &m
	return o
}

// ArrayLength returns the current value of the array's length property.
func ArrayLength(o *Object) uint32 {
	desc, _ := o.GetOwnPropertyRaw(StringKey(lengthSlot))
	return uint32(desc.Value.AsFloat64())
}

func setArrayLength(o *Object, n uint32) {
	desc, _ := o.GetOwnPropertyRaw(StringKey(lengthSlot))
	desc.Value = value.NumberValue(float64(n))
	o.DefineOwnPropertyRaw(StringKey(lengthSlot), desc)
}

// arrayDefineOwnProperty implements the array length invariant: writing an
// index >= length bumps length; writing length itself deletes existing
// indices from the top down until the new length is reached, and a non-
// configurable index stops the walk with length rolled back to one above
// the highest surviving index (ECMA-262's ArraySetLength algorithm).
func arrayDefineOwnProperty(o *Object, ctx Context, key PropertyKey, desc PropertyDescriptor) (bool, error) {
	if key.String() == lengthSlot && !key.IsIndex() {
		if desc.IsAccessor {
			return false, nil
		}
		newLen := uint32(desc.Value.AsFloat64())
		oldLen := ArrayLength(o)
		if newLen >= oldLen {
			setArrayLength(o, newLen)
			return true, nil
		}
		// OwnKeysRaw yields index keys ascending; deletion must run from
		// oldLen-1 down to newLen so everything above a stuck index stays
		// deleted and nothing below it is touched.
		var doomed []PropertyKey
		for _, k := range o.OwnKeysRaw() {
			if k.IsIndex() && k.Index() >= newLen {
				doomed = append(doomed, k)
			}
		}
		for i := len(doomed) - 1; i >= 0; i-- {
			k := doomed[i]
			d, _ := o.GetOwnPropertyRaw(k)
			if !d.Configurable {
				setArrayLength(o, k.Index()+1)
				return false, nil
			}
			o.DeletePropertyRaw(k)
		}
		setArrayLength(o, newLen)
		return true, nil
	}
	if key.IsIndex() {
		oldLen := ArrayLength(o)
		ok, err := OrdinaryDefineOwnProperty(o, ctx, key, desc)
		if err != nil || !ok {
			return ok, err
		}
		if key.Index() >= oldLen {
			setArrayLength(o, key.Index()+1)
		}
		return true, nil
	}
	return OrdinaryDefineOwnProperty(o, ctx, key, desc)
}
