package realm

import (
	"strings"

	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

func (r *Realm) installArray() {
	proto := r.intr.ArrayProto

	arrayCtor := r.ctor("Array", 1, proto,
		func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
			arr, err := arrayFromCtorArgs(m, args)
			if err != nil {
				return value.Undef, err
			}
			return value.NewObject(arr), nil
		},
		func(m *vm.Machine, args []value.Value, _ *object.Object) (*object.Object, error) {
			return arrayFromCtorArgs(m, args)
		})

	r.method(arrayCtor, "isArray", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		if v := arg(args, 0); v.IsObject() {
			if o, ok := v.AsObject().(*object.Object); ok {
				return value.NewBool(o.Kind() == object.KindArray), nil
			}
		}
		return value.False, nil
	})
	r.method(arrayCtor, "of", 0, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		return value.NewObject(m.NewArrayOf(args...)), nil
	})
	r.method(arrayCtor, "from", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		src := arg(args, 0)
		mapFn := arg(args, 1)
		arr := m.NewArrayObject()
		i := 0
		collect := func(el value.Value) error {
			if mapFn.IsCallable() {
				mapped, err := m.CallValue(mapFn, value.Undef, []value.Value{el, value.NewInt32(int32(i))})
				if err != nil {
					return err
				}
				el = mapped
			}
			appendToArray(m, arr, el)
			i++
			return nil
		}
		iterMethod, err := m.GetPropertyValue(src, object.SymbolKey(r.intr.SymbolIterator))
		if err == nil && iterMethod.IsCallable() {
			if err := m.IterateAll(src, collect); err != nil {
				return value.Undef, err
			}
			return value.NewObject(arr), nil
		}
		els, err := sliceOfArrayLike(m, src)
		if err != nil {
			return value.Undef, err
		}
		for _, el := range els {
			if err := collect(el); err != nil {
				return value.Undef, err
			}
		}
		return value.NewObject(arr), nil
	})

	r.method(proto, "push", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		o, err := thisObject(m, this)
		if err != nil {
			return value.Undef, err
		}
		for _, v := range args {
			appendToArray(m, o, v)
		}
		return value.NumberValue(float64(object.ArrayLength(o))), nil
	})
	r.method(proto, "pop", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		o, err := thisObject(m, this)
		if err != nil {
			return value.Undef, err
		}
		n := object.ArrayLength(o)
		if n == 0 {
			return value.Undef, nil
		}
		v, _ := m.GetPropertyValue(this, object.IndexKey(n-1))
		o.Methods().Delete(o, m, object.IndexKey(n-1))
		o.Methods().DefineOwnProperty(o, m, object.StringKey("length"), object.PropertyDescriptor{
			Value: value.NumberValue(float64(n - 1)), Writable: true,
		})
		return v, nil
	})
	r.method(proto, "shift", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		o, err := thisObject(m, this)
		if err != nil {
			return value.Undef, err
		}
		n := object.ArrayLength(o)
		if n == 0 {
			return value.Undef, nil
		}
		first, _ := m.GetPropertyValue(this, object.IndexKey(0))
		for i := uint32(1); i < n; i++ {
			v, _ := m.GetPropertyValue(this, object.IndexKey(i))
			m.SetPropertyValue(this, object.IndexKey(i-1), v)
		}
		o.Methods().Delete(o, m, object.IndexKey(n-1))
		o.Methods().DefineOwnProperty(o, m, object.StringKey("length"), object.PropertyDescriptor{
			Value: value.NumberValue(float64(n - 1)), Writable: true,
		})
		return first, nil
	})
	r.method(proto, "unshift", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		o, err := thisObject(m, this)
		if err != nil {
			return value.Undef, err
		}
		n := object.ArrayLength(o)
		k := uint32(len(args))
		for i := n; i > 0; i-- {
			v, _ := m.GetPropertyValue(this, object.IndexKey(i-1))
			m.SetPropertyValue(this, object.IndexKey(i-1+k), v)
		}
		for i, v := range args {
			m.SetPropertyValue(this, object.IndexKey(uint32(i)), v)
		}
		return value.NumberValue(float64(n + k)), nil
	})
	r.method(proto, "slice", 2, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		els, err := sliceOfArrayLike(m, this)
		if err != nil {
			return value.Undef, err
		}
		start, end, err := sliceBounds(m, args, len(els))
		if err != nil {
			return value.Undef, err
		}
		return value.NewObject(m.NewArrayOf(els[start:end]...)), nil
	})
	r.method(proto, "indexOf", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		els, err := sliceOfArrayLike(m, this)
		if err != nil {
			return value.Undef, err
		}
		for i, el := range els {
			if value.StrictEqual(el, arg(args, 0)) {
				return value.NewInt32(int32(i)), nil
			}
		}
		return value.NewInt32(-1), nil
	})
	r.method(proto, "includes", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		els, err := sliceOfArrayLike(m, this)
		if err != nil {
			return value.Undef, err
		}
		for _, el := range els {
			if value.SameValueZero(el, arg(args, 0)) {
				return value.True, nil
			}
		}
		return value.False, nil
	})
	r.method(proto, "join", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		els, err := sliceOfArrayLike(m, this)
		if err != nil {
			return value.Undef, err
		}
		sep := ","
		if sv := arg(args, 0); !sv.IsUndefined() {
			sep, err = value.ToStringValue(m, sv)
			if err != nil {
				return value.Undef, err
			}
		}
		parts := make([]string, len(els))
		for i, el := range els {
			if el.IsNullOrUndefined() {
				continue
			}
			parts[i], err = value.ToStringValue(m, el)
			if err != nil {
				return value.Undef, err
			}
		}
		return value.NewString(strings.Join(parts, sep)), nil
	})
	r.method(proto, "concat", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		out := m.NewArrayObject()
		appendConcat := func(v value.Value) error {
			if v.IsObject() {
				if o, ok := v.AsObject().(*object.Object); ok && o.Kind() == object.KindArray {
					els, err := sliceOfArrayLike(m, v)
					if err != nil {
						return err
					}
					for _, el := range els {
						appendToArray(m, out, el)
					}
					return nil
				}
			}
			appendToArray(m, out, v)
			return nil
		}
		if err := appendConcat(this); err != nil {
			return value.Undef, err
		}
		for _, a := range args {
			if err := appendConcat(a); err != nil {
				return value.Undef, err
			}
		}
		return value.NewObject(out), nil
	})
	r.method(proto, "reverse", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		els, err := sliceOfArrayLike(m, this)
		if err != nil {
			return value.Undef, err
		}
		for i, j := 0, len(els)-1; i < j; i, j = i+1, j-1 {
			els[i], els[j] = els[j], els[i]
		}
		for i, el := range els {
			if err := m.SetPropertyValue(this, object.IndexKey(uint32(i)), el); err != nil {
				return value.Undef, err
			}
		}
		return this, nil
	})

	iterate := func(name string, f func(m *vm.Machine, this value.Value, cb value.Value, els []value.Value) (value.Value, error)) {
		r.method(proto, name, 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			els, err := sliceOfArrayLike(m, this)
			if err != nil {
				return value.Undef, err
			}
			cb := arg(args, 0)
			if !cb.IsCallable() {
				return value.Undef, m.ThrowTypeError("%s callback is not a function", name)
			}
			return f(m, this, cb, els)
		})
	}
	iterate("forEach", func(m *vm.Machine, this value.Value, cb value.Value, els []value.Value) (value.Value, error) {
		for i, el := range els {
			if _, err := m.CallValue(cb, value.Undef, []value.Value{el, value.NewInt32(int32(i)), this}); err != nil {
				return value.Undef, err
			}
		}
		return value.Undef, nil
	})
	iterate("map", func(m *vm.Machine, this value.Value, cb value.Value, els []value.Value) (value.Value, error) {
		out := m.NewArrayObject()
		for i, el := range els {
			v, err := m.CallValue(cb, value.Undef, []value.Value{el, value.NewInt32(int32(i)), this})
			if err != nil {
				return value.Undef, err
			}
			appendToArray(m, out, v)
		}
		return value.NewObject(out), nil
	})
	iterate("filter", func(m *vm.Machine, this value.Value, cb value.Value, els []value.Value) (value.Value, error) {
		out := m.NewArrayObject()
		for i, el := range els {
			keep, err := m.CallValue(cb, value.Undef, []value.Value{el, value.NewInt32(int32(i)), this})
			if err != nil {
				return value.Undef, err
			}
			if value.ToBoolean(keep) {
				appendToArray(m, out, el)
			}
		}
		return value.NewObject(out), nil
	})
	iterate("some", func(m *vm.Machine, this value.Value, cb value.Value, els []value.Value) (value.Value, error) {
		for i, el := range els {
			ok, err := m.CallValue(cb, value.Undef, []value.Value{el, value.NewInt32(int32(i)), this})
			if err != nil {
				return value.Undef, err
			}
			if value.ToBoolean(ok) {
				return value.True, nil
			}
		}
		return value.False, nil
	})
	iterate("every", func(m *vm.Machine, this value.Value, cb value.Value, els []value.Value) (value.Value, error) {
		for i, el := range els {
			ok, err := m.CallValue(cb, value.Undef, []value.Value{el, value.NewInt32(int32(i)), this})
			if err != nil {
				return value.Undef, err
			}
			if !value.ToBoolean(ok) {
				return value.False, nil
			}
		}
		return value.True, nil
	})
	iterate("find", func(m *vm.Machine, this value.Value, cb value.Value, els []value.Value) (value.Value, error) {
		for i, el := range els {
			ok, err := m.CallValue(cb, value.Undef, []value.Value{el, value.NewInt32(int32(i)), this})
			if err != nil {
				return value.Undef, err
			}
			if value.ToBoolean(ok) {
				return el, nil
			}
		}
		return value.Undef, nil
	})
	iterate("findIndex", func(m *vm.Machine, this value.Value, cb value.Value, els []value.Value) (value.Value, error) {
		for i, el := range els {
			ok, err := m.CallValue(cb, value.Undef, []value.Value{el, value.NewInt32(int32(i)), this})
			if err != nil {
				return value.Undef, err
			}
			if value.ToBoolean(ok) {
				return value.NewInt32(int32(i)), nil
			}
		}
		return value.NewInt32(-1), nil
	})

	r.method(proto, "reduce", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		els, err := sliceOfArrayLike(m, this)
		if err != nil {
			return value.Undef, err
		}
		cb := arg(args, 0)
		if !cb.IsCallable() {
			return value.Undef, m.ThrowTypeError("reduce callback is not a function")
		}
		i := 0
		var acc value.Value
		if len(args) >= 2 {
			acc = args[1]
		} else {
			if len(els) == 0 {
				return value.Undef, m.ThrowTypeError("Reduce of empty array with no initial value")
			}
			acc = els[0]
			i = 1
		}
		for ; i < len(els); i++ {
			acc, err = m.CallValue(cb, value.Undef, []value.Value{acc, els[i], value.NewInt32(int32(i)), this})
			if err != nil {
				return value.Undef, err
			}
		}
		return acc, nil
	})
	r.method(proto, "toString", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		join, err := m.GetPropertyValue(this, object.StringKey("join"))
		if err != nil || !join.IsCallable() {
			return value.NewString("[object Array]"), nil
		}
		return m.CallValue(join, this, nil)
	})

	arrayValues := func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		i := uint32(0)
		return value.NewObject(r.newStepIterator(func() (value.Value, bool) {
			lenV, err := m.GetPropertyValue(this, object.StringKey("length"))
			if err != nil {
				return value.Undef, true
			}
			n, _ := value.ToUint32(m, lenV)
			if i >= n {
				return value.Undef, true
			}
			v, _ := m.GetPropertyValue(this, object.IndexKey(i))
			i++
			return v, false
		})), nil
	}
	r.method(proto, "values", 0, arrayValues)
	defSym(proto, r.intr.SymbolIterator, value.NewObject(r.m.NewNativeFunction("[Symbol.iterator]", 0, arrayValues)))
	r.method(proto, "keys", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		i := uint32(0)
		return value.NewObject(r.newStepIterator(func() (value.Value, bool) {
			lenV, err := m.GetPropertyValue(this, object.StringKey("length"))
			if err != nil {
				return value.Undef, true
			}
			n, _ := value.ToUint32(m, lenV)
			if i >= n {
				return value.Undef, true
			}
			v := value.NewInt32(int32(i))
			i++
			return v, false
		})), nil
	})
	r.method(proto, "entries", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		i := uint32(0)
		return value.NewObject(r.newStepIterator(func() (value.Value, bool) {
			lenV, err := m.GetPropertyValue(this, object.StringKey("length"))
			if err != nil {
				return value.Undef, true
			}
			n, _ := value.ToUint32(m, lenV)
			if i >= n {
				return value.Undef, true
			}
			v, _ := m.GetPropertyValue(this, object.IndexKey(i))
			pair := m.NewArrayOf(value.NewInt32(int32(i)), v)
			i++
			return value.NewObject(pair), false
		})), nil
	})
}

func arrayFromCtorArgs(m *vm.Machine, args []value.Value) (*object.Object, error) {
	if len(args) == 1 && args[0].IsNumber() {
		n, err := value.ToUint32(m, args[0])
		if err != nil {
			return nil, err
		}
		if float64(n) != args[0].AsFloat64() {
			return nil, m.ThrowRangeError("Invalid array length")
		}
		arr := m.NewArrayObject()
		arr.Methods().DefineOwnProperty(arr, m, object.StringKey("length"), object.PropertyDescriptor{
			Value: value.NumberValue(float64(n)), Writable: true,
		})
		return arr, nil
	}
	return m.NewArrayOf(args...), nil
}

func sliceBounds(m *vm.Machine, args []value.Value, n int) (int, int, error) {
	relative := func(v value.Value, dflt int) (int, error) {
		if v.IsUndefined() {
			return dflt, nil
		}
		f, err := value.ToIntegerOrInfinity(m, v)
		if err != nil {
			return 0, err
		}
		i := int(f)
		if f < 0 {
			i += n
			if i < 0 {
				i = 0
			}
		}
		if i > n {
			i = n
		}
		return i, nil
	}
	start, err := relative(arg(args, 0), 0)
	if err != nil {
		return 0, 0, err
	}
	end, err := relative(arg(args, 1), n)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		end = start
	}
	return start, end, nil
}
