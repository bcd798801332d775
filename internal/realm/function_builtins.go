package realm

import (
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

func (r *Realm) installFunction() {
	proto := r.intr.FunctionProto
	def(r.global, "Function", value.NewObject(proto))

	r.method(proto, "call", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		fn, err := asCallable(m, this)
		if err != nil {
			return value.Undef, err
		}
		return m.Call(fn, arg(args, 0), rest(args, 1))
	})
	r.method(proto, "apply", 2, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		fn, err := asCallable(m, this)
		if err != nil {
			return value.Undef, err
		}
		var callArgs []value.Value
		if a := arg(args, 1); !a.IsNullOrUndefined() {
			var err error
			callArgs, err = sliceOfArrayLike(m, a)
			if err != nil {
				return value.Undef, err
			}
		}
		return m.Call(fn, arg(args, 0), callArgs)
	})
	r.method(proto, "bind", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		fn, err := asCallable(m, this)
		if err != nil {
			return value.Undef, err
		}
		bound := object.NewBoundFunction(r.intr.FunctionProto, fn, arg(args, 0), rest(args, 1))
		m.Heap().Alloc(bound)
		return value.NewObject(bound), nil
	})
	r.method(proto, "toString", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		if this.IsObject() {
			if o, ok := this.AsObject().(*object.Object); ok {
				if fd, ok := o.Data().(*object.FunctionData); ok {
					name := fd.Name
					if name == "<anonymous>" {
						name = ""
					}
					return value.NewString("function " + name + "() { [native code] }"), nil
				}
			}
		}
		return value.NewString("function () { [native code] }"), nil
	})
	r.symMethod(proto, r.intr.SymbolHasInstance, "[Symbol.hasInstance]", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsCallable() || !arg(args, 0).IsObject() {
			return value.False, nil
		}
		protoV, err := m.GetPropertyValue(this, object.StringKey("prototype"))
		if err != nil || !protoV.IsObject() {
			return value.False, err
		}
		target := protoV.AsObject().(*object.Object)
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

func asCallable(m *vm.Machine, v value.Value) (*object.Object, error) {
	if !v.IsCallable() {
		return nil, m.ThrowTypeError("%s is not a function", v.TypeOf())
	}
	return v.AsObject().(*object.Object), nil
}

func rest(args []value.Value, from int) []value.Value {
	if from >= len(args) {
		return nil
	}
	return args[from:]
}

// sliceOfArrayLike reads the indexed elements of an array-like value.
func sliceOfArrayLike(m *vm.Machine, v value.Value) ([]value.Value, error) {
	lenV, err := m.GetPropertyValue(v, object.StringKey("length"))
	if err != nil {
		return nil, err
	}
	n, err := value.ToUint32(m, lenV)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, n)
	for i := uint32(0); i < n; i++ {
		el, err := m.GetPropertyValue(v, object.IndexKey(i))
		if err != nil {
			return nil, err
		}
		out[i] = el
	}
	return out, nil
}
