package realm

import (
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

func (r *Realm) installPromise() {
	proto := r.intr.PromiseProto

	promiseCtor := r.ctor("Promise", 1, proto,
		func(m *vm.Machine, _ value.Value, _ []value.Value) (value.Value, error) {
			return value.Undef, m.ThrowTypeError("Promise constructor cannot be invoked without 'new'")
		},
		func(m *vm.Machine, args []value.Value, _ *object.Object) (*object.Object, error) {
			executor := arg(args, 0)
			if !executor.IsCallable() {
				return nil, m.ThrowTypeError("Promise resolver is not a function")
			}
			p := m.NewPromise()
			resolveFn := m.NewNativeFunction("resolve", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
				m.ResolvePromise(p, arg(args, 0))
				return value.Undef, nil
			})
			rejectFn := m.NewNativeFunction("reject", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
				m.RejectPromise(p, arg(args, 0))
				return value.Undef, nil
			})
			if _, err := m.CallValue(executor, value.Undef, []value.Value{value.NewObject(resolveFn), value.NewObject(rejectFn)}); err != nil {
				m.RejectPromise(p, m.ErrorValue(err))
			}
			return p, nil
		})

	r.method(promiseCtor, "resolve", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		return value.NewObject(m.PromiseResolveValue(arg(args, 0))), nil
	})
	r.method(promiseCtor, "reject", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		p := m.NewPromise()
		m.RejectPromise(p, arg(args, 0))
		return value.NewObject(p), nil
	})
	r.method(promiseCtor, "all", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		result := m.NewPromise()
		var results []value.Value
		pending := 0
		closed := false
		settleIfDone := func() {
			if closed && pending == 0 {
				m.ResolvePromise(result, value.NewObject(m.NewArrayOf(results...)))
			}
		}
		err := m.IterateAll(arg(args, 0), func(el value.Value) error {
			idx := len(results)
			results = append(results, value.Undef)
			pending++
			p := m.PromiseResolveValue(el)
			m.PromiseThenFns(p,
				func(v value.Value) {
					results[idx] = v
					pending--
					settleIfDone()
				},
				func(e value.Value) {
					m.RejectPromise(result, e)
				})
			return nil
		})
		if err != nil {
			return value.Undef, err
		}
		closed = true
		settleIfDone()
		return value.NewObject(result), nil
	})
	r.method(promiseCtor, "race", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		result := m.NewPromise()
		err := m.IterateAll(arg(args, 0), func(el value.Value) error {
			p := m.PromiseResolveValue(el)
			m.PromiseThenFns(p,
				func(v value.Value) { m.ResolvePromise(result, v) },
				func(e value.Value) { m.RejectPromise(result, e) })
			return nil
		})
		if err != nil {
			return value.Undef, err
		}
		return value.NewObject(result), nil
	})

	r.method(proto, "then", 2, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := vm.IsPromise(this)
		if !ok {
			return value.Undef, m.ThrowTypeError("Promise.prototype.then called on a non-promise")
		}
		var onF, onR *object.Object
		if fv := arg(args, 0); fv.IsCallable() {
			onF = fv.AsObject().(*object.Object)
		}
		if rv := arg(args, 1); rv.IsCallable() {
			onR = rv.AsObject().(*object.Object)
		}
		return value.NewObject(m.PerformThen(p, onF, onR)), nil
	})
	r.method(proto, "catch", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := vm.IsPromise(this)
		if !ok {
			return value.Undef, m.ThrowTypeError("Promise.prototype.catch called on a non-promise")
		}
		var onR *object.Object
		if rv := arg(args, 0); rv.IsCallable() {
			onR = rv.AsObject().(*object.Object)
		}
		return value.NewObject(m.PerformThen(p, nil, onR)), nil
	})
	r.method(proto, "finally", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := vm.IsPromise(this)
		if !ok {
			return value.Undef, m.ThrowTypeError("Promise.prototype.finally called on a non-promise")
		}
		cb := arg(args, 0)
		wrap := func(passThrough func(value.Value) (value.Value, error)) *object.Object {
			return m.NewNativeFunction("", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
				if cb.IsCallable() {
					if _, err := m.CallValue(cb, value.Undef, nil); err != nil {
						return value.Undef, err
					}
				}
				return passThrough(arg(args, 0))
			})
		}
		onF := wrap(func(v value.Value) (value.Value, error) { return v, nil })
		onR := wrap(func(e value.Value) (value.Value, error) { return value.Undef, vm.Throw(e) })
		return value.NewObject(m.PerformThen(p, onF, onR)), nil
	})
}
