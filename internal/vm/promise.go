package vm

import (
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
)

// NewPromise allocates a pending promise against the realm's
// Promise.prototype.
func (m *Machine) NewPromise() *object.Object {
	p := object.NewPromiseObject(m.intr.PromiseProto)
	m.track(p)
	return p
}

func promiseData(p *object.Object) *object.PromiseData {
	pd, _ := p.Data().(*object.PromiseData)
	return pd
}

// IsPromise reports whether v is a promise object of this realm.
func IsPromise(v value.Value) (*object.Object, bool) {
	if !v.IsObject() {
		return nil, false
	}
	o, ok := v.AsObject().(*object.Object)
	if !ok || o.Kind() != object.KindPromise {
		return nil, false
	}
	return o, true
}

// ResolvePromise settles p with v, unwrapping thenables through the job
// queue per the promise-resolve algorithm.
func (m *Machine) ResolvePromise(p *object.Object, v value.Value) {
	pd := promiseData(p)
	if pd == nil || pd.State != object.PromisePending {
		return
	}
	if v.IsObject() {
		if then, err := m.getValueProperty(v, object.StringKey("then")); err == nil && then.IsCallable() {
			m.EnqueueJob(func() {
				settled := false
				resolveFn := m.NewNativeFunction("", 1, func(m *Machine, _ value.Value, args []value.Value) (value.Value, error) {
					if !settled {
						settled = true
						m.fulfillPromise(p, argOr(args, 0))
					}
					return value.Undef, nil
				})
				rejectFn := m.NewNativeFunction("", 1, func(m *Machine, _ value.Value, args []value.Value) (value.Value, error) {
					if !settled {
						settled = true
						m.RejectPromise(p, argOr(args, 0))
					}
					return value.Undef, nil
				})
				if _, err := m.CallValue(then, v, []value.Value{value.NewObject(resolveFn), value.NewObject(rejectFn)}); err != nil && !settled {
					settled = true
					m.RejectPromise(p, m.errorToValue(err))
				}
			})
			return
		}
	}
	m.fulfillPromise(p, v)
}

func argOr(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undef
}

func (m *Machine) fulfillPromise(p *object.Object, v value.Value) {
	pd := promiseData(p)
	if pd == nil || pd.State != object.PromisePending {
		return
	}
	pd.State = object.PromiseFulfilled
	pd.Result = v
	reactions := pd.Reactions
	pd.Reactions = nil
	for _, r := range reactions {
		m.scheduleReaction(r, v, true)
	}
}

// RejectPromise settles p as rejected with reason.
func (m *Machine) RejectPromise(p *object.Object, reason value.Value) {
	pd := promiseData(p)
	if pd == nil || pd.State != object.PromisePending {
		return
	}
	pd.State = object.PromiseRejected
	pd.Result = reason
	reactions := pd.Reactions
	pd.Reactions = nil
	for _, r := range reactions {
		m.scheduleReaction(r, reason, false)
	}
}

// scheduleReaction enqueues one reaction job: run the matching handler and
// settle the reaction's dependent promise with its outcome.
func (m *Machine) scheduleReaction(r object.PromiseReaction, v value.Value, fulfilled bool) {
	m.EnqueueJob(func() {
		handler := r.OnFulfilled
		if !fulfilled {
			handler = r.OnRejected
		}
		cap := r.ResultCapability
		if handler == nil {
			if cap == nil {
				return
			}
			if fulfilled {
				m.ResolvePromise(cap, v)
			} else {
				m.RejectPromise(cap, v)
			}
			return
		}
		res, err := m.Call(handler, value.Undef, []value.Value{v})
		if cap == nil {
			return
		}
		if err != nil {
			m.RejectPromise(cap, m.errorToValue(err))
			return
		}
		m.ResolvePromise(cap, res)
	})
}

// PerformThen implements Promise.prototype.then's core: register handlers
// (or schedule them immediately on a settled promise) and return the
// dependent promise.
func (m *Machine) PerformThen(p *object.Object, onFulfilled, onRejected *object.Object) *object.Object {
	result := m.NewPromise()
	pd := promiseData(p)
	if pd == nil {
		return result
	}
	pd.Handled = true
	reaction := object.PromiseReaction{OnFulfilled: onFulfilled, OnRejected: onRejected, ResultCapability: result}
	switch pd.State {
	case object.PromisePending:
		pd.Reactions = append(pd.Reactions, reaction)
	case object.PromiseFulfilled:
		m.scheduleReaction(reaction, pd.Result, true)
	case object.PromiseRejected:
		m.scheduleReaction(reaction, pd.Result, false)
	}
	return result
}

// promiseThenNative attaches Go continuations to a promise, used by the
// await machinery.
func (m *Machine) promiseThenNative(p *object.Object, onFulfilled, onRejected func(value.Value)) {
	fulfilledFn := m.NewNativeFunction("", 1, func(m *Machine, _ value.Value, args []value.Value) (value.Value, error) {
		onFulfilled(argOr(args, 0))
		return value.Undef, nil
	})
	rejectedFn := m.NewNativeFunction("", 1, func(m *Machine, _ value.Value, args []value.Value) (value.Value, error) {
		onRejected(argOr(args, 0))
		return value.Undef, nil
	})
	m.PerformThen(p, fulfilledFn, rejectedFn)
}

// PromiseThenFns is the exported form of promiseThenNative for realm
// built-ins (Promise.all and friends).
func (m *Machine) PromiseThenFns(p *object.Object, onFulfilled, onRejected func(value.Value)) {
	m.promiseThenNative(p, onFulfilled, onRejected)
}

// ErrorValue materializes a Go-side engine error as the JS value user code
// observes; the exported form of errorToValue.
func (m *Machine) ErrorValue(err error) value.Value { return m.errorToValue(err) }

// PromiseResolveValue implements PromiseResolve: pass an existing promise
// through, wrap anything else.
func (m *Machine) PromiseResolveValue(v value.Value) *object.Object {
	if p, ok := IsPromise(v); ok {
		return p
	}
	p := m.NewPromise()
	m.ResolvePromise(p, v)
	return p
}
