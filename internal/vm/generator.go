package vm

import (
	"github.com/go-jsvm/jsvm/internal/bytecode"
	"github.com/go-jsvm/jsvm/internal/environment"
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
)

// resumeMode is the completion kind a suspended frame is resumed with.
type resumeMode int

const (
	resumeNormal resumeMode = iota
	resumeReturn
	resumeThrow
)

// execState is GeneratorContext: everything a suspended frame needs to
// continue: the frame itself (IP, handler state, delegation), its operand-
// stack segment, and its environment-chain top. The same state drives plain
// generators, async functions, and async generators.
type execState struct {
	frame      *Frame
	savedStack []value.Value
	savedEnv   *environment.Record

	started bool
	done    bool

	fnObj    *object.Object
	block    *bytecode.CodeBlock
	captured *environment.Record
	this     value.Value
	args     []value.Value
	isAsync  bool

	// async-function driver state.
	outerPromise *object.Object

	// async-generator request queue.
	queue   []*agRequest
	running bool
}

type agRequest struct {
	mode    resumeMode
	v       value.Value
	promise *object.Object
}

// resumeExec restores (or starts) a suspended frame and runs it until the
// next suspension or completion. The saved registers, environment chain, and
// handler state come back exactly as serialized.
func (m *Machine) resumeExec(st *execState, mode resumeMode, v value.Value) (value.Value, *suspension, error) {
	if st.done {
		if mode == resumeThrow {
			return value.Undef, nil, Throw(v)
		}
		return v, nil, nil
	}

	savedTop := m.envs.Top()

	if !st.started {
		st.started = true
		if mode == resumeReturn {
			st.done = true
			return v, nil, nil
		}
		if mode == resumeThrow {
			st.done = true
			return value.Undef, nil, Throw(v)
		}
		m.envs.SetTop(st.captured)
		this := st.this
		if !st.block.Strict && !st.block.IsArrow && this.IsNullOrUndefined() {
			this = value.NewObject(m.intr.Global)
		}
		rec := m.envs.PushFunction(st.block.NumRegs, st.block.Scope, this, st.fnObj, nil, st.block.IsArrow)
		st.frame = &Frame{block: st.block, base: len(m.stack), env: rec, fn: st.fnObj, this: this, args: st.args}
		m.frames = append(m.frames, st.frame)
		m.initArguments(st.frame)
	} else {
		m.envs.SetTop(st.savedEnv)
		st.frame.base = len(m.stack)
		m.stack = append(m.stack, st.savedStack...)
		st.savedStack = nil
		m.frames = append(m.frames, st.frame)

		ok, res, susp, err := m.injectResume(st.frame, mode, v)
		if !ok {
			return m.settleExec(st, savedTop, res, susp, err)
		}
	}

	res, susp, err := m.dispatch(st.frame)
	return m.settleExec(st, savedTop, res, susp, err)
}

// settleExec captures or tears down the frame after a dispatch round.
func (m *Machine) settleExec(st *execState, savedTop *environment.Record, res value.Value, susp *suspension, err error) (value.Value, *suspension, error) {
	f := st.frame
	m.frames = m.frames[:len(m.frames)-1]
	if susp != nil {
		seg := make([]value.Value, len(m.stack)-f.base)
		copy(seg, m.stack[f.base:])
		st.savedStack = seg
		st.savedEnv = m.envs.Top()
		m.stack = m.stack[:f.base]
		m.envs.SetTop(savedTop)
		return value.Undef, susp, nil
	}
	st.done = true
	m.stack = m.stack[:f.base]
	m.envs.SetTop(savedTop)
	return res, nil, err
}

// injectResume feeds the resume completion into the suspended frame: the
// sent value becomes the Yield/Await expression's result, a throw unwinds
// from the suspension point, and a return routes through finallys. An
// active yield* delegation forwards the completion to the inner iterator
// first. ok=false means the frame completed without re-entering dispatch.
func (m *Machine) injectResume(f *Frame, mode resumeMode, v value.Value) (ok bool, res value.Value, susp *suspension, err error) {
	if f.delegate != nil {
		return m.injectDelegate(f, mode, v)
	}
	switch mode {
	case resumeNormal:
		m.push(v)
		return true, value.Undef, nil, nil
	case resumeThrow:
		if m.raise(f, f.lastOff, Throw(v)) {
			return true, value.Undef, nil, nil
		}
		return false, value.Undef, nil, Throw(v)
	default: // resumeReturn
		if m.routeReturn(f, f.lastOff, v) {
			return true, value.Undef, nil, nil
		}
		return false, v, nil, nil
	}
}

// injectDelegate forwards a resume completion into an active yield*
// delegation.
func (m *Machine) injectDelegate(f *Frame, mode resumeMode, v value.Value) (ok bool, res value.Value, susp *suspension, err error) {
	rec := f.delegate
	switch mode {
	case resumeNormal:
		stepV, done, err := m.iterStep(rec, []value.Value{v})
		if err != nil {
			f.delegate = nil
			if m.raise(f, f.lastOff, err) {
				return true, value.Undef, nil, nil
			}
			return false, value.Undef, nil, err
		}
		if done {
			f.delegate = nil
			m.push(stepV)
			return true, value.Undef, nil, nil
		}
		return false, value.Undef, &suspension{kind: suspendYield, val: stepV}, nil
	case resumeThrow:
		stepV, done, called, err := m.callIterMethod(rec, "throw", v)
		if err != nil {
			f.delegate = nil
			if m.raise(f, f.lastOff, err) {
				return true, value.Undef, nil, nil
			}
			return false, value.Undef, nil, err
		}
		if !called {
			f.delegate = nil
			m.iterClose(rec)
			terr := m.ThrowTypeError("The iterator does not provide a 'throw' method")
			if m.raise(f, f.lastOff, terr) {
				return true, value.Undef, nil, nil
			}
			return false, value.Undef, nil, terr
		}
		if done {
			f.delegate = nil
			m.push(stepV)
			return true, value.Undef, nil, nil
		}
		return false, value.Undef, &suspension{kind: suspendYield, val: stepV}, nil
	default: // resumeReturn
		f.delegate = nil
		m.iterClose(rec)
		if m.routeReturn(f, f.lastOff, v) {
			return true, value.Undef, nil, nil
		}
		return false, v, nil, nil
	}
}

// settleExec's suspension path returns out of resumeExec, so a delegation
// step that suspends again must flow through it; injectDelegate therefore
// returns susp with ok=false and resumeExec short-circuits.

// ---- generator objects ----

// newGeneratorObject implements a generator function's [[Call]]: allocate
// the generator with the function's prototype property and a fresh, not-yet-
// started execution state.
func (m *Machine) newGeneratorObject(fnObj *object.Object, block *bytecode.CodeBlock, captured *environment.Record, this value.Value, args []value.Value) value.Value {
	proto := m.intr.GeneratorProto
	if block.IsAsync {
		proto = m.intr.AsyncGeneratorProto
	}
	if protoV, err := m.getValueProperty(value.NewObject(fnObj), object.StringKey("prototype")); err == nil && protoV.IsObject() {
		proto = protoV.AsObject().(*object.Object)
	}
	gobj := object.NewGeneratorObject(proto, block.IsAsync)
	gd := gobj.Data().(*object.GeneratorData)
	gd.Frame = &execState{fnObj: fnObj, block: block, captured: captured, this: this, args: args, isAsync: block.IsAsync}
	m.track(gobj)
	return value.NewObject(gobj)
}

// generatorState extracts the execution state of a generator object.
func generatorState(gobj *object.Object) (*object.GeneratorData, *execState, bool) {
	gd, ok := gobj.Data().(*object.GeneratorData)
	if !ok {
		return nil, nil, false
	}
	st, ok := gd.Frame.(*execState)
	return gd, st, ok
}

// NewIterResult builds a {value, done} iterator-result object.
func (m *Machine) NewIterResult(v value.Value, done bool) *object.Object {
	o := m.NewPlainObject()
	o.DefineOwnPropertyRaw(object.StringKey("value"), object.PropertyDescriptor{
		Value: v, Writable: true, Enumerable: true, Configurable: true,
	})
	o.DefineOwnPropertyRaw(object.StringKey("done"), object.PropertyDescriptor{
		Value: value.NewBool(done), Writable: true, Enumerable: true, Configurable: true,
	})
	return o
}

// ResumeGenerator drives a synchronous generator's next/return/throw,
// returning the iterator-result object.
func (m *Machine) ResumeGenerator(gobj *object.Object, mode resumeMode, v value.Value) (value.Value, error) {
	gd, st, ok := generatorState(gobj)
	if !ok {
		return value.Undef, m.ThrowTypeError("not a generator object")
	}
	if gd.State == object.GeneratorExecuting {
		return value.Undef, m.ThrowTypeError("generator is already running")
	}
	if gd.State == object.GeneratorCompleted {
		switch mode {
		case resumeThrow:
			return value.Undef, Throw(v)
		case resumeReturn:
			return value.NewObject(m.NewIterResult(v, true)), nil
		default:
			return value.NewObject(m.NewIterResult(value.Undef, true)), nil
		}
	}
	gd.State = object.GeneratorExecuting
	res, susp, err := m.resumeExec(st, mode, v)
	if err != nil {
		gd.State = object.GeneratorCompleted
		return value.Undef, err
	}
	if susp != nil {
		gd.State = object.GeneratorSuspendedYield
		return value.NewObject(m.NewIterResult(susp.val, false)), nil
	}
	gd.State = object.GeneratorCompleted
	return value.NewObject(m.NewIterResult(res, true)), nil
}

// GeneratorNextValue is a convenience for host/native callers: step the
// generator and return (value, done).
func (m *Machine) GeneratorNextValue(gobj *object.Object, mode resumeMode, v value.Value) (value.Value, bool, error) {
	resV, err := m.ResumeGenerator(gobj, mode, v)
	if err != nil {
		return value.Undef, false, err
	}
	doneV, err := m.getValueProperty(resV, object.StringKey("done"))
	if err != nil {
		return value.Undef, false, err
	}
	val, err := m.getValueProperty(resV, object.StringKey("value"))
	return val, value.ToBoolean(doneV), err
}

// ResumeModeNormal/Return/Throw expose the resume kinds to the realm's
// generator-prototype natives.
const (
	ResumeModeNormal = resumeNormal
	ResumeModeReturn = resumeReturn
	ResumeModeThrow  = resumeThrow
)

// ---- async functions ----

// callAsyncFunction implements an async function's [[Call]]: run until the
// first await or completion, settling the returned promise from the job
// queue thereafter.
func (m *Machine) callAsyncFunction(fnObj *object.Object, block *bytecode.CodeBlock, captured *environment.Record, this value.Value, args []value.Value) value.Value {
	p := m.NewPromise()
	st := &execState{fnObj: fnObj, block: block, captured: captured, this: this, args: args, isAsync: true, outerPromise: p}
	m.stepAsync(st, resumeNormal, value.Undef)
	return value.NewObject(p)
}

// stepAsync advances an async function frame one suspension at a time: each
// await chains fulfilled/rejected continuations that re-enter here with
// Normal(v) or Throw(e).
func (m *Machine) stepAsync(st *execState, mode resumeMode, v value.Value) {
	res, susp, err := m.resumeExec(st, mode, v)
	if susp != nil {
		inner := m.PromiseResolveValue(susp.val)
		m.promiseThenNative(inner,
			func(val value.Value) { m.stepAsync(st, resumeNormal, val) },
			func(e value.Value) { m.stepAsync(st, resumeThrow, e) })
		return
	}
	if err != nil {
		m.RejectPromise(st.outerPromise, m.errorToValue(err))
		return
	}
	m.ResolvePromise(st.outerPromise, res)
}

// ---- async generators ----

// AsyncGeneratorEnqueue queues a next/return/throw request against an async
// generator and returns the promise that settles when the request is served;
// requests are served strictly FIFO.
func (m *Machine) AsyncGeneratorEnqueue(gobj *object.Object, mode resumeMode, v value.Value) (value.Value, error) {
	gd, st, ok := generatorState(gobj)
	if !ok {
		return value.Undef, m.ThrowTypeError("not an async generator object")
	}
	p := m.NewPromise()
	st.queue = append(st.queue, &agRequest{mode: mode, v: v, promise: p})
	m.agDrain(gd, st)
	return value.NewObject(p), nil
}

// agDrain serves queued requests while the generator is not mid-step.
func (m *Machine) agDrain(gd *object.GeneratorData, st *execState) {
	for !st.running && len(st.queue) > 0 {
		req := st.queue[0]
		st.queue = st.queue[1:]
		if gd.State == object.GeneratorCompleted || (st.done && st.started) {
			m.settleAGRequestDone(req)
			continue
		}
		st.running = true
		m.agRun(gd, st, req, req.mode, req.v)
	}
}

func (m *Machine) settleAGRequestDone(req *agRequest) {
	switch req.mode {
	case resumeThrow:
		m.RejectPromise(req.promise, req.v)
	case resumeReturn:
		m.ResolvePromise(req.promise, value.NewObject(m.NewIterResult(req.v, true)))
	default:
		m.ResolvePromise(req.promise, value.NewObject(m.NewIterResult(value.Undef, true)))
	}
}

// agRun executes one request, re-entering itself through the job queue for
// any awaits the body performs before its next yield.
func (m *Machine) agRun(gd *object.GeneratorData, st *execState, req *agRequest, mode resumeMode, v value.Value) {
	gd.State = object.GeneratorExecuting
	res, susp, err := m.resumeExec(st, mode, v)
	switch {
	case susp != nil && susp.kind == suspendAwait:
		inner := m.PromiseResolveValue(susp.val)
		m.promiseThenNative(inner,
			func(val value.Value) { m.agRun(gd, st, req, resumeNormal, val) },
			func(e value.Value) { m.agRun(gd, st, req, resumeThrow, e) })
	case susp != nil:
		gd.State = object.GeneratorSuspendedYield
		st.running = false
		m.ResolvePromise(req.promise, value.NewObject(m.NewIterResult(susp.val, false)))
		m.agDrain(gd, st)
	case err != nil:
		gd.State = object.GeneratorCompleted
		st.running = false
		m.RejectPromise(req.promise, m.errorToValue(err))
		m.agDrain(gd, st)
	default:
		gd.State = object.GeneratorCompleted
		st.running = false
		m.ResolvePromise(req.promise, value.NewObject(m.NewIterResult(res, true)))
		m.agDrain(gd, st)
	}
}
