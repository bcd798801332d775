package vm

import (
	"github.com/go-jsvm/jsvm/internal/bytecode"
	"github.com/go-jsvm/jsvm/internal/environment"
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
)

// Frame is one call frame: the code block, instruction pointer, register-base
// into the machine's operand stack, the environment record at entry,
// this/function/new.target, and the finally-routing state the unwinder uses.
type Frame struct {
	block *bytecode.CodeBlock
	ip    int
	base  int

	env      *environment.Record
	envDepth int // environments pushed by this frame's own code

	fn        *object.Object
	this      value.Value
	args      []value.Value
	newTarget *object.Object

	// routed carries a non-normal completion into a finally body; the
	// FinallyStart/FinallyEnd pair stacks it so nested finallys re-raise in the
	// right order.
	routed          *routedCompletion
	finallyPendings []*routedCompletion

	// delegate is the active yield* iterator, if any.
	delegate *iterRecord

	lastOff int
}

type completionKind int

const (
	compThrow completionKind = iota
	compReturn
)

type routedCompletion struct {
	kind completionKind
	val  value.Value
	err  error
}

// callBytecode runs a compiled function body to completion in a fresh frame:
// it swaps in the closure's captured environment chain, pushes a function
// environment, binds `arguments`, and dispatches.
func (m *Machine) callBytecode(fnObj *object.Object, block *bytecode.CodeBlock, captured *environment.Record, this value.Value, args []value.Value, newTarget *object.Object) (value.Value, error) {
	if m.depth >= m.opts.RecursionLimit {
		return value.Undef, NewError(ErrRange, "Maximum call stack size exceeded")
	}
	m.depth++
	defer func() { m.depth-- }()

	savedTop := m.envs.Top()
	m.envs.SetTop(captured)
	if !block.Strict && !block.IsArrow && this.IsNullOrUndefined() {
		this = value.NewObject(m.intr.Global)
	}
	rec := m.envs.PushFunction(block.NumRegs, block.Scope, this, fnObj, newTarget, block.IsArrow)
	f := &Frame{block: block, base: len(m.stack), env: rec, fn: fnObj, this: this, args: args, newTarget: newTarget}
	m.frames = append(m.frames, f)
	m.initArguments(f)

	res, _, err := m.dispatch(f)

	m.frames = m.frames[:len(m.frames)-1]
	m.stack = m.stack[:f.base]
	m.envs.SetTop(savedTop)
	return res, err
}

// initArguments materializes the `arguments` object into the slot the
// compiler reserved (unmapped, strict-style: a snapshot of the call's
// arguments, not aliases of the parameter bindings).
func (m *Machine) initArguments(f *Frame) {
	if f.block.SelfIndex >= 0 && f.fn != nil {
		m.envs.PutLexicalValue(f.env, 0, f.block.SelfIndex, value.NewObject(f.fn))
	}
	if f.block.ArgumentsIndex < 0 {
		return
	}
	argsObj := object.NewArgumentsObject(m.intr.ObjectProto, nil)
	for i, a := range f.args {
		argsObj.DefineOwnPropertyRaw(object.IndexKey(uint32(i)), object.PropertyDescriptor{
			Value: a, Writable: true, Enumerable: true, Configurable: true,
		})
	}
	argsObj.DefineOwnPropertyRaw(object.StringKey("length"), object.PropertyDescriptor{
		Value: value.NewInt32(int32(len(f.args))), Writable: true, Configurable: true,
	})
	m.track(argsObj)
	m.envs.PutLexicalValue(f.env, 0, f.block.ArgumentsIndex, value.NewObject(argsObj))
}

// makeClosure builds the function object for a GetFunction/GetGenerator
// operand: a plain closure, an async-function wrapper, or a
// generator-object factory, per the inner CodeBlock's flags.
func (m *Machine) makeClosure(block *bytecode.CodeBlock) *object.Object {
	captured := m.envs.Top()
	data := &object.FunctionData{Name: block.Name, IsArrow: block.IsArrow, Captured: captured}
	var fnObj *object.Object

	switch {
	case block.IsGenerator:
		data.Call = func(_ object.Context, this value.Value, args []value.Value, _ *object.Object) (value.Value, error) {
			return m.newGeneratorObject(fnObj, block, captured, this, args), nil
		}
	case block.IsAsync:
		data.Call = func(_ object.Context, this value.Value, args []value.Value, _ *object.Object) (value.Value, error) {
			return m.callAsyncFunction(fnObj, block, captured, this, args), nil
		}
	default:
		data.Call = func(_ object.Context, this value.Value, args []value.Value, _ *object.Object) (value.Value, error) {
			return m.callBytecode(fnObj, block, captured, this, args, nil)
		}
		data.Construct = func(_ object.Context, _ value.Value, args []value.Value, newTarget *object.Object) (value.Value, error) {
			o, err := m.constructBytecode(fnObj, block, captured, args, newTarget)
			if err != nil {
				return value.Undef, err
			}
			return value.NewObject(o), nil
		}
	}

	fnObj = object.NewFunction(m.intr.FunctionProto, data)
	defineFunctionMeta(fnObj, block.Name, len(block.Params))
	if !block.IsArrow && (!block.IsAsync || block.IsGenerator) {
		protoProto := m.intr.ObjectProto
		if block.IsGenerator {
			protoProto = m.intr.GeneratorProto
			if block.IsAsync {
				protoProto = m.intr.AsyncGeneratorProto
			}
		}
		proto := object.New(protoProto)
		if !block.IsGenerator {
			proto.DefineOwnPropertyRaw(object.StringKey("constructor"), object.PropertyDescriptor{
				Value: value.NewObject(fnObj), Writable: true, Configurable: true,
			})
		}
		fnObj.DefineOwnPropertyRaw(object.StringKey("prototype"), object.PropertyDescriptor{
			Value: value.NewObject(proto), Writable: true,
		})
		m.track(proto)
	}
	m.track(fnObj)
	return fnObj
}

// constructBytecode implements [[Construct]] for compiled functions:
// allocate the instance from the constructor's prototype property, run the
// body, and prefer an explicitly returned object; a derived constructor's
// instance comes from super via the this-binding instead.
func (m *Machine) constructBytecode(fnObj *object.Object, block *bytecode.CodeBlock, captured *environment.Record, args []value.Value, newTarget *object.Object) (*object.Object, error) {
	_, derived := fnObj.Slot("SuperClass")

	var this value.Value
	var instance *object.Object
	if derived {
		this = value.Undef
	} else {
		// The instance's prototype comes from new.target so subclass
		// instances sit on the subclass's prototype chain.
		protoSrc := fnObj
		if newTarget != nil {
			protoSrc = newTarget
		}
		protoV, err := m.getValueProperty(value.NewObject(protoSrc), object.StringKey("prototype"))
		if err != nil {
			return nil, err
		}
		proto := m.intr.ObjectProto
		if protoV.IsObject() {
			proto = protoV.AsObject().(*object.Object)
		}
		instance = object.New(proto)
		m.track(instance)
		this = value.NewObject(instance)
	}

	if m.depth >= m.opts.RecursionLimit {
		return nil, NewError(ErrRange, "Maximum call stack size exceeded")
	}
	m.depth++
	defer func() { m.depth-- }()

	savedTop := m.envs.Top()
	m.envs.SetTop(captured)
	rec := m.envs.PushFunction(block.NumRegs, block.Scope, this, fnObj, newTarget, false)
	f := &Frame{block: block, base: len(m.stack), env: rec, fn: fnObj, this: this, args: args, newTarget: newTarget}
	m.frames = append(m.frames, f)
	m.initArguments(f)

	res, _, err := m.dispatch(f)

	m.frames = m.frames[:len(m.frames)-1]
	m.stack = m.stack[:f.base]
	if err != nil {
		m.envs.SetTop(savedTop)
		return nil, err
	}
	if res.IsObject() {
		m.envs.SetTop(savedTop)
		return res.AsObject().(*object.Object), nil
	}
	if derived {
		boundThis, terr := m.envs.GetThisBinding(rec)
		m.envs.SetTop(savedTop)
		if terr != nil {
			return nil, terr
		}
		if !boundThis.IsObject() {
			return nil, m.ThrowReferenceError("must call super constructor in derived class before returning")
		}
		return boundThis.AsObject().(*object.Object), nil
	}
	m.envs.SetTop(savedTop)
	return instance, nil
}

// wireSuperclass links a derived class constructor to its parent: the
// constructor-to-constructor and prototype-to-prototype chains, plus the
// internal slots SuperCall and the this-binding discipline consult.
func (m *Machine) wireSuperclass(child *object.Object, parentV value.Value) error {
	if !parentV.IsObject() {
		return m.ThrowTypeError("class extends value is not a constructor")
	}
	parent := parentV.AsObject().(*object.Object)
	if !parent.IsConstructor() {
		return m.ThrowTypeError("class extends value is not a constructor")
	}
	child.SetSlot("SuperClass", parentV)
	child.SetSlot("ConstructorKind", value.NewString("derived"))
	child.SetPrototypeRaw(parent)
	childProtoV, err := m.getValueProperty(value.NewObject(child), object.StringKey("prototype"))
	if err != nil {
		return err
	}
	parentProtoV, err := m.getValueProperty(parentV, object.StringKey("prototype"))
	if err != nil {
		return err
	}
	if childProtoV.IsObject() && parentProtoV.IsObject() {
		childProtoV.AsObject().(*object.Object).SetPrototypeRaw(parentProtoV.AsObject().(*object.Object))
	}
	return nil
}
