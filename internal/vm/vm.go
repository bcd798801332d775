// Package vm implements the bytecode interpreter: the register file, the call-
// frame stack, the dispatch loop with its try/catch/finally unwinder, and
// the generator/async suspend-resume machinery.
package vm

import (
	"io"
	"math"
	"strconv"

	"github.com/go-jsvm/jsvm/internal/bytecode"
	"github.com/go-jsvm/jsvm/internal/environment"
	"github.com/go-jsvm/jsvm/internal/gc"
	"github.com/go-jsvm/jsvm/internal/jsstring"
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
)

type Options struct {
	// RecursionLimit bounds the call-frame depth; exceeding it raises a
	// RangeError.
	RecursionLimit int
	// CanBlock permits Atomics.wait to suspend the host thread; when false it
	// throws TypeError.
	CanBlock bool
	// Trace, when non-nil, receives a per-instruction disassembly trace.
	Trace io.Writer
	// GCThreshold is the number of tracked allocations between automatic
	// collections; zero picks a default.
	GCThreshold int
}

// NativeFunc is the native-function signature: `(this, args, ctx) ->
// JsResult<Value>` with the Machine as ctx.
type NativeFunc func(m *Machine, this value.Value, args []value.Value) (value.Value, error)

// Machine is the per-realm virtual machine: operand stack, call frames, the
// environment stack, the job queue, and the GC heap.
type Machine struct {
	stack  []value.Value
	frames []*Frame
	envs   *environment.Stack
	intr   *Intrinsics
	heap   *gc.Heap
	opts   Options

	jobs  []func()
	depth int

	// wrapPrimitive boxes a primitive per to_object; installed by the realm
	// since boxing needs the realm's boxed-primitive constructors.
	wrapPrimitive func(v value.Value) (value.Value, error)

	allocs int
}

// New creates a Machine. Intrinsics and the global environment are
// installed afterwards by the realm (SetIntrinsics / InitGlobal).
func New(opts Options) *Machine {
	if opts.RecursionLimit <= 0 {
		opts.RecursionLimit = 1000
	}
	if opts.GCThreshold <= 0 {
		opts.GCThreshold = 1 << 14
	}
	return &Machine{heap: gc.NewHeap(), opts: opts}
}

// SetIntrinsics installs the realm's intrinsics table; must be called
// before any code runs.
func (m *Machine) SetIntrinsics(intr *Intrinsics) { m.intr = intr }

// Intrinsics returns the realm's intrinsics table.
func (m *Machine) Intrinsics() *Intrinsics { return m.intr }

// InitGlobal roots the environment stack at the realm's global object.
func (m *Machine) InitGlobal(global *object.Object) {
	m.intr.Global = global
	m.envs = environment.NewStack(global)
	m.track(global)
}

// SetPrimitiveWrapper installs the realm's to_object boxing hook.
func (m *Machine) SetPrimitiveWrapper(f func(v value.Value) (value.Value, error)) {
	m.wrapPrimitive = f
}

// CanBlock reports whether the host opted into blocking Atomics.wait.
func (m *Machine) CanBlock() bool { return m.opts.CanBlock }

// Heap returns the machine's GC heap.
func (m *Machine) Heap() *gc.Heap { return m.heap }

// EnvStack returns the runtime environment stack.
func (m *Machine) EnvStack() *environment.Stack { return m.envs }

// track registers a freshly allocated cell with the heap and triggers a
// collection at the between-opcode safe point once enough cells piled up.
func (m *Machine) track(c gc.Cell) {
	if c == nil {
		return
	}
	m.heap.Alloc(c)
	m.allocs++
}

// Collect runs a full mark-sweep pass with the machine's live roots.
func (m *Machine) Collect() {
	m.heap.Collect(m)
	m.allocs = 0
}

// GCRoots implements gc.RootSource: the register file, every live call frame
// (this, function, arguments), the environment chain, and the realm's
// intrinsics.
func (m *Machine) GCRoots() []gc.Cell {
	var roots []gc.Cell
	addValue := func(v value.Value) {
		if v.IsObject() {
			if o, ok := v.AsObject().(*object.Object); ok {
				roots = append(roots, o)
			}
		}
	}
	for _, v := range m.stack {
		addValue(v)
	}
	for _, f := range m.frames {
		addValue(f.this)
		if f.fn != nil {
			roots = append(roots, f.fn)
		}
		if f.newTarget != nil {
			roots = append(roots, f.newTarget)
		}
		for _, a := range f.args {
			addValue(a)
		}
		if f.env != nil {
			roots = append(roots, f.env)
		}
	}
	if m.envs != nil && m.envs.Top() != nil {
		roots = append(roots, m.envs.Top())
	}
	if m.intr != nil {
		for _, o := range []*object.Object{
			m.intr.ObjectProto, m.intr.FunctionProto, m.intr.ArrayProto,
			m.intr.StringProto, m.intr.NumberProto, m.intr.BooleanProto,
			m.intr.SymbolProto, m.intr.BigIntProto, m.intr.PromiseProto,
			m.intr.GeneratorProto, m.intr.AsyncGeneratorProto,
			m.intr.IteratorProto, m.intr.Global,
		} {
			if o != nil {
				roots = append(roots, o)
			}
		}
		for _, o := range m.intr.ErrorProtos {
			if o != nil {
				roots = append(roots, o)
			}
		}
	}
	return roots
}

// ---- operand stack ----

func (m *Machine) push(v value.Value) { m.stack = append(m.stack, v) }

func (m *Machine) pop() value.Value {
	n := len(m.stack) - 1
	v := m.stack[n]
	m.stack = m.stack[:n]
	return v
}

func (m *Machine) peek(depth int) value.Value {
	return m.stack[len(m.stack)-1-depth]
}

func (m *Machine) popN(n int) []value.Value {
	at := len(m.stack) - n
	out := make([]value.Value, n)
	copy(out, m.stack[at:])
	m.stack = m.stack[:at]
	return out
}

// ---- job queue ----

// EnqueueJob appends a microtask.
func (m *Machine) EnqueueJob(job func()) { m.jobs = append(m.jobs, job) }

// DrainJobs runs queued microtasks to completion, including any they
// enqueue, in strict FIFO order.
func (m *Machine) DrainJobs() {
	for len(m.jobs) > 0 {
		job := m.jobs[0]
		m.jobs = m.jobs[1:]
		job()
	}
}

// ---- context implementations ----

// Call implements object.Context: invoke fn's [[Call]].
func (m *Machine) Call(fn *object.Object, this value.Value, args []value.Value) (value.Value, error) {
	if fn == nil || fn.Methods().Call == nil {
		return value.Undef, m.ThrowTypeError("value is not a function")
	}
	return fn.Methods().Call(fn, m, this, args)
}

// CallValue invokes a callable Value; the host-facing variant of Call.
func (m *Machine) CallValue(fn value.Value, this value.Value, args []value.Value) (value.Value, error) {
	if !fn.IsCallable() {
		return value.Undef, m.ThrowTypeError("%s is not a function", fn.TypeOf())
	}
	return m.Call(fn.AsObject().(*object.Object), this, args)
}

// Construct invokes fn's [[Construct]] with itself as new.target.
func (m *Machine) Construct(fn *object.Object, args []value.Value) (*object.Object, error) {
	if fn == nil || fn.Methods().Construct == nil {
		return nil, m.ThrowTypeError("value is not a constructor")
	}
	return fn.Methods().Construct(fn, m, args, fn)
}

// CallMethod implements value.Context: obj[name](args...) with obj as
// receiver, used by ToPrimitive.
func (m *Machine) CallMethod(obj value.HeapObject, name string, args []value.Value) (value.Value, error) {
	o, ok := obj.(*object.Object)
	if !ok {
		return value.Undef, m.ThrowTypeError("not an engine object")
	}
	fn, err := o.Methods().Get(o, m, m.keyForName(name), value.NewObject(o))
	if err != nil {
		return value.Undef, err
	}
	return m.CallValue(fn, value.NewObject(o), args)
}

// GetProperty implements value.Context's name-based property read.
func (m *Machine) GetProperty(obj value.HeapObject, name string) (value.Value, error) {
	o, ok := obj.(*object.Object)
	if !ok {
		return value.Undef, nil
	}
	return o.Methods().Get(o, m, m.keyForName(name), value.NewObject(o))
}

// SymbolToPrimitive implements value.Context: the spelling keyForName maps
// to the realm's @@toPrimitive symbol.
func (m *Machine) SymbolToPrimitive() string { return "@@toPrimitive" }

// envCtx adapts the Machine to environment.Ctx (whose GetProperty signature
// differs from value.Context's).
type envCtx struct{ m *Machine }

func (e envCtx) HasProperty(o *object.Object, key object.PropertyKey) (bool, error) {
	return o.Methods().HasProperty(o, e.m, key)
}

func (e envCtx) GetProperty(o *object.Object, key object.PropertyKey) (value.Value, error) {
	return o.Methods().Get(o, e.m, key, value.NewObject(o))
}

func (e envCtx) SetProperty(o *object.Object, key object.PropertyKey, v value.Value) error {
	_, err := o.Methods().Set(o, e.m, key, v, value.NewObject(o))
	return err
}

func (e envCtx) DeleteProperty(o *object.Object, key object.PropertyKey) (bool, error) {
	return o.Methods().Delete(o, e.m, key)
}

func (e envCtx) HasUnscopables(o *object.Object, name string) bool {
	uns, err := o.Methods().Get(o, e.m, object.SymbolKey(e.m.intr.SymbolUnscopables), value.NewObject(o))
	if err != nil || !uns.IsObject() {
		return false
	}
	uo := uns.AsObject().(*object.Object)
	v, err := uo.Methods().Get(uo, e.m, object.StringKey(name), uns)
	return err == nil && value.ToBoolean(v)
}

// ---- generic property access over Values ----

// getValueProperty reads v[key], boxing primitives against the realm's
// prototypes without materializing a wrapper object (the receiver stays the
// primitive, as to_object-free member access requires).
func (m *Machine) getValueProperty(v value.Value, key object.PropertyKey) (value.Value, error) {
	if v.IsNullOrUndefined() {
		return value.Undef, m.ThrowTypeError("Cannot read properties of %s (reading '%s')", v.TypeOf(), key.String())
	}
	if v.IsObject() {
		o := v.AsObject().(*object.Object)
		return o.Methods().Get(o, m, key, v)
	}
	if v.IsString() {
		s := v.AsString()
		if !key.IsSymbol() && !key.IsIndex() && key.String() == "length" {
			return value.NewInt32(int32(jsstring.Length(s))), nil
		}
		if key.IsIndex() {
			if c := jsstring.CharAt(s, int(key.Index())); c != "" {
				return value.NewString(c), nil
			}
			return value.Undef, nil
		}
	}
	proto := m.primitiveProto(v)
	if proto == nil {
		return value.Undef, nil
	}
	return proto.Methods().Get(proto, m, key, v)
}

func (m *Machine) primitiveProto(v value.Value) *object.Object {
	switch v.Kind() {
	case value.String:
		return m.intr.StringProto
	case value.Int32, value.Float64:
		return m.intr.NumberProto
	case value.Bool:
		return m.intr.BooleanProto
	case value.SymbolKind:
		return m.intr.SymbolProto
	case value.BigInt:
		return m.intr.BigIntProto
	default:
		return nil
	}
}

// setValueProperty writes v[key] = val. Writes to primitives are silently
// dropped, matching non-strict sloppy-mode semantics.
func (m *Machine) setValueProperty(v value.Value, key object.PropertyKey, val value.Value) error {
	if v.IsNullOrUndefined() {
		return m.ThrowTypeError("Cannot set properties of %s", v.TypeOf())
	}
	if !v.IsObject() {
		return nil
	}
	o := v.AsObject().(*object.Object)
	_, err := o.Methods().Set(o, m, key, val, v)
	return err
}

// toPropertyKey converts a runtime value to a PropertyKey, canonicalizing
// integer-like values and strings into index keys.
func (m *Machine) toPropertyKey(v value.Value) (object.PropertyKey, error) {
	if v.IsSymbol() {
		return object.SymbolKey(v.AsSymbol()), nil
	}
	if i, ok := v.AsInt32Fast(); ok && i >= 0 {
		return object.IndexKey(uint32(i)), nil
	}
	if v.Kind() == value.Float64 {
		f := v.AsFloat64()
		if f == math.Trunc(f) && f >= 0 && f < 4294967295 {
			return object.IndexKey(uint32(f)), nil
		}
	}
	s, err := value.ToStringValue(m, v)
	if err != nil {
		return object.PropertyKey{}, err
	}
	return stringToKey(s), nil
}

// stringToKey canonicalizes a textual key, turning canonical array-index
// spellings into index keys so "0" and 0 address the same property.
func stringToKey(s string) object.PropertyKey {
	if n, err := strconv.ParseUint(s, 10, 32); err == nil && n < 4294967295 {
		if s == strconv.FormatUint(n, 10) {
			return object.IndexKey(uint32(n))
		}
	}
	return object.StringKey(s)
}

// ToPropertyKeyValue is the exported form of toPropertyKey for the realm's
// built-ins (Object.defineProperty, Reflect-style helpers).
func (m *Machine) ToPropertyKeyValue(v value.Value) (object.PropertyKey, error) {
	return m.toPropertyKey(v)
}

// GetPropertyValue reads v[key] with primitive boxing; the exported form
// of the VM's member-access path for realm built-ins and the embedding API.
func (m *Machine) GetPropertyValue(v value.Value, key object.PropertyKey) (value.Value, error) {
	return m.getValueProperty(v, key)
}

// SetPropertyValue writes v[key] = val; exported counterpart of
// GetPropertyValue.
func (m *Machine) SetPropertyValue(v value.Value, key object.PropertyKey, val value.Value) error {
	return m.setValueProperty(v, key, val)
}

// ToObject implements to_object against the realm's boxed-primitive
// prototypes.
func (m *Machine) ToObject(v value.Value) (value.Value, error) {
	if v.IsObject() {
		return v, nil
	}
	if v.IsNullOrUndefined() {
		return value.Undef, m.ThrowTypeError("Cannot convert undefined or null to object")
	}
	if m.wrapPrimitive == nil {
		return value.Undef, m.ThrowTypeError("no primitive wrapper installed")
	}
	return m.wrapPrimitive(v)
}

// NewNativeFunction wraps a Go function as a callable function object with
// the given name and arity.
func (m *Machine) NewNativeFunction(name string, length int, fn NativeFunc) *object.Object {
	data := &object.FunctionData{
		Name: name,
		Call: func(ctx object.Context, this value.Value, args []value.Value, _ *object.Object) (value.Value, error) {
			return fn(m, this, args)
		},
	}
	o := object.NewFunction(m.intr.FunctionProto, data)
	defineFunctionMeta(o, name, length)
	m.track(o)
	return o
}

// NewNativeConstructor builds a native function whose [[Call]] runs call and
// whose [[Construct]] runs construct.
func (m *Machine) NewNativeConstructor(name string, length int, call NativeFunc, construct func(m *Machine, args []value.Value, newTarget *object.Object) (*object.Object, error)) *object.Object {
	data := &object.FunctionData{Name: name}
	data.Call = func(ctx object.Context, this value.Value, args []value.Value, _ *object.Object) (value.Value, error) {
		return call(m, this, args)
	}
	data.Construct = func(ctx object.Context, _ value.Value, args []value.Value, newTarget *object.Object) (value.Value, error) {
		o, err := construct(m, args, newTarget)
		if err != nil {
			return value.Undef, err
		}
		return value.NewObject(o), nil
	}
	o := object.NewFunction(m.intr.FunctionProto, data)
	defineFunctionMeta(o, name, length)
	m.track(o)
	return o
}

func defineFunctionMeta(o *object.Object, name string, length int) {
	o.DefineOwnPropertyRaw(object.StringKey("name"), object.PropertyDescriptor{
		Value: value.NewString(name), Configurable: true,
	})
	o.DefineOwnPropertyRaw(object.StringKey("length"), object.PropertyDescriptor{
		Value: value.NewInt32(int32(length)), Configurable: true,
	})
}

// NewPlainObject allocates an ordinary object with Object.prototype.
func (m *Machine) NewPlainObject() *object.Object {
	o := object.New(m.intr.ObjectProto)
	m.track(o)
	return o
}

// NewArrayObject allocates an empty Array with the realm's Array.prototype.
func (m *Machine) NewArrayObject() *object.Object {
	o := object.NewArray(m.intr.ArrayProto, 0)
	m.track(o)
	return o
}

// NewArrayOf builds a JS array holding vals.
func (m *Machine) NewArrayOf(vals ...value.Value) *object.Object {
	arr := m.NewArrayObject()
	for i, v := range vals {
		arr.Methods().DefineOwnProperty(arr, m, object.IndexKey(uint32(i)), object.PropertyDescriptor{
			Value: v, Writable: true, Enumerable: true, Configurable: true,
		})
	}
	return arr
}

// RunProgram executes a compiled top-level script and returns its
// completion value: the value of the final statement when that is an
// expression statement (the compiler returns it), else undefined.
func (m *Machine) RunProgram(block *bytecode.CodeBlock) (value.Value, error) {
	savedTop := m.envs.Top()
	m.envs.SetTop(m.envs.Global())
	rec := m.envs.PushDeclarative(block.NumRegs, block.Scope)
	f := &Frame{block: block, base: len(m.stack), env: rec, this: value.NewObject(m.intr.Global)}
	m.frames = append(m.frames, f)
	res, _, err := m.dispatch(f)
	m.frames = m.frames[:len(m.frames)-1]
	m.stack = m.stack[:f.base]
	m.envs.SetTop(savedTop)
	return res, err
}
