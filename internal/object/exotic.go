package object

import "github.com/go-jsvm/jsvm/internal/value"

// ErrorData carries the fields error.prototype.toString / stack traces need;
// the realm's Error constructors populate it.
type ErrorData struct {
	Name    string
	Message string
	Stack   []StackFrame
}

// StackFrame is one entry of an Error's captured call stack.
type StackFrame struct {
	FunctionName string
	File         string
	Line, Column int
}

// NewErrorObject builds an Error exotic object.
func NewErrorObject(proto *Object, data *ErrorData) *Object {
	o := New(proto)
	o.kind = KindError
	o.data = data
	return o
}

// ArgumentsData backs a non-strict mapped Arguments object or a strict
// unmapped one; Mapped is nil for the unmapped (arrow/strict) case.
type ArgumentsData struct {
	Mapped []MappedArg
}

// MappedArg links an arguments-object index back to the parameter binding
// it aliases, for non-strict mapped-arguments get/set forwarding.
type MappedArg struct {
	Index int
	Get   func() value.Value
	Set   func(value.Value)
}

// NewArgumentsObject builds an Arguments exotic object over already-copied
// argument values (installed as own indexed properties by the caller);
// mapped aliases the caller's parameter bindings when non-strict.
func NewArgumentsObject(proto *Object, mapped []MappedArg) *Object {
	o := New(proto)
	o.kind = KindArguments
	o.data = &ArgumentsData{Mapped: mapped}
	if len(mapped) == 0 {
		return o
	}
	m := *OrdinaryMethods()
	m.Get = func(obj *Object, ctx Context, key PropertyKey, receiver value.Value) (value.Value, error) {
		ad := obj.data.(*ArgumentsData)
		if key.IsIndex() {
			for _, ma := range ad.Mapped {
				if ma.Index == int(key.Index()) {
					return ma.Get(), nil
				}
			}
		}
		return OrdinaryGet(obj, ctx, key, receiver)
	}
	m.Set = func(obj *Object, ctx Context, key PropertyKey, v value.Value, receiver value.Value) (bool, error) {
		ad := obj.data.(*ArgumentsData)
		if key.IsIndex() {
			for _, ma := range ad.Mapped {
				if ma.Index == int(key.Index()) {
					ma.Set(v)
					break
				}
			}
		}
		return OrdinarySet(obj, ctx, key, v, receiver)
	}
	o.methods = &m
	return o
}

// GeneratorState is suspended/running/completed tri-state for generator and
// async-generator objects.
type GeneratorState int

const (
	GeneratorSuspendedStart GeneratorState = iota
	GeneratorSuspendedYield
	GeneratorExecuting
	GeneratorCompleted
)

// GeneratorData is the frame snapshot behind a suspended generator or
// async function: the continuation serializes into it and is restored
// verbatim on resume. The concrete register/IP/handler-stack/env-chain
// shape lives in internal/vm, which is why Frame holds an opaque any
// rather than a concrete struct (internal/object must not import
// internal/vm).
type GeneratorData struct {
	State   GeneratorState
	Frame   any // *vm.SavedFrame, set by internal/vm
	IsAsync bool
}

// NewGeneratorObject builds a Generator or AsyncGenerator exotic object.
func NewGeneratorObject(proto *Object, isAsync bool) *Object {
	o := New(proto)
	if isAsync {
		o.kind = KindAsyncGenerator
	} else {
		o.kind = KindGenerator
	}
	o.data = &GeneratorData{State: GeneratorSuspendedStart, IsAsync: isAsync}
	return o
}

// PromiseState is Promise's pending/fulfilled/rejected tri-state.
type PromiseState int

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

// PromiseReaction is one registered then()/catch() callback pair awaiting
// settlement.
type PromiseReaction struct {
	OnFulfilled, OnRejected *Object
	ResultCapability        *Object // the dependent promise to settle
}

// PromiseData is the kind-specific payload for KindPromise.
type PromiseData struct {
	State     PromiseState
	Result    value.Value
	Reactions []PromiseReaction
	Handled   bool
}

// NewPromiseObject builds a pending Promise exotic object.
func NewPromiseObject(proto *Object) *Object {
	o := New(proto)
	o.kind = KindPromise
	o.data = &PromiseData{State: PromisePending}
	return o
}

// RegExpData is the kind-specific payload for KindRegExp.
type RegExpData struct {
	Source    string
	Flags     string
	LastIndex int
}

// NewRegExpObject builds a RegExp exotic object.
func NewRegExpObject(proto *Object, source, flags string) *Object {
	o := New(proto)
	o.kind = KindRegExp
	o.data = &RegExpData{Source: source, Flags: flags}
	return o
}

// DateData is the kind-specific payload for KindDate: milliseconds since
// the epoch, or NaN for an invalid date.
type DateData struct {
	EpochMillis float64
}

// NewDateObject builds a Date exotic object.
func NewDateObject(proto *Object, epochMillis float64) *Object {
	o := New(proto)
	o.kind = KindDate
	o.data = &DateData{EpochMillis: epochMillis}
	return o
}

// ModuleData is the kind-specific payload for KindModule: a module
// namespace object's exported bindings.
type ModuleData struct {
	ExportNames []string
	Resolve     func(name string) (value.Value, bool)
}

// NewModuleNamespace builds a Module exotic namespace object.
func NewModuleNamespace(proto *Object, data *ModuleData) *Object {
	o := New(proto)
	o.kind = KindModule
	o.data = data
	m := *OrdinaryMethods()
	m.Get = func(obj *Object, ctx Context, key PropertyKey, receiver value.Value) (value.Value, error) {
		md := obj.data.(*ModuleData)
		if !key.IsIndex() && !key.IsSymbol() {
			if v, ok := md.Resolve(key.String()); ok {
				return v, nil
			}
		}
		return value.Undef, nil
	}
	o.methods = &m
	return o
}

// NativeDataData wraps an arbitrary host value exposed to script as an
// opaque object. Tag is the runtime type tag checked on downcast.
type NativeDataData struct {
	Tag   string
	Value any
}

// NewNativeDataObject builds a NativeData exotic object wrapping a host value.
func NewNativeDataObject(proto *Object, tag string, v any) *Object {
	o := New(proto)
	o.kind = KindNativeData
	o.data = &NativeDataData{Tag: tag, Value: v}
	return o
}
