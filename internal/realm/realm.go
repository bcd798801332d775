// Package realm wires a realm's intrinsics: the well-known constructors and
// prototypes, the global object, and the built-in library surface
// registered against the object model through the native-function bridge.
package realm

import (
	"io"
	"os"

	"github.com/go-jsvm/jsvm/internal/jsstring"
	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

// Options configures realm construction.
type Options struct {
	// Stdout receives console output; defaults to os.Stdout.
	Stdout io.Writer
}

// Realm owns one isolated evaluation context's intrinsics and global
// environment.
type Realm struct {
	m      *vm.Machine
	intr   *vm.Intrinsics
	global *object.Object
	stdout io.Writer

	symbolRegistry map[string]*value.Symbol
}

// New builds a realm over m: intrinsic prototypes first (Object.prototype
// and Function.prototype anchor everything else), then the global object,
// then each builtin unit.
func New(m *vm.Machine, opts Options) *Realm {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	r := &Realm{m: m, stdout: opts.Stdout, symbolRegistry: make(map[string]*value.Symbol)}
	r.intr = &vm.Intrinsics{}
	m.SetIntrinsics(r.intr)

	objProto := object.New(nil)
	r.intr.ObjectProto = objProto
	fnProto := object.NewFunction(objProto, &object.FunctionData{
		Name: "",
		Call: func(_ object.Context, _ value.Value, _ []value.Value, _ *object.Object) (value.Value, error) {
			return value.Undef, nil
		},
	})
	r.intr.FunctionProto = fnProto

	r.intr.SymbolIterator = value.NewSymbol("Symbol.iterator").AsSymbol()
	r.intr.SymbolAsyncIterator = value.NewSymbol("Symbol.asyncIterator").AsSymbol()
	r.intr.SymbolToPrimitive = value.NewSymbol("Symbol.toPrimitive").AsSymbol()
	r.intr.SymbolHasInstance = value.NewSymbol("Symbol.hasInstance").AsSymbol()
	r.intr.SymbolToStringTag = value.NewSymbol("Symbol.toStringTag").AsSymbol()
	r.intr.SymbolUnscopables = value.NewSymbol("Symbol.unscopables").AsSymbol()

	r.intr.ArrayProto = object.NewArray(objProto, 0)
	r.intr.StringProto = object.New(objProto)
	r.intr.NumberProto = object.New(objProto)
	r.intr.BooleanProto = object.New(objProto)
	r.intr.SymbolProto = object.New(objProto)
	r.intr.BigIntProto = object.New(objProto)
	r.intr.PromiseProto = object.New(objProto)
	r.intr.IteratorProto = object.New(objProto)
	r.intr.GeneratorProto = object.New(r.intr.IteratorProto)
	r.intr.AsyncGeneratorProto = object.New(objProto)
	for k := vm.ErrError; k <= vm.ErrAggregate; k++ {
		proto := object.New(objProto)
		if k != vm.ErrError {
			proto.SetPrototypeRaw(r.intr.ErrorProtos[vm.ErrError])
		}
		r.intr.ErrorProtos[k] = proto
	}

	r.global = object.New(objProto)
	m.InitGlobal(r.global)
	m.SetPrimitiveWrapper(r.wrapPrimitive)
	object.SetArgsArrayBuilder(func(args []value.Value) value.Value {
		return value.NewObject(m.NewArrayOf(args...))
	})

	r.installGlobals()
	r.installObject()
	r.installFunction()
	r.installIterators()
	r.installArray()
	r.installString()
	r.installNumberBooleanMath()
	r.installSymbolBigInt()
	r.installErrors()
	r.installCollections()
	r.installJSON()
	r.installPromise()
	r.installBuffers()
	r.installDate()
	return r
}

// Machine returns the realm's VM.
func (r *Realm) Machine() *vm.Machine { return r.m }

// Global returns the realm's global object.
func (r *Realm) Global() *object.Object { return r.global }

// ---- registration helpers ----

// def installs a non-enumerable data property, the attribute set almost
// every builtin uses.
func def(o *object.Object, name string, v value.Value) {
	o.DefineOwnPropertyRaw(object.StringKey(name), object.PropertyDescriptor{
		Value: v, Writable: true, Configurable: true,
	})
}

// defSym installs a non-enumerable symbol-keyed property.
func defSym(o *object.Object, sym *value.Symbol, v value.Value) {
	o.DefineOwnPropertyRaw(object.SymbolKey(sym), object.PropertyDescriptor{
		Value: v, Writable: true, Configurable: true,
	})
}

// defConst installs a non-writable, non-configurable constant.
func defConst(o *object.Object, name string, v value.Value) {
	o.DefineOwnPropertyRaw(object.StringKey(name), object.PropertyDescriptor{Value: v})
}

// method installs a native function as a non-enumerable method.
func (r *Realm) method(o *object.Object, name string, length int, f vm.NativeFunc) {
	def(o, name, value.NewObject(r.m.NewNativeFunction(name, length, f)))
}

// symMethod installs a native function under a well-known symbol key.
func (r *Realm) symMethod(o *object.Object, sym *value.Symbol, name string, length int, f vm.NativeFunc) {
	defSym(o, sym, value.NewObject(r.m.NewNativeFunction(name, length, f)))
}

// getter installs a native accessor with only a get half.
func (r *Realm) getter(o *object.Object, name string, f vm.NativeFunc) {
	o.DefineOwnPropertyRaw(object.StringKey(name), object.PropertyDescriptor{
		IsAccessor:   true,
		Get:          value.NewObject(r.m.NewNativeFunction("get "+name, 0, f)),
		Set:          value.Undef,
		Configurable: true,
	})
}

// ctor registers a constructor on the global and wires the
// constructor<->prototype pair.
func (r *Realm) ctor(name string, length int, proto *object.Object, call vm.NativeFunc, construct func(m *vm.Machine, args []value.Value, newTarget *object.Object) (*object.Object, error)) *object.Object {
	c := r.m.NewNativeConstructor(name, length, call, construct)
	def(c, "prototype", value.NewObject(proto))
	def(proto, "constructor", value.NewObject(c))
	def(r.global, name, value.NewObject(c))
	return c
}

// arg returns args[i] or undefined.
func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undef
}

// thisObject coerces a native method's receiver to an engine object.
func thisObject(m *vm.Machine, this value.Value) (*object.Object, error) {
	if !this.IsObject() {
		return nil, m.ThrowTypeError("method called on a non-object receiver")
	}
	o, ok := this.AsObject().(*object.Object)
	if !ok {
		return nil, m.ThrowTypeError("method called on a foreign object")
	}
	return o, nil
}

// wrapPrimitive implements to_object's boxing half: the box is an ordinary
// object with the matching prototype and a PrimitiveValue slot
// valueOf/toString consult.
func (r *Realm) wrapPrimitive(v value.Value) (value.Value, error) {
	var proto *object.Object
	switch v.Kind() {
	case value.String:
		proto = r.intr.StringProto
	case value.Int32, value.Float64:
		proto = r.intr.NumberProto
	case value.Bool:
		proto = r.intr.BooleanProto
	case value.SymbolKind:
		proto = r.intr.SymbolProto
	case value.BigInt:
		proto = r.intr.BigIntProto
	default:
		return value.Undef, r.m.ThrowTypeError("cannot box %s", v.TypeOf())
	}
	box := object.New(proto)
	box.SetSlot("PrimitiveValue", v)
	if v.IsString() {
		def(box, "length", value.NewInt32(int32(jsstring.Length(v.AsString()))))
	}
	return value.NewObject(box), nil
}

// primitiveOf unwraps a boxed primitive receiver, or passes a primitive
// through: the shared this-resolution of Number/String/Boolean prototype
// methods.
func primitiveOf(this value.Value, want value.Kind) (value.Value, bool) {
	if this.Kind() == want {
		return this, true
	}
	if this.Kind() == value.Int32 && want == value.Float64 || this.Kind() == value.Float64 && want == value.Int32 {
		return this, true
	}
	if this.IsObject() {
		if o, ok := this.AsObject().(*object.Object); ok {
			if pv, ok := o.Slot("PrimitiveValue"); ok {
				return pv, true
			}
		}
	}
	return value.Undef, false
}
