// Package object implements the object model: property storage with
// attributes,
// prototype chains, internal methods dispatched polymorphically per object
// kind, and the private-name mechanism.
package object

import (
	"sort"

	"github.com/go-jsvm/jsvm/internal/gc"
	"github.com/go-jsvm/jsvm/internal/value"
)

// Kind tags which exotic-object variant an Object is, selecting its
// internal-methods vtable.
type Kind int

const (
	KindOrdinary Kind = iota
	KindArray
	KindFunction
	KindBoundFunction
	KindProxy
	KindArrayBuffer
	KindSharedArrayBuffer
	KindDataView
	KindTypedArray
	KindMap
	KindSet
	KindWeakMap
	KindWeakSet
	KindPromise
	KindRegExp
	KindDate
	KindError
	KindArguments
	KindGenerator
	KindAsyncGenerator
	KindModule
	KindNativeData
)

var kindNames = [...]string{
	"Ordinary", "Array", "Function", "BoundFunction", "Proxy", "ArrayBuffer",
	"SharedArrayBuffer", "DataView", "TypedArray", "Map", "Set", "WeakMap",
	"WeakSet", "Promise", "RegExp", "Date", "Error", "Arguments", "Generator",
	"AsyncGenerator", "Module", "NativeData",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// PropertyKey is a string, integer index, or symbol key. Exactly one of the
// three forms is populated.
type PropertyKey struct {
	str    string
	idx    uint32
	hasIdx bool
	sym    *value.Symbol
}

// StringKey builds a string-valued PropertyKey.
func StringKey(s string) PropertyKey { return PropertyKey{str: s} }

// IndexKey builds an integer-valued PropertyKey for array-like access.
func IndexKey(i uint32) PropertyKey { return PropertyKey{hasIdx: true, idx: i} }

// SymbolKey builds a symbol-valued PropertyKey.
func SymbolKey(s *value.Symbol) PropertyKey { return PropertyKey{sym: s} }

// IsIndex reports whether the key is an integer array index.
func (k PropertyKey) IsIndex() bool { return k.hasIdx }

// IsSymbol reports whether the key is a symbol.
func (k PropertyKey) IsSymbol() bool { return k.sym != nil }

// Index returns the integer index; callers must check IsIndex first.
func (k PropertyKey) Index() uint32 { return k.idx }

// Symbol returns the symbol; callers must check IsSymbol first.
func (k PropertyKey) Symbol() *value.Symbol { return k.sym }

// String returns the textual form of the key: the string itself, the
// decimal rendering of an index, or the symbol's description form.
func (k PropertyKey) String() string {
	switch {
	case k.hasIdx:
		return uitoa(k.idx)
	case k.sym != nil:
		return "Symbol(" + k.sym.Description + ")"
	default:
		return k.str
	}
}

func uitoa(u uint32) string {
	if u == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	return string(buf[i:])
}

// mapKey is the comparable form used as a Go map key internally.
type mapKey struct {
	str    string
	idx    uint32
	hasIdx bool
	sym    *value.Symbol
}

func (k PropertyKey) mapKey() mapKey {
	return mapKey{str: k.str, idx: k.idx, hasIdx: k.hasIdx, sym: k.sym}
}

// PropertyDescriptor is either a data descriptor (Value/Writable) or an
// accessor descriptor (Get/Set); IsAccessor selects which. Both carry
// Enumerable and Configurable.
type PropertyDescriptor struct {
	IsAccessor   bool
	Value        value.Value
	Writable     bool
	Get          value.Value // callable object or Undefined
	Set          value.Value // callable object or Undefined
	Enumerable   bool
	Configurable bool
}

// propEntry is one slot in an Object's ordered property table.
type propEntry struct {
	key  PropertyKey
	desc PropertyDescriptor
}

// PrivateName is (description, environment-id) pair.
type PrivateName struct {
	Description string
	EnvID       uint64
}

// PrivateElement is a private field or accessor bound to a PrivateName.
type PrivateElement struct {
	IsAccessor bool
	Value      value.Value
	Get, Set   value.Value
}

// Methods is the per-kind internal-methods vtable. Call and Construct are
// nil for non-callable/non-constructor objects.
type Methods struct {
	GetPrototypeOf    func(o *Object) *Object
	SetPrototypeOf    func(o *Object, proto *Object) bool
	IsExtensible      func(o *Object) bool
	PreventExtensions func(o *Object) bool
	GetOwnProperty    func(o *Object, key PropertyKey) (PropertyDescriptor, bool)
	DefineOwnProperty func(o *Object, ctx Context, key PropertyKey, desc PropertyDescriptor) (bool, error)
	HasProperty       func(o *Object, ctx Context, key PropertyKey) (bool, error)
	Get               func(o *Object, ctx Context, key PropertyKey, receiver value.Value) (value.Value, error)
	Set               func(o *Object, ctx Context, key PropertyKey, v value.Value, receiver value.Value) (bool, error)
	Delete            func(o *Object, ctx Context, key PropertyKey) (bool, error)
	OwnPropertyKeys   func(o *Object) []PropertyKey
	Call              func(o *Object, ctx Context, this value.Value, args []value.Value) (value.Value, error)
	Construct         func(o *Object, ctx Context, args []value.Value, newTarget *Object) (*Object, error)
}

// Context is the narrow surface Object's internal methods need from the
// surrounding engine (error construction, and invoking getters/setters and
// proxy traps, which are themselves callable Objects).
type Context interface {
	ThrowTypeError(format string, args ...any) error
	ThrowRangeError(format string, args ...any) error
	Call(fn *Object, this value.Value, args []value.Value) (value.Value, error)
}

// Object is heap object cell.
type Object struct {
	kind       Kind
	props      []propEntry
	index      map[mapKey]int // mapKey -> index into props
	slots      map[string]value.Value
	proto      *Object
	extensible bool
	privates   map[PrivateName]PrivateElement
	methods    *Methods
	data       any // kind-specific payload: *FunctionData, *ProxyData, *MapData, ...

	// borrow is dynamically-checked interior-mutability guard: the interpreter
	// provably holds at most one mutable borrow per object per opcode (single-
	// threaded, no aliasing across goroutines), so this is a same-goroutine re-
	// entrancy check, not a scheduler lock. Re-entrant mutation from a proxy
	// trap or getter calling back into the object must release its borrow first
	// (see Borrow/BorrowMut).
	borrowed bool
}

// New creates an Ordinary object with the given prototype (nil for none).
func New(proto *Object) *Object {
	return &Object{
		kind:       KindOrdinary,
		index:      make(map[mapKey]int),
		slots:      make(map[string]value.Value),
		proto:      proto,
		extensible: true,
		methods:    OrdinaryMethods(),
	}
}

// Kind returns the object-kind tag.
func (o *Object) Kind() Kind { return o.kind }

// SetKind retags the object and installs its kind's internal-methods
// vtable; used by the realm's constructors after New() builds the
// ordinary shell (prototype, extensibility) that every kind shares.
func (o *Object) SetKind(k Kind, m *Methods) {
	o.kind = k
	o.methods = m
}

// Data returns the kind-specific payload.
func (o *Object) Data() any { return o.data }

// SetData installs the kind-specific payload.
func (o *Object) SetData(d any) { o.data = d }

// Methods returns the internal-methods vtable.
func (o *Object) Methods() *Methods { return o.methods }

// ObjectKindTag implements value.HeapObject.
func (o *Object) ObjectKindTag() string { return o.kind.String() }

// IsCallableObject implements value.HeapObject.
func (o *Object) IsCallableObject() bool { return o.methods != nil && o.methods.Call != nil }

// IsConstructor reports whether [[Construct]] is defined.
func (o *Object) IsConstructor() bool { return o.methods != nil && o.methods.Construct != nil }

// Slot reads an internal slot ((c)).
func (o *Object) Slot(name string) (value.Value, bool) {
	v, ok := o.slots[name]
	return v, ok
}

// SetSlot writes an internal slot.
func (o *Object) SetSlot(name string, v value.Value) {
	o.slots[name] = v
}

// Borrow is the shared (read) counterpart of BorrowMut. It records nothing
// and never panics, so only overlapping BorrowMut calls are detected; see
// the borrowed field's doc.
func (o *Object) Borrow() func() {
	return func() {}
}

// BorrowMut acquires the single mutable borrow, panicking on overlap. The
// returned function releases it; callers must defer it, and must call it
// before invoking back into user code (getters, proxy traps) to allow
// re-entrant access.
func (o *Object) BorrowMut() func() {
	if o.borrowed {
		panic("object: overlapping mutable borrow")
	}
	o.borrowed = true
	return func() { o.borrowed = false }
}

// Prototype returns the [[Prototype]] link.
func (o *Object) Prototype() *Object { return o.proto }

// SetPrototypeRaw sets [[Prototype]] without going through [[SetPrototypeOf]]
// validation; used during object construction before the object is
// observable to user code.
func (o *Object) SetPrototypeRaw(p *Object) { o.proto = p }

// Extensible reports the extensibility flag.
func (o *Object) Extensible() bool { return o.extensible }

// getOwnIndex returns the slice index of key's property entry, or -1.
func (o *Object) getOwnIndex(key PropertyKey) int {
	if i, ok := o.index[key.mapKey()]; ok {
		return i
	}
	return -1
}

// GetOwnPropertyRaw looks up key in this object's own property table only,
// with no internal-methods polymorphism and no prototype walk.
func (o *Object) GetOwnPropertyRaw(key PropertyKey) (PropertyDescriptor, bool) {
	i := o.getOwnIndex(key)
	if i < 0 {
		return PropertyDescriptor{}, false
	}
	return o.props[i].desc, true
}

// DefineOwnPropertyRaw inserts or overwrites key's descriptor directly,
// preserving insertion order for new keys. This is the storage primitive
// OrdinaryDefineOwnProperty and Array's length-aware override both build on.
func (o *Object) DefineOwnPropertyRaw(key PropertyKey, desc PropertyDescriptor) {
	if i := o.getOwnIndex(key); i >= 0 {
		o.props[i].desc = desc
		return
	}
	o.index[key.mapKey()] = len(o.props)
	o.props = append(o.props, propEntry{key: key, desc: desc})
}

// DeletePropertyRaw removes key from the own property table, compacting
// indices. Returns whether the key was present.
func (o *Object) DeletePropertyRaw(key PropertyKey) bool {
	i := o.getOwnIndex(key)
	if i < 0 {
		return false
	}
	o.props = append(o.props[:i], o.props[i+1:]...)
	delete(o.index, key.mapKey())
	for mk, idx := range o.index {
		if idx > i {
			o.index[mk] = idx - 1
		}
	}
	return true
}

// OwnKeysRaw returns own keys in ordinary enumeration order: integer-like
// keys ascending, then string keys in insertion order, then symbol keys in
// insertion order.
func (o *Object) OwnKeysRaw() []PropertyKey {
	var indices []PropertyKey
	var strs []PropertyKey
	var syms []PropertyKey
	for _, e := range o.props {
		switch {
		case e.key.hasIdx:
			indices = append(indices, e.key)
		case e.key.sym != nil:
			syms = append(syms, e.key)
		default:
			strs = append(strs, e.key)
		}
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i].idx < indices[j].idx })
	out := make([]PropertyKey, 0, len(indices)+len(strs)+len(syms))
	out = append(out, indices...)
	out = append(out, strs...)
	out = append(out, syms...)
	return out
}

// Trace implements gc.Cell: it visits the prototype, every property value
// (and accessor get/set), every internal slot, and every private element.
func (o *Object) Trace(visit func(gc.Cell)) {
	if o.proto != nil {
		visit(o.proto)
	}
	for _, e := range o.props {
		visitValue(visit, e.desc.Value)
		visitValue(visit, e.desc.Get)
		visitValue(visit, e.desc.Set)
	}
	for _, v := range o.slots {
		visitValue(visit, v)
	}
	for _, p := range o.privates {
		visitValue(visit, p.Value)
		visitValue(visit, p.Get)
		visitValue(visit, p.Set)
	}
	if tr, ok := o.data.(gc.Cell); ok && tr != nil {
		visit(tr)
	}
}

func visitValue(visit func(gc.Cell), v value.Value) {
	if v.IsObject() {
		if obj, ok := v.AsObject().(*Object); ok {
			visit(obj)
		}
	}
}

// PrivateField reads a private field/accessor by name, walking the
// object's own table only (private names are not inherited).
func (o *Object) PrivateField(name PrivateName) (PrivateElement, bool) {
	if o.privates == nil {
		return PrivateElement{}, false
	}
	e, ok := o.privates[name]
	return e, ok
}

// SetPrivateField installs a private field/accessor.
func (o *Object) SetPrivateField(name PrivateName, elem PrivateElement) {
	if o.privates == nil {
		o.privates = make(map[PrivateName]PrivateElement)
	}
	o.privates[name] = elem
}
