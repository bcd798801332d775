// Package value implements the engine's Value: a tagged sum over JavaScript's primitive
// and heap kinds, plus the ECMAScript abstract operations (coercion,
// equality, arithmetic with mixed numeric types).
package value

import (
	"math/big"
	"strconv"
)

// Kind tags the active variant of a Value.
type Kind uint8

const (
	Undefined Kind = iota
	Null
	Bool
	Int32   // fast-path 32-bit signed integer
	Float64 // IEEE-754 double
	BigInt
	String
	SymbolKind
	ObjectKind
)

func (k Kind) String() string {
	switch k {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Int32, Float64:
		return "number"
	case BigInt:
		return "bigint"
	case String:
		return "string"
	case SymbolKind:
		return "symbol"
	case ObjectKind:
		return "object"
	default:
		return "unknown"
	}
}

// HeapObject is the minimal surface the value package needs from an object
// reference. internal/object.Object implements it; keeping the method set
// here (rather than importing internal/object) avoids a value<->object
// import cycle, matching how layers Value below Object.
type HeapObject interface {
	// ObjectKindTag names the object's exotic-object kind, used by
	// TypeOf/disassembly without needing the full object package.
	ObjectKindTag() string
	// IsCallableObject reports whether [[Call]] is defined.
	IsCallableObject() bool
}

// Symbol is a unique, non-interned symbol value.
type Symbol struct {
	Description string
}

// Value is 's tagged Value sum. The zero Value is Undefined.
type Value struct {
	kind Kind
	b    bool
	i    int32
	f    float64
	big  *big.Int
	str  string
	sym  *Symbol
	obj  HeapObject
}

// Undef, Nil, True, False are the singleton primitive values.
var (
	Undef = Value{kind: Undefined}
	Nil   = Value{kind: Null}
	True  = Value{kind: Bool, b: true}
	False = Value{kind: Bool, b: false}
)

// Bool wraps a Go bool.
func NewBool(b bool) Value { return Value{kind: Bool, b: b} }

// Int32 wraps a fast-path 32-bit integer.
func NewInt32(i int32) Value { return Value{kind: Int32, i: i} }

// Float64 wraps a rational (double) number.
func NewFloat64(f float64) Value { return Value{kind: Float64, f: f} }

// BigInt wraps an arbitrary-precision integer.
func NewBigInt(b *big.Int) Value { return Value{kind: BigInt, big: new(big.Int).Set(b)} }

// String wraps a Go string holding UTF-16-representable text (see
// internal/jsstring for UTF-16 code-unit access).
func NewString(s string) Value { return Value{kind: String, str: s} }

// NewSymbol allocates a fresh, non-interned symbol.
func NewSymbol(description string) Value {
	return Value{kind: SymbolKind, sym: &Symbol{Description: description}}
}

// WrapSymbol builds a Value around an existing Symbol identity (as opposed
// to NewSymbol, which allocates a fresh one), used when a symbol already
// held elsewhere (e.g. as a property key) needs to cross back into Value
// form.
func WrapSymbol(s *Symbol) Value { return Value{kind: SymbolKind, sym: s} }

// NewObject wraps a heap object reference.
func NewObject(o HeapObject) Value { return Value{kind: ObjectKind, obj: o} }

// Kind returns the active variant tag.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool       { return v.kind == Undefined }
func (v Value) IsNull() bool            { return v.kind == Null }
func (v Value) IsNullOrUndefined() bool { return v.kind == Undefined || v.kind == Null }
func (v Value) IsBool() bool            { return v.kind == Bool }
func (v Value) IsNumber() bool          { return v.kind == Int32 || v.kind == Float64 }
func (v Value) IsBigInt() bool          { return v.kind == BigInt }
func (v Value) IsString() bool          { return v.kind == String }
func (v Value) IsSymbol() bool          { return v.kind == SymbolKind }
func (v Value) IsObject() bool          { return v.kind == ObjectKind }

// AsBool returns the boolean payload; callers must check IsBool first.
func (v Value) AsBool() bool { return v.b }

// AsString returns the string payload; callers must check IsString first.
func (v Value) AsString() string { return v.str }

// AsSymbol returns the symbol payload; callers must check IsSymbol first.
func (v Value) AsSymbol() *Symbol { return v.sym }

// AsBigInt returns the bigint payload; callers must check IsBigInt first.
func (v Value) AsBigInt() *big.Int { return v.big }

// AsObject returns the object payload; callers must check IsObject first.
func (v Value) AsObject() HeapObject { return v.obj }

// AsFloat64 returns the numeric payload widened to float64 regardless of
// whether it is stored as Int32 or Float64. Callers must check IsNumber.
func (v Value) AsFloat64() float64 {
	if v.kind == Int32 {
		return float64(v.i)
	}
	return v.f
}

// AsInt32Fast returns the Int32 payload and whether the value is in fact
// stored in the Int32 fast-path variant (as opposed to widened Float64).
func (v Value) AsInt32Fast() (int32, bool) {
	if v.kind == Int32 {
		return v.i, true
	}
	return 0, false
}

// IsCallable reports whether v is an object with [[Call]].
func (v Value) IsCallable() bool {
	return v.kind == ObjectKind && v.obj != nil && v.obj.IsCallableObject()
}

// String renders a debug representation of v, used by the disassembler and
// constant-pool dumps; it never runs user code (unlike ToStringValue, which
// must call through to @@toPrimitive/toString for objects).
func (v Value) String() string {
	switch v.kind {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	case Int32:
		return strconv.FormatInt(int64(v.i), 10)
	case Float64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case BigInt:
		return v.big.String() + "n"
	case String:
		return strconv.Quote(v.str)
	case SymbolKind:
		return "Symbol(" + v.sym.Description + ")"
	case ObjectKind:
		return "[object]"
	default:
		return "<invalid>"
	}
}

// TypeOf implements the `typeof` operator, which never throws.
func (v Value) TypeOf() string {
	switch v.kind {
	case Undefined:
		return "undefined"
	case Null:
		return "object"
	case Bool:
		return "boolean"
	case Int32, Float64:
		return "number"
	case BigInt:
		return "bigint"
	case String:
		return "string"
	case SymbolKind:
		return "symbol"
	case ObjectKind:
		if v.IsCallable() {
			return "function"
		}
		return "object"
	default:
		return "undefined"
	}
}
