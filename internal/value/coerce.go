package value

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Hint selects the preferred primitive kind for ToPrimitive.
type Hint int

const (
	HintDefault Hint = iota
	HintNumber
	HintString
)

// ToBoolean implements to_boolean. It is pure and never fails: undefined,
// null, +0, -0, NaN, "", and bigint zero are falsy, everything else truthy.
func ToBoolean(v Value) bool {
	switch v.kind {
	case Undefined, Null:
		return false
	case Bool:
		return v.b
	case Int32:
		return v.i != 0
	case Float64:
		return v.f != 0 && !math.IsNaN(v.f)
	case BigInt:
		return v.big.Sign() != 0
	case String:
		return len(v.str) != 0
	case SymbolKind, ObjectKind:
		return true
	default:
		return false
	}
}

// ToPrimitive converts an object to a primitive per current ECMA-262
// OrdinaryToPrimitive: it first consults @@toPrimitive, then falls back to
// valueOf/toString in hint order. Primitives pass through unchanged.
// Nested getters that mutate their own receiver during the walk see a
// strict single left-to-right pass with no re-fetch of the receiver
// mid-conversion, matching current ECMA-262 text.
func ToPrimitive(ctx Context, v Value, hint Hint) (Value, error) {
	if v.kind != ObjectKind {
		return v, nil
	}
	obj := v.obj

	if exotic, err := ctx.GetProperty(obj, ctx.SymbolToPrimitive()); err == nil && exotic.IsCallable() {
		hintStr := "default"
		switch hint {
		case HintNumber:
			hintStr = "number"
		case HintString:
			hintStr = "string"
		}
		result, err := ctx.CallMethod(obj, ctx.SymbolToPrimitive(), []Value{NewString(hintStr)})
		if err != nil {
			return Undef, err
		}
		if result.kind == ObjectKind {
			return Undef, ctx.ThrowTypeError("Cannot convert object to primitive value")
		}
		return result, nil
	}

	methods := []string{"valueOf", "toString"}
	if hint == HintString {
		methods = []string{"toString", "valueOf"}
	}
	for _, name := range methods {
		fn, err := ctx.GetProperty(obj, name)
		if err != nil {
			continue
		}
		if !fn.IsCallable() {
			continue
		}
		result, err := ctx.CallMethod(obj, name, nil)
		if err != nil {
			return Undef, err
		}
		if result.kind != ObjectKind {
			return result, nil
		}
	}
	return Undef, ctx.ThrowTypeError("Cannot convert object to primitive value")
}

// ToNumber implements to_number. Objects go through ToPrimitive(Number);
// bigint throws TypeError (mixing numeric kinds is never implicit).
func ToNumber(ctx Context, v Value) (float64, error) {
	switch v.kind {
	case Undefined:
		return math.NaN(), nil
	case Null:
		return 0, nil
	case Bool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case Int32:
		return float64(v.i), nil
	case Float64:
		return v.f, nil
	case BigInt:
		return 0, ctx.ThrowTypeError("Cannot convert a BigInt value to a number")
	case String:
		return stringToNumber(v.str), nil
	case SymbolKind:
		return 0, ctx.ThrowTypeError("Cannot convert a Symbol value to a number")
	case ObjectKind:
		prim, err := ToPrimitive(ctx, v, HintNumber)
		if err != nil {
			return 0, err
		}
		return ToNumber(ctx, prim)
	default:
		return math.NaN(), nil
	}
}

func stringToNumber(s string) float64 {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0
	}
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		n, err := strconv.ParseInt(t[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	if t == "Infinity" || t == "+Infinity" {
		return math.Inf(1)
	}
	if t == "-Infinity" {
		return math.Inf(-1)
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ToNumeric implements to_numeric: ToPrimitive(Number) then either Number
// or BigInt, preserving bigint-ness rather than collapsing it to float64.
func ToNumeric(ctx Context, v Value) (Value, error) {
	prim := v
	if v.kind == ObjectKind {
		p, err := ToPrimitive(ctx, v, HintNumber)
		if err != nil {
			return Undef, err
		}
		prim = p
	}
	if prim.kind == BigInt {
		return prim, nil
	}
	n, err := ToNumber(ctx, prim)
	if err != nil {
		return Undef, err
	}
	return numberValue(n), nil
}

// numberValue picks the Int32 fast path when n is an exact, in-range
// integer, else Float64, matching number fast path. Negative zero must stay
// Float64: the Int32 representation would erase the sign bit Object.is
// observes.
func numberValue(n float64) Value {
	if n == 0 {
		if math.Signbit(n) {
			return NewFloat64(n)
		}
		return NewInt32(0)
	}
	if n == math.Trunc(n) && !math.IsInf(n, 0) && n >= math.MinInt32 && n <= math.MaxInt32 {
		return NewInt32(int32(n))
	}
	return NewFloat64(n)
}

// NumberValue is the exported form of numberValue for callers outside this
// package that need the same fast-path widening rule (the VM's arithmetic
// opcodes and the object model's array length bookkeeping).
func NumberValue(n float64) Value { return numberValue(n) }

// ToIntegerOrInfinity implements to_integer_or_infinity: truncating
// conversion that preserves ±∞.
func ToIntegerOrInfinity(ctx Context, v Value) (float64, error) {
	n, err := ToNumber(ctx, v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) {
		return 0, nil
	}
	if math.IsInf(n, 0) {
		return n, nil
	}
	return math.Trunc(n), nil
}

// ToInt32 implements to_i32 with spec-defined modular reduction.
func ToInt32(ctx Context, v Value) (int32, error) {
	n, err := ToNumber(ctx, v)
	if err != nil {
		return 0, err
	}
	return toInt32(n), nil
}

func toInt32(n float64) int32 {
	if math.IsNaN(n) || math.IsInf(n, 0) || n == 0 {
		return 0
	}
	n = math.Trunc(n)
	m := math.Mod(n, 4294967296)
	if m < 0 {
		m += 4294967296
	}
	if m >= 2147483648 {
		m -= 4294967296
	}
	return int32(m)
}

// ToUint32 implements to_u32 with spec-defined modular reduction.
func ToUint32(ctx Context, v Value) (uint32, error) {
	n, err := ToNumber(ctx, v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n == 0 {
		return 0, nil
	}
	n = math.Trunc(n)
	m := math.Mod(n, 4294967296)
	if m < 0 {
		m += 4294967296
	}
	return uint32(m), nil
}

// ToStringValue implements to_string: undefined -> "undefined", null ->
// "null", etc.; symbol throws TypeError (use ToPropertyKeyString or an
// explicit .toString() for display purposes instead).
func ToStringValue(ctx Context, v Value) (string, error) {
	switch v.kind {
	case Undefined:
		return "undefined", nil
	case Null:
		return "null", nil
	case Bool:
		if v.b {
			return "true", nil
		}
		return "false", nil
	case Int32:
		return strconv.FormatInt(int64(v.i), 10), nil
	case Float64:
		return formatNumber(v.f), nil
	case BigInt:
		return v.big.String(), nil
	case String:
		return v.str, nil
	case SymbolKind:
		return "", ctx.ThrowTypeError("Cannot convert a Symbol value to a string")
	case ObjectKind:
		prim, err := ToPrimitive(ctx, v, HintString)
		if err != nil {
			return "", err
		}
		return ToStringValue(ctx, prim)
	default:
		return "", nil
	}
}

// formatNumber renders a float64 the way Number.prototype.toString does for
// the common cases.
func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == 0 {
		if math.Signbit(f) {
			return "0"
		}
		return "0"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ToObject implements to_object. Wrapping primitives into boxed objects
// needs the realm's boxed-primitive prototypes, so it is exposed through
// Context rather than implemented here; this stub documents the contract
// for internal/realm, which implements the full operation.
type ObjectWrapper interface {
	WrapPrimitive(v Value) (Value, error)
}

// ToObject wraps v using wrapper.WrapPrimitive, or returns v unchanged if
// it is already an object. It throws for null/undefined.
func ToObject(ctx Context, wrapper ObjectWrapper, v Value) (Value, error) {
	if v.kind == ObjectKind {
		return v, nil
	}
	if v.IsNullOrUndefined() {
		return Undef, ctx.ThrowTypeError("Cannot convert undefined or null to object")
	}
	return wrapper.WrapPrimitive(v)
}

// bigIntFromString implements BigInt(string) parsing used by the round-trip
// law in ("BigInt(n.toString) === n").
func BigIntFromString(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return big.NewInt(0), true
	}
	n := new(big.Int)
	_, ok := n.SetString(s, 0)
	return n, ok
}
