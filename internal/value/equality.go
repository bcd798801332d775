package value

import (
	"math"
	"math/big"
)

// StrictEqual implements strict_equal: no coercion, NaN != NaN, +0 == -0.
func StrictEqual(a, b Value) bool {
	if a.kind != b.kind {
		// Int32 and Float64 are both "number" for strict equality purposes.
		if a.IsNumber() && b.IsNumber() {
			return a.AsFloat64() == b.AsFloat64()
		}
		return false
	}
	switch a.kind {
	case Undefined, Null:
		return true
	case Bool:
		return a.b == b.b
	case Int32:
		return a.i == b.i
	case Float64:
		return a.f == b.f
	case BigInt:
		return a.big.Cmp(b.big) == 0
	case String:
		return a.str == b.str
	case SymbolKind:
		return a.sym == b.sym
	case ObjectKind:
		return a.obj == b.obj
	default:
		return false
	}
}

// SameValue implements same_value: NaN == NaN, +0 != -0 (Object.is).
func SameValue(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		af, bf := a.AsFloat64(), b.AsFloat64()
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		if af == 0 && bf == 0 {
			return math.Signbit(af) == math.Signbit(bf)
		}
		return af == bf
	}
	return StrictEqual(a, b)
}

// SameValueZero implements same_value_zero: NaN == NaN, +0 == -0. Used by
// Map/Set key comparison.
func SameValueZero(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		af, bf := a.AsFloat64(), b.AsFloat64()
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		return af == bf
	}
	return StrictEqual(a, b)
}

// AbstractEqual implements abstract_equal with the ECMA-262 coercion
// ladder for `==`.
func AbstractEqual(ctx Context, a, b Value) (bool, error) {
	if a.IsNumber() && b.IsNumber() {
		return StrictEqual(a, b), nil
	}
	if a.kind == b.kind {
		return StrictEqual(a, b), nil
	}
	if a.IsNullOrUndefined() && b.IsNullOrUndefined() {
		return true, nil
	}
	if a.IsNullOrUndefined() || b.IsNullOrUndefined() {
		return false, nil
	}
	if a.IsNumber() && b.kind == String {
		bn := stringToNumber(b.str)
		return a.AsFloat64() == bn, nil
	}
	if a.kind == String && b.IsNumber() {
		an := stringToNumber(a.str)
		return an == b.AsFloat64(), nil
	}
	if a.kind == BigInt && b.kind == String {
		bn, ok := BigIntFromString(b.str)
		return ok && a.big.Cmp(bn) == 0, nil
	}
	if a.kind == String && b.kind == BigInt {
		an, ok := BigIntFromString(a.str)
		return ok && an.Cmp(b.big) == 0, nil
	}
	if a.kind == Bool {
		n, err := ToNumber(ctx, a)
		if err != nil {
			return false, err
		}
		return AbstractEqual(ctx, numberValue(n), b)
	}
	if b.kind == Bool {
		n, err := ToNumber(ctx, b)
		if err != nil {
			return false, err
		}
		return AbstractEqual(ctx, a, numberValue(n))
	}
	if (a.IsNumber() || a.kind == String || a.kind == BigInt) && b.kind == ObjectKind {
		prim, err := ToPrimitive(ctx, b, HintDefault)
		if err != nil {
			return false, err
		}
		return AbstractEqual(ctx, a, prim)
	}
	if a.kind == ObjectKind && (b.IsNumber() || b.kind == String || b.kind == BigInt) {
		prim, err := ToPrimitive(ctx, a, HintDefault)
		if err != nil {
			return false, err
		}
		return AbstractEqual(ctx, prim, b)
	}
	if (a.kind == BigInt && b.IsNumber()) || (a.IsNumber() && b.kind == BigInt) {
		var bigV, numV Value
		if a.kind == BigInt {
			bigV, numV = a, b
		} else {
			bigV, numV = b, a
		}
		nf := numV.AsFloat64()
		if math.IsNaN(nf) || math.IsInf(nf, 0) || nf != math.Trunc(nf) {
			return false, nil
		}
		return bigV.big.Cmp(big.NewInt(int64(nf))) == 0, nil
	}
	return false, nil
}

// AbstractRelation implements abstract_relation. left_first controls the
// evaluation order of ToPrimitive side effects when both operands are
// objects with a getter-bearing toString/valueOf. It returns an (ok bool,
// undefined bool) pair: undefined=true models the `Undefined`
// comparison result produced when either side is NaN.
func AbstractRelation(ctx Context, a, b Value, leftFirst bool) (result bool, undefined bool, err error) {
	var pa, pb Value
	if leftFirst {
		pa, err = ToPrimitive(ctx, a, HintNumber)
		if err != nil {
			return false, false, err
		}
		pb, err = ToPrimitive(ctx, b, HintNumber)
		if err != nil {
			return false, false, err
		}
	} else {
		pb, err = ToPrimitive(ctx, b, HintNumber)
		if err != nil {
			return false, false, err
		}
		pa, err = ToPrimitive(ctx, a, HintNumber)
		if err != nil {
			return false, false, err
		}
	}

	if pa.kind == String && pb.kind == String {
		return pa.str < pb.str, false, nil
	}
	if pa.kind == BigInt && pb.kind == String {
		bn, ok := BigIntFromString(pb.str)
		if !ok {
			return false, true, nil
		}
		return pa.big.Cmp(bn) < 0, false, nil
	}
	if pa.kind == String && pb.kind == BigInt {
		an, ok := BigIntFromString(pa.str)
		if !ok {
			return false, true, nil
		}
		return an.Cmp(pb.big) < 0, false, nil
	}
	if pa.kind == BigInt || pb.kind == BigInt {
		na, errA := ToNumeric(ctx, pa)
		if errA != nil {
			return false, false, errA
		}
		nb, errB := ToNumeric(ctx, pb)
		if errB != nil {
			return false, false, errB
		}
		return bigIntAwareLess(na, nb)
	}
	na, err := ToNumber(ctx, pa)
	if err != nil {
		return false, false, err
	}
	nb, err := ToNumber(ctx, pb)
	if err != nil {
		return false, false, err
	}
	if math.IsNaN(na) || math.IsNaN(nb) {
		return false, true, nil
	}
	return na < nb, false, nil
}

func bigIntAwareLess(a, b Value) (bool, bool, error) {
	af := toBigFloat(a)
	bf := toBigFloat(b)
	return af.Cmp(bf) < 0, false, nil
}

// toBigFloat widens either a BigInt or a Number Value to a big.Float so
// the two can be compared without losing BigInt precision.
func toBigFloat(v Value) *big.Float {
	if v.kind == BigInt {
		return new(big.Float).SetInt(v.big)
	}
	return big.NewFloat(v.AsFloat64())
}
