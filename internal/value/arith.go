package value

import (
	"math"
	"math/big"
)

// Add implements the `+` operator, which alone among the arithmetic
// operators also handles string concatenation.
func Add(ctx Context, a, b Value) (Value, error) {
	pa, err := ToPrimitive(ctx, a, HintDefault)
	if err != nil {
		return Undef, err
	}
	pb, err := ToPrimitive(ctx, b, HintDefault)
	if err != nil {
		return Undef, err
	}
	if pa.kind == String || pb.kind == String {
		sa, err := ToStringValue(ctx, pa)
		if err != nil {
			return Undef, err
		}
		sb, err := ToStringValue(ctx, pb)
		if err != nil {
			return Undef, err
		}
		return NewString(sa + sb), nil
	}
	return numericBinOp(ctx, pa, pb, func(x, y float64) float64 { return x + y },
		func(x, y *big.Int) *big.Int { return new(big.Int).Add(x, y) })
}

// numericBinOp implements the shared fast-path/widen/bigint dance every
// other arithmetic operator follows: (integer,integer) that fits stays
// Int32, otherwise it widens to Float64; bigint mixed with a non-bigint
// operand throws TypeError.
func numericBinOp(ctx Context, a, b Value, floatOp func(x, y float64) float64, bigOp func(x, y *big.Int) *big.Int) (Value, error) {
	na, err := ToNumeric(ctx, a)
	if err != nil {
		return Undef, err
	}
	nb, err := ToNumeric(ctx, b)
	if err != nil {
		return Undef, err
	}
	if na.kind == BigInt || nb.kind == BigInt {
		if na.kind != nb.kind {
			return Undef, ctx.ThrowTypeError("Cannot mix BigInt and other types, use explicit conversions")
		}
		if bigOp == nil {
			return Undef, ctx.ThrowTypeError("unsupported BigInt operation")
		}
		return NewBigInt(bigOp(na.big, nb.big)), nil
	}
	return NumberValue(floatOp(na.AsFloat64(), nb.AsFloat64())), nil
}

func Sub(ctx Context, a, b Value) (Value, error) {
	return numericBinOp(ctx, a, b, func(x, y float64) float64 { return x - y },
		func(x, y *big.Int) *big.Int { return new(big.Int).Sub(x, y) })
}

func Mul(ctx Context, a, b Value) (Value, error) {
	return numericBinOp(ctx, a, b, func(x, y float64) float64 { return x * y },
		func(x, y *big.Int) *big.Int { return new(big.Int).Mul(x, y) })
}

func Div(ctx Context, a, b Value) (Value, error) {
	na, err := ToNumeric(ctx, a)
	if err != nil {
		return Undef, err
	}
	nb, err := ToNumeric(ctx, b)
	if err != nil {
		return Undef, err
	}
	if na.kind == BigInt || nb.kind == BigInt {
		if na.kind != nb.kind {
			return Undef, ctx.ThrowTypeError("Cannot mix BigInt and other types, use explicit conversions")
		}
		if nb.big.Sign() == 0 {
			return Undef, ctx.ThrowRangeError("Division by zero")
		}
		return NewBigInt(new(big.Int).Quo(na.big, nb.big)), nil
	}
	return NumberValue(na.AsFloat64() / nb.AsFloat64()), nil
}

func Rem(ctx Context, a, b Value) (Value, error) {
	na, err := ToNumeric(ctx, a)
	if err != nil {
		return Undef, err
	}
	nb, err := ToNumeric(ctx, b)
	if err != nil {
		return Undef, err
	}
	if na.kind == BigInt || nb.kind == BigInt {
		if na.kind != nb.kind {
			return Undef, ctx.ThrowTypeError("Cannot mix BigInt and other types, use explicit conversions")
		}
		if nb.big.Sign() == 0 {
			return Undef, ctx.ThrowRangeError("Division by zero")
		}
		return NewBigInt(new(big.Int).Rem(na.big, nb.big)), nil
	}
	return NumberValue(math.Mod(na.AsFloat64(), nb.AsFloat64())), nil
}

func Pow(ctx Context, a, b Value) (Value, error) {
	na, err := ToNumeric(ctx, a)
	if err != nil {
		return Undef, err
	}
	nb, err := ToNumeric(ctx, b)
	if err != nil {
		return Undef, err
	}
	if na.kind == BigInt || nb.kind == BigInt {
		if na.kind != nb.kind {
			return Undef, ctx.ThrowTypeError("Cannot mix BigInt and other types, use explicit conversions")
		}
		if nb.big.Sign() < 0 {
			return Undef, ctx.ThrowRangeError("Exponent must be non-negative")
		}
		return NewBigInt(new(big.Int).Exp(na.big, nb.big, nil)), nil
	}
	return NumberValue(math.Pow(na.AsFloat64(), nb.AsFloat64())), nil
}

func intBitOp(ctx Context, a, b Value, op func(x, y int32) int32, bigOp func(x, y *big.Int) *big.Int) (Value, error) {
	na, err := ToNumeric(ctx, a)
	if err != nil {
		return Undef, err
	}
	nb, err := ToNumeric(ctx, b)
	if err != nil {
		return Undef, err
	}
	if na.kind == BigInt || nb.kind == BigInt {
		if na.kind != nb.kind {
			return Undef, ctx.ThrowTypeError("Cannot mix BigInt and other types, use explicit conversions")
		}
		return NewBigInt(bigOp(na.big, nb.big)), nil
	}
	ia := toInt32(na.AsFloat64())
	ib := toInt32(nb.AsFloat64())
	return NewInt32(op(ia, ib)), nil
}

func BitAnd(ctx Context, a, b Value) (Value, error) {
	return intBitOp(ctx, a, b, func(x, y int32) int32 { return x & y },
		func(x, y *big.Int) *big.Int { return new(big.Int).And(x, y) })
}

func BitOr(ctx Context, a, b Value) (Value, error) {
	return intBitOp(ctx, a, b, func(x, y int32) int32 { return x | y },
		func(x, y *big.Int) *big.Int { return new(big.Int).Or(x, y) })
}

func BitXor(ctx Context, a, b Value) (Value, error) {
	return intBitOp(ctx, a, b, func(x, y int32) int32 { return x ^ y },
		func(x, y *big.Int) *big.Int { return new(big.Int).Xor(x, y) })
}

func Shl(ctx Context, a, b Value) (Value, error) {
	na, err := ToInt32(ctx, a)
	if err != nil {
		return Undef, err
	}
	nb, err := ToUint32(ctx, b)
	if err != nil {
		return Undef, err
	}
	return NewInt32(na << (nb & 31)), nil
}

func Shr(ctx Context, a, b Value) (Value, error) {
	na, err := ToInt32(ctx, a)
	if err != nil {
		return Undef, err
	}
	nb, err := ToUint32(ctx, b)
	if err != nil {
		return Undef, err
	}
	return NewInt32(na >> (nb & 31)), nil
}

func Ushr(ctx Context, a, b Value) (Value, error) {
	na, err := ToUint32(ctx, a)
	if err != nil {
		return Undef, err
	}
	nb, err := ToUint32(ctx, b)
	if err != nil {
		return Undef, err
	}
	return NumberValue(float64(na >> (nb & 31))), nil
}

// Neg implements unary `-`.
func Neg(ctx Context, a Value) (Value, error) {
	na, err := ToNumeric(ctx, a)
	if err != nil {
		return Undef, err
	}
	if na.kind == BigInt {
		return NewBigInt(new(big.Int).Neg(na.big)), nil
	}
	return NumberValue(-na.AsFloat64()), nil
}

// BitNot implements unary `~`.
func BitNot(ctx Context, a Value) (Value, error) {
	na, err := ToNumeric(ctx, a)
	if err != nil {
		return Undef, err
	}
	if na.kind == BigInt {
		return NewBigInt(new(big.Int).Not(na.big)), nil
	}
	return NewInt32(^toInt32(na.AsFloat64())), nil
}

// Inc/Dec implement `++`/`--`'s numeric step, shared by the prefix and
// postfix forms (the VM decides which value to leave on the stack).
func Inc(ctx Context, a Value) (Value, error) {
	na, err := ToNumeric(ctx, a)
	if err != nil {
		return Undef, err
	}
	if na.kind == BigInt {
		return NewBigInt(new(big.Int).Add(na.big, big.NewInt(1))), nil
	}
	return NumberValue(na.AsFloat64() + 1), nil
}

func Dec(ctx Context, a Value) (Value, error) {
	na, err := ToNumeric(ctx, a)
	if err != nil {
		return Undef, err
	}
	if na.kind == BigInt {
		return NewBigInt(new(big.Int).Sub(na.big, big.NewInt(1))), nil
	}
	return NumberValue(na.AsFloat64() - 1), nil
}
