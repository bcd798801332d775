package realm

import (
	"math"
	"math/rand"
	"strconv"

	"github.com/go-jsvm/jsvm/internal/object"
	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

func nan() float64 { return math.NaN() }

func (r *Realm) installNumberBooleanMath() {
	numProto := r.intr.NumberProto

	numberCtor := r.ctor("Number", 1, numProto,
		func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
			if len(args) == 0 {
				return value.NewInt32(0), nil
			}
			n, err := value.ToNumber(m, args[0])
			if err != nil {
				return value.Undef, err
			}
			return value.NumberValue(n), nil
		},
		func(m *vm.Machine, args []value.Value, _ *object.Object) (*object.Object, error) {
			n := 0.0
			if len(args) > 0 {
				var err error
				n, err = value.ToNumber(m, args[0])
				if err != nil {
					return nil, err
				}
			}
			boxed, err := r.wrapPrimitive(value.NumberValue(n))
			if err != nil {
				return nil, err
			}
			return boxed.AsObject().(*object.Object), nil
		})

	defConst(numberCtor, "MAX_SAFE_INTEGER", value.NewFloat64(9007199254740991))
	defConst(numberCtor, "MIN_SAFE_INTEGER", value.NewFloat64(-9007199254740991))
	defConst(numberCtor, "MAX_VALUE", value.NewFloat64(math.MaxFloat64))
	defConst(numberCtor, "MIN_VALUE", value.NewFloat64(5e-324))
	defConst(numberCtor, "EPSILON", value.NewFloat64(2.220446049250313e-16))
	defConst(numberCtor, "NaN", value.NewFloat64(math.NaN()))
	defConst(numberCtor, "POSITIVE_INFINITY", value.NewFloat64(math.Inf(1)))
	defConst(numberCtor, "NEGATIVE_INFINITY", value.NewFloat64(math.Inf(-1)))

	r.method(numberCtor, "isNaN", 1, func(_ *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		return value.NewBool(v.Kind() == value.Float64 && math.IsNaN(v.AsFloat64())), nil
	})
	r.method(numberCtor, "isFinite", 1, func(_ *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		return value.NewBool(v.IsNumber() && !math.IsNaN(v.AsFloat64()) && !math.IsInf(v.AsFloat64(), 0)), nil
	})
	r.method(numberCtor, "isInteger", 1, func(_ *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		if !v.IsNumber() {
			return value.False, nil
		}
		f := v.AsFloat64()
		return value.NewBool(!math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)), nil
	})
	r.method(numberCtor, "isSafeInteger", 1, func(_ *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		if !v.IsNumber() {
			return value.False, nil
		}
		f := v.AsFloat64()
		ok := !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f) && math.Abs(f) <= 9007199254740991
		return value.NewBool(ok), nil
	})

	r.method(numProto, "toString", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		pv, ok := primitiveOf(this, value.Float64)
		if !ok || !pv.IsNumber() {
			return value.Undef, m.ThrowTypeError("Number.prototype.toString requires a number receiver")
		}
		radix := 10
		if rv := arg(args, 0); !rv.IsUndefined() {
			n, err := value.ToInt32(m, rv)
			if err != nil {
				return value.Undef, err
			}
			radix = int(n)
		}
		if radix < 2 || radix > 36 {
			return value.Undef, m.ThrowRangeError("toString() radix must be between 2 and 36")
		}
		f := pv.AsFloat64()
		if radix == 10 {
			return value.NewString(formatFloat(f)), nil
		}
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			return value.NewString(strconv.FormatInt(int64(f), radix)), nil
		}
		return value.NewString(strconv.FormatFloat(f, 'g', -1, 64)), nil
	})
	r.method(numProto, "toFixed", 1, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		pv, ok := primitiveOf(this, value.Float64)
		if !ok || !pv.IsNumber() {
			return value.Undef, m.ThrowTypeError("Number.prototype.toFixed requires a number receiver")
		}
		digits, err := value.ToIntegerOrInfinity(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		if digits < 0 || digits > 100 {
			return value.Undef, m.ThrowRangeError("toFixed() digits argument must be between 0 and 100")
		}
		return value.NewString(strconv.FormatFloat(pv.AsFloat64(), 'f', int(digits), 64)), nil
	})
	r.method(numProto, "valueOf", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		pv, ok := primitiveOf(this, value.Float64)
		if !ok || !pv.IsNumber() {
			return value.Undef, m.ThrowTypeError("Number.prototype.valueOf requires a number receiver")
		}
		return pv, nil
	})

	boolProto := r.intr.BooleanProto
	r.ctor("Boolean", 1, boolProto,
		func(_ *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
			return value.NewBool(value.ToBoolean(arg(args, 0))), nil
		},
		func(m *vm.Machine, args []value.Value, _ *object.Object) (*object.Object, error) {
			boxed, err := r.wrapPrimitive(value.NewBool(value.ToBoolean(arg(args, 0))))
			if err != nil {
				return nil, err
			}
			return boxed.AsObject().(*object.Object), nil
		})
	r.method(boolProto, "toString", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		pv, ok := primitiveOf(this, value.Bool)
		if !ok {
			return value.Undef, m.ThrowTypeError("Boolean.prototype.toString requires a boolean receiver")
		}
		if pv.AsBool() {
			return value.NewString("true"), nil
		}
		return value.NewString("false"), nil
	})
	r.method(boolProto, "valueOf", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		pv, ok := primitiveOf(this, value.Bool)
		if !ok {
			return value.Undef, m.ThrowTypeError("Boolean.prototype.valueOf requires a boolean receiver")
		}
		return pv, nil
	})

	r.installMath()
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

func (r *Realm) installMath() {
	mathObj := r.m.NewPlainObject()
	defConst(mathObj, "PI", value.NewFloat64(math.Pi))
	defConst(mathObj, "E", value.NewFloat64(math.E))
	defConst(mathObj, "LN2", value.NewFloat64(math.Ln2))
	defConst(mathObj, "SQRT2", value.NewFloat64(math.Sqrt2))

	unary := func(name string, f func(float64) float64) {
		r.method(mathObj, name, 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
			n, err := value.ToNumber(m, arg(args, 0))
			if err != nil {
				return value.Undef, err
			}
			return value.NumberValue(f(n)), nil
		})
	}
	unary("abs", math.Abs)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("round", func(f float64) float64 { return math.Floor(f + 0.5) })
	unary("trunc", math.Trunc)
	unary("sqrt", math.Sqrt)
	unary("cbrt", math.Cbrt)
	unary("log", math.Log)
	unary("log2", math.Log2)
	unary("log10", math.Log10)
	unary("exp", math.Exp)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("sign", func(f float64) float64 {
		switch {
		case math.IsNaN(f):
			return f
		case f > 0:
			return 1
		case f < 0:
			return -1
		default:
			return f
		}
	})

	r.method(mathObj, "pow", 2, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		a, err := value.ToNumber(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		b, err := value.ToNumber(m, arg(args, 1))
		if err != nil {
			return value.Undef, err
		}
		return value.NumberValue(math.Pow(a, b)), nil
	})
	r.method(mathObj, "atan2", 2, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		y, err := value.ToNumber(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		x, err := value.ToNumber(m, arg(args, 1))
		if err != nil {
			return value.Undef, err
		}
		return value.NumberValue(math.Atan2(y, x)), nil
	})
	minmax := func(name string, better func(a, b float64) bool, empty float64) {
		r.method(mathObj, name, 2, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
			best := empty
			for _, a := range args {
				n, err := value.ToNumber(m, a)
				if err != nil {
					return value.Undef, err
				}
				if math.IsNaN(n) {
					return value.NewFloat64(math.NaN()), nil
				}
				if better(n, best) {
					best = n
				}
			}
			return value.NumberValue(best), nil
		})
	}
	minmax("max", func(a, b float64) bool { return a > b }, math.Inf(-1))
	minmax("min", func(a, b float64) bool { return a < b }, math.Inf(1))

	r.method(mathObj, "random", 0, func(_ *vm.Machine, _ value.Value, _ []value.Value) (value.Value, error) {
		return value.NewFloat64(rand.Float64()), nil
	})
	r.method(mathObj, "hypot", 2, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		sum := 0.0
		for _, a := range args {
			n, err := value.ToNumber(m, a)
			if err != nil {
				return value.Undef, err
			}
			sum += n * n
		}
		return value.NumberValue(math.Sqrt(sum)), nil
	})

	def(r.global, "Math", value.NewObject(mathObj))
}
