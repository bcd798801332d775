package realm

import (
	"math"
	"math/big"

	"github.com/go-jsvm/jsvm/internal/value"
	"github.com/go-jsvm/jsvm/internal/vm"
)

func (r *Realm) installSymbolBigInt() {
	symProto := r.intr.SymbolProto
	symbolCtor := r.m.NewNativeFunction("Symbol", 0, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		desc := ""
		if dv := arg(args, 0); !dv.IsUndefined() {
			var err error
			desc, err = value.ToStringValue(m, dv)
			if err != nil {
				return value.Undef, err
			}
		}
		return value.NewSymbol(desc), nil
	})
	def(symbolCtor, "prototype", value.NewObject(symProto))
	def(symProto, "constructor", value.NewObject(symbolCtor))
	def(r.global, "Symbol", value.NewObject(symbolCtor))

	defConst(symbolCtor, "iterator", value.WrapSymbol(r.intr.SymbolIterator))
	defConst(symbolCtor, "asyncIterator", value.WrapSymbol(r.intr.SymbolAsyncIterator))
	defConst(symbolCtor, "toPrimitive", value.WrapSymbol(r.intr.SymbolToPrimitive))
	defConst(symbolCtor, "hasInstance", value.WrapSymbol(r.intr.SymbolHasInstance))
	defConst(symbolCtor, "toStringTag", value.WrapSymbol(r.intr.SymbolToStringTag))
	defConst(symbolCtor, "unscopables", value.WrapSymbol(r.intr.SymbolUnscopables))

	r.method(symbolCtor, "for", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		key, err := value.ToStringValue(m, arg(args, 0))
		if err != nil {
			return value.Undef, err
		}
		if sym, ok := r.symbolRegistry[key]; ok {
			return value.WrapSymbol(sym), nil
		}
		sym := value.NewSymbol(key).AsSymbol()
		r.symbolRegistry[key] = sym
		return value.WrapSymbol(sym), nil
	})
	r.method(symbolCtor, "keyFor", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		if !v.IsSymbol() {
			return value.Undef, m.ThrowTypeError("Symbol.keyFor requires a symbol")
		}
		for key, sym := range r.symbolRegistry {
			if sym == v.AsSymbol() {
				return value.NewString(key), nil
			}
		}
		return value.Undef, nil
	})

	r.method(symProto, "toString", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		pv, ok := primitiveOf(this, value.SymbolKind)
		if !ok || !pv.IsSymbol() {
			return value.Undef, m.ThrowTypeError("Symbol.prototype.toString requires a symbol receiver")
		}
		return value.NewString("Symbol(" + pv.AsSymbol().Description + ")"), nil
	})
	r.getter(symProto, "description", func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		pv, ok := primitiveOf(this, value.SymbolKind)
		if !ok || !pv.IsSymbol() {
			return value.Undef, m.ThrowTypeError("receiver is not a symbol")
		}
		return value.NewString(pv.AsSymbol().Description), nil
	})

	bigProto := r.intr.BigIntProto
	bigCtor := r.m.NewNativeFunction("BigInt", 1, func(m *vm.Machine, _ value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		switch v.Kind() {
		case value.BigInt:
			return v, nil
		case value.Int32, value.Float64:
			f := v.AsFloat64()
			if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
				return value.Undef, m.ThrowRangeError("The number %v cannot be converted to a BigInt because it is not an integer", f)
			}
			bi, _ := new(big.Float).SetFloat64(f).Int(nil)
			return value.NewBigInt(bi), nil
		case value.String:
			n, ok := value.BigIntFromString(v.AsString())
			if !ok {
				return value.Undef, NewSyntaxError(m, "Cannot convert %s to a BigInt", v.AsString())
			}
			return value.NewBigInt(n), nil
		case value.Bool:
			if v.AsBool() {
				return value.NewBigInt(big.NewInt(1)), nil
			}
			return value.NewBigInt(big.NewInt(0)), nil
		default:
			return value.Undef, m.ThrowTypeError("Cannot convert %s to a BigInt", v.TypeOf())
		}
	})
	def(bigCtor, "prototype", value.NewObject(bigProto))
	def(bigProto, "constructor", value.NewObject(bigCtor))
	def(r.global, "BigInt", value.NewObject(bigCtor))

	r.method(bigProto, "toString", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		pv, ok := primitiveOf(this, value.BigInt)
		if !ok || !pv.IsBigInt() {
			return value.Undef, m.ThrowTypeError("BigInt.prototype.toString requires a bigint receiver")
		}
		return value.NewString(pv.AsBigInt().String()), nil
	})
	r.method(bigProto, "valueOf", 0, func(m *vm.Machine, this value.Value, _ []value.Value) (value.Value, error) {
		pv, ok := primitiveOf(this, value.BigInt)
		if !ok || !pv.IsBigInt() {
			return value.Undef, m.ThrowTypeError("BigInt.prototype.valueOf requires a bigint receiver")
		}
		return pv, nil
	})
}

// NewSyntaxError builds a SyntaxError completion; realm-level counterpart
// of the Machine's TypeError/RangeError helpers.
func NewSyntaxError(_ *vm.Machine, format string, args ...any) error {
	return vm.NewError(vm.ErrSyntax, format, args...)
}
