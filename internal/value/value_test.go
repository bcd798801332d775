package value

import (
	"fmt"
	"math"
	"math/big"
	"testing"
)

type fakeContext struct{}

func (fakeContext) ThrowTypeError(format string, args ...any) error {
	return fmt.Errorf("TypeError: "+format, args...)
}
func (fakeContext) ThrowRangeError(format string, args ...any) error {
	return fmt.Errorf("RangeError: "+format, args...)
}
func (fakeContext) CallMethod(obj HeapObject, name string, args []Value) (Value, error) {
	return Undef, fmt.Errorf("no callable methods in fakeContext")
}
func (fakeContext) GetProperty(obj HeapObject, name string) (Value, error) {
	return Undef, fmt.Errorf("no properties in fakeContext")
}
func (fakeContext) SymbolToPrimitive() string { return "Symbol(Symbol.toPrimitive)" }

func TestToBoolean(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"undefined", Undef, false},
		{"null", Nil, false},
		{"+0", NewInt32(0), false},
		{"-0", NewFloat64(math.Copysign(0, -1)), false},
		{"NaN", NewFloat64(math.NaN()), false},
		{"empty string", NewString(""), false},
		{"non-empty string", NewString("x"), true},
		{"nonzero int", NewInt32(1), true},
		{"true", True, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToBoolean(tt.v); got != tt.want {
				t.Errorf("ToBoolean(%v) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestStrictEqual(t *testing.T) {
	nan := NewFloat64(math.NaN())
	if StrictEqual(nan, nan) {
		t.Error("NaN should not strict-equal itself")
	}
	if !StrictEqual(NewInt32(0), NewFloat64(math.Copysign(0, -1))) {
		t.Error("+0 should strict-equal -0")
	}
	if !StrictEqual(NewString("a"), NewString("a")) {
		t.Error("equal strings should strict-equal")
	}
}

func TestSameValueZero(t *testing.T) {
	nan := NewFloat64(math.NaN())
	if !SameValueZero(nan, nan) {
		t.Error("SameValueZero(NaN, NaN) should be true")
	}
	if !SameValueZero(NewInt32(0), NewFloat64(math.Copysign(0, -1))) {
		t.Error("SameValueZero(+0, -0) should be true")
	}
}

func TestSameValueDistinguishesZeroSigns(t *testing.T) {
	if SameValue(NewInt32(0), NewFloat64(math.Copysign(0, -1))) {
		t.Error("Object.is(+0, -0) should be false")
	}
}

func TestNumberFastPathWidening(t *testing.T) {
	v := NumberValue(3)
	if v.Kind() != Int32 {
		t.Errorf("exact integer should stay Int32, got %v", v.Kind())
	}
	v = NumberValue(3.5)
	if v.Kind() != Float64 {
		t.Errorf("fractional value should widen to Float64, got %v", v.Kind())
	}
}

func TestAddConcatenatesStrings(t *testing.T) {
	ctx := fakeContext{}
	got, err := Add(ctx, NewString("a"), NewString("b"))
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if got.Kind() != String || got.AsString() != "ab" {
		t.Errorf("Add(\"a\",\"b\") = %v, want \"ab\"", got)
	}
}

func TestAddWidensMixedNumeric(t *testing.T) {
	ctx := fakeContext{}
	got, err := Add(ctx, NewInt32(2), NewFloat64(3.5))
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if got.Kind() != Float64 || got.AsFloat64() != 5.5 {
		t.Errorf("Add(2, 3.5) = %v, want 5.5", got)
	}
}

func TestBigIntMixedWithNumberThrows(t *testing.T) {
	ctx := fakeContext{}
	big1 := NewBigInt(big.NewInt(1))
	if _, err := Add(ctx, big1, NewInt32(1)); err == nil {
		t.Error("mixing BigInt with Number should throw TypeError")
	}
}

func TestToPrimitiveIsIdentityOnPrimitives(t *testing.T) {
	ctx := fakeContext{}
	for _, v := range []Value{NewInt32(1), NewString("x"), True, Nil, Undef} {
		got, err := ToPrimitive(ctx, v, HintDefault)
		if err != nil {
			t.Fatalf("ToPrimitive(%v) errored: %v", v, err)
		}
		if !SameValue(got, v) {
			t.Errorf("ToPrimitive(%v) = %v, want identity", v, got)
		}
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Undef, "undefined"},
		{Nil, "object"},
		{True, "boolean"},
		{NewInt32(1), "number"},
		{NewString("x"), "string"},
	}
	for _, tt := range tests {
		if got := tt.v.TypeOf(); got != tt.want {
			t.Errorf("TypeOf(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
