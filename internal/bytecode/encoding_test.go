package bytecode

import "testing"

func TestOperandWidthSelection(t *testing.T) {
	tests := []struct {
		operand uint32
		want    Width
	}{
		{0, WidthU8},
		{0xFF, WidthU8},
		{0x100, WidthU16},
		{0xFFFF, WidthU16},
		{0x10000, WidthU32},
		{0xFFFFFFFF, WidthU32},
	}
	for _, tt := range tests {
		if got := widthFor(tt.operand); got != tt.want {
			t.Errorf("widthFor(%#x) = %v, want %v", tt.operand, got, tt.want)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var enc Encoder
	enc.Emit(PushUndefined)
	enc.EmitOperand(PushInt8, 42)
	enc.EmitOperand(PushLiteral, 0x1234)
	enc.EmitOperand(Call, 0x12345678)
	enc.Emit(Return)

	dec := Decoder{Code: enc.Code}
	if op := dec.ReadOp(); op != PushUndefined {
		t.Fatalf("op 1 = %v, want PushUndefined", op)
	}
	if op, v := dec.ReadOp(), dec.ReadOperand(); op != PushInt8 || v != 42 {
		t.Fatalf("op 2 = %v %d, want PushInt8 42", op, v)
	}
	if op, v := dec.ReadOp(), dec.ReadOperand(); op != PushLiteral || v != 0x1234 {
		t.Fatalf("op 3 = %v %#x, want PushLiteral 0x1234", op, v)
	}
	if op, v := dec.ReadOp(), dec.ReadOperand(); op != Call || v != 0x12345678 {
		t.Fatalf("op 4 = %v %#x, want Call 0x12345678", op, v)
	}
	if op := dec.ReadOp(); op != Return {
		t.Fatalf("op 5 = %v, want Return", op)
	}
	if dec.IP != len(enc.Code) {
		t.Errorf("decoder stopped at %d, want %d", dec.IP, len(enc.Code))
	}
}

func TestJumpPatching(t *testing.T) {
	var enc Encoder
	pos := enc.EmitJump(Jump)
	enc.Emit(Nop)
	enc.Emit(Nop)
	enc.PatchJump(pos)

	dec := Decoder{Code: enc.Code}
	if op := dec.ReadOp(); op != Jump {
		t.Fatalf("op = %v, want Jump", op)
	}
	if target := dec.ReadOperand(); target != uint32(len(enc.Code)) {
		t.Errorf("jump target = %d, want %d", target, len(enc.Code))
	}
}

func TestBackwardJumpTarget(t *testing.T) {
	var enc Encoder
	start := enc.Here()
	enc.Emit(Nop)
	pos := enc.EmitJump(Jump)
	enc.PatchJumpTo(pos, start)

	dec := Decoder{Code: enc.Code}
	dec.ReadOp() // Nop
	dec.ReadOp() // Jump
	if target := dec.ReadOperand(); target != start {
		t.Errorf("jump target = %d, want %d", target, start)
	}
}
