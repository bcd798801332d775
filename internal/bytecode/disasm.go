package bytecode

import (
	"fmt"
	"io"
)

// noOperandOps is the set of opcodes that carry no operand at all; every
// other opcode is assumed to carry exactly one varying-width operand.
// collapsed here into two buckets since this format only ever has zero or
// one operand.
var noOperandOps = map[OpCode]bool{
	PushUndefined: true, PushNull: true, PushTrue: true, PushFalse: true,
	PushZero: true, PushOne: true, PushNewArray: true, PushValueToArray: true,
	PushElisionToArray: true, PushSpreadToArray: true, PushNewObject: true,
	PushEmptyObject: true, Dup: true, Swap: true, Pop: true,
	Add: true, Sub: true, Mul: true, Div: true, Mod: true, Pow: true,
	ShiftLeft: true, ShiftRight: true, UnsignedShiftRight: true,
	BitAnd: true, BitOr: true, BitXor: true, BitNot: true, Neg: true, Pos: true,
	Inc: true, Dec: true, Not: true,
	Eq: true, NotEq: true, StrictEq: true, StrictNotEq: true,
	LessThan: true, LessThanOrEq: true, GreaterThan: true, GreaterThanOrEq: true,
	InstanceOf: true, In: true,
	GetPropertyByValue: true, SetPropertyByValue: true,
	DefineOwnPropertyByValue: true, SetPropertyGetterByValue: true,
	SetPropertySetterByValue: true, DeletePropertyByValue: true,
	PushDeclarativeEnvironment: false, // sized by operand (lexical-slot count)
	PushFunctionEnvironment:    true, PushObjectEnvironment: true,
	PopEnvironment: true,
	InitIterator:   true, InitIteratorAsync: true, IteratorNext: true,
	IteratorClose: true, IteratorToArray: true, ForInLoopInitIterator: true,
	Call: false, CallWithRest: true, NewExpr: false, NewWithRest: true,
	Return: true, This: true, NewTarget: true, SuperCall: true,
	Throw:    true,
	TryStart: true, TryEnd: true, CatchStart: true, CatchEnd: true,
	FinallyStart: true, FinallyEnd: true, FinallySetJump: true,
	Yield: true, YieldStar: true, GeneratorNext: true, GeneratorNextDelegate: true,
	Await:     true,
	ToBoolean: true, TypeOf: true, Void: true, RequireObjectCoercible: true,
	ValueNotNullOrUndefined: true, ConcatToString: false, RotateDown3: true, Nop: true,
}

// jumpOps is the set of opcodes whose operand is an absolute instruction
// offset rather than a constant/locator/argument-count index.
var jumpOps = map[OpCode]bool{
	Jump: true, JumpIfTrue: true, JumpIfFalse: true, JumpIfNotUndefined: true,
	LogicalAnd: true, LogicalOr: true, Coalesce: true, Case: true, Default: true,
	ForInLoopNext: true, GeneratorNextDelegate: true,
}

// Disassemble writes a human-readable listing of a CodeBlock and all of its
// nested inner CodeBlocks.
func Disassemble(w io.Writer, code *CodeBlock) {
	fmt.Fprintf(w, "== %s ==\n", code.Name)
	fmt.Fprintf(w, "regs=%d params=%d strict=%v generator=%v async=%v arrow=%v\n",
		code.NumRegs, len(code.Params), code.Strict, code.IsGenerator, code.IsAsync, code.IsArrow)

	if len(code.Consts) > 0 {
		fmt.Fprintln(w, "Constants:")
		for i, v := range code.Consts {
			fmt.Fprintf(w, "  [%04d] %s\n", i, v.String())
		}
	}
	if len(code.Locators) > 0 {
		fmt.Fprintln(w, "Locators:")
		for i, loc := range code.Locators {
			fmt.Fprintf(w, "  [%04d] %s\n", i, loc.Name)
		}
	}

	fmt.Fprintln(w, "Code:")
	dec := Decoder{Code: code.Code}
	for dec.IP < len(dec.Code) {
		disassembleOne(w, code, &dec)
	}

	for i, inner := range code.Inner {
		fmt.Fprintf(w, "\n-- inner[%d] --\n", i)
		Disassemble(w, inner)
	}
}

func disassembleOne(w io.Writer, code *CodeBlock, dec *Decoder) {
	offset := dec.IP
	line := code.LineFor(offset)
	op := dec.ReadOp()

	if noOperandOps[op] {
		fmt.Fprintf(w, "%04d %4d %s\n", offset, line, op)
		return
	}

	operand := dec.ReadOperand()
	switch {
	case jumpOps[op]:
		fmt.Fprintf(w, "%04d %4d %-24s -> %04d\n", offset, line, op, operand)
	case op == PushLiteral:
		v := code.Consts[operand]
		fmt.Fprintf(w, "%04d %4d %-24s %04d '%s'\n", offset, line, op, operand, v.String())
	case op == GetName || op == GetNameOrUndefined || op == SetName || op == DefVar ||
		op == DefInitVar || op == DefLet || op == DefInitLet || op == DefInitConst ||
		op == DeleteName:
		loc := code.Locators[operand]
		fmt.Fprintf(w, "%04d %4d %-24s %04d (%s)\n", offset, line, op, operand, loc.Name)
	case op == GetPropertyByName || op == SetPropertyByName || op == DefineOwnPropertyByName ||
		op == SetPropertyGetterByName || op == SetPropertySetterByName ||
		op == DeletePropertyByName || op == CopyDataProperties:
		name := code.Consts[operand]
		fmt.Fprintf(w, "%04d %4d %-24s %04d '%s'\n", offset, line, op, operand, name.String())
	case op == GetFunction || op == GetGenerator:
		fmt.Fprintf(w, "%04d %4d %-24s inner[%04d]\n", offset, line, op, operand)
	default:
		fmt.Fprintf(w, "%04d %4d %-24s %04d\n", offset, line, op, operand)
	}
}
