// Package bytecode implements the bytecode compiler: the CodeBlock unit of
// compilation
// (instruction stream, constant pool, inner-CodeBlock table, scope metadata,
// handler-region table), the varying-width operand encoder, the AST-to-
// bytecode compiler, and a disassembler.
package bytecode

// OpCode is a single bytecode instruction's operation.
type OpCode byte

const (
	// Stack / register family.
	PushUndefined OpCode = iota
	PushNull
	PushTrue
	PushFalse
	PushZero
	PushOne
	PushInt8
	PushInt16
	PushInt32
	PushRational
	PushLiteral
	PushNewArray
	PushValueToArray
	PushElisionToArray
	PushSpreadToArray
	PushNewObject
	PushEmptyObject
	Dup
	Swap
	Pop

	// Arithmetic/logic family.
	Add
	Sub
	Mul
	Div
	Mod
	Pow
	ShiftLeft
	ShiftRight
	UnsignedShiftRight
	BitAnd
	BitOr
	BitXor
	BitNot
	Neg
	Pos
	Inc
	Dec
	Not

	// Comparison family.
	Eq
	NotEq
	StrictEq
	StrictNotEq
	LessThan
	LessThanOrEq
	GreaterThan
	GreaterThanOrEq
	InstanceOf
	In

	// Control-flow family.
	Jump
	JumpIfTrue
	JumpIfFalse
	JumpIfNotUndefined
	LogicalAnd
	LogicalOr
	Coalesce
	Case
	Default

	// Binding family.
	DefVar
	DefInitVar
	DefLet
	DefInitLet
	DefInitConst
	DefInitArg
	GetName
	GetNameOrUndefined
	SetName
	DeleteName

	// Property family.
	GetPropertyByName
	GetPropertyByValue
	SetPropertyByName
	SetPropertyByValue
	DefineOwnPropertyByName
	DefineOwnPropertyByValue
	SetPropertyGetterByName
	SetPropertySetterByName
	SetPropertyGetterByValue
	SetPropertySetterByValue
	DeletePropertyByName
	DeletePropertyByValue
	CopyDataProperties

	// Environment family.
	PushDeclarativeEnvironment
	PushFunctionEnvironment
	PushObjectEnvironment
	PopEnvironment

	// Iteration family.
	InitIterator
	InitIteratorAsync
	IteratorNext
	IteratorClose
	IteratorToArray
	ForInLoopInitIterator
	ForInLoopNext

	// Calling family.
	GetFunction
	GetGenerator
	Call
	CallWithRest
	NewExpr
	NewWithRest
	Return
	This
	NewTarget
	SuperCall
	RestParameterInit

	// Exceptions family.
	Throw
	TryStart
	TryEnd
	CatchStart
	CatchEnd
	FinallyStart
	FinallyEnd
	FinallySetJump

	// Generators family.
	Yield
	YieldStar
	GeneratorNext
	GeneratorNextDelegate
	Await

	// Misc family.
	ToBoolean
	TypeOf
	Void
	RequireObjectCoercible
	ValueNotNullOrUndefined
	ConcatToString
	RotateDown3
	Nop

	opCodeCount
)

var opNames = [...]string{
	"PushUndefined", "PushNull", "PushTrue", "PushFalse", "PushZero", "PushOne",
	"PushInt8", "PushInt16", "PushInt32", "PushRational", "PushLiteral",
	"PushNewArray", "PushValueToArray", "PushElisionToArray", "PushSpreadToArray",
	"PushNewObject", "PushEmptyObject", "Dup", "Swap", "Pop",
	"Add", "Sub", "Mul", "Div", "Mod", "Pow", "ShiftLeft", "ShiftRight",
	"UnsignedShiftRight", "BitAnd", "BitOr", "BitXor", "BitNot", "Neg", "Pos",
	"Inc", "Dec", "Not",
	"Eq", "NotEq", "StrictEq", "StrictNotEq", "LessThan", "LessThanOrEq",
	"GreaterThan", "GreaterThanOrEq", "InstanceOf", "In",
	"Jump", "JumpIfTrue", "JumpIfFalse", "JumpIfNotUndefined", "LogicalAnd",
	"LogicalOr", "Coalesce", "Case", "Default",
	"DefVar", "DefInitVar", "DefLet", "DefInitLet", "DefInitConst", "DefInitArg",
	"GetName", "GetNameOrUndefined", "SetName", "DeleteName",
	"GetPropertyByName", "GetPropertyByValue", "SetPropertyByName",
	"SetPropertyByValue", "DefineOwnPropertyByName", "DefineOwnPropertyByValue",
	"SetPropertyGetterByName", "SetPropertySetterByName",
	"SetPropertyGetterByValue", "SetPropertySetterByValue",
	"DeletePropertyByName", "DeletePropertyByValue", "CopyDataProperties",
	"PushDeclarativeEnvironment", "PushFunctionEnvironment",
	"PushObjectEnvironment", "PopEnvironment",
	"InitIterator", "InitIteratorAsync", "IteratorNext", "IteratorClose",
	"IteratorToArray", "ForInLoopInitIterator", "ForInLoopNext",
	"GetFunction", "GetGenerator", "Call", "CallWithRest", "New", "NewWithRest",
	"Return", "This", "NewTarget", "SuperCall", "RestParameterInit",
	"Throw", "TryStart", "TryEnd", "CatchStart", "CatchEnd", "FinallyStart",
	"FinallyEnd", "FinallySetJump",
	"Yield", "YieldStar", "GeneratorNext", "GeneratorNextDelegate", "Await",
	"ToBoolean", "TypeOf", "Void", "RequireObjectCoercible",
	"ValueNotNullOrUndefined", "ConcatToString", "RotateDown3", "Nop",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "Unknown"
}
