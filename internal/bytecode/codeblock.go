package bytecode

import (
	"github.com/go-jsvm/jsvm/internal/environment"
	"github.com/go-jsvm/jsvm/internal/value"
)

// HandlerKind distinguishes a try/catch region from a try/finally region.
type HandlerKind byte

const (
	HandlerCatch HandlerKind = iota
	HandlerFinally
)

// Handler is one entry of a CodeBlock's handler-region table: the
// instruction range [Start, End) it guards, where control transfers on a
// non-normal completion, the register-stack and environment depths to
// restore, and its kind.
type Handler struct {
	Start      uint32
	End        uint32
	Target     uint32
	StackDepth int
	EnvDepth   int
	Kind       HandlerKind
}

// ParamInfo describes one formal parameter, including destructuring patterns
// and defaults.
type ParamInfo struct {
	Name    string // simple-identifier fast path; empty when Pattern is set
	Pattern any    // *ast.ArrayPattern / *ast.ObjectPattern, nil for simple params
	Default bool   // has a default-value expression compiled inline at DefInitArg time
	Rest    bool   // trailing `...name` parameter
}

// CodeBlock is unit of compilation: an instruction stream, a constant pool,
// a table of inner CodeBlocks (nested function literals), the formal-
// parameter list, scope metadata, the register-slot count, and the handler-
// region table.
type CodeBlock struct {
	Name   string
	Code   []byte
	Consts []value.Value

	// Inner holds nested function CodeBlocks, referenced by GetFunction's/
	// GetGenerator's operand index.
	Inner []*CodeBlock

	Params      []ParamInfo
	NumRegs     int
	IsArrow     bool
	IsGenerator bool
	IsAsync     bool
	Strict      bool

	// ArgumentsIndex is the function-scope slot reserved for the `arguments`
	// object, or -1 when the function has none (arrow functions, or a
	// parameter/binding shadowing the name).
	ArgumentsIndex int

	// SelfIndex is the slot a named function expression binds its own name
	// into for recursive self-reference, or -1.
	SelfIndex int

	// Scope is the compile-time environment mirroring the function-level
	// runtime record, consulted by the VM for poisoned-frame re-resolution.
	Scope *environment.CompileTimeEnvironment

	// LocalNames maps register index -> source name, for `arguments` aliasing
	// and disassembly/debugging.
	LocalNames []string

	Handlers []Handler

	// Locators holds resolved BindingLocators referenced by GetName/SetName/
	// DefVar/.../DeleteName instruction operands.
	Locators []environment.BindingLocator

	// Lines maps an instruction offset to its source line for diagnostics,
	// sparsely: only offsets that start a new line are recorded.
	Lines []LineEntry
}

// LineEntry is one sparse offset->line mapping entry.
type LineEntry struct {
	Offset int
	Line   int
}

// New creates an empty named CodeBlock.
func New(name string) *CodeBlock {
	return &CodeBlock{Name: name, ArgumentsIndex: -1, SelfIndex: -1}
}

// AddConst appends v to the constant pool and returns its index.
func (c *CodeBlock) AddConst(v value.Value) uint32 {
	c.Consts = append(c.Consts, v)
	return uint32(len(c.Consts) - 1)
}

// AddInner appends a nested CodeBlock and returns its index.
func (c *CodeBlock) AddInner(inner *CodeBlock) uint32 {
	c.Inner = append(c.Inner, inner)
	return uint32(len(c.Inner) - 1)
}

// AddHandler appends a handler-region entry.
func (c *CodeBlock) AddHandler(h Handler) {
	c.Handlers = append(c.Handlers, h)
}

// LineFor returns the source line registered at or before offset.
func (c *CodeBlock) LineFor(offset int) int {
	line := 0
	for _, e := range c.Lines {
		if e.Offset > offset {
			break
		}
		line = e.Line
	}
	return line
}

// MarkLine records that offset begins a new source line, if it differs
// from the most recently recorded one.
func (c *CodeBlock) MarkLine(offset, line int) {
	if len(c.Lines) > 0 && c.Lines[len(c.Lines)-1].Line == line {
		return
	}
	c.Lines = append(c.Lines, LineEntry{Offset: offset, Line: line})
}

// AllocReg reserves and returns the next free register slot.
func (c *CodeBlock) AllocReg() int {
	r := c.NumRegs
	c.NumRegs++
	return r
}
