package bytecode

import (
	"fmt"

	"github.com/go-jsvm/jsvm/internal/ast"
	"github.com/go-jsvm/jsvm/internal/environment"
	"github.com/go-jsvm/jsvm/internal/value"
)

// Compiler walks an *ast.Program (or a single function body) and produces a
// CodeBlock One Compiler instance exists per function nesting level; nested
// function literals get their own child Compiler whose CodeBlock is attached
// via AddInner.
type Compiler struct {
	code   *CodeBlock
	enc    Encoder
	scope  *environment.CompileTimeEnvironment
	parent *Compiler

	// loops is a stack of enclosing iteration/switch contexts for
	// break/continue resolution, innermost last.
	loops []*loopCtx

	// labels maps an enclosing LabeledStatement's label to its loop context,
	// so `break label`/`continue label` can reach outward past nested loops.
	labels map[string]*loopCtx

	stackDepth int // current compile-time operand-stack depth, for handler regions
	envDepth   int // current count of environments pushed by emitted code

	// pendingLabel is the label of an enclosing LabeledStatement directly
	// wrapping the next loop to be compiled, consumed by pushLoop so
	// `continue label`/`break label` resolve to that loop's context.
	pendingLabel string
}

type loopCtx struct {
	label     string
	breaks    []int // encoder positions of pending Jump placeholders to patch at loop end
	continues []int
	isSwitch  bool

	// breakEnvDepth/continueEnvDepth record the emitted-environment depth at
	// the break/continue landing sites, so the jump can pop its way down to
	// them; hasIterator marks for-in/of loops whose iterator a break must
	// close before leaving.
	breakEnvDepth    int
	continueEnvDepth int
	hasIterator      bool
}

// NewCompiler creates a top-level compiler (global/eval scope).
func NewCompiler(name string) *Compiler {
	return &Compiler{
		code:  New(name),
		scope: environment.NewCompileTimeEnvironment(nil),
	}
}

// childCompiler creates a compiler for a nested function, linking its
// compile-time scope to the enclosing one so free-variable references
// resolve outward across the function boundary.
func (c *Compiler) childCompiler(name string) *Compiler {
	return &Compiler{
		code:   New(name),
		scope:  environment.NewCompileTimeEnvironment(c.scope),
		parent: c,
	}
}

// CodeBlock returns the CodeBlock built so far; call after Compile.
func (c *Compiler) CodeBlock() *CodeBlock {
	c.code.Code = c.enc.Code
	c.code.NumRegs = c.scope.SlotCount()
	c.code.LocalNames = c.scope.Names()
	c.code.Scope = c.scope
	return c.code
}

// Compile compiles a whole program as the top-level script body.
func Compile(prog *ast.Program) (*CodeBlock, error) {
	c := NewCompiler("<script>")
	c.code.Strict = prog.Strict
	c.hoist(prog.Body)
	for i, stmt := range prog.Body {
		// The script's completion value is the last expression statement's
		// value, so the embedder's Eval can observe it.
		if i == len(prog.Body)-1 {
			if es, ok := stmt.(*ast.ExpressionStatement); ok {
				if err := c.compileExpression(es.Expr); err != nil {
					return nil, err
				}
				c.pop()
				c.enc.Emit(Return)
				return c.CodeBlock(), nil
			}
		}
		if err := c.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	c.enc.Emit(PushUndefined)
	c.enc.Emit(Return)
	return c.CodeBlock(), nil
}

// push/pop track the compiler's notion of operand-stack depth so handler
// regions can record the depth the VM must restore on unwind.
func (c *Compiler) push() { c.stackDepth++ }
func (c *Compiler) pop()  { c.stackDepth-- }

// pushEnv/popEnv emit environment push/pop instructions while tracking the
// emitted-environment depth, which break/continue and handler regions need
// to restore on non-local exits.
func (c *Compiler) pushEnv(n int) {
	c.enc.EmitOperand(PushDeclarativeEnvironment, uint32(n))
	c.envDepth++
}

func (c *Compiler) popEnv() {
	c.enc.Emit(PopEnvironment)
	c.envDepth--
}

// declare registers name in the current compile-time scope and returns its
// BindingLocator relative to this scope (EnvIndex 0).
func (c *Compiler) declare(name string, mutable, lexical bool) environment.BindingLocator {
	idx := c.scope.Declare(name, mutable, lexical, c.code.Strict)
	return environment.BindingLocator{Name: name, EnvIndex: 0, BindingIndex: idx, MutateImmutable: !mutable}
}

// resolve finds name in the compile-time scope chain, returning a
// BindingLocator with EnvIndex counting hops to the owning scope, or a
// Global locator if not found in any enclosing scope.
func (c *Compiler) resolve(name string) environment.BindingLocator {
	depth := 0
	for env := c.scope; env != nil; env = env.Outer {
		if b, ok := env.Resolve(name); ok {
			return environment.BindingLocator{
				Name: name, EnvIndex: depth, BindingIndex: b.Index,
				MutateImmutable: !b.Mutable,
			}
		}
		depth++
	}
	return environment.BindingLocator{Name: name, Global: true}
}

// locatorConst appends a BindingLocator to CodeBlock.Locators, a table kept
// apart from the constant pool, and returns its index so instructions can
// reference it by a single operand; the VM looks it up via
// CodeBlock.Locators.
func (c *Compiler) locatorConst(loc environment.BindingLocator) uint32 {
	c.code.Locators = append(c.code.Locators, loc)
	return uint32(len(c.code.Locators) - 1)
}

func (c *Compiler) stringConst(s string) uint32 {
	return c.code.AddConst(value.NewString(s))
}

func (c *Compiler) emitGetName(loc environment.BindingLocator) {
	c.enc.EmitOperand(GetName, c.locatorConst(loc))
	c.push()
}

func (c *Compiler) emitSetName(loc environment.BindingLocator) {
	c.enc.EmitOperand(SetName, c.locatorConst(loc))
}

// errf builds a SyntaxError-shaped compile error; the compiler surfaces the
// handful of early-error cases the parser doesn't already reject, e.g. an
// uninitialized destructuring declaration or a stray break.
func errf(pos ast.Node, format string, args ...any) error {
	p := pos.Pos()
	return fmt.Errorf("SyntaxError: %s (%d:%d)", fmt.Sprintf(format, args...), p.Line, p.Column)
}
