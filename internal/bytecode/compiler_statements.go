package bytecode

import (
	"github.com/go-jsvm/jsvm/internal/ast"
	"github.com/go-jsvm/jsvm/internal/environment"
)

// hoist implements var/function hoisting to the nearest function or program
// scope: it walks stmts recursively through blocks, if/loop/try/switch
// bodies (but not into nested function literals) collecting every `var`
// binding and every function declaration, declaring each in the current
// (function-level) compile-time scope before a single statement is compiled.
func (c *Compiler) hoist(stmts []ast.Statement) {
	for _, s := range stmts {
		c.hoistStatement(s)
	}
}

func (c *Compiler) hoistStatement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.VariableDeclaration:
		if n.Kind == ast.DeclVar {
			for _, d := range n.Declarations {
				for _, name := range patternNames(d.Target) {
					if _, ok := c.scope.Resolve(name); !ok {
						c.declare(name, true, false)
					}
				}
			}
		}
	case *ast.FunctionDeclaration:
		if n.Name != nil {
			if _, ok := c.scope.Resolve(n.Name.Name); !ok {
				c.declare(n.Name.Name, true, false)
			}
		}
	case *ast.BlockStatement:
		c.hoist(n.Body)
	case *ast.IfStatement:
		c.hoistStatement(n.Consequent)
		if n.Alternate != nil {
			c.hoistStatement(n.Alternate)
		}
	case *ast.WhileStatement:
		c.hoistStatement(n.Body)
	case *ast.DoWhileStatement:
		c.hoistStatement(n.Body)
	case *ast.ForStatement:
		if vd, ok := n.Init.(*ast.VariableDeclaration); ok {
			c.hoistStatement(vd)
		}
		c.hoistStatement(n.Body)
	case *ast.ForInStatement:
		if vd, ok := n.Left.(*ast.VariableDeclaration); ok {
			c.hoistStatement(vd)
		}
		c.hoistStatement(n.Body)
	case *ast.ForOfStatement:
		if vd, ok := n.Left.(*ast.VariableDeclaration); ok {
			c.hoistStatement(vd)
		}
		c.hoistStatement(n.Body)
	case *ast.TryStatement:
		c.hoist(n.Block.Body)
		if n.Catch != nil {
			c.hoist(n.Catch.Body.Body)
		}
		if n.Finally != nil {
			c.hoist(n.Finally.Body)
		}
	case *ast.SwitchStatement:
		for _, cs := range n.Cases {
			c.hoist(cs.Body)
		}
	case *ast.LabeledStatement:
		c.hoistStatement(n.Body)
	}
}

// patternNames flattens a binding pattern into the list of names it binds,
// used by hoisting and by destructuring declarators alike.
func patternNames(p ast.Pattern) []string {
	switch t := p.(type) {
	case *ast.Identifier:
		return []string{t.Name}
	case *ast.AssignmentPattern:
		return patternNames(t.Target)
	case *ast.RestElement:
		return patternNames(t.Target)
	case *ast.ArrayPattern:
		var names []string
		for _, el := range t.Elements {
			if el.Target != nil {
				names = append(names, patternNames(el.Target)...)
			}
		}
		return names
	case *ast.ObjectPattern:
		var names []string
		for _, prop := range t.Properties {
			names = append(names, patternNames(prop.Value)...)
		}
		return names
	}
	return nil
}

// collectBlockLexical returns the let/const/class names declared directly
// in stmts (one level, not descending into nested blocks or functions),
// used to size a block's declarative environment up front.
func collectBlockLexical(stmts []ast.Statement) []string {
	var names []string
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.VariableDeclaration:
			if n.Kind != ast.DeclVar {
				for _, d := range n.Declarations {
					names = append(names, patternNames(d.Target)...)
				}
			}
		case *ast.ClassDeclaration:
			if n.Name != nil {
				names = append(names, n.Name.Name)
			}
		}
	}
	return names
}

// compileStatement compiles a single statement; every statement leaves the
// operand stack at the same depth it found it.
func (c *Compiler) compileStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		if err := c.compileExpression(s.Expr); err != nil {
			return err
		}
		c.enc.Emit(Pop)
		c.pop()
		return nil
	case *ast.EmptyStatement:
		return nil
	case *ast.BlockStatement:
		return c.compileBlockScoped(s.Body)
	case *ast.VariableDeclaration:
		return c.compileVariableDeclaration(s)
	case *ast.FunctionDeclaration:
		if err := c.compileFunctionLiteral(s.Name, s.Params, s.Body, s.Generator, s.Async, false); err != nil {
			return err
		}
		c.pop()
		c.emitSetName(c.resolveOrDeclare(s.Name.Name))
		return nil
	case *ast.ReturnStatement:
		if s.Argument != nil {
			if err := c.compileExpression(s.Argument); err != nil {
				return err
			}
			c.pop()
		} else {
			c.enc.Emit(PushUndefined)
		}
		c.enc.Emit(Return)
		return nil
	case *ast.IfStatement:
		return c.compileIf(s)
	case *ast.WhileStatement:
		return c.compileWhile(s)
	case *ast.DoWhileStatement:
		return c.compileDoWhile(s)
	case *ast.ForStatement:
		return c.compileFor(s)
	case *ast.ForInStatement:
		return c.compileForIn(s)
	case *ast.ForOfStatement:
		return c.compileForOf(s)
	case *ast.BreakStatement:
		return c.compileBreak(s)
	case *ast.ContinueStatement:
		return c.compileContinue(s)
	case *ast.LabeledStatement:
		return c.compileLabeled(s)
	case *ast.SwitchStatement:
		return c.compileSwitch(s)
	case *ast.ThrowStatement:
		if err := c.compileExpression(s.Argument); err != nil {
			return err
		}
		c.pop()
		c.enc.Emit(Throw)
		return nil
	case *ast.TryStatement:
		return c.compileTry(s)
	case *ast.ClassDeclaration:
		if err := c.compileClass(s, false); err != nil {
			return err
		}
		c.pop()
		c.emitSetName(c.resolveOrDeclare(s.Name.Name))
		return nil
	default:
		return errf(stmt, "unsupported statement %T", stmt)
	}
}

// resolveOrDeclare resolves name in the current scope, declaring it as a
// mutable binding if not already present (used for function/class
// declarations compiled inline rather than via a pre-hoisting pass).
func (c *Compiler) resolveOrDeclare(name string) environment.BindingLocator {
	if _, ok := c.scope.Resolve(name); ok {
		return c.resolve(name)
	}
	return c.declare(name, true, false)
}

// compileBlockScoped compiles stmts inside a fresh declarative environment
// sized from a static lexical-name scan, so the PushDeclarativeEnvironment
// operand is known before any code is emitted (avoiding the need to splice
// jump-patched bytecode from a sub-buffer).
func (c *Compiler) compileBlockScoped(stmts []ast.Statement) error {
	outerScope := c.scope
	c.scope = environment.NewCompileTimeEnvironment(outerScope)
	names := collectBlockLexical(stmts)
	for _, n := range names {
		c.declare(n, true, true)
	}
	c.pushEnv(len(names))
	for _, st := range stmts {
		if err := c.compileStatement(st); err != nil {
			c.scope = outerScope
			return err
		}
	}
	c.popEnv()
	c.scope = outerScope
	return nil
}

func (c *Compiler) compileVariableDeclaration(v *ast.VariableDeclaration) error {
	for _, d := range v.Declarations {
		if ident, ok := d.Target.(*ast.Identifier); ok {
			loc := c.bindingLocatorFor(ident.Name, v.Kind)
			if d.Init != nil {
				if err := c.compileExpression(d.Init); err != nil {
					return err
				}
			} else if v.Kind == ast.DeclVar {
				continue // no-initializer var leaves the existing (possibly-set) binding alone
			} else {
				c.enc.Emit(PushUndefined)
				c.push()
			}
			c.pop()
			c.enc.EmitOperand(defOpFor(v.Kind), c.locatorConst(loc))
			continue
		}
		if d.Init == nil {
			return errf(v, "destructuring declaration requires an initializer")
		}
		if err := c.compileExpression(d.Init); err != nil {
			return err
		}
		if err := c.destructureBind(d.Target, v.Kind); err != nil {
			return err
		}
	}
	return nil
}

func defOpFor(kind ast.DeclarationKind) OpCode {
	switch kind {
	case ast.DeclLet:
		return DefInitLet
	case ast.DeclConst:
		return DefInitConst
	default:
		return DefInitVar
	}
}

// bindingLocatorFor resolves name for a declarator: `var` targets the
// pre-hoisted function-level slot; `let`/`const` target the slot already
// declared by compileBlockScoped's lexical pre-scan (or, at top level with
// no enclosing block construct of our own, declares it now).
func (c *Compiler) bindingLocatorFor(name string, kind ast.DeclarationKind) environment.BindingLocator {
	if kind == ast.DeclVar {
		return c.resolve(name)
	}
	if _, ok := c.scope.Resolve(name); ok {
		return c.resolve(name)
	}
	return c.declare(name, kind != ast.DeclConst, true)
}

func (c *Compiler) compileIf(s *ast.IfStatement) error {
	if err := c.compileExpression(s.Test); err != nil {
		return err
	}
	c.pop()
	jf := c.enc.EmitJump(JumpIfFalse)
	if err := c.compileStatement(s.Consequent); err != nil {
		return err
	}
	if s.Alternate == nil {
		c.enc.PatchJump(jf)
		return nil
	}
	jend := c.enc.EmitJump(Jump)
	c.enc.PatchJump(jf)
	if err := c.compileStatement(s.Alternate); err != nil {
		return err
	}
	c.enc.PatchJump(jend)
	return nil
}

func (c *Compiler) pushLoop(label string) *loopCtx {
	if label == "" && c.pendingLabel != "" {
		label = c.pendingLabel
		c.pendingLabel = ""
	}
	lc := &loopCtx{label: label, breakEnvDepth: c.envDepth, continueEnvDepth: c.envDepth}
	c.loops = append(c.loops, lc)
	if label != "" {
		if c.labels == nil {
			c.labels = make(map[string]*loopCtx)
		}
		c.labels[label] = lc
	}
	return lc
}

func (c *Compiler) popLoop() *loopCtx {
	lc := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	return lc
}

func (c *Compiler) patchLoopExits(lc *loopCtx, continueTarget uint32) {
	for _, p := range lc.continues {
		c.enc.PatchJumpTo(p, continueTarget)
	}
	for _, p := range lc.breaks {
		c.enc.PatchJump(p)
	}
}

func (c *Compiler) compileWhile(s *ast.WhileStatement) error {
	lc := c.pushLoop("")
	start := c.enc.Here()
	if err := c.compileExpression(s.Test); err != nil {
		return err
	}
	c.pop()
	jf := c.enc.EmitJump(JumpIfFalse)
	if err := c.compileStatement(s.Body); err != nil {
		return err
	}
	jback := c.enc.EmitJump(Jump)
	c.enc.PatchJumpTo(jback, start)
	c.enc.PatchJump(jf)
	c.popLoop()
	c.patchLoopExits(lc, start)
	return nil
}

func (c *Compiler) compileDoWhile(s *ast.DoWhileStatement) error {
	lc := c.pushLoop("")
	start := c.enc.Here()
	if err := c.compileStatement(s.Body); err != nil {
		return err
	}
	testPos := c.enc.Here()
	if err := c.compileExpression(s.Test); err != nil {
		return err
	}
	c.pop()
	jt := c.enc.EmitJump(JumpIfTrue)
	c.enc.PatchJumpTo(jt, start)
	c.popLoop()
	c.patchLoopExits(lc, testPos)
	return nil
}

func (c *Compiler) compileFor(s *ast.ForStatement) error {
	outerScope := c.scope
	c.scope = environment.NewCompileTimeEnvironment(outerScope)
	defer func() { c.scope = outerScope }()
	slotCount := 0
	if vd, ok := s.Init.(*ast.VariableDeclaration); ok && vd.Kind != ast.DeclVar {
		for _, d := range vd.Declarations {
			slotCount += len(patternNames(d.Target))
		}
	}
	c.pushEnv(slotCount)
	if s.Init != nil {
		switch init := s.Init.(type) {
		case *ast.VariableDeclaration:
			if err := c.compileVariableDeclaration(init); err != nil {
				return err
			}
		case ast.Expression:
			if err := c.compileExpression(init); err != nil {
				return err
			}
			c.enc.Emit(Pop)
			c.pop()
		}
	}
	lc := c.pushLoop("")
	start := c.enc.Here()
	var jf int
	hasTest := s.Test != nil
	if hasTest {
		if err := c.compileExpression(s.Test); err != nil {
			return err
		}
		c.pop()
		jf = c.enc.EmitJump(JumpIfFalse)
	}
	if err := c.compileStatement(s.Body); err != nil {
		return err
	}
	continueTarget := c.enc.Here()
	if s.Update != nil {
		if err := c.compileExpression(s.Update); err != nil {
			return err
		}
		c.enc.Emit(Pop)
		c.pop()
	}
	jback := c.enc.EmitJump(Jump)
	c.enc.PatchJumpTo(jback, start)
	if hasTest {
		c.enc.PatchJump(jf)
	}
	c.popLoop()
	// Breaks land just before the loop-environment pop so they share the
	// normal exit's cleanup.
	c.patchLoopExits(lc, continueTarget)
	c.popEnv()
	return nil
}

func (c *Compiler) compileForIn(s *ast.ForInStatement) error {
	return c.compileForInOf(s.Left, s.Right, s.Body, false, false)
}

func (c *Compiler) compileForOf(s *ast.ForOfStatement) error {
	return c.compileForInOf(s.Left, s.Right, s.Body, true, s.Await)
}

func (c *Compiler) compileForInOf(left ast.Node, right ast.Expression, body ast.Statement, isOf, isAwait bool) error {
	if err := c.compileExpression(right); err != nil {
		return err
	}
	c.pop()
	if isOf {
		op := InitIterator
		if isAwait {
			op = InitIteratorAsync
		}
		c.enc.Emit(op)
	} else {
		c.enc.Emit(ForInLoopInitIterator)
	}
	c.push() // the iterator occupies a stack slot for the whole loop
	lc := c.pushLoop("")
	lc.hasIterator = true
	start := c.enc.Here()
	var jdone int
	if isOf {
		// IteratorNext leaves exactly one value on the stack: the yielded
		// value, or the done sentinel (undefined) when the iterator is
		// exhausted. JumpIfNotUndefined only peeks, so the sentinel (or
		// value) is still there for the done path/bindForTarget to consume.
		c.enc.Emit(IteratorNext)
		jhasValue := c.enc.EmitJump(JumpIfNotUndefined)
		jdone = c.enc.EmitJump(Jump)
		c.enc.PatchJump(jhasValue)
	} else {
		jdone = c.enc.EmitJump(ForInLoopNext)
	}
	c.push()
	outerScope := c.scope
	c.scope = environment.NewCompileTimeEnvironment(outerScope)
	names := leftNames(left)
	for _, n := range names {
		c.declare(n, true, true)
	}
	c.pushEnv(len(names))
	if err := c.bindForTarget(left); err != nil {
		c.scope = outerScope
		return err
	}
	if err := c.compileStatement(body); err != nil {
		c.scope = outerScope
		return err
	}
	c.popEnv()
	c.scope = outerScope
	continueTarget := c.enc.Here()
	jback := c.enc.EmitJump(Jump)
	c.enc.PatchJumpTo(jback, start)
	c.enc.PatchJump(jdone)
	c.enc.Emit(Pop) // discard the done sentinel
	c.enc.Emit(IteratorClose)
	c.pop()
	c.popLoop()
	// Breaks close the iterator themselves (see compileBreak) and land on
	// the same fully-unwound exit point as the normal done path.
	c.patchLoopExits(lc, continueTarget)
	return nil
}

func leftNames(left ast.Node) []string {
	if vd, ok := left.(*ast.VariableDeclaration); ok {
		var names []string
		for _, d := range vd.Declarations {
			names = append(names, patternNames(d.Target)...)
		}
		return names
	}
	return nil
}

// bindForTarget stores the value left on the stack by the iterator-next/
// for-in-next opcode into left's binding target.
func (c *Compiler) bindForTarget(left ast.Node) error {
	switch t := left.(type) {
	case *ast.VariableDeclaration:
		d := t.Declarations[0]
		if ident, ok := d.Target.(*ast.Identifier); ok {
			loc := c.resolve(ident.Name)
			c.pop()
			c.enc.EmitOperand(defOpFor(t.Kind), c.locatorConst(loc))
			return nil
		}
		return c.destructureBind(d.Target, t.Kind)
	default:
		expr, ok := left.(ast.Expression)
		if !ok {
			return errf(left.(ast.Node), "invalid for-in/of target")
		}
		if err := c.storeTo(expr); err != nil {
			return err
		}
		c.enc.Emit(Pop)
		c.pop()
		return nil
	}
}

func (c *Compiler) compileBreak(s *ast.BreakStatement) error {
	var lc *loopCtx
	if s.Label != "" {
		lc = c.labels[s.Label]
	} else if len(c.loops) > 0 {
		lc = c.loops[len(c.loops)-1]
	}
	if lc == nil {
		return errf(s, "illegal break")
	}
	// Unwind any environments pushed between here and the landing site, and
	// close the iterator of every for-in/of loop the jump leaves.
	for i := c.envDepth; i > lc.breakEnvDepth; i-- {
		c.enc.Emit(PopEnvironment)
	}
	for i := len(c.loops) - 1; i >= 0; i-- {
		crossed := c.loops[i]
		if crossed.hasIterator {
			c.enc.Emit(IteratorClose)
		}
		if crossed.isSwitch && crossed != lc {
			c.enc.Emit(Pop) // a crossed switch leaves its discriminant behind
		}
		if crossed == lc {
			break
		}
	}
	pos := c.enc.EmitJump(Jump)
	lc.breaks = append(lc.breaks, pos)
	return nil
}

func (c *Compiler) compileContinue(s *ast.ContinueStatement) error {
	var lc *loopCtx
	if s.Label != "" {
		lc = c.labels[s.Label]
	} else {
		// Unlabeled continue skips switch contexts: it always targets the
		// innermost enclosing iteration statement.
		for i := len(c.loops) - 1; i >= 0; i-- {
			if !c.loops[i].isSwitch {
				lc = c.loops[i]
				break
			}
		}
	}
	if lc == nil || lc.isSwitch {
		return errf(s, "illegal continue")
	}
	for i := c.envDepth; i > lc.continueEnvDepth; i-- {
		c.enc.Emit(PopEnvironment)
	}
	// Close the iterators of loops between here and the target, but not the
	// target loop's own (continue stays inside it).
	for i := len(c.loops) - 1; i >= 0; i-- {
		crossed := c.loops[i]
		if crossed == lc {
			break
		}
		if crossed.hasIterator {
			c.enc.Emit(IteratorClose)
		}
		if crossed.isSwitch {
			c.enc.Emit(Pop)
		}
	}
	pos := c.enc.EmitJump(Jump)
	lc.continues = append(lc.continues, pos)
	return nil
}

func (c *Compiler) compileLabeled(s *ast.LabeledStatement) error {
	if c.labels == nil {
		c.labels = make(map[string]*loopCtx)
	}
	// The labeled loop registers itself under s.Label once its loopCtx
	// exists; for non-loop bodies we synthesize a break-only context.
	switch s.Body.(type) {
	case *ast.WhileStatement, *ast.DoWhileStatement, *ast.ForStatement, *ast.ForInStatement, *ast.ForOfStatement:
		err := c.compileLabeledLoop(s.Label, s.Body)
		delete(c.labels, s.Label)
		return err
	default:
		lc := &loopCtx{label: s.Label, breakEnvDepth: c.envDepth, continueEnvDepth: c.envDepth}
		c.labels[s.Label] = lc
		err := c.compileStatement(s.Body)
		c.patchLoopExits(lc, c.enc.Here())
		delete(c.labels, s.Label)
		return err
	}
}

// compileLabeledLoop compiles a loop statement while making its loopCtx
// reachable under label for outward break/continue.
func (c *Compiler) compileLabeledLoop(label string, body ast.Statement) error {
	// The individual compileWhile/compileFor/... functions push their own
	// loopCtx; alias the label to the same context once pushed by
	// temporarily wrapping pushLoop.
	c.pendingLabel = label
	defer func() { c.pendingLabel = "" }()
	return c.compileStatement(body)
}

func (c *Compiler) compileSwitch(s *ast.SwitchStatement) error {
	if err := c.compileExpression(s.Discriminant); err != nil {
		return err
	}
	c.pop()
	lc := c.pushLoop("")
	lc.isSwitch = true
	type patchPair struct {
		caseIdx int
		jumpPos int
	}
	var patches []patchPair
	defaultIdx := -1
	for i, cs := range s.Cases {
		if cs.Test == nil {
			defaultIdx = i
			continue
		}
		c.enc.Emit(Dup)
		c.push()
		if err := c.compileExpression(cs.Test); err != nil {
			return err
		}
		c.pop()
		c.enc.Emit(StrictEq)
		jp := c.enc.EmitJump(Case)
		c.pop()
		patches = append(patches, patchPair{i, jp})
	}
	jDefault := -1
	if defaultIdx >= 0 {
		jDefault = c.enc.EmitJump(Default)
	}
	jEnd := c.enc.EmitJump(Jump)
	bodyStarts := make([]uint32, len(s.Cases))
	for i, cs := range s.Cases {
		bodyStarts[i] = c.enc.Here()
		outerScope := c.scope
		c.scope = environment.NewCompileTimeEnvironment(outerScope)
		names := collectBlockLexical(cs.Body)
		for _, n := range names {
			c.declare(n, true, true)
		}
		c.pushEnv(len(names))
		for _, st := range cs.Body {
			if err := c.compileStatement(st); err != nil {
				c.scope = outerScope
				return err
			}
		}
		c.popEnv()
		c.scope = outerScope
	}
	for _, p := range patches {
		c.enc.PatchJumpTo(p.jumpPos, bodyStarts[p.caseIdx])
	}
	if jDefault >= 0 {
		c.enc.PatchJumpTo(jDefault, bodyStarts[defaultIdx])
	}
	c.enc.PatchJump(jEnd)
	c.popLoop()
	// Breaks land here, before the discriminant discard, so every exit path
	// pops it exactly once.
	c.patchLoopExits(lc, c.enc.Here())
	c.enc.Emit(Pop)
	c.pop()
	return nil
}

// compileTry registers one Handler per guarded region rather than encoding
// jump targets inline in TryStart's operand: a HandlerCatch entry spanning
// just the try body, and (when a finally clause is present) a HandlerFinally
// entry spanning the try body AND the catch body, so a throw from inside the
// catch clause still runs the finally. The VM picks the innermost handler
// whose [Start,End) contains the faulting instruction offset (the one with
// the smallest End; see findHandler in internal/vm).
func (c *Compiler) compileTry(s *ast.TryStatement) error {
	entryDepth := c.stackDepth
	entryEnvDepth := c.envDepth
	c.enc.Emit(TryStart)
	tryBodyStart := c.enc.Here()
	if err := c.compileBlockScoped(s.Block.Body); err != nil {
		return err
	}
	c.enc.Emit(TryEnd)
	jEnd := c.enc.EmitJump(Jump)
	tryBodyEnd := c.enc.Here()

	finallyGuardEnd := tryBodyEnd
	if s.Catch != nil {
		catchStart := c.enc.Here()
		c.enc.Emit(CatchStart)
		outerScope := c.scope
		c.scope = environment.NewCompileTimeEnvironment(outerScope)
		if s.Catch.Param != nil {
			names := patternNames(s.Catch.Param)
			for _, n := range names {
				c.declare(n, true, true)
			}
			c.push() // the unwinder pushes the thrown value before jumping here
			c.pushEnv(len(names))
			if err := c.destructureBind(s.Catch.Param, ast.DeclLet); err != nil {
				c.scope = outerScope
				return err
			}
		} else {
			c.enc.Emit(Pop)
		}
		for _, st := range s.Catch.Body.Body {
			if err := c.compileStatement(st); err != nil {
				c.scope = outerScope
				return err
			}
		}
		if s.Catch.Param != nil {
			c.popEnv()
		}
		c.scope = outerScope
		c.enc.Emit(CatchEnd)
		finallyGuardEnd = c.enc.Here()
		c.code.AddHandler(Handler{
			Start: tryBodyStart, End: tryBodyEnd, Target: catchStart,
			StackDepth: entryDepth, EnvDepth: entryEnvDepth, Kind: HandlerCatch,
		})
	}
	c.enc.PatchJump(jEnd)

	if s.Finally != nil {
		finallyStart := c.enc.Here()
		c.enc.Emit(FinallyStart)
		if err := c.compileBlockScoped(s.Finally.Body); err != nil {
			return err
		}
		c.enc.Emit(FinallyEnd)
		c.code.AddHandler(Handler{
			Start: tryBodyStart, End: finallyGuardEnd, Target: finallyStart,
			StackDepth: entryDepth, EnvDepth: entryEnvDepth, Kind: HandlerFinally,
		})
	}
	return nil
}
