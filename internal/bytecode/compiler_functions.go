package bytecode

import (
	"github.com/go-jsvm/jsvm/internal/ast"
	"github.com/go-jsvm/jsvm/internal/token"
)

// compileFunctionLiteral compiles a function/method body into a child
// CodeBlock and emits GetFunction (or GetGenerator for generator bodies)
// referencing it by inner-table index, leaving the created closure on the
// stack.
func (c *Compiler) compileFunctionLiteral(name *ast.Identifier, params []ast.Pattern, body *ast.BlockStatement, generator, async, isMethod bool) error {
	fc := c.childCompiler(nameOrAnonymous(name))
	fc.code.IsGenerator = generator
	fc.code.IsAsync = async
	fc.code.Strict = c.code.Strict

	if name != nil && !isMethod {
		// A named function expression binds its own name inside its body
		// for recursive self-reference; the VM fills the slot at call time.
		loc := fc.declare(name.Name, false, true)
		fc.code.SelfIndex = loc.BindingIndex
	}
	if err := fc.compileParams(params); err != nil {
		return err
	}
	if _, shadowed := fc.scope.Resolve("arguments"); !shadowed {
		loc := fc.declare("arguments", true, false)
		fc.code.ArgumentsIndex = loc.BindingIndex
	}
	fc.hoist(body.Body)
	for _, st := range body.Body {
		if err := fc.compileStatement(st); err != nil {
			return err
		}
	}
	fc.enc.Emit(PushUndefined)
	fc.enc.Emit(Return)
	inner := fc.CodeBlock()

	idx := c.code.AddInner(inner)
	op := GetFunction
	if generator {
		op = GetGenerator
	}
	c.enc.EmitOperand(op, idx)
	c.push()
	return nil
}

func nameOrAnonymous(name *ast.Identifier) string {
	if name == nil {
		return "<anonymous>"
	}
	return name.Name
}

// compileParams declares each parameter in the function's top-level scope
// and emits its binding/destructuring/default-value initialization,
// consuming the arguments the VM's call-setup already placed in scope.
func (c *Compiler) compileParams(params []ast.Pattern) error {
	for i, p := range params {
		switch t := p.(type) {
		case *ast.RestElement:
			names := patternNames(t.Target)
			for _, n := range names {
				c.declare(n, true, false)
			}
			c.enc.EmitOperand(RestParameterInit, uint32(i))
			c.push()
			if err := c.destructureBind(t.Target, ast.DeclLet); err != nil {
				return err
			}
		case *ast.AssignmentPattern:
			names := patternNames(t.Target)
			for _, n := range names {
				c.declare(n, true, false)
			}
			c.enc.EmitOperand(DefInitArg, uint32(i))
			c.push()
			jnotundef := c.enc.EmitJump(JumpIfNotUndefined)
			c.enc.Emit(Pop)
			c.pop()
			if err := c.compileExpression(t.Default); err != nil {
				return err
			}
			c.enc.PatchJump(jnotundef)
			if err := c.destructureBind(t.Target, ast.DeclLet); err != nil {
				return err
			}
		default:
			names := patternNames(t)
			for _, n := range names {
				c.declare(n, true, false)
			}
			c.enc.EmitOperand(DefInitArg, uint32(i))
			c.push()
			if err := c.destructureBind(t, ast.DeclLet); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Compiler) compileArrowFunction(a *ast.ArrowFunctionExpression) error {
	fc := c.childCompiler("<anonymous>")
	fc.code.IsArrow = true
	fc.code.IsAsync = a.Async
	fc.code.Strict = c.code.Strict
	if err := fc.compileParams(a.Params); err != nil {
		return err
	}
	switch body := a.Body.(type) {
	case *ast.BlockStatement:
		fc.hoist(body.Body)
		for _, st := range body.Body {
			if err := fc.compileStatement(st); err != nil {
				return err
			}
		}
		fc.enc.Emit(PushUndefined)
		fc.enc.Emit(Return)
	default:
		expr := body.(ast.Expression)
		if err := fc.compileExpression(expr); err != nil {
			return err
		}
		fc.enc.Emit(Return)
	}
	inner := fc.CodeBlock()
	idx := c.code.AddInner(inner)
	c.enc.EmitOperand(GetFunction, idx)
	c.push()
	return nil
}

// compileClass compiles a class declaration/expression: a constructor
// function CodeBlock (default one synthesized if absent, calling `super`
// first for a derived class), methods defined on the prototype, static
// members defined on the constructor, and field initializers run at
// construction time.
func (c *Compiler) compileClass(cls *ast.ClassDeclaration, isExpr bool) error {
	var ctorParams []ast.Pattern
	var ctorBody *ast.BlockStatement
	for _, el := range cls.Body {
		if el.Kind == ast.ClassMethod && !el.Static {
			if id, ok := el.Key.(*ast.Identifier); ok && id.Name == "constructor" {
				fe := el.Value.(*ast.FunctionExpression)
				ctorParams, ctorBody = fe.Params, fe.Body
			}
		}
	}
	if ctorBody == nil {
		ctorBody = &ast.BlockStatement{}
		if cls.SuperClass != nil {
			ctorParams = []ast.Pattern{&ast.RestElement{Target: &ast.Identifier{Name: "args"}}}
			ctorBody.Body = []ast.Statement{
				&ast.ExpressionStatement{Expr: &ast.CallExpression{
					Callee: &ast.SuperExpression{},
					Args:   []ast.Argument{{Value: &ast.Identifier{Name: "args"}, Spread: true}},
				}},
			}
		}
	}
	if inits := instanceFieldInits(cls); len(inits) > 0 {
		ctorBody = spliceFieldInits(ctorBody, inits, cls.SuperClass != nil)
	}
	if err := c.compileFunctionLiteral(cls.Name, ctorParams, ctorBody, false, false, true); err != nil {
		return err
	}
	// stack: [ctorFn]
	if cls.SuperClass != nil {
		c.enc.Emit(Dup)
		c.push()
		if err := c.compileExpression(cls.SuperClass); err != nil {
			return err
		}
		c.pop()
		c.pop()
		c.enc.EmitOperand(DefineOwnPropertyByName, c.stringConst("@@superclass"))
		c.enc.Emit(Pop)
	}
	for _, el := range cls.Body {
		if el.Kind == ast.ClassStaticBlock {
			continue
		}
		if id, ok := el.Key.(*ast.Identifier); ok && id.Name == "constructor" && el.Kind == ast.ClassMethod && !el.Static {
			continue
		}
		if err := c.compileClassElement(el); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileClassElement(el ast.ClassElement) error {
	switch el.Kind {
	case ast.ClassMethod, ast.ClassGetter, ast.ClassSetter:
		fe := el.Value.(*ast.FunctionExpression)
		c.enc.Emit(Dup)
		c.push()
		if !el.Static {
			// Instance methods live on the constructor's .prototype, not
			// on the constructor itself.
			c.enc.EmitOperand(GetPropertyByName, c.stringConst("prototype"))
		}
		if err := c.compileFunctionLiteral(nil, fe.Params, fe.Body, fe.Generator, fe.Async, true); err != nil {
			return err
		}
		c.pop()
		c.pop()
		name, err := staticKeyName(el.Key)
		if err != nil {
			return err
		}
		var op OpCode
		switch el.Kind {
		case ast.ClassGetter:
			op = SetPropertyGetterByName
		case ast.ClassSetter:
			op = SetPropertySetterByName
		default:
			op = DefineOwnPropertyByName
		}
		c.enc.EmitOperand(op, c.stringConst(name))
		c.enc.Emit(Pop) // discard the receiver dup, leaving [ctorFn]
		return nil
	case ast.ClassField:
		if !el.Static {
			// Instance fields were spliced into the constructor body as
			// `this.<name> = init` statements by compileClass.
			return nil
		}
		c.enc.Emit(Dup)
		c.push()
		if el.Value != nil {
			if err := c.compileExpression(el.Value); err != nil {
				return err
			}
		} else {
			c.enc.Emit(PushUndefined)
			c.push()
		}
		c.pop()
		c.pop()
		name, err := staticKeyName(el.Key)
		if err != nil {
			return err
		}
		c.enc.EmitOperand(DefineOwnPropertyByName, c.stringConst(name))
		c.enc.Emit(Pop)
		return nil
	default:
		return nil
	}
}

// instanceFieldInits collects a class's non-static field declarations as
// `this.<name> = init` statements to run at construction time.
func instanceFieldInits(cls *ast.ClassDeclaration) []ast.Statement {
	var inits []ast.Statement
	for _, el := range cls.Body {
		if el.Kind != ast.ClassField || el.Static || el.Computed {
			continue
		}
		name, err := staticKeyName(el.Key)
		if err != nil {
			continue
		}
		var init ast.Expression = el.Value
		if init == nil {
			init = &ast.UndefinedLiteral{}
		}
		inits = append(inits, &ast.ExpressionStatement{Expr: &ast.AssignmentExpression{
			Operator: token.ASSIGN,
			Target:   &ast.MemberExpression{Object: &ast.ThisExpression{}, Property: &ast.Identifier{Name: name}},
			Value:    init,
		}})
	}
	return inits
}

// spliceFieldInits builds a constructor body with field initializers
// inserted: after the leading super() call in a derived class (fields may
// not touch `this` before super), otherwise before the first statement.
func spliceFieldInits(body *ast.BlockStatement, inits []ast.Statement, derived bool) *ast.BlockStatement {
	at := 0
	if derived && len(body.Body) > 0 {
		if es, ok := body.Body[0].(*ast.ExpressionStatement); ok {
			if call, ok := es.Expr.(*ast.CallExpression); ok {
				if _, ok := call.Callee.(*ast.SuperExpression); ok {
					at = 1
				}
			}
		}
	}
	combined := make([]ast.Statement, 0, len(body.Body)+len(inits))
	combined = append(combined, body.Body[:at]...)
	combined = append(combined, inits...)
	combined = append(combined, body.Body[at:]...)
	return &ast.BlockStatement{Body: combined, Position: body.Position}
}

// destructureBind compiles binding code for a destructuring pattern,
// consuming the value on top of stack and defining each leaf name via
// defOpFor(kind).
func (c *Compiler) destructureBind(pat ast.Pattern, kind ast.DeclarationKind) error {
	switch t := pat.(type) {
	case *ast.Identifier:
		c.pop()
		c.enc.EmitOperand(defOpFor(kind), c.locatorConst(c.resolve(t.Name)))
		return nil
	case *ast.AssignmentPattern:
		jnotundef := c.enc.EmitJump(JumpIfNotUndefined)
		c.enc.Emit(Pop)
		c.pop()
		if err := c.compileExpression(t.Default); err != nil {
			return err
		}
		c.enc.PatchJump(jnotundef)
		return c.destructureBind(t.Target, kind)
	case *ast.ArrayPattern:
		c.pop()
		c.enc.Emit(InitIterator)
		c.push() // iterator slot, released by IteratorClose below
		for _, el := range t.Elements {
			if el.Rest {
				c.enc.Emit(IteratorToArray)
				c.push()
				if err := c.destructureBind(el.Target, kind); err != nil {
					return err
				}
				continue
			}
			c.enc.Emit(IteratorNext)
			c.push()
			if el.Target == nil {
				c.enc.Emit(Pop)
				c.pop()
				continue
			}
			if err := c.destructureBind(el.Target, kind); err != nil {
				return err
			}
		}
		c.enc.Emit(IteratorClose)
		c.pop()
		return nil
	case *ast.ObjectPattern:
		var excluded []string
		for _, prop := range t.Properties {
			if prop.Rest {
				restID, ok := prop.Key.(*ast.Identifier)
				if !ok {
					return errf(pat, "rest target must be an identifier")
				}
				// Stack holds the source object being destructured; build a
				// fresh plain object and merge the source's own enumerable
				// keys (minus excluded) into it, leaving the source intact
				// underneath for later properties and the final discard.
				c.enc.Emit(Dup)
				c.push()
				c.enc.Emit(PushEmptyObject)
				c.push()
				c.enc.Emit(Swap)
				c.enc.EmitOperand(CopyDataProperties, c.stringConst(joinNames(excluded)))
				c.pop()
				if err := c.destructureBind(restID, kind); err != nil {
					return err
				}
				continue
			}
			c.enc.Emit(Dup)
			c.push()
			name, err := staticKeyName(prop.Key)
			if err != nil {
				return err
			}
			excluded = append(excluded, name)
			c.enc.EmitOperand(GetPropertyByName, c.stringConst(name))
			if err := c.destructureBind(prop.Value, kind); err != nil {
				return err
			}
		}
		c.pop()
		c.enc.Emit(Pop)
		return nil
	default:
		return errf(pat, "unsupported destructuring pattern")
	}
}

// destructureAssign is destructureBind's assignment-expression counterpart:
// it stores into existing bindings/members instead of declaring new ones
// (`({a, b} = obj)`).
func (c *Compiler) destructureAssign(pat ast.Pattern) error {
	switch t := pat.(type) {
	case *ast.Identifier:
		return c.storeTo(t)
	case *ast.AssignmentPattern:
		jnotundef := c.enc.EmitJump(JumpIfNotUndefined)
		c.enc.Emit(Pop)
		c.pop()
		if err := c.compileExpression(t.Default); err != nil {
			return err
		}
		c.enc.PatchJump(jnotundef)
		return c.destructureAssign(t.Target)
	default:
		return c.destructureBind(pat, ast.DeclVar)
	}
}
