package bytecode

import (
	"math"

	"github.com/go-jsvm/jsvm/internal/ast"
	"github.com/go-jsvm/jsvm/internal/token"
	"github.com/go-jsvm/jsvm/internal/value"
)

// compileExpression compiles expr so that it leaves exactly one value on the
// operand stack.
func (c *Compiler) compileExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return c.compileNumberLiteral(e)
	case *ast.StringLiteral:
		c.enc.EmitOperand(PushLiteral, c.code.AddConst(value.NewString(e.Value)))
		c.push()
		return nil
	case *ast.BooleanLiteral:
		if e.Value {
			c.enc.Emit(PushTrue)
		} else {
			c.enc.Emit(PushFalse)
		}
		c.push()
		return nil
	case *ast.NullLiteral:
		c.enc.Emit(PushNull)
		c.push()
		return nil
	case *ast.UndefinedLiteral:
		c.enc.Emit(PushUndefined)
		c.push()
		return nil
	case *ast.Identifier:
		c.emitGetName(c.resolve(e.Name))
		return nil
	case *ast.ThisExpression:
		c.enc.Emit(This)
		c.push()
		return nil
	case *ast.TemplateLiteral:
		return c.compileTemplateLiteral(e)
	case *ast.ArrayLiteral:
		return c.compileArrayLiteral(e)
	case *ast.ObjectLiteral:
		return c.compileObjectLiteral(e)
	case *ast.UnaryExpression:
		return c.compileUnaryExpression(e)
	case *ast.UpdateExpression:
		return c.compileUpdateExpression(e)
	case *ast.BinaryExpression:
		return c.compileBinaryExpression(e)
	case *ast.LogicalExpression:
		return c.compileLogicalExpression(e)
	case *ast.ConditionalExpression:
		return c.compileConditionalExpression(e)
	case *ast.SequenceExpression:
		for i, sub := range e.Expressions {
			if i > 0 {
				c.enc.Emit(Pop)
				c.pop()
			}
			if err := c.compileExpression(sub); err != nil {
				return err
			}
		}
		return nil
	case *ast.AssignmentExpression:
		return c.compileAssignmentExpression(e)
	case *ast.MemberExpression:
		return c.compileMemberRead(e)
	case *ast.CallExpression:
		return c.compileCallExpression(e)
	case *ast.NewExpression:
		return c.compileNewExpression(e)
	case *ast.FunctionExpression:
		return c.compileFunctionLiteral(e.Name, e.Params, e.Body, e.Generator, e.Async, false)
	case *ast.ArrowFunctionExpression:
		return c.compileArrowFunction(e)
	case *ast.ClassExpression:
		return c.compileClass(e.ClassDeclaration, true)
	case *ast.YieldExpression:
		return c.compileYield(e)
	case *ast.AwaitExpression:
		if err := c.compileExpression(e.Argument); err != nil {
			return err
		}
		c.enc.Emit(Await)
		return nil
	case *ast.SpreadElement:
		return c.compileExpression(e.Argument)
	case *ast.SuperExpression:
		c.emitGetName(c.resolve("@@superPrototype"))
		return nil
	default:
		return errf(expr, "unsupported expression %T", expr)
	}
}

func (c *Compiler) compileNumberLiteral(n *ast.NumberLiteral) error {
	if n.Big != "" {
		bi, err := bigFromDecimal(n.Big)
		if err != nil {
			return errf(n, "invalid bigint literal")
		}
		c.enc.EmitOperand(PushLiteral, c.code.AddConst(value.NewBigInt(bi)))
		c.push()
		return nil
	}
	if n.Value == 0 {
		c.enc.Emit(PushZero)
		c.push()
		return nil
	}
	if n.Value == 1 {
		c.enc.Emit(PushOne)
		c.push()
		return nil
	}
	if f := n.Value; f == math.Trunc(f) {
		if i := int32(f); float64(i) == f {
			switch {
			case i >= -128 && i <= 127:
				c.enc.EmitOperand(PushInt8, uint32(uint8(int8(i))))
			case i >= -32768 && i <= 32767:
				c.enc.EmitOperand(PushInt16, uint32(uint16(int16(i))))
			default:
				c.enc.EmitOperand(PushInt32, uint32(i))
			}
			c.push()
			return nil
		}
	}
	c.enc.EmitOperand(PushRational, c.code.AddConst(value.NewFloat64(n.Value)))
	c.push()
	return nil
}

func (c *Compiler) compileTemplateLiteral(t *ast.TemplateLiteral) error {
	n := 0
	for i, q := range t.Quasis {
		c.enc.EmitOperand(PushLiteral, c.code.AddConst(value.NewString(q)))
		c.push()
		n++
		if i < len(t.Expressions) {
			if err := c.compileExpression(t.Expressions[i]); err != nil {
				return err
			}
			n++
		}
	}
	c.enc.EmitOperand(ConcatToString, uint32(n))
	for i := 0; i < n; i++ {
		c.pop()
	}
	c.push()
	return nil
}

func (c *Compiler) compileArrayLiteral(a *ast.ArrayLiteral) error {
	c.enc.Emit(PushNewArray)
	c.push()
	for i, el := range a.Elements {
		if el == nil {
			c.enc.Emit(PushElisionToArray)
			continue
		}
		if err := c.compileExpression(el); err != nil {
			return err
		}
		c.pop()
		if i < len(a.Spreads) && a.Spreads[i] {
			c.enc.Emit(PushSpreadToArray)
		} else {
			c.enc.Emit(PushValueToArray)
		}
	}
	return nil
}

func (c *Compiler) compileObjectLiteral(o *ast.ObjectLiteral) error {
	c.enc.Emit(PushEmptyObject)
	c.push()
	for _, p := range o.Properties {
		if p.Kind == ast.PropertySpread {
			if err := c.compileExpression(p.Key); err != nil {
				return err
			}
			c.pop()
			c.enc.EmitOperand(CopyDataProperties, c.stringConst(""))
			continue
		}
		if err := c.compilePropertyKey(p.Key, p.Computed); err != nil {
			return err
		}
		if err := c.compileExpression(p.Value); err != nil {
			return err
		}
		c.pop() // the property value
		if p.Computed {
			c.pop() // the computed key
		}
		op := DefineOwnPropertyByValue
		if !p.Computed {
			op = DefineOwnPropertyByName
		}
		switch p.Kind {
		case ast.PropertyGet:
			if p.Computed {
				op = SetPropertyGetterByValue
			} else {
				op = SetPropertyGetterByName
			}
		case ast.PropertySet:
			if p.Computed {
				op = SetPropertySetterByValue
			} else {
				op = SetPropertySetterByName
			}
		}
		if !p.Computed {
			name, err := staticKeyName(p.Key)
			if err != nil {
				return err
			}
			c.enc.EmitOperand(op, c.stringConst(name))
		} else {
			c.enc.Emit(op)
		}
	}
	return nil
}

// compilePropertyKey compiles a (possibly computed) property key so it
// contributes one value to the stack when computed; non-computed keys are
// folded into the instruction's name operand instead (see callers).
func (c *Compiler) compilePropertyKey(key ast.Expression, computed bool) error {
	if !computed {
		return nil
	}
	if err := c.compileExpression(key); err != nil {
		return err
	}
	return nil
}

func staticKeyName(key ast.Expression) (string, error) {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Name, nil
	case *ast.StringLiteral:
		return k.Value, nil
	case *ast.NumberLiteral:
		return formatNumericKey(k.Value), nil
	case *ast.PrivateIdentifier:
		return "#" + k.Name, nil
	default:
		return "", errf(key, "unsupported property key")
	}
}

func formatNumericKey(f float64) string {
	if f == math.Trunc(f) {
		return itoa64(int64(f))
	}
	return ftoa(f)
}

func (c *Compiler) compileUnaryExpression(u *ast.UnaryExpression) error {
	if u.Operator == token.DELETE {
		return c.compileDelete(u.Operand)
	}
	if u.Operator == token.TYPEOF {
		// `typeof name` must not throw for unresolvable names.
		if id, ok := u.Operand.(*ast.Identifier); ok {
			loc := c.resolve(id.Name)
			loc.Silent = true
			c.enc.EmitOperand(GetNameOrUndefined, c.locatorConst(loc))
			c.push()
			c.enc.Emit(TypeOf)
			return nil
		}
	}
	if err := c.compileExpression(u.Operand); err != nil {
		return err
	}
	switch u.Operator {
	case token.MINUS:
		c.enc.Emit(Neg)
	case token.PLUS:
		c.enc.Emit(Pos)
	case token.NOT:
		c.enc.Emit(Not)
	case token.TILDE:
		c.enc.Emit(BitNot)
	case token.TYPEOF:
		c.enc.Emit(TypeOf)
	case token.VOID:
		c.enc.Emit(Void)
	default:
		return errf(u, "unsupported unary operator %s", u.Operator)
	}
	return nil
}

func (c *Compiler) compileDelete(target ast.Expression) error {
	switch m := target.(type) {
	case *ast.MemberExpression:
		if err := c.compileExpression(m.Object); err != nil {
			return err
		}
		if m.Computed {
			if err := c.compileExpression(m.Property); err != nil {
				return err
			}
			c.pop()
			c.pop()
			c.enc.Emit(DeletePropertyByValue)
		} else {
			name, err := staticKeyName(m.Property)
			if err != nil {
				return err
			}
			c.pop()
			c.enc.EmitOperand(DeletePropertyByName, c.stringConst(name))
		}
		c.push()
		return nil
	case *ast.Identifier:
		c.enc.EmitOperand(DeleteName, c.locatorConst(c.resolve(m.Name)))
		c.push()
		return nil
	default:
		c.enc.Emit(PushTrue)
		c.push()
		return nil
	}
}

func (c *Compiler) compileUpdateExpression(u *ast.UpdateExpression) error {
	loadOld := func() error { return c.compileExpression(u.Operand) }
	if err := loadOld(); err != nil {
		return err
	}
	op := Inc
	if u.Operator == token.DEC {
		op = Dec
	}
	if u.Prefix {
		c.enc.Emit(op)
		return c.storeTo(u.Operand)
	}
	// postfix: duplicate old value, compute new, store, leave old.
	c.enc.Emit(Dup)
	c.push()
	c.enc.Emit(op)
	if err := c.storeTo(u.Operand); err != nil {
		return err
	}
	c.enc.Emit(Pop)
	c.pop()
	return nil
}

// storeTo compiles an assignment target write, consuming the top-of-stack
// value (leaving it in place, per assignment-expression value semantics).
func (c *Compiler) storeTo(target ast.Node) error {
	switch t := target.(type) {
	case *ast.Identifier:
		// SetName consumes its operand, so duplicate first to keep the
		// assignment expression's value on the stack.
		c.enc.Emit(Dup)
		c.push()
		c.emitSetName(c.resolve(t.Name))
		c.pop()
		return nil
	case *ast.MemberExpression:
		return c.storeMember(t)
	default:
		return errf(target, "invalid assignment target")
	}
}

// storeMember stores the top-of-stack value into target's member location.
// Precondition: the value to store is on top of stack; this emits code to
// evaluate the object (and key) below it, then SetProperty, leaving the
// stored value on top.
func (c *Compiler) storeMember(m *ast.MemberExpression) error {
	// Value is already on stack; we need obj[/key] evaluated and ordered
	// as [obj, key, value] or [obj, value] before SetPropertyByName/Value.
	// Stash the value in a temp via Swap-based sequencing: compile obj/key
	// first into registers below by re-ordering emission using Dup+Swap.
	if err := c.compileExpression(m.Object); err != nil {
		return err
	}
	if m.Computed {
		if err := c.compileExpression(m.Property); err != nil {
			return err
		}
		// stack: [value, obj, key] -> need [obj, key, value] for SetPropertyByValue.
		c.enc.Emit(RotateDown3)
		c.pop()
		c.pop()
		c.enc.Emit(SetPropertyByValue)
		c.push()
		return nil
	}
	name, err := staticKeyName(m.Property)
	if err != nil {
		return err
	}
	// stack: [value, obj] -> need [obj, value].
	c.enc.Emit(Swap)
	c.pop()
	c.enc.EmitOperand(SetPropertyByName, c.stringConst(name))
	c.push()
	return nil
}

func (c *Compiler) compileBinaryExpression(b *ast.BinaryExpression) error {
	if err := c.compileExpression(b.Left); err != nil {
		return err
	}
	if err := c.compileExpression(b.Right); err != nil {
		return err
	}
	c.pop()
	op, ok := binaryOp[b.Operator]
	if !ok {
		return errf(b, "unsupported binary operator %s", b.Operator)
	}
	c.enc.Emit(op)
	return nil
}

var binaryOp = map[token.Kind]OpCode{
	token.PLUS: Add, token.MINUS: Sub, token.STAR: Mul, token.SLASH: Div,
	token.PERCENT: Mod, token.POW: Pow,
	token.SHL: ShiftLeft, token.SHR: ShiftRight, token.USHR: UnsignedShiftRight,
	token.AMP: BitAnd, token.PIPE: BitOr, token.CARET: BitXor,
	token.EQ: Eq, token.NEQ: NotEq, token.SEQ: StrictEq, token.SNEQ: StrictNotEq,
	token.LT: LessThan, token.LE: LessThanOrEq, token.GT: GreaterThan, token.GE: GreaterThanOrEq,
	token.INSTANCEOF: InstanceOf, token.IN: In,
}

func (c *Compiler) compileLogicalExpression(l *ast.LogicalExpression) error {
	if err := c.compileExpression(l.Left); err != nil {
		return err
	}
	var op OpCode
	switch l.Operator {
	case token.LOGAND:
		op = LogicalAnd
	case token.LOGOR:
		op = LogicalOr
	case token.QUESTION_QUESTION:
		op = Coalesce
	default:
		return errf(l, "unsupported logical operator %s", l.Operator)
	}
	patch := c.enc.EmitJump(op)
	c.enc.Emit(Pop)
	c.pop()
	if err := c.compileExpression(l.Right); err != nil {
		return err
	}
	c.enc.PatchJump(patch)
	return nil
}

func (c *Compiler) compileConditionalExpression(cond *ast.ConditionalExpression) error {
	if err := c.compileExpression(cond.Test); err != nil {
		return err
	}
	c.pop()
	jf := c.enc.EmitJump(JumpIfFalse)
	if err := c.compileExpression(cond.Consequent); err != nil {
		return err
	}
	c.pop()
	jend := c.enc.EmitJump(Jump)
	c.enc.PatchJump(jf)
	if err := c.compileExpression(cond.Alternate); err != nil {
		return err
	}
	c.enc.PatchJump(jend)
	return nil
}

func (c *Compiler) compileAssignmentExpression(a *ast.AssignmentExpression) error {
	if a.Operator == token.ASSIGN {
		if pat, ok := a.Target.(ast.Pattern); ok {
			if !isSimpleIdentifier(pat) {
				if err := c.compileExpression(a.Value); err != nil {
					return err
				}
				// Destructuring consumes its operand; keep a copy so the
				// assignment expression still yields the right-hand value.
				c.enc.Emit(Dup)
				c.push()
				return c.destructureAssign(pat)
			}
		}
		if err := c.compileExpression(a.Value); err != nil {
			return err
		}
		return c.storeTo(a.Target.(ast.Expression))
	}
	targetExpr := a.Target.(ast.Expression)
	switch a.Operator {
	case token.LOGAND_ASSIGN, token.LOGOR_ASSIGN, token.COALESCE_ASSIGN:
		if err := c.compileExpression(targetExpr); err != nil {
			return err
		}
		var op OpCode
		switch a.Operator {
		case token.LOGAND_ASSIGN:
			op = LogicalAnd
		case token.LOGOR_ASSIGN:
			op = LogicalOr
		default:
			op = Coalesce
		}
		patch := c.enc.EmitJump(op)
		c.enc.Emit(Pop)
		c.pop()
		if err := c.compileExpression(a.Value); err != nil {
			return err
		}
		if err := c.storeTo(targetExpr); err != nil {
			return err
		}
		c.enc.PatchJump(patch)
		return nil
	default:
		if err := c.compileExpression(targetExpr); err != nil {
			return err
		}
		if err := c.compileExpression(a.Value); err != nil {
			return err
		}
		c.pop()
		op, ok := compoundOp[a.Operator]
		if !ok {
			return errf(a, "unsupported assignment operator %s", a.Operator)
		}
		c.enc.Emit(op)
		return c.storeTo(targetExpr)
	}
}

var compoundOp = map[token.Kind]OpCode{
	token.PLUS_ASSIGN: Add, token.MINUS_ASSIGN: Sub, token.STAR_ASSIGN: Mul,
	token.SLASH_ASSIGN: Div, token.PERCENT_ASSIGN: Mod, token.POW_ASSIGN: Pow,
	token.SHL_ASSIGN: ShiftLeft, token.SHR_ASSIGN: ShiftRight, token.USHR_ASSIGN: UnsignedShiftRight,
	token.AND_ASSIGN: BitAnd, token.OR_ASSIGN: BitOr, token.XOR_ASSIGN: BitXor,
}

func isSimpleIdentifier(p ast.Pattern) bool {
	_, ok := p.(*ast.Identifier)
	return ok
}

func (c *Compiler) compileMemberRead(m *ast.MemberExpression) error {
	if _, ok := m.Object.(*ast.SuperExpression); ok {
		c.enc.Emit(This)
		c.push()
	} else if err := c.compileExpression(m.Object); err != nil {
		return err
	}
	if m.Computed {
		if err := c.compileExpression(m.Property); err != nil {
			return err
		}
		c.pop()
		c.enc.Emit(GetPropertyByValue)
		return nil
	}
	name, err := staticKeyName(m.Property)
	if err != nil {
		return err
	}
	c.enc.EmitOperand(GetPropertyByName, c.stringConst(name))
	return nil
}

func (c *Compiler) compileCallExpression(call *ast.CallExpression) error {
	if _, ok := call.Callee.(*ast.SuperExpression); ok {
		return c.compileSuperCall(call)
	}
	hasSpread := false
	for _, a := range call.Args {
		if a.Spread {
			hasSpread = true
		}
	}
	// Evaluate callee and `this`: member calls push [thisObj, fn]; bare
	// identifier/other calls push [undefined, fn].
	if m, ok := call.Callee.(*ast.MemberExpression); ok {
		if _, isSuper := m.Object.(*ast.SuperExpression); isSuper {
			// super.method(...) resolves through the receiver's prototype
			// chain with `this` as the receiver.
			c.enc.Emit(This)
			c.push()
		} else if err := c.compileExpression(m.Object); err != nil {
			return err
		}
		c.enc.Emit(Dup)
		c.push()
		if m.Computed {
			if err := c.compileExpression(m.Property); err != nil {
				return err
			}
			c.pop()
			c.enc.Emit(GetPropertyByValue)
		} else {
			name, err := staticKeyName(m.Property)
			if err != nil {
				return err
			}
			c.enc.EmitOperand(GetPropertyByName, c.stringConst(name))
		}
		// stack: [thisObj, fn]
	} else {
		c.enc.Emit(PushUndefined)
		c.push()
		if err := c.compileExpression(call.Callee); err != nil {
			return err
		}
	}
	if hasSpread {
		// Spread calls collect every argument into one array so the VM can
		// flatten spreads with the iterator protocol.
		if err := c.compileArgsArray(call.Args); err != nil {
			return err
		}
		c.enc.Emit(CallWithRest)
		c.pop()
		c.pop()
		c.pop()
		c.push()
		return nil
	}
	n := 0
	for _, a := range call.Args {
		if err := c.compileExpression(a.Value); err != nil {
			return err
		}
		n++
	}
	c.enc.EmitOperand(Call, uint32(n))
	for i := 0; i < n+2; i++ {
		c.pop()
	}
	c.push()
	return nil
}

// compileArgsArray evaluates a call's arguments into a single array value,
// spreading iterables in place; used by the WithRest call forms and by
// super() calls.
func (c *Compiler) compileArgsArray(args []ast.Argument) error {
	c.enc.Emit(PushNewArray)
	c.push()
	for _, a := range args {
		if err := c.compileExpression(a.Value); err != nil {
			return err
		}
		c.pop()
		if a.Spread {
			c.enc.Emit(PushSpreadToArray)
		} else {
			c.enc.Emit(PushValueToArray)
		}
	}
	return nil
}

// compileSuperCall compiles `super(args)` in a derived-class constructor:
// the argument array is left on the stack and SuperCall constructs the
// parent class, binding the resulting instance as this frame's `this`.
func (c *Compiler) compileSuperCall(call *ast.CallExpression) error {
	if err := c.compileArgsArray(call.Args); err != nil {
		return err
	}
	c.enc.Emit(SuperCall)
	return nil
}

func (c *Compiler) compileNewExpression(n *ast.NewExpression) error {
	if err := c.compileExpression(n.Callee); err != nil {
		return err
	}
	hasSpread := false
	for _, a := range n.Args {
		if a.Spread {
			hasSpread = true
		}
	}
	if hasSpread {
		if err := c.compileArgsArray(n.Args); err != nil {
			return err
		}
		c.enc.Emit(NewWithRest)
		c.pop()
		c.pop()
		c.push()
		return nil
	}
	argc := 0
	for _, a := range n.Args {
		if err := c.compileExpression(a.Value); err != nil {
			return err
		}
		argc++
	}
	c.enc.EmitOperand(NewExpr, uint32(argc))
	for i := 0; i < argc+1; i++ {
		c.pop()
	}
	c.push()
	return nil
}

func (c *Compiler) compileYield(y *ast.YieldExpression) error {
	if y.Argument != nil {
		if err := c.compileExpression(y.Argument); err != nil {
			return err
		}
	} else {
		c.enc.Emit(PushUndefined)
		c.push()
	}
	if y.Delegate {
		c.enc.Emit(YieldStar)
	} else {
		c.enc.Emit(Yield)
	}
	return nil
}
