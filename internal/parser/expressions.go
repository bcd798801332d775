package parser

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/go-jsvm/jsvm/internal/ast"
	"github.com/go-jsvm/jsvm/internal/lexer"
	"github.com/go-jsvm/jsvm/internal/token"
)

// Binary operator precedence levels (lowest to highest); assignment,
// conditional, and the comma operator are handled outside this table by
// their own dedicated parse functions.
const (
	precLowest = iota
	precCoalesce
	precLogicalOr
	precLogicalAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
)

func (p *Parser) binaryPrecedence(kind token.Kind) int {
	switch kind {
	case token.QUESTION_QUESTION:
		return precCoalesce
	case token.LOGOR:
		return precLogicalOr
	case token.LOGAND:
		return precLogicalAnd
	case token.PIPE:
		return precBitOr
	case token.CARET:
		return precBitXor
	case token.AMP:
		return precBitAnd
	case token.EQ, token.NEQ, token.SEQ, token.SNEQ:
		return precEquality
	case token.LT, token.GT, token.LE, token.GE, token.INSTANCEOF:
		return precRelational
	case token.IN:
		if p.noIn {
			return precLowest
		}
		return precRelational
	case token.SHL, token.SHR, token.USHR:
		return precShift
	case token.PLUS, token.MINUS:
		return precAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return precMultiplicative
	default:
		return precLowest
	}
}

func isLogicalOp(kind token.Kind) bool {
	return kind == token.LOGAND || kind == token.LOGOR || kind == token.QUESTION_QUESTION
}

// parseExpr parses a full Expression, i.e. a comma-separated sequence of
// AssignmentExpressions.
func (p *Parser) parseExpr() (ast.Expression, error) {
	pos := p.cur.Pos
	first, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != token.COMMA {
		return first, nil
	}
	seq := &ast.SequenceExpression{Expressions: []ast.Expression{first}, Position: pos}
	for p.cur.Kind == token.COMMA {
		p.next()
		next, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		seq.Expressions = append(seq.Expressions, next)
	}
	return seq, nil
}

// parseAssignExpr parses an AssignmentExpression: a ConditionalExpression,
// optionally followed by `op= value` (right-associative), or an arrow
// function / yield expression recognized ahead of that.
func (p *Parser) parseAssignExpr() (ast.Expression, error) {
	if p.genDepth > 0 && p.cur.Kind == token.YIELD {
		return p.parseYieldExpr()
	}
	if id, ok := p.tryParseSingleIdentArrow(); ok {
		return id()
	}
	if p.cur.Kind == token.LPAREN {
		save := *p
		arrow, ok, err := p.tryParseParenArrow(false)
		if err != nil {
			return nil, err
		}
		if _, isArrow := arrow.(*ast.ArrowFunctionExpression); ok && isArrow {
			return arrow, nil
		}
		// A plain parenthesized expression: rewind so parseConditional
		// parses it together with any operator, member or call tail.
		*p = save
	}
	if p.cur.Kind == token.ASYNC && !p.peek.NewlineBefore {
		if arrow, ok, err := p.tryParseAsyncArrow(); ok || err != nil {
			return arrow, err
		}
	}

	pos := p.cur.Pos
	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if !isAssignOp(p.cur.Kind) {
		return left, nil
	}
	op := p.cur.Kind
	p.next()
	right, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	target := ast.Node(left)
	if op == token.ASSIGN {
		if _, isArr := left.(*ast.ArrayLiteral); isArr {
			if pat, perr := exprToPattern(left); perr == nil {
				target = pat
			}
		} else if _, isObj := left.(*ast.ObjectLiteral); isObj {
			if pat, perr := exprToPattern(left); perr == nil {
				target = pat
			}
		}
	}
	return &ast.AssignmentExpression{Operator: op, Target: target, Value: right, Position: pos}, nil
}

func isAssignOp(kind token.Kind) bool {
	switch kind {
	case token.ASSIGN, token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN,
		token.PERCENT_ASSIGN, token.POW_ASSIGN, token.SHL_ASSIGN, token.SHR_ASSIGN, token.USHR_ASSIGN,
		token.AND_ASSIGN, token.OR_ASSIGN, token.XOR_ASSIGN, token.LOGAND_ASSIGN, token.LOGOR_ASSIGN,
		token.COALESCE_ASSIGN:
		return true
	default:
		return false
	}
}

func (p *Parser) parseYieldExpr() (ast.Expression, error) {
	pos := p.cur.Pos
	p.next()
	delegate := false
	if p.cur.Kind == token.STAR {
		delegate = true
		p.next()
	}
	y := &ast.YieldExpression{Delegate: delegate, Position: pos}
	if p.canStartExpression() && !p.cur.NewlineBefore {
		arg, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		y.Argument = arg
	}
	return y, nil
}

// canStartExpression reports whether the current token could begin an
// expression, used to detect a bare `yield;`/`return;` with no argument.
func (p *Parser) canStartExpression() bool {
	switch p.cur.Kind {
	case token.SEMI, token.RBRACE, token.RPAREN, token.RBRACKET, token.COMMA, token.COLON, token.EOF:
		return false
	default:
		return true
	}
}

func (p *Parser) parseConditional() (ast.Expression, error) {
	pos := p.cur.Pos
	test, err := p.parseBinary(precLowest + 1)
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != token.QUESTION {
		return test, nil
	}
	p.next()
	noIn := p.noIn
	p.noIn = false
	cons, err := p.parseAssignExpr()
	p.noIn = noIn
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	alt, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ConditionalExpression{Test: test, Consequent: cons, Alternate: alt, Position: pos}, nil
}

// parseBinary implements precedence climbing over the left-associative
// binary/logical operator table.
func (p *Parser) parseBinary(minPrec int) (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec := p.binaryPrecedence(p.cur.Kind)
		if prec < minPrec {
			return left, nil
		}
		op := p.cur
		p.next()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		if isLogicalOp(op.Kind) {
			left = &ast.LogicalExpression{Operator: op.Kind, Left: left, Right: right, Position: op.Pos}
		} else {
			left = &ast.BinaryExpression{Operator: op.Kind, Left: left, Right: right, Position: op.Pos}
		}
	}
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	switch p.cur.Kind {
	case token.PLUS, token.MINUS, token.NOT, token.TILDE, token.TYPEOF, token.VOID, token.DELETE:
		op := p.cur
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Operator: op.Kind, Operand: operand, Position: op.Pos}, nil
	case token.INC, token.DEC:
		op := p.cur
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UpdateExpression{Operator: op.Kind, Operand: operand, Prefix: true, Position: op.Pos}, nil
	case token.AWAIT:
		if p.asyncDepth > 0 {
			pos := p.cur.Pos
			p.next()
			arg, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &ast.AwaitExpression{Argument: arg, Position: pos}, nil
		}
	}
	return p.parseExponent()
}

func (p *Parser) parseExponent() (ast.Expression, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != token.POW {
		return base, nil
	}
	pos := p.cur.Pos
	p.next()
	right, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpression{Operator: token.POW, Left: base, Right: right, Position: pos}, nil
}

func (p *Parser) parsePostfix() (ast.Expression, error) {
	expr, err := p.parseLeftHandSide()
	if err != nil {
		return nil, err
	}
	if !p.cur.NewlineBefore && (p.cur.Kind == token.INC || p.cur.Kind == token.DEC) {
		op := p.cur
		p.next()
		return &ast.UpdateExpression{Operator: op.Kind, Operand: expr, Prefix: false, Position: op.Pos}, nil
	}
	return expr, nil
}

// parseLeftHandSide parses NewExpression/CallExpression/MemberExpression
// chains: `new Foo().bar[baz](qux)?.quux` etc.
func (p *Parser) parseLeftHandSide() (ast.Expression, error) {
	var expr ast.Expression
	var err error
	if p.cur.Kind == token.NEW {
		expr, err = p.parseNewExpression()
	} else {
		expr, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}
	return p.parseCallMemberTail(expr)
}

func (p *Parser) parseNewExpression() (ast.Expression, error) {
	pos := p.cur.Pos
	p.next() // consume 'new'
	if p.cur.Kind == token.DOT {
		// `new.target`; treated as a bare meta identifier.
		p.next()
		if _, err := p.expect(token.IDENT); err != nil {
			return nil, err
		}
		return &ast.Identifier{Name: "new.target", Position: pos}, nil
	}
	var callee ast.Expression
	var err error
	if p.cur.Kind == token.NEW {
		callee, err = p.parseNewExpression()
	} else {
		callee, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}
	callee, err = p.parseMemberTailNoCall(callee)
	if err != nil {
		return nil, err
	}
	var args []ast.Argument
	if p.cur.Kind == token.LPAREN {
		args, err = p.parseArguments()
		if err != nil {
			return nil, err
		}
	}
	return &ast.NewExpression{Callee: callee, Args: args, Position: pos}, nil
}

// parseMemberTailNoCall consumes `.name`/`[expr]` member access without
// consuming a following `(...)`, which belongs to the enclosing `new`.
func (p *Parser) parseMemberTailNoCall(expr ast.Expression) (ast.Expression, error) {
	for {
		switch p.cur.Kind {
		case token.DOT:
			pos := p.cur.Pos
			p.next()
			prop, err := p.parseMemberName()
			if err != nil {
				return nil, err
			}
			expr = &ast.MemberExpression{Object: expr, Property: prop, Position: pos}
		case token.LBRACKET:
			pos := p.cur.Pos
			p.next()
			prop, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return nil, err
			}
			expr = &ast.MemberExpression{Object: expr, Property: prop, Computed: true, Position: pos}
		default:
			return expr, nil
		}
	}
}

// parseBracketedExpr parses a `[expr]` computed-member index; being
// bracketed, `in` is always unambiguous here regardless of an enclosing
// for-loop head's noIn restriction.
func (p *Parser) parseBracketedExpr() (ast.Expression, error) {
	noIn := p.noIn
	p.noIn = false
	defer func() { p.noIn = noIn }()
	return p.parseExpr()
}

func (p *Parser) parseMemberName() (ast.Expression, error) {
	if p.cur.Kind == token.PRIVATE_IDENT {
		id := &ast.PrivateIdentifier{Name: p.cur.Literal, Position: p.cur.Pos}
		p.next()
		return id, nil
	}
	if !identifierLike(p.cur.Kind) {
		return nil, p.errf(p.cur.Pos, "expected property name, got %s", describeToken(p.cur))
	}
	id := &ast.Identifier{Name: p.cur.Literal, Position: p.cur.Pos}
	p.next()
	return id, nil
}

func (p *Parser) parseCallMemberTail(expr ast.Expression) (ast.Expression, error) {
	for {
		switch p.cur.Kind {
		case token.DOT:
			pos := p.cur.Pos
			p.next()
			prop, err := p.parseMemberName()
			if err != nil {
				return nil, err
			}
			expr = &ast.MemberExpression{Object: expr, Property: prop, Position: pos}
		case token.LBRACKET:
			pos := p.cur.Pos
			p.next()
			prop, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return nil, err
			}
			expr = &ast.MemberExpression{Object: expr, Property: prop, Computed: true, Position: pos}
		case token.QUESTION_DOT:
			pos := p.cur.Pos
			p.next()
			switch p.cur.Kind {
			case token.LPAREN:
				args, err := p.parseArguments()
				if err != nil {
					return nil, err
				}
				expr = &ast.CallExpression{Callee: expr, Args: args, Optional: true, Position: pos}
			case token.LBRACKET:
				p.next()
				prop, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(token.RBRACKET); err != nil {
					return nil, err
				}
				expr = &ast.MemberExpression{Object: expr, Property: prop, Computed: true, Optional: true, Position: pos}
			default:
				prop, err := p.parseMemberName()
				if err != nil {
					return nil, err
				}
				expr = &ast.MemberExpression{Object: expr, Property: prop, Optional: true, Position: pos}
			}
		case token.LPAREN:
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpression{Callee: expr, Args: args, Position: p.cur.Pos}
		case token.TEMPLATE:
			quasi, err := p.parseTemplateLiteral()
			if err != nil {
				return nil, err
			}
			expr = &ast.TaggedTemplateExpression{Tag: expr, Quasi: quasi.(*ast.TemplateLiteral), Position: quasi.Pos()}
		default:
			return expr, nil
		}
	}
}

// parseArguments parses a call's `(args)`. Being bracketed, the `in`
// operator is always unambiguous here regardless of an enclosing for-loop
// head's noIn restriction.
func (p *Parser) parseArguments() ([]ast.Argument, error) {
	noIn := p.noIn
	p.noIn = false
	defer func() { p.noIn = noIn }()
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var args []ast.Argument
	for p.cur.Kind != token.RPAREN {
		spread := false
		if p.cur.Kind == token.DOTDOTDOT {
			spread = true
			p.next()
		}
		v, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, ast.Argument{Value: v, Spread: spread})
		if p.cur.Kind == token.COMMA {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

// tryParseSingleIdentArrow recognizes `ident => body`.
func (p *Parser) tryParseSingleIdentArrow() (func() (ast.Expression, error), bool) {
	if p.cur.Kind != token.IDENT && p.cur.Kind != token.YIELD && p.cur.Kind != token.AWAIT {
		return nil, false
	}
	if p.peek.Kind != token.ARROW || p.peek.NewlineBefore {
		return nil, false
	}
	return func() (ast.Expression, error) {
		pos := p.cur.Pos
		name := p.cur.Literal
		p.next() // identifier
		p.next() // =>
		body, err := p.parseArrowBody()
		if err != nil {
			return nil, err
		}
		return &ast.ArrowFunctionExpression{
			Params:   []ast.Pattern{&ast.Identifier{Name: name, Position: pos}},
			Body:     body,
			Position: pos,
		}, nil
	}, true
}

// tryParseParenArrow implements the cover grammar for
// `( CoverParenthesizedExpressionAndArrowParameterList )`: it parses the
// parenthesized list eagerly and only afterward decides, from whether `=>`
// follows, whether to reinterpret it as an arrow parameter list or return it
// as a parenthesized/sequence expression.
func (p *Parser) tryParseParenArrow(async bool) (ast.Expression, bool, error) {
	pos := p.cur.Pos
	save := *p
	elements, spreads, err := p.parseParenList()
	if err != nil {
		*p = save
		return nil, false, nil
	}
	if p.cur.Kind == token.ARROW && !p.cur.NewlineBefore {
		p.next()
		params := make([]ast.Pattern, len(elements))
		for i, e := range elements {
			if spreads[i] {
				params[i] = &ast.RestElement{Target: mustPattern(e), Position: e.Pos()}
				continue
			}
			pat, perr := exprToPattern(e)
			if perr != nil {
				return nil, false, p.errf(e.Pos(), "%s", perr.Error())
			}
			params[i] = pat
		}
		body, err := p.parseArrowBody()
		if err != nil {
			return nil, false, err
		}
		return &ast.ArrowFunctionExpression{Params: params, Body: body, Async: async, Position: pos}, true, nil
	}
	if async {
		// `async (...)` with no arrow: not an arrow function after all;
		// restore and let the caller fall through to treating `async` as a
		// plain identifier callee.
		*p = save
		return nil, false, nil
	}
	for _, s := range spreads {
		if s {
			return nil, false, p.errf(pos, "unexpected rest element in parenthesized expression")
		}
	}
	if len(elements) == 0 {
		return nil, false, p.errf(pos, "empty parenthesized expression")
	}
	if len(elements) == 1 {
		return elements[0], true, nil
	}
	return &ast.SequenceExpression{Expressions: elements, Position: pos}, true, nil
}

func mustPattern(e ast.Expression) ast.Pattern {
	pat, err := exprToPattern(e)
	if err != nil {
		if id, ok := e.(*ast.Identifier); ok {
			return id
		}
	}
	return pat
}

// parseParenList parses `( item (, item)* )` where each item is an
// AssignmentExpression, optionally preceded by `...` for a trailing rest
// element (only meaningful if the caller decides this is an arrow parameter
// list).
func (p *Parser) parseParenList() ([]ast.Expression, []bool, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, nil, err
	}
	var elements []ast.Expression
	var spreads []bool
	for p.cur.Kind != token.RPAREN {
		spread := false
		if p.cur.Kind == token.DOTDOTDOT {
			spread = true
			p.next()
		}
		e, err := p.parseAssignExpr()
		if err != nil {
			return nil, nil, err
		}
		elements = append(elements, e)
		spreads = append(spreads, spread)
		if spread {
			break
		}
		if p.cur.Kind == token.COMMA {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, nil, err
	}
	return elements, spreads, nil
}

func (p *Parser) tryParseAsyncArrow() (ast.Expression, bool, error) {
	save := *p
	p.next() // consume 'async'
	if p.cur.Kind == token.IDENT && p.peek.Kind == token.ARROW && !p.peek.NewlineBefore {
		pos := p.cur.Pos
		name := p.cur.Literal
		p.next()
		p.next()
		p.asyncDepth++
		body, err := p.parseArrowBody()
		p.asyncDepth--
		if err != nil {
			return nil, false, err
		}
		return &ast.ArrowFunctionExpression{
			Params:   []ast.Pattern{&ast.Identifier{Name: name, Position: pos}},
			Body:     body,
			Async:    true,
			Position: pos,
		}, true, nil
	}
	if p.cur.Kind == token.LPAREN {
		p.asyncDepth++
		expr, ok, err := p.tryParseParenArrow(true)
		p.asyncDepth--
		if ok || err != nil {
			return expr, ok, err
		}
	}
	*p = save
	return nil, false, nil
}

// parseArrowBody parses an arrow function's body: either a single
// AssignmentExpression (concise body) or a `{ ... }` block.
func (p *Parser) parseArrowBody() (ast.Node, error) {
	if p.cur.Kind == token.LBRACE {
		return p.parseBlockStatement()
	}
	return p.parseAssignExpr()
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	switch p.cur.Kind {
	case token.NUMBER:
		return p.parseNumberLiteral()
	case token.STRING:
		lit := &ast.StringLiteral{Value: p.cur.Literal, Position: p.cur.Pos}
		p.next()
		return lit, nil
	case token.TEMPLATE:
		return p.parseTemplateLiteral()
	case token.REGEXP:
		return p.parseRegExpLiteral()
	case token.TRUE:
		lit := &ast.BooleanLiteral{Value: true, Position: p.cur.Pos}
		p.next()
		return lit, nil
	case token.FALSE:
		lit := &ast.BooleanLiteral{Value: false, Position: p.cur.Pos}
		p.next()
		return lit, nil
	case token.NULL:
		lit := &ast.NullLiteral{Position: p.cur.Pos}
		p.next()
		return lit, nil
	case token.UNDEFINED:
		lit := &ast.UndefinedLiteral{Position: p.cur.Pos}
		p.next()
		return lit, nil
	case token.THIS:
		lit := &ast.ThisExpression{Position: p.cur.Pos}
		p.next()
		return lit, nil
	case token.SUPER:
		lit := &ast.SuperExpression{Position: p.cur.Pos}
		p.next()
		return lit, nil
	case token.IDENT, token.YIELD, token.AWAIT, token.GET, token.SET, token.STATIC, token.OF, token.AS, token.FROM, token.LET:
		id := &ast.Identifier{Name: p.cur.Literal, Position: p.cur.Pos}
		p.next()
		return id, nil
	case token.ASYNC:
		return p.parseAsyncPrimary()
	case token.FUNCTION:
		return p.parseFunctionExpression(false)
	case token.CLASS:
		decl, err := p.parseClassTail()
		if err != nil {
			return nil, err
		}
		return &ast.ClassExpression{ClassDeclaration: decl}, nil
	case token.LPAREN:
		expr, ok, err := p.tryParseParenArrow(false)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, p.unexpected()
		}
		return expr, nil
	case token.LBRACKET:
		return p.parseArrayLiteral()
	case token.LBRACE:
		return p.parseObjectLiteral()
	default:
		return nil, p.unexpected()
	}
}

// parseAsyncPrimary handles `async function ...` and the `async(...)`/
// `async` identifier cases not already claimed by tryParseAsyncArrow
// (which only fires from parseAssignExpr, one level up).
func (p *Parser) parseAsyncPrimary() (ast.Expression, error) {
	if p.peek.Kind == token.FUNCTION && !p.peek.NewlineBefore {
		p.next() // consume 'async'
		return p.parseFunctionExpression(true)
	}
	id := &ast.Identifier{Name: p.cur.Literal, Position: p.cur.Pos}
	p.next()
	return id, nil
}

func (p *Parser) parseFunctionExpression(async bool) (ast.Expression, error) {
	pos := p.cur.Pos
	p.next() // consume 'function'
	generator := false
	if p.cur.Kind == token.STAR {
		generator = true
		p.next()
	}
	var name *ast.Identifier
	if p.cur.Kind == token.IDENT {
		name = &ast.Identifier{Name: p.cur.Literal, Position: p.cur.Pos}
		p.next()
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if generator {
		p.genDepth++
	}
	if async {
		p.asyncDepth++
	}
	body, err := p.parseBlockStatement()
	if generator {
		p.genDepth--
	}
	if async {
		p.asyncDepth--
	}
	if err != nil {
		return nil, err
	}
	return &ast.FunctionExpression{Name: name, Params: params, Body: body, Generator: generator, Async: async, Position: pos}, nil
}

func (p *Parser) parseRegExpLiteral() (ast.Expression, error) {
	pos := p.cur.Pos
	raw := p.cur.Literal
	p.next()
	last := strings.LastIndexByte(raw, '/')
	if len(raw) < 2 || raw[0] != '/' || last <= 0 {
		return nil, p.errf(pos, "malformed regular expression literal")
	}
	return &ast.RegExpLiteral{Pattern: raw[1:last], Flags: raw[last+1:], Position: pos}, nil
}

func (p *Parser) parseNumberLiteral() (*ast.NumberLiteral, error) {
	pos := p.cur.Pos
	raw := p.cur.Literal
	p.next()
	if strings.HasSuffix(raw, "n") {
		digits := strings.TrimSuffix(raw, "n")
		if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
			bi, ok := new(big.Int).SetString(digits, 0)
			if !ok {
				return nil, p.errf(pos, "invalid bigint literal %q", raw)
			}
			digits = bi.String()
		}
		return &ast.NumberLiteral{Big: digits, Position: pos}, nil
	}
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		u, err := strconv.ParseUint(raw[2:], 16, 64)
		if err != nil {
			return nil, p.errf(pos, "invalid numeric literal %q", raw)
		}
		return &ast.NumberLiteral{Value: float64(u), Position: pos}, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, p.errf(pos, "invalid numeric literal %q", raw)
	}
	return &ast.NumberLiteral{Value: f, Position: pos}, nil
}

// parseTemplateLiteral splits a TEMPLATE token's raw text (quasis plus
// verbatim `${...}` substitution markers, see internal/lexer.readTemplateRaw)
// into its Quasis and Expressions, re-lexing each substitution with a fresh
// internal/lexer.Lexer.
func (p *Parser) parseTemplateLiteral() (ast.Expression, error) {
	pos := p.cur.Pos
	raw := p.cur.Literal
	p.next()

	lit := &ast.TemplateLiteral{Position: pos}
	var quasi strings.Builder
	i := 0
	for i < len(raw) {
		if raw[i] == '$' && i+1 < len(raw) && raw[i+1] == '{' {
			lit.Quasis = append(lit.Quasis, quasi.String())
			quasi.Reset()
			depth := 1
			j := i + 2
			start := j
			for j < len(raw) && depth > 0 {
				switch raw[j] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						goto done
					}
				}
				j++
			}
		done:
			sub := raw[start:j]
			expr, err := parseSubExpression(sub)
			if err != nil {
				return nil, p.errf(pos, "invalid template substitution: %s", err.Error())
			}
			lit.Expressions = append(lit.Expressions, expr)
			i = j + 1
			continue
		}
		quasi.WriteByte(raw[i])
		i++
	}
	lit.Quasis = append(lit.Quasis, quasi.String())
	return lit, nil
}

func parseSubExpression(src string) (ast.Expression, error) {
	sp := &Parser{lex: *lexer.New(src)}
	sp.next()
	sp.next()
	return sp.parseExpr()
}

func (p *Parser) parseArrayLiteral() (ast.Expression, error) {
	pos := p.cur.Pos
	p.next() // consume '['
	lit := &ast.ArrayLiteral{Position: pos}
	for p.cur.Kind != token.RBRACKET {
		if p.cur.Kind == token.COMMA {
			lit.Elements = append(lit.Elements, nil)
			lit.Spreads = append(lit.Spreads, false)
			p.next()
			continue
		}
		spread := false
		if p.cur.Kind == token.DOTDOTDOT {
			spread = true
			p.next()
		}
		e, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		lit.Elements = append(lit.Elements, e)
		lit.Spreads = append(lit.Spreads, spread)
		if p.cur.Kind == token.COMMA {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *Parser) parseObjectLiteral() (ast.Expression, error) {
	pos := p.cur.Pos
	p.next() // consume '{'
	lit := &ast.ObjectLiteral{Position: pos}
	for p.cur.Kind != token.RBRACE {
		prop, err := p.parseObjectProperty()
		if err != nil {
			return nil, err
		}
		lit.Properties = append(lit.Properties, prop)
		if p.cur.Kind == token.COMMA {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *Parser) parseObjectProperty() (ast.Property, error) {
	if p.cur.Kind == token.DOTDOTDOT {
		p.next()
		e, err := p.parseAssignExpr()
		if err != nil {
			return ast.Property{}, err
		}
		return ast.Property{Key: e, Kind: ast.PropertySpread}, nil
	}
	async := false
	generator := false
	accessor := ast.PropertyInit
	if p.cur.Kind == token.ASYNC && p.peek.Kind != token.COLON && p.peek.Kind != token.LPAREN && p.peek.Kind != token.COMMA && p.peek.Kind != token.RBRACE {
		async = true
		p.next()
	}
	if p.cur.Kind == token.STAR {
		generator = true
		p.next()
	}
	if (p.cur.Kind == token.GET || p.cur.Kind == token.SET) &&
		p.peek.Kind != token.COLON && p.peek.Kind != token.LPAREN && p.peek.Kind != token.COMMA && p.peek.Kind != token.RBRACE {
		if p.cur.Kind == token.GET {
			accessor = ast.PropertyGet
		} else {
			accessor = ast.PropertySet
		}
		p.next()
	}

	key, computed, err := p.parsePropertyKey()
	if err != nil {
		return ast.Property{}, err
	}

	switch {
	case accessor != ast.PropertyInit:
		fn, err := p.parseMethodBody(nil, false, false)
		if err != nil {
			return ast.Property{}, err
		}
		return ast.Property{Key: key, Computed: computed, Value: fn, Kind: accessor}, nil
	case p.cur.Kind == token.LPAREN:
		fn, err := p.parseMethodBody(nil, generator, async)
		if err != nil {
			return ast.Property{}, err
		}
		return ast.Property{Key: key, Computed: computed, Value: fn, Kind: ast.PropertyMethod}, nil
	case p.cur.Kind == token.COLON:
		p.next()
		v, err := p.parseAssignExpr()
		if err != nil {
			return ast.Property{}, err
		}
		return ast.Property{Key: key, Computed: computed, Value: v, Kind: ast.PropertyInit}, nil
	default:
		// Shorthand `{a}` or `{a = 1}` (the latter only valid when this
		// object literal turns out to be a destructuring-assignment target;
		// exprToPattern accepts it as an AssignmentExpression child).
		id, ok := key.(*ast.Identifier)
		if !ok {
			return ast.Property{}, p.errf(key.Pos(), "invalid shorthand property")
		}
		if p.cur.Kind == token.ASSIGN {
			p.next()
			def, err := p.parseAssignExpr()
			if err != nil {
				return ast.Property{}, err
			}
			v := &ast.AssignmentExpression{Operator: token.ASSIGN, Target: id, Value: def, Position: id.Position}
			return ast.Property{Key: id, Value: v, Kind: ast.PropertyInit, Shorthand: true}, nil
		}
		return ast.Property{Key: id, Value: id, Kind: ast.PropertyInit, Shorthand: true}, nil
	}
}

// parseMethodBody parses `(params) { body }` for a method/getter/setter,
// given the method's key has already been consumed.
func (p *Parser) parseMethodBody(name *ast.Identifier, generator, async bool) (*ast.FunctionExpression, error) {
	pos := p.cur.Pos
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if generator {
		p.genDepth++
	}
	if async {
		p.asyncDepth++
	}
	body, err := p.parseBlockStatement()
	if generator {
		p.genDepth--
	}
	if async {
		p.asyncDepth--
	}
	if err != nil {
		return nil, err
	}
	return &ast.FunctionExpression{Name: name, Params: params, Body: body, Generator: generator, Async: async, Position: pos}, nil
}
