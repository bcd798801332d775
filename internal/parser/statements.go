package parser

import (
	"github.com/go-jsvm/jsvm/internal/ast"
	"github.com/go-jsvm/jsvm/internal/token"
)

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur.Kind {
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.VAR, token.LET, token.CONST:
		return p.parseVariableStatement()
	case token.FUNCTION:
		return p.parseFunctionDeclaration(false)
	case token.ASYNC:
		if p.peek.Kind == token.FUNCTION && !p.peek.NewlineBefore {
			p.next()
			return p.parseFunctionDeclaration(true)
		}
		return p.parseExpressionOrLabeledStatement()
	case token.CLASS:
		decl, err := p.parseClassTail()
		if err != nil {
			return nil, err
		}
		return decl, nil
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.DO:
		return p.parseDoWhileStatement()
	case token.SWITCH:
		return p.parseSwitchStatement()
	case token.TRY:
		return p.parseTryStatement()
	case token.THROW:
		return p.parseThrowStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		return p.parseBreakStatement()
	case token.CONTINUE:
		return p.parseContinueStatement()
	case token.SEMI:
		stmt := &ast.EmptyStatement{Position: p.cur.Pos}
		p.next()
		return stmt, nil
	default:
		return p.parseExpressionOrLabeledStatement()
	}
}

func (p *Parser) parseExpressionOrLabeledStatement() (ast.Statement, error) {
	if identifierLike(p.cur.Kind) && p.peek.Kind == token.COLON {
		pos := p.cur.Pos
		label := p.cur.Literal
		p.next() // identifier
		p.next() // ':'
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ast.LabeledStatement{Label: label, Body: body, Position: pos}, nil
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseExpressionStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Expr: expr, Position: pos}, nil
}

func (p *Parser) parseBlockStatement() (*ast.BlockStatement, error) {
	pos := p.cur.Pos
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	block := &ast.BlockStatement{Position: pos}
	for p.cur.Kind != token.RBRACE {
		if p.cur.Kind == token.EOF {
			return nil, p.errf(p.cur.Pos, "unexpected end of input, expected }")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Body = append(block.Body, stmt)
	}
	p.next() // consume '}'
	return block, nil
}

func declKindOf(kind token.Kind) ast.DeclarationKind {
	switch kind {
	case token.LET:
		return ast.DeclLet
	case token.CONST:
		return ast.DeclConst
	default:
		return ast.DeclVar
	}
}

func (p *Parser) parseVariableStatement() (ast.Statement, error) {
	decl, err := p.parseVariableDeclaration()
	if err != nil {
		return nil, err
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return decl, nil
}

// parseVariableDeclaration parses `var|let|const decl (, decl)*` without
// consuming the trailing statement terminator, so `for (var i = 0; ...)` can
// reuse it.
func (p *Parser) parseVariableDeclaration() (*ast.VariableDeclaration, error) {
	pos := p.cur.Pos
	kind := declKindOf(p.cur.Kind)
	p.next()
	decl := &ast.VariableDeclaration{Kind: kind, Position: pos}
	for {
		target, err := p.parseBindingTarget()
		if err != nil {
			return nil, err
		}
		var init ast.Expression
		if p.cur.Kind == token.ASSIGN {
			p.next()
			init, err = p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
		}
		decl.Declarations = append(decl.Declarations, ast.VariableDeclarator{Target: target, Init: init})
		if p.cur.Kind == token.COMMA {
			p.next()
			continue
		}
		break
	}
	return decl, nil
}

func (p *Parser) parseFunctionDeclaration(async bool) (ast.Statement, error) {
	pos := p.cur.Pos
	p.next() // consume 'function'
	generator := false
	if p.cur.Kind == token.STAR {
		generator = true
		p.next()
	}
	name, err := p.parseBindingIdentifier()
	if err != nil {
		return nil, err
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
	return &ast.FunctionDeclaration{Name: name, Params: params, Body: body, Generator: generator, Async: async, Position: pos}, nil
}

func (p *Parser) parseIfStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.next() // 'if'
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	cons, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStatement{Test: test, Consequent: cons, Position: pos}
	if p.cur.Kind == token.ELSE {
		p.next()
		alt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt.Alternate = alt
	}
	return stmt, nil
}

func (p *Parser) parseWhileStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.next() // 'while'
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStatement{Test: test, Body: body, Position: pos}, nil
}

func (p *Parser) parseDoWhileStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.next() // 'do'
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.WHILE); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	// `;` after do-while is optional even without a newline.
	if p.cur.Kind == token.SEMI {
		p.next()
	}
	return &ast.DoWhileStatement{Body: body, Test: test, Position: pos}, nil
}

// parseForStatement disambiguates classic C-style `for(;;)` from `for...in`
// and `for...of` by parsing the head without treating `in` as a binary
// operator (p.noIn), then checking what follows.
func (p *Parser) parseForStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.next() // 'for'
	await := false
	if p.cur.Kind == token.AWAIT {
		await = true
		p.next()
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	var left ast.Node
	var err error
	switch p.cur.Kind {
	case token.SEMI:
		left = nil
	case token.VAR, token.LET, token.CONST:
		p.noIn = true
		left, err = p.parseVariableDeclaration()
		p.noIn = false
		if err != nil {
			return nil, err
		}
	default:
		p.noIn = true
		left, err = p.parseExpr()
		p.noIn = false
		if err != nil {
			return nil, err
		}
	}

	if p.cur.Kind == token.IN || p.cur.Kind == token.OF {
		isOf := p.cur.Kind == token.OF
		p.next()
		var right ast.Expression
		if isOf {
			right, err = p.parseAssignExpr()
		} else {
			right, err = p.parseExpr()
		}
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if isOf {
			return &ast.ForOfStatement{Left: left, Right: right, Body: body, Await: await, Position: pos}, nil
		}
		return &ast.ForInStatement{Left: left, Right: right, Body: body, Position: pos}, nil
	}

	stmt := &ast.ForStatement{Position: pos}
	if decl, ok := left.(*ast.VariableDeclaration); ok {
		stmt.Init = decl
	} else if expr, ok := left.(ast.Expression); ok {
		stmt.Init = expr
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	if p.cur.Kind != token.SEMI {
		stmt.Test, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	if p.cur.Kind != token.RPAREN {
		stmt.Update, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	stmt.Body, err = p.parseStatement()
	if err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseSwitchStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.next() // 'switch'
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	disc, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	stmt := &ast.SwitchStatement{Discriminant: disc, Position: pos}
	for p.cur.Kind != token.RBRACE {
		var c ast.SwitchCase
		switch p.cur.Kind {
		case token.CASE:
			p.next()
			test, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			c.Test = test
		case token.DEFAULT:
			p.next()
		default:
			return nil, p.errf(p.cur.Pos, "expected case or default, got %s", describeToken(p.cur))
		}
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		for p.cur.Kind != token.CASE && p.cur.Kind != token.DEFAULT && p.cur.Kind != token.RBRACE {
			s, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			c.Body = append(c.Body, s)
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	p.next() // consume '}'
	return stmt, nil
}

func (p *Parser) parseTryStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.next() // 'try'
	block, err := p.parseBlockStatement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.TryStatement{Block: block, Position: pos}
	if p.cur.Kind == token.CATCH {
		p.next()
		var clause ast.CatchClause
		if p.cur.Kind == token.LPAREN {
			p.next()
			param, err := p.parseBindingTarget()
			if err != nil {
				return nil, err
			}
			clause.Param = param
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
		}
		body, err := p.parseBlockStatement()
		if err != nil {
			return nil, err
		}
		clause.Body = body
		stmt.Catch = &clause
	}
	if p.cur.Kind == token.FINALLY {
		p.next()
		fin, err := p.parseBlockStatement()
		if err != nil {
			return nil, err
		}
		stmt.Finally = fin
	}
	if stmt.Catch == nil && stmt.Finally == nil {
		return nil, p.errf(pos, "missing catch or finally after try")
	}
	return stmt, nil
}

func (p *Parser) parseThrowStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.next() // 'throw'
	if p.cur.NewlineBefore {
		return nil, p.errf(pos, "illegal newline after throw")
	}
	arg, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return &ast.ThrowStatement{Argument: arg, Position: pos}, nil
}

func (p *Parser) parseReturnStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.next() // 'return'
	stmt := &ast.ReturnStatement{Position: pos}
	if p.canStartExpression() && !p.cur.NewlineBefore {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Argument = arg
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseBreakStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.next() // 'break'
	stmt := &ast.BreakStatement{Position: pos}
	if p.cur.Kind == token.IDENT && !p.cur.NewlineBefore {
		stmt.Label = p.cur.Literal
		p.next()
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseContinueStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	p.next() // 'continue'
	stmt := &ast.ContinueStatement{Position: pos}
	if p.cur.Kind == token.IDENT && !p.cur.NewlineBefore {
		stmt.Label = p.cur.Literal
		p.next()
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return stmt, nil
}
