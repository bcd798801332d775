package parser

import (
	"github.com/go-jsvm/jsvm/internal/ast"
	"github.com/go-jsvm/jsvm/internal/token"
)

// parseClassTail parses a class starting at the `class` keyword, which it
// consumes itself (shared by class declarations and class
// expressions, which differ only in whether the name is required).
func (p *Parser) parseClassTail() (*ast.ClassDeclaration, error) {
	pos := p.cur.Pos
	p.next() // consume 'class'
	cls := &ast.ClassDeclaration{Position: pos}
	if p.cur.Kind == token.IDENT {
		cls.Name = &ast.Identifier{Name: p.cur.Literal, Position: p.cur.Pos}
		p.next()
	}
	if p.cur.Kind == token.EXTENDS {
		p.next()
		super, err := p.parseLeftHandSide()
		if err != nil {
			return nil, err
		}
		cls.SuperClass = super
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	for p.cur.Kind != token.RBRACE {
		if p.cur.Kind == token.SEMI {
			p.next()
			continue
		}
		el, err := p.parseClassElement()
		if err != nil {
			return nil, err
		}
		cls.Body = append(cls.Body, el)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return cls, nil
}

func (p *Parser) parseClassElement() (ast.ClassElement, error) {
	static := false
	if p.cur.Kind == token.STATIC && p.peek.Kind != token.LPAREN && p.peek.Kind != token.ASSIGN && p.peek.Kind != token.SEMI {
		if p.peek.Kind == token.LBRACE {
			p.next()
			body, err := p.parseBlockStatement()
			if err != nil {
				return ast.ClassElement{}, err
			}
			return ast.ClassElement{Kind: ast.ClassStaticBlock, Static: true, StaticBody: body}, nil
		}
		static = true
		p.next()
	}

	async := false
	generator := false
	kind := ast.ClassMethod

	if p.cur.Kind == token.ASYNC && p.peek.Kind != token.LPAREN && p.peek.Kind != token.ASSIGN && p.peek.Kind != token.SEMI {
		async = true
		p.next()
	}
	if p.cur.Kind == token.STAR {
		generator = true
		p.next()
	}
	if (p.cur.Kind == token.GET || p.cur.Kind == token.SET) &&
		p.peek.Kind != token.LPAREN && p.peek.Kind != token.ASSIGN && p.peek.Kind != token.SEMI {
		if p.cur.Kind == token.GET {
			kind = ast.ClassGetter
		} else {
			kind = ast.ClassSetter
		}
		p.next()
	}

	key, computed, err := p.parseClassElementKey()
	if err != nil {
		return ast.ClassElement{}, err
	}

	if p.cur.Kind == token.LPAREN {
		fn, err := p.parseMethodBody(identOrNil(key), generator, async)
		if err != nil {
			return ast.ClassElement{}, err
		}
		return ast.ClassElement{Kind: kind, Key: key, Computed: computed, Static: static, Value: fn}, nil
	}

	// Field declaration, optionally initialized.
	var init ast.Expression
	if p.cur.Kind == token.ASSIGN {
		p.next()
		init, err = p.parseAssignExpr()
		if err != nil {
			return ast.ClassElement{}, err
		}
	}
	if err := p.consumeSemicolon(); err != nil {
		return ast.ClassElement{}, err
	}
	return ast.ClassElement{Kind: ast.ClassField, Key: key, Computed: computed, Static: static, Value: init}, nil
}

func identOrNil(key ast.Expression) *ast.Identifier {
	id, _ := key.(*ast.Identifier)
	return id
}

func (p *Parser) parseClassElementKey() (ast.Expression, bool, error) {
	if p.cur.Kind == token.PRIVATE_IDENT {
		id := &ast.PrivateIdentifier{Name: p.cur.Literal, Position: p.cur.Pos}
		p.next()
		return id, false, nil
	}
	return p.parsePropertyKey()
}
