package parser

import (
	"fmt"

	"github.com/go-jsvm/jsvm/internal/ast"
	"github.com/go-jsvm/jsvm/internal/token"
)

// parseBindingTarget parses a destructuring-or-identifier binding target, as
// used on the left of `var`/`let`/`const` declarators, catch parameters, and
// function parameters.
func (p *Parser) parseBindingTarget() (ast.Pattern, error) {
	switch p.cur.Kind {
	case token.LBRACKET:
		return p.parseArrayPattern()
	case token.LBRACE:
		return p.parseObjectPattern()
	default:
		return p.parseBindingIdentifier()
	}
}

// parseBindingTargetWithDefault wraps parseBindingTarget with an optional
// `= expr` default, used for function parameters and for the elements of
// array and object patterns (declarators parse their initializer themselves).
func (p *Parser) parseBindingTargetWithDefault() (ast.Pattern, error) {
	pos := p.cur.Pos
	target, err := p.parseBindingTarget()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != token.ASSIGN {
		return target, nil
	}
	p.next()
	def, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	return &ast.AssignmentPattern{Target: target, Default: def, Position: pos}, nil
}

func (p *Parser) parseArrayPattern() (ast.Pattern, error) {
	pos := p.cur.Pos
	p.next() // consume '['
	pat := &ast.ArrayPattern{Position: pos}
	for p.cur.Kind != token.RBRACKET {
		if p.cur.Kind == token.COMMA {
			pat.Elements = append(pat.Elements, ast.ArrayPatternElement{})
			p.next()
			continue
		}
		rest := false
		if p.cur.Kind == token.DOTDOTDOT {
			rest = true
			p.next()
		}
		target, err := p.parseBindingTargetWithDefault()
		if err != nil {
			return nil, err
		}
		pat.Elements = append(pat.Elements, ast.ArrayPatternElement{Target: target, Rest: rest})
		if p.cur.Kind == token.COMMA {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	return pat, nil
}

func (p *Parser) parseObjectPattern() (ast.Pattern, error) {
	pos := p.cur.Pos
	p.next() // consume '{'
	pat := &ast.ObjectPattern{Position: pos}
	for p.cur.Kind != token.RBRACE {
		if p.cur.Kind == token.DOTDOTDOT {
			p.next()
			restID, err := p.parseBindingIdentifier()
			if err != nil {
				return nil, err
			}
			pat.Properties = append(pat.Properties, ast.ObjectPatternProperty{Key: restID, Rest: true})
			break
		}
		key, computed, err := p.parsePropertyKey()
		if err != nil {
			return nil, err
		}
		var value ast.Pattern
		if p.cur.Kind == token.COLON {
			p.next()
			value, err = p.parseBindingTargetWithDefault()
			if err != nil {
				return nil, err
			}
		} else {
			// Shorthand `{a}` or `{a = 1}`: the key must itself be a plain
			// identifier, reused as the binding target.
			id, ok := key.(*ast.Identifier)
			if !ok {
				return nil, p.errf(pos, "invalid shorthand property in destructuring pattern")
			}
			if p.cur.Kind == token.ASSIGN {
				p.next()
				def, err := p.parseAssignExpr()
				if err != nil {
					return nil, err
				}
				value = &ast.AssignmentPattern{Target: id, Default: def, Position: id.Position}
			} else {
				value = id
			}
		}
		pat.Properties = append(pat.Properties, ast.ObjectPatternProperty{Key: key, Computed: computed, Value: value})
		if p.cur.Kind == token.COMMA {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return pat, nil
}

// parsePropertyKey parses the key of an object literal/pattern property:
// an identifier-like name, a string/number literal, or a `[computed]`
// expression.
func (p *Parser) parsePropertyKey() (ast.Expression, bool, error) {
	switch p.cur.Kind {
	case token.LBRACKET:
		p.next()
		expr, err := p.parseAssignExpr()
		if err != nil {
			return nil, false, err
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, false, err
		}
		return expr, true, nil
	case token.STRING:
		lit := &ast.StringLiteral{Value: p.cur.Literal, Position: p.cur.Pos}
		p.next()
		return lit, false, nil
	case token.NUMBER:
		n, err := p.parseNumberLiteral()
		if err != nil {
			return nil, false, err
		}
		return n, false, nil
	case token.PRIVATE_IDENT:
		id := &ast.PrivateIdentifier{Name: p.cur.Literal, Position: p.cur.Pos}
		p.next()
		return id, false, nil
	default:
		if !identifierLike(p.cur.Kind) {
			return nil, false, p.errf(p.cur.Pos, "expected property name, got %s", describeToken(p.cur))
		}
		id := &ast.Identifier{Name: p.cur.Literal, Position: p.cur.Pos}
		p.next()
		return id, false, nil
	}
}

// parseParams parses a parenthesized parameter list, as used by function
// declarations/expressions and methods (arrow function parameter lists go
// through the cover-grammar path in expressions.go instead, since they must
// stay ambiguous with a parenthesized expression until `=>` is seen).
func (p *Parser) parseParams() ([]ast.Pattern, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []ast.Pattern
	for p.cur.Kind != token.RPAREN {
		if p.cur.Kind == token.DOTDOTDOT {
			pos := p.cur.Pos
			p.next()
			target, err := p.parseBindingTarget()
			if err != nil {
				return nil, err
			}
			params = append(params, &ast.RestElement{Target: target, Position: pos})
			break
		}
		param, err := p.parseBindingTargetWithDefault()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if p.cur.Kind == token.COMMA {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return params, nil
}

// exprToPattern reinterprets an already-parsed expression as a destructuring
// pattern, used both by the arrow-function cover grammar (`(a, {b}) => ...`)
// and by destructuring assignment (`({a, b} = obj)`). It only needs to cover
// the expression shapes the cover grammar can actually produce: identifiers,
// array/object literals, and `=` assignments (as defaults).
func exprToPattern(expr ast.Expression) (ast.Pattern, error) {
	switch e := expr.(type) {
	case *ast.Identifier:
		return e, nil
	case *ast.AssignmentExpression:
		if e.Operator != token.ASSIGN {
			return nil, fmt.Errorf("invalid destructuring default")
		}
		target, err := exprToPatternNode(e.Target)
		if err != nil {
			return nil, err
		}
		return &ast.AssignmentPattern{Target: target, Default: e.Value, Position: e.Position}, nil
	case *ast.ArrayLiteral:
		pat := &ast.ArrayPattern{Position: e.Position}
		for i, el := range e.Elements {
			if el == nil {
				pat.Elements = append(pat.Elements, ast.ArrayPatternElement{})
				continue
			}
			target, err := exprToPattern(el)
			if err != nil {
				return nil, err
			}
			pat.Elements = append(pat.Elements, ast.ArrayPatternElement{Target: target, Rest: e.Spreads[i]})
		}
		return pat, nil
	case *ast.ObjectLiteral:
		pat := &ast.ObjectPattern{Position: e.Position}
		for _, prop := range e.Properties {
			if prop.Kind == ast.PropertySpread {
				id, ok := prop.Key.(*ast.Identifier)
				if !ok {
					return nil, fmt.Errorf("invalid rest target in destructuring pattern")
				}
				pat.Properties = append(pat.Properties, ast.ObjectPatternProperty{Key: id, Rest: true})
				continue
			}
			value, err := exprToPattern(prop.Value)
			if err != nil {
				return nil, err
			}
			pat.Properties = append(pat.Properties, ast.ObjectPatternProperty{Key: prop.Key, Computed: prop.Computed, Value: value})
		}
		return pat, nil
	default:
		return nil, fmt.Errorf("invalid destructuring target")
	}
}

func exprToPatternNode(n ast.Node) (ast.Pattern, error) {
	if expr, ok := n.(ast.Expression); ok {
		return exprToPattern(expr)
	}
	if pat, ok := n.(ast.Pattern); ok {
		return pat, nil
	}
	return nil, fmt.Errorf("invalid destructuring target")
}
