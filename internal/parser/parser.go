// Package parser implements a JavaScript parser using Pratt parsing.
//
// It is an ordinary recursive-descent front end over internal/lexer's token
// stream: two-token lookahead (cur/peek), a precedence-climbing expression
// parser, and the "cover grammar" trick for telling a parenthesized
// expression apart from an arrow function's parameter list. It does not
// attempt full early-error validation (duplicate parameter names, strict-mode
// restrictions, etc.) beyond what the grammar itself rules out; internal/
// bytecode's compiler rejects the handful of cases that need scope
// information to catch.
package parser

import (
	"fmt"

	"github.com/go-jsvm/jsvm/internal/ast"
	"github.com/go-jsvm/jsvm/internal/lexer"
	"github.com/go-jsvm/jsvm/internal/token"
)

// Parser turns a token stream into an *ast.Program.
//
// lex is stored by value (not *lexer.Lexer): the lexer's fields are all
// plain value types, so copying a Parser (`save := *p`) snapshots the whole
// token stream position for the cover-grammar's try-then-restore parses
// (tryParseParenArrow, tryParseAsyncArrow), with no separate lexer
// save/restore API needed.
type Parser struct {
	lex lexer.Lexer

	cur  token.Token
	peek token.Token

	genDepth   int  // >0 inside a generator function body: `yield` is an expression
	asyncDepth int  // >0 inside an async function body: `await` is an expression
	noIn       bool // suppress `in` as a binary operator while parsing a for-loop head
}

// New creates a Parser over src.
func New(src string) *Parser {
	p := &Parser{lex: *lexer.New(src)}
	p.next()
	p.next()
	return p
}

// Parse parses a complete program.
func Parse(src string) (*ast.Program, error) {
	return New(src).ParseProgram()
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

// ParseProgram parses a whole source file or eval string.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for p.cur.Kind != token.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, stmt)
	}
	return prog, nil
}

func (p *Parser) errf(pos token.Position, format string, args ...any) error {
	return fmt.Errorf("SyntaxError: %s (%d:%d)", fmt.Sprintf(format, args...), pos.Line, pos.Column)
}

func (p *Parser) unexpected() error {
	return p.errf(p.cur.Pos, "unexpected token %s", describeToken(p.cur))
}

func describeToken(t token.Token) string {
	if t.Literal != "" && (t.Kind == token.IDENT || t.Kind == token.NUMBER || t.Kind == token.STRING) {
		return fmt.Sprintf("%s %q", t.Kind, t.Literal)
	}
	return t.Kind.String()
}

// expect consumes the current token if it matches kind, otherwise errors.
func (p *Parser) expect(kind token.Kind) (token.Token, error) {
	if p.cur.Kind != kind {
		return token.Token{}, p.errf(p.cur.Pos, "expected %s, got %s", kind, describeToken(p.cur))
	}
	tok := p.cur
	p.next()
	return tok, nil
}

func (p *Parser) at(kind token.Kind) bool { return p.cur.Kind == kind }

// consumeSemicolon implements Automatic Semicolon Insertion: an explicit `;`
// is consumed, otherwise the statement end must be a `}`, EOF, or a token
// preceded by a newline.
func (p *Parser) consumeSemicolon() error {
	if p.cur.Kind == token.SEMI {
		p.next()
		return nil
	}
	if p.cur.Kind == token.RBRACE || p.cur.Kind == token.EOF || p.cur.NewlineBefore {
		return nil
	}
	return p.errf(p.cur.Pos, "expected ; got %s", describeToken(p.cur))
}

// identifierLike reports whether kind may be used as a binding/property name
// even though it is lexed as a contextual keyword.
func identifierLike(kind token.Kind) bool {
	switch kind {
	case token.IDENT, token.ASYNC, token.GET, token.SET, token.STATIC, token.OF, token.AS, token.FROM,
		token.YIELD, token.AWAIT, token.LET:
		return true
	default:
		return false
	}
}

// parseBindingIdentifier consumes an identifier-like token and returns it as
// an *ast.Identifier.
func (p *Parser) parseBindingIdentifier() (*ast.Identifier, error) {
	if !identifierLike(p.cur.Kind) {
		return nil, p.errf(p.cur.Pos, "expected identifier, got %s", describeToken(p.cur))
	}
	id := &ast.Identifier{Name: p.cur.Literal, Position: p.cur.Pos}
	p.next()
	return id, nil
}
