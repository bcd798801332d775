package ast

import "github.com/go-jsvm/jsvm/internal/token"

// ThrowStatement is `throw expr;`.
type ThrowStatement struct {
	Argument Expression
	Position token.Position
}

func (t *ThrowStatement) Pos() token.Position { return t.Position }
func (t *ThrowStatement) String() string      { return "ThrowStatement" }
func (t *ThrowStatement) node()               {}
func (t *ThrowStatement) statementNode()      {}

// CatchClause is the `catch (param) { body }` part of a TryStatement;
// Param is nil for `catch { }` (optional catch binding).
type CatchClause struct {
	Param Pattern
	Body  *BlockStatement
}

// TryStatement is `try { } catch (e) { } finally { }`; Catch and Finally
// are independently optional but at least one must be present.
type TryStatement struct {
	Block    *BlockStatement
	Catch    *CatchClause
	Finally  *BlockStatement
	Position token.Position
}

func (t *TryStatement) Pos() token.Position { return t.Position }
func (t *TryStatement) String() string      { return "TryStatement" }
func (t *TryStatement) node()               {}
func (t *TryStatement) statementNode()      {}
