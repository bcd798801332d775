package ast

import "github.com/go-jsvm/jsvm/internal/token"

// Pattern is a binding target: an Identifier, or a destructuring
// ArrayPattern/ObjectPattern, optionally wrapped in an AssignmentPattern for
// a default value.
type Pattern interface {
	Node
	patternNode()
}

// AssignmentPattern pairs a binding target with a default-value expression,
// used for default parameters and destructuring defaults: `{a = 1}`.
type AssignmentPattern struct {
	Target   Pattern
	Default  Expression
	Position token.Position
}

func (a *AssignmentPattern) Pos() token.Position { return a.Position }
func (a *AssignmentPattern) String() string      { return "AssignmentPattern" }
func (a *AssignmentPattern) node()               {}
func (a *AssignmentPattern) patternNode()        {}

// ArrayPatternElement is one slot of an array destructuring pattern; Target
// is nil for an elision (`[, x]`).
type ArrayPatternElement struct {
	Target Pattern
	Rest   bool
}

// ArrayPattern is `[a, {b}, ...rest]` used as a binding target.
type ArrayPattern struct {
	Elements []ArrayPatternElement
	Position token.Position
}

func (a *ArrayPattern) Pos() token.Position { return a.Position }
func (a *ArrayPattern) String() string      { return "ArrayPattern" }
func (a *ArrayPattern) node()               {}
func (a *ArrayPattern) patternNode()        {}

// ObjectPatternProperty is one binding of an object destructuring pattern.
type ObjectPatternProperty struct {
	Key      Expression
	Computed bool
	Value    Pattern // nil when Rest is true; Key is then the rest target name
	Rest     bool
}

// ObjectPattern is `{a, b: {c}, ...rest}` used as a binding target.
type ObjectPattern struct {
	Properties []ObjectPatternProperty
	Position   token.Position
}

func (o *ObjectPattern) Pos() token.Position { return o.Position }
func (o *ObjectPattern) String() string      { return "ObjectPattern" }
func (o *ObjectPattern) node()               {}
func (o *ObjectPattern) patternNode()        {}
