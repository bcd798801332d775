package ast

// Visitor inspects AST nodes during a Walk. Visit is called with each node
// in pre-order; returning false prunes that node's children.
type Visitor interface {
	Visit(n Node) (descend bool)
}

// VisitorFunc adapts a plain function to the Visitor interface.
type VisitorFunc func(n Node) bool

// Visit implements Visitor.
func (f VisitorFunc) Visit(n Node) bool { return f(n) }

// Walk traverses node and its descendants in pre-order, calling v.Visit on
// each. It does not descend into nested FunctionExpression/FunctionDeclaration
// /ArrowFunctionExpression/ClassDeclaration bodies unless the visitor
// explicitly wants that (var/function hoisting must stop at a function
// boundary; the caller re-invokes Walk on nested bodies only when crossing
// function boundaries is intended, e.g. a parser-wide name audit).
func Walk(node Node, v Visitor) {
	if node == nil || isNilNode(node) {
		return
	}
	if !v.Visit(node) {
		return
	}
	switch n := node.(type) {
	case *Program:
		walkStatements(n.Body, v)
	case *BlockStatement:
		walkStatements(n.Body, v)
	case *ExpressionStatement:
		Walk(n.Expr, v)
	case *VariableDeclaration:
		for _, d := range n.Declarations {
			walkPattern(d.Target, v)
			if d.Init != nil {
				Walk(d.Init, v)
			}
		}
	case *FunctionDeclaration:
		if n.Name != nil {
			Walk(n.Name, v)
		}
	case *ReturnStatement:
		if n.Argument != nil {
			Walk(n.Argument, v)
		}
	case *IfStatement:
		Walk(n.Test, v)
		Walk(n.Consequent, v)
		if n.Alternate != nil {
			Walk(n.Alternate, v)
		}
	case *WhileStatement:
		Walk(n.Test, v)
		Walk(n.Body, v)
	case *DoWhileStatement:
		Walk(n.Body, v)
		Walk(n.Test, v)
	case *ForStatement:
		if n.Init != nil {
			Walk(n.Init, v)
		}
		if n.Test != nil {
			Walk(n.Test, v)
		}
		if n.Update != nil {
			Walk(n.Update, v)
		}
		Walk(n.Body, v)
	case *ForInStatement:
		Walk(n.Left, v)
		Walk(n.Right, v)
		Walk(n.Body, v)
	case *ForOfStatement:
		Walk(n.Left, v)
		Walk(n.Right, v)
		Walk(n.Body, v)
	case *BreakStatement, *ContinueStatement, *EmptyStatement:
		// leaves
	case *LabeledStatement:
		Walk(n.Body, v)
	case *SwitchStatement:
		Walk(n.Discriminant, v)
		for _, c := range n.Cases {
			if c.Test != nil {
				Walk(c.Test, v)
			}
			walkStatements(c.Body, v)
		}
	case *ThrowStatement:
		Walk(n.Argument, v)
	case *TryStatement:
		Walk(n.Block, v)
		if n.Catch != nil {
			if n.Catch.Param != nil {
				walkPattern(n.Catch.Param, v)
			}
			Walk(n.Catch.Body, v)
		}
		if n.Finally != nil {
			Walk(n.Finally, v)
		}
	case *ClassDeclaration:
		if n.Name != nil {
			Walk(n.Name, v)
		}
		if n.SuperClass != nil {
			Walk(n.SuperClass, v)
		}
	case *BinaryExpression:
		Walk(n.Left, v)
		Walk(n.Right, v)
	case *LogicalExpression:
		Walk(n.Left, v)
		Walk(n.Right, v)
	case *UnaryExpression:
		Walk(n.Operand, v)
	case *UpdateExpression:
		Walk(n.Operand, v)
	case *AssignmentExpression:
		Walk(n.Target, v)
		Walk(n.Value, v)
	case *ConditionalExpression:
		Walk(n.Test, v)
		Walk(n.Consequent, v)
		Walk(n.Alternate, v)
	case *SequenceExpression:
		for _, e := range n.Expressions {
			Walk(e, v)
		}
	case *MemberExpression:
		Walk(n.Object, v)
		if n.Computed {
			Walk(n.Property, v)
		}
	case *CallExpression:
		Walk(n.Callee, v)
		for _, a := range n.Args {
			Walk(a.Value, v)
		}
	case *NewExpression:
		Walk(n.Callee, v)
		for _, a := range n.Args {
			Walk(a.Value, v)
		}
	case *ArrayLiteral:
		for _, e := range n.Elements {
			if e != nil {
				Walk(e, v)
			}
		}
	case *ObjectLiteral:
		for _, p := range n.Properties {
			if p.Computed {
				Walk(p.Key, v)
			}
			if p.Value != nil {
				Walk(p.Value, v)
			}
		}
	case *TemplateLiteral:
		for _, e := range n.Expressions {
			Walk(e, v)
		}
	case *YieldExpression:
		if n.Argument != nil {
			Walk(n.Argument, v)
		}
	case *AwaitExpression:
		Walk(n.Argument, v)
	case *SpreadElement:
		Walk(n.Argument, v)
	}
}

func walkStatements(stmts []Statement, v Visitor) {
	for _, s := range stmts {
		Walk(s, v)
	}
}

func walkPattern(p Pattern, v Visitor) {
	switch t := p.(type) {
	case *Identifier:
		Walk(t, v)
	case *AssignmentPattern:
		walkPattern(t.Target, v)
		if t.Default != nil {
			Walk(t.Default, v)
		}
	case *ArrayPattern:
		for _, el := range t.Elements {
			if el.Target != nil {
				walkPattern(el.Target, v)
			}
		}
	case *ObjectPattern:
		for _, pr := range t.Properties {
			if pr.Computed {
				Walk(pr.Key, v)
			}
			if pr.Value != nil {
				walkPattern(pr.Value, v)
			}
		}
	case *RestElement:
		walkPattern(t.Target, v)
	}
}

// isNilNode guards against typed-nil interface values (a common Go trap
// when an *ast.X field is nil but stored in a Node-typed variable).
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Program:
		return v == nil
	case *BlockStatement:
		return v == nil
	case *Identifier:
		return v == nil
	}
	return false
}
