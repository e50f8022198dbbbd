// statements.go contains all statement AST nodes. A statement node
// does not itself produce a value consumed by a containing expression.

package ast

import "belalang/token"

// ExpressionStmt evaluates an expression and discards its value.
// Example: `foo + bar;`
type ExpressionStmt struct {
	Token      token.Token
	Expression Expression
}

func (n ExpressionStmt) Accept(v StmtVisitor) any { return v.VisitExpressionStmt(n) }

// ReturnStmt returns a value from the enclosing function body.
// Example: `return foo + bar;`
type ReturnStmt struct {
	Token       token.Token
	ReturnValue Expression
}

func (n ReturnStmt) Accept(v StmtVisitor) any { return v.VisitReturnStmt(n) }

// WhileStmt repeats Body for as long as Condition is truthy.
type WhileStmt struct {
	Token     token.Token
	Condition Expression
	Body      Block
}

func (n WhileStmt) Accept(v StmtVisitor) any { return v.VisitWhileStmt(n) }
