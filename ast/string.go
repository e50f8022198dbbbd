// string.go implements fmt.Stringer for every AST node, rendering the
// canonical fully-parenthesized form used to assert operator-precedence
// behavior in tests (e.g. "((a * b) + c)").

package ast

import (
	"strconv"
	"strings"
)

func (n Boolean) String() string { return strconv.FormatBool(n.Value) }
func (n Integer) String() string { return strconv.FormatInt(n.Value, 10) }
func (n Float) String() string   { return strconv.FormatFloat(n.Value, 'g', -1, 64) }
func (n String) String() string  { return strconv.Quote(n.Value) }
func (n Null) String() string    { return "null" }

func (n Array) String() string {
	parts := make([]string, len(n.Elements))
	for i, e := range n.Elements {
		parts[i] = exprString(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (n Var) String() string {
	return "(" + n.Name + " " + string(n.Kind) + " " + exprString(n.Value) + ")"
}

func (n Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = exprString(a)
	}
	return exprString(n.Callee) + "(" + strings.Join(args, ", ") + ")"
}

func (n Index) String() string {
	return exprString(n.Receiver) + "[" + exprString(n.Index) + "]"
}

func (n Function) String() string {
	return "fn(" + strings.Join(n.Params, ", ") + ") " + n.Body.String()
}

func (n Identifier) String() string { return n.Name }

func (n If) String() string {
	var b strings.Builder
	b.WriteString("if ")
	b.WriteString(exprString(n.Condition))
	b.WriteString(" ")
	b.WriteString(n.Consequence.String())
	if n.Alternative != nil {
		b.WriteString(" else ")
		b.WriteString(exprString(n.Alternative))
	}
	return b.String()
}

func (n Infix) String() string {
	return "(" + exprString(n.Left) + " " + string(n.Operator) + " " + exprString(n.Right) + ")"
}

func (n Prefix) String() string {
	return "(" + string(n.Operator) + exprString(n.Right) + ")"
}

func (n Block) String() string {
	parts := make([]string, len(n.Statements))
	for i, s := range n.Statements {
		parts[i] = stmtString(s)
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

func (n ExpressionStmt) String() string { return exprString(n.Expression) + ";" }
func (n ReturnStmt) String() string     { return "return " + exprString(n.ReturnValue) + ";" }
func (n WhileStmt) String() string {
	return "while " + exprString(n.Condition) + " " + n.Body.String()
}

func (p Program) String() string {
	parts := make([]string, len(p.Statements))
	for i, s := range p.Statements {
		parts[i] = stmtString(s)
	}
	return strings.Join(parts, " ")
}

func exprString(e Expression) string {
	if e == nil {
		return "null"
	}
	if s, ok := e.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

func stmtString(s Stmt) string {
	if s == nil {
		return ""
	}
	if str, ok := s.(interface{ String() string }); ok {
		return str.String()
	}
	return ""
}
