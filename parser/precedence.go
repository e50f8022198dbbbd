package parser

import "belalang/token"

// Precedence is the Pratt-parser binding-power ladder, low to high.
type Precedence int

const (
	Lowest Precedence = iota
	AssignmentOps
	LogicalOr
	LogicalAnd
	BitOr
	BitXor
	BitAnd
	Equality
	Relational
	Shift
	Additive
	Multiplicative
	Prefix
	Call
	Index
)

var precedences = map[token.TokenType]Precedence{
	token.ASSIGN: AssignmentOps, token.COLON_ASSIGN: AssignmentOps,
	token.ADD_ASSIGN: AssignmentOps, token.SUB_ASSIGN: AssignmentOps,
	token.MUL_ASSIGN: AssignmentOps, token.DIV_ASSIGN: AssignmentOps,
	token.MOD_ASSIGN: AssignmentOps, token.BIT_AND_ASSIGN: AssignmentOps,
	token.BIT_OR_ASSIGN: AssignmentOps, token.BIT_XOR_ASSIGN: AssignmentOps,
	token.SHIFT_LEFT_ASSIGN: AssignmentOps, token.SHIFT_RIGHT_ASSIGN: AssignmentOps,

	token.OR:  LogicalOr,
	token.AND: LogicalAnd,

	token.BIT_OR:  BitOr,
	token.BIT_XOR: BitXor,
	token.BIT_AND: BitAnd,

	token.EQ: Equality, token.NE: Equality,

	token.LT: Relational, token.LE: Relational,
	token.GT: Relational, token.GE: Relational,

	token.SHIFT_LEFT: Shift, token.SHIFT_RIGHT: Shift,

	token.ADD: Additive, token.SUB: Additive,

	token.MUL: Multiplicative, token.DIV: Multiplicative, token.MOD: Multiplicative,

	token.LPAREN:   Call,
	token.LBRACKET: Index,
}

func precedenceOf(tt token.TokenType) Precedence {
	if p, ok := precedences[tt]; ok {
		return p
	}
	return Lowest
}
