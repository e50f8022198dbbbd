// Pratt-style recursive descent parser with one token of lookahead.
// https://en.wikipedia.org/wiki/Operator-precedence_parser
package parser

import (
	"fmt"

	"belalang/ast"
	"belalang/lexer"
	"belalang/token"
)

// Parser holds curr/peek token state over a Lexer and produces an
// ast.Program. depth tracks brace-block nesting so the parser can
// decide whether a trailing ';' is required (top level, depth == 0)
// or optional (inside a block). Whether the ';' was written is not
// recorded in the AST.
type Parser struct {
	lex   *lexer.Lexer
	curr  token.Token
	peek  token.Token
	depth int
}

// New returns a Parser primed with its first two tokens.
func New(lex *lexer.Lexer) (*Parser, error) {
	p := &Parser{lex: lex}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// Make scans tokens is a convenience wrapper building a Parser
// directly from source text.
func Make(src string) (*Parser, error) {
	return New(lexer.New(src))
}

func (p *Parser) advance() error {
	p.curr = p.peek
	tok, err := p.lex.NextToken()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

func (p *Parser) currIs(tt token.TokenType) bool { return p.curr.Type == tt }
func (p *Parser) peekIs(tt token.TokenType) bool { return p.peek.Type == tt }

func (p *Parser) expectPeek(tt token.TokenType) error {
	if !p.peekIs(tt) {
		return CreateSyntaxError(p.peek.Line, p.peek.Column,
			fmt.Sprintf("expected next token to be %s, got %s instead", tt, p.peek.Type))
	}
	return p.advance()
}

// Parse parses the entire token stream into an ast.Program. Errors are
// collected but parsing resumes at the next statement so multiple
// errors can be reported from one pass.
func (p *Parser) Parse() (*ast.Program, []error) {
	program := &ast.Program{}
	var errs []error

	for !p.currIs(token.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			errs = append(errs, err)
			if advErr := p.advance(); advErr != nil {
				errs = append(errs, advErr)
				break
			}
			continue
		}
		program.Statements = append(program.Statements, stmt)
		if advErr := p.advance(); advErr != nil {
			errs = append(errs, advErr)
			break
		}
	}

	return program, errs
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch p.curr.Type {
	case token.RETURN:
		return p.parseReturnStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseReturnStatement() (ast.Stmt, error) {
	tok := p.curr

	// A bare `return;` returns null.
	if p.peekIs(token.SEMICOLON) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.ReturnStmt{Token: tok, ReturnValue: ast.Null{Token: tok}}, nil
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	value, err := p.parseExpression(Lowest)
	if err != nil {
		return nil, err
	}

	if err := p.expectPeek(token.SEMICOLON); err != nil {
		return nil, err
	}

	return ast.ReturnStmt{Token: tok, ReturnValue: value}, nil
}

func (p *Parser) parseWhileStatement() (ast.Stmt, error) {
	tok := p.curr
	if err := p.advance(); err != nil {
		return nil, err
	}

	cond, err := p.parseExpression(Lowest)
	if err != nil {
		return nil, err
	}

	if err := p.expectPeek(token.LBRACE); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	if p.peekIs(token.SEMICOLON) {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	return ast.WhileStmt{Token: tok, Condition: cond, Body: body}, nil
}

func (p *Parser) parseExpressionStatement() (ast.Stmt, error) {
	tok := p.curr
	expr, err := p.parseExpression(Lowest)
	if err != nil {
		return nil, err
	}

	if p.peekIs(token.SEMICOLON) {
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else if p.depth == 0 && p.curr.Type != token.RBRACE {
		// A brace-terminated expression (if/block) needs no trailing
		// ';' even at the top level; anything else does.
		return nil, CreateSyntaxError(p.peek.Line, p.peek.Column,
			fmt.Sprintf("expected %s, got %s instead", token.SEMICOLON, p.peek.Type))
	}

	return ast.ExpressionStmt{Token: tok, Expression: expr}, nil
}

// parseBlock consumes statements up to and including the closing '}'.
// p.curr must be LBRACE on entry; on return p.curr is RBRACE.
func (p *Parser) parseBlock() (ast.Block, error) {
	tok := p.curr
	p.depth++
	defer func() { p.depth-- }()

	if err := p.advance(); err != nil {
		return ast.Block{}, err
	}

	var statements []ast.Stmt
	for !p.currIs(token.RBRACE) && !p.currIs(token.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return ast.Block{}, err
		}
		statements = append(statements, stmt)
		if err := p.advance(); err != nil {
			return ast.Block{}, err
		}
	}

	if !p.currIs(token.RBRACE) {
		return ast.Block{}, CreateSyntaxError(p.curr.Line, p.curr.Column, "unterminated block, expected '}'")
	}

	return ast.Block{Token: tok, Statements: statements}, nil
}

// parseExpression is the Pratt loop: parse a prefix expression, then
// keep folding in infix operators whose precedence exceeds minPrec.
func (p *Parser) parseExpression(minPrec Precedence) (ast.Expression, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for !p.peekIs(token.SEMICOLON) && minPrec < precedenceOf(p.peek.Type) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

func (p *Parser) parsePrefix() (ast.Expression, error) {
	switch p.curr.Type {
	case token.IDENTIFIER:
		return ast.Identifier{Token: p.curr, Name: p.curr.Lexeme}, nil

	case token.INT:
		return ast.Integer{Token: p.curr, Value: p.curr.Literal.(int64)}, nil

	case token.FLOAT:
		return ast.Float{Token: p.curr, Value: p.curr.Literal.(float64)}, nil

	case token.STRING:
		return ast.String{Token: p.curr, Value: p.curr.Literal.(string)}, nil

	case token.TRUE, token.FALSE:
		return ast.Boolean{Token: p.curr, Value: p.curr.Type == token.TRUE}, nil

	case token.NOT, token.SUB:
		return p.parsePrefixExpression()

	case token.LPAREN:
		return p.parseGroupedExpression()

	case token.LBRACKET:
		return p.parseArrayLiteral()

	case token.LBRACE:
		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return block, nil

	case token.IF:
		return p.parseIfExpression()

	case token.FUNCTION:
		return p.parseFunctionLiteral()

	default:
		return nil, CreateSyntaxError(p.curr.Line, p.curr.Column,
			fmt.Sprintf("no prefix parse rule for %s", p.curr.Type))
	}
}

func (p *Parser) parsePrefixExpression() (ast.Expression, error) {
	tok := p.curr
	op := p.curr.Type
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseExpression(Prefix)
	if err != nil {
		return nil, err
	}
	return ast.Prefix{Token: tok, Operator: op, Right: right}, nil
}

// parseGroupedExpression returns the inner expression directly; there
// is no dedicated Grouping AST node (parentheses only affect parsing,
// not the tree they produce).
func (p *Parser) parseGroupedExpression() (ast.Expression, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression(Lowest)
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.RPAREN); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseArrayLiteral() (ast.Expression, error) {
	tok := p.curr
	elements, err := p.parseExpressionList(token.RBRACKET)
	if err != nil {
		return nil, err
	}
	return ast.Array{Token: tok, Elements: elements}, nil
}

// parseExpressionList parses a comma-separated list of expressions up
// to and including the closing token `end`. p.curr is the opening
// bracket on entry; on return p.curr is `end`.
func (p *Parser) parseExpressionList(end token.TokenType) ([]ast.Expression, error) {
	var list []ast.Expression

	if p.peekIs(end) {
		return list, p.advance()
	}

	if err := p.advance(); err != nil {
		return nil, err
	}
	first, err := p.parseExpression(Lowest)
	if err != nil {
		return nil, err
	}
	list = append(list, first)

	for p.peekIs(token.COMMA) {
		if err := p.advance(); err != nil { // consume ','
			return nil, err
		}
		if err := p.advance(); err != nil { // move to next expr
			return nil, err
		}
		expr, err := p.parseExpression(Lowest)
		if err != nil {
			return nil, err
		}
		list = append(list, expr)
	}

	if err := p.expectPeek(end); err != nil {
		return nil, err
	}

	return list, nil
}

func (p *Parser) parseIfExpression() (ast.Expression, error) {
	tok := p.curr
	if err := p.advance(); err != nil {
		return nil, err
	}

	cond, err := p.parseExpression(Lowest)
	if err != nil {
		return nil, err
	}

	if err := p.expectPeek(token.LBRACE); err != nil {
		return nil, err
	}

	consequence, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	var alternative ast.Expression
	if p.peekIs(token.ELSE) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.peekIs(token.IF) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			alt, err := p.parseIfExpression()
			if err != nil {
				return nil, err
			}
			alternative = alt
		} else {
			if err := p.expectPeek(token.LBRACE); err != nil {
				return nil, err
			}
			block, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			alternative = block
		}
	}

	return ast.If{Token: tok, Condition: cond, Consequence: consequence, Alternative: alternative}, nil
}

func (p *Parser) parseFunctionLiteral() (ast.Expression, error) {
	tok := p.curr
	if err := p.expectPeek(token.LPAREN); err != nil {
		return nil, err
	}

	params, err := p.parseFunctionParams()
	if err != nil {
		return nil, err
	}

	if err := p.expectPeek(token.LBRACE); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return ast.Function{Token: tok, Params: params, Body: body}, nil
}

func (p *Parser) parseFunctionParams() ([]string, error) {
	var params []string

	if p.peekIs(token.RPAREN) {
		return params, p.advance()
	}

	if err := p.advance(); err != nil {
		return nil, err
	}
	if !p.currIs(token.IDENTIFIER) {
		return nil, CreateSyntaxError(p.curr.Line, p.curr.Column, "expected parameter name")
	}
	params = append(params, p.curr.Lexeme)

	for p.peekIs(token.COMMA) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if !p.currIs(token.IDENTIFIER) {
			return nil, CreateSyntaxError(p.curr.Line, p.curr.Column, "expected parameter name")
		}
		params = append(params, p.curr.Lexeme)
	}

	if err := p.expectPeek(token.RPAREN); err != nil {
		return nil, err
	}

	return params, nil
}

func (p *Parser) parseInfix(left ast.Expression) (ast.Expression, error) {
	if p.curr.Type.IsAssignment() {
		return p.parseAssignment(left)
	}

	switch p.curr.Type {
	case token.LPAREN:
		return p.parseCallExpression(left)
	case token.LBRACKET:
		return p.parseIndexExpression(left)
	default:
		return p.parseInfixExpression(left)
	}
}

func (p *Parser) parseInfixExpression(left ast.Expression) (ast.Expression, error) {
	tok := p.curr
	op := p.curr.Type
	prec := precedenceOf(op)
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	return ast.Infix{Token: tok, Left: left, Operator: op, Right: right}, nil
}

// parseAssignment requires left to be a bare Identifier (InvalidLHS
// otherwise), re-captures its name, and parses the right-hand side at
// Lowest so assignment is right-associative.
func (p *Parser) parseAssignment(left ast.Expression) (ast.Expression, error) {
	tok := p.curr
	kind := p.curr.Type

	ident, ok := left.(ast.Identifier)
	if !ok {
		return nil, CreateSyntaxError(tok.Line, tok.Column,
			fmt.Sprintf("invalid assignment target: %s", left))
	}

	if err := p.advance(); err != nil {
		return nil, err
	}
	value, err := p.parseExpression(Lowest)
	if err != nil {
		return nil, err
	}

	return ast.Var{Token: tok, Name: ident.Name, Kind: kind, Value: value}, nil
}

func (p *Parser) parseCallExpression(callee ast.Expression) (ast.Expression, error) {
	tok := p.curr
	args, err := p.parseExpressionList(token.RPAREN)
	if err != nil {
		return nil, err
	}
	return ast.Call{Token: tok, Callee: callee, Args: args}, nil
}

func (p *Parser) parseIndexExpression(receiver ast.Expression) (ast.Expression, error) {
	tok := p.curr
	if err := p.advance(); err != nil {
		return nil, err
	}
	index, err := p.parseExpression(Lowest)
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.RBRACKET); err != nil {
		return nil, err
	}
	return ast.Index{Token: tok, Receiver: receiver, Index: index}, nil
}
