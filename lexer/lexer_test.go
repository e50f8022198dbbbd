package lexer

import (
	"testing"

	"belalang/token"
)

func scanTypes(t *testing.T, input string) []token.TokenType {
	t.Helper()
	l := New(input)
	tokens, err := l.Scan()
	if err != nil {
		t.Fatalf("Scan() raised an error: %v", err)
	}
	var types []token.TokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	return types
}

func assertTypes(t *testing.T, got, want []token.TokenType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d tokens %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestOperatorsSuccess(t *testing.T) {
	got := scanTypes(t, "== /= = * + > - < != <= >= ! && || &= |= ^= << <<= >> >>= := %=")
	want := []token.TokenType{
		token.EQ, token.DIV_ASSIGN, token.ASSIGN, token.MUL, token.ADD, token.GT,
		token.SUB, token.LT, token.NE, token.LE, token.GE, token.NOT,
		token.AND, token.OR, token.BIT_AND_ASSIGN, token.BIT_OR_ASSIGN, token.BIT_XOR_ASSIGN,
		token.SHIFT_LEFT, token.SHIFT_LEFT_ASSIGN, token.SHIFT_RIGHT, token.SHIFT_RIGHT_ASSIGN,
		token.COLON_ASSIGN, token.MOD_ASSIGN, token.EOF,
	}
	assertTypes(t, got, want)
}

func TestScanPunctuation(t *testing.T) {
	got := scanTypes(t, "(){}[];,")
	want := []token.TokenType{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.SEMICOLON, token.COMMA, token.EOF,
	}
	assertTypes(t, got, want)
}

func TestCommentsAndWhitespaceIgnored(t *testing.T) {
	got := scanTypes(t, "1 # a comment\n  + 2 # trailing\n")
	want := []token.TokenType{token.INT, token.ADD, token.INT, token.EOF}
	assertTypes(t, got, want)
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	got := scanTypes(t, "fn while if else return true false myVar")
	want := []token.TokenType{
		token.FUNCTION, token.WHILE, token.IF, token.ELSE, token.RETURN,
		token.TRUE, token.FALSE, token.IDENTIFIER, token.EOF,
	}
	assertTypes(t, got, want)
}

func TestNumericLiterals(t *testing.T) {
	l := New("42 3.14")
	tokens, err := l.Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if tokens[0].Type != token.INT || tokens[0].Literal != int64(42) {
		t.Errorf("tokens[0] = %+v, want INT 42", tokens[0])
	}
	if tokens[1].Type != token.FLOAT || tokens[1].Literal != 3.14 {
		t.Errorf("tokens[1] = %+v, want FLOAT 3.14", tokens[1])
	}
}

func TestStringEscapes(t *testing.T) {
	l := New(`"\n\r\t\"\x41"`)
	tokens, err := l.Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	want := "\n\r\t\"A"
	if tokens[0].Literal != want {
		t.Errorf("string literal = %q, want %q", tokens[0].Literal, want)
	}
}

func TestUnclosedString(t *testing.T) {
	l := New(`"unterminated`)
	_, err := l.Scan()
	if err == nil {
		t.Fatalf("Scan() error = nil, want UnclosedString")
	}
	if _, ok := err.(LexError); !ok {
		t.Errorf("error type = %T, want LexError", err)
	}
}

func TestUnknownEscape(t *testing.T) {
	l := New(`"\q"`)
	_, err := l.Scan()
	if err == nil {
		t.Fatalf("Scan() error = nil, want UnknownEscapeString")
	}
}

func TestUnicodeIdentifier(t *testing.T) {
	got := scanTypes(t, "変数 := 1;")
	want := []token.TokenType{token.IDENTIFIER, token.COLON_ASSIGN, token.INT, token.SEMICOLON, token.EOF}
	assertTypes(t, got, want)
}
