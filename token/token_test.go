package token

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		tokenType TokenType
		want      Token
	}{
		{"assign", ASSIGN, Token{Type: ASSIGN, Lexeme: "="}},
		{"colon assign", COLON_ASSIGN, Token{Type: COLON_ASSIGN, Lexeme: ":="}},
		{"shift left assign", SHIFT_LEFT_ASSIGN, Token{Type: SHIFT_LEFT_ASSIGN, Lexeme: "<<="}},
		{"lbrace", LBRACE, Token{Type: LBRACE, Lexeme: "{"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.tokenType, 0, 0)
			if got.Type != tt.want.Type || got.Lexeme != tt.want.Lexeme {
				t.Errorf("New() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewLiteral(t *testing.T) {
	got := NewLiteral(INT, int64(42), "42", 1, 3)
	if got.Type != INT || got.Lexeme != "42" || got.Literal != int64(42) {
		t.Errorf("NewLiteral() = %+v", got)
	}
}

func TestIsAssignment(t *testing.T) {
	for _, tt := range []TokenType{ASSIGN, COLON_ASSIGN, ADD_ASSIGN, MOD_ASSIGN, SHIFT_RIGHT_ASSIGN} {
		if !tt.IsAssignment() {
			t.Errorf("%s.IsAssignment() = false, want true", tt)
		}
	}
	for _, tt := range []TokenType{ADD, EQ, IDENTIFIER, LPAREN} {
		if tt.IsAssignment() {
			t.Errorf("%s.IsAssignment() = true, want false", tt)
		}
	}
}

func TestBinaryOp(t *testing.T) {
	op, ok := ADD_ASSIGN.BinaryOp()
	if !ok || op != ADD {
		t.Errorf("ADD_ASSIGN.BinaryOp() = (%s, %v), want (+, true)", op, ok)
	}

	if _, ok := ASSIGN.BinaryOp(); ok {
		t.Errorf("ASSIGN.BinaryOp() ok = true, want false")
	}
}

func TestKeyWords(t *testing.T) {
	for word, want := range map[string]TokenType{
		"fn": FUNCTION, "while": WHILE, "if": IF, "else": ELSE,
		"return": RETURN, "true": TRUE, "false": FALSE,
	} {
		if got := KeyWords[word]; got != want {
			t.Errorf("KeyWords[%q] = %s, want %s", word, got, want)
		}
	}
	if _, ok := KeyWords["myVar"]; ok {
		t.Errorf("KeyWords contains non-keyword identifier")
	}
}
