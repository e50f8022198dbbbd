package disasm

import (
	"strings"
	"testing"

	"belalang/compiler"
)

func TestDisassembleAnnotatesConstantsAndBuiltins(t *testing.T) {
	ins := compiler.Instructions{}
	ins = append(ins, compiler.MakeInstruction(compiler.CONSTANT, 0)...)
	ins = append(ins, compiler.MakeInstruction(compiler.GET_BUILTIN, 0)...)
	ins = append(ins, compiler.MakeInstruction(compiler.CALL, 1)...)
	ins = append(ins, compiler.MakeInstruction(compiler.POP)...)

	out, err := Disassemble(ins, []any{int64(42)}, []string{"print"})
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "CONSTANT") || !strings.Contains(lines[0], "42") {
		t.Errorf("line 0 = %q, want CONSTANT annotated with 42", lines[0])
	}
	if !strings.Contains(lines[1], "GET_BUILTIN") || !strings.Contains(lines[1], "print") {
		t.Errorf("line 1 = %q, want GET_BUILTIN annotated with print", lines[1])
	}
	if !strings.Contains(lines[2], "CALL") || !strings.Contains(lines[2], "1") {
		t.Errorf("line 2 = %q, want CALL 1", lines[2])
	}
	if !strings.HasPrefix(lines[3], "0007 POP") {
		t.Errorf("line 3 = %q, want offset 0007 POP", lines[3])
	}
}

func TestDisassembleRendersNegativeJumpOffsets(t *testing.T) {
	ins := compiler.Instructions(compiler.MakeInstruction(compiler.JUMP, -5))

	out, err := Disassemble(ins, nil, nil)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if !strings.Contains(out, "-5") {
		t.Errorf("output = %q, want a -5 operand", out)
	}
}

func TestDisassembleRejectsUnknownOpcode(t *testing.T) {
	ins := compiler.Instructions{0xFF}
	if _, err := Disassemble(ins, nil, nil); err == nil {
		t.Fatalf("expected an error for an unknown opcode")
	}
}

func TestDisassembleRejectsTruncatedOperand(t *testing.T) {
	ins := compiler.Instructions{byte(compiler.CONSTANT), 0x00}
	if _, err := Disassemble(ins, nil, nil); err == nil {
		t.Fatalf("expected an error for a truncated instruction")
	}
}
