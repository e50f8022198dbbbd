package vm

import (
	"testing"

	"belalang/ast"
	"belalang/compiler"
	"belalang/parser"
)

func compileSrc(t *testing.T, src string) compiler.Bytecode {
	t.Helper()
	p, err := parser.Make(src)
	if err != nil {
		t.Fatalf("Make(%q): %v", src, err)
	}
	program, errs := p.Parse()
	if len(errs) != 0 {
		t.Fatalf("Parse(%q): %v", src, errs)
	}
	bc, err := compiler.NewCompiler(nil).Compile(program)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	return bc
}

func runSrc(t *testing.T, src string) *VM {
	t.Helper()
	bc := compileSrc(t, src)
	machine := New(nil)
	if err := machine.Run(bc); err != nil {
		t.Fatalf("Run(%q): %v", src, err)
	}
	return machine
}

func lastPopped(t *testing.T, machine *VM) Object {
	t.Helper()
	obj, ok := machine.LastPopped()
	if !ok {
		t.Fatalf("no last-popped value on the stack")
	}
	return obj
}

func TestVMIntegerArithmetic(t *testing.T) {
	machine := runSrc(t, "12 * 5;")
	result := lastPopped(t, machine)
	i, ok := result.(*Integer)
	if !ok {
		t.Fatalf("expected *Integer, got %T", result)
	}
	if i.Value != 60 {
		t.Errorf("got %d, want 60", i.Value)
	}
}

func TestVMStringConcat(t *testing.T) {
	machine := runSrc(t, `"Hello" + ", World!";`)
	result := lastPopped(t, machine)
	s, ok := result.(*String)
	if !ok {
		t.Fatalf("expected *String, got %T", result)
	}
	if s.Value != "Hello, World!" {
		t.Errorf("got %q, want %q", s.Value, "Hello, World!")
	}
}

func TestVMJumpIfFalseFallthrough(t *testing.T) {
	bc := compiler.Bytecode{
		Instructions: compiler.Instructions(concatBytes(
			compiler.MakeInstruction(compiler.TRUE),
			compiler.MakeInstruction(compiler.JUMP_IF_FALSE, 1),
			compiler.MakeInstruction(compiler.TRUE),
			compiler.MakeInstruction(compiler.FALSE),
		)),
	}
	machine := New(nil)
	if err := machine.Run(bc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if machine.StackDepth() != 2 {
		t.Fatalf("stack depth = %d, want 2", machine.StackDepth())
	}
}

func concatBytes(chunks ...[]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func TestVMGlobalAssignmentAndLookup(t *testing.T) {
	machine := runSrc(t, "x := 7; x = x + 1; x;")
	result := lastPopped(t, machine)
	i, ok := result.(*Integer)
	if !ok {
		t.Fatalf("expected *Integer, got %T", result)
	}
	if i.Value != 8 {
		t.Errorf("got %d, want 8", i.Value)
	}
}

func TestVMIfElseExpression(t *testing.T) {
	machine := runSrc(t, "x := if (1 < 2) { 10; } else { 20; }; x;")
	result := lastPopped(t, machine)
	i, ok := result.(*Integer)
	if !ok {
		t.Fatalf("expected *Integer, got %T", result)
	}
	if i.Value != 10 {
		t.Errorf("got %d, want 10", i.Value)
	}
}

func TestVMWhileStatement(t *testing.T) {
	machine := runSrc(t, `
		i := 0;
		sum := 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		}
		sum;
	`)
	result := lastPopped(t, machine)
	i, ok := result.(*Integer)
	if !ok {
		t.Fatalf("expected *Integer, got %T", result)
	}
	if i.Value != 10 {
		t.Errorf("got %d, want 10", i.Value)
	}
}

func TestVMFunctionCallAndReturnValue(t *testing.T) {
	machine := runSrc(t, `
		add := fn(a, b) { return a + b; };
		add(3, 4);
	`)
	result := lastPopped(t, machine)
	i, ok := result.(*Integer)
	if !ok {
		t.Fatalf("expected *Integer, got %T", result)
	}
	if i.Value != 7 {
		t.Errorf("got %d, want 7", i.Value)
	}
}

func TestVMFunctionCallBareReturnYieldsNull(t *testing.T) {
	machine := runSrc(t, `
		f := fn() { return; };
		f();
	`)
	result := lastPopped(t, machine)
	if _, ok := result.(*Null); !ok {
		t.Fatalf("expected *Null, got %T", result)
	}
}

func TestVMArrayLiteralAndIndex(t *testing.T) {
	machine := runSrc(t, "[1, 2, 3][1];")
	result := lastPopped(t, machine)
	i, ok := result.(*Integer)
	if !ok {
		t.Fatalf("expected *Integer, got %T", result)
	}
	if i.Value != 2 {
		t.Errorf("got %d, want 2", i.Value)
	}
}

func TestVMIndexOutOfRange(t *testing.T) {
	bc := compileSrc(t, "[1, 2, 3][5];")
	machine := New(nil)
	err := machine.Run(bc)
	if err == nil {
		t.Fatalf("expected an out-of-range error, got none")
	}
}

func TestVMDivisionByZero(t *testing.T) {
	bc := compileSrc(t, "1 / 0;")
	machine := New(nil)
	err := machine.Run(bc)
	if err == nil {
		t.Fatalf("expected a division-by-zero error, got none")
	}
}

func TestVMBuiltinCall(t *testing.T) {
	var captured string
	echo := NewBuiltin("print", 1, func(args []Object) (Object, error) {
		captured = args[0].String()
		return NewNull(), nil
	})

	p, err := parser.Make(`print("hi");`)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	program, errs := p.Parse()
	if len(errs) != 0 {
		t.Fatalf("Parse: %v", errs)
	}
	bc, err := compiler.NewCompiler([]string{"print"}).Compile(program)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	machine := New([]Object{echo})
	if err := machine.Run(bc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if captured != "hi" {
		t.Errorf("builtin saw %q, want %q", captured, "hi")
	}
}

func TestVMIncrementalRunSharesGlobals(t *testing.T) {
	machine := New(nil)
	c := compiler.NewCompiler(nil)

	parse := func(src string) *ast.Program {
		p, err := parser.Make(src)
		if err != nil {
			t.Fatalf("Make(%q): %v", src, err)
		}
		program, errs := p.Parse()
		if len(errs) != 0 {
			t.Fatalf("Parse(%q): %v", src, errs)
		}
		return program
	}

	bc1, err := c.Compile(parse("x := 1;"))
	if err != nil {
		t.Fatalf("Compile #1: %v", err)
	}
	if err := machine.Run(bc1); err != nil {
		t.Fatalf("Run #1: %v", err)
	}

	bc2, err := c.Compile(parse("x = x + 41; x;"))
	if err != nil {
		t.Fatalf("Compile #2: %v", err)
	}
	if err := machine.Run(bc2); err != nil {
		t.Fatalf("Run #2: %v", err)
	}
	result := lastPopped(t, machine)
	i, ok := result.(*Integer)
	if !ok {
		t.Fatalf("expected *Integer, got %T", result)
	}
	if i.Value != 42 {
		t.Errorf("got %d, want 42", i.Value)
	}
}
