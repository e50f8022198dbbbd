package compiler

import "testing"

func TestMakeInstructionEncodesOperandsBigEndian(t *testing.T) {
	tests := []struct {
		op       Opcode
		operands []int
		want     []byte
	}{
		{CONSTANT, []int{65534}, []byte{byte(CONSTANT), 0xFF, 0xFE}},
		{ADD, nil, []byte{byte(ADD)}},
		{GET_LOCAL, []int{3}, []byte{byte(GET_LOCAL), 3}},
		{JUMP, []int{-1}, []byte{byte(JUMP), 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		got := MakeInstruction(tt.op, tt.operands...)
		if len(got) != len(tt.want) {
			t.Fatalf("MakeInstruction(%v, %v) = %v, want %v", tt.op, tt.operands, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("MakeInstruction(%v, %v)[%d] = %#x, want %#x", tt.op, tt.operands, i, got[i], tt.want[i])
			}
		}
	}
}

func TestGetUnknownOpcodeFails(t *testing.T) {
	if _, err := Get(Opcode(0xFF)); err == nil {
		t.Fatalf("expected an error for an undefined opcode")
	}
}

func TestReadOperandsRoundTrip(t *testing.T) {
	ins := Instructions(MakeInstruction(CONSTANT, 300))
	if got := readUint16(ins, 1); got != 300 {
		t.Errorf("readUint16 = %d, want 300", got)
	}

	jins := Instructions(MakeInstruction(JUMP, -5))
	if got := readInt16(jins, 1); got != -5 {
		t.Errorf("readInt16 = %d, want -5", got)
	}

	lins := Instructions(MakeInstruction(GET_LOCAL, 7))
	if got := readUint8(lins, 1); got != 7 {
		t.Errorf("readUint8 = %d, want 7", got)
	}
}
