package compiler

import (
	"encoding/binary"
	"fmt"
)

// Opcode identifies a single bytecode instruction.
type Opcode byte

// Instructions is a flat, already-assembled byte buffer.
type Instructions []byte

// Bytecode is what the compiler produces and the VM consumes: an
// instruction stream plus the pool of constant values it references.
type Bytecode struct {
	Instructions Instructions
	Constants    []any
}

// The full opcode table. Values and operand widths are a fixed wire
// contract shared with the VM and the disassembler.
const (
	NOOP Opcode = 0x00
	POP  Opcode = 0x01

	ADD Opcode = 0x10
	SUB Opcode = 0x11
	MUL Opcode = 0x12
	DIV Opcode = 0x13
	MOD Opcode = 0x14

	CONSTANT Opcode = 0x20
	TRUE     Opcode = 0x21
	FALSE    Opcode = 0x22
	NULL     Opcode = 0x23

	EQUAL           Opcode = 0x30
	NOT_EQUAL       Opcode = 0x31
	LESS_THAN       Opcode = 0x32
	LESS_THAN_EQUAL Opcode = 0x33

	AND Opcode = 0x40
	OR  Opcode = 0x41

	BIT_AND     Opcode = 0x50
	BIT_OR      Opcode = 0x51
	BIT_XOR     Opcode = 0x52
	BIT_SL      Opcode = 0x53
	BIT_SR      Opcode = 0x54

	BANG  Opcode = 0x60
	MINUS Opcode = 0x61

	JUMP          Opcode = 0x70
	JUMP_IF_FALSE Opcode = 0x71

	SET_GLOBAL Opcode = 0x80
	GET_GLOBAL Opcode = 0x81

	SET_LOCAL Opcode = 0x90
	GET_LOCAL Opcode = 0x91

	GET_BUILTIN Opcode = 0xA0

	CALL          Opcode = 0xB0
	RETURN        Opcode = 0xB1
	RETURN_VALUE  Opcode = 0xB2

	MAKE_ARRAY Opcode = 0xC0
	INDEX      Opcode = 0xC1
)

// OpCodeDefinition names an opcode and the byte width of each of its
// operands, in order.
type OpCodeDefinition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*OpCodeDefinition{
	NOOP: {"NOOP", nil},
	POP:  {"POP", nil},

	ADD: {"ADD", nil},
	SUB: {"SUB", nil},
	MUL: {"MUL", nil},
	DIV: {"DIV", nil},
	MOD: {"MOD", nil},

	CONSTANT: {"CONSTANT", []int{2}},
	TRUE:     {"TRUE", nil},
	FALSE:    {"FALSE", nil},
	NULL:     {"NULL", nil},

	EQUAL:           {"EQUAL", nil},
	NOT_EQUAL:       {"NOT_EQUAL", nil},
	LESS_THAN:       {"LESS_THAN", nil},
	LESS_THAN_EQUAL: {"LESS_THAN_EQUAL", nil},

	AND: {"AND", nil},
	OR:  {"OR", nil},

	BIT_AND: {"BIT_AND", nil},
	BIT_OR:  {"BIT_OR", nil},
	BIT_XOR: {"BIT_XOR", nil},
	BIT_SL:  {"BIT_SL", nil},
	BIT_SR:  {"BIT_SR", nil},

	BANG:  {"BANG", nil},
	MINUS: {"MINUS", nil},

	JUMP:          {"JUMP", []int{2}},
	JUMP_IF_FALSE: {"JUMP_IF_FALSE", []int{2}},

	SET_GLOBAL: {"SET_GLOBAL", []int{2}},
	GET_GLOBAL: {"GET_GLOBAL", []int{2}},

	SET_LOCAL: {"SET_LOCAL", []int{1}},
	GET_LOCAL: {"GET_LOCAL", []int{1}},

	GET_BUILTIN: {"GET_BUILTIN", []int{1}},

	CALL:         {"CALL", []int{1}},
	RETURN:       {"RETURN", nil},
	RETURN_VALUE: {"RETURN_VALUE", nil},

	MAKE_ARRAY: {"MAKE_ARRAY", []int{1}},
	INDEX:      {"INDEX", nil},
}

// Get looks up an opcode's definition, failing for any byte value
// outside the fixed table above.
func Get(op Opcode) (*OpCodeDefinition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, DeveloperError{Message: fmt.Sprintf("opcode 0x%02X undefined", byte(op))}
	}
	return def, nil
}

// MakeInstruction assembles one instruction: the opcode byte followed
// by each operand encoded big-endian at its defined width (1 or 2
// bytes). A negative operand (used for signed jump deltas) is encoded
// via its two's-complement bit pattern.
func MakeInstruction(op Opcode, operands ...int) []byte {
	def, err := Get(op)
	if err != nil {
		return []byte{}
	}

	length := 1
	for _, w := range def.OperandWidths {
		length += w
	}

	instruction := make([]byte, length)
	instruction[0] = byte(op)

	offset := 1
	for i, operand := range operands {
		width := def.OperandWidths[i]
		switch width {
		case 2:
			binary.BigEndian.PutUint16(instruction[offset:], uint16(int16(operand)))
		case 1:
			instruction[offset] = byte(operand)
		}
		offset += width
	}
	return instruction
}

func readUint16(ins Instructions, offset int) uint16 {
	return binary.BigEndian.Uint16(ins[offset:])
}

func readInt16(ins Instructions, offset int) int16 {
	return int16(binary.BigEndian.Uint16(ins[offset:]))
}

func readUint8(ins Instructions, offset int) uint8 {
	return ins[offset]
}
