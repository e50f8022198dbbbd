// Package disasm renders a compiled Instructions buffer as human
// readable text: one line per instruction, its byte offset, mnemonic,
// decoded operand, and — for CONSTANT and GET_BUILTIN — a trailing
// comment naming the value or builtin the operand refers to.
//
// Extracted from the teacher's ASTCompiler.DiassembleBytecode method
// and generalized to the full opcode table so both the CLI's disasm
// subcommand and the REPL's -disasm flag share one implementation.
package disasm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"belalang/compiler"
)

// Disassemble renders every instruction in ins. constants and
// builtinNames are used only to annotate CONSTANT/GET_BUILTIN
// operands with a human-readable comment; either may be nil.
func Disassemble(ins compiler.Instructions, constants []any, builtinNames []string) (string, error) {
	var b strings.Builder
	ip := 0

	for ip < len(ins) {
		def, err := compiler.Get(compiler.Opcode(ins[ip]))
		if err != nil {
			return "", err
		}
		op := compiler.Opcode(ins[ip])

		width := 0
		if len(def.OperandWidths) > 0 {
			width = def.OperandWidths[0]
		}
		if ip+1+width > len(ins) {
			return "", fmt.Errorf("disasm: truncated instruction at offset %d", ip)
		}

		fmt.Fprintf(&b, "%04d %-16s", ip, def.Name)

		var operand int
		switch width {
		case 2:
			if op == compiler.JUMP || op == compiler.JUMP_IF_FALSE {
				operand = int(int16(binary.BigEndian.Uint16(ins[ip+1:])))
			} else {
				operand = int(binary.BigEndian.Uint16(ins[ip+1:]))
			}
			fmt.Fprintf(&b, "%d", operand)
		case 1:
			operand = int(ins[ip+1])
			fmt.Fprintf(&b, "%d", operand)
		}

		if comment := annotate(op, operand, constants, builtinNames); comment != "" {
			fmt.Fprintf(&b, "  ; %s", comment)
		}
		b.WriteByte('\n')

		ip += 1 + width
	}

	return b.String(), nil
}

func annotate(op compiler.Opcode, operand int, constants []any, builtinNames []string) string {
	switch op {
	case compiler.CONSTANT:
		if operand >= 0 && operand < len(constants) {
			return fmt.Sprintf("%v", constants[operand])
		}
	case compiler.GET_BUILTIN:
		if operand >= 0 && operand < len(builtinNames) {
			return builtinNames[operand]
		}
	}
	return ""
}
