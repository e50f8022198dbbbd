package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"belalang/bytecode"
	"belalang/disasm"

	"github.com/google/subcommands"
)

// disasmCmd loads a persisted bytecode file and prints its
// disassembly.
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Disassemble a persisted bytecode file" }
func (*disasmCmd) Usage() string {
	return `disasm <path>:
  Print the disassembly of a bytecode file produced by 'build'.
`
}
func (*disasmCmd) SetFlags(f *flag.FlagSet) {}

func (*disasmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 no bytecode file given")
		return subcommands.ExitUsageError
	}

	bc, err := bytecode.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read bytecode: %v\n", err)
		return subcommands.ExitFailure
	}

	out, err := disasm.Disassemble(bc.Instructions, bc.Constants, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 disassemble error: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Print(out)
	return subcommands.ExitSuccess
}
