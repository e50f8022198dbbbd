package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"belalang/builtins"
	"belalang/compiler"
	"belalang/parser"
	"belalang/vm"

	"github.com/google/subcommands"
)

// runCmd lexes, parses, compiles, and executes a single source file.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Lex, parse, compile, and execute a Belalang source file" }
func (*runCmd) Usage() string {
	return `run <path>:
  Execute Belalang code from a source file.
`
}
func (*runCmd) SetFlags(f *flag.FlagSet) {}

func (*runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 no source file given")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := runSource(string(data)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

// runSource drives a fresh lexer/parser/compiler/VM pipeline over src
// end to end, sharing the default builtin table between the compiler
// (which needs only the names, for GET_BUILTIN slot assignment) and
// the VM (which needs the callable objects those slots resolve to).
func runSource(src string) error {
	table := builtins.Default()

	p, err := parser.Make(src)
	if err != nil {
		return err
	}

	program, errs := p.Parse()
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return fmt.Errorf("💥 parsing failed with %d error(s)", len(errs))
	}

	bc, err := compiler.NewCompiler(builtins.Names(table)).Compile(program)
	if err != nil {
		return err
	}

	machine := vm.New(builtinObjects(table))
	return machine.Run(bc)
}

func builtinObjects(table []builtins.Builtin) []vm.Object {
	objs := make([]vm.Object, len(table))
	for i, b := range table {
		objs[i] = vm.NewBuiltin(b.Name, b.Arity, b.Fn)
	}
	return objs
}
