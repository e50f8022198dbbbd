package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"belalang/builtins"
	"belalang/bytecode"
	"belalang/compiler"
	"belalang/parser"

	"github.com/google/subcommands"
)

// buildCmd compiles a source file and persists its bytecode via the
// bytecode package's file codec.
type buildCmd struct {
	out string
}

func (*buildCmd) Name() string     { return "build" }
func (*buildCmd) Synopsis() string { return "Compile a source file to a persisted bytecode file" }
func (*buildCmd) Usage() string {
	return `build [-o <out>] <path>:
  Compile a Belalang source file and write its bytecode to <out>.
`
}

func (cmd *buildCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.out, "o", "", "output path for the compiled bytecode (default: <path> with .bc extension)")
}

func (cmd *buildCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 no source file given")
		return subcommands.ExitUsageError
	}
	srcPath := args[0]

	data, err := os.ReadFile(srcPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	p, err := parser.Make(string(data))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	program, errs := p.Parse()
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitFailure
	}

	table := builtins.Default()
	bc, err := compiler.NewCompiler(builtins.Names(table)).Compile(program)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	out := cmd.out
	if out == "" {
		out = strings.TrimSuffix(srcPath, filepath.Ext(srcPath)) + ".bc"
	}

	if err := bytecode.WriteFile(out, bc); err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to write bytecode: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("wrote %s\n", out)
	return subcommands.ExitSuccess
}

