package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"belalang/builtins"
	"belalang/compiler"
	"belalang/disasm"
	"belalang/parser"
	"belalang/vm"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"
)

// replCmd is an interactive session built on chzyer/readline for line
// editing and history. One Compiler/VM pair is kept alive for the
// whole session (compiler.Compile's incremental-recompilation support
// is what makes this safe — see §4.3): each line's globals and
// function constants remain visible to every later line.
type replCmd struct {
	disasm  bool
	dumpAST bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive Belalang session" }
func (*replCmd) Usage() string {
	return `repl [-disasm] [-dump-ast]:
  Start an interactive read-eval-print loop.
`
}

func (cmd *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disasm, "disasm", false, "print disassembly before executing each line")
	f.BoolVar(&cmd.dumpAST, "dump-ast", false, "print the parsed AST before compiling each line")
}

func (cmd *replCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     historyFilePath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to start readline: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Println("Welcome to Belalang!")

	table := builtins.Default()
	comp := compiler.NewCompiler(builtins.Names(table))
	machine := vm.New(builtinObjects(table))

	for {
		line, err := rl.Readline()
		switch {
		case err == readline.ErrInterrupt:
			continue
		case err == io.EOF:
			return subcommands.ExitSuccess
		case err != nil:
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		if line == "" {
			continue
		}

		p, err := parser.Make(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		program, errs := p.Parse()
		if len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, e)
			}
			continue
		}

		if cmd.dumpAST {
			fmt.Println(program.String())
		}

		bc, err := comp.Compile(program)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}

		if cmd.disasm {
			out, dErr := disasm.Disassemble(bc.Instructions, bc.Constants, builtins.Names(table))
			if dErr != nil {
				fmt.Fprintln(os.Stderr, dErr)
			} else {
				fmt.Print(out)
			}
		}

		if err := machine.Run(bc); err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}

		// TakeResult, not LastPopped: this REPL keeps one VM alive for
		// the whole session, so each line's result must be popped off
		// before the next line's Run runs, or it sits on the stack
		// forever.
		if result, ok := machine.TakeResult(); ok {
			fmt.Println(result.String())
		}
	}
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".belalang_history"
	}
	return home + "/.belalang_history"
}
