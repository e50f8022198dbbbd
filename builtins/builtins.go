// Package builtins holds the table of functions available to every
// Belalang program without an import: currently just print. The
// table is consulted twice — once at compile time (ScopeManager seeds
// a Builtin-scope symbol per name, in this package's stable order) and
// once at VM construction (each entry becomes a callable vm.Builtin
// object reachable via GET_BUILTIN) — so the two must agree on
// ordering, which Default's fixed slice guarantees.
package builtins

import (
	"fmt"
	"io"
	"os"

	"belalang/vm"
)

// Builtin is one entry in the table: its arity (checked by the VM's
// CALL handler before invoking) and its implementation.
type Builtin struct {
	Name  string
	Arity int
	Fn    func(args []vm.Object) (vm.Object, error)
}

// Default returns the builtin table, in the fixed order their
// GET_BUILTIN indices are assigned.
func Default() []Builtin {
	return []Builtin{
		{Name: "print", Arity: 1, Fn: printBuiltin(os.Stdout)},
	}
}

// Names extracts just the name column, in table order, for
// compiler.NewScopeManager.
func Names(table []Builtin) []string {
	names := make([]string, len(table))
	for i, b := range table {
		names[i] = b.Name
	}
	return names
}

func printBuiltin(w io.Writer) func(args []vm.Object) (vm.Object, error) {
	return func(args []vm.Object) (vm.Object, error) {
		fmt.Fprintln(w, args[0].String())
		return vm.NewNull(), nil
	}
}
