package compiler

import "fmt"

// SemanticError covers compile-time failures in otherwise
// well-formed source: unresolved names, redefinitions, and operators
// with no compilation rule.
type SemanticError struct {
	Message string
}

func (e SemanticError) Error() string {
	return fmt.Sprintf("💥 SemanticError: %s", e.Message)
}

// DeveloperError indicates a compiler-internal invariant was
// violated (an undefined opcode, a malformed instruction buffer) and
// should never surface from well-formed input.
type DeveloperError struct {
	Message string
}

func (e DeveloperError) Error() string {
	return fmt.Sprintf("🤖 DeveloperError: %s", e.Message)
}

func UnknownInfixOp(op string) error {
	return SemanticError{Message: fmt.Sprintf("no compilation rule for infix operator '%s'", op)}
}

func DuplicateSymbol(name string) error {
	return SemanticError{Message: fmt.Sprintf("redefinition of '%s' in this scope", name)}
}

func UnknownSymbol(name string) error {
	return SemanticError{Message: fmt.Sprintf("name '%s' is not defined", name)}
}

func InvalidAssignTarget(name string) error {
	return SemanticError{Message: fmt.Sprintf("cannot assign to '%s': not defined", name)}
}
