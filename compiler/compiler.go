// Package compiler implements a single-pass AST-to-bytecode compiler.
// A Compiler is a visitor: it walks the tree produced by the parser
// and, for each node, emits the instructions that reproduce its
// effect on the VM's stack.
package compiler

import (
	"encoding/binary"

	"belalang/ast"
	"belalang/token"
)

// CompiledFunction is the constant-pool entry a function literal
// compiles to. It only describes where the function's code lives; it
// is not itself executable outside the VM.
type CompiledFunction struct {
	EntryOffset int
	NumLocals   int
	Arity       int
}

type pendingFunction struct {
	constIndex int
	ins        Instructions
	arity      int
	numLocals  int
}

// compileBuffer is one instruction stream under construction: the
// main program, or a function literal's body compiled in isolation
// before being spliced into the main stream at Compile's end.
type compileBuffer struct {
	ins    Instructions
	lastOp Opcode
	hasOp  bool
}

// Compiler walks an ast.Program and produces Bytecode. It implements
// both ast.ExpressionVisitor and ast.StmtVisitor. State persists
// across calls to Compile so it can be re-invoked incrementally (the
// REPL compiles one line at a time against the same global scope and
// constant pool).
type Compiler struct {
	scopes    *ScopeManager
	constants []any

	returnedConsts int
	instrBase      int

	bufs    []*compileBuffer
	pending []*pendingFunction

	blockLeftValue bool
}

// NewCompiler seeds the compiler's global scope with the given
// builtin names, in the order their GET_BUILTIN indices must match.
func NewCompiler(builtinNames []string) *Compiler {
	return &Compiler{scopes: NewScopeManager(builtinNames)}
}

// Compile lowers program's statements to bytecode. The returned
// Instructions are only this call's fresh code (to be appended to
// whatever a REPL-driving VM has already executed); the returned
// Constants are only the constants newly interned this call. Jump
// offsets and CONSTANT/function entry-offset indices compiled this
// call are valid against the cumulative stream/pool a caller builds
// by repeatedly appending successive calls' results.
func (c *Compiler) Compile(program *ast.Program) (bc Bytecode, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	c.pending = nil
	c.push()

	for _, stmt := range program.Statements {
		stmt.Accept(c)
	}

	// The top-level program is itself an implicit function body: its
	// final expression statement's value (if any) becomes this call's
	// result, the same way a block's trailing POP is stripped so an
	// if/while body can yield a value. This deliberately departs from
	// naively appending RETURN_VALUE after every statement's POP —
	// RETURN_VALUE needs something on the stack to return, and an
	// unconditional POP would have already emptied it.
	buf := c.top()
	if buf.hasOp && buf.lastOp == POP {
		buf.ins = buf.ins[:len(buf.ins)-1]
		buf.hasOp = len(buf.ins) > 0
	} else {
		c.emit(NULL)
	}
	c.emit(RETURN_VALUE)

	main := c.top()
	for _, pf := range c.pending {
		entry := c.instrBase + len(main.ins)
		c.constants[pf.constIndex] = &CompiledFunction{
			EntryOffset: entry,
			NumLocals:   pf.numLocals,
			Arity:       pf.arity,
		}
		main.ins = append(main.ins, pf.ins...)
	}

	c.pop()

	newConstants := append([]any{}, c.constants[c.returnedConsts:]...)
	c.returnedConsts = len(c.constants)
	c.instrBase += len(main.ins)

	return Bytecode{Instructions: main.ins, Constants: newConstants}, nil
}

func (c *Compiler) push() { c.bufs = append(c.bufs, &compileBuffer{}) }

func (c *Compiler) pop() *compileBuffer {
	top := c.bufs[len(c.bufs)-1]
	c.bufs = c.bufs[:len(c.bufs)-1]
	return top
}

func (c *Compiler) top() *compileBuffer { return c.bufs[len(c.bufs)-1] }

// emit assembles and appends one instruction to the active buffer,
// returning the byte offset (within that buffer) of its opcode.
func (c *Compiler) emit(op Opcode, operands ...int) int {
	buf := c.top()
	pos := len(buf.ins)
	buf.ins = append(buf.ins, MakeInstruction(op, operands...)...)
	buf.lastOp = op
	buf.hasOp = true
	return pos
}

// patch overwrites the 2-byte operand of the jump instruction whose
// opcode byte sits at pos with the given signed relative offset.
func (c *Compiler) patch(pos int, offset int) {
	buf := c.top()
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(int16(offset)))
	buf.ins[pos+1] = b[0]
	buf.ins[pos+2] = b[1]
}

func (c *Compiler) addConstant(value any) int {
	c.constants = append(c.constants, value)
	return len(c.constants) - 1
}

func (c *Compiler) emitLoad(sym Symbol) {
	switch sym.Scope {
	case GlobalScope:
		c.emit(GET_GLOBAL, sym.Index)
	case LocalScope:
		c.emit(GET_LOCAL, sym.Index)
	case BuiltinScope:
		c.emit(GET_BUILTIN, sym.Index)
	}
}

func (c *Compiler) emitStore(sym Symbol) {
	switch sym.Scope {
	case GlobalScope:
		c.emit(SET_GLOBAL, sym.Index)
	case LocalScope:
		c.emit(SET_LOCAL, sym.Index)
	default:
		panic(DeveloperError{Message: "cannot assign into builtin scope"})
	}
}

// opcodeForInfix maps an operator token to its opcode. `reversed`
// reports that > and >= are compiled by swapping operand order and
// using the LESS_THAN/LESS_THAN_EQUAL opcode, since the VM only
// implements the "less than" direction of comparison.
func opcodeForInfix(tt token.TokenType) (op Opcode, reversed bool, ok bool) {
	switch tt {
	case token.ADD:
		return ADD, false, true
	case token.SUB:
		return SUB, false, true
	case token.MUL:
		return MUL, false, true
	case token.DIV:
		return DIV, false, true
	case token.MOD:
		return MOD, false, true
	case token.BIT_AND:
		return BIT_AND, false, true
	case token.BIT_OR:
		return BIT_OR, false, true
	case token.BIT_XOR:
		return BIT_XOR, false, true
	case token.SHIFT_LEFT:
		return BIT_SL, false, true
	case token.SHIFT_RIGHT:
		return BIT_SR, false, true
	case token.AND:
		return AND, false, true
	case token.OR:
		return OR, false, true
	case token.EQ:
		return EQUAL, false, true
	case token.NE:
		return NOT_EQUAL, false, true
	case token.LT:
		return LESS_THAN, false, true
	case token.LE:
		return LESS_THAN_EQUAL, false, true
	case token.GT:
		return LESS_THAN, true, true
	case token.GE:
		return LESS_THAN_EQUAL, true, true
	default:
		return 0, false, false
	}
}

// --- ast.ExpressionVisitor ---

func (c *Compiler) VisitBoolean(node ast.Boolean) any {
	if node.Value {
		c.emit(TRUE)
	} else {
		c.emit(FALSE)
	}
	return nil
}

func (c *Compiler) VisitInteger(node ast.Integer) any {
	c.emit(CONSTANT, c.addConstant(node.Value))
	return nil
}

func (c *Compiler) VisitFloat(node ast.Float) any {
	c.emit(CONSTANT, c.addConstant(node.Value))
	return nil
}

func (c *Compiler) VisitString(node ast.String) any {
	c.emit(CONSTANT, c.addConstant(node.Value))
	return nil
}

func (c *Compiler) VisitNull(node ast.Null) any {
	c.emit(NULL)
	return nil
}

func (c *Compiler) VisitArray(node ast.Array) any {
	for i := len(node.Elements) - 1; i >= 0; i-- {
		node.Elements[i].Accept(c)
	}
	c.emit(MAKE_ARRAY, len(node.Elements))
	return nil
}

func (c *Compiler) VisitIdentifier(node ast.Identifier) any {
	sym, ok := c.scopes.Resolve(node.Name)
	if !ok {
		panic(UnknownSymbol(node.Name))
	}
	c.emitLoad(sym)
	return nil
}

// VisitVar compiles all three assignment forms: `:=` defines a new
// symbol in the current scope, `=` stores into an existing one, and
// any compound operator desugars to load-operate-store. None of the
// three pop their result: assignment is an expression whose value is
// the assigned value, left for the enclosing context (an
// ExpressionStmt's blanket POP, typically) to consume or discard.
func (c *Compiler) VisitVar(node ast.Var) any {
	switch node.Kind {
	case token.COLON_ASSIGN:
		sym, err := c.scopes.Define(node.Name)
		if err != nil {
			panic(err)
		}
		node.Value.Accept(c)
		c.emitStore(sym)

	case token.ASSIGN:
		sym, ok := c.scopes.Resolve(node.Name)
		if !ok {
			panic(UnknownSymbol(node.Name))
		}
		node.Value.Accept(c)
		c.emitStore(sym)

	default:
		sym, ok := c.scopes.Resolve(node.Name)
		if !ok {
			panic(UnknownSymbol(node.Name))
		}
		c.emitLoad(sym)
		node.Value.Accept(c)
		binOp, _ := node.Kind.BinaryOp()
		op, _, ok := opcodeForInfix(binOp)
		if !ok {
			panic(UnknownInfixOp(string(node.Kind)))
		}
		c.emit(op)
		c.emitStore(sym)
	}
	return nil
}

func (c *Compiler) VisitCall(node ast.Call) any {
	for i := len(node.Args) - 1; i >= 0; i-- {
		node.Args[i].Accept(c)
	}
	node.Callee.Accept(c)
	c.emit(CALL, len(node.Args))
	return nil
}

func (c *Compiler) VisitIndex(node ast.Index) any {
	node.Receiver.Accept(c)
	node.Index.Accept(c)
	c.emit(INDEX)
	return nil
}

// VisitFunction compiles the body into its own buffer so the
// function's code can be spliced into the main instruction stream
// only once the function literal's own position in that stream
// (which may itself be inside another function literal's buffer) is
// known. Params become consecutive locals 0..arity in a fresh
// function scope; Belalang functions never close over outer locals.
func (c *Compiler) VisitFunction(node ast.Function) any {
	c.scopes.EnterFunctionScope()
	for _, param := range node.Params {
		if _, err := c.scopes.Define(param); err != nil {
			panic(err)
		}
	}

	c.push()
	for _, stmt := range node.Body.Statements {
		stmt.Accept(c)
	}
	buf := c.top()
	if buf.lastOp != RETURN_VALUE {
		c.emit(NULL)
		c.emit(RETURN_VALUE)
	}
	body := c.pop()

	numLocals := c.scopes.LeaveFunctionScope()

	constIndex := c.addConstant(nil)
	c.pending = append(c.pending, &pendingFunction{
		constIndex: constIndex,
		ins:        body.ins,
		arity:      len(node.Params),
		numLocals:  numLocals,
	})
	c.emit(CONSTANT, constIndex)
	return nil
}

func (c *Compiler) VisitIf(node ast.If) any {
	node.Condition.Accept(c)
	jifPos := c.emit(JUMP_IF_FALSE, 0)

	node.Consequence.Accept(c)
	jumpPos := c.emit(JUMP, 0)

	afterConsequence := len(c.top().ins)
	c.patch(jifPos, afterConsequence-(jifPos+3))

	if node.Alternative != nil {
		node.Alternative.Accept(c)
	} else {
		c.emit(NULL)
	}

	afterAlternative := len(c.top().ins)
	c.patch(jumpPos, afterAlternative-(jumpPos+3))
	return nil
}

func (c *Compiler) VisitInfix(node ast.Infix) any {
	op, reversed, ok := opcodeForInfix(node.Operator)
	if !ok {
		panic(UnknownInfixOp(string(node.Operator)))
	}
	if reversed {
		node.Right.Accept(c)
		node.Left.Accept(c)
	} else {
		node.Left.Accept(c)
		node.Right.Accept(c)
	}
	c.emit(op)
	return nil
}

func (c *Compiler) VisitPrefix(node ast.Prefix) any {
	node.Right.Accept(c)
	switch node.Operator {
	case token.SUB:
		c.emit(MINUS)
	case token.NOT:
		c.emit(BANG)
	}
	return nil
}

// VisitBlock compiles each inner statement, then strips a trailing
// POP so the block yields the value of its final expression
// statement. blockLeftValue records whether it did so, for
// VisitWhileStmt to decide whether an extra POP is needed to keep a
// while-loop body from leaving residue on the stack.
func (c *Compiler) VisitBlock(node ast.Block) any {
	for _, stmt := range node.Statements {
		stmt.Accept(c)
	}

	buf := c.top()
	c.blockLeftValue = false
	if len(node.Statements) > 0 && buf.hasOp && buf.lastOp == POP {
		buf.ins = buf.ins[:len(buf.ins)-1]
		buf.hasOp = len(buf.ins) > 0
		c.blockLeftValue = true
	}
	return nil
}

// --- ast.StmtVisitor ---

func (c *Compiler) VisitExpressionStmt(node ast.ExpressionStmt) any {
	node.Expression.Accept(c)
	c.emit(POP)
	return nil
}

func (c *Compiler) VisitReturnStmt(node ast.ReturnStmt) any {
	node.ReturnValue.Accept(c)
	c.emit(RETURN_VALUE)
	return nil
}

func (c *Compiler) VisitWhileStmt(node ast.WhileStmt) any {
	start := len(c.top().ins)

	node.Condition.Accept(c)
	jifPos := c.emit(JUMP_IF_FALSE, 0)

	node.Body.Accept(c)
	if c.blockLeftValue {
		c.emit(POP)
	}

	jumpPos := len(c.top().ins)
	c.emit(JUMP, start-(jumpPos+3))

	afterLoop := len(c.top().ins)
	c.patch(jifPos, afterLoop-(jifPos+3))
	c.emit(NOOP)
	return nil
}
