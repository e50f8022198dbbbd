// Package vm implements the stack-based virtual machine that
// executes the bytecode the compiler package produces: it owns the
// value stack, the heap, and the object operator table bytecode
// instructions are dispatched against.
package vm

import (
	"encoding/binary"

	"belalang/compiler"
)

// VM executes one belalang bytecode program against its own stack and
// heap. It is not safe to share across goroutines (§5): the heap is
// thread-local by construction.
type VM struct {
	ip int

	ins       compiler.Instructions
	constants []any

	stack    *Stack
	heap     *Heap
	globals  []Value
	builtins []Object
}

// New returns a VM with its Builtin-scope table set to builtinObjs, in
// the same order the compiler's ScopeManager assigned GET_BUILTIN
// indices.
func New(builtinObjs []Object) *VM {
	return &VM{
		stack:    NewStack(),
		heap:     NewHeap(),
		builtins: builtinObjs,
	}
}

// Heap exposes the VM's heap, mostly for tests asserting allocation
// counts.
func (vm *VM) Heap() *Heap { return vm.heap }

// StackDepth reports the depth of the current top-level frame's value
// stack, for tests asserting the stack-depth invariant in §8. Run
// always pushes one bookkeeping address slot for the program's
// implicit top-level frame (see Run's comment); that slot is never
// user-visible data, so it is excluded here.
func (vm *VM) StackDepth() int {
	d := vm.stack.Depth() - 1
	if d < 0 {
		return 0
	}
	return d
}

// LastPopped returns the value a just-finished Run call left on top of
// the stack, without removing it: the program itself compiles as an
// implicit function body, so its RETURN_VALUE pushes the last
// top-level expression statement's value (or Null) back for the
// caller — tests assert against it this way. A long-lived caller that
// calls Run repeatedly against the same VM (the REPL) should use
// TakeResult instead, which removes the slot so it does not
// accumulate across calls.
func (vm *VM) LastPopped() (Object, bool) {
	if vm.stack.sp == 0 {
		return nil, false
	}
	return vm.stack.slots[vm.stack.sp-1].Object()
}

// TakeResult removes and returns the value a just-finished Run call
// left on top of the stack. Unlike LastPopped, this releases the
// slot's reference: a REPL that calls Run once per line must consume
// each line's result this way, or every line leaves one managed
// pointer permanently on the stack for the life of the session,
// eventually overflowing it.
func (vm *VM) TakeResult() (Object, bool) {
	if vm.stack.sp == 0 {
		return nil, false
	}
	v, err := vm.stack.Pop()
	if err != nil {
		return nil, false
	}
	obj, ok := v.Object()
	vm.stack.Release(v)
	return obj, ok
}

func (vm *VM) push(o Object) error {
	entry := vm.heap.Alloc(o)
	return vm.stack.Push(objectValue(entry))
}

func (vm *VM) pop() (Object, error) {
	v, err := vm.stack.Pop()
	if err != nil {
		return nil, err
	}
	obj, ok := v.Object()
	if !ok {
		return nil, RuntimeError{Message: "expected an object on the stack"}
	}
	vm.stack.Release(v)
	return obj, nil
}

func (vm *VM) setGlobal(index int, v Value) {
	for len(vm.globals) <= index {
		vm.globals = append(vm.globals, nullValue())
	}
	old := vm.globals[index]
	vm.stack.Release(old)
	vm.globals[index] = v
}

func (vm *VM) getGlobal(index int) Value {
	if index >= len(vm.globals) {
		return nullValue()
	}
	return vm.globals[index]
}

// Run appends bc's instructions to the program already executed (so
// a REPL can call Run repeatedly against a growing Bytecode, sharing
// one VM/globals/heap across lines) and resumes execution from the
// first newly appended instruction. Constants are appended the same
// way, so earlier CONSTANT indices stay valid.
//
// The compiler treats every top-level program as an implicit function
// body, closing it with a RETURN_VALUE. Run mirrors that by pushing a
// matching frame before executing this call's instructions, so that
// RETURN_VALUE's pop-frame has something to unwind.
func (vm *VM) Run(bc compiler.Bytecode) error {
	base := len(vm.ins)
	vm.ins = append(vm.ins, bc.Instructions...)
	vm.constants = append(vm.constants, bc.Constants...)

	if err := vm.stack.PushFrame(0, len(vm.ins)); err != nil {
		return err
	}
	vm.ip = base

	for vm.ip < len(vm.ins) {
		op := compiler.Opcode(vm.ins[vm.ip])

		switch op {
		case compiler.NOOP:
			vm.ip++

		case compiler.POP:
			v, err := vm.stack.Pop()
			if err != nil {
				return err
			}
			vm.stack.Release(v)
			vm.ip++

		case compiler.ADD, compiler.SUB, compiler.MUL, compiler.DIV, compiler.MOD,
			compiler.EQUAL, compiler.NOT_EQUAL, compiler.LESS_THAN, compiler.LESS_THAN_EQUAL,
			compiler.AND, compiler.OR,
			compiler.BIT_AND, compiler.BIT_OR, compiler.BIT_XOR, compiler.BIT_SL, compiler.BIT_SR:
			if err := vm.execBinary(op); err != nil {
				return err
			}
			vm.ip++

		case compiler.BANG, compiler.MINUS:
			if err := vm.execUnary(op); err != nil {
				return err
			}
			vm.ip++

		case compiler.CONSTANT:
			index := int(binary.BigEndian.Uint16(vm.ins[vm.ip+1:]))
			if index >= len(vm.constants) {
				return RuntimeError{Message: "constant index out of range"}
			}
			obj, err := vm.objectForConstant(vm.constants[index])
			if err != nil {
				return err
			}
			if err := vm.push(obj); err != nil {
				return err
			}
			vm.ip += 3

		case compiler.TRUE:
			if err := vm.push(NewBoolean(true)); err != nil {
				return err
			}
			vm.ip++

		case compiler.FALSE:
			if err := vm.push(NewBoolean(false)); err != nil {
				return err
			}
			vm.ip++

		case compiler.NULL:
			if err := vm.stack.Push(nullValue()); err != nil {
				return err
			}
			vm.ip++

		case compiler.JUMP:
			offset := int(int16(binary.BigEndian.Uint16(vm.ins[vm.ip+1:])))
			vm.ip += 3 + offset

		case compiler.JUMP_IF_FALSE:
			offset := int(int16(binary.BigEndian.Uint16(vm.ins[vm.ip+1:])))
			cond, err := vm.pop()
			if err != nil {
				return err
			}
			if !cond.Truthy() {
				vm.ip += 3 + offset
			} else {
				vm.ip += 3
			}

		case compiler.SET_GLOBAL:
			// Assignment is an expression: the value stays on the
			// stack for the ExpressionStmt's own POP to release.
			// SET_GLOBAL only stores a second reference to it.
			index := int(binary.BigEndian.Uint16(vm.ins[vm.ip+1:]))
			v, err := vm.stack.Peek()
			if err != nil {
				return err
			}
			if v.kind == kindObject {
				v.ref.incref()
			}
			vm.setGlobal(index, v)
			vm.ip += 3

		case compiler.GET_GLOBAL:
			index := int(binary.BigEndian.Uint16(vm.ins[vm.ip+1:]))
			v := vm.getGlobal(index)
			if v.kind == kindObject {
				v.ref.incref()
			}
			if err := vm.stack.Push(v); err != nil {
				return err
			}
			vm.ip += 3

		case compiler.SET_LOCAL:
			index := int(vm.ins[vm.ip+1])
			v, err := vm.stack.Peek()
			if err != nil {
				return err
			}
			if v.kind == kindObject {
				v.ref.incref()
			}
			vm.stack.SetLocal(index, v)
			vm.ip += 2

		case compiler.GET_LOCAL:
			index := int(vm.ins[vm.ip+1])
			v := vm.stack.GetLocal(index)
			if v.kind == kindObject {
				v.ref.incref()
			}
			if err := vm.stack.Push(v); err != nil {
				return err
			}
			vm.ip += 2

		case compiler.GET_BUILTIN:
			index := int(vm.ins[vm.ip+1])
			if index >= len(vm.builtins) {
				return unknownBuiltin(index)
			}
			if err := vm.push(vm.builtins[index]); err != nil {
				return err
			}
			vm.ip += 2

		case compiler.CALL:
			argc := int(vm.ins[vm.ip+1])
			if err := vm.execCall(argc); err != nil {
				return err
			}

		case compiler.RETURN, compiler.RETURN_VALUE:
			if err := vm.execReturn(op); err != nil {
				return err
			}

		case compiler.MAKE_ARRAY:
			n := int(vm.ins[vm.ip+1])
			if err := vm.execMakeArray(n); err != nil {
				return err
			}
			vm.ip += 2

		case compiler.INDEX:
			if err := vm.execIndex(); err != nil {
				return err
			}
			vm.ip++

		default:
			return unknownInstruction(byte(op))
		}
	}

	return nil
}

func (vm *VM) objectForConstant(c any) (Object, error) {
	switch v := c.(type) {
	case nil:
		return NewNull(), nil
	case int64:
		return NewInteger(v), nil
	case float64:
		return NewFloat(v), nil
	case bool:
		return NewBoolean(v), nil
	case string:
		return NewString(v), nil
	case *compiler.CompiledFunction:
		return NewFunction(v.EntryOffset, v.NumLocals, v.Arity), nil
	default:
		return nil, RuntimeError{Message: "constant of unsupported type"}
	}
}

func (vm *VM) execUnary(op compiler.Opcode) error {
	right, err := vm.pop()
	if err != nil {
		return err
	}
	var result Object
	switch op {
	case compiler.MINUS:
		result, err = right.Neg()
	case compiler.BANG:
		result, err = right.Not()
	}
	if err != nil {
		return err
	}
	return vm.push(result)
}

func (vm *VM) execBinary(op compiler.Opcode) error {
	right, err := vm.pop()
	if err != nil {
		return err
	}
	left, err := vm.pop()
	if err != nil {
		return err
	}

	var result Object
	switch op {
	case compiler.ADD:
		result, err = left.Add(right)
	case compiler.SUB:
		result, err = left.Sub(right)
	case compiler.MUL:
		result, err = left.Mul(right)
	case compiler.DIV:
		result, err = left.Div(right)
	case compiler.MOD:
		result, err = left.Mod(right)
	case compiler.EQUAL:
		result, err = left.Eq(right)
	case compiler.NOT_EQUAL:
		result, err = left.Ne(right)
	case compiler.LESS_THAN:
		result, err = left.Lt(right)
	case compiler.LESS_THAN_EQUAL:
		result, err = left.Le(right)
	case compiler.AND:
		result, err = left.And(right)
	case compiler.OR:
		result, err = left.Or(right)
	case compiler.BIT_AND:
		result, err = left.BitAnd(right)
	case compiler.BIT_OR:
		result, err = left.BitOr(right)
	case compiler.BIT_XOR:
		result, err = left.BitXor(right)
	case compiler.BIT_SL:
		result, err = left.ShiftLeft(right)
	case compiler.BIT_SR:
		result, err = left.ShiftRight(right)
	}
	if err != nil {
		return err
	}
	return vm.push(result)
}

func (vm *VM) execMakeArray(n int) error {
	elements := make([]Object, n)
	for i := 0; i < n; i++ {
		obj, err := vm.pop()
		if err != nil {
			return err
		}
		elements[i] = obj
	}
	return vm.push(NewArray(elements))
}

func (vm *VM) execIndex() error {
	idxObj, err := vm.pop()
	if err != nil {
		return err
	}
	recvObj, err := vm.pop()
	if err != nil {
		return err
	}

	arr, ok := recvObj.(*Array)
	if !ok {
		return typeError("index", recvObj)
	}
	idx, ok := idxObj.(*Integer)
	if !ok {
		return typeError("index", recvObj, idxObj)
	}
	if idx.Value < 0 || int(idx.Value) >= len(arr.Elements) {
		return indexOutOfRange(int(idx.Value), len(arr.Elements))
	}
	return vm.push(arr.Elements[idx.Value])
}

// execCall resolves the calling convention Open Question (§9): pop
// the callee, pop argc arguments (first pop is source arg 0, since
// the compiler pushes arguments in reverse source order), then
// either invoke a builtin inline or push a frame and jump into a
// compiled function's body.
func (vm *VM) execCall(argc int) error {
	calleeVal, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	callee, ok := calleeVal.Object()
	if !ok {
		return RuntimeError{Message: "call target is not an object"}
	}
	vm.stack.Release(calleeVal)

	switch fn := callee.(type) {
	case *Builtin:
		args := make([]Object, argc)
		for i := 0; i < argc; i++ {
			obj, err := vm.pop()
			if err != nil {
				return err
			}
			args[i] = obj
		}
		if argc != fn.Arity {
			return arityMismatch(fn.Arity, argc)
		}
		result, err := fn.Fn(args)
		if err != nil {
			return err
		}
		vm.ip += 2
		return vm.push(result)

	case *Function:
		if argc != fn.Arity {
			return arityMismatch(fn.Arity, argc)
		}
		argVals := make([]Value, argc)
		for i := 0; i < argc; i++ {
			v, err := vm.stack.Pop()
			if err != nil {
				return err
			}
			argVals[i] = v
		}
		returnAddr := vm.ip + 2
		if err := vm.stack.PushFrame(fn.NumLocals, returnAddr); err != nil {
			return err
		}
		for i := 0; i < argc; i++ {
			vm.stack.SetLocal(i, argVals[i])
		}
		vm.ip = fn.EntryOffset
		return nil

	default:
		return notCallable(callee)
	}
}

// execReturn implements both RETURN and RETURN_VALUE against one
// popFrame-based mechanic (§9, Open Question 4): RETURN_VALUE pops an
// explicit result first, RETURN pushes Null in its place.
func (vm *VM) execReturn(op compiler.Opcode) error {
	var result Value
	if op == compiler.RETURN_VALUE {
		v, err := vm.stack.Pop()
		if err != nil {
			return err
		}
		result = v
	} else {
		result = nullValue()
	}

	returnAddr, err := vm.stack.PopFrame()
	if err != nil {
		return err
	}
	if err := vm.stack.Push(result); err != nil {
		return err
	}
	vm.ip = returnAddr
	return nil
}
