package main

import (
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/jcorbin/egbasic/internal/flushio"
	"github.com/jcorbin/egbasic/internal/instr"
	"github.com/jcorbin/egbasic/internal/program"
	"github.com/jcorbin/egbasic/internal/stack"
)

// VM executes the program held in its store. Program text is decoded afresh
// every time a line executes; there is no compiled form.
type VM struct {
	logger *zap.Logger

	out     flushio.WriteFlusher
	numbers NumberReader
	cancel  CancelPoller

	// The store is edited by the shell between runs. A run executes a
	// snapshot of it, taken when the run starts.
	store *program.Store
	prog  program.Program

	// The program counter indexes prog. It is reset to 0 by every run.
	pc int

	// The stack is emptied by every run, but kept afterwards for inspection.
	stack stack.Stack
}

// NumberReader reads an integer from the operator, blocking until one has been
// entered.
type NumberReader interface {
	ReadNumber() (int, error)
}

// CancelPoller reports, without blocking, whether the operator has asked for
// the running program to stop. It is polled once before every instruction.
type CancelPoller interface {
	PollCancel() bool
}

//// Output Operations

// Name     Function
// printt   write the quoted literal and a newline
func (vm *VM) printt(in instr.Instruction) {
	vm.emit(in.Literal, "\n")
	vm.pc++
}

// Name     Function
// printv   write top of stack in decimal and a newline
func (vm *VM) printv(in instr.Instruction) {
	vm.emit(strconv.Itoa(vm.peekValue()), "\n")
	vm.pc++
}

//// Stack Operations

// Name     Function
// push N   push N
func (vm *VM) push(in instr.Instruction) {
	vm.pushValue(in.Arg)
	vm.pc++
}

// Name     Function
// pop      discard top of stack
func (vm *VM) pop(in instr.Instruction) {
	vm.popValue()
	vm.pc++
}

// Name     Function
// dup      push a copy of top of stack
func (vm *VM) dup(in instr.Instruction) {
	vm.pushValue(vm.peekValue())
	vm.pc++
}

//// Integer Operations

// Name     Function
// add      pop b, pop a, push a+b
func (vm *VM) add(in instr.Instruction) {
	b := vm.popValue()
	a := vm.popValue()
	vm.pushValue(a + b)
	vm.pc++
}

// Name     Function
// sub      pop a, pop b, push b-a; that is second minus top
func (vm *VM) sub(in instr.Instruction) {
	a := vm.popValue()
	b := vm.popValue()
	vm.pushValue(b - a)
	vm.pc++
}

//// Input Operations

// Name     Function
// in       read a number from the operator and push it
func (vm *VM) input(in instr.Instruction) {
	if vm.numbers == nil {
		vm.halt(errNoInput)
	}
	vm.flush()
	n, err := vm.numbers.ReadNumber()
	if err == io.EOF {
		vm.halt(errInputClosed)
	}
	vm.haltif(err)
	vm.pushValue(n)
	vm.pc++
}

//// Control Operations

// Name     Function
// biz N    go to line N if top of stack is zero, without popping it
func (vm *VM) biz(in instr.Instruction) {
	if vm.peekValue() == 0 {
		vm.jump(in.Arg)
	} else {
		vm.pc++
	}
}

// Name     Function
// binz N   go to line N if top of stack is not zero, without popping it
func (vm *VM) binz(in instr.Instruction) {
	if vm.peekValue() != 0 {
		vm.jump(in.Arg)
	} else {
		vm.pc++
	}
}

// Name     Function
// jmp N    go to line N
func (vm *VM) jmp(in instr.Instruction) {
	vm.jump(in.Arg)
}

// Name     Function
// end      stop the program
func (vm *VM) end(in instr.Instruction) {
	vm.halt(nil)
}

func (vm *VM) unknown(in instr.Instruction) {
	vm.emit("Unknown: ", in.Text, "\n")
	vm.halt(vm.fault(ErrUnknownInstruction, 0))
}

var opTable = [instr.NumOps]func(vm *VM, in instr.Instruction){
	instr.Unknown: (*VM).unknown,
	instr.PrintT:  (*VM).printt,
	instr.PrintV:  (*VM).printv,
	instr.Push:    (*VM).push,
	instr.Pop:     (*VM).pop,
	instr.Dup:     (*VM).dup,
	instr.Add:     (*VM).add,
	instr.Sub:     (*VM).sub,
	instr.Biz:     (*VM).biz,
	instr.Binz:    (*VM).binz,
	instr.In:      (*VM).input,
	instr.Jmp:     (*VM).jmp,
	instr.End:     (*VM).end,
}
