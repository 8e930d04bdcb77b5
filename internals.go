package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/jcorbin/egbasic/internal/instr"
	"github.com/jcorbin/egbasic/internal/logio"
	"github.com/jcorbin/egbasic/internal/program"
	"github.com/jcorbin/egbasic/internal/runeio"
)

func (vm *VM) halt(err error) {
	if ferr := vm.flush(); err == nil {
		err = ferr
	}
	if err == nil {
		vm.logger.Debug("halt", zap.Int("pc", vm.pc))
	} else {
		vm.logger.Debug("halt", zap.Int("pc", vm.pc), zap.Error(err))
	}
	if vm.logger.Core().Enabled(zap.DebugLevel) {
		lw := logio.Writer{Logf: vm.logger.Sugar().Debugf}
		vmDumper{vm: vm, out: &lw}.dump()
		lw.Close()
	}
	panic(haltError{err})
}

func (vm *VM) haltif(err error) {
	if err != nil {
		vm.halt(err)
	}
}

func (vm *VM) flush() error {
	if vm.out == nil {
		return nil
	}
	return vm.out.Flush()
}

func (vm *VM) emit(parts ...string) {
	for _, part := range parts {
		if _, err := io.WriteString(vm.out, part); err != nil {
			vm.halt(err)
		}
	}
}

// warn reports a recoverable error on the output; the program continues.
func (vm *VM) warn(err error) {
	vm.logger.Debug("warn", zap.Int("pc", vm.pc), zap.Error(err))
	vm.emit(err.Error(), "\n")
}

func (vm *VM) pushValue(val int) {
	if err := vm.stack.Push(val); err != nil {
		vm.warn(err)
	}
}

func (vm *VM) popValue() int {
	val, err := vm.stack.Pop()
	if err != nil {
		vm.warn(err)
	}
	return val
}

func (vm *VM) peekValue() int {
	val, err := vm.stack.Peek()
	if err != nil {
		vm.warn(err)
	}
	return val
}

func (vm *VM) jump(target int) {
	i, found := vm.prog.Find(target)
	if !found {
		vm.emit("Error: line ", fmt.Sprint(target), " not found\n")
		vm.halt(vm.fault(ErrLineNotFound, target))
	}
	vm.pc = i
}

func (vm *VM) fault(err error, target int) *Fault {
	f := &Fault{Err: err, Target: target}
	if vm.pc >= 0 && vm.pc < len(vm.prog) {
		f.Line = vm.prog[vm.pc]
	}
	return f
}

func (vm *VM) pollCancel() {
	if vm.cancel == nil || !vm.cancel.PollCancel() {
		return
	}
	if named, ok := vm.cancel.(interface{ CancelKey() rune }); ok {
		vm.emit("program interrupted by ", runeio.KeyName(named.CancelKey()), "\n")
	} else {
		vm.emit("program interrupted\n")
	}
	vm.halt(vm.fault(ErrInterrupted, 0))
}

func (vm *VM) step() {
	ln := vm.prog[vm.pc]
	in := instr.Decode(ln.Text)
	if ce := vm.logger.Check(zap.DebugLevel, "exec"); ce != nil {
		ce.Write(
			zap.Int("pc", vm.pc),
			zap.Int("line", ln.Number),
			zap.Stringer("instr", in),
			zap.Ints("stack", vm.stack.Values()),
		)
	}
	opTable[in.Op](vm, in)
}

func (vm *VM) exec(ctx context.Context) {
	for vm.pc < len(vm.prog) {
		vm.haltif(ctx.Err())
		vm.pollCancel()
		vm.step()
	}
	vm.halt(nil)
}

func (vm *VM) init() {
	if vm.store == nil {
		vm.store = &program.Store{}
	}
	vm.prog = vm.store.Lines()
	vm.pc = 0
	vm.stack.Reset()
	vm.logger.Debug("run", zap.Int("lines", len(vm.prog)), zap.Int("stackDepth", vm.stack.Cap()))
}

func (vm *VM) run(ctx context.Context) error {
	vm.init()
	vm.exec(ctx)
	return nil
}

// Errors that end a run, carried by a Fault.
var (
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrLineNotFound       = errors.New("line not found")
	ErrInterrupted        = errors.New("program interrupted")
)

var (
	errNoInput     = errors.New("no number input available")
	errInputClosed = errors.New("input closed while reading a number")
)

// Fault is a program error that stopped a run, after it was reported on the
// VM output.
type Fault struct {
	Err    error
	Line   program.Line
	Target int
}

func (f *Fault) Error() string {
	if f.Err == ErrLineNotFound {
		return fmt.Sprintf("line %d: line %d not found", f.Line.Number, f.Target)
	}
	return fmt.Sprintf("line %d: %v", f.Line.Number, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// IsFault returns true if err is a Fault, as opposed to a failure of the VM's
// input or output.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}

type haltError struct{ error }

func (err haltError) Error() string {
	if err.error != nil {
		return fmt.Sprintf("halted: %v", err.error)
	}
	return "halted"
}

func (err haltError) Unwrap() error { return err.error }
