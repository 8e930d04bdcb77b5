package main

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/jcorbin/egbasic/internal/panicerr"
	"github.com/jcorbin/egbasic/internal/program"
)

// New creates a VM with an empty program.
func New(opts ...VMOption) *VM {
	var vm VM
	defaultOptions.apply(&vm)
	VMOptions(opts...).apply(&vm)
	vm.logger = vm.logger.Named("vm")
	return &vm
}

// Run executes the program from its first line until it ends, falls off its
// last line, or faults. Program faults have already been reported on the VM
// output when Run returns them; see IsFault. Any other error is a failure of
// the context, the output, or the number input.
func (vm *VM) Run(ctx context.Context) error {
	err := panicerr.Recover("VM", func() error {
		return vm.run(ctx)
	})
	var halt haltError
	if errors.As(err, &halt) {
		err = halt.error
	}
	return err
}

// Program returns the store that Run executes.
func (vm *VM) Program() *program.Store { return vm.store }

// Stack returns the operand stack values left by the last run, bottom first.
func (vm *VM) Stack() []int { return vm.stack.Values() }

func WithOutput(w io.Writer) VMOption        { return withOutput(w) }
func WithTee(w io.Writer) VMOption           { return withTee(w) }
func WithNumbers(nr NumberReader) VMOption   { return withNumbers{nr} }
func WithCancel(cp CancelPoller) VMOption    { return withCancel{cp} }
func WithLogger(logger *zap.Logger) VMOption { return withLogger{logger} }
func WithProgram(st *program.Store) VMOption { return withProgram{st} }
func WithStackDepth(depth int) VMOption      { return withStackDepth(depth) }
