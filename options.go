package main

import (
	"io"

	"go.uber.org/zap"

	"github.com/jcorbin/egbasic/internal/flushio"
	"github.com/jcorbin/egbasic/internal/program"
)

// VMOption configures a VM under New.
type VMOption interface{ apply(vm *VM) }

var defaultOptions = VMOptions(
	withOutput(io.Discard),
	withLogger{zap.NewNop()},
	optFunc(func(vm *VM) { vm.store = &program.Store{} }),
)

// VMOptions combines options into one, applied in order; nil options are
// skipped.
func VMOptions(opts ...VMOption) VMOption {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, impl)
		}
	}
	if len(res) == 1 {
		return res[0]
	}
	return res
}

type options []VMOption

func (opts options) apply(vm *VM) {
	for _, opt := range opts {
		opt.apply(vm)
	}
}

type optFunc func(vm *VM)

func (f optFunc) apply(vm *VM) { f(vm) }

type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }
type withNumbers struct{ NumberReader }
type withCancel struct{ CancelPoller }
type withLogger struct{ *zap.Logger }
type withProgram struct{ *program.Store }
type withStackDepth int

func withOutput(w io.Writer) outputOption { return outputOption{w} }
func withTee(w io.Writer) teeOption       { return teeOption{w} }

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		vm.out.Flush()
	}
	vm.out = flushio.NewWriteFlusher(o.Writer)
}

func (o teeOption) apply(vm *VM) {
	vm.out = flushio.Tee(vm.out, flushio.NewWriteFlusher(o.Writer))
}

func (o withNumbers) apply(vm *VM) { vm.numbers = o.NumberReader }
func (o withCancel) apply(vm *VM)  { vm.cancel = o.CancelPoller }

func (o withLogger) apply(vm *VM) {
	if o.Logger == nil {
		vm.logger = zap.NewNop()
	} else {
		vm.logger = o.Logger
	}
}

func (o withProgram) apply(vm *VM) {
	if o.Store != nil {
		vm.store = o.Store
	}
}

func (depth withStackDepth) apply(vm *VM) { vm.stack.Depth = int(depth) }
