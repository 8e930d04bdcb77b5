package main

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jcorbin/egbasic/internal/logio"
	"github.com/jcorbin/egbasic/internal/program"
)

func TestVM_arithmetic(t *testing.T) {
	vmTestCases{
		vmTest("sub is second minus top").withProgram(
			"10 push 10",
			"20 push 3",
			"30 sub",
			"40 printv",
			"50 end",
		).apply(expectVMOutput("7\n"), expectVMStack(7)),

		vmTest("sub can go negative").withProgram(
			"10 push 3",
			"20 push 10",
			"30 sub",
			"40 printv",
		).apply(expectVMOutput("-7\n"), expectVMStack(-7)),

		vmTest("add").withProgram(
			"10 push 2",
			"20 push 3",
			"30 add",
			"40 printv",
		).apply(expectVMOutput("5\n"), expectVMStack(5)),

		vmTest("dup").withProgram(
			"10 push 4",
			"20 dup",
			"30 add",
			"40 printv",
		).apply(expectVMOutput("8\n"), expectVMStack(8)),

		vmTest("pop").withProgram(
			"10 push 1",
			"20 push 2",
			"30 pop",
		).apply(expectVMOutput(""), expectVMStack(1)),

		vmTest("push operand is leading digits").withProgram(
			"10 push 12abc",
			"20 push x",
		).apply(expectVMStack(12, 0)),
	}.run(t)
}

func TestVM_output(t *testing.T) {
	vmTestCases{
		vmTest("printt").withProgram(
			`10 printt "Hello, World!"`,
		).expectOutput("Hello, World!\n"),

		vmTest("printt stops at the closing quote").withProgram(
			`10 printt "A" B`,
			`20 printt "unclosed`,
		).expectOutput("A\nunclosed\n"),

		vmTest("printv peeks").withProgram(
			"10 push 9",
			"20 printv",
			"30 printv",
		).expectOutput("9\n9\n").expectStack(9),

		vmTest("empty program").expectOutput("").expectPC(0),
	}.run(t)
}

func TestVM_control(t *testing.T) {
	vmTestCases{
		vmTest("biz taken").withProgram(
			"10 push 0",
			"20 biz 40",
			`30 printt "A"`,
			"35 end",
			`40 printt "B"`,
			"50 end",
		).expectOutput("B\n").expectStack(0).expectPC(5),

		vmTest("biz not taken").withProgram(
			"10 push 1",
			"20 biz 40",
			`30 printt "A"`,
			"35 end",
			`40 printt "B"`,
			"50 end",
		).expectOutput("A\n").expectStack(1).expectPC(3),

		vmTest("binz countdown").withProgram(
			"10 push 3",
			"20 printv",
			"30 push 1",
			"40 sub",
			"50 binz 20",
			"60 end",
		).expectOutput("3\n2\n1\n").withTestOutput().expectStack(0),

		vmTest("jmp skips").withProgram(
			"10 jmp 30",
			`20 printt "skipped"`,
			`30 printt "done"`,
		).expectOutput("done\n"),

		vmTest("end stops").withProgram(
			`10 printt "A"`,
			"20 end",
			`30 printt "B"`,
		).expectOutput("A\n").expectPC(1),

		vmTest("falls off the end").withProgram(
			"10 push 1",
			"20 push 2",
		).expectPC(2).expectStack(1, 2),

		vmTest("jmp to a missing line").withProgram(
			"10 push 5",
			"20 jmp 999",
			`30 printt "no"`,
		).apply(
			expectVMFault(ErrLineNotFound),
			expectVMOutput("Error: line 999 not found\n"),
			expectVMStack(5),
			expectVMPC(1),
		),

		vmTest("biz to a missing line").withProgram(
			"10 push 0",
			"20 biz 15",
		).apply(
			expectVMFault(ErrLineNotFound),
			expectVMOutput("Error: line 15 not found\n"),
		),
	}.run(t)
}

func TestVM_errors(t *testing.T) {
	vmTestCases{
		vmTest("unknown instruction").withProgram(
			"10 push 1",
			"20 frob",
			`30 printt "no"`,
		).apply(
			expectVMFault(ErrUnknownInstruction),
			expectVMOutput("Unknown: frob\n"),
			expectVMPC(1),
		),

		vmTest("empty line is unknown").withProgram(
			"10 ",
		).apply(
			expectVMFault(ErrUnknownInstruction),
			expectVMOutput("Unknown: \n"),
		),

		vmTest("pop underflow continues").withProgram(
			"10 pop",
			`20 printt "after"`,
		).expectOutput("Stack Underflow\nafter\n").expectStack(),

		vmTest("add underflow pushes zero").withProgram(
			"10 add",
		).expectOutput("Stack Underflow\nStack Underflow\n").expectStack(0),

		vmTest("printv empty").withProgram(
			"10 printv",
		).expectOutput("Stack is empty\n0\n").expectStack(),

		vmTest("dup empty").withProgram(
			"10 dup",
		).expectOutput("Stack is empty\n").expectStack(0),

		vmTest("push overflow drops the value").withOptions(WithStackDepth(2)).withProgram(
			"10 push 1",
			"20 push 2",
			"30 push 3",
			"40 printv",
		).expectOutput("Stack Overflow\n2\n").expectStack(1, 2),
	}.run(t)
}

func TestVM_input(t *testing.T) {
	vmTestCases{
		vmTest("in pushes").withNumbers(6, 7).withProgram(
			"10 in",
			"20 in",
			"30 add",
			"40 printv",
		).expectOutput("13\n").expectStack(13),

		vmTest("in at end of input").withNumbers().withProgram(
			"10 push 1",
			"20 in",
		).expectError(errInputClosed).expectStack(1).expectPC(1),

		vmTest("in without a reader").withProgram(
			"10 in",
		).expectError(errNoInput),
	}.run(t)
}

func TestVM_cancel(t *testing.T) {
	vmTestCases{
		vmTest("cancel before the next instruction").withCancelAfter(2).withProgram(
			`10 printt "A"`,
			`20 printt "B"`,
			`30 printt "C"`,
		).apply(
			expectVMFault(ErrInterrupted),
			expectVMOutput("A\nB\nprogram interrupted by 'c'\n"),
			expectVMPC(2),
		),

		vmTest("cancel an infinite loop").withCancelAfter(1000).withProgram(
			"10 jmp 10",
		).apply(
			expectVMFault(ErrInterrupted),
			expectVMOutput("program interrupted by 'c'\n"),
		),

		vmTest("context deadline").withTimeout(10 * time.Millisecond).withProgram(
			"10 jmp 10",
		).expectError(context.DeadlineExceeded),
	}.run(t)
}

func TestVM_rerun(t *testing.T) {
	var out strings.Builder
	var st program.Store
	st.Put(10, "push 10")
	st.Put(20, "push 3")
	st.Put(30, "sub")
	st.Put(40, "printv")

	vm := New(WithOutput(&out), WithProgram(&st), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, vm.Run(context.Background()))
	require.NoError(t, vm.Run(context.Background()))
	assert.Equal(t, "7\n7\n", out.String())
	assert.Equal(t, []int{7}, vm.Stack(), "stack reset by each run")

	st.Put(40, "jmp 1")
	err := vm.Run(context.Background())
	assert.True(t, IsFault(err), "expected fault, got %v", err)
	assert.Equal(t, "7\n7\nError: line 1 not found\n", out.String())
	assert.EqualError(t, err, "line 40: line 1 not found")

	st.Put(40, "printv")
	require.NoError(t, vm.Run(context.Background()), "runs again after a fault")
	assert.Same(t, &st, vm.Program())
}

func TestVM_dump(t *testing.T) {
	vmTest("dump").withProgram(
		"10 push 1",
		"20 end",
	).expectDump(lines(
		"# VM Dump",
		"  pc: 1",
		"  stack: [1]",
		"# Program (2 lines)",
		"    10 push 1",
		"  > 20 end",
	)).run(t)
}

type vmTestCases []vmTestCase

func (vmts vmTestCases) run(t *testing.T) {
	{
		var exclusive []vmTestCase
		for _, vmt := range vmts {
			if vmt.exclusive {
				exclusive = append(exclusive, vmt)
			}
		}
		if len(exclusive) > 0 {
			vmts = exclusive
		}
	}
	for _, vmt := range vmts {
		if !t.Run(vmt.name, vmt.run) {
			return
		}
	}
}

func vmTest(name string) (vmt vmTestCase) {
	vmt.name = name
	return vmt
}

type vmTestCase struct {
	name      string
	opts      []interface{}
	expect    []func(t *testing.T, vm *VM)
	timeout   time.Duration
	wantErr   error
	wantFault bool

	exclusive bool
}

func (vmt vmTestCase) apply(wraps ...func(vmTestCase) vmTestCase) vmTestCase {
	for _, wrap := range wraps {
		vmt = wrap(vmt)
	}
	return vmt
}

func (vmt vmTestCase) exclusiveTest() vmTestCase {
	vmt.exclusive = true
	return vmt
}

func (vmt vmTestCase) withOptions(opts ...VMOption) vmTestCase {
	for _, opt := range opts {
		vmt.opts = append(vmt.opts, opt)
	}
	return vmt
}

// withProgram stores lines given like "10 push 1" into the VM's program.
func (vmt vmTestCase) withProgram(lines ...string) vmTestCase {
	vmt.opts = append(vmt.opts, optFunc(func(vm *VM) {
		for _, line := range lines {
			num, text, _ := strings.Cut(line, " ")
			n, err := strconv.Atoi(num)
			if err != nil {
				panic(err)
			}
			vm.store.Put(n, text)
		}
	}))
	return vmt
}

func (vmt vmTestCase) withStackDepth(depth int) vmTestCase {
	vmt.opts = append(vmt.opts, WithStackDepth(depth))
	return vmt
}

func (vmt vmTestCase) withNumbers(numbers ...int) vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		nq := numberQueue(append([]int(nil), numbers...))
		return WithNumbers(&nq)
	})
	return vmt
}

func (vmt vmTestCase) withCancelAfter(polls int) vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		return WithCancel(&cancelAfter{polls: polls, key: 'c'})
	})
	return vmt
}

func (vmt vmTestCase) withTimeout(timeout time.Duration) vmTestCase {
	vmt.timeout = timeout
	return vmt
}

// withTestOutput tees the output chosen so far into the test log.
func (vmt vmTestCase) withTestOutput() vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		return WithTee(&logio.Writer{Logf: t.Logf, Prefix: "out: "})
	})
	return vmt
}

func (vmt vmTestCase) expectError(err error) vmTestCase {
	vmt.wantErr = err
	return vmt
}

func (vmt vmTestCase) expectFault(err error) vmTestCase {
	vmt.wantErr = err
	vmt.wantFault = true
	return vmt
}

func (vmt vmTestCase) expectPC(pc int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, pc, vm.pc, "expected program counter")
	})
	return vmt
}

func (vmt vmTestCase) expectStack(values ...int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		if values == nil {
			values = []int{}
		}
		assert.Equal(t, values, vm.Stack(), "expected stack values")
	})
	return vmt
}

func (vmt vmTestCase) expectOutput(output string) vmTestCase {
	var out strings.Builder
	vmt.opts = append(vmt.opts, WithOutput(&out))
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, output, out.String(), "expected output")
	})
	return vmt
}

func (vmt vmTestCase) expectDump(dump string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		var out strings.Builder
		vmDumper{
			vm:  vm,
			out: &out,
		}.dump()
		assert.Equal(t, dump, out.String(), "expected dump")
	})
	return vmt
}

func (vmt vmTestCase) run(t *testing.T) {
	defer func(then time.Time) {
		label := "PASS"
		if t.Failed() {
			label = "FAIL"
		}
		t.Logf("%v\t%v\t%v", label, t.Name(), time.Since(then))
	}(time.Now())

	const defaultTimeout = time.Second
	timeout := vmt.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	vm := vmt.buildVM(t)
	defer func() {
		if t.Failed() {
			vmt.dumpToTest(t, vm)
		}
	}()

	err := vm.Run(ctx)
	if vmt.wantErr != nil {
		assert.True(t, errors.Is(err, vmt.wantErr), "expected error: %v\ngot: %+v", vmt.wantErr, err)
		if vmt.wantFault {
			assert.True(t, IsFault(err), "expected a program fault, got: %+v", err)
		}
	} else {
		assert.NoError(t, err, "unexpected VM run error")
	}

	if !t.Failed() {
		for _, expect := range vmt.expect {
			expect(t, vm)
		}
	}
}

func (vmt vmTestCase) buildVM(t *testing.T) *VM {
	opt := WithLogger(zaptest.NewLogger(t))
	for _, o := range vmt.opts {
		switch impl := o.(type) {
		case func(vmt *vmTestCase, t *testing.T) VMOption:
			opt = VMOptions(opt, impl(&vmt, t))
		case VMOption:
			opt = VMOptions(opt, impl)
		default:
			t.Logf("unsupported vmTestCase opt type %T", o)
			t.FailNow()
		}
	}
	return New(opt)
}

func (vmt vmTestCase) dumpToTest(t *testing.T, vm *VM) {
	lw := logio.Writer{Logf: t.Logf}
	defer lw.Close()
	vmDumper{vm: vm, out: &lw}.dump()
}

//// utilities

type numberQueue []int

func (nq *numberQueue) ReadNumber() (int, error) {
	if len(*nq) == 0 {
		return 0, io.EOF
	}
	n := (*nq)[0]
	*nq = (*nq)[1:]
	return n, nil
}

// cancelAfter reports cancellation once it has been polled polls times.
type cancelAfter struct {
	polls int
	key   rune
}

func (ca *cancelAfter) PollCancel() bool {
	if ca.polls <= 0 {
		return true
	}
	ca.polls--
	return false
}

func (ca *cancelAfter) CancelKey() rune { return ca.key }

func lines(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}
