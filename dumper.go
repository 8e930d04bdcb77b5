package main

import (
	"fmt"
	"io"
	"strconv"
)

type vmDumper struct {
	vm  *VM
	out io.Writer

	numWidth int
}

func (dump vmDumper) dump() {
	fmt.Fprintf(dump.out, "# VM Dump\n")
	fmt.Fprintf(dump.out, "  pc: %v\n", dump.vm.pc)
	dump.dumpStack()
	dump.dumpProg()
}

func (dump *vmDumper) dumpStack() {
	fmt.Fprintf(dump.out, "  stack: %v\n", dump.vm.stack.Values())
}

func (dump *vmDumper) dumpProg() {
	prog := dump.vm.prog
	if prog == nil && dump.vm.store != nil {
		prog = dump.vm.store.Lines()
	}
	fmt.Fprintf(dump.out, "# Program (%v lines)\n", len(prog))

	if dump.numWidth == 0 {
		for _, ln := range prog {
			if w := len(strconv.Itoa(ln.Number)); w > dump.numWidth {
				dump.numWidth = w
			}
		}
	}
	for i, ln := range prog {
		mark := " "
		if i == dump.vm.pc {
			mark = ">"
		}
		fmt.Fprintf(dump.out, "  %v %*d %v\n", mark, dump.numWidth, ln.Number, ln.Text)
	}
}
