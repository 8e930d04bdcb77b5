package instr

import (
	"fmt"
	"math"
	"strings"
)

// Op identifies an instruction.
type Op int

// Instruction opcodes.
const (
	Unknown Op = iota
	PrintT
	PrintV
	Push
	Pop
	Dup
	Add
	Sub
	Biz
	Binz
	In
	Jmp
	End

	// NumOps is the number of defined opcodes.
	NumOps
)

var opNames = [NumOps]string{
	Unknown: "unknown",
	PrintT:  "printt",
	PrintV:  "printv",
	Push:    "push",
	Pop:     "pop",
	Dup:     "dup",
	Add:     "add",
	Sub:     "sub",
	Biz:     "biz",
	Binz:    "binz",
	In:      "in",
	Jmp:     "jmp",
	End:     "end",
}

func (op Op) String() string {
	if op >= 0 && op < NumOps {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Branch returns true if the op names a target line.
func (op Op) Branch() bool { return op == Biz || op == Binz || op == Jmp }

// Instruction is one decoded program line.
type Instruction struct {
	Op Op

	// Arg holds the numeric operand of push, biz, binz, and jmp.
	Arg int

	// Literal holds the text operand of printt.
	Literal string

	// Text is the line source that was decoded.
	Text string
}

func (in Instruction) String() string {
	switch {
	case in.Op == PrintT:
		return fmt.Sprintf("%v %q", in.Op, in.Literal)
	case in.Op == Push, in.Op.Branch():
		return fmt.Sprintf("%v %d", in.Op, in.Arg)
	case in.Op == Unknown:
		return fmt.Sprintf("%v %q", in.Op, in.Text)
	}
	return in.Op.String()
}

// Forms are tried in order; prefix forms take an operand, the rest must match
// the whole line.
var forms = [...]struct {
	op     Op
	text   string
	prefix bool
}{
	{PrintT, `printt "`, true},
	{PrintV, "printv", true},
	{Push, "push ", true},
	{Pop, "pop", false},
	{Dup, "dup", false},
	{Add, "add", false},
	{Sub, "sub", false},
	{Biz, "biz ", true},
	{Binz, "binz ", true},
	{In, "in", false},
	{Jmp, "jmp ", true},
	{End, "end", false},
}

// Decode classifies a line of program text. Unrecognized text decodes to an
// Unknown instruction rather than an error; deciding what to do with it is up
// to the caller.
func Decode(text string) Instruction {
	in := Instruction{Text: text}
	for _, form := range forms {
		if form.prefix {
			if !strings.HasPrefix(text, form.text) {
				continue
			}
		} else if text != form.text {
			continue
		}

		in.Op = form.op
		rest := text[len(form.text):]
		switch form.op {
		case PrintT:
			if i := strings.IndexByte(rest, '"'); i >= 0 {
				rest = rest[:i]
			}
			in.Literal = rest
		case Push, Biz, Binz, Jmp:
			in.Arg = digits(rest)
		}
		return in
	}
	return in
}

// digits parses the leading run of ASCII digits in s; an empty run is 0, and
// a run too large for an int reads as math.MaxInt.
func digits(s string) (n int) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		d := int(c - '0')
		if n > (math.MaxInt-d)/10 {
			return math.MaxInt
		}
		n = n*10 + d
	}
	return n
}
