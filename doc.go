/*
Package main: EG-Basic -- a line-numbered stack machine

EG-Basic is a tiny scripting language for a bare command shell. A program is a
list of numbered lines; each line holds exactly one instruction, stored as the
text the operator typed. Lines are kept sorted by number, and entering a line
number that already exists replaces that line.

The machine has one bounded stack of integers and no other storage. Every
instruction either manipulates that stack, writes output, reads a number, or
moves the program counter. The program counter is an index into the sorted
lines, not a line number: branch instructions name a line number, which is
looked up to find the next index.

Section 1: Instructions

Each instruction is recognized by a fixed prefix, case sensitively. Numeric
operands are the run of digits right after the keyword and one space.

	printt "text"   write text (up to the closing quote) and a newline
	printv          write the top of the stack in decimal and a newline
	push N          push N
	pop             discard the top of the stack
	dup             push a copy of the top of the stack
	add             pop b, pop a, push a+b
	sub             pop a, pop b, push b-a
	biz N           go to line N if the top of the stack is zero
	binz N          go to line N if the top of the stack is not zero
	in              read a number from the keyboard and push it
	jmp N           go to line N
	end             stop

Note that sub subtracts the top of the stack from the value beneath it, so
"push 10, push 3, sub" leaves 7. The conditional branches peek; they do not
consume the value they test.

Section 2: Errors

Stack errors are never fatal: popping an empty stack reports "Stack Underflow"
and yields 0, pushing onto a full stack reports "Stack Overflow" and drops the
value, and reading the top of an empty stack reports "Stack is empty" and
yields 0.

A branch to a line that does not exist, or a line that is not an
instruction, reports an error and stops the program. So does pressing the
cancel key (c by default) while a program runs.

Section 3: The shell

	<N> <instruction>   add or replace line N
	list                show the program
	run                 run the program from its first line
	new                 erase the program
	help                show this summary
	exit                leave the shell

Script files named on the command line are read as shell input before the
keyboard.
*/
package main
