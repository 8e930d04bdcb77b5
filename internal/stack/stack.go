package stack

import "errors"

// DefaultDepth is the default number of usable stack slots.
const DefaultDepth = 127

// Errors reported by Stack operations; none of them leave the stack in an
// unusable state.
var (
	ErrOverflow  = errors.New("Stack Overflow")
	ErrUnderflow = errors.New("Stack Underflow")
	ErrEmpty     = errors.New("Stack is empty")
)

// Stack is a bounded LIFO of ints. Peek and Pop both refer to the most
// recently pushed value.
//
// The zero value is an empty stack with DefaultDepth slots.
type Stack struct {
	// Depth limits the number of values held; values pushed beyond it are dropped.
	Depth int

	data []int
}

// Cap returns the number of usable slots.
func (s *Stack) Cap() int {
	if s.Depth > 0 {
		return s.Depth
	}
	return DefaultDepth
}

// Len returns the number of values on the stack.
func (s *Stack) Len() int { return len(s.data) }

// Push adds val to the top of the stack, or drops it and returns ErrOverflow
// if the stack is full.
func (s *Stack) Push(val int) error {
	if len(s.data) >= s.Cap() {
		return ErrOverflow
	}
	s.data = append(s.data, val)
	return nil
}

// Pop removes and returns the top value, or returns 0 and ErrUnderflow if the
// stack is empty.
func (s *Stack) Pop() (int, error) {
	i := len(s.data) - 1
	if i < 0 {
		return 0, ErrUnderflow
	}
	val := s.data[i]
	s.data = s.data[:i]
	return val, nil
}

// Peek returns the top value without removing it, or returns 0 and ErrEmpty
// if the stack is empty.
func (s *Stack) Peek() (int, error) {
	i := len(s.data) - 1
	if i < 0 {
		return 0, ErrEmpty
	}
	return s.data[i], nil
}

// Reset empties the stack, retaining its storage.
func (s *Stack) Reset() { s.data = s.data[:0] }

// Values returns a copy of the stack values, bottom first.
func (s *Stack) Values() []int {
	return append([]int{}, s.data...)
}
