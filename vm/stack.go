package vm

import (
	"fmt"
)

// Stack is the operand stack. It is owned by a single VM and is not
// safe for concurrent use.
type Stack struct {
	data []uint64
	ptr  int

	depth int
}

type StackOpt func(*Stack) *Stack

func MaxStack(max int) StackOpt {
	return func(s *Stack) *Stack {
		s.depth = max
		return s
	}
}

func NewStack(opts ...StackOpt) *Stack {
	s := &Stack{
		ptr:   0,
		depth: 1024,
	}
	for _, opt := range opts {
		s = opt(s)
	}
	s.data = make([]uint64, s.depth)
	return s
}

func (s *Stack) Push(v uint64) error {
	if s.ptr == s.depth {
		return fmt.Errorf("%w: depth %d", ErrStackOverflow, s.depth)
	}

	s.data[s.ptr] = v
	s.ptr += 1

	return nil
}

func (s *Stack) Pop() (uint64, error) {
	if s.Empty() {
		return 0, ErrEmptyStack
	}

	// ptr is at the next write slot, one ahead of the read slot
	v := s.data[s.ptr-1]
	s.ptr -= 1

	return v, nil
}

// Pop2 removes the top two values, returning them in push order. If
// fewer than two are present the stack is left untouched.
func (s *Stack) Pop2() (first, second uint64, err error) {
	if s.ptr < 2 {
		return 0, 0, fmt.Errorf("%w: need 2 operands, have %d", ErrEmptyStack, s.ptr)
	}
	first, second = s.data[s.ptr-2], s.data[s.ptr-1]
	s.ptr -= 2
	return first, second, nil
}

func (s *Stack) Empty() bool {
	return s.ptr == 0
}

func (s *Stack) Len() int {
	return s.ptr
}

func (s *Stack) Peek() (uint64, error) {
	return s.read(s.Len() - 1)
}

// Values copies the live part of the stack, bottom first.
func (s *Stack) Values() []uint64 {
	out := make([]uint64, s.ptr)
	copy(out, s.data[:s.ptr])
	return out
}

func (s *Stack) read(pos int) (uint64, error) {
	if pos >= s.Len() || pos < 0 {
		return 0, fmt.Errorf("read out of range len %d, pos %d", s.Len(), pos)
	}

	return s.data[pos], nil
}
