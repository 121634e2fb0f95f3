package vm

import (
	"errors"
	"fmt"
)

var (
	// decode time
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrMalformedOperand   = errors.New("malformed operand")

	// execution time
	ErrEmptyStack       = errors.New("stack empty")
	ErrUnboundVariable  = errors.New("unbound variable")
	ErrDivideByZero     = errors.New("divide by zero")
	ErrOutOfRangeTarget = errors.New("loop target out of range")
	ErrUnderflow        = errors.New("unsigned underflow")
	ErrOverflow         = errors.New("unsigned overflow")
	ErrStackOverflow    = errors.New("stack overflow")
	ErrStepLimit        = errors.New("step limit exceeded")
	ErrHalted           = errors.New("vm halted")
)

// DecodeError reports the source line that failed to decode.
type DecodeError struct {
	// 1-based
	Line int
	Text string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d %q: %s", e.Line, e.Text, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ExecError reports the instruction at which execution aborted.
type ExecError struct {
	Index int
	Inst  Instruction
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("instruction %d (%s): %s", e.Index, e.Inst, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
