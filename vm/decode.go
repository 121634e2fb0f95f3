package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// DecodeLine turns one line of program text into an Instruction.
func DecodeLine(line string) (Instruction, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Instruction{}, fmt.Errorf("%w: %q", ErrUnknownInstruction, line)
	}

	op, ok := opcodes[fields[0]]
	if !ok {
		return Instruction{}, fmt.Errorf("%w: %q", ErrUnknownInstruction, line)
	}

	args := fields[1:]
	switch op {
	case OpLoadConst:
		if err := wantArgs(op, args, 1); err != nil {
			return Instruction{}, err
		}
		v, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return Instruction{}, fmt.Errorf("%w: %s value %q", ErrMalformedOperand, op, args[0])
		}
		return LoadConst(v), nil

	case OpStoreVar, OpLoadVar:
		if err := wantArgs(op, args, 1); err != nil {
			return Instruction{}, err
		}
		name, err := parseVar(args[0])
		if err != nil {
			return Instruction{}, err
		}
		if op == OpStoreVar {
			return StoreVar(name), nil
		}
		return LoadVar(name), nil

	case OpLoopIfLess:
		if err := wantArgs(op, args, 3); err != nil {
			return Instruction{}, err
		}
		a, err := parseVar(args[0])
		if err != nil {
			return Instruction{}, err
		}
		b, err := parseVar(args[1])
		if err != nil {
			return Instruction{}, err
		}
		target, err := strconv.ParseUint(args[2], 10, 31)
		if err != nil {
			return Instruction{}, fmt.Errorf("%w: %s target %q", ErrMalformedOperand, op, args[2])
		}
		return LoopIfLess(a, b, int(target)), nil

	default:
		if err := wantArgs(op, args, 0); err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op}, nil
	}
}

// Decode decodes lines in order; the index of an instruction in the
// returned program is the index of its line.
func Decode(lines []string) (Program, error) {
	prog := make(Program, 0, len(lines))
	for i, line := range lines {
		inst, err := DecodeLine(line)
		if err != nil {
			return nil, &DecodeError{Line: i + 1, Text: line, Err: err}
		}
		prog = append(prog, inst)
	}
	return prog, nil
}

func wantArgs(op Opcode, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: %s takes %d operand(s), got %d",
			ErrMalformedOperand, op, n, len(args))
	}
	return nil
}

// parseVar reads a variable token: a marker rune followed by the
// one rune name, optionally closed by the same marker ($x or 'x').
func parseVar(tok string) (Var, error) {
	r := []rune(tok)
	switch {
	case len(r) < 2:
		return 0, fmt.Errorf("%w: variable %q too short", ErrMalformedOperand, tok)
	case len(r) > 3:
		return 0, fmt.Errorf("%w: variable %q too long", ErrMalformedOperand, tok)
	case len(r) == 3 && r[2] != r[0]:
		return 0, fmt.Errorf("%w: variable %q has mismatched marker", ErrMalformedOperand, tok)
	}
	return Var(r[1]), nil
}
