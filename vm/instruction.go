package vm

import (
	"fmt"
	"strconv"
)

type Opcode byte

const (
	OpLoadConst Opcode = iota + 1
	OpStoreVar
	OpLoadVar
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpLoopIfLess
	OpReturn
)

var keywords = map[Opcode]string{
	OpLoadConst:  "LOAD_VAL",
	OpStoreVar:   "WRITE_VAR",
	OpLoadVar:    "READ_VAR",
	OpAdd:        "ADD",
	OpSubtract:   "SUBTRACT",
	OpMultiply:   "MULTIPLY",
	OpDivide:     "DIVIDE",
	OpLoopIfLess: "DO_WHILE_LT",
	OpReturn:     "RETURN_VALUE",
}

var opcodes = func() map[string]Opcode {
	m := make(map[string]Opcode, len(keywords))
	for op, kw := range keywords {
		m[kw] = op
	}
	return m
}()

// Keyword returns the textual mnemonic of the opcode.
func (op Opcode) Keyword() string {
	kw, ok := keywords[op]
	if !ok {
		return fmt.Sprintf("Opcode(%d)", byte(op))
	}
	return kw
}

func (op Opcode) String() string {
	return op.Keyword()
}

// Var is a single character variable name.
type Var rune

// the marker written in front of (and behind) a name when encoding
const varMarker = '\''

func (v Var) String() string {
	return string([]rune{varMarker, rune(v), varMarker})
}

// Instruction is one decoded program step. Only the fields relevant
// to Op are set; use the constructors rather than literals.
type Instruction struct {
	Op     Opcode
	Value  uint64
	A      Var
	B      Var
	Target int
}

func LoadConst(v uint64) Instruction { return Instruction{Op: OpLoadConst, Value: v} }
func StoreVar(name Var) Instruction  { return Instruction{Op: OpStoreVar, A: name} }
func LoadVar(name Var) Instruction   { return Instruction{Op: OpLoadVar, A: name} }
func Add() Instruction               { return Instruction{Op: OpAdd} }
func Subtract() Instruction          { return Instruction{Op: OpSubtract} }
func Multiply() Instruction          { return Instruction{Op: OpMultiply} }
func Divide() Instruction            { return Instruction{Op: OpDivide} }
func Return() Instruction            { return Instruction{Op: OpReturn} }

// LoopIfLess jumps to target while a < b.
func LoopIfLess(a, b Var, target int) Instruction {
	return Instruction{Op: OpLoopIfLess, A: a, B: b, Target: target}
}

// String encodes the instruction in its canonical textual form, which
// DecodeLine accepts.
func (i Instruction) String() string {
	switch i.Op {
	case OpLoadConst:
		return i.Op.Keyword() + " " + strconv.FormatUint(i.Value, 10)
	case OpStoreVar, OpLoadVar:
		return i.Op.Keyword() + " " + i.A.String()
	case OpLoopIfLess:
		return fmt.Sprintf("%s %s %s %d", i.Op.Keyword(), i.A, i.B, i.Target)
	default:
		return i.Op.Keyword()
	}
}
