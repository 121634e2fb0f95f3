package vm

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Snapshot is the machine state right after an instruction ran.
type Snapshot struct {
	// PC is the index of the next instruction
	PC     int
	Inst   Instruction
	Stack  []uint64
	Locals []uint64
}

// Tracer observes execution. It cannot influence it.
type Tracer interface {
	Trace(Snapshot)
}

type NopTracer struct{}

func (NopTracer) Trace(Snapshot) {}

type LogTracer struct {
	logger *zap.Logger
}

func NewLogTracer(l *zap.Logger) *LogTracer {
	return &LogTracer{
		logger: l,
	}
}

func (t *LogTracer) Trace(s Snapshot) {
	t.logger.Debug("step",
		zap.Int("pc", s.PC),
		zap.Stringer("inst", s.Inst),
		zap.Uint64s("op_stack", s.Stack),
		zap.Uint64s("local_stack", s.Locals),
	)
}

// WriterTracer prints a plain text dump of every step.
type WriterTracer struct {
	w io.Writer
}

func NewWriterTracer(w io.Writer) *WriterTracer {
	return &WriterTracer{
		w: w,
	}
}

func (t *WriterTracer) Trace(s Snapshot) {
	fmt.Fprintf(t.w, "Program Counter: %d\n", s.PC)
	fmt.Fprintf(t.w, "Instruction: %s\n", s.Inst)
	fmt.Fprintf(t.w, "op_stack: %v\n", s.Stack)
	fmt.Fprintf(t.w, "local_stack: %v\n\n", s.Locals)
}
