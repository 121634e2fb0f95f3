package vm

import (
	"fmt"
	"math/bits"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Status int

const (
	StatusReady Status = iota
	StatusRunning
	// stopped by a return instruction
	StatusHaltedValue
	// ran past the last instruction
	StatusHaltedNoValue
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusHaltedValue:
		return "halted"
	case StatusHaltedNoValue:
		return "halted (no value)"
	case StatusAborted:
		return "aborted"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) Terminal() bool {
	return s == StatusHaltedValue || s == StatusHaltedNoValue || s == StatusAborted
}

// Result is what a finished run leaves behind. Value is only meaningful
// when HasValue is set.
type Result struct {
	Value    uint64
	HasValue bool
	Steps    int
	Stack    []uint64
}

type VM struct {
	prog Program
	// instruction pointer
	ip int

	Stack *Stack
	vars  *Bindings

	logger    *zap.Logger
	tracer    Tracer
	stackOpts []StackOpt
	maxSteps  int

	steps    int
	status   Status
	value    uint64
	hasValue bool
	err      error
}

type VMOpt func(*VM) *VM

func LoggerOpt(l *zap.Logger) VMOpt {
	return func(vm *VM) *VM {
		vm.logger = l
		return vm
	}
}

func TracerOpt(t Tracer) VMOpt {
	return func(vm *VM) *VM {
		vm.tracer = t
		return vm
	}
}

// MaxStackOpt bounds the operand stack depth.
func MaxStackOpt(max int) VMOpt {
	return func(vm *VM) *VM {
		vm.stackOpts = append(vm.stackOpts, MaxStack(max))
		return vm
	}
}

// MaxStepsOpt aborts a run after n instructions. Zero means no limit.
func MaxStepsOpt(n int) VMOpt {
	return func(vm *VM) *VM {
		vm.maxSteps = n
		return vm
	}
}

func NewVM(prog Program, opts ...VMOpt) *VM {
	vm := &VM{
		prog:   prog,
		ip:     0,
		vars:   NewBindings(),
		logger: zap.L(),
	}

	for _, opt := range opts {
		vm = opt(vm)
	}

	vm.Stack = NewStack(vm.stackOpts...)
	vm.logger = vm.logger.Named("vm").With(
		zap.String("run", uuid.NewString()),
		zap.String("program", prog.Hash().Short()),
	)
	if vm.tracer == nil {
		vm.tracer = NewLogTracer(vm.logger)
	}

	return vm
}

func (vm *VM) Status() Status {
	return vm.status
}

// PC is the index of the next instruction to execute.
func (vm *VM) PC() int {
	return vm.ip
}

func (vm *VM) Bindings() *Bindings {
	return vm.vars
}

// Run executes until a return instruction, the end of the program or
// the first error. A VM runs once; afterwards Run returns ErrHalted.
func (vm *VM) Run() (*Result, error) {
	if vm.status.Terminal() {
		return nil, ErrHalted
	}

	vm.logger.Debug("run", zap.Int("instructions", len(vm.prog)))
	for !vm.status.Terminal() {
		if err := vm.Step(); err != nil {
			vm.logger.Debug("aborted", zap.Error(err))
			return nil, err
		}
	}

	res := vm.Result()
	vm.logger.Debug("halted",
		zap.Stringer("status", vm.status),
		zap.Int("steps", res.Steps),
	)
	return res, nil
}

// Step executes the instruction at the program counter.
func (vm *VM) Step() error {
	if vm.status.Terminal() {
		return ErrHalted
	}
	if vm.ip >= len(vm.prog) {
		vm.status = StatusHaltedNoValue
		return nil
	}
	vm.status = StatusRunning

	inst := vm.prog[vm.ip]
	if vm.maxSteps > 0 && vm.steps >= vm.maxSteps {
		return vm.abort(inst, fmt.Errorf("%w: %d", ErrStepLimit, vm.maxSteps))
	}

	next, err := vm.Exec(inst)
	if err != nil {
		return vm.abort(inst, err)
	}
	vm.steps++
	vm.ip = next

	vm.tracer.Trace(Snapshot{
		PC:     vm.ip,
		Inst:   inst,
		Stack:  vm.Stack.Values(),
		Locals: vm.vars.Locals(),
	})

	if vm.status == StatusRunning && vm.ip >= len(vm.prog) {
		vm.status = StatusHaltedNoValue
	}
	return nil
}

// Result reports the outcome so far.
func (vm *VM) Result() *Result {
	return &Result{
		Value:    vm.value,
		HasValue: vm.hasValue,
		Steps:    vm.steps,
		Stack:    vm.Stack.Values(),
	}
}

// Err is the error that aborted the run, if any.
func (vm *VM) Err() error {
	return vm.err
}

func (vm *VM) abort(inst Instruction, err error) error {
	vm.status = StatusAborted
	vm.err = &ExecError{Index: vm.ip, Inst: inst, Err: err}
	return vm.err
}

// Exec applies inst to the machine state and returns the index of the
// instruction to run next.
func (vm *VM) Exec(inst Instruction) (int, error) {
	next := vm.ip + 1

	switch inst.Op {
	case OpLoadConst:
		return next, vm.Stack.Push(inst.Value)

	case OpStoreVar:
		v, err := vm.Stack.Pop()
		if err != nil {
			return next, err
		}
		vm.vars.Put(inst.A, v)
		return next, nil

	case OpLoadVar:
		v, err := vm.vars.Get(inst.A)
		if err != nil {
			return next, err
		}
		return next, vm.Stack.Push(v)

	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		return next, vm.arith(inst.Op)

	case OpReturn:
		v, err := vm.Stack.Pop()
		if err != nil {
			return next, err
		}
		vm.value, vm.hasValue = v, true
		vm.status = StatusHaltedValue
		vm.logger.Debug("return", zap.Uint64("value", v))
		return next, nil

	case OpLoopIfLess:
		a, err := vm.vars.Get(inst.A)
		if err != nil {
			return next, err
		}
		b, err := vm.vars.Get(inst.B)
		if err != nil {
			return next, err
		}
		if a >= b {
			return next, nil
		}
		if inst.Target < 0 || inst.Target >= len(vm.prog) {
			return next, fmt.Errorf("%w: %d not in [0, %d)",
				ErrOutOfRangeTarget, inst.Target, len(vm.prog))
		}
		vm.logger.Debug("loop",
			zap.Uint64(string(rune(inst.A)), a),
			zap.Uint64(string(rune(inst.B)), b),
			zap.Int("target", inst.Target),
		)
		return inst.Target, nil
	}

	return next, fmt.Errorf("%w: opcode %d", ErrUnknownInstruction, inst.Op)
}

// arith pops the two top operands and pushes left op right, where left
// is the one pushed first. On error the stack is left as it was.
func (vm *VM) arith(op Opcode) error {
	if vm.Stack.Len() < 2 {
		return fmt.Errorf("%w: %s needs 2 operands, have %d", ErrEmptyStack, op, vm.Stack.Len())
	}
	left, _ := vm.Stack.read(vm.Stack.Len() - 2)
	right, _ := vm.Stack.read(vm.Stack.Len() - 1)

	var val uint64
	switch op {
	case OpAdd:
		sum, carry := bits.Add64(left, right, 0)
		if carry != 0 {
			return fmt.Errorf("%w: %d + %d", ErrOverflow, left, right)
		}
		val = sum
	case OpSubtract:
		if left < right {
			return fmt.Errorf("%w: %d - %d", ErrUnderflow, left, right)
		}
		val = left - right
	case OpMultiply:
		hi, lo := bits.Mul64(left, right)
		if hi != 0 {
			return fmt.Errorf("%w: %d * %d", ErrOverflow, left, right)
		}
		val = lo
	case OpDivide:
		if right == 0 {
			return fmt.Errorf("%w: %d / 0", ErrDivideByZero, left)
		}
		val = left / right
	}

	if _, _, err := vm.Stack.Pop2(); err != nil {
		return err
	}
	vm.logger.Debug(op.Keyword(),
		zap.Uint64("a", left),
		zap.Uint64("b", right),
		zap.Uint64("result", val),
	)
	return vm.Stack.Push(val)
}
