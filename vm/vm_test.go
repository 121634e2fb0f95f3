package vm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// counts i from 0 up to m, then returns i
var countLoop = Program{
	LoadConst(0),
	StoreVar('i'),
	LoadConst(3),
	StoreVar('m'),
	// loop body starts at 4
	LoadVar('i'),
	LoadConst(1),
	Add(),
	StoreVar('i'),
	LoopIfLess('i', 'm', 4),
	LoadVar('i'),
	Return(),
}

func TestVM_Run(t *testing.T) {
	type fields struct {
		prog   Program
		logger *zap.Logger
	}
	tests := []struct {
		name    string
		fields  fields
		wantErr error
		check   func(*testing.T, *VM, *Result)
	}{
		{
			name: "add 3 + 4",
			fields: fields{
				prog:   Program{LoadConst(3), LoadConst(4), Add(), Return()},
				logger: zap.Must(zap.NewDevelopment()),
			},
			check: checkAdd3_4,
		},
		{
			name: "subtract keeps push order",
			fields: fields{
				prog:   Program{LoadConst(10), LoadConst(4), Subtract(), Return()},
				logger: zap.NewNop(),
			},
			check: checkValue(6),
		},
		{
			name: "subtract equal",
			fields: fields{
				prog:   Program{LoadConst(4), LoadConst(4), Subtract(), Return()},
				logger: zap.NewNop(),
			},
			check: checkValue(0),
		},
		{
			name: "divide keeps push order",
			fields: fields{
				prog:   Program{LoadConst(20), LoadConst(5), Divide(), Return()},
				logger: zap.NewNop(),
			},
			check: checkValue(4),
		},
		{
			name: "divide truncates",
			fields: fields{
				prog:   Program{LoadConst(7), LoadConst(2), Divide(), Return()},
				logger: zap.NewNop(),
			},
			check: checkValue(3),
		},
		{
			name: "multiply",
			fields: fields{
				prog:   Program{LoadConst(6), LoadConst(7), Multiply(), Return()},
				logger: zap.NewNop(),
			},
			check: checkValue(42),
		},
		{
			name: "variables",
			fields: fields{
				prog: Program{
					LoadConst(5), StoreVar('x'),
					LoadConst(2), StoreVar('y'),
					LoadVar('x'), LoadVar('y'), Multiply(),
					LoadVar('x'), Add(),
					Return(),
				},
				logger: zap.NewNop(),
			},
			check: checkVariables,
		},
		{
			name: "count loop",
			fields: fields{
				prog:   countLoop,
				logger: zap.Must(zap.NewDevelopment()),
			},
			check: checkCountLoop,
		},
		{
			name: "loop not taken",
			fields: fields{
				prog: Program{
					LoadConst(5), StoreVar('i'),
					LoadConst(3), StoreVar('m'),
					LoopIfLess('i', 'm', 99),
					LoadVar('i'), Return(),
				},
				logger: zap.NewNop(),
			},
			check: checkValue(5),
		},
		{
			name: "loop body rebinds counter",
			fields: fields{
				prog: Program{
					LoadConst(0), StoreVar('n'),
					LoadVar('n'), LoadConst(1), Add(), StoreVar('n'),
					LoadConst(2), StoreVar('l'),
					LoopIfLess('n', 'l', 2),
					LoadVar('n'), Return(),
				},
				logger: zap.NewNop(),
			},
			check: checkValue(2),
		},
		{
			name: "fall off the end",
			fields: fields{
				prog:   Program{LoadConst(1), LoadConst(2)},
				logger: zap.NewNop(),
			},
			check: checkNoValue([]uint64{1, 2}),
		},
		{
			name: "empty program",
			fields: fields{
				logger: zap.NewNop(),
			},
			check: checkNoValue([]uint64{}),
		},
		{
			name: "return stops early",
			fields: fields{
				prog:   Program{LoadConst(1), LoadConst(2), Return(), LoadConst(3), Return()},
				logger: zap.NewNop(),
			},
			check: checkReturnStopsEarly,
		},

		{
			name: "divide by zero",
			fields: fields{
				prog:   Program{LoadConst(10), LoadConst(0), Divide()},
				logger: zap.NewNop(),
			},
			wantErr: ErrDivideByZero,
			check:   checkAbortedAt(2),
		},
		{
			name: "subtract underflow",
			fields: fields{
				prog:   Program{LoadConst(3), LoadConst(5), Subtract(), Return()},
				logger: zap.NewNop(),
			},
			wantErr: ErrUnderflow,
			check:   checkAbortedAt(2),
		},
		{
			name: "add overflow",
			fields: fields{
				prog:   Program{LoadConst(1<<64 - 1), LoadConst(1), Add()},
				logger: zap.NewNop(),
			},
			wantErr: ErrOverflow,
		},
		{
			name: "multiply overflow",
			fields: fields{
				prog:   Program{LoadConst(1 << 32), LoadConst(1 << 32), Multiply()},
				logger: zap.NewNop(),
			},
			wantErr: ErrOverflow,
		},
		{
			name: "add empty stack",
			fields: fields{
				prog:   Program{Add()},
				logger: zap.NewNop(),
			},
			wantErr: ErrEmptyStack,
			check:   checkStack([]uint64{}),
		},
		{
			name: "add single operand",
			fields: fields{
				prog:   Program{LoadConst(8), Add()},
				logger: zap.NewNop(),
			},
			wantErr: ErrEmptyStack,
			check:   checkStack([]uint64{8}),
		},
		{
			name: "store empty stack",
			fields: fields{
				prog:   Program{StoreVar('x')},
				logger: zap.NewNop(),
			},
			wantErr: ErrEmptyStack,
		},
		{
			name: "return empty stack",
			fields: fields{
				prog:   Program{Return()},
				logger: zap.NewNop(),
			},
			wantErr: ErrEmptyStack,
		},
		{
			name: "read unbound",
			fields: fields{
				prog:   Program{LoadVar('q')},
				logger: zap.NewNop(),
			},
			wantErr: ErrUnboundVariable,
		},
		{
			name: "loop unbound",
			fields: fields{
				prog:   Program{LoadConst(1), StoreVar('i'), LoopIfLess('i', 'm', 0)},
				logger: zap.NewNop(),
			},
			wantErr: ErrUnboundVariable,
			check:   checkAbortedAt(2),
		},
		{
			name: "loop target out of range",
			fields: fields{
				prog: Program{
					LoadConst(0), StoreVar('i'),
					LoadConst(1), StoreVar('m'),
					LoopIfLess('i', 'm', 5),
				},
				logger: zap.NewNop(),
			},
			wantErr: ErrOutOfRangeTarget,
			check:   checkAbortedAt(4),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := NewVM(tt.fields.prog, LoggerOpt(tt.fields.logger))
			res, err := vm.Run()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
				assert.Equal(t, StatusAborted, vm.Status())
			} else {
				require.NoError(t, err)
			}
			if tt.check != nil {
				tt.check(t, vm, res)
			}
		})
	}
}

func checkAdd3_4(t *testing.T, vm *VM, res *Result) {
	require.NotNil(t, res)
	assert.True(t, res.HasValue)
	assert.Equal(t, uint64(7), res.Value)
	assert.Empty(t, res.Stack)
	assert.Equal(t, 0, vm.Stack.Len())
	assert.Equal(t, 4, res.Steps)
	assert.Equal(t, StatusHaltedValue, vm.Status())
}

func checkValue(want uint64) func(*testing.T, *VM, *Result) {
	return func(t *testing.T, vm *VM, res *Result) {
		require.NotNil(t, res)
		assert.True(t, res.HasValue)
		assert.Equal(t, want, res.Value)
	}
}

func checkNoValue(stack []uint64) func(*testing.T, *VM, *Result) {
	return func(t *testing.T, vm *VM, res *Result) {
		require.NotNil(t, res)
		assert.False(t, res.HasValue)
		assert.Equal(t, stack, res.Stack)
		assert.Equal(t, StatusHaltedNoValue, vm.Status())
	}
}

func checkStack(want []uint64) func(*testing.T, *VM, *Result) {
	return func(t *testing.T, vm *VM, _ *Result) {
		assert.Equal(t, want, vm.Stack.Values())
	}
}

func checkAbortedAt(idx int) func(*testing.T, *VM, *Result) {
	return func(t *testing.T, vm *VM, _ *Result) {
		var execErr *ExecError
		require.True(t, errors.As(vm.Err(), &execErr))
		assert.Equal(t, idx, execErr.Index)
		assert.Equal(t, vm.prog[idx], execErr.Inst)
		assert.False(t, vm.Result().HasValue)
	}
}

func checkVariables(t *testing.T, vm *VM, res *Result) {
	require.NotNil(t, res)
	assert.Equal(t, uint64(15), res.Value)
	assert.Equal(t, 2, vm.Bindings().Len())

	x, err := vm.Bindings().Get('x')
	assert.NoError(t, err)
	// reads copy, the slot keeps its value
	assert.Equal(t, uint64(5), x)
}

func checkCountLoop(t *testing.T, vm *VM, res *Result) {
	require.NotNil(t, res)
	assert.Equal(t, uint64(3), res.Value)
	// 4 setup + 3 iterations of 5 + 2 tail
	assert.Equal(t, 4+3*5+2, res.Steps)
	assert.Equal(t, 2, vm.Bindings().Len())
	assert.Equal(t, []uint64{3, 3}, vm.Bindings().Locals())
}

func checkReturnStopsEarly(t *testing.T, vm *VM, res *Result) {
	require.NotNil(t, res)
	assert.Equal(t, uint64(2), res.Value)
	assert.Equal(t, []uint64{1}, res.Stack)
	assert.Equal(t, 3, vm.PC())
}

func TestVM_RunOnce(t *testing.T) {
	vm := NewVM(Program{LoadConst(1), Return()}, LoggerOpt(zap.NewNop()))
	_, err := vm.Run()
	require.NoError(t, err)

	_, err = vm.Run()
	assert.ErrorIs(t, err, ErrHalted)
	assert.ErrorIs(t, vm.Step(), ErrHalted)
}

func TestVM_AbortIsFinal(t *testing.T) {
	vm := NewVM(Program{Add(), LoadConst(1), Return()}, LoggerOpt(zap.NewNop()))
	_, err := vm.Run()
	assert.ErrorIs(t, err, ErrEmptyStack)

	assert.ErrorIs(t, vm.Step(), ErrHalted)
	assert.Equal(t, 0, vm.PC())
}

func TestVM_Step(t *testing.T) {
	vm := NewVM(Program{LoadConst(3), LoadConst(4), Add(), Return()}, LoggerOpt(zap.NewNop()))
	assert.Equal(t, StatusReady, vm.Status())

	require.NoError(t, vm.Step())
	require.NoError(t, vm.Step())
	assert.Equal(t, StatusRunning, vm.Status())
	assert.Equal(t, []uint64{3, 4}, vm.Stack.Values())
	assert.Equal(t, 2, vm.PC())

	require.NoError(t, vm.Step())
	assert.Equal(t, []uint64{7}, vm.Stack.Values())

	require.NoError(t, vm.Step())
	assert.Equal(t, StatusHaltedValue, vm.Status())
	assert.Equal(t, uint64(7), vm.Result().Value)
}

func TestVM_MaxSteps(t *testing.T) {
	// i never reaches m
	prog := Program{
		LoadConst(0), StoreVar('i'),
		LoadConst(1), StoreVar('m'),
		LoopIfLess('i', 'm', 4),
	}
	vm := NewVM(prog, LoggerOpt(zap.NewNop()), MaxStepsOpt(50))
	_, err := vm.Run()
	assert.ErrorIs(t, err, ErrStepLimit)
	assert.Equal(t, 50, vm.Result().Steps)
}

func TestVM_MaxStack(t *testing.T) {
	vm := NewVM(Program{LoadConst(1), LoadConst(2), LoadConst(3)},
		LoggerOpt(zap.NewNop()), MaxStackOpt(2))
	_, err := vm.Run()
	assert.ErrorIs(t, err, ErrStackOverflow)

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 2, execErr.Index)
}

func TestVM_SubtractLaw(t *testing.T) {
	pairs := [][2]uint64{{0, 0}, {1, 0}, {9, 3}, {100, 99}, {1<<64 - 1, 1}}
	for _, p := range pairs {
		vm := NewVM(Program{LoadConst(p[0]), LoadConst(p[1]), Subtract(), Return()},
			LoggerOpt(zap.NewNop()))
		res, err := vm.Run()
		require.NoError(t, err)
		assert.Equal(t, p[0]-p[1], res.Value)
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "aborted", StatusAborted.String())
	assert.True(t, StatusHaltedNoValue.Terminal())
	assert.False(t, StatusRunning.Terminal())
}
