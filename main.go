// Command stackvm loads a program file and runs it.
//
//	stackvm [program]
//
// stackvm.yaml in the working directory is read when present. The
// optional argument overrides the configured program path.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/krehermann/stackvm/config"
	"github.com/krehermann/stackvm/vm"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(config.FileName)
	if err != nil {
		log.Fatalf("%s", err)
	}
	if len(os.Args) > 1 {
		cfg.Program = os.Args[1]
	}

	l, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("%s", err)
	}
	zap.ReplaceGlobals(l)

	err = run(cfg, l, os.Stdout)
	if err != nil {
		l.Error("run failed", zap.Error(err))
	}
	l.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func run(cfg *config.Config, l *zap.Logger, out io.Writer) error {
	f, err := os.Open(cfg.Program)
	if err != nil {
		return fmt.Errorf("open program: %w", err)
	}
	defer f.Close()

	var prog vm.Program
	if err := vm.NewTextDecoder(f).Decode(&prog); err != nil {
		return fmt.Errorf("decode %s: %w", cfg.Program, err)
	}
	l.Info("program loaded",
		zap.String("path", cfg.Program),
		zap.Int("instructions", prog.Len()),
		zap.Stringer("hash", prog.Hash()),
	)

	opts := []vm.VMOpt{
		vm.LoggerOpt(l),
		vm.MaxStackOpt(cfg.MaxStack),
		vm.MaxStepsOpt(cfg.MaxSteps),
	}
	if cfg.Trace {
		opts = append(opts, vm.TracerOpt(vm.NewWriterTracer(out)))
	}

	machine := vm.NewVM(prog, opts...)
	res, err := machine.Run()
	if err != nil {
		var execErr *vm.ExecError
		if errors.As(err, &execErr) {
			l.Error("execution aborted",
				zap.Int("index", execErr.Index),
				zap.Stringer("instruction", execErr.Inst),
			)
		}
		return err
	}

	if res.HasValue {
		fmt.Fprintf(out, "FINAL VALUE: %d\n", res.Value)
	}
	fmt.Fprintf(out, "op_stack: %v\n", res.Stack)
	return nil
}
