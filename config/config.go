package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const FileName = "stackvm.yaml"

type Config struct {
	// Program is the path of the program text.
	Program string `yaml:"program"`

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Trace prints the machine state after every instruction.
	Trace bool `yaml:"trace"`

	MaxStack int `yaml:"max_stack"`

	// MaxSteps of zero runs without a limit.
	MaxSteps int `yaml:"max_steps"`
}

func Default() *Config {
	return &Config{
		Program:  "bytecode_loop.txt",
		LogLevel: "info",
		MaxStack: 1024,
	}
}

// Load reads the config at path on top of the defaults. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes YAML config. path is only used in error messages.
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Program == "" {
		return errors.New("program must be set")
	}
	if c.MaxStack <= 0 {
		return fmt.Errorf("max_stack must be positive, got %d", c.MaxStack)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return lvl, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
