package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/nmstate/nmstate-go/src/internal/config"
	"github.com/nmstate/nmstate-go/src/internal/nmstate"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

type Runner interface {
	Init(args []string, globalArgs *AppContext) error
	Run() error
	Name() string
}

type AppContext struct {
	ConfigPath string
	Verbose    bool

	// Backend replaces the kernel backend when set.
	Backend nmstate.Backend
	// Stdin and Stdout default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
}

func (c *AppContext) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

func (c *AppContext) stdin() io.Reader {
	if c.Stdin != nil {
		return c.Stdin
	}
	return os.Stdin
}

// readInput reads a state file, "-" meaning stdin.
func (c *AppContext) readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(c.stdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", path, err)
	}
	return data, nil
}

// loadAndValidateConfigOrFail loads configuration from file and validates it.
// A missing file yields the defaults.
func loadAndValidateConfigOrFail(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %v", err)
	}

	if err := cfg.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %v", err)
	}

	return cfg, nil
}

// newLibrary builds the library described by cfg.
func newLibrary(cfg *config.Config, ctx *AppContext) *nmstate.Library {
	return nmstate.NewLibrary(nmstate.Options{
		Backend:         ctx.Backend,
		ResolvConfPath:  cfg.General.ResolvConfPath,
		CheckpointDir:   cfg.GetAbsCheckpointDir(),
		RollbackTimeout: cfg.General.RollbackTimeout(),
		VerifyRetries:   cfg.General.VerifyRetries,
		VerifyInterval:  cfg.General.VerifyInterval(),
	})
}

// printState writes ns as YAML, or as indented JSON when asJSON is set.
func printState(w io.Writer, ns *state.NetworkState, asJSON bool) error {
	out, err := nmstate.Encode(ns, !asJSON)
	if err != nil {
		return err
	}
	if asJSON {
		out += "\n"
	}
	_, err = io.WriteString(w, out)
	return err
}
