package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nmstate/nmstate-go/src/internal/log"
	"github.com/nmstate/nmstate-go/src/internal/nmstate"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

func CreateApplyCommand() *ApplyCommand {
	ac := &ApplyCommand{
		fs: flag.NewFlagSet("apply", flag.ExitOnError),
	}

	ac.fs.BoolVar(&ac.NoVerify, "no-verify", false, "Do not verify the applied state")
	ac.fs.BoolVar(&ac.NoCommit, "no-commit", false, "Keep the checkpoint; run \"commit\" or \"rollback\" afterwards")
	ac.fs.UintVar(&ac.TimeoutSec, "timeout", 0, "Rollback timeout in seconds for --no-commit (0 uses the configured default)")
	ac.fs.BoolVar(&ac.KernelOnly, "kernel", false, "Apply to the kernel only")
	ac.fs.BoolVar(&ac.MemoryOnly, "memory-only", false, "Do not persist the applied state")

	return ac
}

// ApplyCommand applies one or more state files in order.
type ApplyCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	lib *nmstate.Library

	NoVerify   bool
	NoCommit   bool
	TimeoutSec uint
	KernelOnly bool
	MemoryOnly bool

	desired []*state.NetworkState
}

func (a *ApplyCommand) Name() string {
	return a.fs.Name()
}

func (a *ApplyCommand) Init(args []string, ctx *AppContext) error {
	a.ctx = ctx

	if err := a.fs.Parse(args); err != nil {
		return err
	}

	if a.fs.NArg() == 0 {
		return fmt.Errorf("at least one state file is required")
	}
	if a.NoCommit && a.fs.NArg() > 1 {
		return fmt.Errorf("only one state file can be applied with --no-commit")
	}
	if a.TimeoutSec > 0 && !a.NoCommit {
		return fmt.Errorf("--timeout requires --no-commit")
	}

	for _, path := range a.fs.Args() {
		data, err := ctx.readInput(path)
		if err != nil {
			return err
		}
		ns, err := state.NewDesired(data)
		if err != nil {
			return fmt.Errorf("invalid state in %s: %v", path, err)
		}
		a.desired = append(a.desired, ns)
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	a.lib = newLibrary(cfg, ctx)

	return nil
}

func (a *ApplyCommand) Run() error {
	defer a.lib.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := nmstate.ApplyOptions{
		KernelOnly:      a.KernelOnly,
		NoVerify:        a.NoVerify,
		NoCommit:        a.NoCommit,
		MemoryOnly:      a.MemoryOnly,
		RollbackTimeout: time.Duration(a.TimeoutSec) * time.Second,
	}

	for i, desired := range a.desired {
		id, err := a.lib.ApplyNetState(ctx, desired, opts)
		if err != nil {
			return fmt.Errorf("failed to apply %s: %w", a.fs.Arg(i), err)
		}

		if err := printState(a.ctx.stdout(), desired, false); err != nil {
			return err
		}

		if id != "" {
			_, expires, _ := a.lib.CheckpointExpiry()
			fmt.Fprintf(a.ctx.stdout(), "Checkpoint: %s\n", id)
			log.Infof("Checkpoint %s expires at %s unless committed", id, expires.Format(time.RFC3339))
		}
	}

	return nil
}
