package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/nmstate/nmstate-go/src/internal/log"
	"github.com/nmstate/nmstate-go/src/internal/nmstate"
)

func CreateCommitCommand() *CheckpointCommand {
	return &CheckpointCommand{
		fs:     flag.NewFlagSet("commit", flag.ExitOnError),
		commit: true,
	}
}

func CreateRollbackCommand() *CheckpointCommand {
	return &CheckpointCommand{
		fs: flag.NewFlagSet("rollback", flag.ExitOnError),
	}
}

// CheckpointCommand commits or rolls back a checkpoint left by
// "apply --no-commit". Without an id the latest checkpoint is used.
type CheckpointCommand struct {
	fs     *flag.FlagSet
	lib    *nmstate.Library
	commit bool

	id string
}

func (c *CheckpointCommand) Name() string {
	return c.fs.Name()
}

func (c *CheckpointCommand) Init(args []string, ctx *AppContext) error {
	if err := c.fs.Parse(args); err != nil {
		return err
	}

	switch c.fs.NArg() {
	case 0:
	case 1:
		c.id = c.fs.Arg(0)
	default:
		return fmt.Errorf("%s takes at most one checkpoint id", c.Name())
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.lib = newLibrary(cfg, ctx)

	return nil
}

func (c *CheckpointCommand) Run() error {
	defer c.lib.Close()

	target := c.id
	if target == "" {
		target = "latest checkpoint"
	}

	if c.commit {
		if err := c.lib.CommitCheckpoint(context.Background(), c.id); err != nil {
			return err
		}
		log.Infof("Committed %s", target)
		return nil
	}

	if err := c.lib.RollbackCheckpoint(context.Background(), c.id); err != nil {
		return err
	}
	log.Infof("Rolled back %s", target)
	return nil
}
