package commands

import (
	"flag"
	"fmt"

	"github.com/nmstate/nmstate-go/src/internal/nmstate"
)

func CreateVersionCommand() *VersionCommand {
	return &VersionCommand{
		fs: flag.NewFlagSet("version", flag.ExitOnError),
	}
}

type VersionCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
}

func (v *VersionCommand) Name() string {
	return v.fs.Name()
}

func (v *VersionCommand) Init(args []string, ctx *AppContext) error {
	v.ctx = ctx
	return v.fs.Parse(args)
}

func (v *VersionCommand) Run() error {
	w := v.ctx.stdout()
	fmt.Fprintf(w, "nmstate %s\n", nmstate.Version)
	fmt.Fprintf(w, "  query_apply: %t\n", nmstate.QueryApplySupported)
	fmt.Fprintf(w, "  gen_conf:    %t\n", nmstate.GenConfSupported)
	return nil
}
