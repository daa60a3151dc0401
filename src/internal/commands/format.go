package commands

import (
	"flag"
	"fmt"
	"io"

	"github.com/nmstate/nmstate-go/src/internal/nmstate"
)

func CreateFormatCommand() *FormatCommand {
	fc := &FormatCommand{
		fs: flag.NewFlagSet("format", flag.ExitOnError),
	}

	fc.fs.BoolVar(&fc.JSON, "json", false, "Print JSON instead of YAML")

	return fc
}

// FormatCommand prints a state file sorted and normalized.
type FormatCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext

	JSON bool

	doc []byte
}

func (f *FormatCommand) Name() string {
	return f.fs.Name()
}

func (f *FormatCommand) Init(args []string, ctx *AppContext) error {
	f.ctx = ctx

	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if f.fs.NArg() != 1 {
		return fmt.Errorf("format takes exactly one state file")
	}

	var err error
	f.doc, err = ctx.readInput(f.fs.Arg(0))
	return err
}

func (f *FormatCommand) Run() error {
	out, err := nmstate.FormatNetState(f.doc, !f.JSON)
	if err != nil {
		return err
	}
	if f.JSON {
		out += "\n"
	}
	_, err = io.WriteString(f.ctx.stdout(), out)
	return err
}
