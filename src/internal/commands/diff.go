package commands

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/nmstate/nmstate-go/src/internal/nmstate"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

func CreateDiffCommand() *DiffCommand {
	dc := &DiffCommand{
		fs: flag.NewFlagSet("diff", flag.ExitOnError),
	}

	dc.fs.BoolVar(&dc.Text, "text", false, "Print a line diff of the formatted states instead of the difference state")
	dc.fs.BoolVar(&dc.JSON, "json", false, "Print the difference state as JSON")

	return dc
}

// DiffCommand prints what changes OLD into NEW.
type DiffCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext

	Text bool
	JSON bool

	newState *state.NetworkState
	oldState *state.NetworkState
}

func (d *DiffCommand) Name() string {
	return d.fs.Name()
}

func (d *DiffCommand) Init(args []string, ctx *AppContext) error {
	d.ctx = ctx

	if err := d.fs.Parse(args); err != nil {
		return err
	}
	if d.fs.NArg() != 2 {
		return fmt.Errorf("diff takes exactly two state files: NEW OLD")
	}

	var err error
	if d.newState, err = d.parse(d.fs.Arg(0)); err != nil {
		return err
	}
	if d.oldState, err = d.parse(d.fs.Arg(1)); err != nil {
		return err
	}
	return nil
}

func (d *DiffCommand) parse(path string) (*state.NetworkState, error) {
	data, err := d.ctx.readInput(path)
	if err != nil {
		return nil, err
	}
	ns, err := state.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid state in %s: %v", path, err)
	}
	return ns, nil
}

func (d *DiffCommand) Run() error {
	if d.Text {
		return d.printTextDiff()
	}

	diff, err := state.GenerateDifferences(d.newState, d.oldState)
	if err != nil {
		return err
	}
	return printState(d.ctx.stdout(), diff, d.JSON)
}

func (d *DiffCommand) printTextDiff() error {
	newText, err := nmstate.Encode(d.newState, true)
	if err != nil {
		return err
	}
	oldText, err := nmstate.Encode(d.oldState, true)
	if err != nil {
		return err
	}
	writeLineDiff(d.ctx.stdout(), oldText, newText)
	return nil
}

// writeLineDiff prints oldText to newText as unified-style lines prefixed
// with "-", "+" or " ".
func writeLineDiff(w io.Writer, oldText, newText string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	for _, diff := range diffs {
		prefix := " "
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprint(w, prefix, line)
			if !strings.HasSuffix(line, "\n") {
				fmt.Fprintln(w)
			}
		}
	}
}
