package commands

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/valyala/fasttemplate"
	"sigs.k8s.io/yaml"

	"github.com/nmstate/nmstate-go/src/internal/log"
	"github.com/nmstate/nmstate-go/src/internal/nmstate"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

// Placeholders understood by --name-template.
const (
	TmplBackend = "backend"
	TmplName    = "name"
	TmplID      = "id"
)

const defaultNameTemplate = "{{" + TmplName + "}}"

func CreateGenConfCommand() *GenConfCommand {
	gc := &GenConfCommand{
		fs: flag.NewFlagSet("gc", flag.ExitOnError),
	}

	gc.fs.StringVar(&gc.OutputDir, "output-dir", "", "Write the generated files to this directory instead of printing them")
	gc.fs.StringVar(&gc.NameTemplate, "name-template", defaultNameTemplate,
		"File name template; placeholders: {{backend}}, {{name}}, {{id}}")

	return gc
}

// GenConfCommand generates backend configuration files for a state file
// without touching the host.
type GenConfCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	lib *nmstate.Library

	OutputDir    string
	NameTemplate string

	desired *state.NetworkState
}

func (g *GenConfCommand) Name() string {
	return g.fs.Name()
}

func (g *GenConfCommand) Init(args []string, ctx *AppContext) error {
	g.ctx = ctx

	if err := g.fs.Parse(args); err != nil {
		return err
	}
	if g.fs.NArg() != 1 {
		return fmt.Errorf("gc takes exactly one state file")
	}
	if g.NameTemplate == "" {
		return fmt.Errorf("--name-template must not be empty")
	}

	data, err := ctx.readInput(g.fs.Arg(0))
	if err != nil {
		return err
	}
	if g.desired, err = state.NewDesired(data); err != nil {
		return fmt.Errorf("invalid state in %s: %v", g.fs.Arg(0), err)
	}

	// Generation needs no host access and no configuration.
	g.lib = nmstate.NewLibrary(nmstate.Options{Backend: ctx.Backend})

	return nil
}

func (g *GenConfCommand) Run() error {
	defer g.lib.Close()

	confs, err := g.lib.GenerateConfigurations(g.desired)
	if err != nil {
		return err
	}

	if g.OutputDir == "" {
		out, err := yaml.Marshal(confs)
		if err != nil {
			return fmt.Errorf("failed to encode configurations: %v", err)
		}
		_, err = g.ctx.stdout().Write(out)
		return err
	}

	return g.writeFiles(confs)
}

func (g *GenConfCommand) writeFiles(confs nmstate.Configurations) error {
	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %v", g.OutputDir, err)
	}

	backends := make([]string, 0, len(confs))
	for backend := range confs {
		backends = append(backends, backend)
	}
	sort.Strings(backends)

	tmpl := fasttemplate.New(g.NameTemplate, "{{", "}}")
	for _, backend := range backends {
		for _, entry := range confs[backend] {
			fileName := outputFileName(tmpl, backend, entry[0])
			if fileName == "" || strings.ContainsRune(fileName, filepath.Separator) {
				return fmt.Errorf("name template produced invalid file name %q for %s", fileName, entry[0])
			}

			path := filepath.Join(g.OutputDir, fileName)
			// NetworkManager ignores keyfiles readable by others.
			if err := os.WriteFile(path, []byte(entry[1]), 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %v", path, err)
			}
			log.Infof("Wrote %s", path)
		}
	}
	return nil
}

func outputFileName(tmpl *fasttemplate.Template, backend, name string) string {
	return tmpl.ExecuteString(map[string]interface{}{
		TmplBackend: backend,
		TmplName:    name,
		TmplID:      strings.TrimSuffix(name, filepath.Ext(name)),
	})
}
