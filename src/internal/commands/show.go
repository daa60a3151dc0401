package commands

import (
	"context"
	"flag"

	"github.com/nmstate/nmstate-go/src/internal/nmstate"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

func CreateShowCommand() *ShowCommand {
	sc := &ShowCommand{
		fs: flag.NewFlagSet("show", flag.ExitOnError),
	}

	sc.fs.BoolVar(&sc.JSON, "json", false, "Print the state as JSON instead of YAML")
	sc.fs.BoolVar(&sc.KernelOnly, "kernel", false, "Query the kernel only")
	sc.fs.BoolVar(&sc.RunningConfig, "running-config", false, "Show the running configuration only")
	sc.fs.BoolVar(&sc.ShowSecrets, "show-secrets", false, "Do not hide passwords")

	return sc
}

// ShowCommand prints the current network state, optionally limited to the
// interfaces named as arguments.
type ShowCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	lib *nmstate.Library

	JSON          bool
	KernelOnly    bool
	RunningConfig bool
	ShowSecrets   bool

	names []string
}

func (s *ShowCommand) Name() string {
	return s.fs.Name()
}

func (s *ShowCommand) Init(args []string, ctx *AppContext) error {
	s.ctx = ctx

	if err := s.fs.Parse(args); err != nil {
		return err
	}
	s.names = s.fs.Args()

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	s.lib = newLibrary(cfg, ctx)

	return nil
}

func (s *ShowCommand) Run() error {
	defer s.lib.Close()

	ns, err := s.lib.RetrieveNetState(context.Background(), nmstate.RetrieveOptions{
		KernelOnly:        s.KernelOnly,
		IncludeSecrets:    s.ShowSecrets,
		RunningConfigOnly: s.RunningConfig,
	})
	if err != nil {
		return err
	}

	if len(s.names) > 0 {
		ns = filterInterfaces(ns, s.names)
	}

	return printState(s.ctx.stdout(), ns, s.JSON)
}

// filterInterfaces keeps the named interfaces only. Routes, rules and DNS
// are kept as they are.
func filterInterfaces(ns *state.NetworkState, names []string) *state.NetworkState {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	var kept state.Interfaces
	for _, iface := range ns.Interfaces {
		if wanted[iface.Name] {
			kept = append(kept, iface)
		}
	}
	ns.Interfaces = kept
	return ns
}
