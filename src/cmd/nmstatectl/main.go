package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nmstate/nmstate-go/src/internal/commands"
	"github.com/nmstate/nmstate-go/src/internal/config"
	"github.com/nmstate/nmstate-go/src/internal/log"
	"github.com/nmstate/nmstate-go/src/internal/nmstate"
)

var (
	commit = "n/a"
	date   = "n/a"
)

func main() {
	ctx := &commands.AppContext{}

	flag.StringVar(&ctx.ConfigPath, "config", config.DefaultConfigPath, "Path to configuration file")
	flag.BoolVar(&ctx.Verbose, "verbose", false, "Enable debug logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "nmstate network state manager\n")
		fmt.Fprintf(os.Stderr, "Version: %s (Commit: %s, Date: %s)\n\n", nmstate.Version, commit, date)
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command> [arguments]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  show [iface...]         Show the current network state\n")
		fmt.Fprintf(os.Stderr, "  apply FILE...           Apply network state files (\"-\" reads stdin)\n")
		fmt.Fprintf(os.Stderr, "  commit [ID]             Commit a checkpoint left by \"apply --no-commit\"\n")
		fmt.Fprintf(os.Stderr, "  rollback [ID]           Roll back a checkpoint left by \"apply --no-commit\"\n")
		fmt.Fprintf(os.Stderr, "  gc FILE                 Generate NetworkManager keyfiles\n")
		fmt.Fprintf(os.Stderr, "  diff NEW OLD            Show the state turning OLD into NEW\n")
		fmt.Fprintf(os.Stderr, "  format FILE             Print a state file sorted\n")
		fmt.Fprintf(os.Stderr, "  version                 Show version and compiled-in features\n")
		fmt.Fprintf(os.Stderr, "  service                 Serve the HTTP API\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	// stdout carries state documents.
	log.SetForceStdErr(true)
	if ctx.Verbose {
		log.SetVerbose(true)
	}

	cmds := []commands.Runner{
		commands.CreateShowCommand(),
		commands.CreateApplyCommand(),
		commands.CreateCommitCommand(),
		commands.CreateRollbackCommand(),
		commands.CreateGenConfCommand(),
		commands.CreateDiffCommand(),
		commands.CreateFormatCommand(),
		commands.CreateVersionCommand(),
		commands.CreateServiceCommand(),
	}

	args := flag.Args()

	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	subcommand := args[0]
	for _, cmd := range cmds {
		if cmd.Name() == subcommand {
			if err := cmd.Init(args[1:], ctx); err != nil {
				log.Fatalf("Failed to initialize command: %v", err)
			}

			if err := cmd.Run(); err != nil {
				log.Fatalf("Failed to run command: %v", err)
			}

			os.Exit(0)
		}
	}

	log.Fatalf("Unknown subcommand: %s", subcommand)
}
