// Package commands implements the nmstatectl subcommands.
//
// Every command implements Runner: Init parses the arguments, reads input
// files and loads the configuration, Run performs the work. Query and apply
// commands build an nmstate.Library from the [general] configuration
// section; gc, diff and format work on files only.
//
// Available commands:
//
//   - show: print the current network state
//   - apply: apply state files with checkpoint, verification and rollback
//   - commit, rollback: finish a checkpoint left by "apply --no-commit"
//   - gc: generate NetworkManager keyfiles for a state file
//   - diff: print the state turning OLD into NEW
//   - format: print a state file sorted
//   - version: print the library version and compiled-in features
//   - service: serve the HTTP API
package commands
