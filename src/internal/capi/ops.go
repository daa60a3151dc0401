package capi

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/nmstate"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

// Version returns the library version.
func Version() string {
	return nmstate.Version
}

// RetrieveNetState reports the current state as JSON, or YAML with
// FlagYAMLOutput.
func RetrieveNetState(flags Flags) Result {
	return call("retrieve", func(ctx context.Context, l *nmstate.Library) (string, error) {
		ns, err := l.RetrieveNetState(ctx, nmstate.RetrieveOptions{
			KernelOnly:        flags.Has(FlagKernelOnly),
			IncludeStatusData: flags.Has(FlagIncludeStatusData),
			IncludeSecrets:    flags.Has(FlagIncludeSecrets),
			RunningConfigOnly: flags.Has(FlagRunningConfigOnly),
		})
		if err != nil {
			return "", err
		}
		return nmstate.Encode(ns, flags.Has(FlagYAMLOutput))
	})
}

// ApplyNetState applies a JSON or YAML desired state. rollbackTimeout is in
// seconds, zero selects the default. With FlagNoCommit the output holds the
// checkpoint id.
func ApplyNetState(flags Flags, desired *string, rollbackTimeout uint32) Result {
	return call("apply", func(ctx context.Context, l *nmstate.Library) (string, error) {
		doc, err := required("state", desired)
		if err != nil {
			return "", err
		}
		ns, err := state.Parse([]byte(doc))
		if err != nil {
			return "", err
		}
		return l.ApplyNetState(ctx, ns, nmstate.ApplyOptions{
			KernelOnly:      flags.Has(FlagKernelOnly),
			NoVerify:        flags.Has(FlagNoVerify),
			NoCommit:        flags.Has(FlagNoCommit),
			MemoryOnly:      flags.Has(FlagMemoryOnly),
			RollbackTimeout: time.Duration(rollbackTimeout) * time.Second,
		})
	})
}

// CommitCheckpoint commits a checkpoint. A nil or empty id selects the
// latest one.
func CommitCheckpoint(id *string) Result {
	return call("commit", func(ctx context.Context, l *nmstate.Library) (string, error) {
		return "", l.CommitCheckpoint(ctx, optional(id))
	})
}

// RollbackCheckpoint rolls a checkpoint back. A nil or empty id selects the
// latest one.
func RollbackCheckpoint(id *string) Result {
	return call("rollback", func(ctx context.Context, l *nmstate.Library) (string, error) {
		return "", l.RollbackCheckpoint(ctx, optional(id))
	})
}

// GenerateConfigurations renders the backend configurations of a desired
// state as {"NetworkManager": [[file name, content], ...]}.
func GenerateConfigurations(desired *string) Result {
	return call("gen_conf", func(_ context.Context, l *nmstate.Library) (string, error) {
		doc, err := required("state", desired)
		if err != nil {
			return "", err
		}
		ns, err := state.Parse([]byte(doc))
		if err != nil {
			return "", err
		}
		confs, err := l.GenerateConfigurations(ns)
		if err != nil {
			return "", err
		}
		out, err := json.Marshal(confs)
		if err != nil {
			return "", errors.NewBug("failed to encode configurations", err)
		}
		return string(out), nil
	})
}

// GenerateDifferences returns, as JSON, the state turning oldState into
// newState.
func GenerateDifferences(newState, oldState *string) Result {
	return call("gen_diff", func(_ context.Context, l *nmstate.Library) (string, error) {
		newDoc, err := required("new_state", newState)
		if err != nil {
			return "", err
		}
		oldDoc, err := required("old_state", oldState)
		if err != nil {
			return "", err
		}
		newNs, err := state.Parse([]byte(newDoc))
		if err != nil {
			return "", err
		}
		oldNs, err := state.Parse([]byte(oldDoc))
		if err != nil {
			return "", err
		}
		diff, err := l.GenerateDifferences(newNs, oldNs)
		if err != nil {
			return "", err
		}
		return nmstate.Encode(diff, false)
	})
}

// FormatNetState normalizes a state document into sorted JSON, or YAML with
// FlagYAMLOutput.
func FormatNetState(doc *string, flags Flags) Result {
	return call("format", func(context.Context, *nmstate.Library) (string, error) {
		in, err := required("state", doc)
		if err != nil {
			return "", err
		}
		return nmstate.FormatNetState([]byte(in), flags.Has(FlagYAMLOutput))
	})
}

func optional(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
