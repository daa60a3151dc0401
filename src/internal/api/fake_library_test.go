package api

import (
	"context"
	"time"

	"github.com/nmstate/nmstate-go/src/internal/nmstate"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

type fakeLibrary struct {
	current    *state.NetworkState
	err        error
	panics     bool
	checkpoint string
	expires    time.Time

	retrieveOpts nmstate.RetrieveOptions
	applied      *state.NetworkState
	applyOpts    nmstate.ApplyOptions
	committed    []string
	rolledBack   []string
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{current: &state.NetworkState{Interfaces: state.Interfaces{
		{Name: "eth0", Type: state.TypeEthernet, State: state.StateUp, MTU: state.Uint32Ptr(1500)},
	}}}
}

func (f *fakeLibrary) RetrieveNetState(_ context.Context, opts nmstate.RetrieveOptions) (*state.NetworkState, error) {
	if f.panics {
		panic("query exploded")
	}
	f.retrieveOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.current.Clone(), nil
}

func (f *fakeLibrary) ApplyNetState(_ context.Context, desired *state.NetworkState, opts nmstate.ApplyOptions) (string, error) {
	f.applied = desired
	f.applyOpts = opts
	if f.err != nil {
		return "", f.err
	}
	if opts.NoCommit {
		f.checkpoint = "/nmstate/checkpoint/1"
		f.expires = time.Now().Add(opts.RollbackTimeout)
		return f.checkpoint, nil
	}
	return "", nil
}

func (f *fakeLibrary) CommitCheckpoint(_ context.Context, id string) error {
	f.committed = append(f.committed, id)
	f.checkpoint = ""
	return f.err
}

func (f *fakeLibrary) RollbackCheckpoint(_ context.Context, id string) error {
	f.rolledBack = append(f.rolledBack, id)
	f.checkpoint = ""
	return f.err
}

func (f *fakeLibrary) CheckpointExpiry() (string, time.Time, bool) {
	return f.checkpoint, f.expires, f.checkpoint != ""
}

func (f *fakeLibrary) GenerateConfigurations(desired *state.NetworkState) (nmstate.Configurations, error) {
	if f.err != nil {
		return nil, f.err
	}
	var files [][2]string
	for _, iface := range desired.Interfaces {
		files = append(files, [2]string{iface.Name + ".nmconnection", "[connection]\nid=" + iface.Name + "\n"})
	}
	return nmstate.Configurations{nmstate.NetworkManagerConfigs: files}, nil
}

func (f *fakeLibrary) GenerateDifferences(newState, oldState *state.NetworkState) (*state.NetworkState, error) {
	return state.GenerateDifferences(newState, oldState)
}
