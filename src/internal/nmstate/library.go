// Package nmstate is the library facade: it drives query, apply with
// checkpoints and verification, configuration generation and state
// differences on top of the state model and a backend.
package nmstate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nmstate/nmstate-go/src/internal/checkpoint"
	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

// Version is the library version reported by nmstate_version and
// nmstatectl version.
var Version = "2.2.0"

const (
	DefaultVerifyRetries  = 5
	DefaultVerifyInterval = time.Second

	DefaultResolvConfPath = "/etc/resolv.conf"

	// hiddenPassword replaces secrets when they are not requested.
	hiddenPassword = "<_password_hid_by_nmstate>"
)

// NetworkManagerConfigs keys the keyfiles in Configurations.
const NetworkManagerConfigs = "NetworkManager"

// Configurations maps a backend to its [file name, content] pairs.
type Configurations map[string][][2]string

// Backend reads and programs the host network.
type Backend interface {
	QueryState(ctx context.Context, opts QueryOptions) (*state.NetworkState, error)
	ApplyState(ctx context.Context, merged *state.MergedState) error
}

// QueryOptions are passed to the backend on every query.
type QueryOptions struct {
	RunningConfigOnly bool
}

// Options configure a Library. Zero values select the defaults.
type Options struct {
	// Backend replaces the kernel backend.
	Backend Backend
	// ResolvConfPath is where the kernel backend keeps DNS configuration.
	ResolvConfPath string
	// CheckpointDir persists checkpoints across processes when set.
	CheckpointDir string
	// RollbackTimeout applies when ApplyOptions leave it unset.
	RollbackTimeout time.Duration
	VerifyRetries   int
	VerifyInterval  time.Duration
}

// RetrieveOptions select what RetrieveNetState reports.
type RetrieveOptions struct {
	KernelOnly        bool
	IncludeStatusData bool
	IncludeSecrets    bool
	RunningConfigOnly bool
}

// ApplyOptions tune ApplyNetState.
type ApplyOptions struct {
	KernelOnly bool
	NoVerify   bool
	// NoCommit keeps the checkpoint so the caller commits or rolls back.
	NoCommit   bool
	MemoryOnly bool
	// RollbackTimeout of zero uses the library default.
	RollbackTimeout time.Duration
}

// Library serializes every state changing call.
type Library struct {
	mu              sync.Mutex
	backend         Backend
	checkpoints     *checkpoint.Manager
	rollbackTimeout time.Duration
	verifyRetries   int
	verifyInterval  time.Duration
}

// NewLibrary creates a library. Without an explicit backend the kernel
// backend is used when query/apply support is compiled in.
func NewLibrary(opts Options) *Library {
	l := &Library{
		backend:         opts.Backend,
		rollbackTimeout: opts.RollbackTimeout,
		verifyRetries:   opts.VerifyRetries,
		verifyInterval:  opts.VerifyInterval,
	}
	if l.backend == nil {
		l.backend = defaultBackend(opts.ResolvConfPath)
	}
	if l.rollbackTimeout <= 0 {
		l.rollbackTimeout = checkpoint.DefaultTimeout
	}
	if l.verifyRetries <= 0 {
		l.verifyRetries = DefaultVerifyRetries
	}
	if l.verifyInterval <= 0 {
		l.verifyInterval = DefaultVerifyInterval
	}
	l.checkpoints = checkpoint.NewManager(l.revertTo, opts.CheckpointDir)
	l.checkpoints.SetLocker(&l.mu)
	return l
}

// Close stops pending checkpoint timers. Persisted checkpoints stay on disk.
func (l *Library) Close() {
	l.checkpoints.Close()
}

// GenerateDifferences returns the state turning oldState into newState.
func (l *Library) GenerateDifferences(newState, oldState *state.NetworkState) (*state.NetworkState, error) {
	return state.GenerateDifferences(newState, oldState)
}

// FormatNetState parses a JSON or YAML document and renders it sorted, as
// YAML or indented JSON.
func FormatNetState(doc []byte, asYAML bool) (string, error) {
	ns, err := state.Parse(doc)
	if err != nil {
		return "", err
	}
	return Encode(ns, asYAML)
}

// Encode renders a state as YAML or indented JSON.
func Encode(ns *state.NetworkState, asYAML bool) (string, error) {
	var (
		out []byte
		err error
	)
	if asYAML {
		out, err = ns.ToYAML()
	} else {
		out, err = ns.ToJSON(true)
	}
	if err != nil {
		return "", errors.NewBug("failed to encode network state", err)
	}
	return string(out), nil
}

// hideSecrets masks password values of 802.1x sections.
func hideSecrets(ns *state.NetworkState) {
	for _, iface := range ns.Interfaces {
		for key := range iface.IEEE8021X {
			if strings.Contains(key, "password") {
				iface.IEEE8021X[key] = hiddenPassword
			}
		}
	}
}

// sleepCtx waits d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
