//go:build !no_query_apply

package nmstate

import (
	"context"
	"time"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/log"
	"github.com/nmstate/nmstate-go/src/internal/networking"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

// QueryApplySupported reports whether query and apply are compiled in.
const QueryApplySupported = true

type kernelBackend struct {
	m *networking.Manager
}

func (b kernelBackend) QueryState(ctx context.Context, opts QueryOptions) (*state.NetworkState, error) {
	return b.m.QueryState(ctx, networking.QueryOptions{RunningConfigOnly: opts.RunningConfigOnly})
}

func (b kernelBackend) ApplyState(ctx context.Context, merged *state.MergedState) error {
	return b.m.ApplyState(ctx, merged)
}

func defaultBackend(resolvConfPath string) Backend {
	return kernelBackend{m: networking.NewManager(nil, resolvConfPath)}
}

// NewKernelBackend returns the netlink backend driven through nl.
func NewKernelBackend(nl networking.Netlinker, resolvConfPath string) Backend {
	return kernelBackend{m: networking.NewManager(nl, resolvConfPath)}
}

// RetrieveNetState queries the current network state.
func (l *Library) RetrieveNetState(ctx context.Context, opts RetrieveOptions) (*state.NetworkState, error) {
	if !opts.KernelOnly {
		log.Debugf("Only the kernel backend is available, querying the kernel")
	}
	ns, err := l.backend.QueryState(ctx, QueryOptions{RunningConfigOnly: opts.RunningConfigOnly})
	if err != nil {
		return nil, err
	}
	if !opts.IncludeSecrets {
		hideSecrets(ns)
	}
	return ns, nil
}

// ApplyNetState applies desired. A checkpoint guards the change: failures
// roll back to the state found before the apply. With NoCommit the
// checkpoint id is returned and stays active until committed, rolled back or
// expired.
func (l *Library) ApplyNetState(ctx context.Context, desired *state.NetworkState, opts ApplyOptions) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if desired == nil || desired.IsEmpty() {
		log.Infof("Desired state is empty, nothing to apply")
		return "", nil
	}
	des := desired.Clone()
	if err := des.Sanitize(true); err != nil {
		return "", err
	}
	if err := des.Validate(); err != nil {
		return "", err
	}

	current, err := l.backend.QueryState(ctx, QueryOptions{})
	if err != nil {
		return "", err
	}
	merged, err := state.Merge(des, current)
	if err != nil {
		return "", err
	}

	timeout := opts.RollbackTimeout
	if timeout <= 0 {
		timeout = l.rollbackTimeout
	}
	if l.checkpoints.Current() == nil {
		// Another process may hold a checkpoint.
		if err := l.checkpoints.Restore(ctx); err != nil {
			return "", err
		}
	}
	cp, err := l.checkpoints.Create(merged.Revert(), des, timeout)
	if err != nil {
		return "", err
	}

	if err := l.applyAndVerify(ctx, merged, opts.NoVerify); err != nil {
		log.Errorf("Apply failed, rolling back checkpoint %s: %v", cp.ID, err)
		// The rollback has to run even if ctx was cancelled.
		if rbErr := l.checkpoints.Rollback(context.WithoutCancel(ctx), cp.ID); rbErr != nil {
			log.Errorf("Rollback failed: %v", rbErr)
		}
		return "", err
	}

	if opts.NoCommit {
		// The timeout counts from here, the apply itself may take long.
		if _, err := l.checkpoints.Start(cp.ID); err != nil {
			return "", err
		}
		log.Infof("Checkpoint %s kept, commit or roll back within %s", cp.ID, timeout)
		return cp.ID, nil
	}
	if err := l.checkpoints.Commit(cp.ID); err != nil {
		return "", errors.Wrap(errors.KindTimeout, "checkpoint was settled before it was committed", err)
	}
	return "", nil
}

func (l *Library) applyAndVerify(ctx context.Context, merged *state.MergedState, noVerify bool) error {
	if err := l.backend.ApplyState(ctx, merged); err != nil {
		return err
	}
	if noVerify {
		return nil
	}

	var verifyErr error
	for attempt := 1; attempt <= l.verifyRetries; attempt++ {
		current, err := l.backend.QueryState(ctx, QueryOptions{})
		if err != nil {
			return err
		}
		if verifyErr = merged.Verify(current); verifyErr == nil {
			return nil
		}
		log.Debugf("Verification attempt %d/%d failed: %v", attempt, l.verifyRetries, verifyErr)
		if attempt < l.verifyRetries {
			if err := sleepCtx(ctx, l.verifyInterval); err != nil {
				return errors.Wrap(errors.KindTimeout, "verification interrupted", err)
			}
		}
	}
	return verifyErr
}

// revertTo applies a revert state on top of the current state.
func (l *Library) revertTo(ctx context.Context, revert *state.NetworkState) error {
	current, err := l.backend.QueryState(ctx, QueryOptions{})
	if err != nil {
		return err
	}
	merged, err := state.Merge(revert, current)
	if err != nil {
		return err
	}
	return l.backend.ApplyState(ctx, merged)
}

// CommitCheckpoint discards a checkpoint. An empty id selects the latest.
func (l *Library) CommitCheckpoint(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.restore(ctx); err != nil {
		return err
	}
	return l.checkpoints.Commit(id)
}

// RollbackCheckpoint restores the state saved by a checkpoint. An empty id
// selects the latest.
func (l *Library) RollbackCheckpoint(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.restore(ctx); err != nil {
		return err
	}
	return l.checkpoints.Rollback(ctx, id)
}

// RestoreCheckpoint loads a checkpoint persisted by another process and
// restarts its timer, rolling it back when it already expired.
func (l *Library) RestoreCheckpoint(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.restore(ctx)
}

func (l *Library) restore(ctx context.Context) error {
	if l.checkpoints.Current() != nil {
		return nil
	}
	return l.checkpoints.Restore(ctx)
}

// CheckpointExpiry returns the id and expiry of the active checkpoint.
func (l *Library) CheckpointExpiry() (string, time.Time, bool) {
	cp := l.checkpoints.Current()
	if cp == nil {
		return "", time.Time{}, false
	}
	return cp.ID, cp.Expires(), true
}
