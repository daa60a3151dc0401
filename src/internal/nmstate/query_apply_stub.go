//go:build no_query_apply

package nmstate

import (
	"context"
	"time"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

const QueryApplySupported = false

const errQueryApply = "query and apply support is not compiled in"

func defaultBackend(string) Backend { return nil }

func (l *Library) RetrieveNetState(context.Context, RetrieveOptions) (*state.NetworkState, error) {
	return nil, errors.NewNotSupported(errQueryApply)
}

func (l *Library) ApplyNetState(context.Context, *state.NetworkState, ApplyOptions) (string, error) {
	return "", errors.NewNotSupported(errQueryApply)
}

func (l *Library) CommitCheckpoint(context.Context, string) error {
	return errors.NewNotSupported(errQueryApply)
}

func (l *Library) RollbackCheckpoint(context.Context, string) error {
	return errors.NewNotSupported(errQueryApply)
}

func (l *Library) RestoreCheckpoint(context.Context) error {
	return errors.NewNotSupported(errQueryApply)
}

func (l *Library) CheckpointExpiry() (string, time.Time, bool) {
	return "", time.Time{}, false
}

func (l *Library) revertTo(context.Context, *state.NetworkState) error {
	return errors.NewNotSupported(errQueryApply)
}
