package nmstate

import (
	"context"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

// nullBackend refuses to touch anything.
type nullBackend struct{}

func newNullBackend() Backend { return nullBackend{} }

func (nullBackend) QueryState(context.Context, QueryOptions) (*state.NetworkState, error) {
	return nil, errors.NewBug("unexpected query", nil)
}

func (nullBackend) ApplyState(context.Context, *state.MergedState) error {
	return errors.NewBug("unexpected apply", nil)
}
