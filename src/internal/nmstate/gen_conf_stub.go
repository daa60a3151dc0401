//go:build no_gen_conf

package nmstate

import (
	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

const GenConfSupported = false

func (l *Library) GenerateConfigurations(*state.NetworkState) (Configurations, error) {
	return nil, errors.NewNotSupported("configuration generation is not compiled in")
}
