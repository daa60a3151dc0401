//go:build !no_gen_conf

package nmstate

import (
	"github.com/nmstate/nmstate-go/src/internal/nm"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

const GenConfSupported = true

// GenerateConfigurations renders NetworkManager keyfiles for desired without
// touching the host.
func (l *Library) GenerateConfigurations(desired *state.NetworkState) (Configurations, error) {
	des := desired.Clone()
	if des == nil {
		des = &state.NetworkState{}
	}
	if err := des.Sanitize(true); err != nil {
		return nil, err
	}
	if err := des.Validate(); err != nil {
		return nil, err
	}
	files, err := nm.GenConf(des)
	if err != nil {
		return nil, err
	}
	entries := make([][2]string, 0, len(files))
	for _, f := range files {
		entries = append(entries, [2]string{f.FileName, f.Content})
	}
	return Configurations{NetworkManagerConfigs: entries}, nil
}
