package networking

import (
	"github.com/nmstate/nmstate-go/src/internal/errors"
)

// DefaultResolvConfPath is where DNS configuration is read from and written to.
const DefaultResolvConfPath = "/etc/resolv.conf"

// Manager is the kernel backend: it reads the network state through netlink
// and programs a merged state back.
//
// DNS configuration lives in resolvConfPath. An empty path disables DNS
// handling.
type Manager struct {
	nl             Netlinker
	resolvConfPath string
}

// NewManager creates a kernel backend. A nil Netlinker uses DefaultNetlinker.
func NewManager(nl Netlinker, resolvConfPath string) *Manager {
	if nl == nil {
		nl = DefaultNetlinker
	}
	return &Manager{
		nl:             nl,
		resolvConfPath: resolvConfPath,
	}
}

// pluginError wraps a netlink failure, keeping nmstate errors as they are.
func pluginError(message string, err error) error {
	if _, ok := err.(*errors.Error); ok {
		return err
	}
	return errors.NewPluginFailure(message, err)
}
